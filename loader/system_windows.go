//go:build windows

package loader

import (
	"golang.org/x/sys/windows"

	"github.com/lazydl/dylink"
)

// System delegates to the platform dynamic loader. On Windows this is
// LoadLibraryExW/GetProcAddress/FreeLibrary via golang.org/x/sys/windows,
// with LOAD_LIBRARY_SEARCH_DEFAULT_DIRS set per spec so a DLL's own
// directory and the usual system search paths are consulted without
// falling back to the (unsafe) current-directory search order.
type System struct{}

// NewSystem returns the system loader backend.
func NewSystem() System { return System{} }

func (System) Open(name string) (uintptr, error) {
	handle, err := windows.LoadLibraryEx(name, 0, windows.LOAD_LIBRARY_SEARCH_DEFAULT_DIRS)
	if err != nil {
		return Invalid, translate(name, err)
	}
	return uintptr(handle), nil
}

func (System) Resolve(handle uintptr, symbol string) (uintptr, error) {
	addr, err := windows.GetProcAddress(windows.Handle(handle), symbol)
	if err != nil {
		return 0, dylink.NewError(dylink.SymbolNotFound, symbol)
	}
	return addr, nil
}

func (System) IsInvalid(handle uintptr) bool {
	return handle == Invalid
}

// Close unloads the library via FreeLibrary. System satisfies
// loader.Closer on Windows.
func (System) Close(handle uintptr) error {
	if err := windows.FreeLibrary(windows.Handle(handle)); err != nil {
		return translate("<handle>", err)
	}
	return nil
}
