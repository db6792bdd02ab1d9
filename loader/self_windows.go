//go:build windows

package loader

import (
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/lazydl/dylink"
)

// Self resolves symbols against images already loaded into the current
// process by enumerating its modules (the equivalent-Windows-iteration the
// spec calls for, since Windows has no LoadLibrary(NULL) analog). Open
// returns the current process pseudo-handle; the real work happens in
// Resolve, which walks every loaded module looking for the symbol.
type Self struct{}

// NewSelf returns the self (already-loaded-images) loader backend.
func NewSelf() Self { return Self{} }

func (Self) Open(name string) (uintptr, error) {
	return uintptr(windows.CurrentProcess()), nil
}

func (Self) Resolve(handle uintptr, symbol string) (uintptr, error) {
	process := windows.Handle(handle)

	var needed uint32
	_ = windows.EnumProcessModules(process, nil, 0, &needed)
	if needed == 0 {
		return 0, dylink.NewError(dylink.SymbolNotFound, symbol)
	}

	count := int(needed) / int(unsafe.Sizeof(windows.Handle(0)))
	modules := make([]windows.Handle, count)
	if err := windows.EnumProcessModules(process, &modules[0], needed, &needed); err != nil {
		return 0, dylink.WrapError(dylink.SymbolNotFound, symbol, err)
	}

	for _, mod := range modules {
		if addr, err := windows.GetProcAddress(mod, symbol); err == nil {
			return addr, nil
		}
	}
	return 0, dylink.NewError(dylink.SymbolNotFound, symbol)
}

func (Self) IsInvalid(handle uintptr) bool {
	return handle == Invalid
}
