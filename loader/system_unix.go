//go:build !windows

package loader

import (
	"fmt"

	"github.com/ebitengine/purego"
	"github.com/lazydl/dylink"
)

// System delegates to the platform dynamic loader. On POSIX this is
// dlopen/dlsym/dlclose via purego, invoked without cgo.
type System struct{}

// NewSystem returns the system loader backend.
func NewSystem() System { return System{} }

func (System) Open(name string) (uintptr, error) {
	handle, err := purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return Invalid, translate(name, err)
	}
	return handle, nil
}

func (System) Resolve(handle uintptr, symbol string) (uintptr, error) {
	addr, err := purego.Dlsym(handle, symbol)
	if err != nil {
		return 0, dylink.NewError(dylink.SymbolNotFound, symbol)
	}
	return addr, nil
}

func (System) IsInvalid(handle uintptr) bool {
	return handle == Invalid
}

// Close unloads the library identified by handle. System satisfies
// loader.Closer on POSIX, where dlclose is well defined.
func (System) Close(handle uintptr) error {
	if err := purego.Dlclose(handle); err != nil {
		return translate(fmt.Sprintf("handle %#x", handle), err)
	}
	return nil
}

