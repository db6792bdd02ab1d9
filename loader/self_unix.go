//go:build !windows

package loader

import (
	"github.com/ebitengine/purego"
	"github.com/lazydl/dylink"
)

// Self resolves symbols against images already loaded into the current
// process. Open never fails short of the dynamic linker itself being
// broken: glibc and Darwin both treat dlopen("", ...) as equivalent to
// dlopen(NULL, ...), returning a handle for the main program (which pulls
// in every other already-loaded image via the normal symbol search
// order). The candidate name passed to Open is ignored — it exists only
// so Self satisfies the same Loader interface as System.
type Self struct{}

// NewSelf returns the self (already-loaded-images) loader backend.
func NewSelf() Self { return Self{} }

func (Self) Open(name string) (uintptr, error) {
	handle, err := purego.Dlopen("", purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return Invalid, translate("<self>", err)
	}
	return handle, nil
}

func (Self) Resolve(handle uintptr, symbol string) (uintptr, error) {
	addr, err := purego.Dlsym(handle, symbol)
	if err != nil {
		return 0, dylink.NewError(dylink.SymbolNotFound, symbol)
	}
	return addr, nil
}

func (Self) IsInvalid(handle uintptr) bool {
	return handle == Invalid
}
