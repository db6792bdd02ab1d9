//go:build darwin

package loader

import (
	"github.com/ebitengine/purego"

	"github.com/lazydl/dylink"
)

// dyldImageCount and dyldGetImageName are bound to libSystem's
// _dyld_image_count/_dyld_get_image_name via purego.RegisterLibFunc.
// Deliberately not the pointer-masked, retry-looping traversal the
// original Rust source used (spec.md §9 calls that an implementation
// detail to re-evaluate, not a contract) — this walks the image list once
// and compares dlopen handles directly.
var (
	dyldImageCount   func() uint32
	dyldGetImageName func(uint32) string
)

// rtldNoload is RTLD_NOLOAD, a macOS-only dlopen flag not exposed by
// purego's portable constant set: it returns a handle for an
// already-loaded image without loading it fresh. The returned handle is
// reference-counted, so Path closes each one again.
const rtldNoload = 0x10

func init() {
	lib, err := purego.Dlopen("/usr/lib/libSystem.B.dylib", purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return
	}
	purego.RegisterLibFunc(&dyldImageCount, lib, "_dyld_image_count")
	purego.RegisterLibFunc(&dyldGetImageName, lib, "_dyld_get_image_name")
}

// Path reports the file a handle was opened from by comparing it against
// a fresh dlopen of every currently loaded Mach-O image.
func (System) Path(handle uintptr) (string, error) {
	if dyldImageCount == nil {
		return "", dylink.NewError(dylink.LoaderError, "dyld introspection unavailable")
	}

	count := dyldImageCount()
	for i := uint32(0); i < count; i++ {
		name := dyldGetImageName(i)
		if name == "" {
			continue
		}
		candidate, err := purego.Dlopen(name, purego.RTLD_NOW|rtldNoload)
		if err != nil {
			continue
		}
		_ = purego.Dlclose(candidate)
		if candidate == handle {
			return name, nil
		}
	}
	return "", dylink.NewError(dylink.LoaderError, "path not found")
}
