//go:build linux

package loader

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/lazydl/dylink"
)

// rtldDiLinkmap is glibc's RTLD_DI_LINKMAP request code for dlinfo.
const rtldDiLinkmap = 2

// dlinfo is bound to glibc's dlinfo via purego.RegisterLibFunc. request is
// always rtldDiLinkmap here; info receives a pointer to a struct link_map.
var dlinfo func(handle uintptr, request int32, info unsafe.Pointer) int32

func init() {
	lib, err := purego.Dlopen("libc.so.6", purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return
	}
	purego.RegisterLibFunc(&dlinfo, lib, "dlinfo")
}

// Path reports the file a handle was opened from via
// dlinfo(handle, RTLD_DI_LINKMAP, &link_map), reading l_name out of the
// returned struct link_map. A glibc dlopen handle is an opaque pointer to
// an internal link_map, not a mapped base address, so matching it against
// /proc/self/maps base addresses (the previous approach here) can never
// succeed; dlinfo is the documented way to recover the path.
func (System) Path(handle uintptr) (string, error) {
	if dlinfo == nil {
		return "", dylink.NewError(dylink.LoaderError, "dlinfo unavailable")
	}

	var linkMap uintptr
	if dlinfo(handle, rtldDiLinkmap, unsafe.Pointer(&linkMap)) != 0 || linkMap == 0 {
		return "", dylink.NewError(dylink.LoaderError, fmt.Sprintf("handle %#x", handle))
	}

	// struct link_map { ElfW(Addr) l_addr; char *l_name; ... }; l_name sits
	// immediately after l_addr, one pointer width in.
	lNamePtr := *(*uintptr)(unsafe.Pointer(linkMap + unsafe.Sizeof(uintptr(0))))
	if lNamePtr == 0 {
		return "", dylink.NewError(dylink.LoaderError, "link_map has no name")
	}

	name := goString(lNamePtr)
	if name == "" {
		return "", dylink.NewError(dylink.LoaderError, "link_map name is empty")
	}
	return name, nil
}

// goString reads a NUL-terminated C string starting at ptr.
func goString(ptr uintptr) string {
	if ptr == 0 {
		return ""
	}
	var buf []byte
	for i := uintptr(0); ; i++ {
		b := *(*byte)(unsafe.Pointer(ptr + i))
		if b == 0 {
			break
		}
		buf = append(buf, b)
	}
	return string(buf)
}
