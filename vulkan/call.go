package vulkan

import (
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"
)

// callProc invokes a two-argument Vulkan proc-address function
// (vkGetInstanceProcAddr or vkGetDeviceProcAddr) whose address is fn,
// passing handle and a NUL-terminated copy of name. Returns 0 if fn is 0
// or the call yields a null pointer.
func callProc(fn uintptr, handle uintptr, name string) uintptr {
	if fn == 0 {
		return 0
	}
	buf := make([]byte, len(name)+1)
	copy(buf, name)
	ret, _, _ := purego.SyscallN(fn, handle, uintptr(unsafe.Pointer(&buf[0])))
	runtime.KeepAlive(buf)
	return ret
}
