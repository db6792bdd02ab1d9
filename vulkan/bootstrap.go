package vulkan

import (
	"sync"

	"github.com/lazydl/dylink"
	"github.com/lazydl/dylink/library"
)

// Bootstrap resolves the two Vulkan entry points that can't go through the
// generic discovery protocol: vkGetInstanceProcAddr, which comes from the
// OS loader, and vkGetDeviceProcAddr, which must be obtained through
// vkGetInstanceProcAddr itself. Resolving vkGetDeviceProcAddr via the
// generic mechanism would recurse through this same bootstrap, so it is
// given its own one-shot resolution path that consults the instance
// registry directly instead of calling back into Policy.ResolveSymbol.
type Bootstrap struct {
	registry *Registry
	platform *library.Library

	giPAOnce sync.Once
	giPA     uintptr
	giPAErr  error

	gdPAOnce sync.Once
	gdPA     uintptr
	gdPAErr  error
}

// newBootstrap builds a Bootstrap that resolves vkGetInstanceProcAddr from
// platform and vkGetDeviceProcAddr by consulting registry.
func newBootstrap(registry *Registry, platform *library.Library) *Bootstrap {
	return &Bootstrap{registry: registry, platform: platform}
}

// GetInstanceProcAddr resolves vkGetInstanceProcAddr directly through the
// platform Vulkan library via the OS loader. At most one resolution
// attempt is ever made, regardless of caller count.
func (b *Bootstrap) GetInstanceProcAddr() (uintptr, error) {
	b.giPAOnce.Do(func() {
		b.giPA, b.giPAErr = b.platform.ResolveSymbol(getInstanceProcAddr)
	})
	return b.giPA, b.giPAErr
}

// GetDeviceProcAddr resolves vkGetDeviceProcAddr by taking a read lock on
// the instance registry and calling vkGetInstanceProcAddr(instance,
// "vkGetDeviceProcAddr") for each registered instance, using the first
// non-null result. Fails with SymbolNotFound if the registry is empty or
// no instance yields an address.
func (b *Bootstrap) GetDeviceProcAddr() (uintptr, error) {
	b.gdPAOnce.Do(func() {
		giPA, err := b.GetInstanceProcAddr()
		if err != nil {
			b.gdPAErr = err
			return
		}
		addr, ok := b.registry.RangeInstances(func(instance uintptr) (uintptr, bool) {
			addr := callProc(giPA, instance, getDeviceProcAddr)
			return addr, addr != 0
		})
		if !ok {
			b.gdPAErr = dylink.NewError(dylink.SymbolNotFound, getDeviceProcAddr)
			return
		}
		b.gdPA = addr
	})
	return b.gdPA, b.gdPAErr
}
