package vulkan

import (
	"sync"

	"github.com/lazydl/dylink"
	"github.com/lazydl/dylink/library"
	"github.com/lazydl/dylink/loader"
)

const (
	getInstanceProcAddr = "vkGetInstanceProcAddr"
	getDeviceProcAddr   = "vkGetDeviceProcAddr"
)

// Policy is the Vulkan link policy: it implements lazyfn.LinkPolicy by
// running the three-step discovery protocol against a Registry instead of
// asking an OS loader. A single Policy is meant to be shared by every
// lazy cell whose declaration names `vulkan` as its link policy.
type Policy struct {
	registry  *Registry
	bootstrap *Bootstrap
}

// NewPolicy builds a Vulkan link policy backed by registry, resolving
// vkGetInstanceProcAddr from the platform Vulkan library via the OS
// loader.
func NewPolicy(registry *Registry, logger dylink.Logger) *Policy {
	platform := library.New(loader.NewSystem(), logger, platformNames()...)
	return &Policy{
		registry:  registry,
		bootstrap: newBootstrap(registry, platform),
	}
}

var (
	defaultOnce   sync.Once
	defaultPolicy *Policy
)

// Default returns the process-wide Vulkan policy backed by a single
// process-wide Registry, built on first use. The registry is intrinsically
// global because Vulkan's ABI is: every `vulkan` lazy cell in a process
// shares one set of registered instances and devices.
func Default() *Policy {
	defaultOnce.Do(func() {
		defaultPolicy = NewPolicy(NewRegistry(), nil)
	})
	return defaultPolicy
}

// DefaultRegistry returns the Registry backing Default.
func DefaultRegistry() *Registry {
	return Default().registry
}

// ResolveSymbol implements lazyfn.LinkPolicy, running the discovery
// protocol from spec §4.4.
func (p *Policy) ResolveSymbol(name string) (uintptr, error) {
	switch name {
	case getInstanceProcAddr:
		return p.bootstrap.GetInstanceProcAddr()
	case getDeviceProcAddr:
		return p.bootstrap.GetDeviceProcAddr()
	default:
		return p.resolveGeneric(name)
	}
}

// resolveGeneric runs step 3 of the discovery protocol for any symbol
// that isn't one of the two bootstrap entry points: device registry
// first, then instance registry, then a last attempt with a null
// instance for global entry points.
func (p *Policy) resolveGeneric(name string) (uintptr, error) {
	if gdPA, err := p.bootstrap.GetDeviceProcAddr(); err == nil {
		if addr, ok := p.registry.RangeDevices(func(device uintptr) (uintptr, bool) {
			addr := callProc(gdPA, device, name)
			return addr, addr != 0
		}); ok {
			return addr, nil
		}
	}

	giPA, err := p.bootstrap.GetInstanceProcAddr()
	if err != nil {
		return 0, err
	}
	if addr, ok := p.registry.RangeInstances(func(instance uintptr) (uintptr, bool) {
		addr := callProc(giPA, instance, name)
		return addr, addr != 0
	}); ok {
		return addr, nil
	}

	if addr := callProc(giPA, 0, name); addr != 0 {
		return addr, nil
	}
	return 0, dylink.NewError(dylink.SymbolNotFound, name)
}
