package vulkan

import "runtime"

// platformNames returns the platform Vulkan library's candidate name list,
// tried in order by the pinned system-loader aggregate behind
// vkGetInstanceProcAddr. Order encodes version fallback: the first
// candidate that opens wins.
func platformNames() []string {
	switch runtime.GOOS {
	case "windows":
		return []string{"vulkan-1.dll"}
	case "darwin":
		return []string{"libvulkan.dylib", "libvulkan.1.dylib", "libMoltenVK.dylib"}
	default:
		return []string{"libvulkan.so.1", "libvulkan.so"}
	}
}
