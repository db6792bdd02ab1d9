package vulkan

import (
	"testing"

	"github.com/lazydl/dylink/library"
	"github.com/lazydl/dylink/loader"
)

// No real Vulkan loader is present in a test environment, so these assert
// that failure propagates cleanly through the bootstrap rather than
// panicking, hanging, or recursing.

func TestBootstrap_GetInstanceProcAddrPropagatesLoaderFailure(t *testing.T) {
	b := newBootstrap(NewRegistry(), testPlatformLibrary())

	if _, err := b.GetInstanceProcAddr(); err == nil {
		t.Fatal("expected error without a Vulkan loader present")
	}
}

func TestBootstrap_GetInstanceProcAddrIsMemoized(t *testing.T) {
	b := newBootstrap(NewRegistry(), testPlatformLibrary())

	_, err1 := b.GetInstanceProcAddr()
	_, err2 := b.GetInstanceProcAddr()
	if err1 == nil || err2 == nil || err1.Error() != err2.Error() {
		t.Fatalf("expected memoized identical error, got %v then %v", err1, err2)
	}
}

func TestBootstrap_GetDeviceProcAddrFailsWithoutInstanceProcAddr(t *testing.T) {
	b := newBootstrap(NewRegistry(), testPlatformLibrary())

	if _, err := b.GetDeviceProcAddr(); err == nil {
		t.Fatal("expected error: bootstrap cannot proceed without vkGetInstanceProcAddr")
	}
}

func testPlatformLibrary() *library.Library {
	return library.New(loader.NewSystem(), nil, platformNames()...)
}
