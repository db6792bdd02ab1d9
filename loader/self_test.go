//go:build !windows

package loader

import "testing"

// Self.Open/Resolve are exercised against "malloc", a libc symbol that is
// already mapped into every Go test binary on unix (cgo or not, since the
// runtime itself links against libc on darwin and most linux builds do via
// the net/os packages' transitive dependencies). If a given environment's
// binary genuinely has no libc mapped (a fully static, no-libc linux build),
// Open itself will fail and the test skips rather than reporting a false
// regression.
func TestSelf_OpenAndResolveKnownSymbol(t *testing.T) {
	self := NewSelf()

	handle, err := self.Open("")
	if err != nil {
		t.Skipf("self-open unsupported in this environment: %v", err)
	}
	if self.IsInvalid(handle) {
		t.Fatal("Open returned a zero handle without an error")
	}

	addr, err := self.Resolve(handle, "malloc")
	if err != nil {
		t.Skipf("libc symbol %q not resolvable in this environment: %v", "malloc", err)
	}
	if addr == 0 {
		t.Fatal("Resolve returned a zero address without an error")
	}
}

func TestSelf_ResolveUnknownSymbolFails(t *testing.T) {
	self := NewSelf()

	handle, err := self.Open("")
	if err != nil {
		t.Skipf("self-open unsupported in this environment: %v", err)
	}

	if _, err := self.Resolve(handle, "__dylink_definitely_not_a_real_symbol__"); err == nil {
		t.Fatal("expected an error resolving a nonexistent symbol")
	}
}
