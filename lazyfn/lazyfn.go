// Package lazyfn implements the lazy function cell: a symbol name paired
// with a one-shot latch that resolves an address through a LinkPolicy
// exactly once, however many goroutines race to call Link.
package lazyfn

import (
	"sync"
	"sync/atomic"
)

// LinkPolicy resolves a symbol name to an address. *library.Library and
// *vulkan.Policy satisfy this by exposing a ResolveSymbol method; a
// *library.Closeable is used through the *library.Library its Library
// method returns.
type LinkPolicy interface {
	ResolveSymbol(name string) (uintptr, error)
}

// LazyFn is the canonical four-field lazy cell: a name, the resolved
// address, the policy used to resolve it, and a one-shot latch guarding
// the resolution. Construction performs no I/O; the first call to Link
// does the work.
type LazyFn struct {
	name   string
	policy LinkPolicy

	once    sync.Once
	addr    uintptr
	err     error
	started int32
}

// New builds a LazyFn bound to name, resolved lazily through policy.
func New(name string, policy LinkPolicy) *LazyFn {
	return &LazyFn{name: name, policy: policy}
}

// Name returns the symbol name this cell resolves.
func (f *LazyFn) Name() string {
	return f.name
}

// Link performs at most one resolution attempt regardless of how many
// goroutines call it concurrently or how many times a single goroutine
// calls it. All callers after the first observe the cached address or
// error; the sequence {resolve, write address, publish via latch} is
// total, so no caller ever observes a partially written address.
func (f *LazyFn) Link() (uintptr, error) {
	f.once.Do(func() {
		atomic.StoreInt32(&f.started, 1)
		addr, err := f.policy.ResolveSymbol(f.name)
		f.addr = addr
		f.err = err
	})
	return f.addr, f.err
}

// TryLink reports whether resolution has already been attempted without
// forcing it. Used by generated call sites with strip=false, which expose
// the cell directly instead of a callable wrapper.
func (f *LazyFn) TryLink() (uintptr, error, bool) {
	if atomic.LoadInt32(&f.started) == 0 {
		return 0, nil, false
	}
	addr, err := f.Link()
	return addr, err, true
}

// MustLink calls Link and panics on failure, with a diagnostic naming the
// symbol.
func (f *LazyFn) MustLink() uintptr {
	addr, err := f.Link()
	if err != nil {
		panic("lazyfn: " + f.name + ": " + err.Error())
	}
	return addr
}
