package library

import (
	"sync"

	"github.com/lazydl/dylink"
	"github.com/lazydl/dylink/loader"
)

// Closeable wraps a Library whose backend supports explicit close.
// Close calls are serialized with each other, but Close does not wait for
// a Force or Resolve already in progress: callers assert that no
// concurrent resolution is running and that no outstanding symbol pointer
// into this library will be dereferenced after Close returns, since
// nothing tracks those pointers once they've left the module.
type Closeable struct {
	lib    *Library
	closer loader.Closer
	mu     sync.Mutex
}

// NewCloseable builds a Closeable Library. backend must also implement
// loader.Closer; NewCloseable panics otherwise, since a Closeable backend
// is a construction-time invariant, not a runtime condition to recover
// from.
func NewCloseable(backend loader.Loader, logger dylink.Logger, candidates ...string) *Closeable {
	closer, ok := backend.(loader.Closer)
	if !ok {
		panic("library: backend does not implement loader.Closer")
	}
	return &Closeable{
		lib:    New(backend, logger, candidates...),
		closer: closer,
	}
}

// Library returns the underlying Library for use as a lazyfn.LinkPolicy.
func (c *Closeable) Library() *Library {
	return c.lib
}

// Force forces the underlying Library open.
func (c *Closeable) Force() error {
	return c.lib.Force()
}

// Resolve resolves symbol through the underlying Library.
func (c *Closeable) Resolve(symbol string) (dylink.FuncAddr, error) {
	return c.lib.Resolve(symbol)
}

// Path reports the file the currently memoized handle was opened from, if
// the backend supports it. Lets package watch derive the watched path from
// the Closeable itself instead of requiring the caller to track it.
func (c *Closeable) Path() (string, error) {
	return c.lib.Path()
}

// Close takes an exclusive lock on the aggregate, closes the memoized
// handle, and resets the one-shot latch so the next Force re-opens.
// Symbols resolved before Close are not guaranteed valid afterward.
func (c *Closeable) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lib.mu.Lock()
	handle := c.lib.handle
	opened := c.lib.openErr == nil && handle != 0
	c.lib.mu.Unlock()

	var err error
	if opened {
		err = c.closer.Close(handle)
	}

	c.lib.mu.Lock()
	c.lib.once = &sync.Once{}
	c.lib.handle = 0
	c.lib.openErr = nil
	c.lib.mu.Unlock()

	return err
}
