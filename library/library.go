// Package library implements the library aggregate: an ordered list of
// candidate names, memoized once opened, shared across every lazy
// function that references it.
package library

import (
	"errors"
	"sync"

	"github.com/lazydl/dylink"
	"github.com/lazydl/dylink/loader"
)

// Library is an ordered list of candidate library names tried in order on
// first use; the first candidate that opens is memoized for the lifetime
// of the Library. Construction performs no I/O, so a Library can be built
// in a package-level var without side effects — the actual open happens
// the first time Force or Resolve is called.
type Library struct {
	candidates []string
	backend    loader.Loader
	logger     dylink.Logger

	mu     sync.Mutex // guards once/handle/openErr swap during Closeable.Close
	once   *sync.Once
	handle uintptr
	openErr error
}

// New builds a Library bound to backend, trying each name in candidates
// in order. candidates must be non-empty. Logger may be nil.
func New(backend loader.Loader, logger dylink.Logger, candidates ...string) *Library {
	if len(candidates) == 0 {
		panic("library: New requires at least one candidate name")
	}
	return &Library{
		candidates: append([]string(nil), candidates...),
		backend:    backend,
		logger:     dylink.OrNoop(logger),
		once:       &sync.Once{},
	}
}

// Names returns the candidate list, in try order.
func (l *Library) Names() []string {
	return append([]string(nil), l.candidates...)
}

// Force runs the one-shot open: each candidate is tried in order via the
// backend's Open until one succeeds, which is memoized. Subsequent calls
// observe the cached result without retrying any candidate. Force is safe
// to call concurrently and safe to call redundantly.
func (l *Library) Force() error {
	l.mu.Lock()
	once := l.once
	l.mu.Unlock()

	once.Do(func() {
		for _, name := range l.candidates {
			handle, err := l.backend.Open(name)
			if err == nil && !l.backend.IsInvalid(handle) {
				l.logger.Debug("library: opened %q", name)
				l.handle = handle
				return
			}
			l.logger.Verbose("library: candidate %q failed: %v", name, err)
		}
		if len(l.candidates) == 1 {
			l.openErr = dylink.NewError(dylink.LibraryNotFound, l.candidates[0])
		} else {
			l.openErr = dylink.NewError(dylink.ListNotFound, joinNames(l.candidates))
		}
	})
	return l.openErr
}

// Resolve forces the aggregate open (if not already) and resolves symbol
// against the memoized handle. A symbol that fails to resolve yields
// SymbolNotFound, distinct from a failure to open the library at all.
func (l *Library) Resolve(symbol string) (dylink.FuncAddr, error) {
	if err := l.Force(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	handle := l.handle
	l.mu.Unlock()

	addr, err := l.backend.Resolve(handle, symbol)
	if err != nil {
		var derr *dylink.Error
		if errors.As(err, &derr) && derr.Kind == dylink.SymbolNotFound {
			return 0, err
		}
		return 0, dylink.WrapError(dylink.SymbolNotFound, symbol, err)
	}
	return dylink.FuncAddr(addr), nil
}

// Path reports the file the memoized handle was opened from, if the
// backend implements loader.Pather (System does on Linux and macOS; System
// on other platforms, Self, and other backends without a single
// well-defined path do not). Forces
// the open first so Path can be called before any Resolve.
func (l *Library) Path() (string, error) {
	if err := l.Force(); err != nil {
		return "", err
	}

	pather, ok := l.backend.(loader.Pather)
	if !ok {
		return "", dylink.NewError(dylink.LoaderError, "backend does not support path introspection")
	}

	l.mu.Lock()
	handle := l.handle
	l.mu.Unlock()

	return pather.Path(handle)
}

// resolveSymbol implements lazyfn.LinkPolicy.
func (l *Library) resolveSymbol(symbol string) (uintptr, error) {
	addr, err := l.Resolve(symbol)
	return uintptr(addr), err
}

// ResolveSymbol exposes resolveSymbol publicly so other packages (gen,
// vulkan's pinned loader aggregate) can implement lazyfn.LinkPolicy in
// terms of a *Library without depending on an unexported method.
func (l *Library) ResolveSymbol(symbol string) (uintptr, error) {
	return l.resolveSymbol(symbol)
}

func joinNames(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += n
	}
	return out
}
