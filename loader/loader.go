// Package loader provides a polymorphic capability over the OS primitives
// for opening a library, resolving a symbol, and closing a library.
//
// Two concrete backends are provided: System, which delegates to the
// platform's native dynamic loader (dlopen/dlsym/dlclose on POSIX,
// LoadLibraryExW/GetProcAddress/FreeLibrary on Windows), and Self, which
// resolves symbols against images already loaded into the current
// process without opening anything new.
package loader

import "github.com/lazydl/dylink"

// Invalid is the sentinel handle value returned by Open on failure.
const Invalid uintptr = 0

// Loader is the capability set a library.Library needs from its backend.
type Loader interface {
	// Open loads the library named by name, returning a handle or an
	// error. On failure the returned handle is Invalid.
	Open(name string) (uintptr, error)

	// Resolve looks up symbol in the library identified by handle,
	// returning its address or an error if no such symbol exists.
	Resolve(handle uintptr, symbol string) (uintptr, error)

	// IsInvalid reports whether handle is the Invalid sentinel.
	IsInvalid(handle uintptr) bool
}

// Closer is implemented by backends that support explicitly closing a
// handle. Its presence (via a type assertion) is how a library.Library
// distinguishes a closeable backend from a non-closeable one, per the
// capability-presence contract.
type Closer interface {
	Close(handle uintptr) error
}

// Pather is implemented by backends that can report the on-disk path a
// handle was opened from, used for diagnostics and by package watch to
// locate a file to watch. Not every backend can support this (Self, for
// instance, has no single path), so its absence is equally meaningful.
type Pather interface {
	Path(handle uintptr) (string, error)
}

// translate turns a raw platform error into a *dylink.Error of kind
// LoaderError, giving every backend a single place to produce the
// "human-readable message" the spec requires of the OS shim.
func translate(name string, err error) error {
	if err == nil {
		return nil
	}
	return dylink.WrapError(dylink.LoaderError, name, err)
}
