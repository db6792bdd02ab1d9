// Package dylink implements a lazy dynamic-library loading and
// symbol-resolution runtime.
//
// A program declares extern functions whose underlying native shared
// libraries are opened lazily on first call. Resolution is one-shot and
// thread-safe: the first caller performs the work, every other caller
// (concurrent or not) observes the cached result.
//
// This package holds the types shared by every subpackage:
// symbol names, function addresses, and the error/logging conventions the
// rest of the module follows. The lazy cell and its link-policy interface
// live in the lazyfn subpackage, the library-open machinery in
// library, the OS-loader backends in loader, and the Vulkan discovery
// protocol in vulkan.
package dylink

// SymbolName is a library-exported identifier. It is stored as a plain Go
// string; callers never need to worry about NUL termination themselves —
// that is handled at the loader boundary where the string crosses into
// cgo-free syscalls.
type SymbolName string

// FuncAddr is an opaque, process-local, ABI-agnostic code pointer. The
// module treats it as opaque bits; a consumer re-interprets it at the
// declared function signature (see package gen). The zero value is the
// placeholder address and is never a valid resolution result.
type FuncAddr uintptr

// Valid reports whether addr is non-zero, i.e. not the placeholder.
func (addr FuncAddr) Valid() bool {
	return addr != 0
}
