package library

import (
	"errors"
	"sync"
	"testing"

	"github.com/lazydl/dylink"
)

// fakeLoader is an in-memory loader.Loader/loader.Closer double, letting
// tests assert exactly how many times a given candidate was attempted.
type fakeLoader struct {
	mu        sync.Mutex
	opens     map[string]int
	available map[string]uintptr
	closes    int
}

func newFakeLoader(available map[string]uintptr) *fakeLoader {
	return &fakeLoader{opens: map[string]int{}, available: available}
}

func (f *fakeLoader) Open(name string) (uintptr, error) {
	f.mu.Lock()
	f.opens[name]++
	f.mu.Unlock()

	handle, ok := f.available[name]
	if !ok {
		return 0, errors.New("not found: " + name)
	}
	return handle, nil
}

func (f *fakeLoader) Resolve(handle uintptr, symbol string) (uintptr, error) {
	if symbol == "missing" {
		return 0, errors.New("no such symbol")
	}
	return handle + 1, nil
}

func (f *fakeLoader) IsInvalid(handle uintptr) bool {
	return handle == 0
}

func (f *fakeLoader) Close(handle uintptr) error {
	f.mu.Lock()
	f.closes++
	f.mu.Unlock()
	return nil
}

func (f *fakeLoader) openCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens[name]
}

func TestLibrary_ForceTriesCandidatesInOrder(t *testing.T) {
	backend := newFakeLoader(map[string]uintptr{"libfoo.so.2": 0x10})
	lib := New(backend, nil, "libfoo.so.3", "libfoo.so.2", "libfoo.so")

	if err := lib.Force(); err != nil {
		t.Fatalf("Force returned error: %v", err)
	}
	if backend.openCount("libfoo.so.3") != 1 {
		t.Error("expected libfoo.so.3 to be tried once")
	}
	if backend.openCount("libfoo.so.2") != 1 {
		t.Error("expected libfoo.so.2 to be tried once")
	}
	if backend.openCount("libfoo.so") != 0 {
		t.Error("expected libfoo.so to never be tried, since libfoo.so.2 succeeded")
	}
}

func TestLibrary_ForceIsMemoized(t *testing.T) {
	backend := newFakeLoader(map[string]uintptr{"libfoo.so": 0x10})
	lib := New(backend, nil, "libfoo.so")

	const goroutines = 32
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			if err := lib.Force(); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if backend.openCount("libfoo.so") != 1 {
		t.Fatalf("Open called %d times, want 1", backend.openCount("libfoo.so"))
	}
}

func TestLibrary_SingleCandidateNotFoundYieldsLibraryNotFound(t *testing.T) {
	backend := newFakeLoader(map[string]uintptr{})
	lib := New(backend, nil, "libfoo.so")

	err := lib.Force()
	if err == nil {
		t.Fatal("expected error")
	}
	var derr *dylink.Error
	if !errors.As(err, &derr) {
		t.Fatalf("expected *dylink.Error, got %T", err)
	}
	if derr.Kind != dylink.LibraryNotFound {
		t.Fatalf("got kind %v, want LibraryNotFound", derr.Kind)
	}
}

func TestLibrary_MultipleCandidatesExhaustedYieldsListNotFound(t *testing.T) {
	backend := newFakeLoader(map[string]uintptr{})
	lib := New(backend, nil, "libfoo.so.2", "libfoo.so")

	err := lib.Force()
	if err == nil {
		t.Fatal("expected error")
	}
	var derr *dylink.Error
	if !errors.As(err, &derr) {
		t.Fatalf("expected *dylink.Error, got %T", err)
	}
	if derr.Kind != dylink.ListNotFound {
		t.Fatalf("got kind %v, want ListNotFound", derr.Kind)
	}
}

func TestLibrary_ResolveSymbolMissingYieldsSymbolNotFound(t *testing.T) {
	backend := newFakeLoader(map[string]uintptr{"libfoo.so": 0x10})
	lib := New(backend, nil, "libfoo.so")

	_, err := lib.Resolve("missing")
	if err == nil {
		t.Fatal("expected error")
	}
	var derr *dylink.Error
	if !errors.As(err, &derr) {
		t.Fatalf("expected *dylink.Error, got %T", err)
	}
	if derr.Kind != dylink.SymbolNotFound {
		t.Fatalf("got kind %v, want SymbolNotFound", derr.Kind)
	}
}

func TestLibrary_ResolveSucceeds(t *testing.T) {
	backend := newFakeLoader(map[string]uintptr{"libfoo.so": 0x10})
	lib := New(backend, nil, "libfoo.so")

	addr, err := lib.Resolve("present")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if addr != 0x11 {
		t.Fatalf("got addr %#x, want 0x11", addr)
	}
}

func TestCloseable_CloseResetsLatchForReopen(t *testing.T) {
	backend := newFakeLoader(map[string]uintptr{"libfoo.so": 0x10})
	lib := NewCloseable(backend, nil, "libfoo.so")

	if err := lib.Force(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if backend.openCount("libfoo.so") != 1 {
		t.Fatalf("expected 1 open before close, got %d", backend.openCount("libfoo.so"))
	}

	if err := lib.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
	if backend.closes != 1 {
		t.Fatalf("expected 1 close, got %d", backend.closes)
	}

	if err := lib.Force(); err != nil {
		t.Fatalf("unexpected error on reopen: %v", err)
	}
	if backend.openCount("libfoo.so") != 2 {
		t.Fatalf("expected 2 opens after reopen, got %d", backend.openCount("libfoo.so"))
	}
}

func TestNewCloseable_PanicsWithoutCloser(t *testing.T) {
	backend := nonCloserLoader{}
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for backend without Close")
		}
	}()
	NewCloseable(backend, nil, "libfoo.so")
}

type nonCloserLoader struct{}

func (nonCloserLoader) Open(name string) (uintptr, error)            { return 0x1, nil }
func (nonCloserLoader) Resolve(h uintptr, s string) (uintptr, error) { return h + 1, nil }
func (nonCloserLoader) IsInvalid(h uintptr) bool                     { return h == 0 }

// pathingLoader additionally implements loader.Pather.
type pathingLoader struct {
	*fakeLoader
	path string
}

func (p *pathingLoader) Path(handle uintptr) (string, error) {
	return p.path, nil
}

func newPathingLoader(available map[string]uintptr, path string) *pathingLoader {
	return &pathingLoader{fakeLoader: newFakeLoader(available), path: path}
}

func TestLibrary_PathDelegatesToPatherBackend(t *testing.T) {
	backend := newPathingLoader(map[string]uintptr{"libfoo.so": 0x10}, "/lib/libfoo.so")
	lib := New(backend, nil, "libfoo.so")

	path, err := lib.Path()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/lib/libfoo.so" {
		t.Fatalf("got path %q, want /lib/libfoo.so", path)
	}
}

func TestLibrary_PathFailsWithoutPatherBackend(t *testing.T) {
	backend := newFakeLoader(map[string]uintptr{"libfoo.so": 0x10})
	lib := New(backend, nil, "libfoo.so")

	if _, err := lib.Path(); err == nil {
		t.Fatal("expected error: fakeLoader does not implement loader.Pather")
	}
}

func TestCloseable_PathDelegatesToLibrary(t *testing.T) {
	backend := newPathingLoader(map[string]uintptr{"libfoo.so": 0x10}, "/lib/libfoo.so")
	lib := NewCloseable(backend, nil, "libfoo.so")

	path, err := lib.Path()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != "/lib/libfoo.so" {
		t.Fatalf("got path %q, want /lib/libfoo.so", path)
	}
}
