// Package watch provides hot-reload for closeable library aggregates: it
// watches the file a library was opened from and, on write or create
// events, closes and re-forces it.
package watch

import (
	"context"
	"fmt"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/lazydl/dylink"
)

// Reloadable is the capability a watch target needs: close the currently
// memoized handle and force a fresh open. *library.Closeable satisfies
// this directly.
type Reloadable interface {
	Close() error
	Force() error
}

// LibraryWatcher watches one or more file paths and reloads their
// registered target when the file changes.
type LibraryWatcher struct {
	fsWatcher *fsnotify.Watcher
	logger    dylink.Logger

	mu      sync.Mutex
	targets map[string]Reloadable
}

// New creates a LibraryWatcher. Logger may be nil.
func New(logger dylink.Logger) (*LibraryWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: new watcher: %w", err)
	}
	return &LibraryWatcher{
		fsWatcher: fsWatcher,
		logger:    dylink.OrNoop(logger),
		targets:   make(map[string]Reloadable),
	}, nil
}

// Watch registers target to be reloaded whenever path changes.
func (w *LibraryWatcher) Watch(path string, target Reloadable) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.fsWatcher.Add(path); err != nil {
		return fmt.Errorf("watch: add %s: %w", path, err)
	}
	w.targets[path] = target
	return nil
}

// Pathable is implemented by reload targets that can report the file they
// were opened from, letting LibraryWatcher derive the watched path itself
// instead of requiring the caller to track it separately.
// *library.Closeable satisfies this via library.Library.Path.
type Pathable interface {
	Path() (string, error)
}

// WatchLibrary registers target to be reloaded whenever the file it
// reports via Path changes. Unlike Watch, the caller doesn't need to know
// target's on-disk location up front.
func (w *LibraryWatcher) WatchLibrary(target interface {
	Reloadable
	Pathable
}) error {
	path, err := target.Path()
	if err != nil {
		return fmt.Errorf("watch: derive path: %w", err)
	}
	return w.Watch(path, target)
}

// Unwatch stops watching path, if registered.
func (w *LibraryWatcher) Unwatch(path string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.targets, path)
	return w.fsWatcher.Remove(path)
}

// Start begins monitoring in a background goroutine until ctx is done or
// Stop is called.
func (w *LibraryWatcher) Start(ctx context.Context) {
	go w.monitor(ctx)
}

func (w *LibraryWatcher) monitor(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if shouldReload(event) {
				w.reload(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Info("watch: watcher error: %v", err)
		}
	}
}

func shouldReload(event fsnotify.Event) bool {
	return event.Op&fsnotify.Write == fsnotify.Write ||
		event.Op&fsnotify.Create == fsnotify.Create
}

func (w *LibraryWatcher) reload(path string) {
	w.mu.Lock()
	target, ok := w.targets[path]
	w.mu.Unlock()
	if !ok {
		return
	}

	if err := target.Close(); err != nil {
		w.logger.Info("watch: close %s failed: %v", path, err)
		return
	}
	if err := target.Force(); err != nil {
		w.logger.Info("watch: reopen %s failed: %v", path, err)
		return
	}
	w.logger.Debug("watch: reloaded %s", path)
}

// Stop shuts down the underlying fsnotify watcher.
func (w *LibraryWatcher) Stop() error {
	return w.fsWatcher.Close()
}
