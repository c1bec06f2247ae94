// Package watch reloads a running server's index when the persisted
// artifacts change on disk.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docpilot/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/docpilot/internal/logger"
)

// DefaultDebounce groups the writes of one save into a single reload.
const DefaultDebounce = 500 * time.Millisecond

// Reloader drops loaded state so the next read goes to disk.
type Reloader interface {
	Reload()
}

// Watcher watches the vector store directory.
type Watcher struct {
	dir      string
	reloader Reloader
	debounce time.Duration
	files    map[string]bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher over dir.
func New(dir string, reloader Reloader, opts ...Option) *Watcher {
	w := &Watcher{
		dir:      dir,
		reloader: reloader,
		debounce: DefaultDebounce,
		files: map[string]bool{
			flat.IndexFile:  true,
			flat.ChunksFile: true,
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled. The directory is created if missing
// so a server can start before the first build.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", w.dir, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Debug("Watching %s for index changes", w.dir)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.relevant(event) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Index watcher: %v", err)

		case <-timer.C:
			logger.Info("Index changed on disk, reloading")
			w.reloader.Reload()
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !w.files[filepath.Base(event.Name)] {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) ||
		event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)
}
