// Package watcher triggers rebuilds when project sources change.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Norgate-AV/pdmake/internal/logging"
)

// DefaultDebounce groups editor save bursts into one rebuild
const DefaultDebounce = 200 * time.Millisecond

// FileFilter reports whether a changed path should trigger a rebuild
type FileFilter func(path string) bool

// ChangeHandler is called with the distinct paths changed during one debounce window
type ChangeHandler func(ctx context.Context, paths []string) error

// Watcher watches directory trees with debouncing
type Watcher struct {
	watcher *fsnotify.Watcher
	delay   time.Duration
	filters []FileFilter
}

// New creates a watcher grouping changes that arrive within delay
func New(delay time.Duration) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	if delay <= 0 {
		delay = DefaultDebounce
	}

	return &Watcher{watcher: w, delay: delay}, nil
}

// AddFilter adds a file filter; every filter must accept a path
func (w *Watcher) AddFilter(filter FileFilter) {
	w.filters = append(w.filters, filter)
}

// IgnoreDir returns a filter rejecting everything under dir
func IgnoreDir(dir string) FileFilter {
	dir = filepath.Clean(dir)
	return func(path string) bool {
		path = filepath.Clean(path)
		return path != dir && !strings.HasPrefix(path, dir+string(filepath.Separator))
	}
}

// AddRecursive watches root and all its subdirectories. A missing root is ignored.
func (w *Watcher) AddRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root && errors.Is(err, fs.ErrNotExist) {
				return nil
			}

			return err
		}

		if !d.IsDir() {
			return nil
		}

		if !w.accept(path) {
			return filepath.SkipDir
		}

		return w.watcher.Add(path)
	})
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// Run delivers debounced changes to handler until ctx is done. Handler errors
// are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context, handler ChangeHandler) error {
	log := logging.From(ctx)

	pending := map[string]struct{}{}
	timer := time.NewTimer(w.delay)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if !w.accept(event.Name) {
				continue
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.AddRecursive(event.Name); err != nil {
						log.Warn().Err(err).Str("dir", event.Name).Msg("Failed to watch new directory")
					}
				}
			}

			if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
				continue
			}

			pending[event.Name] = struct{}{}
			timer.Reset(w.delay)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}

			log.Warn().Err(err).Msg("Watcher error")

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}

			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			pending = map[string]struct{}{}

			if err := handler(ctx, paths); err != nil {
				log.Error().Err(err).Msg("Rebuild failed")
			}
		}
	}
}

func (w *Watcher) accept(path string) bool {
	for _, f := range w.filters {
		if !f(path) {
			return false
		}
	}

	return true
}
