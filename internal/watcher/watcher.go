// Package watcher reports changed graph files in a directory.
package watcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher watches a directory for changed files
type Watcher struct {
	dir      string
	match    func(path string) bool
	onChange func(path string)
	debounce time.Duration
	logger   *zap.Logger
}

// New creates a watcher that calls onChange with the path of every file in
// dir that is written or created and satisfies match. logger may be nil.
func New(dir string, match func(path string) bool, onChange func(path string), logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		dir:      dir,
		match:    match,
		onChange: onChange,
		debounce: 500 * time.Millisecond,
		logger:   logger,
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Watch starts watching the directory for changes. Rapid writes to one
// file collapse into a single call. It blocks until the context is
// cancelled or an error occurs.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watching the directory rather than each file survives editors that
	// replace files on save
	if err := watcher.Add(w.dir); err != nil {
		return err
	}

	w.logger.Info("watching graph directory", zap.String("dir", w.dir))

	debounceTimers := make(map[string]*time.Timer)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			path := filepath.Clean(event.Name)
			if w.match != nil && !w.match(path) {
				continue
			}

			if timer, exists := debounceTimers[path]; exists {
				timer.Stop()
			}

			debounceTimers[path] = time.AfterFunc(w.debounce, func() {
				w.logger.Info("graph file changed", zap.String("path", path))
				w.onChange(path)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))

		case <-ctx.Done():
			for _, timer := range debounceTimers {
				timer.Stop()
			}
			return ctx.Err()
		}
	}
}
