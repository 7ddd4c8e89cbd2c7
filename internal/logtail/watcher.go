package logtail

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"

	"github.com/hugo-lorenzo-mato/tickwarden/internal/logging"
)

// RotationWatcher flags the log as rotated when the file is created, removed
// or renamed. It watches the parent directory because rotation replaces the
// file itself.
type RotationWatcher struct {
	watcher *fsnotify.Watcher
	name    string
	rotated atomic.Bool
	logger  *logging.Logger
}

// NewRotationWatcher starts watching the directory containing path.
func NewRotationWatcher(path string, logger *logging.Logger) (*RotationWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		watcher.Close()
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &RotationWatcher{
		watcher: watcher,
		name:    abs,
		logger:  logger.WithComponent("rotation-watcher"),
	}, nil
}

// Run consumes filesystem events until ctx is done or the watcher is closed.
func (w *RotationWatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("log watcher error", "error", err)
		}
	}
}

func (w *RotationWatcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.name {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.logger.Debug("log rotation detected", "op", event.Op.String())
		w.rotated.Store(true)
	}
}

// Rotated reports whether a rotation was observed since the last call.
func (w *RotationWatcher) Rotated() bool {
	return w.rotated.Swap(false)
}

// Close stops the watcher.
func (w *RotationWatcher) Close() error {
	return w.watcher.Close()
}
