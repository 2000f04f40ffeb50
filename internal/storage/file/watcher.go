package file

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reports bill files removed from the directory by something other
// than this process, such as a sync client or the user.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// NewWatcher starts watching the store's directory.
func (s *Store) NewWatcher(logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(s.dir); err != nil {
		fsw.Close()
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{watcher: fsw, logger: logger}, nil
}

// Run calls onRemoved with the ID of every bill file that is deleted or
// moved away, until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context, onRemoved func(id string)) {
	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			id, ok := billID(filepath.Base(event.Name))
			if !ok {
				continue
			}
			w.logger.Debug("Bill file removed", "bill", id, "op", event.Op.String())
			onRemoved(id)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
