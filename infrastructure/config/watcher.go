package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// CatalogWatcher reloads the pipeline catalog when the file changes, so
// pipeline edits take effect without a restart.
type CatalogWatcher struct {
	path   string
	reload func(path string) error
	logger *zap.Logger
}

// NewCatalogWatcher creates a watcher for the catalog file at path
func NewCatalogWatcher(path string, reload func(path string) error, logger *zap.Logger) *CatalogWatcher {
	return &CatalogWatcher{path: path, reload: reload, logger: logger}
}

// Run watches until the context is cancelled. Editors replace files rather
// than writing in place, so the parent directory is watched and events are
// filtered to the catalog path; a short debounce absorbs write bursts.
func (w *CatalogWatcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return err
	}

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(250*time.Millisecond, func() {
				if err := w.reload(w.path); err != nil {
					w.logger.Warn("Pipeline catalog reload failed",
						zap.String("path", w.path),
						zap.Error(err),
					)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Catalog watcher error", zap.Error(err))
		}
	}
}
