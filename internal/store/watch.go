package store

import (
	"context"
	"path/filepath"
	"time"

	"github.com/bnema/monitor-switch/internal/logger"
	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to the document made by any process.
type Watcher struct {
	path     string
	debounce time.Duration
}

// NewWatcher watches the document at path.
func NewWatcher(path string) *Watcher {
	return &Watcher{path: path, debounce: 200 * time.Millisecond}
}

// WithDebounce sets how long the file must stay quiet before onChange runs.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Watch calls onChange after the document is written, created or replaced.
// It blocks until ctx is cancelled. The parent directory must exist.
func (w *Watcher) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory so replaced files are still seen
	dir := filepath.Dir(w.path)
	filename := filepath.Base(w.path)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	logger.Debugf("watching %s for changes", w.path)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Debugf("watcher error: %v", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
