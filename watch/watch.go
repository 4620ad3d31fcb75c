// Package watch re-runs link configuration when the prebuilt archive changes.
//
// The watcher observes the archive's directory rather than the file itself,
// so it keeps working when the archive does not exist yet or is replaced by
// rename (as most archivers and `go build -buildmode=c-archive` do).
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/teranos/mithras-link/errors"
	"github.com/teranos/mithras-link/logger"
)

// ChangeCallback is called with the archive path after a debounced change
type ChangeCallback func(path string) error

// Watcher watches a single archive path for changes
type Watcher struct {
	path      string
	watcher   *fsnotify.Watcher
	debounce  time.Duration
	log       *zap.SugaredLogger
	mu        sync.Mutex
	callbacks []ChangeCallback
	timer     *time.Timer
	stopped   bool
}

// New creates a watcher for path. The parent directory must exist.
func New(path string, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create fsnotify watcher")
	}

	dir := filepath.Dir(path)
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, errors.Wrapf(err, "failed to watch %s", dir)
	}

	return &Watcher{
		path:     filepath.Clean(path),
		watcher:  fw,
		debounce: debounce,
		log:      logger.ComponentLogger("watch"),
	}, nil
}

// OnChange registers a callback
func (w *Watcher) OnChange(cb ChangeCallback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Run processes events until ctx is cancelled. It always closes the
// underlying fsnotify watcher before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.log.Debugw("Archive event", "file", event.Name, "op", event.Op.String())
			w.schedule()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warnw("Watcher error", "error", err)
		}
	}
}

// schedule debounces bursts of events into one notification
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

// fire calls every callback; one failing callback does not stop the others
func (w *Watcher) fire() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	callbacks := make([]ChangeCallback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.Unlock()

	w.log.Infow("Archive changed", "path", w.path)
	for _, cb := range callbacks {
		if err := cb(w.path); err != nil {
			w.log.Errorw("Change callback failed", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if err := w.watcher.Close(); err != nil {
		w.log.Warnw("Failed to close watcher", "error", err)
	}
}
