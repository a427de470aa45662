// Package watch calls back when a local data file changes on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before the callback runs.
const DefaultDebounce = 250 * time.Millisecond

const pollInterval = 50 * time.Millisecond

// Watcher watches a single file. It watches the file's directory so that
// editors that save by rename-over are still seen.
type Watcher struct {
	path     string
	onChange func()
	debounce time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	pending time.Time
	running bool
	fired   int
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// New returns a stopped watcher for path.
func New(path string, debounce time.Duration, onChange func(), logger *zap.Logger) (*Watcher, error) {
	if onChange == nil {
		return nil, errors.New("watch: nil callback")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", path, err)
	}
	if dir, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		abs = filepath.Join(dir, filepath.Base(abs))
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:     abs,
		onChange: onChange,
		debounce: debounce,
		logger:   logger.Named("watch"),
	}, nil
}

// Start begins watching. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.fsw = fsw
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.logger.Info("watching", zap.String("path", w.path))

	go w.run(ctx, fsw, w.stopCh, w.doneCh)
	return nil
}

// Stop ends watching and waits for the event loop to exit. It is safe to call
// more than once.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh, doneCh, fsw := w.stopCh, w.doneCh, w.fsw
	w.mu.Unlock()

	close(stopCh)
	<-doneCh
	if err := fsw.Close(); err != nil {
		w.logger.Error("closing watcher", zap.Error(err))
	}
}

// Fired returns how many times the callback has run.
func (w *Watcher) Fired() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fired
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-ticker.C:
			w.flush()
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}
	w.logger.Debug("change", zap.String("op", ev.Op.String()))
	w.mu.Lock()
	w.pending = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if w.pending.IsZero() || time.Since(w.pending) < w.debounce {
		w.mu.Unlock()
		return
	}
	w.pending = time.Time{}
	w.fired++
	w.mu.Unlock()

	w.onChange()
}
