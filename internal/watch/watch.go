// Package watch re-checks files when they change on disk. Editors save in
// bursts, so events are debounced per file and a check only fires once a
// file has settled.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"printguard/internal/logging"
)

// CheckFunc is invoked for a file once its changes have settled.
type CheckFunc func(ctx context.Context, path string)

// Stats tracks watcher activity for debugging.
type Stats struct {
	FilesChanged    int
	ChecksTriggered int
	Errors          int
	LastEventPath   string
	LastEventTime   time.Time
}

// Watcher monitors a fixed set of files and re-checks each one after its
// events settle past the debounce window.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	files       map[string]bool
	check       CheckFunc
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stats       Stats
}

// New returns a Watcher over the given files. Paths are resolved to
// absolute form so events match regardless of how they were passed.
func New(files []string, debounce time.Duration, check CheckFunc) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
		set[abs] = true
	}

	return &Watcher{
		watcher:     fsw,
		files:       set,
		check:       check,
		debounceMap: make(map[string]time.Time),
		debounceDur: debounce,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. Non-blocking; events are handled in a goroutine.
// fsnotify watches directories, so each file's parent is registered.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	dirs := make(map[string]bool)
	for f := range w.files {
		dirs[filepath.Dir(f)] = true
	}
	for dir := range dirs {
		if err := w.watcher.Add(dir); err != nil {
			logging.Get(logging.CategoryWatch).Errorf("failed to watch %s: %v", dir, err)
			// The event loop never started: undo the running flag so
			// Stop stays a no-op, and release the fsnotify handle.
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			_ = w.watcher.Close()
			return err
		}
		logging.Get(logging.CategoryWatch).Infof("watching directory: %s", dir)
	}

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWatch).Errorf("error closing watcher: %v", err)
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	tick := w.debounceDur / 4
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryWatch).Errorf("watch error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()

		case <-ticker.C:
			w.processSettled(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return
	}
	if !w.files[abs] {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return // chmod, remove, etc.
	}

	logging.Get(logging.CategoryWatch).Debugf("%s: %s", event.Op, abs)

	w.mu.Lock()
	w.stats.FilesChanged++
	w.stats.LastEventPath = abs
	w.stats.LastEventTime = time.Now()
	w.debounceMap[abs] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processSettled(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.stats.ChecksTriggered += len(settled)
	w.mu.Unlock()

	for _, path := range settled {
		w.check(ctx, path)
	}
}

// GetStats returns a snapshot of watcher activity.
func (w *Watcher) GetStats() Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the watcher is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}
