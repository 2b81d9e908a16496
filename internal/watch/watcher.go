// Package watch re-runs verification whenever watched Python sources
// change on disk.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"shimsync/internal/crawler"
)

// DefaultDebounce batches the rapid event bursts editors produce on
// save into a single trigger.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors Python sources and invokes a callback once a batch
// of changes has settled.
type Watcher struct {
	mu       sync.Mutex
	log      *zap.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onSettle func(paths []string)
	pending  map[string]time.Time
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// NewWatcher creates a watcher that calls onSettle with the settled
// paths after each debounced batch of changes. A nil logger disables
// logging; a non-positive debounce falls back to the default.
func NewWatcher(log *zap.Logger, debounce time.Duration, onSettle func(paths []string)) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		log:      log,
		watcher:  fsw,
		debounce: debounce,
		onSettle: onSettle,
		pending:  make(map[string]time.Time),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Add registers a file or directory. Files are watched through their
// parent directory, which survives the rename-and-replace dance editors
// do on save; directories are watched recursively.
func (w *Watcher) Add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.watcher.Add(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(sub string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		for _, ign := range crawler.DefaultIgnoredDirs {
			if d.Name() == ign {
				return filepath.SkipDir
			}
		}
		return w.watcher.Add(sub)
	})
}

// Start begins watching. Non-blocking; events are handled on a
// background goroutine until Stop is called or ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.log.Info("watching for source changes",
		zap.Strings("dirs", w.watcher.WatchList()),
		zap.Duration("debounce", w.debounce))
	go w.run(ctx)
	return nil
}

// Stop halts the event loop, waits for it to drain, and releases the
// filesystem watcher. Safe to call more than once, and before Start.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.log.Warn("error closing watcher", zap.Error(err))
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.debounce / 2)
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
			w.log.Warn("watch error", zap.Error(err))

		case <-ticker.C:
			w.flushSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".py") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.log.Debug("source changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))

	w.mu.Lock()
	w.pending[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) flushSettled() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounce {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	if len(settled) == 0 {
		return
	}
	sort.Strings(settled)
	w.onSettle(settled)
}
