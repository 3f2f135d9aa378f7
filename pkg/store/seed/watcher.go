package seed

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a seed file for changes and triggers re-application.
// Changes are debounced so editors that write in several steps trigger a
// single reload.
type Watcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	path     string
	debounce time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// WatcherConfig contains configuration for the seed file watcher.
type WatcherConfig struct {
	// Path is the seed file to watch.
	Path string

	// DebounceInterval is the quiet period before a change triggers a
	// reload. Default: 250ms
	DebounceInterval time.Duration
}

// NewWatcher creates a watcher for a seed file. The file's directory is
// watched rather than the file itself, so editors that replace the file by
// rename do not break the watch.
func NewWatcher(cfg *WatcherConfig) (*Watcher, error) {
	if cfg == nil || cfg.Path == "" {
		return nil, fmt.Errorf("watcher path cannot be empty")
	}

	debounce := cfg.DebounceInterval
	if debounce == 0 {
		debounce = 250 * time.Millisecond
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  fsw,
		logger:   slog.Default().With("component", "store.seed.watcher"),
		path:     filepath.Clean(cfg.Path),
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Watch blocks, invoking onChange after the seed file settles following a
// change. It returns when the context is cancelled or Stop is called.
// Reload failures are logged and watching continues.
func (w *Watcher) Watch(ctx context.Context, onChange func() error) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		close(w.doneCh)
	}()

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch seed directory: %w", err)
	}

	w.logger.Info("seed watcher started",
		"path", w.path,
		"debounce_ms", w.debounce.Milliseconds(),
	)

	// Timer starts stopped; each relevant event resets it.
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("seed watcher stopped (context cancelled)")
			return nil

		case <-w.stopCh:
			w.logger.Info("seed watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.isSeedEvent(event) {
				continue
			}

			w.logger.Debug("seed file event", "op", event.Op.String())
			timer.Reset(w.debounce)

		case <-timer.C:
			w.logger.Info("seed file changed, reloading", "path", w.path)
			if err := onChange(); err != nil {
				w.logger.Error("seed reload failed", "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("seed watcher error", "error", err)
		}
	}
}

// Stop stops the watcher and waits for Watch to return.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	return w.watcher.Close()
}

// isSeedEvent reports whether an event concerns the watched seed file.
func (w *Watcher) isSeedEvent(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
