package definition

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"
)

const DefaultWatchInterval = 5 * time.Second

// Watcher polls the definition file's modification time and hands each
// changed, valid definition set to onChange. Invalid edits are logged and
// skipped until the file is fixed.
type Watcher struct {
	mu       sync.Mutex
	path     string
	interval time.Duration
	onChange func(*File)
	logger   *slog.Logger
	modTime  time.Time
	current  *File
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewWatcher(path string, interval time.Duration, logger *slog.Logger, onChange func(*File)) *Watcher {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}
	return &Watcher{
		path:     path,
		interval: interval,
		onChange: onChange,
		logger:   logger.With("component", "definition_watcher"),
	}
}

// Acknowledge records the file's current state as seen, so a write made by
// this process does not trigger a reload.
func (w *Watcher) Acknowledge(f *File) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = f
	if info, err := os.Stat(w.path); err == nil {
		w.modTime = info.ModTime()
	}
}

// Start begins polling.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	ctx, w.cancel = context.WithCancel(ctx)
	w.done = make(chan struct{})
	w.mu.Unlock()

	go func() {
		defer close(w.done)
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				w.Check()
			}
		}
	}()
	w.logger.Info("watching definitions", "path", w.path, "interval", w.interval)
}

// Stop halts polling and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

// Check reloads the file if its modification time moved forward and
// reports whether onChange was called.
func (w *Watcher) Check() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Error("stat definitions", "error", err)
		}
		return false
	}

	w.mu.Lock()
	if !info.ModTime().After(w.modTime) {
		w.mu.Unlock()
		return false
	}
	w.modTime = info.ModTime()
	previous := w.current
	w.mu.Unlock()

	f, err := Load(w.path)
	if err != nil {
		w.logger.Error("reload definitions", "error", err)
		return false
	}
	if previous.Equal(f) {
		w.logger.Debug("definitions unchanged")
		return false
	}

	w.mu.Lock()
	w.current = f
	w.mu.Unlock()

	w.logger.Info("definitions changed", "tasks", len(f.Tasks), "privileges", len(f.Privileges))
	w.onChange(f)
	return true
}
