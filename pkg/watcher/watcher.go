// Package watcher reloads the crawl snapshot when links.json changes.
package watcher

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	DefaultDebounce     = 250 * time.Millisecond
	DefaultPollInterval = 2 * time.Second
)

var ErrFileRemoved = errors.New("watched file was removed")

// Option configures a Watcher.
type Option func(*Watcher)

func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		w.debounce = d
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(w *Watcher) {
		w.pollInterval = d
	}
}

// WithForcePoll skips fsnotify and polls the file's size and mtime.
func WithForcePoll(force bool) Option {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(w *Watcher) {
		w.logger = l
	}
}

func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// Watcher calls onChange once per burst of writes to a single file.
type Watcher struct {
	path         string
	onChange     func()
	onError      func(error)
	debounce     time.Duration
	pollInterval time.Duration
	forcePoll    bool
	logger       *slog.Logger

	mu    sync.Mutex
	timer *time.Timer
}

// New watches path. onChange runs on its own goroutine after the debounce
// window closes.
func New(path string, onChange func(), opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:         abs,
		onChange:     onChange,
		debounce:     DefaultDebounce,
		pollInterval: DefaultPollInterval,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.onError == nil {
		w.onError = func(err error) {
			w.logger.Warn("watch error", "path", w.path, "error", err)
		}
	}
	return w, nil
}

func (w *Watcher) Path() string {
	return w.path
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopTimer()

	if !w.forcePoll {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			// the directory is watched so atomic renames are seen
			if err = fsw.Add(filepath.Dir(w.path)); err == nil {
				defer fsw.Close()
				w.logger.Debug("watching with fsnotify", "path", w.path)
				return w.watchFsnotify(ctx, fsw)
			}
			fsw.Close()
		}
		w.logger.Info("fsnotify unavailable, polling", "path", w.path, "error", err)
	}
	return w.watchPolling(ctx)
}

func (w *Watcher) watchFsnotify(ctx context.Context, fsw *fsnotify.Watcher) error {
	target := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != target {
				continue
			}
			switch {
			case event.Has(fsnotify.Remove):
				w.onError(ErrFileRemoved)
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename):
				w.trigger()
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.onError(err)
		}
	}
}

func (w *Watcher) watchPolling(ctx context.Context) error {
	var (
		lastMod  time.Time
		lastSize int64
	)
	if info, err := os.Stat(w.path); err == nil {
		lastMod, lastSize = info.ModTime(), info.Size()
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			info, err := os.Stat(w.path)
			if err != nil {
				if os.IsNotExist(err) && !lastMod.IsZero() {
					w.onError(ErrFileRemoved)
					lastMod, lastSize = time.Time{}, 0
				}
				continue
			}
			if info.ModTime().After(lastMod) || info.Size() != lastSize {
				lastMod, lastSize = info.ModTime(), info.Size()
				w.trigger()
			}
		}
	}
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
