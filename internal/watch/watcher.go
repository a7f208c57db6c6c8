// Package watch monitors a drop folder and processes new story inputs as
// they arrive. Each file is handled once, with a bounded number of files in
// flight at a time.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler processes one dropped input file
type Handler func(ctx context.Context, path string) error

// Watcher monitors a directory for new input files
type Watcher struct {
	dir           string
	handler       Handler
	fs            *fsnotify.Watcher
	exts          map[string]bool
	maxConcurrent int
	settleDelay   time.Duration
	semaphore     chan struct{}
	wg            sync.WaitGroup
}

// New creates a watcher over dir. Files whose lowercased extension is not
// in exts are ignored; maxConcurrent bounds in-flight handlers.
func New(dir string, handler Handler, maxConcurrent int, exts ...string) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[strings.ToLower(e)] = true
	}

	return &Watcher{
		dir:           dir,
		handler:       handler,
		fs:            fs,
		exts:          m,
		maxConcurrent: maxConcurrent,
		settleDelay:   500 * time.Millisecond,
		semaphore:     make(chan struct{}, maxConcurrent),
	}, nil
}

// Start blocks processing events until the context is cancelled. In-flight
// handlers are waited for before returning.
func (w *Watcher) Start(ctx context.Context) error {
	slog.Info("watching drop folder", "dir", w.dir, "max_concurrent", w.maxConcurrent)

	for {
		select {
		case <-ctx.Done():
			slog.Info("waiting for in-flight stories")
			w.wg.Wait()
			slog.Info("watcher stopped")
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !w.accepts(event.Name) {
				slog.Debug("ignoring file", "path", event.Name)
				continue
			}

			slog.Info("new input detected", "path", event.Name)
			w.dispatch(ctx, event.Name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			slog.Error("watcher error", "error", err)
		}
	}
}

// dispatch hands one dropped file to the handler on its own goroutine and
// returns immediately, keeping the event loop free to take the next event.
// The settle delay and the concurrency slot are both paid inside the
// goroutine, so a burst of files settles in parallel.
func (w *Watcher) dispatch(ctx context.Context, path string) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		// Give the producer a moment to finish writing the file.
		select {
		case <-time.After(w.settleDelay):
		case <-ctx.Done():
			return
		}

		select {
		case w.semaphore <- struct{}{}:
		case <-ctx.Done():
			return
		}
		defer func() { <-w.semaphore }()

		if err := w.handler(ctx, path); err != nil {
			slog.Error("story processing failed", "path", path, "error", err)
		}
	}()
}

// Stop closes the underlying filesystem watcher
func (w *Watcher) Stop() error {
	return w.fs.Close()
}

func (w *Watcher) accepts(path string) bool {
	if len(w.exts) == 0 {
		return true
	}
	return w.exts[strings.ToLower(filepath.Ext(path))]
}
