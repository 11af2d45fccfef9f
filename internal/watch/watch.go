// Package watch refreshes a flow diagram whenever a source file changes.
package watch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/l3aro/jackal-flow/internal/log"
)

// DefaultDebounce is the quiet period after the last change before a refresh.
const DefaultDebounce = 150 * time.Millisecond

// Handler receives the file content after each debounced change.
type Handler func(ctx context.Context, content string)

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	Logger   log.Logger
}

// Watcher watches one file. The parent directory is watched so that
// editors replacing the file through a rename are still observed.
type Watcher struct {
	path     string
	handler  Handler
	debounce time.Duration
	logger   log.Logger

	watcher *fsnotify.Watcher

	mu       sync.Mutex
	running  bool
	stopOnce sync.Once
	done     chan struct{}
}

// New creates a watcher for path.
func New(path string, handler Handler, opts Options) (*Watcher, error) {
	if handler == nil {
		return nil, errors.New("handler is required")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving path %s: %w", path, err)
	}
	if info, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("stat %s: %w", abs, err)
	} else if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", abs)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return &Watcher{
		path:     abs,
		handler:  handler,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		watcher:  fw,
		done:     make(chan struct{}),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string {
	return w.path
}

// Run delivers the current content once and then after every debounced
// change. It blocks until ctx is canceled or Stop is called.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return errors.New("watcher already running")
	}
	w.running = true
	w.mu.Unlock()
	defer w.Stop()

	w.deliver(ctx)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.deliver(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "path", w.path, "error", err)
		}
	}
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

func (w *Watcher) deliver(ctx context.Context) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		// The file may be mid-replace; the following create event delivers it.
		w.logger.Debug("skipping unreadable file", "path", w.path, "error", err)
		return
	}
	w.handler(ctx, string(data))
}
