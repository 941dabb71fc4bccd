// Package watcher re-runs a handler for files created or modified under a
// set of directory trees.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a path must stay quiet before it is handled.
const DefaultDebounce = 500 * time.Millisecond

// Handler processes one settled file.
type Handler func(ctx context.Context, path string)

// Options configures a Watcher.
type Options struct {
	// Accept filters candidate files; nil accepts everything not hidden.
	Accept func(path string) bool
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
	// OnError receives watch errors; nil discards them.
	OnError func(err error)
	// OnWatch is called for every directory added to the watch.
	OnWatch func(dir string)
}

// Watcher monitors directory trees with fsnotify. Handlers run one at a
// time on the goroutine that called Run.
type Watcher struct {
	fs      *fsnotify.Watcher
	handle  Handler
	opts    Options
	delay   time.Duration
	ready   chan string
	done    chan struct{}
	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a Watcher covering every directory under roots.
func New(roots []string, handle Handler, opts Options) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fs:      fsWatcher,
		handle:  handle,
		opts:    opts,
		delay:   DefaultDebounce,
		ready:   make(chan string, 100),
		done:    make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}
	if opts.Debounce > 0 {
		w.delay = opts.Debounce
	}

	for _, root := range roots {
		if err := w.addTree(root, false); err != nil {
			_ = fsWatcher.Close()
			return nil, err
		}
	}
	return w, nil
}

// addTree watches root and every directory beneath it. When schedule is set,
// files already present are queued, which covers files written into a new
// directory before its watch was registered.
func (w *Watcher) addTree(root string, schedule bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("failed to watch %s: %w", root, err)
			}
			w.reportError(err)
			return nil
		}
		if d.IsDir() {
			if path != root && isHidden(d.Name()) {
				return filepath.SkipDir
			}
			if err := w.fs.Add(path); err != nil {
				if path == root {
					return fmt.Errorf("failed to watch %s: %w", root, err)
				}
				w.reportError(err)
				return filepath.SkipDir
			}
			if w.opts.OnWatch != nil {
				w.opts.OnWatch(path)
			}
			return nil
		}
		if schedule && d.Type().IsRegular() && w.accepts(path) {
			w.schedule(path)
		}
		return nil
	})
}

// Run processes events until ctx is cancelled or the watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case path := <-w.ready:
			info, err := os.Stat(path)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			w.handle(ctx, path)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.reportError(err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if isHidden(filepath.Base(event.Name)) {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Lstat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name, true); err != nil {
				w.reportError(err)
			}
			return
		}
	}

	if w.accepts(event.Name) {
		w.schedule(event.Name)
	}
}

// schedule (re)starts the quiet timer for path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, exists := w.pending[path]; exists {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.delay, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case w.ready <- path:
		case <-w.done:
		}
	})
}

func (w *Watcher) stop() {
	close(w.done)
	w.mu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	_ = w.fs.Close()
}

func (w *Watcher) accepts(path string) bool {
	if isHidden(filepath.Base(path)) {
		return false
	}
	return w.opts.Accept == nil || w.opts.Accept(path)
}

func (w *Watcher) reportError(err error) {
	if w.opts.OnError != nil {
		w.opts.OnError(err)
	}
}

// isHidden covers dotfiles, including in-progress temp outputs.
func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
