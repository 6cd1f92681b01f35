// Package watcher reports .avif files that appear or change in a directory,
// once each file has been quiet for a debounce period.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/avifconv/internal/common"
	"github.com/dmitrijs2005/avifconv/internal/logging"
	"github.com/fsnotify/fsnotify"
)

type Watcher struct {
	dir      string
	debounce time.Duration
	logger   logging.Logger
	fs       *fsnotify.Watcher

	paths chan string
	done  chan struct{}

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

// New creates a watcher for dir. Nothing is watched until Run.
func New(dir string, debounce time.Duration, l logging.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		logger:   logging.OrNop(l).With("module", "watcher"),
		fs:       fsw,
		paths:    make(chan string, 100),
		done:     make(chan struct{}),
		timers:   make(map[string]*time.Timer),
	}, nil
}

// Paths delivers settled files. It is closed when Run returns.
func (w *Watcher) Paths() <-chan string {
	return w.paths
}

// Run watches the directory until ctx is done or the underlying watcher
// fails.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.shutdown()

	if err := w.fs.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch folder %s: %w", w.dir, err)
	}
	w.logger.Info(ctx, "watching folder", "dir", w.dir, "debounce", w.debounce)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.schedule(event.Name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn(ctx, "watcher error", "error", err)
		}
	}
}

// relevant keeps creations and writes of visible .avif files.
func relevant(e fsnotify.Event) bool {
	if !e.Has(fsnotify.Create) && !e.Has(fsnotify.Write) {
		return false
	}
	return IsCandidate(e.Name)
}

// IsCandidate reports whether path names a visible .avif file.
func IsCandidate(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return strings.EqualFold(filepath.Ext(base), common.AvifExt)
}

// schedule (re)starts the quiet period of path.
func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() { w.emit(path) })
}

func (w *Watcher) emit(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	delete(w.timers, path)
	select {
	case w.paths <- path:
	case <-w.done:
	}
}

func (w *Watcher) shutdown() {
	close(w.done)

	w.mu.Lock()
	w.closed = true
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = nil
	w.mu.Unlock()

	close(w.paths)
	if err := w.fs.Close(); err != nil {
		w.logger.Warn(context.Background(), "closing fsnotify watcher", "error", err)
	}
}

// Existing lists the .avif files already in dir, sorted by name.
func Existing(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.Type().IsRegular() && IsCandidate(e.Name()) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}
