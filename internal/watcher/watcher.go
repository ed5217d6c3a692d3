// Package watcher watches the pipeline's input files with fsnotify and reports debounced changes.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const defaultDebounce = 400 * time.Millisecond

// Watcher watches a fixed set of files and invokes a callback once their changes settle.
// Changes to several files inside one debounce window produce a single callback.
type Watcher struct {
	files    map[string]struct{}
	onChange func(paths []string)
	debounce time.Duration
	watcher  *fsnotify.Watcher
	mu       sync.Mutex
	timer    *time.Timer
	pending  map[string]struct{}
	done     chan struct{}
	started  bool
	stopOnce sync.Once
	logger   *zap.Logger
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithLogger sets a logger for debug output (file events, debounced triggers).
func WithLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDebounce sets the quiet period before onChange fires. Non-positive values keep the default.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a watcher for files. onChange receives the sorted paths that were
// created or written since the previous callback. Empty paths are ignored.
func NewWatcher(files []string, onChange func(paths []string), opts ...WatcherOption) *Watcher {
	w := &Watcher{
		files:    make(map[string]struct{}, len(files)),
		onChange: onChange,
		debounce: defaultDebounce,
		pending:  make(map[string]struct{}),
		done:     make(chan struct{}),
		logger:   zap.NewNop(),
	}
	for _, f := range files {
		if f == "" {
			continue
		}
		if abs, err := filepath.Abs(f); err == nil {
			f = abs
		}
		w.files[filepath.Clean(f)] = struct{}{}
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Files returns the watched file paths, sorted.
func (w *Watcher) Files() []string {
	out := make([]string, 0, len(w.files))
	for f := range w.files {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Dirs returns the directories holding the watched files, sorted.
func (w *Watcher) Dirs() []string {
	seen := make(map[string]struct{})
	var out []string
	for f := range w.files {
		d := filepath.Dir(f)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// Start starts the watcher. It runs until ctx is cancelled or Stop is called.
// Parent directories are watched so that files replaced by rename are still seen;
// missing directories are created.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dirs := w.Dirs()
	w.logger.Debug("watcher starting", zap.Strings("files", w.Files()), zap.Duration("debounce", w.debounce))
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			_ = watcher.Close()
			return err
		}
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return err
		}
	}
	w.watcher = watcher
	w.started = true
	go w.run(ctx, watcher)
	return nil
}

func (w *Watcher) run(ctx context.Context, watcher *fsnotify.Watcher) {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return
		case <-w.done:
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	if _, ok := w.files[path]; !ok {
		return
	}
	w.logger.Debug("watcher event", zap.String("op", ev.Op.String()), zap.String("path", path))
	if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
		w.schedule(path)
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.started {
		return
	}
	w.pending[path] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.timer = nil
	w.mu.Unlock()
	if len(paths) == 0 {
		return
	}
	sort.Strings(paths)
	w.logger.Debug("watcher trigger (debounced)", zap.Strings("paths", paths))
	if w.onChange != nil {
		w.onChange(paths)
	}
}

// Stop stops the watcher and releases resources. Pending changes are discarded.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.pending = make(map[string]struct{})
	_ = w.watcher.Close()
	w.started = false
	w.mu.Unlock()
	w.stopOnce.Do(func() { close(w.done) })
}
