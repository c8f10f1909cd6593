// Package watch reports changes to route manifests on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeType represents the type of file change.
type ChangeType int

const (
	ChangeWrite ChangeType = iota
	ChangeCreate
	ChangeRemove
	ChangeRename
)

func (t ChangeType) String() string {
	switch t {
	case ChangeWrite:
		return "write"
	case ChangeCreate:
		return "create"
	case ChangeRemove:
		return "remove"
	case ChangeRename:
		return "rename"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(t))
	}
}

// Change represents a detected file change.
type Change struct {
	Path string
	Type ChangeType
}

// Config configures the file watcher.
type Config struct {
	// Paths are the files to watch.
	Paths []string

	// Debounce is the quiet period after the last event before changes
	// are reported. Editors often write a file in several steps.
	Debounce time.Duration

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Watcher monitors files for changes.
//
// Parent directories are watched rather than the files themselves, so files
// replaced by rename (as most editors and build tools do) keep being seen.
type Watcher struct {
	config   Config
	targets  map[string]bool
	logger   *slog.Logger
	onChange func(Change)
	mu       sync.Mutex
	running  bool
	stopCh   chan struct{}
	ready    chan struct{}
	readyOne sync.Once
}

// New creates a new file watcher.
func New(config Config) *Watcher {
	if config.Debounce == 0 {
		config.Debounce = 200 * time.Millisecond
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	targets := make(map[string]bool, len(config.Paths))
	for _, p := range config.Paths {
		if abs, err := filepath.Abs(p); err == nil {
			targets[abs] = true
		}
	}

	return &Watcher{
		config:  config,
		targets: targets,
		logger:  config.Logger.With("component", "watch"),
		ready:   make(chan struct{}),
	}
}

// OnChange sets the callback for file changes. Within one debounce window
// each path is reported once, with its last change type, in path order.
func (w *Watcher) OnChange(fn func(Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = fn
}

// Ready is closed once the watcher is receiving events.
func (w *Watcher) Ready() <-chan struct{} {
	return w.ready
}

// Start watches until ctx is cancelled or Stop is called. It blocks.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.stopCh = make(chan struct{})
	stopCh := w.stopCh
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	for _, dir := range w.dirs() {
		if err := fsw.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
	}
	w.logger.Info("watching manifests", "paths", w.config.Paths)
	w.readyOne.Do(func() { close(w.ready) })

	pending := make(map[string]ChangeType)
	timer := time.NewTimer(w.config.Debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-stopCh:
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if !w.targets[path] {
				continue
			}
			change, ok := classify(event.Op)
			if !ok {
				continue
			}
			w.logger.Debug("manifest event", "path", path, "op", event.Op.String())
			pending[path] = change
			timer.Reset(w.config.Debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)

		case <-timer.C:
			w.flush(pending)
			clear(pending)
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		close(w.stopCh)
		w.running = false
	}
}

// IsRunning returns whether the watcher is running.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) flush(pending map[string]ChangeType) {
	w.mu.Lock()
	callback := w.onChange
	w.mu.Unlock()
	if callback == nil {
		return
	}

	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	for _, p := range paths {
		callback(Change{Path: p, Type: pending[p]})
	}
}

// dirs returns the distinct parent directories of the watched files.
func (w *Watcher) dirs() []string {
	var dirs []string
	for p := range w.targets {
		dir := filepath.Dir(p)
		if !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}
	slices.Sort(dirs)
	return dirs
}

func classify(op fsnotify.Op) (ChangeType, bool) {
	switch {
	case op.Has(fsnotify.Remove):
		return ChangeRemove, true
	case op.Has(fsnotify.Rename):
		return ChangeRename, true
	case op.Has(fsnotify.Create):
		return ChangeCreate, true
	case op.Has(fsnotify.Write):
		return ChangeWrite, true
	default:
		return 0, false
	}
}
