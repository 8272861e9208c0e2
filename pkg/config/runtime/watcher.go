package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Watcher applies an overrides file of NAME: value pairs to an accessor and
// re-applies it whenever the file changes.
type Watcher struct {
	accessor *Accessor
	path     string
	logger   *slog.Logger
	debounce *Debouncer
}

// NewWatcher creates a watcher for path. A zero debounce uses 100ms.
func NewWatcher(accessor *Accessor, path string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = 100 * time.Millisecond
	}
	return &Watcher{
		accessor: accessor,
		path:     path,
		logger:   logger.With("component", "config.runtime.watcher"),
		debounce: NewDebouncer(debounce),
	}
}

// ApplyFile reads the overrides file and applies each declared key with Set.
// Unknown keys are logged and skipped. It returns the number of applied keys.
func (w *Watcher) ApplyFile(ctx context.Context) (int, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read overrides file %q: %w", w.path, err)
	}

	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return 0, fmt.Errorf("failed to parse overrides file %q: %w", w.path, err)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	applied := 0
	var errs []error
	for _, name := range names {
		err := w.accessor.Set(ctx, name, values[name])
		switch {
		case errors.Is(err, ErrNotDeclared):
			w.logger.Warn("Skipping unknown runtime option", "name", name, "path", w.path)
		case err != nil:
			errs = append(errs, err)
		default:
			applied++
		}
	}

	w.logger.Info("Runtime overrides applied", "path", w.path, "applied", applied)
	return applied, errors.Join(errs...)
}

// Watch blocks until ctx is done, re-applying the file after each change.
// The parent directory is watched so editors that replace the file by rename
// are handled.
func (w *Watcher) Watch(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fsw.Close()
	defer w.debounce.Stop()

	target, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("failed to resolve %q: %w", w.path, err)
	}
	if err := fsw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(target), err)
	}

	w.logger.Info("Overrides watcher started", "path", target)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Overrides watcher stopped")
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}
			if !w.relevant(event, target) {
				continue
			}

			w.debounce.Trigger(func() {
				if _, err := w.ApplyFile(ctx); err != nil {
					w.logger.Error("Runtime overrides reload failed", "error", err)
				}
			})

		case err, ok := <-fsw.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("Overrides watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event, target string) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return false
	}
	name, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return name == target
}

// Debouncer collects rapid events and runs the latest callback after a quiet
// period.
type Debouncer struct {
	interval time.Duration
	timer    *time.Timer
	mu       sync.Mutex
	callback func()
	stopped  bool
}

// NewDebouncer creates a new debouncer.
func NewDebouncer(interval time.Duration) *Debouncer {
	return &Debouncer{interval: interval}
}

// Trigger schedules callback, replacing any pending one.
func (d *Debouncer) Trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, func() {
		d.mu.Lock()
		cb := d.callback
		stopped := d.stopped
		d.mu.Unlock()

		if cb != nil && !stopped {
			cb()
		}
	})
}

// Stop cancels any pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.callback = nil
}
