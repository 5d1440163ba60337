package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadFunc is invoked once a burst of changes to the watched file settles.
type ReloadFunc func(ctx context.Context) error

// Watcher reloads a single file after it changes.
//
// The parent directory is watched rather than the file itself so that editors
// which replace the file via rename keep triggering events.
type Watcher struct {
	path     string
	reload   ReloadFunc
	debounce time.Duration
	log      *zap.Logger

	reloads  atomic.Int64
	failures atomic.Int64
}

// New returns a watcher for path. A non-positive debounce defaults to 500ms.
func New(path string, reload ReloadFunc, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if reload == nil {
		return nil, fmt.Errorf("watch %s: reload func is required", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		path:     abs,
		reload:   reload,
		debounce: debounce,
		log:      logger.With(zap.String("file", abs)),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Reloads returns the number of successful reloads so far.
func (w *Watcher) Reloads() int64 { return w.reloads.Load() }

// Failures returns the number of failed reloads so far.
func (w *Watcher) Failures() int64 { return w.failures.Load() }

// Run blocks until ctx is done. It returns an error only if the watch could
// not be established.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	dir := filepath.Dir(w.path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	w.log.Info("watching for changes", zap.Duration("debounce", w.debounce))

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("watcher stopped")
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("change detected", zap.String("op", ev.Op.String()))
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			w.fire(ctx)
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create) != 0
}

func (w *Watcher) fire(ctx context.Context) {
	start := time.Now()
	if err := w.reload(ctx); err != nil {
		w.failures.Add(1)
		w.log.Error("reload failed; keeping previous data", zap.Error(err))
		return
	}
	w.reloads.Add(1)
	w.log.Info("reloaded", zap.Duration("took", time.Since(start)))
}
