// Package configwatcher reloads a hookbus config file when it changes on disk
// and reconciles the dispatcher's namespaces against it.
package configwatcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/GoCodeAlone/hookbus"
	"github.com/GoCodeAlone/hookbus/feeders"
	"github.com/fsnotify/fsnotify"
)

// ErrAlreadyWatching is returned by Start on a running watcher.
var ErrAlreadyWatching = errors.New("config watcher already started")

// DefaultDebounce coalesces the burst of events editors produce on save.
const DefaultDebounce = 100 * time.Millisecond

// Reconciler is the part of *hookbus.Dispatcher the watcher needs.
type Reconciler interface {
	Reconcile(cfg *hookbus.Config) (hookbus.ReconcileReport, error)
}

// ReloadFunc is called after every reload attempt.
type ReloadFunc func(report hookbus.ReconcileReport, err error)

// Watcher watches one config file.
type Watcher struct {
	path     string
	target   Reconciler
	logger   hookbus.Logger
	debounce time.Duration
	extra    []hookbus.Feeder
	onReload ReloadFunc

	mu      sync.Mutex
	fsw     *fsnotify.Watcher
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets the logger
func WithLogger(logger hookbus.Logger) Option {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithDebounce sets how long to wait after the last change before reloading.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithFeeders adds feeders applied after the file, typically an EnvFeeder.
func WithFeeders(f ...hookbus.Feeder) Option {
	return func(w *Watcher) {
		w.extra = append(w.extra, f...)
	}
}

// OnReload registers a callback run after each reload.
func OnReload(fn ReloadFunc) Option {
	return func(w *Watcher) {
		w.onReload = fn
	}
}

// New creates a watcher for path. The file format is chosen by extension.
func New(path string, target Reconciler, opts ...Option) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		target:   target,
		logger:   hookbus.NopLogger{},
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Load reads the file once and reconciles the target against it.
func (w *Watcher) Load() (hookbus.ReconcileReport, error) {
	fileFeeder, err := feeders.ForPath(w.path)
	if err != nil {
		return hookbus.ReconcileReport{}, err
	}
	cfg, err := hookbus.LoadConfig(append([]hookbus.Feeder{fileFeeder}, w.extra...)...)
	if err != nil {
		return hookbus.ReconcileReport{}, fmt.Errorf("failed to load %s: %w", w.path, err)
	}
	return w.target.Reconcile(cfg)
}

// Start loads the file and then reloads it whenever it changes, until ctx is
// done or Stop is called. The parent directory is watched so that editors
// which save by rename are picked up.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyWatching
	}

	if _, err := w.reload(); err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	w.fsw = fsw
	w.cancel = cancel
	w.started = true

	w.wg.Add(1)
	go w.loop(watchCtx, fsw)

	w.logger.Info("Watching config file", "path", w.path)
	return nil
}

// Stop ends watching and waits for the watch loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.started {
		w.mu.Unlock()
		return nil
	}
	w.cancel()
	fsw := w.fsw
	w.started = false
	w.mu.Unlock()

	w.wg.Wait()
	return fsw.Close()
}

func (w *Watcher) loop(ctx context.Context, fsw *fsnotify.Watcher) {
	defer w.wg.Done()

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C

		case <-timerC:
			timerC = nil
			_, _ = w.reload()

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("Config watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) reload() (hookbus.ReconcileReport, error) {
	report, err := w.Load()
	if err != nil {
		w.logger.Error("Config reload failed", "path", w.path, "error", err)
	} else {
		w.logger.Info("Config reloaded", "path", w.path, "created", report.Created,
			"replaced", report.Replaced, "removed", report.Removed)
	}
	if w.onReload != nil {
		w.onReload(report, err)
	}
	return report, err
}
