// Package scheduler fires hookbus patterns on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/GoCodeAlone/hookbus"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Scheduler errors
var (
	ErrEntryNotFound    = errors.New("schedule entry not found")
	ErrInvalidSchedule  = errors.New("invalid cron expression")
	ErrShutdownTimedOut = errors.New("scheduler shutdown timed out")
)

// Firer is the part of *hookbus.Dispatcher the scheduler needs.
type Firer interface {
	Fire(ctx context.Context, pattern string, args ...any) (hookbus.Result, error)
}

// Entry describes a scheduled fire.
type Entry struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Spec      string     `json:"spec"`
	Pattern   string     `json:"pattern"`
	Args      []any      `json:"args,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	LastRun   *time.Time `json:"lastRun,omitempty"`
	NextRun   *time.Time `json:"nextRun,omitempty"`
	Runs      int        `json:"runs"`
	LastError string     `json:"lastError,omitempty"`
}

type entry struct {
	Entry
	cronID cron.EntryID
}

// Scheduler fires patterns on a Firer according to cron expressions.
type Scheduler struct {
	firer  Firer
	logger hookbus.Logger
	cron   *cron.Cron

	entryMutex sync.RWMutex
	entries    map[string]*entry

	schedulerMutex sync.Mutex
	isStarted      bool

	ctxMutex sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger
func WithLogger(logger hookbus.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSeconds accepts six-field cron expressions with a leading seconds field.
func WithSeconds() Option {
	return func(s *Scheduler) {
		s.cron = cron.New(cron.WithSeconds())
	}
}

// New creates a scheduler that fires on firer. It does nothing until Start.
func New(firer Firer, opts ...Option) *Scheduler {
	s := &Scheduler{
		firer:   firer,
		logger:  hookbus.NopLogger{},
		cron:    cron.New(),
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule fires pattern with args whenever spec is due. spec accepts standard
// five-field expressions and descriptors such as "@every 5m" or "@hourly".
// It returns the entry id.
func (s *Scheduler) Schedule(name, spec, pattern string, args ...any) (string, error) {
	if _, err := hookbus.ParsePattern(pattern); err != nil {
		return "", err
	}

	e := &entry{Entry: Entry{
		ID:        uuid.NewString(),
		Name:      name,
		Spec:      spec,
		Pattern:   pattern,
		Args:      args,
		CreatedAt: time.Now(),
	}}

	s.entryMutex.Lock()
	defer s.entryMutex.Unlock()

	cronID, err := s.cron.AddFunc(spec, func() { s.run(e.ID) })
	if err != nil {
		return "", fmt.Errorf("%w '%s': %w", ErrInvalidSchedule, spec, err)
	}
	e.cronID = cronID
	s.entries[e.ID] = e

	s.logger.Info("Scheduled fire", "id", e.ID, "name", name, "spec", spec, "pattern", pattern)
	return e.ID, nil
}

// ApplyConfig schedules every entry of a hookbus config.
func (s *Scheduler) ApplyConfig(schedules []hookbus.ScheduleConfig) ([]string, error) {
	ids := make([]string, 0, len(schedules))
	for _, sc := range schedules {
		id, err := s.Schedule(sc.Name, sc.Spec, sc.Pattern, sc.Args...)
		if err != nil {
			return ids, fmt.Errorf("schedule %q: %w", sc.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Remove cancels a scheduled fire.
func (s *Scheduler) Remove(id string) error {
	s.entryMutex.Lock()
	defer s.entryMutex.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	s.cron.Remove(e.cronID)
	delete(s.entries, id)
	return nil
}

// Entries returns every scheduled fire ordered by creation time.
func (s *Scheduler) Entries() []Entry {
	s.entryMutex.RLock()
	defer s.entryMutex.RUnlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		snapshot := e.Entry
		if next := s.cron.Entry(e.cronID).Next; !next.IsZero() {
			snapshot.NextRun = &next
		}
		out = append(out, snapshot)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// RunNow fires the entry immediately, outside its schedule.
func (s *Scheduler) RunNow(ctx context.Context, id string) (hookbus.Result, error) {
	s.entryMutex.RLock()
	e, ok := s.entries[id]
	s.entryMutex.RUnlock()
	if !ok {
		return hookbus.Result{}, fmt.Errorf("%w: %s", ErrEntryNotFound, id)
	}
	return s.fire(ctx, e)
}

// Start begins firing due entries. Fires use a context derived from ctx that
// is cancelled by Stop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.schedulerMutex.Lock()
	defer s.schedulerMutex.Unlock()

	if s.isStarted {
		return nil
	}

	s.logger.Info("Starting scheduler", "entries", len(s.Entries()))
	s.ctxMutex.Lock()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.ctxMutex.Unlock()
	s.cron.Start()
	s.isStarted = true
	return nil
}

// Stop halts the cron loop and waits for running fires, or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.schedulerMutex.Lock()
	defer s.schedulerMutex.Unlock()

	if !s.isStarted {
		return nil
	}

	s.logger.Info("Stopping scheduler")
	cronCtx := s.cron.Stop()
	s.isStarted = false

	s.ctxMutex.RLock()
	cancel := s.cancel
	s.ctxMutex.RUnlock()
	defer cancel()

	select {
	case <-cronCtx.Done():
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler shutdown timed out")
		return ErrShutdownTimedOut
	}
}

// run is the cron callback for entry id.
func (s *Scheduler) run(id string) {
	s.entryMutex.RLock()
	e, ok := s.entries[id]
	s.entryMutex.RUnlock()
	if !ok {
		return
	}

	s.ctxMutex.RLock()
	ctx := s.ctx
	s.ctxMutex.RUnlock()
	if ctx == nil {
		return
	}

	if _, err := s.fire(ctx, e); err != nil {
		s.logger.Error("Scheduled fire failed", "id", id, "pattern", e.Pattern, "error", err)
	}
}

func (s *Scheduler) fire(ctx context.Context, e *entry) (hookbus.Result, error) {
	res, err := s.firer.Fire(ctx, e.Pattern, e.Args...)

	now := time.Now()
	s.entryMutex.Lock()
	e.LastRun = &now
	e.Runs++
	e.LastError = ""
	if err != nil {
		e.LastError = err.Error()
	}
	s.entryMutex.Unlock()

	s.logger.Debug("Scheduled fire ran", "id", e.ID, "pattern", e.Pattern, "invoked", res.Invoked)
	return res, err
}
