package hookbus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"time"
)

// Fire outcomes, used in metrics labels and observer events.
const (
	OutcomeCompleted = "completed"
	OutcomeStopped   = "stopped"
	OutcomeFailed    = "failed"
)

// Result is the resolved outcome of a fire.
type Result struct {
	// Value is the final return value. It is only meaningful when HasValue is set.
	Value any

	// HasValue is false when no hook produced a value.
	HasValue bool

	// Stopped is true when a hook called Stop, false when every matched hook ran.
	Stopped bool

	// Invoked is the number of hooks that ran.
	Invoked int

	// FireID identifies the fire in logs and observer events.
	FireID string
}

// Dispatcher owns a namespace registry and fires patterns against it.
// It is safe for concurrent use. Hooks may register hooks, unregister hooks,
// and fire patterns on the same dispatcher while being invoked.
type Dispatcher struct {
	registry   *Registry
	logger     Logger
	metrics    *Metrics
	syncEvents bool

	observers     map[string]*observerRegistration
	observerMutex sync.RWMutex
	notifyWG      sync.WaitGroup

	configMu    sync.Mutex
	configOwned map[string]NamespaceConfig
}

// New creates a dispatcher with an empty registry.
func New(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		registry:    NewRegistry(),
		logger:      NopLogger{},
		observers:   make(map[string]*observerRegistration),
		configOwned: make(map[string]NamespaceConfig),
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Registry exposes the dispatcher's namespace registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// CreateNamespace registers a namespace, replacing any namespace with the same
// id. phases may mark the default phase with a trailing "*"; nil gives a single
// DefaultPhaseName phase.
//
// A namespace created here belongs to the caller: a later Reconcile never
// removes it, even if a config declared the same id before.
func (d *Dispatcher) CreateNamespace(id string, phases []string, shared map[string]any) error {
	if err := d.createNamespace(id, phases, shared); err != nil {
		return err
	}
	d.configMu.Lock()
	delete(d.configOwned, id)
	d.configMu.Unlock()
	return nil
}

func (d *Dispatcher) createNamespace(id string, phases []string, shared map[string]any) error {
	ns, err := d.registry.Create(id, phases, shared)
	if err != nil {
		return err
	}
	d.logger.Info("Namespace created", "namespace", id, "phases", ns.phases.Names(), "defaultPhase", ns.DefaultPhase())
	d.emitEvent(context.Background(), EventTypeNamespaceCreated, map[string]interface{}{
		"namespace":    id,
		"phases":       ns.phases.Names(),
		"defaultPhase": ns.DefaultPhase(),
	})
	return nil
}

// RemoveNamespace deletes a namespace and all of its hooks.
func (d *Dispatcher) RemoveNamespace(id string) error {
	if err := d.registry.Remove(id); err != nil {
		return err
	}
	d.configMu.Lock()
	delete(d.configOwned, id)
	d.configMu.Unlock()

	d.logger.Info("Namespace removed", "namespace", id)
	d.emitEvent(context.Background(), EventTypeNamespaceRemoved, map[string]interface{}{
		"namespace": id,
	})
	return nil
}

// Namespace returns a façade over the namespace id. The namespace does not
// have to exist yet; each call resolves it at fire time.
func (d *Dispatcher) Namespace(id string) *Facade {
	return &Facade{dispatcher: d, id: id}
}

// AddHook registers fn under pattern in the namespace named by the pattern's
// first segment. The returned function removes exactly this hook.
func (d *Dispatcher) AddHook(pattern string, fn HookFunc, opts ...HookOption) (UnregisterFunc, error) {
	p, err := ParsePattern(pattern)
	if err != nil {
		return nil, err
	}
	ns, err := d.registry.Lookup(p.Namespace)
	if err != nil {
		return nil, err
	}
	h, _, err := ns.AddHook(pattern, fn, opts...)
	if err != nil {
		return nil, err
	}

	if !ns.phases.Has(h.phase) {
		d.logger.Warn("Hook registered under undeclared phase, it will run before all declared phases",
			"namespace", ns.id, "pattern", pattern, "phase", h.phase)
	}
	d.logger.Debug("Hook registered", "hookID", h.id, "pattern", pattern, "phase", h.phase)
	d.emitEvent(context.Background(), EventTypeHookRegistered, map[string]interface{}{
		"hookId":  h.id,
		"pattern": pattern,
		"phase":   h.phase,
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			// Nothing to report when the namespace was replaced or removed first.
			if !ns.removeHook(h) {
				return
			}
			d.logger.Debug("Hook unregistered", "hookID", h.id, "pattern", pattern)
			d.emitEvent(context.Background(), EventTypeHookUnregistered, map[string]interface{}{
				"hookId":  h.id,
				"pattern": pattern,
			})
		})
	}, nil
}

// HasMatch reports whether firing pattern would invoke at least one hook.
func (d *Dispatcher) HasMatch(pattern string) (bool, error) {
	p, err := ParsePattern(pattern)
	if err != nil {
		return false, err
	}
	ns, err := d.registry.Lookup(p.Namespace)
	if err != nil {
		return false, err
	}
	return ns.HasMatch(p), nil
}

// Fire invokes every hook matching pattern, one at a time in phase order, and
// returns the final return value.
//
// Each hook receives the same ExecContext. A non-nil hook result overwrites the
// return slot; an Awaitable result is awaited first. When a hook calls Stop the
// remaining hooks are skipped. A hook error or panic aborts the fire with a
// *HookInvocationError and any value collected so far is discarded.
//
// The match list is computed once when the fire starts, so hooks registered
// or removed while it runs do not affect it.
func (d *Dispatcher) Fire(ctx context.Context, pattern string, args ...any) (Result, error) {
	p, err := ParsePattern(pattern)
	if err != nil {
		return Result{}, err
	}
	ns, err := d.registry.Lookup(p.Namespace)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	ec := newExecContext(ctx, ns, p, args)
	hooks := ns.Matches(p)
	res := Result{FireID: ec.fireID}

	for _, h := range hooks {
		if err := ctx.Err(); err != nil {
			return d.fireFailed(ctx, ns, p, res, start, err)
		}

		v, err := d.invoke(ec, h)
		res.Invoked++
		if err != nil {
			return d.fireFailed(ctx, ns, p, res, start, err)
		}
		if !isNoValue(v) {
			ec.SetReturn(v)
		}
		if ec.Stopped() {
			res.Stopped = true
			break
		}
	}

	res.Value, res.HasValue = ec.Return()

	outcome := OutcomeCompleted
	eventType := EventTypeFireCompleted
	if res.Stopped {
		outcome = OutcomeStopped
		eventType = EventTypeFireStopped
	}
	d.metrics.observeFire(ns.id, outcome, time.Since(start))
	d.logger.Debug("Fire finished", "pattern", pattern, "fireID", res.FireID, "outcome", outcome, "invoked", res.Invoked)
	d.emitEvent(ctx, eventType, map[string]interface{}{
		"pattern":  pattern,
		"fireId":   res.FireID,
		"invoked":  res.Invoked,
		"matched":  len(hooks),
		"hasValue": res.HasValue,
	})

	return res, nil
}

// FireAsync runs Fire on its own goroutine.
func (d *Dispatcher) FireAsync(ctx context.Context, pattern string, args ...any) *FireFuture {
	f := &FireFuture{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		f.result, f.err = d.Fire(ctx, pattern, args...)
	}()
	return f
}

// isNoValue reports whether a hook result leaves the return slot unchanged:
// a nil interface or a nil pointer of any type.
func isNoValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// invoke runs a single hook, awaiting its result when it is Awaitable.
func (d *Dispatcher) invoke(ec *ExecContext, h *Hook) (v any, err error) {
	d.logger.Debug("Invoking hook", "hookID", h.id, "pattern", h.pattern.String(), "phase", h.phase, "fireID", ec.fireID)
	d.metrics.observeHook(h.pattern.Namespace, h.phase)

	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = &HookInvocationError{
				Pattern: h.pattern.String(),
				Phase:   h.phase,
				HookID:  h.id,
				Cause:   fmt.Errorf("%w: %v", ErrHookPanicked, r),
			}
		}
	}()

	v, err = h.fn(ec, ec.Args...)
	if err == nil && !isNoValue(v) {
		if aw, ok := v.(Awaitable); ok {
			v, err = aw.Await(ec.ctx)
			if err != nil && ec.ctx.Err() != nil && errors.Is(err, ec.ctx.Err()) {
				return nil, err
			}
		}
	}
	if err != nil {
		return nil, &HookInvocationError{
			Pattern: h.pattern.String(),
			Phase:   h.phase,
			HookID:  h.id,
			Cause:   err,
		}
	}
	return v, nil
}

func (d *Dispatcher) fireFailed(ctx context.Context, ns *Namespace, p Pattern, res Result, start time.Time, err error) (Result, error) {
	d.metrics.observeFire(ns.id, OutcomeFailed, time.Since(start))
	d.logger.Error("Fire failed", "pattern", p.String(), "fireID", res.FireID, "invoked", res.Invoked, "error", err)
	d.emitEvent(context.WithoutCancel(ctx), EventTypeFireFailed, map[string]interface{}{
		"pattern": p.String(),
		"fireId":  res.FireID,
		"invoked": res.Invoked,
		"error":   err.Error(),
	})
	return Result{FireID: res.FireID, Invoked: res.Invoked}, err
}
