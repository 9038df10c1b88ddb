package hookbus

import (
	"context"
	"sync"
)

// ExecContext is the per-fire state handed to every matched hook. A new one is
// built for each Fire call and never shared between fires.
//
// Values is a shallow copy of the namespace's shared context taken when the
// fire started. Writes to Values stay local to this fire; writes through
// Shared() reach the namespace and every other fire.
type ExecContext struct {
	// Values is the fire-local copy of the shared context.
	Values map[string]any

	// Args are the positional arguments passed to Fire.
	Args []any

	ctx     context.Context
	pattern Pattern
	fireID  string
	shared  *SharedContext

	mu       sync.Mutex
	ret      any
	hasValue bool
	stopped  bool
}

func newExecContext(ctx context.Context, ns *Namespace, fired Pattern, args []any) *ExecContext {
	return &ExecContext{
		Values:  ns.shared.Snapshot(),
		Args:    args,
		ctx:     ctx,
		pattern: fired,
		fireID:  newID(),
		shared:  ns.shared,
	}
}

// Context returns the context the fire was started with.
func (ec *ExecContext) Context() context.Context { return ec.ctx }

// Pattern returns the fired pattern.
func (ec *ExecContext) Pattern() Pattern { return ec.pattern }

// FireID identifies this fire in logs and observer events.
func (ec *ExecContext) FireID() string { return ec.fireID }

// Shared returns the namespace's live shared context.
func (ec *ExecContext) Shared() *SharedContext { return ec.shared }

// Arg returns the i-th argument, or nil when out of range.
func (ec *ExecContext) Arg(i int) any {
	if i < 0 || i >= len(ec.Args) {
		return nil
	}
	return ec.Args[i]
}

// Return reports the current return value and whether one has been set.
func (ec *ExecContext) Return() (any, bool) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.ret, ec.hasValue
}

// SetReturn overwrites the return slot. Unlike returning a value from the hook,
// this also accepts nil as an explicit value.
func (ec *ExecContext) SetReturn(v any) {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.ret = v
	ec.hasValue = true
}

// Stop ends the fire after the current hook. Remaining hooks in this and later
// phases are skipped.
func (ec *ExecContext) Stop() {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	ec.stopped = true
}

// Stopped reports whether Stop has been called.
func (ec *ExecContext) Stopped() bool {
	ec.mu.Lock()
	defer ec.mu.Unlock()
	return ec.stopped
}
