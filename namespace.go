package hookbus

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// SharedContext is the long-lived key/value store of a namespace. Every fire on
// the namespace sees the same instance, so writes made by one hook are visible to
// later fires, including ones running concurrently. Individual operations are
// safe for concurrent use; coordinating multi-step updates is up to the caller.
type SharedContext struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewSharedContext creates a shared context seeded with a copy of initial.
func NewSharedContext(initial map[string]any) *SharedContext {
	values := make(map[string]any, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &SharedContext{values: values}
}

// Get returns the value stored under key.
func (s *SharedContext) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

// Set stores value under key.
func (s *SharedContext) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes key.
func (s *SharedContext) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Snapshot returns a shallow copy of the current contents.
func (s *SharedContext) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Namespace is a registration domain: an ordered hook collection, a phase
// ordering, and a shared context. Hooks are always kept sorted by ascending
// phase index with ties in registration order.
type Namespace struct {
	id        string
	phases    Phases
	shared    *SharedContext
	createdAt time.Time

	mu    sync.RWMutex
	hooks []*Hook
}

func newNamespace(id string, phases Phases, shared map[string]any) *Namespace {
	return &Namespace{
		id:        id,
		phases:    phases,
		shared:    NewSharedContext(shared),
		createdAt: time.Now(),
		hooks:     make([]*Hook, 0),
	}
}

func validateNamespaceID(id string) error {
	if id == "" {
		return ErrEmptyNamespaceID
	}
	if strings.Contains(id, Separator) || strings.Contains(id, Wildcard) {
		return fmt.Errorf("%w: %q", ErrNamespaceIDInvalid, id)
	}
	return nil
}

// ID returns the namespace identifier.
func (n *Namespace) ID() string { return n.id }

// Phases returns the phase ordering.
func (n *Namespace) Phases() Phases { return n.phases }

// DefaultPhase returns the phase used for hooks registered without one.
func (n *Namespace) DefaultPhase() string { return n.phases.Default() }

// Shared returns the namespace's shared context.
func (n *Namespace) Shared() *SharedContext { return n.shared }

// CreatedAt returns when the namespace was created or last replaced.
func (n *Namespace) CreatedAt() time.Time { return n.createdAt }

// AddHook registers fn under pattern. The pattern's namespace segment must be
// this namespace's id. The returned function removes exactly this hook.
func (n *Namespace) AddHook(pattern string, fn HookFunc, opts ...HookOption) (*Hook, UnregisterFunc, error) {
	if fn == nil {
		return nil, nil, ErrNilHookFunc
	}
	p, err := ParsePattern(pattern)
	if err != nil {
		return nil, nil, err
	}
	if p.Namespace != n.id {
		return nil, nil, fmt.Errorf("%w: %q registered on %q", ErrNamespaceMismatch, pattern, n.id)
	}

	cfg := hookConfig{phase: n.phases.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.phase == "" {
		cfg.phase = n.phases.Default()
	}
	if cfg.id == "" {
		cfg.id = newID()
	}

	h := &Hook{
		id:           cfg.id,
		pattern:      p,
		phase:        cfg.phase,
		fn:           fn,
		registeredAt: time.Now(),
	}

	n.mu.Lock()
	n.hooks = append(n.hooks, h)
	sort.SliceStable(n.hooks, func(i, j int) bool {
		return n.phases.Index(n.hooks[i].phase) < n.phases.Index(n.hooks[j].phase)
	})
	n.mu.Unlock()

	var once sync.Once
	return h, func() {
		once.Do(func() { n.removeHook(h) })
	}, nil
}

// removeHook deletes h and nothing else. Reports whether it was present.
func (n *Namespace) removeHook(h *Hook) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	for i, existing := range n.hooks {
		if existing == h {
			hooks := make([]*Hook, 0, len(n.hooks)-1)
			hooks = append(hooks, n.hooks[:i]...)
			hooks = append(hooks, n.hooks[i+1:]...)
			n.hooks = hooks
			return true
		}
	}
	return false
}

// Matches returns the hooks selected by a fired pattern, in execution order.
// The slice is a snapshot; later registrations do not affect it.
func (n *Namespace) Matches(fired Pattern) []*Hook {
	n.mu.RLock()
	defer n.mu.RUnlock()

	matched := make([]*Hook, 0)
	for _, h := range n.hooks {
		if h.pattern.Matches(fired) {
			matched = append(matched, h)
		}
	}
	return matched
}

// HasMatch reports whether any hook is selected by the fired pattern.
func (n *Namespace) HasMatch(fired Pattern) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for _, h := range n.hooks {
		if h.pattern.Matches(fired) {
			return true
		}
	}
	return false
}

// Hooks returns every registered hook in execution order.
func (n *Namespace) Hooks() []HookInfo {
	n.mu.RLock()
	defer n.mu.RUnlock()

	info := make([]HookInfo, len(n.hooks))
	for i, h := range n.hooks {
		info[i] = h.info()
	}
	return info
}

// HookCount returns the number of registered hooks.
func (n *Namespace) HookCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.hooks)
}
