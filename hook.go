package hookbus

import (
	"time"

	"github.com/google/uuid"
)

// HookFunc is the callback run for every fire whose pattern matches the hook.
// The execution context acts as the receiver; args are the fire arguments.
//
// A nil result, including a typed nil pointer such as (*T)(nil), means
// "no value" and leaves the fire's return slot unchanged. Use
// ExecContext.SetReturn to store an explicit nil.
// A result implementing Awaitable is awaited before the dispatcher moves on,
// so synchronous and asynchronous hooks are handled the same way.
type HookFunc func(ec *ExecContext, args ...any) (any, error)

// UnregisterFunc removes a previously registered hook. Calling it more than
// once is a no-op.
type UnregisterFunc func()

// Hook is a registered callback bound to a pattern shape and a phase.
// Hooks are immutable once created and compared by identity.
type Hook struct {
	id           string
	pattern      Pattern
	phase        string
	fn           HookFunc
	registeredAt time.Time
}

// ID returns the unique identifier assigned at registration.
func (h *Hook) ID() string { return h.id }

// Pattern returns the registration pattern, which may contain wildcards.
func (h *Hook) Pattern() Pattern { return h.pattern }

// Phase returns the phase the hook runs in.
func (h *Hook) Phase() string { return h.phase }

// RegisteredAt returns when the hook was added.
func (h *Hook) RegisteredAt() time.Time { return h.registeredAt }

// HookOption configures a single hook registration.
type HookOption func(*hookConfig)

type hookConfig struct {
	phase string
	id    string
}

// WithPhase registers the hook in the named phase instead of the namespace
// default. A phase the namespace does not declare sorts before all declared
// phases.
func WithPhase(phase string) HookOption {
	return func(c *hookConfig) {
		c.phase = phase
	}
}

// WithHookID sets the hook identifier used in logs, events, and errors.
// By default a UUIDv7 is generated.
func WithHookID(id string) HookOption {
	return func(c *hookConfig) {
		c.id = id
	}
}

// HookInfo describes a registered hook for introspection.
type HookInfo struct {
	ID           string    `json:"id"`
	Pattern      string    `json:"pattern"`
	Phase        string    `json:"phase"`
	RegisteredAt time.Time `json:"registeredAt"`
}

func (h *Hook) info() HookInfo {
	return HookInfo{
		ID:           h.id,
		Pattern:      h.pattern.String(),
		Phase:        h.phase,
		RegisteredAt: h.registeredAt,
	}
}

// newID returns a time-ordered UUIDv7, falling back to v4.
func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
