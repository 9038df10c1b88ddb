package hookbus

import (
	"errors"
	"fmt"
)

// Dispatcher errors
var (
	// Pattern errors
	ErrPatternMalformed = errors.New("pattern malformed")

	// Namespace errors
	ErrNamespaceNotFound  = errors.New("namespace not found")
	ErrNamespaceMismatch  = errors.New("pattern namespace does not match owning namespace")
	ErrEmptyNamespaceID   = errors.New("namespace id is empty")
	ErrNamespaceIDInvalid = errors.New("namespace id must not contain '.' or '*'")

	// Phase errors
	ErrNoDefaultPhase        = errors.New("no default phase")
	ErrMultipleDefaultPhases = errors.New("more than one phase marked as default")
	ErrInvalidPhase          = errors.New("invalid phase name")

	// Hook errors
	ErrNilHookFunc    = errors.New("hook function is nil")
	ErrHookInvocation = errors.New("hook invocation failed")
	ErrHookPanicked   = errors.New("hook panicked")

	// Setup errors
	ErrLoggerNil   = errors.New("logger is nil")
	ErrConfigNil   = errors.New("config is nil")
	ErrObserverNil = errors.New("observer is nil")
)

// HookInvocationError reports a hook that returned an error, panicked, or whose
// awaitable result was rejected. It unwraps to the original cause and matches
// ErrHookInvocation with errors.Is.
type HookInvocationError struct {
	Pattern string
	Phase   string
	HookID  string
	Cause   error
}

func (e *HookInvocationError) Error() string {
	return fmt.Sprintf("hook %s (%s, phase %q) failed: %v", e.HookID, e.Pattern, e.Phase, e.Cause)
}

func (e *HookInvocationError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is(err, ErrHookInvocation) succeed for any invocation failure.
func (e *HookInvocationError) Is(target error) bool {
	return target == ErrHookInvocation
}
