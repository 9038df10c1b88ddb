package hookbus

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// testLogger records log entries for assertions.
type testLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level string
	msg   string
	args  []any
}

func (l *testLogger) record(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg, args: args})
}

func (l *testLogger) Info(msg string, args ...any)  { l.record("info", msg, args) }
func (l *testLogger) Error(msg string, args ...any) { l.record("error", msg, args) }
func (l *testLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args) }
func (l *testLogger) Debug(msg string, args ...any) { l.record("debug", msg, args) }

func (l *testLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level == level && e.msg == msg {
			return true
		}
	}
	return false
}

// callOrder collects hook labels in invocation order.
type callOrder struct {
	mu    sync.Mutex
	calls []string
}

func (c *callOrder) hook(label string) HookFunc {
	return func(ec *ExecContext, args ...any) (any, error) {
		c.mu.Lock()
		c.calls = append(c.calls, label)
		c.mu.Unlock()
		return nil, nil
	}
}

func (c *callOrder) list() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

func returning(v any) HookFunc {
	return func(ec *ExecContext, args ...any) (any, error) {
		return v, nil
	}
}

func newTestDispatcher(t *testing.T, opts ...Option) *Dispatcher {
	t.Helper()
	d, err := New(opts...)
	require.NoError(t, err)
	return d
}

// mustAddHook registers a hook and fails the test on error.
func mustAddHook(t *testing.T, d *Dispatcher, pattern string, fn HookFunc, opts ...HookOption) UnregisterFunc {
	t.Helper()
	unregister, err := d.AddHook(pattern, fn, opts...)
	require.NoError(t, err, fmt.Sprintf("AddHook(%q)", pattern))
	return unregister
}
