package hookbus

// Logger defines the interface for dispatcher logging.
// hookbus uses structured logging with key-value pairs so the host application
// controls how dispatcher logs appear:
//
//	logger.Info("Namespace created", "namespace", "sys", "phases", []string{"pre", "main", "post"})
//
// *slog.Logger satisfies this interface directly, as do thin adapters over
// logrus, zap, and similar libraries.
type Logger interface {
	// Info logs an informational message such as namespace creation.
	Info(msg string, args ...any)

	// Error logs an error message, for example a failed fire.
	Error(msg string, args ...any)

	// Warn logs conditions that are unusual but don't prevent dispatching,
	// such as a hook registered under an undeclared phase.
	Warn(msg string, args ...any)

	// Debug logs detailed diagnostic information such as per-hook invocation.
	Debug(msg string, args ...any)
}

// NopLogger discards everything. It is the default when no logger is configured.
type NopLogger struct{}

func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Debug(string, ...any) {}
