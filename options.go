package hookbus

import (
	"fmt"
)

// Option represents a functional option for configuring a Dispatcher.
type Option func(*Dispatcher) error

// WithLogger sets the logger used for dispatcher diagnostics.
// *slog.Logger satisfies Logger.
func WithLogger(logger Logger) Option {
	return func(d *Dispatcher) error {
		if logger == nil {
			return ErrLoggerNil
		}
		d.logger = logger
		return nil
	}
}

// WithMetrics records fire and hook counts on m.
func WithMetrics(m *Metrics) Option {
	return func(d *Dispatcher) error {
		d.metrics = m
		return nil
	}
}

// WithSynchronousEvents delivers observer events inline on the emitting
// goroutine instead of spawning one goroutine per observer.
func WithSynchronousEvents() Option {
	return func(d *Dispatcher) error {
		d.syncEvents = true
		return nil
	}
}

// WithObserver registers an observer before any namespace is created, so it
// sees every event.
func WithObserver(observer Observer, eventTypes ...string) Option {
	return func(d *Dispatcher) error {
		return d.RegisterObserver(observer, eventTypes...)
	}
}

// WithConfig applies cfg once the dispatcher is built: synchronous event
// delivery and every declared namespace.
func WithConfig(cfg *Config) Option {
	return func(d *Dispatcher) error {
		if cfg == nil {
			return ErrConfigNil
		}
		if cfg.SynchronousEvents {
			d.syncEvents = true
		}
		if err := d.ApplyConfig(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
		return nil
	}
}
