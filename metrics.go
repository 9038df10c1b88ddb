package hookbus

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors a Dispatcher reports to.
// Labels are limited to namespace, phase, and outcome; patterns and fire ids
// are never used as labels.
type Metrics struct {
	FiresTotal      *prometheus.CounterVec
	HookInvocations *prometheus.CounterVec
	FireDuration    *prometheus.HistogramVec
}

// NewMetrics creates the dispatcher collectors and registers them on reg.
// Pass prometheus.NewRegistry() in tests to keep dispatchers independent.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		FiresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hookbus_fires_total",
			Help: "Total number of fires, by namespace and outcome (completed/stopped/failed).",
		}, []string{"namespace", "outcome"}),
		HookInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hookbus_hook_invocations_total",
			Help: "Total number of hook invocations, by namespace and phase.",
		}, []string{"namespace", "phase"}),
		FireDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hookbus_fire_duration_seconds",
			Help:    "Wall time of a fire from match to resolution, by namespace.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"namespace"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.FiresTotal, m.HookInvocations, m.FireDuration} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("failed to register hookbus metrics: %w", err)
			}
		}
	}
	return m, nil
}

func (m *Metrics) observeFire(namespace, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.FiresTotal.WithLabelValues(namespace, outcome).Inc()
	m.FireDuration.WithLabelValues(namespace).Observe(elapsed.Seconds())
}

func (m *Metrics) observeHook(namespace, phase string) {
	if m == nil {
		return
	}
	m.HookInvocations.WithLabelValues(namespace, phase).Inc()
}
