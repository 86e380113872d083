// Package metrics wires prometheus instrumentation around workflow
// invocations. The serve adapter exposes these at /metrics; the CLI does
// not register them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/fathom/pkg/classify"
)

// Metrics holds the collectors for the research loop.
type Metrics struct {
	Invocations *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
	Rounds      prometheus.Counter
	Sessions    prometheus.Counter
}

// New creates unregistered collectors.
func New() *Metrics {
	return &Metrics{
		Invocations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fathom_workflow_invocations_total",
				Help: "Workflow invocations by classified outcome.",
			},
			[]string{"outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "fathom_workflow_invoke_seconds",
				Help: "Wall time of workflow invocations.",
				// Research runs span seconds to many minutes.
				Buckets: []float64{1, 5, 15, 60, 180, 600, 1800},
			},
			[]string{"outcome"},
		),
		Rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fathom_clarification_rounds_total",
			Help: "Clarification rounds started across all sessions.",
		}),
		Sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fathom_sessions_created_total",
			Help: "Web sessions created.",
		}),
	}
}

// MustRegister registers all collectors on reg.
func (m *Metrics) MustRegister(reg prometheus.Registerer) *Metrics {
	reg.MustRegister(m.Invocations, m.Duration, m.Rounds, m.Sessions)
	return m
}

// ObserveInvocation records one classified invocation. Satisfies
// driver.InvokeObserver.
func (m *Metrics) ObserveInvocation(outcome classify.Outcome, elapsed time.Duration) {
	label := outcome.String()
	m.Invocations.WithLabelValues(label).Inc()
	m.Duration.WithLabelValues(label).Observe(elapsed.Seconds())
}
