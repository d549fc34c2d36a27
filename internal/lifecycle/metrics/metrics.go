package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the lifecycle sweep.
type Metrics struct {
	// Completed sweep runs
	Sweeps prometheus.Counter

	// Per-principal sweep actions by kind
	Actions *prometheus.CounterVec

	// Per-principal sweep failures by phase
	Errors *prometheus.CounterVec
}

// New creates a Metrics instance with all lifecycle metrics registered.
func New() *Metrics {
	return &Metrics{
		Sweeps: promauto.NewCounter(prometheus.CounterOpts{
			Name: "campuslink_lifecycle_sweeps_total",
			Help: "Total completed lifecycle sweep runs",
		}),

		Actions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campuslink_lifecycle_actions_total",
			Help: "Total lifecycle sweep actions by kind",
		}, []string{"kind"}), // kind: "deactivated", "warned", "extended"

		Errors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campuslink_lifecycle_errors_total",
			Help: "Total per-principal sweep failures by phase",
		}, []string{"phase"}), // phase: "deactivate", "warn"
	}
}

// IncrementSweep records a completed sweep run.
func (m *Metrics) IncrementSweep() {
	if m != nil {
		m.Sweeps.Inc()
	}
}

// IncrementAction records one sweep action.
func (m *Metrics) IncrementAction(kind string) {
	if m != nil {
		m.Actions.WithLabelValues(kind).Inc()
	}
}

// IncrementError records one per-principal failure.
func (m *Metrics) IncrementError(phase string) {
	if m != nil {
		m.Errors.WithLabelValues(phase).Inc()
	}
}
