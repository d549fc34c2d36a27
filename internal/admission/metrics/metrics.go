package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the admission registry.
type Metrics struct {
	// Claim attempts by outcome
	Claims *prometheus.CounterVec

	// Bulk import record results
	ImportRecords *prometheus.CounterVec
}

// New creates a Metrics instance with all registry metrics registered.
func New() *Metrics {
	return &Metrics{
		Claims: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campuslink_admission_claims_total",
			Help: "Total admission claim attempts by outcome",
		}, []string{"outcome"}), // outcome: "won", "lost", "not_found"

		ImportRecords: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campuslink_admission_import_records_total",
			Help: "Total bulk-imported admission records by result",
		}, []string{"result"}), // result: "ok", "failed"
	}
}

// IncrementClaim records a claim attempt outcome.
func (m *Metrics) IncrementClaim(outcome string) {
	if m != nil {
		m.Claims.WithLabelValues(outcome).Inc()
	}
}

// AddImportResults records bulk import counts.
func (m *Metrics) AddImportResults(ok, failed int) {
	if m != nil {
		m.ImportRecords.WithLabelValues("ok").Add(float64(ok))
		m.ImportRecords.WithLabelValues("failed").Add(float64(failed))
	}
}
