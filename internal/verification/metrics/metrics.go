package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification workflow.
type Metrics struct {
	// Read-only admission validations by result status
	Validations *prometheus.CounterVec

	// Submissions by method
	Submissions *prometheus.CounterVec

	// Administrator decisions by outcome
	Decisions *prometheus.CounterVec

	// Review latency from submission to decision
	ReviewDuration prometheus.Histogram
}

// New creates a Metrics instance with all workflow metrics registered.
func New() *Metrics {
	return &Metrics{
		Validations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campuslink_verification_validations_total",
			Help: "Total admission validations by result status",
		}, []string{"status"}), // status: the ValidationStatus taxonomy

		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campuslink_verification_submissions_total",
			Help: "Total verification submissions by method",
		}, []string{"method"}), // method: "id_card", "email_otp"

		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "campuslink_verification_decisions_total",
			Help: "Total review decisions by outcome",
		}, []string{"outcome"}), // outcome: "approve", "reject"

		ReviewDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "campuslink_verification_review_duration_hours",
			Help:    "Hours between submission and decision",
			Buckets: []float64{1, 4, 12, 24, 48, 96, 168},
		}),
	}
}

// IncrementValidation records a validation result.
func (m *Metrics) IncrementValidation(status string) {
	if m != nil {
		m.Validations.WithLabelValues(status).Inc()
	}
}

// IncrementSubmission records a submission.
func (m *Metrics) IncrementSubmission(method string) {
	if m != nil {
		m.Submissions.WithLabelValues(method).Inc()
	}
}

// RecordDecision records a decision outcome and its review latency.
func (m *Metrics) RecordDecision(outcome string, reviewHours float64) {
	if m != nil {
		m.Decisions.WithLabelValues(outcome).Inc()
		m.ReviewDuration.Observe(reviewHours)
	}
}
