package metrics

import "github.com/prometheus/client_golang/prometheus"

// Transition outcomes.
const (
	OutcomeAdvanced  = "advanced"
	OutcomeRejected  = "rejected"
	OutcomeRetreated = "retreated"
	OutcomeJumped    = "jumped"
	OutcomeLocked    = "locked"
	OutcomeReset     = "reset"
)

// WizardMetrics exposes counters/histograms for wizard flows.
type WizardMetrics struct {
	transitionsTotal  *prometheus.CounterVec
	submissionsTotal  *prometheus.CounterVec
	submissionLatency *prometheus.HistogramVec
}

func NewWizardMetrics(reg prometheus.Registerer) *WizardMetrics {
	m := &WizardMetrics{
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "echannelling",
			Subsystem: "wizard",
			Name:      "transitions_total",
			Help:      "Wizard step transitions by outcome",
		}, []string{"wizard", "step", "outcome"}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "echannelling",
			Subsystem: "wizard",
			Name:      "submissions_total",
			Help:      "Wizard submissions by status",
		}, []string{"wizard", "status"}),
		submissionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "echannelling",
			Subsystem: "wizard",
			Name:      "submission_seconds",
			Help:      "Latency of the submission collaborator",
			Buckets:   prometheus.DefBuckets,
		}, []string{"wizard"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.transitionsTotal, m.submissionsTotal, m.submissionLatency)
	return m
}

// ObserveTransition counts one step move attempt; outcome is one of the
// Outcome constants. A nil receiver is a no-op.
func (m *WizardMetrics) ObserveTransition(wizard, step, outcome string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(wizard, step, outcome).Inc()
}

// ObserveSubmission counts a submit attempt by status ("success", "failed",
// "invalid") and records its latency. Negative seconds skip the histogram.
func (m *WizardMetrics) ObserveSubmission(wizard, status string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(wizard, status).Inc()
	if seconds >= 0 {
		m.submissionLatency.WithLabelValues(wizard).Observe(seconds)
	}
}
