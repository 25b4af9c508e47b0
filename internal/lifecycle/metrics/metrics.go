package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for case lifecycle handling.
type Metrics struct {
	// Command handling outcomes by command name and result
	CommandOutcome *prometheus.CounterVec

	// Validation problems raised, by category
	ValidationProblems *prometheus.CounterVec

	// Resolver decisions by outcome
	ResolverOutcome *prometheus.CounterVec

	// End-to-end command handling latency by command name
	HandleLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all lifecycle metrics registered.
func New() *Metrics {
	return &Metrics{
		CommandOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_lifecycle_commands_total",
			Help: "Total lifecycle commands by command name and result",
		}, []string{"command", "result"}), // result: "applied", "conflict", "invalid", "error"

		ValidationProblems: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_validation_problems_total",
			Help: "Total validation problems raised by category",
		}, []string{"category"}),

		ResolverOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "caseflow_resolver_decisions_total",
			Help: "Total dedup resolver decisions by outcome",
		}, []string{"outcome"}),

		HandleLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "caseflow_lifecycle_handle_duration_seconds",
			Help:    "Duration of lifecycle command handling including validation and persistence",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"command"}),
	}
}

// IncrementCommand records a command handling result.
func (m *Metrics) IncrementCommand(command, result string) {
	if m != nil {
		m.CommandOutcome.WithLabelValues(command, result).Inc()
	}
}

// IncrementProblems records raised validation problems by category.
func (m *Metrics) IncrementProblems(category string, n int) {
	if m != nil && n > 0 {
		m.ValidationProblems.WithLabelValues(category).Add(float64(n))
	}
}

// IncrementResolverOutcome records one resolver decision.
func (m *Metrics) IncrementResolverOutcome(outcome string) {
	if m != nil {
		m.ResolverOutcome.WithLabelValues(outcome).Inc()
	}
}

// ObserveHandleLatency records the duration of one command handling pass.
func (m *Metrics) ObserveHandleLatency(command string, d time.Duration) {
	if m != nil {
		m.HandleLatency.WithLabelValues(command).Observe(d.Seconds())
	}
}
