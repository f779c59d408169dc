package repair

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fyrsmithlabs/posturefix/internal/bootparam"
)

// Result label values for executions that did not fail.
const resultSuccess = "success"

// Action label values for executions that never resolved to an action.
const (
	actionUnknown = "unknown"
	actionNone    = "none"
)

// Metrics holds the Prometheus collectors for repairs and tool invocations.
type Metrics struct {
	// Executions counts repair executions.
	// Labels: action, mode (do, undo), result (success or a Kind)
	Executions *prometheus.CounterVec

	// Duration tracks how long resolved repairs take.
	// Labels: action, mode
	Duration *prometheus.HistogramVec

	// ToolInvocations counts boot parameter tool runs.
	// Labels: op (query, add, remove), result (success, error)
	ToolInvocations *prometheus.CounterVec

	// ToolDuration tracks boot parameter tool run time.
	// Labels: op
	ToolDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "posturefix",
				Subsystem: "repair",
				Name:      "executions_total",
				Help:      "Total number of repair executions by outcome",
			},
			[]string{"action", "mode", "result"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "posturefix",
				Subsystem: "repair",
				Name:      "duration_seconds",
				Help:      "Duration of repair executions in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"action", "mode"},
		),
		ToolInvocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "posturefix",
				Subsystem: "bootparam",
				Name:      "invocations_total",
				Help:      "Total number of boot parameter tool invocations",
			},
			[]string{"op", "result"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "posturefix",
				Subsystem: "bootparam",
				Name:      "invocation_duration_seconds",
				Help:      "Duration of boot parameter tool invocations in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"op"},
		),
	}
}

// ObserveTool records a tool invocation. It matches bootparam.InvocationHook.
func (m *Metrics) ObserveTool(op bootparam.Op, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = "error"
	}
	m.ToolInvocations.WithLabelValues(string(op), result).Inc()
	m.ToolDuration.WithLabelValues(string(op)).Observe(d.Seconds())
}

func (m *Metrics) observe(action string, mode Mode, err error) {
	if m == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = string(KindOf(err))
	}
	m.Executions.WithLabelValues(action, mode.String(), result).Inc()
}

func (m *Metrics) observeDuration(action string, mode Mode, d time.Duration) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(action, mode.String()).Observe(d.Seconds())
}
