package pool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks tool-call volume and latency across every configured
// capability server, regardless of dispatch mode.
type Metrics struct {
	// ToolCallsTotal counts dispatched calls.
	// Labels: server, tool, outcome (ok|error)
	ToolCallsTotal *prometheus.CounterVec

	// ToolCallDuration measures end-to-end call latency in seconds.
	// Labels: server, tool
	ToolCallDuration *prometheus.HistogramVec
}

// NewMetrics registers the pool's collectors against reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ToolCallsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "binks_tool_calls_total",
			Help: "Total capability tool calls dispatched by the pool.",
		}, []string{"server", "tool", "outcome"}),
		ToolCallDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "binks_tool_call_duration_seconds",
			Help:    "Capability tool call latency in seconds.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		}, []string{"server", "tool"}),
	}
}
