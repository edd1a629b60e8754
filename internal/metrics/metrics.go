// Package metrics holds the Prometheus collectors for the contrast checker.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics.
//
// A nil *Metrics is valid and records nothing, so components can be used
// without a registry (tests, the check command).
type Metrics struct {
	ToolCallsTotal      *prometheus.CounterVec
	ToolDurationSeconds *prometheus.HistogramVec
	PairsTotal          *prometheus.CounterVec
	SuggestionsTotal    *prometheus.CounterVec
	SourceLoadsTotal    *prometheus.CounterVec
}

// New creates a Metrics instance with every collector registered on registry.
func New(registry *prometheus.Registry) *Metrics {
	return &Metrics{
		ToolCallsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "contrast_mcp_tool_calls_total",
				Help: "Total number of MCP tool calls by tool and status",
			},
			[]string{"tool", "status"}, // status: success, error
		),

		ToolDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "contrast_mcp_tool_duration_seconds",
				Help:    "MCP tool call duration in seconds by tool",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"tool"},
		),

		PairsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "contrast_mcp_pairs_total",
				Help: "Color pairs analyzed by outcome",
			},
			[]string{"result"}, // result: pass, fail, skipped
		),

		SuggestionsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "contrast_mcp_suggestions_total",
				Help: "Accepted color suggestions by strategy",
			},
			[]string{"strategy"},
		),

		SourceLoadsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "contrast_mcp_source_loads_total",
				Help: "Image source loads by kind and status",
			},
			[]string{"kind", "status"}, // kind: url, data_url, path, base64
		),
	}
}

// RecordToolCall records one tool invocation.
func (m *Metrics) RecordToolCall(tool string, err error, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.ToolCallsTotal.WithLabelValues(tool, status).Inc()
	m.ToolDurationSeconds.WithLabelValues(tool).Observe(d.Seconds())
}

// RecordPair records the pass/fail outcome of an analyzed pair.
func (m *Metrics) RecordPair(passed bool) {
	if m == nil {
		return
	}
	result := "fail"
	if passed {
		result = "pass"
	}
	m.PairsTotal.WithLabelValues(result).Inc()
}

// RecordSkipped records a pair dropped for malformed input.
func (m *Metrics) RecordSkipped() {
	if m == nil {
		return
	}
	m.PairsTotal.WithLabelValues("skipped").Inc()
}

// RecordSuggestion records an accepted suggestion.
func (m *Metrics) RecordSuggestion(strategy string) {
	if m == nil {
		return
	}
	m.SuggestionsTotal.WithLabelValues(strategy).Inc()
}

// RecordSourceLoad records an image source load attempt.
func (m *Metrics) RecordSourceLoad(kind string, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.SourceLoadsTotal.WithLabelValues(kind, status).Inc()
}
