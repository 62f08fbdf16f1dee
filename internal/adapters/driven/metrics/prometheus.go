// Package metrics exports reformat cache and MCP tool metrics in Prometheus format.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/custodia-labs/promptlens/internal/core/domain"
	"github.com/custodia-labs/promptlens/internal/core/ports/driven"
)

// Ensure PrometheusExporter implements the interface.
var _ driven.FormatObserver = (*PrometheusExporter)(nil)

const namespace = "promptlens"

// Config configures the Prometheus exporter.
type Config struct {
	// Registry to use (if nil, creates a new one).
	Registry *prometheus.Registry

	// LatencyBuckets for the reformat latency histogram, in seconds.
	LatencyBuckets []float64
}

// DefaultConfig returns default Prometheus configuration.
// Reformat calls are LLM round trips, so buckets run to the 90s timeout.
func DefaultConfig() Config {
	return Config{
		LatencyBuckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30, 60, 90},
	}
}

// PrometheusExporter records reformat cache and tool activity.
type PrometheusExporter struct {
	registry *prometheus.Registry

	formatRequests  *prometheus.CounterVec
	formatCompleted *prometheus.CounterVec
	formatLatency   prometheus.Histogram

	toolCalls *prometheus.CounterVec
}

// NewPrometheusExporter creates a new Prometheus metrics exporter.
func NewPrometheusExporter(cfg Config) *PrometheusExporter {
	if len(cfg.LatencyBuckets) == 0 {
		cfg.LatencyBuckets = DefaultConfig().LatencyBuckets
	}

	registry := cfg.Registry
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	e := &PrometheusExporter{registry: registry}

	e.formatRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "format",
			Name:      "requests_total",
			Help:      "Reformat requests by cache result",
		},
		[]string{"cache"},
	)

	e.formatCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "format",
			Name:      "calls_total",
			Help:      "External reformat calls by outcome",
		},
		[]string{"status"},
	)

	e.formatLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "format",
			Name:      "call_duration_seconds",
			Help:      "External reformat call latency in seconds",
			Buckets:   cfg.LatencyBuckets,
		},
	)

	e.toolCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "mcp",
			Name:      "tool_calls_total",
			Help:      "MCP tool calls by tool and status",
		},
		[]string{"tool", "status"},
	)

	registry.MustRegister(e.formatRequests, e.formatCompleted, e.formatLatency, e.toolCalls)
	return e
}

// FormatRequested records a cache lookup.
func (e *PrometheusExporter) FormatRequested(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	e.formatRequests.WithLabelValues(result).Inc()
}

// FormatCompleted records the outcome and latency of an external call.
func (e *PrometheusExporter) FormatCompleted(status domain.FormatStatus, seconds float64) {
	e.formatCompleted.WithLabelValues(string(status)).Inc()
	e.formatLatency.Observe(seconds)
}

// ToolCalled records one MCP tool invocation.
func (e *PrometheusExporter) ToolCalled(tool string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	e.toolCalls.WithLabelValues(tool, status).Inc()
}

// Registry returns the underlying registry.
func (e *PrometheusExporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns the /metrics HTTP handler.
func (e *PrometheusExporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}
