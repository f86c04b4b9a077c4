// Package metrics provides Prometheus metrics for the build pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for a pipeline run.
type Metrics struct {
	AgentRunsTotal     *prometheus.CounterVec
	AgentDuration      *prometheus.HistogramVec
	AICallsTotal       *prometheus.CounterVec
	BuildAttemptsTotal *prometheus.CounterVec
	ProbesTotal        *prometheus.CounterVec
	BugCount           prometheus.Gauge

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		AgentRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_agent_runs_total",
				Help: "Total agent executions by role and outcome.",
			},
			[]string{"role", "status"},
		),
		AgentDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "forge_agent_duration_seconds",
				Help:    "Agent execution duration by role.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"role"},
		),
		AICallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_ai_calls_total",
				Help: "Prompted-function calls by function and outcome.",
			},
			[]string{"function", "status"},
		),
		BuildAttemptsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_build_attempts_total",
				Help: "Builds of the generated project by result.",
			},
			[]string{"result"},
		),
		ProbesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "forge_endpoint_probes_total",
				Help: "Endpoint probes against the generated server by result.",
			},
			[]string{"result"},
		),
		BugCount: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "forge_backend_bug_count",
				Help: "Consecutive failed builds of the current backend draft.",
			},
		),
		registry: reg,
	}

	reg.MustRegister(m.AgentRunsTotal)
	reg.MustRegister(m.AgentDuration)
	reg.MustRegister(m.AICallsTotal)
	reg.MustRegister(m.BuildAttemptsTotal)
	reg.MustRegister(m.ProbesTotal)
	reg.MustRegister(m.BugCount)

	return m
}

// Handler returns an http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordAgentRun counts an agent execution and its duration.
func (m *Metrics) RecordAgentRun(role, status string, seconds float64) {
	if m == nil {
		return
	}
	m.AgentRunsTotal.WithLabelValues(role, status).Inc()
	m.AgentDuration.WithLabelValues(role).Observe(seconds)
}

// RecordAICall counts a prompted-function call.
func (m *Metrics) RecordAICall(function, status string) {
	if m == nil {
		return
	}
	m.AICallsTotal.WithLabelValues(function, status).Inc()
}

// RecordBuild counts a build attempt and tracks the bug counter.
func (m *Metrics) RecordBuild(result string, bugCount int) {
	if m == nil {
		return
	}
	m.BuildAttemptsTotal.WithLabelValues(result).Inc()
	m.BugCount.Set(float64(bugCount))
}

// RecordProbe counts an endpoint probe.
func (m *Metrics) RecordProbe(result string) {
	if m == nil {
		return
	}
	m.ProbesTotal.WithLabelValues(result).Inc()
}
