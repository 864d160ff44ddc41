// Package metrics provides Prometheus metrics for workflow runs.
//
// Runs are one-shot processes, so the registry is written to a node_exporter
// textfile at the end of a run rather than served.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for a run. A nil *Metrics records
// nothing.
type Metrics struct {
	AgentTurns        *prometheus.CounterVec
	StateTransitions  *prometheus.CounterVec
	ModelCallDuration *prometheus.HistogramVec
	ModelCallErrors   *prometheus.CounterVec
	ProbeResults      *prometheus.CounterVec
	BuildAttempts     *prometheus.CounterVec

	registry *prometheus.Registry
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		AgentTurns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "acadia_agent_turns_total",
				Help: "Agent executions by role and outcome.",
			},
			[]string{"role", "outcome"},
		),
		StateTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "acadia_state_transitions_total",
				Help: "Agent state transitions by role.",
			},
			[]string{"role", "from", "to"},
		),
		ModelCallDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "acadia_model_call_duration_seconds",
				Help:    "Duration of individual model calls by model choice.",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"model"},
		),
		ModelCallErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "acadia_model_call_errors_total",
				Help: "Model invocations that failed after all retries.",
			},
			[]string{"model"},
		),
		ProbeResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "acadia_url_probes_total",
				Help: "External URL probes by result.",
			},
			[]string{"result"},
		),
		BuildAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "acadia_build_attempts_total",
				Help: "Build checks of generated code by role and result.",
			},
			[]string{"role", "result"},
		),
		registry: reg,
	}

	reg.MustRegister(m.AgentTurns)
	reg.MustRegister(m.StateTransitions)
	reg.MustRegister(m.ModelCallDuration)
	reg.MustRegister(m.ModelCallErrors)
	reg.MustRegister(m.ProbeResults)
	reg.MustRegister(m.BuildAttempts)

	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordAgentTurn(role, outcome string) {
	if m == nil {
		return
	}
	m.AgentTurns.WithLabelValues(role, outcome).Inc()
}

func (m *Metrics) RecordTransition(role, from, to string) {
	if m == nil {
		return
	}
	m.StateTransitions.WithLabelValues(role, from, to).Inc()
}

func (m *Metrics) ObserveModelCall(model string, d time.Duration) {
	if m == nil {
		return
	}
	m.ModelCallDuration.WithLabelValues(model).Observe(d.Seconds())
}

func (m *Metrics) RecordModelError(model string) {
	if m == nil {
		return
	}
	m.ModelCallErrors.WithLabelValues(model).Inc()
}

// RecordProbe counts a URL probe as "ok" or "failed".
func (m *Metrics) RecordProbe(ok bool) {
	if m == nil {
		return
	}
	result := "failed"
	if ok {
		result = "ok"
	}
	m.ProbeResults.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordBuild(role string, passed bool) {
	if m == nil {
		return
	}
	result := "failed"
	if passed {
		result = "passed"
	}
	m.BuildAttempts.WithLabelValues(role, result).Inc()
}

// WriteTextfile dumps the registry in the text exposition format. An empty
// path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
