// Package metrics defines the gateway's Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry     *prometheus.Registry
	toolCalls    *prometheus.CounterVec
	toolDuration *prometheus.HistogramVec
	llmCalls     *prometheus.CounterVec
	llmDuration  *prometheus.HistogramVec
	previews     *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_tool_calls_total",
				Help: "Total number of tool executions by outcome",
			},
			[]string{"tool", "outcome"},
		),
		toolDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_tool_duration_seconds",
				Help:    "Duration of tool executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool"},
		),
		llmCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_llm_calls_total",
				Help: "Total number of language model calls by phase and outcome",
			},
			[]string{"provider", "phase", "outcome"},
		),
		llmDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_llm_duration_seconds",
				Help:    "Duration of language model calls",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 80},
			},
			[]string{"provider", "phase"},
		),
		previews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_preview_requests_total",
				Help: "Total number of preview requests by HTTP status",
			},
			[]string{"status"},
		),
	}
	m.registry.MustRegister(
		m.toolCalls, m.toolDuration, m.llmCalls, m.llmDuration, m.previews,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

func (m *Metrics) ObserveTool(tool string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, outcome(ok)).Inc()
	m.toolDuration.WithLabelValues(tool).Observe(d.Seconds())
}

func (m *Metrics) ObserveLLM(provider, phase string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	m.llmCalls.WithLabelValues(provider, phase, outcome(ok)).Inc()
	m.llmDuration.WithLabelValues(provider, phase).Observe(d.Seconds())
}

func (m *Metrics) ObservePreview(status int) {
	if m == nil {
		return
	}
	m.previews.WithLabelValues(strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
