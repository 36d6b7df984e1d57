// Package metric exposes runtime counters over prometheus.
package metric

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine-level prometheus collectors.
type Metrics struct {
	registry *prometheus.Registry

	EventsDispatched  *prometheus.CounterVec
	WorkflowsExecuted *prometheus.CounterVec
	ExecutorFailures  prometheus.Counter
	FilesUploaded     *prometheus.CounterVec
	IndexRebuilds     prometheus.Counter
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		EventsDispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "canvasflow",
				Subsystem: "dispatch",
				Name:      "events_total",
				Help:      "UI events received, by event type and match outcome",
			},
			[]string{"event_type", "matched"},
		),
		WorkflowsExecuted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "canvasflow",
				Subsystem: "engine",
				Name:      "workflows_executed_total",
				Help:      "Workflow invocations, by outcome",
			},
			[]string{"status"},
		),
		ExecutorFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "canvasflow",
				Subsystem: "engine",
				Name:      "executor_failures_total",
				Help:      "Step executor calls that failed or returned non-OK",
			},
		),
		FilesUploaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "canvasflow",
				Subsystem: "engine",
				Name:      "files_uploaded_total",
				Help:      "Media uploads, by outcome",
			},
			[]string{"status"},
		),
		IndexRebuilds: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "canvasflow",
				Subsystem: "trigger",
				Name:      "index_rebuilds_total",
				Help:      "Trigger index rebuilds",
			},
		),
	}
	m.registry.MustRegister(
		m.EventsDispatched,
		m.WorkflowsExecuted,
		m.ExecutorFailures,
		m.FilesUploaded,
		m.IndexRebuilds,
	)
	return m
}

// Handler serves the registry in prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
