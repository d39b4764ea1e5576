// Package metrics exposes prometheus collectors for analysis runs on a
// private registry. A nil *Metrics records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes.
const (
	OutcomeOK         = "ok"
	OutcomeFetchError = "fetch_error"
	OutcomeCanceled   = "canceled"
)

// Metrics holds the engine collectors.
type Metrics struct {
	registry *prometheus.Registry

	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	signals  *prometheus.CounterVec
	dropped  *prometheus.CounterVec
}

// New registers the collectors plus the Go runtime and process collectors.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		registry: registry,

		runs: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "flaretrack_analysis_runs_total",
				Help: "Analysis runs by outcome",
			},
			[]string{"outcome"},
		),

		duration: promauto.With(registry).NewHistogram(
			prometheus.HistogramOpts{
				Name:    "flaretrack_analysis_duration_seconds",
				Help:    "Wall time of one analysis run including the store fetch",
				Buckets: prometheus.DefBuckets,
			},
		),

		signals: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "flaretrack_adr_signals_total",
				Help: "ADR signals emitted by risk level",
			},
			[]string{"risk_level"},
		),

		dropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "flaretrack_ingest_dropped_total",
				Help: "Malformed records dropped during ingestion by kind",
			},
			[]string{"kind"},
		),
	}
}

// ObserveRun records one finished run.
func (m *Metrics) ObserveRun(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.duration.Observe(elapsed.Seconds())
}

// AddSignals counts emitted signals at one risk level.
func (m *Metrics) AddSignals(riskLevel string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.signals.WithLabelValues(riskLevel).Add(float64(n))
}

// AddDropped counts records dropped during ingestion.
func (m *Metrics) AddDropped(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.dropped.WithLabelValues(kind).Add(float64(n))
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}
