// Package metrics exposes download outcomes as Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const prefix = "sensorfor_"

// Download outcome labels.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Metrics holds the downloader's collectors. Each instance owns its
// registry so that tests and multiple runners never collide.
type Metrics struct {
	registry *prometheus.Registry

	recordsFetched *prometheus.CounterVec
	recordsNew     *prometheus.CounterVec
	downloads      *prometheus.CounterVec
	lastRun        prometheus.Gauge
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		recordsFetched: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "records_fetched_total",
				Help: "Number of records returned by the measurement API",
			},
			[]string{"alias"},
		),
		recordsNew: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "records_new_total",
				Help: "Number of measurements stored for the first time",
			},
			[]string{"alias"},
		),
		downloads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "downloads_total",
				Help: "Number of per-device downloads by outcome",
			},
			[]string{"alias", "status"},
		),
		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: prefix + "last_run_timestamp_seconds",
				Help: "Unix time at which the last download cycle finished",
			},
		),
	}
}

// RecordDownload records the outcome of one device in one cycle.
func (m *Metrics) RecordDownload(alias string, fetched, newCount int, ok bool) {
	if m == nil {
		return
	}
	status := StatusOK
	if !ok {
		status = StatusError
	}
	m.recordsFetched.WithLabelValues(alias).Add(float64(fetched))
	m.recordsNew.WithLabelValues(alias).Add(float64(newCount))
	m.downloads.WithLabelValues(alias, status).Inc()
}

// RecordCycle marks the end of a download cycle.
func (m *Metrics) RecordCycle(at time.Time) {
	if m == nil {
		return
	}
	m.lastRun.Set(float64(at.Unix()))
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
