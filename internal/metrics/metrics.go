// Package metrics provides Prometheus metrics for query execution.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Query status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics contains the console's Prometheus collectors.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	queryExecutionsTotal *prometheus.CounterVec
	queryDuration        prometheus.Histogram
	catalogReloadsTotal  prometheus.Counter

	collectors []prometheus.Collector
}

// New creates the metrics and registers them on a fresh registry.
func New() (*Metrics, error) {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates the metrics and registers them on registry.
func NewWithRegistry(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.queryExecutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queryconsole_query_executions_total",
			Help: "Total number of console query executions",
		},
		[]string{"persistence_unit", "status"},
	)

	m.queryDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "queryconsole_query_duration_seconds",
			Help:    "Time taken to count and fetch one result page",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
	)

	m.catalogReloadsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queryconsole_catalog_reloads_total",
			Help: "Total number of persistence unit catalog reloads",
		},
	)

	m.collectors = []prometheus.Collector{
		m.queryExecutionsTotal,
		m.queryDuration,
		m.catalogReloadsTotal,
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors {
		c.Collect(ch)
	}
}

// RecordQuery records one query execution.
func (m *Metrics) RecordQuery(unit string, failed bool, d time.Duration) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if failed {
		status = StatusError
	}
	m.queryExecutionsTotal.WithLabelValues(unit, status).Inc()
	m.queryDuration.Observe(d.Seconds())
}

// RecordCatalogReload counts a catalog reload.
func (m *Metrics) RecordCatalogReload() {
	if m == nil {
		return
	}
	m.catalogReloadsTotal.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
