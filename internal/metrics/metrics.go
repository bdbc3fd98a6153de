// Package metrics provides Prometheus metrics for jsonhash.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all collectors on a private registry. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	QueriesTotal          *prometheus.CounterVec
	QueryDuration         *prometheus.HistogramVec
	MatchesTotal          *prometheus.CounterVec
	ProjectionMissesTotal *prometheus.CounterVec
	SessionsTotal         prometheus.Counter
	RecordEntries         prometheus.Gauge

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// New creates and registers all metrics.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		QueriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsonhash_queries_total",
				Help: "Total number of query operations",
			},
			[]string{"operation", "status"},
		),
		QueryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jsonhash_query_duration_seconds",
				Help:    "Duration of query operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		MatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsonhash_matches_total",
				Help: "Total number of paths returned by query operations",
			},
			[]string{"operation"},
		),
		ProjectionMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsonhash_projection_misses_total",
				Help: "Projected paths not present in the flat record",
			},
			[]string{"field"},
		),
		SessionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "jsonhash_sessions_total",
				Help: "Total number of query sessions opened",
			},
		),
		RecordEntries: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "jsonhash_record_entries",
				Help: "Number of entries in the loaded flat record",
			},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jsonhash_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"route", "code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jsonhash_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// Registry exposes the registry backing these metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveQuery records one query operation.
func (m *Metrics) ObserveQuery(operation string, duration time.Duration, matches int, err error) {
	if m == nil {
		return
	}

	status := "success"
	if err != nil {
		status = "error"
	}

	m.QueriesTotal.WithLabelValues(operation, status).Inc()
	m.QueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
	m.MatchesTotal.WithLabelValues(operation).Add(float64(matches))
}

func (m *Metrics) ObserveProjectionMiss(field string) {
	if m == nil {
		return
	}
	m.ProjectionMissesTotal.WithLabelValues(field).Inc()
}

func (m *Metrics) ObserveSession() {
	if m == nil {
		return
	}
	m.SessionsTotal.Inc()
}

func (m *Metrics) SetRecordEntries(n int) {
	if m == nil {
		return
	}
	m.RecordEntries.Set(float64(n))
}

func (m *Metrics) ObserveHTTP(route string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPRequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}
