// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/weather-telemetry/internal/weather"
)

const namespace = "weather_telemetry"

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	entities *prometheus.GaugeVec
	orphans  *prometheus.GaugeVec
	audits   *prometheus.CounterVec
}

// New registers all collectors plus the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "documents",
			Help:      "Documents per collection at the last audit.",
		}, []string{"collection"}),
		orphans: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orphan_documents",
			Help:      "Documents whose parent no longer exists, at the last audit.",
		}, []string{"collection"}),
		audits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_runs_total",
			Help:      "Orphan audit runs by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.requests, m.duration, m.entities, m.orphans, m.audits,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// RecordAudit publishes an audit report.
func (m *Metrics) RecordAudit(rep weather.AuditReport) {
	m.entities.WithLabelValues(weather.CountriesCollection).Set(float64(rep.Countries))
	m.entities.WithLabelValues(weather.CitiesCollection).Set(float64(rep.Cities))
	m.entities.WithLabelValues(weather.ReadingsCollection).Set(float64(rep.Readings))
	m.orphans.WithLabelValues(weather.CitiesCollection).Set(float64(rep.OrphanCities))
	m.orphans.WithLabelValues(weather.ReadingsCollection).Set(float64(rep.OrphanReadings))
	m.audits.WithLabelValues("ok").Inc()
}

// RecordAuditFailure counts a failed audit run.
func (m *Metrics) RecordAuditFailure() {
	m.audits.WithLabelValues("error").Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
