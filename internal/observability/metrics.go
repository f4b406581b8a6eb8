package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec
	fetches         *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	templateEvents  *prometheus.CounterVec
	snapshotRuns    *prometheus.CounterVec
}

// NewMetrics registers every collector.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_desk_http_requests_total",
			Help: "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studio_desk_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_desk_http_errors_total",
			Help: "Error envelopes rendered by code",
		}, []string{"route", "method", "code"}),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_desk_backend_fetches_total",
			Help: "Backend fetch attempts by resource and outcome",
		}, []string{"resource", "outcome"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "studio_desk_backend_fetch_duration_seconds",
			Help:    "Backend fetch latency including retries",
			Buckets: prometheus.DefBuckets,
		}, []string{"resource"}),
		templateEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_desk_template_events_total",
			Help: "Template catalog operations by kind",
		}, []string{"event"}),
		snapshotRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "studio_desk_analytics_snapshot_runs_total",
			Help: "Analytics snapshot refreshes by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.requestDuration, m.errors,
		m.fetches, m.fetchDuration, m.templateEvents, m.snapshotRuns,
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordFetch counts one backend fetch and its total latency.
func (m *Metrics) RecordFetch(resource string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.fetches.WithLabelValues(resource, outcome).Inc()
	m.fetchDuration.WithLabelValues(resource).Observe(duration.Seconds())
}

// RecordTemplateEvent counts a template catalog operation.
func (m *Metrics) RecordTemplateEvent(event string) {
	if m == nil {
		return
	}
	m.templateEvents.WithLabelValues(event).Inc()
}

// RecordSnapshotRun counts an analytics refresh.
func (m *Metrics) RecordSnapshotRun(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.snapshotRuns.WithLabelValues(outcome).Inc()
}
