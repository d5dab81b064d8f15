package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes Prometheus collectors for the service.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorsTotal         *prometheus.CounterVec
	ticketOpsTotal      *prometheus.CounterVec
	slaBreachesTotal    prometheus.Counter
	lockConflictsTotal  prometheus.Counter
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
		errorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of request errors by code",
			},
			[]string{"method", "path", "code"},
		),
		ticketOpsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ticket_operations_total",
				Help:      "Total number of ticket operations",
			},
			[]string{"operation"},
		),
		slaBreachesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sla_breaches_total",
				Help:      "Total number of tickets observed past their SLA deadline",
			},
		),
		lockConflictsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "optimistic_lock_conflicts_total",
				Help:      "Total number of ticket updates rejected by the optimistic lock",
			},
		),
	}
}

// RecordRequest tracks one completed HTTP request.
func (m *Metrics) RecordRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpRequestsTotal.WithLabelValues(method, path, code).Inc()
	m.httpRequestDuration.WithLabelValues(method, path, code).Observe(duration.Seconds())
}

// RecordError tracks one failed request by error code.
func (m *Metrics) RecordError(method, path, code string) {
	if m == nil {
		return
	}
	m.errorsTotal.WithLabelValues(method, path, code).Inc()
}

// RecordTicketOperation increments the counter for a ticket operation.
func (m *Metrics) RecordTicketOperation(operation string) {
	if m == nil {
		return
	}
	m.ticketOpsTotal.WithLabelValues(operation).Inc()
}

// RecordSLABreach counts a breach observed on the detail-read path.
func (m *Metrics) RecordSLABreach() {
	if m == nil {
		return
	}
	m.slaBreachesTotal.Inc()
}

// RecordLockConflict counts a rejected stale update.
func (m *Metrics) RecordLockConflict() {
	if m == nil {
		return
	}
	m.lockConflictsTotal.Inc()
}

// Handler serves the /metrics scrape endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
