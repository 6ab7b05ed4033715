package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "freightops"

// Metrics holds the service's prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// Business metrics
	InvoicesGenerated   *prometheus.CounterVec
	SettlementsApplied  *prometheus.CounterVec
	GuardRejections     *prometheus.CounterVec
	Conflicts           *prometheus.CounterVec
	IntegrityViolations *prometheus.CounterVec
}

// New creates and registers every collector.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)
	m.HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		},
	)

	m.InvoicesGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_generated_total",
			Help:      "Invoices and purchase invoices generated",
		},
		[]string{"kind"},
	)
	m.SettlementsApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_applied_total",
			Help:      "Receipts and payment vouchers applied",
		},
		[]string{"kind"},
	)
	m.GuardRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deletion_guard_rejections_total",
			Help:      "Delete requests refused by a deletion guard",
		},
		[]string{"code"},
	)
	m.Conflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concurrent_conflicts_total",
			Help:      "Operations rejected because a concurrent write won",
		},
		[]string{"operation"},
	)
	m.IntegrityViolations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "integrity_violations_total",
			Help:      "Transactions rolled back after a partial-write check failed",
		},
		[]string{"operation"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal, m.HTTPRequestDuration, m.HTTPRequestsInFlight,
		m.InvoicesGenerated, m.SettlementsApplied, m.GuardRejections, m.Conflicts, m.IntegrityViolations,
	)
	return m
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func (m *Metrics) RecordInvoiceGenerated(kind string) {
	m.InvoicesGenerated.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordSettlement(kind string) {
	m.SettlementsApplied.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordGuardRejection(code string) {
	m.GuardRejections.WithLabelValues(code).Inc()
}

func (m *Metrics) RecordConflict(operation string) {
	m.Conflicts.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordIntegrityViolation(operation string) {
	m.IntegrityViolations.WithLabelValues(operation).Inc()
}
