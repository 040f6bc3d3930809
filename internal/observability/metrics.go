// Package observability collects Prometheus metrics for the service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics aggregates the service registry and instruments.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	entriesCreated  *prometheus.CounterVec
	entriesPosted   *prometheus.CounterVec
	entriesReversed *prometheus.CounterVec
	queueRetries    *prometheus.CounterVec
}

// NewMetrics initialises the registry and base instruments.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_entries_created_total",
		Help: "Journal entries accepted by the builder.",
	}, []string{"tenant", "source_type"})
	posted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_entries_posted_total",
		Help: "Journal entries applied to ledger balances.",
	}, []string{"tenant"})
	reversed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_entries_reversed_total",
		Help: "Posted entries negated by a correcting entry.",
	}, []string{"tenant"})
	retries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_queue_retries_total",
		Help: "Operator retries of failed posting queue rows.",
	}, []string{"tenant", "outcome"})
	registry.MustRegister(requests, duration, created, posted, reversed, retries)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		entriesCreated:  created,
		entriesPosted:   posted,
		entriesReversed: reversed,
		queueRetries:    retries,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// EntryCreated counts an accepted journal entry.
func (m *Metrics) EntryCreated(tenant, sourceType string) {
	if m == nil {
		return
	}
	m.entriesCreated.WithLabelValues(tenant, sourceType).Inc()
}

// EntryPosted counts a successful posting.
func (m *Metrics) EntryPosted(tenant string) {
	if m == nil {
		return
	}
	m.entriesPosted.WithLabelValues(tenant).Inc()
}

// EntryReversed counts a successful reversal.
func (m *Metrics) EntryReversed(tenant string) {
	if m == nil {
		return
	}
	m.entriesReversed.WithLabelValues(tenant).Inc()
}

// QueueRetry counts an operator retry and its outcome.
func (m *Metrics) QueueRetry(tenant, outcome string) {
	if m == nil {
		return
	}
	m.queueRetries.WithLabelValues(tenant, outcome).Inc()
}

// Registerer exposes the registry for custom metrics.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
