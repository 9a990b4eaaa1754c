// Package metrics defines the Prometheus collectors exported by the API server.
// Collectors are registered on the Registerer passed to New; a nil *Metrics is a no-op.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "taippa"

// Metrics groups every collector the service records into.
type Metrics struct {
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	policyDecisions *prometheus.CounterVec
	matchPoolSize   prometheus.Histogram
	searchResults   prometheus.Histogram
	importRecords   *prometheus.CounterVec
}

// New creates and registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		policyDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "policy_decisions_total",
			Help:      "Access policy decisions by action and outcome.",
		}, []string{"action", "decision"}),
		matchPoolSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "match_candidate_pool_size",
			Help:      "Number of influencers scored per match request.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		searchResults: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_result_count",
			Help:      "Number of influencers returned per directory search.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		importRecords: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_records_total",
			Help:      "Directory import records by outcome.",
		}, []string{"outcome"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency keyed by the chi route pattern,
// so path parameters do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		m.httpRequests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.httpDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// ObservePolicyDecision counts one access decision.
func (m *Metrics) ObservePolicyDecision(action string, allowed bool) {
	if m == nil {
		return
	}
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	m.policyDecisions.WithLabelValues(action, decision).Inc()
}

// ObserveMatchPool records how many candidates one match request scored.
func (m *Metrics) ObserveMatchPool(size int) {
	if m == nil {
		return
	}
	m.matchPoolSize.Observe(float64(size))
}

// ObserveSearchResults records how many records one search returned.
func (m *Metrics) ObserveSearchResults(count int) {
	if m == nil {
		return
	}
	m.searchResults.Observe(float64(count))
}

// ObserveImport counts one import record by outcome (imported, invalid, conflict, failed).
func (m *Metrics) ObserveImport(outcome string) {
	if m == nil {
		return
	}
	m.importRecords.WithLabelValues(outcome).Inc()
}
