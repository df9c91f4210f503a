package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exposed on /metrics. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	upstreamCalls   *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec
	auditWrites     *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promotions_admin_http_requests_total",
			Help: "Inbound HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "promotions_admin_http_request_duration_seconds",
			Help:    "Inbound HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		upstreamCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promotions_admin_middleend_calls_total",
			Help: "Middleend calls by resource, method and status.",
		}, []string{"resource", "method", "status"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "promotions_admin_middleend_call_duration_seconds",
			Help:    "Middleend call latency by resource.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 25, 50},
		}, []string{"resource"}),
		auditWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "promotions_admin_audit_writes_total",
			Help: "Audit writes by event and outcome.",
		}, []string{"event", "outcome"}),
	}

	registry.MustRegister(m.httpRequests, m.httpDuration, m.upstreamCalls, m.upstreamLatency, m.auditWrites)
	return m
}

// Handler serves the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveUpstream records one middleend call. Status 0 means no response.
func (m *Metrics) ObserveUpstream(resource, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	m.upstreamCalls.WithLabelValues(resource, method, label).Inc()
	m.upstreamLatency.WithLabelValues(resource).Observe(elapsed.Seconds())
}

// ObserveAudit records an audit outcome: written, failed or skipped.
func (m *Metrics) ObserveAudit(event, outcome string) {
	if m == nil {
		return
	}
	m.auditWrites.WithLabelValues(event, outcome).Inc()
}
