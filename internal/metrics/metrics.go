package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service's Prometheus instruments. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	claimsCreated    prometheus.Counter
	claimsRejected   *prometheus.CounterVec
	claimTransitions *prometheus.CounterVec
	claimIDConflicts prometheus.Counter
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates the instruments and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		claimsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "factorclaim_claims_created_total",
			Help: "Total number of claims created",
		}),
		claimsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factorclaim_claims_rejected_total",
			Help: "Total number of claim submissions rejected, by reason",
		}, []string{"reason"}),
		claimTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factorclaim_claim_transitions_total",
			Help: "Total number of claim status changes, by action",
		}, []string{"action"}),
		claimIDConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "factorclaim_claim_id_conflicts_total",
			Help: "Total number of claim id collisions retried on insert",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "factorclaim_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "factorclaim_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(
		m.claimsCreated,
		m.claimsRejected,
		m.claimTransitions,
		m.claimIDConflicts,
		m.httpRequests,
		m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ClaimCreated() {
	if m == nil {
		return
	}
	m.claimsCreated.Inc()
}

func (m *Metrics) ClaimRejected(reason string) {
	if m == nil {
		return
	}
	m.claimsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) ClaimTransition(action string) {
	if m == nil {
		return
	}
	m.claimTransitions.WithLabelValues(action).Inc()
}

func (m *Metrics) ClaimIDConflict() {
	if m == nil {
		return
	}
	m.claimIDConflicts.Inc()
}

// ObserveRequest records one served HTTP request. route is the matched
// ServeMux pattern, not the raw path.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
