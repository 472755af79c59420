package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsEvaluated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atalaya_security_requests_evaluated_total",
		Help: "Total number of requests run through the security pipeline",
	})
	requestsBlocked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atalaya_security_requests_blocked_total",
		Help: "Total number of requests blocked, by detection kind",
	}, []string{"kind"})
	requestsRateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atalaya_security_requests_rate_limited_total",
		Help: "Total number of requests rejected by rate limiting",
	})
	threatIntelLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atalaya_security_threat_intel_lookups_total",
		Help: "Reputation lookups performed, by result",
	}, []string{"result"})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(requestsEvaluated, requestsBlocked, requestsRateLimited, threatIntelLookups)
}

// IncEvaluated increments the evaluated requests counter.
func IncEvaluated() { requestsEvaluated.Inc() }

// IncBlocked increments the blocked counter for a detection kind
// (honeypot, forbidden, malicious, threat_intel).
func IncBlocked(kind string) { requestsBlocked.WithLabelValues(kind).Inc() }

// IncRateLimited increments the rate-limited requests counter.
func IncRateLimited() { requestsRateLimited.Inc() }

// IncThreatIntelLookup increments the lookup counter with a result label
// (hit, miss, error, escalated).
func IncThreatIntelLookup(result string) { threatIntelLookups.WithLabelValues(result).Inc() }
