package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the API process.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	CredentialVerifications *prometheus.CounterVec
	OwnershipFailures       *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// Callers that build several routers (tests) pass their own prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "places_api_http_requests_total",
			Help: "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "places_api_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		CredentialVerifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "places_api_credential_verifications_total",
			Help: "Bearer credential verification outcomes (authenticated, missing, invalid).",
		}, []string{"result"}),
		OwnershipFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "places_api_ownership_failures_total",
			Help: "Failed ownership-checked mutations by failure kind and stage.",
		}, []string{"kind", "stage"}),
	}
}

func (m *Metrics) ObserveVerification(result string) {
	if m == nil {
		return
	}
	m.CredentialVerifications.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveOwnershipFailure(kind, stage string) {
	if m == nil {
		return
	}
	m.OwnershipFailures.WithLabelValues(kind, stage).Inc()
}
