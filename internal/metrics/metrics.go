package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studium_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studium_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	llmRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "studium_llm_requests_total",
		Help: "Total number of LLM provider requests",
	}, []string{"model", "status"})

	llmRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "studium_llm_request_duration_seconds",
		Help:    "Duration of LLM provider requests",
		Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"model", "status"})

	credentialCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studium_credential_cache_hits_total",
		Help: "Total number of credential cache hits",
	})

	credentialCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "studium_credential_cache_misses_total",
		Help: "Total number of credential cache misses",
	})

	progressSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "studium_progress_subscriptions",
		Help: "Number of live progress subscriptions",
	})
)

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLLMRequest records one upstream provider call.
func RecordLLMRequest(model, status string, duration time.Duration) {
	llmRequestsTotal.WithLabelValues(model, status).Inc()
	llmRequestDuration.WithLabelValues(model, status).Observe(duration.Seconds())
}

// RecordCredentialCacheHit records a credential cache hit.
func RecordCredentialCacheHit() { credentialCacheHits.Inc() }

// RecordCredentialCacheMiss records a credential cache miss.
func RecordCredentialCacheMiss() { credentialCacheMisses.Inc() }

// ProgressSubscriptionStarted increments the live subscription gauge.
func ProgressSubscriptionStarted() { progressSubscriptions.Inc() }

// ProgressSubscriptionEnded decrements the live subscription gauge.
func ProgressSubscriptionEnded() { progressSubscriptions.Dec() }
