// Package monitoring exposes Prometheus metrics for the gateway on a
// dedicated listener, kept off the request-serving port.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every instrument the gateway updates. One instance is
// created at startup and handed to the HTTP layer.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec // by route and status code

	ConditionalHitsTotal   *prometheus.CounterVec // 304s served without a fetch, by category
	ConditionalMissesTotal *prometheus.CounterVec // full serves, by category

	RateLimitRejectionsTotal *prometheus.CounterVec // by route

	FetchDuration      prometheus.Histogram
	StorageErrorsTotal prometheus.Counter
}

// NewMetrics creates and registers all gateway metrics on the given
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediagate_requests_total",
				Help: "Total number of handled requests",
			},
			[]string{"route", "code"},
		),
		ConditionalHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediagate_conditional_hits_total",
				Help: "Requests answered 304 from the validator alone, without a storage fetch",
			},
			[]string{"category"},
		),
		ConditionalMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediagate_conditional_misses_total",
				Help: "File requests that required a storage fetch",
			},
			[]string{"category"},
		),
		RateLimitRejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mediagate_ratelimit_rejections_total",
				Help: "Requests rejected by the rate limiter",
			},
			[]string{"route"},
		),
		FetchDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "mediagate_storage_fetch_duration_seconds",
				Help:    "Latency of storage fetches in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		StorageErrorsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mediagate_storage_errors_total",
				Help: "Storage fetches that failed for reasons other than a missing object",
			},
		),
	}
}
