package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OffersGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "moto_hail", Name: "offers_generated_total", Help: "Offers surfaced to drivers"},
		[]string{"kind"},
	)
	JobsCompleted = promauto.NewCounter(prometheus.CounterOpts{Namespace: "moto_hail", Name: "jobs_completed_total", Help: "Driver jobs driven to completion"})
	JobsCancelled = promauto.NewCounter(prometheus.CounterOpts{Namespace: "moto_hail", Name: "jobs_cancelled_total", Help: "Driver jobs cancelled"})
	NoShows       = promauto.NewCounter(prometheus.CounterOpts{Namespace: "moto_hail", Name: "no_shows_total", Help: "Pickup countdowns that expired"})

	RidesMatched = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "moto_hail", Name: "rides_matched_total", Help: "Customer requests matched to a driver"},
		[]string{"mode"},
	)
	RidesTimedOut = promauto.NewCounter(prometheus.CounterOpts{Namespace: "moto_hail", Name: "rides_timed_out_total", Help: "Queued cheap requests that found no driver"})

	StoreMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "moto_hail", Name: "store_mutations_total", Help: "Admin store mutations applied"},
		[]string{"entity", "action"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "moto_hail", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "moto_hail",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
