// Package metrics provides Prometheus observability metrics for the dispatch engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for the application.
var Registry = prometheus.NewRegistry()

// factory registers metrics to our custom Registry directly.
var factory = promauto.With(Registry)

// DispatchRequestsTotal counts dispatch decisions by outcome
// (matched, alternatives, no_technicians, out_of_range, error).
var DispatchRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "dispatch",
	Name:      "requests_total",
	Help:      "Dispatch requests by decision outcome",
}, []string{"outcome"})

// DispatchDurationSeconds tracks time to compute a dispatch decision.
var DispatchDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "dispatch",
	Name:      "duration_seconds",
	Help:      "Time taken to score and rank technicians for a request",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
})

// CandidatesEvaluated tracks the size of the qualified technician pool per request.
var CandidatesEvaluated = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "dispatch",
	Name:      "candidates_evaluated",
	Help:      "Number of qualified technicians scored per dispatch request",
	Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
})

// BookingsTotal counts successfully committed appointments.
var BookingsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "booking",
	Name:      "committed_total",
	Help:      "Appointments successfully persisted",
})

// CancellationsTotal counts cancelled appointments.
var CancellationsTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "booking",
	Name:      "cancelled_total",
	Help:      "Appointments transitioned to cancelled",
})

// RouteCacheInvalidations counts route-cache entries deleted after schedule changes.
var RouteCacheInvalidations = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "routecache",
	Name:      "invalidations_total",
	Help:      "Route cache entries invalidated by bookings, cancellations, and webhooks",
})
