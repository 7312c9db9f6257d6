// Package metrics holds the Prometheus instruments of billpay. All metrics
// live on a private registry served by Handler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "billpay"

var registry = prometheus.NewRegistry()

var factory = promauto.With(registry)

var (
	// Allocations counts allocator runs by outcome (ok, invalid_amount,
	// insufficient_selection, unknown_item, exceeds_due).
	Allocations = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_total",
			Help:      "Payment allocations by outcome.",
		},
		[]string{"outcome"},
	)

	// Submissions counts payment requests sent to the billing API.
	Submissions = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_submissions_total",
			Help:      "Payment requests submitted to the billing API by result.",
		},
		[]string{"result"},
	)

	// SubmissionDuration observes billing API submission latency.
	SubmissionDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "payment_submission_duration_seconds",
			Help:      "Duration of payment submissions to the billing API.",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// CacheWrites counts cache tier writes by tier and result.
	CacheWrites = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Payment cache writes by tier and result.",
		},
		[]string{"tier", "result"},
	)

	// CacheReads counts cache tier lookups by tier and result (hit, miss,
	// invalid, error).
	CacheReads = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "reads_total",
			Help:      "Payment cache reads by tier and result.",
		},
		[]string{"tier", "result"},
	)

	CacheReconciled = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "reconciled_entries_total",
			Help:      "Cache entries overwritten with the server view.",
		},
	)

	CachePruned = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "pruned_entries_total",
			Help:      "Cache entries removed by pruning.",
		},
	)

	// LateResultsDiscarded counts submissions whose cache update was skipped
	// because the consommation was reloaded while they were in flight.
	LateResultsDiscarded = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "late_results_discarded_total",
			Help:      "Successful submissions not applied to the cache because the data was reloaded.",
		},
	)
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}
