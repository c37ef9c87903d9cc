package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the bibliometrics service.
// Metrics are organized by subsystem: store access, engine use cases and
// fan-out branches. All collectors are registered via promauto with the
// default Prometheus registry.
type Metrics struct {
	// StoreQueriesTotal counts store operations, labeled by collection and
	// operation (find, aggregate, count).
	StoreQueriesTotal *prometheus.CounterVec

	// StoreQueriesFailed counts failed store operations, labeled by
	// collection and operation.
	StoreQueriesFailed *prometheus.CounterVec

	// StoreQueryDuration observes store operation duration in seconds,
	// labeled by collection and operation.
	StoreQueryDuration *prometheus.HistogramVec

	// RequestsTotal counts engine use-case invocations, labeled by use case
	// (related_affiliations, products_page, person_summary, plot).
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes engine use-case duration in seconds, labeled
	// by use case.
	RequestDuration *prometheus.HistogramVec

	// PartialFailures counts fan-out branches that failed and degraded to
	// empty output, labeled by branch (facets, metrics, plot).
	PartialFailures *prometheus.CounterVec

	// ProductsSkipped counts malformed products skipped during enrichment.
	ProductsSkipped prometheus.Counter

	// PlotsBuilt counts plots produced, labeled by plot name.
	PlotsBuilt *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		StoreQueriesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_queries_total",
			Help:      "Total number of document-store operations",
		}, []string{"collection", "operation"}),
		StoreQueriesFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_queries_failed_total",
			Help:      "Total number of failed document-store operations",
		}, []string{"collection", "operation"}),
		StoreQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_query_duration_seconds",
			Help:      "Document-store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"collection", "operation"}),
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_requests_total",
			Help:      "Total number of engine use-case invocations",
		}, []string{"use_case"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "engine_request_duration_seconds",
			Help:      "Engine use-case duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"use_case"}),
		PartialFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_partial_failures_total",
			Help:      "Total number of fan-out branches degraded to empty output",
		}, []string{"branch"}),
		ProductsSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_skipped_total",
			Help:      "Total number of malformed products skipped during enrichment",
		}),
		PlotsBuilt: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "plots_built_total",
			Help:      "Total number of plots produced",
		}, []string{"plot"}),
	}
}
