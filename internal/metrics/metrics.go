// Package metrics provides Prometheus metrics for the Rate Shopper service.
// Scrape these at /metrics for Grafana dashboards and alerting.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rateshopper_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rateshopper_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Scheduler Metrics
	SearchesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rateshopper_searches_created_total",
			Help: "Total number of searches scheduled",
		},
	)

	BundlesCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rateshopper_bundles_created_total",
			Help: "Total number of bundles created by the scheduler",
		},
	)

	// Extraction Worker Metrics
	DatesExtractedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rateshopper_dates_extracted_total",
			Help: "Per-date extraction outcomes",
		},
		[]string{"platform", "outcome"}, // outcome: "success" or "failed"
	)

	ExtractionRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rateshopper_extraction_retries_total",
			Help: "Total number of per-date extraction retries",
		},
	)

	BundleQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rateshopper_bundle_queue_depth",
			Help: "Number of bundles waiting to be claimed by a worker",
		},
	)

	BundleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rateshopper_bundle_duration_seconds",
			Help:    "Time taken to process one bundle",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	SearchesFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rateshopper_searches_finished_total",
			Help: "Searches reaching a terminal state",
		},
		[]string{"status"}, // "COMPLETED", "PARTIAL", "FAILED", "CANCELLED"
	)

	// Platform Metrics
	PlatformRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rateshopper_platform_requests_total",
			Help: "Price fetch requests made against external platforms",
		},
		[]string{"platform"},
	)

	PlatformErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rateshopper_platform_errors_total",
			Help: "Platform fetch failures by class",
		},
		[]string{"platform", "class"}, // class: "transient" or "permanent"
	)

	PlatformFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rateshopper_platform_fetch_duration_seconds",
			Help:    "Latency of a single platform price fetch",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"platform"},
	)

	// Price Store Metrics
	PriceRecordsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rateshopper_price_records_total",
			Help: "Total price observations appended to the store",
		},
	)

	PriceRecordsPrunedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rateshopper_price_records_pruned_total",
			Help: "Price observations removed by retention pruning",
		},
	)

	// Trend Metrics
	TrendQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rateshopper_trend_queries_total",
			Help: "Trend aggregation queries by cache result",
		},
		[]string{"cache"}, // "hit" or "miss"
	)

	TrendBuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rateshopper_trend_build_duration_seconds",
			Help:    "Time taken to build a trend response on cache miss",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)
)
