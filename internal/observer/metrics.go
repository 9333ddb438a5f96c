package observer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsEnabled = true // Flag to control metric collection

	// Run-level metrics
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfm_segmentation_runs_total",
			Help: "Total number of segmentation runs, labeled by final status.",
		},
		[]string{"status"},
	)
	runDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rfm_segmentation_run_duration_seconds",
			Help:    "Histogram of full pipeline run durations.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.5min
		},
		[]string{"status"},
	)

	// Stage-level row counters
	rowsDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rfm_segmentation_rows_dropped_total",
			Help: "Total number of source rows dropped during cleaning, labeled by entity.",
		},
		[]string{"entity"},
	)
	duplicatesRemovedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfm_segmentation_duplicates_removed_total",
		Help: "Total number of exact duplicate source rows removed during cleaning.",
	})
	totalsFilledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfm_segmentation_order_totals_filled_total",
		Help: "Total number of missing order totals reconstructed from order lines.",
	})
	segmentsWrittenTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfm_segmentation_segments_written_total",
		Help: "Total number of segment rows written to the output table.",
	})
	composeDropsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfm_segmentation_compose_drops_total",
		Help: "Total number of customers lost between ranking and the final join.",
	})
)

// Labels for database operations
var (
	dbOperationLabels = []string{"operation", "entity", "status"}

	databaseOperationDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rfm_segmentation_db_operation_duration_seconds",
			Help:    "Histogram of database operation durations.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
		dbOperationLabels,
	)
)

// InitMetrics controls whether metric collection is active. Metrics are
// auto-registered via promauto; this only flips the recording flag.
// Call during application startup.
func InitMetrics(enabled bool) {
	metricsEnabled = enabled
}

// ObserveRun records the outcome and duration of one pipeline run.
func ObserveRun(status string, duration time.Duration) {
	if !metricsEnabled {
		return
	}
	runsTotal.WithLabelValues(status).Inc()
	runDurationSeconds.WithLabelValues(status).Observe(duration.Seconds())
}

// AddRowsDropped adds to the cleaning drop counter for one entity.
func AddRowsDropped(entity string, count int) {
	if !metricsEnabled || count <= 0 {
		return
	}
	rowsDroppedTotal.WithLabelValues(entity).Add(float64(count))
}

// AddDuplicatesRemoved adds to the duplicate removal counter.
func AddDuplicatesRemoved(count int) {
	if !metricsEnabled || count <= 0 {
		return
	}
	duplicatesRemovedTotal.Add(float64(count))
}

// AddTotalsFilled adds to the reconciled order total counter.
func AddTotalsFilled(count int) {
	if !metricsEnabled || count <= 0 {
		return
	}
	totalsFilledTotal.Add(float64(count))
}

// AddSegmentsWritten adds to the written segment counter.
func AddSegmentsWritten(count int) {
	if !metricsEnabled || count <= 0 {
		return
	}
	segmentsWrittenTotal.Add(float64(count))
}

// AddComposeDrops adds to the compose-stage drop counter.
func AddComposeDrops(count int) {
	if !metricsEnabled || count <= 0 {
		return
	}
	composeDropsTotal.Add(float64(count))
}

// ObserveDbOperationDuration records the duration for a database operation.
func ObserveDbOperationDuration(operation, entity string, duration time.Duration, err error) {
	if !metricsEnabled {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	databaseOperationDurationSeconds.WithLabelValues(operation, entity, status).Observe(duration.Seconds())
}
