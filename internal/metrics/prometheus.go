package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the sync service

var (
	// Scrape metrics
	NavigationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rugby_navigations_total",
			Help: "Total number of page navigations",
		},
		[]string{"status"},
	)

	NavigationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "rugby_navigation_duration_seconds",
			Help:    "Duration of page renders in seconds",
			Buckets: []float64{1, 2, 5, 10, 20, 30, 60, 120},
		},
	)

	ScrapedRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rugby_scraped_rows_total",
			Help: "Total number of fixture rows extracted from source pages",
		},
		[]string{"competition"},
	)

	// Reconciliation metrics
	CandidateMatches = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rugby_candidate_matches",
			Help: "Number of candidate matches in the active window",
		},
		[]string{"competition"},
	)

	MatchUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rugby_match_updates_total",
			Help: "Total number of match patches by outcome",
		},
		[]string{"competition", "outcome"},
	)

	UnmappedNamesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rugby_unmapped_names_total",
			Help: "Total number of scraped team names that did not resolve",
		},
		[]string{"competition"},
	)

	SwappedLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rugby_swapped_lookups_total",
			Help: "Total number of rows matched only with home and away reversed",
		},
		[]string{"competition"},
	)

	// Database metrics
	DBQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rugby_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "table", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rugby_db_query_duration_seconds",
			Help:    "Duration of database queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rugby_db_connections_active",
			Help: "Number of active database connections",
		},
	)

	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rugby_db_connections_idle",
			Help: "Number of idle database connections",
		},
	)

	// Cache metrics
	CacheOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rugby_cache_operation_duration_seconds",
			Help:    "Duration of cache operations in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// Sync metrics
	SyncOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rugby_sync_operations_total",
			Help: "Total number of sync operations",
		},
		[]string{"type", "status"},
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rugby_sync_duration_seconds",
			Help:    "Duration of sync operations in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"type"},
	)

	// Error metrics
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rugby_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "error_type"},
	)

	// Worker metrics
	WorkerLoopIterations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rugby_worker_loop_iterations_total",
			Help: "Total number of worker job runs",
		},
		[]string{"job", "status"},
	)

	WorkerJobsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rugby_worker_jobs_skipped_total",
			Help: "Total number of job runs skipped because another job was running",
		},
		[]string{"job"},
	)

	// System metrics
	SystemUptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rugby_system_uptime_seconds",
			Help: "System uptime in seconds",
		},
	)

	LastSuccessfulSync = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "rugby_last_successful_sync_timestamp",
			Help: "Timestamp of last successful sync operation",
		},
		[]string{"type"},
	)
)

// RecordNavigation records a page render
func RecordNavigation(status string, duration float64) {
	NavigationsTotal.WithLabelValues(status).Inc()
	NavigationDuration.Observe(duration)
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table, status string, duration float64) {
	DBQueriesTotal.WithLabelValues(operation, table, status).Inc()
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration)
}

// RecordCacheOperation records a cache operation duration
func RecordCacheOperation(operation string, duration float64) {
	CacheOperationDuration.WithLabelValues(operation).Observe(duration)
}

// RecordSync records a sync operation
func RecordSync(syncType, status string, duration float64) {
	SyncOperationsTotal.WithLabelValues(syncType, status).Inc()
	SyncDuration.WithLabelValues(syncType).Observe(duration)

	if status == "success" {
		LastSuccessfulSync.WithLabelValues(syncType).SetToCurrentTime()
	}
}

// RecordError records an error
func RecordError(component, errorType string) {
	ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

// UpdateDBConnectionStats updates database connection pool statistics
func UpdateDBConnectionStats(active, idle int32) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}

// RecordReconcile records the outcome counts of one competition's reconciliation
func RecordReconcile(competition string, rows, candidates, updated, unchanged, failed, unmapped, swapped int) {
	ScrapedRowsTotal.WithLabelValues(competition).Add(float64(rows))
	CandidateMatches.WithLabelValues(competition).Set(float64(candidates))
	MatchUpdatesTotal.WithLabelValues(competition, "updated").Add(float64(updated))
	MatchUpdatesTotal.WithLabelValues(competition, "unchanged").Add(float64(unchanged))
	MatchUpdatesTotal.WithLabelValues(competition, "failed").Add(float64(failed))
	UnmappedNamesTotal.WithLabelValues(competition).Add(float64(unmapped))
	SwappedLookupsTotal.WithLabelValues(competition).Add(float64(swapped))
}

// RecordWorkerIteration records a worker job run
func RecordWorkerIteration(job, status string) {
	WorkerLoopIterations.WithLabelValues(job, status).Inc()
}

// RecordJobSkipped records a job run skipped while another job held the lock
func RecordJobSkipped(job string) {
	WorkerJobsSkipped.WithLabelValues(job).Inc()
}
