package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classecho_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_class"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classecho_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"method", "path", "status_class"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "classecho_http_inflight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Credential pool
	CredentialPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "classecho_credential_pool_size",
			Help: "Number of credentials loaded at startup",
		},
	)

	CredentialCursor = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "classecho_credential_cursor",
			Help: "Zero-based index of the active credential",
		},
	)

	CredentialRotationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classecho_credential_rotations_total",
			Help: "Total number of credential rotations",
		},
		[]string{"reason"},
	)

	// Upstream calls
	UpstreamAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classecho_upstream_attempts_total",
			Help: "Upstream call attempts by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	UpstreamAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classecho_upstream_attempt_duration_seconds",
			Help:    "Upstream call latency in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"operation"},
	)

	OperationsExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classecho_operations_exhausted_total",
			Help: "Operations that failed because every credential was rate limited",
		},
		[]string{"operation"},
	)

	// Pipeline
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classecho_pipeline_runs_total",
			Help: "Pipeline runs by material kind and result",
		},
		[]string{"kind", "result"},
	)

	// Usage stats storage
	StorageOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "classecho_storage_operation_duration_seconds",
			Help:    "Latency of usage storage operations",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"backend", "operation"},
	)

	StorageOperationErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classecho_storage_operation_errors_total",
			Help: "Failed usage storage operations",
		},
		[]string{"backend", "operation"},
	)

	UsageWritesDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classecho_usage_writes_dropped_total",
			Help: "Usage counter updates dropped because the write queue was full",
		},
	)

	// Inbound rate limiter
	RateLimitKeysGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "classecho_ratelimit_keys",
			Help: "Number of per-client limiter entries",
		},
	)

	RateLimitRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "classecho_ratelimit_rejections_total",
			Help: "Requests rejected by the inbound rate limiter",
		},
	)
)

// RecordAttempt records one upstream call and its classified outcome.
func RecordAttempt(operation, outcome string, d time.Duration) {
	UpstreamAttemptsTotal.WithLabelValues(operation, outcome).Inc()
	UpstreamAttemptDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordRotation records a cursor advance and the resulting position.
func RecordRotation(reason string, index int) {
	CredentialRotationsTotal.WithLabelValues(reason).Inc()
	CredentialCursor.Set(float64(index))
}

// RecordPipeline records the end of a pipeline run.
func RecordPipeline(kind string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	PipelineRunsTotal.WithLabelValues(kind, result).Inc()
}
