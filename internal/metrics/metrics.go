// Package metrics holds the Prometheus collectors shared by both services
// and the artifact tooling.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restockd_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"service", "method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restockd_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method", "route"},
	)

	PipelineStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restockd_pipeline_stage_duration_seconds",
			Help:    "Duration of a pipeline stage in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"pipeline", "stage"},
	)

	PipelineErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restockd_pipeline_errors_total",
			Help: "Pipeline failures by error class",
		},
		[]string{"pipeline", "kind"},
	)

	RestockBatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "restockd_restock_batch_items",
			Help:    "Number of items per restock batch request",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		},
	)

	ArtifactAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "restockd_artifact_available",
			Help: "Whether an artifact capability loaded (1) or not (0)",
		},
		[]string{"capability"},
	)

	DecisionCacheResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restockd_decision_cache_results_total",
			Help: "Decision cache lookups by result",
		},
		[]string{"result"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records one finished request.
func RecordHTTPRequest(service, method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(service, method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(service, method, route).Observe(duration.Seconds())
}

// ObserveStage records the time elapsed since start for a pipeline stage.
func ObserveStage(pipeline, stage string, start time.Time) {
	PipelineStageDuration.WithLabelValues(pipeline, stage).Observe(time.Since(start).Seconds())
}

// RecordPipelineError counts a failure under its error class.
func RecordPipelineError(pipeline string, err error) {
	if err == nil {
		return
	}
	PipelineErrors.WithLabelValues(pipeline, ErrorKind(err)).Inc()
}

// ErrorKind maps an error to a low-cardinality label.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrModelUnavailable):
		return "model_unavailable"
	case errors.Is(err, domain.ErrFeatureMismatch):
		return "feature_mismatch"
	case errors.Is(err, domain.ErrInvalidHistoryLength):
		return "invalid_history_length"
	case errors.Is(err, domain.ErrNoCandidates):
		return "no_candidates"
	case errors.Is(err, domain.ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, domain.ErrUnexpectedProcessing):
		return "unexpected"
	default:
		return "other"
	}
}

// SetArtifactAvailable publishes the load outcome of one capability.
func SetArtifactAvailable(capability string, ok bool) {
	v := 0.0
	if ok {
		v = 1
	}
	ArtifactAvailable.WithLabelValues(capability).Set(v)
}

// RecordCacheResult counts a decision cache lookup as hit, miss or error.
func RecordCacheResult(result string) {
	DecisionCacheResults.WithLabelValues(result).Inc()
}
