// Package metrics provides Prometheus metrics for the portal server.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "portal_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	rateLimitHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_rate_limit_hits_total",
			Help: "Total rate limit rejections (429s)",
		},
	)

	// Asset lifecycle metrics
	assetsStagedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_assets_staged_total",
			Help: "Total uploads accepted into or rejected from staging",
		},
		[]string{"status"},
	)

	assetBytesStaged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_asset_bytes_staged_total",
			Help: "Total bytes written to staging",
		},
	)

	promotionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_asset_promotions_total",
			Help: "Total promotions by owner type and result",
		},
		[]string{"owner_type", "result"},
	)

	rewriteFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "portal_reference_rewrite_fallbacks_total",
			Help: "Staging references rewritten without a registry record",
		},
	)

	ownershipReleasedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_asset_ownership_released_total",
			Help: "Total assets released by reconciliation",
		},
		[]string{"owner_type"},
	)

	// Janitor metrics
	janitorRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_janitor_runs_total",
			Help: "Total janitor sweeps",
		},
		[]string{"status"},
	)

	janitorRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "portal_janitor_run_duration_seconds",
			Help:    "Janitor sweep duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	janitorDeletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "portal_janitor_deleted_total",
			Help: "Orphaned assets handled by the janitor",
		},
		[]string{"status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRateLimitHit records a 429 rejection.
func RecordRateLimitHit() {
	rateLimitHitsTotal.Inc()
}

// RecordStaged records an upload attempt into staging.
func RecordStaged(bytes int64, success bool) {
	if success {
		assetsStagedTotal.WithLabelValues("success").Inc()
		assetBytesStaged.Add(float64(bytes))
		return
	}
	assetsStagedTotal.WithLabelValues("error").Inc()
}

// RecordPromotion records a promotion outcome: "moved", "in_place",
// "conflict" or "error".
func RecordPromotion(ownerType, result string) {
	promotionsTotal.WithLabelValues(ownerType, result).Inc()
}

// RecordRewriteFallback records a staging reference rewritten from its
// expected location instead of a registry record.
func RecordRewriteFallback() {
	rewriteFallbacksTotal.Inc()
}

// RecordOwnershipReleased records assets released from an owner role.
func RecordOwnershipReleased(ownerType string, count int) {
	ownershipReleasedTotal.WithLabelValues(ownerType).Add(float64(count))
}

// RecordJanitorRun records one sweep with its deleted and failed counts.
func RecordJanitorRun(duration time.Duration, deleted, failed int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	janitorRunsTotal.WithLabelValues(status).Inc()
	janitorRunDuration.Observe(duration.Seconds())
	janitorDeletedTotal.WithLabelValues("deleted").Add(float64(deleted))
	janitorDeletedTotal.WithLabelValues("failed").Add(float64(failed))
}
