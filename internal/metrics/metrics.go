// Package metrics exposes Prometheus instrumentation for the matchup engine,
// the catalog sources and the HTTP layer. Collectors register with the default
// registry on import and are served from /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Engine
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchup_recommendations_total",
			Help: "Total number of resolved matchup requests",
		},
		[]string{"action", "outcome"}, // outcome: ok, empty_pool
	)

	ResolveDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchup_resolve_duration_seconds",
			Help:    "Time spent resolving one matchup request",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05},
		},
	)

	StaleLocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchup_stale_locks_total",
			Help: "Locks cleared or rejected because the fighter was not in the candidate pool",
		},
		[]string{"player"},
	)

	UnknownFightersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchup_unknown_fighters_total",
			Help: "Direct choices or promotions naming a fighter outside the pool",
		},
		[]string{"player"},
	)

	SamplerFallbacksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "matchup_sampler_uniform_fallbacks_total",
			Help: "Draws that fell back to uniform choice because every remaining weight was zero",
		},
	)

	PromotionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchup_promotions_total",
			Help: "Alternative promotions applied on the server",
		},
		[]string{"player", "outcome"},
	)

	FeatureRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchup_feature_requests_total",
			Help: "Opponent, batch and pool generation requests",
		},
		[]string{"feature", "outcome"},
	)

	// Catalog
	CatalogFighters = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_fighters",
			Help: "Number of fighters in the loaded catalog",
		},
	)

	CatalogMatrixRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_win_matrix_rows",
			Help: "Number of fighters with at least one stored win rate",
		},
	)

	CatalogLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_load_duration_seconds",
			Help:    "Time spent loading the catalog or win matrix from a source",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	CatalogLoadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_load_errors_total",
			Help: "Failed catalog or win matrix loads",
		},
		[]string{"source"},
	)

	// HTTP
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	SSEClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sse_clients",
			Help: "Connected activity feed clients",
		},
	)

	// Events
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "events_published_total",
			Help: "Activity events published, by event type",
		},
		[]string{"type"},
	)

	EventPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "events_publish_errors_total",
			Help: "Activity events that failed to reach the upstream broker",
		},
	)
)

// RecordResolve records one resolver run
func RecordResolve(action string, emptyPool bool, duration time.Duration) {
	outcome := "ok"
	if emptyPool {
		outcome = "empty_pool"
	}
	RecommendationsTotal.WithLabelValues(action, outcome).Inc()
	ResolveDuration.Observe(duration.Seconds())
}

// RecordFeature records an opponent, batch or pool request
func RecordFeature(feature string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	FeatureRequestsTotal.WithLabelValues(feature, outcome).Inc()
}

// RecordCatalogLoad records a load from a catalog or win matrix source
func RecordCatalogLoad(source string, duration time.Duration, err error) {
	CatalogLoadDuration.WithLabelValues(source).Observe(duration.Seconds())
	if err != nil {
		CatalogLoadErrors.WithLabelValues(source).Inc()
	}
}

// SetCatalogSize updates the catalog gauges
func SetCatalogSize(fighters, matrixRows int) {
	CatalogFighters.Set(float64(fighters))
	CatalogMatrixRows.Set(float64(matrixRows))
}

// RecordAPIRequest records API request metrics
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
