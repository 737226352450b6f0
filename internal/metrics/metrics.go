// Harmonium - Music Library and Streaming Backend
// Copyright 2026 Harmonium contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/harmonium-fm/harmonium

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - MongoDB query performance
// - API endpoint latency and throughput
// - Cache efficiency (profile LRU, recommendation TTL, popularity index)
// - Recommendation and wrapped report generation

var (
	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mongo_query_duration_seconds",
			Help:    "Duration of MongoDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "collection"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mongo_query_errors_total",
			Help: "Total number of MongoDB query errors",
		},
		[]string{"operation", "collection"},
	)

	// API endpoint metrics
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
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"}, // "profile", "recommendation", "popularity"
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)

	CacheSize = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entries",
			Help: "Current number of cached entries",
		},
		[]string{"cache_type"},
	)

	// Recommendation metrics
	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_generation_duration_seconds",
			Help:    "Duration of recommendation set generation in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RecommendationsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_generated_total",
			Help: "Total number of recommendation sets generated",
		},
		[]string{"source"}, // "cache", "fresh"
	)

	RecommendationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_errors_total",
			Help: "Total number of recommendation generation errors",
		},
		[]string{"error_type"}, // "no_history", "database", "other"
	)

	// Popularity index metrics
	PopularityRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "popularity_refresh_duration_seconds",
			Help:    "Duration of popularity index recomputation in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	PopularityIndexedAlbums = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "popularity_indexed_albums",
			Help: "Number of albums in the current popularity index",
		},
	)

	// Wrapped report metrics
	WrappedReportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wrapped_report_duration_seconds",
			Help:    "Duration of wrapped report generation in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"year"},
	)

	WrappedReportsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wrapped_reports_generated_total",
			Help: "Total number of wrapped reports generated",
		},
		[]string{"year"},
	)

	WrappedReportErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wrapped_report_errors_total",
			Help: "Total number of wrapped report generation errors",
		},
		[]string{"error_type"}, // "user_not_found", "database", "other"
	)

	// Listen event metrics
	ListenEventsRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listen_events_recorded_total",
			Help: "Total number of listen events recorded",
		},
	)

	ListenEventErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "listen_event_errors_total",
			Help: "Total number of listen event recording errors",
		},
	)
)

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, collection string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, collection).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation, collection).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordCacheHit records a cache hit for the given cache type
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss for the given cache type
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}

// RecordRecommendation records a recommendation generation outcome
func RecordRecommendation(source string, duration time.Duration, err error) {
	RecommendationDuration.Observe(duration.Seconds())
	if err != nil {
		RecommendationErrors.WithLabelValues(categorizeError(err.Error())).Inc()
		return
	}
	RecommendationsGenerated.WithLabelValues(source).Inc()
}

// RecordPopularityRefresh records a popularity index recomputation
func RecordPopularityRefresh(duration time.Duration, indexedAlbums int) {
	PopularityRefreshDuration.Observe(duration.Seconds())
	PopularityIndexedAlbums.Set(float64(indexedAlbums))
}

// RecordWrappedReport records a wrapped report generation outcome
func RecordWrappedReport(year int, duration time.Duration, err error) {
	yearStr := strconv.Itoa(year)
	WrappedReportDuration.WithLabelValues(yearStr).Observe(duration.Seconds())
	if err != nil {
		WrappedReportErrors.WithLabelValues(categorizeError(err.Error())).Inc()
		return
	}
	WrappedReportsGenerated.WithLabelValues(yearStr).Inc()
}

// RecordListenEvent records a listen event write outcome
func RecordListenEvent(err error) {
	if err != nil {
		ListenEventErrors.Inc()
		return
	}
	ListenEventsRecorded.Inc()
}

// categorizeError buckets error messages into coarse metric labels to
// keep label cardinality bounded.
func categorizeError(msg string) string {
	switch {
	case contains(msg, "no listening history"):
		return "no_history"
	case contains(msg, "user not found"):
		return "user_not_found"
	case contains(msg, "mongo"), contains(msg, "database"), contains(msg, "context deadline"):
		return "database"
	default:
		return "other"
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
