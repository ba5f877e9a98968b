// internal/metrics/metrics.go

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopmap_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shopmap_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Shop backend metrics
var (
	ShopQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopmap_shop_queries_total",
			Help: "Shop listing queries by kind (range, search) and cache outcome",
		},
		[]string{"kind", "cache"},
	)

	ShopWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopmap_shop_writes_total",
			Help: "Shop inserts and updates by result",
		},
		[]string{"op", "result"},
	)
)

// Viewport cache metrics
var (
	ViewportFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopmap_viewport_fetches_total",
			Help: "Viewport fetches by outcome (applied, superseded, failed)",
		},
		[]string{"outcome"},
	)

	ViewportRefetchChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shopmap_viewport_refetch_checks_total",
			Help: "Viewport containment checks by decision",
		},
		[]string{"decision"},
	)
)
