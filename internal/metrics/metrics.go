// Package metrics 暴露在 /metrics 的 prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakugabase_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sakugabase_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// 热度榜
	TrendingCandidates = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sakugabase_trending_candidates",
			Help: "Number of candidate clips scored by the last trending request",
		},
	)

	// 播放计数
	ViewsQueued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sakugabase_views_enqueued_total",
			Help: "Total number of view increments accepted by the queue",
		},
	)

	ViewsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sakugabase_views_dropped_total",
			Help: "Total number of view increments dropped because the queue was full",
		},
	)

	ViewsDeduplicated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sakugabase_views_deduplicated_total",
			Help: "Total number of repeat views not counted",
		},
	)

	ViewQueueDelay = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sakugabase_view_queue_delay_seconds",
			Help:    "Time between enqueue and persistence of a view increment",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
	)

	// 审核
	ModerationActions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakugabase_moderation_actions_total",
			Help: "Total number of moderation decisions",
		},
		[]string{"action"},
	)

	// 影响图谱缓存
	GraphCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sakugabase_graph_cache_lookups_total",
			Help: "Influence graph cache lookups by result",
		},
		[]string{"result"},
	)
)
