// Package metrics 定义推荐服务的 Prometheus 指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP
	RequestCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "app_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)

	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "app_request_latency_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// 推荐
	RecommendationRequests = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_requests_total",
			Help: "Total number of recommendation requests",
		},
	)

	RecommendationType = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_type_count",
			Help: "Recommendation requests by visitor segment",
		},
		[]string{"user_type"},
	)

	RecommendationLength = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_length",
			Help:    "Length of returned recommendation lists",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
		},
	)

	// 相似商品缓存
	SimilarCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "similar_cache_hits_total",
			Help: "Similar-items cache hits",
		},
	)

	SimilarCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "similar_cache_misses_total",
			Help: "Similar-items cache misses",
		},
	)

	SimilarCacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "similar_cache_entries",
			Help: "Current number of memoized similar-item lists",
		},
	)
)

// ObserveRecommendation 记录一次推荐的分群与结果长度。
func ObserveRecommendation(segment string, length int) {
	RecommendationRequests.Inc()
	RecommendationType.WithLabelValues(segment).Inc()
	RecommendationLength.Observe(float64(length))
}
