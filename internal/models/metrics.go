package models

import "time"

// SystemMetrics summarises process counters for the admin status endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	OccurrencesExpanded      uint64    `json:"occurrencesExpanded"`
	ReconciliationFallbacks  uint64    `json:"reconciliationFallbacks"`
	FeedSubscribers          int64     `json:"feedSubscribers"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}
