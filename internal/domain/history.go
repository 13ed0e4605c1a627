package domain

import "time"

// QueryHistoryEntry mirrors one record of the service's query history.
type QueryHistoryEntry struct {
	Query     string       `json:"query"`
	Metrics   QueryMetrics `json:"metrics"`
	Timestamp *time.Time   `json:"timestamp,omitempty"`
}

type QueryMetrics struct {
	CacheHit       bool    `json:"cache_hit"`
	ResponseTimeMs float64 `json:"response_time_ms"`
}

// HealthStatus is the body of the health probe.
type HealthStatus struct {
	Status string `json:"status"`
}

const HealthUnknown = "unknown"
