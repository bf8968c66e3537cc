package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	fetchTotal  atomic.Uint64
	fetchErrors atomic.Uint64

	// Fetch latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	activeSessions atomic.Int32
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordFetch records one completed refresh cycle with its latency.
func (m *Metrics) RecordFetch(latency time.Duration) {
	m.fetchTotal.Add(1)
	m.latencySumNs.Add(latency.Nanoseconds())
	m.latencyCount.Add(1)
}

// RecordFetchError records a failed refresh cycle.
func (m *Metrics) RecordFetchError() {
	m.fetchErrors.Add(1)
}

// IncrementSessions increments connected bridge sessions by 1.
func (m *Metrics) IncrementSessions() {
	m.activeSessions.Add(1)
}

// DecrementSessions decrements connected bridge sessions by 1.
func (m *Metrics) DecrementSessions() {
	m.activeSessions.Add(-1)
}

// MetricsSnapshot is a point-in-time view for the metrics endpoint
type MetricsSnapshot struct {
	FetchTotal        uint64  `json:"fetch_total"`
	FetchErrors       uint64  `json:"fetch_errors"`
	AvgFetchLatencyMs float64 `json:"avg_fetch_latency_ms"`
	ActiveSessions    int32   `json:"active_sessions"`
}

// Snapshot returns the current metric values
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{
		FetchTotal:     m.fetchTotal.Load(),
		FetchErrors:    m.fetchErrors.Load(),
		ActiveSessions: m.activeSessions.Load(),
	}
	if count := m.latencyCount.Load(); count > 0 {
		snap.AvgFetchLatencyMs = float64(m.latencySumNs.Load()) / float64(count) / 1e6
	}
	return snap
}
