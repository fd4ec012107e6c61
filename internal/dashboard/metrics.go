package dashboard

import (
	"sync/atomic"
	"time"
)

// Metrics tracks store statistics using atomic operations for thread-safety
type Metrics struct {
	SnapshotsApplied    atomic.Int64
	SnapshotsDropped    atomic.Int64
	StoreErrors         atomic.Int64
	Resubscribes        atomic.Int64
	ActiveSubscriptions atomic.Int32
	StartTime           time.Time
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime: time.Now(),
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	SnapshotsApplied    int64     `json:"snapshots_applied"`
	SnapshotsDropped    int64     `json:"snapshots_dropped"`
	StoreErrors         int64     `json:"store_errors"`
	Resubscribes        int64     `json:"resubscribes"`
	ActiveSubscriptions int32     `json:"active_subscriptions"`
	StartTime           time.Time `json:"start_time"`
	Uptime              string    `json:"uptime"`
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		SnapshotsApplied:    m.SnapshotsApplied.Load(),
		SnapshotsDropped:    m.SnapshotsDropped.Load(),
		StoreErrors:         m.StoreErrors.Load(),
		Resubscribes:        m.Resubscribes.Load(),
		ActiveSubscriptions: m.ActiveSubscriptions.Load(),
		StartTime:           m.StartTime,
		Uptime:              time.Since(m.StartTime).String(),
	}
}
