package events

import (
	"sync/atomic"
	"time"
)

// Metrics tracks broker statistics using atomic operations for thread-safety
type Metrics struct {
	EventsSent     atomic.Int64
	EventsReceived atomic.Int64
	EventsDropped  atomic.Int64
	Listeners      atomic.Int32
	StartTime      time.Time
}

// NewMetrics creates a new Metrics instance
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime: time.Now(),
	}
}

// IncEventsSent increments the delivered events counter
func (m *Metrics) IncEventsSent() {
	m.EventsSent.Add(1)
}

// IncEventsReceived increments the published events counter
func (m *Metrics) IncEventsReceived() {
	m.EventsReceived.Add(1)
}

// IncEventsDropped increments the dropped events counter
func (m *Metrics) IncEventsDropped() {
	m.EventsDropped.Add(1)
}

// SetListeners sets the current listener count
func (m *Metrics) SetListeners(count int32) {
	m.Listeners.Store(count)
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	EventsSent     int64     `json:"events_sent"`
	EventsReceived int64     `json:"events_received"`
	EventsDropped  int64     `json:"events_dropped"`
	Listeners      int32     `json:"listeners"`
	StartTime      time.Time `json:"start_time"`
	Uptime         string    `json:"uptime"`
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	return MetricsSnapshot{
		EventsSent:     m.EventsSent.Load(),
		EventsReceived: m.EventsReceived.Load(),
		EventsDropped:  m.EventsDropped.Load(),
		Listeners:      m.Listeners.Load(),
		StartTime:      m.StartTime,
		Uptime:         time.Since(m.StartTime).String(),
	}
}
