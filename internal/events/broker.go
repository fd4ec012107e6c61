package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thenoetrevino/taskroll/internal/types"
)

var (
	ErrBrokerClosed  = errors.New("event broker closed")
	ErrBroadcastFull = errors.New("broadcast channel full")
)

// listener is a single Listen call registered with the broker
type listener struct {
	collection types.Collection
	send       chan Event
	closeOnce  sync.Once // Ensures send channel is closed only once
}

func (l *listener) close() {
	l.closeOnce.Do(func() {
		close(l.send)
	})
}

// Broker fans change events out to in-process listeners
type Broker struct {
	listeners       map[*listener]bool
	mu              sync.RWMutex
	ctx             context.Context
	cancel          context.CancelFunc
	broadcast       chan Event
	metrics         *Metrics
	sequenceCounter atomic.Int64
	bufferSize      int
	closed          atomic.Bool
	shutdownOnce    sync.Once
}

// NewBroker creates a broker and starts its broadcast loop.
// bufferSize applies to both the broadcast queue and each listener queue.
func NewBroker(bufferSize int) *Broker {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Broker{
		listeners:  make(map[*listener]bool),
		ctx:        ctx,
		cancel:     cancel,
		broadcast:  make(chan Event, bufferSize*4),
		metrics:    NewMetrics(),
		bufferSize: bufferSize,
	}
	go b.broadcastLoop()
	return b
}

// SendEvent queues an event for delivery (non-blocking).
// Events without a sequence get one from the broker's own counter.
func (b *Broker) SendEvent(event Event) error {
	if b.closed.Load() {
		return ErrBrokerClosed
	}
	if event.SequenceID == 0 {
		event.SequenceID = b.sequenceCounter.Add(1)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	b.metrics.IncEventsReceived()
	select {
	case b.broadcast <- event:
		return nil
	default:
		b.metrics.IncEventsDropped()
		return ErrBroadcastFull
	}
}

// Listen registers a listener for collection (empty = all collections).
// The returned channel is closed when ctx is done or the broker closes.
func (b *Broker) Listen(ctx context.Context, collection types.Collection) (<-chan Event, error) {
	if b.closed.Load() {
		return nil, ErrBrokerClosed
	}

	l := &listener{
		collection: collection,
		send:       make(chan Event, b.bufferSize),
	}

	b.mu.Lock()
	b.listeners[l] = true
	count := len(b.listeners)
	b.mu.Unlock()
	b.metrics.SetListeners(int32(count))

	slog.Debug("event listener registered", "collection", collection, "listeners", count)

	go func() {
		select {
		case <-ctx.Done():
		case <-b.ctx.Done():
		}
		b.removeListener(l)
	}()

	return l.send, nil
}

// broadcastLoop distributes events to matching listeners
func (b *Broker) broadcastLoop() {
	for {
		select {
		case <-b.ctx.Done():
			return

		case event := <-b.broadcast:
			b.mu.RLock()
			for l := range b.listeners {
				if !event.Matches(l.collection) {
					continue
				}
				// Non-blocking send - if a listener is slow, skip it
				select {
				case l.send <- event:
					b.metrics.IncEventsSent()
				default:
					b.metrics.IncEventsDropped()
					slog.Warn("listener queue full, event dropped",
						"collection", event.Collection,
						"sequence", event.SequenceID)
				}
			}
			b.mu.RUnlock()
		}
	}
}

// Close stops the broker and closes every listener channel
func (b *Broker) Close() error {
	b.shutdownOnce.Do(func() {
		b.closed.Store(true)
		b.cancel()

		b.mu.Lock()
		for l := range b.listeners {
			l.close()
		}
		b.listeners = make(map[*listener]bool)
		b.mu.Unlock()
		b.metrics.SetListeners(0)
	})
	return nil
}

// Metrics returns a point-in-time snapshot of broker statistics
func (b *Broker) Metrics() MetricsSnapshot {
	return b.metrics.GetSnapshot()
}

func (b *Broker) removeListener(l *listener) {
	b.mu.Lock()
	delete(b.listeners, l)
	count := len(b.listeners)
	b.mu.Unlock()

	l.close()
	b.metrics.SetListeners(int32(count))
}
