package events

import (
	"context"

	"github.com/thenoetrevino/taskroll/internal/types"
)

// EventPublisher sends change notifications
type EventPublisher interface {
	SendEvent(event Event) error
}

// EventSource delivers change notifications for a collection until ctx is
// cancelled, at which point the channel is closed
type EventSource interface {
	Listen(ctx context.Context, collection types.Collection) (<-chan Event, error)
}

// Compile-time verification that *Broker implements both sides
var (
	_ EventPublisher = (*Broker)(nil)
	_ EventSource    = (*Broker)(nil)
)
