package events

import (
	"time"

	"github.com/thenoetrevino/taskroll/internal/types"
)

// EventType indicates what kind of change occurred
type EventType string

const (
	EventDocumentChanged EventType = "doc_changed"
	EventDocumentDeleted EventType = "doc_deleted"
)

// Event is a document change notification
type Event struct {
	Type       EventType
	Collection types.Collection // which collection was modified
	DocID      types.ProjectID  // empty when the whole collection changed
	SequenceID int64            // per-collection sequence after the change was applied
	Timestamp  time.Time
}

// Matches reports whether a listener filtered on collection should receive
// the event. An empty filter receives everything.
func (e Event) Matches(collection types.Collection) bool {
	return collection == "" || e.Collection == "" || e.Collection == collection
}
