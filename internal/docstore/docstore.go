// Package docstore defines the document store collaborators the views
// subscribe to and mutate through, and the local sqlite-backed store.
// Raw documents never leave this package as trees: subscribers get raw
// snapshots and mutators get a Result.
package docstore

import (
	"context"

	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// Snapshot is the full contents of one collection at a sequence
type Snapshot struct {
	Collection types.Collection
	Sequence   int64
	Docs       []models.RawRecord
}

// SnapshotFunc receives every snapshot of a subscription, starting with
// the current state right after subscribing
type SnapshotFunc func(Snapshot)

// ErrorFunc receives store failures for a subscription
type ErrorFunc func(error)

// Unsubscribe stops a subscription. It is safe to call more than once.
type Unsubscribe func()

// Subscriber opens live subscriptions on a collection
type Subscriber interface {
	Subscribe(ctx context.Context, collection types.Collection, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error)
}

// Result reports the outcome of a mutation
type Result struct {
	Success bool
	Error   error
}

// Failed wraps err as an unsuccessful Result
func Failed(err error) Result {
	return Result{Error: err}
}

// Mutator edits single tasks inside project documents.
// An empty parentID creates a root task.
type Mutator interface {
	CreateTask(ctx context.Context, collection types.Collection, projectID types.ProjectID, parentID types.TaskID, task *models.Task) Result
	UpdateTask(ctx context.Context, collection types.Collection, projectID types.ProjectID, task *models.Task) Result
	DeleteTask(ctx context.Context, collection types.Collection, projectID types.ProjectID, taskID types.TaskID) Result
}

// Store is a complete document store backend
type Store interface {
	Subscriber
	Mutator

	// GetProject loads and normalizes one project document
	GetProject(ctx context.Context, collection types.Collection, projectID types.ProjectID) (*models.Project, error)
	// PutProject writes a raw project document as is, replacing any existing one
	PutProject(ctx context.Context, collection types.Collection, doc models.RawRecord) error
	DeleteProject(ctx context.Context, collection types.Collection, projectID types.ProjectID) error
	ListProjects(ctx context.Context, collection types.Collection) (Snapshot, error)
	Close() error
}
