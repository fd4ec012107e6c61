package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thenoetrevino/taskroll/internal/database"
	"github.com/thenoetrevino/taskroll/internal/events"
	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/normalize"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// LocalStore keeps documents in sqlite and announces changes on an
// in-process broker
type LocalStore struct {
	repo         *database.Repository
	broker       *events.Broker
	publishRetry events.ChangeRetry
	pollInterval time.Duration
}

// LocalOption configures a LocalStore
type LocalOption func(*LocalStore)

// WithPollInterval makes subscriptions also check the collection sequence
// every d, so writes from other processes sharing the database file are
// picked up. Zero disables polling.
func WithPollInterval(d time.Duration) LocalOption {
	return func(s *LocalStore) {
		s.pollInterval = d
	}
}

// NewLocalStore pairs a document repository with a broker
func NewLocalStore(repo *database.Repository, broker *events.Broker, opts ...LocalOption) *LocalStore {
	s := &LocalStore{
		repo:         repo,
		broker:       broker,
		publishRetry: events.DefaultChangeRetry,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ Store = (*LocalStore)(nil)

// Subscribe delivers the current collection state and then a fresh
// snapshot after every change event. Bursts of events are coalesced into
// a single reload.
func (s *LocalStore) Subscribe(ctx context.Context, collection types.Collection, onSnapshot SnapshotFunc, onError ErrorFunc) (Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(ctx)
	changes, err := s.broker.Listen(subCtx, collection)
	if err != nil {
		cancel()
		return nil, events.ClassifyStoreError(collection, err)
	}

	var last int64 = -1
	deliver := func() {
		snap, err := s.ListProjects(subCtx, collection)
		if subCtx.Err() != nil {
			return
		}
		if err != nil {
			onError(events.ClassifyStoreError(collection, err))
			return
		}
		last = snap.Sequence
		onSnapshot(snap)
	}

	go func() {
		var poll <-chan time.Time
		if s.pollInterval > 0 {
			ticker := time.NewTicker(s.pollInterval)
			defer ticker.Stop()
			poll = ticker.C
		}

		deliver()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				drain(changes)
				deliver()
			case <-poll:
				seq, err := s.repo.Sequence(subCtx, string(collection))
				if err != nil {
					if subCtx.Err() == nil {
						onError(events.ClassifyStoreError(collection, err))
					}
					continue
				}
				if seq != last {
					deliver()
				}
			}
		}
	}()

	var once sync.Once
	return func() { once.Do(cancel) }, nil
}

// drain discards queued events; one reload covers all of them
func drain(ch <-chan events.Event) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// ListProjects returns every raw document of a collection
func (s *LocalStore) ListProjects(ctx context.Context, collection types.Collection) (Snapshot, error) {
	docs, seq, err := s.repo.List(ctx, string(collection))
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Collection: collection,
		Sequence:   seq,
		Docs:       make([]models.RawRecord, 0, len(docs)),
	}
	for _, doc := range docs {
		rec, err := DecodeDocument(doc.Body)
		if err != nil {
			slog.Warn("skipping undecodable document",
				"collection", collection,
				"id", doc.ID,
				"error", err)
			continue
		}
		snap.Docs = append(snap.Docs, rec)
	}
	return snap, nil
}

// GetProject loads and normalizes a single project
func (s *LocalStore) GetProject(ctx context.Context, collection types.Collection, projectID types.ProjectID) (*models.Project, error) {
	doc, err := s.repo.Get(ctx, string(collection), string(projectID))
	if err != nil {
		return nil, s.notFound(err, projectID)
	}
	rec, err := DecodeDocument(doc.Body)
	if err != nil {
		return nil, err
	}
	project, warnings, err := normalize.NormalizeProject(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	LogWarnings(collection, warnings)
	if project.Kind == "" {
		project.Kind = collection
	}
	return project, nil
}

// PutProject stores a raw project document, replacing any existing one
func (s *LocalStore) PutProject(ctx context.Context, collection types.Collection, doc models.RawRecord) error {
	id, err := DocumentID(doc)
	if err != nil {
		return err
	}
	body, err := EncodeDocument(doc)
	if err != nil {
		return err
	}
	seq, err := s.repo.Put(ctx, string(collection), string(id), body, database.AnyVersion)
	if err != nil {
		return err
	}
	s.publish(ctx, events.EventDocumentChanged, collection, id, seq)
	return nil
}

// DeleteProject removes a project document
func (s *LocalStore) DeleteProject(ctx context.Context, collection types.Collection, projectID types.ProjectID) error {
	seq, err := s.repo.Delete(ctx, string(collection), string(projectID))
	if err != nil {
		return s.notFound(err, projectID)
	}
	s.publish(ctx, events.EventDocumentDeleted, collection, projectID, seq)
	return nil
}

// CreateTask inserts a task under parentID (or as a root)
func (s *LocalStore) CreateTask(ctx context.Context, collection types.Collection, projectID types.ProjectID, parentID types.TaskID, task *models.Task) Result {
	return s.mutate(ctx, collection, projectID, InsertTask(parentID, task))
}

// UpdateTask replaces a task's own fields, keeping its subtree
func (s *LocalStore) UpdateTask(ctx context.Context, collection types.Collection, projectID types.ProjectID, task *models.Task) Result {
	return s.mutate(ctx, collection, projectID, ReplaceTask(task))
}

// DeleteTask removes a task and its subtree
func (s *LocalStore) DeleteTask(ctx context.Context, collection types.Collection, projectID types.ProjectID, taskID types.TaskID) Result {
	return s.mutate(ctx, collection, projectID, RemoveTask(taskID))
}

// Close releases the database
func (s *LocalStore) Close() error {
	return s.repo.Close()
}

// mutate is an optimistic read-modify-write on one project document
func (s *LocalStore) mutate(ctx context.Context, collection types.Collection, projectID types.ProjectID, edit EditFunc) Result {
	for attempt := 0; attempt < MaxConflictRetries; attempt++ {
		doc, err := s.repo.Get(ctx, string(collection), string(projectID))
		if err != nil {
			return Failed(s.notFound(err, projectID))
		}
		raw, err := DecodeDocument(doc.Body)
		if err != nil {
			return Failed(err)
		}
		updated, err := ApplyEdit(collection, raw, edit)
		if err != nil {
			return Failed(err)
		}
		body, err := EncodeDocument(updated)
		if err != nil {
			return Failed(err)
		}

		seq, err := s.repo.Put(ctx, string(collection), string(projectID), body, doc.Version)
		if errors.Is(err, database.ErrVersionConflict) {
			slog.Debug("project changed during mutation, retrying",
				"collection", collection,
				"project_id", projectID,
				"attempt", attempt+1)
			continue
		}
		if err != nil {
			return Failed(err)
		}

		s.publish(ctx, events.EventDocumentChanged, collection, projectID, seq)
		return Result{Success: true}
	}
	return Failed(fmt.Errorf("%w: %s/%s", ErrConflict, collection, projectID))
}

func (s *LocalStore) publish(ctx context.Context, kind events.EventType, collection types.Collection, id types.ProjectID, seq int64) {
	// failures are logged by PublishChange; the write already happened
	_ = events.PublishChange(ctx, s.broker, events.Event{
		Type:       kind,
		Collection: collection,
		DocID:      id,
		SequenceID: seq,
		Timestamp:  time.Now(),
	}, s.publishRetry)
}

func (s *LocalStore) notFound(err error, projectID types.ProjectID) error {
	if errors.Is(err, database.ErrDocumentNotFound) {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	return err
}
