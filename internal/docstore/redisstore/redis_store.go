// Package redisstore provides a document store backend on Redis.
// Each collection is one hash of id → JSON document, with an INCR
// sequence key and a pub/sub channel announcing every change.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/thenoetrevino/taskroll/internal/docstore"
	"github.com/thenoetrevino/taskroll/internal/events"
	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/normalize"
	"github.com/thenoetrevino/taskroll/internal/types"
)

const (
	// DefaultPrefix namespaces every key the store touches
	DefaultPrefix = "taskroll:"

	// DefaultHealthCheckInterval is how often a subscription pings the
	// server to notice a lost connection
	DefaultHealthCheckInterval = 2 * time.Second
)

// RedisStore implements docstore.Store using Redis
type RedisStore struct {
	client      *redis.Client
	prefix      string
	healthCheck time.Duration
}

// Option configures a RedisStore
type Option func(*RedisStore)

// WithHealthCheckInterval sets how often subscriptions ping the server
func WithHealthCheckInterval(d time.Duration) Option {
	return func(s *RedisStore) {
		if d > 0 {
			s.healthCheck = d
		}
	}
}

var _ docstore.Store = (*RedisStore)(nil)

// NewRedisStore connects to redisURL and verifies the connection
func NewRedisStore(redisURL, prefix string, opts ...Option) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, prefix, opts...), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client, prefix string, opts ...Option) *RedisStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	s := &RedisStore{
		client:      client,
		prefix:      prefix,
		healthCheck: DefaultHealthCheckInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) docsKey(c types.Collection) string    { return s.prefix + "docs:" + string(c) }
func (s *RedisStore) seqKey(c types.Collection) string     { return s.prefix + "seq:" + string(c) }
func (s *RedisStore) channelKey(c types.Collection) string { return s.prefix + "changes:" + string(c) }

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Subscribe listens on the collection's change channel, delivering the
// current state first and a reload after every announced change. A failed
// health ping is reported to onError once; the next sign of life reloads
// the whole collection, since changes announced meanwhile are lost.
func (s *RedisStore) Subscribe(ctx context.Context, collection types.Collection, onSnapshot docstore.SnapshotFunc, onError docstore.ErrorFunc) (docstore.Unsubscribe, error) {
	subCtx, cancel := context.WithCancel(ctx)
	pubsub := s.client.Subscribe(subCtx, s.channelKey(collection))

	// Wait for confirmation so no change between here and the first
	// load is missed
	if _, err := pubsub.Receive(subCtx); err != nil {
		cancel()
		_ = pubsub.Close()
		return nil, events.ClassifyStoreError(collection, fmt.Errorf("subscribe: %w", err))
	}

	// deliver reports whether the reload reached the caller
	deliver := func() bool {
		snap, err := s.ListProjects(subCtx, collection)
		if subCtx.Err() != nil {
			return true
		}
		if err != nil {
			onError(events.ClassifyStoreError(collection, err))
			return false
		}
		onSnapshot(snap)
		return true
	}

	messages := pubsub.ChannelWithSubscriptions(redis.WithChannelHealthCheckInterval(s.healthCheck))
	go func() {
		ticker := time.NewTicker(s.healthCheck)
		defer ticker.Stop()

		connected := deliver()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				if !connected {
					slog.Info("redis subscription recovered", "collection", collection)
				} else if _, resubscribed := msg.(*redis.Subscription); resubscribed {
					slog.Debug("redis subscription reconnected", "collection", collection)
				}
				drain(messages)
				connected = deliver()
			case <-ticker.C:
				err := s.ping(subCtx)
				if subCtx.Err() != nil {
					return
				}
				switch {
				case err != nil && connected:
					connected = false
					slog.Warn("redis subscription lost connection",
						"collection", collection,
						"error", err)
					onError(events.ClassifyStoreError(collection, fmt.Errorf("connection lost: %w", err)))
				case err == nil && !connected:
					slog.Info("redis subscription recovered", "collection", collection)
					connected = deliver()
				}
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if err := pubsub.Close(); err != nil {
				slog.Debug("closing redis subscription", "collection", collection, "error", err)
			}
		})
	}, nil
}

func (s *RedisStore) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.healthCheck)
	defer cancel()
	return s.client.Ping(ctx).Err()
}

func drain(ch <-chan interface{}) {
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

// ListProjects reads the whole collection hash and its sequence atomically
func (s *RedisStore) ListProjects(ctx context.Context, collection types.Collection) (docstore.Snapshot, error) {
	var all *redis.MapStringStringCmd
	var seq *redis.StringCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		all = pipe.HGetAll(ctx, s.docsKey(collection))
		seq = pipe.Get(ctx, s.seqKey(collection))
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return docstore.Snapshot{}, fmt.Errorf("list %s: %w", collection, err)
	}

	snap := docstore.Snapshot{Collection: collection}
	if n, err := seq.Int64(); err == nil {
		snap.Sequence = n
	} else if !errors.Is(err, redis.Nil) {
		return docstore.Snapshot{}, fmt.Errorf("read sequence for %s: %w", collection, err)
	}

	bodies := all.Val()
	ids := make([]string, 0, len(bodies))
	for id := range bodies {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	snap.Docs = make([]models.RawRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := docstore.DecodeDocument([]byte(bodies[id]))
		if err != nil {
			slog.Warn("skipping undecodable document",
				"collection", collection,
				"id", id,
				"error", err)
			continue
		}
		snap.Docs = append(snap.Docs, rec)
	}
	return snap, nil
}

// GetProject loads and normalizes one project
func (s *RedisStore) GetProject(ctx context.Context, collection types.Collection, projectID types.ProjectID) (*models.Project, error) {
	body, err := s.client.HGet(ctx, s.docsKey(collection), string(projectID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", docstore.ErrProjectNotFound, projectID)
	}
	if err != nil {
		return nil, fmt.Errorf("get project %s: %w", projectID, err)
	}
	rec, err := docstore.DecodeDocument([]byte(body))
	if err != nil {
		return nil, err
	}
	project, warnings, err := normalize.NormalizeProject(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", docstore.ErrInvalidDocument, err)
	}
	docstore.LogWarnings(collection, warnings)
	if project.Kind == "" {
		project.Kind = collection
	}
	return project, nil
}

// PutProject stores a raw document as is
func (s *RedisStore) PutProject(ctx context.Context, collection types.Collection, doc models.RawRecord) error {
	id, err := docstore.DocumentID(doc)
	if err != nil {
		return err
	}
	body, err := docstore.EncodeDocument(doc)
	if err != nil {
		return err
	}

	var seq *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.docsKey(collection), string(id), body)
		seq = pipe.Incr(ctx, s.seqKey(collection))
		return nil
	})
	if err != nil {
		return fmt.Errorf("put project %s: %w", id, err)
	}
	s.announce(ctx, collection, seq.Val())
	return nil
}

// DeleteProject removes a project document
func (s *RedisStore) DeleteProject(ctx context.Context, collection types.Collection, projectID types.ProjectID) error {
	var removed *redis.IntCmd
	var seq *redis.IntCmd
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.HExists(ctx, s.docsKey(collection), string(projectID)).Result()
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", docstore.ErrProjectNotFound, projectID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			removed = pipe.HDel(ctx, s.docsKey(collection), string(projectID))
			seq = pipe.Incr(ctx, s.seqKey(collection))
			return nil
		})
		return err
	}, s.docsKey(collection))
	if err != nil {
		if errors.Is(err, docstore.ErrProjectNotFound) {
			return err
		}
		return fmt.Errorf("delete project %s: %w", projectID, err)
	}
	if removed.Val() > 0 {
		s.announce(ctx, collection, seq.Val())
	}
	return nil
}

// CreateTask inserts a task under parentID (or as a root)
func (s *RedisStore) CreateTask(ctx context.Context, collection types.Collection, projectID types.ProjectID, parentID types.TaskID, task *models.Task) docstore.Result {
	return s.mutate(ctx, collection, projectID, docstore.InsertTask(parentID, task))
}

// UpdateTask replaces a task's own fields, keeping its subtree
func (s *RedisStore) UpdateTask(ctx context.Context, collection types.Collection, projectID types.ProjectID, task *models.Task) docstore.Result {
	return s.mutate(ctx, collection, projectID, docstore.ReplaceTask(task))
}

// DeleteTask removes a task and its subtree
func (s *RedisStore) DeleteTask(ctx context.Context, collection types.Collection, projectID types.ProjectID, taskID types.TaskID) docstore.Result {
	return s.mutate(ctx, collection, projectID, docstore.RemoveTask(taskID))
}

// mutate runs the edit inside WATCH/MULTI on the collection hash, retrying
// when another writer got there first
func (s *RedisStore) mutate(ctx context.Context, collection types.Collection, projectID types.ProjectID, edit docstore.EditFunc) docstore.Result {
	key := s.docsKey(collection)

	for attempt := 0; attempt < docstore.MaxConflictRetries; attempt++ {
		var seq *redis.IntCmd
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			body, err := tx.HGet(ctx, key, string(projectID)).Result()
			if errors.Is(err, redis.Nil) {
				return fmt.Errorf("%w: %s", docstore.ErrProjectNotFound, projectID)
			}
			if err != nil {
				return err
			}
			raw, err := docstore.DecodeDocument([]byte(body))
			if err != nil {
				return err
			}
			updated, err := docstore.ApplyEdit(collection, raw, edit)
			if err != nil {
				return err
			}
			encoded, err := docstore.EncodeDocument(updated)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, string(projectID), encoded)
				seq = pipe.Incr(ctx, s.seqKey(collection))
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			slog.Debug("project changed during mutation, retrying",
				"collection", collection,
				"project_id", projectID,
				"attempt", attempt+1)
			continue
		}
		if err != nil {
			return docstore.Failed(err)
		}

		s.announce(ctx, collection, seq.Val())
		return docstore.Result{Success: true}
	}
	return docstore.Failed(fmt.Errorf("%w: %s/%s", docstore.ErrConflict, collection, projectID))
}

// announce publishes the new sequence; subscribers reload on any message
func (s *RedisStore) announce(ctx context.Context, collection types.Collection, seq int64) {
	if err := s.client.Publish(ctx, s.channelKey(collection), strconv.FormatInt(seq, 10)).Err(); err != nil {
		slog.Warn("failed to announce change",
			"collection", collection,
			"sequence", seq,
			"error", err)
	}
}
