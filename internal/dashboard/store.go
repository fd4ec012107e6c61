package dashboard

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/thenoetrevino/taskroll/internal/aggregate"
	"github.com/thenoetrevino/taskroll/internal/docstore"
	"github.com/thenoetrevino/taskroll/internal/events"
	"github.com/thenoetrevino/taskroll/internal/normalize"
	"github.com/thenoetrevino/taskroll/internal/types"
)

var (
	ErrAlreadyInitialized = errors.New("aggregation store already initialized")
	ErrTornDown           = errors.New("aggregation store torn down")
	ErrNoSubscriptions    = errors.New("no collections to subscribe to")
)

// Subscription names a collection the store follows
type Subscription struct {
	Collection types.Collection
}

// collectionState is the store's private, mutable view of a collection
type collectionState struct {
	CollectionState
	generation  uint64 // bumped on every resubscribe; older callbacks are ignored
	attempts    int
	unsubscribe docstore.Unsubscribe
	retryTimer  *time.Timer
}

// Store keeps badge counters current from live subscriptions.
// Its zero state (before Init) publishes zero badges and no collections.
type Store struct {
	subscriber docstore.Subscriber
	user       types.UserID
	now        func() time.Time
	retry      RetryPolicy
	logger     *slog.Logger
	metrics    *Metrics

	mu           sync.Mutex
	ctx          context.Context
	cancel       context.CancelFunc
	initialized  bool
	tornDown     bool
	order        []types.Collection
	states       map[types.Collection]*collectionState
	current      Snapshot
	listeners    map[int]func(Snapshot)
	nextListener int
	updates      chan Snapshot

	notifyMu     sync.Mutex
	lastNotified uint64
}

// NewStore creates a store reading from subscriber
func NewStore(subscriber docstore.Subscriber, opts ...Option) *Store {
	s := &Store{
		subscriber: subscriber,
		now:        time.Now,
		retry:      DefaultRetryPolicy,
		logger:     slog.Default(),
		metrics:    NewMetrics(),
		states:     make(map[types.Collection]*collectionState),
		listeners:  make(map[int]func(Snapshot)),
		updates:    make(chan Snapshot, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init opens one subscription per collection. Subscriptions that fail to
// open are marked stale and retried like any other store error.
func (s *Store) Init(ctx context.Context, subs []Subscription) error {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return ErrTornDown
	}
	if s.initialized {
		s.mu.Unlock()
		return ErrAlreadyInitialized
	}

	var pending []types.Collection
	for _, sub := range subs {
		if sub.Collection == "" {
			continue
		}
		if _, dup := s.states[sub.Collection]; dup {
			continue
		}
		s.states[sub.Collection] = &collectionState{
			CollectionState: CollectionState{Collection: sub.Collection},
		}
		s.order = append(s.order, sub.Collection)
		pending = append(pending, sub.Collection)
	}
	if len(pending) == 0 {
		s.mu.Unlock()
		return ErrNoSubscriptions
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.initialized = true
	s.mu.Unlock()

	for _, c := range pending {
		s.subscribe(c, 0)
	}
	return nil
}

// subscribe opens the subscription for c at generation gen. It is called
// without the lock held so a subscriber may deliver synchronously.
func (s *Store) subscribe(c types.Collection, gen uint64) {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return
	}
	ctx := s.ctx
	s.mu.Unlock()

	unsub, err := s.subscriber.Subscribe(ctx, c, s.snapshotHandler(c, gen), s.errorHandler(c, gen))

	s.mu.Lock()
	st := s.states[c]
	if s.tornDown || st == nil || st.generation != gen {
		s.mu.Unlock()
		if unsub != nil {
			unsub()
		}
		return
	}
	if err != nil {
		s.mu.Unlock()
		s.errorHandler(c, gen)(err)
		return
	}
	st.unsubscribe = unsub
	s.mu.Unlock()
	s.metrics.ActiveSubscriptions.Add(1)
}

func (s *Store) snapshotHandler(c types.Collection, gen uint64) docstore.SnapshotFunc {
	return func(snap docstore.Snapshot) {
		s.applySnapshot(c, gen, snap)
	}
}

func (s *Store) errorHandler(c types.Collection, gen uint64) docstore.ErrorFunc {
	return func(err error) {
		s.handleError(c, gen, err)
	}
}

// applySnapshot runs normalize → aggregate for one collection and
// publishes the result. Snapshots at or below the last applied sequence
// are dropped.
func (s *Store) applySnapshot(c types.Collection, gen uint64, snap docstore.Snapshot) {
	s.mu.Lock()
	st := s.states[c]
	if s.tornDown || st == nil || st.generation != gen {
		s.mu.Unlock()
		return
	}

	if st.Loaded && snap.Sequence <= st.Sequence {
		if snap.Sequence == st.Sequence && st.Stale {
			// resubscribed with nothing new: the last-good data is current again
			st.Stale = false
			st.LastError = nil
			st.attempts = 0
			out := s.rebuildLocked()
			s.mu.Unlock()
			s.notify(out)
			return
		}
		s.mu.Unlock()
		s.metrics.SnapshotsDropped.Add(1)
		s.logger.Debug("dropping out-of-order snapshot",
			"collection", c,
			"sequence", snap.Sequence,
			"applied", st.Sequence)
		return
	}

	projects, warnings := normalize.NormalizeSnapshot(c, snap.Docs)
	docstore.LogWarnings(c, warnings)

	now := s.now()
	agg, err := aggregate.Collection(c, projects, s.user, now)
	if err == nil {
		projects, err = cloneProjects(projects)
	}
	if err != nil {
		// fail closed: keep serving the last good state
		st.Stale = true
		st.LastError = err
		out := s.rebuildLocked()
		s.mu.Unlock()
		s.logger.Error("aggregation failed, keeping last good state",
			"collection", c,
			"sequence", snap.Sequence,
			"error", err)
		s.notify(out)
		return
	}

	st.Sequence = snap.Sequence
	st.Projects = projects
	st.Aggregate = agg
	st.Warnings = len(warnings)
	st.Loaded = true
	st.Stale = false
	st.LastError = nil
	st.UpdatedAt = now
	st.attempts = 0
	out := s.rebuildLocked()
	s.mu.Unlock()

	s.metrics.SnapshotsApplied.Add(1)
	s.logger.Debug("snapshot applied",
		"collection", c,
		"sequence", snap.Sequence,
		"projects", len(projects),
		"warnings", len(warnings))
	s.notify(out)
}

// handleError marks the collection stale and schedules a resubscribe
func (s *Store) handleError(c types.Collection, gen uint64, err error) {
	s.mu.Lock()
	st := s.states[c]
	if s.tornDown || st == nil || st.generation != gen {
		s.mu.Unlock()
		return
	}

	se := events.ClassifyStoreError(c, err)
	st.Stale = true
	st.LastError = se
	st.generation++
	old := st.unsubscribe
	st.unsubscribe = nil

	retrying := st.attempts < s.retry.MaxRetries
	var delay time.Duration
	if retrying {
		st.attempts++
		delay = s.retry.Delay(st.attempts)
		next := st.generation
		st.retryTimer = time.AfterFunc(delay, func() {
			s.metrics.Resubscribes.Add(1)
			s.subscribe(c, next)
		})
	}
	attempts := st.attempts
	out := s.rebuildLocked()
	s.mu.Unlock()

	s.metrics.StoreErrors.Add(1)
	if old != nil {
		s.metrics.ActiveSubscriptions.Add(-1)
		old()
	}

	if retrying {
		s.logger.Warn("store error, serving last good state",
			"collection", c,
			"code", se.Code,
			"attempt", attempts,
			"retry_delay", delay,
			"error", err)
	} else {
		s.logger.Error("store error, giving up on subscription",
			"collection", c,
			"code", se.Code,
			"attempts", attempts,
			"error", err)
	}
	s.notify(out)
}

// rebuildLocked recomputes the published snapshot. Callers hold s.mu.
func (s *Store) rebuildLocked() Snapshot {
	next := Snapshot{
		Version:     s.current.Version + 1,
		Collections: make([]CollectionState, 0, len(s.order)),
	}
	aggs := make([]aggregate.CollectionAggregate, 0, len(s.order))
	for _, c := range s.order {
		st := s.states[c]
		next.Collections = append(next.Collections, st.CollectionState)
		if st.Loaded {
			aggs = append(aggs, st.Aggregate)
		}
	}
	next.Badges = Project(aggs...)
	s.current = next

	// keep only the latest snapshot queued
	select {
	case s.updates <- next:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- next:
		default:
		}
	}
	return next
}

// notify calls OnChange listeners in version order
func (s *Store) notify(snap Snapshot) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if snap.Version <= s.lastNotified {
		return
	}
	s.lastNotified = snap.Version

	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return
	}
	fns := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Snapshot returns the current published snapshot
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.current
	out.Collections = slices.Clone(s.current.Collections)
	return out
}

// OnChange registers fn for every published snapshot. The returned
// function removes it.
func (s *Store) OnChange(fn func(Snapshot)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// WaitReady blocks until the published snapshot is Ready or ctx ends.
// On ctx expiry it returns the current snapshot with ctx's error.
func (s *Store) WaitReady(ctx context.Context) (Snapshot, error) {
	ready := make(chan Snapshot, 1)
	cancel := s.OnChange(func(snap Snapshot) {
		if !snap.Ready() {
			return
		}
		select {
		case ready <- snap:
		default:
		}
	})
	defer cancel()

	if snap := s.Snapshot(); snap.Ready() {
		return snap, nil
	}
	select {
	case snap := <-ready:
		return snap, nil
	case <-ctx.Done():
		return s.Snapshot(), ctx.Err()
	}
}

// Updates delivers the latest snapshot whenever it changes. Slow readers
// only see the newest one. The channel closes on Teardown.
func (s *Store) Updates() <-chan Snapshot {
	return s.updates
}

// Metrics returns a point-in-time snapshot of store statistics
func (s *Store) Metrics() MetricsSnapshot {
	return s.metrics.GetSnapshot()
}

// Teardown closes every subscription opened by Init. Callbacks that
// arrive afterwards are ignored. It is safe to call more than once.
func (s *Store) Teardown() {
	s.mu.Lock()
	if s.tornDown {
		s.mu.Unlock()
		return
	}
	s.tornDown = true
	if s.cancel != nil {
		s.cancel()
	}

	var unsubs []docstore.Unsubscribe
	for _, st := range s.states {
		if st.retryTimer != nil {
			st.retryTimer.Stop()
		}
		if st.unsubscribe != nil {
			unsubs = append(unsubs, st.unsubscribe)
			st.unsubscribe = nil
		}
	}
	s.listeners = make(map[int]func(Snapshot))
	close(s.updates)
	s.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	s.metrics.ActiveSubscriptions.Store(0)
	s.logger.Debug("aggregation store torn down", "subscriptions", len(unsubs))
}
