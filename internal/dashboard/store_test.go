package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thenoetrevino/taskroll/internal/aggregate"
	"github.com/thenoetrevino/taskroll/internal/database"
	"github.com/thenoetrevino/taskroll/internal/docstore"
	"github.com/thenoetrevino/taskroll/internal/events"
	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

var fixedNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type fakeSubscription struct {
	onSnapshot docstore.SnapshotFunc
	onError    docstore.ErrorFunc
	closed     bool
}

// fakeSubscriber records subscriptions so tests can drive callbacks by hand
type fakeSubscriber struct {
	mu    sync.Mutex
	subs  map[types.Collection][]*fakeSubscription
	fail  map[types.Collection]error
	calls int
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{
		subs: make(map[types.Collection][]*fakeSubscription),
		fail: make(map[types.Collection]error),
	}
}

func (f *fakeSubscriber) Subscribe(_ context.Context, c types.Collection, onSnapshot docstore.SnapshotFunc, onError docstore.ErrorFunc) (docstore.Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.fail[c]; err != nil {
		return nil, err
	}
	sub := &fakeSubscription{onSnapshot: onSnapshot, onError: onError}
	f.subs[c] = append(f.subs[c], sub)
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		sub.closed = true
	}, nil
}

func (f *fakeSubscriber) latest(c types.Collection) *fakeSubscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := f.subs[c]
	if len(subs) == 0 {
		return nil
	}
	return subs[len(subs)-1]
}

func (f *fakeSubscriber) count(c types.Collection) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[c])
}

func (f *fakeSubscriber) setFail(c types.Collection, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[c] = err
}

func (f *fakeSubscriber) isClosed(sub *fakeSubscription) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return sub.closed
}

// projectDoc is P: A(A1 done, A2 blocked, overdue), B done
func projectDoc(id string) models.RawRecord {
	return models.RawRecord{
		"id":      id,
		"name":    "Project " + id,
		"ownerId": "u1",
		"tasks": []any{
			map[string]any{
				"id": "A", "title": "Draft", "status": "in_progress",
				"assigneeIds": []any{"u1"},
				"dueDate":     "2024-06-15T18:00:00Z",
				"children": []any{
					map[string]any{"id": "A1", "title": "Outline", "status": "done"},
					map[string]any{
						"id": "A2", "title": "Legal", "status": "blocked",
						"assigneeIds": []any{"u1"},
						"dueDate":     "2024-06-10",
					},
				},
			},
			map[string]any{"id": "B", "title": "Publish", "status": "done"},
		},
	}
}

func aggregateFor(projects, open, overdue, critical int) aggregate.CollectionAggregate {
	return aggregate.CollectionAggregate{
		ProjectCount:     projects,
		Open:             open,
		Overdue:          overdue,
		CriticalProjects: critical,
	}
}

func newTestStore(sub docstore.Subscriber, opts ...Option) *Store {
	base := []Option{
		WithUser("u1"),
		WithClock(func() time.Time { return fixedNow }),
		WithRetryPolicy(RetryPolicy{MaxRetries: 3, BaseDelay: 5 * time.Millisecond}),
	}
	return NewStore(sub, append(base, opts...)...)
}

// ============================================================================
// Projector
// ============================================================================

func TestProject_SumsAndVisibility(t *testing.T) {
	b := Project(
		aggregateFor(2, 5, 1, 0),
		aggregateFor(1, 3, 0, 1),
	)

	assert.Equal(t, Badges{Projects: 3, OpenTasks: 8, OverdueTasks: 1, CriticalProjects: 1}, b)

	visible := b.Visible()
	kinds := make([]CounterKind, 0, len(visible))
	for _, c := range visible {
		kinds = append(kinds, c.Kind)
	}
	assert.Equal(t, []CounterKind{CounterProjects, CounterOpenTasks, CounterOverdueTasks, CounterCriticalProjects}, kinds)
	assert.Equal(t, SeverityWarning, visible[2].Severity)
	assert.Equal(t, SeverityCritical, visible[3].Severity)

	assert.Len(t, b.Counters(), 7)
	assert.Empty(t, Project().Visible())
}

// ============================================================================
// Store lifecycle
// ============================================================================

func TestRetryPolicy_Delay(t *testing.T) {
	p := RetryPolicy{MaxRetries: 100, BaseDelay: time.Second}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{5, 16 * time.Second},
		{9, 256 * time.Second},
		{10, DefaultMaxDelay},
		{40, DefaultMaxDelay},
		{100, DefaultMaxDelay},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, p.Delay(tt.attempt), "attempt %d", tt.attempt)
	}

	capped := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second}
	assert.Equal(t, 800*time.Millisecond, capped.Delay(4))
	assert.Equal(t, time.Second, capped.Delay(5))
	assert.Equal(t, time.Second, capped.Delay(64))

	assert.Zero(t, RetryPolicy{}.Delay(3))
}

func TestStore_InitialStateIsZero(t *testing.T) {
	s := newTestStore(newFakeSubscriber())

	snap := s.Snapshot()
	assert.Equal(t, Badges{}, snap.Badges)
	assert.Empty(t, snap.Collections)
	assert.Empty(t, snap.Badges.Visible())
	assert.False(t, snap.Stale())
}

func TestStore_InitErrors(t *testing.T) {
	s := newTestStore(newFakeSubscriber())
	assert.ErrorIs(t, s.Init(context.Background(), nil), ErrNoSubscriptions)

	require.NoError(t, s.Init(context.Background(), []Subscription{{Collection: "projects"}}))
	assert.ErrorIs(t, s.Init(context.Background(), []Subscription{{Collection: "projects"}}), ErrAlreadyInitialized)

	s.Teardown()
	assert.ErrorIs(t, s.Init(context.Background(), []Subscription{{Collection: "projects"}}), ErrTornDown)
}

func TestStore_AppliesSnapshots(t *testing.T) {
	fake := newFakeSubscriber()
	s := newTestStore(fake)
	require.NoError(t, s.Init(context.Background(), []Subscription{{Collection: "projects"}, {Collection: "initiatives"}}))
	defer s.Teardown()

	var seen []uint64
	cancel := s.OnChange(func(snap Snapshot) { seen = append(seen, snap.Version) })
	defer cancel()

	fake.latest("projects").onSnapshot(docstore.Snapshot{
		Collection: "projects",
		Sequence:   1,
		Docs:       []models.RawRecord{projectDoc("P1"), {"name": "missing id"}},
	})
	fake.latest("initiatives").onSnapshot(docstore.Snapshot{
		Collection: "initiatives",
		Sequence:   4,
		Docs:       []models.RawRecord{projectDoc("I1")},
	})

	snap := s.Snapshot()
	assert.Equal(t, Badges{
		Projects:       2,
		OpenTasks:      4,
		OverdueTasks:   2,
		MyOpenTasks:    4,
		MyOverdueTasks: 2,
		MyDueToday:     2,
	}, snap.Badges)

	projects, ok := snap.Collection("projects")
	require.True(t, ok)
	assert.Equal(t, int64(1), projects.Sequence)
	assert.Equal(t, 1, projects.Warnings)
	assert.True(t, projects.Loaded)
	assert.Equal(t, types.Collection("projects"), projects.Projects[0].Kind)
	assert.Len(t, snap.Projects(), 2)
	assert.Len(t, seen, 2)
	assert.Equal(t, int64(2), s.Metrics().SnapshotsApplied)
}

func TestStore_DropsOlderAndEqualSequences(t *testing.T) {
	fake := newFakeSubscriber()
	s := newTestStore(fake)
	require.NoError(t, s.Init(context.Background(), []Subscription{{Collection: "projects"}}))
	defer s.Teardown()

	sub := fake.latest("projects")
	sub.onSnapshot(docstore.Snapshot{Collection: "projects", Sequence: 2, Docs: []models.RawRecord{projectDoc("P1"), projectDoc("P2")}})
	sub.onSnapshot(docstore.Snapshot{Collection: "projects", Sequence: 1, Docs: []models.RawRecord{projectDoc("P1")}})
	sub.onSnapshot(docstore.Snapshot{Collection: "projects", Sequence: 2, Docs: nil})

	snap := s.Snapshot()
	assert.Equal(t, 2, snap.Badges.Projects)
	assert.Equal(t, int64(2), s.Metrics().SnapshotsDropped)

	sub.onSnapshot(docstore.Snapshot{Collection: "projects", Sequence: 3, Docs: nil})
	assert.Equal(t, 0, s.Snapshot().Badges.Projects)
}

func TestStore_SnapshotIsIsolatedFromConsumers(t *testing.T) {
	fake := newFakeSubscriber()
	s := newTestStore(fake)
	require.NoError(t, s.Init(context.Background(), []Subscription{{Collection: "projects"}}))
	defer s.Teardown()

	fake.latest("projects").onSnapshot(docstore.Snapshot{Collection: "projects", Sequence: 1, Docs: []models.RawRecord{projectDoc("P1")}})

	first := s.Snapshot()
	first.Projects()[0].Tasks[0].Title = "mutated by a consumer"
	first.Collections[0].Sequence = 99

	again := s.Snapshot()
	state, _ := again.Collection("projects")
	assert.Equal(t, int64(1), state.Sequence)

	fake.latest("projects").onSnapshot(docstore.Snapshot{Collection: "projects", Sequence: 2, Docs: []models.RawRecord{projectDoc("P1")}})
	assert.Equal(t, "Draft", s.Snapshot().Projects()[0].Tasks[0].Title)
}

func TestStore_StoreErrorKeepsLastGoodAndResubscribes(t *testing.T) {
	fake := newFakeSubscriber()
	s := newTestStore(fake)
	require.NoError(t, s.Init(context.Background(), []Subscription{{Collection: "projects"}}))
	defer s.Teardown()

	first := fake.latest("projects")
	first.onSnapshot(docstore.Snapshot{Collection: "projects", Sequence: 3, Docs: []models.RawRecord{projectDoc("P1")}})

	first.onError(errors.New("connection reset"))

	snap := s.Snapshot()
	assert.True(t, snap.Stale())
	assert.Equal(t, 1, snap.Badges.Projects, "last good data is kept")
	state, _ := snap.Collection("projects")
	var se *events.StoreError
	require.ErrorAs(t, state.LastError, &se)
	assert.Equal(t, events.ErrStoreUnavailable, se.Code)
	assert.True(t, fake.isClosed(first))

	require.Eventually(t, func() bool { return fake.count("projects") == 2 }, 2*time.Second, 5*time.Millisecond)
	second := fake.latest("projects")

	// callbacks from the dead subscription are ignored
	first.onSnapshot(docstore.Snapshot{Collection: "projects", Sequence: 10, Docs: nil})
	assert.Equal(t, 1, s.Snapshot().Badges.Projects)

	// same sequence after resubscribing clears the stale flag
	second.onSnapshot(docstore.Snapshot{Collection: "projects", Sequence: 3, Docs: []models.RawRecord{projectDoc("P1")}})
	assert.False(t, s.Snapshot().Stale())

	second.onSnapshot(docstore.Snapshot{Collection: "projects", Sequence: 4, Docs: []models.RawRecord{projectDoc("P1"), projectDoc("P2")}})
	assert.Equal(t, 2, s.Snapshot().Badges.Projects)

	require.Eventually(t, func() bool { return s.Metrics().ActiveSubscriptions == 1 }, time.Second, 5*time.Millisecond)
	m := s.Metrics()
	assert.Equal(t, int64(1), m.StoreErrors)
	assert.Equal(t, int64(1), m.Resubscribes)
}

func TestStore_GivesUpAfterMaxRetries(t *testing.T) {
	fake := newFakeSubscriber()
	fake.setFail("projects", errors.New("dial tcp: connection refused"))
	s := newTestStore(fake, WithRetryPolicy(RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond}))
	require.NoError(t, s.Init(context.Background(), []Subscription{{Collection: "projects"}}))
	defer s.Teardown()

	// initial attempt plus two retries
	require.Eventually(t, func() bool { return s.Metrics().StoreErrors == 3 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	fake.mu.Lock()
	calls := fake.calls
	fake.mu.Unlock()
	assert.Equal(t, 3, calls)

	snap := s.Snapshot()
	assert.True(t, snap.Stale())
	assert.Equal(t, Badges{}, snap.Badges)
	assert.Equal(t, int64(2), s.Metrics().Resubscribes)
}

func TestStore_Teardown(t *testing.T) {
	fake := newFakeSubscriber()
	s := newTestStore(fake)
	require.NoError(t, s.Init(context.Background(), []Subscription{{Collection: "projects"}, {Collection: "initiatives"}}))

	calls := 0
	s.OnChange(func(Snapshot) { calls++ })

	projects := fake.latest("projects")
	initiatives := fake.latest("initiatives")
	projects.onSnapshot(docstore.Snapshot{Collection: "projects", Sequence: 1, Docs: []models.RawRecord{projectDoc("P1")}})
	require.Equal(t, 1, calls)

	s.Teardown()
	s.Teardown()

	assert.True(t, fake.isClosed(projects))
	assert.True(t, fake.isClosed(initiatives))

	// late callbacks are ignored
	projects.onSnapshot(docstore.Snapshot{Collection: "projects", Sequence: 2, Docs: nil})
	initiatives.onError(errors.New("late"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, s.Snapshot().Badges.Projects)
	assert.Equal(t, int32(0), s.Metrics().ActiveSubscriptions)

	// the update channel drains and closes
	for range s.Updates() {
	}
}

func TestStore_UpdatesKeepsLatest(t *testing.T) {
	fake := newFakeSubscriber()
	s := newTestStore(fake)
	require.NoError(t, s.Init(context.Background(), []Subscription{{Collection: "projects"}}))
	defer s.Teardown()

	sub := fake.latest("projects")
	for seq := int64(1); seq <= 3; seq++ {
		docs := make([]models.RawRecord, 0, seq)
		for i := int64(0); i < seq; i++ {
			docs = append(docs, projectDoc(string(rune('a'+i))))
		}
		sub.onSnapshot(docstore.Snapshot{Collection: "projects", Sequence: seq, Docs: docs})
	}

	select {
	case snap := <-s.Updates():
		assert.Equal(t, 3, snap.Badges.Projects)
	case <-time.After(time.Second):
		t.Fatal("expected a queued update")
	}
}

// ============================================================================
// Readiness
// ============================================================================

func TestSnapshot_Ready(t *testing.T) {
	assert.False(t, Snapshot{}.Ready())
	assert.False(t, Snapshot{Collections: []CollectionState{{Loaded: true}, {}}}.Ready())
	assert.True(t, Snapshot{Collections: []CollectionState{{Loaded: true}, {Stale: true}}}.Ready())
}

func TestStore_WaitReady(t *testing.T) {
	fake := newFakeSubscriber()
	s := newTestStore(fake)
	require.NoError(t, s.Init(context.Background(), []Subscription{{Collection: "projects"}, {Collection: "initiatives"}}))
	defer s.Teardown()

	done := make(chan Snapshot, 1)
	go func() {
		snap, err := s.WaitReady(context.Background())
		assert.NoError(t, err)
		done <- snap
	}()

	fake.latest("projects").onSnapshot(docstore.Snapshot{Collection: "projects", Sequence: 1, Docs: []models.RawRecord{projectDoc("P1")}})
	select {
	case <-done:
		t.Fatal("WaitReady returned before every collection reported")
	case <-time.After(20 * time.Millisecond):
	}

	fake.latest("initiatives").onError(errors.New("permission denied"))
	select {
	case snap := <-done:
		assert.True(t, snap.Ready())
		assert.True(t, snap.Stale())
		assert.Equal(t, 1, snap.Badges.Projects)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitReady did not return once every collection reported")
	}

	// already ready: returns immediately
	snap, err := s.WaitReady(context.Background())
	require.NoError(t, err)
	assert.True(t, snap.Ready())
}

func TestStore_WaitReadyTimesOut(t *testing.T) {
	s := newTestStore(newFakeSubscriber())
	require.NoError(t, s.Init(context.Background(), []Subscription{{Collection: "projects"}}))
	defer s.Teardown()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	snap, err := s.WaitReady(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, snap.Ready())
}

// ============================================================================
// With a real document store
// ============================================================================

func TestStore_WithLocalStore(t *testing.T) {
	db, err := database.InitDB(context.Background(), database.MemoryPath)
	require.NoError(t, err)
	broker := events.NewBroker(16)
	local := docstore.NewLocalStore(database.NewRepository(db), broker)
	defer local.Close()
	defer broker.Close()

	ctx := context.Background()
	require.NoError(t, local.PutProject(ctx, "projects", projectDoc("P1")))

	s := newTestStore(local)
	require.NoError(t, s.Init(ctx, []Subscription{{Collection: "projects"}}))
	defer s.Teardown()

	require.Eventually(t, func() bool { return s.Snapshot().Badges.Projects == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, s.Snapshot().Badges.OpenTasks)

	res := local.CreateTask(ctx, "projects", "P1", "", &models.Task{ID: "C", Title: "Follow up", Status: models.StatusToDo})
	require.True(t, res.Success)

	require.Eventually(t, func() bool { return s.Snapshot().Badges.OpenTasks == 3 }, 2*time.Second, 10*time.Millisecond)
}
