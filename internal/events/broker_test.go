package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/thenoetrevino/taskroll/internal/types"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

func receive(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		if !ok {
			t.Fatal("Expected an event, channel was closed")
		}
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for event")
	}
	return Event{}
}

func expectNothing(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case e, ok := <-ch:
		if ok {
			t.Errorf("Expected no event, got %+v", e)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func expectClosed(t *testing.T, ch <-chan Event) {
	t.Helper()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Expected channel to be closed, got an event")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for channel close")
	}
}

// ============================================================================
// Delivery
// ============================================================================

func TestBroker_DeliversToMatchingListeners(t *testing.T) {
	b := NewBroker(8)
	defer b.Close()

	ctx := context.Background()
	projects, err := b.Listen(ctx, "projects")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	initiatives, err := b.Listen(ctx, "initiatives")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	all, err := b.Listen(ctx, "")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	if err := b.SendEvent(Event{Type: EventDocumentChanged, Collection: "projects", DocID: "p1", SequenceID: 7}); err != nil {
		t.Fatalf("SendEvent failed: %v", err)
	}

	got := receive(t, projects)
	if got.DocID != "p1" || got.SequenceID != 7 {
		t.Errorf("Expected p1 at sequence 7, got %+v", got)
	}
	if got.Timestamp.IsZero() {
		t.Error("Expected broker to stamp a timestamp")
	}
	if e := receive(t, all); e.DocID != "p1" {
		t.Errorf("Expected unfiltered listener to get p1, got %+v", e)
	}
	expectNothing(t, initiatives)
}

func TestBroker_StampsSequenceWhenMissing(t *testing.T) {
	b := NewBroker(8)
	defer b.Close()

	ch, err := b.Listen(context.Background(), "")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := b.SendEvent(Event{Type: EventDocumentChanged, Collection: "projects"}); err != nil {
			t.Fatalf("SendEvent failed: %v", err)
		}
	}

	var last int64
	for i := 0; i < 3; i++ {
		e := receive(t, ch)
		if e.SequenceID <= last {
			t.Errorf("Expected increasing sequence, got %d after %d", e.SequenceID, last)
		}
		last = e.SequenceID
	}
}

func TestBroker_ContextCancelClosesListener(t *testing.T) {
	b := NewBroker(8)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := b.Listen(ctx, "projects")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	cancel()
	expectClosed(t, ch)

	deadline := time.Now().Add(2 * time.Second)
	for b.Metrics().Listeners != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if n := b.Metrics().Listeners; n != 0 {
		t.Errorf("Expected 0 listeners after cancel, got %d", n)
	}
}

func TestBroker_Close(t *testing.T) {
	b := NewBroker(8)

	ch, err := b.Listen(context.Background(), "")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	expectClosed(t, ch)

	if err := b.SendEvent(Event{Collection: "projects"}); err != ErrBrokerClosed {
		t.Errorf("Expected ErrBrokerClosed, got %v", err)
	}
	if _, err := b.Listen(context.Background(), ""); err != ErrBrokerClosed {
		t.Errorf("Expected ErrBrokerClosed from Listen, got %v", err)
	}

	// Close is idempotent
	if err := b.Close(); err != nil {
		t.Errorf("Expected second Close to succeed, got %v", err)
	}
}

func TestBroker_SlowListenerDropsEvents(t *testing.T) {
	b := NewBroker(1)
	defer b.Close()

	slow, err := b.Listen(context.Background(), "")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	for i := 0; i < 4; i++ {
		// the broadcast queue holds 4 events for a buffer size of 1
		if err := b.SendEvent(Event{Collection: "projects"}); err != nil {
			t.Fatalf("SendEvent %d failed: %v", i, err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for b.Metrics().EventsDropped == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if b.Metrics().EventsDropped == 0 {
		t.Error("Expected dropped events for a full listener queue")
	}
	receive(t, slow)
}

func TestBroker_ConcurrentPublishers(t *testing.T) {
	b := NewBroker(256)
	defer b.Close()

	ch, err := b.Listen(context.Background(), "")
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				_ = PublishChange(context.Background(), b, Event{Type: EventDocumentChanged, Collection: "projects"}, DefaultChangeRetry)
			}
		}()
	}
	wg.Wait()

	for i := 0; i < 100; i++ {
		receive(t, ch)
	}

	snap := b.Metrics()
	if snap.EventsReceived != 100 {
		t.Errorf("Expected 100 events received, got %d", snap.EventsReceived)
	}
	if snap.EventsSent != 100 {
		t.Errorf("Expected 100 events sent, got %d", snap.EventsSent)
	}
}

// ============================================================================
// Event
// ============================================================================

func TestEvent_Matches(t *testing.T) {
	tests := []struct {
		name   string
		event  Event
		filter string
		want   bool
	}{
		{"same collection", Event{Collection: "projects"}, "projects", true},
		{"other collection", Event{Collection: "initiatives"}, "projects", false},
		{"empty filter", Event{Collection: "initiatives"}, "", true},
		{"collection-wide event", Event{}, "projects", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Matches(types.Collection(tt.filter)); got != tt.want {
				t.Errorf("Expected Matches=%v, got %v", tt.want, got)
			}
		})
	}
}
