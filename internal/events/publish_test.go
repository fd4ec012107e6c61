package events

import (
	"context"
	"errors"
	"testing"
	"time"
)

// flakyPublisher fails the first failFor sends with err
type flakyPublisher struct {
	failFor int
	err     error
	sent    []Event
	calls   int
}

func (p *flakyPublisher) SendEvent(event Event) error {
	p.calls++
	if p.calls <= p.failFor {
		return p.err
	}
	p.sent = append(p.sent, event)
	return nil
}

func change(seq int64) Event {
	return Event{Type: EventDocumentChanged, Collection: "projects", DocID: "p1", SequenceID: seq}
}

var fastRetry = ChangeRetry{Attempts: 3, BaseDelay: time.Millisecond}

func TestPublishChange(t *testing.T) {
	tests := []struct {
		name      string
		pub       *flakyPublisher
		retry     ChangeRetry
		wantCalls int
		wantErr   error
	}{
		{"first try", &flakyPublisher{}, fastRetry, 1, nil},
		{"queue full then ok", &flakyPublisher{failFor: 2, err: ErrBroadcastFull}, fastRetry, 3, nil},
		{"gives up", &flakyPublisher{failFor: 99, err: ErrBroadcastFull}, fastRetry, 3, ErrBroadcastFull},
		{"closed is final", &flakyPublisher{failFor: 99, err: ErrBrokerClosed}, fastRetry, 1, ErrBrokerClosed},
		{"zero attempts sends once", &flakyPublisher{failFor: 99, err: ErrBroadcastFull}, ChangeRetry{}, 1, ErrBroadcastFull},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := PublishChange(context.Background(), tt.pub, change(7), tt.retry)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected error %v, got %v", tt.wantErr, err)
			}
			if tt.pub.calls != tt.wantCalls {
				t.Errorf("Expected %d sends, got %d", tt.wantCalls, tt.pub.calls)
			}
			if tt.wantErr == nil && (len(tt.pub.sent) != 1 || tt.pub.sent[0].SequenceID != 7) {
				t.Errorf("Expected sequence 7 delivered once, got %+v", tt.pub.sent)
			}
		})
	}
}

func TestPublishChange_NilPublisher(t *testing.T) {
	if err := PublishChange(context.Background(), nil, change(1), fastRetry); err != nil {
		t.Errorf("Expected nil error without a publisher, got %v", err)
	}
}

func TestPublishChange_Backoff(t *testing.T) {
	pub := &flakyPublisher{failFor: 2, err: ErrBroadcastFull}

	start := time.Now()
	err := PublishChange(context.Background(), pub, change(1), ChangeRetry{Attempts: 3, BaseDelay: 20 * time.Millisecond})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	// 20ms then 40ms
	if elapsed < 60*time.Millisecond {
		t.Errorf("Expected at least 60ms of backoff, got %v", elapsed)
	}
	if elapsed > 500*time.Millisecond {
		t.Errorf("Expected backoff under 500ms, got %v", elapsed)
	}
}

func TestPublishChange_ContextStopsBackoff(t *testing.T) {
	pub := &flakyPublisher{failFor: 99, err: ErrBroadcastFull}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := PublishChange(ctx, pub, change(1), ChangeRetry{Attempts: 5, BaseDelay: time.Second})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if pub.calls != 1 {
		t.Errorf("Expected a single send before giving up, got %d", pub.calls)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("Expected cancellation to skip the backoff")
	}
}

func TestPublishChange_ClosedBroker(t *testing.T) {
	b := NewBroker(4)
	if err := b.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	err := PublishChange(context.Background(), b, change(1), fastRetry)
	if !errors.Is(err, ErrBrokerClosed) {
		t.Errorf("Expected ErrBrokerClosed, got %v", err)
	}
}
