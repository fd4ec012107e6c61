package events

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ChangeRetry bounds how hard PublishChange tries to queue a notification
type ChangeRetry struct {
	Attempts  int
	BaseDelay time.Duration
}

// DefaultChangeRetry tries three times, 50ms then 100ms apart
var DefaultChangeRetry = ChangeRetry{Attempts: 3, BaseDelay: 50 * time.Millisecond}

// PublishChange announces that event.DocID reached event.SequenceID.
// Subscribers reload the whole collection on any event, so a lost
// notification only delays them until the next change. A closed publisher
// is final and a done ctx stops the backoff; both return immediately.
// Attempts below one still send once.
func PublishChange(ctx context.Context, pub EventPublisher, event Event, retry ChangeRetry) error {
	if pub == nil {
		return nil
	}
	attempts := max(retry.Attempts, 1)
	delay := retry.BaseDelay
	if delay <= 0 {
		delay = DefaultChangeRetry.BaseDelay
	}

	log := slog.With(
		"event_type", event.Type,
		"collection", event.Collection,
		"doc_id", event.DocID,
		"sequence", event.SequenceID)

	var err error
	for attempt := 1; ; attempt++ {
		if err = pub.SendEvent(event); err == nil {
			if attempt > 1 {
				log.Debug("change published after retry", "attempt", attempt)
			}
			return nil
		}
		if errors.Is(err, ErrBrokerClosed) || attempt == attempts {
			break
		}

		log.Debug("change not queued, retrying",
			"attempt", attempt,
			"retry_delay", delay,
			"error", err)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Debug("change publish abandoned", "error", ctx.Err())
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}

	log.Warn("change notification lost, subscribers catch up on the next one",
		"error", err)
	return err
}
