package dashboard

import (
	"log/slog"
	"time"

	"github.com/thenoetrevino/taskroll/internal/types"
)

// RetryPolicy controls resubscription after a store error.
// Attempt n waits BaseDelay * 2^(n-1), capped at MaxDelay.
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration // DefaultMaxDelay when zero
}

// DefaultMaxDelay caps the backoff of a policy without MaxDelay
const DefaultMaxDelay = 5 * time.Minute

// DefaultRetryPolicy retries 5 times starting at one second
var DefaultRetryPolicy = RetryPolicy{MaxRetries: 5, BaseDelay: time.Second}

// Delay returns the wait before the given attempt (1-based)
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	limit := p.MaxDelay
	if limit <= 0 {
		limit = DefaultMaxDelay
	}
	d := p.BaseDelay
	if d <= 0 {
		return 0
	}
	for i := 1; i < attempt; i++ {
		if d >= limit/2 {
			return limit
		}
		d *= 2
	}
	return min(d, limit)
}

// Option configures a Store
type Option func(*Store)

// WithUser sets the user the "my" counters are computed for
func WithUser(user types.UserID) Option {
	return func(s *Store) {
		s.user = user
	}
}

// WithClock overrides the time source used for overdue and due-today
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithRetryPolicy overrides DefaultRetryPolicy
func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Store) {
		s.retry = p
	}
}

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}
