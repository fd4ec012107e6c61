package app

import (
	"log/slog"
	"time"

	"github.com/thenoetrevino/taskroll/internal/events"
)

// Option is a functional option for configuring App initialization
type Option func(*appConfig)

// appConfig holds the configuration for App initialization
type appConfig struct {
	broker       *events.Broker
	logger       *slog.Logger
	now          func() time.Time
	pollInterval time.Duration
}

// WithEventBroker sets the broker the local store announces changes on
func WithEventBroker(b *events.Broker) Option {
	return func(cfg *appConfig) {
		cfg.broker = b
	}
}

// WithLogger sets the logger for the application
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *appConfig) {
		cfg.logger = logger
	}
}

// WithClock sets the time source for services and the dashboard
func WithClock(now func() time.Time) Option {
	return func(cfg *appConfig) {
		cfg.now = now
	}
}

// WithPollInterval makes sqlite subscriptions notice writes from other
// processes. Zero disables polling.
func WithPollInterval(d time.Duration) Option {
	return func(cfg *appConfig) {
		cfg.pollInterval = d
	}
}
