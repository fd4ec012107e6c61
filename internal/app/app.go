package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/thenoetrevino/taskroll/internal/config"
	"github.com/thenoetrevino/taskroll/internal/dashboard"
	"github.com/thenoetrevino/taskroll/internal/database"
	"github.com/thenoetrevino/taskroll/internal/docstore"
	"github.com/thenoetrevino/taskroll/internal/docstore/redisstore"
	"github.com/thenoetrevino/taskroll/internal/events"
	projectservice "github.com/thenoetrevino/taskroll/internal/services/project"
	taskservice "github.com/thenoetrevino/taskroll/internal/services/task"
	viewservice "github.com/thenoetrevino/taskroll/internal/services/view"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// DefaultPollInterval is used for sqlite subscriptions opened by Open
const DefaultPollInterval = 2 * time.Second

// App holds all application services and provides dependency injection.
// This is the main application container that manages service lifecycles.
type App struct {
	cfg    *config.Config
	store  docstore.Store
	broker *events.Broker // nil unless this App created it
	logger *slog.Logger
	now    func() time.Time

	// Service layer (business logic)
	TaskService    taskservice.Service
	ProjectService projectservice.Service
	ViewService    viewservice.Service
}

// Open builds the store named by cfg and wires every service on top of it
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	ac := appConfig{pollInterval: DefaultPollInterval}
	for _, opt := range opts {
		opt(&ac)
	}

	var (
		store       docstore.Store
		ownedBroker *events.Broker
	)
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		db, err := database.InitDB(ctx, cfg.Store.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		broker := ac.broker
		if broker == nil {
			broker = events.NewBroker(64)
			ownedBroker = broker
		}
		store = docstore.NewLocalStore(database.NewRepository(db), broker, docstore.WithPollInterval(ac.pollInterval))
	case config.BackendRedis:
		rs, err := redisstore.NewRedisStore(cfg.Store.RedisURL, cfg.Store.RedisPrefix)
		if err != nil {
			return nil, err
		}
		store = rs
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownBackend, cfg.Store.Backend)
	}

	a := New(store, cfg, opts...)
	a.broker = ownedBroker
	return a, nil
}

// New creates a new App with all services initialized over store.
// The App takes ownership of store and closes it in Close.
func New(store docstore.Store, cfg *config.Config, opts ...Option) *App {
	ac := appConfig{}
	for _, opt := range opts {
		opt(&ac)
	}
	if ac.logger == nil {
		ac.logger = slog.Default()
	}
	if ac.now == nil {
		ac.now = time.Now
	}
	if cfg == nil {
		cfg = config.Default()
	}

	return &App{
		cfg:            cfg,
		store:          store,
		logger:         ac.logger,
		now:            ac.now,
		TaskService:    taskservice.NewService(store, taskservice.WithClock(ac.now)),
		ProjectService: projectservice.NewService(store),
		ViewService:    viewservice.NewService(ac.now),
	}
}

// Store returns the underlying document store
func (a *App) Store() docstore.Store {
	return a.store
}

// Config returns the configuration the App was built with
func (a *App) Config() *config.Config {
	return a.cfg
}

// User is the configured current user
func (a *App) User() types.UserID {
	return types.UserID(a.cfg.User)
}

// Now reads the App clock
func (a *App) Now() time.Time {
	return a.now()
}

// Collections are the configured watched collections
func (a *App) Collections() []types.Collection {
	out := make([]types.Collection, 0, len(a.cfg.Collections))
	for _, c := range a.cfg.Collections {
		out = append(out, types.Collection(c))
	}
	return out
}

// StartDashboard opens an aggregation store over every watched
// collection. The caller tears it down.
func (a *App) StartDashboard(ctx context.Context) (*dashboard.Store, error) {
	ds := dashboard.NewStore(a.store,
		dashboard.WithUser(a.User()),
		dashboard.WithClock(a.now),
		dashboard.WithLogger(a.logger),
		dashboard.WithRetryPolicy(dashboard.RetryPolicy{
			MaxRetries: a.cfg.Retry.MaxRetries,
			BaseDelay:  a.cfg.Retry.BaseDelay,
			MaxDelay:   a.cfg.Retry.MaxDelay,
		}),
	)

	subs := make([]dashboard.Subscription, 0, len(a.cfg.Collections))
	for _, c := range a.Collections() {
		subs = append(subs, dashboard.Subscription{Collection: c})
	}
	if err := ds.Init(ctx, subs); err != nil {
		ds.Teardown()
		return nil, err
	}
	return ds, nil
}

// Close releases the store and, when the App created it, the broker
func (a *App) Close() error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.broker != nil {
		errs = append(errs, a.broker.Close())
	}
	return errors.Join(errs...)
}
