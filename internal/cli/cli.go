package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/thenoetrevino/taskroll/internal/app"
	"github.com/thenoetrevino/taskroll/internal/cli/styles"
	"github.com/thenoetrevino/taskroll/internal/config"
	"github.com/thenoetrevino/taskroll/internal/logging"
)

// CLI represents the CLI application context
type CLI struct {
	App    *app.App // Application container with services
	Config *config.Config

	owned     bool // App was opened here and is closed by Close
	logCloser io.Closer
}

// NewCLI loads configuration, sets up logging and styles, and opens the
// configured store
func NewCLI(ctx context.Context) (*CLI, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logCloser, err := logging.Init(cfg.SlogLevel())
	if err != nil {
		// logging is best effort; commands still run
		logging.Discard()
	}
	styles.Init(cfg.ColorScheme)

	application, err := app.Open(ctx, cfg)
	if err != nil {
		if logCloser != nil {
			_ = logCloser.Close()
		}
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	slog.Debug("cli initialized", "backend", cfg.Store.Backend, "collections", cfg.Collections)
	return &CLI{
		App:       application,
		Config:    cfg,
		owned:     true,
		logCloser: logCloser,
	}, nil
}

// GetCLIFromContext returns a CLI over the App carried by ctx, or opens a
// new one from configuration
func GetCLIFromContext(ctx context.Context) (*CLI, error) {
	if a, ok := app.FromContext(ctx); ok {
		styles.Init(a.Config().ColorScheme)
		return &CLI{App: a, Config: a.Config()}, nil
	}
	return NewCLI(ctx)
}

// Close cleans up CLI resources. An App taken from the context is left open.
func (c *CLI) Close() error {
	if !c.owned {
		return nil
	}
	var errs []error
	errs = append(errs, c.App.Close())
	if c.logCloser != nil {
		errs = append(errs, c.logCloser.Close())
	}
	return errors.Join(errs...)
}
