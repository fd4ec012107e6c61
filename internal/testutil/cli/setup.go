package cli

import (
	"testing"
	"time"

	"github.com/thenoetrevino/taskroll/internal/app"
	"github.com/thenoetrevino/taskroll/internal/config"
	"github.com/thenoetrevino/taskroll/internal/testutil"
)

// Now is the fixed clock every CLI test app runs on
var Now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

// SetupCLITest creates an App over an in-memory store seeded with
// testutil.SampleProject in the "projects" collection. The current user is
// u1. This lives in its own package so service tests can import testutil
// without a cycle through app.
func SetupCLITest(t *testing.T) *app.App {
	t.Helper()

	store := testutil.SetupTestStore(t)
	testutil.SeedProject(t, store, "projects", testutil.SampleProject())

	cfg := config.Default()
	cfg.User = "u1"
	cfg.Retry.BaseDelay = 10 * time.Millisecond

	a := app.New(store, cfg, app.WithClock(func() time.Time { return Now }))
	return a
}
