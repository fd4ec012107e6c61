// Package overview holds the cross-project commands: badge counters,
// the current user's task list and the live watch stream.
package overview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/thenoetrevino/taskroll/internal/cli"
	"github.com/thenoetrevino/taskroll/internal/cli/styles"
	"github.com/thenoetrevino/taskroll/internal/dashboard"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// DefaultReadyTimeout bounds how long badges waits for the first load
const DefaultReadyTimeout = 10 * time.Second

// BadgesCmd returns the badges command
func BadgesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "badges",
		Short: "Show dashboard counters across every watched collection",
		Long: `Load every watched collection once and print the dashboard counters:
projects, open and overdue tasks, critical projects, and the current user's
open, overdue and due-today tasks.

Collections that fail to load are reported as stale; counters then reflect
only the collections that loaded. When --timeout runs out first, the
counters loaded so far are shown with the rest marked as still loading.`,
		RunE: runBadges,
	}

	cmd.Flags().Bool("all", false, "Show zero counters too")
	cmd.Flags().Duration("timeout", DefaultReadyTimeout, "How long to wait for collections to load")
	cli.AddOutputFlags(cmd, "Minimal output (kind=value per line)")

	return cmd
}

func runBadges(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.FormatterFor(cmd)
	all, _ := cmd.Flags().GetBool("all")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	cliInstance, err := cli.GetCLIFromContext(ctx)
	if err != nil {
		return formatter.Fail(err, "")
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Error("failed to close CLI", "error", err)
		}
	}()

	ds, err := cliInstance.App.StartDashboard(ctx)
	if err != nil {
		return formatter.Fail(err, "Set TASKROLL_COLLECTIONS to the collections to watch")
	}
	defer ds.Teardown()

	snap, timedOut, err := waitForBadges(ctx, ds, timeout)
	if err != nil {
		return formatter.Fail(err, "")
	}
	if timedOut {
		slog.Warn("collections did not load in time, showing partial counters",
			"timeout", timeout,
			"version", snap.Version)
	}

	counters := snap.Badges.Visible()
	if all {
		counters = snap.Badges.Counters()
	}

	if formatter.Quiet {
		for _, c := range counters {
			fmt.Printf("%s=%d\n", c.Kind, c.Value)
		}
		return nil
	}
	if formatter.JSON {
		result := snapshotJSON(snap, ds.Metrics(), cliInstance.App.User())
		result["timed_out"] = timedOut
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Print(renderBadges(snap, counters, cliInstance.App.User(), cliInstance.App.Now()))
	return nil
}

// waitForBadges waits up to timeout for every collection to load. Running
// out of time is not an error: the snapshot then holds whatever loaded.
func waitForBadges(ctx context.Context, ds *dashboard.Store, timeout time.Duration) (dashboard.Snapshot, bool, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	snap, err := ds.WaitReady(waitCtx)
	if err != nil && ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
		return snap, true, nil
	}
	return snap, false, err
}

// collectionJSON reports the load state of one collection
type collectionJSON struct {
	Collection types.Collection `json:"collection"`
	Sequence   int64            `json:"sequence"`
	Projects   int              `json:"projects"`
	Loaded     bool             `json:"loaded"`
	Stale      bool             `json:"stale"`
	Warnings   int              `json:"warnings"`
	Error      string           `json:"error,omitempty"`
	UpdatedAt  *time.Time       `json:"updated_at,omitempty"`
}

func collectionsJSON(snap dashboard.Snapshot) []collectionJSON {
	out := make([]collectionJSON, 0, len(snap.Collections))
	for _, st := range snap.Collections {
		c := collectionJSON{
			Collection: st.Collection,
			Sequence:   st.Sequence,
			Projects:   len(st.Projects),
			Loaded:     st.Loaded,
			Stale:      st.Stale,
			Warnings:   st.Warnings,
		}
		if st.LastError != nil {
			c.Error = st.LastError.Error()
		}
		if !st.UpdatedAt.IsZero() {
			updated := st.UpdatedAt
			c.UpdatedAt = &updated
		}
		out = append(out, c)
	}
	return out
}

func snapshotJSON(snap dashboard.Snapshot, metrics dashboard.MetricsSnapshot, user types.UserID) map[string]any {
	return map[string]any{
		"success":     true,
		"version":     snap.Version,
		"user":        user,
		"badges":      snap.Badges,
		"counters":    snap.Badges.Counters(),
		"ready":       snap.Ready(),
		"stale":       snap.Stale(),
		"collections": collectionsJSON(snap),
		"metrics":     metrics,
	}
}

func renderBadges(snap dashboard.Snapshot, counters []dashboard.Counter, user types.UserID, now time.Time) string {
	var b strings.Builder
	title := "Dashboard"
	if user != "" {
		title += " for " + string(user)
	}
	b.WriteString(styles.TitleStyle.Render(title) + "\n")

	if len(counters) == 0 {
		b.WriteString(styles.SubtitleStyle.Render("  Nothing to report") + "\n")
	}
	for _, c := range counters {
		b.WriteString("  " + styles.RenderCounter(c) + "\n")
	}

	for _, st := range snap.Collections {
		if !st.Loaded && !st.Stale {
			b.WriteString(styles.WarningStyle.Render(fmt.Sprintf("⋯ %s is still loading", st.Collection)) + "\n")
			continue
		}
		if !st.Stale {
			continue
		}
		line := fmt.Sprintf("⚠ %s is stale", st.Collection)
		if st.Loaded {
			line += " (last updated " + humanize.RelTime(st.UpdatedAt, now, "ago", "from now") + ")"
		} else {
			line += " (never loaded)"
		}
		if st.LastError != nil {
			line += ": " + st.LastError.Error()
		}
		b.WriteString(styles.WarningStyle.Render(line) + "\n")
	}
	return b.String()
}
