package overview

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/taskroll/internal/cli"
	"github.com/thenoetrevino/taskroll/internal/cli/styles"
	"github.com/thenoetrevino/taskroll/internal/dashboard"
)

// WatchCmd returns the watch command
func WatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream dashboard counters as collections change",
		Long: `Subscribe to every watched collection and print the dashboard counters
each time they change, until interrupted. With --json each update is one
JSON object per line.`,
		RunE: runWatch,
	}

	cmd.Flags().Int("count", 0, "Exit after this many updates (0 = until interrupted)")
	cli.AddOutputFlags(cmd, "Minimal output (kind=value pairs on one line)")

	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.FormatterFor(cmd)
	count, _ := cmd.Flags().GetInt("count")

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

	enc := json.NewEncoder(os.Stdout)
	var last dashboard.Badges
	printed := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-ds.Updates():
			if !ok {
				return nil
			}
			// wait for the first full load, then only print real changes
			if !snap.Ready() || (printed > 0 && snap.Badges == last && !snap.Stale()) {
				continue
			}
			last = snap.Badges

			switch {
			case formatter.Quiet:
				pairs := make([]string, 0, 7)
				for _, c := range snap.Badges.Counters() {
					pairs = append(pairs, fmt.Sprintf("%s=%d", c.Kind, c.Value))
				}
				fmt.Println(strings.Join(pairs, " "))
			case formatter.JSON:
				if err := enc.Encode(snapshotJSON(snap, ds.Metrics(), cliInstance.App.User())); err != nil {
					return err
				}
			default:
				now := cliInstance.App.Now()
				fmt.Println(styles.SubtitleStyle.Render(now.Format("15:04:05")))
				fmt.Print(renderBadges(snap, snap.Badges.Visible(), cliInstance.App.User(), now))
			}

			printed++
			if count > 0 && printed >= count {
				return nil
			}
		}
	}
}
