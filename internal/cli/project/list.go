package project

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/taskroll/internal/cli"
	"github.com/thenoetrevino/taskroll/internal/cli/styles"
	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// ListCmd returns the project list subcommand
func ListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects with their progress",
		Long:  "List every project in a collection with task totals, completion and overdue counts.",
		RunE:  runList,
	}

	cli.AddCollectionFlag(cmd)
	cli.AddOutputFlags(cmd, "Minimal output (IDs only)")

	return cmd
}

// projectJSON is one row of list output
type projectJSON struct {
	ID                   types.ProjectID `json:"id"`
	Name                 string          `json:"name"`
	OwnerID              types.UserID    `json:"owner_id,omitempty"`
	Total                int             `json:"total"`
	Completed            int             `json:"completed"`
	Open                 int             `json:"open"`
	Overdue              int             `json:"overdue"`
	CriticalTasks        int             `json:"critical_tasks"`
	CompletionPercentage float64         `json:"completion_percentage"`
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.FormatterFor(cmd)

	cliInstance, err := cli.GetCLIFromContext(ctx)
	if err != nil {
		return formatter.Fail(err, "")
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Error("failed to close CLI", "error", err)
		}
	}()

	collection, err := cliInstance.CollectionFrom(cmd)
	if err != nil {
		return formatter.Fail(err, "")
	}

	listing, err := cliInstance.App.ProjectService.GetAllProjects(ctx, collection)
	if err != nil {
		return formatter.Fail(err, "")
	}

	if formatter.Quiet {
		for _, p := range listing.Projects {
			fmt.Println(p.ID)
		}
		return nil
	}

	rows := make([]projectJSON, 0, len(listing.Projects))
	aggs := make([]models.ProjectAggregate, 0, len(listing.Projects))
	for _, p := range listing.Projects {
		agg, err := cliInstance.App.ViewService.GetProjectAggregate(p)
		if err != nil {
			// a malformed tree only hides its own row
			slog.Warn("skipping project with malformed tree", "collection", collection, "project", p.ID, "error", err)
			continue
		}
		aggs = append(aggs, agg)
		rows = append(rows, projectJSON{
			ID:                   p.ID,
			Name:                 p.Name,
			OwnerID:              p.OwnerID,
			Total:                agg.Total,
			Completed:            agg.Completed,
			Open:                 agg.Open,
			Overdue:              agg.Overdue,
			CriticalTasks:        agg.CriticalTasks,
			CompletionPercentage: agg.CompletionPercentage,
		})
	}

	if formatter.JSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"success":    true,
			"collection": collection,
			"sequence":   listing.Sequence,
			"projects":   rows,
			"warnings":   len(listing.Warnings),
		})
	}

	if len(rows) == 0 {
		fmt.Printf("No projects found in %s\n", collection)
		return nil
	}

	fmt.Println(styles.TitleStyle.Render(fmt.Sprintf("Projects in %s (%d)", collection, len(rows))))
	for _, agg := range aggs {
		line := fmt.Sprintf("  %s %s  %s",
			styles.ValueStyle.Render(agg.ProjectName),
			styles.SubtitleStyle.Render(string(agg.ProjectID)),
			styles.RenderProgress(agg.CompletionPercentage, 10))
		if agg.Overdue > 0 {
			line += "  " + styles.WarningStyle.Render(fmt.Sprintf("%d overdue", agg.Overdue))
		}
		if agg.CriticalTasks > 0 {
			line += "  " + styles.ErrorStyle.Render(fmt.Sprintf("%d critical", agg.CriticalTasks))
		}
		fmt.Println(line)
	}
	if n := len(listing.Warnings); n > 0 {
		fmt.Println(styles.WarningStyle.Render(fmt.Sprintf("\n%d invalid record(s) skipped; see the log for details", n)))
	}
	return nil
}
