package project

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/taskroll/internal/aggregate"
	"github.com/thenoetrevino/taskroll/internal/cli"
	"github.com/thenoetrevino/taskroll/internal/cli/styles"
	"github.com/thenoetrevino/taskroll/internal/filter"
	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/sorter"
	"github.com/thenoetrevino/taskroll/internal/tree"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// TreeCmd returns the project tree subcommand
func TreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree <project-id>",
		Short: "Display a project's task tree",
		Long: `Display the tasks of a project as a hierarchical tree.

Filtering keeps every matching task together with the ancestors on the
path to it, so matches are always shown in context. Sorting orders each
sibling group independently and never flattens the tree. Rollup counts
are computed over the unfiltered tree.`,
		Example: `  taskroll project tree P
  taskroll project tree P --filter notice --sort due_date,title
  taskroll project tree P --status blocked --json`,
		Args: cobra.ExactArgs(1),
		RunE: runTree,
	}

	cli.AddCollectionFlag(cmd)
	cmd.Flags().String("filter", "", "Case-insensitive text matched against title and critical issue")
	cmd.Flags().String("status", "", "Only show tasks with this status (todo, in_progress, blocked, done)")
	cmd.Flags().String("assignee", "", "Only show tasks assigned to this user")
	cmd.Flags().String("sort", "", "Comma-separated sort keys, e.g. due_date:desc,title")
	cli.AddOutputFlags(cmd, "Minimal output (task IDs indented by depth)")

	return cmd
}

func runTree(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.FormatterFor(cmd)

	predicate, chain, err := treeOptions(cmd)
	if err != nil {
		return formatter.Fail(cli.UsageError(err), "Valid sort fields: title, status, start_date, due_date, done_date, assignees")
	}

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
	projectID := types.ProjectID(args[0])

	project, err := cliInstance.App.ProjectService.GetProjectByID(ctx, collection, projectID)
	if err != nil {
		return formatter.Fail(err, "Use 'taskroll project list' to see available projects")
	}

	rollups, _, err := aggregate.RollupTree(project.Tasks)
	if err != nil {
		return formatter.Fail(err, "")
	}
	view, err := cliInstance.App.ViewService.GetFilteredSortedTree(project.Tasks, predicate, chain)
	if err != nil {
		return formatter.Fail(err, "")
	}

	if formatter.Quiet {
		return outputQuietTree(view)
	}
	if formatter.JSON {
		nodes, err := convertToJSONTree(view, rollups)
		if err != nil {
			return formatter.Fail(err, "")
		}
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"success":    true,
			"collection": collection,
			"project_id": projectID,
			"tree":       nodes,
		})
	}

	if len(view) == 0 {
		if predicate.IsEmpty() {
			fmt.Println("No tasks found")
		} else {
			fmt.Println("No tasks match the filter")
		}
		return nil
	}
	out, err := renderTree(project, view, rollups, cliInstance.App.Now())
	if err != nil {
		return formatter.Fail(err, "")
	}
	fmt.Print(out)
	return nil
}

// treeOptions reads the filter and sort flags
func treeOptions(cmd *cobra.Command) (filter.Predicate, sorter.Chain, error) {
	text, _ := cmd.Flags().GetString("filter")
	statusFlag, _ := cmd.Flags().GetString("status")
	assignee, _ := cmd.Flags().GetString("assignee")
	sortFlag, _ := cmd.Flags().GetString("sort")

	p := filter.Predicate{Text: text, AssigneeID: types.UserID(assignee)}
	if statusFlag != "" {
		status, ok := models.ParseStatus(statusFlag)
		if !ok {
			return p, nil, fmt.Errorf("invalid status %q", statusFlag)
		}
		p.Status = status
	}

	chain, err := sorter.ParseChain(sortFlag)
	if err != nil {
		return p, nil, err
	}
	return p, chain, nil
}

// outputQuietTree prints task IDs in pre-order, two spaces per level
func outputQuietTree(roots []*models.Task) error {
	return tree.Walk(roots, func(n, _ *models.Task, depth int) error {
		fmt.Printf("%s%s\n", strings.Repeat("  ", depth), n.ID)
		return nil
	})
}

// treeNodeJSON represents a node in JSON output
type treeNodeJSON struct {
	ID                   types.TaskID    `json:"id"`
	Title                string          `json:"title"`
	Status               models.Status   `json:"status"`
	AssigneeIDs          []types.UserID  `json:"assignee_ids"`
	StartDate            *time.Time      `json:"start_date,omitempty"`
	DueDate              *time.Time      `json:"due_date,omitempty"`
	DoneDate             *time.Time      `json:"done_date,omitempty"`
	CriticalIssue        string          `json:"critical_issue,omitempty"`
	Total                int             `json:"total"`
	Completed            int             `json:"completed"`
	HasCritical          bool            `json:"has_critical"`
	CompletionPercentage float64         `json:"completion_percentage"`
	Children             []*treeNodeJSON `json:"children"`
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// convertToJSONTree mirrors the forest into JSON nodes. It is built with
// tree.Rebuild so arbitrarily deep trees never recurse.
func convertToJSONTree(roots []*models.Task, rollups map[types.TaskID]models.Rollup) ([]*treeNodeJSON, error) {
	nodes := make(map[*models.Task]*treeNodeJSON)
	rebuilt, err := tree.Rebuild(roots, func(n *models.Task, children []*models.Task) (*models.Task, bool) {
		r := rollups[n.ID]
		node := &treeNodeJSON{
			ID:                   n.ID,
			Title:                n.Title,
			Status:               n.Status,
			AssigneeIDs:          n.AssigneeIDs,
			StartDate:            optionalTime(n.StartDate),
			DueDate:              optionalTime(n.DueDate),
			DoneDate:             optionalTime(n.DoneDate),
			CriticalIssue:        n.CriticalIssue,
			Total:                r.Total,
			Completed:            r.Completed,
			HasCritical:          r.HasCritical,
			CompletionPercentage: aggregate.CompletionPercentage(r),
			Children:             make([]*treeNodeJSON, 0, len(children)),
		}
		if node.AssigneeIDs == nil {
			node.AssigneeIDs = []types.UserID{}
		}
		for _, c := range children {
			node.Children = append(node.Children, nodes[c])
		}
		nodes[n] = node
		return n, true
	})
	if err != nil {
		return nil, err
	}
	out := make([]*treeNodeJSON, 0, len(rebuilt))
	for _, r := range rebuilt {
		out = append(out, nodes[r])
	}
	return out, nil
}

// renderTree draws the forest with box connectors under a project header
func renderTree(project *models.Project, roots []*models.Task, rollups map[types.TaskID]models.Rollup, now time.Time) (string, error) {
	var b strings.Builder

	_, total, err := aggregate.RollupTree(project.Tasks)
	if err != nil {
		return "", err
	}
	b.WriteString(styles.TitleStyle.Render(project.Name))
	b.WriteString(" " + styles.SubtitleStyle.Render(string(project.ID)) + "\n")
	b.WriteString(styles.RenderProgress(aggregate.CompletionPercentage(total), 20) + "\n\n")

	// prefix[d] holds the connector column for depth d; it is rewritten as
	// the walk moves between siblings
	var prefix []string
	err = tree.Walk(roots, func(n, parent *models.Task, depth int) error {
		last := isLastChild(roots, n, parent)
		prefix = prefix[:depth]

		var line strings.Builder
		for _, p := range prefix {
			line.WriteString(p)
		}
		switch {
		case depth == 0 && len(roots) == 1:
			prefix = append(prefix, "")
		case last:
			line.WriteString("└── ")
			prefix = append(prefix, "    ")
		default:
			line.WriteString("├── ")
			prefix = append(prefix, "│   ")
		}

		line.WriteString(styles.RenderStatusIcon(n.Status) + " ")
		line.WriteString(styles.ValueStyle.Render(n.Title))
		line.WriteString(" " + styles.SubtitleStyle.Render(string(n.ID)))
		if r := rollups[n.ID]; r.Total > 1 {
			line.WriteString(" " + styles.SubtitleStyle.Render(fmt.Sprintf("[%d/%d]", r.Completed, r.Total)))
		}
		if due := styles.RenderDue(n, now); due != "" {
			line.WriteString(" " + due)
		}
		if n.HasCriticalIssue() {
			line.WriteString(" " + styles.RenderCritical(n.CriticalIssue))
		}
		b.WriteString(line.String() + "\n")
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func isLastChild(roots []*models.Task, n, parent *models.Task) bool {
	siblings := roots
	if parent != nil {
		siblings = parent.Children
	}
	return len(siblings) > 0 && siblings[len(siblings)-1] == n
}
