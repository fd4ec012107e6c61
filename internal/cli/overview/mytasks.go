package overview

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/taskroll/internal/cli"
	"github.com/thenoetrevino/taskroll/internal/cli/styles"
	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// MyTasksCmd returns the mytasks command
func MyTasksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "mytasks",
		Aliases: []string{"mine"},
		Short:   "List the tasks assigned to a user across every watched collection",
		Long: `List every task assigned to the user in projects they own or are on the
team of, across all watched collections. Tasks are ordered by due date,
undated last, then by title.`,
		Example: `  taskroll mytasks
  taskroll mytasks --user u2 --overdue --json`,
		RunE: runMyTasks,
	}

	cmd.Flags().StringP("user", "u", "", "User ID (default: TASKROLL_USER)")
	cmd.Flags().Bool("overdue", false, "Only overdue tasks")
	cmd.Flags().Bool("today", false, "Only tasks due today")
	cmd.Flags().Bool("open", false, "Hide completed tasks")
	cli.AddOutputFlags(cmd, "Minimal output (collection/project/task per line)")

	return cmd
}

// userTaskJSON is one row of mytasks output
type userTaskJSON struct {
	ID            types.TaskID     `json:"id"`
	Title         string           `json:"title"`
	Status        models.Status    `json:"status"`
	DueDate       *time.Time       `json:"due_date,omitempty"`
	CriticalIssue string           `json:"critical_issue,omitempty"`
	Collection    types.Collection `json:"collection"`
	ProjectID     types.ProjectID  `json:"project_id"`
	ProjectName   string           `json:"project_name"`
	ParentID      types.TaskID     `json:"parent_id,omitempty"`
	Depth         int              `json:"depth"`
	Overdue       bool             `json:"overdue"`
}

func runMyTasks(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.FormatterFor(cmd)
	onlyOverdue, _ := cmd.Flags().GetBool("overdue")
	onlyToday, _ := cmd.Flags().GetBool("today")
	onlyOpen, _ := cmd.Flags().GetBool("open")

	cliInstance, err := cli.GetCLIFromContext(ctx)
	if err != nil {
		return formatter.Fail(err, "")
	}
	defer func() {
		if err := cliInstance.Close(); err != nil {
			slog.Error("failed to close CLI", "error", err)
		}
	}()

	user, err := cliInstance.UserFrom(cmd)
	if err != nil {
		return formatter.Fail(err, "")
	}

	var projects []*models.Project
	warnings := 0
	for _, c := range cliInstance.App.Collections() {
		listing, err := cliInstance.App.ProjectService.GetAllProjects(ctx, c)
		if err != nil {
			return formatter.Fail(err, "")
		}
		projects = append(projects, listing.Projects...)
		warnings += len(listing.Warnings)
	}

	view, err := cliInstance.App.ViewService.GetUserTaskView(user, projects)
	if err != nil {
		return formatter.Fail(err, "")
	}

	now := cliInstance.App.Now()
	tasks := view.Tasks
	switch {
	case onlyOverdue:
		tasks = view.Overdue
	case onlyToday:
		tasks = view.DueToday
	}
	rows := make([]userTaskJSON, 0, len(tasks))
	for _, ut := range tasks {
		if onlyOpen && ut.Task.IsDone() {
			continue
		}
		row := userTaskJSON{
			ID:            ut.Task.ID,
			Title:         ut.Task.Title,
			Status:        ut.Task.Status,
			CriticalIssue: ut.Task.CriticalIssue,
			Collection:    ut.ProjectKind,
			ProjectID:     ut.ProjectID,
			ProjectName:   ut.ProjectName,
			ParentID:      ut.ParentID,
			Depth:         ut.Depth,
			Overdue:       ut.Task.IsOverdue(now),
		}
		if !ut.Task.DueDate.IsZero() {
			due := ut.Task.DueDate
			row.DueDate = &due
		}
		rows = append(rows, row)
	}

	if formatter.Quiet {
		for _, r := range rows {
			fmt.Printf("%s/%s/%s\n", r.Collection, r.ProjectID, r.ID)
		}
		return nil
	}
	if formatter.JSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"success":           true,
			"user":              user,
			"open":              view.Open,
			"completed":         view.Completed,
			"overdue":           len(view.Overdue),
			"due_today":         len(view.DueToday),
			"critical_projects": view.CriticalProjects,
			"tasks":             rows,
		})
	}

	if len(rows) == 0 {
		fmt.Printf("No tasks for %s\n", user)
		return nil
	}
	fmt.Print(renderMyTasks(user, view, tasks, onlyOpen, now))
	if warnings > 0 {
		fmt.Println(styles.WarningStyle.Render(fmt.Sprintf("%d invalid record(s) skipped; see the log for details", warnings)))
	}
	return nil
}

func renderMyTasks(user types.UserID, view models.UserTaskView, tasks []models.UserTask, onlyOpen bool, now time.Time) string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(fmt.Sprintf("Tasks for %s", user)))
	b.WriteString(" " + styles.SubtitleStyle.Render(fmt.Sprintf("%d open, %d done, %d overdue", view.Open, view.Completed, len(view.Overdue))) + "\n")

	var project types.ProjectID
	for _, ut := range tasks {
		if onlyOpen && ut.Task.IsDone() {
			continue
		}
		if ut.ProjectID != project {
			project = ut.ProjectID
			b.WriteString(styles.SectionStyle.Render(fmt.Sprintf("%s (%s)", ut.ProjectName, ut.ProjectKind)) + "\n")
		}
		line := "  " + styles.RenderStatusIcon(ut.Task.Status) + " " + styles.ValueStyle.Render(ut.Task.Title) +
			" " + styles.SubtitleStyle.Render(string(ut.Task.ID))
		if due := styles.RenderDue(ut.Task, now); due != "" {
			line += " " + due
		}
		if ut.Task.HasCriticalIssue() {
			line += " " + styles.RenderCritical(ut.Task.CriticalIssue)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
