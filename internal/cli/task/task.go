package task

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/taskroll/internal/cli"
	"github.com/thenoetrevino/taskroll/internal/cli/styles"
	"github.com/thenoetrevino/taskroll/internal/models"
	taskservice "github.com/thenoetrevino/taskroll/internal/services/task"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// TaskCmd returns the task parent command
func TaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks inside a project tree",
	}

	cmd.AddCommand(CreateCmd())
	cmd.AddCommand(ShowCmd())
	cmd.AddCommand(UpdateCmd())
	cmd.AddCommand(StatusCmd())
	cmd.AddCommand(DeleteCmd())

	return cmd
}

// addProjectFlags registers the flags that locate a project
func addProjectFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("project", "p", "", "Project ID (required)")
	if err := cmd.MarkFlagRequired("project"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}
	cli.AddCollectionFlag(cmd)
}

// refFrom resolves the task reference from --project, --collection and id
func refFrom(cmd *cobra.Command, c *cli.CLI, id string) (taskservice.Ref, error) {
	collection, err := c.CollectionFrom(cmd)
	if err != nil {
		return taskservice.Ref{}, err
	}
	project, _ := cmd.Flags().GetString("project")
	return taskservice.Ref{
		Collection: collection,
		ProjectID:  types.ProjectID(project),
		TaskID:     types.TaskID(id),
	}, nil
}

// parseStatus accepts canonical statuses and the stored aliases
func parseStatus(s string) (models.Status, error) {
	status, ok := models.ParseStatus(s)
	if !ok {
		return "", fmt.Errorf("%w: %q", taskservice.ErrInvalidStatus, s)
	}
	return status, nil
}

// parseAttachments reads "name=url" pairs. A bare URL is named after itself.
func parseAttachments(values []string) []models.Attachment {
	out := make([]models.Attachment, 0, len(values))
	for _, v := range values {
		name, url, ok := strings.Cut(v, "=")
		if !ok {
			name, url = v, v
		}
		out = append(out, models.Attachment{Name: strings.TrimSpace(name), URL: strings.TrimSpace(url)})
	}
	return out
}

// taskResult is the output shape shared by task commands
type taskResult struct {
	Collection    types.Collection    `json:"collection"`
	ProjectID     types.ProjectID     `json:"project_id"`
	ID            types.TaskID        `json:"id"`
	Title         string              `json:"title"`
	Status        models.Status       `json:"status"`
	AssigneeIDs   []types.UserID      `json:"assignee_ids"`
	StartDate     *time.Time          `json:"start_date,omitempty"`
	DueDate       *time.Time          `json:"due_date,omitempty"`
	DoneDate      *time.Time          `json:"done_date,omitempty"`
	CriticalIssue string              `json:"critical_issue,omitempty"`
	Attachments   []models.Attachment `json:"attachments"`
	Subtasks      int                 `json:"subtasks"`

	action string
	now    time.Time
}

func newTaskResult(ref taskservice.Ref, t *models.Task, action string, now time.Time) *taskResult {
	r := &taskResult{
		Collection:    ref.Collection,
		ProjectID:     ref.ProjectID,
		ID:            t.ID,
		Title:         t.Title,
		Status:        t.Status,
		AssigneeIDs:   t.AssigneeIDs,
		StartDate:     optionalTime(t.StartDate),
		DueDate:       optionalTime(t.DueDate),
		DoneDate:      optionalTime(t.DoneDate),
		CriticalIssue: t.CriticalIssue,
		Attachments:   t.Attachments,
		Subtasks:      len(t.Children),
		action:        action,
		now:           now,
	}
	if r.AssigneeIDs == nil {
		r.AssigneeIDs = []types.UserID{}
	}
	if r.Attachments == nil {
		r.Attachments = []models.Attachment{}
	}
	return r
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// GetID is used by quiet mode
func (r *taskResult) GetID() string {
	return string(r.ID)
}

// Render implements cli.Renderer
func (r *taskResult) Render() string {
	var b strings.Builder
	if r.action != "" {
		fmt.Fprintf(&b, "%s Task %s %s\n", styles.SuccessStyle.Render("✓"), r.ID, r.action)
	}
	fmt.Fprintf(&b, "  %s %s\n", styles.LabelStyle.Render("Title:"), styles.ValueStyle.Render(r.Title))
	fmt.Fprintf(&b, "  %s %s\n", styles.LabelStyle.Render("Status:"), styles.RenderStatus(r.Status))
	fmt.Fprintf(&b, "  %s %s/%s\n", styles.LabelStyle.Render("Project:"), r.Collection, r.ProjectID)
	if len(r.AssigneeIDs) > 0 {
		ids := make([]string, 0, len(r.AssigneeIDs))
		for _, id := range r.AssigneeIDs {
			ids = append(ids, string(id))
		}
		fmt.Fprintf(&b, "  %s %s\n", styles.LabelStyle.Render("Assignees:"), strings.Join(ids, ", "))
	}
	if r.StartDate != nil {
		fmt.Fprintf(&b, "  %s %s\n", styles.LabelStyle.Render("Start:"), r.StartDate.Format(time.DateOnly))
	}
	if r.DueDate != nil {
		due := &models.Task{Status: r.Status, DueDate: *r.DueDate}
		fmt.Fprintf(&b, "  %s %s %s\n", styles.LabelStyle.Render("Due:"), r.DueDate.Format(time.DateOnly), styles.RenderDue(due, r.now))
	}
	if r.DoneDate != nil {
		fmt.Fprintf(&b, "  %s %s\n", styles.LabelStyle.Render("Done:"), r.DoneDate.Format(time.DateTime))
	}
	if r.CriticalIssue != "" {
		fmt.Fprintf(&b, "  %s\n", styles.RenderCritical(r.CriticalIssue))
	}
	for _, a := range r.Attachments {
		fmt.Fprintf(&b, "  %s %s <%s>\n", styles.LabelStyle.Render("Link:"), a.Name, a.URL)
	}
	if r.Subtasks > 0 {
		fmt.Fprintf(&b, "  %s %d\n", styles.LabelStyle.Render("Subtasks:"), r.Subtasks)
	}
	return b.String()
}
