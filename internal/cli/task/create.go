package task

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/taskroll/internal/cli"
	taskservice "github.com/thenoetrevino/taskroll/internal/services/task"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// CreateCmd returns the task create subcommand
func CreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new task",
		Long: `Create a task in a project, either at the root or under a parent task.

Examples:
  # Root task (human-readable output)
  taskroll task create --project P --title "Draft rule"

  # Subtask with assignees and a due date, JSON output for agents
  taskroll task create -p P --parent A --title "Outline" --assignee u1,u2 --due 2024-07-01 --json

  # Quiet mode for bash capture
  TASK_ID=$(taskroll task create -p P --title "Publish" --quiet)
`,
		RunE: runCreate,
	}

	// Required flags
	addProjectFlags(cmd)
	cmd.Flags().String("title", "", "Task title (required)")
	if err := cmd.MarkFlagRequired("title"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}

	// Optional flags
	cmd.Flags().String("parent", "", "Parent task ID (default: root of the project)")
	cmd.Flags().String("status", "todo", "Status: todo, in_progress, blocked, done")
	cmd.Flags().StringSlice("assignee", nil, "Assignee user IDs (repeatable or comma-separated)")
	cmd.Flags().String("start", "", "Start date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().String("due", "", "Due date (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().String("critical", "", "Critical issue flagged on the task")
	cmd.Flags().StringArray("attachment", nil, "Attachment as name=url (repeatable)")

	cli.AddOutputFlags(cmd, "Minimal output (ID only)")

	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.FormatterFor(cmd)

	title, _ := cmd.Flags().GetString("title")
	parent, _ := cmd.Flags().GetString("parent")
	statusFlag, _ := cmd.Flags().GetString("status")
	assignees, _ := cmd.Flags().GetStringSlice("assignee")
	startFlag, _ := cmd.Flags().GetString("start")
	dueFlag, _ := cmd.Flags().GetString("due")
	critical, _ := cmd.Flags().GetString("critical")
	attachments, _ := cmd.Flags().GetStringArray("attachment")

	status, err := parseStatus(statusFlag)
	if err != nil {
		return formatter.Fail(err, "Valid statuses: todo, in_progress, blocked, done")
	}
	start, err := cli.ParseDate(startFlag)
	if err != nil {
		return formatter.Fail(cli.UsageError(err), "")
	}
	due, err := cli.ParseDate(dueFlag)
	if err != nil {
		return formatter.Fail(cli.UsageError(err), "")
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

	ref, err := refFrom(cmd, cliInstance, "")
	if err != nil {
		return formatter.Fail(err, "")
	}

	id, res := cliInstance.App.TaskService.CreateTask(ctx, taskservice.CreateTaskRequest{
		Collection:    ref.Collection,
		ProjectID:     ref.ProjectID,
		ParentID:      types.TaskID(parent),
		Title:         title,
		Status:        status,
		AssigneeIDs:   cli.ParseUsers(assignees),
		StartDate:     start,
		DueDate:       due,
		CriticalIssue: critical,
		Attachments:   parseAttachments(attachments),
	})
	if !res.Success {
		return formatter.Fail(res.Error, "Use 'taskroll project tree' to see task IDs")
	}

	ref.TaskID = id
	created, err := cliInstance.App.TaskService.GetTask(ctx, ref)
	if err != nil {
		return formatter.Fail(err, "")
	}
	return formatter.Success(newTaskResult(ref, created, "created", cliInstance.App.Now()))
}
