package task

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/taskroll/internal/cli"
	"github.com/thenoetrevino/taskroll/internal/models"
	taskservice "github.com/thenoetrevino/taskroll/internal/services/task"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// UpdateCmd returns the task update subcommand
func UpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <task-id>",
		Short: "Update a task's fields",
		Long: `Update one or more fields of a task. Only the flags given are changed.

Dates accept YYYY-MM-DD or RFC 3339; pass "none" to clear one.
--assignee and --attachment replace the whole list; pass them empty to clear it.

Examples:
  taskroll task update A -p P --title "Draft final rule" --due 2024-07-15
  taskroll task update A -p P --critical "" --json
`,
		Args: cobra.ExactArgs(1),
		RunE: runUpdate,
	}

	addProjectFlags(cmd)
	cmd.Flags().String("title", "", "New title")
	cmd.Flags().String("status", "", "New status: todo, in_progress, blocked, done")
	cmd.Flags().StringSlice("assignee", nil, "Replace assignees (comma-separated)")
	cmd.Flags().String("start", "", "Start date, or none")
	cmd.Flags().String("due", "", "Due date, or none")
	cmd.Flags().String("critical", "", "Critical issue; empty clears it")
	cmd.Flags().StringArray("attachment", nil, "Replace attachments with name=url entries")

	cli.AddOutputFlags(cmd, "Minimal output (ID only)")

	return cmd
}

var errNothingToUpdate = errors.New("at least one field flag must be specified")

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.FormatterFor(cmd)
	flags := cmd.Flags()

	req := taskservice.UpdateTaskRequest{}
	changed := false

	if flags.Changed("title") {
		title, _ := flags.GetString("title")
		req.Title = &title
		changed = true
	}
	if flags.Changed("status") {
		s, _ := flags.GetString("status")
		status, err := parseStatus(s)
		if err != nil {
			return formatter.Fail(err, "Valid statuses: todo, in_progress, blocked, done")
		}
		req.Status = &status
		changed = true
	}
	if flags.Changed("assignee") {
		values, _ := flags.GetStringSlice("assignee")
		users := cli.ParseUsers(values)
		if users == nil {
			users = []types.UserID{}
		}
		req.AssigneeIDs = &users
		changed = true
	}
	for _, name := range []string{"start", "due"} {
		if !flags.Changed(name) {
			continue
		}
		s, _ := flags.GetString(name)
		d, err := cli.ParseDate(s)
		if err != nil {
			return formatter.Fail(cli.UsageError(err), "")
		}
		if name == "start" {
			req.StartDate = &d
		} else {
			req.DueDate = &d
		}
		changed = true
	}
	if flags.Changed("critical") {
		critical, _ := flags.GetString("critical")
		req.CriticalIssue = &critical
		changed = true
	}
	if flags.Changed("attachment") {
		values, _ := flags.GetStringArray("attachment")
		var attachments []models.Attachment
		if len(values) == 1 && values[0] == "" {
			attachments = []models.Attachment{}
		} else {
			attachments = parseAttachments(values)
		}
		req.Attachments = &attachments
		changed = true
	}

	if !changed {
		return formatter.Fail(cli.UsageError(errNothingToUpdate), "Use --title, --status, --assignee, --start, --due, --critical or --attachment")
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

	ref, err := refFrom(cmd, cliInstance, args[0])
	if err != nil {
		return formatter.Fail(err, "")
	}
	req.Ref = ref

	if res := cliInstance.App.TaskService.UpdateTask(ctx, req); !res.Success {
		return formatter.Fail(res.Error, "")
	}

	updated, err := cliInstance.App.TaskService.GetTask(ctx, ref)
	if err != nil {
		return formatter.Fail(err, "")
	}
	return formatter.Success(newTaskResult(ref, updated, "updated", cliInstance.App.Now()))
}
