package task

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/taskroll/internal/cli"
)

// StatusCmd returns the task status subcommand
func StatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <task-id> <status>",
		Short: "Move a task to another status",
		Long: `Move a task through its workflow.

Allowed moves:
  todo        -> in_progress, blocked, done
  in_progress -> todo, blocked, done
  blocked     -> todo, in_progress
  done        -> todo, in_progress

Entering done records the completion time; leaving done clears it.`,
		Args: cobra.ExactArgs(2),
		RunE: runStatus,
	}

	addProjectFlags(cmd)
	cli.AddOutputFlags(cmd, "Minimal output (ID only)")

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.FormatterFor(cmd)

	status, err := parseStatus(args[1])
	if err != nil {
		return formatter.Fail(err, "Valid statuses: todo, in_progress, blocked, done")
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
	if res := cliInstance.App.TaskService.SetStatus(ctx, ref, status); !res.Success {
		return formatter.Fail(res.Error, "Run 'taskroll task status --help' for the allowed moves")
	}

	updated, err := cliInstance.App.TaskService.GetTask(ctx, ref)
	if err != nil {
		return formatter.Fail(err, "")
	}
	return formatter.Success(newTaskResult(ref, updated, "is now "+status.Label(), cliInstance.App.Now()))
}
