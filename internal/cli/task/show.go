package task

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/taskroll/internal/cli"
)

// ShowCmd returns the task show subcommand
func ShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a single task",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}

	addProjectFlags(cmd)
	cli.AddOutputFlags(cmd, "Minimal output (ID only)")

	return cmd
}

func runShow(cmd *cobra.Command, args []string) error {
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

	ref, err := refFrom(cmd, cliInstance, args[0])
	if err != nil {
		return formatter.Fail(err, "")
	}
	t, err := cliInstance.App.TaskService.GetTask(ctx, ref)
	if err != nil {
		return formatter.Fail(err, "Use 'taskroll project tree' to see task IDs")
	}
	return formatter.Success(newTaskResult(ref, t, "", cliInstance.App.Now()))
}
