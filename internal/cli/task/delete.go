package task

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/taskroll/internal/cli"
	"github.com/thenoetrevino/taskroll/internal/models"
	"github.com/thenoetrevino/taskroll/internal/tree"
)

// DeleteCmd returns the task delete subcommand
func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task and its subtasks",
		Long:  "Delete a task together with every task nested under it (requires confirmation unless --force or --quiet).",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete,
	}

	addProjectFlags(cmd)
	cmd.Flags().Bool("force", false, "Skip confirmation")
	cli.AddOutputFlags(cmd, "Minimal output")

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.FormatterFor(cmd)
	force, _ := cmd.Flags().GetBool("force")

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

	// Get task details for confirmation
	t, err := cliInstance.App.TaskService.GetTask(ctx, ref)
	if err != nil {
		return formatter.Fail(err, "Use 'taskroll project tree' to see task IDs")
	}
	removed, err := tree.Count([]*models.Task{t})
	if err != nil {
		return formatter.Fail(err, "")
	}

	if !force && !formatter.Quiet && !formatter.JSON {
		prompt := fmt.Sprintf("Delete task %s: '%s'", ref.TaskID, t.Title)
		if removed > 1 {
			prompt += fmt.Sprintf(" and %d subtask(s)", removed-1)
		}
		fmt.Print(prompt + "? (y/N): ")
		var response string
		if _, err := fmt.Fscanln(cmd.InOrStdin(), &response); err != nil {
			slog.Debug("no confirmation read", "error", err)
		}
		response = strings.ToLower(strings.TrimSpace(response))
		if response != "y" && response != "yes" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	if res := cliInstance.App.TaskService.DeleteTask(ctx, ref); !res.Success {
		return formatter.Fail(res.Error, "")
	}

	if formatter.Quiet {
		return nil
	}
	if formatter.JSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"success":    true,
			"project_id": ref.ProjectID,
			"task_id":    ref.TaskID,
			"removed":    removed,
		})
	}

	fmt.Printf("✓ Task %s deleted (%d task(s) removed)\n", ref.TaskID, removed)
	return nil
}
