package project

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/taskroll/internal/cli"
	projectservice "github.com/thenoetrevino/taskroll/internal/services/project"
	"github.com/thenoetrevino/taskroll/internal/types"
)

// DeleteCmd returns the project delete subcommand
func DeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a project",
		Long: `Delete a project by ID (requires confirmation unless --force or --quiet).

A project that still has tasks is only deleted with --force.`,
		RunE: runDelete,
	}

	// Required flags
	cmd.Flags().String("id", "", "Project ID (required)")
	if err := cmd.MarkFlagRequired("id"); err != nil {
		slog.Error("failed to mark flag as required", "error", err)
	}

	// Optional flags
	cli.AddCollectionFlag(cmd)
	cmd.Flags().Bool("force", false, "Skip confirmation and delete even when tasks remain")

	cli.AddOutputFlags(cmd, "Minimal output")

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	formatter := cli.FormatterFor(cmd)

	id, _ := cmd.Flags().GetString("id")
	force, _ := cmd.Flags().GetBool("force")
	projectID := types.ProjectID(id)

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

	// Get project details for confirmation
	project, err := cliInstance.App.ProjectService.GetProjectByID(ctx, collection, projectID)
	if err != nil {
		return formatter.Fail(err, "Use 'taskroll project list' to see available projects")
	}

	// Ask for confirmation unless force or quiet mode
	if !force && !formatter.Quiet && !formatter.JSON {
		fmt.Printf("Delete project %s: '%s'? (y/N): ", projectID, project.Name)
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

	err = cliInstance.App.ProjectService.DeleteProject(ctx, projectservice.DeleteProjectRequest{
		Collection: collection,
		ID:         projectID,
		Force:      force,
	})
	if err != nil {
		return formatter.Fail(err, "Pass --force to delete a project together with its tasks")
	}

	if formatter.Quiet {
		return nil
	}
	if formatter.JSON {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"success":    true,
			"collection": collection,
			"project_id": projectID,
		})
	}

	fmt.Printf("✓ Project %s deleted successfully\n", projectID)
	return nil
}
