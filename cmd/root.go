package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/thenoetrevino/taskroll/internal/cli"
	"github.com/thenoetrevino/taskroll/internal/cli/overview"
	"github.com/thenoetrevino/taskroll/internal/cli/project"
	"github.com/thenoetrevino/taskroll/internal/cli/task"
)

// Version is set at build time with -ldflags "-X .../cmd.Version=..."
var Version = "dev"

// NewRootCmd builds the taskroll command tree
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "taskroll",
		Short: "Taskroll - project task trees and live dashboards",
		Long: `Taskroll keeps hierarchical project task trees in a document store and
rolls them up into progress, per-user task lists and live dashboard counters.

Configuration is read from $XDG_CONFIG_HOME/taskroll/config.yaml, a .env
file and TASKROLL_* environment variables.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return cli.UsageError(err)
	})

	rootCmd.AddCommand(project.ProjectCmd())
	rootCmd.AddCommand(task.TaskCmd())
	rootCmd.AddCommand(overview.BadgesCmd())
	rootCmd.AddCommand(overview.MyTasksCmd())
	rootCmd.AddCommand(overview.WatchCmd())

	return rootCmd
}

// Execute runs the command tree with ctx
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
