package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/taskwell/taskwell/cli/cmd/check"
	"github.com/taskwell/taskwell/cli/cmd/list"
	"github.com/taskwell/taskwell/cli/cmd/run"
	"github.com/taskwell/taskwell/cli/helpers"
	"github.com/taskwell/taskwell/engine/core"
)

// NewRootCommand wires up the taskwell command tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "taskwell",
		Short:         "Taskwell - a task runner for project automation",
		Long:          "A command-line task runner that reads task definitions from taskwell.toml.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringP("directory", "C", "", "Directory to find the project config in")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase command output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Decrease command output")

	rootCmd.AddCommand(run.NewRunCommand())
	rootCmd.AddCommand(list.NewListCommand())
	rootCmd.AddCommand(check.NewCheckCommand())

	return rootCmd
}

// Execute runs the CLI and returns the process exit code. Task failures
// surface as nonzero codes without a stack of wrapping.
func Execute() int {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		if exit, ok := err.(*helpers.ExitError); ok {
			return exit.Code
		}
		if core.IsConfigError(err) {
			helpers.PrintError("config error", err)
			return 1
		}
		helpers.PrintError("error", err)
		return 1
	}
	return 0
}

// Main is the process entrypoint.
func Main() {
	os.Exit(Execute())
}
