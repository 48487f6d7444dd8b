package check

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskwell/taskwell/cli/helpers"
	"github.com/taskwell/taskwell/engine/task"
)

// NewCheckCommand creates the check command, which validates the project
// config without running anything.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the project config and task definitions",
		Args:  cobra.NoArgs,
		RunE:  executeCheckCommand,
	}
}

func executeCheckCommand(cobraCmd *cobra.Command, _ []string) error {
	cfg, err := helpers.LoadConfig(cobraCmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(task.Validator()); err != nil {
		return err
	}
	fmt.Printf("%s is valid (%d tasks)\n", cfg.ProjectPath(), len(cfg.TaskNames()))
	return nil
}
