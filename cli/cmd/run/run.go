package run

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/taskwell/taskwell/cli/helpers"
	"github.com/taskwell/taskwell/engine/executor"
	"github.com/taskwell/taskwell/engine/task"
	"github.com/taskwell/taskwell/pkg/logger"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run <task> [args...]",
		Short: "Run a named task from the project config",
		Args:  cobra.MinimumNArgs(1),
		RunE:  executeRunCommand,
	}
	runCmd.Flags().Bool("dry-run", false, "Print what would run without executing anything")
	runCmd.Flags().String("executor", "", "Override the configured executor type")
	runCmd.Flags().SetInterspersed(false)
	return runCmd
}

func executeRunCommand(cobraCmd *cobra.Command, args []string) error {
	cfg, err := helpers.LoadConfig(cobraCmd)
	if err != nil {
		return err
	}
	verbosity := helpers.Verbosity(cobraCmd, cfg)
	log := helpers.NewLogger(verbosity)

	if err := cfg.Validate(task.Validator()); err != nil {
		return err
	}

	name := args[0]
	extraArgs := args[1:]
	if !cfg.HasTask(name) {
		return fmt.Errorf("task %q not found in %s", name, cfg.ProjectPath())
	}

	dry, err := cobraCmd.Flags().GetBool("dry-run")
	if err != nil {
		return err
	}

	opts := []task.RunOption{
		task.WithDryRun(dry),
		task.WithReporter(newConsoleReporter(verbosity)),
	}
	if executorType, _ := cobraCmd.Flags().GetString("executor"); executorType != "" {
		exec, err := executor.New(executorType)
		if err != nil {
			return err
		}
		opts = append(opts, task.WithExecutor(exec))
	}
	rc := task.NewRunContext(opts...)
	ctx := logger.ContextWithLogger(cobraCmd.Context(), log)

	code, err := task.RunTask(ctx, cfg, name, extraArgs, rc)
	if err != nil {
		return err
	}
	if code != 0 {
		return &helpers.ExitError{Code: code}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Reporter
// -----------------------------------------------------------------------------

var (
	actionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
)

// consoleReporter prints task progress the way a terminal user expects,
// quieting down at negative verbosity.
type consoleReporter struct {
	verbosity int
}

func newConsoleReporter(verbosity int) *consoleReporter {
	return &consoleReporter{verbosity: verbosity}
}

func (r *consoleReporter) RunningTask(name string, dry bool) {
	if r.verbosity < 0 {
		return
	}
	verb := "running task"
	if dry {
		verb = "would run task"
	}
	fmt.Printf("%s %s\n", actionStyle.Render(verb), name)
}

func (r *consoleReporter) UnresolvedCase(name string) {
	if r.verbosity < 0 {
		return
	}
	fmt.Printf("%s %s\n", mutedStyle.Render("unresolved case for switch task"), name)
}
