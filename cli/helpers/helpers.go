package helpers

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/taskwell/taskwell/engine/config"
	"github.com/taskwell/taskwell/pkg/logger"
)

var errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true)

// ExitError carries a process exit code up through cobra without extra
// error text; the task already reported its own failure.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// PrintError writes a styled error line to stderr.
func PrintError(prefix string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", errorStyle.Render(prefix), err)
}

// LoadConfig loads the project configuration. With the --directory flag the
// given location must hold a config file; without it the loader searches
// upward from the working directory through every ancestor.
func LoadConfig(cobraCmd *cobra.Command) (*config.Config, error) {
	target, err := cobraCmd.Flags().GetString("directory")
	if err != nil {
		return nil, err
	}
	cfg := config.New(target)
	if err := cfg.Load(target); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Verbosity combines the config file's verbosity setting with the --verbose
// and --quiet flags, clamped to the supported range.
func Verbosity(cobraCmd *cobra.Command, cfg *config.Config) int {
	verbosity := cfg.Verbosity()
	if verbose, err := cobraCmd.Flags().GetCount("verbose"); err == nil {
		verbosity += verbose
	}
	if quiet, err := cobraCmd.Flags().GetBool("quiet"); err == nil && quiet {
		verbosity--
	}
	if verbosity < -1 {
		verbosity = -1
	}
	if verbosity > 2 {
		verbosity = 2
	}
	return verbosity
}

// NewLogger builds the CLI logger for a verbosity level.
func NewLogger(verbosity int) logger.Logger {
	cfg := logger.DefaultConfig()
	switch {
	case verbosity <= -1:
		cfg.Level = logger.ErrorLevel
	case verbosity == 0:
		cfg.Level = logger.WarnLevel
	case verbosity == 1:
		cfg.Level = logger.InfoLevel
	default:
		cfg.Level = logger.DebugLevel
	}
	return logger.NewLogger(cfg)
}
