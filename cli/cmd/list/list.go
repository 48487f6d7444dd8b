package list

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/taskwell/taskwell/cli/helpers"
)

var (
	nameStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("246"))
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tasks defined in the project config",
		Args:  cobra.NoArgs,
		RunE:  executeListCommand,
	}
}

func executeListCommand(cobraCmd *cobra.Command, _ []string) error {
	cfg, err := helpers.LoadConfig(cobraCmd)
	if err != nil {
		return err
	}

	names := cfg.TaskNames()
	width := 0
	for _, name := range names {
		if len(name) > width {
			width = len(name)
		}
	}

	for _, name := range names {
		help := taskHelp(cfg.Tasks()[name])
		padding := strings.Repeat(" ", width-len(name)+2)
		if help != "" {
			fmt.Printf("%s%s%s\n", nameStyle.Render(name), padding, helpStyle.Render(help))
			continue
		}
		fmt.Println(nameStyle.Render(name))
	}
	return nil
}

func taskHelp(def any) string {
	m, ok := def.(map[string]any)
	if !ok {
		return ""
	}
	help, _ := m["help"].(string)
	return help
}
