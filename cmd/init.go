package cmd

import (
	"fmt"

	"github.com/mattsolo1/grove-core/tui/theme"
	"github.com/spf13/cobra"
)

// NewInitCmd creates the `init` command.
func NewInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize .macrocycle/ with the default macros",
		Long: `Creates .macrocycle/macros and .macrocycle/cycles at the workspace root
(the enclosing git repository, or the current directory) and installs the
built-in macros. Existing macro files are never overwritten.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	a, err := loadApp(".")
	if err != nil {
		return err
	}

	if err := a.cycles.EnsureReady(); err != nil {
		return err
	}
	installed, err := a.macros.InstallDefaults()
	if err != nil {
		return fmt.Errorf("install default macros: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, id := range installed {
		fmt.Fprintf(out, "%s Installed macro %s\n", theme.IconSuccess, id)
	}
	fmt.Fprintf(out, "Initialized macros in: %s\n", a.ws.BaseDir())
	return nil
}
