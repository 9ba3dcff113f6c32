package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/mattsolo1/grove-core/cli"
	"github.com/mattsolo1/grove-macrocycle/pkg/orchestration"
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the `status` command.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the most recent cycle",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := loadApp(".")
	if err != nil {
		return err
	}

	info, err := a.cycles.LatestCycle()
	if err != nil {
		return err
	}
	if info == nil {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("no cycles found; run: macrocycle run <macro> <input>")}
	}

	out := cmd.OutOrStdout()
	if cli.GetOptions(cmd).JSONOutput {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal cycle info: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	fmt.Fprintf(out, "Last cycle: %s\n", info.MacroID)
	fmt.Fprintf(out, "  Started:   %s\n", info.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Status:    %s\n", colorStatus(info.Status))
	if info.PID != 0 {
		fmt.Fprintf(out, "  PID:       %d\n", info.PID)
	}
	fmt.Fprintf(out, "  Steps:     %d completed\n", info.StepCount)
	fmt.Fprintf(out, "  Artifacts: %s\n", info.Dir)
	if info.Error != "" {
		fmt.Fprintf(out, "  Error:     %s\n", info.Error)
	}
	return nil
}

func colorStatus(s orchestration.CycleStatus) string {
	switch s {
	case orchestration.StatusCompleted:
		return color.GreenString(string(s))
	case orchestration.StatusStopped:
		return color.YellowString(string(s))
	case orchestration.StatusFailed:
		return color.RedString(string(s))
	case orchestration.StatusRunning:
		return color.CyanString(string(s))
	default:
		return string(s)
	}
}
