package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/mattsolo1/grove-core/cli"
	"github.com/spf13/cobra"
)

// MacroSummary represents a macro in the JSON output.
type MacroSummary struct {
	ID     string `json:"macro_id"`
	Name   string `json:"name"`
	Engine string `json:"engine,omitempty"`
	Steps  int    `json:"steps"`
	Gates  int    `json:"gates"`
	Error  string `json:"error,omitempty"`
}

// NewListCmd creates the `list` command.
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available macros in this workspace",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := loadApp(".")
	if err != nil {
		return err
	}

	ids, err := a.macros.List()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("no macros found; run: macrocycle init")}
	}

	summaries := make([]MacroSummary, 0, len(ids))
	for _, id := range ids {
		s := MacroSummary{ID: id}
		m, err := a.macros.Load(id)
		if err != nil {
			s.Error = err.Error()
		} else {
			s.Name = m.Name
			s.Engine = m.Engine
			s.Steps = len(m.Steps)
			s.Gates = len(m.Steps) - m.LLMStepCount()
		}
		summaries = append(summaries, s)
	}

	out := cmd.OutOrStdout()
	opts := cli.GetOptions(cmd)
	if opts.JSONOutput {
		data, err := json.MarshalIndent(summaries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal macros: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tENGINE\tSTEPS")
	for _, s := range summaries {
		if s.Error != "" {
			fmt.Fprintf(w, "%s\t(invalid: %s)\t\t\n", s.ID, s.Error)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", s.ID, s.Name, engineLabel(s.Engine), s.Steps)
	}
	return w.Flush()
}

func engineLabel(engine string) string {
	if engine == "" {
		return "(default)"
	}
	return engine
}
