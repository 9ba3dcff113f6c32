package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/mattsolo1/grove-core/cli"
	"github.com/mattsolo1/grove-core/tui/theme"
	"github.com/mattsolo1/grove-macrocycle/pkg/macro"
	"github.com/mattsolo1/grove-macrocycle/pkg/orchestration"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

// NewPreviewCmd creates the `preview` command.
func NewPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <macro> [sample-input]",
		Short: "Show a macro's rendered prompts without running it",
		Long: `Renders every step of a macro in order. Input placeholders show the
sample input when given; references to other steps' output are shown as
markers because nothing has run yet. Nothing is written and no agent is called.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runPreview,
	}
}

func runPreview(cmd *cobra.Command, args []string) error {
	a, err := loadApp(".")
	if err != nil {
		return err
	}
	if err := a.requireInitialized(); err != nil {
		return err
	}

	sample := ""
	if len(args) > 1 {
		sample = args[1]
	}
	p, err := orchestration.PreviewMacro(a.macros, args[0], sample)
	if err != nil {
		return err
	}

	if cli.GetOptions(cmd).JSONOutput {
		data, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal preview: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	renderPreview(cmd.OutOrStdout(), p)
	return nil
}

// renderPreview writes a human-readable preview.
func renderPreview(w io.Writer, p *orchestration.MacroPreview) {
	r := lipgloss.NewRenderer(w)
	if color.NoColor {
		r.SetColorProfile(termenv.Ascii)
	}
	previewBox := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.DefaultColors.Border).
		Padding(0, 1)
	gateStyle := r.NewStyle().Bold(true).Foreground(theme.DefaultColors.Orange)

	title := p.MacroID
	if p.Name != "" {
		title = fmt.Sprintf("%s (%s)", p.Name, p.MacroID)
	}
	fmt.Fprintln(w, theme.DefaultTheme.Header.Render(title))

	meta := fmt.Sprintf("engine: %s  steps: %d", engineLabel(p.Engine), len(p.Steps))
	if p.IncludePreviousOutputs {
		meta += "  previous outputs: included"
	}
	fmt.Fprintln(w, theme.DefaultTheme.Muted.Render(meta))

	for _, s := range p.Steps {
		fmt.Fprintln(w)
		heading := fmt.Sprintf("%d. %s %s", s.Index, stepTypeLabel(s.Type), s.StepID)
		if s.Type == macro.StepTypeGate {
			fmt.Fprintln(w, gateStyle.Render(heading))
			fmt.Fprintln(w, "   "+s.Content)
			continue
		}
		fmt.Fprintln(w, theme.DefaultTheme.Bold.Render(heading))
		fmt.Fprintln(w, previewBox.Render(strings.TrimRight(s.Content, "\n")))
	}

	if len(p.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warning := range p.Warnings {
			fmt.Fprintf(w, "%s %s\n", theme.IconWarning, theme.DefaultTheme.Warning.Render(warning))
		}
	}
}

// renderOutline writes one line per step, as used by run --dry-run.
func renderOutline(w io.Writer, p *orchestration.MacroPreview) {
	name := p.Name
	if name == "" {
		name = p.MacroID
	}
	fmt.Fprintf(w, "Macro: %s (%d steps)\n", name, len(p.Steps))
	for _, s := range p.Steps {
		fmt.Fprintf(w, "  %d. %s %s\n", s.Index, stepTypeLabel(s.Type), s.StepID)
	}
}

func stepTypeLabel(t macro.StepType) string {
	return "[" + string(t) + "]"
}
