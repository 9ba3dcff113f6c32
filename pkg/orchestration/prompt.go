package orchestration

import (
	"fmt"
	"strings"

	"github.com/mattsolo1/grove-macrocycle/pkg/macro"
)

// BuildPrompt renders the prompt for an llm step. When includePrevious is
// set and outputs have been recorded, they are prepended in completion order
// ahead of a header naming the current step.
func BuildPrompt(step macro.Step, input string, rc *RunContext, includePrevious bool) (string, error) {
	if step.Type != macro.StepTypeLLM {
		return "", fmt.Errorf("step %q is not an llm step", step.ID)
	}

	var lookup OutputLookup
	if rc != nil {
		lookup = rc
	}
	rendered, err := RenderTemplate(step.Prompt, input, lookup)
	if err != nil {
		return "", err
	}

	if !includePrevious || rc == nil || rc.Len() == 0 {
		return rendered, nil
	}

	var b strings.Builder
	b.WriteString(FormatPreviousOutputs(rc.Entries()))
	fmt.Fprintf(&b, "=== Current Step: %s ===\n\n", step.ID)
	b.WriteString(rendered)
	return b.String(), nil
}

// FormatPreviousOutputs renders recorded outputs as delimited sections. Each
// output is copied verbatim and followed by a blank line.
func FormatPreviousOutputs(entries []ContextEntry) string {
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "=== Output from %s (step %d) ===\n\n", e.StepID, e.Position)
		b.WriteString(e.Output)
		switch {
		case strings.HasSuffix(e.Output, "\n\n"):
		case strings.HasSuffix(e.Output, "\n"):
			b.WriteString("\n")
		default:
			b.WriteString("\n\n")
		}
	}
	return b.String()
}
