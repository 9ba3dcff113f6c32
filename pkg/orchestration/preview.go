package orchestration

import (
	"errors"
	"fmt"

	"github.com/mattsolo1/grove-macrocycle/pkg/macro"
)

// StepPreview is the rendered form of one step.
type StepPreview struct {
	Index   int            `json:"index"`
	StepID  string         `json:"step_id"`
	Type    macro.StepType `json:"type"`
	Content string         `json:"content"`
}

// MacroPreview is a non-executing projection of a macro.
type MacroPreview struct {
	MacroID                string        `json:"macro_id"`
	Name                   string        `json:"name,omitempty"`
	Engine                 string        `json:"engine,omitempty"`
	IncludePreviousOutputs bool          `json:"include_previous_outputs"`
	Steps                  []StepPreview `json:"steps"`
	Warnings               []string      `json:"warnings,omitempty"`
}

// BuildPreview renders every step of m in order. Gates show their message
// verbatim; llm steps are rendered with RenderPreview. Nothing is persisted
// and no agent is called.
func BuildPreview(m *macro.Macro, sampleInput string) *MacroPreview {
	p := &MacroPreview{
		MacroID:                m.ID,
		Name:                   m.Name,
		Engine:                 m.Engine,
		IncludePreviousOutputs: m.IncludePreviousOutputs,
		Steps:                  make([]StepPreview, 0, len(m.Steps)),
	}

	for i, step := range m.Steps {
		sp := StepPreview{Index: i + 1, StepID: step.ID, Type: step.Type}
		if step.IsGate() {
			sp.Content = step.Message
		} else {
			sp.Content = RenderPreview(step.Prompt, sampleInput)
		}
		p.Steps = append(p.Steps, sp)
	}

	for _, fr := range m.ForwardReferences() {
		if fr.Known {
			p.Warnings = append(p.Warnings, fmt.Sprintf("step %q references %q, which has not produced output by then", fr.StepID, fr.Target))
		} else {
			p.Warnings = append(p.Warnings, fmt.Sprintf("step %q references unknown step %q", fr.StepID, fr.Target))
		}
	}
	return p
}

// PreviewMacro loads macroID and builds its preview.
func PreviewMacro(loader MacroLoader, macroID, sampleInput string) (*MacroPreview, error) {
	m, err := loader.Load(macroID)
	if err != nil {
		if errors.Is(err, macro.ErrNotFound) {
			return nil, &Error{Kind: KindMacroNotFound, Message: fmt.Sprintf("macro %q not found", macroID), Err: err}
		}
		return nil, fmt.Errorf("load macro %s: %w", macroID, err)
	}
	return BuildPreview(m, sampleInput), nil
}
