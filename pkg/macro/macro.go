// Package macro defines macro definitions and their on-disk formats.
package macro

import (
	"regexp"
)

// StepType discriminates the step variants of a macro.
type StepType string

const (
	StepTypeLLM  StepType = "llm"
	StepTypeGate StepType = "gate"
)

// Step is one unit of a macro. Type selects which of the variant fields
// apply: Prompt for llm steps, Message for gate steps.
type Step struct {
	ID      string   `json:"id" yaml:"id" jsonschema:"required,pattern=^[A-Za-z0-9_-]+$"`
	Type    StepType `json:"type" yaml:"type" jsonschema:"required,enum=llm,enum=gate"`
	Prompt  string   `json:"prompt,omitempty" yaml:"prompt,omitempty" jsonschema_description:"Prompt template for llm steps. Supports {{INPUT}} and {{STEP_OUTPUT:<id>}}."`
	Message string   `json:"message,omitempty" yaml:"message,omitempty" jsonschema_description:"Approval message for gate steps."`
}

// NewLLMStep returns an llm step.
func NewLLMStep(id, prompt string) Step {
	return Step{ID: id, Type: StepTypeLLM, Prompt: prompt}
}

// NewGateStep returns a gate step.
func NewGateStep(id, message string) Step {
	return Step{ID: id, Type: StepTypeGate, Message: message}
}

// IsGate reports whether the step is a human approval gate.
func (s Step) IsGate() bool {
	return s.Type == StepTypeGate
}

// Macro is an ordered, immutable sequence of steps.
type Macro struct {
	ID                     string `json:"macro_id" yaml:"macro_id" jsonschema:"required"`
	Name                   string `json:"name" yaml:"name"`
	Engine                 string `json:"engine" yaml:"engine" jsonschema_description:"Agent engine used for llm steps (cursor, claude, codex, llm, anthropic, gemini, mock)."`
	IncludePreviousOutputs bool   `json:"include_previous_outputs" yaml:"include_previous_outputs"`
	Steps                  []Step `json:"steps" yaml:"steps" jsonschema:"required,minItems=1"`
}

// StepIndex returns the 0-based position of the step with the given id,
// or -1 when the macro has no such step.
func (m *Macro) StepIndex(id string) int {
	for i, s := range m.Steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// HasStep reports whether the macro declares a step with the given id.
func (m *Macro) HasStep(id string) bool {
	return m.StepIndex(id) >= 0
}

// LLMStepCount returns the number of llm steps.
func (m *Macro) LLMStepCount() int {
	n := 0
	for _, s := range m.Steps {
		if s.Type == StepTypeLLM {
			n++
		}
	}
	return n
}

// stepOutputRefPattern matches {{STEP_OUTPUT:<id>}} tokens.
var stepOutputRefPattern = regexp.MustCompile(`\{\{STEP_OUTPUT:([A-Za-z0-9_-]+)\}\}`)

// References returns the step ids referenced by a prompt template, in order
// of first appearance.
func References(template string) []string {
	var refs []string
	seen := make(map[string]bool)
	for _, m := range stepOutputRefPattern.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			refs = append(refs, m[1])
		}
	}
	return refs
}

// ForwardReference describes a back-reference that cannot be satisfied
// when the macro runs in order.
type ForwardReference struct {
	StepID string // step whose prompt holds the reference
	Target string // referenced step id
	Known  bool   // whether Target is declared anywhere in the macro
}

// ForwardReferences lists references to steps that will not have produced
// output by the time the referencing step runs: later steps, gates, the step
// itself, or ids the macro does not declare.
func (m *Macro) ForwardReferences() []ForwardReference {
	var out []ForwardReference
	produced := make(map[string]bool)
	for _, s := range m.Steps {
		if s.Type == StepTypeLLM {
			for _, ref := range References(s.Prompt) {
				if !produced[ref] {
					out = append(out, ForwardReference{StepID: s.ID, Target: ref, Known: m.HasStep(ref)})
				}
			}
			produced[s.ID] = true
		}
	}
	return out
}
