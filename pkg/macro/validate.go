package macro

import (
	"errors"
	"fmt"
	"regexp"
)

var stepIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidationError lists every problem found in a macro definition.
type ValidationError struct {
	MacroID  string
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("invalid macro %q: %s", e.MacroID, e.Problems[0])
	}
	return fmt.Sprintf("invalid macro %q: %d problems (first: %s)", e.MacroID, len(e.Problems), e.Problems[0])
}

// Validate checks the structural invariants of a macro. Back-references are
// not checked here; an unresolved reference surfaces when the step runs.
func Validate(m *Macro) error {
	if m == nil {
		return errors.New("macro is nil")
	}

	var problems []string
	if m.ID == "" {
		problems = append(problems, "missing required field: macro_id")
	}
	if len(m.Steps) == 0 {
		problems = append(problems, "macro must contain at least one step")
	}

	seen := make(map[string]int)
	for i, s := range m.Steps {
		pos := i + 1
		switch {
		case s.ID == "":
			problems = append(problems, fmt.Sprintf("step %d: missing required field: id", pos))
		case !stepIDPattern.MatchString(s.ID):
			problems = append(problems, fmt.Sprintf("step %d: id %q may only contain letters, digits, '_' and '-'", pos, s.ID))
		}
		if prev, dup := seen[s.ID]; dup && s.ID != "" {
			problems = append(problems, fmt.Sprintf("step %d: duplicate id %q (first used by step %d)", pos, s.ID, prev))
		} else {
			seen[s.ID] = pos
		}

		switch s.Type {
		case StepTypeLLM:
			if s.Prompt == "" {
				problems = append(problems, fmt.Sprintf("step %d (%s): llm step requires a prompt", pos, s.ID))
			}
		case StepTypeGate:
			if s.Message == "" {
				problems = append(problems, fmt.Sprintf("step %d (%s): gate step requires a message", pos, s.ID))
			}
		case "":
			problems = append(problems, fmt.Sprintf("step %d (%s): missing required field: type", pos, s.ID))
		default:
			problems = append(problems, fmt.Sprintf("step %d (%s): unknown step type %q", pos, s.ID, s.Type))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{MacroID: m.ID, Problems: problems}
	}
	return nil
}
