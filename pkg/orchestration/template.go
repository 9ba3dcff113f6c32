package orchestration

import (
	"regexp"
	"strings"
)

// Template tokens and the markers that replace them in previews.
const (
	InputToken         = "{{INPUT}}"
	InputPreviewMarker = "[← your input will appear here]"
)

// StepOutputToken returns the token referencing stepID's output.
func StepOutputToken(stepID string) string {
	return "{{STEP_OUTPUT:" + stepID + "}}"
}

// OutputPreviewMarker returns the preview marker for stepID's output.
func OutputPreviewMarker(stepID string) string {
	return "[← output from: " + stepID + "]"
}

// tokenPattern matches either token form. Group 1 is set for INPUT, group 2
// carries the referenced step id.
var tokenPattern = regexp.MustCompile(`\{\{(?:(INPUT)|STEP_OUTPUT:([A-Za-z0-9_-]+))\}\}`)

// OutputLookup resolves step ids to recorded outputs.
type OutputLookup interface {
	Output(stepID string) (string, bool)
}

// OutputMap is an OutputLookup over a plain map.
type OutputMap map[string]string

func (m OutputMap) Output(stepID string) (string, bool) {
	v, ok := m[stepID]
	return v, ok
}

// RenderTemplate substitutes every {{INPUT}} with input and every
// {{STEP_OUTPUT:id}} with the recorded output of id. Substitution happens in
// one left-to-right pass; tokens inside substituted text are left as is.
// An unknown id yields a MissingReference error.
func RenderTemplate(tmpl, input string, outputs OutputLookup) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl))

	last := 0
	for _, m := range tokenPattern.FindAllStringSubmatchIndex(tmpl, -1) {
		b.WriteString(tmpl[last:m[0]])
		last = m[1]

		if m[2] >= 0 {
			b.WriteString(input)
			continue
		}

		id := tmpl[m[4]:m[5]]
		var (
			out string
			ok  bool
		)
		if outputs != nil {
			out, ok = outputs.Output(id)
		}
		if !ok {
			return "", &Error{Kind: KindMissingReference, Ref: id}
		}
		b.WriteString(out)
	}
	b.WriteString(tmpl[last:])
	return b.String(), nil
}

// RenderPreview renders tmpl without executing anything. A non-empty
// sampleInput replaces {{INPUT}}; otherwise the input marker is shown. Step
// outputs are always shown as markers. It never fails.
func RenderPreview(tmpl, sampleInput string) string {
	return tokenPattern.ReplaceAllStringFunc(tmpl, func(tok string) string {
		if tok == InputToken {
			if sampleInput != "" {
				return sampleInput
			}
			return InputPreviewMarker
		}
		id := strings.TrimSuffix(strings.TrimPrefix(tok, "{{STEP_OUTPUT:"), "}}")
		return OutputPreviewMarker(id)
	})
}
