package orchestration

import (
	"testing"

	"github.com/mattsolo1/grove-macrocycle/pkg/macro"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPreview(t *testing.T) {
	p := BuildPreview(deliveryMacro(), "")

	assert.Equal(t, "deliver", p.MacroID)
	assert.True(t, p.IncludePreviousOutputs)
	require.Len(t, p.Steps, 6)

	assert.Equal(t, StepPreview{Index: 1, StepID: "analyze", Type: macro.StepTypeLLM, Content: "Analyze this: [← your input will appear here]"}, p.Steps[0])
	assert.Equal(t, StepPreview{Index: 3, StepID: "approve", Type: macro.StepTypeGate, Content: "Approve the plan?"}, p.Steps[2])
	assert.Equal(t, "Implement:\n[← output from: plan]", p.Steps[3].Content)
	assert.Empty(t, p.Warnings)
}

func TestBuildPreviewSampleInput(t *testing.T) {
	p := BuildPreview(deliveryMacro(), "login fails")
	assert.Equal(t, "Analyze this: login fails", p.Steps[0].Content)
}

func TestBuildPreviewIsIdempotent(t *testing.T) {
	m := deliveryMacro()
	assert.Equal(t, BuildPreview(m, "x"), BuildPreview(m, "x"))
}

func TestBuildPreviewWarnsOnForwardReferences(t *testing.T) {
	m := &macro.Macro{
		ID: "odd",
		Steps: []macro.Step{
			macro.NewLLMStep("first", "{{STEP_OUTPUT:second}} {{STEP_OUTPUT:ghost}}"),
			macro.NewLLMStep("second", "ok"),
		},
	}

	p := BuildPreview(m, "")
	require.Len(t, p.Warnings, 2)
	assert.Contains(t, p.Warnings[0], `"second"`)
	assert.Contains(t, p.Warnings[1], `unknown step "ghost"`)
	assert.Equal(t, "[← output from: second] [← output from: ghost]", p.Steps[0].Content)
}

func TestPreviewMacro(t *testing.T) {
	p, err := PreviewMacro(fakeLoader{"deliver": deliveryMacro()}, "deliver", "")
	require.NoError(t, err)
	assert.Len(t, p.Steps, 6)

	_, err = PreviewMacro(fakeLoader{}, "deliver", "")
	assert.ErrorIs(t, err, ErrMacroNotFound)
}
