package agent

import (
	"context"
	"fmt"

	"github.com/mattsolo1/grove-anthropic/pkg/anthropic"
	anthropicconfig "github.com/mattsolo1/grove-anthropic/pkg/config"
	"github.com/mattsolo1/grove-gemini/pkg/gemini"
	geminiconfig "github.com/mattsolo1/grove-gemini/pkg/config"
	"github.com/mattsolo1/grove-macrocycle/pkg/orchestration"
)

const (
	defaultAnthropicModel = "claude-sonnet-4-20250514"
	defaultGeminiModel    = "gemini-2.5-pro"
	anthropicMaxTokens    = 64000
	callerName            = "grove-macrocycle"
)

// exitAPIError is reported when an API engine returns an error.
const exitAPIError = 1

type anthropicRunner interface {
	Run(ctx context.Context, opts anthropic.RequestOptions) (string, error)
}

type geminiRunner interface {
	Run(ctx context.Context, opts gemini.RequestOptions) (string, error)
}

// AnthropicAgent calls the Anthropic API through grove-anthropic.
type AnthropicAgent struct {
	model      string
	workDir    string
	runner     anthropicRunner
	resolveKey func() (string, error)
}

// NewAnthropicAgent returns an agent for model, or the default Claude model.
func NewAnthropicAgent(model, workDir string) *AnthropicAgent {
	return &AnthropicAgent{
		model:      model,
		workDir:    workDir,
		runner:     anthropic.NewRequestRunner(),
		resolveKey: anthropicconfig.ResolveAPIKey,
	}
}

func (a *AnthropicAgent) Invoke(ctx context.Context, req orchestration.AgentRequest) (orchestration.AgentResult, error) {
	apiKey, err := a.resolveKey()
	if err != nil {
		return orchestration.AgentResult{ExitCode: exitAPIError, Text: fmt.Sprintf("resolving Anthropic API key: %v", err)}, nil
	}

	model := a.model
	if model == "" {
		model = defaultAnthropicModel
	}
	response, err := a.runner.Run(ctx, anthropic.RequestOptions{
		Model:     model,
		Prompt:    req.Prompt,
		WorkDir:   a.workDir,
		APIKey:    apiKey,
		MaxTokens: anthropicMaxTokens,
		Caller:    callerName,
		JobID:     req.StepID,
		PlanName:  req.CycleID,
	})
	return apiResult(ctx, response, err)
}

// GeminiAgent calls the Gemini API through grove-gemini.
type GeminiAgent struct {
	model      string
	workDir    string
	runner     geminiRunner
	resolveKey func() (string, error)
}

// NewGeminiAgent returns an agent for model, or the default Gemini model.
func NewGeminiAgent(model, workDir string) *GeminiAgent {
	return &GeminiAgent{
		model:      model,
		workDir:    workDir,
		runner:     gemini.NewRequestRunner(),
		resolveKey: geminiconfig.ResolveAPIKey,
	}
}

func (a *GeminiAgent) Invoke(ctx context.Context, req orchestration.AgentRequest) (orchestration.AgentResult, error) {
	apiKey, err := a.resolveKey()
	if err != nil {
		// Let the runner report a missing key consistently.
		apiKey = ""
	}

	model := a.model
	if model == "" {
		model = defaultGeminiModel
	}
	response, err := a.runner.Run(ctx, gemini.RequestOptions{
		Model:            model,
		Prompt:           req.Prompt,
		WorkDir:          a.workDir,
		SkipConfirmation: true,
		APIKey:           apiKey,
		Caller:           callerName,
		JobID:            req.StepID,
		PlanName:         req.CycleID,
	})
	return apiResult(ctx, response, err)
}

func apiResult(ctx context.Context, response string, err error) (orchestration.AgentResult, error) {
	if err != nil {
		if ctx.Err() != nil {
			return orchestration.AgentResult{}, fmt.Errorf("api request: %w", ctx.Err())
		}
		return orchestration.AgentResult{ExitCode: exitAPIError, Text: err.Error()}, nil
	}
	return orchestration.AgentResult{Text: response}, nil
}
