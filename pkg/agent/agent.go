// Package agent implements the text-generation agent used by macro steps.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	grovelogging "github.com/mattsolo1/grove-core/logging"
	"github.com/mattsolo1/grove-macrocycle/pkg/exec"
	"github.com/mattsolo1/grove-macrocycle/pkg/orchestration"
)

// ErrTimeout is wrapped by errors returned when an invocation exceeds the
// router's timeout.
var ErrTimeout = orchestration.ErrAgentTimedOut

// Engine names understood by the router.
const (
	EngineCursor    = "cursor"
	EngineClaude    = "claude"
	EngineCodex     = "codex"
	EngineLLM       = "llm"
	EngineAnthropic = "anthropic"
	EngineGemini    = "gemini"
	EngineMock      = "mock"
)

// DefaultEngine is used when neither the macro nor the config names one.
const DefaultEngine = EngineCursor

// EngineCommand is an external CLI that reads a prompt on stdin.
type EngineCommand struct {
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`
}

// builtinCommands are the CLI engines available without configuration.
var builtinCommands = map[string]EngineCommand{
	EngineCursor: {Command: "cursor-agent", Args: []string{"-p", "--output-format", "text"}},
	EngineClaude: {Command: "claude", Args: []string{"-p"}},
	EngineCodex:  {Command: "codex", Args: []string{"exec", "-"}},
	EngineLLM:    {Command: "llm"},
}

// Config selects and tunes engines.
type Config struct {
	// DefaultEngine replaces an empty engine on a request.
	DefaultEngine string
	// Model is passed to engines that accept one.
	Model string
	// Timeout bounds each invocation; zero means no limit.
	Timeout time.Duration
	// WorkDir is the working directory for CLI engines.
	WorkDir string
	// Engines adds CLI engines or overrides the built-in ones.
	Engines map[string]EngineCommand
	// MockResponseFile forces every request to the mock engine.
	MockResponseFile string
}

// Router dispatches each request to the agent registered for its engine.
type Router struct {
	agents        map[string]orchestration.Agent
	defaultEngine string
	forced        string
	timeout       time.Duration
}

var _ orchestration.Agent = (*Router)(nil)

// NewRouter builds the engine table for cfg. CLI engines run through executor.
func NewRouter(cfg Config, executor exec.CommandExecutor) *Router {
	r := &Router{
		agents:        make(map[string]orchestration.Agent),
		defaultEngine: cfg.DefaultEngine,
		timeout:       cfg.Timeout,
	}
	if r.defaultEngine == "" {
		r.defaultEngine = DefaultEngine
	}

	commands := make(map[string]EngineCommand, len(builtinCommands)+len(cfg.Engines))
	for name, c := range builtinCommands {
		commands[name] = c
	}
	for name, c := range cfg.Engines {
		commands[name] = c
	}
	for name, c := range commands {
		args := c.Args
		if name == EngineLLM && cfg.Model != "" {
			args = append([]string{"-m", cfg.Model}, args...)
		}
		r.agents[name] = NewCommandAgent(name, c.Command, args, cfg.WorkDir, executor)
	}

	r.agents[EngineAnthropic] = NewAnthropicAgent(cfg.Model, cfg.WorkDir)
	r.agents[EngineGemini] = NewGeminiAgent(cfg.Model, cfg.WorkDir)
	r.agents[EngineMock] = NewMockAgent(cfg.MockResponseFile)
	if cfg.MockResponseFile != "" {
		r.forced = EngineMock
	}
	return r
}

// Engines lists the registered engine names.
func (r *Router) Engines() []string {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve returns the engine a request for engine would be sent to.
func (r *Router) Resolve(engine string) string {
	switch {
	case r.forced != "":
		return r.forced
	case engine == "":
		return r.defaultEngine
	default:
		return engine
	}
}

// Invoke sends req to its engine, applying the router's timeout.
func (r *Router) Invoke(ctx context.Context, req orchestration.AgentRequest) (orchestration.AgentResult, error) {
	engine := r.Resolve(req.Engine)
	a, ok := r.agents[engine]
	if !ok {
		return orchestration.AgentResult{}, fmt.Errorf("unknown engine %q", engine)
	}
	req.Engine = engine

	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	log := grovelogging.NewLogger("grove-macrocycle.agent").WithField("engine", engine).WithField("step", req.StepID)
	log.Debug("Invoking agent")
	started := time.Now()

	res, err := a.Invoke(callCtx, req)
	if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return orchestration.AgentResult{}, fmt.Errorf("%s after %s: %w", engine, r.timeout, ErrTimeout)
	}
	if err != nil {
		return res, err
	}

	log.WithField("exit_code", res.ExitCode).WithField("duration", time.Since(started)).Debug("Agent returned")
	return res, nil
}
