package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/mattsolo1/grove-macrocycle/pkg/exec"
	"github.com/mattsolo1/grove-macrocycle/pkg/orchestration"
)

// exitNotFound is reported when the engine's executable is not on PATH.
const exitNotFound = 127

// CommandAgent runs an external CLI with the prompt on stdin.
type CommandAgent struct {
	engine   string
	command  string
	args     []string
	workDir  string
	executor exec.CommandExecutor
}

// NewCommandAgent returns an agent running command with args.
func NewCommandAgent(engine, command string, args []string, workDir string, executor exec.CommandExecutor) *CommandAgent {
	if executor == nil {
		executor = exec.NewRealCommandExecutor()
	}
	return &CommandAgent{
		engine:   engine,
		command:  command,
		args:     args,
		workDir:  workDir,
		executor: executor,
	}
}

// Invoke runs the command. Standard output is the result text; on a
// non-zero exit the text is standard error, or standard output when
// nothing was written to standard error.
func (a *CommandAgent) Invoke(ctx context.Context, req orchestration.AgentRequest) (orchestration.AgentResult, error) {
	if _, err := a.executor.LookPath(a.command); err != nil {
		return orchestration.AgentResult{
			ExitCode: exitNotFound,
			Text:     fmt.Sprintf("%s engine: %s not found in PATH", a.engine, a.command),
		}, nil
	}

	res, err := a.executor.Run(ctx, exec.Request{
		Name:  a.command,
		Args:  a.args,
		Stdin: req.Prompt,
		Dir:   a.workDir,
	})
	if err != nil {
		if ctx.Err() != nil {
			return orchestration.AgentResult{}, fmt.Errorf("run %s: %w", a.command, ctx.Err())
		}
		return orchestration.AgentResult{}, fmt.Errorf("run %s: %w", a.command, err)
	}

	if res.ExitCode != 0 {
		text := res.Stderr
		if strings.TrimSpace(text) == "" {
			text = res.Stdout
		}
		return orchestration.AgentResult{ExitCode: res.ExitCode, Text: text}, nil
	}
	return orchestration.AgentResult{Text: res.Stdout}, nil
}
