package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/mattsolo1/grove-core/command"
)

// ExecError wraps a failure to run a command with whatever output it produced.
type ExecError struct {
	Err    error
	Output string
}

func (e *ExecError) Error() string {
	if e.Output == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v: %s", e.Err, e.Output)
}

func (e *ExecError) Unwrap() error {
	return e.Err
}

// RealCommandExecutor runs system commands built through grove-core's
// SafeBuilder.
type RealCommandExecutor struct {
	builder *command.SafeBuilder
}

// NewRealCommandExecutor returns the production executor.
func NewRealCommandExecutor() *RealCommandExecutor {
	return &RealCommandExecutor{builder: command.NewSafeBuilder()}
}

// LookPath searches for an executable named file in the directories
// named by the PATH environment variable.
func (e *RealCommandExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

// Run executes req, feeding Stdin and capturing both output streams.
func (e *RealCommandExecutor) Run(ctx context.Context, req Request) (*Result, error) {
	builder := e.builder
	if builder == nil {
		builder = command.NewSafeBuilder()
	}

	cmd, err := builder.Build(ctx, req.Name, req.Args...)
	if err != nil {
		return nil, fmt.Errorf("build %s command: %w", req.Name, err)
	}

	execCmd := cmd.Exec()
	if req.Dir != "" {
		execCmd.Dir = req.Dir
	}
	if len(req.Env) > 0 {
		execCmd.Env = append(os.Environ(), req.Env...)
	}
	execCmd.Stdin = strings.NewReader(req.Stdin)

	var stdout, stderr bytes.Buffer
	execCmd.Stdout = &stdout
	execCmd.Stderr = &stderr

	runErr := execCmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s: %w", req.Name, ctxErr)
	}

	result := &Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, &ExecError{Err: runErr, Output: stderr.String()}
	}
	return result, nil
}
