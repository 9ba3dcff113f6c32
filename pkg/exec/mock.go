package exec

import (
	"context"
	"strings"
)

// MockCommandExecutor is a mock implementation of CommandExecutor for testing.
// It records all commands that would be executed without actually running them.
type MockCommandExecutor struct {
	// Commands records all commands that were executed
	Commands []string

	// Requests records the full requests, stdin included
	Requests []Request

	// LookPathFunc allows custom behavior for LookPath in tests
	LookPathFunc func(file string) (string, error)

	// RunFunc allows custom behavior for Run in tests
	RunFunc func(ctx context.Context, req Request) (*Result, error)
}

// LookPath implements the CommandExecutor interface for testing.
func (m *MockCommandExecutor) LookPath(file string) (string, error) {
	if m.LookPathFunc != nil {
		return m.LookPathFunc(file)
	}
	// By default, assume commands exist
	return "/path/to/" + file, nil
}

// Run implements the CommandExecutor interface for testing.
// It records the command and, by default, succeeds with empty output.
func (m *MockCommandExecutor) Run(ctx context.Context, req Request) (*Result, error) {
	cmdStr := req.Name
	if len(req.Args) > 0 {
		cmdStr = req.Name + " " + strings.Join(req.Args, " ")
	}
	m.Commands = append(m.Commands, cmdStr)
	m.Requests = append(m.Requests, req)

	if m.RunFunc != nil {
		return m.RunFunc(ctx, req)
	}
	return &Result{}, nil
}
