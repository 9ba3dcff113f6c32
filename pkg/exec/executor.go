package exec

import "context"

// Request describes one external process invocation.
type Request struct {
	Name string
	Args []string
	// Stdin is written to the process's standard input.
	Stdin string
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Env entries are appended to the inherited environment.
	Env []string
}

// Result is the outcome of a process that ran to completion.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// CommandExecutor defines an interface for running external commands.
// This abstraction allows for easier testing by providing a mockable interface.
type CommandExecutor interface {
	// LookPath searches for an executable named file in the directories
	// named by the PATH environment variable.
	LookPath(file string) (string, error)

	// Run executes the command and waits for it to exit. A non-zero exit
	// status is reported in Result, not as an error; errors mean the
	// process could not be run or ctx ended first.
	Run(ctx context.Context, req Request) (*Result, error)
}
