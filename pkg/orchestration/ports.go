package orchestration

import (
	"context"
	"errors"

	"github.com/mattsolo1/grove-macrocycle/pkg/macro"
)

// MacroLoader looks up macro definitions by id. Implementations return an
// error wrapping macro.ErrNotFound for unknown ids.
type MacroLoader interface {
	Load(id string) (*macro.Macro, error)
}

// CycleStore persists the artifacts of a cycle. It is used by one writer at
// a time.
type CycleStore interface {
	// EnsureReady prepares the storage location. Idempotent.
	EnsureReady() error
	// BeginCycle allocates a fresh, uniquely named location for a cycle.
	BeginCycle(macroID string) (string, error)
	// WriteArtifact persists content at relPath inside the cycle location.
	WriteArtifact(cycleDir, relPath, content string) error
}

// CycleFinisher is implemented by stores that need to know when a cycle's
// run has ended, whatever its outcome.
type CycleFinisher interface {
	FinishCycle(cycleDir string) error
}

// AgentRequest is one prompt sent to the text-generation agent.
type AgentRequest struct {
	Engine  string
	Prompt  string
	MacroID string
	CycleID string
	StepID  string
}

// AgentResult is the agent's reply. A non-zero ExitCode means the agent
// failed and Text carries its error output.
type AgentResult struct {
	ExitCode int
	Text     string
}

// Agent invokes the external text-generation agent synchronously.
type Agent interface {
	Invoke(ctx context.Context, req AgentRequest) (AgentResult, error)
}

// ErrAgentTimedOut is wrapped by agents whose invocation exceeded its deadline.
var ErrAgentTimedOut = errors.New("agent invocation timed out")

// Confirmer asks a human to approve a gate. Implementations return promptly
// once ctx is done.
type Confirmer interface {
	Confirm(ctx context.Context, message string, defaultYes bool) (bool, error)
}

// ConfirmFunc adapts a function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, message string, defaultYes bool) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, message string, defaultYes bool) (bool, error) {
	return f(ctx, message, defaultYes)
}
