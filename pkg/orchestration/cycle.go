package orchestration

import (
	"fmt"
	"path"
	"time"

	"github.com/mattsolo1/grove-macrocycle/pkg/macro"
)

// Layout of a cycle location.
const (
	// ArtifactDir holds one markdown artifact per completed llm step.
	ArtifactDir = "steps"
	// InputFile records the user input the cycle was started with.
	InputFile = "input.md"
	// MetaFile records the final state of the cycle.
	MetaFile = "cycle.json"
)

// CycleStatus represents the lifecycle state of a cycle.
type CycleStatus string

const (
	StatusNotStarted CycleStatus = "not_started"
	StatusRunning    CycleStatus = "running"
	StatusCompleted  CycleStatus = "completed"
	StatusStopped    CycleStatus = "stopped"
	StatusFailed     CycleStatus = "failed"
	// StatusUnknown is reported for cycles whose metadata is missing.
	StatusUnknown CycleStatus = "unknown"
)

// IsTerminal reports whether no further transitions are possible.
func (s CycleStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusStopped, StatusFailed:
		return true
	}
	return false
}

// ArtifactName is the file name of the artifact for the step at the given
// 1-based position: "NN-<step_id>.md".
func ArtifactName(position int, stepID string) string {
	return fmt.Sprintf("%02d-%s.md", position, stepID)
}

// ArtifactPath is ArtifactName relative to the cycle location.
func ArtifactPath(position int, stepID string) string {
	return path.Join(ArtifactDir, ArtifactName(position, stepID))
}

// StepRun records one executed step.
type StepRun struct {
	StepID   string         `json:"step_id"`
	Type     macro.StepType `json:"type"`
	Position int            `json:"position"`
	// Artifact is the relative artifact path; empty for gates.
	Artifact string `json:"artifact,omitempty"`
	// Approved is set for gates.
	Approved *bool `json:"approved,omitempty"`
	// AutoApproved marks gates passed without asking.
	AutoApproved bool          `json:"auto_approved,omitempty"`
	Duration     time.Duration `json:"duration_ns"`
	Output       string        `json:"-"`
}

// Cycle is one execution of a macro.
type Cycle struct {
	ID         string      `json:"cycle_id"`
	RequestID  string      `json:"request_id"`
	MacroID    string      `json:"macro_id"`
	MacroName  string      `json:"macro_name,omitempty"`
	Engine     string      `json:"engine,omitempty"`
	Dir        string      `json:"-"`
	Status     CycleStatus `json:"status"`
	StopAfter  string      `json:"stop_after,omitempty"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at,omitempty"`
	Steps      []StepRun   `json:"steps"`
	// StoppedAt names the gate that was declined, if any.
	StoppedAt string `json:"stopped_at,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Artifacts lists the relative artifact paths written so far, in order.
func (c *Cycle) Artifacts() []string {
	var out []string
	for _, s := range c.Steps {
		if s.Artifact != "" {
			out = append(out, s.Artifact)
		}
	}
	return out
}
