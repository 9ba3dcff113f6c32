package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattsolo1/grove-macrocycle/pkg/macro"
)

// RunOptions configures one macro run.
type RunOptions struct {
	MacroID string
	Input   string
	// AutoApprove passes every gate without asking.
	AutoApprove bool
	// StopAfter ends the run as completed once the named step has finished.
	StopAfter string
}

// RunResult reports a terminal outcome. Cycle is nil only when the run was
// rejected before a cycle location was allocated.
type RunResult struct {
	Cycle *Cycle
	// EarlyStop is set when the run completed at the StopAfter step.
	EarlyStop bool
}

// Status returns the terminal status of the run.
func (r *RunResult) Status() CycleStatus {
	if r == nil || r.Cycle == nil {
		return StatusNotStarted
	}
	return r.Cycle.Status
}

// CycleOrchestrator walks a macro's steps in order, invoking the agent for
// llm steps and the confirmer for gates, and persists each step's artifact.
// One orchestrator runs one cycle at a time.
type CycleOrchestrator struct {
	macros    MacroLoader
	store     CycleStore
	agent     Agent
	confirmer Confirmer
	logger    Logger
	now       func() time.Time
}

// NewCycleOrchestrator creates an orchestrator. confirmer may be nil when
// every run auto-approves its gates.
func NewCycleOrchestrator(macros MacroLoader, store CycleStore, agent Agent, confirmer Confirmer) *CycleOrchestrator {
	return &CycleOrchestrator{
		macros:    macros,
		store:     store,
		agent:     agent,
		confirmer: confirmer,
		logger:    NewDefaultLogger(),
		now:       time.Now,
	}
}

// SetLogger sets a custom logger.
func (o *CycleOrchestrator) SetLogger(logger Logger) {
	o.logger = logger
}

// run is the mutable state of one Run invocation.
type run struct {
	macro     *macro.Macro
	opts      RunOptions
	cycle     *Cycle
	context   *RunContext
	requestID string
}

// Run executes the macro named by opts.MacroID.
//
// Configuration errors (unknown macro, invalid macro, unknown StopAfter id)
// are returned with a nil result and nothing persisted. Once a cycle exists
// the result is always non-nil; a Failed run also returns its error, while
// Completed and Stopped runs return nil unless the final cycle metadata
// could not be stored.
func (o *CycleOrchestrator) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	m, err := o.loadMacro(opts.MacroID)
	if err != nil {
		return nil, err
	}
	if opts.StopAfter != "" && !m.HasStep(opts.StopAfter) {
		return nil, &Error{
			Kind:    KindInvalidStopTarget,
			Message: fmt.Sprintf("stop-after step %q is not defined in macro %q", opts.StopAfter, m.ID),
		}
	}

	r := &run{
		macro:     m,
		opts:      opts,
		context:   NewRunContext(),
		requestID: "req-" + uuid.New().String()[:8],
	}

	if err := o.store.EnsureReady(); err != nil {
		return nil, &Error{Kind: KindStorage, Message: "prepare cycle storage", Err: err}
	}
	dir, err := o.store.BeginCycle(m.ID)
	if err != nil {
		return nil, &Error{Kind: KindStorage, Message: "begin cycle", Err: err}
	}

	r.cycle = &Cycle{
		ID:        filepath.Base(dir),
		RequestID: r.requestID,
		MacroID:   m.ID,
		MacroName: m.Name,
		Engine:    m.Engine,
		Dir:       dir,
		Status:    StatusRunning,
		StopAfter: opts.StopAfter,
		StartedAt: o.now(),
		Steps:     []StepRun{},
	}
	result := &RunResult{Cycle: r.cycle}

	o.logger.Info("Starting cycle",
		"request_id", r.requestID,
		"macro", m.ID,
		"cycle", r.cycle.ID,
		"steps", len(m.Steps))

	if err := o.store.WriteArtifact(dir, InputFile, opts.Input); err != nil {
		return result, o.fail(r, &Error{Kind: KindStorage, Message: "write input", Err: err})
	}

	for i, step := range m.Steps {
		if err := ctx.Err(); err != nil {
			return result, o.fail(r, &Error{Kind: KindCancelled, StepID: step.ID, Message: "run cancelled", Err: err})
		}

		position := i + 1
		proceed, err := o.runStep(ctx, r, position, step)
		if err != nil {
			return result, o.fail(r, err)
		}
		if !proceed {
			r.cycle.StoppedAt = step.ID
			o.logger.Info("Cycle stopped at gate",
				"request_id", r.requestID,
				"step", step.ID,
				"completed_steps", len(r.cycle.Steps))
			return result, o.finish(r, StatusStopped)
		}

		if opts.StopAfter != "" && step.ID == opts.StopAfter {
			result.EarlyStop = i < len(m.Steps)-1
			o.logger.Info("Reached stop-after step",
				"request_id", r.requestID,
				"step", step.ID)
			break
		}
	}

	o.logger.Info("Cycle completed",
		"request_id", r.requestID,
		"cycle", r.cycle.ID,
		"completed_steps", len(r.cycle.Steps))
	return result, o.finish(r, StatusCompleted)
}

func (o *CycleOrchestrator) loadMacro(id string) (*macro.Macro, error) {
	m, err := o.macros.Load(id)
	if err != nil {
		if errors.Is(err, macro.ErrNotFound) {
			return nil, &Error{Kind: KindMacroNotFound, Message: fmt.Sprintf("macro %q not found", id), Err: err}
		}
		var verr *macro.ValidationError
		if errors.As(err, &verr) {
			return nil, &Error{Kind: KindInvalidMacro, Message: fmt.Sprintf("macro %q is invalid", id), Err: err}
		}
		return nil, fmt.Errorf("load macro %s: %w", id, err)
	}
	if err := macro.Validate(m); err != nil {
		return nil, &Error{Kind: KindInvalidMacro, Message: fmt.Sprintf("macro %q is invalid", id), Err: err}
	}
	return m, nil
}

// runStep executes one step. It reports false when a gate was declined.
func (o *CycleOrchestrator) runStep(ctx context.Context, r *run, position int, step macro.Step) (bool, error) {
	switch step.Type {
	case macro.StepTypeLLM:
		return true, o.runLLMStep(ctx, r, position, step)
	case macro.StepTypeGate:
		return o.runGate(ctx, r, position, step)
	default:
		return false, &Error{Kind: KindInvalidMacro, StepID: step.ID, Message: fmt.Sprintf("unknown step type %q", step.Type)}
	}
}

func (o *CycleOrchestrator) runLLMStep(ctx context.Context, r *run, position int, step macro.Step) error {
	prompt, err := BuildPrompt(step, r.opts.Input, r.context, r.macro.IncludePreviousOutputs)
	if err != nil {
		var oe *Error
		if errors.As(err, &oe) {
			oe.StepID = step.ID
			return oe
		}
		return fmt.Errorf("build prompt for step %s: %w", step.ID, err)
	}

	o.logger.Info("Running step",
		"request_id", r.requestID,
		"step", step.ID,
		"position", position,
		"engine", r.macro.Engine)
	o.logger.Debug("Step prompt",
		"request_id", r.requestID,
		"step", step.ID,
		"prompt_length", len(prompt))

	started := o.now()
	res, err := o.agent.Invoke(ctx, AgentRequest{
		Engine:  r.macro.Engine,
		Prompt:  prompt,
		MacroID: r.macro.ID,
		CycleID: r.cycle.ID,
		StepID:  step.ID,
	})
	if err != nil {
		if errors.Is(err, ErrAgentTimedOut) || errors.Is(err, context.DeadlineExceeded) {
			return &Error{Kind: KindAgentTimeout, StepID: step.ID, Message: "agent timed out", Err: err}
		}
		if errors.Is(err, context.Canceled) {
			return &Error{Kind: KindCancelled, StepID: step.ID, Message: "run cancelled", Err: err}
		}
		return &Error{Kind: KindAgentFailure, StepID: step.ID, Message: "invoke agent", Err: err}
	}
	if res.ExitCode != 0 {
		return &Error{Kind: KindAgentFailure, StepID: step.ID, ExitCode: res.ExitCode, Message: res.Text}
	}

	artifact := ArtifactPath(position, step.ID)
	if err := o.store.WriteArtifact(r.cycle.Dir, artifact, res.Text); err != nil {
		return &Error{Kind: KindStorage, StepID: step.ID, Message: "write artifact " + artifact, Err: err}
	}
	if err := r.context.Record(step.ID, position, res.Text); err != nil {
		return &Error{Kind: KindInvalidMacro, StepID: step.ID, Err: err}
	}
	r.cycle.Steps = append(r.cycle.Steps, StepRun{
		StepID:   step.ID,
		Type:     step.Type,
		Position: position,
		Artifact: artifact,
		Duration: o.now().Sub(started),
		Output:   res.Text,
	})

	o.logger.Info("Step completed",
		"request_id", r.requestID,
		"step", step.ID,
		"artifact", artifact)
	return nil
}

func (o *CycleOrchestrator) runGate(ctx context.Context, r *run, position int, step macro.Step) (bool, error) {
	approved := true
	rec := StepRun{StepID: step.ID, Type: step.Type, Position: position, Approved: &approved}

	if r.opts.AutoApprove {
		rec.AutoApproved = true
		r.cycle.Steps = append(r.cycle.Steps, rec)
		o.logger.Info("Gate auto-approved", "request_id", r.requestID, "step", step.ID)
		return true, nil
	}

	if o.confirmer == nil {
		return false, &Error{Kind: KindGateAborted, StepID: step.ID, Message: "no confirmer available for gate"}
	}
	ok, err := o.confirmer.Confirm(ctx, step.Message, true)
	// An answer given after cancellation is not recorded.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return false, &Error{Kind: KindCancelled, StepID: step.ID, Message: "run cancelled", Err: ctxErr}
	}
	if err != nil {
		return false, &Error{Kind: KindGateAborted, StepID: step.ID, Message: "confirm gate", Err: err}
	}
	if !ok {
		return false, nil
	}

	r.cycle.Steps = append(r.cycle.Steps, rec)
	o.logger.Info("Gate approved", "request_id", r.requestID, "step", step.ID)
	return true, nil
}

// fail moves the cycle to Failed and returns cause.
func (o *CycleOrchestrator) fail(r *run, cause error) error {
	r.cycle.ErrorKind = KindOf(cause)
	r.cycle.Error = cause.Error()
	o.logger.Error("Cycle failed",
		"request_id", r.requestID,
		"cycle", r.cycle.ID,
		"error", cause)
	if err := o.finish(r, StatusFailed); err != nil {
		o.logger.Error("Failed to record cycle state", "request_id", r.requestID, "error", err)
	}
	return cause
}

// finish records the terminal status in the cycle metadata and releases the
// cycle location.
func (o *CycleOrchestrator) finish(r *run, status CycleStatus) error {
	r.cycle.Status = status
	r.cycle.FinishedAt = o.now()

	var errs []string
	data, err := json.MarshalIndent(r.cycle, "", "  ")
	if err == nil {
		err = o.store.WriteArtifact(r.cycle.Dir, MetaFile, string(data)+"\n")
	}
	if err != nil {
		errs = append(errs, fmt.Sprintf("write %s: %v", MetaFile, err))
	}
	if f, ok := o.store.(CycleFinisher); ok {
		if err := f.FinishCycle(r.cycle.Dir); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 && status != StatusFailed {
		return &Error{Kind: KindStorage, Message: strings.Join(errs, "; ")}
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}
