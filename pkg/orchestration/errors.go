package orchestration

import (
	"errors"
	"fmt"
)

// ErrorKind classifies orchestration failures.
type ErrorKind string

const (
	KindMacroNotFound     ErrorKind = "macro_not_found"
	KindInvalidMacro      ErrorKind = "invalid_macro"
	KindInvalidStopTarget ErrorKind = "invalid_stop_target"
	KindMissingReference  ErrorKind = "missing_reference"
	KindAgentFailure      ErrorKind = "agent_failure"
	KindAgentTimeout      ErrorKind = "agent_timeout"
	KindGateAborted       ErrorKind = "gate_aborted"
	KindStorage           ErrorKind = "storage"
	KindCancelled         ErrorKind = "cancelled"
)

// Error is the error type returned by the orchestrator and the renderer.
type Error struct {
	Kind ErrorKind
	// StepID is the step being executed when the error occurred, if any.
	StepID string
	// Ref is the unresolved step id of a MissingReference.
	Ref string
	// ExitCode is the agent's status for AgentFailure.
	ExitCode int
	Message  string
	Err      error
}

// Sentinels for errors.Is; they match any *Error of the same kind.
var (
	ErrMacroNotFound     = &Error{Kind: KindMacroNotFound}
	ErrInvalidMacro      = &Error{Kind: KindInvalidMacro}
	ErrInvalidStopTarget = &Error{Kind: KindInvalidStopTarget}
	ErrMissingReference  = &Error{Kind: KindMissingReference}
	ErrAgentFailure      = &Error{Kind: KindAgentFailure}
	ErrAgentTimeout      = &Error{Kind: KindAgentTimeout}
	ErrGateAborted       = &Error{Kind: KindGateAborted}
	ErrStorage           = &Error{Kind: KindStorage}
	ErrCancelled         = &Error{Kind: KindCancelled}
)

func (e *Error) Error() string {
	msg := e.Message
	switch e.Kind {
	case KindMissingReference:
		msg = fmt.Sprintf("unresolved reference to step output %q", e.Ref)
	case KindAgentFailure:
		if e.Err == nil {
			msg = fmt.Sprintf("agent exited with status %d: %s", e.ExitCode, e.Message)
		}
	}
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.StepID != "" {
		msg = fmt.Sprintf("step %q: %s", e.StepID, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// KindOf returns the ErrorKind carried by err, or "" if err is not an *Error.
func KindOf(err error) ErrorKind {
	var oe *Error
	if errors.As(err, &oe) {
		return oe.Kind
	}
	return ""
}
