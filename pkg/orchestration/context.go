package orchestration

import "fmt"

// ContextEntry is one recorded step output.
type ContextEntry struct {
	StepID   string
	Position int
	Output   string
}

// RunContext accumulates the outputs of completed llm steps during a single
// cycle. Entries are kept in completion order and never overwritten.
type RunContext struct {
	entries []ContextEntry
	index   map[string]int
}

// NewRunContext returns an empty context.
func NewRunContext() *RunContext {
	return &RunContext{index: make(map[string]int)}
}

// Record appends output for stepID. Recording the same id twice is an error.
func (c *RunContext) Record(stepID string, position int, output string) error {
	if _, exists := c.index[stepID]; exists {
		return fmt.Errorf("output for step %q already recorded", stepID)
	}
	c.index[stepID] = len(c.entries)
	c.entries = append(c.entries, ContextEntry{StepID: stepID, Position: position, Output: output})
	return nil
}

// Output returns the recorded output of stepID.
func (c *RunContext) Output(stepID string) (string, bool) {
	i, ok := c.index[stepID]
	if !ok {
		return "", false
	}
	return c.entries[i].Output, true
}

// Entries returns a copy of the recorded outputs in completion order.
func (c *RunContext) Entries() []ContextEntry {
	out := make([]ContextEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of recorded outputs.
func (c *RunContext) Len() int {
	return len(c.entries)
}
