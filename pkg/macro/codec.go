package macro

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mattsolo1/grove-core/util/sanitize"
	"gopkg.in/yaml.v3"
)

// DecodeJSON parses and validates a macro definition in JSON form.
func DecodeJSON(data []byte) (*Macro, error) {
	var m Macro
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing macro json: %w", err)
	}
	return finish(&m)
}

// DecodeYAML parses and validates a macro definition in YAML form.
func DecodeYAML(data []byte) (*Macro, error) {
	var m Macro
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing macro yaml: %w", err)
	}
	return finish(&m)
}

// EncodeJSON serializes a macro to indented JSON with a trailing newline.
func EncodeJSON(m *Macro) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	// Prompts routinely contain <, > and & and must stay readable on disk.
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding macro json: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeYAML serializes a macro to YAML.
func EncodeYAML(m *Macro) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding macro yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding macro yaml: %w", err)
	}
	return buf.Bytes(), nil
}

func finish(m *Macro) (*Macro, error) {
	// Sanitize UTF-8 so prompts never carry invalid bytes to the agent.
	for i := range m.Steps {
		m.Steps[i].Prompt = sanitize.UTF8(m.Steps[i].Prompt)
		m.Steps[i].Message = sanitize.UTF8(m.Steps[i].Message)
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}
