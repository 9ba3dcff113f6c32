package agent

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattsolo1/grove-macrocycle/pkg/orchestration"
)

// MockResponseEnv names the variable that forces the mock engine.
const MockResponseEnv = "MACROCYCLE_MOCK_RESPONSE_FILE"

// MockAgent answers without calling anything. When path is a file its
// content is returned for every step; when it is a directory, <step_id>.md
// inside it is used if present.
type MockAgent struct {
	path string
}

// NewMockAgent returns a mock agent reading responses from path.
func NewMockAgent(path string) *MockAgent {
	return &MockAgent{path: path}
}

func (m *MockAgent) Invoke(ctx context.Context, req orchestration.AgentRequest) (orchestration.AgentResult, error) {
	if m.path == "" {
		return orchestration.AgentResult{Text: fallbackResponse(req)}, nil
	}

	fi, err := os.Stat(m.path)
	if err != nil {
		return orchestration.AgentResult{}, fmt.Errorf("read mock response: %w", err)
	}

	file := m.path
	if fi.IsDir() {
		file = filepath.Join(m.path, req.StepID+".md")
		if _, err := os.Stat(file); os.IsNotExist(err) {
			return orchestration.AgentResult{Text: fallbackResponse(req)}, nil
		}
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return orchestration.AgentResult{}, fmt.Errorf("read mock response: %w", err)
	}
	return orchestration.AgentResult{Text: string(content)}, nil
}

func fallbackResponse(req orchestration.AgentRequest) string {
	return fmt.Sprintf("Mock response for %s: %s", req.StepID, strings.Split(req.Prompt, "\n")[0])
}
