package exec

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealCommandExecutorStdin(t *testing.T) {
	e := NewRealCommandExecutor()
	if _, err := e.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}

	res, err := e.Run(context.Background(), Request{Name: "cat", Stdin: "hello\nworld"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello\nworld", res.Stdout)
}

func TestRealCommandExecutorExitCode(t *testing.T) {
	e := NewRealCommandExecutor()
	if _, err := e.LookPath("false"); err != nil {
		t.Skip("false not available")
	}

	res, err := e.Run(context.Background(), Request{Name: "false"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.ExitCode)
}

func TestMockCommandExecutor(t *testing.T) {
	m := &MockCommandExecutor{}

	path, err := m.LookPath("claude")
	require.NoError(t, err)
	assert.Equal(t, "/path/to/claude", path)

	res, err := m.Run(context.Background(), Request{Name: "claude", Args: []string{"-p"}, Stdin: "prompt"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, []string{"claude -p"}, m.Commands)
	assert.Equal(t, "prompt", m.Requests[0].Stdin)

	m.LookPathFunc = func(string) (string, error) { return "", errors.New("not found") }
	_, err = m.LookPath("claude")
	assert.Error(t, err)
}
