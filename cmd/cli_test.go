package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mattsolo1/grove-core/cli"
	"github.com/mattsolo1/grove-macrocycle/pkg/agent"
	"github.com/mattsolo1/grove-macrocycle/pkg/orchestration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupWorkspace creates an empty git repository, makes it the working
// directory and routes agent calls to a mock response file.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, ".git"), 0o755))
	t.Chdir(dir)

	response := filepath.Join(t.TempDir(), "response.md")
	require.NoError(t, os.WriteFile(response, []byte("Test output"), 0o644))
	t.Setenv(agent.MockResponseEnv, response)

	prev := stdinIsTerminal
	stdinIsTerminal = func() bool { return true }
	t.Cleanup(func() { stdinIsTerminal = prev })
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := cli.NewStandardCommand("macrocycle", "test")
	root.SilenceErrors = true
	root.SilenceUsage = true
	AddCommands(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func cycleDirs(t *testing.T, root string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(root, ".macrocycle", "cycles"))
	require.NoError(t, err)
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, ".macrocycle", "cycles", e.Name()))
		}
	}
	return dirs
}

func TestInitCreatesWorkspace(t *testing.T) {
	root := setupWorkspace(t)

	out, err := execute(t, "", "init")
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(root, ".macrocycle", "macros"))
	assert.DirExists(t, filepath.Join(root, ".macrocycle", "cycles"))
	assert.FileExists(t, filepath.Join(root, ".macrocycle", "macros", "fix.json"))
	assert.Contains(t, out, "Initialized macros in:")

	// A second init keeps edited macros.
	custom := filepath.Join(root, ".macrocycle", "macros", "fix.json")
	require.NoError(t, os.WriteFile(custom, []byte(`{"macro_id":"fix","steps":[{"id":"a","type":"llm","prompt":"x"}]}`), 0o644))
	_, err = execute(t, "", "init")
	require.NoError(t, err)
	data, err := os.ReadFile(custom)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"prompt":"x"`)
}

func TestListRequiresMacros(t *testing.T) {
	setupWorkspace(t)

	_, err := execute(t, "", "list")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))

	_, err = execute(t, "", "init")
	require.NoError(t, err)
	out, err := execute(t, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "fix")
	assert.Contains(t, out, "review")
}

func TestRunCreatesArtifacts(t *testing.T) {
	root := setupWorkspace(t)
	_, err := execute(t, "", "init")
	require.NoError(t, err)

	out, err := execute(t, "", "run", "fix", "Test input", "--until", "impact")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Cycle dir:")

	dirs := cycleDirs(t, root)
	require.Len(t, dirs, 1)

	data, err := os.ReadFile(filepath.Join(dirs[0], "steps", "01-impact.md"))
	require.NoError(t, err)
	assert.Equal(t, "Test output", string(data))

	input, err := os.ReadFile(filepath.Join(dirs[0], orchestration.InputFile))
	require.NoError(t, err)
	assert.Equal(t, "Test input", string(input))
	assert.NoFileExists(t, filepath.Join(dirs[0], "steps", "02-plan.md"))
}

func TestRunGateDeclined(t *testing.T) {
	root := setupWorkspace(t)
	_, err := execute(t, "", "init")
	require.NoError(t, err)

	out, err := execute(t, "n\n", "run", "fix", "crash on save")
	require.Error(t, err)
	assert.Equal(t, ExitStopped, ExitCode(err))
	assert.True(t, IsSilent(err))
	assert.Contains(t, out, "Stopped at gate")

	dirs := cycleDirs(t, root)
	require.Len(t, dirs, 1)
	steps, err := filepath.Glob(filepath.Join(dirs[0], "steps", "*.md"))
	require.NoError(t, err)
	assert.Len(t, steps, 2)

	out, err = execute(t, "", "status", "--json")
	require.NoError(t, err)
	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "fix", info["macro_id"])
	assert.Equal(t, "stopped", info["status"])
}

func TestRunAutoApprove(t *testing.T) {
	root := setupWorkspace(t)
	_, err := execute(t, "", "init")
	require.NoError(t, err)

	_, err = execute(t, "", "run", "review", "PR 42", "--yes")
	require.NoError(t, err)

	dirs := cycleDirs(t, root)
	require.Len(t, dirs, 1)
	steps, err := filepath.Glob(filepath.Join(dirs[0], "steps", "*.md"))
	require.NoError(t, err)
	assert.Len(t, steps, 3)
	assert.FileExists(t, filepath.Join(dirs[0], orchestration.MetaFile))
}

func TestRunReadsPipedInput(t *testing.T) {
	root := setupWorkspace(t)
	stdinIsTerminal = func() bool { return false }
	_, err := execute(t, "", "init")
	require.NoError(t, err)

	_, err = execute(t, "  from a pipe\n", "run", "fix", "--until", "impact")
	require.NoError(t, err)

	dirs := cycleDirs(t, root)
	require.Len(t, dirs, 1)
	input, err := os.ReadFile(filepath.Join(dirs[0], orchestration.InputFile))
	require.NoError(t, err)
	assert.Equal(t, "from a pipe", string(input))
}

func TestRunErrors(t *testing.T) {
	root := setupWorkspace(t)

	_, err := execute(t, "", "run", "fix", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "macrocycle init")

	_, err = execute(t, "", "init")
	require.NoError(t, err)

	_, err = execute(t, "", "run", "fix")
	assert.Equal(t, ExitMissingInput, ExitCode(err))

	_, err = execute(t, "", "run", "nope", "x")
	assert.ErrorIs(t, err, orchestration.ErrMacroNotFound)

	_, err = execute(t, "", "run", "fix", "x", "--until", "deploy")
	assert.ErrorIs(t, err, orchestration.ErrInvalidStopTarget)
	assert.Empty(t, cycleDirs(t, root))
}

func TestRunDryRun(t *testing.T) {
	root := setupWorkspace(t)
	_, err := execute(t, "", "init")
	require.NoError(t, err)

	out, err := execute(t, "", "run", "fix", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "1. [llm] impact")
	assert.Contains(t, out, "3. [gate] approve")
	assert.Empty(t, cycleDirs(t, root))
}

func TestPreview(t *testing.T) {
	root := setupWorkspace(t)
	_, err := execute(t, "", "init")
	require.NoError(t, err)

	out, err := execute(t, "", "preview", "fix", "login fails", "--json")
	require.NoError(t, err)

	var p orchestration.MacroPreview
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, "fix", p.MacroID)
	require.NotEmpty(t, p.Steps)
	assert.Contains(t, p.Steps[0].Content, "login fails")
	assert.Contains(t, p.Steps[3].Content, "[← output from: plan]")
	assert.Empty(t, cycleDirs(t, root))
}

func TestPreviewText(t *testing.T) {
	setupWorkspace(t)
	_, err := execute(t, "", "init")
	require.NoError(t, err)

	out, err := execute(t, "", "preview", "fix")
	require.NoError(t, err)
	assert.Contains(t, out, "3. [gate] approve")
	assert.Contains(t, out, "[← your input will appear here]")
}

func TestStatusWithoutCycles(t *testing.T) {
	setupWorkspace(t)
	_, err := execute(t, "", "init")
	require.NoError(t, err)

	_, err = execute(t, "", "status")
	assert.Equal(t, ExitFailure, ExitCode(err))
}

func TestStatusRunningCycle(t *testing.T) {
	root := setupWorkspace(t)
	_, err := execute(t, "", "init")
	require.NoError(t, err)

	dir := filepath.Join(root, ".macrocycle", "cycles", "2025-01-02_03-04-05_fix_abcdef")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, orchestration.ArtifactDir), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cycle.lock"), []byte("777"), 0o644))

	out, err := execute(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "running")
	assert.Contains(t, out, "PID:       777")
}

func TestRunPipedInputNeedsYesForGates(t *testing.T) {
	root := setupWorkspace(t)
	stdinIsTerminal = func() bool { return false }
	_, err := execute(t, "", "init")
	require.NoError(t, err)

	_, err = execute(t, "fix the login\n", "run", "fix")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, ExitCode(err))
	assert.Contains(t, err.Error(), "--yes")
	assert.Contains(t, err.Error(), `"approve"`)
	assert.Empty(t, cycleDirs(t, root))

	_, err = execute(t, "fix the login\n", "run", "fix", "--yes")
	require.NoError(t, err)
	assert.Len(t, cycleDirs(t, root), 1)
}

func TestSchema(t *testing.T) {
	setupWorkspace(t)

	out, err := execute(t, "", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"macro_id"`)
}
