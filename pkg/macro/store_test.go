package macro

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test.json"), []byte(sampleMacroJSON), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "yamly.yaml"), []byte(`
macro_id: yamly
engine: mock
steps:
  - id: only
    type: llm
    prompt: hi
`), 0o644))

	store := NewFileStore(dir)

	m, err := store.Load("test")
	require.NoError(t, err)
	assert.Equal(t, "Test Macro", m.Name)

	y, err := store.Load("yamly")
	require.NoError(t, err)
	assert.Equal(t, "mock", y.Engine)
}

func TestFileStoreLoadNotFound(t *testing.T) {
	store := NewFileStore(t.TempDir())

	for _, id := range []string{"missing", "../escape", ""} {
		_, err := store.Load(id)
		require.Error(t, err, id)
		assert.True(t, errors.Is(err, ErrNotFound), "Load(%q) = %v, want ErrNotFound", id, err)
	}
}

func TestFileStoreLoadInvalid(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"macro_id":"bad","steps":[]}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(sampleMacroJSON), 0o644))

	store := NewFileStore(dir)

	_, err := store.Load("bad")
	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
	assert.False(t, errors.Is(err, ErrNotFound))

	_, err = store.Load("other")
	assert.ErrorContains(t, err, "does not match file name")
}

func TestFileStoreSaveAndList(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "macros")
	store := NewFileStore(dir)

	ids, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, ids)

	m := &Macro{
		ID:                     "roundtrip",
		Name:                   "Round trip",
		Engine:                 "mock",
		IncludePreviousOutputs: true,
		Steps: []Step{
			NewLLMStep("one", "first {{INPUT}}"),
			NewGateStep("check", "ok?"),
			NewLLMStep("two", "second {{STEP_OUTPUT:one}}"),
		},
	}
	require.NoError(t, store.Save(m))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	loaded, err := store.Load("roundtrip")
	require.NoError(t, err)
	assert.Equal(t, m, loaded)

	ids, err = store.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"roundtrip"}, ids)
}

func TestInstallDefaults(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(dir)

	custom := []byte(`{"macro_id":"fix","engine":"mock","steps":[{"id":"x","type":"llm","prompt":"custom"}]}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fix.json"), custom, 0o644))

	installed, err := store.InstallDefaults()
	require.NoError(t, err)
	assert.NotContains(t, installed, "fix")
	assert.Contains(t, installed, "review")

	data, err := os.ReadFile(filepath.Join(dir, "fix.json"))
	require.NoError(t, err)
	assert.Equal(t, custom, data, "existing macro must not be overwritten")

	again, err := store.InstallDefaults()
	require.NoError(t, err)
	assert.Empty(t, again)
}
