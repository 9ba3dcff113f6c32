package cycle

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mattsolo1/grove-macrocycle/pkg/orchestration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedStore(t *testing.T, at time.Time, suffixes ...string) *FileStore {
	t.Helper()
	s := NewFileStore(filepath.Join(t.TempDir(), "cycles"))
	s.now = func() time.Time { return at }
	s.pid = 4242
	i := 0
	s.suffix = func() string {
		v := suffixes[i%len(suffixes)]
		i++
		return v
	}
	return s
}

func TestBeginCycle(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.Local)
	s := fixedStore(t, at, "a1b2c3")

	dir, err := s.BeginCycle("fix_bug")
	require.NoError(t, err)

	assert.Equal(t, "2025-03-04_05-06-07_fix_bug_a1b2c3", filepath.Base(dir))
	assert.DirExists(t, filepath.Join(dir, orchestration.ArtifactDir))

	pid, err := ReadLockFile(dir)
	require.NoError(t, err)
	assert.Equal(t, 4242, pid)
}

func TestBeginCycleRetriesOnCollision(t *testing.T) {
	at := time.Date(2025, 3, 4, 5, 6, 7, 0, time.Local)
	s := fixedStore(t, at, "aaaaaa", "aaaaaa", "bbbbbb")

	first, err := s.BeginCycle("fix")
	require.NoError(t, err)
	second, err := s.BeginCycle("fix")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "2025-03-04_05-06-07_fix_bbbbbb", filepath.Base(second))
}

func TestBeginCycleGivesUp(t *testing.T) {
	s := fixedStore(t, time.Now(), "same00")

	_, err := s.BeginCycle("fix")
	require.NoError(t, err)
	_, err = s.BeginCycle("fix")
	assert.Error(t, err)
}

func TestWriteArtifact(t *testing.T) {
	s := fixedStore(t, time.Now(), "abcdef")
	dir, err := s.BeginCycle("fix")
	require.NoError(t, err)

	require.NoError(t, s.WriteArtifact(dir, "steps/01-analyze.md", "# Analysis\n"))
	data, err := os.ReadFile(filepath.Join(dir, "steps", "01-analyze.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Analysis\n", string(data))

	require.NoError(t, s.WriteArtifact(dir, "notes/extra/a.md", "x"))
	assert.FileExists(t, filepath.Join(dir, "notes", "extra", "a.md"))

	for _, bad := range []string{"", "../escape.md", "steps/../../escape.md", "/etc/passwd"} {
		assert.Error(t, s.WriteArtifact(dir, bad, "x"), bad)
	}
}

func TestFinishCycleAndStatus(t *testing.T) {
	s := fixedStore(t, time.Now(), "abcdef")
	dir, err := s.BeginCycle("review")
	require.NoError(t, err)
	require.NoError(t, s.WriteArtifact(dir, "steps/01-summarize.md", "s"))

	info, err := ParseDir(dir)
	require.NoError(t, err)
	assert.Equal(t, orchestration.StatusRunning, info.Status)
	assert.Equal(t, 4242, info.PID)
	assert.Equal(t, 1, info.StepCount)
	assert.Equal(t, "review", info.MacroID)

	require.NoError(t, s.WriteArtifact(dir, orchestration.MetaFile, `{"status":"stopped"}`))
	require.NoError(t, s.FinishCycle(dir))
	assert.False(t, IsLocked(dir))

	info, err = ParseDir(dir)
	require.NoError(t, err)
	assert.Equal(t, orchestration.StatusStopped, info.Status)
	assert.Zero(t, info.PID)

	// Finishing twice is harmless.
	assert.NoError(t, s.FinishCycle(dir))
}

func TestParseDirWithoutMetadata(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "2025-01-01_00-00-00_fix_abcdef")
	require.NoError(t, os.MkdirAll(dir, 0o755))

	info, err := ParseDir(dir)
	require.NoError(t, err)
	assert.Equal(t, orchestration.StatusUnknown, info.Status)
	assert.Zero(t, info.StepCount)
}

func TestParseDirName(t *testing.T) {
	tests := []struct {
		name    string
		macroID string
		wantErr bool
	}{
		{"2025-01-02_03-04-05_fix_abc123", "fix", false},
		{"2025-01-02_03-04-05_fix_all_bugs_abc123", "fix_all_bugs", false},
		{"2025-01-02_03-04-05_fix", "fix", false},
		{"notes", "", true},
		{"yesterday_noon_fix_abc123", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			startedAt, macroID, err := ParseDirName(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.macroID, macroID)
			assert.Equal(t, 2025, startedAt.Year())
		})
	}
}

func TestListAndLatestCycle(t *testing.T) {
	base := filepath.Join(t.TempDir(), "cycles")
	s := NewFileStore(base)

	latest, err := s.LatestCycle()
	require.NoError(t, err)
	assert.Nil(t, latest)

	times := []time.Time{
		time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local),
		time.Date(2025, 1, 3, 9, 0, 0, 0, time.Local),
		time.Date(2025, 1, 2, 9, 0, 0, 0, time.Local),
	}
	for i, at := range times {
		at := at
		s.now = func() time.Time { return at }
		_, err := s.BeginCycle([]string{"a", "b", "c"}[i])
		require.NoError(t, err)
	}
	require.NoError(t, os.WriteFile(filepath.Join(base, "README"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(base, "scratch"), 0o755))

	infos, err := s.ListCycles()
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, "b", infos[0].MacroID)
	assert.Equal(t, "c", infos[1].MacroID)
	assert.Equal(t, "a", infos[2].MacroID)

	latest, err = s.LatestCycle()
	require.NoError(t, err)
	assert.Equal(t, "b", latest.MacroID)
}
