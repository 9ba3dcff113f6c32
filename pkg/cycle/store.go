// Package cycle stores cycle artifacts in timestamped run directories.
package cycle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattsolo1/grove-macrocycle/pkg/orchestration"
)

// maxAllocAttempts bounds retries when a freshly generated cycle name collides.
const maxAllocAttempts = 5

// FileStore keeps every cycle in its own directory under dir. It is safe for
// sequential use by a single writer.
type FileStore struct {
	dir    string
	now    func() time.Time
	suffix func() string
	pid    int
}

var _ orchestration.CycleStore = (*FileStore)(nil)
var _ orchestration.CycleFinisher = (*FileStore)(nil)

// NewFileStore returns a store rooted at dir (usually .macrocycle/cycles).
func NewFileStore(dir string) *FileStore {
	return &FileStore{
		dir:    dir,
		now:    time.Now,
		suffix: randomSuffix,
		pid:    os.Getpid(),
	}
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:6]
}

// Dir returns the directory holding all cycles.
func (s *FileStore) Dir() string {
	return s.dir
}

// EnsureReady creates the cycles directory. Safe to call repeatedly.
func (s *FileStore) EnsureReady() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create cycles directory: %w", err)
	}
	return nil
}

// BeginCycle allocates a fresh cycle directory for macroID and returns its path.
func (s *FileStore) BeginCycle(macroID string) (string, error) {
	if err := s.EnsureReady(); err != nil {
		return "", err
	}

	startedAt := s.now()
	for attempt := 0; attempt < maxAllocAttempts; attempt++ {
		dir := filepath.Join(s.dir, DirName(startedAt, macroID, s.suffix()))
		if err := os.Mkdir(dir, 0o755); err != nil {
			if errors.Is(err, os.ErrExist) {
				continue
			}
			return "", fmt.Errorf("create cycle directory: %w", err)
		}
		if err := os.Mkdir(filepath.Join(dir, orchestration.ArtifactDir), 0o755); err != nil {
			return "", fmt.Errorf("create steps directory: %w", err)
		}
		if err := CreateLockFile(dir, s.pid); err != nil {
			return "", fmt.Errorf("create cycle lock: %w", err)
		}
		return dir, nil
	}
	return "", fmt.Errorf("allocate cycle directory for %s: %d name collisions", macroID, maxAllocAttempts)
}

// WriteArtifact writes content to relPath inside cycleDir, creating parent
// directories as needed.
func (s *FileStore) WriteArtifact(cycleDir, relPath, content string) error {
	if relPath == "" || filepath.IsAbs(relPath) {
		return fmt.Errorf("invalid artifact path %q", relPath)
	}
	clean := filepath.Clean(filepath.FromSlash(relPath))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("artifact path %q escapes the cycle directory", relPath)
	}

	target := filepath.Join(cycleDir, clean)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", relPath, err)
	}
	return nil
}

// FinishCycle releases the cycle's lock once its run has ended.
func (s *FileStore) FinishCycle(cycleDir string) error {
	if err := RemoveLockFile(cycleDir); err != nil {
		return fmt.Errorf("remove cycle lock: %w", err)
	}
	return nil
}

// ListCycles returns every cycle, newest first.
func (s *FileStore) ListCycles() ([]*Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read cycles directory: %w", err)
	}

	var infos []*Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := ParseDir(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			// Not a cycle directory
			continue
		}
		infos = append(infos, info)
	}

	sort.SliceStable(infos, func(i, j int) bool {
		if !infos[i].StartedAt.Equal(infos[j].StartedAt) {
			return infos[i].StartedAt.After(infos[j].StartedAt)
		}
		return infos[i].ID > infos[j].ID
	})
	return infos, nil
}

// LatestCycle returns the most recent cycle, or nil when there is none.
func (s *FileStore) LatestCycle() (*Info, error) {
	infos, err := s.ListCycles()
	if err != nil || len(infos) == 0 {
		return nil, err
	}
	return infos[0], nil
}
