package cycle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattsolo1/grove-macrocycle/pkg/orchestration"
)

// TimestampLayout is the timestamp prefix of every cycle directory name.
const TimestampLayout = "2006-01-02_15-04-05"

// Info summarizes one cycle directory for status reporting.
type Info struct {
	ID        string                    `json:"cycle_id"`
	MacroID   string                    `json:"macro_id"`
	StartedAt time.Time                 `json:"started_at"`
	Dir       string                    `json:"cycle_dir"`
	StepCount int                       `json:"step_count"`
	Status    orchestration.CycleStatus `json:"status"`
	PID       int                       `json:"pid,omitempty"`
	Error     string                    `json:"error,omitempty"`
}

// DirName builds a cycle directory name: <timestamp>_<macro_id>_<suffix>.
func DirName(startedAt time.Time, macroID, suffix string) string {
	return fmt.Sprintf("%s_%s_%s", startedAt.Format(TimestampLayout), macroID, suffix)
}

// ParseDirName splits a cycle directory name into its start time and macro
// id. Macro ids may themselves contain underscores.
func ParseDirName(name string) (time.Time, string, error) {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return time.Time{}, "", fmt.Errorf("not a cycle directory name: %q", name)
	}

	startedAt, err := time.ParseInLocation(TimestampLayout, parts[0]+"_"+parts[1], time.Local)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("parse cycle timestamp in %q: %w", name, err)
	}

	rest := parts[2:]
	if len(rest) > 1 {
		// Drop the uniqueness suffix.
		rest = rest[:len(rest)-1]
	}
	return startedAt, strings.Join(rest, "_"), nil
}

// metaSummary is the subset of cycle.json read back for status reporting.
type metaSummary struct {
	Status orchestration.CycleStatus `json:"status"`
	Error  string                    `json:"error,omitempty"`
}

// ParseDir builds the Info for a cycle directory.
func ParseDir(dir string) (*Info, error) {
	name := filepath.Base(dir)
	startedAt, macroID, err := ParseDirName(name)
	if err != nil {
		return nil, err
	}

	info := &Info{
		ID:        name,
		MacroID:   macroID,
		StartedAt: startedAt,
		Dir:       dir,
		Status:    orchestration.StatusUnknown,
	}

	matches, err := filepath.Glob(filepath.Join(dir, orchestration.ArtifactDir, "*.md"))
	if err != nil {
		return nil, fmt.Errorf("list artifacts in %s: %w", dir, err)
	}
	info.StepCount = len(matches)

	data, err := os.ReadFile(filepath.Join(dir, orchestration.MetaFile))
	switch {
	case err == nil:
		var meta metaSummary
		if jsonErr := json.Unmarshal(data, &meta); jsonErr == nil && meta.Status != "" {
			info.Status = meta.Status
			info.Error = meta.Error
		}
	case IsLocked(dir):
		info.Status = orchestration.StatusRunning
		if pid, err := ReadLockFile(dir); err == nil {
			info.PID = pid
		}
	}

	return info, nil
}
