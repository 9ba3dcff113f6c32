package cycle

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LockFile marks a cycle whose run has not finished.
const LockFile = "cycle.lock"

func lockPath(cycleDir string) string {
	return filepath.Join(cycleDir, LockFile)
}

// CreateLockFile writes the running process ID into the cycle's lock file.
func CreateLockFile(cycleDir string, pid int) error {
	return os.WriteFile(lockPath(cycleDir), []byte(strconv.Itoa(pid)), 0o644)
}

// RemoveLockFile deletes a cycle's lock file.
func RemoveLockFile(cycleDir string) error {
	// It's not an error if the file doesn't exist.
	err := os.Remove(lockPath(cycleDir))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// ReadLockFile reads the PID from a cycle's lock file.
func ReadLockFile(cycleDir string) (int, error) {
	content, err := os.ReadFile(lockPath(cycleDir))
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(content)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in lock file: %w", err)
	}
	return pid, nil
}

// IsLocked reports whether the cycle still has a lock file.
func IsLocked(cycleDir string) bool {
	_, err := os.Stat(lockPath(cycleDir))
	return err == nil
}
