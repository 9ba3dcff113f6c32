// Package workspace resolves where macrocycle keeps its macros and cycles.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
)

// DirName is the per-workspace directory holding macros and cycles.
const DirName = ".macrocycle"

// Workspace describes the on-disk layout rooted at a project directory.
type Workspace struct {
	Root string
}

// New returns a workspace rooted at root.
func New(root string) *Workspace {
	return &Workspace{Root: root}
}

// Discover finds the workspace root for start: the nearest ancestor holding a
// .git entry, or start itself when there is none.
func Discover(start string) (*Workspace, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return nil, fmt.Errorf("resolve path %s: %w", start, err)
	}

	dir := abs
	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return New(dir), nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root without finding .git
			return New(abs), nil
		}
		dir = parent
	}
}

// BaseDir returns <root>/.macrocycle.
func (w *Workspace) BaseDir() string {
	return filepath.Join(w.Root, DirName)
}

// MacrosDir returns the directory holding macro definitions.
func (w *Workspace) MacrosDir() string {
	return filepath.Join(w.BaseDir(), "macros")
}

// CyclesDir returns the directory holding cycle run directories.
func (w *Workspace) CyclesDir() string {
	return filepath.Join(w.BaseDir(), "cycles")
}

// EnvFile returns the path of the optional .env file at the workspace root.
func (w *Workspace) EnvFile() string {
	return filepath.Join(w.Root, ".env")
}

// Initialized reports whether the macros directory exists.
func (w *Workspace) Initialized() bool {
	info, err := os.Stat(w.MacrosDir())
	return err == nil && info.IsDir()
}
