package macro

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

//go:embed defaults/*.json
var defaultMacros embed.FS

// Defaults returns the built-in macros shipped with the binary.
func Defaults() ([]*Macro, error) {
	entries, err := fs.ReadDir(defaultMacros, "defaults")
	if err != nil {
		return nil, fmt.Errorf("reading built-in macros: %w", err)
	}

	var macros []*Macro
	for _, entry := range entries {
		data, err := defaultMacros.ReadFile(path.Join("defaults", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading built-in macro %s: %w", entry.Name(), err)
		}
		m, err := DecodeJSON(data)
		if err != nil {
			return nil, fmt.Errorf("built-in macro %s: %w", entry.Name(), err)
		}
		macros = append(macros, m)
	}
	sort.Slice(macros, func(i, j int) bool { return macros[i].ID < macros[j].ID })
	return macros, nil
}

// InstallDefaults writes the built-in macros into the store directory,
// leaving files that already exist untouched. It returns the ids written.
func (s *FileStore) InstallDefaults() ([]string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating macros directory: %w", err)
	}

	entries, err := fs.ReadDir(defaultMacros, "defaults")
	if err != nil {
		return nil, fmt.Errorf("reading built-in macros: %w", err)
	}

	var installed []string
	for _, entry := range entries {
		target := filepath.Join(s.dir, entry.Name())
		if _, err := os.Stat(target); err == nil {
			continue
		}
		data, err := defaultMacros.ReadFile(path.Join("defaults", entry.Name()))
		if err != nil {
			return installed, fmt.Errorf("reading built-in macro %s: %w", entry.Name(), err)
		}
		if err := os.WriteFile(target, data, 0o644); err != nil {
			return installed, fmt.Errorf("writing %s: %w", target, err)
		}
		installed = append(installed, strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name())))
	}
	return installed, nil
}
