package macro

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNotFound is returned when no macro with the requested id exists.
var ErrNotFound = errors.New("macro not found")

// extensions are tried in order when resolving a macro id to a file.
var extensions = []string{".json", ".yaml", ".yml"}

// FileStore loads macro definitions from a directory of JSON or YAML files
// named after their macro id.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir (usually .macrocycle/macros).
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the directory the store reads from.
func (s *FileStore) Dir() string {
	return s.dir
}

// Load reads the macro with the given id.
func (s *FileStore) Load(id string) (*Macro, error) {
	if !stepIDPattern.MatchString(id) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}

	for _, ext := range extensions {
		path := filepath.Join(s.dir, id+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("reading macro file %s: %w", path, err)
		}

		var m *Macro
		if ext == ".json" {
			m, err = DecodeJSON(data)
		} else {
			m, err = DecodeYAML(data)
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", path, err)
		}
		if m.ID != id {
			return nil, fmt.Errorf("loading %s: macro_id %q does not match file name", path, m.ID)
		}
		return m, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns the ids of all macros in the store, sorted.
func (s *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading macros directory: %w", err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if !isMacroExt(ext) {
			continue
		}
		id := strings.TrimSuffix(name, ext)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Save writes the macro as <dir>/<macro_id>.json, replacing any existing file.
func (s *FileStore) Save(m *Macro) error {
	if err := Validate(m); err != nil {
		return err
	}
	if !stepIDPattern.MatchString(m.ID) {
		return fmt.Errorf("macro_id %q cannot be used as a file name", m.ID)
	}
	data, err := EncodeJSON(m)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating macros directory: %w", err)
	}
	path := filepath.Join(s.dir, m.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing macro file %s: %w", path, err)
	}
	return nil
}

func isMacroExt(ext string) bool {
	for _, e := range extensions {
		if ext == e {
			return true
		}
	}
	return false
}
