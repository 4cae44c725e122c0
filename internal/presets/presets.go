// package presets manages saved action workflows stored as a TOML file in
// the user's config directory.
package presets

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/desertthunder/tcx/internal/shared"
)

// Action is one step of a preset: an operation applied to a target tonie.
// Target may be a tonie id or "all". Household falls back to the account's
// first household when empty. Source is only used by upload actions.
type Action struct {
	Type      string `toml:"type"`
	Target    string `toml:"target"`
	Household string `toml:"household,omitempty"`
	Source    string `toml:"source,omitempty"`
}

// Preset is a named, ordered list of actions.
type Preset struct {
	Description string   `toml:"description"`
	Actions     []Action `toml:"actions"`
}

// presetsFile is the on-disk layout: a single [presets.<name>] table per preset.
type presetsFile struct {
	Presets map[string]Preset `toml:"presets"`
}

// Store reads and writes presets at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the conventional preset file location
// (~/.config/tcx/presets.toml).
func DefaultPath() (string, error) {
	dir, err := shared.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "presets.toml"), nil
}

// Load reads all presets. A missing file is an empty collection, not an error.
func (s *Store) Load() (map[string]Preset, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]Preset{}, nil
		}
		return nil, fmt.Errorf("failed to read presets file: %w", err)
	}

	var file presetsFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse presets file: %w", err)
	}
	if file.Presets == nil {
		file.Presets = map[string]Preset{}
	}
	return file.Presets, nil
}

// Save writes the full preset collection, creating parent directories as needed.
func (s *Store) Save(presets map[string]Preset) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create presets directory: %w", err)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(presetsFile{Presets: presets}); err != nil {
		return fmt.Errorf("failed to encode presets: %w", err)
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write presets file: %w", err)
	}
	return nil
}

// Get returns a preset by name.
func (s *Store) Get(name string) (Preset, error) {
	presets, err := s.Load()
	if err != nil {
		return Preset{}, err
	}
	preset, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %s", shared.ErrPresetNotFound, name)
	}
	return preset, nil
}

// Create adds a new preset. Overwriting an existing preset is an error.
func (s *Store) Create(name, description string, actions []Action) error {
	presets, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := presets[name]; ok {
		return fmt.Errorf("%w: %s", shared.ErrPresetExists, name)
	}
	presets[name] = Preset{Description: description, Actions: actions}
	return s.Save(presets)
}

// Delete removes a preset by name.
func (s *Store) Delete(name string) error {
	presets, err := s.Load()
	if err != nil {
		return err
	}
	if _, ok := presets[name]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrPresetNotFound, name)
	}
	delete(presets, name)
	return s.Save(presets)
}
