package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Preferences holds the data-name validator's persisted allow-lists.
type Preferences struct {
	AllowedPrefixes []string `yaml:"allowed_prefixes"`
	AllowedFields   []string `yaml:"allowed_fields"`
}

// PreferenceStore persists validator preferences between sessions.
type PreferenceStore interface {
	LoadPreferences() (Preferences, error)
	SavePreferences(Preferences) error
}

// FileStore keeps preferences in a YAML file. The zero value is not usable;
// construct it with NewFileStore.
type FileStore struct {
	path string
}

var _ PreferenceStore = (*FileStore)(nil)

// NewFileStore builds a FileStore at path. An empty path selects
// preferences.yaml under the config directory.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		var err error
		path, err = PreferencesPath()
		if err != nil {
			return nil, err
		}
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// LoadPreferences reads the stored preferences. A missing file is not an
// error; it yields empty preferences.
func (s *FileStore) LoadPreferences() (Preferences, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Preferences{}, nil
	}
	if err != nil {
		return Preferences{}, fmt.Errorf("config: read %s: %w", s.path, err)
	}

	var prefs Preferences
	if err := yaml.Unmarshal(data, &prefs); err != nil {
		return Preferences{}, fmt.Errorf("config: parse %s: %w", s.path, err)
	}
	return prefs, nil
}

// SavePreferences writes prefs, sorted for stable files, creating parent
// directories as needed.
func (s *FileStore) SavePreferences(prefs Preferences) error {
	sort.Strings(prefs.AllowedPrefixes)
	sort.Strings(prefs.AllowedFields)

	data, err := yaml.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("config: marshal preferences: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", filepath.Dir(s.path), err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", s.path, err)
	}
	return nil
}
