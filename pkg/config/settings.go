package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

// EditorSettings controls the text editor surface.
type EditorSettings struct {
	FontFamily         string `yaml:"font_family" env:"CIFMODEL_EDITOR_FONT_FAMILY" env-default:"Consolas"`
	FontSize           int    `yaml:"font_size" env:"CIFMODEL_EDITOR_FONT_SIZE" env-default:"10"`
	LineNumbers        bool   `yaml:"line_numbers" env:"CIFMODEL_EDITOR_LINE_NUMBERS" env-default:"true"`
	SyntaxHighlighting bool   `yaml:"syntax_highlighting" env:"CIFMODEL_EDITOR_SYNTAX_HIGHLIGHTING" env-default:"true"`
	ShowRuler          bool   `yaml:"show_ruler" env:"CIFMODEL_EDITOR_SHOW_RULER" env-default:"true"`
}

// GeneralSettings holds session state that survives restarts.
type GeneralSettings struct {
	LastDirectory string   `yaml:"last_directory" env:"CIFMODEL_LAST_DIRECTORY"`
	RecentFiles   []string `yaml:"recent_files"`
}

// ConverterSettings controls format-conversion defaults.
type ConverterSettings struct {
	PreferModern bool `yaml:"prefer_modern" env:"CIFMODEL_PREFER_MODERN" env-default:"true"`
}

// Settings is the full application configuration, loaded from settings.yaml
// with CIFMODEL_* environment overrides.
type Settings struct {
	Editor    EditorSettings    `yaml:"editor"`
	General   GeneralSettings   `yaml:"general"`
	Converter ConverterSettings `yaml:"converter"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	var s Settings
	// ReadEnv applies the env-default tags even with no variables set.
	if err := cleanenv.ReadEnv(&s); err != nil {
		return Settings{
			Editor: EditorSettings{
				FontFamily:         "Consolas",
				FontSize:           10,
				LineNumbers:        true,
				SyntaxHighlighting: true,
				ShowRuler:          true,
			},
			Converter: ConverterSettings{PreferModern: true},
		}
	}
	return s
}

// LoadSettings reads settings from the config directory.
func LoadSettings() (Settings, error) {
	path, err := SettingsPath()
	if err != nil {
		return DefaultSettings(), err
	}
	return LoadSettingsFrom(path)
}

// LoadSettingsFrom reads settings from path, falling back to defaults plus
// environment overrides when the file does not exist.
func LoadSettingsFrom(path string) (Settings, error) {
	var s Settings
	err := cleanenv.ReadConfig(path, &s)
	if err == nil {
		return s, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		s = Settings{}
		if envErr := cleanenv.ReadEnv(&s); envErr != nil {
			return DefaultSettings(), fmt.Errorf("config: read environment: %w", envErr)
		}
		return s, nil
	}
	return DefaultSettings(), fmt.Errorf("config: read %s: %w", path, err)
}

// Save writes the settings to the config directory, creating it if needed.
func (s Settings) Save() error {
	if _, err := EnsureDir(); err != nil {
		return err
	}
	path, err := SettingsPath()
	if err != nil {
		return err
	}
	return s.SaveTo(path)
}

// SaveTo writes the settings as YAML to path.
func (s Settings) SaveTo(path string) error {
	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("config: marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
