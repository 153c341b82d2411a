// Package config owns the per-user state of the module: the OS config
// directory layout, application settings, the preference store backing the
// data-name validator, and the user's field-rules files.
//
// Layout under the config directory:
//
//	cifmodel/
//	├── settings.yaml             application settings
//	├── preferences.yaml          allowed prefixes and fields
//	├── registered_prefixes.json  user override of the prefix registry
//	├── dictionaries/             downloaded CIF dictionaries
//	└── field_rules/              user-created field rules files
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const appDirName = "cifmodel"

// Dir returns the per-user configuration directory without creating it:
// $XDG_CONFIG_HOME/cifmodel (unix), ~/Library/Application Support/cifmodel
// (darwin), %APPDATA%\cifmodel (windows).
func Dir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if base := os.Getenv("APPDATA"); base != "" {
			return filepath.Join(base, appDirName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: resolve home directory: %w", err)
		}
		return filepath.Join(home, appDirName), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: resolve home directory: %w", err)
		}
		return filepath.Join(home, "Library", "Application Support", appDirName), nil
	default:
		if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
			return filepath.Join(base, appDirName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: resolve home directory: %w", err)
		}
		return filepath.Join(home, ".config", appDirName), nil
	}
}

// EnsureDir creates the configuration directory if needed and returns it.
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("config: create %s: %w", dir, err)
	}
	return dir, nil
}

// DictionariesDir returns the directory for downloaded dictionaries,
// creating it if needed.
func DictionariesDir() (string, error) {
	return ensureSubdir("dictionaries")
}

// FieldRulesDir returns the directory for user field-rules files, creating
// it if needed.
func FieldRulesDir() (string, error) {
	return ensureSubdir("field_rules")
}

func ensureSubdir(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	sub := filepath.Join(dir, name)
	if err := os.MkdirAll(sub, 0o755); err != nil {
		return "", fmt.Errorf("config: create %s: %w", sub, err)
	}
	return sub, nil
}

// SettingsPath returns the settings file location. The file may not exist.
func SettingsPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "settings.yaml"), nil
}

// PreferencesPath returns the preference store location. The file may not
// exist.
func PreferencesPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "preferences.yaml"), nil
}

// PrefixesPath returns the user's prefix-registry override location. The
// file may not exist; the bundled registry is used when it is absent.
func PrefixesPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "registered_prefixes.json"), nil
}
