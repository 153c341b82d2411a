package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RulesExt is the extension of field-rules files.
const RulesExt = ".cif_rules"

var (
	// ErrInvalidRulesName rejects rule filenames that carry path separators
	// or start with a dot.
	ErrInvalidRulesName = errors.New("config: invalid rules filename")
	// ErrOutsideRulesDir rejects deleting files outside the rules directory.
	ErrOutsideRulesDir = errors.New("config: path outside rules directory")
)

// ListRules returns the .cif_rules files in dir, sorted by name. A missing
// directory yields an empty list.
func ListRules(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: list %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && strings.HasSuffix(entry.Name(), RulesExt) {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// SaveRules writes content as a rules file named filename in dir and returns
// the final path. The extension is appended when missing.
func SaveRules(dir, filename, content string) (string, error) {
	if !strings.HasSuffix(filename, RulesExt) {
		filename += RulesExt
	}
	if strings.ContainsAny(filename, `/\`) || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidRulesName, filename)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("config: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("config: write %s: %w", path, err)
	}
	return path, nil
}

// DeleteRules removes a rules file, refusing paths that resolve outside dir.
func DeleteRules(dir, path string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("config: resolve %s: %w", dir, err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("config: resolve %s: %w", path, err)
	}

	rel, err := filepath.Rel(absDir, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrOutsideRulesDir, path)
	}

	if err := os.Remove(absPath); err != nil {
		return fmt.Errorf("config: delete %s: %w", absPath, err)
	}
	return nil
}

// BundledRule describes one rules file shipped with the module. LegacyPath
// points at the legacy-notation variant when one exists.
type BundledRule struct {
	DisplayName string
	Path        string
	LegacyPath  string
}

// internalRules are maintenance files not offered to users directly.
var internalRules = map[string]struct{}{
	"cleanups" + RulesExt:               {},
	"checkcif_compatibility" + RulesExt: {},
}

// ruleDisplayNames overrides the derived display name for known files.
var ruleDisplayNames = map[string]string{
	"3ded" + RulesExt:        "3D ED (Modern)",
	"3ded_legacy" + RulesExt: "3D ED (Legacy)",
}

// BundledRules enumerates the rules files under dir, pairing foo.cif_rules
// with foo_legacy.cif_rules when both exist. Files whose own stem ends in
// _legacy never get a pair of their own.
func BundledRules(dir string) ([]BundledRule, error) {
	files, err := ListRules(dir)
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(files))
	for _, f := range files {
		present[filepath.Base(f)] = struct{}{}
	}

	var rules []BundledRule
	for _, path := range files {
		name := filepath.Base(path)
		if _, internal := internalRules[name]; internal {
			continue
		}

		stem := strings.TrimSuffix(name, RulesExt)
		display, ok := ruleDisplayNames[name]
		if !ok {
			display = titleCase(strings.ReplaceAll(stem, "_", " "))
		}

		rule := BundledRule{DisplayName: display, Path: path}
		if !strings.HasSuffix(stem, "_legacy") {
			candidate := stem + "_legacy" + RulesExt
			if _, exists := present[candidate]; exists {
				rule.LegacyPath = filepath.Join(dir, candidate)
			}
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// titleCase upper-cases the first letter of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
