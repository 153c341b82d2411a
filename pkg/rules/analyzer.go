// Package rules validates field-rule template documents against the loaded
// dictionaries: notation consistency, duplicate and alias entries, deprecated
// names, and unknown fields, with automatic fixes where a dictionary mapping
// makes the repair mechanical.
//
// Rule documents are line oriented: `_field value  # description`, optionally
// prefixed with an action tag (`DELETE:`, `EDIT:`, `CHECK:`).
package rules

import (
	"regexp"
	"strings"
)

// Format classifies the predominant notation of a document.
type Format string

const (
	FormatLegacy Format = "legacy"
	FormatModern Format = "modern"
	FormatMixed  Format = "Mixed"
)

// ruleFieldPattern matches a data name at the start of a rule line, after an
// optional action prefix. Unlike document scanning this accepts hyphens but
// not brackets; rule files never carry the bracketed legacy forms.
var ruleFieldPattern = regexp.MustCompile(`^(?:DELETE:|EDIT:|CHECK:)?\s*(_[a-zA-Z][a-zA-Z0-9_\-]*(?:\.[a-zA-Z][a-zA-Z0-9_\-]*)*)`)

// AnalyzeFormat classifies content by the share of dotted field names:
// >= 70% dotted is modern, <= 30% is legacy, anything between is mixed.
// Empty content and content without fields default to legacy.
func AnalyzeFormat(content string) Format {
	if strings.TrimSpace(content) == "" {
		return FormatLegacy
	}

	var dotted, undotted int
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := ruleFieldPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if strings.Contains(m[1], ".") {
			dotted++
		} else {
			undotted++
		}
	}

	total := dotted + undotted
	if total == 0 {
		return FormatLegacy
	}
	ratio := float64(dotted) / float64(total)
	switch {
	case ratio >= 0.7:
		return FormatModern
	case ratio <= 0.3:
		return FormatLegacy
	default:
		return FormatMixed
	}
}

// fieldOccurrence is one rule line's field with its 1-based line number.
type fieldOccurrence struct {
	name string
	line int
}

// extractFields returns every field occurrence in content in document order,
// skipping comments and blank lines.
func extractFields(content string) []fieldOccurrence {
	var out []fieldOccurrence
	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if m := ruleFieldPattern.FindStringSubmatch(line); m != nil {
			out = append(out, fieldOccurrence{name: m[1], line: i + 1})
		}
	}
	return out
}
