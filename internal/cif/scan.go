// Package cif holds the line-level machinery shared by every package that
// reads or rewrites CIF text: data name scanning with semicolon text block
// tracking, loop awareness, version detection, and CIF2 value quoting. It
// deliberately stops short of a full grammar; callers get positions and
// tokens, not a parse tree.
package cif

import (
	"regexp"
	"strings"
)

// fieldPattern matches a data name at the start of a line. The character
// class covers the bracket and slash forms older dictionaries used
// (e.g. _geom_angle_site_symmetry_1, _atom_site_aniso_U_11, _cell_length_a).
var fieldPattern = regexp.MustCompile(`^\s*(_[a-zA-Z][a-zA-Z0-9_.\[\]()/-]*)`)

// DeprecatedSectionMarker opens the trailing legacy compatibility section.
// Scans flag everything after a comment containing it so rewrites and
// conflict detection leave the section alone.
const DeprecatedSectionMarker = "# DEPRECATED FIELDS"

// Occurrence is one sighting of a data name outside semicolon text blocks.
type Occurrence struct {
	Name         string
	Line         int // 1-based
	InLoop       bool
	InDeprecated bool
}

// Fields scans content and returns every data name occurrence in document
// order. Lines inside semicolon text blocks are skipped entirely, loop
// headers are flagged, and occurrences after the deprecated section marker
// carry InDeprecated.
func Fields(content string) []Occurrence {
	var out []Occurrence

	inTextBlock := false
	inLoop := false
	loopHeader := false
	inDeprecated := false

	for i, line := range strings.Split(content, "\n") {
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, ";") {
			inTextBlock = !inTextBlock
			continue
		}
		if inTextBlock {
			continue
		}

		if strings.HasPrefix(stripped, "#") {
			if strings.Contains(stripped, "DEPRECATED FIELDS") {
				inDeprecated = true
			}
			continue
		}

		if stripped == "" {
			inLoop = false
			loopHeader = false
			continue
		}
		if stripped == "loop_" {
			inLoop = true
			loopHeader = true
			continue
		}
		if strings.HasPrefix(stripped, "data_") || strings.HasPrefix(stripped, "save_") {
			inLoop = false
			loopHeader = false
			continue
		}

		if m := fieldPattern.FindStringSubmatch(line); m != nil {
			if inLoop && !loopHeader {
				// A bare field after loop data rows ends the loop.
				inLoop = false
			}
			out = append(out, Occurrence{
				Name:         m[1],
				Line:         i + 1,
				InLoop:       inLoop,
				InDeprecated: inDeprecated,
			})
			continue
		}

		// Any other content line while reading headers means data rows began.
		if inLoop {
			loopHeader = false
		}
	}

	return out
}

// FieldNames returns distinct data names in first-seen order with case
// preserved. Text blocks and the deprecated section are excluded.
func FieldNames(content string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, occ := range Fields(content) {
		if occ.InDeprecated {
			continue
		}
		key := strings.ToLower(occ.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, occ.Name)
	}
	return out
}

// FieldSet returns the lowercased set of data names present in content.
func FieldSet(content string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, occ := range Fields(content) {
		if occ.InDeprecated {
			continue
		}
		out[strings.ToLower(occ.Name)] = struct{}{}
	}
	return out
}

// FieldToken extracts the leading data name from a single line, if any.
func FieldToken(line string) (string, bool) {
	m := fieldPattern.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsComment reports whether the line is a CIF comment.
func IsComment(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "#")
}

// IsConstruct reports whether the line opens a structural construct
// (data block, save frame, loop) rather than a name/value pair.
func IsConstruct(line string) bool {
	stripped := strings.TrimSpace(line)
	return strings.HasPrefix(stripped, "data_") ||
		strings.HasPrefix(stripped, "save_") ||
		stripped == "loop_"
}
