package convert

import (
	"fmt"
	"sort"
	"strings"
)

var sectionBanner = "# " + strings.Repeat("=", 76)

// removeDuplicateAliases drops repeated definitions of the same logical
// field, keeping the modern spelling when both notations appear. Only simple
// fields with inline values participate; loop headers are conflict-resolution
// territory, not conversion cleanup.
func (c *Converter) removeDuplicateAliases(content string) (string, []string) {
	type sighting struct {
		line int
		name string
	}

	lines := strings.Split(content, "\n")
	seen := make(map[string]sighting)
	remove := make(map[int]struct{})
	var changes []string

	inTextBlock := false
	inDeprecated := false

	for i, line := range lines {
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
		if inDeprecated {
			continue
		}

		m := fieldValueLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := m[2]

		canonical := c.dict.CIF2Equivalent(name)
		if canonical == "" {
			canonical = name
		}
		key := strings.ToLower(canonical)

		prev, dup := seen[key]
		if !dup {
			seen[key] = sighting{line: i, name: name}
			continue
		}
		if strings.Contains(name, ".") && !strings.Contains(prev.name, ".") {
			remove[prev.line] = struct{}{}
			seen[key] = sighting{line: i, name: name}
			changes = append(changes, fmt.Sprintf("Removed duplicate legacy field %s (kept modern %s)", prev.name, name))
		} else {
			remove[i] = struct{}{}
			changes = append(changes, fmt.Sprintf("Removed duplicate field %s (kept %s)", name, prev.name))
		}
	}

	if len(remove) == 0 {
		return content, nil
	}
	kept := make([]string, 0, len(lines)-len(remove))
	for i, line := range lines {
		if _, drop := remove[i]; drop {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), changes
}

// emitDeprecatedSection appends the trailing compatibility section holding
// every deprecated field found before conversion, with its original value and
// a replacement annotation. Field names are padded for column alignment,
// capped at 40 so lines stay inside 80 columns.
func (c *Converter) emitDeprecatedSection(content string, deprecated map[string]string) (string, []string) {
	if len(deprecated) == 0 {
		return content, nil
	}

	lines := strings.Split(content, "\n")
	last := len(lines) - 1
	for last >= 0 && strings.TrimSpace(lines[last]) == "" {
		last--
	}

	section := []string{
		"",
		"",
		sectionBanner,
		"# DEPRECATED FIELDS (retained for compatibility with older software)",
		sectionBanner,
		"# The following fields are deprecated in the CIF specification.",
		"# Modern equivalents have been used above where available.",
		"# These deprecated forms are retained here for backward compatibility.",
		sectionBanner,
		"",
	}

	names := make([]string, 0, len(deprecated))
	width := 0
	for name := range deprecated {
		names = append(names, name)
		if len(name) > width {
			width = len(name)
		}
	}
	if width > 40 {
		width = 40
	}
	sort.Strings(names)

	for _, name := range names {
		section = append(section, fmt.Sprintf("%-*s %s", width, name, deprecated[name]))
		if rep := c.dict.ModernReplacement(name); rep != "" && !strings.EqualFold(rep, name) {
			section = append(section, "# Replaced by: "+rep)
		} else {
			section = append(section, "# No modern replacement")
		}
	}

	section = append(section,
		"",
		sectionBanner,
		"# END OF DEPRECATED FIELDS SECTION",
		sectionBanner,
		"",
	)

	out := make([]string, 0, len(lines)+len(section))
	out = append(out, lines[:last+1]...)
	out = append(out, section...)
	out = append(out, lines[last+1:]...)

	return strings.Join(out, "\n"), []string{
		fmt.Sprintf("Added DEPRECATED section with %d field(s)", len(deprecated)),
	}
}

// addCheckCIFLegacy re-inserts the legacy spelling next to the modern field
// for every allow-listed name, in the main section only. Deprecated
// allow-list entries whose modern replacement is present are skipped; they
// already live in the deprecated section.
func (c *Converter) addCheckCIFLegacy(content string) (string, []string) {
	if len(c.compatFields) == 0 {
		return content, nil
	}

	type sighting struct {
		line   int
		value  string
		indent string
	}

	lines := strings.Split(content, "\n")
	var changes []string

	scanEnd := len(lines)
	for i, line := range lines {
		if strings.Contains(line, "# DEPRECATED FIELDS") {
			scanEnd = i
			break
		}
	}

	existing := make(map[string]sighting)
	inTextBlock := false
	for i := 0; i < scanEnd; i++ {
		stripped := strings.TrimSpace(lines[i])
		if strings.HasPrefix(stripped, ";") {
			inTextBlock = !inTextBlock
			continue
		}
		if inTextBlock {
			continue
		}
		if m := fieldValueLine.FindStringSubmatch(lines[i]); m != nil {
			existing[strings.ToLower(m[2])] = sighting{line: i, value: m[3], indent: m[1]}
		}
	}

	type insertion struct {
		line  int
		text  string
		field string
	}
	var insertions []insertion

	compat := make([]string, 0, len(c.compatFields))
	for f := range c.compatFields {
		compat = append(compat, f)
	}
	sort.Strings(compat)

	for _, legacy := range compat {
		if c.dict.IsFieldDeprecated(legacy) {
			if rep := c.dict.ModernReplacement(legacy); rep != "" {
				if _, ok := existing[strings.ToLower(rep)]; ok {
					continue
				}
			}
		}

		_, legacyPresent := existing[legacy]
		modern := c.dict.CIF2Equivalent(legacy)
		var modernSighting sighting
		modernPresent := false
		if modern != "" {
			modernSighting, modernPresent = existing[strings.ToLower(modern)]
		}

		if modernPresent && !legacyPresent {
			insertions = append(insertions, insertion{
				line:  modernSighting.line + 1,
				text:  modernSighting.indent + legacy + " " + modernSighting.value,
				field: legacy,
			})
			changes = append(changes, fmt.Sprintf("Added legacy field %s for checkCIF compatibility (alongside %s)", legacy, modern))
		}
	}

	// Insert bottom-up so earlier indices stay valid.
	sort.Slice(insertions, func(i, j int) bool { return insertions[i].line > insertions[j].line })
	for _, ins := range insertions {
		lines = append(lines[:ins.line], append([]string{ins.text}, lines[ins.line:]...)...)
	}

	return strings.Join(lines, "\n"), changes
}
