package manager

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cifworks/go-cifmodel/internal/cif"
	"github.com/cifworks/go-cifmodel/internal/model"
)

// MixedFormatStats summarises how many known fields a document carries in
// each notation.
type MixedFormatStats struct {
	CIF1Fields  int  `json:"cif1Fields"`
	CIF2Fields  int  `json:"cif2Fields"`
	Mixed       bool `json:"mixed"`
	TotalKnown  int  `json:"totalKnownFields"`
}

// DetectMixedFormatIssues counts known legacy and modern fields in content.
// This is distinct from alias conflicts: it flags inconsistent notation, not
// duplicated data.
func (m *Manager) DetectMixedFormatIssues(content string) MixedFormatStats {
	m.ensureLoaded()
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats MixedFormatStats
	for _, name := range cif.FieldNames(content) {
		lower := strings.ToLower(name)
		if _, ok := m.cif1to2[lower]; ok {
			stats.CIF1Fields++
		} else if _, ok := m.cif2to1[lower]; ok {
			stats.CIF2Fields++
		}
	}
	stats.TotalKnown = stats.CIF1Fields + stats.CIF2Fields
	stats.Mixed = stats.CIF1Fields > 0 && stats.CIF2Fields > 0
	return stats
}

// DetectFieldAliases finds real conflicts in content: the same field present
// under multiple spellings, or one spelling repeated. Text blocks and the
// deprecated compatibility section are excluded, and deprecated fields never
// participate (they are conversion work, not conflicts). Each conflict's
// canonical name is the dictionary's modern spelling when one exists.
func (m *Manager) DetectFieldAliases(content string) []model.AliasConflict {
	m.ensureLoaded()
	m.mu.RLock()
	defer m.mu.RUnlock()

	occurrences := m.scanOccurrences(content)

	counts := make(map[string]int)
	for _, occ := range occurrences {
		counts[strings.ToLower(occ.Name)]++
	}

	primary := m.entries[0].parser
	isDeprecated := func(name string) bool {
		if _, ok := deprecationWhitelist[strings.ToLower(name)]; ok {
			return false
		}
		return primary.IsFieldDeprecated(name)
	}

	canonicalOf := func(name string) (string, bool) {
		lower := strings.ToLower(name)
		if target, ok := m.cif1to2[lower]; ok {
			return target, true
		}
		if _, ok := m.cif2to1[lower]; ok {
			return name, true
		}
		return name, false
	}

	groups := make(map[string][]model.FieldOccurrence)
	order := []string{}
	addTo := func(canonical string, occ model.FieldOccurrence) {
		key := strings.ToLower(canonical)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], occ)
	}
	canonicalName := make(map[string]string)

	for _, occ := range occurrences {
		if isDeprecated(occ.Name) {
			continue
		}
		canonical, known := canonicalOf(occ.Name)
		repeated := counts[strings.ToLower(occ.Name)] > 1
		// Unknown fields only conflict with themselves.
		if !known && !repeated {
			continue
		}
		addTo(canonical, occ)
		if _, ok := canonicalName[strings.ToLower(canonical)]; !ok {
			canonicalName[strings.ToLower(canonical)] = canonical
		}
	}

	var out []model.AliasConflict
	for _, key := range order {
		occs := groups[key]
		distinct := make(map[string]struct{})
		for _, occ := range occs {
			distinct[strings.ToLower(occ.Name)] = struct{}{}
		}
		if len(distinct) > 1 || len(occs) > 1 {
			out = append(out, model.AliasConflict{
				Canonical:   canonicalName[key],
				Occurrences: occs,
			})
		}
	}
	return out
}

// scanOccurrences converts the line scan into occurrence records with
// values attached: inline values for simple fields, the loop sentinel for
// loop columns, the following bare line when the value wrapped.
func (m *Manager) scanOccurrences(content string) []model.FieldOccurrence {
	lines := strings.Split(content, "\n")
	var out []model.FieldOccurrence
	for _, occ := range cif.Fields(content) {
		if occ.InDeprecated {
			continue
		}
		rec := model.FieldOccurrence{
			Name:       occ.Name,
			LineNumber: occ.Line,
			InLoop:     occ.InLoop,
		}
		if occ.InLoop {
			rec.Value = model.LoopValueSentinel
		} else if occ.Line-1 < len(lines) {
			line := lines[occ.Line-1]
			if idx := strings.Index(line, occ.Name); idx >= 0 {
				rec.Value = strings.TrimSpace(line[idx+len(occ.Name):])
			}
			if rec.Value == "" && occ.Line < len(lines) {
				next := strings.TrimSpace(lines[occ.Line])
				if next != "" && !strings.HasPrefix(next, "_") &&
					!strings.HasPrefix(next, "#") && !strings.HasPrefix(next, ";") &&
					!cif.IsConstruct(next) {
					rec.Value = next
				}
			}
		}
		out = append(out, rec)
	}
	return out
}

// ResolveFieldAliases removes conflicts automatically: repeated spellings
// keep their first occurrence, alias groups keep the preferred notation.
// preferCIF2 keeps (or rewrites to) the canonical spelling; otherwise the
// first legacy spelling present survives. Returns the cleaned content and a
// change log.
func (m *Manager) ResolveFieldAliases(content string, preferCIF2 bool) (string, []string) {
	conflicts := m.DetectFieldAliases(content)
	if len(conflicts) == 0 {
		return content, nil
	}

	m.ensureLoaded()
	m.mu.RLock()
	defer m.mu.RUnlock()

	var changes []string
	for _, conflict := range conflicts {
		spellings := conflict.Spellings()

		if len(spellings) == 1 {
			dup := spellings[0]
			cleaned, removed := cif.KeepFirstOccurrence(content, dup)
			if removed > 0 {
				content = cleaned
				changes = append(changes, fmt.Sprintf("Removed %d duplicate occurrence(s) of %q", removed, dup))
			}
			continue
		}

		var keep string
		if preferCIF2 {
			keep = conflict.Canonical
			if !containsFold(spellings, keep) {
				// Canonical absent: rewrite the first alias in place so the
				// value survives, then drop the rest.
				first := spellings[0]
				rewritten, n := cif.ReplaceField(content, first, keep, 1)
				if n > 0 {
					content = rewritten
					changes = append(changes, fmt.Sprintf("Converted %q to %q", first, keep))
				}
			}
		} else {
			for _, s := range spellings {
				if _, ok := m.cif1to2[strings.ToLower(s)]; ok {
					keep = s
					break
				}
			}
			if keep == "" {
				keep = conflict.Canonical
			}
		}

		for _, s := range spellings {
			if strings.EqualFold(s, keep) {
				continue
			}
			cleaned, removed := cif.RemoveFieldLines(content, s)
			if removed > 0 {
				content = cleaned
				changes = append(changes, fmt.Sprintf("Removed duplicate field %q (alias of %q)", s, keep))
			}
		}
	}

	return content, changes
}

// StandardizeFields resolves alias conflicts preferring the modern notation.
// It never mass-converts a consistently formatted document; only actual
// conflicts change.
func (m *Manager) StandardizeFields(content string) (string, []string) {
	return m.ResolveFieldAliases(content, true)
}

// ApplyFieldConflictResolutions applies caller decisions keyed by canonical
// name. Loop conflicts are resolved by renaming the surviving header in
// place and dropping duplicate headers, leaving data rows untouched. Simple
// conflicts remove every spelling and re-add the chosen field with the
// chosen value; the loop-data sentinel suppresses the re-add.
func (m *Manager) ApplyFieldConflictResolutions(content string, resolutions map[string]model.Resolution) (string, []string) {
	conflicts := m.DetectFieldAliases(content)
	byCanonical := make(map[string]model.AliasConflict, len(conflicts))
	for _, c := range conflicts {
		byCanonical[strings.ToLower(c.Canonical)] = c
	}

	keys := make([]string, 0, len(resolutions))
	for k := range resolutions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var changes []string
	for _, canonical := range keys {
		res := resolutions[canonical]
		conflict, ok := byCanonical[strings.ToLower(canonical)]
		if !ok {
			continue
		}
		spellings := conflict.Spellings()

		inLoop := false
		for _, occ := range conflict.Occurrences {
			if occ.InLoop {
				inLoop = true
				break
			}
		}

		if inLoop {
			rewritten, loopChanges := resolveLoopConflict(content, spellings, res.Field)
			content = rewritten
			changes = append(changes, loopChanges...)
			continue
		}

		for _, s := range spellings {
			cleaned, removed := cif.RemoveFieldLines(content, s)
			if removed > 0 {
				content = cleaned
				changes = append(changes, fmt.Sprintf("Removed conflicting field %q", s))
			}
		}
		if res.Value != "" && res.Value != model.LoopValueSentinel {
			content = cif.AddField(content, res.Field, res.Value)
			changes = append(changes, fmt.Sprintf("Added resolved field %q with value %q", res.Field, res.Value))
		}
	}

	return content, changes
}

// resolveLoopConflict rewrites loop headers only: the first spelling from
// the conflict set becomes chosen, later ones are dropped as duplicate
// columns. Indentation is preserved.
func resolveLoopConflict(content string, spellings []string, chosen string) (string, []string) {
	inSet := func(name string) bool {
		for _, s := range spellings {
			if strings.EqualFold(s, name) {
				return true
			}
		}
		return false
	}

	lines := strings.Split(content, "\n")
	var result []string
	var changes []string

	inTextBlock := false
	inHeader := false
	foundChosen := false

	for _, line := range lines {
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, ";") {
			inTextBlock = !inTextBlock
			result = append(result, line)
			continue
		}
		if inTextBlock {
			result = append(result, line)
			continue
		}
		if stripped == "loop_" {
			inHeader = true
			foundChosen = false
			result = append(result, line)
			continue
		}

		if inHeader {
			token, ok := cif.FieldToken(line)
			if !ok {
				inHeader = false
				result = append(result, line)
				continue
			}
			if !inSet(token) {
				result = append(result, line)
				continue
			}
			if foundChosen {
				changes = append(changes, fmt.Sprintf("Removed duplicate loop field %q", token))
				continue
			}
			foundChosen = true
			if strings.EqualFold(token, chosen) {
				result = append(result, line)
				continue
			}
			indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
			result = append(result, indent+chosen)
			changes = append(changes, fmt.Sprintf("Renamed loop field %q to %q", token, chosen))
			continue
		}

		result = append(result, line)
	}

	return strings.Join(result, "\n"), changes
}

// fieldReferencePattern finds data-name mentions anywhere in a line, used
// only inside text blocks where prose refers to fields by name.
var fieldReferencePattern = regexp.MustCompile(`_[a-zA-Z][a-zA-Z0-9_.\[\]()/]*`)

// ConvertFieldFormat rewrites every mapped field in content to the target
// notation: field lines via the text-block-aware line pass, then prose
// references inside text blocks. Unknown fields are left alone.
func (m *Manager) ConvertFieldFormat(content string, target model.CIFVersion) (string, []string) {
	m.ensureLoaded()
	m.mu.RLock()
	defer m.mu.RUnlock()

	var changes []string
	names := cif.FieldNames(content)
	sort.Strings(names)

	for _, name := range names {
		replacement := m.convertOneLocked(name, target)
		if replacement == "" || strings.EqualFold(replacement, name) {
			continue
		}
		rewritten, n := cif.ReplaceField(content, name, replacement, 0)
		if n > 0 {
			content = rewritten
			changes = append(changes, fmt.Sprintf("Converted %q to %q", name, replacement))
		}
	}

	content, textChanges := m.convertTextBlockReferencesLocked(content, target)
	changes = append(changes, textChanges...)

	return content, changes
}

func (m *Manager) convertOneLocked(name string, target model.CIFVersion) string {
	lower := strings.ToLower(name)
	if target == model.CIFVersion1 {
		return m.cif1EquivalentLocked(lower)
	}
	if cif2, ok := m.cif1to2[lower]; ok {
		return cif2
	}
	return ""
}

// convertTextBlockReferencesLocked converts field names mentioned inside
// semicolon text blocks so prose stays consistent with the converted
// document. Only exact dictionary mappings rewrite; unknown mentions stay.
func (m *Manager) convertTextBlockReferencesLocked(content string, target model.CIFVersion) (string, []string) {
	lines := strings.Split(content, "\n")
	var changes []string
	inTextBlock := false

	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ";") {
			inTextBlock = !inTextBlock
			continue
		}
		if !inTextBlock {
			continue
		}

		updated := line
		for _, ref := range fieldReferencePattern.FindAllString(line, -1) {
			converted := m.convertOneLocked(ref, target)
			if converted == "" || strings.EqualFold(converted, ref) {
				continue
			}
			updated = strings.Replace(updated, ref, converted, 1)
			changes = append(changes, fmt.Sprintf("Text block reference: %q -> %q", ref, converted))
		}
		lines[i] = updated
	}

	return strings.Join(lines, "\n"), changes
}

func containsFold(list []string, target string) bool {
	for _, s := range list {
		if strings.EqualFold(s, target) {
			return true
		}
	}
	return false
}
