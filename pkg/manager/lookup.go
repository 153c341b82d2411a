package manager

import (
	"strings"

	"github.com/cifworks/go-cifmodel/internal/cif"
	"github.com/cifworks/go-cifmodel/internal/model"
)

// IsKnownField reports whether name is defined by any loaded dictionary,
// under any spelling. Names missing from the merged maps are probed under
// their dot/underscore counterpart, and as a last resort searched for in the
// raw primary dictionary text, which catches definitions the alias loops
// never mention.
func (m *Manager) IsKnownField(name string) bool {
	m.ensureLoaded()
	m.mu.RLock()
	defer m.mu.RUnlock()

	name = strings.TrimSpace(name)
	if m.knownLocked(name) {
		return true
	}

	if strings.Contains(name, ".") {
		if m.knownLocked(strings.ReplaceAll(name, ".", "_")) {
			return true
		}
	} else if counterpart := dottedCounterpart(name); counterpart != "" {
		if m.knownLocked(counterpart) {
			return true
		}
	}

	return m.searchPrimaryRaw(name)
}

func (m *Manager) knownLocked(name string) bool {
	lower := strings.ToLower(name)
	if _, ok := m.cif1to2[lower]; ok {
		return true
	}
	if _, ok := m.cif2to1[lower]; ok {
		return true
	}
	for i := range m.entries {
		if i > 0 && !m.entries[i].info.Active {
			continue
		}
		if m.entries[i].parser.IsKnownField(name) {
			return true
		}
	}
	return false
}

// dottedCounterpart converts _category_attr to _category.attr at the first
// segment boundary. Returns "" when the name has no second segment.
func dottedCounterpart(name string) string {
	if !strings.HasPrefix(name, "_") {
		return ""
	}
	rest := name[1:]
	idx := strings.Index(rest, "_")
	if idx <= 0 || idx == len(rest)-1 {
		return ""
	}
	return "_" + rest[:idx] + "." + rest[idx+1:]
}

// IsFieldDeprecated reports whether the primary dictionary retired this
// spelling. A small whitelist overrides the dictionary for fields that are
// still in legitimate use.
func (m *Manager) IsFieldDeprecated(name string) bool {
	if _, ok := deprecationWhitelist[strings.ToLower(strings.TrimSpace(name))]; ok {
		return false
	}
	m.ensureLoaded()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[0].parser.IsFieldDeprecated(name)
}

// CIF2Equivalent resolves any spelling to the canonical (modern) spelling
// with the dictionary's own casing, e.g. _symmetry_int_tables_number to
// _space_group.IT_number. Returns "" when no dictionary knows the name.
func (m *Manager) CIF2Equivalent(name string) string {
	m.ensureLoaded()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cif2EquivalentLocked(name)
}

func (m *Manager) cif2EquivalentLocked(name string) string {
	for i := range m.entries {
		if i > 0 && !m.entries[i].info.Active {
			continue
		}
		if def, ok := m.entries[i].parser.DefinitionID(name); ok {
			return def
		}
	}
	if target, ok := m.cif1to2[strings.ToLower(name)]; ok {
		return target
	}
	return ""
}

// CIF1Equivalent resolves a modern spelling to its preferred legacy alias:
// the first alias without a dot, else the first listed. Returns "" when the
// name has no legacy alias.
func (m *Manager) CIF1Equivalent(name string) string {
	m.ensureLoaded()
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cif1EquivalentLocked(name)
}

func (m *Manager) cif1EquivalentLocked(name string) string {
	aliases := m.cif2to1[strings.ToLower(name)]
	for _, a := range aliases {
		if !strings.Contains(a, ".") {
			return a
		}
	}
	if len(aliases) > 0 {
		return aliases[0]
	}
	return ""
}

// ModernReplacement returns the non-deprecated successor of a retired field:
// the dictionary's declared replacement, else the canonical spelling when it
// is itself current, else the modern equivalent when current. Returns ""
// when no replacement exists.
func (m *Manager) ModernReplacement(name string) string {
	m.ensureLoaded()
	m.mu.RLock()
	defer m.mu.RUnlock()

	primary := m.entries[0].parser
	if meta, ok := primary.Metadata(name); ok {
		if meta.ReplacementBy != "" {
			return meta.ReplacementBy
		}
		if !primary.IsFieldDeprecated(meta.DefinitionID) {
			return meta.DefinitionID
		}
	}

	if cif2 := m.cif2EquivalentLocked(name); cif2 != "" && !primary.IsFieldDeprecated(cif2) {
		return cif2
	}
	return ""
}

// symmetryVariations generates the spelling variations the old _symmetry_
// names appear under: the dotted/underscore notation swap plus case folds.
// CIF readers disagree on how these fields were normalised, so lookups try
// each form.
func symmetryVariations(name string) []string {
	variations := []string{name}
	switch {
	case strings.HasPrefix(name, "_symmetry_"):
		dotted := strings.Replace(name, "_symmetry_", "_symmetry.", 1)
		variations = append(variations, strings.ToLower(dotted), dotted)
	case strings.HasPrefix(name, "_symmetry."):
		underscored := strings.Replace(name, "_symmetry.", "_symmetry_", 1)
		variations = append(variations, underscored, strings.ToLower(underscored), strings.ToUpper(underscored))
	}

	seen := make(map[string]struct{}, len(variations))
	out := variations[:0]
	for _, v := range variations {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ModernEquivalent finds the current spelling for a possibly deprecated
// field. prefer selects the notation of the result: model.CIFVersion1 walks
// through the modern form to its current legacy alias, anything else returns
// the modern form. Returns "" when no current equivalent exists.
func (m *Manager) ModernEquivalent(name string, prefer model.CIFVersion) string {
	m.ensureLoaded()
	m.mu.RLock()
	defer m.mu.RUnlock()

	primary := m.entries[0].parser
	deprecated := func(field string) bool {
		if _, ok := deprecationWhitelist[strings.ToLower(field)]; ok {
			return false
		}
		return primary.IsFieldDeprecated(field)
	}

	for _, variant := range symmetryVariations(name) {
		cif2 := m.cif2EquivalentLocked(variant)
		if cif2 == "" {
			continue
		}
		if prefer == model.CIFVersion1 {
			if alias := m.cif1EquivalentLocked(cif2); alias != "" && !strings.EqualFold(alias, name) && !deprecated(alias) {
				return alias
			}
		}
		if !deprecated(cif2) {
			return cif2
		}
	}
	return ""
}

// DetectCIFVersion classifies document content as CIF1, CIF2, mixed, or
// unknown. Explicit version markers win over field notation.
func (m *Manager) DetectCIFVersion(content string) model.CIFVersion {
	return cif.DetectVersion(content)
}

// GetDeprecatedFields scans content and maps every deprecated field found to
// its modern replacement ("" when none exists). Text blocks and an existing
// deprecated compatibility section are excluded.
func (m *Manager) GetDeprecatedFields(content string) map[string]string {
	out := make(map[string]string)
	for _, name := range cif.FieldNames(content) {
		if m.IsFieldDeprecated(name) {
			out[name] = m.ModernReplacement(name)
		}
	}
	return out
}

// Metadata returns the merged-view definition record for name, consulting
// dictionaries in priority order.
func (m *Manager) Metadata(name string) (model.FieldMetadata, bool) {
	m.ensureLoaded()
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.entries {
		if i > 0 && !m.entries[i].info.Active {
			continue
		}
		if meta, ok := m.entries[i].parser.Metadata(name); ok {
			return meta, true
		}
	}
	return model.FieldMetadata{}, false
}

// AllAliases lists every spelling of name's definition, canonical first,
// from the first dictionary that knows it.
func (m *Manager) AllAliases(name string) []string {
	m.ensureLoaded()
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.entries {
		if i > 0 && !m.entries[i].info.Active {
			continue
		}
		if aliases := m.entries[i].parser.AllAliases(name); len(aliases) > 0 {
			return aliases
		}
	}
	return nil
}
