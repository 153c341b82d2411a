// Package names validates CIF data names against the loaded dictionaries and
// the IUCr prefix registry. Every name lands in one of five buckets: valid
// (dictionary), registered (sanctioned local prefix), user-allowed, unknown,
// or deprecated. User decisions persist through a preference store so a name
// allowed once stays allowed across sessions.
package names

import (
	"fmt"
	"strings"
	"sync"

	"github.com/cifworks/go-cifmodel/internal/model"
	"github.com/cifworks/go-cifmodel/pkg/config"
	"github.com/cifworks/go-cifmodel/pkg/manager"
	"github.com/cifworks/go-cifmodel/pkg/prefixes"
)

// Dictionary is the field-model surface the validator needs.
// *manager.Manager satisfies it.
type Dictionary interface {
	IsKnownField(name string) bool
	IsFieldDeprecated(name string) bool
	ModernReplacement(name string) string
}

var _ Dictionary = (*manager.Manager)(nil)

// Validator categorizes data names. Safe for concurrent use; results are
// cached per lowercased name until preferences change.
type Validator struct {
	mu       sync.Mutex
	dict     Dictionary
	registry *prefixes.Registry
	store    config.PreferenceStore

	allowedPrefixes map[string]struct{}
	allowedFields   map[string]struct{}
	sessionIgnored  map[string]struct{}
	cache           map[string]model.FieldValidationResult
}

// Option mutates a Validator during construction.
type Option func(*Validator)

// WithPrefixes replaces the default prefix registry.
func WithPrefixes(reg *prefixes.Registry) Option {
	return func(v *Validator) {
		v.registry = reg
	}
}

// WithStore attaches a preference store. Stored allow-lists are loaded at
// construction and every mutation is written back.
func WithStore(store config.PreferenceStore) Option {
	return func(v *Validator) {
		v.store = store
	}
}

// New builds a Validator over dict.
func New(dict Dictionary, options ...Option) (*Validator, error) {
	if dict == nil {
		return nil, fmt.Errorf("names: nil dictionary")
	}
	v := &Validator{
		dict:            dict,
		allowedPrefixes: make(map[string]struct{}),
		allowedFields:   make(map[string]struct{}),
		sessionIgnored:  make(map[string]struct{}),
		cache:           make(map[string]model.FieldValidationResult),
	}
	for _, opt := range options {
		if opt != nil {
			opt(v)
		}
	}
	if v.registry == nil {
		v.registry = prefixes.New()
	}
	if v.store != nil {
		prefs, err := v.store.LoadPreferences()
		if err != nil {
			return nil, fmt.Errorf("names: load preferences: %w", err)
		}
		for _, p := range prefs.AllowedPrefixes {
			v.allowedPrefixes[strings.ToLower(p)] = struct{}{}
		}
		for _, f := range prefs.AllowedFields {
			v.allowedFields[strings.ToLower(f)] = struct{}{}
		}
	}
	return v, nil
}

// ValidateField categorizes a single data name. The checks run in a fixed
// order; notably deprecation is tested before dictionary presence, since
// deprecated names are still "known".
func (v *Validator) ValidateField(name string, line int) model.FieldValidationResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.validateLocked(name, line)
}

func (v *Validator) validateLocked(name string, line int) model.FieldValidationResult {
	lower := strings.ToLower(strings.TrimSpace(name))

	if cached, ok := v.cache[lower]; ok {
		cached.FieldName = name
		cached.LineNumber = line
		return cached
	}

	result := v.classify(name, line)
	v.cache[lower] = result
	return result
}

func (v *Validator) classify(name string, line int) model.FieldValidationResult {
	lower := strings.ToLower(strings.TrimSpace(name))
	prefix := prefixes.PrefixOf(name)

	result := model.FieldValidationResult{
		FieldName:  name,
		LineNumber: line,
		Prefix:     prefix,
	}

	if _, ignored := v.sessionIgnored[lower]; ignored {
		result.Category = model.CategoryUserAllowed
		result.Description = "Ignored for this session"
		return result
	}
	if _, allowed := v.allowedFields[lower]; allowed {
		result.Category = model.CategoryUserAllowed
		result.Description = "Field allowed by user"
		return result
	}
	if prefix != "" {
		if _, allowed := v.allowedPrefixes[strings.ToLower(prefix)]; allowed {
			result.Category = model.CategoryUserAllowed
			result.Description = fmt.Sprintf("Prefix %q allowed by user", prefix)
			return result
		}
	}

	if v.dict.IsFieldDeprecated(name) {
		result.Category = model.CategoryDeprecated
		result.Description = "Field is deprecated"
		result.ModernEquivalent = v.dict.ModernReplacement(name)
		return result
	}
	if v.dict.IsKnownField(name) {
		result.Category = model.CategoryValid
		result.Description = "Known in dictionary"
		return result
	}

	if v.registry.Registered(name) {
		result.Category = model.CategoryRegisteredLocal
		result.Description = describePrefix(v.registry, "Uses registered prefix", prefix)
		result.SuggestedDictionary = v.registry.SuggestDictionary(prefix)
		return result
	}

	// Not known anywhere. Names like _chemical_oxdiff_formula often hide a
	// local prefix inside a standard category; IUCr Vol G Ch3.1 wants the
	// prefix after the dot (_chemical.oxdiff_formula).
	embedded, suggested := v.detectEmbeddedPrefix(name)
	if embedded != "" {
		result.EmbeddedPrefix = embedded
		result.SuggestedFormat = suggested

		if _, allowed := v.allowedPrefixes[strings.ToLower(embedded)]; allowed {
			result.Category = model.CategoryUserAllowed
			result.Description = fmt.Sprintf("Embedded prefix %q allowed by user", embedded)
			return result
		}
		if v.registry.Known(embedded) {
			result.Category = model.CategoryRegisteredLocal
			result.Description = describePrefix(v.registry, "Uses registered embedded prefix", embedded)
			result.SuggestedDictionary = v.registry.SuggestDictionary(embedded)
			return result
		}
	}

	result.Category = model.CategoryUnknown
	if embedded != "" {
		result.Description = fmt.Sprintf("Unknown field with embedded local prefix %q", embedded)
	} else {
		result.Description = "Not found in loaded dictionaries"
	}
	if prefix != "" {
		result.SuggestedDictionary = v.registry.SuggestDictionary(prefix)
	}
	return result
}

func describePrefix(reg *prefixes.Registry, verb, prefix string) string {
	desc := fmt.Sprintf("%s %q", verb, prefix)
	if info, ok := reg.Info(prefix); ok && info.Description != "" {
		desc += ": " + info.Description
	}
	return desc
}

// knownCategories are the legacy category stems of the core dictionary,
// longest-match candidates for embedded-prefix detection.
var knownCategories = map[string]struct{}{
	"_atom_": {}, "_atom_site_": {}, "_atom_sites_": {}, "_atom_type_": {},
	"_audit_": {}, "_cell_": {}, "_chemical_": {}, "_chemical_formula_": {},
	"_citation_": {}, "_computing_": {}, "_database_": {}, "_diffrn_": {},
	"_diffrn_attenuator_": {}, "_diffrn_detector_": {}, "_diffrn_measurement_": {},
	"_diffrn_orient_": {}, "_diffrn_radiation_": {}, "_diffrn_refln_": {},
	"_diffrn_reflns_": {}, "_diffrn_source_": {}, "_diffrn_standards_": {},
	"_exptl_": {}, "_exptl_absorpt_": {}, "_exptl_crystal_": {},
	"_geom_": {}, "_geom_angle_": {}, "_geom_bond_": {}, "_geom_contact_": {},
	"_geom_hbond_": {}, "_geom_torsion_": {},
	"_journal_": {}, "_publ_": {}, "_publ_author_": {},
	"_refine_": {}, "_refine_diff_": {}, "_refine_ls_": {},
	"_refln_": {}, "_reflns_": {}, "_reflns_shell_": {},
	"_space_group_": {}, "_space_group_symop_": {},
	"_struct_": {}, "_symmetry_": {}, "_twin_": {},
}

// detectEmbeddedPrefix looks for a known category stem at the start of an
// underscore-notation name, with at least a prefix segment and an attribute
// segment after it. Returns the embedded prefix and the corrected dotted
// spelling, or empty strings.
func (v *Validator) detectEmbeddedPrefix(name string) (string, string) {
	if strings.Contains(name, ".") {
		return "", ""
	}

	trimmed := strings.TrimPrefix(name, "_")
	parts := strings.Split(trimmed, "_")
	if len(parts) < 3 {
		return "", ""
	}

	for i := 1; i < len(parts)-1; i++ {
		category := "_" + strings.Join(parts[:i], "_") + "_"
		if _, known := knownCategories[strings.ToLower(category)]; !known {
			continue
		}

		remaining := parts[i:]
		if len(remaining) < 2 {
			continue
		}
		embedded := remaining[0]
		suggested := "_" + strings.Join(parts[:i], "_") + "." + strings.Join(remaining, "_")
		return embedded, suggested
	}
	return "", ""
}

// ValidateContent categorizes every distinct data name in a document. Lines
// are scanned in order; comments, data_ headers, and loop_ keywords are
// skipped, and only the first occurrence of each name is reported.
func (v *Validator) ValidateContent(content string) model.ValidationReport {
	v.mu.Lock()
	defer v.mu.Unlock()

	var report model.ValidationReport
	seen := make(map[string]struct{})

	for i, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "data_") {
			continue
		}
		if strings.EqualFold(trimmed, "loop_") {
			continue
		}
		if !strings.HasPrefix(trimmed, "_") {
			continue
		}

		name := trimmed
		if idx := strings.IndexAny(trimmed, " \t"); idx > 0 {
			name = trimmed[:idx]
		}
		if len(name) < 2 {
			continue
		}

		lower := strings.ToLower(name)
		if _, dup := seen[lower]; dup {
			continue
		}
		seen[lower] = struct{}{}

		report.Add(v.validateLocked(name, i+1))
	}
	return report
}

// IsFieldAcceptable reports whether name needs no user attention: valid,
// registered, or user-allowed.
func (v *Validator) IsFieldAcceptable(name string) bool {
	switch v.ValidateField(name, 0).Category {
	case model.CategoryValid, model.CategoryRegisteredLocal, model.CategoryUserAllowed:
		return true
	}
	return false
}
