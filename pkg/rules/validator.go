package rules

import (
	"fmt"
	"strings"

	"github.com/cifworks/go-cifmodel/internal/model"
	"github.com/cifworks/go-cifmodel/pkg/manager"
)

// Dictionary is the field-model surface the validator needs. *manager.Manager
// satisfies it.
type Dictionary interface {
	IsKnownField(name string) bool
	IsFieldDeprecated(name string) bool
	CIF2Equivalent(name string) string
	CIF1Equivalent(name string) string
	ModernEquivalent(name string, prefer model.CIFVersion) string
}

var _ Dictionary = (*manager.Manager)(nil)

// ValidationResult holds everything a Validate run found.
type ValidationResult struct {
	Issues         []model.ValidationIssue `json:"issues"`
	TotalFields    int                     `json:"totalFields"`
	UniqueFields   int                     `json:"uniqueFields"`
	DetectedFormat Format                  `json:"detectedFormat"`
}

// HasIssues reports whether any check flagged a problem.
func (r ValidationResult) HasIssues() bool {
	return len(r.Issues) > 0
}

// ByCategory groups the issues by type for report rendering.
func (r ValidationResult) ByCategory() map[model.IssueType][]model.ValidationIssue {
	out := make(map[model.IssueType][]model.ValidationIssue)
	for _, issue := range r.Issues {
		out[issue.Type] = append(out[issue.Type], issue)
	}
	return out
}

// Validator checks rule documents against the dictionaries.
type Validator struct {
	dict Dictionary
}

// New builds a Validator over dict.
func New(dict Dictionary) (*Validator, error) {
	if dict == nil {
		return nil, fmt.Errorf("rules: nil dictionary")
	}
	return &Validator{dict: dict}, nil
}

// Validate runs the four checks in order: mixed format, duplicates and
// aliases, deprecated names, unknown names. cifContent, when given, supplies
// the detected document format for the result; targetFormat drives the
// mixed-format check (Mixed prefers modern).
func (v *Validator) Validate(rulesContent, cifContent string, targetFormat Format) ValidationResult {
	occurrences := extractFields(rulesContent)

	detected := FormatLegacy
	if cifContent != "" {
		detected = AnalyzeFormat(cifContent)
	}

	counts := make(map[string]int)
	lineNumbers := make(map[string][]int)
	var unique []string
	for _, occ := range occurrences {
		key := strings.ToLower(occ.name)
		if counts[key] == 0 {
			unique = append(unique, occ.name)
		}
		counts[key]++
		lineNumbers[key] = append(lineNumbers[key], occ.line)
	}

	var issues []model.ValidationIssue
	issues = append(issues, v.findMixedFormat(unique, lineNumbers, targetFormat)...)
	issues = append(issues, v.findDuplicateAliases(unique, counts, lineNumbers)...)
	issues = append(issues, v.findDeprecated(unique, lineNumbers)...)
	issues = append(issues, v.findUnknown(unique, lineNumbers)...)

	return ValidationResult{
		Issues:         issues,
		TotalFields:    len(occurrences),
		UniqueFields:   len(unique),
		DetectedFormat: detected,
	}
}

// autoFixFor grades the repair for converting field to the preferred format:
// a dictionary mapping is safe, a mapping that only exists in the curated
// CIF2-only extension table needs confirmation, no mapping means no fix.
func (v *Validator) autoFixFor(field string, preferred Format) model.AutoFixType {
	var equivalent string
	if preferred == FormatLegacy {
		equivalent = v.dict.CIF1Equivalent(field)
	} else {
		equivalent = v.dict.CIF2Equivalent(field)
	}
	if equivalent == "" {
		return model.AutoFixNo
	}
	if manager.IsCIF2OnlyExtension(field) || manager.IsCIF2OnlyExtension(equivalent) {
		return model.AutoFixManualMapping
	}
	return model.AutoFixYes
}

func (v *Validator) findMixedFormat(fields []string, lines map[string][]int, target Format) []model.ValidationIssue {
	preferred := target
	if target == FormatMixed {
		preferred = FormatModern
	}

	var issues []model.ValidationIssue
	for _, field := range fields {
		fieldFormat := FormatLegacy
		if strings.Contains(field, ".") {
			fieldFormat = FormatModern
		}
		if fieldFormat == preferred {
			continue
		}

		var equivalent string
		if preferred == FormatModern {
			equivalent = v.dict.CIF2Equivalent(field)
		} else {
			equivalent = v.dict.CIF1Equivalent(field)
		}
		if equivalent == "" {
			continue
		}

		issues = append(issues, model.ValidationIssue{
			Type:        model.IssueMixedFormat,
			FieldNames:  []string{field},
			LineNumbers: lines[strings.ToLower(field)],
			Description: fmt.Sprintf("Field %s is in %s format, but %s is preferred", field, fieldFormat, preferred),
			SuggestedFix: fmt.Sprintf("Convert to %s format: %s", preferred, equivalent),
			AutoFix:      v.autoFixFor(field, preferred),
		})
	}
	return issues
}

func (v *Validator) findDuplicateAliases(fields []string, counts map[string]int, lines map[string][]int) []model.ValidationIssue {
	var issues []model.ValidationIssue
	processed := make(map[string]struct{})

	// Verbatim repeats first.
	for _, field := range fields {
		key := strings.ToLower(field)
		if counts[key] > 1 {
			issues = append(issues, model.ValidationIssue{
				Type:        model.IssueDuplicateAlias,
				FieldNames:  []string{field},
				LineNumbers: lines[key],
				Description: fmt.Sprintf("Field %s appears %d times", field, counts[key]),
				SuggestedFix: fmt.Sprintf("Remove %d duplicate occurrence(s) of %s", counts[key]-1, field),
				AutoFix:      model.AutoFixYes,
			})
			processed[key] = struct{}{}
		}
	}

	// Then equivalence groups: different spellings of one definition.
	present := make(map[string]string, len(fields)) // lower -> spelling as written
	for _, f := range fields {
		present[strings.ToLower(f)] = f
	}

	grouped := make(map[string][]string)
	var order []string
	for _, field := range fields {
		key := strings.ToLower(field)
		if _, done := processed[key]; done {
			continue
		}

		aliases := []string{field}
		canonical := ""

		if cif2 := v.dict.CIF2Equivalent(field); cif2 != "" {
			canonical = cif2
			if spelling, ok := present[strings.ToLower(cif2)]; ok && !strings.EqualFold(spelling, field) {
				aliases = append(aliases, spelling)
			}
		}
		if cif1 := v.dict.CIF1Equivalent(field); cif1 != "" {
			if canonical == "" {
				canonical = field
			}
			if spelling, ok := present[strings.ToLower(cif1)]; ok && !containsFold(aliases, spelling) {
				aliases = append(aliases, spelling)
			}
		}

		if len(aliases) < 2 {
			continue
		}
		groupKey := strings.ToLower(canonical)
		if _, seen := grouped[groupKey]; seen {
			continue
		}
		grouped[groupKey] = aliases
		order = append(order, groupKey)
		for _, a := range aliases {
			processed[strings.ToLower(a)] = struct{}{}
		}
	}

	for _, key := range order {
		group := grouped[key]
		preferred := preferredSpelling(group, FormatModern)
		var groupLines []int
		for _, f := range group {
			groupLines = append(groupLines, lines[strings.ToLower(f)]...)
		}
		issues = append(issues, model.ValidationIssue{
			Type:        model.IssueDuplicateAlias,
			FieldNames:  group,
			LineNumbers: groupLines,
			Description: "Multiple aliases found: " + strings.Join(group, ", "),
			SuggestedFix: fmt.Sprintf("Keep only %s, remove others", preferred),
			AutoFix:      model.AutoFixYes,
		})
	}
	return issues
}

func (v *Validator) findDeprecated(fields []string, lines map[string][]int) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for _, field := range fields {
		if !v.dict.IsFieldDeprecated(field) {
			continue
		}
		issue := model.ValidationIssue{
			Type:        model.IssueDeprecatedField,
			FieldNames:  []string{field},
			LineNumbers: lines[strings.ToLower(field)],
			Description: fmt.Sprintf("Field %s is deprecated", field),
		}
		if replacement := v.dict.ModernEquivalent(field, model.CIFVersion2); replacement != "" {
			issue.SuggestedFix = "Replace with modern equivalent: " + replacement
			issue.AutoFix = model.AutoFixYes
		} else {
			issue.SuggestedFix = "Remove deprecated field (no modern equivalent available)"
			issue.AutoFix = model.AutoFixNo
		}
		issues = append(issues, issue)
	}
	return issues
}

func (v *Validator) findUnknown(fields []string, lines map[string][]int) []model.ValidationIssue {
	var issues []model.ValidationIssue
	for _, field := range fields {
		if v.dict.IsKnownField(field) {
			continue
		}

		suggestedFix := "Verify field name or add to custom dictionary"
		autoFix := v.autoFixFor(field, FormatLegacy)

		// Probe the dot/underscore counterpart: many "unknown" fields are
		// just the right name in the wrong notation.
		if counterpart := notationCounterpart(field); counterpart != "" && v.dict.IsKnownField(counterpart) {
			suggestedFix = "Use known field: " + counterpart
			autoFix = model.AutoFixYes
		}

		issues = append(issues, model.ValidationIssue{
			Type:        model.IssueUnknownField,
			FieldNames:  []string{field},
			LineNumbers: lines[strings.ToLower(field)],
			Description: "Unknown field: " + field,
			SuggestedFix: suggestedFix,
			AutoFix:      autoFix,
		})
	}
	return issues
}

// notationCounterpart flips a name between notations: dotted names collapse
// to underscores, underscore names gain a dot after the first segment.
func notationCounterpart(field string) string {
	if strings.Contains(field, ".") {
		return strings.ReplaceAll(field, ".", "_")
	}
	rest := strings.TrimPrefix(field, "_")
	parts := strings.SplitN(rest, "_", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return "_" + parts[0] + "." + parts[1]
}

// preferredSpelling picks the survivor from an alias group: the first
// spelling in the target notation, else the first overall.
func preferredSpelling(group []string, target Format) string {
	for _, f := range group {
		dotted := strings.Contains(f, ".")
		if (target == FormatModern && dotted) || (target == FormatLegacy && !dotted) {
			return f
		}
	}
	return group[0]
}

func containsFold(list []string, target string) bool {
	for _, s := range list {
		if strings.EqualFold(s, target) {
			return true
		}
	}
	return false
}
