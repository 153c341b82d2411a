package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cifworks/go-cifmodel/internal/model"
)

type fixConfig struct {
	target      Format
	allowManual bool
}

// FixOption configures an ApplyFixes run.
type FixOption func(*fixConfig)

// WithTargetFormat sets the notation fixes convert toward. Default modern.
func WithTargetFormat(f Format) FixOption {
	return func(c *fixConfig) { c.target = f }
}

// WithManualMappings enables fixes graded AutoFixManualMapping: mechanical
// rewrites that rest on the curated CIF2-only extension table rather than a
// loaded dictionary.
func WithManualMappings(allow bool) FixOption {
	return func(c *fixConfig) { c.allowManual = allow }
}

// ApplyFixes applies every auto-fixable issue to content and returns the
// repaired document with a change log. Issues graded AutoFixNo are never
// touched; AutoFixManualMapping issues only with WithManualMappings(true).
func (v *Validator) ApplyFixes(content string, issues []model.ValidationIssue, options ...FixOption) (string, []string) {
	cfg := fixConfig{target: FormatModern}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	var changes []string
	for _, issue := range issues {
		switch issue.AutoFix {
		case model.AutoFixNo:
			continue
		case model.AutoFixManualMapping:
			if !cfg.allowManual {
				continue
			}
		}

		var change string
		switch issue.Type {
		case model.IssueMixedFormat:
			content, change = v.fixMixedFormat(content, issue, cfg.target)
		case model.IssueDuplicateAlias:
			content, change = v.fixDuplicateAlias(content, issue, cfg.target)
		case model.IssueDeprecatedField:
			content, change = fixDeprecated(content, issue)
		case model.IssueUnknownField:
			content, change = fixUnknown(content, issue)
		}
		if change != "" {
			changes = append(changes, change)
		}
	}
	return content, changes
}

func (v *Validator) fixMixedFormat(content string, issue model.ValidationIssue, target Format) (string, string) {
	field := issue.FieldNames[0]

	var replacement string
	if target == FormatLegacy {
		replacement = v.dict.CIF1Equivalent(field)
		if replacement == "" {
			replacement = strings.ReplaceAll(field, ".", "_")
		}
	} else {
		replacement = v.dict.CIF2Equivalent(field)
		if replacement == "" {
			return content, ""
		}
	}

	updated := replaceWord(content, field, replacement)
	if updated == content {
		return content, ""
	}
	return updated, fmt.Sprintf("Converted %s to %s (%s format)", field, replacement, target)
}

func (v *Validator) fixDuplicateAlias(content string, issue model.ValidationIssue, target Format) (string, string) {
	// Verbatim repeat: keep the first rule line, drop the rest.
	if len(issue.FieldNames) == 1 {
		field := issue.FieldNames[0]
		updated, removed := keepFirstRuleLine(content, field)
		if removed == 0 {
			return content, ""
		}
		return updated, fmt.Sprintf("Removed %d duplicate occurrence(s) of %s", removed, field)
	}

	preferred := preferredSpelling(issue.FieldNames, target)

	var renamed []string
	for _, field := range issue.FieldNames {
		if strings.EqualFold(field, preferred) {
			continue
		}
		updated := replaceWord(content, field, preferred)
		if updated != content {
			content = updated
			renamed = append(renamed, field)
		}
	}
	// Renaming leaves identical entries behind; keep the first. An earlier
	// fix may already have converted the aliases, so dedup even when the
	// rename loop found nothing.
	content, removed := keepFirstRuleLine(content, preferred)
	if len(renamed) == 0 {
		if removed == 0 {
			return content, ""
		}
		return content, fmt.Sprintf("Removed %d duplicate occurrence(s) of %s", removed, preferred)
	}
	return content, fmt.Sprintf("Replaced %s with %s (%s format)", strings.Join(renamed, ", "), preferred, target)
}

func fixDeprecated(content string, issue model.ValidationIssue) (string, string) {
	field := issue.FieldNames[0]

	if replacement, ok := strings.CutPrefix(issue.SuggestedFix, "Replace with modern equivalent: "); ok {
		updated := replaceWord(content, field, replacement)
		if updated == content {
			return content, ""
		}
		return updated, fmt.Sprintf("Replaced deprecated field %s with modern equivalent %s", field, replacement)
	}

	if strings.HasPrefix(issue.SuggestedFix, "Remove deprecated field") {
		updated, removed := removeRuleLines(content, field)
		if removed == 0 {
			return content, ""
		}
		return updated, "Removed deprecated field " + field
	}
	return content, ""
}

func fixUnknown(content string, issue model.ValidationIssue) (string, string) {
	field := issue.FieldNames[0]
	replacement, ok := strings.CutPrefix(issue.SuggestedFix, "Use known field: ")
	if !ok {
		return content, ""
	}
	updated := replaceWord(content, field, replacement)
	if updated == content {
		return content, ""
	}
	return updated, fmt.Sprintf("Replaced unknown field %s with %s", field, replacement)
}

// replaceWord substitutes whole-token occurrences of old with new. Word
// boundaries keep _geom_angle from matching inside _geom_angle_publ_flag.
func replaceWord(content, old, new string) string {
	pattern, err := regexp.Compile(`\b` + regexp.QuoteMeta(old) + `\b`)
	if err != nil {
		return content
	}
	return pattern.ReplaceAllString(content, new)
}

// keepFirstRuleLine drops every rule line for field after the first.
func keepFirstRuleLine(content, field string) (string, int) {
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	removed := 0
	seen := false

	for _, line := range lines {
		if m := ruleFieldPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil && strings.EqualFold(m[1], field) {
			if seen {
				removed++
				continue
			}
			seen = true
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), removed
}

// removeRuleLines drops every rule line for field.
func removeRuleLines(content, field string) (string, int) {
	lines := strings.Split(content, "\n")
	kept := make([]string, 0, len(lines))
	removed := 0

	for _, line := range lines {
		if m := ruleFieldPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil && strings.EqualFold(m[1], field) {
			removed++
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n"), removed
}
