package rules

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cifworks/go-cifmodel/internal/model"
)

type fakeDict struct {
	toModern map[string]string
	toLegacy map[string]string
	modernEq map[string]string // deprecated name -> current equivalent
	known    map[string]struct{}
}

func newFakeDict() *fakeDict {
	f := &fakeDict{
		toModern: map[string]string{
			"_cell_length_a":             "_cell.length_a",
			"_geom_angle":                "_geom_angle.value",
			"_refine_diff_potential_max": "_refine_diff.potential_max",
		},
		toLegacy: map[string]string{
			"_cell.length_a":             "_cell_length_a",
			"_geom_angle.value":          "_geom_angle",
			"_refine_diff.potential_max": "_refine_diff_potential_max",
		},
		modernEq: map[string]string{
			"_cell_measurement_temperature": "_diffrn.ambient_temperature",
			"_refine_ls_black_box":          "",
		},
		known: map[string]struct{}{
			"_cell.extra":                 {},
			"_diffrn.ambient_temperature": {},
		},
	}
	return f
}

func (f *fakeDict) IsKnownField(name string) bool {
	lower := strings.ToLower(name)
	if _, ok := f.toModern[lower]; ok {
		return true
	}
	if _, ok := f.toLegacy[lower]; ok {
		return true
	}
	if _, ok := f.modernEq[lower]; ok {
		return true
	}
	_, ok := f.known[lower]
	return ok
}

func (f *fakeDict) IsFieldDeprecated(name string) bool {
	_, ok := f.modernEq[strings.ToLower(name)]
	return ok
}

func (f *fakeDict) CIF2Equivalent(name string) string {
	return f.toModern[strings.ToLower(name)]
}

func (f *fakeDict) CIF1Equivalent(name string) string {
	return f.toLegacy[strings.ToLower(name)]
}

func (f *fakeDict) ModernEquivalent(name string, prefer model.CIFVersion) string {
	return f.modernEq[strings.ToLower(name)]
}

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New(newFakeDict())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestAnalyzeFormat(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    Format
	}{
		{"empty", "", FormatLegacy},
		{"all modern", "_cell.length_a 10\n_cell.length_b 11\n_cell.volume 500\n", FormatModern},
		{"all legacy", "_cell_length_a 10\n_cell_length_b 11\n", FormatLegacy},
		{"mixed", "_cell.length_a 10\n_cell_length_b 11\n", FormatMixed},
		{"mostly legacy", "_a_x 1\n_b_y 2\n_c_z 3\n_d.w 4\n", FormatLegacy},
		{"comments ignored", "# _cell.length_a mention\n_cell_length_a 10\n", FormatLegacy},
		{"action prefixes", "DELETE: _cell.length_a\nEDIT: _cell.volume\nCHECK: _cell.angle_alpha\n", FormatModern},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AnalyzeFormat(tc.content); got != tc.want {
				t.Errorf("AnalyzeFormat = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestValidate_MixedFormat(t *testing.T) {
	v := newValidator(t)
	result := v.Validate("_cell_length_a some_rule\n", "", FormatModern)

	issues := result.ByCategory()[model.IssueMixedFormat]
	if len(issues) != 1 {
		t.Fatalf("mixed-format issues = %d, want 1: %+v", len(issues), result.Issues)
	}
	issue := issues[0]
	if issue.SuggestedFix != "Convert to modern format: _cell.length_a" {
		t.Errorf("SuggestedFix = %q", issue.SuggestedFix)
	}
	if issue.AutoFix != model.AutoFixYes {
		t.Errorf("AutoFix = %q, want yes", issue.AutoFix)
	}
	if diff := cmp.Diff([]int{1}, issue.LineNumbers); diff != "" {
		t.Errorf("LineNumbers mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_MixedTargetPrefersModern(t *testing.T) {
	v := newValidator(t)
	result := v.Validate("_cell_length_a keep\n", "", FormatMixed)
	if len(result.ByCategory()[model.IssueMixedFormat]) != 1 {
		t.Fatalf("mixed target did not prefer modern: %+v", result.Issues)
	}
}

func TestValidate_ExtensionMappingNeedsConfirmation(t *testing.T) {
	v := newValidator(t)
	result := v.Validate("_refine_diff_potential_max keep\n", "", FormatModern)

	issues := result.ByCategory()[model.IssueMixedFormat]
	if len(issues) != 1 {
		t.Fatalf("issues = %+v", result.Issues)
	}
	if issues[0].AutoFix != model.AutoFixManualMapping {
		t.Errorf("AutoFix = %q, want cif2_manual_mapping", issues[0].AutoFix)
	}
}

func TestValidate_VerbatimDuplicates(t *testing.T) {
	v := newValidator(t)
	rules := "_cell.length_a keep\n_cell.volume keep\n_cell.length_a delete\n"
	result := v.Validate(rules, "", FormatModern)

	issues := result.ByCategory()[model.IssueDuplicateAlias]
	if len(issues) != 1 {
		t.Fatalf("duplicate issues = %d: %+v", len(issues), result.Issues)
	}
	if issues[0].Description != "Field _cell.length_a appears 2 times" {
		t.Errorf("Description = %q", issues[0].Description)
	}
	if diff := cmp.Diff([]int{1, 3}, issues[0].LineNumbers); diff != "" {
		t.Errorf("LineNumbers mismatch (-want +got):\n%s", diff)
	}
	if result.TotalFields != 3 || result.UniqueFields != 2 {
		t.Errorf("totals = %d/%d, want 3/2", result.TotalFields, result.UniqueFields)
	}
}

func TestValidate_AliasGroup(t *testing.T) {
	v := newValidator(t)
	rules := "_cell_length_a keep\n_cell.length_a keep\n"
	result := v.Validate(rules, "", FormatModern)

	issues := result.ByCategory()[model.IssueDuplicateAlias]
	if len(issues) != 1 {
		t.Fatalf("alias issues = %d: %+v", len(issues), result.Issues)
	}
	issue := issues[0]
	if len(issue.FieldNames) != 2 {
		t.Errorf("FieldNames = %v", issue.FieldNames)
	}
	if issue.SuggestedFix != "Keep only _cell.length_a, remove others" {
		t.Errorf("SuggestedFix = %q", issue.SuggestedFix)
	}
}

func TestValidate_Deprecated(t *testing.T) {
	v := newValidator(t)
	rules := "_cell_measurement_temperature keep\n_refine_ls_black_box keep\n"
	result := v.Validate(rules, "", FormatLegacy)

	issues := result.ByCategory()[model.IssueDeprecatedField]
	if len(issues) != 2 {
		t.Fatalf("deprecated issues = %d: %+v", len(issues), result.Issues)
	}

	byName := map[string]model.ValidationIssue{}
	for _, issue := range issues {
		byName[issue.FieldNames[0]] = issue
	}
	withRep := byName["_cell_measurement_temperature"]
	if withRep.SuggestedFix != "Replace with modern equivalent: _diffrn.ambient_temperature" {
		t.Errorf("SuggestedFix = %q", withRep.SuggestedFix)
	}
	if withRep.AutoFix != model.AutoFixYes {
		t.Errorf("AutoFix = %q", withRep.AutoFix)
	}
	without := byName["_refine_ls_black_box"]
	if without.AutoFix != model.AutoFixNo {
		t.Errorf("no-replacement AutoFix = %q, want no", without.AutoFix)
	}
}

func TestValidate_UnknownWithCounterpart(t *testing.T) {
	v := newValidator(t)
	result := v.Validate("_cell_extra keep\n_totally_bogus keep\n", "", FormatLegacy)

	issues := result.ByCategory()[model.IssueUnknownField]
	if len(issues) != 2 {
		t.Fatalf("unknown issues = %d: %+v", len(issues), result.Issues)
	}

	byName := map[string]model.ValidationIssue{}
	for _, issue := range issues {
		byName[issue.FieldNames[0]] = issue
	}
	probe := byName["_cell_extra"]
	if probe.SuggestedFix != "Use known field: _cell.extra" {
		t.Errorf("SuggestedFix = %q", probe.SuggestedFix)
	}
	if probe.AutoFix != model.AutoFixYes {
		t.Errorf("AutoFix = %q", probe.AutoFix)
	}
	bogus := byName["_totally_bogus"]
	if bogus.AutoFix != model.AutoFixNo {
		t.Errorf("bogus AutoFix = %q, want no", bogus.AutoFix)
	}
}

func TestValidate_DetectedFormatFromCIF(t *testing.T) {
	v := newValidator(t)
	cif := "_cell.length_a 10\n_cell.volume 500\n"
	result := v.Validate("_cell.length_a keep\n", cif, FormatModern)
	if result.DetectedFormat != FormatModern {
		t.Errorf("DetectedFormat = %q", result.DetectedFormat)
	}

	result = v.Validate("_cell.length_a keep\n", "", FormatModern)
	if result.DetectedFormat != FormatLegacy {
		t.Errorf("default DetectedFormat = %q, want legacy", result.DetectedFormat)
	}
}

func TestApplyFixes_MixedFormat(t *testing.T) {
	v := newValidator(t)
	rules := "_cell_length_a keep  # cell edge\n"
	result := v.Validate(rules, "", FormatModern)

	fixed, changes := v.ApplyFixes(rules, result.Issues)
	if !strings.Contains(fixed, "_cell.length_a keep  # cell edge") {
		t.Errorf("fixed = %q", fixed)
	}
	if len(changes) != 1 || !strings.Contains(changes[0], "Converted _cell_length_a to _cell.length_a") {
		t.Errorf("changes = %v", changes)
	}
}

func TestApplyFixes_WordBoundary(t *testing.T) {
	v := newValidator(t)
	// _geom_angle must not rewrite inside _geom_angle_publ_flag.
	rules := "_geom_angle keep\n_geom_angle_publ_flag keep\n"
	result := v.Validate(rules, "", FormatModern)

	fixed, _ := v.ApplyFixes(rules, result.Issues)
	if !strings.Contains(fixed, "_geom_angle.value keep") {
		t.Errorf("fixed = %q", fixed)
	}
	if !strings.Contains(fixed, "_geom_angle_publ_flag keep") {
		t.Errorf("longer field damaged: %q", fixed)
	}
}

func TestApplyFixes_VerbatimDuplicates(t *testing.T) {
	v := newValidator(t)
	rules := "_cell.length_a keep\n_cell.volume keep\n_cell.length_a delete\n"
	result := v.Validate(rules, "", FormatModern)

	fixed, changes := v.ApplyFixes(rules, result.Issues)
	if got := strings.Count(fixed, "_cell.length_a"); got != 1 {
		t.Errorf("field occurs %d times, want 1:\n%s", got, fixed)
	}
	if !strings.Contains(fixed, "_cell.length_a keep") {
		t.Errorf("first occurrence lost:\n%s", fixed)
	}
	if len(changes) != 1 {
		t.Errorf("changes = %v", changes)
	}
}

func TestApplyFixes_AliasGroup(t *testing.T) {
	v := newValidator(t)
	rules := "_cell_length_a keep\n_cell.length_a keep\n"
	result := v.Validate(rules, "", FormatModern)

	fixed, _ := v.ApplyFixes(rules, result.Issues)
	if strings.Contains(fixed, "_cell_length_a") {
		t.Errorf("legacy alias survived:\n%s", fixed)
	}
	if got := strings.Count(fixed, "_cell.length_a"); got != 1 {
		t.Errorf("survivor occurs %d times, want 1:\n%s", got, fixed)
	}
}

func TestApplyFixes_Deprecated(t *testing.T) {
	v := newValidator(t)
	rules := "_cell_measurement_temperature keep\n"
	result := v.Validate(rules, "", FormatLegacy)

	fixed, changes := v.ApplyFixes(rules, result.Issues)
	if !strings.Contains(fixed, "_diffrn.ambient_temperature keep") {
		t.Errorf("fixed = %q", fixed)
	}
	if len(changes) == 0 {
		t.Error("no changes reported")
	}
}

func TestApplyFixes_ManualMappingGated(t *testing.T) {
	v := newValidator(t)
	rules := "_refine_diff_potential_max keep\n"
	result := v.Validate(rules, "", FormatModern)

	// Gated off by default.
	fixed, changes := v.ApplyFixes(rules, result.Issues)
	if fixed != rules || len(changes) != 0 {
		t.Errorf("manual-mapping fix applied without opt-in: %q %v", fixed, changes)
	}

	fixed, changes = v.ApplyFixes(rules, result.Issues, WithManualMappings(true))
	if !strings.Contains(fixed, "_refine_diff.potential_max keep") {
		t.Errorf("opted-in fix not applied: %q", fixed)
	}
	if len(changes) != 1 {
		t.Errorf("changes = %v", changes)
	}
}

func TestApplyFixes_UnknownField(t *testing.T) {
	v := newValidator(t)
	rules := "_cell_extra keep\n"
	result := v.Validate(rules, "", FormatLegacy)

	fixed, changes := v.ApplyFixes(rules, result.Issues)
	if !strings.Contains(fixed, "_cell.extra keep") {
		t.Errorf("fixed = %q", fixed)
	}
	if len(changes) != 1 || !strings.Contains(changes[0], "Replaced unknown field") {
		t.Errorf("changes = %v", changes)
	}
}
