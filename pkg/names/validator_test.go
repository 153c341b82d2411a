package names

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/cifworks/go-cifmodel/internal/model"
	"github.com/cifworks/go-cifmodel/pkg/config"
	"github.com/cifworks/go-cifmodel/pkg/prefixes"
)

type fakeDict struct {
	known      map[string]struct{}
	deprecated map[string]string // name -> modern replacement
}

func newFakeDict() *fakeDict {
	return &fakeDict{
		known: map[string]struct{}{
			"_cell_length_a": {},
			"_cell.length_a": {},
			"_atom_site_label": {},
		},
		deprecated: map[string]string{
			"_cell_measurement_temperature": "_diffrn.ambient_temperature",
		},
	}
}

func (f *fakeDict) IsKnownField(name string) bool {
	lower := strings.ToLower(name)
	if _, ok := f.known[lower]; ok {
		return true
	}
	_, ok := f.deprecated[lower]
	return ok
}

func (f *fakeDict) IsFieldDeprecated(name string) bool {
	_, ok := f.deprecated[strings.ToLower(name)]
	return ok
}

func (f *fakeDict) ModernReplacement(name string) string {
	return f.deprecated[strings.ToLower(name)]
}

func bundledRegistry(t *testing.T) *prefixes.Registry {
	t.Helper()
	return prefixes.New(prefixes.WithUserFile(filepath.Join(t.TempDir(), "absent.json")))
}

func newValidator(t *testing.T, options ...Option) *Validator {
	t.Helper()
	options = append([]Option{WithPrefixes(bundledRegistry(t))}, options...)
	v, err := New(newFakeDict(), options...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return v
}

func TestNewRequiresDictionary(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("New(nil) should fail")
	}
}

func TestValidateField_Known(t *testing.T) {
	v := newValidator(t)

	res := v.ValidateField("_cell_length_a", 7)
	if res.Category != model.CategoryValid {
		t.Errorf("Category = %q, want valid", res.Category)
	}
	if res.LineNumber != 7 || res.Prefix != "cell" {
		t.Errorf("result = %+v", res)
	}
}

func TestValidateField_DeprecatedBeforeKnown(t *testing.T) {
	v := newValidator(t)

	// The name is both deprecated and "known"; deprecation must win.
	res := v.ValidateField("_cell_measurement_temperature", 1)
	if res.Category != model.CategoryDeprecated {
		t.Errorf("Category = %q, want deprecated", res.Category)
	}
	if res.ModernEquivalent != "_diffrn.ambient_temperature" {
		t.Errorf("ModernEquivalent = %q", res.ModernEquivalent)
	}
}

func TestValidateField_RegisteredPrefix(t *testing.T) {
	v := newValidator(t)

	res := v.ValidateField("_shelx_res_file", 3)
	if res.Category != model.CategoryRegisteredLocal {
		t.Errorf("Category = %q, want registered", res.Category)
	}
	if res.Prefix != "shelx" {
		t.Errorf("Prefix = %q", res.Prefix)
	}
	if res.SuggestedDictionary != "cif_shelxl.dic" {
		t.Errorf("SuggestedDictionary = %q", res.SuggestedDictionary)
	}
	if !strings.Contains(res.Description, "shelx") {
		t.Errorf("Description = %q", res.Description)
	}
}

func TestValidateField_Unknown(t *testing.T) {
	v := newValidator(t)

	res := v.ValidateField("_mylab_special_value", 5)
	if res.Category != model.CategoryUnknown {
		t.Errorf("Category = %q, want unknown", res.Category)
	}
	if res.Description != "Not found in loaded dictionaries" {
		t.Errorf("Description = %q", res.Description)
	}
	if res.EmbeddedPrefix != "" {
		t.Errorf("EmbeddedPrefix = %q, want empty", res.EmbeddedPrefix)
	}
}

func TestValidateField_EmbeddedRegisteredPrefix(t *testing.T) {
	v := newValidator(t)

	// oxdiff is registered; buried inside the _chemical_ category it should
	// still be recognised, with the corrected dotted spelling suggested.
	res := v.ValidateField("_chemical_oxdiff_formula", 2)
	if res.Category != model.CategoryRegisteredLocal {
		t.Errorf("Category = %q, want registered", res.Category)
	}
	if res.EmbeddedPrefix != "oxdiff" {
		t.Errorf("EmbeddedPrefix = %q", res.EmbeddedPrefix)
	}
	if res.SuggestedFormat != "_chemical.oxdiff_formula" {
		t.Errorf("SuggestedFormat = %q", res.SuggestedFormat)
	}
}

func TestValidateField_EmbeddedUnknownPrefix(t *testing.T) {
	v := newValidator(t)

	res := v.ValidateField("_chemical_mylab_formula", 2)
	if res.Category != model.CategoryUnknown {
		t.Errorf("Category = %q, want unknown", res.Category)
	}
	if res.EmbeddedPrefix != "mylab" {
		t.Errorf("EmbeddedPrefix = %q", res.EmbeddedPrefix)
	}
	if res.SuggestedFormat != "_chemical.mylab_formula" {
		t.Errorf("SuggestedFormat = %q", res.SuggestedFormat)
	}
	if !strings.Contains(res.Description, "mylab") {
		t.Errorf("Description = %q", res.Description)
	}
}

func TestValidateField_DottedNamesSkipEmbeddedAnalysis(t *testing.T) {
	v := newValidator(t)

	res := v.ValidateField("_chemical.mylab_formula", 1)
	if res.Category != model.CategoryUnknown {
		t.Errorf("Category = %q, want unknown", res.Category)
	}
	if res.EmbeddedPrefix != "" {
		t.Errorf("dotted name should skip embedded analysis: %+v", res)
	}
}

func TestAllowField(t *testing.T) {
	v := newValidator(t)

	if v.ValidateField("_mylab_special_value", 0).Category != model.CategoryUnknown {
		t.Fatal("precondition: field should be unknown")
	}
	if err := v.AllowField("_mylab_special_value"); err != nil {
		t.Fatalf("AllowField: %v", err)
	}

	res := v.ValidateField("_mylab_special_value", 0)
	if res.Category != model.CategoryUserAllowed {
		t.Errorf("Category = %q, want user_allowed", res.Category)
	}
	if res.Description != "Field allowed by user" {
		t.Errorf("Description = %q", res.Description)
	}
}

func TestAllowPrefix(t *testing.T) {
	v := newValidator(t)

	if err := v.AllowPrefix("mylab"); err != nil {
		t.Fatalf("AllowPrefix: %v", err)
	}

	res := v.ValidateField("_mylab_other_thing", 0)
	if res.Category != model.CategoryUserAllowed {
		t.Errorf("Category = %q, want user_allowed", res.Category)
	}

	if err := v.DisallowPrefix("mylab"); err != nil {
		t.Fatalf("DisallowPrefix: %v", err)
	}
	if v.ValidateField("_mylab_other_thing", 0).Category != model.CategoryUnknown {
		t.Error("disallowed prefix should revert to unknown")
	}
}

func TestAllowEmbeddedPrefix(t *testing.T) {
	v := newValidator(t)

	if err := v.AllowPrefix("qlab"); err != nil {
		t.Fatal(err)
	}
	res := v.ValidateField("_chemical_qlab_formula", 0)
	if res.Category != model.CategoryUserAllowed {
		t.Errorf("Category = %q, want user_allowed", res.Category)
	}
	if !strings.Contains(res.Description, "Embedded prefix") {
		t.Errorf("Description = %q", res.Description)
	}
	if res.SuggestedFormat != "_chemical.qlab_formula" {
		t.Errorf("SuggestedFormat = %q", res.SuggestedFormat)
	}
}

func TestIgnoreForSession(t *testing.T) {
	store, err := config.NewFileStore(filepath.Join(t.TempDir(), "prefs.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	v := newValidator(t, WithStore(store))

	v.IgnoreForSession("_weird_field_name")
	res := v.ValidateField("_weird_field_name", 0)
	if res.Category != model.CategoryUserAllowed {
		t.Errorf("Category = %q, want user_allowed", res.Category)
	}
	if res.Description != "Ignored for this session" {
		t.Errorf("Description = %q", res.Description)
	}

	// Session ignores are ephemeral: nothing lands in the store.
	prefs, err := store.LoadPreferences()
	if err != nil {
		t.Fatal(err)
	}
	if len(prefs.AllowedFields) != 0 || len(prefs.AllowedPrefixes) != 0 {
		t.Errorf("session ignore persisted: %+v", prefs)
	}
}

func TestPreferencesPersist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	store, err := config.NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}

	v := newValidator(t, WithStore(store))
	if err := v.AllowPrefix("mylab"); err != nil {
		t.Fatal(err)
	}
	if err := v.AllowField("_one_off_name"); err != nil {
		t.Fatal(err)
	}

	// A fresh validator over the same store sees the decisions.
	reloaded := newValidator(t, WithStore(store))
	if reloaded.ValidateField("_mylab_thing_x", 0).Category != model.CategoryUserAllowed {
		t.Error("allowed prefix not reloaded from store")
	}
	if reloaded.ValidateField("_one_off_name", 0).Category != model.CategoryUserAllowed {
		t.Error("allowed field not reloaded from store")
	}
}

func TestCacheRestampsLineNumber(t *testing.T) {
	v := newValidator(t)

	first := v.ValidateField("_cell_length_a", 3)
	second := v.ValidateField("_Cell_Length_A", 9)
	if second.LineNumber != 9 {
		t.Errorf("LineNumber = %d, want 9", second.LineNumber)
	}
	if second.FieldName != "_Cell_Length_A" {
		t.Errorf("FieldName = %q", second.FieldName)
	}
	if first.Category != second.Category {
		t.Errorf("categories differ: %q vs %q", first.Category, second.Category)
	}
}

func TestValidateContent(t *testing.T) {
	v := newValidator(t)

	content := `data_test
# comment line
_cell_length_a 10.0
loop_
 _atom_site_label
 _shelx_res_file
 C1 x
_cell_measurement_temperature 293
_mylab_special_value 1
_cell_length_a 10.1
`
	report := v.ValidateContent(content)

	if report.TotalFields != 5 {
		t.Fatalf("TotalFields = %d, want 5", report.TotalFields)
	}
	if len(report.ValidFields) != 2 {
		t.Errorf("ValidFields = %+v", report.ValidFields)
	}
	if len(report.RegisteredFields) != 1 || report.RegisteredFields[0].FieldName != "_shelx_res_file" {
		t.Errorf("RegisteredFields = %+v", report.RegisteredFields)
	}
	if len(report.DeprecatedFields) != 1 {
		t.Errorf("DeprecatedFields = %+v", report.DeprecatedFields)
	}
	if len(report.UnknownFields) != 1 || report.UnknownFields[0].FieldName != "_mylab_special_value" {
		t.Errorf("UnknownFields = %+v", report.UnknownFields)
	}

	// First occurrence wins: _cell_length_a reported from line 3, not 9.
	for _, res := range report.ValidFields {
		if strings.EqualFold(res.FieldName, "_cell_length_a") && res.LineNumber != 3 {
			t.Errorf("LineNumber = %d, want 3", res.LineNumber)
		}
	}
}

func TestIsFieldAcceptable(t *testing.T) {
	v := newValidator(t)

	cases := []struct {
		name string
		want bool
	}{
		{"_cell_length_a", true},
		{"_shelx_res_file", true},
		{"_mylab_special_value", false},
		{"_cell_measurement_temperature", false}, // deprecated needs attention
	}
	for _, tc := range cases {
		if got := v.IsFieldAcceptable(tc.name); got != tc.want {
			t.Errorf("IsFieldAcceptable(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestAllowedAccessors(t *testing.T) {
	v := newValidator(t)

	if err := v.AllowPrefix("Zebra"); err != nil {
		t.Fatal(err)
	}
	if err := v.AllowPrefix("alpha"); err != nil {
		t.Fatal(err)
	}
	got := v.AllowedPrefixes()
	if len(got) != 2 || got[0] != "alpha" || got[1] != "zebra" {
		t.Errorf("AllowedPrefixes = %v", got)
	}
}
