package document

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cifworks/go-cifmodel/internal/model"
)

const sampleCIF = `data_test
# a comment
_cell_length_a                     10.234
_chemical_formula_sum              'C6 H6'
_exptl_absorpt_process_details
;
 multi-scan
 SADABS
;
loop_
 _atom_site_label
 _atom_site_type_symbol
C1 C
N1 N

_diffrn_ambient_temperature        293
`

func mustParse(t *testing.T, content string) *Document {
	t.Helper()
	doc, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestParseFields(t *testing.T) {
	doc := mustParse(t, sampleCIF)

	if got, ok := doc.FieldValue("_cell_length_a"); !ok || got != "10.234" {
		t.Errorf("FieldValue = %q, %v", got, ok)
	}
	// Quotes are stripped on parse.
	if got, _ := doc.FieldValue("_chemical_formula_sum"); got != "C6 H6" {
		t.Errorf("quoted value = %q", got)
	}
	// Lookup is case-insensitive.
	if got, _ := doc.FieldValue("_Cell_Length_A"); got != "10.234" {
		t.Errorf("case-insensitive lookup = %q", got)
	}

	multiline, ok := doc.FieldValue("_exptl_absorpt_process_details")
	if !ok {
		t.Fatal("multiline field missing")
	}
	if multiline != " multi-scan\n SADABS" {
		t.Errorf("multiline value = %q", multiline)
	}
}

func TestParseLoop(t *testing.T) {
	doc := mustParse(t, sampleCIF)

	loops := doc.Loops()
	if len(loops) != 1 {
		t.Fatalf("loops = %d, want 1", len(loops))
	}
	loop := loops[0]
	if diff := cmp.Diff([]string{"_atom_site_label", "_atom_site_type_symbol"}, loop.FieldNames); diff != "" {
		t.Errorf("FieldNames mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][]string{{"C1", "C"}, {"N1", "N"}}, loop.Rows); diff != "" {
		t.Errorf("Rows mismatch (-want +got):\n%s", diff)
	}

	// Loop members are visible but carry no scalar value.
	if !doc.HasField("_atom_site_label") {
		t.Error("loop member not registered")
	}
	if _, ok := doc.FieldValue("_atom_site_label"); ok {
		t.Error("loop member should have no scalar value")
	}
}

func TestParseQuotedLoopValues(t *testing.T) {
	doc := mustParse(t, "loop_\n_a\n_b\n'hello world' x\n")
	rows := doc.Loops()[0].Rows
	if diff := cmp.Diff([][]string{{"hello world", "x"}}, rows); diff != "" {
		t.Errorf("Rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParseValueOnNextLine(t *testing.T) {
	doc := mustParse(t, "_refine_ls_hydrogen_treatment\n constr\n")
	if got, ok := doc.FieldValue("_refine_ls_hydrogen_treatment"); !ok || got != "constr" {
		t.Errorf("next-line value = %q, %v", got, ok)
	}
}

func TestGenerateRoundTrip(t *testing.T) {
	doc := mustParse(t, sampleCIF)
	out := doc.Generate()

	// Structure survives: header, comment, fields, loop with rows.
	for _, want := range []string{
		"data_test",
		"# a comment",
		"_cell_length_a",
		"10.234",
		"'C6 H6'",
		"loop_",
		"_atom_site_label",
		"C1 C",
		"N1 N",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("generated output missing %q:\n%s", want, out)
		}
	}

	// Reparsing yields the same field values.
	again := mustParse(t, out)
	if got, _ := again.FieldValue("_cell_length_a"); got != "10.234" {
		t.Errorf("round-trip value = %q", got)
	}
	if got, _ := again.FieldValue("_exptl_absorpt_process_details"); got != " multi-scan\n SADABS" {
		t.Errorf("round-trip multiline = %q", got)
	}
}

func TestGenerateAlignsValues(t *testing.T) {
	doc := mustParse(t, "_cell_length_a 10.234\n")
	out := doc.Generate()
	if out != "_cell_length_a                     10.234" {
		t.Errorf("alignment off: %q", out)
	}
}

func TestSetFieldValue(t *testing.T) {
	doc := mustParse(t, "data_x\n_cell_length_a 10.0\n")

	doc.SetFieldValue("_cell_length_a", "11.5")
	if got, _ := doc.FieldValue("_cell_length_a"); got != "11.5" {
		t.Errorf("updated value = %q", got)
	}

	doc.SetFieldValue("_cell_length_b", "9.1")
	out := doc.Generate()
	if !strings.Contains(out, "_cell_length_b") {
		t.Errorf("new field missing from output:\n%s", out)
	}
}

func TestGenerateQuotesAndPlaceholders(t *testing.T) {
	doc := mustParse(t, "data_x\n")
	doc.SetFieldValue("_exptl_crystal_colour", "pale yellow")
	doc.SetFieldValue("_exptl_crystal_size_max", "")

	out := doc.Generate()
	if !strings.Contains(out, "'pale yellow'") {
		t.Errorf("value with space not quoted:\n%s", out)
	}
	if !strings.Contains(out, "_exptl_crystal_size_max            ?") {
		t.Errorf("empty value not rendered as ?:\n%s", out)
	}
}

func TestReformatLineLength(t *testing.T) {
	long := strings.TrimSpace(strings.Repeat("solvent accessible void ", 5))
	content := "data_x\n_some_field '" + long + "'\n"

	out, err := ReformatLineLength(content)
	if err != nil {
		t.Fatalf("ReformatLineLength: %v", err)
	}
	for _, line := range strings.Split(out, "\n") {
		if len(line) > 80 {
			t.Errorf("line exceeds 80 columns: %q", line)
		}
	}
	if !strings.Contains(out, "_some_field\n;\nsolvent") {
		t.Errorf("long value not moved to a text block:\n%s", out)
	}
	// The value survives the rewrap.
	again := mustParse(t, out)
	got, _ := again.FieldValue("_some_field")
	if strings.Join(strings.Fields(got), " ") != long {
		t.Errorf("value lost in rewrap: %q", got)
	}
}

func TestReformatPreservesDeprecatedSection(t *testing.T) {
	section := strings.Join([]string{
		deprecatedBorder,
		deprecatedTitle,
		"# These fields have modern replacements and should not be used in new files",
		deprecatedBorder,
		"# -> Use _diffrn.ambient_temperature instead",
		"_cell_measurement_temperature      293",
		deprecatedBorder,
	}, "\n")
	content := "data_x\n_cell_length_a 10.0\n\n" + section + "\n"

	out, err := ReformatLineLength(content)
	if err != nil {
		t.Fatalf("ReformatLineLength: %v", err)
	}
	if !strings.Contains(out, section) {
		t.Errorf("deprecated section rewritten:\n%s", out)
	}
	if !strings.Contains(out, "_cell_length_a                     10.0") {
		t.Errorf("active part not reformatted:\n%s", out)
	}
}

type fakeMappings struct {
	modern map[string]string // deprecated -> dotted modern
	legacy map[string]string // deprecated -> undotted modern
}

func (f fakeMappings) ModernEquivalent(name string, prefer model.CIFVersion) string {
	if prefer == model.CIFVersion2 {
		return f.modern[strings.ToLower(name)]
	}
	return f.legacy[strings.ToLower(name)]
}

func TestAddLegacyCompatibilityFields(t *testing.T) {
	dict := fakeMappings{
		modern: map[string]string{
			"_cell_measurement_temperature": "_diffrn.ambient_temperature",
		},
	}
	doc := mustParse(t, "data_x\n_diffrn.ambient_temperature 293\n")

	report := doc.AddLegacyCompatibilityFields(dict)
	if !strings.Contains(report, "Added 1 compatibility field(s)") {
		t.Fatalf("report = %q", report)
	}

	out := doc.Generate()
	if !strings.Contains(out, deprecatedTitle) {
		t.Errorf("deprecated section missing:\n%s", out)
	}
	if !strings.Contains(out, "_cell_measurement_temperature") {
		t.Errorf("compat field missing:\n%s", out)
	}
	if !strings.Contains(out, "# -> Use _diffrn.ambient_temperature instead") {
		t.Errorf("replacement comment missing:\n%s", out)
	}
	// The modern field keeps its place in the active part.
	if strings.Index(out, "_diffrn.ambient_temperature") > strings.Index(out, deprecatedTitle) {
		t.Errorf("modern field moved into deprecated section:\n%s", out)
	}
}

func TestAddLegacyCompatibilityFields_NothingToDo(t *testing.T) {
	dict := fakeMappings{
		modern: map[string]string{
			"_cell_measurement_temperature": "_diffrn.ambient_temperature",
		},
	}

	// Deprecated spelling already present: nothing added.
	doc := mustParse(t, "data_x\n_cell_measurement_temperature 293\n_diffrn.ambient_temperature 293\n")
	report := doc.AddLegacyCompatibilityFields(dict)
	if !strings.Contains(report, "No compatibility fields needed") {
		t.Errorf("report = %q", report)
	}
	if strings.Contains(doc.Generate(), deprecatedTitle) {
		t.Error("section added with nothing to hold")
	}
}

func TestAddLegacyCompatibilityFields_ExtendsExistingSection(t *testing.T) {
	doc := mustParse(t, "data_x\n_diffrn.ambient_temperature 293\n_diffrn_source.device 'sealed tube'\n")

	// Two passes: the second must extend the section the first created.
	doc.AddLegacyCompatibilityFields(fakeMappings{
		modern: map[string]string{
			"_cell_measurement_temperature": "_diffrn.ambient_temperature",
		},
	})
	doc.AddLegacyCompatibilityFields(fakeMappings{
		modern: map[string]string{
			"_diffrn_source": "_diffrn_source.device",
		},
	})
	out := doc.Generate()

	if strings.Count(out, deprecatedTitle) != 1 {
		t.Fatalf("want exactly one deprecated section:\n%s", out)
	}
	if !strings.Contains(out, "_cell_measurement_temperature") || !strings.Contains(out, "_diffrn_source ") {
		t.Errorf("both compat fields expected:\n%s", out)
	}
	// Everything sits above the final border.
	lastBorder := strings.LastIndex(out, deprecatedBorder)
	if strings.Index(out, "_diffrn_source ") > lastBorder {
		t.Errorf("field landed outside the section:\n%s", out)
	}
}

func TestFieldsOrder(t *testing.T) {
	doc := mustParse(t, sampleCIF)

	var names []string
	for _, f := range doc.Fields() {
		names = append(names, f.Name)
	}
	want := []string{
		"_cell_length_a",
		"_chemical_formula_sum",
		"_exptl_absorpt_process_details",
		"_atom_site_label",
		"_atom_site_type_symbol",
		"_diffrn_ambient_temperature",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("field order mismatch (-want +got):\n%s", diff)
	}
}
