package cif

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReplaceField_PreservesIndentAndValue(t *testing.T) {
	content := "data_test\n  _cell_length_a  10.0(2)\n"
	got, n := ReplaceField(content, "_cell_length_a", "_cell.length_a", 0)
	want := "data_test\n  _cell.length_a  10.0(2)\n"
	if n != 1 || got != want {
		t.Fatalf("ReplaceField = %q (n=%d), want %q (n=1)", got, n, want)
	}
}

func TestReplaceField_TextBlockUntouched(t *testing.T) {
	block := ";\nsee _cell_length_a for details\n;\n"
	content := "data_test\n_note\n" + block + "_cell_length_a 10.0\n"

	got, n := ReplaceField(content, "_cell_length_a", "_cell.length_a", 0)
	if n != 1 {
		t.Fatalf("expected 1 replacement, got %d", n)
	}
	if !strings.Contains(got, block) {
		t.Fatalf("text block was modified:\n%s", got)
	}
	if !strings.Contains(got, "_cell.length_a 10.0") {
		t.Fatalf("field outside block not replaced:\n%s", got)
	}
}

func TestReplaceField_SkipsDeprecatedSection(t *testing.T) {
	content := "_cell.length_a 10.0\n" +
		"# DEPRECATED FIELDS (retained for compatibility with older software)\n" +
		"_cell_length_a 10.0\n"
	got, n := ReplaceField(content, "_cell_length_a", "_cell.length_a", 0)
	if n != 0 {
		t.Fatalf("deprecated section rewritten: n=%d\n%s", n, got)
	}
}

func TestRemoveFieldLines_SemicolonValue(t *testing.T) {
	content := "data_test\n" +
		"_exptl_special_details\n" +
		";\n" +
		"grown from ethanol\n" +
		";\n" +
		"_cell_length_a 10.0\n"

	got, n := RemoveFieldLines(content, "_exptl_special_details")
	want := "data_test\n_cell_length_a 10.0\n"
	if n != 1 || got != want {
		t.Fatalf("RemoveFieldLines = %q (n=%d), want %q (n=1)", got, n, want)
	}
}

func TestKeepFirstOccurrence(t *testing.T) {
	content := "_cell_length_a 10.0\n_other 1\n_cell_length_a 10.1\n_cell_length_a 10.2\n"
	got, n := KeepFirstOccurrence(content, "_cell_length_a")
	want := "_cell_length_a 10.0\n_other 1\n"
	if n != 2 || got != want {
		t.Fatalf("KeepFirstOccurrence = %q (n=%d), want %q (n=2)", got, n, want)
	}
}

func TestSplitRow(t *testing.T) {
	cases := []struct {
		line string
		want []string
	}{
		{"C1 1.0 0.5", []string{"C1", "1.0", "0.5"}},
		{"C1 'some value' 0.5", []string{"C1", "'some value'", "0.5"}},
		{`O2 "double quoted" ?`, []string{"O2", `"double quoted"`, "?"}},
		{"  spaced\tout  ", []string{"spaced", "out"}},
		{"'don''t split' x", []string{"'don''t split'", "x"}},
	}
	for _, tc := range cases {
		got := SplitRow(tc.line)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("SplitRow(%q) mismatch (-want +got):\n%s", tc.line, diff)
		}
	}
}

func TestLoopColumns(t *testing.T) {
	content := "data_test\n" +
		"loop_\n" +
		"_atom_site_label\n" +
		"_atom_site_occupancy\n" +
		"_atom_site_fract_x\n" +
		"C1 1.0 0.25\n"

	headers, col, ok := LoopColumns(content, "_atom_site_occupancy")
	if !ok {
		t.Fatalf("loop column not found")
	}
	if col != 1 {
		t.Fatalf("column index = %d, want 1", col)
	}
	want := []string{"_atom_site_label", "_atom_site_occupancy", "_atom_site_fract_x"}
	if diff := cmp.Diff(want, headers); diff != "" {
		t.Fatalf("headers mismatch (-want +got):\n%s", diff)
	}

	if InLoop(content, "_cell_length_a") {
		t.Fatalf("absent field reported as loop column")
	}
}

func TestAddField_AfterDataBlock(t *testing.T) {
	content := "#\\#CIF_2.0\n\ndata_test\n_cell.length_a 10.0\n"
	got := AddField(content, "_cell.length_b", "11.0")
	want := "#\\#CIF_2.0\n\ndata_test\n_cell.length_b 11.0\n_cell.length_a 10.0\n"
	if got != want {
		t.Fatalf("AddField = %q, want %q", got, want)
	}
}

func TestAddField_QuotesWhitespaceValues(t *testing.T) {
	got := AddField("data_test\n", "_diffrn_source", "rotating anode")
	if !strings.Contains(got, "_diffrn_source 'rotating anode'") {
		t.Fatalf("value not quoted: %q", got)
	}
}
