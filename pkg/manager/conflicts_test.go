package manager

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cifworks/go-cifmodel/internal/model"
)

func TestDetectFieldAliases_DuplicateSpellings(t *testing.T) {
	m := newTestManager(t)
	content := "data_test\n" +
		"_cell_length_a 10.0\n" +
		"_cell.length_a 10.1\n"

	got := m.DetectFieldAliases(content)
	if len(got) != 1 {
		t.Fatalf("got %d conflicts, want 1: %+v", len(got), got)
	}
	c := got[0]
	if c.Canonical != "_cell.length_a" {
		t.Errorf("Canonical = %q, want _cell.length_a", c.Canonical)
	}
	if diff := cmp.Diff([]string{"_cell_length_a", "_cell.length_a"}, c.Spellings()); diff != "" {
		t.Errorf("Spellings mismatch (-want +got):\n%s", diff)
	}
	if c.Occurrences[0].Value != "10.0" || c.Occurrences[1].Value != "10.1" {
		t.Errorf("values = %q, %q", c.Occurrences[0].Value, c.Occurrences[1].Value)
	}
}

func TestDetectFieldAliases_RepeatedSingleSpelling(t *testing.T) {
	m := newTestManager(t)
	content := "data_test\n" +
		"_cell_volume 500.0\n" +
		"_cell_length_a 10.0\n" +
		"_cell_volume 501.0\n"

	got := m.DetectFieldAliases(content)
	if len(got) != 1 {
		t.Fatalf("got %d conflicts, want 1: %+v", len(got), got)
	}
	if n := len(got[0].Occurrences); n != 2 {
		t.Errorf("occurrences = %d, want 2", n)
	}
}

func TestDetectFieldAliases_SkipsDeprecatedAndTextBlocks(t *testing.T) {
	m := newTestManager(t)

	// _cell_volume_old maps to _cell.volume, but deprecated fields are
	// conversion work, not conflicts.
	content := "data_test\n" +
		"_cell_volume_old 499.0\n" +
		"_cell.volume 500.0\n"
	if got := m.DetectFieldAliases(content); len(got) != 0 {
		t.Fatalf("deprecated field produced conflicts: %+v", got)
	}

	content = "data_test\n" +
		"_cell.length_a 10.0\n" +
		"_exptl_special_details\n" +
		";\n" +
		"_cell_length_a was measured twice.\n" +
		";\n"
	if got := m.DetectFieldAliases(content); len(got) != 0 {
		t.Fatalf("text block mention produced conflicts: %+v", got)
	}
}

func TestDetectFieldAliases_LoopOccurrences(t *testing.T) {
	m := newTestManager(t)
	content := "data_test\n" +
		"loop_\n" +
		"_cell_length_a\n" +
		"_cell.length_a\n" +
		"10.0 10.0\n"

	got := m.DetectFieldAliases(content)
	if len(got) != 1 {
		t.Fatalf("got %d conflicts, want 1", len(got))
	}
	for _, occ := range got[0].Occurrences {
		if !occ.InLoop {
			t.Errorf("%s: InLoop = false", occ.Name)
		}
		if occ.Value != model.LoopValueSentinel {
			t.Errorf("%s: Value = %q, want sentinel", occ.Name, occ.Value)
		}
	}
}

func TestDetectMixedFormatIssues(t *testing.T) {
	m := newTestManager(t)

	stats := m.DetectMixedFormatIssues("_cell_length_a 10\n_cell.volume 500\n")
	if stats.CIF1Fields != 1 || stats.CIF2Fields != 1 || !stats.Mixed {
		t.Errorf("stats = %+v", stats)
	}

	stats = m.DetectMixedFormatIssues("_cell_length_a 10\n_cell_volume 500\n")
	if stats.Mixed {
		t.Errorf("uniform document reported mixed: %+v", stats)
	}
}

func TestResolveFieldAliases_PreferModern(t *testing.T) {
	m := newTestManager(t)
	content := "data_test\n" +
		"_cell_length_a 10.0\n" +
		"_cell.length_a 10.1\n"

	resolved, changes := m.ResolveFieldAliases(content, true)
	if strings.Contains(resolved, "_cell_length_a") {
		t.Errorf("legacy spelling survived:\n%s", resolved)
	}
	if !strings.Contains(resolved, "_cell.length_a 10.1") {
		t.Errorf("canonical value lost:\n%s", resolved)
	}
	if len(changes) == 0 {
		t.Error("no changes reported")
	}
}

func TestResolveFieldAliases_PreferLegacy(t *testing.T) {
	m := newTestManager(t)
	content := "data_test\n" +
		"_cell_length_a 10.0\n" +
		"_cell.length_a 10.1\n"

	resolved, _ := m.ResolveFieldAliases(content, false)
	if !strings.Contains(resolved, "_cell_length_a 10.0") {
		t.Errorf("legacy spelling lost:\n%s", resolved)
	}
	if strings.Contains(resolved, "_cell.length_a") {
		t.Errorf("modern spelling survived:\n%s", resolved)
	}
}

func TestResolveFieldAliases_DuplicateKeepsFirst(t *testing.T) {
	m := newTestManager(t)
	content := "data_test\n" +
		"_cell_volume 500.0\n" +
		"_cell_volume 501.0\n"

	resolved, changes := m.ResolveFieldAliases(content, true)
	if got := strings.Count(resolved, "_cell_volume"); got != 1 {
		t.Errorf("kept %d occurrences, want 1:\n%s", got, resolved)
	}
	if !strings.Contains(resolved, "_cell_volume 500.0") {
		t.Errorf("first value lost:\n%s", resolved)
	}
	if len(changes) != 1 {
		t.Errorf("changes = %v", changes)
	}
}

func TestStandardizeFields_LeavesCleanDocumentsAlone(t *testing.T) {
	m := newTestManager(t)
	content := "data_test\n_cell_length_a 10.0\n_cell_volume 500.0\n"

	resolved, changes := m.StandardizeFields(content)
	if resolved != content {
		t.Errorf("conflict-free document rewritten:\n%s", resolved)
	}
	if len(changes) != 0 {
		t.Errorf("changes = %v", changes)
	}
}

func TestApplyFieldConflictResolutions_Simple(t *testing.T) {
	m := newTestManager(t)
	content := "data_test\n" +
		"_cell_length_a 10.0\n" +
		"_cell.length_a 10.5\n"

	resolved, changes := m.ApplyFieldConflictResolutions(content, map[string]model.Resolution{
		"_cell.length_a": {Field: "_cell.length_a", Value: "10.5"},
	})
	if strings.Contains(resolved, "_cell_length_a") {
		t.Errorf("losing spelling survived:\n%s", resolved)
	}
	if got := strings.Count(resolved, "_cell.length_a"); got != 1 {
		t.Errorf("chosen field occurs %d times, want 1:\n%s", got, resolved)
	}
	if !strings.Contains(resolved, "_cell.length_a 10.5") {
		t.Errorf("chosen value lost:\n%s", resolved)
	}
	if len(changes) == 0 {
		t.Error("no changes reported")
	}
}

func TestApplyFieldConflictResolutions_Loop(t *testing.T) {
	m := newTestManager(t)
	content := "data_test\n" +
		"loop_\n" +
		"  _cell_length_a\n" +
		"  _cell.length_a\n" +
		"  10.0 10.0\n"

	resolved, _ := m.ApplyFieldConflictResolutions(content, map[string]model.Resolution{
		"_cell.length_a": {Field: "_cell.length_a", Value: model.LoopValueSentinel},
	})

	// The first header is renamed in place with indentation kept, the
	// duplicate header dropped, the data row untouched.
	if !strings.Contains(resolved, "  _cell.length_a\n") {
		t.Errorf("renamed header missing or indent lost:\n%s", resolved)
	}
	if got := strings.Count(resolved, "_cell.length_a"); got != 1 {
		t.Errorf("header occurs %d times, want 1:\n%s", got, resolved)
	}
	if !strings.Contains(resolved, "10.0 10.0") {
		t.Errorf("data row modified:\n%s", resolved)
	}
}

func TestConvertFieldFormat_ToModern(t *testing.T) {
	m := newTestManager(t)
	content := "data_test\n" +
		"_cell_length_a 10.0\n" +
		"_symmetry_int_tables_number 14\n" +
		"_exptl_special_details\n" +
		";\n" +
		"See _cell_length_a for the cell edge.\n" +
		";\n"

	converted, changes := m.ConvertFieldFormat(content, model.CIFVersion2)
	if !strings.Contains(converted, "_cell.length_a 10.0") {
		t.Errorf("field line not converted:\n%s", converted)
	}
	if !strings.Contains(converted, "_space_group.IT_number 14") {
		t.Errorf("symmetry field not converted:\n%s", converted)
	}
	if !strings.Contains(converted, "See _cell.length_a for") {
		t.Errorf("text block reference not converted:\n%s", converted)
	}
	if len(changes) < 3 {
		t.Errorf("changes = %v", changes)
	}
}

func TestConvertFieldFormat_ToLegacy(t *testing.T) {
	m := newTestManager(t)
	content := "data_test\n_cell.length_a 10.0\n_cell.volume 500.0\n"

	converted, _ := m.ConvertFieldFormat(content, model.CIFVersion1)
	if !strings.Contains(converted, "_cell_length_a 10.0") ||
		!strings.Contains(converted, "_cell_volume 500.0") {
		t.Errorf("not converted to legacy:\n%s", converted)
	}
}

func TestConvertFieldFormat_UnknownFieldsUntouched(t *testing.T) {
	m := newTestManager(t)
	content := "data_test\n_local_custom_field 1\n_cell_length_a 10.0\n"

	converted, _ := m.ConvertFieldFormat(content, model.CIFVersion2)
	if !strings.Contains(converted, "_local_custom_field 1") {
		t.Errorf("unknown field modified:\n%s", converted)
	}
}

func TestGetDeprecatedFields(t *testing.T) {
	m := newTestManager(t)
	content := "data_test\n_cell_volume_old 499.0\n_cell_length_a 10.0\n"

	want := map[string]string{"_cell_volume_old": "_cell.volume"}
	if diff := cmp.Diff(want, m.GetDeprecatedFields(content)); diff != "" {
		t.Errorf("GetDeprecatedFields mismatch (-want +got):\n%s", diff)
	}
}
