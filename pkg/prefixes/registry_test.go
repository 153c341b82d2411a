package prefixes

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newBundledRegistry(t *testing.T) *Registry {
	t.Helper()
	// Point the user file at a path that never exists so the bundled
	// document is always the source.
	return New(WithUserFile(filepath.Join(t.TempDir(), "registered_prefixes.json")))
}

func TestPrefixOf(t *testing.T) {
	cases := []struct {
		field string
		want  string
	}{
		{"_shelx_res_file", "shelx"},
		{"_ccdc_geom_bond_type", "ccdc"},
		{"_cell_length_a", "cell"},
		{"_diffrn.ambient_temperature", "diffrn"},
		{"_atom_site.label", "atom"},
		{"_formula", ""},
		{"", ""},
		{"___", ""},
	}
	for _, tc := range cases {
		if got := PrefixOf(tc.field); got != tc.want {
			t.Errorf("PrefixOf(%q) = %q, want %q", tc.field, got, tc.want)
		}
	}
}

func TestRegistered(t *testing.T) {
	r := newBundledRegistry(t)

	if !r.Registered("_shelx_res_file") {
		t.Error("_shelx_res_file should use a registered prefix")
	}
	if !r.Registered("_CCDC_geom_bond_type") {
		t.Error("prefix match should be case-insensitive")
	}
	if r.Registered("_cell_length_a") {
		t.Error("cell is not a registered prefix")
	}
	if r.Registered("_formula") {
		t.Error("single-segment name has no prefix")
	}
}

func TestInfo(t *testing.T) {
	r := newBundledRegistry(t)

	info, ok := r.Info("shelx")
	if !ok {
		t.Fatal("shelx missing from bundled registry")
	}
	if info.Description == "" {
		t.Error("shelx has no description")
	}
	if info.SuggestedDictionary != "cif_shelxl.dic" {
		t.Errorf("shelx dictionary = %q", info.SuggestedDictionary)
	}

	if _, ok := r.Info("SHELX"); !ok {
		t.Error("Info should match case-insensitively")
	}
	if _, ok := r.Info("nonexistent"); ok {
		t.Error("unknown prefix reported as registered")
	}
	if _, ok := r.Info(""); ok {
		t.Error("empty prefix reported as registered")
	}
}

func TestSuggestDictionary(t *testing.T) {
	r := newBundledRegistry(t)

	cases := []struct {
		prefix string
		want   string
	}{
		{"shelx", "cif_shelxl.dic"},
		{"pdbx", "mmcif.dic"},
		{"pd_", "cif_pow.dic"},  // exact category pattern
		{"pd", "cif_pow.dic"},   // trailing-underscore pattern match
		{"mag", "cif_mag.dic"},
		{"ccdc", ""},            // registered but no suggestion
		{"unknown", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := r.SuggestDictionary(tc.prefix); got != tc.want {
			t.Errorf("SuggestDictionary(%q) = %q, want %q", tc.prefix, got, tc.want)
		}
	}
}

func TestUserFileOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registered_prefixes.json")
	userDoc := `{
  "prefixes": {"mylab": {"description": "In-house conventions"}},
  "category_dictionary_suggestions": {}
}`
	if err := os.WriteFile(path, []byte(userDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New(WithUserFile(path))
	if !r.Known("mylab") {
		t.Error("user prefix not loaded")
	}
	if r.Known("shelx") {
		t.Error("user file should replace the bundled registry, not merge")
	}
	if r.Source() != path {
		t.Errorf("Source = %q, want user path", r.Source())
	}
}

func TestReloadAfterEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registered_prefixes.json")

	r := New(WithUserFile(path))
	if r.Known("mylab") {
		t.Fatal("mylab known before user file exists")
	}
	if r.Source() != "bundled" {
		t.Fatalf("Source = %q, want bundled", r.Source())
	}

	doc := `{"prefixes": {"mylab": {"description": "x"}}, "category_dictionary_suggestions": {}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	source, err := r.Reload()
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if source != path {
		t.Errorf("source = %q, want user path", source)
	}
	if !r.Known("mylab") {
		t.Error("mylab unknown after reload")
	}
}

func TestMalformedUserFileFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registered_prefixes.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := New(WithUserFile(path))
	if !r.Known("shelx") {
		t.Error("bundled registry not used as fallback")
	}
	if r.Source() != "bundled" {
		t.Errorf("Source = %q, want bundled", r.Source())
	}
	if _, err := r.Reload(); err == nil {
		t.Error("Reload should surface the parse error")
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "registered_prefixes.json")
	r := New(WithUserFile(path))

	if r.Known("mylab") {
		t.Fatal("mylab known before write")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Watch(ctx) }()

	// Give the watcher a moment to register the directory.
	time.Sleep(100 * time.Millisecond)

	doc := `{"prefixes": {"mylab": {"description": "x"}}, "category_dictionary_suggestions": {}}`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !r.Known("mylab") {
		if time.Now().After(deadline) {
			t.Fatal("registry not reloaded after user file write")
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop on context cancellation")
	}
}

func TestNamesAndLowerSet(t *testing.T) {
	r := newBundledRegistry(t)

	names := r.Names()
	if len(names) == 0 {
		t.Fatal("bundled registry is empty")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("Names not sorted: %v", names)
		}
	}

	set := r.LowerSet()
	if _, ok := set["shelx"]; !ok {
		t.Error("shelx missing from lower set")
	}
	if len(set) != len(names) {
		t.Errorf("set size %d != names %d", len(set), len(names))
	}
}
