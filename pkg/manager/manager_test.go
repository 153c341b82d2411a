package manager

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/cifworks/go-cifmodel/internal/model"
	"github.com/cifworks/go-cifmodel/pkg/dict"
	"github.com/cifworks/go-cifmodel/pkg/fetch"
)

const primaryDict = `#\#CIF_2.0
##############################################################
#  Core dictionary (sample)
##############################################################
data_CORE_DIC

_dictionary.title            CORE_DIC
_dictionary.version          3.1.0
_dictionary.ddl_conformance  4.1.0

save_cell.length_a

_definition.id               '_cell.length_a'
_name.category_id            cell
_type.contents               Real

loop_
  _alias.definition_id
          '_cell_length_a'

save_

save_cell.volume

_definition.id               '_cell.volume'
_name.category_id            cell
_type.contents               Real

loop_
  _alias.definition_id
          '_cell_volume'

save_

save_cell.volume_old

_definition.id               '_cell.volume_old'
_definition_replaced.by      '_cell.volume'
_name.category_id            cell

loop_
  _alias.definition_id
          '_cell_volume_old'

save_

save_space_group.IT_number

_definition.id               '_space_group.IT_number'
_name.category_id            space_group
_type.contents               Integer

loop_
  _alias.definition_id
          '_symmetry_int_tables_number'

save_

save_cell.measurement_temperature

_definition.id               '_cell.measurement_temperature'
_name.category_id            cell
_type.contents               Real

save_

save_exptl.oddity

_type.contents               Text

save_
`

const extraDict = `#\#CIF_2.0
# Powder dictionary (sample)
data_POW_DIC

_dictionary.title            POW_DIC
_dictionary.version          2.0.0

save_pd_phase.name

_definition.id               '_pd_phase.name'
_name.category_id            pd_phase
_type.contents               Text

loop_
  _alias.definition_id
          '_pd_phase_name'

save_

save_cell.length_a_conflicting

_definition.id               '_cell.length_a_conflicting'
_name.category_id            cell

loop_
  _alias.definition_id
          '_cell_length_a'

save_
`

func newTestManager(t *testing.T, options ...Option) *Manager {
	t.Helper()
	p, err := dict.NewParserFromBytes("cif_core.dic", []byte(primaryDict))
	if err != nil {
		t.Fatalf("NewParserFromBytes: %v", err)
	}
	m, err := New(append([]Option{WithPrimary(p)}, options...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestNew_RequiresPrimary(t *testing.T) {
	if _, err := New(); !errors.Is(err, ErrNoPrimary) {
		t.Fatalf("New() error = %v, want ErrNoPrimary", err)
	}
}

func TestLookup_ThroughMergedMaps(t *testing.T) {
	m := newTestManager(t)

	if got := m.CIF2Equivalent("_cell_length_a"); got != "_cell.length_a" {
		t.Errorf("CIF2Equivalent = %q, want _cell.length_a", got)
	}
	if got := m.CIF1Equivalent("_cell.length_a"); got != "_cell_length_a" {
		t.Errorf("CIF1Equivalent = %q, want _cell_length_a", got)
	}
	if !m.IsKnownField("_CELL.LENGTH_A") {
		t.Error("IsKnownField not case-insensitive")
	}
	if m.IsKnownField("_no_such_field") {
		t.Error("unknown field reported known")
	}
}

func TestIsKnownField_DotUnderscoreCounterpart(t *testing.T) {
	m := newTestManager(t)

	// _cell.measurement_temperature has no legacy alias; the underscore
	// spelling resolves only through the dotted-counterpart probe.
	if !m.IsKnownField("_cell_measurement_temperature") {
		t.Error("underscore spelling not resolved to dotted definition")
	}
	// And the other direction: dotted input probed as underscores.
	if !m.IsKnownField("_symmetry.int_tables_number") {
		t.Error("dotted spelling not resolved to underscore alias")
	}
}

func TestIsKnownField_RawPrimaryFallback(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cif_core.dic")
	if err := os.WriteFile(path, []byte(primaryDict), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := New(WithPrimaryPath(path))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	// save_exptl.oddity carries no _definition.id, so the parser never
	// indexes it; only the raw save-frame search can find it.
	if !m.IsKnownField("_exptl_oddity") {
		t.Error("save-frame-only definition not found by raw search")
	}
}

func TestDeprecation_AndReplacement(t *testing.T) {
	m := newTestManager(t)

	if !m.IsFieldDeprecated("_cell_volume_old") {
		t.Error("replaced alias not deprecated")
	}
	if m.IsFieldDeprecated("_cell_volume") {
		t.Error("current alias reported deprecated")
	}
	// Whitelisted despite what any dictionary says.
	if m.IsFieldDeprecated("_diffrn_source") {
		t.Error("whitelisted field reported deprecated")
	}

	if got := m.ModernReplacement("_cell_volume_old"); got != "_cell.volume" {
		t.Errorf("ModernReplacement = %q, want _cell.volume", got)
	}
}

func TestModernEquivalent(t *testing.T) {
	m := newTestManager(t)

	if got := m.ModernEquivalent("_symmetry_int_tables_number", model.CIFVersion2); got != "_space_group.IT_number" {
		t.Errorf("ModernEquivalent(cif2) = %q, want _space_group.IT_number", got)
	}
	// Preferring legacy walks through the modern form back to the alias of
	// a different spelling, never echoing the input.
	if got := m.ModernEquivalent("_space_group.IT_number", model.CIFVersion1); got != "_symmetry_int_tables_number" {
		t.Errorf("ModernEquivalent(cif1) = %q, want _symmetry_int_tables_number", got)
	}
}

func TestManualMappings_NeverOverrideDictionaries(t *testing.T) {
	m := newTestManager(t, WithManualMappings(map[string]string{
		"_cell_length_a": "_cell.hijacked", // conflicts with the dictionary
		"_local_field":   "_local.field",   // new
	}))

	if got := m.CIF2Equivalent("_cell_length_a"); got != "_cell.length_a" {
		t.Errorf("manual mapping overrode dictionary: %q", got)
	}
	if got := m.CIF2Equivalent("_local_field"); got != "_local.field" {
		t.Errorf("manual mapping not applied: %q", got)
	}
}

func TestCIF2OnlyExtensions_Merged(t *testing.T) {
	m := newTestManager(t)

	if got := m.CIF2Equivalent("_refine_diff_potential_max"); got != "_refine_diff.potential_max" {
		t.Errorf("extension mapping = %q, want _refine_diff.potential_max", got)
	}
	// Wavelength special case runs in both directions.
	if got := m.CIF2Equivalent("_diffrn_radiation_wavelength"); got != "_diffrn_radiation_wavelength.value" {
		t.Errorf("wavelength forward mapping = %q", got)
	}
	if got := m.CIF1Equivalent("_diffrn_radiation.wavelength"); got != "_diffrn_radiation_wavelength" {
		t.Errorf("wavelength reverse mapping = %q", got)
	}

	if !IsCIF2OnlyExtension("_diffrn_source.device") {
		t.Error("IsCIF2OnlyExtension(_diffrn_source.device) = false")
	}
	if IsCIF2OnlyExtension("_cell.length_a") {
		t.Error("dictionary field classified as extension")
	}
}

func TestAdditionalDictionary_PrimaryWins(t *testing.T) {
	m := newTestManager(t)

	info, err := m.AddDictionaryFromReader("cif_pow.dic", strings.NewReader(extraDict))
	if err != nil {
		t.Fatalf("AddDictionaryFromReader: %v", err)
	}
	if info.DictType != model.DictTypePowder {
		t.Errorf("DictType = %q, want powder", info.DictType)
	}

	// New coverage merges in.
	if got := m.CIF2Equivalent("_pd_phase_name"); got != "_pd_phase.name" {
		t.Errorf("additional dictionary mapping = %q", got)
	}
	// The conflicting alias keeps the primary's target.
	if got := m.CIF2Equivalent("_cell_length_a"); got != "_cell.length_a" {
		t.Errorf("additional dictionary overrode primary: %q", got)
	}
}

func TestRemoveDictionary(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.AddDictionaryFromReader("cif_pow.dic", strings.NewReader(extraDict)); err != nil {
		t.Fatal(err)
	}

	if err := m.RemoveDictionary("cif_core.dic"); !errors.Is(err, ErrPrimaryProtected) {
		t.Fatalf("removing primary: err = %v, want ErrPrimaryProtected", err)
	}
	if err := m.RemoveDictionary("nonexistent.dic"); !errors.Is(err, ErrDictionaryNotFound) {
		t.Fatalf("removing unknown: err = %v, want ErrDictionaryNotFound", err)
	}
	if err := m.RemoveDictionary("cif_pow.dic"); err != nil {
		t.Fatalf("RemoveDictionary: %v", err)
	}

	if m.IsKnownField("_pd_phase_name") {
		t.Error("removed dictionary still contributes mappings")
	}
	if got := len(m.Dictionaries()); got != 1 {
		t.Errorf("Dictionaries() = %d entries, want 1", got)
	}
}

func TestSetDictionaryActive(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.AddDictionaryFromReader("cif_pow.dic", strings.NewReader(extraDict)); err != nil {
		t.Fatal(err)
	}

	if err := m.SetDictionaryActive("cif_core.dic", false); !errors.Is(err, ErrPrimaryProtected) {
		t.Fatalf("deactivating primary: err = %v, want ErrPrimaryProtected", err)
	}

	if err := m.SetDictionaryActive("cif_pow.dic", false); err != nil {
		t.Fatal(err)
	}
	if m.IsKnownField("_pd_phase_name") {
		t.Error("inactive dictionary still contributes mappings")
	}

	if err := m.SetDictionaryActive("cif_pow.dic", true); err != nil {
		t.Fatal(err)
	}
	if !m.IsKnownField("_pd_phase_name") {
		t.Error("reactivated dictionary contributes nothing")
	}
}

func TestSetDictionaryActive_OnePerCategory(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.AddDictionaryFromReader("cif_pow.dic", strings.NewReader(extraDict)); err != nil {
		t.Fatal(err)
	}
	second := strings.Replace(extraDict, "data_POW_DIC", "data_POW_DIC_2", 1)
	if _, err := m.AddDictionaryFromReader("cif_pd_other.dic", strings.NewReader(second)); err != nil {
		t.Fatal(err)
	}

	if err := m.SetDictionaryActive("cif_pow.dic", true); err != nil {
		t.Fatal(err)
	}

	var active []string
	for _, info := range m.Dictionaries() {
		if info.DictType == model.DictTypePowder && info.Active {
			active = append(active, info.Name)
		}
	}
	if diff := cmp.Diff([]string{"cif_pow.dic"}, active); diff != "" {
		t.Errorf("active powder dictionaries mismatch (-want +got):\n%s", diff)
	}
}

func TestAddDictionary_RejectsEmpty(t *testing.T) {
	m := newTestManager(t)
	empty := "#\\#CIF_2.0\ndata_EMPTY\n_dictionary.title EMPTY\n_definition.id x\n"
	if _, err := m.AddDictionaryFromReader("empty.dic", strings.NewReader(empty)); !errors.Is(err, ErrNoFieldMappings) {
		t.Fatalf("err = %v, want ErrNoFieldMappings", err)
	}
}

func TestAddDictionaryFromURL_RequiresFetcher(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.AddDictionaryFromURL(context.Background(), "http://example.invalid/x.dic"); !errors.Is(err, ErrNoFetcher) {
		t.Fatalf("err = %v, want ErrNoFetcher", err)
	}
}

func TestLoadCOMCIFSDictionaries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "cif_pow") {
			_, _ = w.Write([]byte(extraDict))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	catalog := func() []fetch.CatalogEntry {
		return []fetch.CatalogEntry{
			{Key: "pow", Name: "Powder", URL: srv.URL + "/cif_pow.dic", DictType: model.DictTypePowder},
			{Key: "mag", Name: "Magnetic", URL: srv.URL + "/cif_mag.dic", DictType: model.DictTypeMagnetic},
		}
	}

	m := newTestManager(t, WithFetcher(fetch.NewClient()), WithCatalog(catalog))

	results, err := m.LoadCOMCIFSDictionaries(context.Background())
	if err != nil {
		t.Fatalf("LoadCOMCIFSDictionaries: %v", err)
	}
	if results["pow"] != nil {
		t.Errorf("pow: %v", results["pow"])
	}
	if results["mag"] == nil {
		t.Error("mag: expected a fetch error, got nil")
	}
	if !m.IsKnownField("_pd_phase_name") {
		t.Error("downloaded dictionary not merged")
	}

	// A second load skips the already-present entry without refetching.
	results, err = m.LoadCOMCIFSDictionaries(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if results["pow"] != nil {
		t.Errorf("second load of pow: %v", results["pow"])
	}
}

func TestDeriveDictType(t *testing.T) {
	cases := map[string]model.DictType{
		"cif_core.dic":        model.DictTypeCore,
		"cif_pow.dic":         model.DictTypePowder,
		"cif_mag.dic":         model.DictTypeMagnetic,
		"cif_ms.dic":          model.DictTypeModulated,
		"cif_twin.dic":        model.DictTypeTwinning,
		"cif_ed.dic":          model.DictTypeElectron,
		"bundled.dic":         model.DictTypeGeneral, // "ed" inside a word must not match
		"mycif.dic":           model.DictTypeGeneral,
		"multi_block_core.dic": model.DictTypeMultiBlock,
	}
	for name, want := range cases {
		if got := deriveDictType(name); got != want {
			t.Errorf("deriveDictType(%q) = %q, want %q", name, got, want)
		}
	}
}
