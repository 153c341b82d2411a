package manager

import "strings"

// cif2OnlyExtensions maps modern data names that exist in the official DDLm
// dictionaries without any legacy alias to a reasonable legacy spelling.
// Without these, converting such a field to legacy format would drop it.
// Extension entries never override dictionary-derived mappings.
var cif2OnlyExtensions = map[string]string{
	// Refinement
	"_refine.diffraction_theory":           "_refine_diffraction_theory",
	"_refine.diffraction_theory_details":   "_refine_diffraction_theory_details",
	"_refine_diff.potential_max":           "_refine_diff_potential_max",
	"_refine_diff.potential_min":           "_refine_diff_potential_min",
	"_refine_diff.potential_RMS":           "_refine_diff_potential_RMS",
	"_refine_ls.abs_structure_z-score":     "_refine_ls_abs_structure_z-score",
	"_refine_ls.sample_thickness":          "_refine_ls_sample_thickness",
	"_refine_ls.sample_shape_expression":   "_refine_ls_sample_shape_expression",
	"_refine_ls.sample_shape_details":      "_refine_ls_sample_shape_details",

	// Measurement
	"_diffrn_measurement.method_precession":      "_diffrn_measurement_method_precession",
	"_diffrn_measurement.rotation_mode":          "_diffrn_measurement_rotation_mode",
	"_diffrn_measurement.sample_tracking":        "_diffrn_measurement_sample_tracking",
	"_diffrn_measurement.sample_tracking_method": "_diffrn_measurement_sample_tracking_method",

	// Source (electron diffraction)
	"_diffrn_source.convergence_angle":              "_diffrn_source_convergence_angle",
	"_diffrn_source.device":                         "_diffrn_source",
	"_diffrn_source.ed_diffracting_area_selection":  "_diffrn_source_ed_diffracting_area_selection",

	// Radiation and illumination
	"_diffrn_radiation.illumination_mode": "_diffrn_radiation_illumination_mode",

	// Precession
	"_diffrn.precession_semi_angle": "_diffrn_precession_semi_angle",

	// Computing
	"_computing.sample_tracking": "_computing_sample_tracking",

	// Experimental
	"_exptl_crystal.mosaicity":         "_exptl_crystal_mosaicity",
	"_exptl_crystal.mosaic_method":     "_exptl_crystal_mosaic_method",
	"_exptl_crystal.mosaic_block_size": "_exptl_crystal_mosaic_block_size",

	// Flux and dose
	"_diffrn.flux_density":        "_diffrn_flux_density",
	"_diffrn.total_dose":          "_diffrn_total_dose",
	"_diffrn.total_exposure_time": "_diffrn_total_exposure_time",
}

// deprecationWhitelist names fields that must never be reported deprecated
// despite how the dictionaries classify them. _diffrn_source has a valid
// modern equivalent and is still in wide legitimate use.
var deprecationWhitelist = map[string]struct{}{
	"_diffrn_source": {},
}

// IsCIF2OnlyExtension reports whether name belongs to the curated extension
// table rather than a loaded dictionary, under either spelling.
func IsCIF2OnlyExtension(name string) bool {
	lower := strings.ToLower(name)
	for cif2, cif1 := range cif2OnlyExtensions {
		if strings.ToLower(cif2) == lower || strings.ToLower(cif1) == lower {
			return true
		}
	}
	return false
}

// CIF2OnlyExtensions returns a copy of the extension table (modern -> legacy).
func CIF2OnlyExtensions() map[string]string {
	out := make(map[string]string, len(cif2OnlyExtensions))
	for k, v := range cif2OnlyExtensions {
		out[k] = v
	}
	return out
}

// applyManualMappingsLocked patches the merged maps with the fixes the
// dictionaries themselves lack: the wavelength special case, the CIF2-only
// extension table, and any caller-supplied manual mappings. Existing keys
// always win.
func (m *Manager) applyManualMappingsLocked() {
	// _diffrn_radiation.wavelength is the legacy loop category head in
	// modern form; its dictionary mapping chain is broken in both
	// directions.
	if _, ok := m.cif2to1["_diffrn_radiation.wavelength"]; !ok {
		m.cif2to1["_diffrn_radiation.wavelength"] = []string{"_diffrn_radiation_wavelength"}
	}
	if _, ok := m.cif1to2["_diffrn_radiation_wavelength"]; !ok {
		m.cif1to2["_diffrn_radiation_wavelength"] = "_diffrn_radiation_wavelength.value"
	}

	for cif2, cif1 := range cif2OnlyExtensions {
		cif2Lower := strings.ToLower(cif2)
		cif1Lower := strings.ToLower(cif1)
		if _, ok := m.cif1to2[cif1Lower]; !ok {
			m.cif1to2[cif1Lower] = cif2
		}
		if _, ok := m.cif2to1[cif2Lower]; !ok {
			m.cif2to1[cif2Lower] = []string{cif1}
		}
	}

	for cif1, cif2 := range m.manualMappings {
		if _, ok := m.cif1to2[cif1]; !ok {
			m.cif1to2[cif1] = cif2
		}
		cif2Lower := strings.ToLower(cif2)
		if _, ok := m.cif2to1[cif2Lower]; !ok {
			m.cif2to1[cif2Lower] = []string{cif1}
		}
	}
}
