// Package suggest inspects CIF content for data names that indicate a
// specialised structure type and recommends the matching COMCIFS dictionary.
// A file carrying _twin.individual_id is twinned; one with
// _pd_meas_2theta_range_min is powder data. Suggestions carry a confidence
// score so callers can rank or threshold them.
package suggest

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cifworks/go-cifmodel/internal/cif"
)

// Suggestion recommends one dictionary together with the fields that
// triggered it. Confidence is in (0, 1]; LocalFile points at a bundled copy
// when one ships with the application.
type Suggestion struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	URL           string   `json:"url"`
	LocalFile     string   `json:"localFile,omitempty"`
	TriggerFields []string `json:"triggerFields"`
	Confidence    float64  `json:"confidence"`
}

// Analyzer matches CIF content against a catalog of trigger fields. The
// zero value is not usable; construct with NewAnalyzer.
type Analyzer struct {
	suggestions map[string]Suggestion
	order       []string
}

// NewAnalyzer builds an Analyzer with the built-in catalog: modulated
// structures, powder diffraction, magnetic structures, and twinning. Trigger
// fields are listed in both the legacy and dotted notations so either format
// matches.
func NewAnalyzer() *Analyzer {
	a := &Analyzer{suggestions: make(map[string]Suggestion)}

	a.Add("modulated", Suggestion{
		Name:        "Modulated Structures Dictionary",
		Description: "Dictionary for modulated and superspace group structures",
		URL:         "https://raw.githubusercontent.com/COMCIFS/Modulated_Structures/refs/heads/main/cif_ms.dic",
		TriggerFields: []string{
			"_cell_modulation_dimension",
			"_cell.modulation_dimension",
			"_cell_wave_vector_seq_id",
			"_cell.wave_vector_seq_id",
			"_space_group_ssg_name",
			"_space_group.ssg_name",
		},
	})
	a.Add("powder", Suggestion{
		Name:        "Powder Diffraction Dictionary",
		Description: "Dictionary for powder diffraction data and refinement",
		URL:         "https://raw.githubusercontent.com/COMCIFS/Powder_Dictionary/refs/heads/master/cif_pow.dic",
		TriggerFields: []string{
			"_pd_meas_2theta_range_min",
			"_pd_meas.2theta_range_min",
			"_pd_proc_2theta_range_min",
			"_pd_proc.2theta_range_min",
			"_pd_phase_name",
			"_pd_phase.name",
		},
	})
	a.Add("magnetic", Suggestion{
		Name:        "Magnetic Structure Dictionary",
		Description: "Dictionary for magnetic structures and properties",
		URL:         "https://raw.githubusercontent.com/COMCIFS/magnetic_dic/refs/heads/main/cif_mag.dic",
		TriggerFields: []string{
			"_atom_site_moment_label",
			"_atom_site.moment_label",
			"_space_group_magn_name_BNS",
			"_space_group.magn_name_BNS",
			"_cell_magnetic_transform_Pp",
			"_cell.magnetic_transform_Pp",
		},
	})
	a.Add("twinning", Suggestion{
		Name:        "Twinning Dictionary",
		Description: "Dictionary for twinned crystal structures",
		URL:         "https://raw.githubusercontent.com/COMCIFS/Twinning_Dictionary/refs/heads/main/cif_twin.dic",
		LocalFile:   "dictionaries/cif_twin.dic",
		TriggerFields: []string{
			"_twin_individual_id",
			"_twin.individual_id",
			"_twin_individual_mass_fraction_refined",
			"_twin.individual_mass_fraction_refined",
		},
	})

	return a
}

// Add registers a suggestion under key, replacing any existing entry.
func (a *Analyzer) Add(key string, s Suggestion) {
	if _, exists := a.suggestions[key]; !exists {
		a.order = append(a.order, key)
	}
	a.suggestions[key] = s
}

// Analyze returns the suggestions whose trigger fields appear in content,
// highest confidence first. Confidence grows with the number of matched
// triggers and saturates at 1 when half or more of them are present.
func (a *Analyzer) Analyze(content string) []Suggestion {
	present := cif.FieldSet(content)

	var out []Suggestion
	for _, key := range a.order {
		s := a.suggestions[key]
		var matched []string
		for _, trigger := range s.TriggerFields {
			if _, ok := present[strings.ToLower(trigger)]; ok {
				matched = append(matched, trigger)
			}
		}
		if len(matched) == 0 {
			continue
		}
		confidence := float64(len(matched)) / float64(len(s.TriggerFields)) * 2
		if confidence > 1 {
			confidence = 1
		}
		out = append(out, Suggestion{
			Name:          s.Name,
			Description:   s.Description,
			URL:           s.URL,
			LocalFile:     s.LocalFile,
			TriggerFields: matched,
			Confidence:    confidence,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// DetectFormat classifies content as "legacy" or "modern" from the share of
// dotted data names. Files with at least 0.3 dotted names per legacy name
// count as modern.
func (a *Analyzer) DetectFormat(content string) string {
	names := cif.FieldNames(content)
	modern := 0
	for _, n := range names {
		if strings.Contains(n, ".") {
			modern++
		}
	}
	legacy := len(names) - modern
	if modern > 0 && float64(modern) >= float64(legacy)*0.3 {
		return "modern"
	}
	return "legacy"
}

// FormatTriggers returns the trigger fields appropriate for the given format
// ("legacy" keeps underscore-only names, anything else keeps dotted names),
// keyed by suggestion.
func (a *Analyzer) FormatTriggers(format string) map[string][]string {
	out := make(map[string][]string)
	for _, key := range a.order {
		var triggers []string
		for _, t := range a.suggestions[key].TriggerFields {
			dotted := strings.Contains(t, ".")
			if (format == "legacy") != dotted {
				triggers = append(triggers, t)
			}
		}
		if len(triggers) > 0 {
			out[key] = triggers
		}
	}
	return out
}

// Summary renders suggestions as a human-readable block for CLI output.
func Summary(suggestions []Suggestion) string {
	if len(suggestions) == 0 {
		return "No specialized dictionaries suggested for this CIF file."
	}

	var b strings.Builder
	b.WriteString("Suggested dictionaries based on CIF content:\n\n")
	for i, s := range suggestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Name)
		fmt.Fprintf(&b, "   %s\n", s.Description)
		fmt.Fprintf(&b, "   Confidence: %.0f%%\n", s.Confidence*100)
		shown := s.TriggerFields
		if len(shown) > 3 {
			shown = shown[:3]
		}
		fmt.Fprintf(&b, "   Triggered by fields: %s\n", strings.Join(shown, ", "))
		if extra := len(s.TriggerFields) - 3; extra > 0 {
			fmt.Fprintf(&b, "   (and %d more)\n", extra)
		}
		b.WriteString("\n")
	}
	return b.String()
}
