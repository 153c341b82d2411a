package convert

import (
	"fmt"
	"strings"

	"github.com/cifworks/go-cifmodel/internal/cif"
	"github.com/cifworks/go-cifmodel/internal/model"
)

// previewSafeThreshold is the change count above which a conversion is
// flagged for review instead of being marked safe.
const previewSafeThreshold = 50

// ConversionPreview classifies the changes a conversion would make without
// committing them.
type ConversionPreview struct {
	CurrentVersion model.CIFVersion `json:"currentVersion"`
	TargetVersion  model.CIFVersion `json:"targetVersion"`
	TotalChanges   int              `json:"totalChanges"`
	FieldChanges   []string         `json:"fieldChanges"`
	HeaderChanges  []string         `json:"headerChanges"`
	OtherChanges   []string         `json:"otherChanges"`
	Safe           bool             `json:"safe"`
}

// Preview runs the conversion on a throwaway copy and reports the change log
// grouped by kind.
func (c *Converter) Preview(content string, target model.CIFVersion) (ConversionPreview, error) {
	preview := ConversionPreview{
		CurrentVersion: c.dict.DetectCIFVersion(content),
		TargetVersion:  target,
	}

	var changes []string
	switch target {
	case model.CIFVersion2:
		_, changes = c.ToCIF2(content)
	case model.CIFVersion1:
		_, changes = c.ToCIF1(content)
	default:
		return ConversionPreview{}, fmt.Errorf("%w: %s", ErrUnsupportedTarget, target)
	}

	for _, change := range changes {
		switch {
		case strings.Contains(strings.ToLower(change), "header"):
			preview.HeaderChanges = append(preview.HeaderChanges, change)
		case strings.Contains(change, "->"):
			preview.FieldChanges = append(preview.FieldChanges, change)
		default:
			preview.OtherChanges = append(preview.OtherChanges, change)
		}
	}
	preview.TotalChanges = len(changes)
	preview.Safe = preview.TotalChanges < previewSafeThreshold
	return preview, nil
}

// SafetyReport is the outcome of a pre-conversion data-loss analysis.
// Warnings flag constructs that survive conversion degraded; errors would
// block it.
type SafetyReport struct {
	Safe           bool             `json:"safe"`
	Warnings       []string         `json:"warnings"`
	Errors         []string         `json:"errors"`
	CurrentVersion model.CIFVersion `json:"currentVersion"`
	TargetVersion  model.CIFVersion `json:"targetVersion"`
}

// ValidateSafety checks whether converting content to target risks losing
// information: CIF2-only syntax when downgrading, and fields with no mapping
// in the target notation.
func (c *Converter) ValidateSafety(content string, target model.CIFVersion) SafetyReport {
	report := SafetyReport{
		CurrentVersion: c.dict.DetectCIFVersion(content),
		TargetVersion:  target,
	}

	if target == model.CIFVersion1 && report.CurrentVersion == model.CIFVersion2 {
		if strings.Contains(content, "[") || strings.Contains(content, "{") {
			report.Warnings = append(report.Warnings,
				"CIF2 list/table constructs detected - may not be compatible with CIF1")
		}
		if strings.Contains(content, `"""`) || strings.Contains(content, "'''") {
			report.Warnings = append(report.Warnings,
				"CIF2 triple-quoted strings detected - will be converted to text fields")
		}
	}

	var unmapped []string
	for _, name := range cif.FieldNames(content) {
		switch target {
		case model.CIFVersion2:
			if !strings.Contains(name, ".") && c.dict.CIF2Equivalent(name) == "" {
				unmapped = append(unmapped, name)
			}
		case model.CIFVersion1:
			if strings.Contains(name, ".") && c.dict.CIF1Equivalent(name) == "" {
				unmapped = append(unmapped, name)
			}
		}
	}
	if len(unmapped) > 0 {
		shown := unmapped
		if len(shown) > 5 {
			shown = shown[:5]
		}
		report.Warnings = append(report.Warnings,
			"Fields without known mappings: "+strings.Join(shown, ", "))
		if len(unmapped) > 5 {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("... and %d more", len(unmapped)-5))
		}
	}

	report.Safe = len(report.Errors) == 0
	return report
}
