package document

import (
	"fmt"
	"strings"

	"github.com/cifworks/go-cifmodel/internal/model"
	"github.com/cifworks/go-cifmodel/pkg/manager"
)

// Dictionary is the mapping surface the compatibility pass needs.
// *manager.Manager satisfies it.
type Dictionary interface {
	ModernEquivalent(name string, prefer model.CIFVersion) string
}

var _ Dictionary = (*manager.Manager)(nil)

// criticalDeprecatedFields are deprecated names that validation tools such
// as checkCIF/PLAT still require even though the dictionaries replaced them.
var criticalDeprecatedFields = []string{
	"_cell_measurement_temperature",
	"_cell_measurement_reflns_used",
	"_cell_measurement_pressure",
	"_cell_measurement_radiation",
	"_cell_measurement_wavelength",
	"_diffrn_source",
	"_diffrn_radiation_type",
	"_diffrn_radiation_wavelength",
}

// AddLegacyCompatibilityFields mirrors modern field values into their
// deprecated spellings, inside a marked section at the end of the document,
// so files keep validating against tools that predate the modern names. The
// returned report says what was added.
func (d *Document) AddLegacyCompatibilityFields(dict Dictionary) string {
	if dict == nil {
		return "No dictionary manager provided"
	}

	var added []string
	var addedFields []*Field

	for _, deprecated := range criticalDeprecatedFields {
		if d.HasField(deprecated) {
			continue
		}

		modern := d.pickModernSource(dict, deprecated)
		if modern == "" {
			continue
		}
		value, ok := d.FieldValue(modern)
		if !ok || value == "" {
			continue
		}

		field := &Field{
			Name:      deprecated,
			Value:     value,
			HasValue:  true,
			Multiline: isMultilineValue(value),
		}
		d.fields[strings.ToLower(deprecated)] = field
		addedFields = append(addedFields, field)
		added = append(added, fmt.Sprintf("%s = %s (from %s)", deprecated, value, modern))
	}

	if len(addedFields) > 0 {
		d.appendDeprecatedSection(addedFields, dict)
	}

	if len(added) == 0 {
		return "No compatibility fields needed - either modern equivalents not found or deprecated fields already exist."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Added %d compatibility field(s) for legacy validation tools:\n", len(added))
	for _, line := range added {
		fmt.Fprintf(&b, "  - %s\n", line)
	}
	b.WriteString("\nThese deprecated fields are placed in a marked section at the end of the file.")
	return b.String()
}

// pickModernSource chooses the modern spelling to copy the value from,
// preferring whichever notation the document actually contains.
func (d *Document) pickModernSource(dict Dictionary, deprecated string) string {
	modern2 := dict.ModernEquivalent(deprecated, model.CIFVersion2)
	modern1 := dict.ModernEquivalent(deprecated, model.CIFVersion1)

	switch {
	case modern2 != "" && d.HasField(modern2):
		return modern2
	case modern1 != "" && d.HasField(modern1):
		return modern1
	case modern2 != "":
		return modern2
	default:
		return modern1
	}
}

// appendDeprecatedSection places the fields in the trailing marked section,
// creating it when absent and extending it before the closing border when
// present. The field lines are stored as deprecated blocks so later
// reformatting never touches them.
func (d *Document) appendDeprecatedSection(fields []*Field, dict Dictionary) {
	var entries []block
	for _, field := range fields {
		replacement := dict.ModernEquivalent(field.Name, model.CIFVersion2)
		if replacement == "" {
			replacement = dict.ModernEquivalent(field.Name, model.CIFVersion1)
		}
		comment := "# -> Deprecated (no direct replacement)"
		if replacement != "" {
			comment = "# -> Use " + replacement + " instead"
		}
		entries = append(entries,
			block{kind: blockComment, text: comment},
			block{kind: blockDeprecated, text: field.Name + alignSpacing(field.Name) + field.Value},
		)
	}

	if start, end := d.findDeprecatedSection(); start >= 0 && end >= 0 {
		// Insert the new entries just before the closing border.
		d.blocks = append(d.blocks[:end], append(entries, d.blocks[end:]...)...)
		return
	}

	d.blocks = append(d.blocks,
		block{kind: blockEmpty},
		block{kind: blockComment, text: deprecatedBorder},
		block{kind: blockComment, text: deprecatedTitle},
		block{kind: blockComment, text: "# These fields have modern replacements and should not be used in new files"},
		block{kind: blockComment, text: deprecatedBorder},
	)
	d.blocks = append(d.blocks, entries...)
	d.blocks = append(d.blocks, block{kind: blockComment, text: deprecatedBorder})
}

// findDeprecatedSection locates an existing section: the title comment and
// the closing border after it. Both indexes are -1 when absent.
func (d *Document) findDeprecatedSection() (int, int) {
	for i, b := range d.blocks {
		if b.kind == blockComment && b.text == deprecatedTitle {
			for j := i + 1; j < len(d.blocks); j++ {
				if d.blocks[j].kind == blockComment && d.blocks[j].text == deprecatedBorder {
					// Skip the border directly under the title block.
					if j == i+2 || j == i+1 {
						continue
					}
					return i, j
				}
			}
			return i, -1
		}
	}
	return -1, -1
}
