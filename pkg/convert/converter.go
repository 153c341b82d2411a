// Package convert rewrites CIF documents between the 1.1 and 2.0 formats:
// version header management, dictionary-driven field renaming, deprecated
// field relocation into a trailing compatibility section, duplicate-alias
// removal, and legacy re-insertion for fields checkCIF only accepts in
// underscore notation. Semicolon text blocks and an existing deprecated
// section pass through byte-for-byte.
package convert

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/cifworks/go-cifmodel/internal/cif"
	"github.com/cifworks/go-cifmodel/internal/model"
	"github.com/cifworks/go-cifmodel/pkg/manager"
)

// ErrUnsupportedTarget is returned when a conversion target is neither CIF
// 1.1 nor CIF 2.0.
var ErrUnsupportedTarget = errors.New("convert: unsupported target version")

// Dictionary is the field-model surface the converter needs. *manager.Manager
// satisfies it.
type Dictionary interface {
	IsKnownField(name string) bool
	IsFieldDeprecated(name string) bool
	CIF2Equivalent(name string) string
	CIF1Equivalent(name string) string
	ModernReplacement(name string) string
	DetectCIFVersion(content string) model.CIFVersion
}

var _ Dictionary = (*manager.Manager)(nil)

var (
	// fieldValueLine matches a field with an inline value; used for the
	// deprecated snapshot and the compatibility scan where a value is needed.
	fieldValueLine = regexp.MustCompile(`^(\s*)(_[a-zA-Z][a-zA-Z0-9_.\-\[\]()/]*)\s+(.+)$`)

	// fieldLine also matches bare loop headers.
	fieldLine = regexp.MustCompile(`^(\s*)(_[a-zA-Z][a-zA-Z0-9_.\-\[\]()/]*)\s*(.*)$`)
)

// defaultCompatFields is the built-in checkCIF allow-list: legacy spellings
// that must stay present because checkCIF does not resolve their modern
// equivalents.
var defaultCompatFields = []string{
	"_diffrn_measurement_device_type",
	"_atom_site_aniso_label",
	"_geom_angle",
	"_cell_measurement_temperature",
}

// Converter performs CIF1/CIF2 document conversion against a dictionary.
type Converter struct {
	dict         Dictionary
	compatFields map[string]struct{}
	dedup        bool
}

// Option configures a Converter during construction.
type Option func(*Converter) error

// WithCompatFields replaces the checkCIF compatibility allow-list.
func WithCompatFields(fields ...string) Option {
	return func(c *Converter) error {
		c.compatFields = make(map[string]struct{}, len(fields))
		for _, f := range fields {
			c.compatFields[strings.ToLower(strings.TrimSpace(f))] = struct{}{}
		}
		return nil
	}
}

// WithCompatRules loads the checkCIF allow-list from a .cif_rules document:
// one field per line, # comments and blank lines ignored.
func WithCompatRules(r io.Reader) Option {
	return func(c *Converter) error {
		fields := make(map[string]struct{})
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			fields[strings.ToLower(line)] = struct{}{}
		}
		if err := scanner.Err(); err != nil {
			return fmt.Errorf("convert: read compatibility rules: %w", err)
		}
		c.compatFields = fields
		return nil
	}
}

// WithoutDeduplication disables the duplicate-alias removal pass after
// conversion.
func WithoutDeduplication() Option {
	return func(c *Converter) error {
		c.dedup = false
		return nil
	}
}

// New builds a Converter over dict. The checkCIF allow-list defaults to the
// built-in four fields.
func New(dict Dictionary, options ...Option) (*Converter, error) {
	if dict == nil {
		return nil, fmt.Errorf("convert: nil dictionary")
	}
	c := &Converter{
		dict:         dict,
		compatFields: make(map[string]struct{}, len(defaultCompatFields)),
		dedup:        true,
	}
	for _, f := range defaultCompatFields {
		c.compatFields[f] = struct{}{}
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ToCIF2 converts content to CIF 2.0. The pipeline: version header insert,
// loop-aware per-line field rewrite (deprecated fields go to their modern
// replacement, everything else to its CIF2 equivalent), duplicate-alias
// removal preferring the modern survivor, deprecated section emission with
// the pre-conversion values, and checkCIF legacy re-insertion. Returns the
// converted document and a change log; unknown fields produce a trailing
// warning entry, never an error.
func (c *Converter) ToCIF2(content string) (string, []string) {
	lines := strings.Split(content, "\n")
	var out []string
	var changes []string
	var unknown []string
	deprecatedFound := make(map[string]string)

	headerOffset := 0
	if !hasCIF2Marker(lines) {
		out = append(out, cif.CIF2Marker, "")
		changes = append(changes, "Added CIF2 version header")
		headerOffset = 2
	}

	inTextBlock := false
	inDeprecated := false
	inLoop := false
	loopFieldCount := 0

	for i, line := range lines {
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, ";") {
			inTextBlock = !inTextBlock
			out = append(out, line)
			continue
		}
		if inTextBlock {
			out = append(out, line)
			continue
		}
		if strings.HasPrefix(stripped, "#") {
			if strings.Contains(stripped, "DEPRECATED FIELDS") {
				inDeprecated = true
			}
			out = append(out, line)
			continue
		}
		if inDeprecated {
			out = append(out, line)
			continue
		}

		// Snapshot deprecated fields with their original values before the
		// rewrite replaces them.
		if m := fieldValueLine.FindStringSubmatch(line); m != nil {
			if c.dict.IsFieldDeprecated(m[2]) {
				deprecatedFound[m[2]] = m[3]
			}
		}

		var converted string
		switch {
		case stripped == "loop_":
			inLoop = true
			loopFieldCount = 0
			converted = line
		case inLoop && strings.HasPrefix(stripped, "_"):
			loopFieldCount++
			converted = c.convertLine(line, model.CIFVersion2, &unknown)
		case inLoop && stripped != "" && !strings.HasPrefix(stripped, "_"):
			if loopFieldCount > 0 {
				// Loop data rows carry values, never field names.
				converted = line
			} else {
				converted = c.convertLine(line, model.CIFVersion2, &unknown)
			}
		case inLoop && (stripped == "" || strings.HasPrefix(stripped, "data_")):
			inLoop = false
			loopFieldCount = 0
			converted = line
		default:
			converted = c.convertLine(line, model.CIFVersion2, &unknown)
		}

		if converted != line {
			changes = append(changes, fmt.Sprintf("Line %d: %s -> %s",
				i+1+headerOffset, strings.TrimSpace(line), strings.TrimSpace(converted)))
		}
		out = append(out, converted)
	}

	result := strings.Join(out, "\n")

	if c.dedup {
		var dupChanges []string
		result, dupChanges = c.removeDuplicateAliases(result)
		changes = append(changes, dupChanges...)
	}

	var depChanges []string
	result, depChanges = c.emitDeprecatedSection(result, deprecatedFound)
	changes = append(changes, depChanges...)

	var compatChanges []string
	result, compatChanges = c.addCheckCIFLegacy(result)
	changes = append(changes, compatChanges...)

	if len(unknown) > 0 {
		changes = append(changes, unknownWarning(unknown))
	}
	return result, changes
}

// ToCIF1 converts content to CIF 1.1: the CIF2 version header is swapped for
// the CIF1 marker and every mapped field rewritten to its legacy alias. No
// deprecated or compatibility passes run; legacy output carries legacy names
// directly.
func (c *Converter) ToCIF1(content string) (string, []string) {
	lines := strings.Split(content, "\n")
	var out []string
	var changes []string
	var unknown []string

	inTextBlock := false
	inDeprecated := false
	inLoop := false
	loopFieldCount := 0
	headerSwapped := false

	for i, line := range lines {
		stripped := strings.TrimSpace(line)

		if strings.HasPrefix(stripped, cif.CIF2Marker) {
			if !headerSwapped {
				out = append(out, cif.CIF1Marker)
				changes = append(changes, fmt.Sprintf("Line %d: Replaced CIF2 version header with %s", i+1, cif.CIF1Marker))
				headerSwapped = true
			} else {
				changes = append(changes, fmt.Sprintf("Line %d: Removed CIF2 version header", i+1))
			}
			continue
		}

		if strings.HasPrefix(stripped, ";") {
			inTextBlock = !inTextBlock
			out = append(out, line)
			continue
		}
		if inTextBlock {
			out = append(out, line)
			continue
		}
		if strings.HasPrefix(stripped, "#") {
			if strings.Contains(stripped, "DEPRECATED FIELDS") {
				inDeprecated = true
			}
			out = append(out, line)
			continue
		}
		if inDeprecated {
			out = append(out, line)
			continue
		}

		var converted string
		switch {
		case stripped == "loop_":
			inLoop = true
			loopFieldCount = 0
			converted = line
		case inLoop && strings.HasPrefix(stripped, "_"):
			loopFieldCount++
			converted = c.convertLine(line, model.CIFVersion1, &unknown)
		case inLoop && stripped != "" && !strings.HasPrefix(stripped, "_"):
			if loopFieldCount > 0 {
				converted = line
			} else {
				converted = c.convertLine(line, model.CIFVersion1, &unknown)
			}
		case inLoop && (stripped == "" || strings.HasPrefix(stripped, "data_")):
			inLoop = false
			loopFieldCount = 0
			converted = line
		default:
			converted = c.convertLine(line, model.CIFVersion1, &unknown)
		}

		if converted != line {
			changes = append(changes, fmt.Sprintf("Line %d: %s -> %s",
				i+1, strings.TrimSpace(line), strings.TrimSpace(converted)))
		}
		out = append(out, converted)
	}

	if len(unknown) > 0 {
		changes = append(changes, unknownWarning(unknown))
	}
	return strings.Join(out, "\n"), changes
}

// FixMixedFormat converts a mixed-notation document to a pure target format.
func (c *Converter) FixMixedFormat(content string, target model.CIFVersion) (string, []string, error) {
	switch target {
	case model.CIFVersion2:
		converted, changes := c.ToCIF2(content)
		return converted, changes, nil
	case model.CIFVersion1:
		converted, changes := c.ToCIF1(content)
		return converted, changes, nil
	default:
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedTarget, target)
	}
}

// convertLine rewrites the field name on one line, preserving indentation and
// the inline value. Comment and non-field lines pass through.
func (c *Converter) convertLine(line string, target model.CIFVersion, unknown *[]string) string {
	stripped := strings.TrimSpace(line)
	if stripped == "" || strings.HasPrefix(stripped, "#") {
		return line
	}
	m := fieldLine.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	indent, name, rest := m[1], m[2], m[3]

	if unknown != nil && !c.dict.IsKnownField(name) {
		*unknown = append(*unknown, name)
	}

	var converted string
	if target == model.CIFVersion1 {
		converted = c.fieldToCIF1(name)
	} else {
		converted = c.fieldToCIF2(name)
	}
	if converted == name {
		return line
	}
	if strings.TrimSpace(rest) != "" {
		return indent + converted + " " + rest
	}
	return indent + converted
}

// fieldToCIF2 prefers the modern replacement for deprecated fields so retired
// names do not survive under a dotted spelling; current fields take their
// CIF2 equivalent. Unknown fields stay as-is.
func (c *Converter) fieldToCIF2(name string) string {
	if c.dict.IsFieldDeprecated(name) {
		if rep := c.dict.ModernReplacement(name); rep != "" && !strings.EqualFold(rep, name) {
			return rep
		}
	}
	if cif2 := c.dict.CIF2Equivalent(name); cif2 != "" {
		return cif2
	}
	return name
}

func (c *Converter) fieldToCIF1(name string) string {
	if cif1 := c.dict.CIF1Equivalent(name); cif1 != "" {
		return cif1
	}
	return name
}

func hasCIF2Marker(lines []string) bool {
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for _, line := range lines[:limit] {
		if strings.HasPrefix(strings.TrimSpace(line), cif.CIF2Marker) {
			return true
		}
	}
	return false
}

func unknownWarning(unknown []string) string {
	seen := make(map[string]struct{}, len(unknown))
	var distinct []string
	for _, f := range unknown {
		key := strings.ToLower(f)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		distinct = append(distinct, f)
	}
	sort.Strings(distinct)
	return fmt.Sprintf("WARNING: %d unknown field(s): %s", len(distinct), strings.Join(distinct, ", "))
}
