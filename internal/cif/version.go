package cif

import (
	"regexp"
	"strings"

	"github.com/cifworks/go-cifmodel/internal/model"
)

// Version markers per the IUCr specifications. The backslash is part of the
// literal marker text, not an escape.
var (
	cif2MarkerPattern = regexp.MustCompile(`^#\\#CIF_2\.0`)
	cif1MarkerPattern = regexp.MustCompile(`^#\\#CIF_1\.1`)
)

// CIF2Marker is the header line that declares a CIF 2.0 document.
const CIF2Marker = `#\#CIF_2.0`

// CIF1Marker is the header line that declares a CIF 1.1 document.
const CIF1Marker = `#\#CIF_1.1`

// DetectVersion classifies a document. An explicit version marker in the
// first five lines is authoritative regardless of the field notation used
// below it; otherwise the dotted/undotted census of data names decides.
func DetectVersion(content string) model.CIFVersion {
	lines := strings.Split(content, "\n")
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for _, line := range lines[:limit] {
		trimmed := strings.TrimSpace(line)
		if cif2MarkerPattern.MatchString(trimmed) {
			return model.CIFVersion2
		}
		if cif1MarkerPattern.MatchString(trimmed) {
			return model.CIFVersion1
		}
	}

	var dotted, undotted int
	for _, occ := range Fields(content) {
		if strings.Contains(occ.Name, ".") {
			dotted++
		} else {
			undotted++
		}
	}

	switch {
	case dotted > 0 && undotted > 0:
		return model.CIFVersionMixed
	case dotted > 0:
		return model.CIFVersion2
	case undotted > 0:
		return model.CIFVersion1
	default:
		return model.CIFVersionUnknown
	}
}

// HasVersionMarker reports whether the first five lines carry any version
// marker.
func HasVersionMarker(content string) bool {
	lines := strings.Split(content, "\n")
	limit := len(lines)
	if limit > 5 {
		limit = 5
	}
	for _, line := range lines[:limit] {
		trimmed := strings.TrimSpace(line)
		if cif2MarkerPattern.MatchString(trimmed) || cif1MarkerPattern.MatchString(trimmed) {
			return true
		}
	}
	return false
}
