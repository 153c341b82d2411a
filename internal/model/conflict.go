package model

// FieldOccurrence is one sighting of a data name in a document. Value holds
// the raw value text for simple fields; loop columns report LoopValueSentinel
// because their values live in the data rows.
type FieldOccurrence struct {
	Name       string `json:"name"`
	LineNumber int    `json:"lineNumber"`
	InLoop     bool   `json:"inLoop"`
	Value      string `json:"value,omitempty"`
}

// LoopValueSentinel marks occurrences whose value cannot be captured inline
// because the field is a loop column.
const LoopValueSentinel = "(loop data)"

// AliasConflict groups every spelling of one logical field found in a
// document. Canonical is the dictionary's preferred (CIF2) spelling when one
// exists, otherwise the first spelling seen.
type AliasConflict struct {
	Canonical   string            `json:"canonical"`
	Occurrences []FieldOccurrence `json:"occurrences"`
}

// Spellings returns the distinct names in first-seen order.
func (c AliasConflict) Spellings() []string {
	seen := make(map[string]struct{}, len(c.Occurrences))
	var out []string
	for _, occ := range c.Occurrences {
		if _, ok := seen[occ.Name]; ok {
			continue
		}
		seen[occ.Name] = struct{}{}
		out = append(out, occ.Name)
	}
	return out
}

// Resolution is the caller's decision for one conflict group: which spelling
// survives and, for simple fields, which value it keeps.
type Resolution struct {
	Field string `json:"field"`
	Value string `json:"value,omitempty"`
}
