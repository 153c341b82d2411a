package model

// CIFVersion identifies the file format family a CIF document belongs to.
type CIFVersion string

const (
	CIFVersion1       CIFVersion = "1.1"
	CIFVersion2       CIFVersion = "2.0"
	CIFVersionMixed   CIFVersion = "mixed"
	CIFVersionUnknown CIFVersion = "unknown"
)

// DictionaryFormat identifies the DDL dialect a dictionary file is written in.
type DictionaryFormat string

const (
	FormatDDLm    DictionaryFormat = "DDLm"
	FormatDDL1    DictionaryFormat = "DDL1"
	FormatDDL2    DictionaryFormat = "DDL2"
	FormatUnknown DictionaryFormat = "unknown"
)

// DictionarySource records how a dictionary entered the manager.
type DictionarySource string

const (
	SourceFile    DictionarySource = "file"
	SourceURL     DictionarySource = "url"
	SourceBundled DictionarySource = "bundled"
	SourceUnknown DictionarySource = "unknown"
)

// FieldAlias is one legacy spelling of a dictionary definition together with
// the date the dictionary retired it. A date of "." is the CIF null value and
// means the alias is still current.
type FieldAlias struct {
	Name            string `json:"name"`
	DeprecationDate string `json:"deprecationDate,omitempty"`
}

// Deprecated reports whether the alias carries a real deprecation date.
func (a FieldAlias) Deprecated() bool {
	return a.DeprecationDate != "" && a.DeprecationDate != "."
}

// FieldMetadata captures everything a dictionary definition says about one
// data name. DefinitionID is the canonical (usually dotted) spelling; Aliases
// holds the historical spellings in dictionary order.
type FieldMetadata struct {
	DefinitionID      string       `json:"definitionId"`
	Aliases           []FieldAlias `json:"aliases,omitempty"`
	TypeContents      string       `json:"typeContents,omitempty"`
	TypePurpose       string       `json:"typePurpose,omitempty"`
	TypeContainer     string       `json:"typeContainer,omitempty"`
	TypeSource        string       `json:"typeSource,omitempty"`
	CategoryID        string       `json:"categoryId,omitempty"`
	Description       string       `json:"description,omitempty"`
	EnumerationValues []string     `json:"enumerationValues,omitempty"`
	IsReplaced        bool         `json:"isReplaced,omitempty"`
	ReplacementBy     string       `json:"replacementBy,omitempty"`
}

// AliasNames returns the alias spellings without their dates.
func (m FieldMetadata) AliasNames() []string {
	if len(m.Aliases) == 0 {
		return nil
	}
	out := make([]string, 0, len(m.Aliases))
	for _, a := range m.Aliases {
		out = append(out, a.Name)
	}
	return out
}

// NonDeprecatedAliases filters out aliases with real deprecation dates.
func (m FieldMetadata) NonDeprecatedAliases() []FieldAlias {
	var out []FieldAlias
	for _, a := range m.Aliases {
		if !a.Deprecated() {
			out = append(out, a)
		}
	}
	return out
}

// Deprecated reports whether the whole definition is retired, either because
// the dictionary replaced it or because every alias carries a date.
func (m FieldMetadata) Deprecated() bool {
	if m.IsReplaced {
		return true
	}
	for _, a := range m.Aliases {
		if a.Deprecated() {
			return true
		}
	}
	return false
}
