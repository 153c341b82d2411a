package dict

import (
	"context"

	"github.com/cifworks/go-cifmodel/internal/model"
)

// Parser is the read surface of one loaded dictionary. Implementations are
// lazy: construction only captures the source, Parse builds the indexes, and
// every query method triggers Parse on first use. All name lookups are
// case-insensitive; results preserve the dictionary's own casing.
type Parser interface {
	// Parse loads and indexes the dictionary. Calling it again is a no-op
	// once a parse has succeeded.
	Parse(ctx context.Context) error

	// Format reports the DDL dialect this parser understands.
	Format() model.DictionaryFormat
	// Path is the file path or synthetic name the dictionary came from.
	Path() string
	// Title returns the dictionary's declared title, when present.
	Title() string
	// Version returns the dictionary's declared version, when present.
	Version() string

	// FieldCount is the number of distinct data names the dictionary knows,
	// canonical spellings and aliases combined.
	FieldCount() int
	// IsKnownField reports whether name is defined, under any spelling.
	IsKnownField(name string) bool
	// IsFieldDeprecated reports whether name is a retired spelling: an alias
	// with a deprecation date, or any spelling of a replaced definition.
	IsFieldDeprecated(name string) bool

	// DefinitionID resolves an alias to its canonical definition spelling.
	DefinitionID(alias string) (string, bool)
	// Metadata returns the full definition record for name, looked up by
	// canonical spelling or alias.
	Metadata(name string) (model.FieldMetadata, bool)
	// AllAliases lists every spelling of name's definition with the
	// canonical spelling first.
	AllAliases(name string) []string
	// AliasInfo returns the alias records (with deprecation dates) for
	// name's definition.
	AliasInfo(name string) []model.FieldAlias

	// CIF2Field resolves any spelling to the canonical (CIF2) spelling.
	CIF2Field(name string) (string, bool)
	// CIF1Field resolves any spelling to the preferred legacy alias: the
	// first non-deprecated alias without a dot, else the first
	// non-deprecated alias.
	CIF1Field(name string) (string, bool)
	// ReplacementField returns the successor of a replaced definition.
	ReplacementField(name string) (string, bool)

	// Mappings returns the directional alias maps with lowercased keys.
	// cif1ToCIF2 includes deprecated aliases; deprecation is tracked
	// separately and never removes a mapping.
	Mappings() (cif1ToCIF2 map[string]string, cif2ToCIF1 map[string][]string)
}
