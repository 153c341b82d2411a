// Package ddl1 parses DDL1 dictionaries: flat data_ blocks carrying _name,
// _category, and _type, one definition per block. Blocks that loop several
// _name values define one item under multiple spellings; the first spelling
// is treated as canonical. Lookups are case-insensitive and results keep the
// dictionary's own casing.
package ddl1

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/cifworks/go-cifmodel/internal/cif"
	"github.com/cifworks/go-cifmodel/internal/model"
)

var (
	nameInline      = regexp.MustCompile(`(?m)^\s*_name\s+'([^']+)'`)
	categoryPattern = regexp.MustCompile(`(?m)^\s*_category\s+(\S+)`)
	typePattern     = regexp.MustCompile(`(?m)^\s*_type\s+(char|numb|null)\s*$`)
	relatedItem     = regexp.MustCompile(`(?m)^\s*_related_item\s+'?(_[^'\s]+)'?`)
	relatedFunction = regexp.MustCompile(`(?m)^\s*_related_function\s+(\S+)`)
	definitionText  = regexp.MustCompile(`(?s)_definition\s*\n;[ \t]*(.*?)\n;`)
	enumLoopHeader  = regexp.MustCompile(`(?m)^\s*_enumeration\s*$`)

	dictName    = regexp.MustCompile(`_dictionary_name\s+['"]?([^'"\n]+)['"]?`)
	dictVersion = regexp.MustCompile(`_dictionary_version\s+['"]?([^'"\n]+)['"]?`)
)

// Parser loads one DDL1 dictionary. Construction is cheap; Parse (or the
// first query) builds the indexes.
type Parser struct {
	path    string
	content string

	mu     sync.Mutex
	parsed bool

	title   string
	version string

	known      map[string]string              // lower spelling -> as written
	aliasToDef map[string]string              // lower alias -> definition id
	metadata   map[string]model.FieldMetadata // lower definition id
	deprecated map[string]struct{}            // lower spellings
	cif1to2    map[string]string              // lower alias -> canonical or replacement
	cif2to1    map[string][]string            // lower definition id -> aliases
}

// New wraps dictionary content for parsing. name appears in metadata and is
// usually a file path.
func New(name, content string) *Parser {
	return &Parser{path: name, content: content}
}

// Parse splits the content into data blocks and indexes every definition.
// The data_on_this_dictionary header block supplies title and version and is
// not indexed as a field.
func (p *Parser) Parse(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.parsed {
		return nil
	}

	p.known = make(map[string]string)
	p.aliasToDef = make(map[string]string)
	p.metadata = make(map[string]model.FieldMetadata)
	p.deprecated = make(map[string]struct{})
	p.cif1to2 = make(map[string]string)
	p.cif2to1 = make(map[string][]string)

	for _, b := range splitBlocks(p.content) {
		if strings.EqualFold(b.name, "on_this_dictionary") {
			p.title = matchOne(dictName, b.body)
			p.version = matchOne(dictVersion, b.body)
			continue
		}
		meta, ok := parseBlock(b)
		if !ok {
			continue
		}
		p.index(meta)
	}

	p.parsed = true
	return nil
}

func (p *Parser) ensure() {
	_ = p.Parse(context.Background())
}

// Format reports the dialect.
func (p *Parser) Format() model.DictionaryFormat { return model.FormatDDL1 }

// Path reports the source name.
func (p *Parser) Path() string { return p.path }

// Title reports the dictionary name from the header block.
func (p *Parser) Title() string {
	p.ensure()
	return p.title
}

// Version reports the dictionary version from the header block.
func (p *Parser) Version() string {
	p.ensure()
	return p.version
}

// FieldCount reports the number of distinct spellings indexed.
func (p *Parser) FieldCount() int {
	p.ensure()
	return len(p.known)
}

// IsKnownField reports whether name is defined under any spelling.
func (p *Parser) IsKnownField(name string) bool {
	p.ensure()
	_, ok := p.known[strings.ToLower(name)]
	return ok
}

// IsFieldDeprecated reports whether name belongs to a replaced definition.
func (p *Parser) IsFieldDeprecated(name string) bool {
	p.ensure()
	_, ok := p.deprecated[strings.ToLower(name)]
	return ok
}

// DefinitionID resolves any spelling to the block's first _name value.
func (p *Parser) DefinitionID(name string) (string, bool) {
	p.ensure()
	lower := strings.ToLower(name)
	if def, ok := p.aliasToDef[lower]; ok {
		return def, true
	}
	if meta, ok := p.metadata[lower]; ok {
		return meta.DefinitionID, true
	}
	return "", false
}

// Metadata returns the definition record for name under any spelling.
func (p *Parser) Metadata(name string) (model.FieldMetadata, bool) {
	p.ensure()
	lower := strings.ToLower(name)
	if meta, ok := p.metadata[lower]; ok {
		return meta, true
	}
	if def, ok := p.aliasToDef[lower]; ok {
		if meta, ok := p.metadata[strings.ToLower(def)]; ok {
			return meta, true
		}
	}
	return model.FieldMetadata{}, false
}

// AllAliases lists every spelling of name's definition, canonical first.
func (p *Parser) AllAliases(name string) []string {
	p.ensure()
	def, ok := p.DefinitionID(name)
	if !ok {
		return nil
	}
	aliases := p.cif2to1[strings.ToLower(def)]
	out := make([]string, 0, len(aliases)+1)
	out = append(out, def)
	for _, a := range aliases {
		if !strings.EqualFold(a, def) {
			out = append(out, a)
		}
	}
	return out
}

// AliasInfo returns the alias records for name's definition. DDL1 carries no
// deprecation dates, so the dates are always empty.
func (p *Parser) AliasInfo(name string) []model.FieldAlias {
	meta, ok := p.Metadata(name)
	if !ok {
		return nil
	}
	return meta.Aliases
}

// CIF2Field resolves a secondary spelling to the canonical one. DDL1 names
// never carry dots, so "canonical" here means the block's first _name; names
// that are already canonical report ok=false.
func (p *Parser) CIF2Field(name string) (string, bool) {
	p.ensure()
	lower := strings.ToLower(name)
	if def, ok := p.aliasToDef[lower]; ok {
		return def, true
	}
	if target, ok := p.cif1to2[lower]; ok {
		return target, true
	}
	return "", false
}

// CIF1Field resolves any spelling to the preferred legacy alias. Every DDL1
// spelling is legacy, so the canonical spelling wins when no other alias
// exists.
func (p *Parser) CIF1Field(name string) (string, bool) {
	meta, ok := p.Metadata(name)
	if !ok {
		return "", false
	}
	for _, a := range meta.Aliases {
		if a.Deprecated() {
			continue
		}
		if !strings.Contains(a.Name, ".") {
			return a.Name, true
		}
	}
	if meta.DefinitionID != "" {
		return meta.DefinitionID, true
	}
	return "", false
}

// ReplacementField returns the _related_item of a definition whose
// _related_function is replace.
func (p *Parser) ReplacementField(name string) (string, bool) {
	meta, ok := p.Metadata(name)
	if !ok || !meta.IsReplaced || meta.ReplacementBy == "" {
		return "", false
	}
	return meta.ReplacementBy, true
}

// Mappings returns copies of the directional maps. Replaced spellings map to
// their successor; the maps use lowercased keys.
func (p *Parser) Mappings() (map[string]string, map[string][]string) {
	p.ensure()
	fwd := make(map[string]string, len(p.cif1to2))
	for k, v := range p.cif1to2 {
		fwd[k] = v
	}
	rev := make(map[string][]string, len(p.cif2to1))
	for k, v := range p.cif2to1 {
		rev[k] = append([]string(nil), v...)
	}
	return fwd, rev
}

func (p *Parser) index(meta model.FieldMetadata) {
	defLower := strings.ToLower(meta.DefinitionID)
	p.known[defLower] = meta.DefinitionID
	p.metadata[defLower] = meta

	target := meta.DefinitionID
	if meta.IsReplaced {
		p.deprecated[defLower] = struct{}{}
		if meta.ReplacementBy != "" {
			target = meta.ReplacementBy
			p.cif1to2[defLower] = target
		}
	}

	for _, alias := range meta.Aliases {
		aliasLower := strings.ToLower(alias.Name)
		p.known[aliasLower] = alias.Name
		if aliasLower == defLower {
			continue
		}
		p.aliasToDef[aliasLower] = meta.DefinitionID
		if meta.IsReplaced {
			p.deprecated[aliasLower] = struct{}{}
		}
		p.cif1to2[aliasLower] = target
		p.cif2to1[defLower] = append(p.cif2to1[defLower], alias.Name)
	}
}

type block struct {
	name string
	body string
}

// splitBlocks walks the file line by line; data_<name> opens a block that
// runs until the next data_ line. Text blocks are honoured so a data_ token
// inside a semicolon field cannot open a block.
func splitBlocks(content string) []block {
	var blocks []block
	var current *block
	var body []string
	inText := false

	flush := func() {
		if current != nil {
			current.body = strings.Join(body, "\n")
			blocks = append(blocks, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, ";") {
			inText = !inText
		}
		trimmed := strings.TrimSpace(line)
		if !inText && strings.HasPrefix(trimmed, "data_") {
			flush()
			current = &block{name: strings.TrimPrefix(trimmed, "data_")}
			body = body[:0]
			continue
		}
		if current != nil {
			body = append(body, line)
		}
	}
	flush()
	return blocks
}

// parseBlock extracts a definition from one data block. Blocks without any
// _name value (category descriptions and prose blocks) are skipped.
func parseBlock(b block) (model.FieldMetadata, bool) {
	names := blockNames(b.body)
	if len(names) == 0 {
		return model.FieldMetadata{}, false
	}

	meta := model.FieldMetadata{
		DefinitionID: names[0],
		TypeContents: matchOne(typePattern, b.body),
		CategoryID:   strings.Trim(matchOne(categoryPattern, b.body), `'"`),
		Description:  strings.TrimSpace(matchOne(definitionText, b.body)),
	}

	for _, n := range names {
		meta.Aliases = append(meta.Aliases, model.FieldAlias{Name: n})
	}

	if strings.EqualFold(matchOne(relatedFunction, b.body), "replace") {
		if rep := matchOne(relatedItem, b.body); rep != "" {
			meta.IsReplaced = true
			meta.ReplacementBy = rep
		}
	}

	meta.EnumerationValues = parseEnumeration(b.body)

	return meta, true
}

// blockNames collects every _name value: the inline quoted form plus the
// loop form used when one block defines several spellings.
func blockNames(body string) []string {
	var out []string
	seen := make(map[string]struct{})

	add := func(name string) {
		if name == "" || !strings.HasPrefix(name, "_") {
			return
		}
		lower := strings.ToLower(name)
		if _, ok := seen[lower]; ok {
			return
		}
		seen[lower] = struct{}{}
		out = append(out, name)
	}

	for _, m := range nameInline.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	for _, v := range loopValues(body, "_name") {
		add(v)
	}

	return out
}

// parseEnumeration collects the values of an _enumeration loop.
func parseEnumeration(body string) []string {
	if !enumLoopHeader.MatchString(body) && !strings.Contains(body, "_enumeration ") {
		return nil
	}
	return loopValues(body, "_enumeration")
}

// loopValues collects the data values of a loop over tag. DDL1 dictionaries
// habitually put loop_, the tag, and the first value on one line, with bare
// continuation rows underneath; the lone loop_ line form is handled too.
// Rows end at the first blank, comment, tag, or construct line.
func loopValues(body, tag string) []string {
	var out []string
	lines := strings.Split(body, "\n")

	for i := 0; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(trimmed, "loop_") {
			continue
		}

		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, "loop_"))
		j := i + 1
		if rest == "" {
			// Headers on their own lines.
			if j >= len(lines) {
				break
			}
			header := strings.TrimSpace(lines[j])
			if !strings.HasPrefix(header, "_") {
				continue
			}
			fields := strings.Fields(header)
			if !strings.EqualFold(fields[0], tag) {
				continue
			}
			rest = strings.TrimSpace(strings.TrimPrefix(header, fields[0]))
			j++
		} else {
			fields := strings.Fields(rest)
			if !strings.EqualFold(fields[0], tag) {
				continue
			}
			rest = strings.TrimSpace(strings.TrimPrefix(rest, fields[0]))
		}

		for _, token := range cif.SplitRow(rest) {
			out = append(out, unquote(token))
		}
		for ; j < len(lines); j++ {
			row := strings.TrimSpace(lines[j])
			if row == "" || strings.HasPrefix(row, "_") ||
				strings.HasPrefix(row, "#") || cif.IsConstruct(lines[j]) {
				break
			}
			for _, token := range cif.SplitRow(row) {
				out = append(out, unquote(token))
			}
		}
		return out
	}
	return nil
}

func unquote(token string) string {
	if len(token) >= 2 {
		if (token[0] == '\'' && token[len(token)-1] == '\'') ||
			(token[0] == '"' && token[len(token)-1] == '"') {
			return token[1 : len(token)-1]
		}
	}
	return token
}

func matchOne(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
