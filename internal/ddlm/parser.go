// Package ddlm parses DDLm dictionaries: save frames carrying
// _definition.id, alias loops with deprecation dates, and replacement
// records. The parser builds case-insensitive indexes over every spelling a
// dictionary defines while preserving the dictionary's own casing in
// results (IT_number style names survive lookups intact).
package ddlm

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/cifworks/go-cifmodel/internal/cif"
	"github.com/cifworks/go-cifmodel/internal/model"
)

var (
	defIDPattern    = regexp.MustCompile(`_definition\.id\s+'([^']+)'`)
	replacedBy      = regexp.MustCompile(`_definition_replaced\.by\s+'([^']+)'`)
	replacedByLoop  = regexp.MustCompile(`(?s)loop_\s+_definition_replaced\.id\s+_definition_replaced\.by\s+\d+\s+'([^']+)'`)
	aliasInline     = regexp.MustCompile(`_alias\.definition_id\s+'([^']+)'`)
	descriptionText = regexp.MustCompile(`(?s)_description\.text\s*\n;[ \t]*(.*?)\n;`)

	typeContents  = singleValuePattern(`_type\.contents`)
	typePurpose   = singleValuePattern(`_type\.purpose`)
	typeContainer = singleValuePattern(`_type\.container`)
	typeSource    = singleValuePattern(`_type\.source`)
	categoryID    = singleValuePattern(`_name\.category_id`)
	dictTitle     = singleValuePattern(`_dictionary\.title`)
	dictVersion   = singleValuePattern(`_dictionary\.version`)
)

func singleValuePattern(tag string) *regexp.Regexp {
	return regexp.MustCompile(tag + `\s+['"]?([^'"\n]+)['"]?`)
}

// Parser loads one DDLm dictionary. Construction is cheap; Parse (or the
// first query) builds the indexes.
type Parser struct {
	path    string
	content string

	mu     sync.Mutex
	parsed bool

	title   string
	version string

	known      map[string]string                // lower spelling -> as written
	aliasToDef map[string]string                // lower alias -> definition id
	metadata   map[string]model.FieldMetadata   // lower definition id
	deprecated map[string]struct{}              // lower spellings
	cif1to2    map[string]string                // lower alias -> canonical or replacement
	cif2to1    map[string][]string              // lower definition id -> aliases
}

// New wraps dictionary content for parsing. name appears in metadata and is
// usually a file path.
func New(name, content string) *Parser {
	return &Parser{path: name, content: content}
}

// Parse splits the content into save frames and indexes every definition.
// Category frames (all-uppercase names) and frames without _definition.id
// are skipped, matching how DDLm core dictionaries mix category and item
// frames in one file.
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

	header := p.content
	if idx := strings.Index(p.content, "\nsave_"); idx >= 0 {
		header = p.content[:idx]
	}
	p.title = matchOne(dictTitle, header)
	p.version = matchOne(dictVersion, header)

	for _, fr := range splitFrames(p.content) {
		if isCategoryFrame(fr.name) {
			continue
		}
		meta, ok := parseFrame(fr)
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
func (p *Parser) Format() model.DictionaryFormat { return model.FormatDDLm }

// Path reports the source name.
func (p *Parser) Path() string { return p.path }

// Title reports the dictionary title from the file header.
func (p *Parser) Title() string {
	p.ensure()
	return p.title
}

// Version reports the dictionary version from the file header.
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

// IsFieldDeprecated reports whether name is a retired spelling.
func (p *Parser) IsFieldDeprecated(name string) bool {
	p.ensure()
	_, ok := p.deprecated[strings.ToLower(name)]
	return ok
}

// DefinitionID resolves any spelling to the canonical definition id.
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

// AliasInfo returns the alias records for name's definition.
func (p *Parser) AliasInfo(name string) []model.FieldAlias {
	meta, ok := p.Metadata(name)
	if !ok {
		return nil
	}
	return meta.Aliases
}

// CIF2Field resolves an alias to its canonical spelling. Names that are
// already canonical report ok=false; callers treat a miss as "no rewrite
// needed".
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

// CIF1Field resolves any spelling to the preferred legacy alias: the first
// non-deprecated alias without a dot, else the first non-deprecated alias.
func (p *Parser) CIF1Field(name string) (string, bool) {
	meta, ok := p.Metadata(name)
	if !ok {
		return "", false
	}
	var fallback string
	for _, a := range meta.Aliases {
		if a.Deprecated() {
			continue
		}
		if !strings.Contains(a.Name, ".") {
			return a.Name, true
		}
		if fallback == "" {
			fallback = a.Name
		}
	}
	if fallback != "" {
		return fallback, true
	}
	return "", false
}

// ReplacementField returns the declared successor of a replaced definition.
func (p *Parser) ReplacementField(name string) (string, bool) {
	meta, ok := p.Metadata(name)
	if !ok || !meta.IsReplaced || meta.ReplacementBy == "" {
		return "", false
	}
	return meta.ReplacementBy, true
}

// Mappings returns copies of the directional maps. Deprecated aliases are
// included; deprecation never removes a mapping.
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
		}
	}

	for _, alias := range meta.Aliases {
		aliasLower := strings.ToLower(alias.Name)
		p.known[aliasLower] = alias.Name
		p.aliasToDef[aliasLower] = meta.DefinitionID
		if alias.Deprecated() || meta.IsReplaced {
			p.deprecated[aliasLower] = struct{}{}
		}
		if aliasLower != defLower {
			p.cif1to2[aliasLower] = target
			p.cif2to1[defLower] = append(p.cif2to1[defLower], alias.Name)
		}
	}
}

type frame struct {
	name string
	body string
}

// splitFrames walks the file line by line: save_<name> opens a frame, a
// bare save_ closes it. DDLm item frames never nest.
func splitFrames(content string) []frame {
	var frames []frame
	var current *frame
	var body []string

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if current == nil {
			if strings.HasPrefix(trimmed, "save_") && trimmed != "save_" {
				current = &frame{name: strings.TrimPrefix(trimmed, "save_")}
				body = body[:0]
			}
			continue
		}
		if trimmed == "save_" {
			current.body = strings.Join(body, "\n")
			frames = append(frames, *current)
			current = nil
			continue
		}
		body = append(body, line)
	}
	return frames
}

// isCategoryFrame reports whether the save frame name is all uppercase,
// the DDLm convention for category (not item) definitions.
func isCategoryFrame(name string) bool {
	hasLetter := false
	for _, r := range name {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= 'A' && r <= 'Z' {
			hasLetter = true
		}
	}
	return hasLetter
}

func parseFrame(fr frame) (model.FieldMetadata, bool) {
	defID := matchOne(defIDPattern, fr.body)
	if defID == "" {
		return model.FieldMetadata{}, false
	}

	meta := model.FieldMetadata{
		DefinitionID:  defID,
		TypeContents:  matchOne(typeContents, fr.body),
		TypePurpose:   matchOne(typePurpose, fr.body),
		TypeContainer: matchOne(typeContainer, fr.body),
		TypeSource:    matchOne(typeSource, fr.body),
		CategoryID:    matchOne(categoryID, fr.body),
		Description:   strings.TrimSpace(matchOne(descriptionText, fr.body)),
	}

	if rep := matchOne(replacedBy, fr.body); rep != "" {
		meta.IsReplaced = true
		meta.ReplacementBy = rep
	} else if rep := matchOne(replacedByLoop, fr.body); rep != "" {
		meta.IsReplaced = true
		meta.ReplacementBy = rep
	}

	meta.Aliases = parseAliases(fr.body)
	meta.EnumerationValues = parseEnumeration(fr.body)

	return meta, true
}

// parseAliases collects aliases in both DDLm spellings: the inline
// _alias.definition_id 'name' form and the loop form, whose second column
// (when present) carries the deprecation date.
func parseAliases(body string) []model.FieldAlias {
	var out []model.FieldAlias
	seen := make(map[string]struct{})

	add := func(name, date string) {
		if name == "" {
			return
		}
		lower := strings.ToLower(name)
		if _, ok := seen[lower]; ok {
			return
		}
		seen[lower] = struct{}{}
		out = append(out, model.FieldAlias{Name: name, DeprecationDate: date})
	}

	for _, m := range aliasInline.FindAllStringSubmatch(body, -1) {
		add(m[1], "")
	}

	lines := strings.Split(body, "\n")
	for i := 0; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "loop_" {
			continue
		}
		headers, rows := loopAt(lines, i+1)
		if len(headers) == 0 || !strings.EqualFold(headers[0], "_alias.definition_id") {
			continue
		}
		withDates := len(headers) > 1 && strings.EqualFold(headers[1], "_alias.deprecation_date")
		for _, row := range rows {
			tokens := cif.SplitRow(row)
			if len(tokens) == 0 {
				continue
			}
			date := ""
			if withDates && len(tokens) > 1 {
				date = unquote(tokens[1])
			}
			add(unquote(tokens[0]), date)
		}
	}

	return out
}

// parseEnumeration collects the state column of an _enumeration_set loop.
func parseEnumeration(body string) []string {
	lines := strings.Split(body, "\n")
	for i := 0; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) != "loop_" {
			continue
		}
		headers, rows := loopAt(lines, i+1)
		if len(headers) == 0 {
			continue
		}
		first := strings.ToLower(headers[0])
		if first != "_enumeration_set.state" && first != "_enumeration.state" {
			continue
		}
		var states []string
		for _, row := range rows {
			tokens := cif.SplitRow(row)
			if len(tokens) == 0 {
				continue
			}
			states = append(states, unquote(tokens[0]))
		}
		return states
	}
	return nil
}

// loopAt reads loop headers starting at lines[start] and the data rows that
// follow. Rows end at the first blank, comment, tag, or construct line.
func loopAt(lines []string, start int) (headers []string, rows []string) {
	i := start
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if strings.HasPrefix(trimmed, "_") {
			headers = append(headers, strings.Fields(trimmed)[0])
			continue
		}
		break
	}
	for ; i < len(lines); i++ {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" || strings.HasPrefix(trimmed, "_") ||
			strings.HasPrefix(trimmed, "#") || cif.IsConstruct(lines[i]) {
			break
		}
		rows = append(rows, trimmed)
	}
	return headers, rows
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
