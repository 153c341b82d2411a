// Package manager merges one or more CIF dictionaries into a single field
// model: alias resolution between legacy and modern spellings, deprecation
// queries, format detection, conflict detection, and document-level rewrites.
// The primary dictionary always wins when dictionaries disagree; additional
// dictionaries only extend coverage.
package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cifworks/go-cifmodel/internal/model"
	"github.com/cifworks/go-cifmodel/pkg/dict"
	"github.com/cifworks/go-cifmodel/pkg/fetch"
	"github.com/cifworks/go-cifmodel/pkg/suggest"
)

var (
	// ErrNoPrimary is returned by New when no primary dictionary is given.
	ErrNoPrimary = errors.New("manager: no primary dictionary configured")

	// ErrNoFieldMappings rejects a dictionary that parsed but defined no
	// data names; merging it would add nothing and usually means the file
	// was not a dictionary at all.
	ErrNoFieldMappings = errors.New("manager: dictionary contains no field definitions")

	// ErrPrimaryProtected guards the primary dictionary against removal and
	// deactivation.
	ErrPrimaryProtected = errors.New("manager: the primary dictionary cannot be removed or deactivated")

	// ErrDictionaryNotFound reports a Remove/SetActive reference that
	// matched no loaded dictionary.
	ErrDictionaryNotFound = errors.New("manager: dictionary not found")

	// ErrNoFetcher is returned by URL and catalog loading when the manager
	// was built without a fetch client.
	ErrNoFetcher = errors.New("manager: no fetch client configured")
)

type entry struct {
	parser dict.Parser
	info   model.DictionaryInfo
}

// Manager is the merged view over every loaded dictionary. Queries never
// return errors: a miss is a zero value. Loading is lazy and re-runs after
// any change to the dictionary list.
type Manager struct {
	mu      sync.RWMutex
	entries []entry // index 0 is the primary
	loaded  bool

	primaryRaw string // primary dictionary text, for the last-resort field search

	cif1to2 map[string]string   // lower legacy spelling -> canonical
	cif2to1 map[string][]string // lower canonical -> legacy spellings

	manualMappings map[string]string // extra cif1 -> cif2 entries from options

	fetcher   *fetch.Client
	suggester *suggest.Analyzer
	catalog   func() []fetch.CatalogEntry
}

// Option configures a Manager during construction.
type Option func(*Manager) error

// WithPrimary sets an already-constructed parser as the primary dictionary.
func WithPrimary(p dict.Parser) Option {
	return func(m *Manager) error {
		if p == nil {
			return fmt.Errorf("manager: WithPrimary: nil parser")
		}
		info := newInfo(p, model.SourceFile, p.Path())
		m.entries = append([]entry{{parser: p, info: info}}, m.entries...)
		return nil
	}
}

// WithPrimaryPath loads the primary dictionary from a file.
func WithPrimaryPath(dicPath string) Option {
	return func(m *Manager) error {
		data, err := os.ReadFile(dicPath)
		if err != nil {
			return fmt.Errorf("manager: read primary dictionary: %w", err)
		}
		p, err := dict.NewParserFromBytes(dicPath, data)
		if err != nil {
			return err
		}
		info := newInfo(p, model.SourceFile, dicPath)
		info.SizeBytes = int64(len(data))
		info.Description = extractDescription(dicPath, string(data))
		m.primaryRaw = string(data)
		m.entries = append([]entry{{parser: p, info: info}}, m.entries...)
		return nil
	}
}

// WithAdditional appends extra dictionaries behind the primary.
func WithAdditional(parsers ...dict.Parser) Option {
	return func(m *Manager) error {
		for _, p := range parsers {
			if p == nil {
				continue
			}
			m.entries = append(m.entries, entry{
				parser: p,
				info:   newInfo(p, model.SourceFile, p.Path()),
			})
		}
		return nil
	}
}

// WithBundled loads every .dic file from fsys as an additional dictionary.
// Used for dictionaries embedded in the binary.
func WithBundled(fsys fs.FS) Option {
	return func(m *Manager) error {
		matches, err := fs.Glob(fsys, "*.dic")
		if err != nil {
			return fmt.Errorf("manager: scan bundled dictionaries: %w", err)
		}
		nested, err := fs.Glob(fsys, "*/*.dic")
		if err != nil {
			return fmt.Errorf("manager: scan bundled dictionaries: %w", err)
		}
		for _, name := range append(matches, nested...) {
			data, err := fs.ReadFile(fsys, name)
			if err != nil {
				return fmt.Errorf("manager: read bundled %s: %w", name, err)
			}
			p, err := dict.NewParserFromBytes(name, data)
			if err != nil {
				return err
			}
			info := newInfo(p, model.SourceBundled, name)
			info.SizeBytes = int64(len(data))
			info.Description = extractDescription(name, string(data))
			m.entries = append(m.entries, entry{parser: p, info: info})
		}
		return nil
	}
}

// WithFetcher supplies the HTTP client used for URL and COMCIFS loading.
func WithFetcher(c *fetch.Client) Option {
	return func(m *Manager) error {
		m.fetcher = c
		return nil
	}
}

// WithSuggester replaces the default dictionary suggestion analyzer.
func WithSuggester(a *suggest.Analyzer) Option {
	return func(m *Manager) error {
		m.suggester = a
		return nil
	}
}

// WithCatalog replaces the COMCIFS catalog source, e.g. with an internal
// mirror.
func WithCatalog(catalog func() []fetch.CatalogEntry) Option {
	return func(m *Manager) error {
		m.catalog = catalog
		return nil
	}
}

// WithManualMappings adds extra legacy-to-modern entries applied after the
// dictionaries merge. Manual entries never override dictionary-derived keys.
func WithManualMappings(mappings map[string]string) Option {
	return func(m *Manager) error {
		for k, v := range mappings {
			m.manualMappings[strings.ToLower(k)] = v
		}
		return nil
	}
}

// New builds a Manager. Exactly one primary option is required; everything
// else is optional. Dictionaries are not parsed until the first query.
func New(options ...Option) (*Manager, error) {
	m := &Manager{
		manualMappings: make(map[string]string),
		suggester:      suggest.NewAnalyzer(),
		catalog:        fetch.Catalog,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	if len(m.entries) == 0 {
		return nil, ErrNoPrimary
	}
	return m, nil
}

func newInfo(p dict.Parser, source model.DictionarySource, dicPath string) model.DictionaryInfo {
	name := filepath.Base(dicPath)
	if source == model.SourceURL {
		name = path.Base(dicPath)
	}
	if name == "" || name == "." || name == "/" {
		name = "dictionary.dic"
	}
	return model.DictionaryInfo{
		ID:       uuid.New(),
		Name:     name,
		Path:     dicPath,
		Source:   source,
		Format:   p.Format(),
		DictType: deriveDictType(name),
		LoadedAt: time.Now(),
		Active:   true,
	}
}

// dictTypeTokens maps filename tokens (cif_pow.dic -> "pow") to the coarse
// buckets the COMCIFS catalog uses.
var dictTypeTokens = map[string]model.DictType{
	"core":       model.DictTypeCore,
	"pow":        model.DictTypePowder,
	"pd":         model.DictTypePowder,
	"powder":     model.DictTypePowder,
	"ms":         model.DictTypeModulated,
	"modulated":  model.DictTypeModulated,
	"mag":        model.DictTypeMagnetic,
	"magnetic":   model.DictTypeMagnetic,
	"twin":       model.DictTypeTwinning,
	"img":        model.DictTypeImage,
	"image":      model.DictTypeImage,
	"ed":         model.DictTypeElectron,
	"emd":        model.DictTypeElectron,
	"rstr":       model.DictTypeRestraints,
	"restraints": model.DictTypeRestraints,
	"shelxl":     model.DictTypeRestraints,
	"rho":        model.DictTypeDensity,
	"topo":       model.DictTypeTopology,
	"block":      model.DictTypeMultiBlock,
	"multiblock": model.DictTypeMultiBlock,
}

// deriveDictType classifies a dictionary from its filename tokens.
func deriveDictType(name string) model.DictType {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	for _, token := range strings.FieldsFunc(base, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if dt, ok := dictTypeTokens[token]; ok {
			return dt
		}
	}
	return model.DictTypeGeneral
}

// extractDescription pulls a short description from the first 50 lines:
// a comment mentioning "dictionary" or "CIF", else the _dictionary.title
// value, else a default derived from the filename.
func extractDescription(dicPath, content string) string {
	lines := strings.Split(content, "\n")
	limit := len(lines)
	if limit > 50 {
		limit = 50
	}
	for i := 0; i < limit; i++ {
		line := strings.TrimSpace(lines[i])
		if strings.HasPrefix(line, "#") {
			text := strings.TrimSpace(strings.TrimLeft(line, "# "))
			if text != "" && (strings.Contains(strings.ToLower(text), "dictionary") || strings.Contains(text, "CIF")) {
				return text
			}
			continue
		}
		if strings.Contains(line, "_dictionary.title") || strings.Contains(line, "_dictionary_name") {
			parts := strings.Fields(line)
			if len(parts) > 1 {
				return strings.Trim(parts[1], `'"`)
			}
			if i+1 < len(lines) {
				next := strings.TrimSpace(lines[i+1])
				if next != "" && !strings.HasPrefix(next, "_") {
					return strings.Trim(next, `'"`)
				}
			}
		}
	}

	switch deriveDictType(filepath.Base(dicPath)) {
	case model.DictTypeRestraints:
		return "CIF Restraints Dictionary - Structural restraints and constraints"
	case model.DictTypePowder:
		return "CIF Powder Dictionary - Powder diffraction data"
	case model.DictTypeModulated:
		return "CIF Modulated Structures Dictionary - Modulated and composite structures"
	case model.DictTypeDensity:
		return "CIF Electron Density Dictionary - Electron density data"
	default:
		return "CIF Dictionary - Field definitions"
	}
}

// ensureLoaded parses and merges all active dictionaries once; any change to
// the dictionary list invalidates the merge.
func (m *Manager) ensureLoaded() {
	m.mu.RLock()
	loaded := m.loaded
	m.mu.RUnlock()
	if loaded {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		return
	}
	m.rebuildLocked()
}

func (m *Manager) rebuildLocked() {
	m.cif1to2 = make(map[string]string)
	m.cif2to1 = make(map[string][]string)

	for i := range m.entries {
		e := &m.entries[i]
		if i > 0 && !e.info.Active {
			continue
		}
		_ = e.parser.Parse(context.Background())
		fwd, rev := e.parser.Mappings()
		e.info.FieldCount = e.parser.FieldCount()
		if e.info.Version == "" {
			e.info.Version = e.parser.Version()
		}

		// Primary wins: later dictionaries never replace existing keys.
		for cif1, cif2 := range fwd {
			if _, exists := m.cif1to2[cif1]; !exists {
				m.cif1to2[cif1] = cif2
			}
		}
		for cif2, aliases := range rev {
			existing := m.cif2to1[cif2]
			known := make(map[string]struct{}, len(existing))
			for _, a := range existing {
				known[strings.ToLower(a)] = struct{}{}
			}
			for _, a := range aliases {
				if _, dup := known[strings.ToLower(a)]; dup {
					continue
				}
				known[strings.ToLower(a)] = struct{}{}
				existing = append(existing, a)
			}
			m.cif2to1[cif2] = existing
		}
	}

	m.applyManualMappingsLocked()
	m.loaded = true
}

// invalidateLocked forces a re-merge on the next query.
func (m *Manager) invalidateLocked() {
	m.loaded = false
	m.cif1to2 = nil
	m.cif2to1 = nil
}

// AddDictionary loads an additional dictionary from a file path.
func (m *Manager) AddDictionary(dicPath string) (model.DictionaryInfo, error) {
	data, err := os.ReadFile(dicPath)
	if err != nil {
		return model.DictionaryInfo{}, fmt.Errorf("manager: read dictionary: %w", err)
	}
	return m.addBytes(dicPath, data, model.SourceFile)
}

// AddDictionaryFromReader loads an additional dictionary from r, using name
// for identification.
func (m *Manager) AddDictionaryFromReader(name string, r io.Reader) (model.DictionaryInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return model.DictionaryInfo{}, fmt.Errorf("manager: read dictionary %s: %w", name, err)
	}
	return m.addBytes(name, data, model.SourceFile)
}

// AddDictionaryFromURL downloads and loads an additional dictionary.
func (m *Manager) AddDictionaryFromURL(ctx context.Context, url string) (model.DictionaryInfo, error) {
	if m.fetcher == nil {
		return model.DictionaryInfo{}, ErrNoFetcher
	}
	data, err := m.fetcher.Fetch(ctx, url)
	if err != nil {
		return model.DictionaryInfo{}, err
	}
	return m.addBytes(url, data, model.SourceURL)
}

func (m *Manager) addBytes(name string, data []byte, source model.DictionarySource) (model.DictionaryInfo, error) {
	p, err := dict.NewParserFromBytes(name, data)
	if err != nil {
		return model.DictionaryInfo{}, err
	}
	if err := p.Parse(context.Background()); err != nil {
		return model.DictionaryInfo{}, fmt.Errorf("manager: parse dictionary %s: %w", name, err)
	}
	if p.FieldCount() == 0 {
		return model.DictionaryInfo{}, fmt.Errorf("%w: %s", ErrNoFieldMappings, name)
	}

	info := newInfo(p, source, name)
	info.SizeBytes = int64(len(data))
	info.FieldCount = p.FieldCount()
	info.Version = p.Version()
	info.Description = extractDescription(name, string(data))

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry{parser: p, info: info})
	m.invalidateLocked()
	return info, nil
}

// RemoveDictionary removes an additional dictionary by path, name, basename,
// or ID string. The primary dictionary is protected.
func (m *Manager) RemoveDictionary(ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.findLocked(ref)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrDictionaryNotFound, ref)
	}
	if idx == 0 {
		return ErrPrimaryProtected
	}

	m.entries = append(m.entries[:idx], m.entries[idx+1:]...)
	m.invalidateLocked()
	return nil
}

// SetDictionaryActive toggles an additional dictionary. Activating an entry
// deactivates other dictionaries of the same DictType, keeping one source of
// truth per category. The primary cannot be deactivated.
func (m *Manager) SetDictionaryActive(ref string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.findLocked(ref)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrDictionaryNotFound, ref)
	}
	if idx == 0 && !active {
		return ErrPrimaryProtected
	}

	if active {
		dt := m.entries[idx].info.DictType
		for i := range m.entries {
			if i == 0 || i == idx {
				continue
			}
			if m.entries[i].info.DictType == dt {
				m.entries[i].info.Active = false
			}
		}
	}
	m.entries[idx].info.Active = active
	m.invalidateLocked()
	return nil
}

func (m *Manager) findLocked(ref string) int {
	for i, e := range m.entries {
		if e.info.Path == ref || e.info.Name == ref ||
			filepath.Base(e.info.Path) == ref || e.info.ID.String() == ref {
			return i
		}
	}
	return -1
}

// Dictionaries returns a snapshot of every loaded dictionary's info, primary
// first. Field counts are only populated after the first query or an
// explicit load.
func (m *Manager) Dictionaries() []model.DictionaryInfo {
	m.ensureLoaded()
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.DictionaryInfo, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.info
	}
	return out
}

// LoadCOMCIFSDictionaries downloads every catalog dictionary not already
// loaded, at most four in flight, and merges the successes. The returned map
// records the per-dictionary outcome; nil means loaded or already present.
func (m *Manager) LoadCOMCIFSDictionaries(ctx context.Context) (map[string]error, error) {
	if m.fetcher == nil {
		return nil, ErrNoFetcher
	}

	results := make(map[string]error)
	var pending []fetch.CatalogEntry

	m.mu.RLock()
	for _, ce := range m.catalog() {
		loaded := false
		for _, e := range m.entries {
			if e.info.Path == ce.URL || strings.EqualFold(e.info.Name, ce.Key+".dic") ||
				strings.EqualFold(e.info.Name, path.Base(ce.URL)) {
				loaded = true
				break
			}
		}
		if loaded {
			results[ce.Key] = nil
		} else {
			pending = append(pending, ce)
		}
	}
	m.mu.RUnlock()

	var (
		resMu sync.Mutex
		g     errgroup.Group
	)
	g.SetLimit(4)
	for _, ce := range pending {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				resMu.Lock()
				results[ce.Key] = err
				resMu.Unlock()
				return nil
			}
			data, err := m.fetcher.Fetch(ctx, ce.URL)
			if err == nil {
				_, err = m.addBytes(ce.URL, data, model.SourceURL)
			}
			resMu.Lock()
			results[ce.Key] = err
			resMu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results, ctx.Err()
}

// SuggestDictionaries recommends COMCIFS dictionaries for content.
func (m *Manager) SuggestDictionaries(content string) []suggest.Suggestion {
	return m.suggester.Analyze(content)
}

// searchPrimaryRaw scans the primary dictionary text for a definition the
// parsed mappings missed. Last-resort fallback for IsKnownField.
func (m *Manager) searchPrimaryRaw(name string) bool {
	if m.primaryRaw == "" {
		return false
	}
	defPattern, err := regexp.Compile(`(?i)_definition\.id\s+['"]?` + regexp.QuoteMeta(name) + `['"]?`)
	if err != nil {
		return false
	}
	if defPattern.MatchString(m.primaryRaw) {
		return true
	}
	// save_ frame names flex between dot and underscore separators.
	flexed := regexp.QuoteMeta(strings.TrimPrefix(name, "_"))
	flexed = strings.ReplaceAll(flexed, `_`, `[_.]`)
	flexed = strings.ReplaceAll(flexed, `\.`, `[_.]`)
	savePattern, err := regexp.Compile(`(?i)save_` + flexed)
	if err != nil {
		return false
	}
	return savePattern.MatchString(m.primaryRaw)
}
