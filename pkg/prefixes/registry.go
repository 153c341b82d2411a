// Package prefixes exposes the IUCr registered-prefix registry for CIF data
// names. Organisations register a prefix (shelx, ccdc, ...) so their local
// data names never collide with official dictionary definitions; the
// data-name validator uses this registry to tell sanctioned local names from
// typos.
//
// The registry is a JSON document. A bundled copy is embedded in the binary;
// a user override under the config directory takes precedence when present.
//
// Reference: https://www.iucr.org/resources/cif/registries/prefix-registry
package prefixes

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/cifworks/go-cifmodel/pkg/config"
)

//go:embed registered_prefixes.json
var bundledRegistry []byte

// Info describes one registered prefix.
type Info struct {
	Description         string `json:"description"`
	SuggestedDictionary string `json:"suggested_dictionary,omitempty"`
}

type document struct {
	Prefixes            map[string]Info   `json:"prefixes"`
	CategorySuggestions map[string]string `json:"category_dictionary_suggestions"`
}

// Registry answers prefix queries against the loaded document. It is safe
// for concurrent use; loading is lazy and Reload swaps the document in
// place.
type Registry struct {
	mu       sync.RWMutex
	userPath string
	doc      document
	source   string
	loaded   bool
}

// Option mutates a Registry during construction.
type Option func(*Registry)

// WithUserFile overrides the user registry location. By default the file
// lives under the config directory.
func WithUserFile(path string) Option {
	return func(r *Registry) {
		r.userPath = path
	}
}

// New builds a Registry. The document is not read until the first query.
func New(options ...Option) *Registry {
	r := &Registry{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.userPath == "" {
		if path, err := config.PrefixesPath(); err == nil {
			r.userPath = path
		}
	}
	return r
}

// Reload discards the cached document and reads it again, returning the
// source it was loaded from.
func (r *Registry) Reload() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaded = false
	err := r.loadLocked()
	return r.source, err
}

// Source reports where the current document came from: the user file path,
// "bundled", or "empty" when neither parsed.
func (r *Registry) Source() string {
	r.mu.RLock()
	if r.loaded {
		defer r.mu.RUnlock()
		return r.source
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked()
	return r.source
}

func (r *Registry) ensure() {
	r.mu.RLock()
	if r.loaded {
		r.mu.RUnlock()
		return
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadLocked()
}

// loadLocked reads the user file when present, else the bundled copy. A
// malformed user file falls back to the bundled registry rather than
// erroring the whole query path; Reload surfaces the parse error.
func (r *Registry) loadLocked() error {
	if r.loaded {
		return nil
	}
	r.loaded = true

	var userErr error
	if r.userPath != "" {
		data, err := os.ReadFile(r.userPath)
		if err == nil {
			var doc document
			if err := json.Unmarshal(data, &doc); err == nil {
				r.doc = doc
				r.source = r.userPath
				return nil
			}
			userErr = fmt.Errorf("prefixes: parse %s: %w", r.userPath, err)
		}
	}

	var doc document
	if err := json.Unmarshal(bundledRegistry, &doc); err != nil {
		r.doc = document{}
		r.source = "empty"
		return fmt.Errorf("prefixes: parse bundled registry: %w", err)
	}
	r.doc = doc
	r.source = "bundled"
	return userErr
}

// PrefixOf extracts the prefix portion of a data name: the category's first
// underscore segment for dotted names, the first segment otherwise. Names
// without a prefix structure yield "".
func PrefixOf(field string) string {
	name := strings.TrimLeft(field, "_")
	if name == "" {
		return ""
	}

	if dot := strings.Index(name, "."); dot >= 0 {
		category := name[:dot]
		if under := strings.Index(category, "_"); under >= 0 {
			return category[:under]
		}
		return category
	}
	if under := strings.Index(name, "_"); under >= 0 {
		return name[:under]
	}
	return ""
}

// Registered reports whether field's prefix is in the registry.
func (r *Registry) Registered(field string) bool {
	prefix := PrefixOf(field)
	if prefix == "" {
		return false
	}
	return r.Known(prefix)
}

// Known reports whether prefix itself is registered, case-insensitively.
func (r *Registry) Known(prefix string) bool {
	_, ok := r.Info(prefix)
	return ok
}

// Info returns the registry entry for prefix, matching exactly first and
// then case-insensitively.
func (r *Registry) Info(prefix string) (Info, bool) {
	if prefix == "" {
		return Info{}, false
	}
	r.ensure()
	r.mu.RLock()
	defer r.mu.RUnlock()

	if info, ok := r.doc.Prefixes[prefix]; ok {
		return info, true
	}
	lower := strings.ToLower(prefix)
	for name, info := range r.doc.Prefixes {
		if strings.ToLower(name) == lower {
			return info, true
		}
	}
	return Info{}, false
}

// SuggestDictionary names a dictionary worth loading for prefix: the
// registered prefix's own suggestion first, then the category patterns
// (exact, case-insensitive, then trailing-underscore prefix match).
func (r *Registry) SuggestDictionary(prefix string) string {
	if prefix == "" {
		return ""
	}
	if info, ok := r.Info(prefix); ok && info.SuggestedDictionary != "" {
		return info.SuggestedDictionary
	}

	r.ensure()
	r.mu.RLock()
	defer r.mu.RUnlock()

	if dict, ok := r.doc.CategorySuggestions[prefix]; ok {
		return dict
	}
	lower := strings.ToLower(prefix)
	for pattern, dict := range r.doc.CategorySuggestions {
		if strings.ToLower(pattern) == lower {
			return dict
		}
	}
	for pattern, dict := range r.doc.CategorySuggestions {
		if strings.HasSuffix(pattern, "_") &&
			strings.HasPrefix(lower, strings.ToLower(strings.TrimRight(pattern, "_"))) {
			return dict
		}
	}
	return ""
}

// Names returns the registered prefix names, sorted.
func (r *Registry) Names() []string {
	r.ensure()
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.doc.Prefixes))
	for name := range r.doc.Prefixes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LowerSet returns the registered prefixes lowercased, for membership tests.
func (r *Registry) LowerSet() map[string]struct{} {
	r.ensure()
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := make(map[string]struct{}, len(r.doc.Prefixes))
	for name := range r.doc.Prefixes {
		set[strings.ToLower(name)] = struct{}{}
	}
	return set
}
