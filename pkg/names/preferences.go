package names

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cifworks/go-cifmodel/internal/model"
	"github.com/cifworks/go-cifmodel/pkg/config"
)

// AllowPrefix adds a prefix to the persistent allow-list and invalidates the
// cache so earlier verdicts are recomputed.
func (v *Validator) AllowPrefix(prefix string) error {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return fmt.Errorf("names: empty prefix")
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.allowedPrefixes[prefix] = struct{}{}
	v.cache = make(map[string]model.FieldValidationResult)
	return v.persistLocked()
}

// DisallowPrefix removes a prefix from the allow-list.
func (v *Validator) DisallowPrefix(prefix string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.allowedPrefixes, strings.ToLower(strings.TrimSpace(prefix)))
	v.cache = make(map[string]model.FieldValidationResult)
	return v.persistLocked()
}

// AllowField adds a specific data name to the persistent allow-list.
func (v *Validator) AllowField(name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return fmt.Errorf("names: empty field name")
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.allowedFields[name] = struct{}{}
	v.cache = make(map[string]model.FieldValidationResult)
	return v.persistLocked()
}

// DisallowField removes a data name from the allow-list.
func (v *Validator) DisallowField(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.allowedFields, strings.ToLower(strings.TrimSpace(name)))
	v.cache = make(map[string]model.FieldValidationResult)
	return v.persistLocked()
}

// IgnoreForSession silences a data name until the process exits. Nothing is
// persisted.
func (v *Validator) IgnoreForSession(name string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.sessionIgnored[name] = struct{}{}
	v.cache = make(map[string]model.FieldValidationResult)
}

// AllowedPrefixes returns the allow-listed prefixes, sorted.
func (v *Validator) AllowedPrefixes() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return sortedKeys(v.allowedPrefixes)
}

// AllowedFields returns the allow-listed data names, sorted.
func (v *Validator) AllowedFields() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return sortedKeys(v.allowedFields)
}

// ClearCache drops all cached verdicts.
func (v *Validator) ClearCache() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cache = make(map[string]model.FieldValidationResult)
}

// persistLocked writes the allow-lists through the store, when one is
// attached. Callers hold v.mu.
func (v *Validator) persistLocked() error {
	if v.store == nil {
		return nil
	}
	prefs := config.Preferences{
		AllowedPrefixes: sortedKeys(v.allowedPrefixes),
		AllowedFields:   sortedKeys(v.allowedFields),
	}
	if err := v.store.SavePreferences(prefs); err != nil {
		return fmt.Errorf("names: save preferences: %w", err)
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
