// Package cifmodel is the root facade over the library: one-call helpers
// for the common flows (load dictionaries, convert notation, validate data
// names) and aliases for the types those calls return. Applications with
// more involved needs use the sub-packages directly; everything here is a
// thin composition of them.
package cifmodel

import (
	"github.com/cifworks/go-cifmodel/internal/cif"
	"github.com/cifworks/go-cifmodel/pkg/convert"
	"github.com/cifworks/go-cifmodel/pkg/dict"
	"github.com/cifworks/go-cifmodel/pkg/manager"
	"github.com/cifworks/go-cifmodel/pkg/model"
	"github.com/cifworks/go-cifmodel/pkg/names"
)

// Manager re-exports the dictionary manager.
type Manager = manager.Manager

// Converter re-exports the notation converter.
type Converter = convert.Converter

// NamesValidator re-exports the data name validator.
type NamesValidator = names.Validator

// NewManager builds a manager with the dictionary at path as primary.
// Additional manager options pass through.
func NewManager(path string, options ...manager.Option) (*Manager, error) {
	opts := append([]manager.Option{manager.WithPrimaryPath(path)}, options...)
	return manager.New(opts...)
}

// ConvertToModern rewrites content into CIF2 notation using mgr's mappings.
func ConvertToModern(mgr *Manager, content string) (string, []string, error) {
	c, err := convert.New(mgr)
	if err != nil {
		return content, nil, err
	}
	converted, changes := c.ToCIF2(content)
	return converted, changes, nil
}

// ConvertToLegacy rewrites content into CIF1 notation using mgr's mappings.
func ConvertToLegacy(mgr *Manager, content string) (string, []string, error) {
	c, err := convert.New(mgr)
	if err != nil {
		return content, nil, err
	}
	converted, changes := c.ToCIF1(content)
	return converted, changes, nil
}

// ValidateNames classifies every data name in content against mgr's
// dictionaries, with the default prefix registry and no persisted
// preferences.
func ValidateNames(mgr *Manager, content string) (model.ValidationReport, error) {
	v, err := names.New(mgr)
	if err != nil {
		return model.ValidationReport{}, err
	}
	return v.ValidateContent(content), nil
}

// DetectVersion reports which CIF notation content is written in.
func DetectVersion(content string) model.CIFVersion {
	return cif.DetectVersion(content)
}

// DetectDictionaryFormat classifies dictionary text as DDLm, DDL1 or DDL2.
func DetectDictionaryFormat(content string) model.DictionaryFormat {
	return dict.DetectFormat(content)
}
