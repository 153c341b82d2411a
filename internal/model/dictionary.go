package model

import (
	"time"

	"github.com/google/uuid"
)

// DictType is the coarse category a dictionary covers. It drives the
// one-active-per-type rule: loading a second powder dictionary deactivates
// the first instead of merging both.
type DictType string

const (
	DictTypeCore       DictType = "core"
	DictTypePowder     DictType = "powder"
	DictTypeModulated  DictType = "modulated"
	DictTypeMagnetic   DictType = "magnetic"
	DictTypeTwinning   DictType = "twinning"
	DictTypeImage      DictType = "image"
	DictTypeElectron   DictType = "electron"
	DictTypeRestraints DictType = "restraints"
	DictTypeDensity    DictType = "density"
	DictTypeTopology   DictType = "topology"
	DictTypeMultiBlock DictType = "multiblock"
	DictTypeGeneral    DictType = "general"
)

// DictionaryInfo is the list-management record for one loaded dictionary.
// ID is stable for the life of the manager so UIs can reference entries
// across renames or path changes.
type DictionaryInfo struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Path        string           `json:"path,omitempty"`
	Source      DictionarySource `json:"source"`
	Provenance  string           `json:"provenance,omitempty"`
	Format      DictionaryFormat `json:"format"`
	DictType    DictType         `json:"dictType"`
	Version     string           `json:"version,omitempty"`
	Description string           `json:"description,omitempty"`
	SizeBytes   int64            `json:"sizeBytes,omitempty"`
	FieldCount  int              `json:"fieldCount"`
	LoadedAt    time.Time        `json:"loadedAt"`
	Active      bool             `json:"active"`
}
