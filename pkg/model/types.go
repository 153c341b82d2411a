package model

import internalmodel "github.com/cifworks/go-cifmodel/internal/model"

// CIFVersion re-exports the internal CIF file version enumeration.
type CIFVersion = internalmodel.CIFVersion

const (
	CIFVersion1       = internalmodel.CIFVersion1
	CIFVersion2       = internalmodel.CIFVersion2
	CIFVersionMixed   = internalmodel.CIFVersionMixed
	CIFVersionUnknown = internalmodel.CIFVersionUnknown
)

// DictionaryFormat re-exports the DDL dialect enumeration.
type DictionaryFormat = internalmodel.DictionaryFormat

const (
	FormatDDLm    = internalmodel.FormatDDLm
	FormatDDL1    = internalmodel.FormatDDL1
	FormatDDL2    = internalmodel.FormatDDL2
	FormatUnknown = internalmodel.FormatUnknown
)

// DictionarySource re-exports the dictionary provenance enumeration.
type DictionarySource = internalmodel.DictionarySource

const (
	SourceFile    = internalmodel.SourceFile
	SourceURL     = internalmodel.SourceURL
	SourceBundled = internalmodel.SourceBundled
	SourceUnknown = internalmodel.SourceUnknown
)

// DictType re-exports the dictionary category enumeration.
type DictType = internalmodel.DictType

const (
	DictTypeCore       = internalmodel.DictTypeCore
	DictTypePowder     = internalmodel.DictTypePowder
	DictTypeModulated  = internalmodel.DictTypeModulated
	DictTypeMagnetic   = internalmodel.DictTypeMagnetic
	DictTypeTwinning   = internalmodel.DictTypeTwinning
	DictTypeImage      = internalmodel.DictTypeImage
	DictTypeElectron   = internalmodel.DictTypeElectron
	DictTypeRestraints = internalmodel.DictTypeRestraints
	DictTypeDensity    = internalmodel.DictTypeDensity
	DictTypeTopology   = internalmodel.DictTypeTopology
	DictTypeMultiBlock = internalmodel.DictTypeMultiBlock
	DictTypeGeneral    = internalmodel.DictTypeGeneral
)

type FieldAlias = internalmodel.FieldAlias
type FieldMetadata = internalmodel.FieldMetadata
type DictionaryInfo = internalmodel.DictionaryInfo
