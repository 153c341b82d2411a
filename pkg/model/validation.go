package model

import internalmodel "github.com/cifworks/go-cifmodel/internal/model"

// FieldCategory re-exports the data name classification enumeration.
type FieldCategory = internalmodel.FieldCategory

const (
	CategoryValid           = internalmodel.CategoryValid
	CategoryRegisteredLocal = internalmodel.CategoryRegisteredLocal
	CategoryUserAllowed     = internalmodel.CategoryUserAllowed
	CategoryUnknown         = internalmodel.CategoryUnknown
	CategoryDeprecated      = internalmodel.CategoryDeprecated
)

// FieldAction re-exports the remediation action enumeration.
type FieldAction = internalmodel.FieldAction

const (
	ActionKeep              = internalmodel.ActionKeep
	ActionDelete            = internalmodel.ActionDelete
	ActionAllowPrefix       = internalmodel.ActionAllowPrefix
	ActionAllowField        = internalmodel.ActionAllowField
	ActionIgnoreSession     = internalmodel.ActionIgnoreSession
	ActionCorrectFormat     = internalmodel.ActionCorrectFormat
	ActionDeprecationUpdate = internalmodel.ActionDeprecationUpdate
)

// IssueType re-exports the rules validator issue enumeration.
type IssueType = internalmodel.IssueType

const (
	IssueMixedFormat         = internalmodel.IssueMixedFormat
	IssueDuplicateAlias      = internalmodel.IssueDuplicateAlias
	IssueUnknownField        = internalmodel.IssueUnknownField
	IssueFormatInconsistency = internalmodel.IssueFormatInconsistency
	IssueDeprecatedField     = internalmodel.IssueDeprecatedField
)

// AutoFixType re-exports the auto-fix capability enumeration.
type AutoFixType = internalmodel.AutoFixType

const (
	AutoFixYes           = internalmodel.AutoFixYes
	AutoFixManualMapping = internalmodel.AutoFixManualMapping
	AutoFixNo            = internalmodel.AutoFixNo
)

type FieldValidationResult = internalmodel.FieldValidationResult
type ValidationReport = internalmodel.ValidationReport
type ValidationIssue = internalmodel.ValidationIssue
type FieldOccurrence = internalmodel.FieldOccurrence
type AliasConflict = internalmodel.AliasConflict
type Resolution = internalmodel.Resolution

// LoopValueSentinel re-exports the loop data marker used in conflict values.
const LoopValueSentinel = internalmodel.LoopValueSentinel
