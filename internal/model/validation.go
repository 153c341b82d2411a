package model

// FieldCategory classifies a data name against the loaded dictionaries and
// the user's preferences.
type FieldCategory string

const (
	CategoryValid           FieldCategory = "valid"
	CategoryRegisteredLocal FieldCategory = "registered"
	CategoryUserAllowed     FieldCategory = "user_allowed"
	CategoryUnknown         FieldCategory = "unknown"
	CategoryDeprecated      FieldCategory = "deprecated"
)

// FieldAction enumerates what a caller can do about a flagged field.
type FieldAction string

const (
	ActionKeep              FieldAction = "keep"
	ActionDelete            FieldAction = "delete"
	ActionAllowPrefix       FieldAction = "allow_prefix"
	ActionAllowField        FieldAction = "allow_field"
	ActionIgnoreSession     FieldAction = "ignore_session"
	ActionCorrectFormat     FieldAction = "correct_format"
	ActionDeprecationUpdate FieldAction = "deprecation_update"
)

// FieldValidationResult is the per-name verdict from the data name validator.
// SuggestedFormat and EmbeddedPrefix are only set for names that look like a
// local prefix buried inside a standard category.
type FieldValidationResult struct {
	FieldName           string        `json:"fieldName"`
	Category            FieldCategory `json:"category"`
	LineNumber          int           `json:"lineNumber"`
	Description         string        `json:"description,omitempty"`
	SuggestedDictionary string        `json:"suggestedDictionary,omitempty"`
	ModernEquivalent    string        `json:"modernEquivalent,omitempty"`
	Prefix              string        `json:"prefix,omitempty"`
	SuggestedFormat     string        `json:"suggestedFormat,omitempty"`
	EmbeddedPrefix      string        `json:"embeddedPrefix,omitempty"`
}

// ValidationReport buckets every distinct data name found in a document.
type ValidationReport struct {
	ValidFields      []FieldValidationResult `json:"validFields,omitempty"`
	RegisteredFields []FieldValidationResult `json:"registeredFields,omitempty"`
	AllowedFields    []FieldValidationResult `json:"allowedFields,omitempty"`
	UnknownFields    []FieldValidationResult `json:"unknownFields,omitempty"`
	DeprecatedFields []FieldValidationResult `json:"deprecatedFields,omitempty"`
	TotalFields      int                     `json:"totalFields"`
}

// Add routes a result into the matching bucket and bumps the total.
func (r *ValidationReport) Add(res FieldValidationResult) {
	switch res.Category {
	case CategoryRegisteredLocal:
		r.RegisteredFields = append(r.RegisteredFields, res)
	case CategoryUserAllowed:
		r.AllowedFields = append(r.AllowedFields, res)
	case CategoryUnknown:
		r.UnknownFields = append(r.UnknownFields, res)
	case CategoryDeprecated:
		r.DeprecatedFields = append(r.DeprecatedFields, res)
	default:
		r.ValidFields = append(r.ValidFields, res)
	}
	r.TotalFields++
}

// IssueType distinguishes the rule violations the rules validator reports.
type IssueType string

const (
	IssueMixedFormat         IssueType = "mixed_format"
	IssueDuplicateAlias      IssueType = "duplicate_alias"
	IssueUnknownField        IssueType = "unknown_field"
	IssueFormatInconsistency IssueType = "format_inconsistency"
	IssueDeprecatedField     IssueType = "deprecated_field"
)

// DisplayName returns the human label used in reports and CLI output.
func (t IssueType) DisplayName() string {
	switch t {
	case IssueMixedFormat:
		return "Mixed CIF Format"
	case IssueDuplicateAlias:
		return "Duplicate Field Aliases"
	case IssueUnknownField:
		return "Unknown Fields"
	case IssueFormatInconsistency:
		return "Format Inconsistencies"
	case IssueDeprecatedField:
		return "Deprecated Fields"
	default:
		return string(t)
	}
}

// AutoFixType says whether an issue can be repaired without user judgement.
// AutoFixManualMapping marks fixes that are mechanical but rest on curated
// CIF2-only mappings rather than a loaded dictionary, so they need explicit
// confirmation before being applied.
type AutoFixType string

const (
	AutoFixYes           AutoFixType = "yes"
	AutoFixManualMapping AutoFixType = "cif2_manual_mapping"
	AutoFixNo            AutoFixType = "no"
)

// ValidationIssue is one problem found by the rules validator, covering one
// or more related field spellings.
type ValidationIssue struct {
	Type         IssueType   `json:"type"`
	FieldNames   []string    `json:"fieldNames"`
	LineNumbers  []int       `json:"lineNumbers,omitempty"`
	Description  string      `json:"description"`
	SuggestedFix string      `json:"suggestedFix,omitempty"`
	AutoFix      AutoFixType `json:"autoFix"`
}
