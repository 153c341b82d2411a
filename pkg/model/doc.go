// Package model exposes the typed vocabulary shared by every package in the
// module: dictionary metadata (FieldMetadata, FieldAlias, DictionaryInfo),
// document classification (CIFVersion, DictionaryFormat), and the validation
// result shapes consumed by reports and the CLI. Concrete definitions live in
// internal/model; this package re-exports them so callers never import an
// internal path. All string-backed enums serialise to stable values, so the
// structs can be embedded in JSON output or report contexts without adapters.
package model
