package dict

import (
	"errors"
	"fmt"

	"github.com/cifworks/go-cifmodel/internal/model"
)

var (
	// ErrDDL2Unsupported signals a dictionary recognised as DDL2, which has
	// no parser. Most DDL2 dictionaries have DDLm successors published by
	// COMCIFS.
	ErrDDL2Unsupported = errors.New("dict: DDL2 dictionaries are not supported")

	// ErrUnknownFormat signals content that matched no dialect markers.
	ErrUnknownFormat = errors.New("dict: unrecognised dictionary format")
)

// ParseError wraps a dictionary load failure with its source and detected
// dialect so callers can report which file failed and why.
type ParseError struct {
	Path   string
	Format model.DictionaryFormat
	Err    error
}

func (e *ParseError) Error() string {
	if e.Format != "" && e.Format != model.FormatUnknown {
		return fmt.Sprintf("dict: parse %s (%s): %v", e.Path, e.Format, e.Err)
	}
	return fmt.Sprintf("dict: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
