package dict

import (
	"fmt"
	"os"

	"github.com/cifworks/go-cifmodel/internal/ddl1"
	"github.com/cifworks/go-cifmodel/internal/ddlm"
	"github.com/cifworks/go-cifmodel/internal/model"
)

// Options configures parser construction.
type Options struct {
	// FormatHint skips detection when the caller already knows the dialect.
	FormatHint model.DictionaryFormat
}

// Option mutates Options during construction.
type Option func(*Options)

// WithFormatHint pins the dictionary dialect, bypassing detection.
func WithFormatHint(format model.DictionaryFormat) Option {
	return func(opts *Options) {
		opts.FormatHint = format
	}
}

// NewParser reads a dictionary file, detects its dialect, and returns the
// matching parser. DDL2 and unrecognised files produce a *ParseError naming
// the file; the dictionary is not parsed until the first query or an
// explicit Parse call.
func NewParser(path string, options ...Option) (Parser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return NewParserFromBytes(path, data, options...)
}

// NewParserFromBytes is NewParser for content already in memory, such as
// downloaded or embedded dictionaries. name is used in errors and metadata
// in place of a file path.
func NewParserFromBytes(name string, data []byte, options ...Option) (Parser, error) {
	opts := Options{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&opts)
	}

	content := string(data)
	format := opts.FormatHint
	if format == "" || format == model.FormatUnknown {
		format = DetectFormat(content)
	}

	switch format {
	case model.FormatDDLm:
		return ddlm.New(name, content), nil
	case model.FormatDDL1:
		return ddl1.New(name, content), nil
	case model.FormatDDL2:
		return nil, &ParseError{
			Path:   name,
			Format: model.FormatDDL2,
			Err: fmt.Errorf("%w: %s is a DDL2 dictionary; use the DDLm successor published on the COMCIFS GitHub instead",
				ErrDDL2Unsupported, name),
		}
	default:
		return nil, &ParseError{
			Path:   name,
			Format: model.FormatUnknown,
			Err:    fmt.Errorf("%w: %s matches neither DDLm nor DDL1 markers", ErrUnknownFormat, name),
		}
	}
}
