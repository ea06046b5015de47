// Package etlerr defines the error taxonomy shared by the extract, transform
// and load stages. Every stage returns errors that match exactly one of the
// sentinel kinds below via errors.Is; the CLI uses KindOf to pick a message.
package etlerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names a failure category.
type Kind string

const (
	KindUnknown           Kind = "unknown"
	KindInvalidArgument   Kind = "invalid_argument"
	KindNotFound          Kind = "not_found"
	KindUnsupportedFormat Kind = "unsupported_format"
	KindParse             Kind = "parse_error"
	KindSchemaMismatch    Kind = "schema_mismatch"
	KindMissingColumns    Kind = "missing_columns"
)

// Sentinels for errors.Is checks.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrParse             = errors.New("parse error")
	ErrSchemaMismatch    = errors.New("schema mismatch")
	ErrMissingColumns    = errors.New("missing columns")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrInvalidArgument, KindInvalidArgument},
	{ErrNotFound, KindNotFound},
	{ErrUnsupportedFormat, KindUnsupportedFormat},
	{ErrParse, KindParse},
	{ErrSchemaMismatch, KindSchemaMismatch},
	{ErrMissingColumns, KindMissingColumns},
}

// KindOf classifies err. Errors outside the taxonomy are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindUnknown
}

// InvalidArgument returns an ErrInvalidArgument with a message.
func InvalidArgument(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, a...))
}

// UnsupportedFormat reports a path whose extension is not in allowed.
func UnsupportedFormat(path string, allowed ...string) error {
	return fmt.Errorf("%w: %s (expected one of %s)", ErrUnsupportedFormat, path, strings.Join(allowed, ", "))
}

// NotFound wraps cause (usually an *fs.PathError) as ErrNotFound.
func NotFound(path string, cause error) error {
	return &wrapped{kind: ErrNotFound, msg: "file not found: " + path, cause: cause}
}

// Parse wraps cause as ErrParse, keeping cause reachable via errors.Unwrap.
func Parse(what string, cause error) error {
	return &wrapped{kind: ErrParse, msg: "parse " + what, cause: cause}
}

// wrapped matches both its kind sentinel and its underlying cause.
type wrapped struct {
	kind  error
	msg   string
	cause error
}

func (e *wrapped) Error() string {
	if e.cause == nil {
		return e.msg
	}
	return e.msg + ": " + e.cause.Error()
}

func (e *wrapped) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// SchemaError reports required columns that a table does not carry. It
// matches ErrSchemaMismatch when none of the expected columns were present
// and ErrMissingColumns otherwise.
type SchemaError struct {
	Expected []string
	Missing  []string
	Actual   []string
	None     bool
}

func (e *SchemaError) Error() string {
	if e.None {
		return fmt.Sprintf("no required columns found. Expected: %s. Actual: %s",
			strings.Join(e.Expected, ", "), strings.Join(e.Actual, ", "))
	}
	return fmt.Sprintf("missing required columns: %s. Actual columns: %s",
		strings.Join(e.Missing, ", "), strings.Join(e.Actual, ", "))
}

// Is lets errors.Is match the schema sentinels.
func (e *SchemaError) Is(target error) bool {
	if e.None {
		return target == ErrSchemaMismatch
	}
	return target == ErrMissingColumns
}
