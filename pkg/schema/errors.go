package schema

import (
	"errors"
	"fmt"
)

// Compile-time error causes.
var (
	ErrUnresolvedReference = errors.New("unresolved schema reference")
	ErrInvalidKeyword      = errors.New("invalid keyword value")
	ErrInvalidPattern      = errors.New("invalid regular expression")
	ErrInvalidSchema       = errors.New("invalid schema")
)

// SchemaError is a fatal problem with a schema document. Compilation of a
// tree that raises one produces no validator.
type SchemaError struct {
	URI     string
	Keyword string
	Err     error
}

// Error implements error.
func (e *SchemaError) Error() string {
	switch {
	case e.Keyword != "" && e.URI != "":
		return fmt.Sprintf("%s (%s): %v", e.URI, e.Keyword, e.Err)
	case e.URI != "":
		return fmt.Sprintf("%s: %v", e.URI, e.Err)
	default:
		return e.Err.Error()
	}
}

// Unwrap returns the cause.
func (e *SchemaError) Unwrap() error { return e.Err }

// Errorf builds a SchemaError whose cause wraps err with a formatted detail.
func Errorf(uri, keyword string, err error, format string, args ...any) *SchemaError {
	return &SchemaError{
		URI:     uri,
		Keyword: keyword,
		Err:     fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...)),
	}
}
