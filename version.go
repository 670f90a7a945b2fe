package jsonschema

import "github.com/gofhir/jsonschema/pkg/loader"

// Version is the library version.
const Version = "0.1.0"

// Dialect describes a supported JSON Schema draft.
type Dialect struct {
	Draft loader.Draft
	// MetaSchema is the "$schema" URI selecting the draft.
	MetaSchema string
}

var dialects = []Dialect{
	{Draft: loader.Draft7, MetaSchema: loader.Draft7URI},
	{Draft: loader.Draft201909, MetaSchema: loader.Draft201909URI},
}

// Dialects returns the supported drafts, oldest first.
func Dialects() []Dialect {
	return append([]Dialect(nil), dialects...)
}

// IsSupported reports whether uri names a supported meta-schema.
func IsSupported(uri string) bool {
	_, ok := loader.DetectDraft(uri)
	return ok
}
