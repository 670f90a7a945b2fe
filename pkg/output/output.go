// Package output defines validation outputs, the error reporters that
// collect them, and the result of a validation run.
package output

import (
	"strings"

	"github.com/goccy/go-json"
)

// Output is one violation found while evaluating an instance. Outputs are
// immutable; combinators carry the outputs of their failing subschemas in
// Nested.
type Output struct {
	keyword          string
	schemaRef        string
	instanceLocation string
	message          string
	nested           []Output
}

// New creates an Output. The nested slice is copied.
func New(keyword, schemaRef, instanceLocation, message string, nested ...Output) Output {
	o := Output{
		keyword:          keyword,
		schemaRef:        schemaRef,
		instanceLocation: instanceLocation,
		message:          message,
	}
	if len(nested) > 0 {
		o.nested = append([]Output(nil), nested...)
	}
	return o
}

// Keyword is the schema keyword that failed, e.g. "required".
func (o Output) Keyword() string { return o.keyword }

// AbsoluteKeywordLocation is the absolute URI of the failing schema location.
func (o Output) AbsoluteKeywordLocation() string { return o.schemaRef }

// KeywordLocation is the fragment of the schema location, "#/properties/a".
func (o Output) KeywordLocation() string {
	if i := strings.IndexByte(o.schemaRef, '#'); i >= 0 {
		return o.schemaRef[i:]
	}
	return "#"
}

// InstanceLocation is the JSON Pointer of the failing instance value.
func (o Output) InstanceLocation() string { return o.instanceLocation }

// Message is the human-readable description.
func (o Output) Message() string { return o.message }

// Nested returns a copy of the nested outputs.
func (o Output) Nested() []Output {
	if len(o.nested) == 0 {
		return nil
	}
	return append([]Output(nil), o.nested...)
}

// String renders "location: message".
func (o Output) String() string {
	loc := o.instanceLocation
	if loc == "" {
		loc = "/"
	}
	return loc + ": " + o.message
}

type outputJSON struct {
	Keyword                 string   `json:"keyword"`
	KeywordLocation         string   `json:"keywordLocation"`
	AbsoluteKeywordLocation string   `json:"absoluteKeywordLocation"`
	InstanceLocation        string   `json:"instanceLocation"`
	Message                 string   `json:"error"`
	Errors                  []Output `json:"errors,omitempty"`
}

// MarshalJSON encodes the output in the draft 2019-09 "detailed" style.
func (o Output) MarshalJSON() ([]byte, error) {
	return json.Marshal(outputJSON{
		Keyword:                 o.keyword,
		KeywordLocation:         o.KeywordLocation(),
		AbsoluteKeywordLocation: o.schemaRef,
		InstanceLocation:        o.instanceLocation,
		Message:                 o.message,
		Errors:                  o.nested,
	})
}

// Flatten returns o and all nested outputs in depth-first order.
func Flatten(outputs []Output) []Output {
	var flat []Output
	var walk func([]Output)
	walk = func(list []Output) {
		for _, o := range list {
			flat = append(flat, o)
			walk(o.nested)
		}
	}
	walk(outputs)
	return flat
}
