package validation

import (
	"errors"

	"github.com/grafana/regexp"
	"github.com/shopspring/decimal"

	"github.com/gofhir/jsonschema/pkg/content"
	"github.com/gofhir/jsonschema/pkg/format"
	"github.com/gofhir/jsonschema/pkg/output"
	"github.com/gofhir/jsonschema/pkg/pointer"
	"github.com/gofhir/jsonschema/pkg/schema"
	"github.com/gofhir/jsonschema/pkg/value"
)

var lengthMessages = map[schema.LengthKind]output.MessageID{
	schema.MaxLength:     output.MsgMaxLength,
	schema.MinLength:     output.MsgMinLength,
	schema.MaxItems:      output.MsgMaxItems,
	schema.MinItems:      output.MsgMinItems,
	schema.MaxProperties: output.MsgMaxProperties,
	schema.MinProperties: output.MsgMinProperties,
}

// LengthValidator bounds the size of a string (in code points), an array
// or an object.
type LengthValidator struct {
	base
	kind  schema.LengthKind
	limit int
}

// NewLength creates a size bound.
func NewLength(ref string, kind schema.LengthKind, limit int) *LengthValidator {
	return &LengthValidator{base: base{ref: ref}, kind: kind, limit: limit}
}

// Validate implements Validator.
func (v *LengthValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, _ Props) {
	var actual int
	switch x := instance.(type) {
	case string:
		actual = value.Length(x)
	case []any:
		actual = len(x)
	case map[string]any:
		actual = len(x)
	default:
		return
	}
	if v.kind.IsMax() && actual <= v.limit || !v.kind.IsMax() && actual >= v.limit {
		return
	}
	ctx.report(v.kind.String(), v.ref, loc, output.Message(lengthMessages[v.kind], output.Params{
		"limit":  v.limit,
		"actual": actual,
	}))
}

// PatternValidator is "pattern".
type PatternValidator struct {
	base
	re *regexp.Regexp
}

// NewPattern creates a pattern validator.
func NewPattern(ref string, re *regexp.Regexp) *PatternValidator {
	return &PatternValidator{base: base{ref: ref}, re: re}
}

// Validate implements Validator.
func (v *PatternValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, _ Props) {
	s, ok := instance.(string)
	if !ok || v.re.MatchString(s) {
		return
	}
	ctx.report("pattern", v.ref, loc, output.Message(output.MsgPattern, output.Params{
		"value":   s,
		"pattern": v.re.String(),
	}))
}

// FormatValidator asserts a known "format".
type FormatValidator struct {
	base
	name  string
	check format.Checker
}

// NewFormat creates a format assertion.
func NewFormat(ref, name string, check format.Checker) *FormatValidator {
	return &FormatValidator{base: base{ref: ref}, name: name, check: check}
}

// Validate implements Validator.
func (v *FormatValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, _ Props) {
	s, ok := instance.(string)
	if !ok || v.check(s) {
		return
	}
	ctx.report("format", v.ref, loc, output.Message(output.MsgFormat, output.Params{
		"value":  s,
		"format": v.name,
	}))
}

// ContentEncodingValidator is "contentEncoding".
type ContentEncodingValidator struct {
	base
	encoding string
}

// NewContentEncoding creates a content encoding check.
func NewContentEncoding(ref, encoding string) *ContentEncodingValidator {
	return &ContentEncodingValidator{base: base{ref: ref}, encoding: encoding}
}

// Validate implements Validator.
func (v *ContentEncodingValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, _ Props) {
	s, ok := instance.(string)
	if !ok {
		return
	}
	_, err := content.Decode(v.encoding, s)
	switch {
	case err == nil:
	case errors.Is(err, content.ErrNotBase64):
		ctx.report("contentEncoding", v.ref, loc, output.Message(output.MsgContentBase64, nil))
	default:
		ctx.report("contentEncoding", v.ref, loc, output.Message(output.MsgContentEncoding, output.Params{"encoding": v.encoding}))
	}
}

// ContentMediaTypeValidator is "contentMediaType".
type ContentMediaTypeValidator struct {
	base
	mediaType string
	encoding  string
}

// NewContentMediaType creates a media type check. Content that fails to
// decode with encoding is left to the contentEncoding check.
func NewContentMediaType(ref, mediaType, encoding string) *ContentMediaTypeValidator {
	return &ContentMediaTypeValidator{base: base{ref: ref}, mediaType: mediaType, encoding: encoding}
}

// Validate implements Validator.
func (v *ContentMediaTypeValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, _ Props) {
	s, ok := instance.(string)
	if !ok {
		return
	}
	data, err := content.Decode(v.encoding, s)
	if err != nil {
		return
	}
	switch err := content.Check(v.mediaType, data); {
	case err == nil:
	case errors.Is(err, content.ErrNotJSON):
		ctx.report("contentMediaType", v.ref, loc, output.Message(output.MsgContentJSON, nil))
	default:
		ctx.report("contentMediaType", v.ref, loc, output.Message(output.MsgContentType, output.Params{"mediaType": v.mediaType}))
	}
}

var boundMessages = map[schema.BoundKind]output.MessageID{
	schema.Maximum:          output.MsgMaximum,
	schema.ExclusiveMaximum: output.MsgExclusiveMaximum,
	schema.Minimum:          output.MsgMinimum,
	schema.ExclusiveMinimum: output.MsgExclusiveMinimum,
}

// BoundValidator is a numeric limit, compared exactly.
type BoundValidator struct {
	base
	kind  schema.BoundKind
	limit decimal.Decimal
}

// NewBound creates a numeric limit.
func NewBound(ref string, kind schema.BoundKind, limit decimal.Decimal) *BoundValidator {
	return &BoundValidator{base: base{ref: ref}, kind: kind, limit: limit}
}

// Validate implements Validator.
func (v *BoundValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, _ Props) {
	d, ok := value.Decimal(instance)
	if !ok {
		return
	}
	var within bool
	switch v.kind {
	case schema.Maximum:
		within = d.LessThanOrEqual(v.limit)
	case schema.ExclusiveMaximum:
		within = d.LessThan(v.limit)
	case schema.Minimum:
		within = d.GreaterThanOrEqual(v.limit)
	case schema.ExclusiveMinimum:
		within = d.GreaterThan(v.limit)
	}
	if within {
		return
	}
	ctx.report(v.kind.String(), v.ref, loc, output.Message(boundMessages[v.kind], output.Params{
		"value": value.Text(instance),
		"limit": v.limit.String(),
	}))
}

// MultipleOfValidator is "multipleOf", using exact decimal division.
type MultipleOfValidator struct {
	base
	divisor decimal.Decimal
}

// NewMultipleOf creates a multipleOf validator. divisor must be positive.
func NewMultipleOf(ref string, divisor decimal.Decimal) *MultipleOfValidator {
	return &MultipleOfValidator{base: base{ref: ref}, divisor: divisor}
}

// Validate implements Validator.
func (v *MultipleOfValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, _ Props) {
	d, ok := value.Decimal(instance)
	if !ok || d.IsZero() || d.Mod(v.divisor).IsZero() {
		return
	}
	ctx.report("multipleOf", v.ref, loc, output.Message(output.MsgMultipleOf, output.Params{
		"value": value.Text(instance),
		"limit": v.divisor.String(),
	}))
}
