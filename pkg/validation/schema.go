package validation

import (
	"github.com/gofhir/jsonschema/pkg/output"
	"github.com/gofhir/jsonschema/pkg/pointer"
)

// BoolValidator is the schema true or false.
type BoolValidator struct {
	base
	value bool
}

// NewBool creates the validator for a boolean schema.
func NewBool(ref string, value bool) *BoolValidator {
	return &BoolValidator{base: base{ref: ref}, value: value}
}

// Validate implements Validator.
func (v *BoolValidator) Validate(ctx *Context, _ any, loc pointer.Pointer, _ Props) {
	if !v.value {
		ctx.report("false", v.ref, loc, output.Message(output.MsgFalseSchema, nil))
	}
}

// SchemaValidator runs the keywords of a schema object. Properties its
// keywords evaluate are collected locally and merged into the caller's set
// when all keywords have run.
type SchemaValidator struct {
	base
	keywords []Validator
}

// NewSchema creates the validator for a schema object. Keywords run in the
// given order.
func NewSchema(ref string, keywords []Validator) *SchemaValidator {
	return &SchemaValidator{base: base{ref: ref}, keywords: keywords}
}

// Validate implements Validator.
func (v *SchemaValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, evaluated Props) {
	local := acquireProps()
	defer releaseProps(local)

	for _, kw := range v.keywords {
		kw.Validate(ctx, instance, loc, local)
		if ctx.stop() {
			return
		}
	}
	evaluated.Merge(local)
}

// RefValidator follows "$ref" or "$recursiveRef" to its compiled target.
type RefValidator struct {
	base
	keyword string
	target  Validator
}

// NewRef creates a reference validator. keyword is "$ref" or
// "$recursiveRef".
func NewRef(ref, keyword string, target Validator) *RefValidator {
	return &RefValidator{base: base{ref: ref}, keyword: keyword, target: target}
}

// Target returns the referenced validator.
func (v *RefValidator) Target() Validator { return v.target }

// Validate implements Validator.
func (v *RefValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, evaluated Props) {
	if ctx.depth >= ctx.MaxDepth {
		ctx.report(v.keyword, v.ref, loc, output.Message(output.MsgMaxDepth, output.Params{"depth": ctx.MaxDepth}))
		return
	}
	ctx.depth++
	v.target.Validate(ctx, instance, loc, evaluated)
	ctx.depth--
}
