package validation

import (
	"github.com/gofhir/jsonschema/pkg/output"
	"github.com/gofhir/jsonschema/pkg/pointer"
	"github.com/gofhir/jsonschema/pkg/schema"
	"github.com/gofhir/jsonschema/pkg/value"
)

// TypeValidator dispatches an instance to the keyword group for its kind.
// A nil group means the kind is not allowed.
type TypeValidator struct {
	base
	expected []string
	groups   [len(value.Kinds)]Validator
}

// NewType creates a type dispatcher. expected is the declared list of type
// names, used in the violation message.
func NewType(ref string, expected []string, groups map[value.Kind]Validator) *TypeValidator {
	v := &TypeValidator{base: base{ref: ref}, expected: expected}
	for k, g := range groups {
		v.groups[k] = g
	}
	return v
}

func (v *TypeValidator) group(k value.Kind) Validator {
	switch k {
	case value.Integer:
		if g := v.groups[value.Integer]; g != nil {
			return g
		}
		return v.groups[value.Number]
	case value.Number:
		// Falls back to the integer group, which reports the
		// non-integral value.
		if g := v.groups[value.Number]; g != nil {
			return g
		}
		return v.groups[value.Integer]
	default:
		return v.groups[k]
	}
}

// Validate implements Validator.
func (v *TypeValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, evaluated Props) {
	kind := value.KindOf(instance)
	if g := v.group(kind); g != nil {
		g.Validate(ctx, instance, loc, evaluated)
		return
	}
	ctx.report("type", v.ref, loc, output.Message(output.MsgType, output.Params{
		"types": output.TypeList(v.expected),
		"found": kind,
	}))
}

// GroupValidator runs the keywords that apply to one instance kind. For the
// integer and number kinds it first checks the numeric type itself.
type GroupValidator struct {
	base
	kind     value.Kind
	keywords []Validator
}

// NewGroup creates the keyword group for kind.
func NewGroup(ref string, kind value.Kind, keywords []Validator) *GroupValidator {
	return &GroupValidator{base: base{ref: ref}, kind: kind, keywords: keywords}
}

// Validate implements Validator.
func (v *GroupValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, evaluated Props) {
	switch v.kind {
	case value.Integer:
		if !value.IsInteger(instance) {
			ctx.report("type", v.ref, loc, output.Message(output.MsgNotInteger, nil))
			if ctx.Reporter.FailEarly() {
				return
			}
		}
	case value.Number:
		if !value.IsNumber(instance) {
			ctx.report("type", v.ref, loc, output.Message(output.MsgNotNumber, nil))
			if ctx.Reporter.FailEarly() {
				return
			}
		}
	}
	for _, kw := range v.keywords {
		kw.Validate(ctx, instance, loc, evaluated)
		if ctx.stop() {
			return
		}
	}
}

// EnumValidator is "enum".
type EnumValidator struct {
	base
	values []any
}

// NewEnum creates an enum validator.
func NewEnum(ref string, values []any) *EnumValidator {
	return &EnumValidator{base: base{ref: ref}, values: values}
}

// Validate implements Validator.
func (v *EnumValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, _ Props) {
	for _, candidate := range v.values {
		if value.Equal(candidate, instance) {
			return
		}
	}
	ctx.report("enum", v.ref, loc, output.Message(output.MsgEnum, output.Params{"value": value.Text(instance)}))
}

// ConstValidator is "const".
type ConstValidator struct {
	base
	value any
}

// NewConst creates a const validator.
func NewConst(ref string, v any) *ConstValidator {
	return &ConstValidator{base: base{ref: ref}, value: v}
}

// Validate implements Validator.
func (v *ConstValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, _ Props) {
	if !value.Equal(v.value, instance) {
		ctx.report("const", v.ref, loc, output.Message(output.MsgConst, nil))
	}
}

// NotValidator is "not". The subschema's errors and evaluated properties
// never reach the caller.
type NotValidator struct {
	base
	schema Validator
}

// NewNot creates a not validator.
func NewNot(ref string, s Validator) *NotValidator {
	return &NotValidator{base: base{ref: ref}, schema: s}
}

// Validate implements Validator.
func (v *NotValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, _ Props) {
	lctx, col := ctx.local()
	scratch := acquireProps()
	defer releaseProps(scratch)

	v.schema.Validate(lctx, instance, loc, scratch)
	if col.ErrorCount() == 0 {
		ctx.report("not", v.ref, loc, output.Message(output.MsgNot, nil))
	}
}

// CombinatorValidator is "allOf", "anyOf" or "oneOf". Each subschema runs
// against its own local collector; evaluated properties of the subschemas that
// passed are merged into the caller's set.
type CombinatorValidator struct {
	base
	op      schema.CombinatorOp
	schemas []Validator
}

// NewCombinator creates a combinator.
func NewCombinator(ref string, op schema.CombinatorOp, schemas []Validator) *CombinatorValidator {
	return &CombinatorValidator{base: base{ref: ref}, op: op, schemas: schemas}
}

// Validate implements Validator.
func (v *CombinatorValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, evaluated Props) {
	keyword := v.op.String()

	count := 0
	failed := false
	var nested []output.Output
	for _, s := range v.schemas {
		lctx, col := ctx.local()
		branch := acquireProps()
		s.Validate(lctx, instance, loc, branch)
		passed := col.ErrorCount() == 0
		if passed {
			count++
			evaluated.Merge(branch)
		} else {
			failed = true
			nested = append(nested, col.Outputs()...)
		}
		releaseProps(branch)

		switch v.op {
		case schema.AllOf:
			if failed && ctx.Reporter.FailEarly() {
				ctx.report(keyword, v.ref, loc, output.Message(output.MsgAllOf, nil), nested...)
				return
			}
		case schema.AnyOf:
			if count == 1 {
				return
			}
		case schema.OneOf:
			if passed && count == 2 {
				ctx.report(keyword, v.ref, loc, output.Message(output.MsgManyMatched, output.Params{"count": count}))
				if ctx.stop() {
					return
				}
			}
		}
	}

	switch {
	case v.op == schema.AllOf:
		if failed {
			ctx.report(keyword, v.ref, loc, output.Message(output.MsgAllOf, nil), nested...)
		}
	case count == 0:
		ctx.report(keyword, v.ref, loc, output.Message(output.MsgNoneMatched, nil), nested...)
	}
}

// ConditionalValidator is "if" with "then" and "else". The errors of "if"
// are only used to pick the branch.
type ConditionalValidator struct {
	base
	ifSchema, thenSchema, elseSchema Validator
}

// NewConditional creates a conditional. then and els may be nil.
func NewConditional(ref string, ifSchema, then, els Validator) *ConditionalValidator {
	return &ConditionalValidator{base: base{ref: ref}, ifSchema: ifSchema, thenSchema: then, elseSchema: els}
}

// Validate implements Validator.
func (v *ConditionalValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, evaluated Props) {
	lctx, col := ctx.local()
	branch := acquireProps()
	defer releaseProps(branch)

	v.ifSchema.Validate(lctx, instance, loc, branch)
	if col.ErrorCount() == 0 {
		evaluated.Merge(branch)
		if v.thenSchema != nil {
			v.thenSchema.Validate(ctx, instance, loc, evaluated)
		}
		return
	}
	if v.elseSchema != nil {
		v.elseSchema.Validate(ctx, instance, loc, evaluated)
	}
}
