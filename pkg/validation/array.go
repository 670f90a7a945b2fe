package validation

import (
	"github.com/gofhir/jsonschema/pkg/output"
	"github.com/gofhir/jsonschema/pkg/pointer"
	"github.com/gofhir/jsonschema/pkg/value"
)

// validateChild runs v against a value nested inside the current instance.
// The child is a different instance, so its evaluated properties are
// discarded.
func validateChild(ctx *Context, v Validator, instance any, loc pointer.Pointer) {
	scratch := acquireProps()
	v.Validate(ctx, instance, loc, scratch)
	releaseProps(scratch)
}

// ItemsArrayValidator is the positional form of "items" with
// "additionalItems". Items beyond the positional schemas are ignored when
// there is no additional schema.
type ItemsArrayValidator struct {
	base
	items      []Validator
	additional Validator
}

// NewItemsArray creates a positional items validator. additional may be nil.
func NewItemsArray(ref string, items []Validator, additional Validator) *ItemsArrayValidator {
	return &ItemsArrayValidator{base: base{ref: ref}, items: items, additional: additional}
}

// Validate implements Validator.
func (v *ItemsArrayValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, _ Props) {
	arr, ok := instance.([]any)
	if !ok {
		return
	}
	for i, item := range arr {
		var sv Validator
		switch {
		case i < len(v.items):
			sv = v.items[i]
		case v.additional != nil:
			sv = v.additional
		default:
			return
		}
		validateChild(ctx, sv, item, loc.AppendIndex(i))
		if ctx.stop() {
			return
		}
	}
}

// ItemsObjectValidator is "items" with a single schema for every element.
type ItemsObjectValidator struct {
	base
	schema Validator
}

// NewItemsObject creates an items validator.
func NewItemsObject(ref string, s Validator) *ItemsObjectValidator {
	return &ItemsObjectValidator{base: base{ref: ref}, schema: s}
}

// Validate implements Validator.
func (v *ItemsObjectValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, _ Props) {
	arr, ok := instance.([]any)
	if !ok {
		return
	}
	for i, item := range arr {
		validateChild(ctx, v.schema, item, loc.AppendIndex(i))
		if ctx.stop() {
			return
		}
	}
}

// ContainsValidator is "contains". Elements are tried in order until one
// matches.
type ContainsValidator struct {
	base
	schema Validator
}

// NewContains creates a contains validator.
func NewContains(ref string, s Validator) *ContainsValidator {
	return &ContainsValidator{base: base{ref: ref}, schema: s}
}

// Validate implements Validator.
func (v *ContainsValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, _ Props) {
	arr, ok := instance.([]any)
	if !ok {
		return
	}
	var nested []output.Output
	for i, item := range arr {
		lctx, col := ctx.local()
		validateChild(lctx, v.schema, item, loc.AppendIndex(i))
		if col.ErrorCount() == 0 {
			return
		}
		nested = append(nested, col.Outputs()...)
	}
	ctx.report("contains", v.ref, loc, output.Message(output.MsgContains, nil), nested...)
}

// UniqueItemsValidator is "uniqueItems": true.
type UniqueItemsValidator struct {
	base
}

// NewUniqueItems creates a uniqueness check.
func NewUniqueItems(ref string) *UniqueItemsValidator {
	return &UniqueItemsValidator{base: base{ref: ref}}
}

// Validate implements Validator. Elements are compared pairwise.
func (v *UniqueItemsValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, _ Props) {
	arr, ok := instance.([]any)
	if !ok {
		return
	}
	for i := 0; i < len(arr); i++ {
		for j := i + 1; j < len(arr); j++ {
			if value.Equal(arr[i], arr[j]) {
				ctx.report("uniqueItems", v.ref, loc, output.Message(output.MsgUniqueItems, nil))
				return
			}
		}
	}
}
