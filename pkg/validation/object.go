package validation

import (
	"github.com/grafana/regexp"

	"github.com/gofhir/jsonschema/pkg/output"
	"github.com/gofhir/jsonschema/pkg/pointer"
	"github.com/gofhir/jsonschema/pkg/value"
)

// Property is a compiled "properties" entry.
type Property struct {
	Name       string
	Schema     Validator
	Default    any
	HasDefault bool
}

// PatternProperty is a compiled "patternProperties" entry.
type PatternProperty struct {
	Pattern *regexp.Regexp
	Schema  Validator
}

// Dependent is a compiled "dependentRequired" or "dependentSchemas" entry,
// applied when Name is present in the instance.
type Dependent struct {
	Name   string
	Schema Validator
}

// ObjectValidator walks the properties of an object instance.
type ObjectValidator struct {
	base
	properties        []Property
	byName            map[string]int
	patternProperties []PatternProperty
	additional        Validator
	additionalRef     string
	dependentRequired []Dependent
	dependentSchemas  []Dependent
	propertyNames     Validator
}

// ObjectConfig holds the parts of an ObjectValidator. Every field is
// optional.
type ObjectConfig struct {
	Properties        []Property
	PatternProperties []PatternProperty
	Additional        Validator
	DependentRequired []Dependent
	DependentSchemas  []Dependent
	PropertyNames     Validator
}

// NewObject creates an object validator.
func NewObject(ref string, cfg ObjectConfig) *ObjectValidator {
	v := &ObjectValidator{
		base:              base{ref: ref},
		properties:        cfg.Properties,
		byName:            make(map[string]int, len(cfg.Properties)),
		patternProperties: cfg.PatternProperties,
		additional:        cfg.Additional,
		dependentRequired: cfg.DependentRequired,
		dependentSchemas:  cfg.DependentSchemas,
		propertyNames:     cfg.PropertyNames,
	}
	for i, p := range cfg.Properties {
		if _, dup := v.byName[p.Name]; !dup {
			v.byName[p.Name] = i
		}
	}
	if v.additional != nil {
		v.additionalRef = v.additional.Reference()
	}
	return v
}

// Validate implements Validator.
func (v *ObjectValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, evaluated Props) {
	obj, ok := instance.(map[string]any)
	if !ok {
		return
	}

	stopped := false
	for _, name := range value.SortedKeys(obj) {
		if v.propertyNames != nil {
			validateChild(ctx, v.propertyNames, name, loc)
			if ctx.stop() {
				stopped = true
				break
			}
		}
		if !v.validateProperty(ctx, name, obj[name], loc.Append(name), evaluated) {
			stopped = true
			break
		}
	}

	// Defaults do not depend on the outcome of the members.
	v.addDefaults(ctx, obj, loc)
	if stopped {
		return
	}

	for _, dep := range v.dependentRequired {
		if _, present := obj[dep.Name]; present {
			dep.Schema.Validate(ctx, instance, loc, evaluated)
			if ctx.stop() {
				return
			}
		}
	}
	for _, dep := range v.dependentSchemas {
		if _, present := obj[dep.Name]; present {
			dep.Schema.Validate(ctx, instance, loc, evaluated)
			if ctx.stop() {
				return
			}
		}
	}
}

func (v *ObjectValidator) addDefaults(ctx *Context, obj map[string]any, loc pointer.Pointer) {
	if ctx.Patch == nil {
		return
	}
	for _, p := range v.properties {
		if _, present := obj[p.Name]; !present && p.HasDefault {
			ctx.Patch.Add(loc.Append(p.Name), p.Default)
		}
	}
}

// validateProperty runs the properties, patternProperties and
// additionalProperties schemas for one member. It returns false when
// evaluation must stop.
func (v *ObjectValidator) validateProperty(ctx *Context, name string, member any, loc pointer.Pointer, evaluated Props) bool {
	matched := false

	if i, ok := v.byName[name]; ok {
		matched = true
		mark := ctx.Reporter.ErrorCount()
		validateChild(ctx, v.properties[i].Schema, member, loc)
		if ctx.Reporter.ErrorCount() == mark {
			evaluated.Add(name)
		}
		if ctx.stop() {
			return false
		}
	}

	for _, pp := range v.patternProperties {
		if !pp.Pattern.MatchString(name) {
			continue
		}
		matched = true
		mark := ctx.Reporter.ErrorCount()
		validateChild(ctx, pp.Schema, member, loc)
		if ctx.Reporter.ErrorCount() == mark {
			evaluated.Add(name)
		}
		if ctx.stop() {
			return false
		}
	}

	if matched || v.additional == nil {
		return true
	}

	lctx, col := ctx.local()
	validateChild(lctx, v.additional, member, loc)
	if col.ErrorCount() == 0 {
		evaluated.Add(name)
		return true
	}
	ctx.report("additionalProperties", v.additionalRef, loc,
		output.Message(output.MsgAdditionalProp, output.Params{"name": name}), col.Outputs()...)
	return !ctx.stop()
}

// RequiredValidator is "required" and each "dependentRequired" entry.
type RequiredValidator struct {
	base
	names []string
}

// NewRequired creates a required-properties check.
func NewRequired(ref string, names []string) *RequiredValidator {
	return &RequiredValidator{base: base{ref: ref}, names: names}
}

// Validate implements Validator. Every missing name is reported.
func (v *RequiredValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, _ Props) {
	obj, ok := instance.(map[string]any)
	if !ok {
		return
	}
	for _, name := range v.names {
		if _, present := obj[name]; present {
			continue
		}
		ctx.report("required", v.ref, loc, output.Message(output.MsgRequired, output.Params{"name": name}))
		if ctx.stop() {
			return
		}
	}
}

// UnevaluatedPropertiesValidator is "unevaluatedProperties". It must run
// after every sibling keyword that can evaluate properties.
type UnevaluatedPropertiesValidator struct {
	base
	schema Validator
}

// NewUnevaluatedProperties creates an unevaluatedProperties validator.
func NewUnevaluatedProperties(ref string, s Validator) *UnevaluatedPropertiesValidator {
	return &UnevaluatedPropertiesValidator{base: base{ref: ref}, schema: s}
}

// Validate implements Validator.
func (v *UnevaluatedPropertiesValidator) Validate(ctx *Context, instance any, loc pointer.Pointer, evaluated Props) {
	obj, ok := instance.(map[string]any)
	if !ok {
		return
	}
	for _, name := range value.SortedKeys(obj) {
		if evaluated.Has(name) {
			continue
		}
		mark := ctx.Reporter.ErrorCount()
		validateChild(ctx, v.schema, obj[name], loc.Append(name))
		if ctx.Reporter.ErrorCount() == mark {
			evaluated.Add(name)
		}
		if ctx.stop() {
			return
		}
	}
}
