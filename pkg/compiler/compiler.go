// Package compiler turns a declarative schema tree into a validator tree.
//
// A compile runs in a session that memoizes reference targets by node,
// absolute URI and dynamic scope. A reference reached again while its target
// is still being built gets the same validation.Cell, so recursive schemas
// compile to a graph instead of recursing forever.
package compiler

import (
	"fmt"
	"slices"

	"go.uber.org/multierr"

	"github.com/gofhir/jsonschema/pkg/format"
	"github.com/gofhir/jsonschema/pkg/schema"
	"github.com/gofhir/jsonschema/pkg/uri"
	"github.com/gofhir/jsonschema/pkg/validation"
	"github.com/gofhir/jsonschema/pkg/value"
)

// Compile builds the validator for root. Keyword locations are resolved
// against base, so the same tree compiled with two bases yields validators
// that differ only in their references. Every problem found is returned,
// aggregated; no validator is returned alongside an error.
func Compile(root schema.Node, base string, reg schema.Lookup, opts ...Option) (validation.Validator, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	s := &session{
		base: base,
		reg:  reg,
		opts: o,
		memo: make(map[memoKey]*validation.Cell),
	}
	v := s.node(root, scope{})

	if s.errs != nil {
		return nil, s.errs
	}
	o.Logger.Debug("compiled %s: %d reference targets", s.abs(root.Reference()), len(s.memo))
	return v, nil
}

// scope is the outermost schema in the current dynamic scope that declared
// "$recursiveAnchor": true. The zero value means no anchor is in scope.
type scope struct {
	anchor schema.Node
	abs    string
}

type memoKey struct {
	node   schema.Node
	abs    string
	anchor schema.Node
}

type session struct {
	base string
	reg  schema.Lookup
	opts *Options
	memo map[memoKey]*validation.Cell
	errs error
}

func (s *session) fail(err error) {
	s.errs = multierr.Append(s.errs, err)
}

// abs resolves a location against the compile base.
func (s *session) abs(ref string) string {
	resolved, err := uri.Resolve(s.base, ref)
	if err != nil {
		s.fail(&schema.SchemaError{URI: ref, Err: err})
		return ref
	}
	return resolved
}

func (s *session) node(n schema.Node, dyn scope) validation.Validator {
	abs := s.abs(n.Reference())
	switch n := n.(type) {
	case *schema.BoolNode:
		return validation.NewBool(abs, n.Value)
	case *schema.ObjectNode:
		if n.RecursiveAnchor && dyn.anchor == nil {
			dyn = scope{anchor: n, abs: abs}
		}
		keywords := make([]validation.Validator, 0, len(n.Keywords))
		var unevaluated []validation.Validator
		for _, kw := range n.Keywords {
			v := s.keyword(kw, dyn)
			if v == nil {
				continue
			}
			if _, ok := kw.(*schema.UnevaluatedProperties); ok {
				unevaluated = append(unevaluated, v)
				continue
			}
			keywords = append(keywords, v)
		}
		keywords = append(keywords, unevaluated...)
		return validation.NewSchema(abs, keywords)
	default:
		panic(fmt.Sprintf("compiler: unhandled node %T", n))
	}
}

// target compiles a reference target once per session and dynamic scope.
func (s *session) target(n schema.Node, dyn scope) validation.Validator {
	key := memoKey{node: n, abs: s.abs(n.Reference()), anchor: dyn.anchor}
	if c, ok := s.memo[key]; ok {
		return c
	}
	c := validation.NewCell(key.abs)
	s.memo[key] = c
	c.Set(s.node(n, dyn))
	return c
}

func (s *session) lookup(ref, keyword string) (schema.Node, bool) {
	n, err := s.reg.Get(ref)
	if err != nil {
		s.fail(&schema.SchemaError{URI: ref, Keyword: keyword, Err: schema.ErrUnresolvedReference})
		return nil, false
	}
	return n, true
}

func (s *session) nodes(ns []schema.Node, dyn scope) []validation.Validator {
	out := make([]validation.Validator, len(ns))
	for i, n := range ns {
		out[i] = s.node(n, dyn)
	}
	return out
}

func (s *session) optional(n schema.Node, dyn scope) validation.Validator {
	if n == nil {
		return nil
	}
	return s.node(n, dyn)
}

// keyword compiles one keyword. It returns nil for keywords that compile to
// nothing, such as annotation-only formats.
func (s *session) keyword(kw schema.Keyword, dyn scope) validation.Validator {
	ref := s.abs(kw.Reference())

	switch kw := kw.(type) {
	case *schema.Ref:
		n, ok := s.lookup(kw.Ref, kw.Name())
		if !ok {
			return nil
		}
		return validation.NewRef(ref, kw.Name(), s.target(n, dyn))

	case *schema.RecursiveRef:
		if kw.Target == "" {
			s.fail(&schema.SchemaError{URI: kw.Ref, Keyword: kw.Name(), Err: schema.ErrUnresolvedReference})
			return nil
		}
		n, ok := s.lookup(kw.Target, kw.Name())
		if !ok {
			return nil
		}
		if schema.IsRecursiveAnchor(n) && dyn.anchor != nil {
			n = dyn.anchor
			ref = dyn.abs
		} else {
			ref = s.abs(n.Reference())
		}
		return validation.NewRef(ref, kw.Name(), s.target(n, dyn))

	case *schema.Type:
		groups := make(map[value.Kind]validation.Validator, len(kw.Groups))
		for _, k := range value.Kinds {
			group, ok := kw.Groups[k]
			if !ok {
				continue
			}
			groups[k] = validation.NewGroup(ref, k, s.keywords(group, dyn))
		}
		return validation.NewType(ref, kw.Expected, groups)

	case *schema.Enum:
		return validation.NewEnum(ref, kw.Values)

	case *schema.Const:
		return validation.NewConst(ref, kw.Value)

	case *schema.Not:
		return validation.NewNot(ref, s.node(kw.Schema, dyn))

	case *schema.Combinator:
		return validation.NewCombinator(ref, kw.Op, s.nodes(kw.Schemas, dyn))

	case *schema.Conditional:
		return validation.NewConditional(ref, s.node(kw.If, dyn), s.optional(kw.Then, dyn), s.optional(kw.Else, dyn))

	case *schema.UnevaluatedProperties:
		return validation.NewUnevaluatedProperties(ref, s.node(kw.Schema, dyn))

	case *schema.Length:
		return validation.NewLength(ref, kw.Kind, kw.Limit)

	case *schema.Pattern:
		re, err := s.opts.Regex.Compile(kw.Source)
		if err != nil {
			s.fail(schema.Errorf(ref, kw.Name(), schema.ErrInvalidPattern, "%v", err))
			return nil
		}
		return validation.NewPattern(ref, re)

	case *schema.Format:
		if !s.opts.FormatAssertion {
			return nil
		}
		check, ok := format.Lookup(kw.Format)
		if !ok {
			s.opts.Logger.Debug("format %q at %s is not checked", kw.Format, ref)
			return nil
		}
		return validation.NewFormat(ref, kw.Format, check)

	case *schema.ContentEncoding:
		if !s.opts.ContentAssertion {
			return nil
		}
		return validation.NewContentEncoding(ref, kw.Encoding)

	case *schema.ContentMediaType:
		if !s.opts.ContentAssertion {
			return nil
		}
		return validation.NewContentMediaType(ref, kw.MediaType, kw.Encoding)

	case *schema.Bound:
		return validation.NewBound(ref, kw.Kind, kw.Limit)

	case *schema.MultipleOf:
		return validation.NewMultipleOf(ref, kw.Divisor)

	case *schema.UniqueItems:
		return validation.NewUniqueItems(ref)

	case *schema.ItemsArray:
		return validation.NewItemsArray(ref, s.nodes(kw.Items, dyn), s.optional(kw.Additional, dyn))

	case *schema.ItemsObject:
		return validation.NewItemsObject(ref, s.node(kw.Schema, dyn))

	case *schema.Contains:
		return validation.NewContains(ref, s.node(kw.Schema, dyn))

	case *schema.Required:
		return validation.NewRequired(ref, kw.Names)

	case *schema.Object:
		return s.object(ref, kw, dyn)

	default:
		panic(fmt.Sprintf("compiler: unhandled keyword %T", kw))
	}
}

func (s *session) keywords(kws []schema.Keyword, dyn scope) []validation.Validator {
	out := make([]validation.Validator, 0, len(kws))
	for _, kw := range kws {
		if v := s.keyword(kw, dyn); v != nil {
			out = append(out, v)
		}
	}
	return slices.Clip(out)
}

func (s *session) object(ref string, kw *schema.Object, dyn scope) validation.Validator {
	var cfg validation.ObjectConfig

	for _, p := range kw.Properties {
		def, hasDefault := schema.DefaultValue(p.Schema)
		cfg.Properties = append(cfg.Properties, validation.Property{
			Name:       p.Name,
			Schema:     s.node(p.Schema, dyn),
			Default:    def,
			HasDefault: hasDefault,
		})
	}

	for _, pp := range kw.PatternProperties {
		re, err := s.opts.Regex.Compile(pp.Pattern)
		if err != nil {
			s.fail(schema.Errorf(ref, "patternProperties", schema.ErrInvalidPattern, "%v", err))
			continue
		}
		cfg.PatternProperties = append(cfg.PatternProperties, validation.PatternProperty{
			Pattern: re,
			Schema:  s.node(pp.Schema, dyn),
		})
	}

	cfg.Additional = s.optional(kw.Additional, dyn)
	cfg.PropertyNames = s.optional(kw.PropertyNames, dyn)

	for _, d := range kw.DependentRequired {
		cfg.DependentRequired = append(cfg.DependentRequired, validation.Dependent{
			Name:   d.Name,
			Schema: validation.NewRequired(s.abs(d.Required.Reference()), d.Required.Names),
		})
	}
	for _, d := range kw.DependentSchemas {
		cfg.DependentSchemas = append(cfg.DependentSchemas, validation.Dependent{
			Name:   d.Name,
			Schema: s.node(d.Schema, dyn),
		})
	}

	return validation.NewObject(ref, cfg)
}
