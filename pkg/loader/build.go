package loader

import (
	"fmt"
	"strings"

	"github.com/grafana/regexp"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/gofhir/jsonschema/pkg/pointer"
	"github.com/gofhir/jsonschema/pkg/registry"
	"github.com/gofhir/jsonschema/pkg/schema"
	"github.com/gofhir/jsonschema/pkg/uri"
	"github.com/gofhir/jsonschema/pkg/value"
)

var anchorPattern = regexp.MustCompile(`^[A-Za-z][-A-Za-z0-9.:_]*$`)

// location is where a schema sits: inside the resource identified by base,
// and inside the document being built.
type location struct {
	base string
	ptr  pointer.Pointer
	doc  pointer.Pointer
}

func (l location) child(tokens ...string) location {
	for _, t := range tokens {
		l.ptr = l.ptr.Append(t)
		l.doc = l.doc.Append(t)
	}
	return l
}

func (l location) index(i int) location {
	l.ptr = l.ptr.AppendIndex(i)
	l.doc = l.doc.AppendIndex(i)
	return l
}

// builder turns one parsed document into schema nodes and registers every
// location it creates.
type builder struct {
	reg    *registry.Registry
	draft  Draft
	docURI string
	refs   []string
	// trees are the definition schemas built so far. They are not
	// reachable through keywords, so the recursive pass visits them
	// separately.
	trees []schema.Node
	errs  error
}

func (b *builder) fail(err error) {
	b.errs = multierr.Append(b.errs, err)
}

func (b *builder) invalid(l location, keyword, format string, args ...any) {
	b.fail(schema.Errorf(b.uri(l), keyword, schema.ErrInvalidKeyword, format, args...))
}

// uri returns the canonical URI of l.
func (b *builder) uri(l location) string {
	u, err := uri.FromPointer(l.base, string(l.ptr))
	if err != nil {
		b.fail(&schema.SchemaError{URI: l.base, Err: err})
		return l.base + l.ptr.Fragment()
	}
	return u
}

func (b *builder) register(u string, n schema.Node) {
	if err := b.reg.Add(u, n); err != nil {
		b.fail(err)
	}
}

// registerNode adds n under its own reference and its document location.
func (b *builder) registerNode(n schema.Node, l location) {
	b.register(n.Reference(), n)
	if docLoc, err := uri.FromPointer(b.docURI, string(l.doc)); err == nil && docLoc != n.Reference() {
		b.register(docLoc, n)
	}
}

func (b *builder) schema(raw any, l location) schema.Node {
	switch v := raw.(type) {
	case bool:
		n := &schema.BoolNode{Ref: b.uri(l), Value: v}
		b.registerNode(n, l)
		return n
	case object:
		return b.object(v, l)
	default:
		b.fail(schema.Errorf(b.uri(l), "", schema.ErrInvalidSchema, "expected boolean or object, found %s", kindName(raw)))
		return &schema.BoolNode{Ref: b.uri(l), Value: true}
	}
}

func (b *builder) object(o object, l location) schema.Node {
	outer := b.uri(l)
	l, anchor := b.identify(o, l)

	n := &schema.ObjectNode{Ref: b.uri(l)}
	b.registerNode(n, l)
	if outer != n.Ref {
		b.register(outer, n)
	}
	if anchor != "" {
		b.register(anchor, n)
	}

	if b.draft >= Draft201909 {
		if a, ok := o.get("$anchor"); ok {
			s, isString := a.(string)
			if !isString || !anchorPattern.MatchString(s) {
				b.invalid(l, "$anchor", "invalid anchor %v", a)
			} else if u, err := uri.Resolve(l.base, "#"+s); err == nil {
				b.register(u, n)
			}
		}
		if a, ok := o.get("$recursiveAnchor"); ok {
			recursive, isBool := a.(bool)
			if !isBool {
				b.invalid(l, "$recursiveAnchor", "must be a boolean")
			}
			n.RecursiveAnchor = recursive
		}
	}
	if d, ok := o.get("default"); ok {
		n.Default = plain(d)
		n.HasDefault = true
	}

	b.definitions(o, l, "definitions")
	if b.draft >= Draft201909 {
		b.definitions(o, l, "$defs")
	}

	if r, ok := o.get("$ref"); ok {
		if kw := b.reference(r, l, "$ref"); kw != nil {
			n.Keywords = append(n.Keywords, &schema.Ref{Loc: schema.Loc{Ref: kw.Ref}})
		}
		if b.draft == Draft7 {
			// Draft 7 ignores the siblings of $ref.
			return n
		}
	}
	if b.draft >= Draft201909 {
		if r, ok := o.get("$recursiveRef"); ok {
			if kw := b.reference(r, l, "$recursiveRef"); kw != nil {
				n.Keywords = append(n.Keywords, &schema.RecursiveRef{Loc: *kw})
			}
		}
	}

	n.Keywords = append(n.Keywords, b.typeKeyword(o, l))

	if e, ok := o.get("enum"); ok {
		items, isArray := e.([]any)
		if !isArray {
			b.invalid(l, "enum", "must be an array")
		} else {
			n.Keywords = append(n.Keywords, &schema.Enum{Loc: b.loc(l, "enum"), Values: plain(items).([]any)})
		}
	}
	if c, ok := o.get("const"); ok {
		n.Keywords = append(n.Keywords, &schema.Const{Loc: b.loc(l, "const"), Value: plain(c)})
	}
	if s, ok := o.get("not"); ok {
		n.Keywords = append(n.Keywords, &schema.Not{Loc: b.loc(l, "not"), Schema: b.schema(s, l.child("not"))})
	}
	for _, op := range []schema.CombinatorOp{schema.AllOf, schema.AnyOf, schema.OneOf} {
		if kw := b.combinator(o, l, op); kw != nil {
			n.Keywords = append(n.Keywords, kw)
		}
	}

	var then, els schema.Node
	if s, ok := o.get("then"); ok {
		then = b.schema(s, l.child("then"))
	}
	if s, ok := o.get("else"); ok {
		els = b.schema(s, l.child("else"))
	}
	if s, ok := o.get("if"); ok {
		n.Keywords = append(n.Keywords, &schema.Conditional{
			Loc:  b.loc(l, "if"),
			If:   b.schema(s, l.child("if")),
			Then: then,
			Else: els,
		})
	}

	if b.draft >= Draft201909 {
		if s, ok := o.get("unevaluatedProperties"); ok {
			n.Keywords = append(n.Keywords, &schema.UnevaluatedProperties{
				Loc:    b.loc(l, "unevaluatedProperties"),
				Schema: b.schema(s, l.child("unevaluatedProperties")),
			})
		}
	}
	return n
}

// identify applies "$id". A new resource base restarts the resource
// pointer. A plain-name fragment is returned as an anchor URI.
func (b *builder) identify(o object, l location) (location, string) {
	raw, ok := o.get("$id")
	if !ok {
		return l, ""
	}
	id, isString := raw.(string)
	if !isString {
		b.invalid(l, "$id", "must be a string")
		return l, ""
	}
	resolved, err := uri.Resolve(l.base, id)
	if err != nil {
		b.fail(&schema.SchemaError{URI: b.uri(l), Keyword: "$id", Err: err})
		return l, ""
	}
	base, frag := uri.Split(resolved)
	var anchor string
	if frag != "" && !strings.HasPrefix(frag, "/") {
		anchor = resolved
	}
	if strings.HasPrefix(id, "#") {
		return l, anchor
	}
	return location{base: base, ptr: pointer.Root, doc: l.doc}, anchor
}

func (b *builder) loc(l location, keyword string) schema.Loc {
	return schema.Loc{Ref: b.uri(l.child(keyword))}
}

func (b *builder) definitions(o object, l location, keyword string) {
	raw, ok := o.get(keyword)
	if !ok {
		return
	}
	defs, isObject := raw.(object)
	if !isObject {
		b.invalid(l, keyword, "must be an object")
		return
	}
	for _, m := range defs {
		b.trees = append(b.trees, b.schema(m.val, l.child(keyword, m.key)))
	}
}

// reference resolves a "$ref" or "$recursiveRef" value against the
// enclosing base and queues its target for loading.
func (b *builder) reference(raw any, l location, keyword string) *schema.Loc {
	s, ok := raw.(string)
	if !ok {
		b.invalid(l, keyword, "must be a string")
		return nil
	}
	target, err := uri.Resolve(l.base, s)
	if err != nil {
		b.fail(&schema.SchemaError{URI: b.uri(l), Keyword: keyword, Err: err})
		return nil
	}
	b.refs = append(b.refs, target)
	return &schema.Loc{Ref: target}
}

func (b *builder) combinator(o object, l location, op schema.CombinatorOp) schema.Keyword {
	keyword := op.String()
	raw, ok := o.get(keyword)
	if !ok {
		return nil
	}
	items, isArray := raw.([]any)
	if !isArray || len(items) == 0 {
		b.invalid(l, keyword, "must be a non-empty array")
		return nil
	}
	kw := &schema.Combinator{Loc: b.loc(l, keyword), Op: op}
	for i, item := range items {
		kw.Schemas = append(kw.Schemas, b.schema(item, l.child(keyword).index(i)))
	}
	return kw
}

func (b *builder) typeKeyword(o object, l location) *schema.Type {
	kw := &schema.Type{Loc: b.loc(l, "type"), Groups: make(map[value.Kind][]schema.Keyword)}

	strs := b.stringKeywords(o, l)
	numbers := b.numberKeywords(o, l)
	arrays := b.arrayKeywords(o, l)
	objects := b.objectKeywords(o, l)

	groupOf := func(k value.Kind) []schema.Keyword {
		switch k {
		case value.String:
			return strs
		case value.Integer, value.Number:
			return numbers
		case value.Array:
			return arrays
		case value.Object:
			return objects
		default:
			return nil
		}
	}

	raw, ok := o.get("type")
	if !ok {
		for _, k := range value.Kinds {
			kw.Groups[k] = groupOf(k)
		}
		return kw
	}

	var names []string
	switch t := raw.(type) {
	case string:
		names = []string{t}
	case []any:
		for _, item := range t {
			s, isString := item.(string)
			if !isString {
				b.invalid(l, "type", "must be a string or an array of strings")
				continue
			}
			names = append(names, s)
		}
	default:
		b.invalid(l, "type", "must be a string or an array of strings")
	}
	for _, name := range names {
		k, known := value.ParseKind(name)
		if !known {
			b.invalid(l, "type", "unknown type %q", name)
			continue
		}
		kw.Expected = append(kw.Expected, name)
		kw.Groups[k] = groupOf(k)
	}
	return kw
}

func (b *builder) stringKeywords(o object, l location) []schema.Keyword {
	var out []schema.Keyword
	out = b.appendLength(out, o, l, schema.MaxLength)
	out = b.appendLength(out, o, l, schema.MinLength)

	encoding, _ := o.get("contentEncoding")
	if encoding != nil {
		s, ok := encoding.(string)
		if !ok {
			b.invalid(l, "contentEncoding", "must be a string")
		} else {
			out = append(out, &schema.ContentEncoding{Loc: b.loc(l, "contentEncoding"), Encoding: s})
		}
	}
	if raw, ok := o.get("contentMediaType"); ok {
		s, isString := raw.(string)
		if !isString {
			b.invalid(l, "contentMediaType", "must be a string")
		} else {
			enc, _ := encoding.(string)
			out = append(out, &schema.ContentMediaType{Loc: b.loc(l, "contentMediaType"), MediaType: s, Encoding: enc})
		}
	}
	if raw, ok := o.get("pattern"); ok {
		s, isString := raw.(string)
		if !isString {
			b.invalid(l, "pattern", "must be a string")
		} else {
			out = append(out, &schema.Pattern{Loc: b.loc(l, "pattern"), Source: s})
		}
	}
	if raw, ok := o.get("format"); ok {
		s, isString := raw.(string)
		if !isString {
			b.invalid(l, "format", "must be a string")
		} else {
			out = append(out, &schema.Format{Loc: b.loc(l, "format"), Format: s})
		}
	}
	return out
}

func (b *builder) numberKeywords(o object, l location) []schema.Keyword {
	var out []schema.Keyword
	for _, kind := range []schema.BoundKind{schema.Maximum, schema.ExclusiveMaximum, schema.Minimum, schema.ExclusiveMinimum} {
		keyword := kind.String()
		raw, ok := o.get(keyword)
		if !ok {
			continue
		}
		d, isNumber := value.Decimal(raw)
		if !isNumber {
			b.invalid(l, keyword, "must be a number")
			continue
		}
		out = append(out, &schema.Bound{Loc: b.loc(l, keyword), Kind: kind, Limit: d})
	}
	if raw, ok := o.get("multipleOf"); ok {
		d, isNumber := value.Decimal(raw)
		if !isNumber || !d.IsPositive() {
			b.invalid(l, "multipleOf", "must be a number greater than 0")
		} else {
			out = append(out, &schema.MultipleOf{Loc: b.loc(l, "multipleOf"), Divisor: d})
		}
	}
	return out
}

func (b *builder) arrayKeywords(o object, l location) []schema.Keyword {
	var out []schema.Keyword
	out = b.appendLength(out, o, l, schema.MaxItems)
	out = b.appendLength(out, o, l, schema.MinItems)

	if raw, ok := o.get("uniqueItems"); ok {
		unique, isBool := raw.(bool)
		switch {
		case !isBool:
			b.invalid(l, "uniqueItems", "must be a boolean")
		case unique:
			out = append(out, &schema.UniqueItems{Loc: b.loc(l, "uniqueItems")})
		}
	}

	if raw, ok := o.get("items"); ok {
		if items, isArray := raw.([]any); isArray {
			kw := &schema.ItemsArray{Loc: b.loc(l, "items")}
			for i, item := range items {
				kw.Items = append(kw.Items, b.schema(item, l.child("items").index(i)))
			}
			if additional, ok := o.get("additionalItems"); ok {
				kw.Additional = b.schema(additional, l.child("additionalItems"))
			}
			out = append(out, kw)
		} else {
			out = append(out, &schema.ItemsObject{Loc: b.loc(l, "items"), Schema: b.schema(raw, l.child("items"))})
		}
	}

	if raw, ok := o.get("contains"); ok {
		out = append(out, &schema.Contains{Loc: b.loc(l, "contains"), Schema: b.schema(raw, l.child("contains"))})
	}
	return out
}

func (b *builder) objectKeywords(o object, l location) []schema.Keyword {
	var out []schema.Keyword
	out = b.appendLength(out, o, l, schema.MaxProperties)
	out = b.appendLength(out, o, l, schema.MinProperties)

	if raw, ok := o.get("required"); ok {
		if names, valid := b.names(raw, l, "required"); valid {
			out = append(out, &schema.Required{Loc: b.loc(l, "required"), Names: names})
		}
	}

	kw := &schema.Object{Loc: b.loc(l, "properties")}
	present := false

	if raw, ok := o.get("properties"); ok {
		present = true
		props, isObject := raw.(object)
		if !isObject {
			b.invalid(l, "properties", "must be an object")
		}
		for _, m := range props {
			kw.Properties = append(kw.Properties, schema.Property{
				Name:   m.key,
				Schema: b.schema(m.val, l.child("properties", m.key)),
			})
		}
	}
	if raw, ok := o.get("patternProperties"); ok {
		present = true
		props, isObject := raw.(object)
		if !isObject {
			b.invalid(l, "patternProperties", "must be an object")
		}
		for _, m := range props {
			kw.PatternProperties = append(kw.PatternProperties, schema.PatternProperty{
				Pattern: m.key,
				Schema:  b.schema(m.val, l.child("patternProperties", m.key)),
			})
		}
	}
	if raw, ok := o.get("additionalProperties"); ok {
		present = true
		kw.Additional = b.schema(raw, l.child("additionalProperties"))
	}
	if raw, ok := o.get("dependencies"); ok {
		present = true
		b.dependencies(kw, raw, l)
	}
	if b.draft >= Draft201909 {
		if raw, ok := o.get("dependentRequired"); ok {
			present = true
			deps, isObject := raw.(object)
			if !isObject {
				b.invalid(l, "dependentRequired", "must be an object")
			}
			for _, m := range deps {
				dl := l.child("dependentRequired", m.key)
				if names, valid := b.names(m.val, dl, "dependentRequired"); valid {
					kw.DependentRequired = append(kw.DependentRequired, schema.DependentRequired{
						Name:     m.key,
						Required: &schema.Required{Loc: schema.Loc{Ref: b.uri(dl)}, Names: names},
					})
				}
			}
		}
		if raw, ok := o.get("dependentSchemas"); ok {
			present = true
			deps, isObject := raw.(object)
			if !isObject {
				b.invalid(l, "dependentSchemas", "must be an object")
			}
			for _, m := range deps {
				kw.DependentSchemas = append(kw.DependentSchemas, schema.DependentSchema{
					Name:   m.key,
					Schema: b.schema(m.val, l.child("dependentSchemas", m.key)),
				})
			}
		}
	}
	if raw, ok := o.get("propertyNames"); ok {
		present = true
		kw.PropertyNames = b.schema(raw, l.child("propertyNames"))
	}

	if present {
		out = append(out, kw)
	}
	return out
}

// dependencies splits the draft 7 keyword: array values are required
// names, anything else is a schema.
func (b *builder) dependencies(kw *schema.Object, raw any, l location) {
	deps, isObject := raw.(object)
	if !isObject {
		b.invalid(l, "dependencies", "must be an object")
		return
	}
	for _, m := range deps {
		dl := l.child("dependencies", m.key)
		if _, isArray := m.val.([]any); isArray {
			if names, valid := b.names(m.val, dl, "dependencies"); valid {
				kw.DependentRequired = append(kw.DependentRequired, schema.DependentRequired{
					Name:     m.key,
					Required: &schema.Required{Loc: schema.Loc{Ref: b.uri(dl)}, Names: names},
				})
			}
			continue
		}
		kw.DependentSchemas = append(kw.DependentSchemas, schema.DependentSchema{
			Name:   m.key,
			Schema: b.schema(m.val, dl),
		})
	}
}

func (b *builder) names(raw any, l location, keyword string) ([]string, bool) {
	items, ok := raw.([]any)
	if !ok {
		b.invalid(l, keyword, "must be an array of strings")
		return nil, false
	}
	names := make([]string, 0, len(items))
	for _, item := range items {
		s, isString := item.(string)
		if !isString {
			b.invalid(l, keyword, "must be an array of strings")
			return nil, false
		}
		names = append(names, s)
	}
	return names, true
}

func (b *builder) appendLength(out []schema.Keyword, o object, l location, kind schema.LengthKind) []schema.Keyword {
	keyword := kind.String()
	raw, ok := o.get(keyword)
	if !ok {
		return out
	}
	limit, valid := nonNegativeInt(raw)
	if !valid {
		b.invalid(l, keyword, "must be a non-negative integer")
		return out
	}
	return append(out, &schema.Length{Loc: b.loc(l, keyword), Kind: kind, Limit: limit})
}

var maxInt = decimal.NewFromInt(int64(^uint(0) >> 1))

func nonNegativeInt(raw any) (int, bool) {
	d, ok := value.Decimal(raw)
	if !ok || !d.IsInteger() || d.IsNegative() {
		return 0, false
	}
	if d.GreaterThan(maxInt) {
		d = maxInt
	}
	return int(d.IntPart()), true
}

func kindName(raw any) string {
	switch raw.(type) {
	case object:
		return "object"
	case []any:
		return "array"
	case nil:
		return "null"
	case string:
		return "string"
	default:
		if value.IsNumber(raw) {
			return "number"
		}
		return fmt.Sprintf("%T", raw)
	}
}
