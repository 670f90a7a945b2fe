package schema

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/gofhir/jsonschema/pkg/value"
)

// Keyword is one constraint of a schema object. The set of implementations
// is closed; code that handles keywords switches over every type below.
type Keyword interface {
	// Reference is the keyword's location, e.g. "#/properties/a/maxLength".
	Reference() string
	// Name is the keyword as it appears in outputs.
	Name() string
	isKeyword()
}

// Loc carries a keyword's location.
type Loc struct {
	Ref string
}

// Reference implements Keyword.
func (l Loc) Reference() string { return l.Ref }

func (Loc) isKeyword() {}

// Ref is "$ref". Its location is the resolved target URI, used as the
// registry key.
type Ref struct {
	Loc
}

// Name implements Keyword.
func (*Ref) Name() string { return "$ref" }

// RecursiveRef is "$recursiveRef". Loc holds the static target; Target is
// filled by ResolveRecursiveRefs.
type RecursiveRef struct {
	Loc
	Target string
}

// Name implements Keyword.
func (*RecursiveRef) Name() string { return "$recursiveRef" }

// Type is "type" together with the keywords that only apply to one kind of
// instance. A kind present in Groups is accepted; a schema without "type"
// accepts every kind.
type Type struct {
	Loc
	// Expected lists the declared type names in declaration order. Empty
	// when the schema had no "type" keyword.
	Expected []string
	Groups   map[value.Kind][]Keyword
}

// Name implements Keyword.
func (*Type) Name() string { return "type" }

// Accepts reports whether instances of kind k are allowed.
func (t *Type) Accepts(k value.Kind) bool {
	_, ok := t.Groups[k]
	return ok
}

// Enum is "enum".
type Enum struct {
	Loc
	Values []any
}

// Name implements Keyword.
func (*Enum) Name() string { return "enum" }

// Const is "const".
type Const struct {
	Loc
	Value any
}

// Name implements Keyword.
func (*Const) Name() string { return "const" }

// Not is "not".
type Not struct {
	Loc
	Schema Node
}

// Name implements Keyword.
func (*Not) Name() string { return "not" }

// CombinatorOp selects allOf, anyOf or oneOf.
type CombinatorOp uint8

// Combinator operations.
const (
	AllOf CombinatorOp = iota
	AnyOf
	OneOf
)

// String returns the keyword name.
func (op CombinatorOp) String() string {
	switch op {
	case AllOf:
		return "allOf"
	case AnyOf:
		return "anyOf"
	case OneOf:
		return "oneOf"
	default:
		return fmt.Sprintf("CombinatorOp(%d)", uint8(op))
	}
}

// Combinator is "allOf", "anyOf" or "oneOf".
type Combinator struct {
	Loc
	Op      CombinatorOp
	Schemas []Node
}

// Name implements Keyword.
func (c *Combinator) Name() string { return c.Op.String() }

// Conditional is "if" with its optional "then" and "else".
type Conditional struct {
	Loc
	If, Then, Else Node
}

// Name implements Keyword.
func (*Conditional) Name() string { return "if" }

// UnevaluatedProperties is "unevaluatedProperties".
type UnevaluatedProperties struct {
	Loc
	Schema Node
}

// Name implements Keyword.
func (*UnevaluatedProperties) Name() string { return "unevaluatedProperties" }

// LengthKind selects which size a Length constrains.
type LengthKind uint8

// Length kinds.
const (
	MaxLength LengthKind = iota
	MinLength
	MaxItems
	MinItems
	MaxProperties
	MinProperties
)

var lengthNames = [...]string{"maxLength", "minLength", "maxItems", "minItems", "maxProperties", "minProperties"}

// String returns the keyword name.
func (k LengthKind) String() string {
	if int(k) < len(lengthNames) {
		return lengthNames[k]
	}
	return fmt.Sprintf("LengthKind(%d)", uint8(k))
}

// IsMax reports whether the limit is an upper bound.
func (k LengthKind) IsMax() bool {
	return k == MaxLength || k == MaxItems || k == MaxProperties
}

// Length is a size bound on strings, arrays or objects.
type Length struct {
	Loc
	Kind  LengthKind
	Limit int
}

// Name implements Keyword.
func (l *Length) Name() string { return l.Kind.String() }

// Pattern is "pattern". The source is compiled by the compiler.
type Pattern struct {
	Loc
	Source string
}

// Name implements Keyword.
func (*Pattern) Name() string { return "pattern" }

// Format is "format".
type Format struct {
	Loc
	Format string
}

// Name implements Keyword.
func (*Format) Name() string { return "format" }

// ContentEncoding is "contentEncoding".
type ContentEncoding struct {
	Loc
	Encoding string
}

// Name implements Keyword.
func (*ContentEncoding) Name() string { return "contentEncoding" }

// ContentMediaType is "contentMediaType". Encoding is the sibling
// contentEncoding, applied before the media type is checked.
type ContentMediaType struct {
	Loc
	MediaType string
	Encoding  string
}

// Name implements Keyword.
func (*ContentMediaType) Name() string { return "contentMediaType" }

// BoundKind selects the comparison of a Bound.
type BoundKind uint8

// Bound kinds.
const (
	Maximum BoundKind = iota
	ExclusiveMaximum
	Minimum
	ExclusiveMinimum
)

var boundNames = [...]string{"maximum", "exclusiveMaximum", "minimum", "exclusiveMinimum"}

// String returns the keyword name.
func (k BoundKind) String() string {
	if int(k) < len(boundNames) {
		return boundNames[k]
	}
	return fmt.Sprintf("BoundKind(%d)", uint8(k))
}

// Bound is a numeric limit.
type Bound struct {
	Loc
	Kind  BoundKind
	Limit decimal.Decimal
}

// Name implements Keyword.
func (b *Bound) Name() string { return b.Kind.String() }

// MultipleOf is "multipleOf".
type MultipleOf struct {
	Loc
	Divisor decimal.Decimal
}

// Name implements Keyword.
func (*MultipleOf) Name() string { return "multipleOf" }

// UniqueItems is "uniqueItems": true. A false value produces no keyword.
type UniqueItems struct {
	Loc
}

// Name implements Keyword.
func (*UniqueItems) Name() string { return "uniqueItems" }

// ItemsArray is the array form of "items" plus "additionalItems".
type ItemsArray struct {
	Loc
	Items      []Node
	Additional Node
}

// Name implements Keyword.
func (*ItemsArray) Name() string { return "items" }

// ItemsObject is the single-schema form of "items".
type ItemsObject struct {
	Loc
	Schema Node
}

// Name implements Keyword.
func (*ItemsObject) Name() string { return "items" }

// Contains is "contains".
type Contains struct {
	Loc
	Schema Node
}

// Name implements Keyword.
func (*Contains) Name() string { return "contains" }

// Required is "required", also used for each "dependentRequired" entry.
type Required struct {
	Loc
	Names []string
}

// Name implements Keyword.
func (*Required) Name() string { return "required" }

// Property is one "properties" entry.
type Property struct {
	Name   string
	Schema Node
}

// PatternProperty is one "patternProperties" entry.
type PatternProperty struct {
	Pattern string
	Schema  Node
}

// DependentRequired is one "dependentRequired" entry.
type DependentRequired struct {
	Name     string
	Required *Required
}

// DependentSchema is one "dependentSchemas" entry.
type DependentSchema struct {
	Name   string
	Schema Node
}

// Object groups the keywords that walk the properties of an instance.
// Properties keep document order.
type Object struct {
	Loc
	Properties        []Property
	PatternProperties []PatternProperty
	Additional        Node
	DependentRequired []DependentRequired
	DependentSchemas  []DependentSchema
	PropertyNames     Node
}

// Name implements Keyword.
func (*Object) Name() string { return "properties" }

// Subschemas returns the schemas directly below kw, in declaration order.
func Subschemas(kw Keyword) []Node {
	switch kw := kw.(type) {
	case *Ref, *RecursiveRef, *Enum, *Const, *Length, *Pattern, *Format,
		*ContentEncoding, *ContentMediaType, *Bound, *MultipleOf,
		*UniqueItems, *Required:
		return nil
	case *Type:
		var out []Node
		for _, k := range value.Kinds {
			for _, sub := range kw.Groups[k] {
				out = append(out, Subschemas(sub)...)
			}
		}
		return out
	case *Not:
		return []Node{kw.Schema}
	case *Combinator:
		return kw.Schemas
	case *Conditional:
		return nonNil(kw.If, kw.Then, kw.Else)
	case *UnevaluatedProperties:
		return []Node{kw.Schema}
	case *ItemsArray:
		return append(append([]Node(nil), kw.Items...), nonNil(kw.Additional)...)
	case *ItemsObject:
		return []Node{kw.Schema}
	case *Contains:
		return []Node{kw.Schema}
	case *Object:
		var out []Node
		out = append(out, nonNil(kw.PropertyNames)...)
		for _, p := range kw.Properties {
			out = append(out, p.Schema)
		}
		for _, p := range kw.PatternProperties {
			out = append(out, p.Schema)
		}
		out = append(out, nonNil(kw.Additional)...)
		for _, d := range kw.DependentSchemas {
			out = append(out, d.Schema)
		}
		return out
	default:
		panic(fmt.Sprintf("schema: unhandled keyword %T", kw))
	}
}

func nonNil(nodes ...Node) []Node {
	out := nodes[:0:0]
	for _, n := range nodes {
		if n != nil {
			out = append(out, n)
		}
	}
	return out
}
