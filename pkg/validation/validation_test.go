package validation

import (
	"testing"

	"github.com/grafana/regexp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/jsonschema/pkg/output"
	"github.com/gofhir/jsonschema/pkg/patch"
	"github.com/gofhir/jsonschema/pkg/schema"
	"github.com/gofhir/jsonschema/pkg/value"
)

func decode(t *testing.T, src string) any {
	t.Helper()
	v, err := value.Decode([]byte(src))
	require.NoError(t, err)
	return v
}

func run(t *testing.T, v Validator, src string, failEarly bool) []output.Output {
	t.Helper()
	col := output.NewCollector(failEarly)
	Evaluate(NewContext(col, nil, 0), v, decode(t, src))
	return col.Outputs()
}

// typed returns a schema accepting only the given kinds, with keywords
// applied to the first kind.
func typed(ref string, keywords []Validator, kinds ...value.Kind) Validator {
	groups := make(map[value.Kind]Validator, len(kinds))
	names := make([]string, 0, len(kinds))
	for i, k := range kinds {
		var kws []Validator
		if i == 0 {
			kws = keywords
		}
		groups[k] = NewGroup(ref+"/type", k, kws)
		names = append(names, k.String())
	}
	return NewSchema(ref, []Validator{NewType(ref+"/type", names, groups)})
}

func schemaOf(ref string, keywords ...Validator) Validator {
	return NewSchema(ref, keywords)
}

func TestBoolSchema(t *testing.T) {
	assert.Empty(t, run(t, NewBool("#", true), `{"a":1}`, false))

	outs := run(t, NewBool("#", false), `1`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "false", outs[0].Keyword())
	assert.Equal(t, "False schema always fails", outs[0].Message())
}

func TestType(t *testing.T) {
	integer := typed("#", nil, value.Integer)
	number := typed("#", nil, value.Number)

	tests := []struct {
		name     string
		v        Validator
		instance string
		wantMsg  string
	}{
		{"integer accepts integer", integer, `3`, ""},
		{"integer accepts integral decimal", integer, `3.0`, ""},
		{"integer rejects fraction", integer, `3.5`, "Instance is not an integer"},
		{"integer rejects string", integer, `"x"`, "Expected 1 type: integer, found string"},
		{"number accepts integer", number, `3`, ""},
		{"number accepts fraction", number, `3.5`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outs := run(t, tt.v, tt.instance, false)
			if tt.wantMsg == "" {
				assert.Empty(t, outs)
				return
			}
			require.Len(t, outs, 1)
			assert.Equal(t, "type", outs[0].Keyword())
			assert.Equal(t, tt.wantMsg, outs[0].Message())
		})
	}
}

func TestTypeListMessage(t *testing.T) {
	v := typed("#", nil, value.String, value.Null, value.Array)
	outs := run(t, v, `true`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "Expected 3 types: string, null, or array, found boolean", outs[0].Message())
}

func TestRequired(t *testing.T) {
	v := schemaOf("#", NewRequired("#/required", []string{"a"}))

	assert.Empty(t, run(t, v, `{"a":1}`, false))
	assert.Empty(t, run(t, v, `"not an object"`, false))

	outs := run(t, v, `{}`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "required", outs[0].Keyword())
	assert.Contains(t, outs[0].Message(), `"a"`)
}

func TestAdditionalPropertiesFalse(t *testing.T) {
	v := schemaOf("#", NewObject("#/properties", ObjectConfig{
		Properties: []Property{{Name: "a", Schema: typed("#/properties/a", nil, value.Integer)}},
		Additional: NewBool("#/additionalProperties", false),
	}))

	outs := run(t, v, `{"a":1,"b":2}`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "additionalProperties", outs[0].Keyword())
	assert.Equal(t, "/b", outs[0].InstanceLocation())
	assert.Equal(t, `Additional prop "b" found but was invalid.`, outs[0].Message())
}

func TestPatternProperties(t *testing.T) {
	v := schemaOf("#", NewObject("#/properties", ObjectConfig{
		PatternProperties: []PatternProperty{
			{Pattern: regexp.MustCompile("^s_"), Schema: typed("#/patternProperties/^s_", nil, value.String)},
			{Pattern: regexp.MustCompile("_x$"), Schema: typed("#/patternProperties/_x$", nil, value.Integer)},
		},
		Additional: NewBool("#/additionalProperties", false),
	}))

	assert.Empty(t, run(t, v, `{"s_a":"x","n_x":1}`, false))

	// both patterns apply to s_x
	outs := run(t, v, `{"s_x":"x"}`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "/s_x", outs[0].InstanceLocation())
	assert.Equal(t, "type", outs[0].Keyword())
}

func TestDefaultsPatch(t *testing.T) {
	x := NewSchema("#/properties/x", nil)
	v := schemaOf("#", NewObject("#/properties", ObjectConfig{
		Properties: []Property{{Name: "x", Schema: x, Default: 5, HasDefault: true}},
	}))

	var p patch.Patch
	col := output.NewCollector(false)
	Evaluate(NewContext(col, &p, 0), v, decode(t, `{}`))

	assert.Empty(t, col.Outputs())
	require.Len(t, p, 1)
	assert.Equal(t, patch.Operation{Op: "add", Path: "/x", Value: 5}, p[0])

	p = nil
	Evaluate(NewContext(output.NewCollector(false), &p, 0), v, decode(t, `{"x":1}`))
	assert.Empty(t, p)
}

func TestCombinators(t *testing.T) {
	str := typed("#/s", nil, value.String)
	long := typed("#/l", []Validator{NewLength("#/l/minLength", schema.MinLength, 3)}, value.String)
	integer := typed("#/i", nil, value.Integer)

	tests := []struct {
		name     string
		op       schema.CombinatorOp
		schemas  []Validator
		instance string
		wantMsg  string
	}{
		{"allOf passes", schema.AllOf, []Validator{str, long}, `"abcd"`, ""},
		{"allOf fails", schema.AllOf, []Validator{str, long}, `"ab"`, "At least one schema failed to match, but all are required to match."},
		{"anyOf passes", schema.AnyOf, []Validator{integer, str}, `"a"`, ""},
		{"anyOf fails", schema.AnyOf, []Validator{integer, str}, `true`, "No schema matched, but one of them is required to match"},
		{"oneOf integer", schema.OneOf, []Validator{str, long, integer}, `1`, ""},
		{"oneOf short string", schema.OneOf, []Validator{str, long, integer}, `"ab"`, ""},
		{"oneOf many", schema.OneOf, []Validator{str, long, integer}, `"abcd"`, "2 subschemas matched, but exactly one is required to match"},
		{"oneOf none", schema.OneOf, []Validator{str, long, integer}, `true`, "No schema matched, but one of them is required to match"},
	}
	for _, tt := range tests {
		for _, failEarly := range []bool{false, true} {
			t.Run(tt.name, func(t *testing.T) {
				v := NewCombinator("#/"+tt.op.String(), tt.op, tt.schemas)
				outs := run(t, v, tt.instance, failEarly)
				if tt.wantMsg == "" {
					assert.Empty(t, outs)
					return
				}
				require.Len(t, outs, 1)
				assert.Equal(t, tt.op.String(), outs[0].Keyword())
				assert.Equal(t, tt.wantMsg, outs[0].Message())
			})
		}
	}
}

func TestOneOfReportsManyMatchedOnce(t *testing.T) {
	v := NewCombinator("#/oneOf", schema.OneOf, []Validator{
		NewBool("#/oneOf/0", true), NewBool("#/oneOf/1", true), NewBool("#/oneOf/2", true),
	})
	outs := run(t, v, `null`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "2 subschemas matched, but exactly one is required to match", outs[0].Message())
}

func TestAnyOfNoneMatchedNested(t *testing.T) {
	v := NewCombinator("#/anyOf", schema.AnyOf, []Validator{
		typed("#/anyOf/0", nil, value.String),
		typed("#/anyOf/1", nil, value.Boolean),
	})
	outs := run(t, v, `1`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "No schema matched, but one of them is required to match", outs[0].Message())
	assert.Len(t, outs[0].Nested(), 2)
}

func TestNot(t *testing.T) {
	v := NewNot("#/not", typed("#/not", nil, value.String))
	assert.Empty(t, run(t, v, `1`, false))

	outs := run(t, v, `"s"`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "not", outs[0].Keyword())
}

func TestConditional(t *testing.T) {
	v := NewConditional("#/if",
		typed("#/if", nil, value.Integer),
		schemaOf("#/then", NewBound("#/then/minimum", schema.Minimum, decimal.NewFromInt(10))),
		typed("#/else", nil, value.String),
	)

	assert.Empty(t, run(t, v, `12`, false))
	assert.Empty(t, run(t, v, `"s"`, false))

	outs := run(t, v, `3`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "minimum", outs[0].Keyword())
	assert.Equal(t, "3 is below minimum of 10", outs[0].Message())

	outs = run(t, v, `true`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "type", outs[0].Keyword())
}

func TestEnumConst(t *testing.T) {
	enum := NewEnum("#/enum", []any{"a", decode(t, `1.0`), decode(t, `{"k":[1,2]}`)})
	assert.Empty(t, run(t, enum, `"a"`, false))
	assert.Empty(t, run(t, enum, `1`, false))
	assert.Empty(t, run(t, enum, `{"k":[1,2]}`, false))
	outs := run(t, enum, `"b"`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "b is not a valid enum value", outs[0].Message())

	c := NewConst("#/const", decode(t, `[1,"x"]`))
	assert.Empty(t, run(t, c, `[1,"x"]`, false))
	assert.Len(t, run(t, c, `["x",1]`, false), 1)
}

func TestNumericBounds(t *testing.T) {
	tests := []struct {
		kind     schema.BoundKind
		limit    int64
		instance string
		valid    bool
	}{
		{schema.Maximum, 3, `3`, true},
		{schema.Maximum, 3, `3.0001`, false},
		{schema.ExclusiveMaximum, 3, `3`, false},
		{schema.Minimum, 3, `3`, true},
		{schema.ExclusiveMinimum, 3, `3`, false},
		{schema.ExclusiveMinimum, 3, `3.5`, true},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String()+" "+tt.instance, func(t *testing.T) {
			v := NewBound("#/"+tt.kind.String(), tt.kind, decimal.NewFromInt(tt.limit))
			outs := run(t, v, tt.instance, false)
			assert.Equal(t, tt.valid, len(outs) == 0)
		})
	}
}

func TestMultipleOf(t *testing.T) {
	v := NewMultipleOf("#/multipleOf", decimal.RequireFromString("0.1"))
	assert.Empty(t, run(t, v, `0.3`, false))
	assert.Empty(t, run(t, v, `0`, false))
	assert.Len(t, run(t, v, `0.35`, false), 1)
}

func TestLength(t *testing.T) {
	v := NewLength("#/maxLength", schema.MaxLength, 2)
	assert.Empty(t, run(t, v, `"hé"`, false))
	outs := run(t, v, `"héé"`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "Expected maxLength: 2, actual: 3", outs[0].Message())

	items := NewLength("#/minItems", schema.MinItems, 2)
	assert.Len(t, run(t, items, `[1]`, false), 1)
	assert.Empty(t, run(t, items, `"x"`, false))
}

func TestItems(t *testing.T) {
	tuple := NewItemsArray("#/items", []Validator{
		typed("#/items/0", nil, value.String),
		typed("#/items/1", nil, value.Integer),
	}, nil)
	assert.Empty(t, run(t, tuple, `["a",1,true,null]`, false))

	outs := run(t, tuple, `[1,"a"]`, false)
	require.Len(t, outs, 2)
	assert.Equal(t, "/0", outs[0].InstanceLocation())
	assert.Equal(t, "/1", outs[1].InstanceLocation())

	closed := NewItemsArray("#/items", []Validator{NewBool("#/items/0", true)}, NewBool("#/additionalItems", false))
	outs = run(t, closed, `[1,2,3]`, false)
	require.Len(t, outs, 2)
	assert.Equal(t, "/2", outs[1].InstanceLocation())

	each := NewItemsObject("#/items", typed("#/items", nil, value.Integer))
	assert.Len(t, run(t, each, `[1,"a","b"]`, false), 2)
}

func TestContains(t *testing.T) {
	v := NewContains("#/contains", typed("#/contains", nil, value.Integer))
	assert.Empty(t, run(t, v, `["a",2]`, false))

	outs := run(t, v, `["a","b"]`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "contains", outs[0].Keyword())
	assert.Len(t, outs[0].Nested(), 2)
}

func TestUniqueItems(t *testing.T) {
	v := NewUniqueItems("#/uniqueItems")
	assert.Empty(t, run(t, v, `[1,"1",{"a":1}]`, false))
	assert.Len(t, run(t, v, `[1,2,1.0,2]`, false), 1)
	assert.Len(t, run(t, v, `[{"a":1,"b":2},{"b":2,"a":1}]`, false), 1)
}

func TestUnevaluatedProperties(t *testing.T) {
	declared := NewObject("#/properties", ObjectConfig{
		Properties: []Property{{Name: "a", Schema: NewBool("#/properties/a", true)}},
	})
	viaAllOf := NewCombinator("#/allOf", schema.AllOf, []Validator{
		schemaOf("#/allOf/0", NewObject("#/allOf/0/properties", ObjectConfig{
			Properties: []Property{{Name: "b", Schema: NewBool("#/allOf/0/properties/b", true)}},
		})),
	})
	v := schemaOf("#", declared, viaAllOf,
		NewUnevaluatedProperties("#/unevaluatedProperties", NewBool("#/unevaluatedProperties", false)))

	assert.Empty(t, run(t, v, `{"a":1,"b":2}`, false))

	outs := run(t, v, `{"a":1,"b":2,"c":3}`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "/c", outs[0].InstanceLocation())
}

func TestUnevaluatedPropertiesIgnoresNot(t *testing.T) {
	v := schemaOf("#",
		NewNot("#/not", schemaOf("#/not", NewObject("#/not/properties", ObjectConfig{
			Properties: []Property{{Name: "a", Schema: NewBool("#/not/properties/a", false)}},
		}))),
		NewUnevaluatedProperties("#/unevaluatedProperties", NewBool("#/unevaluatedProperties", false)))

	outs := run(t, v, `{"a":1}`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "false", outs[0].Keyword())
	assert.Equal(t, "/a", outs[0].InstanceLocation())
}

func TestDependent(t *testing.T) {
	v := schemaOf("#", NewObject("#/properties", ObjectConfig{
		DependentRequired: []Dependent{{Name: "card", Schema: NewRequired("#/dependentRequired/card", []string{"address"})}},
		DependentSchemas: []Dependent{{Name: "pin", Schema: schemaOf("#/dependentSchemas/pin",
			NewRequired("#/dependentSchemas/pin/required", []string{"card"}))}},
	}))

	assert.Empty(t, run(t, v, `{}`, false))
	assert.Empty(t, run(t, v, `{"card":1,"address":"x"}`, false))
	assert.Len(t, run(t, v, `{"card":1}`, false), 1)
	assert.Len(t, run(t, v, `{"pin":1}`, false), 1)
}

func TestPropertyNames(t *testing.T) {
	v := schemaOf("#", NewObject("#/properties", ObjectConfig{
		PropertyNames: schemaOf("#/propertyNames", NewLength("#/propertyNames/maxLength", schema.MaxLength, 3)),
	}))
	assert.Empty(t, run(t, v, `{"abc":1}`, false))
	outs := run(t, v, `{"abcd":1}`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "maxLength", outs[0].Keyword())
}

func TestCyclicReference(t *testing.T) {
	// {"properties": {"next": {"$ref": "#"}}, "required": ["v"]}
	cell := NewCell("#")
	root := schemaOf("#",
		NewObject("#/properties", ObjectConfig{
			Properties: []Property{{Name: "next", Schema: NewRef("#/properties/next/$ref", "$ref", cell)}},
		}),
		NewRequired("#/required", []string{"v"}),
	)
	cell.Set(root)

	assert.Empty(t, run(t, root, `{"v":1,"next":{"v":2,"next":{"v":3}}}`, false))

	outs := run(t, root, `{"v":1,"next":{"next":{}}}`, false)
	require.Len(t, outs, 2)
	assert.Equal(t, "/next/next", outs[0].InstanceLocation())
	assert.Equal(t, "/next", outs[1].InstanceLocation())
}

func TestMaxDepth(t *testing.T) {
	cell := NewCell("#")
	loop := NewRef("#/$ref", "$ref", cell)
	cell.Set(loop)

	col := output.NewCollector(false)
	ctx := NewContext(col, nil, 8)
	Evaluate(ctx, loop, decode(t, `1`))
	require.Len(t, col.Outputs(), 1)
	assert.Equal(t, "Maximum evaluation depth 8 exceeded", col.Outputs()[0].Message())
	assert.Zero(t, ctx.Depth())
}

func TestUnfilledCell(t *testing.T) {
	outs := run(t, NewCell("#/definitions/missing"), `1`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, "$ref", outs[0].Keyword())
}

func TestFailEarlyParity(t *testing.T) {
	v := schemaOf("#",
		NewRequired("#/required", []string{"a", "b"}),
		NewObject("#/properties", ObjectConfig{
			Properties: []Property{
				{Name: "x", Schema: typed("#/properties/x", nil, value.Integer)},
				{Name: "y", Schema: typed("#/properties/y", nil, value.Integer)},
			},
		}),
		NewLength("#/maxProperties", schema.MaxProperties, 1),
	)

	instances := []string{`{}`, `{"a":1,"b":2}`, `{"x":"s","y":"t"}`, `{"a":1}`, `"s"`}
	for _, src := range instances {
		all := run(t, v, src, false)
		early := run(t, v, src, true)
		assert.Equal(t, len(all) == 0, len(early) == 0, src)
		if len(all) > 0 {
			assert.Len(t, early, 1, src)
			assert.Equal(t, all[0].String(), early[0].String(), src)
		}
	}

	counter := output.NewCounter(true)
	Evaluate(NewContext(counter, nil, 0), v, decode(t, `{"x":"s","y":"t"}`))
	assert.Equal(t, 1, counter.ErrorCount())
}

func TestFailEarlyParity_Subschemas(t *testing.T) {
	str := typed("#/s", nil, value.String)
	obj := typed("#/o", nil, value.Object)
	// Passes its first keyword and fails its second on {"a":1}.
	requiredEmpty := func(ref string) Validator {
		return typed(ref, []Validator{
			NewRequired(ref+"/required", []string{"a"}),
			NewLength(ref+"/maxProperties", schema.MaxProperties, 0),
		}, value.Object)
	}

	tests := []struct {
		name     string
		v        Validator
		instance string
		valid    bool
	}{
		{"allOf", NewCombinator("#/allOf", schema.AllOf, []Validator{str, requiredEmpty("#/allOf/1")}), `{"a":1}`, false},
		{"allOf second fails", NewCombinator("#/allOf", schema.AllOf, []Validator{obj, requiredEmpty("#/allOf/1")}), `{"a":1}`, false},
		{"anyOf", NewCombinator("#/anyOf", schema.AnyOf, []Validator{str, requiredEmpty("#/anyOf/1")}), `{"a":1}`, false},
		{"anyOf later match", NewCombinator("#/anyOf", schema.AnyOf, []Validator{str, requiredEmpty("#/anyOf/1"), obj}), `{"a":1}`, true},
		{"oneOf", NewCombinator("#/oneOf", schema.OneOf, []Validator{str, requiredEmpty("#/oneOf/1"), obj}), `{"a":1}`, true},
		{"oneOf none", NewCombinator("#/oneOf", schema.OneOf, []Validator{str, requiredEmpty("#/oneOf/1")}), `{"a":1}`, false},
		{"not", NewNot("#/not", NewCombinator("#/not/anyOf", schema.AnyOf, []Validator{str, requiredEmpty("#/not/anyOf/1")})), `{"a":1}`, true},
		{"contains", NewContains("#/contains", requiredEmpty("#/contains")), `[{"b":1},{"a":1}]`, false},
		{"contains later match", NewContains("#/contains", NewCombinator("#/contains/anyOf", schema.AnyOf,
			[]Validator{requiredEmpty("#/contains/anyOf/0"), str})), `[{"a":1},"s"]`, true},
		{"if", NewConditional("#/if", NewCombinator("#/if/anyOf", schema.AnyOf, []Validator{str, requiredEmpty("#/if/anyOf/1")}),
			NewBool("#/then", false), nil), `{"a":1}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := run(t, tt.v, tt.instance, false)
			early := run(t, tt.v, tt.instance, true)
			assert.Equal(t, tt.valid, len(all) == 0, "collect all: %v", all)
			assert.Equal(t, tt.valid, len(early) == 0, "fail early: %v", early)
		})
	}
}

func TestFailEarlyParity_UnevaluatedProperties(t *testing.T) {
	anyOf := NewCombinator("#/anyOf", schema.AnyOf, []Validator{
		typed("#/anyOf/0", nil, value.String),
		typed("#/anyOf/1", []Validator{
			NewObject("#/anyOf/1/properties", ObjectConfig{
				Properties: []Property{{Name: "a", Schema: NewBool("#/anyOf/1/properties/a", true)}},
			}),
			NewLength("#/anyOf/1/maxProperties", schema.MaxProperties, 0),
		}, value.Object),
		typed("#/anyOf/2", nil, value.Object),
	})
	v := schemaOf("#", anyOf, NewUnevaluatedProperties("#/unevaluatedProperties", NewBool("#/unevaluatedProperties", false)))

	assert.NotEmpty(t, run(t, v, `{"a":1}`, false))
	assert.NotEmpty(t, run(t, v, `{"a":1}`, true))
}

func TestDefaultsPatch_FailEarly(t *testing.T) {
	v := schemaOf("#", NewObject("#/properties", ObjectConfig{
		Properties: []Property{
			{Name: "a", Schema: typed("#/properties/a", nil, value.Integer)},
			{Name: "b", Schema: NewSchema("#/properties/b", nil), Default: "x", HasDefault: true},
		},
	}))

	var p patch.Patch
	col := output.NewCollector(true)
	Evaluate(NewContext(col, &p, 0), v, decode(t, `{"a":"s"}`))

	assert.Equal(t, 1, col.ErrorCount())
	require.Len(t, p, 1)
	assert.Equal(t, "/b", p[0].Path)
}

func TestPattern(t *testing.T) {
	v := NewPattern("#/pattern", regexp.MustCompile("^[a-z]+$"))
	assert.Empty(t, run(t, v, `"abc"`, false))
	assert.Empty(t, run(t, v, `12`, false))
	outs := run(t, v, `"aB"`, false)
	require.Len(t, outs, 1)
	assert.Equal(t, `String "aB" does not match pattern "^[a-z]+$"`, outs[0].Message())
}

func TestValidate_Count(t *testing.T) {
	v := typed("#", []Validator{NewRequired("#/required", []string{"a", "b"})}, value.Object)

	counter := output.NewCounter(false)
	assert.Equal(t, 2, Validate(v, decode(t, `{}`), counter, nil))
	assert.Equal(t, 0, Validate(v, decode(t, `{"a":1,"b":2}`), counter, nil))
	assert.Equal(t, 2, counter.ErrorCount())
}
