package compiler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/jsonschema/pkg/loader"
	"github.com/gofhir/jsonschema/pkg/logger"
	"github.com/gofhir/jsonschema/pkg/output"
	"github.com/gofhir/jsonschema/pkg/patch"
	"github.com/gofhir/jsonschema/pkg/registry"
	"github.com/gofhir/jsonschema/pkg/regex"
	"github.com/gofhir/jsonschema/pkg/schema"
	"github.com/gofhir/jsonschema/pkg/validation"
	"github.com/gofhir/jsonschema/pkg/value"
)

func compile(t *testing.T, src, base string, opts ...Option) validation.Validator {
	t.Helper()
	v, err := compileErr(t, src, base, opts...)
	require.NoError(t, err)
	return v
}

func compileErr(t *testing.T, src, base string, opts ...Option) (validation.Validator, error) {
	t.Helper()
	reg := registry.New()
	root, err := loader.New(reg, loader.WithLogger(logger.Nop())).Load(context.Background(), []byte(src))
	require.NoError(t, err)
	opts = append([]Option{WithLogger(logger.Nop())}, opts...)
	return Compile(root, base, reg, opts...)
}

func evaluate(t *testing.T, v validation.Validator, src string, p *patch.Patch) []output.Output {
	t.Helper()
	instance, err := value.Decode([]byte(src))
	require.NoError(t, err)
	col := output.NewCollector(false)
	validation.Evaluate(validation.NewContext(col, p, 0), v, instance)
	return col.Outputs()
}

func instanceLocations(outs []output.Output) []string {
	var locs []string
	for _, o := range output.Flatten(outs) {
		locs = append(locs, o.InstanceLocation())
	}
	return locs
}

const personSchema = `{
	"type": "object",
	"required": ["name"],
	"properties": {
		"name": {"type": "string"},
		"role": {"default": "member"}
	},
	"additionalProperties": false
}`

func TestCompile_RequiredAndAdditional(t *testing.T) {
	v := compile(t, personSchema, "")

	outs := evaluate(t, v, `{"nick": "x"}`, nil)
	require.Len(t, outs, 2)
	assert.Equal(t, "required", outs[0].Keyword())
	assert.Equal(t, "", outs[0].InstanceLocation())
	assert.Equal(t, `Required property "name" not found`, outs[0].Message())
	assert.Equal(t, "/nick", outs[1].InstanceLocation())

	assert.Empty(t, evaluate(t, v, `{"name": "ada"}`, nil))
}

func TestCompile_DefaultPatch(t *testing.T) {
	v := compile(t, personSchema, "")

	var p patch.Patch
	assert.Empty(t, evaluate(t, v, `{"name": "ada"}`, &p))
	require.Len(t, p, 1)
	assert.Equal(t, patch.OpAdd, p[0].Op)
	assert.Equal(t, "/role", p[0].Path)
	assert.True(t, value.Equal("member", p[0].Value))

	p = nil
	evaluate(t, v, `{"name": "ada", "role": "admin"}`, &p)
	assert.Empty(t, p)
}

func TestCompile_BaseIndependence(t *testing.T) {
	src := `{"properties": {"n": {"type": "integer", "minimum": 3}}}`
	a := compile(t, src, "http://a.example/s.json")
	b := compile(t, src, "http://b.example/s.json")

	assert.Equal(t, "http://a.example/s.json#", a.Reference())
	assert.Equal(t, "http://b.example/s.json#", b.Reference())

	outsA := evaluate(t, a, `{"n": 1.5}`, nil)
	outsB := evaluate(t, b, `{"n": 1.5}`, nil)
	require.Equal(t, len(outsA), len(outsB))
	require.NotEmpty(t, outsA)
	for i := range outsA {
		assert.Equal(t, outsA[i].Message(), outsB[i].Message())
		assert.Equal(t, outsA[i].InstanceLocation(), outsB[i].InstanceLocation())
		assert.Equal(t, outsA[i].KeywordLocation(), outsB[i].KeywordLocation())
		assert.True(t, strings.HasPrefix(outsA[i].AbsoluteKeywordLocation(), "http://a.example/s.json#"))
		assert.True(t, strings.HasPrefix(outsB[i].AbsoluteKeywordLocation(), "http://b.example/s.json#"))
	}
}

func TestCompile_CyclicReference(t *testing.T) {
	v := compile(t, `{
		"definitions": {
			"node": {
				"type": "object",
				"properties": {"value": {"type": "integer"}, "next": {"$ref": "#/definitions/node"}}
			}
		},
		"$ref": "#/definitions/node"
	}`, "")

	assert.Empty(t, evaluate(t, v, `{"value": 1, "next": {"value": 2, "next": {"value": 3}}}`, nil))

	outs := evaluate(t, v, `{"next": {"next": {"value": "x"}}}`, nil)
	assert.Contains(t, instanceLocations(outs), "/next/next/value")
}

func TestCompile_RecursiveRefDynamicScope(t *testing.T) {
	tree := `{
		"$schema": "https://json-schema.org/draft/2019-09/schema",
		"$id": "http://example.com/tree.json",
		"$recursiveAnchor": true,
		"type": "object",
		"properties": {
			"data": true,
			"children": {"type": "array", "items": {"$recursiveRef": "#"}}
		}
	}`
	strict := `{
		"$schema": "https://json-schema.org/draft/2019-09/schema",
		"$id": "http://example.com/strict-tree.json",
		"$recursiveAnchor": true,
		"$ref": "tree.json",
		"unevaluatedProperties": false,
		"$defs": {"tree": ` + tree + `}
	}`

	loose := compile(t, tree, "")
	assert.Empty(t, evaluate(t, loose, `{"children": [{"daat": 1}]}`, nil))

	v := compile(t, strict, "")
	assert.Empty(t, evaluate(t, v, `{"children": [{"data": 1}]}`, nil))

	outs := evaluate(t, v, `{"children": [{"daat": 1}]}`, nil)
	require.NotEmpty(t, outs)
	assert.Contains(t, instanceLocations(outs), "/children/0/daat")
}

func TestCompile_UnresolvedReference(t *testing.T) {
	v, err := compileErr(t, `{"properties": {"a": {"$ref": "#/definitions/missing"}}}`, "")
	require.Error(t, err)
	assert.Nil(t, v)
	assert.True(t, errors.Is(err, schema.ErrUnresolvedReference), err.Error())

	var se *schema.SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "$ref", se.Keyword)
}

func TestCompile_InvalidPatterns(t *testing.T) {
	_, err := compileErr(t, `{"type": "object", "patternProperties": {"(": true}, "properties": {"s": {"pattern": "[a-"}}}`, "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrInvalidPattern), err.Error())
	assert.Contains(t, err.Error(), "patternProperties")
	assert.Contains(t, err.Error(), "pattern")
}

func TestCompile_FormatAssertion(t *testing.T) {
	src := `{"format": "email"}`

	on := compile(t, src, "")
	outs := evaluate(t, on, `"not an address"`, nil)
	require.Len(t, outs, 1)
	assert.Equal(t, "format", outs[0].Keyword())

	off := compile(t, src, "", WithFormatAssertion(false))
	assert.Empty(t, evaluate(t, off, `"not an address"`, nil))

	unknown := compile(t, `{"format": "color"}`, "")
	assert.Empty(t, evaluate(t, unknown, `"mauve"`, nil))
}

func TestCompile_ContentAssertion(t *testing.T) {
	src := `{"contentEncoding": "base64", "contentMediaType": "application/json"}`

	on := compile(t, src, "")
	assert.NotEmpty(t, evaluate(t, on, `"%%%"`, nil))
	assert.Empty(t, evaluate(t, on, `"eyJhIjogMX0="`, nil))

	off := compile(t, src, "", WithContentAssertion(false))
	assert.Empty(t, evaluate(t, off, `"%%%"`, nil))
}

func TestCompile_SharedRegexCache(t *testing.T) {
	cache := regex.NewCache(0)
	src := `{"pattern": "^a+$", "patternProperties": {"^a+$": true}}`

	compile(t, src, "", WithRegexCache(cache))
	compile(t, src, "", WithRegexCache(cache))

	stats := cache.Stats()
	assert.Equal(t, 1, stats.Size)
	assert.GreaterOrEqual(t, stats.Hits, uint64(3))
}

func TestCompile_UnevaluatedAfterSiblings(t *testing.T) {
	v := compile(t, `{
		"$schema": "https://json-schema.org/draft/2019-09/schema",
		"unevaluatedProperties": false,
		"allOf": [{"properties": {"a": true}}],
		"if": {"properties": {"b": {"const": 1}}, "required": ["b"]},
		"then": {"properties": {"c": true}}
	}`, "")

	assert.Empty(t, evaluate(t, v, `{"a": 1, "b": 1, "c": 1}`, nil))

	outs := evaluate(t, v, `{"a": 1, "b": 2, "c": 1}`, nil)
	assert.ElementsMatch(t, []string{"/b", "/c"}, instanceLocations(outs))
}
