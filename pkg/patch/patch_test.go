package patch

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gofhir/jsonschema/pkg/pointer"
)

func TestPatch_AddCopiesValue(t *testing.T) {
	def := map[string]any{"tags": []any{"a"}}

	var p Patch
	p.Add(pointer.Root.Append("settings"), def)
	require.Equal(t, 1, p.Len())

	def["tags"] = []any{"changed"}
	assert.Equal(t, Operation{Op: OpAdd, Path: "/settings", Value: map[string]any{"tags": []any{"a"}}}, p[0])

	var nilPatch *Patch
	assert.Zero(t, nilPatch.Len())
}

func TestApply(t *testing.T) {
	doc := map[string]any{
		"name": "Ada",
		"list": []any{"a", "c"},
		"nested": map[string]any{
			"items": []any{},
		},
	}
	ops := Patch{
		{Op: OpAdd, Path: "/role", Value: "member"},
		{Op: OpAdd, Path: "/list/1", Value: "b"},
		{Op: OpAdd, Path: "/list/-", Value: "d"},
		{Op: OpAdd, Path: "/nested/items/0", Value: map[string]any{"x": nil}},
		{Op: OpAdd, Path: "/a~1b", Value: true},
	}

	got, err := Apply(doc, ops)
	require.NoError(t, err)

	want := map[string]any{
		"name": "Ada",
		"role": "member",
		"list": []any{"a", "b", "c", "d"},
		"nested": map[string]any{
			"items": []any{map[string]any{"x": nil}},
		},
		"a/b": true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Apply mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_Root(t *testing.T) {
	got, err := Apply([]any{}, Patch{{Op: OpAdd, Path: "", Value: "replaced"}})
	require.NoError(t, err)
	assert.Equal(t, "replaced", got)

	got, err = Apply([]any{"a"}, Patch{{Op: OpAdd, Path: "/0", Value: "z"}})
	require.NoError(t, err)
	assert.Equal(t, []any{"z", "a"}, got)
}

func TestApply_Errors(t *testing.T) {
	_, err := Apply(map[string]any{}, Patch{{Op: "remove", Path: "/a"}})
	assert.ErrorIs(t, err, ErrUnsupportedOp)

	_, err = Apply(map[string]any{"a": "s"}, Patch{{Op: OpAdd, Path: "/a/b", Value: 1}})
	assert.Error(t, err)

	_, err = Apply(map[string]any{"l": []any{}}, Patch{{Op: OpAdd, Path: "/l/3", Value: 1}})
	assert.Error(t, err)

	_, err = Apply(map[string]any{}, Patch{{Op: OpAdd, Path: "/missing/x", Value: 1}})
	assert.Error(t, err)
}

func TestClone(t *testing.T) {
	src := []any{map[string]any{"a": []any{"x"}}}
	dst := Clone(src).([]any)
	dst[0].(map[string]any)["a"] = "changed"
	assert.Equal(t, []any{"x"}, src[0].(map[string]any)["a"])

	assert.Equal(t, "s", Clone("s"))
}
