package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointer_Append(t *testing.T) {
	p := Root.Append("items").AppendIndex(0).Append("name")
	assert.Equal(t, Pointer("/items/0/name"), p)
	assert.Equal(t, "#/items/0/name", p.Fragment())
}

func TestPointer_Escaping(t *testing.T) {
	p := Root.Append("a/b").Append("m~n")
	assert.Equal(t, "/a~1b/m~0n", p.String())
	assert.Equal(t, []string{"a/b", "m~n"}, p.Tokens())
}

func TestPointer_Parent(t *testing.T) {
	parent, last := Root.Append("x").Append("a/b").Parent()
	assert.Equal(t, Pointer("/x"), parent)
	assert.Equal(t, "a/b", last)

	parent, last = Root.Parent()
	assert.Equal(t, Root, parent)
	assert.Empty(t, last)
}

func TestPointer_RootTokens(t *testing.T) {
	assert.Nil(t, Root.Tokens())
	assert.Equal(t, "#", Root.Fragment())
}

func TestParse(t *testing.T) {
	p, err := Parse("/foo/0")
	require.NoError(t, err)
	assert.Equal(t, Pointer("/foo/0"), p)

	_, err = Parse("foo")
	assert.Error(t, err)
}
