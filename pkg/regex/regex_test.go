package regex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	re, err := Compile(`^[a-z]+\d*$`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("abc12"))
	assert.False(t, re.MatchString("ABC"))

	// Patterns are not anchored.
	re, err = Compile(`es`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("test"))

	_, err = Compile(`(unclosed`)
	assert.Error(t, err)
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{`a/b`, `a/b`},
		{`a\/b`, `a/b`},
		{`\cA`, `\x01`},
		{`\cj`, `\x0A`},
		{`\c1`, `\c1`},
		{`\d+\.\d+`, `\d+\.\d+`},
		{`trailing\`, `trailing\`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, translate(tt.src), tt.src)
	}

	re, err := Compile(`^\/api\/`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("/api/v1"))
}

func TestCache(t *testing.T) {
	c := NewCache(2)

	a1, err := c.Compile(`^a$`)
	require.NoError(t, err)
	a2, err := c.Compile(`^a$`)
	require.NoError(t, err)
	assert.Same(t, a1, a2)

	_, err = c.Compile(`(`)
	assert.Error(t, err)

	s := c.Stats()
	assert.Equal(t, 1, s.Size)
	assert.Equal(t, uint64(1), s.Hits)
}

func TestCache_Nil(t *testing.T) {
	var c *Cache
	re, err := c.Compile(`x`)
	require.NoError(t, err)
	assert.True(t, re.MatchString("x"))
}
