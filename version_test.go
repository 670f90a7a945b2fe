package jsonschema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gofhir/jsonschema/pkg/loader"
)

func TestDialects(t *testing.T) {
	got := Dialects()
	assert.Len(t, got, 2)
	assert.Equal(t, loader.Draft7, got[0].Draft)
	assert.Equal(t, loader.Draft201909, got[1].Draft)

	// The returned slice is a copy.
	got[0].MetaSchema = "changed"
	assert.Equal(t, loader.Draft7URI, Dialects()[0].MetaSchema)
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		uri  string
		want bool
	}{
		{"http://json-schema.org/draft-07/schema#", true},
		{"https://json-schema.org/draft-07/schema", true},
		{"https://json-schema.org/draft/2019-09/schema", true},
		{"http://json-schema.org/draft-04/schema#", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsSupported(tt.uri), tt.uri)
	}
}
