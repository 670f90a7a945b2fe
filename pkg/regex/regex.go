// Package regex compiles "pattern" and "patternProperties" expressions.
//
// Matching uses grafana/regexp, an RE2 engine with linear-time matching, so
// a hostile pattern cannot stall an evaluation. Compiled expressions are
// shared through an LRU cache.
package regex

import (
	"fmt"
	"strings"

	"github.com/grafana/regexp"

	"github.com/gofhir/jsonschema/cache"
)

// DefaultCacheSize is the number of compiled expressions kept by NewCache(0).
const DefaultCacheSize = 512

// Cache compiles expressions once and reuses them across schemas.
type Cache struct {
	c *cache.Cache[string, *regexp.Regexp]
}

// NewCache creates a cache holding up to size expressions.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Cache{c: cache.New[string, *regexp.Regexp](size)}
}

// Compile returns the compiled form of src.
func (c *Cache) Compile(src string) (*regexp.Regexp, error) {
	if c == nil {
		return Compile(src)
	}
	return c.c.GetOrLoad(src, func() (*regexp.Regexp, error) {
		return Compile(src)
	})
}

// Stats exposes the cache statistics.
func (c *Cache) Stats() cache.Stats {
	return c.c.Stats()
}

// Compile translates the ECMA-262 constructs JSON Schema authors commonly
// use and compiles the result.
func Compile(src string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(translate(src))
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", src, err)
	}
	return re, nil
}

// translate rewrites ECMA-262 escapes that RE2 spells differently.
func translate(src string) string {
	if !strings.Contains(src, `\`) {
		return src
	}
	var b strings.Builder
	b.Grow(len(src))
	for i := 0; i < len(src); i++ {
		c := src[i]
		if c != '\\' || i+1 >= len(src) {
			b.WriteByte(c)
			continue
		}
		next := src[i+1]
		switch next {
		case '/':
			b.WriteByte('/')
		case 'c':
			// \cX control escapes: RE2 has no syntax, use the literal byte.
			if i+2 < len(src) && isASCIILetter(src[i+2]) {
				fmt.Fprintf(&b, `\x%02X`, src[i+2]%32)
				i += 2
				continue
			}
			b.WriteString(`\c`)
		default:
			b.WriteByte('\\')
			b.WriteByte(next)
		}
		i++
	}
	return b.String()
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
