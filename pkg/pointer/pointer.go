// Package pointer builds JSON Pointers (RFC 6901) for instance locations.
package pointer

import (
	"strconv"
	"strings"

	"github.com/go-openapi/jsonpointer"

	"github.com/gofhir/jsonschema/pool"
)

// Pointer is an encoded JSON Pointer such as "/items/0/name". The empty
// pointer addresses the whole document.
type Pointer string

// Root is the pointer to the document root.
const Root Pointer = ""

// Parse validates s as a JSON Pointer.
func Parse(s string) (Pointer, error) {
	if _, err := jsonpointer.New(s); err != nil {
		return Root, err
	}
	return Pointer(s), nil
}

// Append returns p extended by one reference token. The token is escaped.
func (p Pointer) Append(token string) Pointer {
	buf := pool.AcquireByteSlice()
	defer pool.ReleaseByteSlice(buf)

	*buf = append(*buf, p...)
	*buf = append(*buf, '/')
	*buf = append(*buf, jsonpointer.Escape(token)...)
	return Pointer(*buf)
}

// AppendIndex returns p extended by an array index.
func (p Pointer) AppendIndex(index int) Pointer {
	buf := pool.AcquireByteSlice()
	defer pool.ReleaseByteSlice(buf)

	*buf = append(*buf, p...)
	*buf = append(*buf, '/')
	*buf = strconv.AppendInt(*buf, int64(index), 10)
	return Pointer(*buf)
}

// Parent returns p without its last token, and the unescaped last token.
func (p Pointer) Parent() (Pointer, string) {
	i := strings.LastIndexByte(string(p), '/')
	if i < 0 {
		return Root, ""
	}
	return p[:i], jsonpointer.Unescape(string(p[i+1:]))
}

// Tokens returns the unescaped reference tokens.
func (p Pointer) Tokens() []string {
	if p == Root {
		return nil
	}
	parts := strings.Split(string(p[1:]), "/")
	for i, part := range parts {
		parts[i] = jsonpointer.Unescape(part)
	}
	return parts
}

// String returns the encoded pointer.
func (p Pointer) String() string {
	return string(p)
}

// Fragment renders p as a URI fragment, "#/items/0".
func (p Pointer) Fragment() string {
	return "#" + string(p)
}
