// Package uri resolves schema references and canonicalizes them to the
// "base#fragment" form used as registry and compile-cache keys.
package uri

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-openapi/jsonreference"
)

// Resolve resolves ref against base and returns the canonical absolute form.
// An empty base leaves relative references relative, which is how documents
// without an $id are keyed.
func Resolve(base, ref string) (string, error) {
	b, err := jsonreference.New(base)
	if err != nil {
		return "", fmt.Errorf("invalid base URI %q: %w", base, err)
	}
	r, err := jsonreference.New(ref)
	if err != nil {
		return "", fmt.Errorf("invalid reference %q: %w", ref, err)
	}
	resolved, err := b.Inherits(r)
	if err != nil {
		return "", fmt.Errorf("resolve %q against %q: %w", ref, base, err)
	}
	return canonical(resolved.GetURL()), nil
}

// Canonical normalizes u so that equal locations compare equal as strings.
func Canonical(u string) (string, error) {
	return Resolve("", u)
}

func canonical(u *url.URL) string {
	if u == nil {
		return "#"
	}
	c := *u
	frag := c.EscapedFragment()
	c.Fragment = ""
	c.RawFragment = ""
	return c.String() + "#" + frag
}

// FromPointer resolves the location of a JSON Pointer inside the document
// at base. Characters of ptr that are not valid in a fragment are escaped.
func FromPointer(base, ptr string) (string, error) {
	frag := (&url.URL{Fragment: ptr}).EscapedFragment()
	return Resolve(base, "#"+frag)
}

// DecodedFragment returns the unescaped fragment of u.
func DecodedFragment(u string) (string, error) {
	parsed, err := url.Parse(u)
	if err != nil {
		return "", fmt.Errorf("invalid URI %q: %w", u, err)
	}
	return parsed.Fragment, nil
}

// Split separates the document part from the fragment. The '#' is dropped.
func Split(u string) (base, fragment string) {
	if i := strings.IndexByte(u, '#'); i >= 0 {
		return u[:i], u[i+1:]
	}
	return u, ""
}
