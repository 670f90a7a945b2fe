// Package format implements the "format" assertions.
package format

import (
	"net/mail"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-openapi/jsonpointer"
	"github.com/google/uuid"
	"github.com/sosodev/duration"
	"golang.org/x/net/idna"

	"github.com/gofhir/jsonschema/pkg/regex"
)

// Checker reports whether s is a valid instance of a format.
type Checker func(s string) bool

var (
	mu       sync.RWMutex
	checkers = map[string]Checker{
		"date-time":             IsDateTime,
		"date":                  IsDate,
		"time":                  IsTime,
		"email":                 IsEmail,
		"idn-email":             IsEmail,
		"hostname":              IsHostname,
		"idn-hostname":          IsIDNHostname,
		"ipv4":                  IsIPv4,
		"ipv6":                  IsIPv6,
		"uri":                   IsURI,
		"uri-reference":         IsURIReference,
		"iri":                   IsURI,
		"iri-reference":         IsURIReference,
		"uuid":                  IsUUID,
		"duration":              IsDuration,
		"regex":                 IsRegex,
		"json-pointer":          IsJSONPointer,
		"relative-json-pointer": IsRelativeJSONPointer,
	}
)

// Lookup returns the checker for name. Unknown formats have none and are
// not asserted.
func Lookup(name string) (Checker, bool) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := checkers[name]
	return c, ok
}

// Register adds or replaces a checker. Schemas compiled afterwards use it.
func Register(name string, c Checker) {
	mu.Lock()
	defer mu.Unlock()
	checkers[name] = c
}

// IsDateTime checks an RFC 3339 date-time.
func IsDateTime(s string) bool {
	_, err := time.Parse(time.RFC3339Nano, strings.ToUpper(s))
	return err == nil
}

// IsDate checks an RFC 3339 full-date.
func IsDate(s string) bool {
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

// IsTime checks an RFC 3339 full-time, which requires a zone offset.
func IsTime(s string) bool {
	_, err := time.Parse(time.RFC3339Nano, "1970-01-01T"+strings.ToUpper(s))
	return err == nil
}

// IsEmail checks a bare RFC 5322 address, without display name.
func IsEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s && addr.Name == ""
}

// IsHostname checks an RFC 1123 host name.
func IsHostname(s string) bool {
	s = strings.TrimSuffix(s, ".")
	if s == "" || len(s) > 253 {
		return false
	}
	for _, label := range strings.Split(s, ".") {
		if !isLabel(label) {
			return false
		}
	}
	return true
}

func isLabel(label string) bool {
	if label == "" || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}

// IsIDNHostname checks an internationalized host name by converting it to
// its ASCII form first.
func IsIDNHostname(s string) bool {
	ascii, err := idna.Lookup.ToASCII(s)
	return err == nil && IsHostname(ascii)
}

// IsIPv4 checks a dotted-quad address. Leading zeros are rejected.
func IsIPv4(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is4()
}

// IsIPv6 checks an RFC 4291 address without zone.
func IsIPv6(s string) bool {
	addr, err := netip.ParseAddr(s)
	return err == nil && addr.Is6() && addr.Zone() == ""
}

// IsURI checks an absolute URI.
func IsURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && !strings.ContainsAny(s, " \\")
}

// IsURIReference checks a URI or relative reference.
func IsURIReference(s string) bool {
	_, err := url.Parse(s)
	return err == nil && !strings.ContainsAny(s, " \\")
}

// IsUUID checks the hyphenated RFC 4122 form.
func IsUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// IsDuration checks an ISO 8601 duration such as "P1DT2H".
func IsDuration(s string) bool {
	_, err := duration.Parse(s)
	return err == nil
}

// IsRegex checks that s compiles as a "pattern" would.
func IsRegex(s string) bool {
	_, err := regex.Compile(s)
	return err == nil
}

// IsJSONPointer checks an RFC 6901 pointer.
func IsJSONPointer(s string) bool {
	if _, err := jsonpointer.New(s); err != nil {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] == '~' && (i+1 >= len(s) || (s[i+1] != '0' && s[i+1] != '1')) {
			return false
		}
	}
	return true
}

// IsRelativeJSONPointer checks a relative pointer such as "1/foo" or "0#".
func IsRelativeJSONPointer(s string) bool {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || (i > 1 && s[0] == '0') {
		return false
	}
	if _, err := strconv.Atoi(s[:i]); err != nil {
		return false
	}
	rest := s[i:]
	return rest == "#" || IsJSONPointer(rest)
}
