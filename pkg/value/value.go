// Package value is the JSON value model used for instances and schema
// literals (enum, const, default).
//
// Values are the plain Go shapes produced by decoding with UseNumber:
// nil, bool, json.Number, string, []any and map[string]any.
package value

import (
	"bytes"
	"fmt"
	"maps"
	"math"
	"slices"
	"unicode/utf8"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// Kind is the runtime type tag of a JSON value.
type Kind uint8

// Kinds, in the order used by per-type dispatch tables.
const (
	Null Kind = iota
	Boolean
	Integer
	Number
	String
	Array
	Object

	kindCount
)

// Kinds lists every Kind.
var Kinds = [...]Kind{Null, Boolean, Integer, Number, String, Array, Object}

var kindNames = [...]string{"null", "boolean", "integer", "number", "string", "array", "object"}

// String returns the JSON Schema type name.
func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind maps a JSON Schema type name to a Kind.
func ParseKind(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// KindOf returns the type tag of v. Numbers exactly representable as int64
// are Integer, every other number is Number.
func KindOf(v any) Kind {
	switch v := v.(type) {
	case nil:
		return Null
	case bool:
		return Boolean
	case string:
		return String
	case []any:
		return Array
	case map[string]any:
		return Object
	default:
		if IsInteger(v) {
			return Integer
		}
		if _, ok := Decimal(v); ok {
			return Number
		}
		panic(fmt.Sprintf("value: unsupported Go type %T", v))
	}
}

// Decode parses a JSON document into the value model.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode instance: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode instance: unexpected data after top-level value")
	}
	return v, nil
}

// Normalize converts values built in Go (float64, int, typed slices of any)
// into the decoded shape. Unknown types are marshalled and decoded again.
func Normalize(v any) (any, error) {
	switch v := v.(type) {
	case nil, bool, string, json.Number:
		return v, nil
	case float64:
		return json.Number(decimal.NewFromFloat(v).String()), nil
	case float32:
		return json.Number(decimal.NewFromFloat32(v).String()), nil
	case int:
		return json.Number(decimal.NewFromInt(int64(v)).String()), nil
	case int32:
		return json.Number(decimal.NewFromInt32(v).String()), nil
	case int64:
		return json.Number(decimal.NewFromInt(v).String()), nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			n, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			n, err := Normalize(item)
			if err != nil {
				return nil, err
			}
			out[k] = n
		}
		return out, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("normalize %T: %w", v, err)
		}
		return Decode(data)
	}
}

// Decimal returns the exact numeric value of a number.
func Decimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(string(n))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	default:
		return decimal.Zero, false
	}
}

var (
	minInt64 = decimal.NewFromInt(math.MinInt64)
	maxInt64 = decimal.NewFromInt(math.MaxInt64)
)

// IsInteger reports whether v is a number exactly representable as int64,
// including fractional notations with a zero fraction such as 1.0.
func IsInteger(v any) bool {
	d, ok := Decimal(v)
	if !ok || !d.IsInteger() {
		return false
	}
	return d.GreaterThanOrEqual(minInt64) && d.LessThanOrEqual(maxInt64)
}

// IsNumber reports whether v is a JSON number.
func IsNumber(v any) bool {
	_, ok := Decimal(v)
	return ok
}

// Length returns the length of s in Unicode code points.
func Length(s string) int {
	return utf8.RuneCountInString(s)
}

// Equal reports JSON equality: numbers compare by mathematical value,
// objects ignore key order.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, ok := y[k]
			if !ok || !Equal(xv, yv) {
				return false
			}
		}
		return true
	default:
		dx, ok := Decimal(a)
		if !ok {
			return false
		}
		dy, ok := Decimal(b)
		return ok && dx.Equal(dy)
	}
}

// SortedKeys returns the keys of an object in lexical order, which fixes the
// order in which properties are evaluated and reported.
func SortedKeys(obj map[string]any) []string {
	return slices.Sorted(maps.Keys(obj))
}

// Text renders v for diagnostics: strings as-is, everything else as JSON.
func Text(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
