// Package location maps JSON Pointers to line and column positions in the
// JSON source they were evaluated against.
package location

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/buger/jsonparser"
	"github.com/go-openapi/jsonpointer"

	"github.com/gofhir/jsonschema/pkg/output"
)

// ErrNotFound is returned when a pointer does not address a value of the
// document.
var ErrNotFound = errors.New("location not found")

// Location represents a position in the source JSON.
type Location struct {
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Find locates the first byte of the value addressed by pointer.
// Returns nil if the pointer cannot be found.
func Find(data []byte, pointer string) *Location {
	offset, err := Offset(data, pointer)
	if err != nil {
		return nil
	}
	line, col := offsetToLineCol(data, offset)
	return &Location{Line: line, Column: col}
}

// Offset returns the byte offset of the value addressed by pointer.
func Offset(data []byte, pointer string) (int, error) {
	p, err := jsonpointer.New(pointer)
	if err != nil {
		return 0, fmt.Errorf("invalid pointer %q: %w", pointer, err)
	}

	value, dt, end, err := jsonparser.Get(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	base := valueStart(value, dt, end)
	cur := data[base:end]

	for _, token := range p.DecodedTokens() {
		var key string
		switch dt {
		case jsonparser.Object:
			key = token
		case jsonparser.Array:
			if _, err := strconv.Atoi(token); err != nil {
				return 0, fmt.Errorf("%w: %q is not an array index", ErrNotFound, token)
			}
			key = "[" + token + "]"
		default:
			return 0, fmt.Errorf("%w: %q of a %s", ErrNotFound, token, dt)
		}

		value, dt, end, err = jsonparser.Get(cur, key)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %w", ErrNotFound, token, err)
		}
		start := valueStart(value, dt, end)
		base += start
		cur = cur[start:end]
	}
	return base, nil
}

// valueStart returns where a value returned by jsonparser.Get begins.
// String values come back without their quotes.
func valueStart(value []byte, dt jsonparser.ValueType, end int) int {
	if dt == jsonparser.String {
		return end - len(value) - 2
	}
	return end - len(value)
}

// offsetToLineCol converts a byte offset to line and column numbers.
// Line and column are 1-indexed (human-readable).
func offsetToLineCol(input []byte, offset int) (line, col int) {
	line = 1
	col = 1
	for i := 0; i < offset && i < len(input); i++ {
		if input[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return
}

// Outputs locates the instance location of each output. The result is
// parallel to outputs, with nil for locations that cannot be found.
func Outputs(data []byte, outputs []output.Output) []*Location {
	locs := make([]*Location, len(outputs))
	for i, o := range outputs {
		locs[i] = Find(data, o.InstanceLocation())
	}
	return locs
}
