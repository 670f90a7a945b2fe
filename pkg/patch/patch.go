// Package patch builds and applies RFC 6902 patches of "add" operations,
// used to report default values for absent properties.
package patch

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-openapi/jsonpointer"
	"github.com/tiendc/go-deepcopy"

	"github.com/gofhir/jsonschema/pkg/pointer"
)

// OpAdd is the only operation produced by default injection.
const OpAdd = "add"

// ErrUnsupportedOp is returned by Apply for operations other than "add".
var ErrUnsupportedOp = errors.New("unsupported patch operation")

// Operation is one RFC 6902 operation.
type Operation struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// Patch is an ordered list of operations.
type Patch []Operation

// Add appends an "add" operation. value is deep-copied so later changes to
// the patch never reach the schema it came from.
func (p *Patch) Add(path pointer.Pointer, value any) {
	*p = append(*p, Operation{Op: OpAdd, Path: path.String(), Value: Clone(value)})
}

// Len returns the number of operations.
func (p *Patch) Len() int {
	if p == nil {
		return 0
	}
	return len(*p)
}

// Clone returns a deep copy of a decoded JSON value.
func Clone(v any) any {
	switch v := v.(type) {
	case map[string]any:
		var out map[string]any
		if err := deepcopy.Copy(&out, v); err != nil {
			return v
		}
		return out
	case []any:
		var out []any
		if err := deepcopy.Copy(&out, v); err != nil {
			return v
		}
		return out
	default:
		return v
	}
}

// Apply applies ops to doc and returns the patched document. Containers in
// doc are modified in place.
func Apply(doc any, ops Patch) (any, error) {
	for i, op := range ops {
		if op.Op != OpAdd {
			return doc, fmt.Errorf("operation %d (%s): %w", i, op.Op, ErrUnsupportedOp)
		}
		var err error
		doc, err = add(doc, pointer.Pointer(op.Path), Clone(op.Value))
		if err != nil {
			return doc, fmt.Errorf("operation %d (add %s): %w", i, op.Path, err)
		}
	}
	return doc, nil
}

func add(doc any, path pointer.Pointer, value any) (any, error) {
	if path == pointer.Root {
		return value, nil
	}
	parentPath, token := path.Parent()
	parent, err := get(doc, parentPath)
	if err != nil {
		return doc, err
	}

	switch container := parent.(type) {
	case map[string]any:
		container[token] = value
		return doc, nil
	case []any:
		index := len(container)
		if token != "-" {
			index, err = strconv.Atoi(token)
			if err != nil || index < 0 || index > len(container) {
				return doc, fmt.Errorf("array index %q out of range", token)
			}
		}
		grown := make([]any, 0, len(container)+1)
		grown = append(grown, container[:index]...)
		grown = append(grown, value)
		grown = append(grown, container[index:]...)
		if parentPath == pointer.Root {
			return grown, nil
		}
		ptr, err := jsonpointer.New(parentPath.String())
		if err != nil {
			return doc, err
		}
		return ptr.Set(doc, grown)
	default:
		return doc, fmt.Errorf("parent %q is not a container", parentPath)
	}
}

func get(doc any, path pointer.Pointer) (any, error) {
	if path == pointer.Root {
		return doc, nil
	}
	ptr, err := jsonpointer.New(path.String())
	if err != nil {
		return nil, err
	}
	v, _, err := ptr.Get(doc)
	return v, err
}
