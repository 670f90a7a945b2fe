package loader

import (
	"errors"
	"fmt"

	"github.com/buger/jsonparser"
	"github.com/cespare/xxhash/v2"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/gofhir/jsonschema/cache"
	"github.com/gofhir/jsonschema/pkg/value"
)

// ErrSyntax is returned for documents that are neither JSON nor YAML.
var ErrSyntax = errors.New("malformed schema document")

// member is one key of an object, in document order.
type member struct {
	key string
	val any
}

// object is a parsed JSON object that keeps its key order, which fixes the
// evaluation order of "properties" and the other keyed keywords.
type object []member

func (o object) get(key string) (any, bool) {
	for _, m := range o {
		if m.key == key {
			return m.val, true
		}
	}
	return nil, false
}

func (o object) has(key string) bool {
	_, ok := o.get(key)
	return ok
}

// plain converts a parsed document value to the instance model used by the
// validators: objects become map[string]any.
func plain(v any) any {
	switch v := v.(type) {
	case object:
		out := make(map[string]any, len(v))
		for _, m := range v {
			if _, dup := out[m.key]; !dup {
				out[m.key] = plain(m.val)
			}
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = plain(item)
		}
		return out
	default:
		return v
	}
}

// parseCache holds parsed documents by content hash. Parsed documents are
// never modified, so loaders share them.
var parseCache = cache.New[uint64, any](256)

// parse decodes a JSON or YAML schema document.
func parse(data []byte) (any, error) {
	return parseCache.GetOrLoad(xxhash.Sum64(data), func() (any, error) {
		if json.Valid(data) {
			return parseJSON(data)
		}
		return parseYAML(data)
	})
}

func parseJSON(data []byte) (any, error) {
	raw, typ, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return jsonValue(raw, typ)
}

func jsonValue(raw []byte, typ jsonparser.ValueType) (any, error) {
	switch typ {
	case jsonparser.Null:
		return nil, nil
	case jsonparser.Boolean:
		return jsonparser.ParseBoolean(raw)
	case jsonparser.Number:
		return json.Number(string(raw)), nil
	case jsonparser.String:
		return jsonparser.ParseString(raw)
	case jsonparser.Array:
		out := []any{}
		var inner error
		_, err := jsonparser.ArrayEach(raw, func(item []byte, t jsonparser.ValueType, _ int, err error) {
			if inner != nil {
				return
			}
			if err != nil {
				inner = err
				return
			}
			v, err := jsonValue(item, t)
			if err != nil {
				inner = err
				return
			}
			out = append(out, v)
		})
		if err == nil {
			err = inner
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return out, nil
	case jsonparser.Object:
		out := object{}
		err := jsonparser.ObjectEach(raw, func(key, item []byte, t jsonparser.ValueType, _ int) error {
			v, err := jsonValue(item, t)
			if err != nil {
				return err
			}
			out = append(out, member{key: string(key), val: v})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unexpected %s value", ErrSyntax, typ)
	}
}

func parseYAML(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrSyntax)
	}
	return yamlValue(doc.Content[0])
}

func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.MappingNode:
		out := make(object, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := yamlValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out = append(out, member{key: n.Content[i].Value, val: v})
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			v, err := yamlValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!null":
			return nil, nil
		case "!!str", "":
			return n.Value, nil
		}
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrSyntax, n.Line, err)
		}
		return value.Normalize(v)
	default:
		return nil, fmt.Errorf("%w: line %d: unsupported YAML node", ErrSyntax, n.Line)
	}
}
