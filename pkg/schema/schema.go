// Package schema defines the declarative schema tree: one Node per schema
// object or boolean, each holding an ordered list of keywords.
//
// Trees are built once by the loader and may be compiled many times, against
// different base URIs, by the compiler package. Apart from the recursive
// reference pass, nothing mutates a tree after loading.
package schema

// Node is a schema: either a boolean schema or a schema object.
type Node interface {
	// Reference is the resolvable location of the node, e.g.
	// "#/properties/foo" or "https://example.com/s.json#".
	Reference() string
	isNode()
}

// BoolNode is the schema true or false.
type BoolNode struct {
	Ref   string
	Value bool
}

// Reference implements Node.
func (n *BoolNode) Reference() string { return n.Ref }

func (*BoolNode) isNode() {}

// ObjectNode is a schema object.
type ObjectNode struct {
	Ref string
	// Keywords in evaluation order. UnevaluatedProperties, when present,
	// is last.
	Keywords []Keyword
	// Default is the "default" value; meaningful only when HasDefault.
	Default    any
	HasDefault bool
	// RecursiveAnchor is "$recursiveAnchor": true.
	RecursiveAnchor bool
}

// Reference implements Node.
func (n *ObjectNode) Reference() string { return n.Ref }

func (*ObjectNode) isNode() {}

// DefaultValue returns the node's default, if any.
func DefaultValue(n Node) (any, bool) {
	if o, ok := n.(*ObjectNode); ok && o.HasDefault {
		return o.Default, true
	}
	return nil, false
}

// IsRecursiveAnchor reports whether n declares "$recursiveAnchor": true.
func IsRecursiveAnchor(n Node) bool {
	o, ok := n.(*ObjectNode)
	return ok && o.RecursiveAnchor
}

// Walk calls fn for n and every subschema reachable through keywords, in
// declaration order. References are not followed. Walk stops descending
// below a node when fn returns false.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	o, ok := n.(*ObjectNode)
	if !ok {
		return
	}
	for _, kw := range o.Keywords {
		for _, child := range Subschemas(kw) {
			Walk(child, fn)
		}
	}
}
