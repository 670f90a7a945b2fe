package schema

import (
	"go.uber.org/multierr"

	"github.com/gofhir/jsonschema/pkg/uri"
)

// Lookup resolves a canonical URI to a node.
type Lookup interface {
	Get(uri string) (Node, error)
}

// ResolveRecursiveRefs annotates every "$recursiveRef" below n with its
// target. base is the base URI in effect and hasAnchor reports whether an
// enclosing schema declared "$recursiveAnchor": true.
//
// Inside an anchored scope the outer base is kept, so "#" resolves to the
// root of the anchoring schema's document. Otherwise each schema object starts its own
// scope. References are not followed; each document is resolved on its own.
func ResolveRecursiveRefs(n Node, base string, hasAnchor bool, reg Lookup) error {
	o, ok := n.(*ObjectNode)
	if !ok {
		return nil
	}
	if !hasAnchor {
		base = o.Ref
		hasAnchor = o.RecursiveAnchor
	}
	var errs error
	for _, kw := range o.Keywords {
		errs = multierr.Append(errs, resolveKeyword(kw, base, hasAnchor, reg))
	}
	return errs
}

func resolveKeyword(kw Keyword, base string, hasAnchor bool, reg Lookup) error {
	rr, ok := kw.(*RecursiveRef)
	if !ok {
		var errs error
		for _, child := range Subschemas(kw) {
			errs = multierr.Append(errs, ResolveRecursiveRefs(child, base, hasAnchor, reg))
		}
		return errs
	}

	target := rr.Ref
	if hasAnchor {
		// "#" names the root of the anchoring document, not the anchor's
		// own fragment.
		doc, _ := uri.Split(base)
		target = doc + "#"
	}
	if _, err := reg.Get(target); err != nil {
		return err
	}
	rr.Target = target
	return nil
}
