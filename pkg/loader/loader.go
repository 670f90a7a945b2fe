// Package loader reads JSON and YAML schema documents into declarative
// schema trees and registers every addressable location of them.
//
// References to documents that are not loaded yet are fetched through a
// Fetcher. References into parts of a loaded document that are not
// schemas by keyword (for example a schema kept under an unknown keyword)
// are built on demand from the document itself.
package loader

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/multierr"

	"github.com/gofhir/jsonschema/pkg/logger"
	"github.com/gofhir/jsonschema/pkg/pointer"
	"github.com/gofhir/jsonschema/pkg/registry"
	"github.com/gofhir/jsonschema/pkg/schema"
	"github.com/gofhir/jsonschema/pkg/uri"
)

// Option configures a Loader.
type Option func(*Options)

// Options holds the loader configuration.
type Options struct {
	// Draft applies to documents whose "$schema" is absent or unknown.
	Draft Draft

	// BaseURI identifies the loaded document when it has no "$id".
	BaseURI string

	// Fetcher retrieves referenced documents. Nil disables fetching.
	Fetcher Fetcher

	Logger *logger.Logger
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		Draft:   Draft7,
		Fetcher: DefaultFetcher(),
		Logger:  logger.Default(),
	}
}

// WithDraft sets the fallback draft.
func WithDraft(d Draft) Option {
	return func(o *Options) {
		o.Draft = d
	}
}

// WithBaseURI sets the URI of the loaded document.
func WithBaseURI(u string) Option {
	return func(o *Options) {
		o.BaseURI = u
	}
}

// WithFetcher sets the fetcher for referenced documents.
func WithFetcher(f Fetcher) Option {
	return func(o *Options) {
		o.Fetcher = f
	}
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

type document struct {
	raw   any
	draft Draft
	root  schema.Node
	trees []schema.Node
}

// Loader builds schema trees into a registry. A Loader is not safe for
// concurrent use.
type Loader struct {
	opts *Options
	reg  *registry.Registry
	docs map[string]*document
}

// New creates a loader that registers into reg.
func New(reg *registry.Registry, opts ...Option) *Loader {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Loader{
		opts: o,
		reg:  reg,
		docs: make(map[string]*document),
	}
}

// Registry returns the registry the loader populates.
func (l *Loader) Registry() *registry.Registry { return l.reg }

// Documents returns the number of loaded documents.
func (l *Loader) Documents() int { return len(l.docs) }

// Load parses data as the root schema document and loads everything it
// references. The recursive reference pass has run on the returned tree.
func (l *Loader) Load(ctx context.Context, data []byte) (schema.Node, error) {
	raw, err := parse(data)
	if err != nil {
		return nil, err
	}

	docURI := ""
	if l.opts.BaseURI != "" {
		canonical, err := uri.Canonical(l.opts.BaseURI)
		if err != nil {
			return nil, fmt.Errorf("invalid base URI: %w", err)
		}
		docURI, _ = uri.Split(canonical)
	}

	doc, pending, err := l.add(docURI, raw)
	if err != nil {
		return nil, err
	}

	roots, err := l.resolve(ctx, pending)
	if err != nil {
		return nil, err
	}

	var errs error
	for _, root := range slices.Concat(doc.trees, roots) {
		errs = multierr.Append(errs, schema.ResolveRecursiveRefs(root, "", false, l.reg))
	}
	if errs != nil {
		return nil, errs
	}
	return doc.root, nil
}

// add builds and registers a parsed document. It returns the references
// the document makes.
func (l *Loader) add(docURI string, raw any) (*document, []string, error) {
	if _, exists := l.docs[docURI]; exists {
		return nil, nil, fmt.Errorf("document %q is already loaded", docURI)
	}

	draft := l.opts.Draft
	if o, ok := raw.(object); ok {
		if ms, ok := o.get("$schema"); ok {
			s, _ := ms.(string)
			if d, known := DetectDraft(s); known {
				draft = d
			} else {
				l.opts.Logger.Warn("unknown $schema %q in %s, using draft %s", s, docLabel(docURI), draft)
			}
		}
	}

	b := &builder{reg: l.reg, draft: draft, docURI: docURI}
	root := b.schema(raw, location{base: docURI})
	if b.errs != nil {
		return nil, nil, b.errs
	}

	doc := &document{raw: raw, draft: draft, root: root, trees: append([]schema.Node{root}, b.trees...)}
	l.docs[docURI] = doc
	l.opts.Logger.Debug("loaded %s (draft %s, %d references)", docLabel(docURI), draft, len(b.refs))
	return doc, b.refs, nil
}

// resolve loads whatever the pending references need and returns the roots
// of the trees it built.
func (l *Loader) resolve(ctx context.Context, pending []string) ([]schema.Node, error) {
	var roots []schema.Node
	var errs error

	for len(pending) > 0 {
		target := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		if l.reg.Has(target) {
			continue
		}

		docURI, _ := uri.Split(target)
		doc, loaded := l.docs[docURI]
		if !loaded {
			refs, err := l.fetch(ctx, docURI)
			if err != nil {
				errs = multierr.Append(errs, err)
				continue
			}
			doc = l.docs[docURI]
			roots = append(roots, doc.trees...)
			pending = append(pending, refs...)
			if l.reg.Has(target) {
				continue
			}
		}

		trees, refs, err := l.buildAt(doc, docURI, target)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		roots = append(roots, trees...)
		pending = append(pending, refs...)
	}
	return roots, errs
}

func (l *Loader) fetch(ctx context.Context, docURI string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.opts.Fetcher == nil || docURI == "" {
		return nil, &schema.SchemaError{URI: docURI, Err: schema.ErrUnresolvedReference}
	}

	l.opts.Logger.Info("fetching schema %s", docURI)
	data, err := l.opts.Fetcher.Fetch(ctx, docURI)
	if err != nil {
		return nil, &schema.SchemaError{URI: docURI, Err: fmt.Errorf("%w: %w", schema.ErrUnresolvedReference, err)}
	}
	raw, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", docURI, err)
	}
	_, refs, err := l.add(docURI, raw)
	return refs, err
}

// buildAt builds the schema found at a JSON Pointer fragment of a loaded
// document and returns the trees it built. Targets that are not pointers,
// or point nowhere, are left for the compiler to report.
func (l *Loader) buildAt(doc *document, docURI, target string) ([]schema.Node, []string, error) {
	frag, err := uri.DecodedFragment(target)
	if err != nil || !strings.HasPrefix(frag, "/") {
		return nil, nil, nil
	}
	ptr, err := pointer.Parse(frag)
	if err != nil {
		return nil, nil, nil
	}

	raw, found := navigate(doc.raw, ptr.Tokens())
	if !found {
		return nil, nil, nil
	}

	b := &builder{reg: l.reg, draft: doc.draft, docURI: docURI}
	root := b.schema(raw, location{base: docURI, ptr: ptr, doc: ptr})
	if b.errs != nil {
		return nil, nil, b.errs
	}
	return append([]schema.Node{root}, b.trees...), b.refs, nil
}

func navigate(raw any, tokens []string) (any, bool) {
	cur := raw
	for _, tok := range tokens {
		switch v := cur.(type) {
		case object:
			next, ok := v.get(tok)
			if !ok {
				return nil, false
			}
			cur = next
		case []any:
			i, ok := arrayIndex(tok, len(v))
			if !ok {
				return nil, false
			}
			cur = v[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func arrayIndex(tok string, n int) (int, bool) {
	if tok == "" || (len(tok) > 1 && tok[0] == '0') {
		return 0, false
	}
	i := 0
	for _, c := range tok {
		if c < '0' || c > '9' {
			return 0, false
		}
		i = i*10 + int(c-'0')
		if i >= n {
			return 0, false
		}
	}
	return i, true
}

func docLabel(docURI string) string {
	if docURI == "" {
		return "root document"
	}
	return docURI
}
