// Package validation contains the compiled validator tree and the evaluation
// context it runs with.
//
// Validators are immutable once the compiler has built them and may be
// shared by concurrent evaluations. Everything that changes during an
// evaluation lives in the Context and the evaluated-property sets, and each
// top-level evaluation owns its own.
package validation

import (
	"github.com/gofhir/jsonschema/pkg/output"
	"github.com/gofhir/jsonschema/pkg/patch"
	"github.com/gofhir/jsonschema/pkg/pointer"
	"github.com/gofhir/jsonschema/pool"
)

// DefaultMaxDepth bounds the number of nested reference hops in a single
// evaluation.
const DefaultMaxDepth = 512

// Validator is one node of a compiled schema. The implementations in this
// package are the complete set.
type Validator interface {
	// Reference is the absolute URI of the schema location the validator
	// was compiled from.
	Reference() string
	// Validate checks instance, found at loc, reporting violations to
	// ctx. Names of properties this validator accepted are added to
	// evaluated.
	Validate(ctx *Context, instance any, loc pointer.Pointer, evaluated Props)
	isValidator()
}

type base struct {
	ref string
}

// Reference implements Validator.
func (b base) Reference() string { return b.ref }

func (base) isValidator() {}

// Props is a set of evaluated property names for one object scope.
type Props map[string]struct{}

// Add marks name as evaluated.
func (p Props) Add(name string) { p[name] = struct{}{} }

// Has reports whether name was evaluated.
func (p Props) Has(name string) bool {
	_, ok := p[name]
	return ok
}

// Merge adds every name of other.
func (p Props) Merge(other Props) {
	for name := range other {
		p[name] = struct{}{}
	}
}

var propsPool = pool.NewMapPool[string, struct{}](8)

func acquireProps() Props { return propsPool.Acquire() }

func releaseProps(p Props) { propsPool.Release(p) }

// Context is the per-evaluation state: the reporter, the optional default
// patch and the reference depth.
type Context struct {
	Reporter output.Reporter
	// Patch receives default-value operations. Nil disables them.
	Patch    *patch.Patch
	MaxDepth int

	depth int
}

// NewContext creates a context. A non-positive maxDepth selects
// DefaultMaxDepth.
func NewContext(r output.Reporter, p *patch.Patch, maxDepth int) *Context {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Context{Reporter: r, Patch: p, MaxDepth: maxDepth}
}

// Depth returns the current reference depth.
func (c *Context) Depth() int { return c.depth }

// stop reports whether fail-fast mode has seen an error.
func (c *Context) stop() bool {
	return c.Reporter.FailEarly() && c.Reporter.ErrorCount() > 0
}

func (c *Context) report(keyword, ref string, loc pointer.Pointer, msg string, nested ...output.Output) {
	c.Reporter.Error(output.New(keyword, ref, loc.String(), msg, nested...))
}

// local returns a context that reports into a fresh collector sharing the
// fail-fast setting, the patch and the depth of c. A collector must not be
// reused across subschemas: with fail-fast set, an error from one subschema
// would stop the next one before it reports anything.
func (c *Context) local() (*Context, *output.Collector) {
	col := output.NewCollector(c.Reporter.FailEarly())
	return &Context{Reporter: col, Patch: c.Patch, MaxDepth: c.MaxDepth, depth: c.depth}, col
}

// Evaluate runs v against instance from the document root.
func Evaluate(ctx *Context, v Validator, instance any) {
	evaluated := acquireProps()
	defer releaseProps(evaluated)
	v.Validate(ctx, instance, pointer.Root, evaluated)
}

// Validate runs v against instance with a fresh context and returns the
// number of errors it reported. p may be nil.
func Validate(v Validator, instance any, r output.Reporter, p *patch.Patch) int {
	before := r.ErrorCount()
	Evaluate(NewContext(r, p, 0), v, instance)
	return r.ErrorCount() - before
}

// Cell is an indirection filled after its target is compiled. Reference
// cycles in a schema become back-edges through a Cell.
type Cell struct {
	base
	target Validator
}

// NewCell creates an empty cell for the schema at ref.
func NewCell(ref string) *Cell {
	return &Cell{base: base{ref: ref}}
}

// Set fills the cell. It must be called before any evaluation.
func (c *Cell) Set(v Validator) { c.target = v }

// Target returns the filled validator, or nil.
func (c *Cell) Target() Validator { return c.target }

// Validate implements Validator.
func (c *Cell) Validate(ctx *Context, instance any, loc pointer.Pointer, evaluated Props) {
	if c.target == nil {
		ctx.report("$ref", c.ref, loc, output.Message(output.MsgUnresolvedRef, output.Params{"ref": c.ref}))
		return
	}
	c.target.Validate(ctx, instance, loc, evaluated)
}
