// Package validator provides a JSON Schema validator.
//
// A Validator is built once from a schema document and validates any number
// of instances, concurrently if needed:
//
//	v, err := validator.New(schemaJSON, validator.WithDefaults(true))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := v.Validate(ctx, instanceJSON)
//	for _, o := range result.Outputs {
//	    fmt.Println(o)
//	}
//
// Compiled schemas are shared through a SchemaCache, so creating validators
// for the same schema repeatedly compiles it once.
package validator

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/gofhir/jsonschema/cache"
	"github.com/gofhir/jsonschema/pkg/compiler"
	"github.com/gofhir/jsonschema/pkg/loader"
	"github.com/gofhir/jsonschema/pkg/output"
	"github.com/gofhir/jsonschema/pkg/patch"
	"github.com/gofhir/jsonschema/pkg/regex"
	"github.com/gofhir/jsonschema/pkg/registry"
	"github.com/gofhir/jsonschema/pkg/validation"
	"github.com/gofhir/jsonschema/pkg/value"
)

// DefaultCacheSize is the capacity of the shared compiled-schema cache.
const DefaultCacheSize = 128

// ErrInvalidInstance is returned for instance documents that are not JSON.
var ErrInvalidInstance = errors.New("invalid instance document")

var (
	defaultCache = NewSchemaCache(DefaultCacheSize)
	defaultRegex = regex.NewCache(regex.DefaultCacheSize)
)

// SchemaCache holds compiled schemas keyed by the schema bytes and every
// option that changes the compiled result.
type SchemaCache struct {
	c *cache.Cache[uint64, validation.Validator]
}

// NewSchemaCache creates a cache holding up to size compiled schemas.
func NewSchemaCache(size int) *SchemaCache {
	return &SchemaCache{c: cache.New[uint64, validation.Validator](size)}
}

// Stats exposes the cache statistics.
func (c *SchemaCache) Stats() cache.Stats {
	return c.c.Stats()
}

// Clear drops every compiled schema.
func (c *SchemaCache) Clear() {
	c.c.Clear()
}

// Validator validates instances against one compiled schema. It is safe
// for concurrent use.
type Validator struct {
	opts     *Options
	schema   validation.Validator
	cacheHit bool
}

// New compiles schema and returns a validator for it.
func New(schema []byte, opts ...Option) (*Validator, error) {
	return NewWithContext(context.Background(), schema, opts...)
}

// NewWithContext is New with a context bounding the fetching of referenced
// schema documents.
func NewWithContext(ctx context.Context, schema []byte, opts ...Option) (*Validator, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	start := time.Now()
	compiled := false
	build := func() (validation.Validator, error) {
		compiled = true
		return compile(ctx, schema, o)
	}

	var v validation.Validator
	var err error
	if o.Cache != nil {
		v, err = o.Cache.c.GetOrLoad(cacheKey(schema, o), build)
	} else {
		v, err = build()
	}
	if err != nil {
		if o.Metrics != nil {
			o.Metrics.RecordCompileError()
		}
		return nil, err
	}

	if o.Metrics != nil {
		if compiled {
			o.Metrics.RecordCacheMiss()
		} else {
			o.Metrics.RecordCacheHit()
		}
	}
	if compiled {
		o.Logger.Info("Compiled schema %s in %v", schemaLabel(v.Reference()), time.Since(start).Round(time.Microsecond))
	} else {
		o.Logger.Debug("Using cached schema %s", schemaLabel(v.Reference()))
	}

	return &Validator{opts: o, schema: v, cacheHit: !compiled}, nil
}

func compile(ctx context.Context, schema []byte, o *Options) (validation.Validator, error) {
	reg := registry.New()
	l := loader.New(reg,
		loader.WithDraft(o.Draft),
		loader.WithBaseURI(o.BaseURI),
		loader.WithFetcher(o.Fetcher),
		loader.WithLogger(o.Logger),
	)
	root, err := l.Load(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema: %w", err)
	}
	reg.Seal()
	o.Logger.Debug("Loaded %d schema documents, %d locations", l.Documents(), reg.Count())

	v, err := compiler.Compile(root, o.BaseURI, reg,
		compiler.WithRegexCache(o.Regex),
		compiler.WithFormatAssertion(o.FormatAssertion),
		compiler.WithContentAssertion(o.ContentAssertion),
		compiler.WithLogger(o.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return v, nil
}

// cacheKey hashes the schema with the options that change compilation.
// The fetcher is not part of the key.
func cacheKey(schema []byte, o *Options) uint64 {
	d := xxhash.New()
	_, _ = d.Write(schema)
	_, _ = d.WriteString("\x00" + o.BaseURI + "\x00" + o.Draft.String())
	_, _ = d.WriteString(strconv.FormatBool(o.FormatAssertion) + strconv.FormatBool(o.ContentAssertion))
	return d.Sum64()
}

func schemaLabel(ref string) string {
	if ref == "#" {
		return "(anonymous)"
	}
	return ref
}

// Validate decodes instance as JSON and validates it.
func (v *Validator) Validate(ctx context.Context, instance []byte, opts ...ValidateOption) (*output.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := value.Decode(instance)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInstance, err)
	}
	result := v.run(doc, opts)
	result.Stats.InstanceSize = len(instance)
	return result, nil
}

// ValidateValue validates an already decoded instance. Values built in Go
// (float64, int, []string, ...) are normalized first.
func (v *Validator) ValidateValue(ctx context.Context, instance any, opts ...ValidateOption) (*output.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := value.Normalize(instance)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInstance, err)
	}
	return v.run(doc, opts), nil
}

func (v *Validator) run(doc any, opts []ValidateOption) *output.Result {
	vc := validateConfig{failEarly: v.opts.FailEarly, defaults: v.opts.Defaults}
	for _, opt := range opts {
		opt(&vc)
	}

	start := time.Now()
	col := output.NewCollector(vc.failEarly)
	var p *patch.Patch
	if vc.defaults {
		p = &patch.Patch{}
	}
	validation.Evaluate(validation.NewContext(col, p, v.opts.MaxDepth), v.schema, doc)

	var ops patch.Patch
	if p != nil {
		ops = *p
	}
	result := output.NewResult(col, ops)
	result.Stats = &output.Stats{
		SchemaURI: v.schema.Reference(),
		Duration:  time.Since(start),
		CacheHit:  v.cacheHit,
	}

	if v.opts.Metrics != nil {
		v.opts.Metrics.RecordValidation(result.Stats.Duration, result.Valid, result.ErrorCount)
	}
	v.opts.Logger.Debug("Validated instance in %.3fms: %d errors", result.Stats.DurationMs(), result.ErrorCount)
	return result
}

// ValidateJSON validates an instance given as a JSON string.
func (v *Validator) ValidateJSON(ctx context.Context, instance string, opts ...ValidateOption) (*output.Result, error) {
	return v.Validate(ctx, []byte(instance), opts...)
}

// Schema returns the compiled validator tree.
func (v *Validator) Schema() validation.Validator {
	return v.schema
}

// Options returns the validator configuration.
func (v *Validator) Options() *Options {
	return v.opts
}

// ApplyDefaults returns instance with the patch of result applied.
func ApplyDefaults(instance any, result *output.Result) (any, error) {
	if result == nil || len(result.Patch) == 0 {
		return instance, nil
	}
	return patch.Apply(instance, result.Patch)
}
