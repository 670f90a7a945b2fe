package validator

import (
	"github.com/gofhir/jsonschema/pkg/loader"
	"github.com/gofhir/jsonschema/pkg/logger"
	"github.com/gofhir/jsonschema/pkg/metrics"
	"github.com/gofhir/jsonschema/pkg/regex"
)

// Option configures a Validator.
type Option func(*Options)

// Options holds all configuration for a Validator.
type Options struct {
	// Schema loading
	BaseURI string
	Draft   loader.Draft
	Fetcher loader.Fetcher

	// Keyword behavior
	FormatAssertion  bool
	ContentAssertion bool

	// Per-call defaults, overridable with ValidateOption
	FailEarly bool
	Defaults  bool
	MaxDepth  int

	// Caches
	Cache *SchemaCache
	Regex *regex.Cache

	Logger  *logger.Logger
	Metrics *metrics.Metrics
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		Draft:            loader.Draft7,
		Fetcher:          loader.DefaultFetcher(),
		FormatAssertion:  true,
		ContentAssertion: true,
		Cache:            defaultCache,
		Regex:            defaultRegex,
		Logger:           logger.Default(),
	}
}

// --- Schema Options ---

// WithBaseURI sets the URI of the schema document. References and output
// locations are resolved against it.
func WithBaseURI(uri string) Option {
	return func(o *Options) {
		o.BaseURI = uri
	}
}

// WithDraft sets the draft used when the schema has no "$schema".
func WithDraft(d loader.Draft) Option {
	return func(o *Options) {
		o.Draft = d
	}
}

// WithFetcher sets how referenced schema documents are retrieved.
func WithFetcher(f loader.Fetcher) Option {
	return func(o *Options) {
		o.Fetcher = f
	}
}

// WithFormatAssertion makes "format" an assertion (the default) or an
// annotation.
func WithFormatAssertion(enable bool) Option {
	return func(o *Options) {
		o.FormatAssertion = enable
	}
}

// WithContentAssertion makes contentEncoding and contentMediaType
// assertions (the default) or annotations.
func WithContentAssertion(enable bool) Option {
	return func(o *Options) {
		o.ContentAssertion = enable
	}
}

// --- Evaluation Options ---

// WithFailEarly stops each validation at the first error.
func WithFailEarly(enable bool) Option {
	return func(o *Options) {
		o.FailEarly = enable
	}
}

// WithDefaults collects a patch adding the defaults of missing properties.
func WithDefaults(enable bool) Option {
	return func(o *Options) {
		o.Defaults = enable
	}
}

// WithMaxDepth bounds the nesting of reference hops in one validation.
// Zero selects validation.DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(o *Options) {
		if depth >= 0 {
			o.MaxDepth = depth
		}
	}
}

// --- Cache Options ---

// WithCache sets the compiled-schema cache. Nil disables caching.
func WithCache(c *SchemaCache) Option {
	return func(o *Options) {
		o.Cache = c
	}
}

// WithCacheSize gives the validator private compiled-schema and regex
// caches of the given size instead of the shared ones.
func WithCacheSize(size int) Option {
	return func(o *Options) {
		o.Cache = NewSchemaCache(size)
		o.Regex = regex.NewCache(size)
	}
}

// --- Observability Options ---

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithMetrics records validation and compile statistics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// validateConfig holds per-call validation options.
type validateConfig struct {
	failEarly bool
	defaults  bool
}

// ValidateOption configures a single Validate call.
type ValidateOption func(*validateConfig)

// ValidateWithFailEarly overrides WithFailEarly for this call only.
func ValidateWithFailEarly(enable bool) ValidateOption {
	return func(c *validateConfig) {
		c.failEarly = enable
	}
}

// ValidateWithDefaults overrides WithDefaults for this call only.
func ValidateWithDefaults(enable bool) ValidateOption {
	return func(c *validateConfig) {
		c.defaults = enable
	}
}
