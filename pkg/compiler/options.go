package compiler

import (
	"github.com/gofhir/jsonschema/pkg/logger"
	"github.com/gofhir/jsonschema/pkg/regex"
)

// Option configures a compile.
type Option func(*Options)

// Options holds the compile configuration.
type Options struct {
	// Regex caches compiled patterns. Nil compiles every pattern afresh.
	Regex *regex.Cache

	// FormatAssertion makes "format" a validating keyword. When false the
	// keyword is an annotation and compiles to nothing.
	FormatAssertion bool

	// ContentAssertion does the same for contentEncoding and
	// contentMediaType.
	ContentAssertion bool

	Logger *logger.Logger
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		FormatAssertion:  true,
		ContentAssertion: true,
		Logger:           logger.Default(),
	}
}

// WithRegexCache shares a pattern cache between compiles.
func WithRegexCache(c *regex.Cache) Option {
	return func(o *Options) {
		o.Regex = c
	}
}

// WithFormatAssertion enables or disables "format" assertions.
func WithFormatAssertion(enable bool) Option {
	return func(o *Options) {
		o.FormatAssertion = enable
	}
}

// WithContentAssertion enables or disables content assertions.
func WithContentAssertion(enable bool) Option {
	return func(o *Options) {
		o.ContentAssertion = enable
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}
