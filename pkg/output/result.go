package output

import (
	"time"

	"github.com/gofhir/jsonschema/pkg/patch"
)

// Stats contains validation statistics.
type Stats struct {
	// InstanceSize is the size of the input in bytes, when known.
	InstanceSize int `json:"instanceSize,omitempty"`
	// SchemaURI is the base URI of the schema used.
	SchemaURI string `json:"schemaURI,omitempty"`
	// Duration is the total validation time.
	Duration time.Duration `json:"duration"`
	// CacheHit reports whether the compiled schema came from the cache.
	CacheHit bool `json:"cacheHit"`
}

// DurationMs returns the duration in milliseconds.
func (s *Stats) DurationMs() float64 {
	return float64(s.Duration) / float64(time.Millisecond)
}

// Result holds the outcome of validating one instance.
type Result struct {
	Valid      bool        `json:"valid"`
	ErrorCount int         `json:"errorCount"`
	Outputs    []Output    `json:"errors,omitempty"`
	Patch      patch.Patch `json:"patch,omitempty"`
	Stats      *Stats      `json:"stats,omitempty"`
}

// NewResult builds a Result from a finished reporter. Counting-only reporters
// yield a result without outputs.
func NewResult(r Reporter, p patch.Patch) *Result {
	res := &Result{
		Valid:      r.ErrorCount() == 0,
		ErrorCount: r.ErrorCount(),
		Patch:      p,
	}
	if c, ok := r.(*Collector); ok {
		res.Outputs = c.Outputs()
	}
	return res
}

// HasErrors reports whether any violation was found.
func (r *Result) HasErrors() bool {
	return r.ErrorCount > 0
}

// ByKeyword returns the top-level outputs reported for keyword.
func (r *Result) ByKeyword(keyword string) []Output {
	var out []Output
	for _, o := range r.Outputs {
		if o.Keyword() == keyword {
			out = append(out, o)
		}
	}
	return out
}

// Messages returns the "location: message" form of every top-level output.
func (r *Result) Messages() []string {
	msgs := make([]string, len(r.Outputs))
	for i, o := range r.Outputs {
		msgs[i] = o.String()
	}
	return msgs
}

// Merge appends the outputs and patch of other.
func (r *Result) Merge(other *Result) {
	if other == nil {
		return
	}
	r.Outputs = append(r.Outputs, other.Outputs...)
	r.Patch = append(r.Patch, other.Patch...)
	r.ErrorCount += other.ErrorCount
	r.Valid = r.ErrorCount == 0
}
