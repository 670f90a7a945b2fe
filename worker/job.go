package worker

import (
	"context"
	"time"

	"github.com/gofhir/jsonschema/pkg/output"
)

// Validator validates one instance document.
type Validator interface {
	Validate(ctx context.Context, instance []byte) (*output.Result, error)
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(ctx context.Context, instance []byte) (*output.Result, error)

// Validate implements Validator.
func (f ValidatorFunc) Validate(ctx context.Context, instance []byte) (*output.Result, error) {
	return f(ctx, instance)
}

// Job is one instance to validate.
type Job struct {
	// ID identifies the job in its result, for example a file name.
	ID string

	// Index is copied to the result so callers can restore input order.
	Index int

	// Instance is the JSON document to validate.
	Instance []byte
}

// JobResult is the outcome of one job.
type JobResult struct {
	// ID matches the Job.ID that produced this result.
	ID    string
	Index int

	// Result is nil when Error is set.
	Result *output.Result

	// Error is set when the instance could not be validated at all, for
	// example because it is not JSON or the batch was canceled.
	Error error

	Duration time.Duration
}

// Valid reports whether the job completed without validation errors.
func (r *JobResult) Valid() bool {
	return r.Error == nil && r.Result != nil && r.Result.Valid
}

// BatchResult aggregates the results of a batch.
type BatchResult struct {
	// Results are in submission order.
	Results []*JobResult

	TotalJobs     int
	CompletedJobs int
	// FailedJobs counts jobs that ended with an Error.
	FailedJobs int

	// TotalDuration is the wall time of the batch.
	TotalDuration time.Duration
}

// HasErrors reports whether any job failed or found validation errors.
func (br *BatchResult) HasErrors() bool {
	for _, r := range br.Results {
		if r.Error != nil {
			return true
		}
		if r.Result != nil && r.Result.HasErrors() {
			return true
		}
	}
	return false
}

// ErrorCount returns the total number of validation errors across all
// results.
func (br *BatchResult) ErrorCount() int {
	count := 0
	for _, r := range br.Results {
		if r.Result != nil {
			count += r.Result.ErrorCount
		}
	}
	return count
}

// ValidCount returns the number of valid instances.
func (br *BatchResult) ValidCount() int {
	count := 0
	for _, r := range br.Results {
		if r.Valid() {
			count++
		}
	}
	return count
}
