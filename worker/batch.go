package worker

import (
	"context"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchValidator validates batches of instances with bounded parallelism.
type BatchValidator struct {
	validator Validator
	workers   int
}

// NewBatchValidator creates a batch validator running at most workers
// validations at once. If workers <= 0, it defaults to runtime.NumCPU().
func NewBatchValidator(v Validator, workers int) *BatchValidator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &BatchValidator{
		validator: v,
		workers:   workers,
	}
}

// ValidateBatch validates instances in parallel. Job IDs are the input
// indexes. Once ctx is canceled the remaining jobs fail with its error.
func (bv *BatchValidator) ValidateBatch(ctx context.Context, instances [][]byte) *BatchResult {
	jobs := make([]Job, len(instances))
	for i, instance := range instances {
		jobs[i] = Job{ID: strconv.Itoa(i), Index: i, Instance: instance}
	}
	return bv.ValidateJobs(ctx, jobs)
}

// ValidateJobs validates jobs in parallel and returns their results in
// the same order.
func (bv *BatchValidator) ValidateJobs(ctx context.Context, jobs []Job) *BatchResult {
	start := time.Now()
	results := make([]*JobResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(bv.workers)
	for i, job := range jobs {
		if ctx.Err() != nil {
			results[i] = &JobResult{ID: job.ID, Index: job.Index, Error: ctx.Err()}
			continue
		}
		g.Go(func() error {
			results[i] = process(ctx, bv.validator, job)
			return nil
		})
	}
	_ = g.Wait()

	batch := &BatchResult{
		Results:       results,
		TotalJobs:     len(jobs),
		TotalDuration: time.Since(start),
	}
	for _, r := range results {
		batch.CompletedJobs++
		if r.Error != nil {
			batch.FailedJobs++
		}
	}
	return batch
}

func process(ctx context.Context, v Validator, job Job) *JobResult {
	start := time.Now()
	result := &JobResult{ID: job.ID, Index: job.Index}

	switch {
	case v == nil:
		result.Error = ErrNoValidator
	case ctx.Err() != nil:
		result.Error = ctx.Err()
	default:
		result.Result, result.Error = v.Validate(ctx, job.Instance)
	}

	result.Duration = time.Since(start)
	return result
}

// ValidateBatchSimple validates instances with runtime.NumCPU() workers.
func ValidateBatchSimple(ctx context.Context, v Validator, instances [][]byte) *BatchResult {
	return NewBatchValidator(v, runtime.NumCPU()).ValidateBatch(ctx, instances)
}
