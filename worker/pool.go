package worker

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Pool is a fixed set of worker goroutines validating submitted jobs.
type Pool struct {
	workers    int
	jobsChan   chan Job
	resultChan chan *JobResult
	validator  Validator
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	closed     atomic.Bool

	jobsSubmitted atomic.Uint64
	jobsCompleted atomic.Uint64
	jobsFailed    atomic.Uint64
	totalDuration atomic.Uint64
}

// NewPool creates a pool with the given number of workers.
// If workers <= 0, it defaults to runtime.NumCPU().
func NewPool(validator Validator, workers int) *Pool {
	return NewPoolWithContext(context.Background(), validator, workers)
}

// NewPoolWithContext is like NewPool, but the workers stop and Submit fails
// once ctx is done.
func NewPoolWithContext(parent context.Context, validator Validator, workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(parent)

	p := &Pool{
		workers:    workers,
		jobsChan:   make(chan Job, workers*2),
		resultChan: make(chan *JobResult, workers*2),
		validator:  validator,
		ctx:        ctx,
		cancel:     cancel,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	return p
}

// Submit queues a job, blocking while the queue is full.
// It returns false once the pool is closed.
func (p *Pool) Submit(job Job) bool {
	if p.closed.Load() || p.ctx.Err() != nil {
		return false
	}

	select {
	case <-p.ctx.Done():
		return false
	case p.jobsChan <- job:
		p.jobsSubmitted.Add(1)
		return true
	}
}

// SubmitAsync queues a job without blocking.
// It returns false if the queue is full or the pool is closed.
func (p *Pool) SubmitAsync(job Job) bool {
	if p.closed.Load() || p.ctx.Err() != nil {
		return false
	}

	select {
	case <-p.ctx.Done():
		return false
	case p.jobsChan <- job:
		p.jobsSubmitted.Add(1)
		return true
	default:
		return false
	}
}

// Results returns the channel delivering job results.
func (p *Pool) Results() <-chan *JobResult {
	return p.resultChan
}

// Close stops the workers and discards any result not yet received.
func (p *Pool) Close() {
	if p.closed.Swap(true) {
		return
	}

	p.cancel()
	close(p.jobsChan)

	done := make(chan struct{})
	go func() {
		for range p.resultChan { //nolint:revive // drain
		}
		close(done)
	}()

	p.wg.Wait()
	close(p.resultChan)
	<-done
}

// Shutdown stops accepting jobs and lets the workers finish the queued
// ones. Results is closed after the last result has been received.
// Submit must not be called concurrently with Shutdown.
func (p *Pool) Shutdown() {
	if p.closed.Swap(true) {
		return
	}

	close(p.jobsChan)

	go func() {
		p.wg.Wait()
		close(p.resultChan)
		p.cancel()
	}()
}

// CloseAndWait stops accepting jobs, finishes the queued ones and returns
// every result not yet received from Results.
func (p *Pool) CloseAndWait() *BatchResult {
	start := time.Now()
	if p.closed.Load() {
		return &BatchResult{}
	}
	p.Shutdown()

	results := make([]*JobResult, 0)
	for result := range p.resultChan {
		results = append(results, result)
	}

	return &BatchResult{
		Results:       results,
		TotalJobs:     int(p.jobsSubmitted.Load()),   //nolint:gosec // job counts fit in int
		CompletedJobs: int(p.jobsCompleted.Load()),   //nolint:gosec // job counts fit in int
		FailedJobs:    int(p.jobsFailed.Load()),      //nolint:gosec // job counts fit in int
		TotalDuration: time.Since(start),
	}
}

// PoolStats contains pool statistics.
type PoolStats struct {
	Workers       int
	JobsSubmitted uint64
	JobsCompleted uint64
	JobsFailed    uint64
	AvgDuration   time.Duration
}

// Stats returns current pool statistics.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:       p.workers,
		JobsSubmitted: p.jobsSubmitted.Load(),
		JobsCompleted: p.jobsCompleted.Load(),
		JobsFailed:    p.jobsFailed.Load(),
		AvgDuration:   p.averageDuration(),
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for job := range p.jobsChan {
		result := process(p.ctx, p.validator, job)
		p.jobsCompleted.Add(1)
		if result.Error != nil {
			p.jobsFailed.Add(1)
		}
		p.totalDuration.Add(uint64(result.Duration)) //nolint:gosec // durations are positive

		select {
		case <-p.ctx.Done():
			return
		case p.resultChan <- result:
		}
	}
}

func (p *Pool) averageDuration() time.Duration {
	completed := p.jobsCompleted.Load()
	if completed == 0 {
		return 0
	}
	return time.Duration(p.totalDuration.Load() / completed) //nolint:gosec // nanoseconds within int64 range
}

// ErrNoValidator is returned when the pool has no validator configured.
var ErrNoValidator = poolError("no validator configured")

type poolError string

func (e poolError) Error() string {
	return string(e)
}
