// Package worker validates many instances against one schema in parallel.
//
// BatchValidator validates a fixed batch and returns the results in input
// order:
//
//	bv := worker.NewBatchValidator(worker.ValidatorFunc(func(ctx context.Context, b []byte) (*output.Result, error) {
//	    return v.Validate(ctx, b)
//	}), 8)
//	batch := bv.ValidateBatch(ctx, instances)
//
// Pool accepts jobs as they arrive and streams results back. The parallel
// mode of the stream package runs on it:
//
//	pool := worker.NewPoolWithContext(ctx, validator, 4)
//	go func() {
//	    defer pool.Shutdown()
//	    pool.Submit(worker.Job{ID: "a.json", Index: 0, Instance: data})
//	}()
//	for result := range pool.Results() {
//	    // ...
//	}
package worker
