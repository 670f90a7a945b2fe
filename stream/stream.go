// Package stream validates large inputs holding many instances: a JSON
// array, or a sequence of JSON values such as NDJSON. Items are decoded one
// at a time so the whole input never needs to be in memory.
package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/gofhir/jsonschema/pkg/output"
	"github.com/gofhir/jsonschema/worker"
)

// Format is the layout of a stream.
type Format int

const (
	// FormatAuto reads an array when the input starts with '[', and a
	// value sequence otherwise.
	FormatAuto Format = iota
	// FormatArray reads the elements of one top-level array.
	FormatArray
	// FormatSequence reads whitespace-separated values, one instance each.
	FormatSequence
)

// ErrNotArray is returned in FormatArray mode for input not starting with '['.
var ErrNotArray = errors.New("stream does not start with an array")

// ItemResult is the validation result for one item of a stream.
type ItemResult struct {
	// Index is the position of the item in the stream. It is -1 for
	// errors affecting the stream as a whole.
	Index int

	// Result is nil when Error is set.
	Result *output.Result

	Error error
}

// Validator validates streams item by item.
type Validator struct {
	validate    worker.Validator
	format      Format
	bufferSize  int
	workerCount int
}

// NewValidator creates a stream validator validating each item with v.
func NewValidator(v worker.Validator) *Validator {
	return &Validator{
		validate:    v,
		bufferSize:  100,
		workerCount: 4,
	}
}

// WithFormat sets the stream layout.
func (v *Validator) WithFormat(f Format) *Validator {
	v.format = f
	return v
}

// WithBufferSize sets the channel buffer size.
func (v *Validator) WithBufferSize(size int) *Validator {
	if size > 0 {
		v.bufferSize = size
	}
	return v
}

// WithWorkerCount sets the number of parallel workers.
func (v *Validator) WithWorkerCount(count int) *Validator {
	if count > 0 {
		v.workerCount = count
	}
	return v
}

// items decodes raw items from r. A syntax error ends the stream.
type items struct {
	dec   *json.Decoder
	array bool
}

func (v *Validator) open(r io.Reader) (*items, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read stream: %w", err)
	}

	it := &items{dec: json.NewDecoder(br)}
	switch v.format {
	case FormatArray:
		if first != '[' {
			return nil, ErrNotArray
		}
		it.array = true
	case FormatAuto:
		it.array = first == '['
	}

	if it.array {
		if _, err := it.dec.Token(); err != nil {
			return nil, fmt.Errorf("failed to read array start: %w", err)
		}
	}
	return it, nil
}

// next returns the next item, or io.EOF at the end of the stream.
func (it *items) next() (json.RawMessage, error) {
	if it.array && !it.dec.More() {
		if _, err := it.dec.Token(); err != nil {
			return nil, fmt.Errorf("failed to read array end: %w", err)
		}
		return nil, io.EOF
	}
	var raw json.RawMessage
	if err := it.dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) && !it.array {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("failed to decode item: %w", err)
	}
	return raw, nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

// ValidateStream validates the items of r one after another, emitting a
// result for each as soon as it is validated.
func (v *Validator) ValidateStream(ctx context.Context, r io.Reader) <-chan *ItemResult {
	results := make(chan *ItemResult, v.bufferSize)

	go func() {
		defer close(results)

		it, err := v.open(r)
		if err != nil {
			results <- &ItemResult{Index: -1, Error: err}
			return
		}

		for index := 0; ; index++ {
			if err := ctx.Err(); err != nil {
				results <- &ItemResult{Index: -1, Error: err}
				return
			}
			raw, err := it.next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				results <- &ItemResult{Index: -1, Error: fmt.Errorf("item %d: %w", index, err)}
				return
			}
			results <- v.process(ctx, index, raw)
		}
	}()

	return results
}

func (v *Validator) process(ctx context.Context, index int, raw []byte) *ItemResult {
	result := &ItemResult{Index: index}
	if v.validate == nil {
		result.Error = worker.ErrNoValidator
		return result
	}
	result.Result, result.Error = v.validate.Validate(ctx, raw)
	return result
}

// ValidateStreamParallel validates items on a worker.Pool while still
// emitting results in stream order.
func (v *Validator) ValidateStreamParallel(ctx context.Context, r io.Reader) <-chan *ItemResult {
	results := make(chan *ItemResult, v.bufferSize)

	go func() {
		defer close(results)

		it, err := v.open(r)
		if err != nil {
			results <- &ItemResult{Index: -1, Error: err}
			return
		}

		pool := worker.NewPoolWithContext(ctx, v.validate, v.workerCount)

		// The reader's terminal error is emitted after every item result.
		var streamErr error
		go func() {
			defer pool.Shutdown()
			for index := 0; ; index++ {
				if err := ctx.Err(); err != nil {
					streamErr = err
					return
				}
				raw, err := it.next()
				if errors.Is(err, io.EOF) {
					return
				}
				if err != nil {
					streamErr = fmt.Errorf("item %d: %w", index, err)
					return
				}
				if !pool.Submit(worker.Job{ID: strconv.Itoa(index), Index: index, Instance: raw}) {
					streamErr = ctx.Err()
					return
				}
			}
		}()

		pending := make(map[int]*ItemResult)
		nextIndex := 0
		for jr := range pool.Results() {
			pending[jr.Index] = &ItemResult{Index: jr.Index, Result: jr.Result, Error: jr.Error}
			for {
				r, ok := pending[nextIndex]
				if !ok {
					break
				}
				results <- r
				delete(pending, nextIndex)
				nextIndex++
			}
		}

		if streamErr != nil {
			results <- &ItemResult{Index: -1, Error: streamErr}
		}
	}()

	return results
}

// StreamResult aggregates the results of a stream.
type StreamResult struct {
	// TotalItems is the number of items validated.
	TotalItems int

	// InvalidItems counts items with validation errors.
	InvalidItems int

	// TotalErrors is the number of validation errors over all items.
	TotalErrors int

	// ProcessingErrors are failures other than validation errors.
	ProcessingErrors []error

	// Outputs holds the validation errors of each invalid item.
	Outputs map[int][]output.Output
}

// Aggregate collects all results from a streaming validation.
func Aggregate(results <-chan *ItemResult) *StreamResult {
	agg := &StreamResult{
		Outputs: make(map[int][]output.Output),
	}

	for result := range results {
		if result.Error != nil {
			agg.ProcessingErrors = append(agg.ProcessingErrors, result.Error)
			continue
		}
		agg.TotalItems++

		if result.Result == nil || result.Result.Valid {
			continue
		}
		agg.InvalidItems++
		agg.TotalErrors += result.Result.ErrorCount
		agg.Outputs[result.Index] = result.Result.Outputs
	}

	return agg
}

// HasErrors returns true if any item was invalid or could not be processed.
func (r *StreamResult) HasErrors() bool {
	return r.InvalidItems > 0 || len(r.ProcessingErrors) > 0
}

// Summary returns a human-readable summary of the validation.
func (r *StreamResult) Summary() string {
	return fmt.Sprintf("Validated %d items: %d invalid, %d errors, %d processing failures",
		r.TotalItems, r.InvalidItems, r.TotalErrors, len(r.ProcessingErrors))
}
