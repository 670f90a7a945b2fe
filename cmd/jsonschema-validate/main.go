// Package main implements the jsonschema-validate CLI tool.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/gofhir/jsonschema"
	"github.com/gofhir/jsonschema/pkg/loader"
	"github.com/gofhir/jsonschema/pkg/location"
	"github.com/gofhir/jsonschema/pkg/logger"
	"github.com/gofhir/jsonschema/pkg/output"
	"github.com/gofhir/jsonschema/pkg/validator"
	"github.com/gofhir/jsonschema/stream"
	"github.com/gofhir/jsonschema/worker"
)

const usage = `jsonschema-validate - JSON Schema instance validator

Usage:
  jsonschema-validate -schema <schema> [options] <instance>...
  cat instance.json | jsonschema-validate -schema <schema> -

Examples:
  jsonschema-validate -schema person.json alice.json bob.json
  jsonschema-validate -schema person.yaml -draft 2019-09 data/*.json
  jsonschema-validate -schema person.json -defaults -output json alice.json
  jsonschema-validate -schema person.json -stream people.ndjson

Options:
`

// Exit codes.
const (
	exitValid   = 0
	exitInvalid = 1
	exitUsage   = 2
)

// OutputFormat specifies the output format.
type OutputFormat string

// Output format constants.
const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
)

// Config holds CLI configuration
type Config struct {
	Schema      string
	Draft       loader.Draft
	Output      OutputFormat
	FailEarly   bool
	Defaults    bool
	Parallel    int
	AllowHTTP   bool
	Stream      bool
	Verbose     bool
	ShowVersion bool
	Files       []string
}

// InstanceOutput is the JSON output for one instance.
type InstanceOutput struct {
	Instance string          `json:"instance"`
	Valid    bool            `json:"valid"`
	Errors   []output.Output `json:"errors,omitempty"`
	Patch    any             `json:"patch,omitempty"`
	Failure  string          `json:"failure,omitempty"`
	Duration string          `json:"duration"`
}

func main() {
	config, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(exitUsage)
	}
	os.Exit(run(context.Background(), config, os.Stdin, os.Stdout, os.Stderr))
}

func parseFlags(fs *flag.FlagSet, args []string) (*Config, error) {
	config := &Config{}
	var out, draft string

	fs.StringVar(&config.Schema, "schema", "", "Schema file (JSON or YAML)")
	fs.StringVar(&out, "output", "text", "Output format: text, json")
	fs.BoolVar(&config.FailEarly, "fail-early", false, "Stop each validation at the first error")
	fs.BoolVar(&config.Defaults, "defaults", false, "Report a patch adding default values")
	fs.StringVar(&draft, "draft", "7", "Draft used when the schema has no $schema: 7, 2019-09")
	fs.IntVar(&config.Parallel, "parallel", 0, "Number of instances validated at once (default: number of CPUs)")
	fs.BoolVar(&config.Stream, "stream", false, "Each input holds many instances: a JSON array or one value per line")
	fs.BoolVar(&config.AllowHTTP, "http", false, "Fetch http(s) schema references")
	fs.BoolVar(&config.Verbose, "v", false, "Show debug logging")
	fs.BoolVar(&config.ShowVersion, "version", false, "Show version")

	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	d, err := loader.ParseDraft(draft)
	if err != nil {
		fmt.Fprintf(fs.Output(), "Error: %v\n", err)
		return nil, err
	}
	config.Draft = d

	switch strings.ToLower(out) {
	case "json":
		config.Output = OutputJSON
	case "text":
		config.Output = OutputText
	default:
		err := fmt.Errorf("unknown output format %q", out)
		fmt.Fprintf(fs.Output(), "Error: %v\n", err)
		return nil, err
	}

	config.Files = fs.Args()
	return config, nil
}

func run(ctx context.Context, config *Config, stdin io.Reader, stdout, stderr io.Writer) int {
	if config.ShowVersion {
		fmt.Fprintf(stdout, "jsonschema-validate v%s\n", jsonschema.Version)
		return exitValid
	}
	if config.Schema == "" || len(config.Files) == 0 {
		fmt.Fprint(stderr, usage)
		return exitUsage
	}

	level := logger.LevelWarn
	if config.Verbose {
		level = logger.LevelDebug
	}
	log := logger.New(stderr, level)
	defer func() { _ = log.Sync() }()

	v, err := newValidator(ctx, config, log)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitUsage
	}

	validate := worker.ValidatorFunc(func(ctx context.Context, instance []byte) (*output.Result, error) {
		return v.Validate(ctx, instance)
	})

	var batch *worker.BatchResult
	sources := map[string][]byte{}
	if config.Stream {
		batch = validateStreams(ctx, config, validate, stdin)
	} else {
		jobs, unreadable, err := readJobs(config.Files, stdin)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitUsage
		}
		for _, j := range jobs {
			sources[j.ID] = j.Instance
		}
		batch = worker.NewBatchValidator(validate, config.Parallel).ValidateJobs(ctx, jobs)
		batch.Results = append(batch.Results, unreadable...)
		batch.TotalJobs += len(unreadable)
		batch.FailedJobs += len(unreadable)
	}
	log.Debug("Validated %d instances in %v", batch.TotalJobs, batch.TotalDuration.Round(time.Microsecond))

	if config.Output == OutputJSON {
		printJSON(stdout, batch)
	} else {
		for _, r := range batch.Results {
			printText(stdout, r, sources[r.ID])
		}
	}

	if batch.HasErrors() {
		return exitInvalid
	}
	return exitValid
}

func newValidator(ctx context.Context, config *Config, log *logger.Logger) (*validator.Validator, error) {
	data, err := os.ReadFile(config.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	abs, err := filepath.Abs(config.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve schema path: %w", err)
	}

	fetcher := loader.DefaultFetcher()
	if config.AllowHTTP {
		h := loader.NewHTTPFetcher()
		f := loader.FileFetcher{}
		fetcher = loader.SchemeFetcher{"": f, "file": f, "http": h, "https": h}
	}

	return validator.NewWithContext(ctx, data,
		validator.WithFetcher(fetcher),
		validator.WithBaseURI("file://"+filepath.ToSlash(abs)),
		validator.WithDraft(config.Draft),
		validator.WithFailEarly(config.FailEarly),
		validator.WithDefaults(config.Defaults),
		validator.WithLogger(log),
		validator.WithCache(nil),
	)
}

// readJobs expands glob patterns and reads every instance. Files that
// cannot be read are returned as failed results.
func readJobs(patterns []string, stdin io.Reader) ([]worker.Job, []*worker.JobResult, error) {
	var jobs []worker.Job
	var failed []*worker.JobResult
	add := func(id string, data []byte, err error) {
		if err != nil {
			failed = append(failed, &worker.JobResult{ID: id, Error: err})
			return
		}
		jobs = append(jobs, worker.Job{ID: id, Instance: data})
	}

	for _, pattern := range patterns {
		if pattern == "-" {
			data, err := io.ReadAll(stdin)
			add("stdin", data, err)
			continue
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, nil, fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			// Nothing matched: let the read report the missing file.
			matches = []string{pattern}
		}
		for _, path := range matches {
			data, err := os.ReadFile(path)
			add(path, data, err)
		}
	}
	return jobs, failed, nil
}

// validateStreams validates every item of every input. Item results are
// named "input[index]".
func validateStreams(ctx context.Context, config *Config, validate worker.Validator, stdin io.Reader) *worker.BatchResult {
	start := time.Now()
	batch := &worker.BatchResult{}
	sv := stream.NewValidator(validate).WithWorkerCount(config.Parallel)

	add := func(r *worker.JobResult) {
		batch.Results = append(batch.Results, r)
		batch.TotalJobs++
		batch.CompletedJobs++
		if r.Error != nil {
			batch.FailedJobs++
		}
	}

	each := func(name string, r io.Reader) {
		itemStart := time.Now()
		for item := range sv.ValidateStreamParallel(ctx, r) {
			id := name
			if item.Index >= 0 {
				id = fmt.Sprintf("%s[%d]", name, item.Index)
			}
			add(&worker.JobResult{ID: id, Result: item.Result, Error: item.Error, Duration: time.Since(itemStart)})
			itemStart = time.Now()
		}
	}

	for _, name := range config.Files {
		if name == "-" {
			each("stdin", stdin)
			continue
		}
		f, err := os.Open(name)
		if err != nil {
			add(&worker.JobResult{ID: name, Error: err})
			continue
		}
		each(name, f)
		_ = f.Close()
	}

	batch.TotalDuration = time.Since(start)
	return batch
}

// printText prints one result. Error locations are annotated with their
// line and column when the instance source is known.
func printText(w io.Writer, r *worker.JobResult, source []byte) {
	fmt.Fprintf(w, "== %s ==\n", r.ID)
	switch {
	case r.Error != nil:
		fmt.Fprintf(w, "Status: ERROR\n%v\n\n", r.Error)
		return
	case r.Result.Valid:
		fmt.Fprintln(w, "Status: VALID")
	default:
		fmt.Fprintln(w, "Status: INVALID")
	}
	fmt.Fprintf(w, "Errors: %d\n", r.Result.ErrorCount)
	fmt.Fprintf(w, "Duration: %s\n", r.Duration.Round(time.Microsecond))

	if len(r.Result.Outputs) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		var locs []*location.Location
		if source != nil {
			locs = location.Outputs(source, r.Result.Outputs)
		}
		for i, o := range r.Result.Outputs {
			at := ""
			if locs != nil && locs[i] != nil {
				at = " @ " + locs[i].String()
			}
			fmt.Fprintf(w, "  %s [%s]%s\n", o, o.KeywordLocation(), at)
		}
	}
	if len(r.Result.Patch) > 0 {
		fmt.Fprintln(w, "\nDefaults:")
		for _, op := range r.Result.Patch {
			fmt.Fprintf(w, "  %s %s\n", op.Op, op.Path)
		}
	}
	fmt.Fprintln(w)
}

func printJSON(w io.Writer, batch *worker.BatchResult) {
	outputs := make([]InstanceOutput, 0, len(batch.Results))
	for _, r := range batch.Results {
		o := InstanceOutput{
			Instance: r.ID,
			Duration: r.Duration.Round(time.Microsecond).String(),
		}
		if r.Error != nil {
			o.Failure = r.Error.Error()
		} else {
			o.Valid = r.Result.Valid
			o.Errors = r.Result.Outputs
			if len(r.Result.Patch) > 0 {
				o.Patch = r.Result.Patch
			}
		}
		outputs = append(outputs, o)
	}

	data, _ := json.MarshalIndent(outputs, "", "  ")
	fmt.Fprintln(w, string(data))
}
