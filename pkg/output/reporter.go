package output

// Reporter receives the outputs produced by an evaluation. FailEarly asks
// validators to stop as soon as ErrorCount is non-zero.
type Reporter interface {
	Error(o Output)
	ErrorCount() int
	FailEarly() bool
}

// Collector keeps every reported output.
type Collector struct {
	failEarly bool
	outputs   []Output
}

// NewCollector creates a collect-all reporter.
func NewCollector(failEarly bool) *Collector {
	return &Collector{failEarly: failEarly}
}

// Error records o.
func (c *Collector) Error(o Output) {
	c.outputs = append(c.outputs, o)
}

// ErrorCount returns the number of recorded outputs.
func (c *Collector) ErrorCount() int { return len(c.outputs) }

// FailEarly reports the fail-fast setting.
func (c *Collector) FailEarly() bool { return c.failEarly }

// Outputs returns the recorded outputs in report order.
func (c *Collector) Outputs() []Output { return c.outputs }

// Counter counts outputs without keeping them.
type Counter struct {
	failEarly bool
	count     int
}

// NewCounter creates a counting-only reporter.
func NewCounter(failEarly bool) *Counter {
	return &Counter{failEarly: failEarly}
}

// Error increments the count.
func (c *Counter) Error(Output) { c.count++ }

// ErrorCount returns the count.
func (c *Counter) ErrorCount() int { return c.count }

// FailEarly reports the fail-fast setting.
func (c *Counter) FailEarly() bool { return c.failEarly }

// FuncReporter forwards each output to a callback.
type FuncReporter struct {
	fn        func(Output)
	failEarly bool
	count     int
}

// ReporterFunc adapts fn to a Reporter.
func ReporterFunc(failEarly bool, fn func(Output)) *FuncReporter {
	return &FuncReporter{fn: fn, failEarly: failEarly}
}

// Error counts o and passes it to the callback.
func (r *FuncReporter) Error(o Output) {
	r.count++
	r.fn(o)
}

// ErrorCount returns the number of forwarded outputs.
func (r *FuncReporter) ErrorCount() int { return r.count }

// FailEarly reports the fail-fast setting.
func (r *FuncReporter) FailEarly() bool { return r.failEarly }
