// Package reporter delivers per-file outcomes and batch events to the
// terminal, the run log, or library callers.
package reporter

import "time"

// Status is the final state of one file within an operation.
type Status string

const (
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Reporter receives events from a batch operation. Implementations must be
// safe for concurrent use.
type Reporter interface {
	BatchStarted(info BatchStartInfo)
	FileResult(outcome FileOutcome)
	Warning(message string)
	Error(err ReporterError)
	BatchComplete(summary BatchSummary)
	Verbose(message string)
}

// BatchStartInfo describes an operation about to run.
type BatchStartInfo struct {
	Operation  string
	Roots      []string
	TotalFiles int
	DryRun     bool
}

// FileOutcome is the result of one file within an operation.
type FileOutcome struct {
	Path       string
	Target     string
	Action     string
	Status     Status
	Detail     string
	Error      string
	Policy     string
	InputSize  uint64
	OutputSize uint64
	Before     [2]int
	After      [2]int
}

// BatchSummary contains batch completion information.
type BatchSummary struct {
	Operation       string
	Done            int
	Skipped         int
	Failed          int
	TotalInputSize  uint64
	TotalOutputSize uint64
	Duration        time.Duration
	DryRun          bool
}

// Total returns the number of outcomes in the batch.
func (s BatchSummary) Total() int {
	return s.Done + s.Skipped + s.Failed
}

// ReporterError contains error information.
type ReporterError struct {
	Title      string
	Message    string
	Context    string
	Suggestion string
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) BatchStarted(BatchStartInfo) {}
func (NullReporter) FileResult(FileOutcome)      {}
func (NullReporter) Warning(string)              {}
func (NullReporter) Error(ReporterError)         {}
func (NullReporter) BatchComplete(BatchSummary)  {}
func (NullReporter) Verbose(string)              {}

// CompositeReporter fans events out to several reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter returns a reporter forwarding to every non-nil reporter.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	c := &CompositeReporter{}
	for _, r := range reporters {
		if r != nil {
			c.reporters = append(c.reporters, r)
		}
	}
	return c
}

func (c *CompositeReporter) BatchStarted(info BatchStartInfo) {
	for _, r := range c.reporters {
		r.BatchStarted(info)
	}
}

func (c *CompositeReporter) FileResult(outcome FileOutcome) {
	for _, r := range c.reporters {
		r.FileResult(outcome)
	}
}

func (c *CompositeReporter) Warning(message string) {
	for _, r := range c.reporters {
		r.Warning(message)
	}
}

func (c *CompositeReporter) Error(err ReporterError) {
	for _, r := range c.reporters {
		r.Error(err)
	}
}

func (c *CompositeReporter) BatchComplete(summary BatchSummary) {
	for _, r := range c.reporters {
		r.BatchComplete(summary)
	}
}

func (c *CompositeReporter) Verbose(message string) {
	for _, r := range c.reporters {
		r.Verbose(message)
	}
}
