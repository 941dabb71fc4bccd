// Package processing implements the batch operations: optimize, cleanup,
// rename, report and reserved-name removal.
package processing

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/five82/imgtidy/internal/reporter"
)

// ErrFileFailures is returned by Result.Err when at least one file failed.
var ErrFileFailures = errors.New("one or more files failed")

// Action names the operation applied to a file.
type Action string

const (
	ActionOptimize       Action = "optimize"
	ActionDelete         Action = "delete"
	ActionRename         Action = "rename"
	ActionReport         Action = "report"
	ActionRemoveReserved Action = "remove-reserved"
	ActionWalk           Action = "walk"
)

// Operation names, as shown in batch events and summaries.
const (
	OpOptimize  = "optimize"
	OpCleanup   = "cleanup"
	OpRename    = "rename"
	OpReport    = "report"
	OpDedupeNul = "dedupe-nul"
)

// Outcome is the result of one file within an operation.
type Outcome struct {
	Path       string
	Target     string
	Action     Action
	Status     reporter.Status
	Detail     string
	Err        error
	Policy     string
	Before     [2]int
	After      [2]int
	InputSize  uint64
	OutputSize uint64
}

// Failed reports whether the outcome is a failure.
func (o Outcome) Failed() bool {
	return o.Status == reporter.StatusFailed
}

func (o Outcome) toReporter() reporter.FileOutcome {
	fo := reporter.FileOutcome{
		Path:       o.Path,
		Target:     o.Target,
		Action:     string(o.Action),
		Status:     o.Status,
		Detail:     o.Detail,
		Policy:     o.Policy,
		InputSize:  o.InputSize,
		OutputSize: o.OutputSize,
		Before:     o.Before,
		After:      o.After,
	}
	if o.Err != nil {
		fo.Error = o.Err.Error()
	}
	return fo
}

func done(action Action, path, detail string) Outcome {
	return Outcome{Path: path, Action: action, Status: reporter.StatusDone, Detail: detail}
}

func skipped(action Action, path, detail string) Outcome {
	return Outcome{Path: path, Action: action, Status: reporter.StatusSkipped, Detail: detail}
}

func failed(action Action, path string, err error) Outcome {
	return Outcome{Path: path, Action: action, Status: reporter.StatusFailed, Err: err}
}

// Result holds every outcome of one operation.
type Result struct {
	Operation string
	Outcomes  []Outcome
	Summary   reporter.BatchSummary
}

// Err returns an error wrapping ErrFileFailures when any outcome failed.
func (r *Result) Err() error {
	if r == nil || r.Summary.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%s: %w (%d of %d)", r.Operation, ErrFileFailures, r.Summary.Failed, r.Summary.Total())
}

// Summarize counts outcomes by status and totals the sizes of completed ones.
func Summarize(operation string, outcomes []Outcome, elapsed time.Duration) reporter.BatchSummary {
	s := reporter.BatchSummary{Operation: operation, Duration: elapsed}
	for _, o := range outcomes {
		switch o.Status {
		case reporter.StatusDone:
			s.Done++
			if o.OutputSize > 0 {
				s.TotalInputSize += o.InputSize
				s.TotalOutputSize += o.OutputSize
			}
		case reporter.StatusSkipped:
			s.Skipped++
		default:
			s.Failed++
		}
	}
	return s
}

// collector gathers outcomes from concurrent workers and forwards them to
// the reporter as they arrive.
type collector struct {
	mu       sync.Mutex
	rep      reporter.Reporter
	outcomes []Outcome
	// quiet forwards only failures
	quiet bool
}

func newCollector(rep reporter.Reporter) *collector {
	if rep == nil {
		rep = reporter.NullReporter{}
	}
	return &collector{rep: rep}
}

func (c *collector) add(o Outcome) {
	c.mu.Lock()
	c.outcomes = append(c.outcomes, o)
	c.mu.Unlock()
	if !c.quiet || o.Failed() {
		c.rep.FileResult(o.toReporter())
	}
}

// walkWarning records an unreadable entry found during discovery.
func (c *collector) walkWarning(path string, err error) {
	c.add(Outcome{
		Path:   path,
		Action: ActionWalk,
		Status: reporter.StatusFailed,
		Detail: "unreadable, skipped",
		Err:    err,
	})
}

func (c *collector) result(operation string, start time.Time, dryRun bool) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	summary := Summarize(operation, c.outcomes, time.Since(start))
	summary.DryRun = dryRun
	return &Result{Operation: operation, Outcomes: c.outcomes, Summary: summary}
}
