// Package imgtidy provides a Go library for tidying trees of image assets.
//
// It re-encodes PNG and JPEG sources to size-capped WebP, deletes sources
// that already have a converted sibling, folds file and directory names to
// ASCII, reports converted files, and removes reserved device names such as
// "nul" that break other platforms.
//
// Basic usage:
//
//	tidier, err := imgtidy.New(
//	    imgtidy.WithProfile("aggressive"),
//	    imgtidy.WithWorkers(4),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := tidier.Optimize(ctx, []string{"public/assets"}, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("Optimized %d files, reduction: %.1f%%\n",
//	    result.Done, result.SizeReductionPercent)
package imgtidy

import (
	"context"
	"fmt"
	"io"

	"github.com/five82/imgtidy/internal/config"
	"github.com/five82/imgtidy/internal/processing"
	"github.com/five82/imgtidy/internal/reporter"
	"github.com/five82/imgtidy/internal/util"
)

// ErrFileFailures is wrapped by BatchResult.Err when any file failed.
var ErrFileFailures = processing.ErrFileFailures

// Profile names accepted by WithProfile.
const (
	ProfileAggressive   = config.ProfileAggressive
	ProfileHighFidelity = config.ProfileHighFidelity
	ProfileCompress     = config.ProfileCompress
)

// Tidier is the main entry point for batch operations.
type Tidier struct {
	config *config.Config
}

// FileResult contains the result of one file within an operation.
type FileResult struct {
	Path       string
	Target     string
	Action     string
	Status     string
	Detail     string
	Error      error
	Policy     string
	Before     [2]int
	After      [2]int
	InputSize  uint64
	OutputSize uint64
}

// BatchResult contains the result of one operation over a set of roots.
type BatchResult struct {
	Operation            string
	Files                []FileResult
	Done                 int
	Skipped              int
	Failed               int
	SizeReductionPercent float64
	DryRun               bool
}

// Err returns an error wrapping ErrFileFailures when any file failed.
func (b *BatchResult) Err() error {
	if b == nil || b.Failed == 0 {
		return nil
	}
	return fmt.Errorf("%s: %w (%d of %d)", b.Operation, ErrFileFailures, b.Failed, b.Done+b.Skipped+b.Failed)
}

// Option configures the tidier.
type Option func(*config.Config)

// New creates a new Tidier with the given options.
func New(opts ...Option) (*Tidier, error) {
	cfg := config.NewConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Tidier{config: cfg}, nil
}

// WithProfile selects the optimize profile (aggressive, high-fidelity or compress).
func WithProfile(name string) Option {
	return func(c *config.Config) {
		c.Profile = name
	}
}

// WithWorkers sets the number of files optimized in parallel. Default is 1.
func WithWorkers(workers int) Option {
	return func(c *config.Config) {
		c.Workers = workers
	}
}

// WithDryRun reports destructive actions without performing them.
func WithDryRun() Option {
	return func(c *config.Config) {
		c.DryRun = true
	}
}

// WithMaxDimension caps the longer side of every policy's output.
// Zero disables resizing.
func WithMaxDimension(px int) Option {
	return func(c *config.Config) {
		forEachPolicy(c, func(p *config.Policy) { p.MaxDimension = px })
	}
}

// WithQuality sets the lossy WebP quality (0-100) for every policy.
func WithQuality(quality int) Option {
	return func(c *config.Config) {
		forEachPolicy(c, func(p *config.Policy) { p.Quality = quality })
	}
}

// WithEffort sets the WebP encoder effort (0-6, higher is slower and smaller)
// for every policy.
func WithEffort(effort int) Option {
	return func(c *config.Config) {
		forEachPolicy(c, func(p *config.Policy) { p.Effort = effort })
	}
}

// WithDeleteSource deletes each source after its output validates.
func WithDeleteSource(del bool) Option {
	return func(c *config.Config) {
		forEachPolicy(c, func(p *config.Policy) { p.DeleteSource = del })
	}
}

// WithCleanupExtensions sets the source extensions cleanup may delete.
func WithCleanupExtensions(exts ...string) Option {
	return func(c *config.Config) {
		c.CleanupExtensions = exts
	}
}

// WithReservedNames sets the base names removed by RemoveReserved.
func WithReservedNames(names ...string) Option {
	return func(c *config.Config) {
		c.ReservedNames = names
	}
}

func forEachPolicy(c *config.Config, fn func(*config.Policy)) {
	for name, p := range c.Policies {
		fn(&p)
		c.Policies[name] = p
	}
}

// Optimize converts every in-scope image under roots to WebP using the
// active profile.
func (t *Tidier) Optimize(ctx context.Context, roots []string, handler EventHandler) (*BatchResult, error) {
	return t.OptimizeWithReporter(ctx, roots, eventReporterFor(handler))
}

// OptimizeWithReporter is Optimize with direct access to all reporter events.
func (t *Tidier) OptimizeWithReporter(ctx context.Context, roots []string, rep Reporter) (*BatchResult, error) {
	return batchResult(processing.Optimize(ctx, t.cfg(), roots, rep))
}

// Cleanup deletes source images that already have a WebP sibling.
func (t *Tidier) Cleanup(ctx context.Context, roots []string, handler EventHandler) (*BatchResult, error) {
	return batchResult(processing.Cleanup(ctx, t.cfg(), roots, eventReporterFor(handler)))
}

// Rename folds file and directory names under roots to ASCII.
func (t *Tidier) Rename(ctx context.Context, roots []string, handler EventHandler) (*BatchResult, error) {
	return batchResult(processing.Rename(ctx, t.cfg(), roots, eventReporterFor(handler)))
}

// RemoveReserved deletes files named after reserved devices such as "nul".
func (t *Tidier) RemoveReserved(ctx context.Context, roots []string, handler EventHandler) (*BatchResult, error) {
	return batchResult(processing.RemoveReserved(ctx, t.cfg(), roots, eventReporterFor(handler)))
}

// Report writes a size and dimensions table of every WebP file under roots to w.
// Only failures are delivered to handler.
func (t *Tidier) Report(ctx context.Context, roots []string, w io.Writer, handler EventHandler) (*BatchResult, error) {
	return batchResult(processing.Report(ctx, t.cfg(), roots, w, eventReporterFor(handler)))
}

// Watch optimizes roots once, then keeps optimizing new or modified sources
// until ctx is cancelled.
func (t *Tidier) Watch(ctx context.Context, roots []string, handler EventHandler) error {
	return processing.Watch(ctx, t.cfg(), roots, eventReporterFor(handler))
}

// cfg returns a copy so concurrent calls never share mutable state.
func (t *Tidier) cfg() *config.Config {
	cfg := *t.config
	return &cfg
}

func batchResult(res *processing.Result, err error) (*BatchResult, error) {
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{
		Operation:            res.Operation,
		Done:                 res.Summary.Done,
		Skipped:              res.Summary.Skipped,
		Failed:               res.Summary.Failed,
		SizeReductionPercent: util.CalculateSizeReduction(res.Summary.TotalInputSize, res.Summary.TotalOutputSize),
		DryRun:               res.Summary.DryRun,
	}
	for _, o := range res.Outcomes {
		batch.Files = append(batch.Files, FileResult{
			Path:       o.Path,
			Target:     o.Target,
			Action:     string(o.Action),
			Status:     string(o.Status),
			Detail:     o.Detail,
			Error:      o.Err,
			Policy:     o.Policy,
			Before:     o.Before,
			After:      o.After,
			InputSize:  o.InputSize,
			OutputSize: o.OutputSize,
		})
	}
	return batch, nil
}

// eventReporter adapts EventHandler to the Reporter interface.
type eventReporter struct {
	handler EventHandler
}

func eventReporterFor(handler EventHandler) reporter.Reporter {
	if handler == nil {
		return reporter.NullReporter{}
	}
	return &eventReporter{handler: handler}
}

func (r *eventReporter) BatchStarted(info reporter.BatchStartInfo) {
	_ = r.handler(BatchStartedEvent{
		BaseEvent:  BaseEvent{EventType: EventTypeBatchStarted, Time: NewTimestamp()},
		Operation:  info.Operation,
		Roots:      info.Roots,
		TotalFiles: info.TotalFiles,
		DryRun:     info.DryRun,
	})
}

func (r *eventReporter) FileResult(o reporter.FileOutcome) {
	_ = r.handler(FileResultEvent{
		BaseEvent:  BaseEvent{EventType: EventTypeFileResult, Time: NewTimestamp()},
		Path:       o.Path,
		Target:     o.Target,
		Action:     o.Action,
		Status:     string(o.Status),
		Detail:     o.Detail,
		Error:      o.Error,
		Policy:     o.Policy,
		Before:     o.Before,
		After:      o.After,
		InputSize:  o.InputSize,
		OutputSize: o.OutputSize,
	})
}

func (r *eventReporter) Warning(message string) {
	_ = r.handler(WarningEvent{
		BaseEvent: BaseEvent{EventType: EventTypeWarning, Time: NewTimestamp()},
		Message:   message,
	})
}

func (r *eventReporter) Error(e reporter.ReporterError) {
	_ = r.handler(ErrorEvent{
		BaseEvent:  BaseEvent{EventType: EventTypeError, Time: NewTimestamp()},
		Title:      e.Title,
		Message:    e.Message,
		Context:    e.Context,
		Suggestion: e.Suggestion,
	})
}

func (r *eventReporter) BatchComplete(s reporter.BatchSummary) {
	_ = r.handler(BatchCompleteEvent{
		BaseEvent:                 BaseEvent{EventType: EventTypeBatchComplete, Time: NewTimestamp()},
		Operation:                 s.Operation,
		Done:                      s.Done,
		Skipped:                   s.Skipped,
		Failed:                    s.Failed,
		TotalSizeReductionPercent: util.CalculateSizeReduction(s.TotalInputSize, s.TotalOutputSize),
		DryRun:                    s.DryRun,
	})
}

func (r *eventReporter) Verbose(string) {}
