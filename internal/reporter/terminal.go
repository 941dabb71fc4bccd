package reporter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/five82/imgtidy/internal/util"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	mu           sync.Mutex
	out          io.Writer
	errOut       io.Writer
	progress     *progressbar.ProgressBar
	showProgress bool
	verbose      bool
	cyan         *color.Color
	green        *color.Color
	yellow       *color.Color
	red          *color.Color
	magenta      *color.Color
	bold         *color.Color
	dim          *color.Color
}

// NewTerminalReporterVerbose creates a new terminal reporter with configurable verbose mode.
// Outcome lines go to stdout and a progress bar is drawn on stderr when it is a terminal.
func NewTerminalReporterVerbose(verbose bool) *TerminalReporter {
	r := NewTerminalReporterTo(os.Stdout, os.Stderr, verbose)
	r.showProgress = isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return r
}

// NewTerminalReporterTo creates a terminal reporter writing outcome lines to
// out and errors to errOut, without a progress bar.
func NewTerminalReporterTo(out, errOut io.Writer, verbose bool) *TerminalReporter {
	return &TerminalReporter{
		out:     out,
		errOut:  errOut,
		verbose: verbose,
		cyan:    color.New(color.FgCyan, color.Bold),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow, color.Bold),
		red:     color.New(color.FgRed, color.Bold),
		magenta: color.New(color.FgMagenta),
		bold:    color.New(color.Bold),
		dim:     color.New(color.Faint),
	}
}

// labelWidth is the global width for all labels to ensure consistent alignment.
const labelWidth = 12

// printLabel prints a bold label with fixed width padding followed by a value.
func (r *TerminalReporter) printLabel(label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", labelWidth, label)
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

// clearProgress erases the bar so a line can be printed. Callers hold mu.
func (r *TerminalReporter) clearProgress() {
	if r.progress != nil {
		_ = r.progress.Clear()
	}
}

func (r *TerminalReporter) finishProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.progress != nil {
		_ = r.progress.Finish()
		r.progress = nil
	}
}

func (r *TerminalReporter) BatchStarted(info BatchStartInfo) {
	r.finishProgress()

	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintln(r.out)
	_, _ = r.cyan.Fprintln(r.out, strings.ToUpper(info.Operation))
	r.printLabel("Roots:", strings.Join(info.Roots, ", "))
	if info.TotalFiles > 0 {
		r.printLabel("Files:", fmt.Sprintf("%d", info.TotalFiles))
	}
	if info.DryRun {
		r.printLabel("Mode:", r.yellow.Sprint("dry run, nothing will be changed"))
	}

	if !r.showProgress || info.TotalFiles == 0 {
		return
	}
	r.progress = progressbar.NewOptions(
		info.TotalFiles,
		progressbar.OptionSetDescription(""),
		progressbar.OptionSetWidth(40),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionShowCount(),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (r *TerminalReporter) FileResult(o FileOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearProgress()

	var mark string
	switch o.Status {
	case StatusDone:
		mark = r.green.Sprint("✓")
	case StatusSkipped:
		mark = r.dim.Sprint("-")
	default:
		mark = r.red.Sprint("✗")
	}

	if o.Status != StatusSkipped || r.verbose {
		_, _ = fmt.Fprintf(r.out, "  %s %s %s\n", mark, r.magenta.Sprint(o.Action), describe(o))
	}

	if r.progress != nil {
		_ = r.progress.Add(1)
		r.progress.Describe(util.GetFilename(o.Path))
	}
}

func (r *TerminalReporter) Warning(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearProgress()
	_, _ = r.yellow.Fprintf(r.errOut, "WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReporterError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearProgress()
	_, _ = fmt.Fprintln(r.errOut)
	_, _ = r.red.Fprintf(r.errOut, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(r.errOut, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(r.errOut, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) BatchComplete(s BatchSummary) {
	r.finishProgress()

	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintln(r.out)
	_, _ = r.cyan.Fprintln(r.out, "SUMMARY")
	r.printLabel("Done:", r.green.Sprint(s.Done))
	r.printLabel("Skipped:", fmt.Sprint(s.Skipped))
	if s.Failed > 0 {
		r.printLabel("Failed:", r.red.Sprint(s.Failed))
	} else {
		r.printLabel("Failed:", "0")
	}
	if s.TotalInputSize > 0 {
		r.printLabel("Size:", fmt.Sprintf("%s -> %s (%.1f%% reduction)",
			util.FormatBytesReadable(s.TotalInputSize),
			util.FormatBytesReadable(s.TotalOutputSize),
			util.CalculateSizeReduction(s.TotalInputSize, s.TotalOutputSize)))
	}
	r.printLabel("Time:", s.Duration.Round(10 * time.Millisecond).String())

	_, _ = fmt.Fprintln(r.out)
	if s.Failed > 0 {
		_, _ = fmt.Fprintf(r.out, "%s %s\n", r.red.Sprint("✗"), r.bold.Sprintf("%d of %d files failed", s.Failed, s.Total()))
		return
	}
	msg := fmt.Sprintf("%s complete", s.Operation)
	if s.DryRun {
		msg += " (dry run)"
	}
	_, _ = fmt.Fprintf(r.out, "%s %s\n", color.New(color.FgGreen, color.Bold).Sprint("✓"), r.bold.Sprint(msg))
}

func (r *TerminalReporter) Verbose(message string) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearProgress()
	_, _ = fmt.Fprintf(r.out, "  %s %s\n", r.dim.Sprint("›"), r.dim.Sprint(message))
}
