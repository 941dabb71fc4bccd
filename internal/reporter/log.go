package reporter

import (
	"fmt"
	"strings"

	"github.com/five82/imgtidy/internal/util"
	"github.com/rs/zerolog"
)

// LogReporter writes operation events to a zerolog logger.
type LogReporter struct {
	logger zerolog.Logger
}

// NewLogReporter creates a new log reporter that writes to the given logger.
func NewLogReporter(logger zerolog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) BatchStarted(info BatchStartInfo) {
	r.logger.Info().
		Str("operation", info.Operation).
		Strs("roots", info.Roots).
		Int("files", info.TotalFiles).
		Bool("dry_run", info.DryRun).
		Msg("batch started")
}

func (r *LogReporter) FileResult(o FileOutcome) {
	var event *zerolog.Event
	switch o.Status {
	case StatusFailed:
		event = r.logger.Warn()
	case StatusSkipped:
		event = r.logger.Debug()
	default:
		event = r.logger.Info()
	}

	event = event.
		Str("path", o.Path).
		Str("action", o.Action).
		Str("status", string(o.Status))
	if o.Target != "" {
		event = event.Str("target", o.Target)
	}
	if o.Policy != "" {
		event = event.Str("policy", o.Policy)
	}
	if o.Error != "" {
		event = event.Str("error", o.Error)
	}
	if o.InputSize > 0 || o.OutputSize > 0 {
		event = event.Uint64("input_size", o.InputSize).Uint64("output_size", o.OutputSize)
	}
	if o.Before != [2]int{} {
		event = event.Str("before", formatDimensions(o.Before))
	}
	if o.After != [2]int{} {
		event = event.Str("after", formatDimensions(o.After))
	}
	event.Msg(o.Detail)
}

func (r *LogReporter) Warning(message string) {
	r.logger.Warn().Msg(message)
}

func (r *LogReporter) Error(err ReporterError) {
	event := r.logger.Error().Str("title", err.Title)
	if err.Context != "" {
		event = event.Str("context", err.Context)
	}
	if err.Suggestion != "" {
		event = event.Str("suggestion", err.Suggestion)
	}
	event.Msg(err.Message)
}

func (r *LogReporter) BatchComplete(s BatchSummary) {
	event := r.logger.Info().
		Str("operation", s.Operation).
		Int("done", s.Done).
		Int("skipped", s.Skipped).
		Int("failed", s.Failed).
		Dur("duration", s.Duration)
	if s.TotalInputSize > 0 {
		event = event.
			Uint64("input_size", s.TotalInputSize).
			Uint64("output_size", s.TotalOutputSize).
			Str("reduction", fmt.Sprintf("%.1f%%", util.CalculateSizeReduction(s.TotalInputSize, s.TotalOutputSize)))
	}
	event.Msg("batch complete")
}

func (r *LogReporter) Verbose(message string) {
	r.logger.Debug().Msg(message)
}

func formatDimensions(d [2]int) string {
	return fmt.Sprintf("%dx%d", d[0], d[1])
}

// describe renders an outcome as a single human-readable line body.
func describe(o FileOutcome) string {
	var b strings.Builder
	b.WriteString(o.Path)
	if o.Target != "" && o.Target != o.Path {
		b.WriteString(" -> ")
		b.WriteString(o.Target)
	}
	if o.After != [2]int{} {
		if o.Before != [2]int{} && o.Before != o.After {
			fmt.Fprintf(&b, " (%s -> %s", formatDimensions(o.Before), formatDimensions(o.After))
		} else {
			fmt.Fprintf(&b, " (%s", formatDimensions(o.After))
		}
		if o.OutputSize > 0 {
			fmt.Fprintf(&b, ", %s", util.FormatKB(o.OutputSize))
		}
		b.WriteString(")")
	}
	if o.Detail != "" {
		b.WriteString(": ")
		b.WriteString(o.Detail)
	}
	if o.Error != "" {
		b.WriteString(": ")
		b.WriteString(o.Error)
	}
	return b.String()
}
