package reporter

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
)

func init() {
	color.NoColor = true
}

type recordingReporter struct {
	NullReporter
	mu       sync.Mutex
	outcomes []FileOutcome
	warnings []string
}

func (r *recordingReporter) FileResult(o FileOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingReporter) Warning(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, msg)
}

func TestCompositeReporterFansOut(t *testing.T) {
	a, b := &recordingReporter{}, &recordingReporter{}
	c := NewCompositeReporter(a, nil, b)

	c.FileResult(FileOutcome{Path: "x.png", Status: StatusDone})
	c.Warning("low disk")

	for i, r := range []*recordingReporter{a, b} {
		if len(r.outcomes) != 1 || len(r.warnings) != 1 {
			t.Errorf("reporter %d got %d outcomes, %d warnings", i, len(r.outcomes), len(r.warnings))
		}
	}
}

func TestTerminalReporterOutcomeLines(t *testing.T) {
	var out, errOut bytes.Buffer
	r := NewTerminalReporterTo(&out, &errOut, false)

	r.BatchStarted(BatchStartInfo{Operation: "optimize", Roots: []string{"public"}, TotalFiles: 3})
	r.FileResult(FileOutcome{
		Path: "public/bg/pattern-stone.png", Target: "public/bg/pattern-stone.webp",
		Action: "optimize", Status: StatusDone,
		Before: [2]int{3840, 2160}, After: [2]int{1024, 576}, OutputSize: 2048,
	})
	r.FileResult(FileOutcome{Path: "public/small.png", Action: "optimize", Status: StatusSkipped, Detail: "below size threshold"})
	r.FileResult(FileOutcome{Path: "public/broken.png", Action: "optimize", Status: StatusFailed, Error: "decode failed"})
	r.Warning("low disk space")
	r.BatchComplete(BatchSummary{Operation: "optimize", Done: 1, Skipped: 1, Failed: 1, Duration: time.Second})

	text := out.String()
	for _, want := range []string{
		"OPTIMIZE",
		"public/bg/pattern-stone.png -> public/bg/pattern-stone.webp (3840x2160 -> 1024x576, 2.00 KB)",
		"✗ optimize public/broken.png: decode failed",
		"1 of 3 files failed",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "small.png") {
		t.Error("skipped outcomes are hidden unless verbose")
	}
	if !strings.Contains(errOut.String(), "WARN: low disk space") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestTerminalReporterVerboseShowsSkipped(t *testing.T) {
	var out bytes.Buffer
	r := NewTerminalReporterTo(&out, &out, true)
	r.FileResult(FileOutcome{Path: "a.png", Action: "optimize", Status: StatusSkipped, Detail: "superseded"})
	r.Verbose("walking public")

	if !strings.Contains(out.String(), "a.png: superseded") || !strings.Contains(out.String(), "walking public") {
		t.Errorf("output = %q", out.String())
	}
}

func TestTerminalReporterDryRunSummary(t *testing.T) {
	var out bytes.Buffer
	r := NewTerminalReporterTo(&out, &out, false)
	r.BatchComplete(BatchSummary{Operation: "cleanup", Done: 2, DryRun: true})
	if !strings.Contains(out.String(), "cleanup complete (dry run)") {
		t.Errorf("output = %q", out.String())
	}
}

func TestLogReporterStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(zerolog.New(&buf))

	r.FileResult(FileOutcome{
		Path: "a.png", Target: "a.webp", Action: "optimize", Status: StatusFailed,
		Error: "encode failed", Policy: "aggressive", Before: [2]int{10, 20},
	})

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	want := map[string]any{
		"level":  "warn",
		"path":   "a.png",
		"target": "a.webp",
		"action": "optimize",
		"status": "failed",
		"error":  "encode failed",
		"policy": "aggressive",
		"before": "10x20",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("%s = %v, want %v", k, m[k], v)
		}
	}
	if _, ok := m["after"]; ok {
		t.Error("zero dimensions must be omitted")
	}
}

func TestLogReporterBatchComplete(t *testing.T) {
	var buf bytes.Buffer
	r := NewLogReporter(zerolog.New(&buf))
	r.BatchComplete(BatchSummary{Operation: "optimize", Done: 2, TotalInputSize: 1000, TotalOutputSize: 250})

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatal(err)
	}
	if m["reduction"] != "75.0%" || m["done"] != float64(2) {
		t.Errorf("got %v", m)
	}
}
