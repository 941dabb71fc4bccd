package processing

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/five82/imgtidy/internal/config"
	"github.com/five82/imgtidy/internal/reporter"
)

// recordingReporter captures events for assertions.
type recordingReporter struct {
	reporter.NullReporter
	mu        sync.Mutex
	started   []reporter.BatchStartInfo
	outcomes  []reporter.FileOutcome
	warnings  []string
	summaries []reporter.BatchSummary
}

func (r *recordingReporter) BatchStarted(info reporter.BatchStartInfo) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, info)
}

func (r *recordingReporter) FileResult(o reporter.FileOutcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingReporter) Warning(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, msg)
}

func (r *recordingReporter) BatchComplete(s reporter.BatchSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.summaries = append(r.summaries, s)
}

func solid(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	c := color.NRGBA{R: 40, G: 120, B: 200, A: 255}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func mkdirFor(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	mkdirFor(t, path)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	if err := png.Encode(f, solid(w, h)); err != nil {
		t.Fatal(err)
	}
}

func writeJPEG(t *testing.T, path string, w, h int) {
	t.Helper()
	mkdirFor(t, path)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = f.Close() }()
	if err := jpeg.Encode(f, solid(w, h), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	mkdirFor(t, path)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func testConfig(profile string) *config.Config {
	cfg := config.NewConfig()
	cfg.Profile = profile
	return cfg
}

func outcomeFor(t *testing.T, res *Result, path string) Outcome {
	t.Helper()
	for _, o := range res.Outcomes {
		if o.Path == path {
			return o
		}
	}
	t.Fatalf("no outcome for %s in %+v", path, res.Outcomes)
	return Outcome{}
}
