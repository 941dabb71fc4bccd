package processing

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/five82/imgtidy/internal/codec"
	"github.com/five82/imgtidy/internal/config"
	"github.com/five82/imgtidy/internal/discovery"
	"github.com/five82/imgtidy/internal/reporter"
	"github.com/five82/imgtidy/internal/util"
)

const (
	reportRowFormat = "%-80s | %-10.2f | %-15s\n"
	reportRuleWidth = 110
	unknownDims     = "Unknown"
)

// WriteReportHeader writes the table header and separator line.
func WriteReportHeader(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%-80s | %-10s | %-15s\n", "File Path", "Size (KB)", "Dimensions"); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, strings.Repeat("-", reportRuleWidth))
	return err
}

// Report writes one table row per target-format file under roots: path
// relative to its root, size in KB, and dimensions read from the header.
// Files whose header cannot be decoded get "Unknown" dimensions and a failed
// outcome; only failures are forwarded to rep.
func Report(ctx context.Context, cfg *config.Config, roots []string, w io.Writer, rep reporter.Reporter) (*Result, error) {
	start := time.Now()
	col := newCollector(rep)
	col.quiet = true

	for _, root := range roots {
		if err := discovery.CheckRoot(root); err != nil {
			return nil, err
		}
	}

	if err := WriteReportHeader(w); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}

	for _, root := range roots {
		files, err := discovery.WalkRoot(root, col.walkWarning)
		if err != nil {
			return nil, err
		}

		for _, f := range files {
			if ctx.Err() != nil {
				break
			}
			if !util.HasExtension(f, cfg.TargetExt) {
				continue
			}
			o, err := reportFile(w, root, f)
			if err != nil {
				return nil, fmt.Errorf("write report: %w", err)
			}
			col.add(o)
		}
	}

	return col.result(OpReport, start, false), nil
}

func reportFile(w io.Writer, root, path string) (Outcome, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	size, err := util.GetFileSize(path)
	if err != nil {
		// the row cannot be produced without a size
		return failed(ActionReport, path, err), nil
	}

	o := done(ActionReport, path, "")
	o.InputSize = size

	dims := unknownDims
	width, height, _, decodeErr := codec.DecodeConfig(path)
	if decodeErr != nil {
		o = failed(ActionReport, path, decodeErr)
		o.InputSize = size
		o.Detail = "dimensions unknown"
	} else {
		dims = fmt.Sprintf("%dx%d", width, height)
		o.After = [2]int{width, height}
	}

	if _, err := fmt.Fprintf(w, reportRowFormat, rel, float64(size)/1024, dims); err != nil {
		return o, err
	}
	return o, nil
}
