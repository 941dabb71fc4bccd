package processing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/imgtidy/internal/config"
	"github.com/five82/imgtidy/internal/discovery"
	"github.com/five82/imgtidy/internal/reporter"
	"github.com/five82/imgtidy/internal/util"
)

// Cleanup deletes source images that already have a converted sibling.
// A source is never deleted when its sibling is missing or is the source itself.
func Cleanup(ctx context.Context, cfg *config.Config, roots []string, rep reporter.Reporter) (*Result, error) {
	start := time.Now()
	col := newCollector(rep)

	files, err := discovery.Walk(roots, col.walkWarning)
	if err != nil {
		return nil, err
	}

	var candidates []string
	for _, f := range files {
		if hasAnyExtension(f, cfg.CleanupExtensions) && !util.HasExtension(f, cfg.TargetExt) {
			candidates = append(candidates, f)
		}
	}

	col.rep.BatchStarted(reporter.BatchStartInfo{
		Operation:  OpCleanup,
		Roots:      roots,
		TotalFiles: len(candidates),
		DryRun:     cfg.DryRun,
	})

	for _, f := range candidates {
		if ctx.Err() != nil {
			col.rep.Warning(fmt.Sprintf("Cleanup cancelled: %v", ctx.Err()))
			break
		}
		col.add(cleanupFile(f, util.DerivedPathFor(f, cfg.TargetExt), cfg.DryRun))
	}

	res := col.result(OpCleanup, start, cfg.DryRun)
	col.rep.BatchComplete(res.Summary)
	return res, nil
}

func cleanupFile(source, sibling string, dryRun bool) Outcome {
	if !util.IsRegularFile(sibling) {
		return skipped(ActionDelete, source, fmt.Sprintf("no %s sibling", filepath.Ext(sibling)))
	}
	if source == sibling || util.SameFile(source, sibling) {
		return skipped(ActionDelete, source, "sibling is the source itself")
	}

	size, _ := util.GetFileSize(source)
	detail := "superseded by " + filepath.Base(sibling)
	if dryRun {
		detail = "would delete, " + detail
	} else if err := os.Remove(source); err != nil {
		return failed(ActionDelete, source, err)
	}

	o := done(ActionDelete, source, detail)
	o.InputSize = size
	return o
}

func hasAnyExtension(path string, exts []string) bool {
	for _, ext := range exts {
		if util.HasExtension(path, util.NormalizeExtension(ext)) {
			return true
		}
	}
	return false
}
