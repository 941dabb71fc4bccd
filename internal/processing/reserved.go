package processing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/five82/imgtidy/internal/config"
	"github.com/five82/imgtidy/internal/discovery"
	"github.com/five82/imgtidy/internal/reporter"
)

// RemoveReserved deletes files whose base name equals one of the configured
// reserved device names, ignoring case. Names that merely contain a reserved
// name, such as "null" or "nul.txt", are never touched.
func RemoveReserved(ctx context.Context, cfg *config.Config, roots []string, rep reporter.Reporter) (*Result, error) {
	start := time.Now()
	col := newCollector(rep)

	files, err := discovery.Walk(roots, col.walkWarning)
	if err != nil {
		return nil, err
	}

	var matches []string
	for _, f := range files {
		if IsReservedName(filepath.Base(f), cfg.ReservedNames) {
			matches = append(matches, f)
		}
	}

	col.rep.BatchStarted(reporter.BatchStartInfo{
		Operation:  OpDedupeNul,
		Roots:      roots,
		TotalFiles: len(matches),
		DryRun:     cfg.DryRun,
	})

	for _, f := range matches {
		if ctx.Err() != nil {
			col.rep.Warning(fmt.Sprintf("Removal cancelled: %v", ctx.Err()))
			break
		}
		col.add(removeReserved(f, cfg.DryRun))
	}

	res := col.result(OpDedupeNul, start, cfg.DryRun)
	col.rep.BatchComplete(res.Summary)
	return res, nil
}

// IsReservedName reports whether name equals any reserved name, ignoring case.
func IsReservedName(name string, reserved []string) bool {
	for _, r := range reserved {
		if strings.EqualFold(name, r) {
			return true
		}
	}
	return false
}

func removeReserved(path string, dryRun bool) Outcome {
	target, err := removalPath(path)
	if err != nil {
		return failed(ActionRemoveReserved, path, err)
	}

	if dryRun {
		o := done(ActionRemoveReserved, path, "would remove")
		o.Target = target
		return o
	}

	if err := os.Remove(target); err != nil {
		o := failed(ActionRemoveReserved, path, err)
		o.Target = target
		return o
	}
	return done(ActionRemoveReserved, path, "removed")
}
