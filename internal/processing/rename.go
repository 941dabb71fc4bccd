package processing

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/five82/imgtidy/internal/config"
	"github.com/five82/imgtidy/internal/discovery"
	"github.com/five82/imgtidy/internal/naming"
	"github.com/five82/imgtidy/internal/reporter"
)

// renamer walks a tree renaming entries to ASCII as it descends.
type renamer struct {
	normalizer *naming.Normalizer
	dryRun     bool
	col        *collector
	// planned tracks dry-run targets so later siblings see them as taken
	planned map[string]bool
}

// Rename rewrites non-ASCII or space-containing file and directory names
// under roots. In each directory, child directories are renamed first, then
// files, then the walk recurses into the renamed children. Roots themselves
// are never renamed.
func Rename(ctx context.Context, cfg *config.Config, roots []string, rep reporter.Reporter) (*Result, error) {
	start := time.Now()

	for _, root := range roots {
		if err := discovery.CheckRoot(root); err != nil {
			return nil, err
		}
	}

	r := &renamer{
		normalizer: naming.NewNormalizer(cfg.RenameSpecial),
		dryRun:     cfg.DryRun,
		col:        newCollector(rep),
		planned:    make(map[string]bool),
	}

	r.col.rep.BatchStarted(reporter.BatchStartInfo{
		Operation: OpRename,
		Roots:     roots,
		DryRun:    cfg.DryRun,
	})

	for _, root := range roots {
		if ctx.Err() != nil {
			break
		}
		r.walk(ctx, root)
	}
	if ctx.Err() != nil {
		r.col.rep.Warning(fmt.Sprintf("Rename cancelled: %v", ctx.Err()))
	}

	res := r.col.result(OpRename, start, cfg.DryRun)
	r.col.rep.BatchComplete(res.Summary)
	return res, nil
}

func (r *renamer) walk(ctx context.Context, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		r.col.walkWarning(dir, err)
		return
	}

	var dirs, files []os.DirEntry
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e)
		} else {
			files = append(files, e)
		}
	}

	var next []string
	for _, e := range dirs {
		if ctx.Err() != nil {
			return
		}
		next = append(next, r.renameEntry(dir, e.Name(), true))
	}
	for _, e := range files {
		if ctx.Err() != nil {
			return
		}
		r.renameEntry(dir, e.Name(), false)
	}

	for _, sub := range next {
		r.walk(ctx, sub)
	}
}

// renameEntry renames dir/name if needed and returns the entry's path after
// the attempt.
func (r *renamer) renameEntry(dir, name string, isDir bool) string {
	oldPath := filepath.Join(dir, name)
	newName := r.normalizer.Normalize(name, isDir)
	if newName == name {
		return oldPath
	}
	newPath := filepath.Join(dir, newName)

	kind := "file"
	if isDir {
		kind = "directory"
	}

	// os.Rename replaces existing files on unix, so check first.
	if _, err := os.Lstat(newPath); err == nil || r.planned[newPath] {
		o := failed(ActionRename, oldPath, fmt.Errorf("%w: %s", naming.ErrCollision, newPath))
		o.Target = newPath
		r.col.add(o)
		return oldPath
	}

	o := done(ActionRename, oldPath, "")
	o.Target = newPath

	if r.dryRun {
		r.planned[newPath] = true
		o.Detail = "would rename " + kind
		r.col.add(o)
		return oldPath
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		o = failed(ActionRename, oldPath, err)
		o.Target = newPath
		r.col.add(o)
		return oldPath
	}

	o.Detail = "renamed " + kind
	r.col.add(o)
	return newPath
}
