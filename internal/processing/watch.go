package processing

import (
	"context"
	"fmt"

	"github.com/five82/imgtidy/internal/classify"
	"github.com/five82/imgtidy/internal/config"
	"github.com/five82/imgtidy/internal/reporter"
	"github.com/five82/imgtidy/internal/util"
	"github.com/five82/imgtidy/internal/watcher"
)

// Watch runs Optimize once over roots, then re-optimizes in-scope sources as
// they are created or written until ctx is cancelled. Files carrying the
// target extension are never handled, so the watcher ignores its own output.
func Watch(ctx context.Context, cfg *config.Config, roots []string, rep reporter.Reporter) error {
	if rep == nil {
		rep = reporter.NullReporter{}
	}

	cls, err := classify.ForConfig(cfg)
	if err != nil {
		return err
	}

	if _, err := Optimize(ctx, cfg, roots, rep); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}

	accept := func(path string) bool {
		return cls.InScope(path) && !util.HasExtension(path, cfg.TargetExt)
	}
	handle := func(ctx context.Context, path string) {
		if _, err := OptimizeFiles(ctx, cfg, []string{path}, rep); err != nil {
			rep.Warning(fmt.Sprintf("watch: %s: %v", path, err))
		}
	}

	w, err := watcher.New(roots, handle, watcher.Options{
		Accept:  accept,
		OnError: func(err error) { rep.Warning(fmt.Sprintf("watch: %v", err)) },
		OnWatch: func(dir string) { rep.Verbose("watching " + dir) },
	})
	if err != nil {
		return err
	}

	rep.Verbose(fmt.Sprintf("watching %d root(s) for changes", len(roots)))
	return w.Run(ctx)
}
