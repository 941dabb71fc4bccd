package processing

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/five82/imgtidy/internal/classify"
	"github.com/five82/imgtidy/internal/codec"
	"github.com/five82/imgtidy/internal/config"
	"github.com/five82/imgtidy/internal/discovery"
	"github.com/five82/imgtidy/internal/reporter"
	"github.com/five82/imgtidy/internal/util"
	"github.com/five82/imgtidy/internal/validation"
)

// outputFormat is the image format name the encoder produces.
const outputFormat = "webp"

// job is one classified source file and the path it writes.
type job struct {
	source   string
	output   string
	decision classify.Decision
}

// group holds every job writing to the same derived path, compared without
// case so that case-insensitive filesystems never see two concurrent writers.
// Jobs in a group run sequentially.
type group struct {
	key  string
	jobs []job
}

// Optimize resizes and re-encodes every in-scope file under roots according
// to the active profile. Per-file failures are recorded in the result; the
// returned error is reserved for fatal problems such as an unreadable root.
func Optimize(ctx context.Context, cfg *config.Config, roots []string, rep reporter.Reporter) (*Result, error) {
	start := time.Now()
	col := newCollector(rep)

	for _, root := range roots {
		util.CheckDiskSpace(root, func(format string, args ...any) {
			col.rep.Warning(fmt.Sprintf(format, args...))
		})
	}

	files, err := discovery.Walk(roots, col.walkWarning)
	if err != nil {
		return nil, err
	}

	if err := optimizeFiles(ctx, cfg, roots, files, col); err != nil {
		return nil, err
	}

	res := col.result(OpOptimize, start, cfg.DryRun)
	col.rep.BatchComplete(res.Summary)
	return res, nil
}

// OptimizeFiles runs the optimize transform over an explicit file list.
// Files outside the active profile's extensions are ignored.
func OptimizeFiles(ctx context.Context, cfg *config.Config, files []string, rep reporter.Reporter) (*Result, error) {
	start := time.Now()
	col := newCollector(rep)
	if err := optimizeFiles(ctx, cfg, nil, files, col); err != nil {
		return nil, err
	}
	return col.result(OpOptimize, start, cfg.DryRun), nil
}

func optimizeFiles(ctx context.Context, cfg *config.Config, roots, files []string, col *collector) error {
	cls, err := classify.ForConfig(cfg)
	if err != nil {
		return err
	}

	groups, total := planGroups(cls, cfg.TargetExt, files)
	if len(roots) > 0 {
		col.rep.BatchStarted(reporter.BatchStartInfo{
			Operation:  OpOptimize,
			Roots:      roots,
			TotalFiles: total,
			DryRun:     cfg.DryRun,
		})
	}

	workers := max(cfg.Workers, 1)
	var g errgroup.Group
	g.SetLimit(workers)

	for _, grp := range groups {
		// Check for cancellation before starting each group
		if ctx.Err() != nil {
			col.rep.Warning(fmt.Sprintf("Optimize cancelled: %v", ctx.Err()))
			break
		}

		g.Go(func() error {
			processGroup(ctx, cfg, grp, col)
			return nil
		})
	}

	return g.Wait()
}

// planGroups classifies files and partitions them by derived output path,
// preserving walk order.
func planGroups(cls *classify.Classifier, targetExt string, files []string) ([]group, int) {
	index := make(map[string]int)
	var groups []group
	total := 0

	for _, f := range files {
		if util.IsTempName(filepath.Base(f)) {
			continue
		}
		d, ok := cls.Classify(f)
		if !ok {
			continue
		}
		total++

		out := util.DerivedPathFor(f, targetExt)
		key := strings.ToLower(out)
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, group{key: key})
		}
		groups[i].jobs = append(groups[i].jobs, job{source: f, output: out, decision: d})
	}

	return groups, total
}

// processGroup runs a group's jobs in order. A target-format file is skipped
// when another source in the group supersedes it. When several sources write
// the same output, each overwrites the previous result, so none of them is
// deleted.
func processGroup(ctx context.Context, cfg *config.Config, grp group, col *collector) {
	var sources []string
	for _, j := range grp.jobs {
		if !util.HasExtension(j.source, cfg.TargetExt) {
			sources = append(sources, j.source)
		}
	}

	for _, j := range grp.jobs {
		if util.HasExtension(j.source, cfg.TargetExt) && len(sources) > 0 {
			o := skipped(ActionOptimize, j.source, fmt.Sprintf("superseded by %s", filepath.Base(sources[0])))
			o.Policy = j.decision.PolicyName
			col.add(o)
			continue
		}
		if ctx.Err() != nil {
			col.add(skipped(ActionOptimize, j.source, "cancelled"))
			continue
		}

		keep := ""
		if len(sources) > 1 {
			for _, other := range sources {
				if other != j.source {
					keep = fmt.Sprintf("kept: %s also writes %s", filepath.Base(other), filepath.Base(j.output))
					break
				}
			}
		}
		col.add(optimizeFile(j, cfg.DryRun, keep))
	}
}

// optimizeFile decodes, resizes, encodes and validates one source. A
// non-empty keep reason overrides the policy's source deletion.
func optimizeFile(j job, dryRun bool, keep string) Outcome {
	src := j.source
	output := j.output
	policy := j.decision.Policy

	o := Outcome{Path: src, Target: output, Action: ActionOptimize, Policy: j.decision.PolicyName}
	fail := func(err error) Outcome {
		o.Status = reporter.StatusFailed
		o.Err = err
		return o
	}

	inputSize, err := util.GetFileSize(src)
	if err != nil {
		return fail(err)
	}
	o.InputSize = inputSize

	if policy.MinSourceBytes > 0 && int64(inputSize) <= policy.MinSourceBytes {
		o.Status = reporter.StatusSkipped
		o.Detail = fmt.Sprintf("%s is not above the %s threshold",
			util.FormatBytesReadable(inputSize), util.FormatBytesReadable(uint64(policy.MinSourceBytes)))
		return o
	}

	filter, err := codec.Filter(policy.Filter)
	if err != nil {
		return fail(err)
	}

	img, err := codec.Open(src)
	if err != nil {
		return fail(err)
	}
	b := img.Bounds()
	o.Before = [2]int{b.Dx(), b.Dy()}

	img, _ = codec.Resize(img, policy.MaxDimension, filter)
	b = img.Bounds()
	o.After = [2]int{b.Dx(), b.Dy()}

	if dryRun {
		o.Status = reporter.StatusDone
		o.Detail = "would encode"
		return o
	}

	err = util.WriteFileAtomic(output, func(w io.Writer) error {
		return codec.EncodeWebP(w, img, policy.Quality, policy.Effort)
	})
	if err != nil {
		return fail(fmt.Errorf("write %s: %w", output, err))
	}

	res, err := validation.ValidateOutput(output, validation.Options{
		ExpectedFormat:     outputFormat,
		ExpectedDimensions: &o.After,
	})
	if err != nil {
		return fail(err)
	}
	o.OutputSize = uint64(res.Size)
	if !res.IsValid() {
		return fail(fmt.Errorf("output validation failed: %s", res.Failures()))
	}

	o.Status = reporter.StatusDone
	if policy.DeleteSource && keep != "" {
		o.Detail = keep
		return o
	}
	if policy.DeleteSource && src != output && !util.SameFile(src, output) {
		if err := os.Remove(src); err != nil {
			return fail(fmt.Errorf("encoded but could not delete source: %w", err))
		}
		o.Detail = "source deleted"
	}
	return o
}
