// Package export runs batch watermark jobs: it resolves output names,
// enforces the overwrite guard, renders each source through the compositor
// and writes the encoded results, isolating per-image failures.
package export

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/photomark/photomark/pkg/imageio"
	"github.com/photomark/photomark/pkg/watermark"
	"github.com/photomark/photomark/util"
	"github.com/photomark/photomark/util/log"
)

// ErrOverwriteRefused reports an export destination that collides with a
// source under the active policy.
var ErrOverwriteRefused = errors.New("export would overwrite a source file")

// Status is the per-item state. Items move Pending -> Rendering -> Writing
// and finish as Done or Failed.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRendering Status = "rendering"
	StatusWriting   Status = "writing"
	StatusDone      Status = "done"
	StatusFailed    Status = "failed"
)

// Job is one batch export request. The descriptor is a snapshot taken at
// submission time; later edits do not affect a running job.
type Job struct {
	Sources    []string
	Descriptor watermark.Descriptor
	Options    Options
}

// ItemResult records the outcome for a single source image.
type ItemResult struct {
	ID     string
	Source string
	Output string
	Status Status
	Err    error
}

// Report aggregates the per-item results of a finished job.
type Report struct {
	JobID  string
	Items  []ItemResult
	Done   int
	Failed int
}

// ProgressFunc receives each completed item along with running counts.
type ProgressFunc func(completed, total int, item ItemResult)

// Pipeline renders and writes export jobs with a bounded worker group.
type Pipeline struct {
	comp    *watermark.Compositor
	workers int
}

// NewPipeline creates a pipeline around the given compositor.
// workers bounds concurrent renders; values below 1 mean a single worker.
func NewPipeline(comp *watermark.Compositor, workers int) *Pipeline {
	if workers < 1 {
		workers = 1
	}
	return &Pipeline{comp: comp, workers: workers}
}

// CollectSources walks dir recursively and returns the supported image files
// in lexical order.
func CollectSources(dir string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && imageio.SupportedInput(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// Run executes the job and returns the aggregated report. A single image's
// failure is recorded and the run proceeds; Run itself errors only on
// invalid options or an empty source list. Cancellation is cooperative and
// takes effect before each item starts.
func (p *Pipeline) Run(ctx context.Context, job Job, progress ProgressFunc) (*Report, error) {
	if err := job.Options.Validate(); err != nil {
		return nil, err
	}
	if len(job.Sources) == 0 {
		return nil, errors.New("no source images")
	}
	if err := os.MkdirAll(job.Options.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	report := &Report{
		JobID: uuid.NewString(),
		Items: make([]ItemResult, len(job.Sources)),
	}
	log.Printf("Export %s: %d sources -> %s", report.JobID, len(job.Sources), job.Options.OutputDir)

	// Resolve every output path up front so name collisions between items
	// are caught before any pixel work happens.
	seen := make(map[string]int, len(job.Sources))
	for i, src := range job.Sources {
		item := ItemResult{ID: uuid.NewString(), Source: src, Status: StatusPending}
		out := resolveOutputPath(src, job.Options)
		if err := checkOverwrite(src, out, job.Options); err != nil {
			item.Status = StatusFailed
			item.Err = err
		} else if first, dup := seen[out]; dup {
			item.Status = StatusFailed
			item.Err = fmt.Errorf("%w: %s and %s both resolve to %s",
				ErrOverwriteRefused, job.Sources[first], src, out)
		} else {
			seen[out] = i
			item.Output = out
		}
		report.Items[i] = item
	}

	var mu sync.Mutex
	completed := util.NewSafeInt()
	total := len(job.Sources)

	finish := func(i int, item ItemResult) {
		mu.Lock()
		report.Items[i] = item
		mu.Unlock()
		if progress != nil {
			progress(completed.Increment(), total, item)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range report.Items {
		item := report.Items[i]
		if item.Status == StatusFailed {
			finish(i, item)
			continue
		}
		g.Go(func() error {
			// Cooperative cancellation: checked before the item starts,
			// never mid-image.
			if err := gctx.Err(); err != nil {
				item.Status = StatusFailed
				item.Err = err
				finish(i, item)
				return nil
			}
			finish(i, p.exportOne(gctx, item, job))
			return nil
		})
	}
	// Workers never return errors; Wait is for completion only.
	_ = g.Wait()

	for _, item := range report.Items {
		if item.Status == StatusDone {
			report.Done++
		} else {
			report.Failed++
		}
	}
	log.Printf("Export %s finished: %d done, %d failed", report.JobID, report.Done, report.Failed)
	return report, nil
}

// exportOne runs the per-item state machine on a single source image.
func (p *Pipeline) exportOne(ctx context.Context, item ItemResult, job Job) ItemResult {
	fail := func(err error) ItemResult {
		item.Status = StatusFailed
		item.Err = err
		log.Printf("Export item %s (%s): %v", item.ID, item.Source, err)
		return item
	}

	item.Status = StatusRendering
	base, _, err := imageio.Decode(item.Source)
	if err != nil {
		return fail(err)
	}

	res, err := p.comp.Render(ctx, base, job.Descriptor)
	if err != nil {
		return fail(err)
	}

	out := res.Image
	if job.Options.Resize.Mode != ResizeNone && job.Options.Resize.Mode != "" {
		b := out.Bounds()
		w, h := job.Options.Resize.TargetSize(b.Dx(), b.Dy())
		if w != b.Dx() || h != b.Dy() {
			out = imaging.Resize(out, w, h, imaging.Lanczos)
		}
	}

	item.Status = StatusWriting
	opts := imageio.Options{Format: job.Options.Format, Quality: job.Options.Quality}
	if err := imageio.EncodeFile(item.Output, out, opts); err != nil {
		return fail(err)
	}

	item.Status = StatusDone
	return item
}

// resolveOutputPath applies the naming rule and export format extension.
func resolveOutputPath(src string, opts Options) string {
	stem := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	return filepath.Join(opts.OutputDir, opts.Naming.Apply(stem)+opts.Format.Ext())
}

// checkOverwrite enforces the overwrite guard. An output equal to its source
// is always refused; writing into a source's directory is refused unless the
// job explicitly allows it.
func checkOverwrite(src, out string, opts Options) error {
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		srcAbs = src
	}
	outAbs, err := filepath.Abs(out)
	if err != nil {
		outAbs = out
	}
	if outAbs == srcAbs {
		return fmt.Errorf("%w: %s", ErrOverwriteRefused, src)
	}
	if !opts.AllowSourceOverwrite && filepath.Dir(outAbs) == filepath.Dir(srcAbs) {
		return fmt.Errorf("%w: output directory contains source %s", ErrOverwriteRefused, src)
	}
	return nil
}
