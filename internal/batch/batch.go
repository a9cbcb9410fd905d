// Package batch runs the conversion pipeline over many files with a fixed
// number of workers and collects a summary.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/listenupapp/tafcue/internal/errors"
	"github.com/listenupapp/tafcue/internal/id"
	"github.com/listenupapp/tafcue/internal/pipeline"
	"github.com/listenupapp/tafcue/internal/util"
)

// DefaultWorkers is used when no positive worker count is configured.
const DefaultWorkers = 2

// Processor is the per-file pipeline.
type Processor interface {
	Identify(ctx context.Context, path string) (*pipeline.Identity, error)
	Process(ctx context.Context, id *pipeline.Identity, name string) (*pipeline.Result, error)
}

// Runner converts batches of files.
type Runner struct {
	proc      Processor
	workers   int
	outputDir string
	logger    *slog.Logger
}

// NewRunner creates a runner writing into outputDir.
func NewRunner(proc Processor, workers int, outputDir string, logger *slog.Logger) *Runner {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{proc: proc, workers: workers, outputDir: outputDir, logger: logger}
}

// task is one file's slot. Each worker writes only to its own task.
type task struct {
	path     string
	identity *pipeline.Identity
	name     string
	result   *pipeline.Result
	err      error
}

// Run converts paths and returns the summary. Per-file failures are
// recorded in the summary; Run itself fails only when the output directory
// cannot be created.
//
// Identification runs in parallel, names are then assigned in input order
// so that duplicates get " (2)", " (3)" suffixes deterministically, and
// conversion runs in parallel again.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	runID := id.MustGenerate("run")
	logger := r.logger.With("run_id", runID)
	started := time.Now()

	if err := os.MkdirAll(r.outputDir, 0o755); err != nil {
		return nil, errors.WriteError(err, r.outputDir)
	}

	tasks := make([]*task, len(paths))
	for i, p := range paths {
		tasks[i] = &task{path: p}
	}
	logger.Info("batch started", "files", len(tasks), "workers", r.workers)

	r.each(ctx, tasks, func(ctx context.Context, t *task) {
		t.identity, t.err = r.proc.Identify(ctx, t.path)
	})

	taken := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if t.err == nil {
			t.name = util.UniqueName(t.identity.Name, taken)
		}
	}

	r.each(ctx, tasks, func(ctx context.Context, t *task) {
		t.result, t.err = r.proc.Process(ctx, t.identity, t.name)
	})

	summary := newSummary(runID, started, tasks)
	for _, f := range summary.Files {
		if f.Status == StatusFailed {
			logger.Error("file failed", "file", f.Source, "code", f.Code, "error", f.Error)
		}
	}
	logger.Info("batch finished",
		"succeeded", summary.Succeeded,
		"degraded", summary.Degraded,
		"failed", summary.Failed,
		"elapsed", summary.Elapsed,
	)
	return summary, nil
}

// each runs fn for every task without an error on at most r.workers
// goroutines. A panic in fn becomes that task's error. Tasks not started before ctx is done fail
// with the context error.
func (r *Runner) each(ctx context.Context, tasks []*task, fn func(context.Context, *task)) {
	var g errgroup.Group
	g.SetLimit(r.workers)

	for _, t := range tasks {
		g.Go(func() error {
			defer func() {
				if rec := recover(); rec != nil {
					r.logger.Error("panic while converting file",
						"file", t.path,
						"panic", rec,
						"stack", string(debug.Stack()),
					)
					t.err = errors.Internalf("panic: %v", rec)
				}
			}()

			if t.err != nil {
				return nil
			}
			if err := ctx.Err(); err != nil {
				t.err = fmt.Errorf("not started: %w", err)
				return nil
			}
			fn(ctx, t)
			return nil
		})
	}

	_ = g.Wait()
}
