// Package verify orchestrates a correspondence run: extract every
// backend module, check each against the adapter, and fold the results
// into one scored report.
package verify

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shimsync/internal/correspond"
	"shimsync/internal/crawler"
	"shimsync/internal/extractor"
	"shimsync/internal/scoring"
)

// Options tune a verification run.
type Options struct {
	Threshold   float64
	Mode        correspond.Mode
	Parallelism int
	IgnoreDirs  []string
}

// ModuleOutcome is the per-module slice of a run: either an inventory
// with its correspondence result, or the error that kept the module out
// of the aggregate. One bad module never aborts the batch.
type ModuleOutcome struct {
	Path      string
	Module    string
	Inventory *extractor.ModuleInventory
	Result    correspond.Result
	Err       error
}

// Failed reports whether the module could not be checked at all.
func (o ModuleOutcome) Failed() bool { return o.Err != nil }

// Run is the complete record of one verification pass.
type Run struct {
	ID          string
	StartedAt   time.Time
	Elapsed     time.Duration
	AdapterPath string
	Mode        correspond.Mode
	Outcomes    []ModuleOutcome
	Report      scoring.Report
}

// Failures counts modules that could not be checked.
func (r *Run) Failures() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Failed() {
			n++
		}
	}
	return n
}

// Passed reports the overall verdict: the aggregate met the threshold
// and every module was actually checked.
func (r *Run) Passed() bool {
	return r.Report.Passed && r.Failures() == 0
}

// ExitCode maps the verdict to the process exit code.
func (r *Run) ExitCode() int {
	if r.Passed() {
		return 0
	}
	return 1
}

// Runner executes verification runs with a fixed configuration.
type Runner struct {
	log     *zap.Logger
	opts    Options
	crawler *crawler.Crawler
}

// NewRunner creates a runner. A nil logger disables logging.
func NewRunner(log *zap.Logger, opts Options) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Threshold == 0 {
		opts.Threshold = scoring.DefaultThreshold
	}
	if opts.Mode == "" {
		opts.Mode = correspond.ModeLexical
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = runtime.NumCPU()
	}
	return &Runner{
		log:     log,
		opts:    opts,
		crawler: crawler.NewCrawler(opts.IgnoreDirs...),
	}
}

// Run checks every backend module against the adapter at adapterPath.
// Backend inputs may be files or directories; directories are expanded
// to their Python sources. An unreadable or unparsable adapter fails
// the run outright, since there is nothing to check against; individual
// backend failures are recorded in their outcome and the batch goes on.
func (r *Runner) Run(ctx context.Context, adapterPath string, backends []string) (*Run, error) {
	run := &Run{
		ID:          uuid.NewString(),
		StartedAt:   time.Now().UTC(),
		AdapterPath: adapterPath,
		Mode:        r.opts.Mode,
	}
	r.log.Info("verification run starting",
		zap.String("run_id", run.ID),
		zap.String("adapter", adapterPath),
		zap.String("mode", string(run.Mode)))

	adapterSource, err := os.ReadFile(adapterPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read adapter %s: %w", adapterPath, err)
	}

	var adapterInv *extractor.ModuleInventory
	if r.opts.Mode == correspond.ModeStructural {
		adapterInv, err = extractor.Extract(extractor.ModuleName(adapterPath), adapterSource)
		if err != nil {
			return nil, fmt.Errorf("adapter is not checkable structurally: %w", err)
		}
	}
	corpus := string(adapterSource)

	paths, err := r.crawler.Expand(backends)
	if err != nil {
		return nil, fmt.Errorf("failed to expand backend inputs: %w", err)
	}

	run.Outcomes = make([]ModuleOutcome, len(paths))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.opts.Parallelism)
	for i, path := range paths {
		i, path := i, path
		eg.Go(func() error {
			run.Outcomes[i] = r.checkModule(ctx, path, adapterInv, corpus)
			return nil
		})
	}
	_ = eg.Wait()

	results := make([]correspond.Result, 0, len(run.Outcomes))
	for _, o := range run.Outcomes {
		if !o.Failed() {
			results = append(results, o.Result)
		}
	}
	run.Report = scoring.Aggregate(results, r.opts.Threshold)
	run.Elapsed = time.Since(run.StartedAt)

	r.log.Info("verification run finished",
		zap.String("run_id", run.ID),
		zap.Int("modules", len(run.Outcomes)),
		zap.Int("failures", run.Failures()),
		zap.Float64("percentage", run.Report.Percentage),
		zap.Bool("passed", run.Passed()),
		zap.Duration("elapsed", run.Elapsed))
	return run, nil
}

func (r *Runner) checkModule(ctx context.Context, path string, adapterInv *extractor.ModuleInventory, corpus string) ModuleOutcome {
	outcome := ModuleOutcome{Path: path, Module: extractor.ModuleName(path)}
	if err := ctx.Err(); err != nil {
		outcome.Err = err
		return outcome
	}

	inv, err := extractor.ExtractFile(path)
	if err != nil {
		r.log.Warn("module not checkable", zap.String("path", path), zap.Error(err))
		outcome.Err = err
		return outcome
	}
	outcome.Inventory = inv

	if adapterInv != nil {
		outcome.Result = correspond.Structural(inv, adapterInv)
	} else {
		outcome.Result = correspond.Lexical(inv, corpus)
	}
	r.log.Debug("module checked",
		zap.String("module", inv.Module),
		zap.Int("found", outcome.Result.Found),
		zap.Int("total", outcome.Result.Total),
		zap.Int("missing", len(outcome.Result.Missing)))
	return outcome
}
