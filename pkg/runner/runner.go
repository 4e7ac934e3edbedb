package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/canonry/canonry"
	"github.com/canonry/canonry/pkg/domain"
)

// Job is one pathway to validate, with the evaluation context it should be
// checked against.
type Job struct {
	// Label identifies the job in results and logs. Optional.
	Label string

	Pathway domain.Pathway
	Context domain.EvaluationContext
}

// Result pairs a job with its outcome. Exactly one of Report or Err is set
// unless the run was cut short, in which case Report may be incomplete.
type Result struct {
	Label  string
	Report *domain.ValidationReport
	Err    error
}

// Results holds batch outcomes in job order.
type Results []Result

// Summary tallies a batch.
type Summary struct {
	Valid      int
	Invalid    int
	Incomplete int
	Errored    int
}

// Summary counts the outcome of every result.
func (rs Results) Summary() Summary {
	var s Summary
	for _, res := range rs {
		switch {
		case res.Err != nil:
			s.Errored++
		case res.Report == nil || res.Report.Incomplete:
			s.Incomplete++
		case res.Report.Valid:
			s.Valid++
		default:
			s.Invalid++
		}
	}
	return s
}

// AllValid reports whether every job produced a complete, valid report.
func (s Summary) AllValid() bool {
	return s.Invalid == 0 && s.Incomplete == 0 && s.Errored == 0
}

func (s Summary) String() string {
	return fmt.Sprintf("%d valid, %d invalid, %d incomplete, %d errored",
		s.Valid, s.Invalid, s.Incomplete, s.Errored)
}

// Runner fans a batch of validation jobs out over a bounded worker set.
type Runner struct {
	engine  *canonry.Engine
	workers int
	logger  *slog.Logger
}

// NewRunner creates a runner. Without WithWorkers it sizes the pool to the
// machine's CPU count.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		workers: runtime.NumCPU(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers < 1 {
		r.workers = 1
	}
	return r
}

// Run validates every job and returns results in job order. Per-job failures
// land in Result.Err; Run itself only errors when no engine is configured.
// Cancelling ctx lets in-flight jobs finish as incomplete reports.
func (r *Runner) Run(ctx context.Context, jobs []Job) (Results, error) {
	if r.engine == nil {
		return nil, fmt.Errorf("runner requires an engine")
	}

	results := make(Results, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, job := range jobs {
		g.Go(func() error {
			pw := job.Pathway
			report, err := r.engine.ValidatePathway(gctx, &pw, job.Context)
			results[i] = Result{Label: job.Label, Report: report, Err: err}

			if err != nil {
				r.logger.Debug("job failed", "label", job.Label, "err", err)
				return nil
			}
			r.logger.Debug("job finished", "label", job.Label, "valid", report.Valid)
			return nil
		})
	}

	// Workers never return errors; Wait only orders the writes above.
	_ = g.Wait()

	return results, nil
}
