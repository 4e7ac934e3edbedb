// Package runtime orchestrates a validation run: one structural pass that
// may short-circuit, four independent analysis stages, and a final advisory
// pass for complexity and suggestions.
//
// The pipeline owns no I/O and no shared mutable state. The caller resolves
// the snapshot before handing it in, so every run is a pure function of its
// inputs and safe under unbounded concurrency.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/canonry/canonry/internal/conditions"
	"github.com/canonry/canonry/internal/conflicts"
	"github.com/canonry/canonry/internal/relations"
	"github.com/canonry/canonry/internal/rules"
	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/ports"
)

// Stage names, as they appear in report timings and metric labels.
const (
	StageStructural  = "structural"
	StageConstraints = "constraints"
	StageConditions  = "conditions"
	StageRelations   = "relations"
	StageConflicts   = "conflicts"
	StageAnalysis    = "analysis"
)

// Pipeline runs validation stages over a resolved snapshot.
type Pipeline struct {
	log      *slog.Logger
	sink     ports.TimingSink
	analyzer *conflicts.Analyzer
	maxDepth int
	parallel bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger. Defaults to a no-op logger.
func WithLogger(log *slog.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// WithTimingSink mirrors per-stage durations to an external collector.
func WithTimingSink(sink ports.TimingSink) Option {
	return func(p *Pipeline) {
		if sink != nil {
			p.sink = sink
		}
	}
}

// WithHeuristics replaces the built-in conflict heuristic set.
func WithHeuristics(hs ...ports.Heuristic) Option {
	return func(p *Pipeline) { p.analyzer = conflicts.NewAnalyzer(hs...) }
}

// WithMaxExpressionDepth bounds condition tree nesting.
func WithMaxExpressionDepth(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// WithParallel toggles parallel stage dispatch. On by default; sequential
// mode exists for debugging and for hosts that already saturate their cores.
func WithParallel(enabled bool) Option {
	return func(p *Pipeline) { p.parallel = enabled }
}

// New builds a pipeline with the built-in heuristics and defaults.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		sink:     ports.TimingSinkFunc(func(string, time.Duration) {}),
		analyzer: conflicts.NewAnalyzer(conflicts.Defaults()...),
		maxDepth: conditions.DefaultMaxDepth,
		parallel: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// stageOutcome is what one analysis stage contributes to the final report.
type stageOutcome struct {
	violations []domain.Violation
	conflicts  []domain.Conflict
	completed  bool
}

// Run validates a pathway against a resolved snapshot. The error is non-nil
// only for structural defects (malformed pathway or conditions); everything
// else, including engine faults, lands in the report. The report is never
// nil when the error is nil.
func (p *Pipeline) Run(ctx context.Context, snap *domain.Snapshot, pw domain.Pathway, ectx domain.EvaluationContext) (*domain.ValidationReport, error) {
	report := &domain.ValidationReport{}
	started := time.Now()

	// 1. Structural stage: the only one allowed to short-circuit.
	prep, err := p.structural(snap, &pw, &ectx, report)
	p.observe(report, StageStructural, started)
	if err != nil {
		p.log.Warn("pathway rejected before analysis", "fandom", pw.FandomID, "err", err)
		return nil, err
	}

	// 2. Independent analysis stages.
	outcomes := p.dispatch(ctx, snap, pw, ectx, prep, report)
	for _, o := range outcomes {
		report.Violations = append(report.Violations, o.violations...)
		report.Conflicts = append(report.Conflicts, o.conflicts...)
		if !o.completed {
			report.Incomplete = true
		}
	}

	// 3. Advisory pass: complexity and suggestions never affect validity.
	analysisStart := time.Now()
	report.Complexity = Score(snap, pw)
	report.Suggestions = Suggest(report)
	p.observe(report, StageAnalysis, analysisStart)

	report.Valid = report.BlockingCount() == 0
	p.log.Debug("pathway validated",
		"fandom", pw.FandomID,
		"valid", report.Valid,
		"violations", len(report.Violations),
		"conflicts", len(report.Conflicts),
		"incomplete", report.Incomplete,
		"took", time.Since(started),
	)
	return report, nil
}

// dispatch runs the four analysis stages, in parallel unless configured
// otherwise, and returns their outcomes in fixed stage order so merged
// reports are deterministic regardless of scheduling.
func (p *Pipeline) dispatch(ctx context.Context, snap *domain.Snapshot, pw domain.Pathway, ectx domain.EvaluationContext, prep *prepared, report *domain.ValidationReport) []stageOutcome {
	stages := []struct {
		name string
		run  func(context.Context) stageOutcome
	}{
		{StageConstraints, func(ctx context.Context) stageOutcome {
			return stageOutcome{violations: rules.Evaluate(snap, pw, ectx), completed: true}
		}},
		{StageConditions, func(ctx context.Context) stageOutcome {
			return stageOutcome{violations: p.evaluateConditions(pw, ectx, prep), completed: true}
		}},
		{StageRelations, func(ctx context.Context) stageOutcome {
			return stageOutcome{violations: relations.Check(snap, pw), completed: true}
		}},
		{StageConflicts, func(ctx context.Context) stageOutcome {
			out := stageOutcome{conflicts: p.analyzer.Analyze(ctx, ports.HeuristicInput{
				Snapshot: snap,
				Pathway:  pw,
				Context:  ectx,
			})}
			out.completed = ctx.Err() == nil
			return out
		}},
	}

	outcomes := make([]stageOutcome, len(stages))
	timings := make([]time.Duration, len(stages))

	runStage := func(i int) {
		start := time.Now()
		defer func() {
			timings[i] = time.Since(start)
			if r := recover(); r != nil {
				fault := &domain.EngineFault{Stage: stages[i].name, Cause: r}
				p.log.Error("stage panicked", "stage", stages[i].name, "err", fault)
				outcomes[i] = stageOutcome{
					violations: []domain.Violation{faultViolation(fault)},
					completed:  true,
				}
			}
		}()

		if ctx.Err() != nil {
			outcomes[i] = stageOutcome{completed: false}
			return
		}
		outcomes[i] = stages[i].run(ctx)
	}

	if p.parallel {
		var wg sync.WaitGroup
		wg.Add(len(stages))
		for i := range stages {
			go func(i int) {
				defer wg.Done()
				runStage(i)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range stages {
			runStage(i)
		}
	}

	for i, s := range stages {
		report.Timings = append(report.Timings, domain.StageTiming{Stage: s.name, Duration: timings[i]})
		p.sink.ObserveStage(s.name, timings[i])
	}
	return outcomes
}

// evaluateConditions checks every pathway block's compiled condition tree
// and reports the unsatisfied ones.
func (p *Pipeline) evaluateConditions(pw domain.Pathway, ectx domain.EvaluationContext, prep *prepared) []domain.Violation {
	var out []domain.Violation
	for _, id := range pw.BlockIDs {
		compiled, ok := prep.compiled[id]
		if !ok || len(compiled) == 0 {
			continue
		}
		valid, results := prep.evaluator.Evaluate(compiled, ectx)
		if valid {
			continue
		}
		failed := firstFailure(results)
		out = append(out, domain.Violation{
			Code:     domain.CodeUnsatisfiedCondition,
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("plot block %q has unsatisfied conditions: %s", id, failed.Message),
			Subjects: []string{id},
			Details:  map[string]string{"condition_path": failed.Path},
		})
	}
	return out
}

func firstFailure(results []domain.ConditionResult) domain.ConditionResult {
	for _, r := range results {
		if !r.Satisfied && r.Message != "" {
			return r
		}
	}
	for _, r := range results {
		if !r.Satisfied {
			return r
		}
	}
	return domain.ConditionResult{}
}

func faultViolation(fault *domain.EngineFault) domain.Violation {
	return domain.Violation{
		Code:     domain.CodeEngineFault,
		Severity: domain.SeverityCritical,
		Message:  fault.Error(),
	}
}

func (p *Pipeline) observe(report *domain.ValidationReport, stage string, start time.Time) {
	d := time.Since(start)
	report.Timings = append(report.Timings, domain.StageTiming{Stage: stage, Duration: d})
	p.sink.ObserveStage(stage, d)
}
