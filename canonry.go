package canonry

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/loam"
	"github.com/canonry/canonry/internal/conditions"
	"github.com/canonry/canonry/internal/graph"
	"github.com/canonry/canonry/internal/relations"
	"github.com/canonry/canonry/internal/runtime"
	loamAdapter "github.com/canonry/canonry/pkg/adapters/loam"
	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/ports"
)

// Engine is the high-level entry point for the Canonry library.
// It wraps the internal validation pipeline and provides a simplified API
// for consumers.
type Engine struct {
	provider ports.SnapshotProvider
	pipeline *runtime.Pipeline
	timeout  time.Duration
	maxDepth int
	logger   *slog.Logger
	runOpts  []runtime.Option
	Name     string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithProvider injects a custom SnapshotProvider, bypassing the default
// Loam initialization.
func WithProvider(p ports.SnapshotProvider) Option {
	return func(e *Engine) {
		e.provider = p
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithTimingSink mirrors per-stage durations to an external collector, such
// as the Prometheus sink in pkg/observability.
func WithTimingSink(sink ports.TimingSink) Option {
	return func(e *Engine) {
		e.runOpts = append(e.runOpts, runtime.WithTimingSink(sink))
	}
}

// WithHeuristics replaces the built-in conflict heuristic set.
func WithHeuristics(hs ...ports.Heuristic) Option {
	return func(e *Engine) {
		e.runOpts = append(e.runOpts, runtime.WithHeuristics(hs...))
	}
}

// WithTimeout bounds each validation call. Zero means no bound beyond the
// caller's context.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.timeout = d
	}
}

// WithMaxExpressionDepth bounds condition tree nesting (default 8).
func WithMaxExpressionDepth(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxDepth = n
			e.runOpts = append(e.runOpts, runtime.WithMaxExpressionDepth(n))
		}
	}
}

// WithParallel toggles parallel stage dispatch. On by default.
func WithParallel(enabled bool) Option {
	return func(e *Engine) {
		e.runOpts = append(e.runOpts, runtime.WithParallel(enabled))
	}
}

// New initializes a new Canonry Engine.
// By default, it reads catalogs from a Loam repository at the given path.
// If the WithProvider option is given, catalogPath can be empty and Loam is
// skipped.
func New(catalogPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{maxDepth: conditions.DefaultMaxDepth}

	// Apply options first to check if a provider was injected.
	for _, opt := range opts {
		opt(eng)
	}

	if eng.provider == nil {
		if catalogPath == "" {
			return nil, fmt.Errorf("catalogPath is required when no custom provider is provided")
		}

		absPath, err := filepath.Abs(catalogPath)
		if err != nil {
			return nil, fmt.Errorf("invalid path: %w", err)
		}
		eng.Name = filepath.Base(absPath)

		// Strict mode keeps frontmatter numbers stable (json.Number), and
		// the engine only ever reads catalogs, never writes them.
		repo, err := loam.Init(absPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}

		typedRepo := loam.NewTypedRepository[loamAdapter.EntityMetadata](repo)
		eng.provider = loamAdapter.New(typedRepo)
	} else if catalogPath != "" {
		// A custom provider can still use the path as a descriptive label.
		eng.Name = filepath.Base(catalogPath)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("catalog", eng.Name)
	}

	runOpts := append([]runtime.Option{runtime.WithLogger(eng.logger)}, eng.runOpts...)
	eng.pipeline = runtime.New(runOpts...)

	return eng, nil
}

// ValidatePathway checks a tag and plot block combination against its
// fandom's catalog. The evaluation context supplies completions and story
// metadata the pathway itself does not carry; the zero value is fine.
//
// The returned error is non-nil only when the pathway cannot be analyzed at
// all: a nil pathway, an unknown fandom, or a *domain.StructuralError for
// malformed input. Everything the analysis finds, including conflicts and
// engine faults, lands in the report.
func (e *Engine) ValidatePathway(ctx context.Context, pw *domain.Pathway, ectx domain.EvaluationContext) (*domain.ValidationReport, error) {
	if pw == nil {
		return nil, domain.ErrNilPathway
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	if pw.FandomID == "" {
		return nil, domain.NewStructuralError("missing_field", "pathway has no fandom_id")
	}

	snap, err := e.provider.Snapshot(ctx, pw.FandomID)
	if err != nil {
		return nil, err
	}
	return e.pipeline.Run(ctx, snap, *pw, ectx)
}

// ValidateConditionGraph surveys a fandom's dependency graph: cycles,
// direct and transitive dependencies, and a safe build order. A proposed
// edge, when given, is overlaid first so callers can probe a change before
// committing it to the catalog.
func (e *Engine) ValidateConditionGraph(ctx context.Context, fandomID string, proposed *domain.Edge) (*domain.GraphAudit, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	snap, err := e.provider.Snapshot(ctx, fandomID)
	if err != nil {
		return nil, err
	}
	audit := graph.Audit(snap, proposed)
	return &audit, nil
}

// PrecheckDependency answers the narrow question a catalog editor asks
// before persisting a new dependency record: would this edge close a cycle?
// A nil violation means the edge is safe. The engine never stores the edge;
// use ValidateConditionGraph for the full what-if audit.
func (e *Engine) PrecheckDependency(ctx context.Context, fandomID string, edge domain.Edge) (*domain.Violation, error) {
	snap, err := e.provider.Snapshot(ctx, fandomID)
	if err != nil {
		return nil, err
	}
	if v, rejected := relations.PrecheckConditionEdge(graph.Build(snap), edge); rejected {
		return &v, nil
	}
	return nil, nil
}

// PrecheckHierarchyMove answers the same question for reparenting: would
// moving the block under the proposed parent loop the block tree? A nil
// violation means the move is safe. It returns domain.ErrBlockNotFound when
// the block to move is not in the catalog.
func (e *Engine) PrecheckHierarchyMove(ctx context.Context, fandomID, blockID, newParentID string) (*domain.Violation, error) {
	snap, err := e.provider.Snapshot(ctx, fandomID)
	if err != nil {
		return nil, err
	}
	if _, ok := snap.BlockByID(blockID); !ok {
		return nil, fmt.Errorf("plot block %q: %w", blockID, domain.ErrBlockNotFound)
	}
	if v, rejected := relations.PrecheckHierarchyMove(snap, blockID, newParentID); rejected {
		return &v, nil
	}
	return nil, nil
}

// EvaluateConditions reports on one plot block's condition tree against an
// evaluation context, listing the outcome of every node rather than just
// the verdict. It returns domain.ErrBlockNotFound for an unknown block and
// a *domain.StructuralError when the block's conditions are malformed.
func (e *Engine) EvaluateConditions(ctx context.Context, fandomID, blockID string, ectx domain.EvaluationContext) (*domain.ConditionReport, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	snap, err := e.provider.Snapshot(ctx, fandomID)
	if err != nil {
		return nil, err
	}
	block, ok := snap.BlockByID(blockID)
	if !ok {
		return nil, fmt.Errorf("plot block %q: %w", blockID, domain.ErrBlockNotFound)
	}

	evaluator := conditions.New(snap, e.maxDepth)
	compiled, err := evaluator.Compile(block.Conditions)
	if err != nil {
		return nil, err
	}
	valid, results := evaluator.Evaluate(compiled, ectx)

	report := &domain.ConditionReport{
		BlockID:    blockID,
		Valid:      valid,
		Conditions: results,
	}
	if len(results) == 0 {
		report.Summary = "no conditions declared"
	} else {
		satisfied := 0
		for _, r := range results {
			if r.Satisfied {
				satisfied++
			}
		}
		report.Summary = fmt.Sprintf("%d of %d conditions satisfied", satisfied, len(results))
	}
	return report, nil
}

// ValidateSnapshot audits a whole catalog without reference to any pathway:
// duplicate IDs, dangling references, dependency cycles, and condition
// trees that do not compile. Use it before publishing catalog changes.
func (e *Engine) ValidateSnapshot(ctx context.Context, snap *domain.Snapshot) (*domain.ValidationReport, error) {
	return e.pipeline.AuditCatalog(ctx, snap)
}

// AuditFandom loads the fandom's snapshot from the provider and runs
// ValidateSnapshot on it.
func (e *Engine) AuditFandom(ctx context.Context, fandomID string) (*domain.ValidationReport, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	snap, err := e.provider.Snapshot(ctx, fandomID)
	if err != nil {
		return nil, err
	}
	return e.pipeline.AuditCatalog(ctx, snap)
}

// Fandoms lists the fandoms the underlying provider knows about.
func (e *Engine) Fandoms(ctx context.Context) ([]domain.Fandom, error) {
	return e.provider.Fandoms(ctx)
}

// Watch returns a channel that signals when the underlying catalog changes.
// Returns an error if the provider does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.provider.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current provider does not support watching")
}

// Provider returns the underlying SnapshotProvider used by the engine.
func (e *Engine) Provider() ports.SnapshotProvider {
	return e.provider
}
