package ports

import (
	"context"

	"github.com/canonry/canonry/pkg/domain"
)

// HeuristicInput bundles everything a conflict heuristic may inspect.
type HeuristicInput struct {
	// Snapshot is the catalog the pathway was validated against.
	Snapshot *domain.Snapshot
	// Pathway is the combination under validation.
	Pathway domain.Pathway
	// Context carries the caller-supplied evaluation facts, with the
	// pathway's own selections already folded in.
	Context domain.EvaluationContext
}

// Heuristic is a pluggable conflict detector. Heuristics run after the rule
// catalog and flag combinations that are technically allowed but likely to
// read as contradictory. Findings are appended as-is; the engine never
// deduplicates across heuristics, so two heuristics may legitimately flag
// the same pair for different reasons.
type Heuristic interface {
	// Name identifies the heuristic in Conflict.Source.
	Name() string

	// Inspect returns the conflicts found, or nil. Implementations should
	// return early when ctx is done.
	Inspect(ctx context.Context, in HeuristicInput) []domain.Conflict
}

// HeuristicFunc adapts a named function to the Heuristic interface.
func HeuristicFunc(name string, fn func(ctx context.Context, in HeuristicInput) []domain.Conflict) Heuristic {
	return funcHeuristic{name: name, fn: fn}
}

type funcHeuristic struct {
	name string
	fn   func(ctx context.Context, in HeuristicInput) []domain.Conflict
}

func (h funcHeuristic) Name() string { return h.name }

func (h funcHeuristic) Inspect(ctx context.Context, in HeuristicInput) []domain.Conflict {
	return h.fn(ctx, in)
}
