// Package conflicts runs the pluggable heuristics that flag pathways the
// rule catalog allows but readers would find contradictory: rival exclusive
// ships, overlapping timelines, content above the declared rating.
//
// Findings are concatenated in heuristic order and never deduplicated; two
// heuristics flagging the same pair for different reasons is signal, not
// noise.
package conflicts

import (
	"context"

	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/ports"
)

// Analyzer fans a pathway out to its heuristics sequentially. Order is the
// registration order, so reports are deterministic.
type Analyzer struct {
	heuristics []ports.Heuristic
}

// NewAnalyzer builds an analyzer over the given heuristics. With none given
// it analyzes nothing; callers wanting the built-ins pass Defaults().
func NewAnalyzer(heuristics ...ports.Heuristic) *Analyzer {
	return &Analyzer{heuristics: heuristics}
}

// Defaults returns the built-in heuristic set.
func Defaults() []ports.Heuristic {
	return []ports.Heuristic{
		ShippingExclusivity(),
		TimelineOverlap(),
		RatingMismatch(),
	}
}

// Analyze runs every heuristic and concatenates the findings. A cancelled
// context stops between heuristics; findings gathered so far are returned.
func (a *Analyzer) Analyze(ctx context.Context, in ports.HeuristicInput) []domain.Conflict {
	var out []domain.Conflict
	for _, h := range a.heuristics {
		if ctx.Err() != nil {
			return out
		}
		out = append(out, h.Inspect(ctx, in)...)
	}
	return out
}

// Names lists the analyzer's heuristics in execution order.
func (a *Analyzer) Names() []string {
	names := make([]string, len(a.heuristics))
	for i, h := range a.heuristics {
		names[i] = h.Name()
	}
	return names
}
