package conflicts

import (
	"context"
	"fmt"

	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/ports"
)

// Rating ladder, least to most permissive.
var ratingRank = map[string]int{
	"general":  0,
	"teen":     1,
	"mature":   2,
	"explicit": 3,
}

// RatingMismatch flags pathway blocks whose declared content floor sits above
// the pathway's rating.
//
// A block declares its floor with Metadata["min_rating"]; the pathway rating
// comes from the evaluation context key "rating". A missing pathway rating is
// treated as "general", the strictest reading. Unknown rating spellings on a
// block skip that block.
func RatingMismatch() ports.Heuristic {
	return ratingHeuristic{}
}

type ratingHeuristic struct{}

func (ratingHeuristic) Name() string { return "rating_mismatch" }

func (ratingHeuristic) Inspect(ctx context.Context, in ports.HeuristicInput) []domain.Conflict {
	if ctx.Err() != nil {
		return nil
	}

	pathwayRating := "general"
	if v, ok := in.Context.Metadata["rating"].(string); ok && v != "" {
		if _, known := ratingRank[v]; known {
			pathwayRating = v
		}
	}
	have := ratingRank[pathwayRating]

	var out []domain.Conflict
	for _, id := range in.Pathway.BlockIDs {
		b, ok := in.Snapshot.BlockByID(id)
		if !ok {
			continue
		}
		floor := b.Metadata["min_rating"]
		need, known := ratingRank[floor]
		if !known || need <= have {
			continue
		}
		out = append(out, domain.Conflict{
			Source: "rating_mismatch",
			Level:  domain.ConflictError,
			Message: fmt.Sprintf("block %q requires at least a %q rating but the pathway is rated %q",
				b.ID, floor, pathwayRating),
			Subjects: []string{b.ID},
		})
	}
	return out
}
