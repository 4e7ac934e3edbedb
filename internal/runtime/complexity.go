package runtime

import "github.com/canonry/canonry/pkg/domain"

// Band thresholds for the complexity score.
const (
	simpleMax   = 5
	moderateMax = 12
	complexMax  = 25
)

// Score sizes a pathway: one point per tag, each block's declared weight
// (one if unset), and one point per condition gating a selected block.
// Unknown IDs count as one point each; they still represent intent.
func Score(snap *domain.Snapshot, pw domain.Pathway) domain.Complexity {
	score := len(pw.TagIDs)
	for _, id := range pw.BlockIDs {
		b, ok := snap.BlockByID(id)
		if !ok {
			score++
			continue
		}
		weight := b.Complexity
		if weight < 1 {
			weight = 1
		}
		score += weight + len(b.Conditions)
	}

	c := domain.Complexity{Score: score}
	switch {
	case score <= simpleMax:
		c.Band = domain.ComplexitySimple
	case score <= moderateMax:
		c.Band = domain.ComplexityModerate
	case score <= complexMax:
		c.Band = domain.ComplexityComplex
	default:
		c.Band = domain.ComplexityEpic
	}
	return c
}
