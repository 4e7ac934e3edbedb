package conflicts

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/canonry/canonry/pkg/domain"
	"github.com/canonry/canonry/pkg/ports"
)

// TimelineOverlap flags pairs of pathway blocks whose declared timeline
// intervals intersect. Overlap is advisory: simultaneous arcs are sometimes
// intentional, so findings are always warnings.
//
// A block declares its interval with Metadata["timeline_start"] and
// Metadata["timeline_end"], integer story-time coordinates. Blocks without
// both bounds are skipped.
func TimelineOverlap() ports.Heuristic {
	return timelineHeuristic{}
}

type timelineHeuristic struct{}

func (timelineHeuristic) Name() string { return "timeline_overlap" }

type interval struct {
	blockID    string
	start, end int
}

func (timelineHeuristic) Inspect(ctx context.Context, in ports.HeuristicInput) []domain.Conflict {
	if ctx.Err() != nil {
		return nil
	}

	var intervals []interval
	for _, id := range in.Pathway.BlockIDs {
		b, ok := in.Snapshot.BlockByID(id)
		if !ok {
			continue
		}
		start, okStart := atoi(b.Metadata["timeline_start"])
		end, okEnd := atoi(b.Metadata["timeline_end"])
		if !okStart || !okEnd {
			continue
		}
		intervals = append(intervals, interval{blockID: b.ID, start: start, end: end})
	}
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].blockID < intervals[j].blockID })

	var out []domain.Conflict
	for i := 0; i < len(intervals); i++ {
		for j := i + 1; j < len(intervals); j++ {
			a, b := intervals[i], intervals[j]
			if !overlaps(a, b) {
				continue
			}
			subjects := []string{a.blockID, b.blockID}
			sort.Strings(subjects)
			out = append(out, domain.Conflict{
				Source: "timeline_overlap",
				Level:  domain.ConflictWarning,
				Message: fmt.Sprintf("blocks %q [%d..%d] and %q [%d..%d] overlap in story time",
					a.blockID, a.start, a.end, b.blockID, b.start, b.end),
				Subjects: subjects,
			})
		}
	}
	return out
}

// overlaps uses half-open interval intersection, with an extra case so two
// instant events at the same coordinate still count.
func overlaps(a, b interval) bool {
	return (a.start < b.end && b.start < a.end) || a.start == b.start
}

func atoi(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
