package runtime

import (
	"fmt"
	"sort"
	"strings"

	"github.com/canonry/canonry/internal/conditions"
	"github.com/canonry/canonry/internal/graph"
	"github.com/canonry/canonry/pkg/domain"
)

// prepared carries what the structural stage hands the analysis stages:
// every condition tree of the pathway, already decoded.
type prepared struct {
	evaluator *conditions.Evaluator
	compiled  map[string][]conditions.Compiled
}

// structural is the only stage allowed to short-circuit. It checks pathway
// shape, normalizes selections, folds them into the evaluation context,
// surveys the dependency graph, and decodes every in-scope condition tree.
// Anything it cannot make sense of comes back as a *domain.StructuralError.
func (p *Pipeline) structural(snap *domain.Snapshot, pw *domain.Pathway, ectx *domain.EvaluationContext, report *domain.ValidationReport) (*prepared, error) {
	if snap == nil {
		return nil, domain.NewStructuralError("missing_snapshot", "no snapshot to validate against")
	}
	if pw.FandomID == "" {
		return nil, domain.NewStructuralError("missing_field", "pathway has no fandom_id")
	}
	if snap.Fandom.ID != "" && snap.Fandom.ID != pw.FandomID {
		return nil, domain.NewStructuralError("fandom_mismatch",
			"pathway is scoped to fandom %q but the snapshot holds %q", pw.FandomID, snap.Fandom.ID)
	}

	// 1. Normalize selections. Duplicates collapse to one with a note.
	var dupes []string
	pw.TagIDs, dupes = dedupe(pw.TagIDs, dupes)
	pw.BlockIDs, dupes = dedupe(pw.BlockIDs, dupes)
	if len(dupes) > 0 {
		sort.Strings(dupes)
		report.Violations = append(report.Violations, domain.Violation{
			Code:     domain.CodeDuplicateEntry,
			Severity: domain.SeverityMinor,
			Message:  fmt.Sprintf("pathway selects the same entity more than once: %s", strings.Join(dupes, ", ")),
			Subjects: dupes,
		})
	}

	// 2. Fold the pathway into the context: selected tags count as present,
	// selected blocks count as completed.
	ectx.Tags = merge(pw.TagIDs, ectx.Tags)
	ectx.Completed = merge(pw.BlockIDs, ectx.Completed)

	// 3. Survey the dependency graph.
	g := graph.Build(snap)
	report.Violations = append(report.Violations, g.Warnings()...)
	report.Violations = append(report.Violations, cycleViolations(g, pw.BlockIDs)...)

	// 4. Decode every condition tree the pathway touches.
	evaluator := conditions.New(snap, p.maxDepth)
	blocks := make([]domain.PlotBlock, 0, len(pw.BlockIDs))
	for _, id := range pw.BlockIDs {
		if b, ok := snap.BlockByID(id); ok {
			blocks = append(blocks, b)
		}
	}
	compiled, err := evaluator.CompileBlocks(blocks)
	if err != nil {
		return nil, err
	}
	return &prepared{evaluator: evaluator, compiled: compiled}, nil
}

// cycleViolations grades catalog cycles: critical when the pathway stands on
// one of the looping blocks, minor otherwise. The catalog defect exists
// either way; it only blocks the pathways it can actually trap.
func cycleViolations(g *graph.Graph, pathwayBlocks []string) []domain.Violation {
	cycles := g.Cycles()
	if len(cycles) == 0 {
		return nil
	}
	selected := make(map[string]bool, len(pathwayBlocks))
	for _, id := range pathwayBlocks {
		selected[id] = true
	}

	out := make([]domain.Violation, 0, len(cycles))
	for _, cycle := range cycles {
		severity := domain.SeverityMinor
		for _, id := range cycle {
			if selected[id] {
				severity = domain.SeverityCritical
				break
			}
		}
		out = append(out, domain.Violation{
			Code:     domain.CodeCircularDependency,
			Severity: severity,
			Message:  fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")),
			Subjects: cycle,
		})
	}
	return out
}

// dedupe removes repeated IDs preserving first-seen order, appending each
// repeated one to dupes once. The input slice is never mutated; callers hold
// it on loan from the API user.
func dedupe(ids []string, dupes []string) ([]string, []string) {
	seen := make(map[string]bool, len(ids))
	flagged := make(map[string]bool)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			if !flagged[id] {
				flagged[id] = true
				dupes = append(dupes, id)
			}
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, dupes
}

// merge unions two ID lists, first list order winning, without duplicates.
func merge(primary, extra []string) []string {
	seen := make(map[string]bool, len(primary)+len(extra))
	out := make([]string, 0, len(primary)+len(extra))
	for _, list := range [][]string{primary, extra} {
		for _, id := range list {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
