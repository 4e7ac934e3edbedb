package runtime

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/canonry/canonry/internal/conditions"
	"github.com/canonry/canonry/internal/graph"
	"github.com/canonry/canonry/pkg/domain"
)

// AuditCatalog validates a whole catalog rather than one pathway: entity IDs
// must be unique, references must resolve, the dependency graph must be
// sound, and every condition tree must compile. Unlike a pathway run it
// never short-circuits; an audit lists every defect it can find.
func (p *Pipeline) AuditCatalog(ctx context.Context, snap *domain.Snapshot) (*domain.ValidationReport, error) {
	if snap == nil {
		return nil, domain.NewStructuralError("missing_snapshot", "no snapshot to audit")
	}

	report := &domain.ValidationReport{}
	started := time.Now()

	// 1. Entity IDs must be unique across kinds.
	report.Violations = append(report.Violations, duplicateIDs(snap)...)

	// 2. Cross-entity references and fandom scoping.
	report.Violations = append(report.Violations, referenceViolations(snap)...)

	// 3. Dependency graph survey. At catalog level every cycle blocks: a
	// catalog that can trap any pathway should not ship.
	g := graph.Build(snap)
	report.Violations = append(report.Violations, g.Warnings()...)
	for _, cycle := range g.Cycles() {
		report.Violations = append(report.Violations, domain.Violation{
			Code:     domain.CodeCircularDependency,
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("dependency cycle: %s", strings.Join(cycle, " -> ")),
			Subjects: cycle,
		})
	}

	if ctx.Err() != nil {
		report.Incomplete = true
		report.Valid = report.BlockingCount() == 0
		return report, nil
	}

	// 4. Every condition tree must compile, not just the ones some pathway
	// happens to select today.
	evaluator := conditions.New(snap, p.maxDepth)
	for _, block := range snap.PlotBlocks {
		if _, err := evaluator.Compile(block.Conditions); err != nil {
			report.Violations = append(report.Violations, compileViolation(block.ID, err))
		}
	}

	report.Suggestions = Suggest(report)
	report.Valid = report.BlockingCount() == 0
	p.observe(report, StageStructural, started)

	p.log.Debug("catalog audited",
		"fandom", snap.Fandom.ID,
		"valid", report.Valid,
		"violations", len(report.Violations),
	)
	return report, nil
}

func duplicateIDs(snap *domain.Snapshot) []domain.Violation {
	seen := make(map[string]string)
	var out []domain.Violation

	note := func(id, kind string) {
		if id == "" {
			return
		}
		if prev, ok := seen[id]; ok {
			out = append(out, domain.Violation{
				Code:     domain.CodeDuplicateEntry,
				Severity: domain.SeverityMajor,
				Message:  fmt.Sprintf("ID %q is used by both a %s and a %s", id, prev, kind),
				Subjects: []string{id},
			})
			return
		}
		seen[id] = kind
	}

	for _, t := range snap.Tags {
		note(t.ID, "tag")
	}
	for _, c := range snap.TagClasses {
		note(c.ID, "tag class")
	}
	for _, b := range snap.PlotBlocks {
		note(b.ID, "plot block")
	}
	for _, d := range snap.Dependencies {
		note(d.ID, "dependency")
	}
	return out
}

func referenceViolations(snap *domain.Snapshot) []domain.Violation {
	var out []domain.Violation

	scope := func(kind, id, fandomID string) {
		if snap.Fandom.ID == "" || fandomID == "" || fandomID == snap.Fandom.ID {
			return
		}
		out = append(out, domain.Violation{
			Code:     domain.CodeSameFandomRequired,
			Severity: domain.SeverityMajor,
			Message:  fmt.Sprintf("%s %q belongs to fandom %q, catalog is %q", kind, id, fandomID, snap.Fandom.ID),
			Subjects: []string{id},
		})
	}

	for _, t := range snap.Tags {
		scope("tag", t.ID, t.FandomID)
		if t.ClassID != "" {
			if _, ok := snap.ClassByID(t.ClassID); !ok {
				out = append(out, domain.Violation{
					Code:     domain.CodeUnknownReference,
					Severity: domain.SeverityMajor,
					Message:  fmt.Sprintf("tag %q references unknown class %q", t.ID, t.ClassID),
					Subjects: []string{t.ID, t.ClassID},
				})
			}
		}
	}
	for _, c := range snap.TagClasses {
		scope("tag class", c.ID, c.FandomID)
		for _, tagID := range c.Rules.MutualExclusion {
			if _, ok := snap.TagByID(tagID); !ok {
				out = append(out, domain.Violation{
					Code:     domain.CodeUnknownReference,
					Severity: domain.SeverityMinor,
					Message:  fmt.Sprintf("class %q excludes unknown tag %q", c.ID, tagID),
					Subjects: []string{c.ID, tagID},
				})
			}
		}
	}
	for _, b := range snap.PlotBlocks {
		scope("plot block", b.ID, b.FandomID)
	}
	return out
}

func compileViolation(blockID string, err error) domain.Violation {
	v := domain.Violation{
		Code:     domain.CodeStructuralError,
		Severity: domain.SeverityCritical,
		Message:  err.Error(),
		Subjects: []string{blockID},
	}
	var structural *domain.StructuralError
	if errors.As(err, &structural) {
		v.Details = map[string]string{"kind": structural.Kind}
	}
	return v
}
