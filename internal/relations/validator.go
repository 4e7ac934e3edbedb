// Package relations validates the rules that span entity types: fandom
// scoping, tag class against plot block category compatibility, and the
// pre-checks run before a catalog mutation (new dependency edge, block
// reparenting) is accepted.
package relations

import (
	"fmt"
	"sort"
	"strings"

	"github.com/canonry/canonry/internal/graph"
	"github.com/canonry/canonry/pkg/domain"
)

// Check runs every cross-entity rule over the pathway and returns the
// violations found, in deterministic order.
func Check(snap *domain.Snapshot, pw domain.Pathway) []domain.Violation {
	var out []domain.Violation
	out = append(out, checkFandomScope(snap, pw)...)
	out = append(out, checkCategoryCompatibility(snap, pw)...)
	return out
}

// checkFandomScope flags catalog entities the pathway pulled in from another
// fandom. Unknown IDs are silently skipped here; the constraint evaluator
// already reports those.
func checkFandomScope(snap *domain.Snapshot, pw domain.Pathway) []domain.Violation {
	var strays []string
	for _, id := range pw.TagIDs {
		if tag, ok := snap.TagByID(id); ok && tag.FandomID != "" && tag.FandomID != pw.FandomID {
			strays = append(strays, id)
		}
	}
	for _, id := range pw.BlockIDs {
		if b, ok := snap.BlockByID(id); ok && b.FandomID != "" && b.FandomID != pw.FandomID {
			strays = append(strays, id)
		}
	}
	if len(strays) == 0 {
		return nil
	}
	sort.Strings(strays)
	return []domain.Violation{{
		Code:     domain.CodeSameFandomRequired,
		Severity: domain.SeverityCritical,
		Message: fmt.Sprintf("pathway is scoped to fandom %q but selects entities from another fandom: %s",
			pw.FandomID, strings.Join(strays, ", ")),
		Subjects: strays,
	}}
}

// checkCategoryCompatibility applies the category lists carried by each tag
// class the pathway touches. Exclusion wins: a category on both lists is
// still forbidden.
func checkCategoryCompatibility(snap *domain.Snapshot, pw domain.Pathway) []domain.Violation {
	touched := touchedClasses(snap, pw)
	if len(touched) == 0 {
		return nil
	}

	blocks := make([]domain.PlotBlock, 0, len(pw.BlockIDs))
	for _, id := range pw.BlockIDs {
		if b, ok := snap.BlockByID(id); ok && b.Category != "" {
			blocks = append(blocks, b)
		}
	}

	var out []domain.Violation
	for _, class := range touched {
		for _, b := range blocks {
			if !categoryAllowed(class.Rules, b.Category) {
				subjects := []string{class.ID, b.ID}
				sort.Strings(subjects)
				out = append(out, domain.Violation{
					Code:     domain.CodeCategoryCompatibility,
					Severity: domain.SeverityCritical,
					Message: fmt.Sprintf("class %q is not compatible with plot block %q (category %q)",
						class.Name, b.Name, b.Category),
					Subjects: subjects,
					Details:  map[string]string{"category": b.Category},
				})
			}
		}
	}
	return out
}

func categoryAllowed(rules domain.ClassRules, category string) bool {
	for _, c := range rules.ExcludedCategories {
		if c == category {
			return false
		}
	}
	if len(rules.ApplicableCategories) == 0 {
		return true
	}
	for _, c := range rules.ApplicableCategories {
		if c == category {
			return true
		}
	}
	return false
}

// touchedClasses returns the classes of the pathway's resolved tags, sorted
// by class ID, each listed once.
func touchedClasses(snap *domain.Snapshot, pw domain.Pathway) []domain.TagClass {
	seen := map[string]bool{}
	var ids []string
	for _, id := range pw.TagIDs {
		tag, ok := snap.TagByID(id)
		if !ok || tag.ClassID == "" || seen[tag.ClassID] {
			continue
		}
		seen[tag.ClassID] = true
		ids = append(ids, tag.ClassID)
	}
	sort.Strings(ids)

	out := make([]domain.TagClass, 0, len(ids))
	for _, id := range ids {
		if class, ok := snap.ClassByID(id); ok {
			out = append(out, class)
		}
	}
	return out
}

// PrecheckConditionEdge rejects a proposed dependency edge that would close
// a cycle. On rejection the returned violation carries the closing path.
func PrecheckConditionEdge(g *graph.Graph, e domain.Edge) (domain.Violation, bool) {
	if !g.WouldCreateCycle(e) {
		return domain.Violation{}, false
	}
	subjects := []string{e.From, e.To}
	if e.From == e.To {
		subjects = []string{e.From}
	}
	sort.Strings(subjects)
	return domain.Violation{
		Code:     domain.CodeCircularDependency,
		Severity: domain.SeverityCritical,
		Message:  fmt.Sprintf("adding a dependency from %q to %q would create a cycle", e.From, e.To),
		Subjects: subjects,
	}, true
}

// PrecheckHierarchyMove rejects reparenting a block under itself or under
// one of its own descendants. The ancestor walk is bounded by a visited set,
// so a catalog that already contains a parent loop cannot hang it.
func PrecheckHierarchyMove(snap *domain.Snapshot, blockID, newParentID string) (domain.Violation, bool) {
	if newParentID == "" {
		return domain.Violation{}, false
	}
	if blockID == newParentID {
		return domain.Violation{
			Code:     domain.CodeCircularDependency,
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("block %q cannot be its own parent", blockID),
			Subjects: []string{blockID},
		}, true
	}

	visited := map[string]bool{}
	cur := newParentID
	for cur != "" && !visited[cur] {
		visited[cur] = true
		if cur == blockID {
			subjects := []string{blockID, newParentID}
			sort.Strings(subjects)
			return domain.Violation{
				Code:     domain.CodeCircularDependency,
				Severity: domain.SeverityCritical,
				Message: fmt.Sprintf("moving block %q under %q would create a loop in the block tree",
					blockID, newParentID),
				Subjects: subjects,
			}, true
		}
		b, ok := snap.BlockByID(cur)
		if !ok {
			break
		}
		cur = b.ParentID
	}
	return domain.Violation{}, false
}
