// Package rules applies the tag class constraint catalog to a pathway:
// mutual exclusion sets, required context keys, and instance limits, plus
// referential checks for IDs the pathway names but the catalog lacks.
//
// Constraints are judged against the pathway's own selections. The wider
// evaluation context only supplies metadata keys for required-context rules;
// extra context tags never trip class constraints.
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/canonry/canonry/pkg/domain"
)

// Evaluate runs every class constraint touched by the pathway and returns
// the violations found, in deterministic order. It never returns an error;
// malformed input is caught upstream, before any rule runs.
func Evaluate(snap *domain.Snapshot, pw domain.Pathway, ectx domain.EvaluationContext) []domain.Violation {
	var out []domain.Violation

	// 1. Referential integrity: every pathway ID must resolve.
	resolved := make([]domain.Tag, 0, len(pw.TagIDs))
	for _, id := range pw.TagIDs {
		tag, ok := snap.TagByID(id)
		if !ok {
			out = append(out, unknownRef("tag", id))
			continue
		}
		resolved = append(resolved, tag)
	}
	for _, id := range pw.BlockIDs {
		if _, ok := snap.BlockByID(id); !ok {
			out = append(out, unknownRef("plot block", id))
		}
	}

	// 2. Group the resolved tags by class.
	byClass := map[string][]string{}
	for _, tag := range resolved {
		if tag.ClassID == "" {
			continue
		}
		byClass[tag.ClassID] = append(byClass[tag.ClassID], tag.ID)
	}
	classIDs := make([]string, 0, len(byClass))
	for id := range byClass {
		classIDs = append(classIDs, id)
	}
	sort.Strings(classIDs)

	pathwayTags := map[string]bool{}
	for _, tag := range resolved {
		pathwayTags[tag.ID] = true
	}

	// 3. Apply each touched class's rules. Exclusion findings are deduped by
	// subject set: two classes sharing an exclusion list must not double-report.
	exclusionSeen := map[string]bool{}
	for _, classID := range classIDs {
		class, ok := snap.ClassByID(classID)
		if !ok {
			v := unknownRef("tag class", classID)
			v.Message = fmt.Sprintf("pathway tags reference class %q, which is not in the catalog", classID)
			out = append(out, v)
			continue
		}

		members := byClass[classID]
		sort.Strings(members)

		if v, ok := checkMutualExclusion(class, pathwayTags, exclusionSeen); ok {
			out = append(out, v)
		}
		if v, ok := checkRequiredContext(class, ectx); ok {
			out = append(out, v)
		}
		out = append(out, checkInstanceLimits(class, members)...)
	}
	return out
}

func unknownRef(kind, id string) domain.Violation {
	return domain.Violation{
		Code:     domain.CodeUnknownReference,
		Severity: domain.SeverityMajor,
		Message:  fmt.Sprintf("pathway references %s %q, which is not in the catalog", kind, id),
		Subjects: []string{id},
	}
}

// checkMutualExclusion fires when two or more of the class's mutually
// exclusive tags appear in the pathway. One violation lists all offenders.
func checkMutualExclusion(class domain.TagClass, pathwayTags map[string]bool, seen map[string]bool) (domain.Violation, bool) {
	var hits []string
	for _, id := range class.Rules.MutualExclusion {
		if pathwayTags[id] {
			hits = append(hits, id)
		}
	}
	if len(hits) < 2 {
		return domain.Violation{}, false
	}
	sort.Strings(hits)

	sig := strings.Join(hits, "\x1f")
	if seen[sig] {
		return domain.Violation{}, false
	}
	seen[sig] = true

	return domain.Violation{
		Code:     domain.CodeMutualExclusion,
		Severity: domain.SeverityCritical,
		Message:  fmt.Sprintf("tags %s are mutually exclusive under class %q", strings.Join(hits, ", "), class.Name),
		Subjects: hits,
	}, true
}

// checkRequiredContext fires when the class demands metadata keys the
// evaluation context does not carry.
func checkRequiredContext(class domain.TagClass, ectx domain.EvaluationContext) (domain.Violation, bool) {
	var missing []string
	for _, key := range class.Rules.RequiredContext {
		if _, ok := ectx.Metadata[key]; !ok {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return domain.Violation{}, false
	}
	sort.Strings(missing)

	return domain.Violation{
		Code:     domain.CodeRequiredContext,
		Severity: domain.SeverityCritical,
		Message: fmt.Sprintf("class %q requires context keys the pathway does not provide: %s",
			class.Name, strings.Join(missing, ", ")),
		Subjects: []string{class.ID},
		Details:  map[string]string{"missing_keys": strings.Join(missing, ",")},
	}, true
}

// checkInstanceLimits applies MaxInstances (zero means unbounded) and
// MinInstances (only once the class is touched at all).
func checkInstanceLimits(class domain.TagClass, members []string) []domain.Violation {
	var out []domain.Violation
	n := len(members)

	if max := class.Rules.MaxInstances; max > 0 && n > max {
		out = append(out, domain.Violation{
			Code:     domain.CodeMaxInstances,
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("class %q allows at most %d tags, pathway carries %d", class.Name, max, n),
			Subjects: members,
			Details: map[string]string{
				"current_count": strconv.Itoa(n),
				"max_allowed":   strconv.Itoa(max),
			},
		})
	}
	if min := class.Rules.MinInstances; min > 0 && n > 0 && n < min {
		out = append(out, domain.Violation{
			Code:     domain.CodeMinInstances,
			Severity: domain.SeverityCritical,
			Message:  fmt.Sprintf("class %q requires at least %d tags once touched, pathway carries %d", class.Name, min, n),
			Subjects: members,
			Details: map[string]string{
				"current_count": strconv.Itoa(n),
				"min_required":  strconv.Itoa(min),
			},
		})
	}
	return out
}
