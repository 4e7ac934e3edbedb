package runtime

import (
	"fmt"
	"strings"

	"github.com/canonry/canonry/pkg/domain"
)

// Suggest derives advisory next steps from a report's findings. Suggestions
// never affect validity; they exist so a UI has something actionable to show
// next to each red mark. Order follows the findings, duplicates collapse.
func Suggest(report *domain.ValidationReport) []string {
	var out []string
	seen := map[string]bool{}
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, v := range report.Violations {
		switch v.Code {
		case domain.CodeMutualExclusion:
			add(fmt.Sprintf("keep only one of: %s", strings.Join(v.Subjects, ", ")))
		case domain.CodeMaxInstances:
			add(fmt.Sprintf("reduce the selection to %s tags (currently %s)",
				v.Details["max_allowed"], v.Details["current_count"]))
		case domain.CodeMinInstances:
			add(fmt.Sprintf("add tags until the class has %s (currently %s)",
				v.Details["min_required"], v.Details["current_count"]))
		case domain.CodeRequiredContext:
			add(fmt.Sprintf("provide context values for: %s", v.Details["missing_keys"]))
		case domain.CodeUnknownReference:
			add(fmt.Sprintf("remove the stale reference %s or restore it in the catalog",
				strings.Join(v.Subjects, ", ")))
		case domain.CodeUnsatisfiedCondition:
			add(fmt.Sprintf("complete the prerequisites of %s or adjust the context before selecting it",
				strings.Join(v.Subjects, ", ")))
		case domain.CodeCircularDependency:
			if v.Severity == domain.SeverityCritical {
				add(fmt.Sprintf("break the dependency cycle involving %s", strings.Join(v.Subjects, ", ")))
			}
		case domain.CodeSameFandomRequired:
			add("remove the entities that belong to another fandom, or start a crossover pathway")
		case domain.CodeCategoryCompatibility:
			add(fmt.Sprintf("swap out %s; the selected tags do not fit its category",
				strings.Join(v.Subjects, ", ")))
		}
	}

	for _, c := range report.Conflicts {
		switch c.Source {
		case "shipping_exclusivity":
			add(fmt.Sprintf("resolve the rival ships %s, or mark one non-exclusive",
				strings.Join(c.Subjects, ", ")))
		case "rating_mismatch":
			add("raise the pathway rating or drop the mature-content blocks")
		}
	}

	if report.Complexity.Band == domain.ComplexityEpic {
		add("consider splitting this pathway; epic scope rarely survives a first draft")
	}
	return out
}
