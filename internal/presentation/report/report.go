// Package report turns engine reports into markdown for terminal display.
// The CLI pipes the output through glamour; when rendering fails the raw
// markdown is still readable as plain text.
package report

import (
	"fmt"
	"strings"

	presgraph "github.com/canonry/canonry/internal/presentation/graph"
	"github.com/canonry/canonry/pkg/domain"
)

// Markdown renders a validation report.
func Markdown(r *domain.ValidationReport) string {
	var sb strings.Builder

	sb.WriteString("# Validation Report\n\n")
	switch {
	case r.Incomplete:
		sb.WriteString("**Result:** INCOMPLETE (run was cut short; findings are partial)\n")
	case r.Valid:
		sb.WriteString("**Result:** VALID\n")
	default:
		sb.WriteString("**Result:** INVALID\n")
	}
	sb.WriteString(fmt.Sprintf("\n**Complexity:** %d (%s)\n", r.Complexity.Score, r.Complexity.Band))

	if len(r.Violations) > 0 {
		sb.WriteString(fmt.Sprintf("\n## Violations (%d)\n\n", len(r.Violations)))
		for _, v := range r.Violations {
			sb.WriteString(fmt.Sprintf("- `%s` **%s** %s", v.Code, v.Severity, v.Message))
			if len(v.Subjects) > 0 {
				sb.WriteString(fmt.Sprintf(" _(%s)_", strings.Join(v.Subjects, ", ")))
			}
			sb.WriteString("\n")
		}
	}

	if len(r.Conflicts) > 0 {
		sb.WriteString(fmt.Sprintf("\n## Conflicts (%d)\n\n", len(r.Conflicts)))
		for _, c := range r.Conflicts {
			sb.WriteString(fmt.Sprintf("- `%s` **%s** %s", c.Source, c.Level, c.Message))
			if len(c.Subjects) > 0 {
				sb.WriteString(fmt.Sprintf(" _(%s)_", strings.Join(c.Subjects, ", ")))
			}
			sb.WriteString("\n")
		}
	}

	if len(r.Suggestions) > 0 {
		sb.WriteString("\n## Suggestions\n\n")
		for _, s := range r.Suggestions {
			sb.WriteString(fmt.Sprintf("- %s\n", s))
		}
	}

	if len(r.Timings) > 0 {
		sb.WriteString("\n## Timings\n\n")
		for _, tm := range r.Timings {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", tm.Stage, tm.Duration))
		}
	}

	return sb.String()
}

// ConditionsMarkdown renders a block's condition evaluation as a checklist.
func ConditionsMarkdown(cr *domain.ConditionReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Conditions: %s\n\n", cr.BlockID))
	sb.WriteString(cr.Summary)
	sb.WriteString("\n")

	if len(cr.Conditions) > 0 {
		sb.WriteString("\n")
		for _, c := range cr.Conditions {
			mark := " "
			if c.Satisfied {
				mark = "x"
			}
			sb.WriteString(fmt.Sprintf("- [%s] `%s` %s", mark, c.Path, c.Kind))
			if c.Message != "" {
				sb.WriteString(fmt.Sprintf(": %s", c.Message))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// GraphMarkdown renders a dependency audit with an embedded Mermaid diagram.
func GraphMarkdown(audit *domain.GraphAudit) string {
	var sb strings.Builder

	sb.WriteString("# Dependency Audit\n\n")
	sb.WriteString(fmt.Sprintf("**Nodes:** %d, **Edges:** %d\n\n", audit.NodeCount, audit.EdgeCount))

	if audit.HasCircularDependencies {
		sb.WriteString(fmt.Sprintf("**Cycles:** %d\n\n", len(audit.CircularPaths)))
		for _, path := range audit.CircularPaths {
			sb.WriteString(fmt.Sprintf("- %s\n", strings.Join(path, " -> ")))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("**Cycles:** none\n\n")
		if len(audit.Order) > 0 {
			sb.WriteString(fmt.Sprintf("**Order:** %s\n\n", strings.Join(audit.Order, " -> ")))
		}
	}

	if len(audit.Warnings) > 0 {
		sb.WriteString(fmt.Sprintf("## Warnings (%d)\n\n", len(audit.Warnings)))
		for _, w := range audit.Warnings {
			sb.WriteString(fmt.Sprintf("- `%s` %s\n", w.Code, w.Message))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("```mermaid\n")
	sb.WriteString(presgraph.GenerateMermaid(audit))
	sb.WriteString("```\n")

	return sb.String()
}
