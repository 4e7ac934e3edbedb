package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/canonry/canonry/pkg/domain"
)

// GenerateMermaid produces Mermaid flowchart syntax from a dependency audit.
// Every block becomes a rectangle; an edge A --> B reads "A depends on B".
// Blocks that sit on a circular path are highlighted in red.
func GenerateMermaid(audit *domain.GraphAudit) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, id := range collectNodes(audit) {
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", sanitizeMermaidID(id), id))
	}

	froms := make([]string, 0, len(audit.DirectDependencies))
	for from := range audit.DirectDependencies {
		froms = append(froms, from)
	}
	sort.Strings(froms)

	for _, from := range froms {
		for _, to := range audit.DirectDependencies[from] {
			sb.WriteString(fmt.Sprintf("    %s --> %s\n", sanitizeMermaidID(from), sanitizeMermaidID(to)))
		}
	}

	if audit.HasCircularDependencies {
		sb.WriteString("\n    %% Cycle Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds
		sb.WriteString("    classDef cycle fill:#fee2e2,stroke:#b91c1c,stroke-width:2px,color:#000;\n")

		styled := make(map[string]bool)
		for _, path := range audit.CircularPaths {
			for _, id := range path {
				safeID := sanitizeMermaidID(id)
				if !styled[safeID] && safeID != "" {
					styled[safeID] = true
					sb.WriteString(fmt.Sprintf("    class %s cycle;\n", safeID))
				}
			}
		}
	}

	return sb.String()
}

// collectNodes unions every block the audit mentions, sorted. Order carries
// the full node set only on acyclic graphs, so the maps and cycle paths are
// folded in as well.
func collectNodes(audit *domain.GraphAudit) []string {
	seen := make(map[string]bool)
	for _, id := range audit.Order {
		seen[id] = true
	}
	for from, deps := range audit.DirectDependencies {
		seen[from] = true
		for _, to := range deps {
			seen[to] = true
		}
	}
	for _, path := range audit.CircularPaths {
		for _, id := range path {
			seen[id] = true
		}
	}

	nodes := make([]string, 0, len(seen))
	for id := range seen {
		nodes = append(nodes, id)
	}
	sort.Strings(nodes)
	return nodes
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
