package graph

import (
	"fmt"
	"sort"

	"github.com/canonry/canonry/pkg/domain"
)

// Audit checks a fandom's dependency graph, optionally as it would look with
// one proposed edge added. The proposed edge is injected before cycle
// detection so the caller sees exactly the cycles the edge would create;
// endpoints missing from the catalog are flagged but still injected, since a
// brand-new node can only close a cycle onto itself.
func Audit(snap *domain.Snapshot, proposed *domain.Edge) domain.GraphAudit {
	g := Build(snap)
	warnings := g.Warnings()

	if proposed != nil {
		for _, id := range []string{proposed.From, proposed.To} {
			if !g.Contains(id) {
				warnings = append(warnings, domain.Violation{
					Code:     domain.CodeUnknownReference,
					Severity: domain.SeverityMajor,
					Message:  fmt.Sprintf("proposed edge references block %q, which is not in the catalog", id),
					Subjects: []string{id},
				})
			}
		}
		g = g.withEdge(*proposed)
	}

	audit := domain.GraphAudit{
		Warnings:           warnings,
		NodeCount:          g.NodeCount(),
		EdgeCount:          g.EdgeCount(),
		DirectDependencies: map[string][]string{},
		AllDependencies:    map[string][]string{},
	}
	for _, id := range g.Nodes() {
		if deps := g.Dependencies(id); len(deps) > 0 {
			audit.DirectDependencies[id] = deps
		}
		if all := g.AllDependencies(id); len(all) > 0 {
			audit.AllDependencies[id] = all
		}
	}

	audit.CircularPaths = g.Cycles()
	audit.HasCircularDependencies = len(audit.CircularPaths) > 0
	if !audit.HasCircularDependencies {
		audit.Order, _ = g.TopologicalOrder()
	}
	return audit
}

// withEdge returns a copy of the graph with one extra edge. Unknown endpoints
// become placeholder nodes so the what-if graph stays self-contained.
func (g *Graph) withEdge(e domain.Edge) *Graph {
	out := &Graph{
		nodes:    make(map[string]domain.PlotBlock, len(g.nodes)+2),
		adj:      make(map[string][]string, len(g.adj)+2),
		edges:    g.edges,
		warnings: g.warnings,
	}
	for id, b := range g.nodes {
		out.nodes[id] = b
	}
	for id, deps := range g.adj {
		out.adj[id] = append([]string(nil), deps...)
	}
	for _, id := range []string{e.From, e.To} {
		if _, ok := out.nodes[id]; !ok {
			out.nodes[id] = domain.PlotBlock{ID: id}
			out.adj[id] = nil
		}
	}
	out.addEdge(e.From, e.To)
	sort.Strings(out.adj[e.From])
	return out
}
