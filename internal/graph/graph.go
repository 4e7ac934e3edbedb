// Package graph builds the plot block dependency graph for one fandom and
// answers the structural questions the engine asks of it: cycle enumeration,
// topological ordering, transitive dependency closures, and what-if checks
// for proposed edges.
//
// Two edge sources are unified into a single set: the block tree (a child
// depends on its parent) and the explicit dependency records (source depends
// on target, active records only). All traversal is in sorted ID order so
// every answer is deterministic for a given snapshot.
package graph

import (
	"fmt"
	"sort"

	"github.com/canonry/canonry/pkg/domain"
)

// Graph is an immutable dependency view over one fandom's plot blocks.
// Edges point from a block to the blocks it depends on.
type Graph struct {
	nodes    map[string]domain.PlotBlock
	adj      map[string][]string
	edges    int
	warnings []domain.Violation
}

// Build constructs the graph from a snapshot. References that cannot be
// resolved (a parent or dependency endpoint missing from the catalog, or an
// inactive record) never become edges; unresolvable ones are reported as
// warnings instead so catalog drift stays visible without failing the run.
func Build(snap *domain.Snapshot) *Graph {
	g := &Graph{
		nodes: make(map[string]domain.PlotBlock, len(snap.PlotBlocks)),
		adj:   make(map[string][]string, len(snap.PlotBlocks)),
	}

	// 1. Index blocks, flagging duplicate IDs (first one wins).
	for _, b := range snap.PlotBlocks {
		if _, seen := g.nodes[b.ID]; seen {
			g.warn(domain.CodeDuplicateEntry, domain.SeverityMinor,
				fmt.Sprintf("plot block %q appears more than once in the catalog", b.ID), b.ID)
			continue
		}
		g.nodes[b.ID] = b
		g.adj[b.ID] = nil
	}

	// 2. Tree edges: a child depends on its parent.
	for _, b := range snap.PlotBlocks {
		if b.ParentID == "" {
			continue
		}
		if _, ok := g.nodes[b.ParentID]; !ok {
			g.warn(domain.CodeDanglingParent, domain.SeverityMinor,
				fmt.Sprintf("plot block %q names parent %q, which is not in the catalog", b.ID, b.ParentID),
				b.ID, b.ParentID)
			continue
		}
		g.addEdge(b.ID, b.ParentID)
	}

	// 3. Explicit dependency edges, active records only.
	for _, d := range snap.Dependencies {
		if !d.Active {
			continue
		}
		_, srcOK := g.nodes[d.SourceBlockID]
		_, dstOK := g.nodes[d.TargetBlockID]
		if !srcOK || !dstOK {
			g.warn(domain.CodeMissingDependency, domain.SeverityMinor,
				fmt.Sprintf("dependency %q references a block missing from the catalog", d.ID),
				d.SourceBlockID, d.TargetBlockID)
			continue
		}
		g.addEdge(d.SourceBlockID, d.TargetBlockID)
	}

	// 4. Deterministic adjacency order.
	for id := range g.adj {
		sort.Strings(g.adj[id])
	}
	return g
}

// addEdge inserts from -> to unless the edge already exists.
func (g *Graph) addEdge(from, to string) {
	for _, existing := range g.adj[from] {
		if existing == to {
			return
		}
	}
	g.adj[from] = append(g.adj[from], to)
	g.edges++
}

func (g *Graph) warn(code string, sev domain.Severity, msg string, subjects ...string) {
	sort.Strings(subjects)
	g.warnings = append(g.warnings, domain.Violation{
		Code:     code,
		Severity: sev,
		Message:  msg,
		Subjects: subjects,
	})
}

// Nodes returns all block IDs in sorted order.
func (g *Graph) Nodes() []string {
	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NodeCount returns how many blocks the graph holds.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns how many distinct edges the graph holds.
func (g *Graph) EdgeCount() int { return g.edges }

// Contains reports whether the block ID is a node of the graph.
func (g *Graph) Contains(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Dependencies returns the direct dependencies of a block, sorted.
func (g *Graph) Dependencies(id string) []string {
	deps := g.adj[id]
	out := make([]string, len(deps))
	copy(out, deps)
	return out
}

// AllDependencies returns the transitive dependency closure of a block,
// sorted. The block itself is not included unless it sits on a cycle.
func (g *Graph) AllDependencies(id string) []string {
	seen := map[string]bool{}
	queue := append([]string(nil), g.adj[id]...)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if seen[cur] {
			continue
		}
		seen[cur] = true
		queue = append(queue, g.adj[cur]...)
	}
	out := make([]string, 0, len(seen))
	for dep := range seen {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out
}

// Warnings returns the defects found while building, in discovery order.
func (g *Graph) Warnings() []domain.Violation {
	out := make([]domain.Violation, len(g.warnings))
	copy(out, g.warnings)
	return out
}
