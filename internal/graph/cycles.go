package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/canonry/canonry/pkg/domain"
)

// DFS colors. White nodes are unvisited, gray nodes sit on the current path,
// black nodes are fully explored.
type color uint8

const (
	white color = iota
	gray
	black
)

// frame is one level of the iterative DFS: a node and a cursor into its
// adjacency list.
type frame struct {
	id   string
	next int
}

// Cycles enumerates the dependency cycles reachable in the graph. Each cycle
// is returned as its node sequence, rotated so the smallest ID comes first,
// and the list is sorted. A self-dependency yields a single-element cycle.
//
// Enumeration is by back edge: every gray hit during the traversal yields
// the cycle closed by that edge. Nodes already explored are never revisited,
// so the result is stable for a given snapshot.
func (g *Graph) Cycles() [][]string {
	colors := make(map[string]color, len(g.nodes))
	var cycles [][]string
	seen := map[string]bool{}

	for _, root := range g.Nodes() {
		if colors[root] != white {
			continue
		}

		stack := []frame{{id: root}}
		path := []string{root}
		colors[root] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.adj[top.id]

			if top.next >= len(deps) {
				colors[top.id] = black
				stack = stack[:len(stack)-1]
				path = path[:len(path)-1]
				continue
			}

			neighbor := deps[top.next]
			top.next++

			switch colors[neighbor] {
			case white:
				colors[neighbor] = gray
				stack = append(stack, frame{id: neighbor})
				path = append(path, neighbor)
			case gray:
				// Back edge: the cycle is the path suffix starting at neighbor.
				for i, id := range path {
					if id == neighbor {
						cycle := canonicalCycle(path[i:])
						sig := strings.Join(cycle, "\x1f")
						if !seen[sig] {
							seen[sig] = true
							cycles = append(cycles, cycle)
						}
						break
					}
				}
			case black:
				// Already explored, nothing new behind it.
			}
		}
	}

	sortCycles(cycles)
	return cycles
}

// canonicalCycle rotates a cycle so its smallest ID comes first, giving every
// rotation of the same cycle one canonical spelling.
func canonicalCycle(path []string) []string {
	min := 0
	for i, id := range path {
		if id < path[min] {
			min = i
		}
	}
	out := make([]string, 0, len(path))
	out = append(out, path[min:]...)
	out = append(out, path[:min]...)
	return out
}

func sortCycles(cycles [][]string) {
	sort.Slice(cycles, func(i, j int) bool {
		return strings.Join(cycles[i], "\x1f") < strings.Join(cycles[j], "\x1f")
	})
}

// TopologicalOrder returns a dependency-first ordering of all blocks: every
// block appears after everything it depends on. It returns
// domain.ErrCycleDetected when the graph is cyclic.
func (g *Graph) TopologicalOrder() ([]string, error) {
	if cycles := g.Cycles(); len(cycles) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrCycleDetected, strings.Join(cycles[0], " -> "))
	}

	visited := make(map[string]bool, len(g.nodes))
	order := make([]string, 0, len(g.nodes))

	for _, root := range g.Nodes() {
		if visited[root] {
			continue
		}
		visited[root] = true
		stack := []frame{{id: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.adj[top.id]

			if top.next >= len(deps) {
				// Post-order: all dependencies are already placed.
				order = append(order, top.id)
				stack = stack[:len(stack)-1]
				continue
			}

			neighbor := deps[top.next]
			top.next++
			if !visited[neighbor] {
				visited[neighbor] = true
				stack = append(stack, frame{id: neighbor})
			}
		}
	}
	return order, nil
}

// WouldCreateCycle reports whether adding the edge (From depends on To) would
// introduce a cycle. It never mutates the graph.
func (g *Graph) WouldCreateCycle(e domain.Edge) bool {
	if e.From == e.To {
		return true
	}
	// A cycle appears exactly when To can already reach From.
	if !g.Contains(e.From) || !g.Contains(e.To) {
		return false
	}
	seen := map[string]bool{e.To: true}
	queue := []string{e.To}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == e.From {
			return true
		}
		for _, next := range g.adj[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}
