// Package depgraph derives the table dependency graph from synthesized
// foreign keys and computes a safe deletion/creation order. An edge A -> B
// means A's definition references B, so B must exist before A is created and
// A must be gone before B is dropped.
package depgraph

import (
	"fmt"

	"github.com/nmoreno/xsd2sql/internal/schema"
)

// Edge is one directed dependency between tables.
type Edge struct {
	From string
	To   string
}

func (e Edge) String() string {
	return e.From + " -> " + e.To
}

// UnresolvableCycleError reports a graph still cyclic after cycle breaking.
// This is an internal invariant violation: the run must abort rather than
// emit an ordering that is not valid.
type UnresolvableCycleError struct {
	Cycle []Edge
}

func (e *UnresolvableCycleError) Error() string {
	return fmt.Sprintf("dependency graph still contains a cycle after breaking: %v", e.Cycle)
}

// Graph is a directed graph over table names. Nodes and adjacency keep
// insertion order so orderings are deterministic for identical input.
type Graph struct {
	nodes []string
	index map[string]bool
	succ  map[string][]string
}

// Build creates the graph for tables: one node per table, one edge per
// foreign key from the owning table to the referenced one. Edges are
// deduplicated; a referenced table missing from the list still becomes a
// node so the ordering covers it.
func Build(tables []*schema.Table) *Graph {
	g := &Graph{index: make(map[string]bool), succ: make(map[string][]string)}
	for _, t := range tables {
		g.addNode(t.Name)
	}
	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			if fk.RefTable == "" {
				continue
			}
			g.addNode(fk.RefTable)
			g.addEdge(t.Name, fk.RefTable)
		}
	}
	return g
}

func (g *Graph) addNode(name string) {
	if g.index[name] {
		return
	}
	g.index[name] = true
	g.nodes = append(g.nodes, name)
}

func (g *Graph) addEdge(from, to string) {
	for _, have := range g.succ[from] {
		if have == to {
			return
		}
	}
	g.succ[from] = append(g.succ[from], to)
}

func (g *Graph) removeEdge(from, to string) {
	next := g.succ[from]
	for i, have := range next {
		if have == to {
			g.succ[from] = append(next[:i:i], next[i+1:]...)
			return
		}
	}
}

// Nodes returns all table names in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Successors returns the tables that name references.
func (g *Graph) Successors(name string) []string {
	out := make([]string, len(g.succ[name]))
	copy(out, g.succ[name])
	return out
}

// Predecessors returns the tables referencing name.
func (g *Graph) Predecessors(name string) []string {
	var out []string
	for _, n := range g.nodes {
		for _, to := range g.succ[n] {
			if to == name {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// HasEdge reports whether the edge from -> to is present.
func (g *Graph) HasEdge(from, to string) bool {
	for _, have := range g.succ[from] {
		if have == to {
			return true
		}
	}
	return false
}

// BreakCycles repeatedly finds a cycle and removes its first edge until the
// graph is acyclic, returning the removed edges. This is a pragmatic
// feedback-edge-set heuristic: it guarantees an order exists, it does not
// minimize the number of removed edges.
func (g *Graph) BreakCycles() []Edge {
	var removed []Edge
	for {
		cycle := g.findCycle()
		if cycle == nil {
			return removed
		}
		g.removeEdge(cycle[0].From, cycle[0].To)
		removed = append(removed, cycle[0])
	}
}

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// findCycle returns the edges of one cycle, or nil when the graph is
// acyclic. Nodes are explored in insertion order so the cycle found (and
// therefore the edge broken) is deterministic.
func (g *Graph) findCycle() []Edge {
	states := make(map[string]visitState, len(g.nodes))
	var path []string
	var cycle []Edge

	var visit func(n string) bool
	visit = func(n string) bool {
		states[n] = stateVisiting
		path = append(path, n)
		for _, next := range g.succ[n] {
			switch states[next] {
			case stateVisiting:
				// Back edge: the cycle is the path suffix from next plus
				// the closing edge.
				start := 0
				for i, p := range path {
					if p == next {
						start = i
						break
					}
				}
				for i := start; i < len(path)-1; i++ {
					cycle = append(cycle, Edge{From: path[i], To: path[i+1]})
				}
				cycle = append(cycle, Edge{From: n, To: next})
				return true
			case stateDone:
				continue
			default:
				if visit(next) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		states[n] = stateDone
		return false
	}

	for _, n := range g.nodes {
		if states[n] == 0 {
			if visit(n) {
				return cycle
			}
		}
	}
	return nil
}

// TopologicalOrder returns the nodes so that for every edge A -> B, A comes
// strictly before B: the safe drop order (creation is the exact reverse).
// Ties among independent tables follow node insertion order but are
// otherwise unspecified. Returns UnresolvableCycleError if a cycle survived
// breaking.
func (g *Graph) TopologicalOrder() ([]string, error) {
	if cycle := g.findCycle(); cycle != nil {
		return nil, &UnresolvableCycleError{Cycle: cycle}
	}

	states := make(map[string]visitState, len(g.nodes))
	var postorder []string

	var visit func(n string)
	visit = func(n string) {
		states[n] = stateVisiting
		for _, next := range g.succ[n] {
			if states[next] == 0 {
				visit(next)
			}
		}
		states[n] = stateDone
		postorder = append(postorder, n)
	}

	for _, n := range g.nodes {
		if states[n] == 0 {
			visit(n)
		}
	}

	// Reverse postorder puts every node before its successors.
	order := make([]string, len(postorder))
	for i, n := range postorder {
		order[len(postorder)-1-i] = n
	}
	return order, nil
}
