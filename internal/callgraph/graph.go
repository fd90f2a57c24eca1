// Package callgraph builds and serves the directed call graph of a run:
// definitions as nodes, one edge per call site, resolved or not.
package callgraph

import (
	"crossref/internal/extract"
	"crossref/internal/index"
)

// Edge links a call site to its resolution outcome. Exactly one Edge
// exists per CallSite; multiple edges between the same pair stay
// distinct because call multiplicity matters.
type Edge struct {
	// Caller is the enclosing definition id, or extract.ModuleScope.
	Caller string
	// Callee is the resolved definition id; empty when unresolved.
	Callee string
	// RawName is the callee name as written at the call site.
	RawName string
	// Qualifier is the dotted prefix at the call site, if any.
	Qualifier string
	Resolved  bool
	// Candidates holds the ambiguous candidate ids when resolution found
	// more than one equally valid target.
	Candidates []string
	Span       extract.SourceSpan
}

// Graph is the immutable output of a build: the run's definitions plus
// every edge, stored flat and addressed by stable ids so cyclic call
// relations need no special handling.
type Graph struct {
	defs  *index.Index
	edges []Edge

	out map[string][]int // caller id -> edge indices
	in  map[string][]int // callee id -> edge indices
}

// Definitions exposes the symbol index the graph was built against.
func (g *Graph) Definitions() *index.Index { return g.defs }

// Edges returns all edges in build order (file path, then span).
func (g *Graph) Edges() []Edge { return g.edges }

// EdgeCount returns the total number of edges, resolved plus unresolved.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// UnresolvedCount returns how many edges carry only a raw name.
func (g *Graph) UnresolvedCount() int {
	n := 0
	for i := range g.edges {
		if !g.edges[i].Resolved {
			n++
		}
	}
	return n
}

func (g *Graph) outEdges(id string) []int { return g.out[id] }
func (g *Graph) inEdges(id string) []int  { return g.in[id] }
