package callgraph

import (
	"fmt"

	"crossref/internal/core/errors"
	"crossref/internal/extract"
)

// Direction selects which way edges are followed during traversal.
type Direction string

const (
	Callers Direction = "callers"
	Callees Direction = "callees"
)

// Locator identifies a definition for lookup: (File, Line), (File,
// Name), or a bare Name. Name may be a dotted qualified path.
type Locator struct {
	File string
	Line int
	Name string
}

// LookupResult is one of three outcomes: exactly one Definition, an
// ambiguous candidate set, or not found. An empty lookup is a normal
// result, never an error.
type LookupResult struct {
	Definition *extract.Definition
	Candidates []*extract.Definition
}

func (r LookupResult) Ambiguous() bool { return len(r.Candidates) > 1 }
func (r LookupResult) NotFound() bool  { return r.Definition == nil && len(r.Candidates) == 0 }

// Lookup resolves a locator against the graph's definitions. Multiple
// equally ranked matches return the full candidate set rather than an
// arbitrary pick. Files outside the run's file set simply yield
// NotFound; the graph is authoritative only for what it was built from.
func (g *Graph) Lookup(loc Locator) LookupResult {
	switch {
	case loc.File != "" && loc.Line > 0:
		covering := g.defs.AtLine(loc.File, loc.Line)
		if len(covering) == 0 {
			return LookupResult{}
		}
		// Innermost definition covering the line.
		return LookupResult{Definition: covering[len(covering)-1]}

	case loc.File != "" && loc.Name != "":
		return fromSet(g.defs.NameInFile(loc.File, loc.Name))

	case loc.Name != "":
		if matches := g.defs.ByQualified(loc.Name); len(matches) > 0 {
			return fromSet(matches)
		}
		return fromSet(g.defs.ByName(loc.Name))
	}
	return LookupResult{}
}

func fromSet(defs []*extract.Definition) LookupResult {
	switch len(defs) {
	case 0:
		return LookupResult{}
	case 1:
		return LookupResult{Definition: defs[0]}
	default:
		return LookupResult{Candidates: defs}
	}
}

// TraversalEntry is one node reached during a bounded traversal.
// Definition is nil for the two pseudo-node shapes: an unresolved
// callee (RawName carries the name as written) and a module-scope
// caller. Edge is the edge that reached the entry, nil for the seed.
type TraversalEntry struct {
	Definition *extract.Definition
	RawName    string
	Depth      int
	Edge       *Edge
}

// Traverse walks the graph breadth-first from seed, following edges
// backward for Callers or forward for Callees, to at most maxDepth
// hops. Depth 0 returns only the seed. A node is marked visited before
// its neighbors are expanded, so no node appears twice and cycles
// terminate. Unresolved edges surface as leaf entries carrying the raw
// callee name.
func (g *Graph) Traverse(seedID string, direction Direction, maxDepth int) ([]TraversalEntry, error) {
	seed, ok := g.defs.ByID(seedID)
	if !ok {
		err := errors.New(errors.CodeNotFound, fmt.Sprintf("no definition %q in this run", seedID))
		return nil, errors.AddContext(err, errors.CtxSymbol, seedID)
	}
	if direction != Callers && direction != Callees {
		return nil, errors.New(errors.CodeValidationError, fmt.Sprintf("unknown direction %q", direction))
	}
	if maxDepth < 0 {
		maxDepth = 0
	}

	entries := []TraversalEntry{{Definition: seed, RawName: seed.Name, Depth: 0}}
	visited := map[string]bool{seedID: true}
	frontier := []string{seedID}

	for depth := 1; depth <= maxDepth && len(frontier) > 0; depth++ {
		var next []string
		for _, id := range frontier {
			switch direction {
			case Callees:
				for _, ei := range g.outEdges(id) {
					edge := &g.edges[ei]
					if !edge.Resolved {
						entries = append(entries, TraversalEntry{
							RawName: edge.RawName,
							Depth:   depth,
							Edge:    edge,
						})
						continue
					}
					if visited[edge.Callee] {
						continue
					}
					visited[edge.Callee] = true
					callee, _ := g.defs.ByID(edge.Callee)
					entries = append(entries, TraversalEntry{
						Definition: callee,
						RawName:    callee.Name,
						Depth:      depth,
						Edge:       edge,
					})
					next = append(next, edge.Callee)
				}

			case Callers:
				for _, ei := range g.inEdges(id) {
					edge := &g.edges[ei]
					if edge.Caller == extract.ModuleScope {
						// A module-scope call site is a leaf; there is
						// nothing above it to expand.
						entries = append(entries, TraversalEntry{
							RawName: moduleScopeLabel(edge.Span.File),
							Depth:   depth,
							Edge:    edge,
						})
						continue
					}
					if visited[edge.Caller] {
						continue
					}
					visited[edge.Caller] = true
					caller, _ := g.defs.ByID(edge.Caller)
					entries = append(entries, TraversalEntry{
						Definition: caller,
						RawName:    caller.Name,
						Depth:      depth,
						Edge:       edge,
					})
					next = append(next, edge.Caller)
				}
			}
		}
		frontier = next
	}

	return entries, nil
}

func moduleScopeLabel(file string) string {
	return fmt.Sprintf("<module %s>", file)
}
