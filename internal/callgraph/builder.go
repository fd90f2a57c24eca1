package callgraph

import (
	"sort"
	"strings"

	"crossref/internal/extract"
	"crossref/internal/index"
)

// Build resolves every call site against the finished index and emits
// the graph. Resolution precedence, applied per call site:
//
//  1. a definition in the caller's file whose scope path equals or
//     lexically encloses the caller's scope (innermost wins);
//  2. with a qualifier, the qualifier is mapped through the file's
//     imports (alias or final path segment) and the name looked up
//     inside that module — only a unique match resolves;
//  3. a name unique across the whole run;
//  4. otherwise the edge stays unresolved, carrying the ambiguous
//     candidate set when there was more than one.
//
// No call site is ever dropped.
func Build(idx *index.Index, results []*extract.Result) *Graph {
	ordered := append([]*extract.Result(nil), results...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].File < ordered[j].File })

	g := &Graph{
		defs: idx,
		out:  make(map[string][]int),
		in:   make(map[string][]int),
	}

	for _, res := range ordered {
		for _, site := range res.CallSites {
			edge := resolveSite(idx, res, site)
			g.edges = append(g.edges, edge)
		}
	}

	for i := range g.edges {
		e := &g.edges[i]
		g.out[e.Caller] = append(g.out[e.Caller], i)
		if e.Resolved {
			g.in[e.Callee] = append(g.in[e.Callee], i)
		}
	}

	return g
}

func resolveSite(idx *index.Index, res *extract.Result, site extract.CallSite) Edge {
	edge := Edge{
		Caller:    site.CallerID,
		RawName:   site.Callee,
		Qualifier: site.Qualifier,
		Span:      site.Span,
	}

	// 1. Lexical: visible definitions in the caller's own scope chain.
	if target, ambiguous := resolveLexical(idx, res.File, site); target != nil {
		edge.Callee = target.ID
		edge.Resolved = true
		return edge
	} else if len(ambiguous) > 0 {
		edge.Candidates = ids(ambiguous)
		return edge
	}

	// 2. Qualifier through the file's imports.
	if site.Qualifier != "" {
		matches := resolveQualified(idx, res.Imports, site)
		if len(matches) == 1 {
			edge.Callee = matches[0].ID
			edge.Resolved = true
			return edge
		}
		if len(matches) > 1 {
			edge.Candidates = ids(matches)
			return edge
		}
	}

	// 3. Unique global name.
	global := idx.ByName(site.Callee)
	if len(global) == 1 {
		edge.Callee = global[0].ID
		edge.Resolved = true
		return edge
	}

	// 4. Unresolved, with the full candidate set when ambiguous.
	if len(global) > 1 {
		edge.Candidates = ids(global)
	}
	return edge
}

// resolveLexical returns the single innermost same-file definition whose
// scope encloses the caller's scope, or the tied candidate set when two
// share the same depth.
func resolveLexical(idx *index.Index, file string, site extract.CallSite) (*extract.Definition, []*extract.Definition) {
	callerScope := callerScopeChain(idx, site.CallerID)

	var best []*extract.Definition
	bestDepth := -1
	for _, d := range idx.NameInFile(file, site.Callee) {
		if !scopeEncloses(d.Scope, callerScope) {
			continue
		}
		depth := len(d.Scope)
		switch {
		case depth > bestDepth:
			best = []*extract.Definition{d}
			bestDepth = depth
		case depth == bestDepth:
			best = append(best, d)
		}
	}

	if len(best) == 1 {
		return best[0], nil
	}
	return nil, best
}

// callerScopeChain is the scope inside the calling definition: its own
// scope path plus its name. Module scope is the empty chain.
func callerScopeChain(idx *index.Index, callerID string) []string {
	if callerID == extract.ModuleScope {
		return nil
	}
	caller, ok := idx.ByID(callerID)
	if !ok {
		return nil
	}
	return append(append([]string(nil), caller.Scope...), caller.Name)
}

// scopeEncloses reports whether defScope is a prefix of callerScope
// (equal scopes included), i.e. the definition is lexically visible
// from the caller.
func scopeEncloses(defScope, callerScope []string) bool {
	if len(defScope) > len(callerScope) {
		return false
	}
	for i, name := range defScope {
		if callerScope[i] != name {
			return false
		}
	}
	return true
}

// resolveQualified maps the qualifier to imported modules and collects
// matching definitions inside them, deduplicated by id.
func resolveQualified(idx *index.Index, imports []extract.ImportEdge, site extract.CallSite) []*extract.Definition {
	seen := make(map[string]bool)
	var out []*extract.Definition
	for _, imp := range imports {
		if !importMatchesQualifier(imp, site.Qualifier) {
			continue
		}
		for _, d := range idx.InModule(imp.Path, site.Callee) {
			if seen[d.ID] {
				continue
			}
			seen[d.ID] = true
			out = append(out, d)
		}
	}
	return out
}

func importMatchesQualifier(imp extract.ImportEdge, qualifier string) bool {
	if imp.Alias != "" {
		return imp.Alias == qualifier
	}
	path := imp.Path
	if i := strings.LastIndexAny(path, "/.:"); i >= 0 {
		path = path[i+1:]
	}
	return path == qualifier
}

func ids(defs []*extract.Definition) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.ID)
	}
	sort.Strings(out)
	return out
}
