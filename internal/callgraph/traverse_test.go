package callgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossref/internal/extract"
	"crossref/internal/index"
)

// chainGraph builds f -> g -> h plus one unresolved call out of g and a
// module-scope call into f.
func chainGraph(t *testing.T) (*Graph, extract.Definition, extract.Definition, extract.Definition) {
	t.Helper()
	f := def("a.go", 1, "f")
	gdef := def("a.go", 10, "g")
	h := def("b.go", 1, "h")

	resA := &extract.Result{
		File:        "a.go",
		Definitions: []extract.Definition{f, gdef},
		CallSites: []extract.CallSite{
			call("a.go", 2, f.ID, "g", ""),
			call("a.go", 11, gdef.ID, "h", ""),
			call("a.go", 12, gdef.ID, "vanished", ""),
			call("a.go", 20, extract.ModuleScope, "f", ""),
		},
	}
	resB := &extract.Result{File: "b.go", Definitions: []extract.Definition{h}}

	all := []*extract.Result{resA, resB}
	return Build(index.Build(all), all), f, gdef, h
}

func TestTraverseDepthZeroSeedOnly(t *testing.T) {
	g, f, _, _ := chainGraph(t)

	entries, err := g.Traverse(f.ID, Callees, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, f.ID, entries[0].Definition.ID)
	assert.Equal(t, 0, entries[0].Depth)
	assert.Nil(t, entries[0].Edge)
}

func TestTraverseCalleesBoundedDepth(t *testing.T) {
	g, f, gd, h := chainGraph(t)

	one, err := g.Traverse(f.ID, Callees, 1)
	require.NoError(t, err)
	require.Len(t, one, 2)
	assert.Equal(t, gd.ID, one[1].Definition.ID)

	two, err := g.Traverse(f.ID, Callees, 2)
	require.NoError(t, err)
	require.Len(t, two, 4, "depth 2 reaches h and the unresolved leaf")
	assert.Equal(t, h.ID, two[2].Definition.ID)
	assert.Equal(t, 2, two[2].Depth)

	leaf := two[3]
	assert.Nil(t, leaf.Definition)
	assert.Equal(t, "vanished", leaf.RawName)
	assert.NotNil(t, leaf.Edge)
	assert.False(t, leaf.Edge.Resolved)
}

func TestTraverseCallersModuleScopeLeaf(t *testing.T) {
	g, f, _, _ := chainGraph(t)

	entries, err := g.Traverse(f.ID, Callers, 3)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	module := entries[1]
	assert.Nil(t, module.Definition, "module-scope call sites are leaves")
	assert.Equal(t, 1, module.Depth)
	assert.Contains(t, module.RawName, "a.go")
}

func TestTraverseCallersChain(t *testing.T) {
	g, f, gd, h := chainGraph(t)

	entries, err := g.Traverse(h.ID, Callers, 5)
	require.NoError(t, err)
	require.Len(t, entries, 4, "h <- g <- f <- module leaf")
	assert.Equal(t, gd.ID, entries[1].Definition.ID)
	assert.Equal(t, f.ID, entries[2].Definition.ID)
	assert.Equal(t, 2, entries[2].Depth)
	assert.Nil(t, entries[3].Definition)
}

func TestTraverseCycleVisitsOnce(t *testing.T) {
	a := def("loop.go", 1, "a")
	b := def("loop.go", 10, "b")
	res := &extract.Result{
		File:        "loop.go",
		Definitions: []extract.Definition{a, b},
		CallSites: []extract.CallSite{
			call("loop.go", 2, a.ID, "b", ""),
			call("loop.go", 11, b.ID, "a", ""),
		},
	}
	g := Build(index.Build([]*extract.Result{res}), []*extract.Result{res})

	entries, err := g.Traverse(a.ID, Callees, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "a cycle must not revisit the seed")
}

func TestTraverseUnknownSeed(t *testing.T) {
	g, _, _, _ := chainGraph(t)
	_, err := g.Traverse("nope.go:1:1", Callees, 1)
	require.Error(t, err)
}

func TestTraverseNegativeDepthMeansSeedOnly(t *testing.T) {
	g, f, _, _ := chainGraph(t)
	entries, err := g.Traverse(f.ID, Callees, -3)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestLookupByFileAndLine(t *testing.T) {
	g, _, gd, _ := chainGraph(t)

	res := g.Lookup(Locator{File: "a.go", Line: 11})
	require.False(t, res.NotFound())
	require.NotNil(t, res.Definition)
	assert.Equal(t, gd.ID, res.Definition.ID)
}

func TestLookupInnermostAtLine(t *testing.T) {
	outerSpan := extract.SourceSpan{File: "n.py", StartLine: 1, StartCol: 1, EndLine: 10, EndCol: 1, StartByte: 0, EndByte: 500}
	innerSpan := extract.SourceSpan{File: "n.py", StartLine: 3, StartCol: 5, EndLine: 6, EndCol: 5, StartByte: 100, EndByte: 300}
	outer := extract.Definition{ID: extract.DefinitionID(outerSpan), Name: "outer", Kind: extract.KindFunction, Span: outerSpan}
	inner := extract.Definition{ID: extract.DefinitionID(innerSpan), Name: "inner", Kind: extract.KindFunction, Scope: []string{"outer"}, Span: innerSpan}

	res := &extract.Result{File: "n.py", Definitions: []extract.Definition{outer, inner}}
	g := Build(index.Build([]*extract.Result{res}), []*extract.Result{res})

	got := g.Lookup(Locator{File: "n.py", Line: 4})
	require.NotNil(t, got.Definition)
	assert.Equal(t, inner.ID, got.Definition.ID)
}

func TestLookupAmbiguousName(t *testing.T) {
	one := def("x.go", 1, "helper")
	two := def("y.go", 1, "helper")
	resX := &extract.Result{File: "x.go", Definitions: []extract.Definition{one}}
	resY := &extract.Result{File: "y.go", Definitions: []extract.Definition{two}}
	all := []*extract.Result{resX, resY}
	g := Build(index.Build(all), all)

	res := g.Lookup(Locator{Name: "helper"})
	assert.True(t, res.Ambiguous())
	assert.Len(t, res.Candidates, 2)
	assert.Nil(t, res.Definition)
}

func TestLookupQualifiedNarrows(t *testing.T) {
	repoSpan := extract.SourceSpan{File: "r.py", StartLine: 1, StartCol: 1, EndLine: 20, EndCol: 1, StartByte: 0, EndByte: 900}
	repo := extract.Definition{ID: extract.DefinitionID(repoSpan), Name: "Repo", Kind: extract.KindClass, Span: repoSpan}
	saveSpan := extract.SourceSpan{File: "r.py", StartLine: 2, StartCol: 5, EndLine: 5, EndCol: 5, StartByte: 50, EndByte: 200}
	save := extract.Definition{ID: extract.DefinitionID(saveSpan), Name: "save", Kind: extract.KindMethod, Scope: []string{"Repo"}, Span: saveSpan}
	freeSave := def("other.py", 1, "save")

	resR := &extract.Result{File: "r.py", Definitions: []extract.Definition{repo, save}}
	resO := &extract.Result{File: "other.py", Definitions: []extract.Definition{freeSave}}
	all := []*extract.Result{resR, resO}
	g := Build(index.Build(all), all)

	res := g.Lookup(Locator{Name: "Repo.save"})
	require.NotNil(t, res.Definition)
	assert.Equal(t, save.ID, res.Definition.ID)
}

func TestLookupNotFoundIsNotAnError(t *testing.T) {
	g, _, _, _ := chainGraph(t)
	assert.True(t, g.Lookup(Locator{Name: "ghost"}).NotFound())
	assert.True(t, g.Lookup(Locator{File: "ghost.go", Line: 1}).NotFound())
}
