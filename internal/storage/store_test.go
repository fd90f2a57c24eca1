package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossref/internal/callgraph"
	"crossref/internal/extract"
	"crossref/internal/index"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "crossref.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun() (*index.Index, *callgraph.Graph) {
	span := extract.SourceSpan{File: "a.go", StartLine: 1, StartCol: 1, EndLine: 3, EndCol: 1, StartByte: 0, EndByte: 50}
	work := extract.Definition{ID: extract.DefinitionID(span), Name: "work", Kind: extract.KindFunction, Span: span}
	span2 := extract.SourceSpan{File: "a.go", StartLine: 5, StartCol: 1, EndLine: 7, EndCol: 1, StartByte: 60, EndByte: 110}
	helper := extract.Definition{ID: extract.DefinitionID(span2), Name: "helper", Kind: extract.KindFunction, Span: span2}

	res := &extract.Result{
		File:        "a.go",
		Definitions: []extract.Definition{work, helper},
		CallSites: []extract.CallSite{
			{
				Callee:   "helper",
				CallerID: work.ID,
				Span:     extract.SourceSpan{File: "a.go", StartLine: 2, StartCol: 2, EndLine: 2, EndCol: 10, StartByte: 20, EndByte: 28},
			},
			{
				Callee:   "missing",
				CallerID: work.ID,
				Span:     extract.SourceSpan{File: "a.go", StartLine: 3, StartCol: 2, EndLine: 3, EndCol: 10, StartByte: 30, EndByte: 38},
			},
		},
	}
	idx := index.Build([]*extract.Result{res})
	return idx, callgraph.Build(idx, []*extract.Result{res})
}

func TestSaveAndLoadRun(t *testing.T) {
	store := openTestStore(t)
	idx, g := sampleRun()

	runID, err := store.SaveRun("/repo", 1, idx, g)
	require.NoError(t, err)
	require.NotEmpty(t, runID)

	summary, ok, err := store.LatestRun("/repo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, runID, summary.ID)
	assert.Equal(t, 2, summary.DefinitionCount)
	assert.Equal(t, 2, summary.EdgeCount)
	assert.Equal(t, 1, summary.UnresolvedCount)

	defs, err := store.LoadDefinitions(runID)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "work", defs[0].Name)
	assert.Equal(t, extract.KindFunction, defs[0].Kind)

	edges, err := store.LoadEdges(runID)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.True(t, edges[0].Resolved)
	assert.False(t, edges[1].Resolved)
	assert.Equal(t, "missing", edges[1].RawName)
}

func TestSaveRunKeepsOnlyLatestPerRoot(t *testing.T) {
	store := openTestStore(t)
	idx, g := sampleRun()

	first, err := store.SaveRun("/repo", 1, idx, g)
	require.NoError(t, err)
	second, err := store.SaveRun("/repo", 1, idx, g)
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	summary, ok, err := store.LatestRun("/repo")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, second, summary.ID)

	// Rows of the replaced run are gone with it.
	defs, err := store.LoadDefinitions(first)
	require.NoError(t, err)
	assert.Empty(t, defs)
}

func TestSaveRunIsolatedPerRoot(t *testing.T) {
	store := openTestStore(t)
	idx, g := sampleRun()

	_, err := store.SaveRun("/repo-a", 1, idx, g)
	require.NoError(t, err)
	_, err = store.SaveRun("/repo-b", 1, idx, g)
	require.NoError(t, err)

	_, ok, err := store.LatestRun("/repo-a")
	require.NoError(t, err)
	assert.True(t, ok, "saving one root must not evict another")
}

func TestLatestRunUnknownRoot(t *testing.T) {
	store := openTestStore(t)
	_, ok, err := store.LatestRun("/nowhere")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenRejectsDirectoryPath(t *testing.T) {
	_, err := Open(t.TempDir())
	require.Error(t, err)
}
