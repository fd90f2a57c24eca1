package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crossref/internal/registry"
)

func mustSpec(t *testing.T, name string) *registry.LanguageSpec {
	t.Helper()
	reg, err := registry.Build("")
	require.NoError(t, err)
	spec, ok := reg.Get(name)
	require.True(t, ok)
	return spec
}

func defByName(defs []Definition, name string) *Definition {
	for i := range defs {
		if defs[i].Name == name {
			return &defs[i]
		}
	}
	return nil
}

func TestExtractGoDefinitions(t *testing.T) {
	src := `package demo

// Add sums two ints.
func Add(a, b int) int { return a + b }

// Stale comment.

func Sub(a, b int) int { return a - b }

func (s *Server) Start() error { return nil }
`
	e := New()
	res, err := e.Extract("demo.go", []byte(src), mustSpec(t, "go"))
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	require.Len(t, res.Definitions, 3)

	add := defByName(res.Definitions, "Add")
	require.NotNil(t, add)
	assert.Equal(t, KindFunction, add.Kind)
	assert.Equal(t, "// Add sums two ints.", add.Doc)
	assert.Equal(t, 4, add.Span.StartLine)
	assert.Empty(t, add.Scope)

	sub := defByName(res.Definitions, "Sub")
	require.NotNil(t, sub)
	assert.Empty(t, sub.Doc, "a blank line breaks doc adjacency")

	start := defByName(res.Definitions, "Start")
	require.NotNil(t, start)
	assert.Equal(t, KindMethod, start.Kind)
}

func TestExtractPythonScopePaths(t *testing.T) {
	src := `class Repo:
    def save(self):
        def retry():
            pass
        retry()

def top():
    pass
`
	e := New()
	res, err := e.Extract("repo.py", []byte(src), mustSpec(t, "python"))
	require.NoError(t, err)
	require.Len(t, res.Definitions, 4)

	repo := defByName(res.Definitions, "Repo")
	require.NotNil(t, repo)
	assert.Equal(t, KindClass, repo.Kind)

	save := defByName(res.Definitions, "save")
	require.NotNil(t, save)
	assert.Equal(t, KindMethod, save.Kind, "function directly under a class is a method")
	assert.Equal(t, []string{"Repo"}, save.Scope)

	retry := defByName(res.Definitions, "retry")
	require.NotNil(t, retry)
	assert.Equal(t, KindFunction, retry.Kind)
	assert.Equal(t, []string{"Repo", "save"}, retry.Scope)
	assert.Equal(t, "Repo.save.retry", retry.QualifiedName())

	top := defByName(res.Definitions, "top")
	require.NotNil(t, top)
	assert.Empty(t, top.Scope)
}

func TestExtractCallSites(t *testing.T) {
	src := `package demo

import "lib/util"

func work() {
	helper()
	util.Clean()
}

var setup = helper
`
	e := New()
	res, err := e.Extract("demo.go", []byte(src), mustSpec(t, "go"))
	require.NoError(t, err)
	require.Len(t, res.CallSites, 2)

	work := defByName(res.Definitions, "work")
	require.NotNil(t, work)

	plain := res.CallSites[0]
	assert.Equal(t, "helper", plain.Callee)
	assert.Empty(t, plain.Qualifier)
	assert.Equal(t, work.ID, plain.CallerID)

	qualified := res.CallSites[1]
	assert.Equal(t, "Clean", qualified.Callee)
	assert.Equal(t, "util", qualified.Qualifier)
	assert.Equal(t, work.ID, qualified.CallerID)
}

func TestExtractModuleScopeCall(t *testing.T) {
	src := `init_app()

def init_app():
    pass
`
	e := New()
	res, err := e.Extract("app.py", []byte(src), mustSpec(t, "python"))
	require.NoError(t, err)
	require.Len(t, res.CallSites, 1)
	assert.Equal(t, ModuleScope, res.CallSites[0].CallerID)
}

func TestExtractImports(t *testing.T) {
	src := `import numpy as np
import os.path
from collections import OrderedDict

np.zeros(3)
`
	e := New()
	res, err := e.Extract("calc.py", []byte(src), mustSpec(t, "python"))
	require.NoError(t, err)
	require.Len(t, res.Imports, 3)

	assert.Equal(t, "numpy", res.Imports[0].Path)
	assert.Equal(t, "np", res.Imports[0].Alias)
	assert.Equal(t, "os.path", res.Imports[1].Path)
	assert.Equal(t, "collections", res.Imports[2].Path)
	assert.Empty(t, res.Imports[2].Alias)
}

func TestExtractGoImportPathUnquoted(t *testing.T) {
	src := `package demo

import (
	"fmt"
	u "lib/util"
)
`
	e := New()
	res, err := e.Extract("demo.go", []byte(src), mustSpec(t, "go"))
	require.NoError(t, err)
	require.Len(t, res.Imports, 2)
	assert.Equal(t, "fmt", res.Imports[0].Path)
	assert.Empty(t, res.Imports[0].Alias)
	assert.Equal(t, "lib/util", res.Imports[1].Path)
	assert.Equal(t, "u", res.Imports[1].Alias)
}

func TestExtractDegradedKeepsRecoverable(t *testing.T) {
	src := `package demo

func ok() {}

func broken( {{{
`
	e := New()
	res, err := e.Extract("demo.go", []byte(src), mustSpec(t, "go"))
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	require.NotNil(t, defByName(res.Definitions, "ok"), "clean definitions survive a partial tree")
}

func TestExtractDeterministicOrder(t *testing.T) {
	src := `package demo

func b() { a() }

func a() { b() }
`
	e := New()
	first, err := e.Extract("demo.go", []byte(src), mustSpec(t, "go"))
	require.NoError(t, err)
	second, err := e.Extract("demo.go", []byte(src), mustSpec(t, "go"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
