// Package index aggregates per-file extraction output into one
// queryable symbol table for a run.
package index

import (
	"sort"
	"strings"

	"crossref/internal/extract"
)

// Index holds every Definition of a run in deterministic order. Built
// once, read-only afterwards. Duplicate names are all retained; callers
// disambiguate through file, scope and kind.
type Index struct {
	defs        []extract.Definition
	byID        map[string]int
	byName      map[string][]int
	byQualified map[string][]int
	byFile      map[string][]int
}

// Build merges extraction results. Ordering is independent of the order
// results arrive in: file path, then span start, then name.
func Build(results []*extract.Result) *Index {
	idx := &Index{
		byID:        make(map[string]int),
		byName:      make(map[string][]int),
		byQualified: make(map[string][]int),
		byFile:      make(map[string][]int),
	}

	for _, res := range results {
		idx.defs = append(idx.defs, res.Definitions...)
	}

	sort.Slice(idx.defs, func(i, j int) bool {
		a, b := &idx.defs[i], &idx.defs[j]
		if a.Span.File != b.Span.File {
			return a.Span.File < b.Span.File
		}
		if a.Span.StartByte != b.Span.StartByte {
			return a.Span.StartByte < b.Span.StartByte
		}
		return a.Name < b.Name
	})

	for i := range idx.defs {
		d := &idx.defs[i]
		idx.byID[d.ID] = i
		idx.byName[d.Name] = append(idx.byName[d.Name], i)
		idx.byQualified[d.QualifiedName()] = append(idx.byQualified[d.QualifiedName()], i)
		idx.byFile[d.Span.File] = append(idx.byFile[d.Span.File], i)
	}

	return idx
}

// Len returns the number of definitions.
func (x *Index) Len() int { return len(x.defs) }

// All returns the definitions in index order. Callers must not mutate.
func (x *Index) All() []extract.Definition { return x.defs }

// ByID resolves a stable definition id.
func (x *Index) ByID(id string) (*extract.Definition, bool) {
	i, ok := x.byID[id]
	if !ok {
		return nil, false
	}
	return &x.defs[i], true
}

// ByName returns every definition with an exact name, in index order.
func (x *Index) ByName(name string) []*extract.Definition {
	return x.collect(x.byName[name])
}

// ByQualified returns definitions matching a dotted scope path
// ("Class.method" or deeper).
func (x *Index) ByQualified(path string) []*extract.Definition {
	return x.collect(x.byQualified[path])
}

// InFile returns a file's definitions in span order.
func (x *Index) InFile(file string) []*extract.Definition {
	return x.collect(x.byFile[file])
}

// AtLine returns the definitions whose span covers a line of a file; the
// innermost (latest-starting) come last.
func (x *Index) AtLine(file string, line int) []*extract.Definition {
	var out []*extract.Definition
	for _, i := range x.byFile[file] {
		d := &x.defs[i]
		if d.Span.StartLine <= line && line <= d.Span.EndLine {
			out = append(out, d)
		}
	}
	return out
}

// NameInFile returns definitions with a name confined to one file.
func (x *Index) NameInFile(file, name string) []*extract.Definition {
	var out []*extract.Definition
	for _, i := range x.byFile[file] {
		if x.defs[i].Name == name {
			out = append(out, &x.defs[i])
		}
	}
	return out
}

// Files returns the distinct file paths carrying definitions, sorted.
func (x *Index) Files() []string {
	out := make([]string, 0, len(x.byFile))
	for file := range x.byFile {
		out = append(out, file)
	}
	sort.Strings(out)
	return out
}

// InModule returns definitions with a name whose file path contains the
// module's path segments, used for import-qualified resolution.
func (x *Index) InModule(modulePath, name string) []*extract.Definition {
	segments := moduleSegments(modulePath)
	var out []*extract.Definition
	for _, i := range x.byName[name] {
		d := &x.defs[i]
		if fileMatchesModule(d.Span.File, segments) {
			out = append(out, d)
		}
	}
	return out
}

func (x *Index) collect(indices []int) []*extract.Definition {
	if len(indices) == 0 {
		return nil
	}
	out := make([]*extract.Definition, 0, len(indices))
	for _, i := range indices {
		out = append(out, &x.defs[i])
	}
	return out
}

func moduleSegments(modulePath string) []string {
	raw := strings.FieldsFunc(modulePath, func(r rune) bool {
		return r == '/' || r == '.' || r == ':'
	})
	out := make([]string, 0, len(raw))
	for _, seg := range raw {
		if seg != "" && seg != ".." {
			out = append(out, seg)
		}
	}
	return out
}

// fileMatchesModule reports whether a file path contains the module's
// final segment as a path element or file stem (lib/util.py matches
// both "util" and "lib/util").
func fileMatchesModule(file string, segments []string) bool {
	if len(segments) == 0 {
		return false
	}
	last := segments[len(segments)-1]
	normalized := strings.ReplaceAll(file, "\\", "/")
	for _, part := range strings.Split(normalized, "/") {
		stem := part
		if dot := strings.LastIndex(part, "."); dot > 0 {
			stem = part[:dot]
		}
		if stem == last {
			return true
		}
	}
	return false
}
