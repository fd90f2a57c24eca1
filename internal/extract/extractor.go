package extract

import (
	"sort"
	"strings"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"crossref/internal/core/errors"
	"crossref/internal/registry"
)

// Extractor turns one file into typed capture records by evaluating the
// language's three query templates against its parse tree. Stateless per
// file; safe for concurrent use across files.
type Extractor struct {
	poolsMu sync.Mutex
	pools   map[string]*ParserPool
}

func New() *Extractor {
	return &Extractor{pools: make(map[string]*ParserPool)}
}

func (e *Extractor) pool(spec *registry.LanguageSpec) *ParserPool {
	e.poolsMu.Lock()
	defer e.poolsMu.Unlock()
	p, ok := e.pools[spec.Name]
	if !ok {
		p = NewParserPool(spec.Language())
		e.pools[spec.Name] = p
	}
	return p
}

// Extract parses content and evaluates the spec's definition, call and
// import queries. A tree with ERROR nodes still yields whatever the
// grammar recovered, marked Degraded. A query kind whose template failed
// to compile is skipped here; the registry reports it per language.
func (e *Extractor) Extract(path string, content []byte, spec *registry.LanguageSpec) (*Result, error) {
	pool := e.pool(spec)
	parser := pool.Get()
	defer pool.Put(parser)

	tree := parser.Parse(content, nil)
	if tree == nil {
		err := errors.New(errors.CodeInternal, "parser produced no tree")
		return nil, errors.AddContext(err, errors.CtxPath, path)
	}
	defer tree.Close()

	root := tree.RootNode()
	res := &Result{
		File:     path,
		Language: spec.Name,
		Degraded: root.HasError(),
	}

	if q, err := spec.Query(registry.QueryDefinition); err == nil {
		res.Definitions = e.collectDefinitions(q, root, content, path)
	}
	if q, err := spec.Query(registry.QueryCall); err == nil {
		res.CallSites = e.collectCalls(q, root, content, path, res.Definitions)
	}
	if q, err := spec.Query(registry.QueryImport); err == nil {
		res.Imports = e.collectImports(q, root, content, path)
	}

	return res, nil
}

func (e *Extractor) collectDefinitions(q *sitter.Query, root *sitter.Node, content []byte, path string) []Definition {
	var defs []Definition

	eachMatch(q, root, content, func(caps map[string]*sitter.Node) {
		defNode := caps["definition"]
		nameNode := caps["name"]
		if defNode == nil || nameNode == nil {
			return
		}
		span := spanFor(defNode, path)
		defs = append(defs, Definition{
			ID:   DefinitionID(span),
			Name: nameNode.Utf8Text(content),
			Kind: normalizeKind(defNode.Kind()),
			Doc:  adjacentDoc(defNode, content),
			Span: span,
		})
	})

	// Parents before children so scope paths can be built with a stack.
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Span.StartByte != defs[j].Span.StartByte {
			return defs[i].Span.StartByte < defs[j].Span.StartByte
		}
		return defs[i].Span.EndByte > defs[j].Span.EndByte
	})

	var stack []int
	for i := range defs {
		for len(stack) > 0 && !defs[stack[len(stack)-1]].Span.Encloses(defs[i].Span) {
			stack = stack[:len(stack)-1]
		}
		scope := make([]string, 0, len(stack))
		for _, idx := range stack {
			scope = append(scope, defs[idx].Name)
		}
		defs[i].Scope = scope
		if len(stack) > 0 && defs[i].Kind == KindFunction {
			parent := defs[stack[len(stack)-1]]
			if parent.Kind == KindClass || parent.Kind == KindInterface {
				defs[i].Kind = KindMethod
			}
		}
		stack = append(stack, i)
	}

	return defs
}

func (e *Extractor) collectCalls(q *sitter.Query, root *sitter.Node, content []byte, path string, defs []Definition) []CallSite {
	var calls []CallSite

	eachMatch(q, root, content, func(caps map[string]*sitter.Node) {
		callNode := caps["call"]
		calleeNode := caps["callee"]
		if callNode == nil || calleeNode == nil {
			return
		}
		span := spanFor(callNode, path)
		site := CallSite{
			Callee:   calleeNode.Utf8Text(content),
			CallerID: enclosingDefinition(defs, span),
			Span:     span,
		}
		if qualNode := caps["qualifier"]; qualNode != nil {
			site.Qualifier = qualNode.Utf8Text(content)
		}
		calls = append(calls, site)
	})

	sort.Slice(calls, func(i, j int) bool {
		return calls[i].Span.StartByte < calls[j].Span.StartByte
	})
	return calls
}

func (e *Extractor) collectImports(q *sitter.Query, root *sitter.Node, content []byte, path string) []ImportEdge {
	var imports []ImportEdge

	eachMatch(q, root, content, func(caps map[string]*sitter.Node) {
		pathNode := caps["path"]
		if pathNode == nil {
			return
		}
		var span SourceSpan
		if impNode := caps["import"]; impNode != nil {
			span = spanFor(impNode, path)
		} else {
			span = spanFor(pathNode, path)
		}
		edge := ImportEdge{
			File: path,
			Path: strings.Trim(pathNode.Utf8Text(content), "\"'`"),
			Span: span,
		}
		if aliasNode := caps["alias"]; aliasNode != nil {
			edge.Alias = aliasNode.Utf8Text(content)
		}
		imports = append(imports, edge)
	})

	sort.Slice(imports, func(i, j int) bool {
		return imports[i].Span.StartByte < imports[j].Span.StartByte
	})
	return imports
}

// eachMatch runs a compiled query and hands each match to fn as a
// capture-name -> node map.
func eachMatch(q *sitter.Query, root *sitter.Node, content []byte, fn func(caps map[string]*sitter.Node)) {
	cursor := sitter.NewQueryCursor()
	defer cursor.Close()

	names := q.CaptureNames()
	matches := cursor.Matches(q, root, content)
	for match := matches.Next(); match != nil; match = matches.Next() {
		caps := make(map[string]*sitter.Node, len(match.Captures))
		for i := range match.Captures {
			capture := &match.Captures[i]
			caps[names[capture.Index]] = &capture.Node
		}
		fn(caps)
	}
}

// enclosingDefinition returns the id of the innermost definition whose
// span contains the call, or ModuleScope. defs must be sorted with
// parents before children.
func enclosingDefinition(defs []Definition, span SourceSpan) string {
	caller := ModuleScope
	for i := range defs {
		d := &defs[i]
		if d.Span.StartByte > span.StartByte {
			break
		}
		if d.Span.StartByte <= span.StartByte && d.Span.EndByte >= span.EndByte {
			caller = d.ID
		}
	}
	return caller
}

// adjacentDoc collects the comment block directly above a definition.
// Attachment is strict: the nearest preceding sibling must be a comment
// ending on the line right above the definition, and further comments
// join only while they stay line-adjacent in turn.
func adjacentDoc(defNode *sitter.Node, content []byte) string {
	var lines []string
	wantRow := defNode.StartPosition().Row

	for prev := defNode.PrevNamedSibling(); prev != nil; prev = prev.PrevNamedSibling() {
		if !strings.Contains(prev.Kind(), "comment") {
			break
		}
		if wantRow == 0 || prev.EndPosition().Row != wantRow-1 {
			break
		}
		lines = append([]string{prev.Utf8Text(content)}, lines...)
		wantRow = prev.StartPosition().Row
	}

	return strings.Join(lines, "\n")
}

func normalizeKind(nodeKind string) DefinitionKind {
	switch {
	case strings.Contains(nodeKind, "constructor"), strings.Contains(nodeKind, "method"):
		return KindMethod
	case strings.Contains(nodeKind, "interface"):
		return KindInterface
	case strings.Contains(nodeKind, "class"):
		return KindClass
	default:
		return KindFunction
	}
}

func spanFor(node *sitter.Node, file string) SourceSpan {
	start := node.StartPosition()
	end := node.EndPosition()
	return SourceSpan{
		File:      file,
		StartLine: int(start.Row) + 1,
		StartCol:  int(start.Column) + 1,
		EndLine:   int(end.Row) + 1,
		EndCol:    int(end.Column) + 1,
		StartByte: node.StartByte(),
		EndByte:   node.EndByte(),
	}
}
