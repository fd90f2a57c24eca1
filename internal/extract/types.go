package extract

import "fmt"

// SourceSpan locates a region of one file. Lines and columns are 1-based.
type SourceSpan struct {
	File      string
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
	StartByte uint
	EndByte   uint
}

// Encloses reports whether s strictly contains other (equal spans do not
// enclose each other).
func (s SourceSpan) Encloses(other SourceSpan) bool {
	if s.StartByte == other.StartByte && s.EndByte == other.EndByte {
		return false
	}
	return s.StartByte <= other.StartByte && s.EndByte >= other.EndByte
}

type DefinitionKind string

const (
	KindFunction  DefinitionKind = "function"
	KindMethod    DefinitionKind = "method"
	KindClass     DefinitionKind = "class"
	KindInterface DefinitionKind = "interface"
)

// Definition is a named program construct. ID is stable across runs:
// file plus the span start.
type Definition struct {
	ID    string
	Name  string
	Kind  DefinitionKind
	Scope []string // enclosing definition names, outer first
	Doc   string
	Span  SourceSpan
}

// QualifiedName joins the scope path and name with dots.
func (d Definition) QualifiedName() string {
	out := d.Name
	for i := len(d.Scope) - 1; i >= 0; i-- {
		out = d.Scope[i] + "." + out
	}
	return out
}

// ModuleScope is the caller id of a call site outside any definition.
const ModuleScope = ""

// CallSite is one syntactic invocation. CallerID is the enclosing
// definition's id, or ModuleScope.
type CallSite struct {
	Callee    string
	Qualifier string
	CallerID  string
	Span      SourceSpan
}

// ImportEdge records one import in a file; Alias is set when the import
// binds a different visible name.
type ImportEdge struct {
	File  string
	Path  string
	Alias string
	Span  SourceSpan
}

// Result is everything extracted from one file. Degraded marks output
// recovered from a partial parse tree (low confidence).
type Result struct {
	File        string
	Language    string
	Degraded    bool
	Definitions []Definition
	CallSites   []CallSite
	Imports     []ImportEdge
}

// DefinitionID derives the stable identifier for a definition span.
func DefinitionID(span SourceSpan) string {
	return fmt.Sprintf("%s:%d:%d", span.File, span.StartLine, span.StartCol)
}
