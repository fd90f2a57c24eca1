package extract

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// ParserPool recycles tree-sitter parser instances so parallel extraction
// does not pay sitter.NewParser()/Close() per file. One pool per grammar;
// safe for concurrent use.
type ParserPool struct {
	lang *sitter.Language
	pool sync.Pool

	activeMu sync.Mutex
	active   int
}

func NewParserPool(lang *sitter.Language) *ParserPool {
	p := &ParserPool{lang: lang}
	p.pool = sync.Pool{
		New: func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(lang)
			return sp
		},
	}
	return p
}

// Get returns a parser configured for the pool's grammar.
func (p *ParserPool) Get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	// Reassert in case the parser was reset while pooled.
	sp.SetLanguage(p.lang)

	p.activeMu.Lock()
	p.active++
	p.activeMu.Unlock()
	return sp
}

// Put returns a parser for reuse. Callers must not touch sp afterwards.
func (p *ParserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	p.activeMu.Lock()
	p.active--
	p.activeMu.Unlock()

	sp.Reset()
	p.pool.Put(sp)
}

// Active returns the number of parsers currently leased out.
func (p *ParserPool) Active() int {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	return p.active
}
