package parser

import (
	"slices"

	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/lexer"
	"windjammer/internal/source"
	"windjammer/internal/token"
)

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough - достигли ли мы максимального количества ошибок.
func (o *Options) Enough() bool {
	return o.MaxErrors != 0 && o.CurrentErrors >= o.MaxErrors
}

// Parser: состояние парсера на один файл.
type Parser struct {
	toks     []token.Token
	pos      int
	file     *source.File
	opts     Options
	lastSpan source.Span

	generics []map[string]bool // стек имён обобщённых параметров
	noStruct int               // >0: struct literals disabled (if/while/match heads)
}

// ParseFile lexes and parses one file. Module is the file's module path.
func ParseFile(fs *source.FileSet, id source.FileID, module []string, opts Options) *ast.File {
	f := fs.Get(id)
	lx := lexer.New(f, lexer.Options{Reporter: opts.Reporter})
	var toks []token.Token
	for _, t := range lx.All() {
		// лексер уже сообщил о плохом токене
		if t.Kind != token.Invalid {
			toks = append(toks, t)
		}
	}
	p := &Parser{
		toks: toks,
		file: f,
		opts: opts,
	}
	out := &ast.File{Path: f.Path, ID: id, Module: module}
	start := p.peek().Span
	for !p.at(token.EOF) && !p.opts.Enough() {
		before := p.pos
		if it := p.parseItem(); it != nil {
			out.Items = spliceItem(out.Items, it)
		} else {
			p.resyncTop(before)
		}
	}
	out.Span = start.Cover(p.lastSpan)
	return out
}

// ParseSource is a convenience wrapper for tests and single-file compiles.
func ParseSource(fs *source.FileSet, name, src string, bag *diag.Bag) *ast.File {
	id := fs.AddVirtual(name, []byte(src))
	return ParseFile(fs, id, nil, Options{Reporter: diag.BagReporter{Bag: bag}})
}

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

// peekN looks n tokens ahead; EOF past the end.
func (p *Parser) peekN(n int) token.Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.peek().Kind)
}

// resyncTop skips to the next token that can start an item.
func (p *Parser) resyncTop(before int) {
	if p.pos == before {
		p.advance()
	}
	for !p.at(token.EOF) {
		switch p.peek().Kind {
		case token.KwFn, token.KwStruct, token.KwEnum, token.KwTrait, token.KwImpl, token.KwUse,
			token.KwMod, token.KwPub, token.KwConst, token.KwStatic, token.KwExtern, token.At:
			if p.peek().NewlineBefore {
				return
			}
		}
		p.advance()
	}
}

// resyncStmt skips to a statement boundary inside a block.
func (p *Parser) resyncStmt() {
	depth := 0
	for !p.at(token.EOF) {
		switch p.peek().Kind {
		case token.LBrace:
			depth++
		case token.RBrace:
			if depth == 0 {
				return
			}
			depth--
		case token.Semicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
		if depth == 0 && p.peek().NewlineBefore {
			return
		}
	}
}

func (p *Parser) pushGenerics(gs []*ast.GenericParam) {
	m := make(map[string]bool, len(gs))
	for _, g := range gs {
		m[g.Name] = true
	}
	p.generics = append(p.generics, m)
}

func (p *Parser) popGenerics() {
	p.generics = p.generics[:len(p.generics)-1]
}

func (p *Parser) genericNames() map[string]bool {
	out := map[string]bool{}
	for _, m := range p.generics {
		for k := range m {
			out[k] = true
		}
	}
	return out
}

// spliceItem appends it, flattening `extern "C" { ... }` blocks into their functions.
func spliceItem(items []ast.Item, it ast.Item) []ast.Item {
	if md, ok := it.(*ast.ModDecl); ok && md.Name == "" {
		return append(items, md.Items...)
	}
	return append(items, it)
}
