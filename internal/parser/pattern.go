package parser

import (
	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/source"
	"windjammer/internal/token"
)

// parsePattern accepts top-level alternatives: A | B.
func (p *Parser) parsePattern() ast.Pattern {
	start := p.peek().Span
	p.eat(token.Pipe)
	first := p.parsePatternNoAlt()
	if first == nil || !p.at(token.Pipe) {
		return first
	}
	or := &ast.OrPat{Alts: []ast.Pattern{first}}
	for p.eat(token.Pipe) {
		if alt := p.parsePatternNoAlt(); alt != nil {
			or.Alts = append(or.Alts, alt)
		}
	}
	or.Span = p.spanFrom(start)
	return or
}

func (p *Parser) parsePatternNoAlt() ast.Pattern {
	tok := p.peek()
	start := tok.Span
	switch tok.Kind {
	case token.Underscore:
		p.advance()
		w := &ast.WildcardPat{}
		w.Span = tok.Span
		return w
	case token.DotDot:
		p.advance()
		r := &ast.RestPat{}
		r.Span = tok.Span
		return r
	case token.Amp, token.AndAnd:
		p.advance()
		rp := &ast.RefPat{Mut: p.eat(token.KwMut), Pat: p.parsePatternNoAlt()}
		rp.Span = p.spanFrom(start)
		if tok.Kind == token.AndAnd {
			outer := &ast.RefPat{Pat: rp}
			outer.Span = rp.Span
			return outer
		}
		return rp
	case token.LParen:
		p.advance()
		tp := &ast.TuplePat{Elems: p.parsePatternList(token.RParen)}
		tp.Span = p.spanFrom(start)
		if len(tp.Elems) == 1 && !p.trailingComma() {
			return tp.Elems[0]
		}
		return tp
	case token.LBracket:
		// slice patterns share the tuple representation
		p.advance()
		tp := &ast.TuplePat{Elems: p.parsePatternList(token.RBracket)}
		tp.Span = p.spanFrom(start)
		return tp
	case token.Minus, token.IntLit, token.FloatLit, token.StringLit, token.CharLit, token.KwTrue, token.KwFalse:
		return p.parseLitPattern()
	case token.KwMut:
		p.advance()
		name, ok := p.expectIdent("binding name")
		if !ok {
			return nil
		}
		return p.finishBind(start, name.Text, true, false)
	case token.Ident:
		if next := p.peekN(1).Kind; tok.Text == "ref" && (next == token.Ident || next == token.KwMut) {
			p.advance()
			mut := p.eat(token.KwMut)
			name, ok := p.expectIdent("binding name")
			if !ok {
				return nil
			}
			return p.finishBind(start, name.Text, mut, true)
		}
		return p.parsePathPattern()
	case token.KwSelfType, token.KwCrate, token.KwSuper, token.KwSelf:
		return p.parsePathPattern()
	}
	p.err(diag.SynBadPattern, "expected pattern, found "+describe(tok))
	return nil
}

// trailingComma reports whether the token before the closing delimiter was a comma.
func (p *Parser) trailingComma() bool {
	return p.pos >= 2 && p.toks[p.pos-2].Kind == token.Comma
}

func (p *Parser) parsePatternList(closing token.Kind) []ast.Pattern {
	var out []ast.Pattern
	for !p.at(closing) && !p.at(token.EOF) {
		pat := p.parsePattern()
		if pat == nil {
			break
		}
		out = append(out, pat)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(closing, diag.SynUnclosedDelimiter, "expected "+closing.String()+" to close pattern")
	return out
}

func (p *Parser) parseLitPattern() ast.Pattern {
	start := p.peek().Span
	neg := p.eat(token.Minus)
	lo := p.literalToken()
	if lo == nil {
		return nil
	}
	if p.atOr(token.DotDotEq, token.DotDot) {
		rp := &ast.RangePat{Lo: lo, Inclusive: p.advance().Kind == token.DotDotEq}
		if neg {
			lo.Value = "-" + lo.Value
		}
		if p.eat(token.Minus) {
			if hi := p.literalToken(); hi != nil {
				hi.Value = "-" + hi.Value
				rp.Hi = hi
			}
		} else if p.atOr(token.IntLit, token.FloatLit, token.CharLit) {
			rp.Hi = p.literalToken()
		}
		rp.Span = p.spanFrom(start)
		return rp
	}
	lp := &ast.LitPat{Lit: lo, Neg: neg}
	lp.Span = p.spanFrom(start)
	return lp
}

func (p *Parser) literalToken() *ast.Lit {
	switch p.peek().Kind {
	case token.IntLit, token.FloatLit, token.StringLit, token.CharLit, token.KwTrue, token.KwFalse:
		return litFromToken(p.advance())
	}
	p.err(diag.SynBadPattern, "expected literal in pattern, found "+describe(p.peek()))
	return nil
}

func (p *Parser) finishBind(start source.Span, name string, mut, byRef bool) ast.Pattern {
	bp := &ast.BindPat{Name: name, Mut: mut, ByRef: byRef}
	if p.eat(token.At) {
		bp.Sub = p.parsePatternNoAlt()
	}
	bp.Span = p.spanFrom(start)
	return bp
}

// parsePathPattern: x, None, Color::Red, Some(v), Shape::Circle { r }.
// A lone lowercase name binds; a lone capitalized name is a unit variant.
func (p *Parser) parsePathPattern() ast.Pattern {
	start := p.peek().Span
	segs := []string{p.advance().Text}
	for p.at(token.ColonColon) {
		p.advance()
		seg, ok := p.expectIdentOrSelf()
		if !ok {
			return nil
		}
		segs = append(segs, seg)
	}
	switch {
	case p.at(token.LParen):
		p.advance()
		ts := &ast.TupleStructPat{Path: segs, Elems: p.parsePatternList(token.RParen)}
		ts.Span = p.spanFrom(start)
		return ts
	case p.at(token.LBrace):
		return p.parseStructPattern(start, segs)
	case len(segs) == 1 && !typeLike(segs) && segs[0] != "self":
		return p.finishBind(start, segs[0], false, false)
	}
	pp := &ast.PathPat{Path: segs}
	pp.Span = p.spanFrom(start)
	return pp
}

func (p *Parser) expectIdentOrSelf() (string, bool) {
	switch p.peek().Kind {
	case token.Ident, token.KwSelfType:
		return p.advance().Text, true
	}
	p.err(diag.SynBadPattern, "expected path segment in pattern, found "+describe(p.peek()))
	return "", false
}

func (p *Parser) parseStructPattern(start source.Span, segs []string) ast.Pattern {
	p.advance()
	sp := &ast.StructPat{Path: segs}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if p.eat(token.DotDot) {
			sp.Rest = true
			break
		}
		fstart := p.peek().Span
		mut := p.eat(token.KwMut)
		name, ok := p.expectIdent("field name in pattern")
		if !ok {
			break
		}
		fp := &ast.FieldPat{Name: name.Text}
		if !mut && p.eat(token.Colon) {
			fp.Pat = p.parsePattern()
		} else {
			fp.Shorthand = true
			bp := &ast.BindPat{Name: name.Text, Mut: mut}
			bp.Span = p.spanFrom(fstart)
			fp.Pat = bp
		}
		sp.Fields = append(sp.Fields, fp)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected } to close struct pattern")
	sp.Span = p.spanFrom(start)
	return sp
}
