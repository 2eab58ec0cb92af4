package parser

import (
	"strings"

	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/source"
	"windjammer/internal/token"
	"windjammer/internal/types"
)

// binaryPrec: приоритеты бинарных операторов как в Rust; 0 значит не бинарный.
func binaryPrec(k token.Kind) int {
	switch k {
	case token.OrOr:
		return 1
	case token.AndAnd:
		return 2
	case token.EqEq, token.BangEq, token.Lt, token.LtEq, token.Gt, token.GtEq:
		return 3
	case token.Pipe:
		return 4
	case token.Caret:
		return 5
	case token.Amp:
		return 6
	case token.Shl, token.Shr:
		return 7
	case token.Plus, token.Minus:
		return 8
	case token.Star, token.Slash, token.Percent:
		return 9
	}
	return 0
}

// continuesLine reports whether a binary operator on a fresh line continues the
// previous expression. Tokens that can also start a statement end it instead.
func continuesLine(k token.Kind) bool {
	switch k {
	case token.Minus, token.Star, token.Amp, token.AndAnd, token.Bang, token.Lt, token.Pipe, token.OrOr:
		return false
	}
	return true
}

func (p *Parser) parseExpr() ast.Expr {
	start := p.peek().Span
	if p.atOr(token.DotDot, token.DotDotEq) {
		return p.parseRangeTail(start, nil)
	}
	x := p.parseBinary(1)
	if x == nil {
		return nil
	}
	if p.atOr(token.DotDot, token.DotDotEq) && !p.peek().NewlineBefore {
		return p.parseRangeTail(start, x)
	}
	return x
}

func (p *Parser) parseRangeTail(start source.Span, lo ast.Expr) ast.Expr {
	r := &ast.Range{Lo: lo, Inclusive: p.advance().Kind == token.DotDotEq}
	if p.startsOperand() && !(p.at(token.LBrace) && p.noStruct > 0) {
		r.Hi = p.parseBinary(1)
	}
	r.Span = p.spanFrom(start)
	return r
}

func (p *Parser) parseBinary(minPrec int) ast.Expr {
	start := p.peek().Span
	x := p.parseCast()
	if x == nil {
		return nil
	}
	for {
		tok := p.peek()
		op, width := tok.Kind, 1
		if op == token.Gt {
			// `>` `>` stuck together is a shift
			if next := p.peekN(1); next.Kind == token.Gt && next.Span.Start == tok.Span.End {
				op, width = token.Shr, 2
			}
		}
		prec := binaryPrec(op)
		if prec == 0 || prec < minPrec {
			return x
		}
		if tok.NewlineBefore && !continuesLine(op) {
			return x
		}
		// `a >>= b` arrives as `>` `>=`; leave it to the assignment parser
		if op == token.Gt && p.peekN(1).Kind == token.GtEq && p.peekN(1).Span.Start == tok.Span.End {
			return x
		}
		for range width {
			p.advance()
		}
		y := p.parseBinary(prec + 1)
		if y == nil {
			return x
		}
		b := &ast.Binary{Op: op, X: x, Y: y}
		b.Span = p.spanFrom(start)
		x = b
	}
}

// parseCast: unary with trailing `as T` casts.
func (p *Parser) parseCast() ast.Expr {
	start := p.peek().Span
	x := p.parseUnary()
	for x != nil && p.at(token.KwAs) && !p.peek().NewlineBefore {
		p.advance()
		c := &ast.Cast{X: x, Type: p.parseType()}
		c.Span = p.spanFrom(start)
		x = c
	}
	return x
}

func (p *Parser) parseUnary() ast.Expr {
	start := p.peek().Span
	var op ast.UnaryOp
	switch p.peek().Kind {
	case token.Minus:
		op = ast.UnNeg
	case token.Bang:
		op = ast.UnNot
	case token.Star:
		op = ast.UnDeref
	case token.Amp:
		op = ast.UnRef
	case token.AndAnd:
		// `&&x` is a reference to a reference
		p.advance()
		inner := &ast.Unary{Op: ast.UnRef, X: p.parseUnary()}
		if inner.X == nil {
			return nil
		}
		inner.Span = p.spanFrom(start)
		u := &ast.Unary{Op: ast.UnRef, X: inner}
		u.Span = inner.Span
		return u
	default:
		return p.parsePostfix(p.parsePrimary())
	}
	p.advance()
	if op == ast.UnRef && p.eat(token.KwMut) {
		op = ast.UnRefMut
	}
	x := p.parseUnary()
	if x == nil {
		return nil
	}
	u := &ast.Unary{Op: op, X: x}
	u.Span = p.spanFrom(start)
	return u
}

func (p *Parser) parsePostfix(x ast.Expr) ast.Expr {
	if x == nil {
		return nil
	}
	start := x.Pos()
	for {
		tok := p.peek()
		switch tok.Kind {
		case token.Dot:
			p.advance()
			x = p.parseDotSuffix(start, x)
			if x == nil {
				return nil
			}
			continue
		case token.LParen:
			if tok.NewlineBefore {
				return x
			}
			c := &ast.Call{Fn: x, Args: p.parseArgs(token.LParen, token.RParen)}
			c.Span = p.spanFrom(start)
			x = c
			continue
		case token.LBracket:
			if tok.NewlineBefore {
				return x
			}
			p.advance()
			idx := p.withStructs(p.parseExpr)
			p.expect(token.RBracket, diag.SynUnclosedDelimiter, "expected ] to close index")
			ix := &ast.Index{X: x, Index: idx}
			ix.Span = p.spanFrom(start)
			x = ix
			continue
		case token.Question:
			p.advance()
			t := &ast.Try{X: x}
			t.Span = p.spanFrom(start)
			x = t
			continue
		}
		return x
	}
}

// parseDotSuffix handles the token after `.`: field, tuple index, method call or await.
func (p *Parser) parseDotSuffix(start source.Span, x ast.Expr) ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.KwAwait:
		p.advance()
		a := &ast.Await{X: x}
		a.Span = p.spanFrom(start)
		return a
	case token.IntLit:
		p.advance()
		f := &ast.Field{X: x, Name: tok.Text, NameSpan: tok.Span}
		f.Span = p.spanFrom(start)
		return f
	case token.FloatLit:
		// t.0.1 лексится как t . 0.1
		p.advance()
		for part := range strings.SplitSeq(tok.Text, ".") {
			f := &ast.Field{X: x, Name: part, NameSpan: tok.Span}
			f.Span = p.spanFrom(start)
			x = f
		}
		return x
	case token.Ident:
		p.advance()
		var generics []*ast.Type
		if p.at(token.ColonColon) && p.peekN(1).Kind == token.Lt {
			p.advance()
			generics = p.parseTurbofish()
		}
		if p.at(token.LParen) {
			mc := &ast.MethodCall{Recv: x, Name: tok.Text, NameSpan: tok.Span, Generics: generics}
			mc.Args = p.parseArgs(token.LParen, token.RParen)
			mc.Span = p.spanFrom(start)
			return mc
		}
		f := &ast.Field{X: x, Name: tok.Text, NameSpan: tok.Span}
		f.Span = p.spanFrom(start)
		return f
	}
	p.err(diag.SynExpectIdentifier, "expected field or method name after ., found "+describe(tok))
	return nil
}

// parseTurbofish reads `<A, B>` after `::`.
func (p *Parser) parseTurbofish() []*ast.Type {
	p.advance()
	var out []*ast.Type
	for !p.at(token.Gt) && !p.at(token.EOF) {
		t := p.parseType()
		if t == nil {
			break
		}
		out = append(out, t)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.Gt, diag.SynUnclosedDelimiter, "expected > to close generic arguments")
	return out
}

// parseArgs reads a delimited, comma separated expression list.
func (p *Parser) parseArgs(open, closing token.Kind) []ast.Expr {
	p.expect(open, diag.SynUnexpectedToken, "expected "+open.String())
	var out []ast.Expr
	saved := p.noStruct
	p.noStruct = 0
	for !p.at(closing) && !p.at(token.EOF) {
		e := p.parseExpr()
		if e == nil {
			break
		}
		out = append(out, e)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.noStruct = saved
	p.expect(closing, diag.SynUnclosedDelimiter, "expected "+closing.String()+" to close argument list")
	return out
}

// withStructs re-enables struct literals inside delimiters.
func (p *Parser) withStructs(f func() ast.Expr) ast.Expr {
	saved := p.noStruct
	p.noStruct = 0
	defer func() { p.noStruct = saved }()
	return f()
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	start := tok.Span
	switch tok.Kind {
	case token.IntLit, token.FloatLit, token.StringLit, token.CharLit, token.KwTrue, token.KwFalse:
		p.advance()
		return litFromToken(tok)
	case token.Ident, token.KwSelfType, token.KwCrate, token.KwSuper:
		return p.parsePathExpr()
	case token.KwSelf:
		p.advance()
		if p.at(token.ColonColon) {
			p.pos--
			return p.parsePathExpr()
		}
		id := &ast.Ident{Name: "self"}
		id.Span = tok.Span
		return id
	case token.LParen:
		return p.parseParenOrTuple()
	case token.LBracket:
		return p.parseArray()
	case token.LBrace:
		return p.withStructs(func() ast.Expr { return p.parseBlock() })
	case token.KwUnsafe:
		p.advance()
		b := p.withStructs(func() ast.Expr { return p.parseBlock() }).(*ast.Block)
		b.Unsafe = true
		b.Span = p.spanFrom(start)
		return b
	case token.KwIf:
		return p.parseIf()
	case token.KwMatch:
		return p.parseMatch()
	case token.Pipe, token.OrOr, token.KwMove:
		return p.parseClosure()
	case token.KwLoop, token.KwWhile, token.KwFor:
		p.err(diag.SynExpectExpression, "loops are statements in this position, found "+describe(tok))
		return nil
	}
	p.err(diag.SynExpectExpression, "expected expression, found "+describe(tok))
	return nil
}

func litFromToken(tok token.Token) *ast.Lit {
	l := &ast.Lit{Value: tok.Text}
	l.Span = tok.Span
	switch tok.Kind {
	case token.IntLit, token.FloatLit:
		l.Kind = ast.LitInt
		if tok.Kind == token.FloatLit {
			l.Kind = ast.LitFloat
		}
		l.Value, l.Suffix = splitSuffix(tok.Text)
		switch {
		case l.Suffix != "":
			l.Lbl = types.Prim(l.Suffix)
		case l.Kind == ast.LitInt:
			l.Lbl = types.IntLit
		default:
			l.Lbl = types.FloatLit
		}
	case token.StringLit:
		l.Kind = ast.LitString
		l.Lbl = types.StrRef
	case token.CharLit:
		l.Kind = ast.LitChar
		l.Lbl = types.Char
	default:
		l.Kind = ast.LitBool
		l.Lbl = types.Bool
	}
	return l
}

var literalSuffixes = []string{
	"i128", "u128", "isize", "usize",
	"i16", "i32", "i64", "u16", "u32", "u64", "f32", "f64",
	"i8", "u8",
}

// splitSuffix separates `10u8` into "10" and "u8". Hex digits never collide
// with suffixes because those start with i, u or f only after a decimal literal.
func splitSuffix(text string) (string, string) {
	hex := strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X")
	for _, s := range literalSuffixes {
		if !strings.HasSuffix(text, s) || len(text) == len(s) {
			continue
		}
		if hex && s[0] == 'f' {
			continue
		}
		return text[:len(text)-len(s)], s
	}
	return text, ""
}

// parsePathExpr reads names, paths, macros and struct literals.
func (p *Parser) parsePathExpr() ast.Expr {
	start := p.peek().Span
	first := p.advance()

	if first.Kind == token.Ident && p.at(token.Bang) && !p.peek().NewlineBefore &&
		p.atMacroDelim(p.peekN(1).Kind) {
		p.advance()
		return p.parseMacro(start, first.Text)
	}

	segs := []string{first.Text}
	var generics []*ast.Type
	for p.at(token.ColonColon) {
		p.advance()
		if p.at(token.Lt) {
			generics = append(generics, p.parseTurbofish()...)
			continue
		}
		seg := p.peek()
		switch seg.Kind {
		case token.Ident, token.KwSelfType, token.KwSuper, token.KwSelf:
			p.advance()
			segs = append(segs, seg.Text)
			continue
		}
		p.err(diag.SynExpectIdentifier, "expected path segment after ::, found "+describe(seg))
		return nil
	}

	if p.at(token.LBrace) && p.noStruct == 0 && p.looksLikeStructLit(segs) {
		return p.parseStructLit(start, segs)
	}
	if len(segs) == 1 && len(generics) == 0 {
		id := &ast.Ident{Name: segs[0]}
		id.Span = p.spanFrom(start)
		return id
	}
	path := &ast.Path{Segments: segs, Generics: generics}
	path.Span = p.spanFrom(start)
	return path
}

func (p *Parser) atMacroDelim(k token.Kind) bool {
	return k == token.LParen || k == token.LBracket || k == token.LBrace
}

// looksLikeStructLit peeks past `{`: `}`, `name:`, `..base` or, for type-like
// names, a shorthand `name,` / `name }`.
func (p *Parser) looksLikeStructLit(segs []string) bool {
	a, b := p.peekN(1), p.peekN(2)
	switch a.Kind {
	case token.RBrace:
		return typeLike(segs)
	case token.DotDot:
		return true
	case token.Ident:
		if b.Kind == token.Colon {
			return true
		}
		return typeLike(segs) && (b.Kind == token.Comma || b.Kind == token.RBrace)
	}
	return false
}

func typeLike(segs []string) bool {
	last := segs[len(segs)-1]
	return last != "" && last[0] >= 'A' && last[0] <= 'Z'
}

func (p *Parser) parseStructLit(start source.Span, segs []string) ast.Expr {
	p.advance()
	saved := p.noStruct
	p.noStruct = 0
	defer func() { p.noStruct = saved }()

	lbl := types.FromPath(segs, nil, p.genericNames())
	sl := &ast.StructLit{Type: &ast.Type{Label: lbl, Span: p.spanFrom(start)}}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		if p.eat(token.DotDot) {
			sl.Base = p.parseExpr()
			break
		}
		name, ok := p.expectIdent("field name")
		if !ok {
			break
		}
		fi := &ast.FieldInit{Name: name.Text}
		if p.eat(token.Colon) {
			fi.Value = p.parseExpr()
		} else {
			id := &ast.Ident{Name: name.Text}
			id.Span = name.Span
			fi.Value, fi.Shorthand = id, true
		}
		fi.Span = p.spanFrom(name.Span)
		sl.Fields = append(sl.Fields, fi)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected } to close struct literal")
	sl.Span = p.spanFrom(start)
	sl.Lbl = lbl
	return sl
}

// parseMacro: println!("{}", x), vec![1, 2], vec![0; n].
func (p *Parser) parseMacro(start source.Span, name string) ast.Expr {
	open := p.peek().Kind
	closing := token.RParen
	switch open {
	case token.LBracket:
		closing = token.RBracket
	case token.LBrace:
		closing = token.RBrace
	}
	m := &ast.Macro{Name: name, Delim: open}
	p.advance()
	saved := p.noStruct
	p.noStruct = 0
	for !p.at(closing) && !p.at(token.EOF) {
		e := p.parseExpr()
		if e == nil {
			break
		}
		m.Args = append(m.Args, e)
		if len(m.Args) == 1 && p.eat(token.Semicolon) {
			m.Repeat = true
			continue
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	p.noStruct = saved
	p.expect(closing, diag.SynUnclosedDelimiter, "expected "+closing.String()+" to close macro arguments")
	m.Span = p.spanFrom(start)
	return m
}

func (p *Parser) parseParenOrTuple() ast.Expr {
	start := p.advance().Span
	saved := p.noStruct
	p.noStruct = 0
	defer func() { p.noStruct = saved }()

	if p.eat(token.RParen) {
		t := &ast.TupleExpr{}
		t.Span = p.spanFrom(start)
		t.Lbl = types.Unit
		return t
	}
	first := p.parseExpr()
	if first == nil {
		return nil
	}
	if p.eat(token.RParen) {
		pe := &ast.Paren{X: first}
		pe.Span = p.spanFrom(start)
		return pe
	}
	t := &ast.TupleExpr{Elems: []ast.Expr{first}}
	for p.eat(token.Comma) {
		if p.at(token.RParen) {
			break
		}
		e := p.parseExpr()
		if e == nil {
			break
		}
		t.Elems = append(t.Elems, e)
	}
	p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ) to close tuple")
	t.Span = p.spanFrom(start)
	return t
}

func (p *Parser) parseArray() ast.Expr {
	start := p.advance().Span
	saved := p.noStruct
	p.noStruct = 0
	defer func() { p.noStruct = saved }()

	a := &ast.ArrayExpr{}
	for !p.at(token.RBracket) && !p.at(token.EOF) {
		e := p.parseExpr()
		if e == nil {
			break
		}
		a.Elems = append(a.Elems, e)
		if len(a.Elems) == 1 && p.eat(token.Semicolon) {
			a.Repeat = p.parseExpr()
			break
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RBracket, diag.SynUnclosedDelimiter, "expected ] to close array")
	a.Span = p.spanFrom(start)
	return a
}

func (p *Parser) parseIf() ast.Expr {
	start := p.advance().Span
	ie := &ast.IfExpr{}
	p.noStruct++
	if p.eat(token.KwLet) {
		ie.LetPat = p.parsePattern()
		p.expect(token.Assign, diag.SynUnexpectedToken, "expected = in if let")
	}
	ie.Cond = p.parseExpr()
	p.noStruct--
	ie.Then = p.parseBlock()
	if p.eat(token.KwElse) {
		if p.at(token.KwIf) {
			ie.Else = p.parseIf()
		} else {
			ie.Else = p.parseBlock()
		}
	}
	ie.Span = p.spanFrom(start)
	return ie
}

func (p *Parser) parseMatch() ast.Expr {
	start := p.advance().Span
	me := &ast.MatchExpr{}
	p.noStruct++
	me.Scrutinee = p.parseExpr()
	p.noStruct--
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected { after match scrutinee"); !ok {
		return nil
	}
	saved := p.noStruct
	p.noStruct = 0
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		armStart := p.peek().Span
		arm := &ast.MatchArm{Pattern: p.parsePattern()}
		if p.eat(token.KwIf) {
			arm.Guard = p.parseExpr()
		}
		if _, ok := p.expect(token.FatArrow, diag.SynUnexpectedToken, "expected => in match arm"); !ok {
			p.resyncStmt()
			continue
		}
		arm.Body = p.parseArmBody()
		arm.Span = p.spanFrom(armStart)
		me.Arms = append(me.Arms, arm)
		if !p.eat(token.Comma) && !p.at(token.RBrace) && !p.peek().NewlineBefore && !blockLike(arm.Body) {
			p.err(diag.SynUnexpectedToken, "expected , after match arm, found "+describe(p.peek()))
			p.resyncStmt()
		}
	}
	p.noStruct = saved
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected } to close match")
	me.Span = p.spanFrom(start)
	return me
}

// parseArmBody wraps statement-only arm bodies (return, break, continue) in a block.
func (p *Parser) parseArmBody() ast.Expr {
	switch p.peek().Kind {
	case token.KwReturn, token.KwBreak, token.KwContinue:
		start := p.peek().Span
		st := p.parseArmStmt()
		b := &ast.Block{Stmts: []ast.Stmt{st}}
		b.Span = p.spanFrom(start)
		return b
	}
	return p.parseExpr()
}

func (p *Parser) parseArmStmt() ast.Stmt {
	start := p.peek().Span
	kind := p.advance().Kind
	var value ast.Expr
	if kind != token.KwContinue && p.startsOperand() {
		value = p.parseExpr()
	}
	switch kind {
	case token.KwReturn:
		s := &ast.ReturnStmt{Value: value}
		s.Span = p.spanFrom(start)
		return s
	case token.KwBreak:
		s := &ast.BreakStmt{Value: value}
		s.Span = p.spanFrom(start)
		return s
	}
	s := &ast.ContinueStmt{}
	s.Span = p.spanFrom(start)
	return s
}

// parseClosure: |a, b: T| expr, || expr, move |x| { ... }.
func (p *Parser) parseClosure() ast.Expr {
	start := p.peek().Span
	c := &ast.Closure{Move: p.eat(token.KwMove)}
	if !p.eat(token.OrOr) {
		p.expect(token.Pipe, diag.SynUnexpectedToken, "expected | to start closure parameters")
		for !p.at(token.Pipe) && !p.at(token.EOF) {
			cp := &ast.ClosureParam{Pattern: p.parsePatternNoAlt()}
			if p.eat(token.Colon) {
				cp.Type = p.parseType()
			}
			c.Params = append(c.Params, cp)
			if !p.eat(token.Comma) {
				break
			}
		}
		p.expect(token.Pipe, diag.SynUnexpectedToken, "expected | to close closure parameters")
	}
	if p.eat(token.Arrow) {
		p.parseType()
		c.Body = p.withStructs(func() ast.Expr { return p.parseBlock() })
	} else {
		c.Body = p.withStructs(p.parseExpr)
	}
	c.Span = p.spanFrom(start)
	return c
}
