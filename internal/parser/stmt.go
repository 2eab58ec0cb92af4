package parser

import (
	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/token"
)

func (p *Parser) parseBlock() *ast.Block {
	start := p.peek().Span
	b := &ast.Block{}
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected {, found "+describe(p.peek())); !ok {
		return b
	}
	for !p.at(token.RBrace) && !p.at(token.EOF) && !p.opts.Enough() {
		if p.eat(token.Semicolon) {
			continue
		}
		before := p.pos
		st := p.parseStmt()
		if st != nil {
			b.Stmts = append(b.Stmts, st)
		}
		if p.pos == before {
			p.advance()
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected } to close block")
	b.Span = p.spanFrom(start)
	return b
}

func (p *Parser) parseStmt() ast.Stmt {
	start := p.peek().Span
	switch p.peek().Kind {
	case token.KwLet:
		p.advance()
		s := &ast.LetStmt{}
		s.Pattern = p.parsePattern()
		if p.eat(token.Colon) {
			s.Type = p.parseType()
		}
		if p.eat(token.Assign) {
			s.Value = p.parseExpr()
		}
		p.endStmt()
		s.Span = p.spanFrom(start)
		return s
	case token.KwReturn:
		p.advance()
		s := &ast.ReturnStmt{}
		if p.startsOperand() {
			s.Value = p.parseExpr()
		}
		p.endStmt()
		s.Span = p.spanFrom(start)
		return s
	case token.KwBreak:
		p.advance()
		s := &ast.BreakStmt{}
		if p.startsOperand() {
			s.Value = p.parseExpr()
		}
		p.endStmt()
		s.Span = p.spanFrom(start)
		return s
	case token.KwContinue:
		p.advance()
		s := &ast.ContinueStmt{}
		p.endStmt()
		s.Span = p.spanFrom(start)
		return s
	case token.KwWhile:
		p.advance()
		s := &ast.WhileStmt{}
		p.noStruct++
		if p.eat(token.KwLet) {
			s.LetPat = p.parsePattern()
			p.expect(token.Assign, diag.SynUnexpectedToken, "expected = in while let")
		}
		s.Cond = p.parseExpr()
		p.noStruct--
		s.Body = p.parseBlock()
		s.Span = p.spanFrom(start)
		return s
	case token.KwLoop:
		p.advance()
		s := &ast.LoopStmt{Body: p.parseBlock()}
		s.Span = p.spanFrom(start)
		return s
	case token.KwFor:
		p.advance()
		s := &ast.ForStmt{}
		s.Pattern = p.parsePattern()
		p.expect(token.KwIn, diag.SynUnexpectedToken, "expected in after for pattern")
		p.noStruct++
		s.Iter = p.parseExpr()
		p.noStruct--
		s.Body = p.parseBlock()
		s.Span = p.spanFrom(start)
		return s
	case token.KwFn, token.KwStruct, token.KwEnum, token.KwConst, token.KwStatic, token.KwUse,
		token.KwTrait, token.KwImpl, token.At:
		it := p.parseItem()
		if it == nil {
			p.resyncStmt()
			return nil
		}
		return &ast.ItemStmt{Item: it}
	case token.KwUnsafe:
		if p.peekN(1).Kind == token.KwFn {
			if it := p.parseItem(); it != nil {
				return &ast.ItemStmt{Item: it}
			}
			return nil
		}
	}

	x := p.parseExpr()
	if x == nil {
		p.resyncStmt()
		return nil
	}
	if op := p.peek(); op.IsAssignOp() {
		p.advance()
		s := &ast.AssignStmt{Op: op.Kind, Target: x, Value: p.parseExpr()}
		p.endStmt()
		s.Span = p.spanFrom(start)
		return s
	}
	s := &ast.ExprStmt{X: x}
	switch {
	case p.eat(token.Semicolon):
		s.Semi = true
	case p.at(token.RBrace), p.peek().NewlineBefore, blockLike(x):
	default:
		p.err(diag.SynUnexpectedToken, "expected ; or newline after expression, found "+describe(p.peek()))
		p.resyncStmt()
	}
	s.Span = p.spanFrom(start)
	return s
}

// endStmt accepts `;`, a newline or the closing brace.
func (p *Parser) endStmt() {
	if p.eat(token.Semicolon) || p.at(token.RBrace) || p.at(token.EOF) || p.peek().NewlineBefore {
		return
	}
	p.err(diag.SynUnexpectedToken, "expected ; or newline, found "+describe(p.peek()))
	p.resyncStmt()
}

// startsOperand reports whether the next token can start an expression on the same line.
func (p *Parser) startsOperand() bool {
	t := p.peek()
	if t.NewlineBefore {
		return false
	}
	switch t.Kind {
	case token.Semicolon, token.RBrace, token.RParen, token.RBracket, token.Comma, token.EOF, token.FatArrow:
		return false
	}
	return true
}

func blockLike(x ast.Expr) bool {
	switch x.(type) {
	case *ast.IfExpr, *ast.MatchExpr, *ast.Block:
		return true
	}
	return false
}
