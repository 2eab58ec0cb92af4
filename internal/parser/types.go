package parser

import (
	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/token"
	"windjammer/internal/types"
)

// parseType reads a written type and resolves it to a label right away;
// generic names come from the enclosing declarations.
func (p *Parser) parseType() *ast.Type {
	start := p.peek().Span
	l := p.parseTypeLabel()
	if l == nil {
		return nil
	}
	return &ast.Type{Label: l, Span: p.spanFrom(start)}
}

func (p *Parser) parseTypeLabel() *types.Label {
	switch tok := p.peek(); tok.Kind {
	case token.Amp:
		p.advance()
		mut := p.eat(token.KwMut)
		elem := p.parseTypeLabel()
		if elem == nil {
			return nil
		}
		return types.Ref(elem, mut)
	case token.AndAnd:
		p.advance()
		mut := p.eat(token.KwMut)
		elem := p.parseTypeLabel()
		if elem == nil {
			return nil
		}
		return types.Ref(types.Ref(elem, mut), false)
	case token.LParen:
		p.advance()
		var elems []*types.Label
		for !p.at(token.RParen) && !p.at(token.EOF) {
			e := p.parseTypeLabel()
			if e == nil {
				return nil
			}
			elems = append(elems, e)
			if !p.eat(token.Comma) {
				break
			}
		}
		p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ) to close tuple type")
		return types.Tuple(elems...)
	case token.LBracket:
		p.advance()
		elem := p.parseTypeLabel()
		if elem == nil {
			return nil
		}
		if p.eat(token.Semicolon) {
			n := p.advance()
			p.expect(token.RBracket, diag.SynUnclosedDelimiter, "expected ] to close array type")
			return &types.Label{Kind: types.KArray, Elem: elem, Len: n.Text}
		}
		p.expect(token.RBracket, diag.SynUnclosedDelimiter, "expected ] to close slice type")
		return &types.Label{Kind: types.KSlice, Elem: elem}
	case token.KwDyn, token.KwImpl:
		p.advance()
		bound := p.parseTypeLabel()
		if bound == nil {
			return nil
		}
		// `dyn A + Send`: дополнительные ограничения отбрасываем
		for p.eat(token.Plus) {
			p.parseTypeLabel()
		}
		kind := types.KDyn
		if tok.Kind == token.KwImpl {
			kind = types.KImpl
		}
		return &types.Label{Kind: kind, Name: bound.Name, Elem: bound}
	case token.KwFn:
		p.advance()
		args, result := p.parseFnTypeTail()
		return &types.Label{Kind: types.KFn, Args: args, Elem: result}
	case token.Underscore:
		p.advance()
		return &types.Label{Kind: types.KInfer}
	case token.Bang:
		p.advance()
		return types.Named("!")
	case token.Ident, token.KwSelfType, token.KwCrate, token.KwSuper, token.KwSelf:
		return p.parseTypePath()
	default:
		p.err(diag.SynExpectType, "expected type, found "+describe(tok))
		return nil
	}
}

func (p *Parser) parseTypePath() *types.Label {
	var path []string
	for {
		seg := p.advance()
		path = append(path, seg.Text)
		if !p.at(token.ColonColon) {
			break
		}
		p.advance()
		switch p.peek().Kind {
		case token.Ident, token.KwSelfType, token.KwSuper:
			continue
		}
		p.err(diag.SynExpectIdentifier, "expected type path segment, found "+describe(p.peek()))
		break
	}
	name := path[len(path)-1]
	if types.IsFnTrait(name) && p.at(token.LParen) {
		args, result := p.parseFnTypeTail()
		return &types.Label{Kind: types.KNamed, Name: name, Args: args, Elem: result}
	}
	var args []*types.Label
	if p.at(token.Lt) {
		args = p.parseTypeArgs()
	}
	return types.FromPath(path, args, p.genericNames())
}

// parseTypeArgs reads `<A, B>`; the lexer never produces `>>`, so nested
// generics close one `>` at a time.
func (p *Parser) parseTypeArgs() []*types.Label {
	p.advance()
	var args []*types.Label
	for !p.at(token.Gt) && !p.at(token.EOF) {
		a := p.parseTypeLabel()
		if a == nil {
			break
		}
		args = append(args, a)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.Gt, diag.SynUnclosedDelimiter, "expected > to close type arguments")
	return args
}

// parseFnTypeTail reads `(A, B) -> R` after fn/Fn/FnMut/FnOnce.
func (p *Parser) parseFnTypeTail() ([]*types.Label, *types.Label) {
	var args []*types.Label
	if _, ok := p.expect(token.LParen, diag.SynExpectType, "expected ( in function type"); !ok {
		return nil, types.Unit
	}
	for !p.at(token.RParen) && !p.at(token.EOF) {
		a := p.parseTypeLabel()
		if a == nil {
			break
		}
		args = append(args, a)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ) in function type")
	result := types.Unit
	if p.eat(token.Arrow) {
		if r := p.parseTypeLabel(); r != nil {
			result = r
		}
	}
	return args, result
}
