package parser

import (
	"strings"

	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/source"
	"windjammer/internal/token"
	"windjammer/internal/types"
)

// parseItem выбирает распознаватель по первому токену.
func (p *Parser) parseItem() ast.Item {
	decorators := p.parseDecorators()
	start := p.peek().Span
	pub := p.parseVisibility()

	switch p.peek().Kind {
	case token.KwFn, token.KwAsync, token.KwUnsafe:
		fn := p.parseFn(start, pub, decorators, fnContext{})
		if fn == nil {
			return nil
		}
		return fn
	case token.KwExtern:
		return p.parseExtern(start, pub, decorators)
	case token.KwStruct:
		return p.parseStruct(start, pub, decorators)
	case token.KwEnum:
		return p.parseEnum(start, pub, decorators)
	case token.KwTrait:
		return p.parseTrait(start, pub, decorators)
	case token.KwImpl:
		return p.parseImpl(start)
	case token.KwMod:
		return p.parseMod(start, pub)
	case token.KwUse:
		return p.parseUse(start, pub)
	case token.KwConst, token.KwStatic:
		return p.parseConst(start, pub)
	case token.KwType:
		return p.parseTypeAlias(start, pub)
	}
	p.err(diag.SynExpectItem, "expected item, found "+describe(p.peek()))
	return nil
}

// parseDecorators: @name или @name(arg, ...).
func (p *Parser) parseDecorators() []*ast.Decorator {
	var out []*ast.Decorator
	for p.at(token.At) {
		start := p.advance().Span
		name, ok := p.expectIdent("decorator name")
		if !ok {
			continue
		}
		d := &ast.Decorator{Name: name.Text}
		if p.at(token.LParen) && !p.peek().NewlineBefore {
			p.advance()
			var cur strings.Builder
			depth := 0
			for !p.at(token.EOF) {
				t := p.peek()
				if t.Kind == token.RParen && depth == 0 {
					break
				}
				p.advance()
				switch t.Kind {
				case token.LParen:
					depth++
				case token.RParen:
					depth--
				}
				if t.Kind == token.Comma && depth == 0 {
					d.Args = append(d.Args, strings.TrimSpace(cur.String()))
					cur.Reset()
					continue
				}
				cur.WriteString(t.Text)
			}
			if s := strings.TrimSpace(cur.String()); s != "" {
				d.Args = append(d.Args, s)
			}
			p.expect(token.RParen, diag.SynBadDecorator, "expected ) to close decorator arguments")
		}
		d.Span = p.spanFrom(start)
		out = append(out, d)
	}
	return out
}

// parseVisibility accepts pub and pub(crate), pub(super).
func (p *Parser) parseVisibility() bool {
	if !p.eat(token.KwPub) {
		return false
	}
	if p.at(token.LParen) {
		switch p.peekN(1).Kind {
		case token.KwCrate, token.KwSuper, token.KwSelf:
			p.advance()
			p.advance()
			p.expect(token.RParen, diag.SynUnexpectedToken, "expected )")
		}
	}
	return true
}

func (p *Parser) parseGenericParams() []*ast.GenericParam {
	if !p.eat(token.Lt) {
		return nil
	}
	var out []*ast.GenericParam
	for !p.at(token.Gt) && !p.at(token.EOF) {
		name, ok := p.expectIdent("generic parameter")
		if !ok {
			break
		}
		g := &ast.GenericParam{Name: name.Text}
		if p.eat(token.Colon) {
			g.Bounds = p.parseBounds()
		}
		out = append(out, g)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.Gt, diag.SynUnclosedDelimiter, "expected > to close generic parameters")
	return out
}

// parseBounds: Display + Clone + Fn(i32) -> i32
func (p *Parser) parseBounds() []*ast.Type {
	var out []*ast.Type
	for {
		if t := p.parseType(); t != nil {
			out = append(out, t)
		}
		if !p.eat(token.Plus) {
			return out
		}
	}
}

// parseWhere folds `where T: Bound` predicates into matching generic params.
func (p *Parser) parseWhere(gs []*ast.GenericParam) {
	if !p.eat(token.KwWhere) {
		return
	}
	for p.at(token.Ident) {
		name := p.advance().Text
		p.expect(token.Colon, diag.SynUnexpectedToken, "expected : in where clause")
		bounds := p.parseBounds()
		for _, g := range gs {
			if g.Name == name {
				g.Bounds = append(g.Bounds, bounds...)
			}
		}
		if !p.eat(token.Comma) {
			return
		}
	}
}

type fnContext struct {
	owner   string
	trait   string
	inTrait bool
	extern  bool
}

func (p *Parser) parseFn(start source.Span, pub bool, decorators []*ast.Decorator, ctx fnContext) *ast.FnDecl {
	fn := &ast.FnDecl{
		Pub:        pub,
		Decorators: decorators,
		Owner:      ctx.owner,
		Trait:      ctx.trait,
		InTrait:    ctx.inTrait,
		Extern:     ctx.extern,
	}
	for {
		switch {
		case p.eat(token.KwAsync):
			fn.Async = true
			continue
		case p.eat(token.KwUnsafe):
			fn.Unsafe = true
			continue
		}
		break
	}
	if _, ok := p.expect(token.KwFn, diag.SynUnexpectedToken, "expected fn"); !ok {
		return nil
	}
	name, ok := p.expectIdent("function name")
	if !ok {
		return nil
	}
	fn.Name, fn.NameSpan = name.Text, name.Span
	fn.Generics = p.parseGenericParams()
	p.pushGenerics(fn.Generics)
	defer p.popGenerics()

	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected ( after function name"); !ok {
		return nil
	}
	p.parseReceiver(fn)
	for !p.at(token.RParen) && !p.at(token.EOF) {
		param := p.parseParam()
		if param == nil {
			break
		}
		fn.Params = append(fn.Params, param)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ) to close parameter list")
	if p.eat(token.Arrow) {
		fn.Result = p.parseType()
	}
	p.parseWhere(fn.Generics)

	switch {
	case p.at(token.LBrace):
		fn.Body = p.parseBlock()
		if fn.Extern {
			p.report(diag.SynExternWithBody, diag.SevError, fn.NameSpan, "extern function `"+fn.Name+"` cannot have a body")
		}
	case fn.Extern || fn.InTrait:
		p.eat(token.Semicolon)
	default:
		p.err(diag.SynUnexpectedToken, "expected function body, found "+describe(p.peek()))
	}
	fn.Span = p.spanFrom(start)
	return fn
}

// parseReceiver: self, mut self, &self, &mut self.
func (p *Parser) parseReceiver(fn *ast.FnDecl) {
	start := p.peek().Span
	switch {
	case p.at(token.KwSelf):
		p.advance()
		fn.Recv = types.RecvInfer
	case p.at(token.KwMut) && p.peekN(1).Kind == token.KwSelf:
		p.advance()
		p.advance()
		fn.Recv, fn.RecvMut = types.RecvValue, true
	case p.at(token.Amp) && p.peekN(1).Kind == token.KwSelf:
		p.advance()
		p.advance()
		fn.Recv = types.RecvRef
	case p.at(token.Amp) && p.peekN(1).Kind == token.KwMut && p.peekN(2).Kind == token.KwSelf:
		p.advance()
		p.advance()
		p.advance()
		fn.Recv = types.RecvMutRef
	default:
		return
	}
	// `self: Self` style annotations are accepted and ignored
	if p.eat(token.Colon) {
		p.parseType()
	}
	fn.RecvSpan = p.spanFrom(start)
	if !p.at(token.RParen) {
		p.expect(token.Comma, diag.SynUnexpectedToken, "expected , after receiver")
	}
}

func (p *Parser) parseParam() *ast.Param {
	start := p.peek().Span
	mut := p.eat(token.KwMut)
	var name token.Token
	switch {
	case p.at(token.Ident):
		name = p.advance()
	case p.at(token.Underscore):
		name = p.advance()
	default:
		p.err(diag.SynExpectIdentifier, "expected parameter name, found "+describe(p.peek()))
		return nil
	}
	param := &ast.Param{Name: name.Text, Mut: mut, NameSpan: name.Span}
	if _, ok := p.expect(token.Colon, diag.SynExpectType, "expected : and a type after parameter `"+name.Text+"`"); ok {
		param.Type = p.parseType()
	}
	param.Span = p.spanFrom(start)
	return param
}

// parseExtern: `extern fn f(x: i32)` or `extern "C" { fn a(); fn b(); }`.
func (p *Parser) parseExtern(start source.Span, pub bool, decorators []*ast.Decorator) ast.Item {
	p.advance()
	p.eat(token.StringLit)
	if p.at(token.LBrace) {
		// блок объявлений возвращаем как модуль без имени, его функции поднимаются наверх
		p.advance()
		mod := &ast.ModDecl{}
		for !p.at(token.RBrace) && !p.at(token.EOF) {
			ds := p.parseDecorators()
			s := p.peek().Span
			fpub := p.parseVisibility()
			fn := p.parseFn(s, fpub || pub, ds, fnContext{extern: true})
			if fn == nil {
				p.resyncStmt()
				continue
			}
			mod.Items = append(mod.Items, fn)
		}
		p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected } to close extern block")
		mod.Span = p.spanFrom(start)
		return mod
	}
	fn := p.parseFn(start, pub, decorators, fnContext{extern: true})
	if fn == nil {
		return nil
	}
	return fn
}

func (p *Parser) parseStruct(start source.Span, pub bool, decorators []*ast.Decorator) ast.Item {
	p.advance()
	name, ok := p.expectIdent("struct name")
	if !ok {
		return nil
	}
	sd := &ast.StructDecl{Pub: pub, Name: name.Text, Decorators: decorators}
	sd.Generics = p.parseGenericParams()
	p.pushGenerics(sd.Generics)
	defer p.popGenerics()
	p.parseWhere(sd.Generics)

	switch {
	case p.at(token.LParen):
		sd.Tuple = true
		sd.Fields = p.parseTupleFields()
		p.eat(token.Semicolon)
	case p.at(token.LBrace):
		sd.Fields = p.parseNamedFields()
	default:
		p.eat(token.Semicolon)
	}
	sd.Span = p.spanFrom(start)
	return sd
}

func (p *Parser) parseNamedFields() []*ast.FieldDecl {
	p.advance()
	var out []*ast.FieldDecl
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		p.parseDecorators()
		start := p.peek().Span
		pub := p.parseVisibility()
		name, ok := p.expectIdent("field name")
		if !ok {
			p.resyncStmt()
			continue
		}
		fd := &ast.FieldDecl{Name: name.Text, Pub: pub}
		if _, ok := p.expect(token.Colon, diag.SynExpectType, "expected : after field name"); ok {
			fd.Type = p.parseType()
		}
		fd.Span = p.spanFrom(start)
		out = append(out, fd)
		if !p.eat(token.Comma) && !p.at(token.RBrace) && !p.peek().NewlineBefore {
			p.err(diag.SynUnexpectedToken, "expected , or } after field, found "+describe(p.peek()))
			p.resyncStmt()
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected } to close field list")
	return out
}

func (p *Parser) parseTupleFields() []*ast.FieldDecl {
	p.advance()
	var out []*ast.FieldDecl
	for i := 0; !p.at(token.RParen) && !p.at(token.EOF); i++ {
		start := p.peek().Span
		pub := p.parseVisibility()
		t := p.parseType()
		out = append(out, &ast.FieldDecl{Name: itoa(i), Type: t, Pub: pub, Span: p.spanFrom(start)})
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ) to close tuple fields")
	return out
}

func (p *Parser) parseEnum(start source.Span, pub bool, decorators []*ast.Decorator) ast.Item {
	p.advance()
	name, ok := p.expectIdent("enum name")
	if !ok {
		return nil
	}
	ed := &ast.EnumDecl{Pub: pub, Name: name.Text, Decorators: decorators}
	ed.Generics = p.parseGenericParams()
	p.pushGenerics(ed.Generics)
	defer p.popGenerics()
	p.parseWhere(ed.Generics)

	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected { after enum name"); !ok {
		return nil
	}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		p.parseDecorators()
		vname, ok := p.expectIdent("variant name")
		if !ok {
			p.resyncStmt()
			continue
		}
		v := &ast.Variant{Name: vname.Text}
		switch {
		case p.at(token.LParen):
			v.Kind = ast.VariantTuple
			v.Fields = p.parseTupleFields()
		case p.at(token.LBrace):
			v.Kind = ast.VariantStruct
			v.Fields = p.parseNamedFields()
		}
		if p.eat(token.Assign) {
			// явный дискриминант сохраняется только для совместимости синтаксиса
			p.parseExpr()
		}
		v.Span = p.spanFrom(vname.Span)
		ed.Variants = append(ed.Variants, v)
		if !p.eat(token.Comma) && !p.at(token.RBrace) && !p.peek().NewlineBefore {
			p.err(diag.SynUnexpectedToken, "expected , or } after variant, found "+describe(p.peek()))
			p.resyncStmt()
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected } to close enum")
	ed.Span = p.spanFrom(start)
	return ed
}

func (p *Parser) parseTrait(start source.Span, pub bool, decorators []*ast.Decorator) ast.Item {
	p.advance()
	name, ok := p.expectIdent("trait name")
	if !ok {
		return nil
	}
	td := &ast.TraitDecl{Pub: pub, Name: name.Text, Decorators: decorators}
	td.Generics = p.parseGenericParams()
	p.pushGenerics(td.Generics)
	defer p.popGenerics()
	if p.eat(token.Colon) {
		td.Supertraits = p.parseBounds()
	}
	p.parseWhere(td.Generics)
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected { after trait name"); !ok {
		return nil
	}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		ds := p.parseDecorators()
		s := p.peek().Span
		p.parseVisibility()
		if p.at(token.KwType) {
			// associated types: `type Output;`
			p.advance()
			if name, ok := p.expectIdent("associated type name"); ok {
				td.Assoc = append(td.Assoc, &ast.AssocType{Name: name.Text, Span: p.spanFrom(s)})
			}
			p.eat(token.Semicolon)
			continue
		}
		fn := p.parseFn(s, false, ds, fnContext{owner: td.Name, trait: td.Name, inTrait: true})
		if fn == nil {
			p.resyncStmt()
			continue
		}
		td.Methods = append(td.Methods, fn)
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected } to close trait")
	td.Span = p.spanFrom(start)
	return td
}

func (p *Parser) parseImpl(start source.Span) ast.Item {
	p.advance()
	im := &ast.ImplDecl{}
	im.Generics = p.parseGenericParams()
	p.pushGenerics(im.Generics)
	defer p.popGenerics()

	first := p.parseType()
	if p.eat(token.KwFor) {
		im.Trait = first
		im.Target = p.parseType()
	} else {
		im.Target = first
	}
	p.parseWhere(im.Generics)
	if im.Target == nil {
		return nil
	}
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected { after impl header"); !ok {
		return nil
	}
	owner, trait := im.TargetName(), im.TraitName()
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		ds := p.parseDecorators()
		s := p.peek().Span
		pub := p.parseVisibility()
		if p.at(token.KwType) {
			// `type Output = Vec2;`
			p.advance()
			name, ok := p.expectIdent("associated type name")
			at := &ast.AssocType{Name: name.Text}
			if p.eat(token.Assign) {
				at.Type = p.parseType()
			}
			p.eat(token.Semicolon)
			if ok {
				at.Span = p.spanFrom(s)
				im.Assoc = append(im.Assoc, at)
			}
			continue
		}
		fn := p.parseFn(s, pub, ds, fnContext{owner: owner, trait: trait})
		if fn == nil {
			p.resyncStmt()
			continue
		}
		im.Methods = append(im.Methods, fn)
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected } to close impl")
	im.Span = p.spanFrom(start)
	return im
}

func (p *Parser) parseMod(start source.Span, pub bool) ast.Item {
	p.advance()
	name, ok := p.expectIdent("module name")
	if !ok {
		return nil
	}
	md := &ast.ModDecl{Pub: pub, Name: name.Text}
	if p.eat(token.Semicolon) || !p.at(token.LBrace) {
		md.External = true
		md.Span = p.spanFrom(start)
		return md
	}
	p.advance()
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		before := p.pos
		if it := p.parseItem(); it != nil {
			md.Items = spliceItem(md.Items, it)
		} else if p.pos == before {
			p.advance()
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected } to close module")
	md.Span = p.spanFrom(start)
	return md
}

// parseUse: use a::b::C, use a::b::{C, D as E}, use a::*.
func (p *Parser) parseUse(start source.Span, pub bool) ast.Item {
	p.advance()
	ud := &ast.UseDecl{Pub: pub}
	var segs []string
	for {
		t := p.peek()
		switch t.Kind {
		case token.Ident, token.KwCrate, token.KwSuper, token.KwSelf, token.KwSelfType:
			segs = append(segs, p.advance().Text)
		case token.Star:
			p.advance()
			ud.Glob = true
		case token.LBrace:
			p.advance()
			for !p.at(token.RBrace) && !p.at(token.EOF) {
				leaf, ok := p.parseUseLeaf()
				if !ok {
					break
				}
				ud.Leaves = append(ud.Leaves, leaf)
				if !p.eat(token.Comma) {
					break
				}
			}
			p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected } to close use group")
		default:
			p.err(diag.SynExpectIdentifier, "expected path segment in use, found "+describe(t))
			return nil
		}
		if ud.Glob || len(ud.Leaves) > 0 || !p.eat(token.ColonColon) {
			break
		}
	}
	switch {
	case ud.Glob || len(ud.Leaves) > 0:
		ud.Prefix = segs
	case len(segs) > 0:
		leaf := ast.UseLeaf{Name: segs[len(segs)-1]}
		if p.eat(token.KwAs) {
			if alias, ok := p.expectIdent("alias"); ok {
				leaf.Alias = alias.Text
			}
		}
		ud.Prefix = segs[:len(segs)-1]
		ud.Leaves = []ast.UseLeaf{leaf}
	}
	p.eat(token.Semicolon)
	ud.Span = p.spanFrom(start)
	return ud
}

func (p *Parser) parseUseLeaf() (ast.UseLeaf, bool) {
	var leaf ast.UseLeaf
	switch p.peek().Kind {
	case token.Ident, token.KwSelf, token.KwSelfType:
		leaf.Name = p.advance().Text
	default:
		p.err(diag.SynExpectIdentifier, "expected name in use group, found "+describe(p.peek()))
		return leaf, false
	}
	if p.eat(token.KwAs) {
		if alias, ok := p.expectIdent("alias"); ok {
			leaf.Alias = alias.Text
		}
	}
	return leaf, true
}

func (p *Parser) parseConst(start source.Span, pub bool) ast.Item {
	static := p.advance().Kind == token.KwStatic
	cd := &ast.ConstDecl{Pub: pub, Static: static}
	cd.Mut = static && p.eat(token.KwMut)
	name, ok := p.expectIdent("constant name")
	if !ok {
		return nil
	}
	cd.Name = name.Text
	if p.eat(token.Colon) {
		cd.Type = p.parseType()
	}
	if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken, "expected = in constant"); ok {
		cd.Value = p.parseExpr()
	}
	p.eat(token.Semicolon)
	cd.Span = p.spanFrom(start)
	return cd
}

func (p *Parser) parseTypeAlias(start source.Span, pub bool) ast.Item {
	p.advance()
	name, ok := p.expectIdent("type alias name")
	if !ok {
		return nil
	}
	ta := &ast.TypeAlias{Pub: pub, Name: name.Text}
	if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken, "expected = in type alias"); ok {
		ta.Type = p.parseType()
	}
	p.eat(token.Semicolon)
	ta.Span = p.spanFrom(start)
	return ta
}

func itoa(i int) string {
	if i < 10 {
		return string(rune('0' + i))
	}
	return itoa(i/10) + string(rune('0'+i%10))
}
