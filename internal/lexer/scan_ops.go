package lexer

import (
	"windjammer/internal/diag"
	"windjammer/internal/token"
)

type opEntry struct {
	text string
	kind token.Kind
}

// Жадность: сначала трёхсимвольные, затем двух-, затем односимвольные.
var multiOps = []opEntry{
	{"..=", token.DotDotEq},
	{"<<=", token.ShlAssign},
	{">>=", token.ShrAssign},
	{"..", token.DotDot},
	{"::", token.ColonColon},
	{"->", token.Arrow},
	{"=>", token.FatArrow},
	{"&&", token.AndAnd},
	{"||", token.OrOr},
	{"==", token.EqEq},
	{"!=", token.BangEq},
	{"<=", token.LtEq},
	{">=", token.GtEq},
	{"+=", token.PlusAssign},
	{"-=", token.MinusAssign},
	{"*=", token.StarAssign},
	{"/=", token.SlashAssign},
	{"%=", token.PercentAssign},
	{"&=", token.AmpAssign},
	{"|=", token.PipeAssign},
	{"^=", token.CaretAssign},
	{"<<", token.Shl},
}

var singleOps = map[byte]token.Kind{
	'+': token.Plus,
	'-': token.Minus,
	'*': token.Star,
	'/': token.Slash,
	'%': token.Percent,
	'=': token.Assign,
	'!': token.Bang,
	'<': token.Lt,
	'>': token.Gt,
	'&': token.Amp,
	'|': token.Pipe,
	'^': token.Caret,
	'?': token.Question,
	':': token.Colon,
	';': token.Semicolon,
	',': token.Comma,
	'.': token.Dot,
	'(': token.LParen,
	')': token.RParen,
	'{': token.LBrace,
	'}': token.RBrace,
	'[': token.LBracket,
	']': token.RBracket,
	'@': token.At,
	'_': token.Underscore,
	'#': token.Hash,
}

// scanOperatorOrPunct never produces '>>': generic closers like Vec<Vec<T>> must
// stay two tokens, the parser folds '>' '>' into a shift when needed.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	for _, op := range multiOps {
		if lx.hasPrefix(op.text) {
			for range len(op.text) {
				lx.cursor.Bump()
			}
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: op.kind, Span: sp, Text: op.text}
		}
	}
	ch := lx.cursor.Bump()
	sp := lx.cursor.SpanFrom(start)
	if k, ok := singleOps[ch]; ok {
		return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}
	}
	lx.errLex(diag.LexUnknownChar, sp, "unknown character")
	return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
}

func (lx *Lexer) hasPrefix(s string) bool {
	for i := range len(s) {
		if lx.cursor.PeekAt(uint32(i)) != s[i] { // #nosec G115 -- operator length
			return false
		}
	}
	return true
}
