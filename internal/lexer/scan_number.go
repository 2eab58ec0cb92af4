package lexer

import (
	"strings"

	"windjammer/internal/diag"
	"windjammer/internal/token"
)

var numericSuffixes = []string{
	"i8", "i16", "i32", "i64", "i128", "isize",
	"u8", "u16", "u32", "u64", "u128", "usize",
	"f32", "f64",
}

// scanNumber: 0, 1_000, 0x.., 0o.., 0b.., 1.5, 2e10, с необязательным суффиксом типа.
// Суффикс всегда остаётся частью литерала, отдельный токен типа не создаётся.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit

	radix := false
	if lx.cursor.Peek() == '0' {
		switch lx.cursor.PeekAt(1) {
		case 'x', 'X', 'o', 'O', 'b', 'B':
			radix = true
			lx.cursor.Bump()
			lx.cursor.Bump()
			for isHex(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
				// b/e are hex digits; suffixes start with i/u so they stop the loop
				lx.cursor.Bump()
			}
		}
	}
	if !radix {
		lx.eatDigits()
		// "1..2" is a range, "1.foo()" is a method call
		if lx.cursor.Peek() == '.' && isDec(lx.cursor.PeekAt(1)) {
			kind = token.FloatLit
			lx.cursor.Bump()
			lx.eatDigits()
		}
		if c := lx.cursor.Peek(); c == 'e' || c == 'E' {
			next := lx.cursor.PeekAt(1)
			if isDec(next) || ((next == '+' || next == '-') && isDec(lx.cursor.PeekAt(2))) {
				kind = token.FloatLit
				lx.cursor.Bump()
				if n := lx.cursor.Peek(); n == '+' || n == '-' {
					lx.cursor.Bump()
				}
				lx.eatDigits()
			}
		}
	}

	if isIdentStartByte(lx.cursor.Peek()) {
		sufStart := lx.cursor.Mark()
		for isIdentContinueByte(lx.cursor.Peek()) && !lx.cursor.EOF() {
			lx.cursor.Bump()
		}
		suffix := lx.text(lx.cursor.SpanFrom(sufStart))
		if !validSuffix(suffix) {
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexBadNumber, sp, "invalid suffix "+suffix+" on numeric literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
		}
		if strings.HasPrefix(suffix, "f") {
			kind = token.FloatLit
		}
	}

	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp)}
}

func (lx *Lexer) eatDigits() {
	for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Bump()
	}
}

func validSuffix(s string) bool {
	for _, suf := range numericSuffixes {
		if s == suf {
			return true
		}
	}
	return false
}
