package lexer

import (
	"testing"

	"windjammer/internal/diag"
	"windjammer/internal/source"
	"windjammer/internal/token"
)

func lexAll(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSetWithBase("")
	id := fs.AddVirtual("test.wj", []byte(src))
	bag := diag.NewBag(0)
	lx := New(fs.Get(id), Options{Reporter: diag.BagReporter{Bag: bag}})
	return lx.All(), bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexBasics(t *testing.T) {
	toks, bag := lexAll(t, `fn add(a: int, b: int) -> int { a + b }`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %d", bag.Len())
	}
	want := []token.Kind{
		token.KwFn, token.Ident, token.LParen, token.Ident, token.Colon, token.Ident, token.Comma,
		token.Ident, token.Colon, token.Ident, token.RParen, token.Arrow, token.Ident,
		token.LBrace, token.Ident, token.Plus, token.Ident, token.RBrace, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexNumbers(t *testing.T) {
	cases := []struct {
		src  string
		kind token.Kind
		text string
	}{
		{"42", token.IntLit, "42"},
		{"1_000", token.IntLit, "1_000"},
		{"3.14", token.FloatLit, "3.14"},
		{"0u64", token.IntLit, "0u64"},
		{"2f32", token.FloatLit, "2f32"},
		{"0xff", token.IntLit, "0xff"},
		{"1e10", token.FloatLit, "1e10"},
	}
	for _, tc := range cases {
		toks, bag := lexAll(t, tc.src)
		if bag.Len() != 0 {
			t.Errorf("%s: unexpected diagnostics", tc.src)
			continue
		}
		if toks[0].Kind != tc.kind || toks[0].Text != tc.text {
			t.Errorf("%s: got %s %q", tc.src, toks[0].Kind, toks[0].Text)
		}
		if toks[1].Kind != token.EOF {
			t.Errorf("%s: suffix must stay inside the literal, next is %s", tc.src, toks[1].Kind)
		}
	}
}

func TestLexRangeIsNotFloat(t *testing.T) {
	toks, _ := lexAll(t, "0..10")
	got := kinds(toks)
	want := []token.Kind{token.IntLit, token.DotDot, token.IntLit, token.EOF}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexBadSuffix(t *testing.T) {
	_, bag := lexAll(t, "10xyz")
	if !bag.HasErrors() || bag.Items()[0].Code != diag.LexBadNumber {
		t.Fatalf("expected LexBadNumber")
	}
}

func TestLexNeverJoinsShift(t *testing.T) {
	toks, _ := lexAll(t, "Vec<Vec<i32>>")
	got := kinds(toks)
	if got[len(got)-3] != token.Gt || got[len(got)-2] != token.Gt {
		t.Fatalf("expected two separate >, got %v", got)
	}
}

func TestLexNewlineBefore(t *testing.T) {
	toks, _ := lexAll(t, "a\n// comment\nb c")
	if toks[0].NewlineBefore {
		t.Errorf("first token has no preceding newline")
	}
	if !toks[1].NewlineBefore {
		t.Errorf("b follows a newline")
	}
	if toks[2].NewlineBefore {
		t.Errorf("c is on the same line as b")
	}
}

func TestLexStringsAndChars(t *testing.T) {
	toks, bag := lexAll(t, `"he said \"hi\"" 'x' '\n'`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics")
	}
	if toks[0].Kind != token.StringLit || toks[0].Text != `"he said \"hi\""` {
		t.Errorf("string: %s %q", toks[0].Kind, toks[0].Text)
	}
	if toks[1].Kind != token.CharLit || toks[2].Kind != token.CharLit {
		t.Errorf("chars: %s %s", toks[1].Kind, toks[2].Kind)
	}

	_, bag = lexAll(t, `"open`)
	if !bag.HasErrors() || bag.Items()[0].Code != diag.LexUnterminatedString {
		t.Errorf("expected unterminated string")
	}
}
