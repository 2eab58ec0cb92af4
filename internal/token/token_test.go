package token

import "testing"

func TestLookupKeyword(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"fn", KwFn, true},
		{"Self", KwSelfType, true},
		{"self", KwSelf, true},
		{"string", Invalid, false},
		{"Fn", Invalid, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := LookupKeyword(tt.in)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Fatalf("LookupKeyword(%q) = %v, %v", tt.in, got, ok)
			}
		})
	}
}

func TestKeywordRange(t *testing.T) {
	for text, k := range keywords {
		if !(Token{Kind: k}).IsKeyword() {
			t.Errorf("%q is not inside the keyword range", text)
		}
		if k.String() != text {
			t.Errorf("%v.String() = %q, want %q", k, k.String(), text)
		}
	}
	if (Token{Kind: Ident}).IsKeyword() {
		t.Error("Ident must not be a keyword")
	}
}
