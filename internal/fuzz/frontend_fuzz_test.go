package fuzztests

import (
	"testing"
	"time"

	"windjammer/internal/diag"
	"windjammer/internal/driver"
	"windjammer/internal/lexer"
	"windjammer/internal/parser"
	"windjammer/internal/source"
)

// timeout for one input; longer means a loop in error recovery
const parseTimeout = 5 * time.Second

func FuzzLexerTokens(f *testing.F) {
	addSeeds(f)
	f.Fuzz(func(_ *testing.T, input []byte) {
		fs := source.NewFileSet()
		id := fs.AddVirtual("fuzz.wj", clamp(input))
		bag := diag.NewBag(64)
		_ = lexer.New(fs.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: bag}}).All()
	})
}

func FuzzParserNoHang(f *testing.F) {
	addSeeds(f)
	f.Add([]byte("fn test() { let x: int = 1\nlet y: int = 2; }"))
	f.Add([]byte("fn f() { match x { } }"))
	f.Add([]byte("fn f() { if a { } else if { } }"))

	f.Fuzz(func(t *testing.T, input []byte) {
		input = clamp(input)
		done := make(chan struct{})
		go func() {
			defer close(done)
			fs := source.NewFileSet()
			id := fs.AddVirtual("fuzz.wj", input)
			_ = parser.ParseFile(fs, id, nil, parser.Options{
				Reporter:  diag.BagReporter{Bag: diag.NewBag(128)},
				MaxErrors: 128,
			})
		}()
		select {
		case <-done:
		case <-time.After(parseTimeout):
			t.Fatalf("parser hang: more than %v on %d bytes: %q", parseTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

// FuzzCompile runs the whole pipeline; errors are fine, panics are not.
func FuzzCompile(f *testing.F) {
	addSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		res, err := driver.CompileToRust(string(clamp(input)), "fuzz.wj")
		if err == nil && res.Diagnostics.HasErrors() {
			t.Fatalf("no error returned, but the bag has errors: %v", res.Diagnostics.Items())
		}
	})
}

func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], "..."...)
}
