package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"windjammer/internal/diag"
	"windjammer/internal/lexer"
	"windjammer/internal/parser"
	"windjammer/internal/source"
)

func TestJSONBasic(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.wj", []byte("fn main() {\n    let x = \"open\n}\n"))
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.LexUnterminatedString, source.Span{File: id, Start: 24, End: 29}, "unterminated string literal").
		WithNote(source.Span{File: id, Start: 0, End: 2}, "inside this function").
		WithHelp("close the string"))
	bag.Add(diag.New(diag.SevWarning, diag.SemExternAssumed, source.Span{File: id, Start: 16, End: 17}, "assumed extern"))

	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, IncludeNotes: true, PathMode: PathModeBasename}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 2 || out.Errors != 1 || out.Warnings != 1 {
		t.Fatalf("counts = %d/%d/%d", out.Count, out.Errors, out.Warnings)
	}
	d := out.Diagnostics[0]
	if d.Severity != "error" || d.Code != "E1002" || d.Phase != "lex" {
		t.Errorf("unexpected header: %+v", d)
	}
	if d.Location == nil || d.Location.File != "test.wj" || d.Location.StartLine != 2 || d.Location.StartCol != 13 {
		t.Errorf("unexpected location: %+v", d.Location)
	}
	if len(d.Notes) != 1 || d.Notes[0].Location == nil || d.Notes[0].Location.StartLine != 1 {
		t.Errorf("unexpected notes: %+v", d.Notes)
	}
	if len(d.Help) != 1 || d.Help[0] != "close the string" {
		t.Errorf("unexpected help: %v", d.Help)
	}
	if out.Diagnostics[1].Code != "W3005" {
		t.Errorf("warning code = %s", out.Diagnostics[1].Code)
	}
}

func TestJSONMaxAndPreview(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("p.wj", []byte("let a = b\nlet c = d\n"))
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.SemNameResolution, source.Span{File: id, Start: 8, End: 9}, "unresolved name `b`").
		WithSuggestion("did you mean `a`", source.Span{File: id, Start: 8, End: 9}, "a"))
	bag.Add(diag.NewError(diag.SemNameResolution, source.Span{File: id, Start: 18, End: 19}, "unresolved name `d`"))

	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1, IncludePreviews: true})
	if out.Count != 1 || out.Errors != 2 {
		t.Fatalf("count = %d, errors = %d", out.Count, out.Errors)
	}
	s := out.Diagnostics[0].Suggestions
	if len(s) != 1 || s[0].Replacement == nil || *s[0].Replacement != "a" {
		t.Fatalf("unexpected suggestions: %+v", s)
	}
	if strings.Join(s[0].BeforeLines, "|") != "let a = b" || strings.Join(s[0].AfterLines, "|") != "let a = a" {
		t.Errorf("preview = %v -> %v", s[0].BeforeLines, s[0].AfterLines)
	}
}

func TestTokensJSON(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("t.wj", []byte("fn main() {}\n"))
	toks := lexer.New(fs.Get(id), lexer.Options{}).All()

	var buf bytes.Buffer
	if err := FormatTokensJSON(&buf, toks); err != nil {
		t.Fatal(err)
	}
	var out []TokenOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(out) != len(toks) || out[0].Kind != "fn" || out[len(out)-1].Kind != "end of file" {
		t.Errorf("unexpected tokens: %+v", out)
	}

	buf.Reset()
	if err := FormatTokensPretty(&buf, toks, fs); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "at 1:1-1:3") {
		t.Errorf("pretty tokens:\n%s", buf.String())
	}
}

func TestASTDump(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(0)
	f := parser.ParseSource(fs, "add.wj", "fn add(a: int, b: int) -> int {\n    a + b\n}\n", bag)
	if bag.Len() != 0 {
		t.Fatalf("parse errors: %d", bag.Len())
	}

	var buf bytes.Buffer
	if err := FormatASTPretty(&buf, f, fs); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"File add.wj", "└─ FnDecl add", "Param a", "Binary +", "Ident b"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := FormatASTJSON(&buf, f); err != nil {
		t.Fatal(err)
	}
	var node ASTNodeOutput
	if err := json.Unmarshal(buf.Bytes(), &node); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if node.Type != "File" || len(node.Children) != 1 || node.Children[0].Text != "add" {
		t.Errorf("unexpected tree: %+v", node)
	}
}
