package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"windjammer/internal/diag"
	"windjammer/internal/source"
)

func render(bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) string {
	var buf bytes.Buffer
	Pretty(&buf, bag, fs, opts)
	return buf.String()
}

func TestPrettyHeaderAndCaret(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.wj", []byte("fn main() {\n    shape.update()\n}\n"))
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.SemAmbiguousMethod, source.Span{File: id, Start: 22, End: 28}, "ambiguous method `update`"))

	out := render(bag, fs, PrettyOpts{PathMode: PathModeBasename})
	for _, want := range []string{
		"error[E3002]: ambiguous method `update`",
		" --> test.wj:2:11",
		"2 |     shape.update()",
		"  | " + strings.Repeat(" ", 10) + "^^^^^^",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("colour escapes with Color=false:\n%s", out)
	}
}

func TestPrettyWideRunes(t *testing.T) {
	fs := source.NewFileSet()
	src := "let s = \"日本\" + x\n"
	id := fs.AddVirtual("wide.wj", []byte(src))
	at := uint32(strings.Index(src, "x"))
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.SemNameResolution, source.Span{File: id, Start: at, End: at + 1}, "unresolved name `x`"))

	out := render(bag, fs, PrettyOpts{})
	// "日本" занимает четыре колонки
	want := "  | " + strings.Repeat(" ", 17) + "^\n"
	if !strings.Contains(out, want) {
		t.Errorf("caret misaligned, want %q in:\n%s", want, out)
	}
}

func TestPrettyTrailer(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("a.wj", []byte("fn f(x: int) {\n    let y = x\n}\n"))
	bag := diag.NewBag(0)
	d := diag.NewError(diag.SemUnknownMethod, source.Span{File: id, Start: 27, End: 28}, "no method").
		WithNote(source.Span{File: id, Start: 5, End: 6}, "parameter declared here").
		WithHelp("check the spelling").
		WithSuggestion("use the parameter", source.Span{File: id, Start: 27, End: 28}, "x.clone()")
	bag.Add(d)

	out := render(bag, fs, PrettyOpts{ShowNotes: true, ShowPreview: true, PathMode: PathModeBasename})
	for _, want := range []string{
		"= note: a.wj:1:6: parameter declared here",
		"= help: check the spelling",
		"= suggestion: use the parameter",
		"- " + "    let y = x",
		"+ " + "    let y = x.clone()",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	out = render(bag, fs, PrettyOpts{})
	if strings.Contains(out, "note:") {
		t.Errorf("notes rendered without ShowNotes:\n%s", out)
	}
}

func TestPrettyMax(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("m.wj", []byte("a b c\n"))
	bag := diag.NewBag(0)
	for i := range uint32(3) {
		bag.Add(diag.NewError(diag.SynUnexpectedToken, source.Span{File: id, Start: i * 2, End: i*2 + 1}, "unexpected token"))
	}
	out := render(bag, fs, PrettyOpts{Max: 1})
	if got := strings.Count(out, "error[E2001]"); got != 1 {
		t.Errorf("want one diagnostic, got %d:\n%s", got, out)
	}
	if !strings.Contains(out, "... and 2 more diagnostics") {
		t.Errorf("missing truncation line:\n%s", out)
	}
}

func TestPrettyWithoutFile(t *testing.T) {
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.PrjNoSources, source.Span{}, "no .wj files in src").WithHelp("pass the source directory"))
	out := render(bag, source.NewFileSet(), PrettyOpts{})
	if !strings.Contains(out, "error[E5005]: no .wj files in src") || !strings.Contains(out, "= help: pass the source directory") {
		t.Errorf("unexpected output:\n%s", out)
	}
	if strings.Contains(out, "-->") {
		t.Errorf("location printed for a span without file:\n%s", out)
	}
}
