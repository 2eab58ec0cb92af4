package source

import (
	"testing"
)

func TestResolveLineCol(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("main.wj", []byte("fn main() {\n    let x = 1\n}\n"))

	tests := []struct {
		name string
		off  uint32
		want LineCol
	}{
		{"start", 0, LineCol{1, 1}},
		{"first line end", 11, LineCol{1, 12}},
		{"second line", 12, LineCol{2, 1}},
		{"let keyword", 16, LineCol{2, 5}},
		{"last line", 26, LineCol{3, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := fs.Resolve(Span{File: id, Start: tt.off, End: tt.off})
			if got != tt.want {
				t.Errorf("Resolve(%d) = %+v, want %+v", tt.off, got, tt.want)
			}
		})
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.wj", []byte("one\ntwo\nthree"))
	f := fs.Get(id)
	for n, want := range map[uint32]string{0: "", 1: "one", 2: "two", 3: "three", 4: ""} {
		if got := f.GetLine(n); got != want {
			t.Errorf("GetLine(%d) = %q, want %q", n, got, want)
		}
	}
}

func TestAddNormalized(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddNormalized("b.wj", []byte("\xEF\xBB\xBFa\r\nb\r\n"))
	f := fs.Get(id)
	if string(f.Content) != "a\nb\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Errorf("flags = %b, want BOM and CRLF", f.Flags)
	}
}

func TestLocateAndText(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("c.wj", []byte("let a = b\nlet c = d"))
	sp := Span{File: id, Start: 14, End: 15}
	if got := fs.Locate(sp).String(); got != "c.wj:2:5" {
		t.Errorf("Locate = %s", got)
	}
	if got := fs.Text(sp); got != "c" {
		t.Errorf("Text = %q", got)
	}
}

func TestSpanCover(t *testing.T) {
	a := Span{File: 1, Start: 4, End: 8}
	b := Span{File: 1, Start: 2, End: 6}
	if got := a.Cover(b); got != (Span{File: 1, Start: 2, End: 8}) {
		t.Errorf("Cover = %v", got)
	}
	other := Span{File: 2, Start: 0, End: 100}
	if got := a.Cover(other); got != a {
		t.Errorf("cross-file Cover = %v", got)
	}
	if !a.Cover(b).Contains(a) {
		t.Error("cover must contain a")
	}
}
