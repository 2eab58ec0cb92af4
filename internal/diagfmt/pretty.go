package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"windjammer/internal/diag"
	"windjammer/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, note, bold, gutter, caret, add *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		note:   color.New(color.FgCyan, color.Bold),
		bold:   color.New(color.Bold),
		gutter: color.New(color.FgBlue, color.Bold),
		caret:  color.New(color.FgRed, color.Bold),
		add:    color.New(color.FgGreen),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.note, p.bold, p.gutter, p.caret, p.add} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	}
	return p.note
}

// Pretty форматирует диагностики в человекочитаемый вид:
//
//	error[E3002]: ambiguous method `update`
//	 --> src/main.wj:4:9
//	  |
//	4 |     shape.update()
//	  |           ^^^^^^
//	  = note: src/a.wj:3:5: candidate `A::update`
//	  = help: annotate the type of the receiver
//
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	items := bag.Items()
	shown := len(items)
	if opts.Max > 0 && opts.Max < shown {
		shown = opts.Max
	}
	pal := newPalette(opts.Color)
	for i := range shown {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyOne(w, &items[i], fs, opts, pal)
	}
	if rest := len(items) - shown; rest > 0 {
		fmt.Fprintf(w, "\n... and %d more diagnostics\n", rest)
	}
}

func prettyOne(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	sev := pal.severity(d.Severity)
	fmt.Fprintf(w, "%s%s\n", sev.Sprintf("%s[%s]", d.Severity, d.Code.ID()), pal.bold.Sprint(": "+d.Message))

	if !hasFile(fs, d.Primary) {
		writeTrailer(w, d, fs, opts, pal, 0)
		return
	}
	start, end := fs.Resolve(d.Primary)
	file := fs.Get(d.Primary.File)

	first := max(int(start.Line)-int(opts.Context), 1)
	last := int(start.Line) + int(opts.Context)
	gw := len(strconv.Itoa(last))
	pad := strings.Repeat(" ", gw)

	fmt.Fprintf(w, "%s%s %s:%d:%d\n", pad, pal.gutter.Sprint("-->"), displayPath(file, fs, opts.PathMode), start.Line, start.Col)
	fmt.Fprintf(w, "%s %s\n", pad, pal.gutter.Sprint("|"))
	for ln := first; ln <= last; ln++ {
		text, ok := lineText(file, ln)
		if !ok {
			break
		}
		num := fmt.Sprintf("%*d", gw, ln)
		fmt.Fprintf(w, "%s %s %s\n", pal.gutter.Sprint(num), pal.gutter.Sprint("|"), expandTabs(text))
		if ln != int(start.Line) {
			continue
		}
		col, width := caretRange(text, start, end)
		fmt.Fprintf(w, "%s %s %s%s\n", pad, pal.gutter.Sprint("|"), strings.Repeat(" ", col), pal.caret.Sprint(strings.Repeat("^", width)))
	}
	writeTrailer(w, d, fs, opts, pal, gw)
}

func writeTrailer(w io.Writer, d *diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette, gw int) {
	pad := strings.Repeat(" ", gw+1)
	eq := pal.gutter.Sprint("=")
	if opts.ShowNotes {
		for _, n := range d.Notes {
			msg := n.Msg
			if hasFile(fs, n.Span) {
				loc := fs.Locate(n.Span)
				msg = fmt.Sprintf("%s:%d:%d: %s", displayPath(fs.Get(n.Span.File), fs, opts.PathMode), loc.Line, loc.Col, msg)
			}
			fmt.Fprintf(w, "%s%s %s %s\n", pad, eq, pal.bold.Sprint("note:"), msg)
		}
	}
	for _, h := range d.Help {
		fmt.Fprintf(w, "%s%s %s %s\n", pad, eq, pal.bold.Sprint("help:"), h)
	}
	for _, s := range d.Suggestions {
		fmt.Fprintf(w, "%s%s %s %s\n", pad, eq, pal.bold.Sprint("suggestion:"), s.Message)
		if !opts.ShowPreview || s.Replacement == nil {
			continue
		}
		preview, err := buildSuggestionPreview(fs, s)
		if err != nil {
			continue
		}
		for _, l := range preview.before {
			fmt.Fprintf(w, "%s  %s %s\n", pad, pal.err.Sprint("-"), expandTabs(l))
		}
		for _, l := range preview.after {
			fmt.Fprintf(w, "%s  %s %s\n", pad, pal.add.Sprint("+"), expandTabs(l))
		}
	}
}

func hasFile(fs *source.FileSet, sp source.Span) bool {
	return fs != nil && int(sp.File) < fs.Len()
}

func lineText(f *source.File, ln int) (string, bool) {
	if ln < 1 || ln > len(f.LineIdx)+1 {
		return "", false
	}
	return f.GetLine(uint32(ln)), true // #nosec G115 -- ln bounded by the line index
}

// caretRange returns the display column of the span start on its line and
// the display width of the underlined part, at least one cell.
func caretRange(line string, start, end source.LineCol) (col, width int) {
	from := min(int(start.Col)-1, len(line))
	to := len(line)
	if end.Line == start.Line {
		to = min(max(int(end.Col)-1, from), len(line))
	}
	col = runewidth.StringWidth(expandTabs(line[:from]))
	width = runewidth.StringWidth(expandTabs(line[from:to]))
	return col, max(width, 1)
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

func displayPath(f *source.File, fs *source.FileSet, mode PathMode) string {
	switch mode {
	case PathModeAbsolute:
		return f.FormatPath("absolute", "")
	case PathModeRelative:
		return f.FormatPath("relative", fs.BaseDir())
	case PathModeBasename:
		return f.FormatPath("basename", "")
	}
	return f.FormatPath("auto", "")
}
