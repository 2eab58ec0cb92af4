// Package rustgen turns an analyzed WJ program into Rust source. Every
// decision about reference forms is taken here from what sema, usage and
// ownership recorded: `&` and `&mut` at call sites, `*` on Copy borrows,
// `.clone()` before a later use, `.to_string()` on string literals, `mut` on
// mutated bindings, `unsafe` around FFI calls and the std import preamble.
package rustgen

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"windjammer/internal/ast"
	"windjammer/internal/copyclass"
	"windjammer/internal/diag"
	"windjammer/internal/ownership"
	"windjammer/internal/registry"
	"windjammer/internal/sema"
)

// ErrEmitFailed wraps the first emission error; the diagnostic itself goes
// to the reporter.
var ErrEmitFailed = errors.New("rust emission failed")

const indentUnit = "    "

// Options tune how one program is emitted.
type Options struct {
	// Library skips `fn main` of the root module.
	Library bool
	// UsePath renders a crate-absolute module path as seen from module
	// from. Layout supplies it; the default is `crate::a::b`.
	UsePath func(from, target []string) string
}

// Output is the Rust text of one WJ file.
type Output struct {
	Module []string
	Uses   []string // std imports first, then user `use` lines
	Body   string
}

// Source joins the preamble and the body.
func (o *Output) Source() string {
	var b strings.Builder
	for _, u := range o.Uses {
		b.WriteString(u)
		b.WriteByte('\n')
	}
	if len(o.Uses) > 0 && o.Body != "" {
		b.WriteByte('\n')
	}
	b.WriteString(o.Body)
	return b.String()
}

type Emitter struct {
	in   *sema.Info
	own  *ownership.Result
	cc   *copyclass.Result
	reg  *registry.Registry
	rep  diag.Reporter
	opts Options

	// per file
	imports  map[string]bool
	userStd  map[string]bool
	userGlob []string
	userUses []string
	err      error
}

func New(in *sema.Info, own *ownership.Result, cc *copyclass.Result, rep diag.Reporter, opts Options) *Emitter {
	if opts.UsePath == nil {
		opts.UsePath = func(_, target []string) string {
			return strings.Join(append([]string{"crate"}, target...), "::")
		}
	}
	return &Emitter{
		in:   in,
		own:  own,
		cc:   cc,
		reg:  in.Reg,
		rep:  rep,
		opts: opts,
	}
}

// EmitProgram emits every file of prog in order.
func (e *Emitter) EmitProgram(prog *ast.Program) ([]*Output, error) {
	out := make([]*Output, 0, len(prog.Files))
	for _, f := range prog.Files {
		o, err := e.EmitFile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

// EmitFile emits one file. The first error aborts the file: the text
// produced so far is discarded.
func (e *Emitter) EmitFile(f *ast.File) (*Output, error) {
	e.imports = make(map[string]bool)
	e.userStd = make(map[string]bool)
	e.userGlob = nil
	e.userUses = nil
	e.err = nil

	var b strings.Builder
	e.items(&b, f.Module, f.Items, 0)
	if e.err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, e.err)
	}
	return &Output{Module: f.Module, Uses: e.preamble(), Body: b.String()}, nil
}

func (e *Emitter) fail(b *diag.ReportBuilder) {
	b.Emit()
	if e.err == nil {
		e.err = fmt.Errorf("%w: %s", ErrEmitFailed, b.Diagnostic().Message)
	}
}

// preamble renders the std imports the body needs and the user's own
// top-level `use` lines.
func (e *Emitter) preamble() []string {
	var std []string
	for p := range e.imports {
		if e.userStd[p] || slices.ContainsFunc(e.userGlob, func(g string) bool {
			return strings.HasPrefix(p, g+"::")
		}) {
			continue
		}
		std = append(std, "use "+p+";")
	}
	slices.Sort(std)
	out := std
	seen := make(map[string]bool, len(e.userUses))
	for _, u := range e.userUses {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}
