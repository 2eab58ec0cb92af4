package driver

import (
	"context"
	"fmt"

	"windjammer/internal/ast"
	"windjammer/internal/copyclass"
	"windjammer/internal/diag"
	"windjammer/internal/observ"
	"windjammer/internal/ownership"
	"windjammer/internal/registry"
	"windjammer/internal/sema"
	"windjammer/internal/types"
	"windjammer/internal/usage"
)

// AnalyzeOptions configure AnalyzeProgram. A nil Reporter drops diagnostics.
type AnalyzeOptions struct {
	Reporter diag.Reporter
	Timer    *observ.Timer
}

// FunctionAnalysis is the settled state of one function.
type FunctionAnalysis struct {
	Name      string // registry key: `add`, `math::add`, `Vec2::len`
	Module    []string
	Signature *registry.Signature
	Receiver  types.Receiver
	Modes     []types.Mode // final mode of each parameter
	Bindings  []*sema.Binding
	Facts     *usage.Facts
}

// TraitAnalysis describes a trait after receiver unification.
type TraitAnalysis struct {
	Name         string
	Module       []string
	Methods      []*registry.Signature
	Implementors []string
}

// Analysis is the result of AnalyzeProgram.
type Analysis struct {
	Registry  *registry.Registry
	Copy      *copyclass.Result
	Info      *sema.Info
	Ownership *ownership.Result
	Functions []*FunctionAnalysis
	Traits    []*TraitAnalysis
}

// AnalyzeProgram runs registration, copy classification, name resolution,
// usage analysis and ownership inference over prog. The error is
// ErrCompileFailed when any pass reported an error.
func AnalyzeProgram(prog *ast.Program, opts AnalyzeOptions) (*Analysis, error) {
	rep := &countingReporter{next: opts.Reporter}
	a, err := analyze(context.Background(), prog, rep, opts.Timer)
	if err != nil {
		return nil, err
	}
	a.collect()
	if rep.errors > 0 {
		return a, ErrCompileFailed
	}
	return a, nil
}

// analyze runs the core passes. The order is fixed: every declaration is
// registered before any body is looked at, and copy classification comes
// before sema because labels consult it.
func analyze(ctx context.Context, prog *ast.Program, rep diag.Reporter, timer *observ.Timer) (*Analysis, error) {
	a := &Analysis{Registry: registry.New()}
	// ownership revisits functions until nothing changes
	rep = diag.NewDedupReporter(rep)

	done := timer.Track("register")
	for _, f := range prog.Files {
		a.Registry.DeclareModule(f.Module)
	}
	for _, f := range prog.Files {
		a.Registry.RegisterFile(f, rep)
	}
	done(len(prog.Files))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}

	done = timer.Track("copy")
	a.Copy = copyclass.Classify(a.Registry)
	done(len(a.Registry.Types()))

	done = timer.Track("sema")
	a.Info = sema.Check(prog, a.Registry, rep)
	done(len(a.Info.Funcs))
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("analysis interrupted: %w", err)
	}

	done = timer.Track("ownership")
	a.Ownership = ownership.Infer(a.Info, rep)
	done(a.Ownership.Rounds)
	return a, ctx.Err()
}

func (a *Analysis) collect() {
	for _, fi := range a.Info.Funcs {
		fa := &FunctionAnalysis{
			Name:      fi.Sig.Key(),
			Module:    fi.Module,
			Signature: fi.Sig,
			Receiver:  fi.Sig.Recv,
			Bindings:  fi.Bindings,
			Facts:     a.Ownership.FactsOf(fi),
		}
		for _, p := range fi.Sig.Params {
			fa.Modes = append(fa.Modes, p.Mode)
		}
		a.Functions = append(a.Functions, fa)
	}

	all := a.Registry.Types()
	for _, td := range all {
		decl, ok := td.Node.(*ast.TraitDecl)
		if td.Kind != registry.KindTrait || !ok {
			continue
		}
		ta := &TraitAnalysis{Name: td.Name, Module: td.Module}
		for _, m := range decl.Methods {
			if sig := a.Registry.SignatureOf(m); sig != nil {
				ta.Methods = append(ta.Methods, sig)
			}
		}
		for _, other := range all {
			if a.Registry.Implements(other.Name, td.Name) {
				ta.Implementors = append(ta.Implementors, other.Name)
			}
		}
		a.Traits = append(a.Traits, ta)
	}
}
