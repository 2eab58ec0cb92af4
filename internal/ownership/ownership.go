// Package ownership decides how every parameter and receiver is received
// (borrowed, mutably borrowed or owned) and which bindings must be `mut`.
//
// Modes only ever go up the Borrowed ≤ MutBorrowed ≤ Owned lattice. Each
// round walks the call graph components callees first and re-runs usage
// analysis until the component is stable, then unifies trait receivers;
// rounds repeat until nothing changes.
package ownership

import (
	"fmt"

	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/graph"
	"windjammer/internal/registry"
	"windjammer/internal/sema"
	"windjammer/internal/source"
	"windjammer/internal/types"
	"windjammer/internal/usage"
)

// maxRounds bounds the outer loop; the lattice guarantees convergence well
// before it for any real program.
const maxRounds = 64

// Result is the settled state of inference.
type Result struct {
	Facts map[*sema.FuncInfo]*usage.Facts

	// Borrows records the implicit borrow the emitter puts in front of a
	// match or if-let scrutinee so by-value captures become references.
	Borrows map[ast.Expr]types.Mode

	Rounds int
}

// FactsOf returns the final usage facts of fi.
func (r *Result) FactsOf(fi *sema.FuncInfo) *usage.Facts {
	return r.Facts[fi]
}

// Infer runs ownership inference over every function of in and writes the
// outcome into the registry signatures and the sema bindings.
func Infer(in *sema.Info, rep diag.Reporter) *Result {
	res := &Result{
		Facts:   make(map[*sema.FuncInfo]*usage.Facts, len(in.Funcs)),
		Borrows: make(map[ast.Expr]types.Mode),
	}
	applyStdTraitForms(in.Reg)

	for _, fi := range in.Funcs {
		res.Facts[fi] = usage.Analyze(in, fi)
	}
	succ := func(fi *sema.FuncInfo) []*sema.FuncInfo {
		var out []*sema.FuncInfo
		for _, sig := range res.Facts[fi].Callees {
			if callee := in.ByDecl[sig.Decl]; callee != nil {
				out = append(out, callee)
			}
		}
		return out
	}
	comps := graph.SCC(in.Funcs, succ)

	reported := make(map[*registry.Signature]bool)
	for res.Rounds = 1; res.Rounds <= maxRounds; res.Rounds++ {
		changed := false
		for _, comp := range comps {
			for {
				compChanged := false
				for _, fi := range comp {
					facts := usage.Analyze(in, fi)
					res.Facts[fi] = facts
					if inferFunc(in.Reg, fi, facts) {
						compChanged = true
					}
				}
				if !compChanged {
					break
				}
				changed = true
			}
		}
		if unifyTraits(in.Reg, rep, reported) {
			changed = true
		}
		if !changed {
			break
		}
	}
	if res.Rounds > maxRounds {
		diag.ReportError(rep, diag.SemInternal, source0(in),
			fmt.Sprintf("ownership inference did not settle after %d rounds", maxRounds)).Emit()
	}

	for _, fi := range in.Funcs {
		res.Facts[fi] = usage.Analyze(in, fi)
		settle(in.Reg, fi, res.Facts[fi])
		res.borrows(in.Reg, fi, res.Facts[fi])
	}
	return res
}

// paramMode maps the usage of a non-explicit parameter to its mode.
func paramMode(reg *registry.Registry, l *types.Label, k usage.Kind) types.Mode {
	switch {
	case reg.IsCopy(l):
		return types.Owned
	case k.Has(usage.Move | usage.Returned | usage.Reassign):
		return types.Owned
	case k.Has(usage.FieldWrite | usage.MethodCallMut | usage.RefMut):
		return types.MutBorrowed
	}
	return types.Borrowed
}

// selfMode: a Copy receiver is taken by value unless it is mutated.
func selfMode(reg *registry.Registry, l *types.Label, k usage.Kind) types.Mode {
	if reg.IsCopy(l) {
		if k.Has(usage.Mutating) {
			return types.MutBorrowed
		}
		return types.Owned
	}
	return paramMode(reg, nil, k)
}

func inferFunc(reg *registry.Registry, fi *sema.FuncInfo, facts *usage.Facts) bool {
	sig := fi.Sig
	changed := false
	for i, b := range fi.Params {
		if i >= len(sig.Params) {
			break
		}
		p := sig.Params[i]
		if p.Explicit || p.Fixed {
			continue
		}
		if reg.UpdateParamMode(sig, i, paramMode(reg, b.Label, facts.Kinds(b))) {
			changed = true
		}
	}
	if fi.Self != nil && sig.Written == types.RecvInfer {
		if reg.UpdateParamMode(sig, -1, selfMode(reg, fi.Self.Label, facts.Kinds(fi.Self))) {
			changed = true
		}
	}
	return changed
}

// settle writes the final modes and mutability into the bindings.
func settle(reg *registry.Registry, fi *sema.FuncInfo, facts *usage.Facts) {
	sig := fi.Sig
	if sig.Recv == types.RecvInfer {
		sig.Recv = types.RecvRef
	}
	for i, b := range fi.Params {
		if i >= len(sig.Params) {
			break
		}
		p := sig.Params[i]
		k := facts.Kinds(b)
		b.Mode = p.Mode
		if p.Explicit {
			b.Mode = types.Owned // the label itself is the reference
		}
		p.Mutated = b.Mode == types.Owned && !p.Explicit && k.Has(usage.Mutating)
		b.Mutable = p.Mutated
	}
	if s := fi.Self; s != nil {
		s.Mode = sig.Recv.Mode()
		sig.RecvMut = sig.Recv == types.RecvValue && facts.Kinds(s).Has(usage.Mutating)
		s.Mutable = sig.RecvMut
	}
	for _, b := range fi.Bindings {
		if b.IsParam() {
			continue
		}
		k := facts.Kinds(b)
		mut := k.Has(usage.Mutating)
		if b.Label.IsMutRef() && !k.Has(usage.Reassign) {
			// mutation goes through the reference
			mut = false
		}
		b.Mutable = mut
	}
}

func source0(in *sema.Info) (sp source.Span) {
	if len(in.Funcs) > 0 {
		return in.Funcs[0].Decl.Span
	}
	return sp
}
