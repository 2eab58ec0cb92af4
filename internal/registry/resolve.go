package registry

import (
	"slices"

	"windjammer/internal/ast"
	"windjammer/internal/types"
)

// Scope is where a call appears: the current module, the impl owner that
// `Self` names, and the generic bounds in force.
type Scope struct {
	Module []string
	Owner  string
	Bounds func(param string) []string
}

// ResolveCall returns the signature a call or method call refers to.
// Unknown callees yield ErrNotFound; unresolvable method names yield *AmbiguousError.
func (r *Registry) ResolveCall(sc Scope, callee ast.Expr, args []*types.Label) (*Signature, error) {
	switch c := callee.(type) {
	case *ast.Call:
		switch fn := ast.Unparen(c.Fn).(type) {
		case *ast.Ident:
			return r.ResolveFunc(sc, []string{fn.Name})
		case *ast.Path:
			return r.ResolveFunc(sc, fn.Segments)
		}
	case *ast.MethodCall:
		recv := c.Recv.Label()
		if recv != nil && recv.StripRefs().Kind == types.KSelf && sc.Owner != "" {
			recv = types.Named(sc.Owner)
		}
		return r.ResolveMethod(recv, c.Name, len(args), sc.Bounds)
	}
	return nil, ErrNotFound
}

// ResolveFunc resolves a free function or an associated function path.
func (r *Registry) ResolveFunc(sc Scope, path []string) (*Signature, error) {
	if len(path) == 0 {
		return nil, ErrNotFound
	}
	if len(path) == 1 {
		return r.resolveName(sc.Module, path[0])
	}

	// Type::assoc and Self::assoc
	owner := path[len(path)-2]
	if owner == "Self" {
		owner = sc.Owner
	}
	if local, ok := r.imports[joinModule(sc.Module)][owner]; ok && len(local) > 0 {
		owner = local[len(local)-1]
	}
	if sig := r.methods[MethodKey{owner, path[len(path)-1]}]; sig != nil {
		return sig, nil
	}
	for _, trait := range r.impls[owner] {
		if sig := r.methods[MethodKey{trait, path[len(path)-1]}]; sig != nil {
			return sig, nil
		}
	}

	// module::fn
	mod, ok := r.absolute(sc.Module, path[:len(path)-1])
	if !ok {
		return nil, ErrNotFound
	}
	if sig := r.funcs[FuncKey{joinModule(mod), path[len(path)-1]}]; sig != nil {
		return sig, nil
	}
	if abs, ok := r.imports[joinModule(sc.Module)][path[0]]; ok {
		full := append(slices.Clone(abs), path[1:len(path)-1]...)
		if sig := r.funcs[FuncKey{joinModule(full), path[len(path)-1]}]; sig != nil {
			return sig, nil
		}
	}
	return nil, ErrNotFound
}

func (r *Registry) resolveName(module []string, name string) (*Signature, error) {
	mk := joinModule(module)
	if sig := r.funcs[FuncKey{mk, name}]; sig != nil {
		return sig, nil
	}
	if abs, ok := r.imports[mk][name]; ok && len(abs) > 0 {
		if sig := r.funcs[FuncKey{joinModule(abs[:len(abs)-1]), abs[len(abs)-1]}]; sig != nil {
			return sig, nil
		}
	}
	for _, g := range r.globs[mk] {
		if sig := r.funcs[FuncKey{joinModule(g), name}]; sig != nil {
			return sig, nil
		}
	}
	return nil, ErrNotFound
}

// autoDeref lists wrappers whose methods resolve on the pointee.
var autoDeref = map[string]bool{"Box": true, "Rc": true, "Arc": true}

// ResolveMethod finds name on the receiver label. An unknown receiver falls
// back to every method of that name; several candidates of the call's arity
// are ambiguous.
func (r *Registry) ResolveMethod(recv *types.Label, name string, arity int, bounds func(string) []string) (*Signature, error) {
	l := recv.StripRefs()
	if l.IsUnknown() {
		return r.byArity(name, arity)
	}
	switch l.Kind {
	case types.KNamed, types.KPrim, types.KString:
		if sig := r.methods[MethodKey{l.Name, name}]; sig != nil {
			return sig, nil
		}
		for _, trait := range r.impls[l.Name] {
			if sig := r.methods[MethodKey{trait, name}]; sig != nil {
				return sig, nil
			}
		}
		if autoDeref[l.Name] && len(l.Args) == 1 {
			return r.ResolveMethod(l.Args[0], name, arity, bounds)
		}
		if td := r.types[l.Name]; td != nil && td.Kind == KindTrait {
			if sig := r.methods[MethodKey{l.Name, name}]; sig != nil {
				return sig, nil
			}
		}
	case types.KDyn, types.KImpl:
		if sig := r.methods[MethodKey{l.Name, name}]; sig != nil {
			return sig, nil
		}
	case types.KParam:
		if bounds == nil {
			break
		}
		for _, b := range bounds(l.Name) {
			if sig := r.methods[MethodKey{b, name}]; sig != nil {
				return sig, nil
			}
		}
	}
	return nil, ErrNotFound
}

func (r *Registry) byArity(name string, arity int) (*Signature, error) {
	var cands []*Signature
	for _, sig := range r.byName[name] {
		if sig.Assoc || len(sig.Params) != arity {
			continue
		}
		// a trait stub stands for its impls
		if sig.Trait != "" && !sig.Stub && r.methods[MethodKey{sig.Trait, name}] != nil {
			continue
		}
		cands = append(cands, sig)
	}
	switch len(cands) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return cands[0], nil
	}
	return nil, &AmbiguousError{Method: name, Candidates: cands}
}

// UpdateParamMode raises the mode of parameter i (-1 is the receiver) and
// reports whether anything changed. Modes never go down and written
// reference forms are never touched.
func (r *Registry) UpdateParamMode(sig *Signature, i int, mode types.Mode) bool {
	if i < 0 {
		if sig.Written != types.RecvInfer {
			return false
		}
		cur, _ := sig.RecvMode()
		if sig.Recv != types.RecvInfer && cur.Join(mode) == cur {
			return false
		}
		sig.Recv = types.ReceiverFor(cur.Join(mode))
		return true
	}
	p := sig.Params[i]
	if p.Explicit || p.Fixed || p.Mode.Join(mode) == p.Mode {
		return false
	}
	p.Mode = p.Mode.Join(mode)
	return true
}

// SetCopyOracle installs the copy classifier's answer for user types.
func (r *Registry) SetCopyOracle(f types.UserCopy) {
	r.copyOracle = f
	clear(r.copyCache)
}

// IsCopy reports whether values of l are Copy. Results are cached per label.
func (r *Registry) IsCopy(l *types.Label) bool {
	if l == nil {
		return false
	}
	key := l.String()
	if v, ok := r.copyCache[key]; ok {
		return v
	}
	v := types.IsCopy(l, r.copyOracle)
	r.copyCache[key] = v
	return v
}
