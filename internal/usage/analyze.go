package usage

import (
	"windjammer/internal/ast"
	"windjammer/internal/registry"
	"windjammer/internal/sema"
	"windjammer/internal/token"
	"windjammer/internal/types"
)

// Analyze collects the usage facts of one function. Parameter forms of
// callees are read from the registry as they currently stand, so callers
// re-run it while inference is still raising modes.
func Analyze(in *sema.Info, fi *sema.FuncInfo) *Facts {
	w := &walker{
		in:  in,
		reg: in.Reg,
		fi:  fi,
		f: &Facts{
			Func:         fi,
			Records:      make(map[*sema.Binding]*Record),
			Sites:        make(map[*ast.Ident]*Site),
			BorrowBreaks: make(map[ast.Expr]bool),
		},
		seen: make(map[*registry.Signature]bool),
	}
	for _, b := range fi.Bindings {
		w.f.Records[b] = &Record{Binding: b}
	}
	w.block(fi.Decl.Body, roleReturn)
	return w.f
}

type role uint8

const (
	roleRead role = iota
	roleMove
	roleReturn // moved out of the function
)

type walker struct {
	in       *sema.Info
	reg      *registry.Registry
	fi       *sema.FuncInfo
	f        *Facts
	order    int
	branches []Branch
	depth    int
	ret      int
	rets     int
	seen     map[*registry.Signature]bool
}

func (w *walker) use(id *ast.Ident, k Kind) *Site {
	b := w.fi.Uses[id]
	if b == nil {
		return nil
	}
	w.order++
	s := &Site{
		Ident:    id,
		Kind:     k,
		Order:    w.order,
		Branches: append([]Branch(nil), w.branches...),
		Depth:    w.depth,
		Return:   w.ret,
	}
	r := w.f.Records[b]
	if r == nil {
		r = &Record{Binding: b}
		w.f.Records[b] = r
	}
	r.Kinds |= k
	r.Sites = append(r.Sites, s)
	w.f.Sites[id] = s
	return s
}

func (w *walker) isCopy(l *types.Label) bool {
	return w.reg.IsCopy(l)
}

// value records an identifier in a value position.
func (w *walker) value(id *ast.Ident, r role) *Site {
	b := w.fi.Uses[id]
	if b == nil {
		return nil
	}
	k := Read
	if r != roleRead && !w.isCopy(b.Label) {
		k = Move
	}
	if r == roleReturn {
		k |= Returned
	}
	return w.use(id, k)
}

// mutate records a write or &mut access to a place; the root binding gets k.
func (w *walker) mutate(e ast.Expr, k Kind) *Site {
	switch x := ast.Unparen(e).(type) {
	case *ast.Ident:
		return w.use(x, k)
	case *ast.Field:
		return w.mutate(x.X, k)
	case *ast.Index:
		w.expr(x.Index, roleRead)
		return w.mutate(x.X, k|IndexInto)
	case *ast.Unary:
		if x.Op == ast.UnDeref {
			// writes through a reference leave the binding itself untouched
			w.expr(x.X, roleRead)
			return nil
		}
		w.expr(x, roleRead)
	default:
		w.expr(e, roleRead)
	}
	return nil
}

func (w *walker) callee(sig *registry.Signature) {
	if sig == nil || w.seen[sig] {
		return
	}
	w.seen[sig] = true
	w.f.Callees = append(w.f.Callees, sig)
}

func (w *walker) edge(sig *registry.Signature, param int, s *Site) {
	if s == nil {
		return
	}
	w.f.Edges = append(w.f.Edges, Edge{Callee: sig, Param: param, Binding: w.fi.Uses[s.Ident], Site: s})
}

// ---- statements ----

func (w *walker) block(b *ast.Block, r role) {
	if b == nil {
		return
	}
	for i, s := range b.Stmts {
		if es, ok := s.(*ast.ExprStmt); ok && i == len(b.Stmts)-1 && !es.Semi {
			w.expr(es.X, r)
			continue
		}
		w.stmt(s)
	}
}

func (w *walker) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.LetStmt:
		w.expr(s.Value, roleMove)
	case *ast.AssignStmt:
		if s.Op == token.Assign {
			w.expr(s.Value, roleMove)
			w.assignTarget(s.Target, Reassign)
		} else {
			w.expr(s.Value, roleRead)
			w.assignTarget(s.Target, Reassign|Read)
		}
	case *ast.ExprStmt:
		w.expr(s.X, roleRead)
	case *ast.ReturnStmt:
		w.rets++
		prev := w.ret
		w.ret = w.rets
		w.expr(s.Value, roleReturn)
		w.ret = prev
	case *ast.BreakStmt:
		w.expr(s.Value, roleMove)
	case *ast.WhileStmt:
		w.depth++
		w.expr(s.Cond, roleRead)
		w.block(s.Body, roleRead)
		w.depth--
	case *ast.LoopStmt:
		w.depth++
		w.block(s.Body, roleRead)
		w.depth--
	case *ast.ForStmt:
		w.iter(s.Iter)
		w.depth++
		w.block(s.Body, roleRead)
		w.depth--
	case *ast.ItemStmt:
		if c, ok := s.Item.(*ast.ConstDecl); ok {
			w.expr(c.Value, roleRead)
		}
	}
}

func (w *walker) assignTarget(t ast.Expr, k Kind) {
	switch x := ast.Unparen(t).(type) {
	case *ast.Ident:
		w.use(x, k)
	case *ast.Unary:
		w.mutate(x, FieldWrite)
	default:
		w.mutate(t, FieldWrite)
	}
}

// iter records the iterable of a for loop.
func (w *walker) iter(e ast.Expr) {
	switch x := ast.Unparen(e).(type) {
	case *ast.Ident:
		w.value(x, roleMove)
	case *ast.Unary:
		switch x.Op {
		case ast.UnRef:
			if id, ok := ast.Unparen(x.X).(*ast.Ident); ok {
				w.use(id, Read|BorrowedIter)
				return
			}
			w.expr(x.X, roleRead)
		case ast.UnRefMut:
			w.mutate(x.X, RefMut)
		default:
			w.expr(x, roleRead)
		}
	default:
		w.expr(e, roleMove)
	}
}

// ---- expressions ----

func (w *walker) expr(e ast.Expr, r role) {
	switch x := e.(type) {
	case nil:
	case *ast.Ident:
		w.value(x, r)
	case *ast.Lit, *ast.Path:
	case *ast.Field:
		// moving a field out reads its root; the emitter clones
		w.expr(x.X, roleRead)
	case *ast.Index:
		if id, ok := ast.Unparen(x.X).(*ast.Ident); ok {
			w.use(id, Read|IndexInto)
		} else {
			w.expr(x.X, roleRead)
		}
		w.expr(x.Index, roleRead)
	case *ast.Call:
		w.call(x)
	case *ast.MethodCall:
		w.methodCall(x)
	case *ast.StructLit:
		for _, f := range x.Fields {
			w.expr(f.Value, roleMove)
		}
		w.expr(x.Base, roleMove)
	case *ast.Binary:
		w.expr(x.X, w.operandRole(x.Op, x.X))
		w.expr(x.Y, w.operandRole(x.Op, x.Y))
	case *ast.Unary:
		switch x.Op {
		case ast.UnRefMut:
			w.mutate(x.X, RefMut)
		default:
			w.expr(x.X, roleRead)
		}
	case *ast.Cast:
		w.expr(x.X, roleRead)
	case *ast.IfExpr:
		w.ifExpr(x, r)
	case *ast.MatchExpr:
		w.match(x, r)
	case *ast.Block:
		w.block(x, r)
	case *ast.Try:
		w.expr(x.X, roleMove)
	case *ast.Await:
		w.expr(x.X, roleMove)
	case *ast.Range:
		w.expr(x.Lo, roleRead)
		w.expr(x.Hi, roleRead)
	case *ast.Closure:
		w.depth++
		w.expr(x.Body, roleMove)
		w.depth--
	case *ast.TupleExpr:
		for _, el := range x.Elems {
			w.expr(el, aggregate(r))
		}
	case *ast.ArrayExpr:
		for _, el := range x.Elems {
			w.expr(el, aggregate(r))
		}
		w.expr(x.Repeat, roleRead)
	case *ast.Macro:
		for i, a := range x.Args {
			if x.Name == "vec" && !(x.Repeat && i == 1) {
				w.expr(a, roleMove)
			} else {
				w.expr(a, roleRead)
			}
		}
	case *ast.Paren:
		w.expr(x.X, r)
	}
}

// aggregate is the role of tuple and array elements: moved unless the
// aggregate itself is only inspected.
func aggregate(r role) role {
	if r == roleRead {
		return roleRead
	}
	return roleMove
}

// operandRole: comparisons and string concatenation only read; arithmetic
// on a non-Copy operand consumes it.
func (w *walker) operandRole(op token.Kind, e ast.Expr) role {
	switch op {
	case token.EqEq, token.BangEq, token.Lt, token.LtEq, token.Gt, token.GtEq, token.AndAnd, token.OrOr:
		return roleRead
	}
	l := e.Label()
	if l.IsUnknown() || l.IsStringLike() || w.isCopy(l) {
		return roleRead
	}
	return roleMove
}

func (w *walker) arm(node ast.Expr, i int, f func()) {
	w.branches = append(w.branches, Branch{Node: node, Arm: i})
	f()
	w.branches = w.branches[:len(w.branches)-1]
}

func (w *walker) ifExpr(x *ast.IfExpr, r role) {
	w.expr(x.Cond, roleRead)
	root := w.scrutineeRoot(x.Cond, x.LetPat != nil)
	start := w.order
	w.arm(x, 0, func() { w.block(x.Then, r) })
	if root != nil && w.mutatedSince(root, start) {
		w.f.BorrowBreaks[x] = true
	}
	if x.Else != nil {
		w.arm(x, 1, func() { w.expr(x.Else, r) })
	}
	if x.LetPat != nil {
		w.mutableCaptures(root, x.LetPat)
	}
}

func (w *walker) match(x *ast.MatchExpr, r role) {
	w.expr(x.Scrutinee, roleRead)
	root := w.scrutineeRoot(x.Scrutinee, true)
	for i, arm := range x.Arms {
		start := w.order
		w.arm(x, i, func() {
			w.expr(arm.Guard, roleRead)
			w.expr(arm.Body, r)
		})
		if root != nil && w.mutatedSince(root, start) {
			w.f.BorrowBreaks[x] = true
		}
		w.mutableCaptures(root, arm.Pattern)
	}
}

// mutableCaptures marks the scrutinee root as mutated when a non-Copy
// capture of p is mutated: the emitter then matches on a &mut borrow.
func (w *walker) mutableCaptures(root *sema.Binding, p ast.Pattern) {
	if root == nil {
		return
	}
	for _, bp := range ast.PatternBindings(p) {
		b := w.fi.Pats[bp]
		if b == nil || b.Label.IsRef() || w.isCopy(b.Label) {
			continue
		}
		if w.f.Records[b].Kinds&(FieldWrite|MethodCallMut|RefMut) != 0 {
			w.f.Records[root].Kinds |= MethodCallMut
			return
		}
	}
}

func (w *walker) scrutineeRoot(e ast.Expr, pattern bool) *sema.Binding {
	if !pattern || e == nil {
		return nil
	}
	id := ast.RootIdent(e)
	if id == nil {
		if mc, ok := ast.Unparen(e).(*ast.MethodCall); ok {
			id = ast.RootIdent(mc.Recv)
		}
	}
	if id == nil {
		return nil
	}
	return w.fi.Uses[id]
}

func (w *walker) mutatedSince(b *sema.Binding, order int) bool {
	for _, s := range w.f.Records[b].Sites {
		if s.Order > order && s.Kind&Mutating != 0 {
			return true
		}
	}
	return false
}

// ---- calls ----

func (w *walker) call(x *ast.Call) {
	c := w.in.CallOf(x)
	switch fn := ast.Unparen(x.Fn).(type) {
	case *ast.Ident:
		w.use(fn, Read)
	case *ast.Path:
	default:
		w.expr(fn, roleRead)
	}
	if c.Kind == sema.CallUser && c.Sig != nil {
		w.callee(c.Sig)
		w.userArgs(c.Sig, x.Args)
		return
	}
	// extern, unknown, variant and std constructors take their arguments by value
	for _, a := range x.Args {
		w.expr(a, roleMove)
	}
}

func (w *walker) userArgs(sig *registry.Signature, args []ast.Expr) {
	for i, a := range args {
		var s *Site
		switch sig.ParamMode(i) {
		case types.Owned:
			w.expr(a, roleMove)
			s = w.rootSite(a)
		case types.MutBorrowed:
			if u, ok := ast.Unparen(a).(*ast.Unary); ok && u.Op == ast.UnRefMut {
				s = w.mutate(u.X, RefMut)
			} else if ast.IsPlace(a) {
				s = w.mutate(a, RefMut)
			} else {
				w.expr(a, roleRead)
			}
		default:
			w.expr(a, roleRead)
			s = w.rootSite(a)
		}
		if i < len(sig.Params) && !sig.Params[i].Explicit {
			w.edge(sig, i, s)
		}
	}
}

// rootSite returns the site just recorded for the root identifier of a place.
func (w *walker) rootSite(e ast.Expr) *Site {
	if id := ast.RootIdent(e); id != nil {
		return w.f.Sites[id]
	}
	return nil
}

func (w *walker) methodCall(x *ast.MethodCall) {
	c := w.in.CallOf(x)
	if c.Kind == sema.CallUser && c.Sig != nil {
		sig := c.Sig
		w.callee(sig)
		mode, _ := sig.RecvMode()
		s := w.receiver(x.Recv, mode)
		if sig.Written == types.RecvInfer {
			w.edge(sig, -1, s)
		}
		w.userArgs(sig, x.Args)
		return
	}

	recv := x.Recv.Label()
	switch {
	case mutatingStd(x.Name, recv):
		w.mutate(x.Recv, MethodCallMut)
	case consumingStd(x.Name, recv):
		w.receiver(x.Recv, types.Owned)
	case x.Name == "iter":
		if id, ok := ast.Unparen(x.Recv).(*ast.Ident); ok {
			w.use(id, Read|BorrowedIter)
		} else {
			w.expr(x.Recv, roleRead)
		}
	default:
		w.expr(x.Recv, roleRead)
	}
	argRole := roleRead
	if movesArgs(x.Name) || c.Kind == sema.CallUnknown {
		argRole = roleMove
	}
	for _, a := range x.Args {
		w.expr(a, argRole)
	}
}

// receiver records a method receiver taken in mode and returns the root site.
func (w *walker) receiver(e ast.Expr, mode types.Mode) *Site {
	switch mode {
	case types.MutBorrowed:
		return w.mutate(e, MethodCallMut)
	case types.Owned:
		if id, ok := ast.Unparen(e).(*ast.Ident); ok {
			return w.value(id, roleMove)
		}
	}
	w.expr(e, roleRead)
	return w.rootSite(e)
}

// MutatesReceiver reports std methods that need `&mut` access to recv.
func MutatesReceiver(name string, recv *types.Label) bool { return mutatingStd(name, recv) }

// ConsumesReceiver reports std methods that take recv by value.
func ConsumesReceiver(name string, recv *types.Label) bool { return consumingStd(name, recv) }

func mutatingStd(name string, recv *types.Label) bool {
	switch name {
	case "push", "push_str", "push_back", "push_front", "insert", "remove", "clear",
		"extend", "sort", "sort_by", "sort_by_key", "sort_unstable", "retain", "iter_mut",
		"get_mut", "entry", "drain", "truncate", "dedup", "reverse", "swap", "append",
		"pop", "pop_front", "pop_back", "values_mut", "first_mut", "last_mut", "resize",
		"split_off", "next", "swap_remove":
		return true
	case "as_mut", "take", "replace", "get_or_insert", "get_or_insert_with":
		return recv.StripRefs().Is("Option")
	}
	return false
}

func consumingStd(name string, recv *types.Label) bool {
	switch name {
	case "into_iter", "unwrap", "expect", "unwrap_or", "unwrap_or_else", "unwrap_or_default",
		"into", "ok_or", "ok_or_else", "into_inner", "into_bytes", "into_keys",
		"into_values", "into_string", "into_boxed_slice":
		return true
	case "map", "and_then", "ok", "err", "map_err", "filter", "flatten", "unwrap_err",
		"or", "or_else", "and", "map_or", "map_or_else":
		base := recv.StripRefs()
		return base.Is("Option") || base.Is("Result")
	}
	return false
}

func movesArgs(name string) bool {
	switch name {
	case "push", "push_back", "push_front", "insert", "extend", "entry", "or_insert", "unwrap_or", "get_or_insert":
		return true
	}
	return false
}
