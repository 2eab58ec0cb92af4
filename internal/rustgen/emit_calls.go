package rustgen

import (
	"fmt"
	"strings"

	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/registry"
	"windjammer/internal/sema"
	"windjammer/internal/types"
	"windjammer/internal/usage"
)

func (f *funcEmitter) call(x *ast.Call, w want) code {
	call := f.e.in.CallOf(x)
	callee := f.emit(x.Fn, want{})
	var args []string
	switch call.Kind {
	case sema.CallUser, sema.CallExtern:
		args = f.userArgs(call.Sig, x.Args)
	case sema.CallVariant, sema.CallStd:
		targets := f.ctorTargets(x, w.label)
		for i, a := range x.Args {
			args = append(args, f.expr(a, want{form: formOwned, label: targets.at(i)}))
		}
	default:
		for _, a := range x.Args {
			args = append(args, f.expr(a, want{form: formOwned}))
		}
	}
	s := paren(callee, precPostfix) + "(" + strings.Join(args, ", ") + ")"
	if call.Kind == sema.CallExtern && f.unsafe == 0 {
		return code{"unsafe { " + s + " }", precPrimary}
	}
	return code{s, precPostfix}
}

func calleePath(fn ast.Expr) []string {
	switch x := ast.Unparen(fn).(type) {
	case *ast.Ident:
		return []string{x.Name}
	case *ast.Path:
		return x.Segments
	}
	return nil
}

// ctorTargets returns the payload types of a variant, tuple struct or std
// wrapper constructor. hint is the type the position expects.
func (f *funcEmitter) ctorTargets(x *ast.Call, hint *types.Label) labels {
	path := calleePath(x.Fn)
	if len(path) == 0 {
		return nil
	}
	l := x.Label()
	if hint != nil && hint.Kind == types.KNamed {
		l = hint
	}
	last := path[len(path)-1]
	if len(path) == 1 {
		switch last {
		case "Some":
			return labels{l.Arg(0)}
		case "Ok":
			return labels{l.Arg(0)}
		case "Err":
			return labels{l.Arg(1)}
		}
	}
	if len(path) == 2 && last == "new" {
		switch path[0] {
		case "Box", "Rc", "Arc", "RefCell", "Cell", "Mutex", "RwLock":
			return labels{l.Arg(0)}
		}
	}

	var td *registry.TypeDecl
	var fields []*registry.Field
	if len(path) >= 2 {
		owner := path[len(path)-2]
		if owner == "Self" && f.fi.Owner != nil {
			owner = f.fi.Owner.StripRefs().Name
		}
		if td = f.e.reg.Type(owner); td != nil {
			if v := td.Variant(last); v != nil {
				fields = v.Fields
			}
		}
	} else if td = f.e.reg.Type(last); td != nil {
		fields = td.Fields
	}
	if td == nil {
		return nil
	}
	subst := td.GenericSubst(l)
	out := make(labels, len(fields))
	for i, fd := range fields {
		out[i] = fd.Label.Subst(subst)
	}
	return out
}

// userArgs coerces arguments to the settled parameter forms of sig.
func (f *funcEmitter) userArgs(sig *registry.Signature, args []ast.Expr) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if i >= len(sig.Params) {
			out[i] = f.expr(a, want{form: formOwned})
			continue
		}
		p := sig.Params[i]
		var w want
		switch {
		case p.Explicit || p.Label.IsRef():
			w.form = formRef
			if p.Label.IsMutRef() {
				w.form = formMut
			}
		case p.Mode == types.Owned:
			w = want{form: formOwned, label: p.Label}
		case p.Mode == types.MutBorrowed:
			w.form = formMut
		default:
			w.form = formRef
		}
		out[i] = f.expr(a, w)
	}
	return out
}

func (f *funcEmitter) methodCall(x *ast.MethodCall) code {
	call := f.e.in.CallOf(x)
	sig := call.Sig
	if call.Ambiguous != nil {
		sig = f.disambiguate(x, call.Ambiguous)
	}
	var recv code
	var args []string
	switch {
	case sig != nil:
		if sig.Recv == types.RecvValue {
			recv = f.emit(x.Recv, want{form: formOwned})
		} else {
			recv = f.emit(x.Recv, want{})
		}
		args = f.userArgs(sig, x.Args)
	case call.Kind == sema.CallStd:
		f.checkUserMethod(x)
		if x.Name == "clone" && len(x.Args) == 0 {
			if c, ok := f.redundantClone(x); ok {
				return c
			}
		}
		recv = f.stdReceiver(x)
		args = f.stdArgs(x)
	default:
		recv = f.emit(x.Recv, want{})
		for _, a := range x.Args {
			args = append(args, f.expr(a, want{form: formOwned}))
		}
	}
	s := paren(recv, precPostfix) + "." + x.Name + f.e.turbofish(x.Generics) + "(" + strings.Join(args, ", ") + ")"
	return code{s, precPostfix}
}

// disambiguate accepts an unresolved receiver when every candidate would be
// called the same way.
func (f *funcEmitter) disambiguate(x *ast.MethodCall, amb *registry.AmbiguousError) *registry.Signature {
	first := amb.Candidates[0]
	for _, c := range amb.Candidates[1:] {
		if first.SameForm(c) {
			continue
		}
		b := diag.ReportError(f.e.rep, diag.SemAmbiguousMethod, x.NameSpan,
			fmt.Sprintf("cannot decide how to call `%s`: the receiver type is unknown", x.Name))
		for _, cand := range amb.Candidates {
			if cand.Decl != nil {
				b = b.WithNote(cand.Decl.NameSpan, fmt.Sprintf("candidate `%s` takes %s", cand.Key(), cand.Recv))
			}
		}
		f.e.fail(b.WithHelp("annotate the type of the receiver"))
		return first
	}
	return first
}

// std traits whose provided methods a user type picks up through an impl.
var providingTraits = []string{"Iterator", "Display", "Debug", "Read", "Write", "Deref", "DerefMut", "AsRef", "IntoIterator", "Error"}

// methods every user type may have through derives or blanket impls.
var blanketMethods = map[string]bool{
	"clone": true, "clone_from": true, "eq": true, "ne": true, "cmp": true, "partial_cmp": true,
	"lt": true, "le": true, "gt": true, "ge": true, "max": true, "min": true, "clamp": true,
	"hash": true, "fmt": true, "to_string": true, "into": true, "try_into": true,
	"to_owned": true, "borrow": true, "borrow_mut": true, "as_ref": true, "as_mut": true,
	"default": true, "type_id": true,
}

// checkUserMethod rejects a method that no declaration of a user type provides.
func (f *funcEmitter) checkUserMethod(x *ast.MethodCall) {
	r := x.Recv.Label().StripRefs()
	if r == nil || r.Kind != types.KNamed || blanketMethods[x.Name] {
		return
	}
	td := f.e.reg.Type(r.Name)
	if td == nil || td.Kind != registry.KindStruct && td.Kind != registry.KindEnum {
		return
	}
	for _, t := range providingTraits {
		if f.e.reg.Implements(td.Name, t) {
			return
		}
	}
	b := diag.ReportError(f.e.rep, diag.SemUnknownMethod, x.NameSpan,
		fmt.Sprintf("no method `%s` on type `%s`", x.Name, td.Name))
	if td.Node != nil {
		b = b.WithNote(td.Node.Pos(), fmt.Sprintf("`%s` is declared here", td.Name))
	}
	f.e.fail(b)
}

// redundantClone drops `.clone()` on a Copy value and turns it into a
// dereference on a Copy borrow.
func (f *funcEmitter) redundantClone(x *ast.MethodCall) (code, bool) {
	l := f.eff(x.Recv)
	switch {
	case l.IsUnknown():
		return code{}, false
	case l.IsRef() && f.e.isCopy(l.Elem):
		return code{"*" + paren(f.emit(x.Recv, want{}), precUnary), precUnary}, true
	case !l.IsRef() && f.e.isCopy(l):
		return f.emit(x.Recv, want{}), true
	}
	return code{}, false
}

// stdReceiver: a std method that consumes its receiver gets an owned value.
func (f *funcEmitter) stdReceiver(x *ast.MethodCall) code {
	if x.Name != "into_iter" && usage.ConsumesReceiver(x.Name, x.Recv.Label()) {
		return f.emit(x.Recv, want{form: formOwned})
	}
	return f.emit(x.Recv, want{})
}

func (f *funcEmitter) stdArgs(x *ast.MethodCall) []string {
	base := x.Recv.Label().StripRefs()
	for base.Is("Box") || base.Is("Rc") || base.Is("Arc") {
		base = base.Arg(0).StripRefs()
	}
	out := make([]string, len(x.Args))
	for i, a := range x.Args {
		out[i] = f.stdArg(x.Name, base, i, a)
	}
	return out
}

func elemLabel(l *types.Label) *types.Label {
	if l == nil {
		return nil
	}
	if l.Kind == types.KArray || l.Kind == types.KSlice {
		return l.Elem
	}
	return l.Arg(0)
}

// stdArg coerces argument i of a std method on a receiver of type base.
func (f *funcEmitter) stdArg(name string, base *types.Label, i int, a ast.Expr) string {
	isMap := base.Is("HashMap") || base.Is("BTreeMap")
	isSet := base.Is("HashSet") || base.Is("BTreeSet")
	isSeq := base.Is("Vec") || base.Is("VecDeque") || base != nil && (base.Kind == types.KSlice || base.Kind == types.KArray)
	isStr := base.IsStringLike()
	owned := func(l *types.Label) string { return f.expr(a, want{form: formOwned, label: l}) }
	ref := func() string { return f.expr(a, want{form: formRef}) }

	switch name {
	case "push", "push_back", "push_front":
		if isStr {
			return f.expr(a, want{})
		}
		return owned(elemLabel(base))
	case "insert":
		switch {
		case isMap:
			return owned(base.Arg(i))
		case isSet:
			return owned(base.Arg(0))
		case isSeq, isStr:
			if i == 0 {
				return f.usize(a)
			}
			if isStr {
				return f.expr(a, want{})
			}
			return owned(elemLabel(base))
		}
	case "get", "get_mut", "remove", "swap_remove":
		switch {
		case isMap, isSet:
			return ref()
		case isSeq, isStr:
			return f.usize(a)
		}
	case "contains_key":
		return ref()
	case "contains":
		switch {
		case isSet, isSeq:
			return ref()
		case isStr:
			return f.strArg(a)
		}
	case "entry":
		return owned(base.Arg(0))
	case "push_str", "starts_with", "ends_with", "find", "rfind", "split", "split_once",
		"strip_prefix", "strip_suffix", "trim_start_matches", "trim_end_matches", "matches":
		if isStr {
			return f.strArg(a)
		}
	case "replace":
		if isStr {
			return f.strArg(a)
		}
		return owned(base.Arg(0))
	case "cmp", "partial_cmp", "eq", "ne":
		return ref()
	case "resize":
		if i == 0 {
			return f.usize(a)
		}
		return owned(elemLabel(base))
	case "truncate", "reserve", "swap", "split_off", "split_at", "nth", "skip", "step_by",
		"rotate_left", "rotate_right", "with_capacity", "repeat":
		return f.usize(a)
	case "take":
		return f.usize(a)
	case "unwrap_or":
		return owned(base.Arg(0))
	case "extend", "or_insert", "get_or_insert":
		return owned(nil)
	case "append":
		return f.expr(a, want{form: formMut})
	}
	return f.expr(a, want{})
}
