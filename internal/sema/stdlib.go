package sema

import (
	"windjammer/internal/types"
)

// iter is the label of an iterator adapter chain; the single arg is the item.
func iter(item *types.Label) *types.Label {
	return types.Named("Iter", item)
}

func isIter(l *types.Label) bool {
	return l.Is("Iter") || l.Is("Range")
}

// ItemOf returns the element produced by iterating l with a for loop, or nil.
// References to collections yield references to elements.
func ItemOf(l *types.Label) *types.Label {
	if l.IsRef() {
		inner := l.Elem
		if isIter(inner) {
			return inner.Arg(0)
		}
		switch {
		case inner.Is("HashMap") || inner.Is("BTreeMap"):
			return types.Tuple(types.Ref(inner.Arg(0), false), types.Ref(inner.Arg(1), l.Mut))
		}
		if e := elemOf(inner); e != nil {
			return types.Ref(e, l.Mut)
		}
		return nil
	}
	if isIter(l) {
		return l.Arg(0)
	}
	if l.Is("HashMap") || l.Is("BTreeMap") {
		return types.Tuple(l.Arg(0), l.Arg(1))
	}
	return elemOf(l)
}

// elemOf returns the element of sequence-like labels.
func elemOf(l *types.Label) *types.Label {
	if l == nil {
		return nil
	}
	switch l.Kind {
	case types.KArray, types.KSlice:
		return l.Elem
	case types.KNamed:
		switch l.Name {
		case "Vec", "VecDeque", "HashSet", "BTreeSet", "BinaryHeap", "Option":
			return l.Arg(0)
		}
	}
	return nil
}

// valueOf is what indexing l produces.
func valueOf(l *types.Label) *types.Label {
	l = l.StripRefs()
	if l.Is("HashMap") || l.Is("BTreeMap") {
		return l.Arg(1)
	}
	if l.IsStringLike() {
		return types.Str
	}
	return elemOf(l)
}

// payload unwraps Option<T> and Result<T, E> to T.
func payload(l *types.Label) *types.Label {
	l = l.StripRefs()
	if l.Is("Option") || l.Is("Result") {
		return l.Arg(0)
	}
	return nil
}

func option(l *types.Label) *types.Label { return types.Named("Option", l) }

// iterOf turns a receiver into the iterator its iter-like methods produce.
func iterOf(recv *types.Label, method string) *types.Label {
	base := recv.StripRefs()
	switch method {
	case "iter":
		if base.Is("HashMap") || base.Is("BTreeMap") {
			return iter(types.Tuple(types.Ref(base.Arg(0), false), types.Ref(base.Arg(1), false)))
		}
		if e := elemOf(base); e != nil {
			return iter(types.Ref(e, false))
		}
	case "iter_mut":
		if base.Is("HashMap") || base.Is("BTreeMap") {
			return iter(types.Tuple(types.Ref(base.Arg(0), false), types.Ref(base.Arg(1), true)))
		}
		if e := elemOf(base); e != nil {
			return iter(types.Ref(e, true))
		}
	case "into_iter", "drain":
		if isIter(base) {
			return base
		}
		if recv.IsRef() {
			return iterOf(recv, "iter")
		}
		if base.Is("HashMap") || base.Is("BTreeMap") {
			return iter(types.Tuple(base.Arg(0), base.Arg(1)))
		}
		if e := elemOf(base); e != nil {
			return iter(e)
		}
	case "keys":
		return iter(types.Ref(base.Arg(0), false))
	case "values":
		return iter(types.Ref(base.Arg(1), false))
	case "values_mut":
		return iter(types.Ref(base.Arg(1), true))
	case "chars":
		return iter(types.Char)
	case "bytes":
		return iter(types.Prim("u8"))
	case "lines", "split", "split_whitespace", "rsplit", "splitn":
		return iter(types.StrRef)
	case "char_indices":
		return iter(types.Tuple(types.Usize, types.Char))
	case "windows", "chunks":
		if e := elemOf(base); e != nil {
			return iter(types.Ref(&types.Label{Kind: types.KSlice, Elem: e}, false))
		}
	}
	return iter(nil)
}

// stdMethod is the result label of a std method on recv. generics are the
// turbofish args of the call and args the argument labels.
func stdMethod(recv *types.Label, name string, generics, args []*types.Label) *types.Label {
	base := recv.StripRefs()
	var first *types.Label
	if len(generics) > 0 {
		first = generics[0]
	}
	switch name {
	case "len", "count", "capacity":
		return types.Usize
	case "is_empty", "contains", "contains_key", "starts_with", "ends_with",
		"is_some", "is_none", "is_ok", "is_err", "any", "all", "eq", "ne",
		"is_ascii", "is_alphabetic", "is_numeric", "is_alphanumeric",
		"is_whitespace", "is_ascii_digit", "is_uppercase", "is_lowercase",
		"is_nan", "is_finite", "is_positive", "is_negative":
		return types.Bool
	case "clone", "to_owned":
		if base.Kind == types.KStr {
			return types.String
		}
		if recv.IsRef() && recv.Elem.IsRef() {
			return recv.Elem
		}
		return base
	case "to_string", "to_uppercase", "to_lowercase", "repeat", "replace", "join", "concat":
		if name == "to_uppercase" || name == "to_lowercase" {
			if base.Kind == types.KPrim && base.Name == "char" {
				return nil
			}
		}
		return types.String
	case "as_str", "trim", "trim_start", "trim_end", "trim_matches":
		return types.StrRef
	case "push", "push_str", "push_back", "push_front", "clear", "sort", "sort_by",
		"sort_by_key", "sort_unstable", "reverse", "truncate", "retain", "dedup",
		"extend", "for_each", "swap", "append":
		return types.Unit
	case "insert":
		switch {
		case base.Is("HashSet") || base.Is("BTreeSet"):
			return types.Bool
		case base.Is("HashMap") || base.Is("BTreeMap"):
			return option(base.Arg(1))
		}
		return types.Unit
	case "pop", "pop_front", "pop_back":
		return option(elemOf(base))
	case "get", "first", "last", "front", "back", "peek":
		if base.Is("HashMap") || base.Is("BTreeMap") {
			return option(types.Ref(base.Arg(1), false))
		}
		return option(types.Ref(elemOf(base), false))
	case "get_mut", "first_mut", "last_mut":
		if base.Is("HashMap") || base.Is("BTreeMap") {
			return option(types.Ref(base.Arg(1), true))
		}
		return option(types.Ref(elemOf(base), true))
	case "remove":
		if base.Is("HashMap") || base.Is("BTreeMap") {
			return option(base.Arg(1))
		}
		if base.Is("HashSet") || base.Is("BTreeSet") {
			return types.Bool
		}
		return elemOf(base)
	case "iter", "iter_mut", "into_iter", "drain", "keys", "values", "values_mut",
		"chars", "bytes", "lines", "split", "split_whitespace", "rsplit", "splitn",
		"char_indices", "windows", "chunks":
		if name == "split" && base.Kind != types.KString && base.Kind != types.KStr {
			return nil
		}
		return iterOf(recv, name)
	case "enumerate":
		return iter(types.Tuple(types.Usize, base.Arg(0)))
	case "rev", "skip", "take", "filter", "skip_while", "take_while", "step_by", "chain", "peekable", "inspect":
		if isIter(base) {
			return base
		}
		if name == "take" && base.Is("Option") {
			return base
		}
		return nil
	case "cloned", "copied":
		if isIter(base) {
			return iter(base.Arg(0).Deref())
		}
		if base.Is("Option") {
			return option(base.Arg(0).Deref())
		}
		return nil
	case "zip":
		var other *types.Label
		if len(args) > 0 {
			other = ItemOf(args[0])
		}
		return iter(types.Tuple(base.Arg(0), other))
	case "map", "filter_map", "flat_map":
		if base.Is("Option") {
			return option(nil)
		}
		return iter(nil)
	case "collect":
		return first
	case "sum", "product":
		if first != nil {
			return first
		}
		return base.Arg(0).StripRefs()
	case "max", "min":
		if isIter(base) {
			return option(base.Arg(0))
		}
		return base
	case "max_by_key", "min_by_key", "max_by", "min_by", "find":
		return option(base.Arg(0))
	case "position":
		return option(types.Usize)
	case "nth":
		return option(base.Arg(0))
	case "unwrap", "expect", "unwrap_or", "unwrap_or_default", "unwrap_or_else":
		return payload(base)
	case "unwrap_err", "expect_err":
		if base.Is("Result") {
			return base.Arg(1)
		}
		return nil
	case "ok":
		if base.Is("Result") {
			return option(base.Arg(0))
		}
		return nil
	case "err":
		if base.Is("Result") {
			return option(base.Arg(1))
		}
		return nil
	case "ok_or", "ok_or_else":
		return types.Named("Result", base.Arg(0), nil)
	case "map_err":
		return types.Named("Result", base.Arg(0), nil)
	case "as_ref":
		if base.Is("Option") {
			return option(types.Ref(base.Arg(0), false))
		}
		return nil
	case "as_mut":
		if base.Is("Option") {
			return option(types.Ref(base.Arg(0), true))
		}
		return nil
	case "and_then", "or", "or_else", "xor":
		return base
	case "abs", "sqrt", "powi", "powf", "pow", "sin", "cos", "tan", "floor", "ceil",
		"round", "trunc", "clamp", "signum", "exp", "ln", "log10", "log2",
		"wrapping_add", "wrapping_sub", "wrapping_mul", "saturating_add",
		"saturating_sub", "saturating_mul", "rem_euclid", "atan2", "hypot":
		if base.IsNumeric() {
			return base
		}
		return nil
	case "parse":
		return types.Named("Result", first, nil)
	case "entry":
		return types.Named("Entry", base.Arg(0), base.Arg(1))
	case "or_insert", "or_insert_with", "or_default":
		if base.Is("Entry") {
			return types.Ref(base.Arg(1), true)
		}
		return nil
	case "borrow":
		if base.Is("RefCell") {
			return types.Ref(base.Arg(0), false)
		}
		return nil
	case "borrow_mut":
		if base.Is("RefCell") {
			return types.Ref(base.Arg(0), true)
		}
		return nil
	case "cmp":
		return types.Named("Ordering")
	case "partial_cmp":
		return option(types.Named("Ordering"))
	case "to_digit":
		return option(types.Prim("u32"))
	case "as_bytes":
		return types.Ref(&types.Label{Kind: types.KSlice, Elem: types.Prim("u8")}, false)
	case "into":
		return nil
	}
	return nil
}

// closureHint is the label of the first closure parameter when a closure is
// passed to method name on recv.
func closureHint(recv *types.Label, name string) []*types.Label {
	base := recv.StripRefs()
	if isIter(base) {
		item := base.Arg(0)
		switch name {
		case "map", "for_each", "any", "all", "filter_map", "flat_map",
			"max_by_key", "min_by_key", "inspect":
			if name == "max_by_key" || name == "min_by_key" || name == "inspect" {
				return []*types.Label{types.Ref(item, false)}
			}
			return []*types.Label{item}
		case "filter", "find", "skip_while", "take_while":
			return []*types.Label{types.Ref(item, false)}
		case "position":
			return []*types.Label{item}
		case "fold":
			return []*types.Label{nil, item}
		case "max_by", "min_by":
			return []*types.Label{types.Ref(item, false), types.Ref(item, false)}
		}
		return nil
	}
	if base.Is("Option") || base.Is("Result") {
		switch name {
		case "map", "and_then", "unwrap_or_else", "is_some_and", "filter", "inspect":
			if name == "filter" || name == "inspect" {
				return []*types.Label{types.Ref(base.Arg(0), false)}
			}
			if name == "unwrap_or_else" {
				if base.Is("Result") {
					return []*types.Label{base.Arg(1)}
				}
				return nil
			}
			return []*types.Label{base.Arg(0)}
		case "map_err":
			return []*types.Label{base.Arg(1)}
		}
		return nil
	}
	if e := elemOf(base); e != nil {
		switch name {
		case "retain", "sort_by_key":
			return []*types.Label{types.Ref(e, false)}
		case "sort_by":
			return []*types.Label{types.Ref(e, false), types.Ref(e, false)}
		}
	}
	return nil
}

// stdCtor is the result of a std associated function or prelude constructor
// call such as Some(x), Box::new(x) or String::from(s).
func stdCtor(path []string, generics []*types.Label, args []*types.Label) (*types.Label, bool) {
	arg := func(i int) *types.Label {
		if i < len(args) {
			return args[i]
		}
		return nil
	}
	gen := func(i int) *types.Label {
		if i < len(generics) {
			return generics[i]
		}
		return nil
	}
	if len(path) == 1 {
		switch path[0] {
		case "Some":
			return option(arg(0)), true
		case "Ok":
			return types.Named("Result", arg(0), nil), true
		case "Err":
			return types.Named("Result", nil, arg(0)), true
		case "drop":
			return types.Unit, true
		}
		return nil, false
	}
	owner, fn := path[len(path)-2], path[len(path)-1]
	switch owner {
	case "String":
		switch fn {
		case "new", "from", "with_capacity", "from_utf8_lossy":
			return types.String, true
		}
	case "Box", "Rc", "Arc", "RefCell", "Cell", "Mutex", "RwLock":
		if fn == "new" {
			return types.Named(owner, arg(0)), true
		}
		if fn == "clone" && arg(0) != nil {
			return arg(0).StripRefs(), true
		}
	case "Vec", "VecDeque", "HashSet", "BTreeSet", "BinaryHeap":
		switch fn {
		case "new", "with_capacity", "default":
			return types.Named(owner, gen(0)), true
		case "from":
			return types.Named(owner, ItemOf(arg(0))), true
		}
	case "HashMap", "BTreeMap":
		switch fn {
		case "new", "with_capacity", "default":
			return types.Named(owner, gen(0), gen(1)), true
		}
	case "Some", "Option":
		return nil, true
	}
	if types.IsPrimName(owner) {
		switch fn {
		case "from", "max", "min", "from_str_radix":
			return types.Prim(owner), true
		}
		return nil, true
	}
	return nil, false
}
