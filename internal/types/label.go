package types

import (
	"strings"
)

// Kind classifies a shallow type label.
type Kind uint8

const (
	KUnknown Kind = iota
	KPrim         // i32, f64, bool, char, usize, ...
	KString       // String (WJ: string)
	KStr          // str, only behind a reference
	KNamed        // user types and generic stdlib types: Foo, Vec<T>, Option<T>
	KRef          // &T / &mut T
	KTuple        // (A, B); the empty tuple is unit
	KArray        // [T; N]
	KSlice        // [T]
	KFn           // fn(A) -> B
	KParam        // generic parameter T
	KSelf         // Self inside an impl or trait
	KDyn          // dyn Trait; Elem is the bound
	KImpl         // impl Trait; Elem is the bound
	KIntLit       // unsuffixed integer literal
	KFloatLit     // unsuffixed float literal
	KInfer        // _
)

// Label is the shallow type attached to expressions, parameters and fields.
// A nil *Label is Unknown.
type Label struct {
	Kind Kind
	Name string   // KPrim: "i32"; KNamed/KParam/KDyn: last path segment
	Path []string // module qualifiers of a KNamed label
	Args []*Label // generic args, tuple elements, fn params
	Elem *Label   // KRef, KArray, KSlice; KFn result
	Mut  bool     // KRef only
	Len  string   // KArray length as written
}

var (
	Unit     = &Label{Kind: KTuple}
	Bool     = Prim("bool")
	Char     = Prim("char")
	I32      = Prim("i32")
	I64      = Prim("i64")
	U64      = Prim("u64")
	F32      = Prim("f32")
	F64      = Prim("f64")
	Usize    = Prim("usize")
	String   = &Label{Kind: KString, Name: "String"}
	Str      = &Label{Kind: KStr, Name: "str"}
	StrRef   = Ref(Str, false)
	IntLit   = &Label{Kind: KIntLit, Name: "{integer}"}
	FloatLit = &Label{Kind: KFloatLit, Name: "{float}"}
)

var primNames = map[string]bool{
	"i8": true, "i16": true, "i32": true, "i64": true, "i128": true, "isize": true,
	"u8": true, "u16": true, "u32": true, "u64": true, "u128": true, "usize": true,
	"f32": true, "f64": true, "bool": true, "char": true,
}

// IsPrimName reports whether name is a Rust primitive scalar.
func IsPrimName(name string) bool {
	return primNames[name]
}

func Prim(name string) *Label {
	return &Label{Kind: KPrim, Name: name}
}

func Named(name string, args ...*Label) *Label {
	return &Label{Kind: KNamed, Name: name, Args: args}
}

func Ref(elem *Label, mut bool) *Label {
	return &Label{Kind: KRef, Elem: elem, Mut: mut}
}

func Tuple(elems ...*Label) *Label {
	return &Label{Kind: KTuple, Args: elems}
}

func Param(name string) *Label {
	return &Label{Kind: KParam, Name: name}
}

// IsFnTrait reports Fn, FnMut and FnOnce.
func IsFnTrait(name string) bool {
	return name == "Fn" || name == "FnMut" || name == "FnOnce"
}

func (l *Label) IsUnknown() bool {
	return l == nil || l.Kind == KUnknown || l.Kind == KInfer
}

func (l *Label) IsUnit() bool {
	return l != nil && l.Kind == KTuple && len(l.Args) == 0
}

func (l *Label) IsRef() bool {
	return l != nil && l.Kind == KRef
}

func (l *Label) IsMutRef() bool {
	return l != nil && l.Kind == KRef && l.Mut
}

// Deref strips one reference layer; non-references are returned as is.
func (l *Label) Deref() *Label {
	if l.IsRef() {
		return l.Elem
	}
	return l
}

// StripRefs removes every reference layer.
func (l *Label) StripRefs() *Label {
	for l.IsRef() {
		l = l.Elem
	}
	return l
}

// Is reports a KNamed label with the given name.
func (l *Label) Is(name string) bool {
	return l != nil && l.Kind == KNamed && l.Name == name
}

func (l *Label) IsString() bool {
	return l != nil && l.Kind == KString
}

// IsStringLike reports String, str and references to either.
func (l *Label) IsStringLike() bool {
	s := l.StripRefs()
	return s != nil && (s.Kind == KString || s.Kind == KStr)
}

func (l *Label) IsInteger() bool {
	if l == nil {
		return false
	}
	if l.Kind == KIntLit {
		return true
	}
	return l.Kind == KPrim && l.Name != "bool" && l.Name != "char" && l.Name != "f32" && l.Name != "f64"
}

func (l *Label) IsFloat() bool {
	if l == nil {
		return false
	}
	return l.Kind == KFloatLit || (l.Kind == KPrim && (l.Name == "f32" || l.Name == "f64"))
}

func (l *Label) IsNumeric() bool {
	return l.IsInteger() || l.IsFloat()
}

// Arg returns the i-th generic argument or nil.
func (l *Label) Arg(i int) *Label {
	if l == nil || i >= len(l.Args) {
		return nil
	}
	return l.Args[i]
}

// IsOptionRef reports Option<&T>.
func (l *Label) IsOptionRef() bool {
	return l.Is("Option") && l.Arg(0).IsRef()
}

// Equal compares labels structurally; Unknown equals nothing.
func (l *Label) Equal(o *Label) bool {
	if l.IsUnknown() || o.IsUnknown() {
		return false
	}
	if l.Kind != o.Kind || l.Name != o.Name || l.Mut != o.Mut || l.Len != o.Len || len(l.Args) != len(o.Args) {
		return false
	}
	for i := range l.Args {
		if !l.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	if l.Elem != nil || o.Elem != nil {
		return l.Elem.Equal(o.Elem)
	}
	return true
}

// Subst replaces KParam and KSelf labels using m ("Self" keys KSelf).
func (l *Label) Subst(m map[string]*Label) *Label {
	if l == nil || len(m) == 0 {
		return l
	}
	switch l.Kind {
	case KParam:
		if r, ok := m[l.Name]; ok {
			return r
		}
		return l
	case KSelf:
		if r, ok := m["Self"]; ok {
			return r
		}
		return l
	case KNamed:
		// a bare generic name may still be parsed as KNamed
		if len(l.Args) == 0 && len(l.Path) == 0 {
			if r, ok := m[l.Name]; ok {
				return r
			}
		}
	}
	cp := *l
	if len(l.Args) > 0 {
		cp.Args = make([]*Label, len(l.Args))
		for i, a := range l.Args {
			cp.Args[i] = a.Subst(m)
		}
	}
	cp.Elem = l.Elem.Subst(m)
	return &cp
}

// Walk visits l and every nested label.
func (l *Label) Walk(f func(*Label)) {
	if l == nil {
		return
	}
	f(l)
	for _, a := range l.Args {
		a.Walk(f)
	}
	l.Elem.Walk(f)
}

// String renders the label as Rust source.
func (l *Label) String() string {
	var b strings.Builder
	l.write(&b)
	return b.String()
}

func (l *Label) write(b *strings.Builder) {
	if l == nil {
		b.WriteString("_")
		return
	}
	switch l.Kind {
	case KUnknown, KInfer:
		b.WriteString("_")
	case KPrim, KString, KStr, KParam:
		b.WriteString(l.Name)
	case KIntLit:
		b.WriteString("i64")
	case KFloatLit:
		b.WriteString("f64")
	case KSelf:
		b.WriteString("Self")
	case KNamed:
		for _, p := range l.Path {
			b.WriteString(p)
			b.WriteString("::")
		}
		b.WriteString(l.Name)
		if IsFnTrait(l.Name) && l.Elem != nil {
			b.WriteByte('(')
			writeList(b, l.Args)
			b.WriteByte(')')
			if !l.Elem.IsUnit() {
				b.WriteString(" -> ")
				l.Elem.write(b)
			}
			return
		}
		if len(l.Args) > 0 {
			b.WriteByte('<')
			writeList(b, l.Args)
			b.WriteByte('>')
		}
	case KDyn, KImpl:
		if l.Kind == KDyn {
			b.WriteString("dyn ")
		} else {
			b.WriteString("impl ")
		}
		l.Elem.write(b)
	case KRef:
		b.WriteByte('&')
		if l.Mut {
			b.WriteString("mut ")
		}
		l.Elem.write(b)
	case KTuple:
		b.WriteByte('(')
		writeList(b, l.Args)
		if len(l.Args) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
	case KArray:
		b.WriteByte('[')
		l.Elem.write(b)
		b.WriteString("; ")
		b.WriteString(l.Len)
		b.WriteByte(']')
	case KSlice:
		b.WriteByte('[')
		l.Elem.write(b)
		b.WriteByte(']')
	case KFn:
		b.WriteString("fn(")
		writeList(b, l.Args)
		b.WriteByte(')')
		if l.Elem != nil && !l.Elem.IsUnit() {
			b.WriteString(" -> ")
			l.Elem.write(b)
		}
	}
}

func writeList(b *strings.Builder, ls []*Label) {
	for i, a := range ls {
		if i > 0 {
			b.WriteString(", ")
		}
		a.write(b)
	}
}
