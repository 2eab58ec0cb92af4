package types

// StdImport is the import path of a std type that needs a `use` in Rust.
// Prelude types (Vec, String, Option, Box, Result) are absent.
var StdImport = map[string]string{
	"HashMap":    "std::collections::HashMap",
	"HashSet":    "std::collections::HashSet",
	"BTreeMap":   "std::collections::BTreeMap",
	"BTreeSet":   "std::collections::BTreeSet",
	"VecDeque":   "std::collections::VecDeque",
	"BinaryHeap": "std::collections::BinaryHeap",
	"Rc":         "std::rc::Rc",
	"RefCell":    "std::cell::RefCell",
	"Cell":       "std::cell::Cell",
	"Arc":        "std::sync::Arc",
	"Mutex":      "std::sync::Mutex",
	"RwLock":     "std::sync::RwLock",
	"Ordering":   "std::cmp::Ordering",
}

// neverCopy lists std types that are not Copy whatever their arguments are.
var neverCopy = map[string]bool{
	"Vec": true, "HashMap": true, "BTreeMap": true, "HashSet": true, "BTreeSet": true,
	"VecDeque": true, "BinaryHeap": true, "Box": true, "Rc": true, "Arc": true,
	"RefCell": true, "Mutex": true, "RwLock": true, "Cell": true,
}

// IsNeverCopy reports std containers and smart pointers.
func IsNeverCopy(name string) bool {
	return neverCopy[name]
}

// UserCopy answers Copy status for user-defined type names.
// known is false when the name is not a user type.
type UserCopy func(name string) (copy, known bool)

// IsCopy decides the Copy property of a label. Unknown labels, generic
// parameters and trait objects are not Copy.
func IsCopy(l *Label, user UserCopy) bool {
	if l.IsUnknown() {
		return false
	}
	switch l.Kind {
	case KPrim, KIntLit, KFloatLit, KFn:
		return true
	case KRef:
		return !l.Mut
	case KString, KStr, KSlice, KDyn, KImpl, KParam, KSelf:
		return false
	case KTuple:
		for _, a := range l.Args {
			if !IsCopy(a, user) {
				return false
			}
		}
		return true
	case KArray:
		return IsCopy(l.Elem, user)
	case KNamed:
		if neverCopy[l.Name] {
			return false
		}
		if l.Name == "Option" {
			return IsCopy(l.Arg(0), user)
		}
		if user != nil {
			if c, known := user(l.Name); known {
				return c
			}
		}
		if l.Name == "Ordering" {
			return true
		}
	}
	return false
}

// HasDefault reports whether Default can be derived for a field of this label.
func HasDefault(l *Label, user func(string) bool) bool {
	if l.IsUnknown() {
		return false
	}
	switch l.Kind {
	case KPrim, KString, KIntLit, KFloatLit:
		return true
	case KTuple:
		for _, a := range l.Args {
			if !HasDefault(a, user) {
				return false
			}
		}
		return true
	case KNamed:
		switch l.Name {
		case "Vec", "HashMap", "HashSet", "BTreeMap", "BTreeSet", "VecDeque", "Option":
			return true
		}
		return user != nil && user(l.Name)
	}
	return false
}
