package types

import (
	"fmt"
	"strings"
	"unicode"
)

// wjAliases maps WJ spellings to Rust primitive names.
var wjAliases = map[string]string{
	"int":     "i64",
	"int32":   "i32",
	"int64":   "i64",
	"uint":    "u64",
	"uint32":  "u32",
	"uint64":  "u64",
	"float":   "f64",
	"float32": "f32",
	"float64": "f64",
	"byte":    "u8",
}

// FromPath builds a label for a written type path, resolving WJ aliases.
// generics lists the names of in-scope generic parameters.
func FromPath(path []string, args []*Label, generics map[string]bool) *Label {
	if len(path) == 0 {
		return nil
	}
	name := path[len(path)-1]
	if len(path) == 1 && len(args) == 0 {
		if alias, ok := wjAliases[name]; ok {
			return Prim(alias)
		}
		switch {
		case IsPrimName(name):
			return Prim(name)
		case name == "string" || name == "String":
			return String
		case name == "str":
			return Str
		case name == "Self":
			return &Label{Kind: KSelf, Name: "Self"}
		case generics[name]:
			return Param(name)
		}
	}
	if len(path) > 1 && path[0] == "std" {
		// std::collections::HashMap<K, V> keeps only the leaf; imports are regenerated
		path = path[len(path)-1:]
	}
	return &Label{Kind: KNamed, Name: name, Path: append([]string(nil), path[:len(path)-1]...), Args: args}
}

// Parse reads a Rust/WJ type string such as "HashMap<String, Vec<&Item>>".
// Single uppercase letters are generic parameters.
func Parse(s string) (*Label, error) {
	p := &labelParser{src: s}
	l, err := p.parse()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("types: trailing input in %q at %d", s, p.pos)
	}
	return l, nil
}

// MustParse is Parse for tables and tests.
func MustParse(s string) *Label {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

type labelParser struct {
	src string
	pos int
}

func (p *labelParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *labelParser) eat(s string) bool {
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *labelParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		c := rune(p.src[p.pos])
		if c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			break
		}
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *labelParser) parse() (*Label, error) {
	switch {
	case p.eat("&"):
		mut := p.eat("mut ")
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		return Ref(elem, mut), nil
	case p.eat("("):
		var elems []*Label
		if p.eat(")") {
			return Tuple(), nil
		}
		for {
			e, err := p.parse()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
			if p.eat(")") {
				break
			}
			if !p.eat(",") {
				return nil, fmt.Errorf("types: expected , or ) in %q", p.src)
			}
			if p.eat(")") {
				break
			}
		}
		return Tuple(elems...), nil
	case p.eat("["):
		elem, err := p.parse()
		if err != nil {
			return nil, err
		}
		if p.eat(";") {
			p.skipSpace()
			n := p.ident()
			if !p.eat("]") {
				return nil, fmt.Errorf("types: unclosed array in %q", p.src)
			}
			return &Label{Kind: KArray, Elem: elem, Len: n}, nil
		}
		if !p.eat("]") {
			return nil, fmt.Errorf("types: unclosed slice in %q", p.src)
		}
		return &Label{Kind: KSlice, Elem: elem}, nil
	case p.eat("dyn "):
		bound, err := p.parse()
		if err != nil {
			return nil, err
		}
		return &Label{Kind: KDyn, Name: bound.Name, Elem: bound}, nil
	case p.eat("_"):
		return &Label{Kind: KInfer}, nil
	}

	var path []string
	for {
		seg := p.ident()
		if seg == "" {
			return nil, fmt.Errorf("types: expected type name in %q at %d", p.src, p.pos)
		}
		path = append(path, seg)
		if !p.eat("::") {
			break
		}
	}
	var args []*Label
	if p.eat("<") {
		for {
			a, err := p.parse()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.eat(">") {
				break
			}
			if !p.eat(",") {
				return nil, fmt.Errorf("types: expected , or > in %q", p.src)
			}
		}
	}
	generic := map[string]bool{}
	if name := path[0]; len(path) == 1 && len(name) == 1 && unicode.IsUpper(rune(name[0])) {
		generic[name] = true
	}
	return FromPath(path, args, generic), nil
}
