package layout

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var lower = cases.Lower(language.Und)

var rustKeywords = map[string]bool{
	"as": true, "break": true, "const": true, "continue": true, "crate": true, "else": true,
	"enum": true, "extern": true, "false": true, "fn": true, "for": true, "if": true,
	"impl": true, "in": true, "let": true, "loop": true, "match": true, "mod": true,
	"move": true, "mut": true, "pub": true, "ref": true, "return": true, "self": true,
	"Self": true, "static": true, "struct": true, "super": true, "trait": true, "true": true,
	"type": true, "unsafe": true, "use": true, "where": true, "while": true, "async": true,
	"await": true, "dyn": true, "abstract": true, "become": true, "box": true, "do": true,
	"final": true, "macro": true, "override": true, "priv": true, "typeof": true,
	"unsized": true, "virtual": true, "yield": true, "try": true,
}

// ModuleName turns a file or directory name (without extension) into the
// Rust module identifier it is declared as.
func ModuleName(stem string) string {
	s := lower.String(norm.NFC.String(stem))
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r):
			if i == 0 && unicode.IsDigit(r) {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if name == "" {
		return "_"
	}
	if rustKeywords[name] {
		return name + "_"
	}
	return name
}

// ModulePath maps a slash-separated source path relative to the source root
// to a module path. `mod.wj` names its directory; the root entry files
// `main.wj`, `lib.wj` and `mod.wj` name the crate root.
func ModulePath(rel string) (path []string, dirModule bool) {
	rel = strings.TrimSuffix(rel, ".wj")
	parts := strings.Split(rel, "/")
	last := parts[len(parts)-1]
	parts = parts[:len(parts)-1]
	switch {
	case last == "mod":
		dirModule = true
	case len(parts) == 0 && (last == "main" || last == "lib"):
		dirModule = true
	default:
		parts = append(parts, last)
	}
	path = make([]string, len(parts))
	for i, p := range parts {
		path[i] = ModuleName(p)
	}
	return path, dirModule
}
