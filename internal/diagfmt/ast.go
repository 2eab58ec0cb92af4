package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"

	"windjammer/internal/ast"
	"windjammer/internal/source"
)

// ASTNodeOutput is one node of the `wj parse` dump.
type ASTNodeOutput struct {
	Type     string           `json:"type"`
	Text     string           `json:"text,omitempty"`
	Label    string           `json:"label,omitempty"`
	Span     source.Span      `json:"span"`
	Children []*ASTNodeOutput `json:"children,omitempty"`
}

// BuildAST converts n and everything below it.
func BuildAST(n ast.Node) *ASTNodeOutput {
	out := &ASTNodeOutput{Type: nodeType(n), Text: nodeText(n), Span: n.Pos()}
	if e, ok := n.(ast.Expr); ok && e.Label() != nil && !e.Label().IsUnknown() {
		out.Label = e.Label().String()
	}
	for _, c := range children(n) {
		out.Children = append(out.Children, BuildAST(c))
	}
	return out
}

// children returns the direct children of n in source order.
func children(n ast.Node) []ast.Node {
	var out []ast.Node
	ast.Inspect(n, func(c ast.Node) bool {
		if c == n {
			return true
		}
		out = append(out, c)
		return false
	})
	return out
}

func nodeType(n ast.Node) string {
	t := reflect.TypeOf(n)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

func nodeText(n ast.Node) string {
	switch x := n.(type) {
	case *ast.File:
		return x.Path
	case *ast.FnDecl:
		return x.Name
	case *ast.Param:
		return x.Name
	case *ast.StructDecl:
		return x.Name
	case *ast.EnumDecl:
		return x.Name
	case *ast.TraitDecl:
		return x.Name
	case *ast.ImplDecl:
		if tr := x.TraitName(); tr != "" {
			return tr + " for " + x.TargetName()
		}
		return x.TargetName()
	case *ast.ModDecl:
		return x.Name
	case *ast.ConstDecl:
		return x.Name
	case *ast.TypeAlias:
		return x.Name
	case *ast.Type:
		if x.Label != nil {
			return x.Label.String()
		}
	case *ast.Lit:
		return x.Value + x.Suffix
	case *ast.Ident:
		return x.Name
	case *ast.Path:
		return strings.Join(x.Segments, "::")
	case *ast.Field:
		return x.Name
	case *ast.MethodCall:
		return x.Name
	case *ast.Macro:
		return x.Name + "!"
	case *ast.Binary:
		return x.Op.String()
	case *ast.AssignStmt:
		return x.Op.String()
	case *ast.BindPat:
		if x.Mut {
			return "mut " + x.Name
		}
		return x.Name
	}
	return ""
}

// FormatASTPretty prints the tree of f with box-drawing connectors.
func FormatASTPretty(w io.Writer, f *ast.File, fs *source.FileSet) error {
	if f == nil {
		return fmt.Errorf("file not found")
	}
	root := BuildAST(f)
	if _, err := fmt.Fprintf(w, "%s (span: %s)\n", headLine(root), formatSpan(root.Span, fs)); err != nil {
		return err
	}
	for i, c := range root.Children {
		printNode(w, c, "", i == len(root.Children)-1, fs)
	}
	return nil
}

func printNode(w io.Writer, n *ASTNodeOutput, prefix string, last bool, fs *source.FileSet) {
	branch, next := "├─ ", "│  "
	if last {
		branch, next = "└─ ", "   "
	}
	fmt.Fprintf(w, "%s%s%s (span: %s)\n", prefix, branch, headLine(n), formatSpan(n.Span, fs))
	for i, c := range n.Children {
		printNode(w, c, prefix+next, i == len(n.Children)-1, fs)
	}
}

func headLine(n *ASTNodeOutput) string {
	s := n.Type
	if n.Text != "" {
		s += " " + n.Text
	}
	if n.Label != "" {
		s += " : " + n.Label
	}
	return s
}

func formatSpan(sp source.Span, fs *source.FileSet) string {
	if !hasFile(fs, sp) {
		return sp.String()
	}
	start, end := fs.Resolve(sp)
	return fmt.Sprintf("%d:%d-%d:%d", start.Line, start.Col, end.Line, end.Col)
}

// FormatASTJSON writes the tree of f as JSON.
func FormatASTJSON(w io.Writer, f *ast.File) error {
	if f == nil {
		return fmt.Errorf("file not found")
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildAST(f))
}
