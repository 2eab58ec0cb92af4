package sema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"windjammer/internal/ast"
	"windjammer/internal/copyclass"
	"windjammer/internal/diag"
	"windjammer/internal/parser"
	"windjammer/internal/registry"
	"windjammer/internal/source"
	"windjammer/internal/types"
)

func checkSource(t *testing.T, src string) (*Info, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSetWithBase("")
	bag := diag.NewBag(0)
	f := parser.ParseSource(fs, "main.wj", src, bag)
	require.Zero(t, bag.Len(), "parse errors: %v", bag.Items())
	reg := registry.New()
	reg.RegisterFile(f, diag.BagReporter{Bag: bag})
	copyclass.Classify(reg)
	info := Check(&ast.Program{Files: []*ast.File{f}}, reg, diag.BagReporter{Bag: bag})
	return info, bag
}

func fn(t *testing.T, info *Info, name string) *FuncInfo {
	t.Helper()
	for _, fi := range info.Funcs {
		if fi.Decl.Name == name {
			return fi
		}
	}
	t.Fatalf("no function %q", name)
	return nil
}

func binding(t *testing.T, fi *FuncInfo, name string) *Binding {
	t.Helper()
	for _, b := range fi.Bindings {
		if b.Name == name {
			return b
		}
	}
	t.Fatalf("no binding %q in %s", name, fi.Decl.Name)
	return nil
}

func tail(fi *FuncInfo) ast.Expr {
	stmts := fi.Decl.Body.Stmts
	return stmts[len(stmts)-1].(*ast.ExprStmt).X
}

func TestFieldAndMethodLabels(t *testing.T) {
	info, bag := checkSource(t, `
struct Item { name: string, price: f32 }
struct Cart { items: Vec<Item> }
impl Cart {
    fn total(self) -> f32 {
        let mut sum = 0.0
        for item in &self.items {
            sum += item.price
        }
        sum
    }
    fn first_name(self) -> string {
        self.items[0].name.clone()
    }
}
`)
	require.Zero(t, bag.Len())

	total := fn(t, info, "total")
	require.NotNil(t, total.Self)
	assert.Equal(t, "Cart", total.Self.Label.String())
	assert.Equal(t, "&Item", binding(t, total, "item").Label.String())
	assert.Equal(t, "f64", binding(t, total, "sum").Label.String())

	first := fn(t, info, "first_name")
	assert.Equal(t, "String", tail(first).Label().String())
}

func TestPatternPayloads(t *testing.T) {
	info, bag := checkSource(t, `
struct Point { x: i32, y: i32 }
enum Shape { Circle(f32), Rect { w: f32, h: f32 } }
fn area(s: Shape) -> f32 {
    match s {
        Shape::Circle(r) => r * r,
        Shape::Rect { w, h } => w * h,
    }
}
fn first(v: Vec<string>) -> string {
    if let Some(x) = v.get(0) { x.clone() } else { String::new() }
}
fn peek(p: &Option<Point>) {
    if let Some(q) = p { }
}
`)
	require.Zero(t, bag.Len())

	area := fn(t, info, "area")
	assert.Equal(t, "f32", binding(t, area, "r").Label.String())
	assert.Equal(t, "f32", binding(t, area, "w").Label.String())
	assert.Equal(t, "f32", binding(t, area, "h").Label.String())

	first := fn(t, info, "first")
	assert.Equal(t, "&String", binding(t, first, "x").Label.String())

	peek := fn(t, info, "peek")
	assert.Equal(t, "&Point", binding(t, peek, "q").Label.String())
}

func TestCallResolution(t *testing.T) {
	info, bag := checkSource(t, `
fn wrap<T>(x: T) -> Option<T> { Some(x) }
fn main() {
    let a = wrap(5u8)
    let b = Some(1)
    ffi_thing(a)
}
`)
	main := fn(t, info, "main")
	assert.Equal(t, "Option<u8>", binding(t, main, "a").Label.String())

	kinds := map[CallKind]int{}
	for _, c := range info.Calls {
		kinds[c.Kind]++
	}
	assert.Equal(t, 1, kinds[CallUser])
	assert.Equal(t, 2, kinds[CallStd])
	assert.Equal(t, 1, kinds[CallUnknown])

	require.Equal(t, 1, bag.Len())
	d := bag.Items()[0]
	assert.Equal(t, diag.SemExternAssumed, d.Code)
	assert.Contains(t, d.Message, "ffi_thing")
}

func TestClosureHintsAndRefinement(t *testing.T) {
	info, bag := checkSource(t, `
fn lengths(names: Vec<string>) -> Vec<usize> {
    let mut out = Vec::new()
    out.push(3u8)
    names.iter().map(|n| n.len()).collect::<Vec<usize>>()
}
`)
	require.Zero(t, bag.Len())
	fi := fn(t, info, "lengths")
	assert.Equal(t, "&String", binding(t, fi, "n").Label.String())
	assert.Equal(t, "Vec<u8>", binding(t, fi, "out").Label.String())
	assert.Equal(t, "Vec<usize>", tail(fi).Label().String())
}

func TestLoopDepthAndUses(t *testing.T) {
	info, bag := checkSource(t, `
struct Counter { n: i32 }
impl Counter {
    fn bump(self, xs: Vec<i32>) {
        let a = 1
        for x in xs {
            let b = x
            self.n += b
        }
    }
}
`)
	require.Zero(t, bag.Len())
	fi := fn(t, info, "bump")
	assert.Equal(t, 0, binding(t, fi, "a").LoopDepth)
	assert.Equal(t, 1, binding(t, fi, "x").LoopDepth)
	assert.Equal(t, 1, binding(t, fi, "b").LoopDepth)
	assert.Equal(t, 0, binding(t, fi, "xs").LoopDepth)

	selfUses := 0
	for id, b := range fi.Uses {
		if b == fi.Self {
			assert.Equal(t, "self", id.Name)
			selfUses++
		}
	}
	assert.Equal(t, 1, selfUses)
}

func TestOrPatternSharesBinding(t *testing.T) {
	info, bag := checkSource(t, `
fn pick(t: (i32, i32)) -> i32 {
    match t {
        (a, 0) | (0, a) => a,
        _ => 0,
    }
}
`)
	require.Zero(t, bag.Len())
	fi := fn(t, info, "pick")
	a := binding(t, fi, "a")
	assert.Equal(t, "i32", a.Label.String())
	n := 0
	for _, b := range fi.Pats {
		if b == a {
			n++
		}
	}
	assert.Equal(t, 2, n)
}

func TestStrayPrimitiveStatement(t *testing.T) {
	_, bag := checkSource(t, `
fn f() {
    u64
}
`)
	require.Equal(t, 1, bag.Len())
	assert.Equal(t, diag.SemInternalSyntax, bag.Items()[0].Code)
}

func TestEffectiveLabel(t *testing.T) {
	info, bag := checkSource(t, `
fn greet(name: string, count: i32) { }
`)
	require.Zero(t, bag.Len())
	fi := fn(t, info, "greet")
	name := binding(t, fi, "name")
	name.Mode = types.Borrowed
	assert.Equal(t, "&str", name.Effective().String())
	ref, mut := name.Holds()
	assert.True(t, ref)
	assert.False(t, mut)
}

func TestUnresolvedAssociatedCall(t *testing.T) {
	_, bag := checkSource(t, `
struct Vec2 { x: f32, y: f32 }
impl Vec2 {
    fn length(self) -> f32 { self.x }
}
fn main() {
    let v = Vec2::lenth()
}
`)
	require.Equal(t, 1, bag.Len())
	d := bag.Items()[0]
	assert.Equal(t, diag.SemNameResolution, d.Code)
	assert.Equal(t, diag.SevError, d.Severity)
	assert.Contains(t, d.Message, "`lenth`")
	require.Len(t, d.Help, 1)
	assert.Contains(t, d.Help[0], "impl Vec2")
	require.Len(t, d.Suggestions, 1)
	assert.Equal(t, "Vec2::length", *d.Suggestions[0].Replacement)
}

func TestUnknownStructLiteralType(t *testing.T) {
	_, bag := checkSource(t, `
use std::ops::Range
struct Player { hp: i32 }
fn spawn() {
    let p = Playr { hp: 3 }
    let r = Range { start: 0, end: 3 }
}
`)
	require.Equal(t, 1, bag.Len())
	d := bag.Items()[0]
	assert.Equal(t, diag.SemUnknownType, d.Code)
	assert.Contains(t, d.Message, "`Playr`")
	require.Len(t, d.Suggestions, 1)
	assert.Equal(t, "Player", *d.Suggestions[0].Replacement)
}
