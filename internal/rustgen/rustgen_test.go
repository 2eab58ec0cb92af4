package rustgen

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"windjammer/internal/ast"
	"windjammer/internal/copyclass"
	"windjammer/internal/diag"
	"windjammer/internal/ownership"
	"windjammer/internal/parser"
	"windjammer/internal/registry"
	"windjammer/internal/sema"
	"windjammer/internal/source"
)

// emit runs the whole pipeline over one file and returns the Rust text.
func emit(t *testing.T, src string) string {
	t.Helper()
	out, _, err := tryEmit(t, src)
	require.NoError(t, err)
	return out.Source()
}

func tryEmit(t *testing.T, src string) (*Output, *diag.Bag, error) {
	t.Helper()
	bag := diag.NewBag(0)
	f := parser.ParseSource(source.NewFileSetWithBase(""), "main.wj", src, bag)
	require.Zero(t, bag.Len(), "parse errors: %v", bag.Items())
	reg := registry.New()
	rep := diag.BagReporter{Bag: bag}
	reg.RegisterFile(f, rep)
	cc := copyclass.Classify(reg)
	info := sema.Check(&ast.Program{Files: []*ast.File{f}}, reg, diag.NopReporter{})
	own := ownership.Infer(info, rep)
	out, err := New(info, own, cc, rep, Options{}).EmitFile(f)
	return out, bag, err
}

func TestFieldWriteMakesLetMutable(t *testing.T) {
	out := emit(t, `
struct Point { x: i32, y: i32 }
fn f() {
    let p = Point { x: 0, y: 0 }
    p.x = 10
}
`)
	assert.Contains(t, out, "let mut p = Point { x: 0, y: 0 };")
	assert.Contains(t, out, "p.x = 10;")
	assert.NotContains(t, out, ".clone()")
}

func TestLoopConsumedParamIsOwned(t *testing.T) {
	out := emit(t, `
fn g(items: Vec<string>) {
    for item in items {
        println!("{}", item)
    }
}
`)
	assert.Contains(t, out, "pub fn g(items: Vec<String>)")
	assert.NotContains(t, out, "&Vec<String>")
	assert.Contains(t, out, "for item in items {")
}

func TestNoDoubleBorrow(t *testing.T) {
	out := emit(t, `
use std::collections::HashMap
fn h(users: &HashMap<string, i32>, k: string) -> bool {
    users.contains_key(&k)
}
fn main() {
    let m: HashMap<string, i32> = HashMap::new()
    for key in m.keys() {
        h(&m, key)
    }
}
`)
	assert.Contains(t, out, "users.contains_key(k)")
	assert.NotContains(t, out, "&&")
	assert.Contains(t, out, "h(&m, key);")
}

func TestExplicitCloneIsNotDoubled(t *testing.T) {
	out := emit(t, `
struct Item { name: string }
struct Stack { item: Item, count: i32 }
struct Inventory { items: Vec<Item> }
impl Inventory {
    fn add(self, item: Item) {
        self.items.push(item)
    }
}
fn collect(stacks: Vec<Stack>, inv: Inventory) {
    for stack in &stacks {
        inv.add(stack.item.clone())
    }
}
`)
	assert.Equal(t, 1, strings.Count(out, ".clone()"), out)
	assert.NotContains(t, out, ".clone().clone()")
	assert.Contains(t, out, "fn add(&mut self, item: Item)")
}

func TestCopyDerives(t *testing.T) {
	out := emit(t, `
enum Shape {
    Circle { r: f32 },
    Point { x: f32, y: f32 },
}
enum Event {
    Msg { text: string },
}
`)
	var shape, event string
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "#[derive(") {
			if shape == "" {
				shape = line
			} else {
				event = line
			}
		}
	}
	assert.Contains(t, shape, "Copy")
	assert.Contains(t, shape, "Clone")
	assert.Contains(t, event, "Clone")
	assert.NotContains(t, event, "Copy")
	assert.Contains(t, out, "pub enum Shape {")
	assert.Contains(t, out, "Msg { text: String },")
}

func TestSingleArmMatchBecomesIfLet(t *testing.T) {
	out := emit(t, `
struct Holder { data: Option<i32> }
impl Holder {
    fn show(self) {
        match self.data {
            Some(x) => { println!("{}", x) },
            _ => {},
        }
    }
}
`)
	assert.Contains(t, out, "if let Some(x) = self.data {")
	assert.NotContains(t, out, "match ")
}

func TestExternCallIsUnsafe(t *testing.T) {
	out := emit(t, `
extern fn c_fn(x: i32)
fn wrap(x: i32) {
    c_fn(x)
}
`)
	assert.Contains(t, out, "unsafe { c_fn(x) }")
	assert.Contains(t, out, `extern "C" {`)
	assert.Contains(t, out, "pub fn c_fn(x: i32);")
}

func TestOperatorTraitTakesSelfByValue(t *testing.T) {
	out := emit(t, `
use std::ops::Add
struct Vec2 { x: f32, y: f32 }
impl Add for Vec2 {
    fn add(self, other: Vec2) -> Vec2 {
        Vec2 { x: self.x + other.x, y: self.y + other.y }
    }
}
`)
	assert.Contains(t, out, "fn add(self, other: Vec2) -> Vec2")
	assert.NotContains(t, out, "&self")
	assert.Contains(t, out, "type Output = Vec2;")
	assert.Contains(t, out, "impl Add for Vec2 {")
}

func TestIdempotentEmission(t *testing.T) {
	src := `
use std::collections::HashMap
struct Counter { hits: HashMap<string, i32> }
impl Counter {
    fn hit(self, key: string) {
        let n = self.hits.get(&key).copied().unwrap_or(0)
        self.hits.insert(key, n + 1)
    }
}
`
	assert.Equal(t, emit(t, src), emit(t, src))
}

func TestImportsFollowUsage(t *testing.T) {
	out := emit(t, `
// a HashSet is mentioned here only
fn names() -> Vec<string> {
    let m: HashMap<string, i32> = HashMap::new()
    let note = "BTreeMap"
    m.keys().cloned().collect()
}
`)
	assert.Contains(t, out, "use std::collections::HashMap;")
	assert.NotContains(t, out, "HashSet")
	assert.NotContains(t, out, "use std::collections::BTreeMap;")
}

func TestUnknownMethodOnUserType(t *testing.T) {
	_, bag, err := tryEmit(t, `
struct Door { open: bool }
fn f(d: Door) {
    d.slam()
}
`)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmitFailed)
	found := false
	for _, d := range bag.Items() {
		if d.Code == diag.SemUnknownMethod {
			found = true
		}
	}
	assert.True(t, found)
}

func TestStringConcatBecomesFormat(t *testing.T) {
	out := emit(t, `
fn greet(name: string) -> string {
    "hi " + name + "!"
}
`)
	assert.Contains(t, out, `format!("hi {}!", name)`)
	assert.NotContains(t, out, `"hi " +`)
}

func TestIndexIsCastToUsize(t *testing.T) {
	out := emit(t, `
fn at(v: Vec<i32>, i: i32) -> i32 {
    v[i]
}
`)
	assert.Contains(t, out, "v[i as usize]")
}

func TestInsertedCastBeforeLessThanIsParenthesized(t *testing.T) {
	out := emit(t, `
fn inside(i: i32, v: Vec<i32>) -> bool {
    i < v.len()
}
`)
	assert.Contains(t, out, "(i as usize) < v.len()")
}

func TestCopyScrutineeIsNotBorrowed(t *testing.T) {
	out := emit(t, `
fn h(o: Option<i32>) -> i32 {
    if let Some(v) = o { v } else { 0 }
}
fn kind(n: i32) -> string {
    match n {
        1 => "one".to_string(),
        _ => "many".to_string(),
    }
}
`)
	assert.Contains(t, out, "if let Some(v) = o {")
	assert.NotContains(t, out, "= &o")
	assert.Contains(t, out, "match n {")
	assert.NotContains(t, out, "match &n")
}

func TestBorrowBreakDetachesOptionRef(t *testing.T) {
	out := emit(t, `
struct Stack { v: Vec<i32> }
impl Stack {
    fn grow(self) -> i32 {
        match self.v.first() {
            Some(x) => {
                self.v.push(1)
                x
            },
            None => 0,
        }
    }
}
`)
	assert.Contains(t, out, "let __match_value = self.v.first().copied();")
	assert.Contains(t, out, "match __match_value {")
	assert.NotContains(t, out, "*x")
}

func TestStatementAfterReturnKeepsSemicolon(t *testing.T) {
	out := emit(t, `
fn f(x: i32) -> i32 {
    return x;
    println!("after")
}
`)
	assert.Contains(t, out, "return x;")
	assert.Contains(t, out, `println!("after");`)
}
