package ownership

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"windjammer/internal/ast"
	"windjammer/internal/copyclass"
	"windjammer/internal/diag"
	"windjammer/internal/parser"
	"windjammer/internal/registry"
	"windjammer/internal/sema"
	"windjammer/internal/source"
	"windjammer/internal/types"
)

type fixture struct {
	info *sema.Info
	reg  *registry.Registry
	res  *Result
	bag  *diag.Bag
}

func infer(t *testing.T, src string) *fixture {
	t.Helper()
	bag := diag.NewBag(0)
	f := parser.ParseSource(source.NewFileSetWithBase(""), "main.wj", src, bag)
	require.Zero(t, bag.Len(), "parse errors: %v", bag.Items())
	reg := registry.New()
	reg.RegisterFile(f, diag.BagReporter{Bag: bag})
	copyclass.Classify(reg)
	info := sema.Check(&ast.Program{Files: []*ast.File{f}}, reg, diag.NopReporter{})
	res := Infer(info, diag.BagReporter{Bag: bag})
	return &fixture{info: info, reg: reg, res: res, bag: bag}
}

func (fx *fixture) fn(t *testing.T, owner, name string) *sema.FuncInfo {
	t.Helper()
	for _, fi := range fx.info.Funcs {
		if fi.Decl.Name == name && fi.Decl.Owner == owner {
			return fi
		}
	}
	t.Fatalf("no function %s::%s", owner, name)
	return nil
}

func (fx *fixture) mode(t *testing.T, owner, name string, param int) types.Mode {
	t.Helper()
	return fx.fn(t, owner, name).Sig.Params[param].Mode
}

func (fx *fixture) recv(t *testing.T, owner, name string) types.Receiver {
	t.Helper()
	return fx.fn(t, owner, name).Sig.Recv
}

func binding(t *testing.T, fi *sema.FuncInfo, name string) *sema.Binding {
	t.Helper()
	for _, b := range fi.Bindings {
		if b.Name == name {
			return b
		}
	}
	t.Fatalf("no binding %q", name)
	return nil
}

func TestReceiversAndParams(t *testing.T) {
	fx := infer(t, `
struct Counter { n: i32, items: Vec<string> }
impl Counter {
    fn get(self) -> i32 { self.n }
    fn bump(self) { self.n += 1 }
    fn consume(self) -> Counter { self }
}
fn show(c: Counter) -> i32 { c.get() }
fn add(c: Counter, s: string) { c.items.push(s) }
fn twice(x: i32) -> i32 { x * 2 }
fn peek(c: &Counter) -> i32 { c.n }
`)
	require.Zero(t, fx.bag.Len())

	assert.Equal(t, types.RecvRef, fx.recv(t, "Counter", "get"))
	assert.Equal(t, types.RecvMutRef, fx.recv(t, "Counter", "bump"))
	assert.Equal(t, types.RecvValue, fx.recv(t, "Counter", "consume"))

	assert.Equal(t, types.Borrowed, fx.mode(t, "", "show", 0))
	assert.Equal(t, types.MutBorrowed, fx.mode(t, "", "add", 0))
	assert.Equal(t, types.Owned, fx.mode(t, "", "add", 1))
	assert.Equal(t, types.Owned, fx.mode(t, "", "twice", 0))

	peek := fx.fn(t, "", "peek").Sig.Params[0]
	assert.True(t, peek.Explicit)
	assert.Equal(t, types.Borrowed, peek.Mode)

	show := fx.fn(t, "", "show")
	assert.Equal(t, types.Borrowed, binding(t, show, "c").Mode)
	assert.Equal(t, "&Counter", binding(t, show, "c").Effective().String())
}

func TestModesPropagateThroughCalls(t *testing.T) {
	fx := infer(t, `
fn sink(v: Vec<i32>) -> Vec<i32> { v }
fn pass(v: Vec<i32>) -> Vec<i32> { sink(v) }
fn outer(v: Vec<i32>) -> Vec<i32> { pass(v) }
fn ping(v: Vec<i32>, n: i32) {
    if n > 0 { pong(v, n - 1) }
}
fn pong(v: Vec<i32>, n: i32) {
    if n > 0 { ping(v, n - 1) } else { drop(v) }
}
fn reader(v: Vec<i32>) -> usize { v.len() }
`)
	for _, name := range []string{"sink", "pass", "outer", "ping", "pong"} {
		assert.Equal(t, types.Owned, fx.mode(t, "", name, 0), name)
	}
	assert.Equal(t, types.Borrowed, fx.mode(t, "", "reader", 0))
}

func TestTraitUnification(t *testing.T) {
	fx := infer(t, `
trait Shape {
    fn area(self) -> f32
    fn grow(self, k: f32)
    fn finish(self) -> string
}
struct Sq { s: f32, name: string }
struct Circ { r: f32, name: string }
fn keep(c: Circ) -> Circ { c }
impl Shape for Sq {
    fn area(self) -> f32 { self.s * self.s }
    fn grow(self, k: f32) { self.s *= k }
    fn finish(self) -> string { self.name.clone() }
}
impl Shape for Circ {
    fn area(self) -> f32 { self.r * self.r }
    fn grow(self, k: f32) { self.r *= k }
    fn finish(self) -> string { keep(self).name }
}
trait Named {
    fn name(&self) -> string
}
impl Named for Sq {
    fn name(self) -> string { self.name.clone() }
}
`)
	require.Zero(t, fx.bag.Len())

	stub := fx.reg.Method("Shape", "area")
	require.NotNil(t, stub)
	assert.Equal(t, types.RecvRef, stub.Recv)
	assert.Equal(t, types.RecvRef, fx.recv(t, "Sq", "area"))

	assert.Equal(t, types.RecvMutRef, fx.reg.Method("Shape", "grow").Recv)
	assert.Equal(t, types.RecvMutRef, fx.recv(t, "Circ", "grow"))

	assert.Equal(t, types.RecvValue, fx.reg.Method("Shape", "finish").Recv)
	assert.Equal(t, types.RecvValue, fx.recv(t, "Sq", "finish"))
	assert.Equal(t, types.RecvValue, fx.recv(t, "Circ", "finish"))

	named := fx.reg.Method("Sq", "name")
	assert.Equal(t, types.RecvRef, named.Recv)
}

func TestStdTraitForms(t *testing.T) {
	fx := infer(t, `
use std::ops::Add
use std::fmt
@derive(Clone)
struct V { x: f32, tag: string }
impl Add for V {
    type Output = V
    fn add(self, o: V) -> V { V { x: self.x + o.x, tag: self.tag } }
}
impl fmt::Display for V {
    fn fmt(self, f: &mut fmt::Formatter) -> fmt::Result {
        write!(f, "{}", self.x)
    }
}
`)
	add := fx.reg.Method("V", "add")
	require.NotNil(t, add)
	assert.Equal(t, types.RecvValue, add.Recv)
	assert.Equal(t, types.Owned, add.Params[0].Mode)
	assert.True(t, add.Params[0].Fixed)

	assert.Equal(t, types.RecvRef, fx.reg.Method("V", "fmt").Recv)
}

func TestMutability(t *testing.T) {
	fx := infer(t, `
struct P { x: i32 }
fn build() -> Vec<i32> {
    let mut v = Vec::new()
    v.push(1)
    let mut idle = 5
    v
}
fn tweak(mut n: i32, label: string) -> i32 {
    n += 1
    n
}
fn shift(ps: Vec<P>) {
    for p in ps.iter_mut() {
        p.x += 1
    }
}
`)
	build := fx.fn(t, "", "build")
	assert.True(t, binding(t, build, "v").Mutable)
	assert.False(t, binding(t, build, "idle").Mutable)

	tweak := fx.fn(t, "", "tweak")
	assert.True(t, tweak.Sig.Params[0].Mutated)
	assert.False(t, tweak.Sig.Params[1].Mutated)
	assert.Equal(t, types.Borrowed, tweak.Sig.Params[1].Mode)

	shift := fx.fn(t, "", "shift")
	assert.Equal(t, types.MutBorrowed, shift.Sig.Params[0].Mode)
	assert.False(t, binding(t, shift, "p").Mutable)
}

func TestScrutineeBorrows(t *testing.T) {
	fx := infer(t, `
enum Msg { Text(string), Num(i32) }
struct Inbox { last: Msg }
impl Inbox {
    fn show(self) -> string {
        match self.last {
            Msg::Text(s) => s.clone(),
            Msg::Num(n) => n.to_string(),
        }
    }
}
fn count(m: Msg) -> i32 {
    match m {
        Msg::Num(n) => n,
        Msg::Text(_) => 0,
    }
}
`)
	show := fx.fn(t, "Inbox", "show")
	assert.Equal(t, types.RecvRef, show.Sig.Recv)
	require.Len(t, fx.res.Borrows, 1)
	for _, m := range fx.res.Borrows {
		assert.Equal(t, types.Borrowed, m)
	}
	assert.Equal(t, "&String", binding(t, show, "s").Effective().String())
	assert.Equal(t, "&i32", binding(t, show, "n").Effective().String())

	count := fx.fn(t, "", "count")
	assert.Equal(t, types.Borrowed, count.Sig.Params[0].Mode)
	assert.Equal(t, "&i32", binding(t, count, "n").Effective().String())
}
