package usage

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
}

func load(t *testing.T, src string) *fixture {
	t.Helper()
	bag := diag.NewBag(0)
	f := parser.ParseSource(source.NewFileSetWithBase(""), "main.wj", src, bag)
	require.Zero(t, bag.Len(), "parse errors: %v", bag.Items())
	reg := registry.New()
	reg.RegisterFile(f, diag.BagReporter{Bag: bag})
	copyclass.Classify(reg)
	info := sema.Check(&ast.Program{Files: []*ast.File{f}}, reg, diag.NopReporter{})
	return &fixture{info: info, reg: reg}
}

func (fx *fixture) facts(t *testing.T, name string) *Facts {
	t.Helper()
	for _, fi := range fx.info.Funcs {
		if fi.Decl.Name == name {
			return Analyze(fx.info, fi)
		}
	}
	t.Fatalf("no function %q", name)
	return nil
}

func record(t *testing.T, f *Facts, name string) *Record {
	t.Helper()
	for b, r := range f.Records {
		if b.Name == name {
			return r
		}
	}
	t.Fatalf("no binding %q", name)
	return nil
}

func TestKinds(t *testing.T) {
	fx := load(t, `
struct Counter { n: i32, log: Vec<string> }
impl Counter {
    fn bump(self, by: i32) { self.n += by }
    fn note(self, msg: string) { self.log.push(msg) }
    fn peek(self) -> i32 { self.n }
}
fn h(p: i32) -> i32 {
    let q = p
    q
}
`)
	bump := fx.facts(t, "bump")
	assert.Equal(t, FieldWrite, record(t, bump, "self").Kinds)
	assert.Equal(t, Read, record(t, bump, "by").Kinds)

	note := fx.facts(t, "note")
	assert.Equal(t, MethodCallMut, record(t, note, "self").Kinds)
	assert.Equal(t, Move, record(t, note, "msg").Kinds)

	peek := fx.facts(t, "peek")
	assert.Equal(t, Read, record(t, peek, "self").Kinds)

	h := fx.facts(t, "h")
	assert.Equal(t, Read, record(t, h, "p").Kinds)
	assert.Equal(t, Read|Returned, record(t, h, "q").Kinds)

	assert.Equal(t, "read|move", (Read | Move).String())
}

func TestUsedAfter(t *testing.T) {
	fx := load(t, `
extern fn sink(s: string)
fn f(flag: bool) {
    let a = String::new()
    sink(a)
    sink(a)
    let b = String::new()
    if flag { sink(b) } else { sink(b) }
    let mut c = String::new()
    sink(c)
    c = String::new()
    sink(c)
    let d = String::new()
    for i in 0..3 {
        sink(d)
    }
}
fn g(flag: bool) -> string {
    let s = String::new()
    if flag {
        return s
    }
    s
}
`)
	f := fx.facts(t, "f")
	a := record(t, f, "a").Sites
	require.Len(t, a, 2)
	assert.True(t, f.UsedAfter(a[0].Ident))
	assert.False(t, f.UsedAfter(a[1].Ident))
	assert.Equal(t, Move, a[0].Kind)

	b := record(t, f, "b").Sites
	require.Len(t, b, 2)
	assert.False(t, f.UsedAfter(b[0].Ident))

	c := record(t, f, "c").Sites
	require.Len(t, c, 3)
	assert.False(t, f.UsedAfter(c[0].Ident))
	assert.Equal(t, Reassign, c[1].Kind)

	d := record(t, f, "d").Sites
	require.Len(t, d, 1)
	assert.True(t, f.UsedAfter(d[0].Ident))

	g := fx.facts(t, "g")
	s := record(t, g, "s").Sites
	require.Len(t, s, 2)
	assert.False(t, g.UsedAfter(s[0].Ident))
	assert.Equal(t, Move|Returned, s[0].Kind)
}

func TestBorrowBreak(t *testing.T) {
	fx := load(t, `
enum State { Idle, Running(i32) }
struct Machine { state: State }
impl Machine {
    fn step(self) {
        match self.state {
            State::Running(n) => {
                self.state = State::Idle
            }
            State::Idle => {}
        }
    }
    fn look(self) -> i32 {
        match self.state {
            State::Running(n) => n,
            State::Idle => 0,
        }
    }
}
`)
	step := fx.facts(t, "step")
	require.Len(t, step.BorrowBreaks, 1)
	for e, v := range step.BorrowBreaks {
		assert.IsType(t, &ast.MatchExpr{}, e)
		assert.True(t, v)
	}
	assert.Empty(t, fx.facts(t, "look").BorrowBreaks)
}

func TestEdgesFollowCurrentModes(t *testing.T) {
	fx := load(t, `
struct V { x: f32 }
impl V {
    fn grow(self) { self.x += 1.0 }
}
fn use_it(v: V) {
    v.grow()
}
`)
	f := fx.facts(t, "use_it")
	require.Len(t, f.Callees, 1)
	grow := f.Callees[0]
	assert.Equal(t, "grow", grow.Name)
	require.Len(t, f.Edges, 1)
	assert.Equal(t, -1, f.Edges[0].Param)
	assert.Equal(t, "v", f.Edges[0].Binding.Name)
	assert.Equal(t, Read, record(t, f, "v").Kinds)

	grow.Recv = types.RecvMutRef
	f = fx.facts(t, "use_it")
	assert.Equal(t, MethodCallMut, record(t, f, "v").Kinds)
}
