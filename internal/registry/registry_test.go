package registry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/parser"
	"windjammer/internal/source"
	"windjammer/internal/types"
)

func load(t *testing.T, files map[string]string, modules map[string][]string) (*Registry, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSetWithBase("")
	bag := diag.NewBag(0)
	reg := New()
	var parsed []*ast.File
	for name, src := range files {
		id := fs.AddVirtual(name, []byte(src))
		f := parser.ParseFile(fs, id, modules[name], parser.Options{Reporter: diag.BagReporter{Bag: bag}})
		require.Zero(t, bag.Len(), "parse %s", name)
		reg.DeclareModule(f.Module)
		parsed = append(parsed, f)
	}
	for _, f := range parsed {
		reg.RegisterFile(f, diag.BagReporter{Bag: bag})
	}
	return reg, bag
}

func TestRegisterAndResolveFunctions(t *testing.T) {
	reg, bag := load(t, map[string]string{
		"main.wj": `
use crate::math::add
fn main() { }
`,
		"math.wj": `
pub fn add(a: i32, b: i32) -> i32 { a + b }
pub fn scale(v: &Vec2, k: f32) { }
`,
	}, map[string][]string{"math.wj": {"math"}})
	require.Zero(t, bag.Len())

	sig, err := reg.ResolveFunc(Scope{}, []string{"add"})
	require.NoError(t, err)
	assert.Equal(t, "math::add", sig.Key())
	assert.Equal(t, "i32", sig.Result.String())

	sig, err = reg.ResolveFunc(Scope{}, []string{"math", "scale"})
	require.NoError(t, err)
	assert.True(t, sig.Params[0].Explicit)
	assert.False(t, sig.Params[1].Explicit)

	_, err = reg.ResolveFunc(Scope{}, []string{"println"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDuplicateDeclaration(t *testing.T) {
	_, bag := load(t, map[string]string{
		"main.wj": `
fn f() { }
fn f() { }
struct S { }
struct S { }
`,
	}, nil)
	require.Equal(t, 2, bag.Len())
	for _, d := range bag.Items() {
		assert.Equal(t, diag.SemDuplicateDecl, d.Code)
		assert.Len(t, d.Notes, 1)
	}
}

func TestResolveMethodByReceiverLabel(t *testing.T) {
	reg, _ := load(t, map[string]string{
		"main.wj": `
struct Circle { r: f32 }
struct Square { s: f32 }
trait Shape { fn area(self) -> f32 fn describe(self) -> string { "shape" } }
impl Shape for Circle { fn area(self) -> f32 { self.r } }
impl Shape for Square { fn area(self) -> f32 { self.s } }
impl Circle { fn grow(self, by: f32) { self.r += by } }
`,
	}, nil)

	sig, err := reg.ResolveMethod(types.Named("Circle"), "area", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "Circle", sig.Owner)

	sig, err = reg.ResolveMethod(types.Ref(types.Named("Square"), false), "describe", 0, nil)
	require.NoError(t, err, "trait default methods resolve through impls")
	assert.True(t, sig.Stub)

	sig, err = reg.ResolveMethod(types.Param("T"), "area", 0, func(string) []string { return []string{"Shape"} })
	require.NoError(t, err)
	assert.Equal(t, "Shape", sig.Owner)

	sig, err = reg.ResolveMethod(nil, "grow", 1, nil)
	require.NoError(t, err, "a single candidate resolves an unknown receiver")
	assert.Equal(t, "Circle::grow", sig.Key())
}

func TestAmbiguousMethod(t *testing.T) {
	reg, _ := load(t, map[string]string{
		"main.wj": `
struct A { }
struct B { }
impl A { fn run(self) { } }
impl B { fn run(self) { } }
`,
	}, nil)
	_, err := reg.ResolveMethod(nil, "run", 0, nil)
	var amb *AmbiguousError
	require.True(t, errors.As(err, &amb))
	assert.Len(t, amb.Candidates, 2)

	sig, err := reg.ResolveMethod(types.Named("B"), "run", 0, nil)
	require.NoError(t, err)
	assert.Equal(t, "B", sig.Owner)
}

func TestUpdateParamModeIsMonotone(t *testing.T) {
	reg, _ := load(t, map[string]string{
		"main.wj": `
struct S { }
impl S { fn m(self, x: Vec<i32>, y: &Vec<i32>) { } }
`,
	}, nil)
	sig := reg.Method("S", "m")
	require.NotNil(t, sig)

	assert.True(t, reg.UpdateParamMode(sig, 0, types.MutBorrowed))
	assert.False(t, reg.UpdateParamMode(sig, 0, types.Borrowed))
	assert.Equal(t, types.MutBorrowed, sig.Params[0].Mode)
	assert.False(t, reg.UpdateParamMode(sig, 1, types.Owned), "written references stay")

	assert.True(t, reg.UpdateParamMode(sig, -1, types.Borrowed))
	assert.Equal(t, types.RecvRef, sig.Recv)
	assert.True(t, reg.UpdateParamMode(sig, -1, types.Owned))
	assert.Equal(t, types.RecvValue, sig.Recv)
}

func TestIsCopyUsesOracle(t *testing.T) {
	reg := New()
	assert.True(t, reg.IsCopy(types.I32))
	assert.False(t, reg.IsCopy(types.Named("Point")))
	reg.SetCopyOracle(func(name string) (bool, bool) { return name == "Point", name == "Point" })
	assert.True(t, reg.IsCopy(types.Named("Point")))
	assert.True(t, reg.IsCopy(types.Named("Option", types.Named("Point"))))
	assert.False(t, reg.IsCopy(types.Named("Vec", types.Named("Point"))))
}

func TestUnresolvedPaths(t *testing.T) {
	reg, bag := load(t, map[string]string{
		"main.wj": `
use std::ops::Range
struct Vec2 { x: f32, y: f32 }
impl Vec2 {
    fn length(self) -> f32 { self.x }
}
fn main() { }
`,
		"math.wj": `
pub fn scale(k: f32) -> f32 { k }
`,
	}, map[string][]string{"math.wj": {"math"}})
	require.Zero(t, bag.Len())

	miss, ok := reg.Unresolved(Scope{}, []string{"Vec2", "lenth"})
	require.True(t, ok)
	assert.Equal(t, "lenth", miss.Name)
	assert.Equal(t, []string{"impl Vec2"}, miss.Scopes)
	assert.Equal(t, []string{"length"}, miss.Known)

	miss, ok = reg.Unresolved(Scope{}, []string{"math", "scael"})
	require.True(t, ok)
	assert.Equal(t, []string{"crate::math"}, miss.Scopes)

	for _, path := range [][]string{
		{"Vec2", "default"},    // derivable
		{"HashMap", "new"},     // foreign type
		{"rand", "random"},     // foreign crate
		{"std", "mem", "swap"}, // std
		{"missing"},            // bare name stays extern-assumed
	} {
		_, ok := reg.Unresolved(Scope{}, path)
		assert.False(t, ok, "%v", path)
	}

	_, ok = reg.UnknownType(nil, "Vec3")
	assert.True(t, ok)
	_, ok = reg.UnknownType(nil, "Range")
	assert.False(t, ok, "imported from std")
	_, ok = reg.UnknownType(nil, "Vec2")
	assert.False(t, ok)
}

func TestClosest(t *testing.T) {
	best, ok := Closest("lenth", []string{"width", "length", "len"})
	require.True(t, ok)
	assert.Equal(t, "length", best)

	best, ok = Closest("Playr", []string{"Enemy", "Player"})
	require.True(t, ok)
	assert.Equal(t, "Player", best)

	_, ok = Closest("update", []string{"render", "draw"})
	assert.False(t, ok)
}
