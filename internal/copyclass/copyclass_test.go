package copyclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"windjammer/internal/diag"
	"windjammer/internal/parser"
	"windjammer/internal/registry"
	"windjammer/internal/source"
	"windjammer/internal/types"
)

func classify(t *testing.T, src string) (*Result, *registry.Registry) {
	t.Helper()
	bag := diag.NewBag(0)
	f := parser.ParseSource(source.NewFileSetWithBase(""), "types.wj", src, bag)
	require.Zero(t, bag.Len(), "parse diagnostics")
	reg := registry.New()
	reg.RegisterFile(f, diag.BagReporter{Bag: bag})
	require.Zero(t, bag.Len(), "registry diagnostics")
	return Classify(reg), reg
}

func TestAllFloatEnumIsCopy(t *testing.T) {
	res, reg := classify(t, `
enum Shape {
    Circle { r: f32 },
    Point { x: f32, y: f32 },
}
`)
	c, known := res.IsCopy("Shape")
	require.True(t, known)
	assert.True(t, c)
	assert.Subset(t, res.Derives("Shape"), []string{"Copy", "Clone"})
	assert.NotContains(t, res.Derives("Shape"), "Eq")
	assert.True(t, reg.IsCopy(types.Named("Shape")))
}

func TestStringPayloadIsCloneOnly(t *testing.T) {
	res, _ := classify(t, `
enum Event {
    Msg { text: string },
}
`)
	c, _ := res.IsCopy("Event")
	assert.False(t, c)
	assert.Contains(t, res.Derives("Event"), "Clone")
	assert.NotContains(t, res.Derives("Event"), "Copy")
}

func TestTransitiveCopy(t *testing.T) {
	res, _ := classify(t, `
struct Vec2 { x: f32, y: f32 }
struct Body { pos: Vec2, vel: Vec2, mass: f64 }
struct Named { body: Body, name: string }
`)
	for name, want := range map[string]bool{"Vec2": true, "Body": true, "Named": false} {
		c, known := res.IsCopy(name)
		require.True(t, known, name)
		assert.Equal(t, want, c, name)
	}
	assert.Contains(t, res.Derives("Body"), "Default")
}

func TestCyclesAreNotCopy(t *testing.T) {
	res, _ := classify(t, `
struct Node { value: i32, next: Option<Box<Node>> }
struct A { b: Option<B> }
struct B { a: Option<A> }
`)
	for _, name := range []string{"Node", "A", "B"} {
		c, _ := res.IsCopy(name)
		assert.False(t, c, name)
	}
	assert.Contains(t, res.Derives("Node"), "PartialEq")
}

func TestExplicitDerive(t *testing.T) {
	res, _ := classify(t, `
@derive(Debug)
struct Handle { id: u32 }

@derive(Copy)
struct Raw { ptr: usize }
`)
	c, _ := res.IsCopy("Handle")
	assert.False(t, c, "an explicit derive without Copy is not Copy")
	assert.Equal(t, []string{"Debug"}, res.Derives("Handle"))

	c, _ = res.IsCopy("Raw")
	assert.True(t, c)
	assert.Equal(t, []string{"Copy", "Clone"}, res.Derives("Raw"))
}

func TestOpaqueFieldsGetNoDerives(t *testing.T) {
	res, _ := classify(t, `
struct Button { label: string, on_click: Box<dyn Fn()> }
`)
	assert.Empty(t, res.Derives("Button"))
	c, _ := res.IsCopy("Button")
	assert.False(t, c)
}

func TestManualImplSuppressesDerive(t *testing.T) {
	res, _ := classify(t, `
struct Money { cents: i64 }
impl PartialEq for Money {
    fn eq(self, other: Money) -> bool { self.cents == other.cents }
}
`)
	assert.NotContains(t, res.Derives("Money"), "PartialEq")
	assert.Contains(t, res.Derives("Money"), "Copy")
}
