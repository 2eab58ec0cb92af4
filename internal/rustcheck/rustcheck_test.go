package rustcheck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"windjammer/internal/diag"
	"windjammer/internal/source"
)

func TestValidRust(t *testing.T) {
	src := []byte(`#[derive(Debug, Clone, Copy)]
pub struct Point {
    pub x: i64,
}

impl Point {
    pub fn shift(&mut self, d: i64) {
        self.x += d;
    }
}
`)
	problems, err := Parse(src)
	require.NoError(t, err)
	assert.Empty(t, problems)
}

func TestBrokenRust(t *testing.T) {
	src := []byte("fn main() {\n    let x = ;\n}\n")
	problems, err := Parse(src)
	require.NoError(t, err)
	require.NotEmpty(t, problems)
	assert.LessOrEqual(t, problems[0].Start, uint32(len(src)))
}

func TestVerifyReportsIntoGeneratedFile(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(0)
	n, err := Verify(fs, "build/main.rs", []byte("fn main( {}\n"), diag.BagReporter{Bag: bag})
	require.NoError(t, err)
	require.Positive(t, n)
	require.Equal(t, n, bag.Len())

	d := bag.Items()[0]
	assert.Equal(t, diag.SemInternalSyntax, d.Code)
	f, ok := fs.GetByPath("build/main.rs")
	require.True(t, ok)
	assert.Equal(t, f.ID, d.Primary.File)
}

func TestVerifyCleanAddsNothing(t *testing.T) {
	fs := source.NewFileSet()
	bag := diag.NewBag(0)
	n, err := Verify(fs, "lib.rs", []byte("pub fn f() -> i64 { 1 }\n"), diag.BagReporter{Bag: bag})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, fs.Len())
}
