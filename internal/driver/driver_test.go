package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"windjammer/internal/ast"
	"windjammer/internal/buildpipeline"
	"windjammer/internal/diag"
	"windjammer/internal/layout"
	"windjammer/internal/parser"
	"windjammer/internal/project"
	"windjammer/internal/source"
	"windjammer/internal/types"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, text := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(text), 0o600))
	}
}

func readOut(t *testing.T, out, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestCompileToRust(t *testing.T) {
	res, err := CompileToRust(`
struct Point { x: i32, y: i32 }
fn main() {
    let p = Point { x: 0, y: 0 }
    p.x = 10
}
`, "main.wj")
	require.NoError(t, err)
	assert.Contains(t, res.Rust, "let mut p = Point { x: 0, y: 0 };")
	assert.Contains(t, res.Rust, "fn main()")
	assert.False(t, res.Diagnostics.HasErrors())
}

func TestCompileToRustLibrarySkipsMain(t *testing.T) {
	res, err := CompileToRustWith("fn helper() -> i32 {\n    1\n}\nfn main() {}\n", "", CompileOptions{Library: true})
	require.NoError(t, err)
	assert.Contains(t, res.Rust, "fn helper() -> i32")
	assert.NotContains(t, res.Rust, "fn main()")
}

func TestCompileToRustSyntaxError(t *testing.T) {
	res, err := CompileToRust("fn main( {\n", "broken.wj")
	require.ErrorIs(t, err, ErrCompileFailed)
	assert.Empty(t, res.Rust)
	assert.True(t, res.Diagnostics.HasErrors())
}

func TestAnalyzeProgram(t *testing.T) {
	bag := diag.NewBag(0)
	f := parser.ParseSource(source.NewFileSetWithBase(""), "main.wj", `
struct Inventory { items: Vec<string> }
impl Inventory {
    fn add(self, item: string) {
        self.items.push(item)
    }
    fn count(self) -> usize {
        self.items.len()
    }
}
`, bag)
	require.Zero(t, bag.Len(), "%v", bag.Items())

	a, err := AnalyzeProgram(&ast.Program{Files: []*ast.File{f}}, AnalyzeOptions{Reporter: diag.BagReporter{Bag: bag}})
	require.NoError(t, err)
	byName := make(map[string]*FunctionAnalysis)
	for _, fa := range a.Functions {
		byName[fa.Name] = fa
	}
	require.Contains(t, byName, "Inventory::add")
	require.Contains(t, byName, "Inventory::count")
	assert.Equal(t, types.RecvMutRef, byName["Inventory::add"].Receiver)
	assert.Equal(t, types.RecvRef, byName["Inventory::count"].Receiver)
	assert.Len(t, byName["Inventory::add"].Modes, 1)
}

func TestCheckTarget(t *testing.T) {
	require.NoError(t, CheckTarget(""))
	require.NoError(t, CheckTarget("rust"))
	require.ErrorIs(t, CheckTarget("python"), ErrUnsupportedTarget)
	require.ErrorIs(t, CheckTarget("cobol"), ErrUnsupportedTarget)
}

func TestDiscoverSources(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.wj":          "",
		"math/vec2.wj":     "",
		"math/notes.txt":   "",
		".cache/x.wj":      "",
		"target/y.wj":      "",
		"generated/out.wj": "",
	})
	got, err := DiscoverSources(root, filepath.Join(root, "generated"))
	require.NoError(t, err)
	assert.Equal(t, []string{"main.wj", "math/vec2.wj"}, got)
}

// newProject lays out a small WJ project and returns its source and output
// directories.
func newProject(t *testing.T, extra map[string]string) (string, string) {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"src_wj/main.wj":      "fn main() {}\n",
		"src_wj/math/vec2.wj": "pub struct Vec2 { x: f32, y: f32 }\n\npub fn zero() -> Vec2 {\n    Vec2 { x: 0.0, y: 0.0 }\n}\n",
	}
	for k, v := range extra {
		files[k] = v
	}
	writeTree(t, root, files)
	return filepath.Join(root, "src_wj"), filepath.Join(root, "build")
}

func TestBuildProject(t *testing.T) {
	src, out := newProject(t, map[string]string{"ffi.rs": "pub fn raw() {}\n"})

	var events []buildpipeline.Event
	res, err := BuildProject(context.Background(), src, out, BuildOptions{
		Package:  project.PackageConfig{Name: "demo"},
		Progress: &buildpipeline.FuncSink{Fn: func(e buildpipeline.Event) { events = append(events, e) }},
	})
	require.NoError(t, err, "%v", res.Diagnostics.Items())
	assert.Equal(t, layout.RootMain, res.Root)
	assert.Equal(t, []string{"main.wj", "math/vec2.wj"}, res.Sources)

	main := readOut(t, out, "main.rs")
	assert.Contains(t, main, "pub mod math;")
	assert.Contains(t, main, "pub mod ffi;")
	assert.Contains(t, main, "fn main()")
	assert.Contains(t, readOut(t, out, "math/mod.rs"), "pub mod vec2;")
	assert.Contains(t, readOut(t, out, "math/vec2.rs"), "pub struct Vec2")
	assert.Equal(t, "pub fn raw() {}\n", readOut(t, out, "ffi.rs"))

	cargo := readOut(t, out, "Cargo.toml")
	assert.Contains(t, cargo, `name = "demo"`)
	assert.Contains(t, cargo, `path = "main.rs"`)
	assert.FileExists(t, filepath.Join(out, RecordName))
	assert.Contains(t, res.Written, "math/vec2.rs")
	assert.Empty(t, res.Preserved)

	var writeDone int
	for _, e := range events {
		if e.Stage == buildpipeline.StageWrite && e.Status == buildpipeline.StatusDone && e.File != "" {
			writeDone++
		}
	}
	assert.Equal(t, 2, writeDone)

	again, err := BuildProject(context.Background(), src, out, BuildOptions{Package: project.PackageConfig{Name: "demo"}})
	require.NoError(t, err)
	assert.Empty(t, again.Written)
	assert.Contains(t, again.Unchanged, "main.rs")
	assert.Contains(t, again.Unchanged, "Cargo.toml")
}

func TestBuildProjectKeepsForeignFiles(t *testing.T) {
	src, out := newProject(t, nil)
	writeTree(t, out, map[string]string{"math/vec2.rs": "// mine\n"})

	res, err := BuildProject(context.Background(), src, out, BuildOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"math/vec2.rs"}, res.Preserved)
	assert.True(t, hasCode(res.Diagnostics, diag.PrjHandWrittenCollision))
	assert.Equal(t, "// mine\n", readOut(t, out, "math/vec2.rs"))
}

func TestBuildProjectPrunesStaleOutput(t *testing.T) {
	src, out := newProject(t, map[string]string{"src_wj/extra.wj": "pub fn extra() {}\n"})
	_, err := BuildProject(context.Background(), src, out, BuildOptions{})
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(out, "extra.rs"))

	require.NoError(t, os.Remove(filepath.Join(src, "extra.wj")))
	_, err = BuildProject(context.Background(), src, out, BuildOptions{})
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(out, "extra.rs"))
}

func TestBuildProjectDryRun(t *testing.T) {
	src, out := newProject(t, nil)
	res, err := BuildProject(context.Background(), src, out, BuildOptions{DryRun: true, NoCargo: true})
	require.NoError(t, err)
	assert.Contains(t, res.Written, "main.rs")
	assert.NotContains(t, res.Written, "Cargo.toml")
	assert.NoDirExists(t, out)
}

func TestBuildProjectModuleFile(t *testing.T) {
	src, out := newProject(t, nil)
	res, err := BuildProject(context.Background(), src, out, BuildOptions{ModuleFile: true})
	require.NoError(t, err)
	assert.Equal(t, layout.RootMod, res.Root)
	assert.FileExists(t, filepath.Join(out, "mod.rs"))
	assert.NoFileExists(t, filepath.Join(out, "Cargo.toml"))
}

func TestBuildProjectFailures(t *testing.T) {
	src, out := newProject(t, nil)
	_, err := BuildProject(context.Background(), src, out, BuildOptions{Target: "js"})
	require.ErrorIs(t, err, ErrUnsupportedTarget)

	empty := t.TempDir()
	res, err := BuildProject(context.Background(), empty, filepath.Join(empty, "build"), BuildOptions{})
	require.ErrorIs(t, err, ErrCompileFailed)
	assert.True(t, hasCode(res.Diagnostics, diag.PrjNoSources))

	writeTree(t, src, map[string]string{"broken.wj": "fn broken( {\n"})
	res, err = BuildProject(context.Background(), src, out, BuildOptions{})
	require.ErrorIs(t, err, ErrCompileFailed)
	assert.True(t, res.Diagnostics.HasErrors())
	assert.NoDirExists(t, out)
}

func TestBuildProjectCanceled(t *testing.T) {
	src, out := newProject(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildProject(ctx, src, out, BuildOptions{})
	require.ErrorIs(t, err, context.Canceled)
}
