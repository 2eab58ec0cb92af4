package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func files(l *Layout) map[string]string {
	out := make(map[string]string, len(l.Files))
	for _, f := range l.Files {
		out[f.Path] = f.Content
	}
	return out
}

func TestModulePath(t *testing.T) {
	for _, tc := range []struct {
		rel  string
		want []string
		dir  bool
	}{
		{"main.wj", []string{}, true},
		{"lib.wj", []string{}, true},
		{"vec2.wj", []string{"vec2"}, false},
		{"math/vec2.wj", []string{"math", "vec2"}, false},
		{"math/mod.wj", []string{"math"}, true},
		{"rendering/shaders/vertex.wj", []string{"rendering", "shaders", "vertex"}, false},
		{"Game-Loop/main.wj", []string{"game_loop", "main"}, false},
	} {
		got, dir := ModulePath(tc.rel)
		assert.Equal(t, tc.want, got, tc.rel)
		assert.Equal(t, tc.dir, dir, tc.rel)
	}
}

func TestModuleName(t *testing.T) {
	assert.Equal(t, "player_state", ModuleName("Player-State"))
	assert.Equal(t, "_2d", ModuleName("2d"))
	assert.Equal(t, "type_", ModuleName("type"))
	assert.Equal(t, "straße", ModuleName("STRAßE"))
}

func TestGates(t *testing.T) {
	g, err := NewGates(DefaultGates)
	require.NoError(t, err)
	for name, want := range map[string]bool{
		"desktop_window": true,
		"app_shell":      true,
		"app_reactive":   false,
		"physics":        false,
	} {
		_, ok := g.Feature(name)
		assert.Equal(t, want, ok, name)
	}
	f, _ := g.Feature("desktop_window")
	assert.Equal(t, "desktop", f)

	var none *Gates
	_, ok := none.Feature("desktop_window")
	assert.False(t, ok)
}

func TestUsePath(t *testing.T) {
	tr := NewTree(nil)
	assert.Equal(t, "super::vec3", tr.UsePath([]string{"math", "vec2"}, []string{"math", "vec3"}))
	assert.Equal(t, "crate::physics::body", tr.UsePath([]string{"math", "vec2"}, []string{"physics", "body"}))
	assert.Equal(t, "crate::math", tr.UsePath([]string{"game"}, []string{"math"}))

	mounted := NewTree([]string{"generated"})
	assert.Equal(t, "crate::generated::math", mounted.UsePath(nil, []string{"math"}))
}

func TestPlanNestedTree(t *testing.T) {
	units := []*Unit{
		{Module: []string{}, Dir: true, Source: "fn main() {}\n", HasMain: true, Origin: "main.wj"},
		{Module: []string{"math", "vec2"}, Source: "pub struct Vec2 {}\n", Exports: []string{"Vec2"}, Origin: "math/vec2.wj"},
		{Module: []string{"math", "vec3"}, Source: "pub struct Vec3 {}\n", Exports: []string{"Vec3"}, Origin: "math/vec3.wj"},
		{Module: []string{"desktop_ui"}, Source: "pub fn show() {}\n", Origin: "desktop_ui.wj"},
	}
	tr, err := NewTreeOf(units, nil, []string{"ffi"})
	require.NoError(t, err)
	assert.True(t, tr.Has([]string{"math", "vec2"}))
	assert.True(t, tr.Has([]string{"ffi"}))

	gates, err := NewGates(DefaultGates)
	require.NoError(t, err)
	l := Plan(tr, Options{Root: RootMain, Gates: gates})
	got := files(l)

	require.Contains(t, got, "main.rs")
	root := got["main.rs"]
	assert.Contains(t, root, "#[cfg(feature = \"desktop\")]\npub mod desktop_ui;")
	assert.Contains(t, root, "pub mod math;")
	assert.Contains(t, root, "pub mod ffi;")
	assert.NotContains(t, root, "pub use ffi::*;")
	assert.Contains(t, root, "pub use math::*;")
	assert.Contains(t, root, "fn main() {}")

	assert.Contains(t, got["math/mod.rs"], "pub mod vec2;\npub mod vec3;")
	assert.Contains(t, got["math/mod.rs"], "pub use vec2::*;")
	assert.Equal(t, "pub struct Vec2 {}\n", got["math/vec2.rs"])
	assert.Contains(t, got, "desktop_ui.rs")
	assert.NotContains(t, got, "ffi.rs")
}

func TestConflictingExportsDropGlobs(t *testing.T) {
	units := []*Unit{
		{Module: []string{"ui", "button"}, Source: "pub struct Style {}\n", Exports: []string{"Style"}},
		{Module: []string{"ui", "label"}, Source: "pub struct Style {}\n", Exports: []string{"Style"}},
	}
	tr, err := NewTreeOf(units, nil, nil)
	require.NoError(t, err)
	got := files(Plan(tr, Options{}))
	assert.Contains(t, got["ui/mod.rs"], "pub mod button;")
	assert.NotContains(t, got["ui/mod.rs"], "pub use")
	assert.Contains(t, got["lib.rs"], "pub use ui::*;")
}

func TestDirectorySourceAndFile(t *testing.T) {
	units := []*Unit{
		{Module: []string{"net"}, Source: "pub fn dial() {}\n"},
		{Module: []string{"net", "tcp"}, Source: "pub fn listen() {}\n"},
		{Module: []string{"net"}, Dir: true, Source: "pub use tcp::listen;\n", Reexports: true},
	}
	tr, err := NewTreeOf(units, nil, nil)
	require.NoError(t, err)
	got := files(Plan(tr, Options{}))
	mod := got["net/mod.rs"]
	assert.Contains(t, mod, "pub mod tcp;")
	assert.NotContains(t, mod, "pub use tcp::*;")
	assert.Contains(t, mod, "pub use tcp::listen;")
	assert.Contains(t, mod, "pub fn dial() {}")
	assert.NotContains(t, got, "net.rs")
}

func TestDuplicateModule(t *testing.T) {
	_, err := NewTreeOf([]*Unit{
		{Module: []string{"a"}, Origin: "a.wj"},
		{Module: []string{"a"}, Origin: "A.wj"},
	}, nil, nil)
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ErrDuplicateModule, lerr.Kind)

	_, err = NewTreeOf([]*Unit{{Module: []string{"ffi"}}}, nil, []string{"ffi"})
	require.ErrorAs(t, err, &lerr)
	assert.Equal(t, ErrHandWrittenClash, lerr.Kind)
}

func TestDecideRoot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte("[package]\nname = \"x\"\n"), 0o600))
	out := filepath.Join(dir, "src", "generated")
	require.NoError(t, os.MkdirAll(out, 0o755))

	kind, mount := DecideRoot(out, false, true)
	assert.Equal(t, RootMod, kind)
	assert.Equal(t, []string{"generated"}, mount)

	kind, mount = DecideRoot(filepath.Join(dir, "build"), false, true)
	assert.Equal(t, RootMain, kind)
	assert.Empty(t, mount)

	kind, _ = DecideRoot(filepath.Join(dir, "build"), true, true)
	assert.Equal(t, RootLib, kind)
}

func TestDiscoverHandWritten(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src_wj")
	require.NoError(t, os.MkdirAll(src, 0o755))
	write := func(rel, text string) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(text), 0o600))
	}
	write("ffi.rs", "pub fn raw() {}\n")
	write("bindings/mod.rs", "")
	write("notes/readme.txt", "")
	write("src/extra.rs", "")
	write("src/lib.rs", "")
	write("src_wj/game.wj", "")
	write("game.rs", "")
	write("build/out.rs", "")

	hw, err := DiscoverHandWritten(root, src)
	require.NoError(t, err)
	assert.Equal(t, []string{"bindings", "extra", "ffi"}, Names(hw))
	assert.True(t, hw[0].Dir)
}
