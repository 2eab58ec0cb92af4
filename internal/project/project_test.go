package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))
}

func TestLoadWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), `
[package]
name = "game"

[build]
output = "out"
library = true

[layout.feature_gates]
gpu = ["gpu_*"]
`)
	sub := filepath.Join(root, "src_wj", "math")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	m, ok, err := Load(sub)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, root, m.Root)
	assert.Equal(t, "game", m.Config.Package.Name)
	assert.Equal(t, "out", m.Config.Build.Output)
	assert.True(t, m.Config.Build.Library)
	assert.Equal(t, "rust", m.Config.Build.Target)
	assert.Equal(t, map[string][]string{"gpu": {"gpu_*"}}, m.Config.Layout.FeatureGates)
}

func TestLoadDefaults(t *testing.T) {
	root := filepath.Join(t.TempDir(), "demo")
	writeFile(t, filepath.Join(root, ManifestName), "[build]\nverify = true\n")
	cfg, err := LoadConfig(filepath.Join(root, ManifestName))
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.Package.Name)
	assert.Equal(t, "build", cfg.Build.Output)
	assert.True(t, cfg.Build.Verify)
	assert.Equal(t, DefaultFeatureGates(), cfg.Layout.FeatureGates)
}

func TestLoadRejectsUnknown(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ManifestName)
	writeFile(t, path, "[build]\ntarget = \"cobol\"\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cobol")

	writeFile(t, path, "[build]\noutptu = \"x\"\n")
	_, err = LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outptu")
}

func TestNoManifest(t *testing.T) {
	_, ok, err := FindManifest(t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRewriteCargo(t *testing.T) {
	base := t.TempDir()
	src := `
[package]
name = "game"
version = "0.2.0"

[lib]
name = "game_core"
path = "src/lib.rs"
crate-type = ["cdylib", "rlib"]

[[bin]]
name = "game"
path = "src/main.rs"

[dependencies]
serde = "1"
engine = { path = "../engine" }

[target.'cfg(unix)'.dependencies]
sys = { path = "vendor/sys" }
`
	out, err := RewriteCargo([]byte(src), base, CrateTarget{Name: "game", Root: "lib.rs"})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, toml.Unmarshal(out, &m))
	deps := m["dependencies"].(map[string]any)
	assert.Equal(t, "1", deps["serde"])
	engine := deps["engine"].(map[string]any)
	assert.Equal(t, filepath.ToSlash(filepath.Join(filepath.Dir(base), "engine")), engine["path"])

	unix := m["target"].(map[string]any)["cfg(unix)"].(map[string]any)["dependencies"].(map[string]any)
	assert.Equal(t, filepath.ToSlash(filepath.Join(base, "vendor", "sys")), unix["sys"].(map[string]any)["path"])

	lib := m["lib"].(map[string]any)
	assert.Equal(t, "lib.rs", lib["path"])
	assert.Equal(t, "game_core", lib["name"])
	assert.Equal(t, []any{"cdylib", "rlib"}, lib["crate-type"])
	assert.NotContains(t, m, "bin")
}

func TestRewriteCargoBinary(t *testing.T) {
	out, err := RewriteCargo([]byte("[package]\nname = \"tool\"\n"), t.TempDir(), CrateTarget{Name: "x", Root: "main.rs"})
	require.NoError(t, err)
	assert.Contains(t, string(out), "[[bin]]")
	assert.Contains(t, string(out), `name = "tool"`)
	assert.Contains(t, string(out), `path = "main.rs"`)
}

func TestDefaultCargo(t *testing.T) {
	out, err := DefaultCargo(CrateTarget{Name: "app", Root: "lib.rs"})
	require.NoError(t, err)
	var m cargoManifest
	_, err = toml.Decode(string(out), &m)
	require.NoError(t, err)
	assert.Equal(t, "app", m.Package.Name)
	assert.Equal(t, "2021", m.Package.Edition)
	require.NotNil(t, m.Lib)
	assert.Equal(t, "lib.rs", m.Lib.Path)
	assert.Empty(t, m.Bin)
}

func TestDigest(t *testing.T) {
	a := Sum([]byte("a"))
	assert.Equal(t, a, Sum([]byte("a")))
	assert.NotEqual(t, a, Sum([]byte("b")))
	assert.Len(t, a.String(), 64)
	assert.NotEqual(t, Combine(a), Combine(a, Sum([]byte("b"))))
}

func TestDependencyPaths(t *testing.T) {
	got, err := DependencyPaths([]byte(`
[dependencies]
serde = "1"
engine = { path = "/abs/engine" }

[dev-dependencies]
fixtures = { path = "tests/fixtures" }
`))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"dependencies.engine":       "/abs/engine",
		"dev-dependencies.fixtures": "tests/fixtures",
	}, got)

	_, err = DependencyPaths([]byte("[dependencies\n"))
	require.Error(t, err)
}
