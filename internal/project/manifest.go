package project

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest is a loaded wj.toml.
type Manifest struct {
	Path   string
	Root   string
	Config Config
}

type Config struct {
	Package PackageConfig `toml:"package"`
	Build   BuildConfig   `toml:"build"`
	Layout  LayoutConfig  `toml:"layout"`
}

type PackageConfig struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

type BuildConfig struct {
	Source     string `toml:"source"`
	Output     string `toml:"output"`
	Target     string `toml:"target"`
	Library    bool   `toml:"library"`
	ModuleFile bool   `toml:"module_file"`
	NoCargo    bool   `toml:"no_cargo"`
	Verify     bool   `toml:"verify"`
}

type LayoutConfig struct {
	FeatureGates map[string][]string `toml:"feature_gates"`
}

// DefaultFeatureGates puts desktop-only modules behind the `desktop` feature.
func DefaultFeatureGates() map[string][]string {
	return map[string][]string{"desktop": {"desktop_*", "app_*", "!app_reactive"}}
}

// DefaultConfig is used when no wj.toml exists.
func DefaultConfig() Config {
	return Config{
		Package: PackageConfig{Name: "windjammer_app", Version: "0.1.0"},
		Build:   BuildConfig{Output: "build", Target: "rust"},
		Layout:  LayoutConfig{FeatureGates: DefaultFeatureGates()},
	}
}

// Load finds and decodes the wj.toml above startDir. ok is false when there
// is none.
func Load(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadConfig decodes one wj.toml; keys it leaves out keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	cfg.Layout.FeatureGates = nil
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if meta.IsDefined("package", "name") && strings.TrimSpace(cfg.Package.Name) == "" {
		return Config{}, fmt.Errorf("%s: [package].name is empty", path)
	}
	if !meta.IsDefined("package", "name") {
		cfg.Package.Name = filepath.Base(filepath.Dir(path))
	}
	if !meta.IsDefined("layout", "feature_gates") {
		cfg.Layout.FeatureGates = DefaultFeatureGates()
	}
	switch cfg.Build.Target {
	case "rust", "js", "ts", "python":
	default:
		return Config{}, fmt.Errorf("%s: [build].target: unknown target %q", path, cfg.Build.Target)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}
