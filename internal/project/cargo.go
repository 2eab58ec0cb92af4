package project

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// CargoName is the Cargo manifest file name.
const CargoName = "Cargo.toml"

// CrateTarget describes the crate the build produces.
type CrateTarget struct {
	Name    string
	Version string
	// Root is the crate root file: "lib.rs" or "main.rs".
	Root string
}

type cargoPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Edition string `toml:"edition"`
}

type cargoTarget struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
}

type cargoManifest struct {
	Package      cargoPackage   `toml:"package"`
	Lib          *cargoTarget   `toml:"lib,omitempty"`
	Bin          []*cargoTarget `toml:"bin,omitempty"`
	Dependencies map[string]any `toml:"dependencies"`
}

// DefaultCargo renders the Cargo.toml for a project that has none.
func DefaultCargo(t CrateTarget) ([]byte, error) {
	m := cargoManifest{
		Package:      cargoPackage{Name: t.Name, Version: t.Version, Edition: "2021"},
		Dependencies: map[string]any{},
	}
	if m.Package.Version == "" {
		m.Package.Version = "0.1.0"
	}
	if t.Root == "main.rs" {
		m.Bin = []*cargoTarget{{Name: t.Name, Path: t.Root}}
	} else {
		m.Lib = &cargoTarget{Name: t.Name, Path: t.Root}
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", CargoName, err)
	}
	return buf.Bytes(), nil
}

// dependency tables whose `path` entries are rewritten
var depTables = []string{"dependencies", "dev-dependencies", "build-dependencies"}

// RewriteCargo adapts the user's Cargo.toml for the output directory:
// relative dependency paths, resolved against baseDir, become absolute, and
// the crate target points at the generated root file.
func RewriteCargo(data []byte, baseDir string, t CrateTarget) ([]byte, error) {
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", CargoName, err)
	}
	if m == nil {
		m = make(map[string]any)
	}
	absBase, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", baseDir, err)
	}

	rewriteDeps(m, absBase)
	if targets, ok := m["target"].(map[string]any); ok {
		for _, spec := range targets {
			if tm, ok := spec.(map[string]any); ok {
				rewriteDeps(tm, absBase)
			}
		}
	}
	if ws, ok := m["workspace"].(map[string]any); ok {
		rewriteDeps(ws, absBase)
		if members, ok := ws["members"].([]any); ok {
			for i, member := range members {
				if s, ok := member.(string); ok {
					members[i] = absolute(absBase, s)
				}
			}
		}
	}

	if t.Root == "main.rs" {
		delete(m, "lib")
		m["bin"] = []map[string]any{{"name": crateName(m, t), "path": t.Root}}
	} else {
		// crate-type and name of an existing [lib] survive
		delete(m, "bin")
		lib, _ := m["lib"].(map[string]any)
		if lib == nil {
			lib = make(map[string]any)
		}
		lib["path"] = t.Root
		m["lib"] = lib
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(m); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", CargoName, err)
	}
	return buf.Bytes(), nil
}

// DependencyPaths lists the `path` of every path dependency of a Cargo.toml,
// keyed by "table.name".
func DependencyPaths(data []byte) (map[string]string, error) {
	var m map[string]any
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", CargoName, err)
	}
	out := make(map[string]string)
	for _, table := range depTables {
		deps, ok := m[table].(map[string]any)
		if !ok {
			continue
		}
		for name, dep := range deps {
			if spec, ok := dep.(map[string]any); ok {
				if p, ok := spec["path"].(string); ok {
					out[table+"."+name] = p
				}
			}
		}
	}
	return out, nil
}

func rewriteDeps(table map[string]any, base string) {
	for _, name := range depTables {
		deps, ok := table[name].(map[string]any)
		if !ok {
			continue
		}
		for _, dep := range deps {
			spec, ok := dep.(map[string]any)
			if !ok {
				continue
			}
			if p, ok := spec["path"].(string); ok {
				spec["path"] = absolute(base, p)
			}
		}
	}
}

func absolute(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(filepath.Join(base, filepath.FromSlash(p)))
}

func crateName(m map[string]any, t CrateTarget) string {
	if pkg, ok := m["package"].(map[string]any); ok {
		if name, ok := pkg["name"].(string); ok && name != "" {
			return name
		}
	}
	return t.Name
}
