package layout

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// directories never searched for hand-written modules
var skipDirs = map[string]bool{
	"src_wj": true, "target": true, "build": true, "generated": true,
	"dist": true, "node_modules": true, ".git": true, "src": true,
}

// HandWritten is a Rust module the user wrote next to the WJ sources.
type HandWritten struct {
	Name string
	Path string // file, or directory holding mod.rs
	Dir  bool
}

// DiscoverHandWritten finds `.rs` files and `mod.rs` directories in
// projectRoot and projectRoot/src. Names that a WJ source in srcDir already
// produces, `lib`, `main` and `mod`, and the exclude paths (the output
// directory) are skipped.
func DiscoverHandWritten(projectRoot, srcDir string, exclude ...string) ([]HandWritten, error) {
	skip := make(map[string]bool, len(exclude))
	for _, p := range exclude {
		if abs, err := filepath.Abs(p); err == nil {
			skip[abs] = true
		}
	}
	seen := make(map[string]bool)
	var out []HandWritten
	for _, dir := range []string{projectRoot, filepath.Join(projectRoot, "src")} {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %q: %w", dir, err)
		}
		for _, e := range entries {
			name := e.Name()
			full := filepath.Join(dir, name)
			if abs, err := filepath.Abs(full); err == nil && skip[abs] {
				continue
			}
			var hw HandWritten
			switch {
			case e.IsDir():
				if skipDirs[name] || strings.HasPrefix(name, ".") || exists(filepath.Join(srcDir, name)) {
					continue
				}
				if !fileExists(filepath.Join(full, "mod.rs")) {
					continue
				}
				hw = HandWritten{Name: name, Path: full, Dir: true}
			case filepath.Ext(name) == ".rs":
				stem := strings.TrimSuffix(name, ".rs")
				switch stem {
				case "lib", "main", "mod", "build":
					continue
				}
				if exists(filepath.Join(srcDir, stem+".wj")) || exists(filepath.Join(dir, stem)) {
					// generated from WJ, or the parent file of a directory module
					continue
				}
				hw = HandWritten{Name: stem, Path: full}
			default:
				continue
			}
			if seen[hw.Name] {
				continue
			}
			seen[hw.Name] = true
			out = append(out, hw)
		}
	}
	slices.SortFunc(out, func(a, b HandWritten) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// Names returns the module names of hw.
func Names(hw []HandWritten) []string {
	out := make([]string, len(hw))
	for i, h := range hw {
		out[i] = h.Name
	}
	return out
}
