package driver

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/sirupsen/logrus"

	"windjammer/internal/diag"
	"windjammer/internal/project"
	"windjammer/internal/source"
)

// writer puts generated files into the output directory. Files the
// previous build did not write are never overwritten; files whose content
// did not change are not touched.
type writer struct {
	outDir string
	prev   *buildRecord
	next   *buildRecord
	rep    diag.Reporter
	log    *logrus.Entry
	dryRun bool

	written   []string
	unchanged []string
	preserved []string
}

// put writes content to rel, a slash-separated path under outDir.
func (w *writer) put(rel string, content []byte) error {
	full := filepath.Join(w.outDir, filepath.FromSlash(rel))
	digest := project.Sum(content)

	old, err := os.ReadFile(full)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return fmt.Errorf("failed to read %s: %w", full, err)
	case bytes.Equal(old, content):
		w.next.put(rel, digest)
		w.unchanged = append(w.unchanged, rel)
		w.log.WithField("file", rel).Debug("unchanged")
		return nil
	case !w.prev.owns(rel):
		w.preserved = append(w.preserved, rel)
		diag.ReportWarning(w.rep, diag.PrjHandWrittenCollision, source.Span{},
			fmt.Sprintf("%s was not generated by wj and is left untouched", full)).
			WithHelp("move the file, or delete it to let wj generate it").
			Emit()
		return nil
	}

	w.next.put(rel, digest)
	if w.dryRun {
		w.written = append(w.written, rel)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(full), err)
	}
	if err := os.WriteFile(full, content, 0o644); err != nil { // #nosec G306 -- generated sources are world-readable
		return fmt.Errorf("failed to write %s: %w", full, err)
	}
	w.written = append(w.written, rel)
	w.log.WithField("file", rel).Debug("written")
	return nil
}

// copyDir copies every file under src to rel.
func (w *writer) copyDir(src, rel string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		sub, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		return w.copyFile(p, rel+"/"+filepath.ToSlash(sub))
	})
}

func (w *writer) copyFile(src, rel string) error {
	data, err := os.ReadFile(src) // #nosec G304 -- path comes from hand-written module discovery
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	return w.put(rel, data)
}

// prune removes files the previous build wrote that this build did not,
// unless they were edited since.
func (w *writer) prune() error {
	var stale []string
	for rel := range w.prev.Files {
		if !w.next.owns(rel) {
			stale = append(stale, rel)
		}
	}
	slices.Sort(stale)
	for _, rel := range stale {
		full := filepath.Join(w.outDir, filepath.FromSlash(rel))
		data, err := os.ReadFile(full)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", full, err)
		}
		if project.Sum(data).String() != w.prev.Files[rel] {
			w.log.WithField("file", rel).Debug("stale file edited by hand, kept")
			continue
		}
		if w.dryRun {
			continue
		}
		if err := os.Remove(full); err != nil {
			return fmt.Errorf("failed to remove %s: %w", full, err)
		}
		w.log.WithField("file", rel).Debug("removed")
	}
	return nil
}
