package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"windjammer/internal/project"
)

// RecordName is the build record kept in the output root.
const RecordName = ".wj-build"

// текущая версия схемы; меняется вместе с форматом buildRecord
const recordSchema uint16 = 1

// buildRecord lists the files the previous build wrote, by slash-separated
// path relative to the output root, with the digest of what was written.
type buildRecord struct {
	Schema   uint16            `msgpack:"schema"`
	Compiler string            `msgpack:"compiler"`
	Files    map[string]string `msgpack:"files"`
}

func newRecord(compiler string) *buildRecord {
	return &buildRecord{Schema: recordSchema, Compiler: compiler, Files: make(map[string]string)}
}

// loadRecord reads the record of outDir. A missing or unreadable record,
// or one with another schema, yields an empty record.
func loadRecord(outDir string) (*buildRecord, error) {
	f, err := os.Open(filepath.Join(outDir, RecordName))
	if errors.Is(err, fs.ErrNotExist) {
		return newRecord(""), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open build record: %w", err)
	}
	defer f.Close()

	var rec buildRecord
	if err := msgpack.NewDecoder(f).Decode(&rec); err != nil || rec.Schema != recordSchema {
		return newRecord(""), nil
	}
	if rec.Files == nil {
		rec.Files = make(map[string]string)
	}
	return &rec, nil
}

// owns reports whether rel was written by a previous build.
func (r *buildRecord) owns(rel string) bool {
	_, ok := r.Files[rel]
	return ok
}

func (r *buildRecord) put(rel string, d project.Digest) {
	r.Files[rel] = d.String()
}

// save writes the record atomically.
func (r *buildRecord) save(outDir string) error {
	f, err := os.CreateTemp(outDir, ".wj-build-*")
	if err != nil {
		return fmt.Errorf("failed to create build record: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	if err := msgpack.NewEncoder(f).Encode(r); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode build record: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(tmp, filepath.Join(outDir, RecordName))
}
