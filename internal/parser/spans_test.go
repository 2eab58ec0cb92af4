package parser

import (
	"testing"

	"windjammer/internal/diag"
	"windjammer/internal/source"
	"windjammer/internal/testkit"
)

func TestItemSpanInvariants(t *testing.T) {
	srcs := []string{
		"fn main() {}\n",
		"use std::collections::HashMap\n\n@derive(Copy, Clone)\nstruct V { x: f32 }\n\nconst ZERO: i32 = 0\n",
		"enum Shape {\n    Circle { r: f32 },\n}\n\ntrait Area {\n    fn area(self) -> f32\n}\n\nimpl Area for Shape {\n    fn area(self) -> f32 { 0.0 }\n}\n",
		"pub mod inner {\n    pub fn f() {}\n}\ntype Id = i64\n",
	}
	for _, src := range srcs {
		fs := source.NewFileSetWithBase("")
		id := fs.AddVirtual("test.wj", []byte(src))
		bag := diag.NewBag(0)
		f := ParseFile(fs, id, nil, Options{Reporter: diag.BagReporter{Bag: bag}})
		if bag.Len() != 0 {
			t.Fatalf("unexpected diagnostics for %q: %s", src, diagnosticsSummary(bag))
		}
		if err := testkit.CheckSpanInvariants(f, fs.Get(id)); err != nil {
			t.Errorf("%q: %v", src, err)
		}
	}
}
