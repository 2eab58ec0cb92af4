package parser

import (
	"testing"

	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/source"
	"windjammer/internal/types"
)

func TestParseFnReceivers(t *testing.T) {
	f := parseOK(t, `
impl Counter {
    fn new() -> Counter { Counter { n: 0 } }
    fn get(self) -> i32 { self.n }
    fn bump(&mut self) { self.n += 1 }
    fn peek(&self) -> i32 { self.n }
    fn take(mut self) -> Counter { self }
}
`)
	im, ok := f.Items[0].(*ast.ImplDecl)
	if !ok {
		t.Fatalf("expected impl, got %T", f.Items[0])
	}
	want := []types.Receiver{types.RecvNone, types.RecvInfer, types.RecvMutRef, types.RecvRef, types.RecvValue}
	if len(im.Methods) != len(want) {
		t.Fatalf("methods: got %d, want %d", len(im.Methods), len(want))
	}
	for i, m := range im.Methods {
		if m.Recv != want[i] {
			t.Errorf("%s: receiver %s, want %s", m.Name, m.Recv, want[i])
		}
		if m.Owner != "Counter" {
			t.Errorf("%s: owner %q", m.Name, m.Owner)
		}
	}
	if !im.Methods[4].RecvMut {
		t.Errorf("take: expected mut self")
	}
}

func TestParseTraitImpl(t *testing.T) {
	f := parseOK(t, `
trait Shape {
    fn area(self) -> f32
    fn name(self) -> string { "shape" }
}

impl Shape for Circle {
    fn area(self) -> f32 { 3.14 * self.r * self.r }
}
`)
	tr := f.Items[0].(*ast.TraitDecl)
	if len(tr.Methods) != 2 || tr.Methods[0].Body != nil || tr.Methods[1].Body == nil {
		t.Fatalf("trait methods parsed wrong: %+v", tr.Methods)
	}
	if !tr.Methods[0].InTrait {
		t.Errorf("trait stub must be marked InTrait")
	}
	im := f.Items[1].(*ast.ImplDecl)
	if im.TraitName() != "Shape" || im.TargetName() != "Circle" {
		t.Errorf("impl header: trait %q target %q", im.TraitName(), im.TargetName())
	}
	if im.Methods[0].Trait != "Shape" {
		t.Errorf("impl method trait: %q", im.Methods[0].Trait)
	}
}

func TestParseStructAndEnum(t *testing.T) {
	f := parseOK(t, `
@derive(Debug, Clone)
pub struct Point { x: int, y: int }

struct Meters(f64);

enum Shape {
    Circle { r: f32 },
    Square(f32),
    Empty,
}
`)
	sd := f.Items[0].(*ast.StructDecl)
	if !sd.Pub || sd.Name != "Point" || len(sd.Fields) != 2 {
		t.Fatalf("struct parsed wrong: %+v", sd)
	}
	if got := sd.Fields[0].Type.Label.String(); got != "i64" {
		t.Errorf("int alias: got %s", got)
	}
	derives, ok := ast.Derives(sd.Decorators)
	if !ok || len(derives) != 2 || derives[0] != "Debug" || derives[1] != "Clone" {
		t.Errorf("derives: %v %v", derives, ok)
	}
	tuple := f.Items[1].(*ast.StructDecl)
	if !tuple.Tuple || len(tuple.Fields) != 1 || tuple.Fields[0].Name != "0" {
		t.Errorf("tuple struct parsed wrong: %+v", tuple)
	}
	ed := f.Items[2].(*ast.EnumDecl)
	kinds := []ast.VariantKind{ast.VariantStruct, ast.VariantTuple, ast.VariantUnit}
	for i, v := range ed.Variants {
		if v.Kind != kinds[i] {
			t.Errorf("variant %s: kind %d, want %d", v.Name, v.Kind, kinds[i])
		}
	}
}

func TestParseGenericsAndWhere(t *testing.T) {
	f := parseOK(t, `
fn largest<T>(items: Vec<T>) -> T where T: PartialOrd + Copy {
    items[0]
}
`)
	fn := f.Items[0].(*ast.FnDecl)
	if len(fn.Generics) != 1 || len(fn.Generics[0].Bounds) != 2 {
		t.Fatalf("generics: %+v", fn.Generics)
	}
	if got := fn.Params[0].Type.Label; got.Kind != types.KNamed || got.Arg(0).Kind != types.KParam {
		t.Errorf("param label: %s", got)
	}
	if fn.Result.Label.Kind != types.KParam {
		t.Errorf("result label: %s", fn.Result.Label)
	}
}

func TestParseUseForms(t *testing.T) {
	f := parseOK(t, `
use std::collections::HashMap
use crate::math::{Vec2, Vec3 as V3}
use super::util::*
`)
	u0 := f.Items[0].(*ast.UseDecl)
	if len(u0.Prefix) != 2 || u0.Leaves[0].Name != "HashMap" {
		t.Errorf("simple use: %+v", u0)
	}
	u1 := f.Items[1].(*ast.UseDecl)
	if len(u1.Leaves) != 2 || u1.Leaves[1].Alias != "V3" || u1.Prefix[0] != "crate" {
		t.Errorf("group use: %+v", u1)
	}
	u2 := f.Items[2].(*ast.UseDecl)
	if !u2.Glob || u2.Prefix[0] != "super" {
		t.Errorf("glob use: %+v", u2)
	}
}

func TestParseExternForms(t *testing.T) {
	f := parseOK(t, `
extern fn c_abs(x: i32) -> i32

extern "C" {
    fn c_one()
    fn c_two(x: f64) -> f64;
}
`)
	if len(f.Items) != 3 {
		t.Fatalf("extern block should be flattened, got %d items", len(f.Items))
	}
	for _, it := range f.Items {
		fn := it.(*ast.FnDecl)
		if !fn.Extern || fn.Body != nil {
			t.Errorf("%s: extern %v body %v", fn.Name, fn.Extern, fn.Body != nil)
		}
	}
}

func TestParseModAndConst(t *testing.T) {
	f := parseOK(t, `
mod ffi;
pub mod geometry {
    pub const ORIGIN: i32 = 0
    pub fn zero() -> i32 { ORIGIN }
}
type Meters = f64
`)
	m0 := f.Items[0].(*ast.ModDecl)
	if !m0.External || m0.Name != "ffi" {
		t.Errorf("external mod: %+v", m0)
	}
	m1 := f.Items[1].(*ast.ModDecl)
	if m1.External || len(m1.Items) != 2 {
		t.Errorf("inline mod: %+v", m1)
	}
	if _, ok := f.Items[2].(*ast.TypeAlias); !ok {
		t.Errorf("type alias: %T", f.Items[2])
	}
}

func TestParseReportsMissingItem(t *testing.T) {
	bag := diag.NewBag(0)
	ParseSource(source.NewFileSetWithBase(""), "bad.wj", "42\nfn ok() {}", bag)
	if !bag.HasErrors() {
		t.Fatalf("expected an error")
	}
	if got := bag.Items()[0].Code; got != diag.SynExpectItem {
		t.Errorf("code: got %s, want %s", got.ID(), diag.SynExpectItem.ID())
	}
}

func TestParseExternWithBodyIsError(t *testing.T) {
	bag := diag.NewBag(0)
	ParseSource(source.NewFileSetWithBase(""), "bad.wj", "extern fn f() { }", bag)
	if !bag.HasErrors() || bag.Items()[0].Code != diag.SynExternWithBody {
		t.Fatalf("expected SynExternWithBody, got %s", diagnosticsSummary(bag))
	}
}
