package fuzztests

import "testing"

const maxFuzzInput = 1 << 16 // 64 KiB

var seeds = []string{
	"",
	"fn main() {}\n",
	"struct Point { x: i32, y: i32 }\nfn f() {\n    let p = Point { x: 0, y: 0 }\n    p.x = 10\n}\n",
	"fn g(items: Vec<string>) {\n    for item in items {\n        println!(\"{}\", item)\n    }\n}\n",
	"enum Shape {\n    Circle { r: f32 },\n    Point { x: f32, y: f32 },\n}\n",
	"trait Draw {\n    fn draw(self)\n}\nimpl Draw for Shape {\n    fn draw(self) {}\n}\n",
	"use std::collections::HashMap\nfn h(m: &HashMap<string, i32>, k: string) -> bool {\n    m.contains_key(&k)\n}\n",
	"fn s(a: string, b: string) -> string {\n    a + b + \"!\"\n}\n",
	"fn m(x: Option<i32>) -> i32 {\n    match x {\n        Some(v) if v > 0 => v,\n        _ => 0,\n    }\n}\n",
	"@derive(Copy, Clone)\nstruct V { x: f32 }\nconst ZERO: i32 = 0\n",
	"fn i(v: Vec<i32>, n: i32) -> i32 {\n    v[n] as i32\n}\n",
	"fn f() { { { { } } } }",
	"fn f( {\n",
	"let x = \"open\n",
}

func addSeeds(f *testing.F) {
	for _, s := range seeds {
		f.Add([]byte(s))
	}
}

func clamp(input []byte) []byte {
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	return append([]byte(nil), input...)
}
