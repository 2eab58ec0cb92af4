package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	for _, s := range []string{
		"i32",
		"String",
		"&str",
		"Vec<String>",
		"HashMap<String, Vec<Item>>",
		"&mut Vec<i32>",
		"(i32, f64)",
		"[u8; 4]",
		"Option<&Player>",
		"()",
	} {
		l, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, l.String())
	}
}

func TestParseAliases(t *testing.T) {
	assert.Equal(t, "i64", MustParse("int").String())
	assert.Equal(t, "f64", MustParse("float").String())
	assert.Equal(t, KString, MustParse("string").Kind)
	assert.Equal(t, KParam, MustParse("T").Kind)
	assert.Equal(t, "HashMap<String, i32>", MustParse("std::collections::HashMap<String, i32>").String())
}

func TestIsCopy(t *testing.T) {
	user := func(name string) (bool, bool) {
		switch name {
		case "Vec2":
			return true, true
		case "Player":
			return false, true
		}
		return false, false
	}
	tests := []struct {
		label string
		want  bool
	}{
		{"i32", true},
		{"f32", true},
		{"bool", true},
		{"char", true},
		{"usize", true},
		{"String", false},
		{"&String", true},
		{"&mut i32", false},
		{"(i32, f64)", true},
		{"(i32, String)", false},
		{"[f32; 3]", true},
		{"[String; 2]", false},
		{"Option<i32>", true},
		{"Option<String>", false},
		{"Option<Vec2>", true},
		{"Vec<i32>", false},
		{"HashMap<i32, i32>", false},
		{"Box<i32>", false},
		{"Rc<i32>", false},
		{"Arc<i32>", false},
		{"Vec2", true},
		{"Player", false},
		{"T", false},
		{"Mystery", false},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCopy(MustParse(tt.label), user))
		})
	}
	assert.False(t, IsCopy(nil, user), "unknown is never Copy")
}

func TestSubst(t *testing.T) {
	l := MustParse("Vec<T>").Subst(map[string]*Label{"T": MustParse("Item")})
	assert.Equal(t, "Vec<Item>", l.String())
	self := FromPath([]string{"Self"}, nil, nil)
	assert.Equal(t, "Point", self.Subst(map[string]*Label{"Self": Named("Point")}).String())
}

func TestModeLattice(t *testing.T) {
	assert.Equal(t, Owned, Borrowed.Join(Owned))
	assert.Equal(t, MutBorrowed, Borrowed.Join(MutBorrowed))
	assert.Equal(t, Owned, Owned.Join(MutBorrowed))
	assert.Equal(t, RecvRef, ReceiverFor(Borrowed))
	assert.Equal(t, MutBorrowed, RecvMutRef.Mode())
}
