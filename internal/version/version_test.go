package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func withVersion(t *testing.T, v, commit, date string) {
	t.Helper()
	ov, oc, od := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() { Version, GitCommit, BuildDate = ov, oc, od })
}

func TestColoredPlain(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	for _, tc := range []struct{ in, want string }{
		{"0.1.0-dev", "0.1.0-dev"},
		{"1.2.3", "1.2.3"},
		{"1.0.0-rc.1+build.5", "1.0.0-rc.1+build.5"},
		{"nightly", "nightly"},
	} {
		withVersion(t, tc.in, "", "")
		if got := Colored(); got != tc.want {
			t.Errorf("Colored(%q) = %q", tc.in, got)
		}
	}
}

func TestBanner(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	withVersion(t, "1.2.3", "1234567890abcdef", "2026-01-15")
	b := Banner()
	if !strings.HasPrefix(b, "wj 1.2.3 (1234567890ab) built 2026-01-15\n") {
		t.Errorf("banner = %q", b)
	}
	if !strings.Contains(b, "go") {
		t.Errorf("banner lacks runtime: %q", b)
	}
}
