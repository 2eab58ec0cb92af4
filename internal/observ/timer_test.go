package observ

import (
	"strings"
	"testing"
)

func TestTimerTrack(t *testing.T) {
	tm := NewTimer()
	done := tm.Track("parse")
	done(3)
	idx := tm.Begin("emit")
	tm.End(idx, 0, "cached")
	tm.End(99, 1, "ignored")

	phases := tm.Phases()
	if len(phases) != 2 {
		t.Fatalf("want 2 phases, got %d", len(phases))
	}
	if phases[0].Name != "parse" || phases[0].Count != 3 {
		t.Errorf("unexpected phase %+v", phases[0])
	}

	sum := tm.Summary()
	for _, want := range []string{"timings:", "parse", "(3)", "// cached", "total"} {
		if !strings.Contains(sum, want) {
			t.Errorf("summary lacks %q:\n%s", want, sum)
		}
	}
	if r := tm.Report(); len(r.Phases) != 2 || r.Phases[1].Note != "cached" {
		t.Errorf("unexpected report %+v", r)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	done := tm.Track("x")
	done(1)
	if tm.Phases() != nil {
		t.Error("nil timer recorded phases")
	}
	if r := tm.Report(); r.TotalMS != 0 || len(r.Phases) != 0 {
		t.Errorf("unexpected report %+v", r)
	}
}
