package buildpipeline

import (
	"errors"
	"testing"
	"time"
)

func TestEmitStageFansOut(t *testing.T) {
	var got []Event
	sink := &FuncSink{Fn: func(e Event) { got = append(got, e) }}
	EmitStage(sink, []string{"a.wj", "b.wj"}, StageEmit, StatusDone, nil, time.Millisecond)
	if len(got) != 3 {
		t.Fatalf("want 3 events, got %d", len(got))
	}
	if got[0].File != "" || got[1].File != "a.wj" || got[2].File != "b.wj" {
		t.Errorf("unexpected order: %+v", got)
	}
	for _, e := range got {
		if e.Stage != StageEmit || e.Status != StatusDone {
			t.Errorf("unexpected event %+v", e)
		}
	}
}

func TestNilSinks(t *testing.T) {
	Queued(nil, []string{"a.wj"})
	Emit(nil, "a.wj", StageParse, StatusError, errors.New("boom"), 0)
	EmitStage(nil, nil, StageWrite, StatusDone, nil, 0)
	var fs *FuncSink
	fs.OnEvent(Event{})
	ChannelSink{}.OnEvent(Event{})
}

func TestChannelSink(t *testing.T) {
	ch := make(chan Event, 2)
	Queued(ChannelSink{Ch: ch}, []string{"x.wj", "y.wj"})
	close(ch)
	var n int
	for e := range ch {
		if e.Status != StatusQueued || e.Stage != StageParse {
			t.Errorf("unexpected event %+v", e)
		}
		n++
	}
	if n != 2 {
		t.Errorf("want 2 events, got %d", n)
	}
}

func TestTimings(t *testing.T) {
	var tm Timings
	if tm.Has(StageParse) {
		t.Fatal("empty timings report a stage")
	}
	tm.Add(StageParse, 2*time.Millisecond)
	tm.Add(StageParse, 3*time.Millisecond)
	tm.Add(StageWrite, time.Millisecond)
	if d := tm.Duration(StageParse); d != 5*time.Millisecond {
		t.Errorf("parse = %v", d)
	}
	if d := tm.Sum(); d != 6*time.Millisecond {
		t.Errorf("sum = %v", d)
	}
	if d := tm.Sum(StageWrite); d != time.Millisecond {
		t.Errorf("write = %v", d)
	}
}
