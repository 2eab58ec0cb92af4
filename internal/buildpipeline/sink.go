package buildpipeline

import (
	"sync"
	"time"
)

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use: the parse stage reports from several goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// FuncSink adapts a function; calls are serialized.
type FuncSink struct {
	mu sync.Mutex
	Fn func(Event)
}

func (s *FuncSink) OnEvent(evt Event) {
	if s == nil || s.Fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fn(evt)
}

// Queued announces files before any stage starts.
func Queued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageParse, Status: StatusQueued})
	}
}

// Emit reports one file event; a nil sink drops it.
func Emit(sink ProgressSink, file string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
}

// EmitStage reports a stage-wide event, then the same event for each file.
func EmitStage(sink ProgressSink, files []string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	}
}
