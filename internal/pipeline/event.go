package pipeline

import "time"

// Stage is a step of processing one unit.
type Stage string

const (
	StageStart Stage = "start"
	StageMap   Stage = "map"
	StageTag   Stage = "tag"
	StageAlign Stage = "align"
	StageDone  Stage = "done"
)

// Event reports progress on one unit. Err is set on the final event of a
// failed unit; its Stage is the step that failed.
type Event struct {
	Unit    string
	Index   int // position of the unit in the batch
	Total   int
	Stage   Stage
	Err     error
	Elapsed time.Duration
}

// Sink receives progress events. Emit is called from worker goroutines
// concurrently.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

type discard struct{}

func (discard) Emit(Event) {}

// Discard drops every event.
var Discard Sink = discard{}

// ChannelSink forwards events to ch. Sends block, so the reader must drain
// ch until the batch returns.
func ChannelSink(ch chan<- Event) Sink {
	return SinkFunc(func(e Event) { ch <- e })
}
