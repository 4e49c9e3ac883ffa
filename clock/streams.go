package clock

import (
	"quantreplay/replaycache"
	"quantreplay/wtdata"
)

// TickHandler receives each dispatched tick for one instrument.
type TickHandler func(code string, tick wtdata.Tick)

// tickStream walks a cached tick Slice in order, one record per Fire.
type tickStream struct {
	code    string
	ticks   wtdata.Slice[wtdata.Tick]
	cursor  int
	handler TickHandler
}

// NewTickStream builds a Stream over code's already-loaded tick slice.
func NewTickStream(code string, ticks wtdata.Slice[wtdata.Tick], handler TickHandler) Stream {
	return &tickStream{code: code, ticks: ticks, handler: handler}
}

func (s *tickStream) Kind() EventKind { return TickEvent }

func (s *tickStream) Next() (uint64, bool) {
	if s.cursor >= s.ticks.Len() {
		return 0, false
	}
	return s.ticks.At(s.cursor).ActionTimestamp(), true
}

func (s *tickStream) Fire(t uint64) {
	if s.cursor >= s.ticks.Len() {
		return
	}
	tick := s.ticks.At(s.cursor)
	s.cursor++
	if s.handler != nil {
		s.handler(s.code, tick)
	}
}

// BarHandler receives each dispatched bar close for one instrument and
// period key.
type BarHandler func(code, periodKey string, bar wtdata.Bar, barNo uint32)

// barStream walks a cached bar Slice in order. periodKey identifies
// this stream's resampled period for PeriodPhase tracking (e.g. the
// 5-minute stream advances "5m" every time it fires).
type barStream struct {
	code      string
	periodKey string
	bars      wtdata.Slice[wtdata.Bar]
	cursor    int
	handler   BarHandler
	clock     *Clock
}

// NewBarStream builds a Stream over code's already-loaded bar slice for
// periodKey, advancing clk's per-period phase counter on every fire.
func NewBarStream(code, periodKey string, bars wtdata.Slice[wtdata.Bar], clk *Clock, handler BarHandler) Stream {
	return &barStream{code: code, periodKey: periodKey, bars: bars, clock: clk, handler: handler}
}

func (s *barStream) Kind() EventKind { return BarClose }

func (s *barStream) Next() (uint64, bool) {
	if s.cursor >= s.bars.Len() {
		return 0, false
	}
	return s.bars.At(s.cursor).Time, true
}

func (s *barStream) Fire(t uint64) {
	if s.cursor >= s.bars.Len() {
		return
	}
	bar := s.bars.At(s.cursor)
	s.cursor++
	if s.clock != nil {
		s.clock.AdvancePeriodPhase(s.periodKey)
	}
	if s.handler != nil {
		s.handler(s.code, s.periodKey, bar, uint32(s.cursor))
	}
}

// TaskFunc is a scheduled callback fired at a specific virtual timestamp.
type TaskFunc func(t uint64)

// scheduledTask is one entry in a taskStream's fixed schedule.
type scheduledTask struct {
	at uint64
	fn TaskFunc
}

// taskStream fires a fixed, ascending-time schedule of callbacks — used
// by SEL-style strategies that act on a wall-clock timer rather than
// tick/bar arrival.
type taskStream struct {
	tasks  []scheduledTask
	cursor int
}

// NewTaskStream builds a Stream over a fixed, caller-supplied schedule.
// Entries must already be in ascending `at` order.
func NewTaskStream(tasks ...scheduledTask) Stream {
	return &taskStream{tasks: tasks}
}

// Task constructs one scheduledTask entry for NewTaskStream.
func Task(at uint64, fn TaskFunc) scheduledTask {
	return scheduledTask{at: at, fn: fn}
}

func (s *taskStream) Kind() EventKind { return TaskEvent }

func (s *taskStream) Next() (uint64, bool) {
	if s.cursor >= len(s.tasks) {
		return 0, false
	}
	return s.tasks[s.cursor].at, true
}

func (s *taskStream) Fire(t uint64) {
	if s.cursor >= len(s.tasks) {
		return
	}
	task := s.tasks[s.cursor]
	s.cursor++
	if task.fn != nil {
		task.fn(t)
	}
}

// SyntheticTickOnBarClose wraps a BarHandler so that, in BarMode, a
// synthetic closing tick (the bar's close price at the bar's
// timestamp) is dispatched alongside the bar-close callback, per
// spec §4.4 ("Bar mode synthesizes a closing tick per bar-close").
func SyntheticTickOnBarClose(code string, tickHandler TickHandler, barHandler BarHandler) BarHandler {
	return func(c, periodKey string, bar wtdata.Bar, barNo uint32) {
		if tickHandler != nil {
			synth := replaycache.SynthesizeTicks(bar, code)
			tickHandler(code, synth[len(synth)-1])
		}
		if barHandler != nil {
			barHandler(c, periodKey, bar, barNo)
		}
	}
}
