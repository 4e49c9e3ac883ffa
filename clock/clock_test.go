package clock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantreplay/wtdata"
)

// fakeStream is a minimal hand-rolled Stream for exercising Clock.Run's
// merge/dispatch ordering without needing real tick/bar data.
type fakeStream struct {
	kind   EventKind
	times  []uint64
	cursor int
	fired  *[]string
	label  string
}

func (s *fakeStream) Kind() EventKind { return s.kind }

func (s *fakeStream) Next() (uint64, bool) {
	if s.cursor >= len(s.times) {
		return 0, false
	}
	return s.times[s.cursor], true
}

func (s *fakeStream) Fire(t uint64) {
	s.cursor++
	*s.fired = append(*s.fired, s.label)
}

func TestClockDispatchesInPhaseOrderWithinSharedTimestamp(t *testing.T) {
	var fired []string
	streams := []Stream{
		&fakeStream{kind: TaskEvent, times: []uint64{100}, fired: &fired, label: "task"},
		&fakeStream{kind: TickEvent, times: []uint64{100}, fired: &fired, label: "tick"},
		&fakeStream{kind: BarClose, times: []uint64{100}, fired: &fired, label: "bar"},
	}
	c := New(TickMode, 0, streams...)
	last := c.Run(context.Background())

	assert.Equal(t, uint64(100), last)
	assert.Equal(t, []string{"tick", "bar", "task"}, fired)
}

func TestClockMergesMultipleTimestampsInOrder(t *testing.T) {
	var fired []string
	streams := []Stream{
		&fakeStream{kind: TickEvent, times: []uint64{100, 300}, fired: &fired, label: "a"},
		&fakeStream{kind: TickEvent, times: []uint64{200}, fired: &fired, label: "b"},
	}
	c := New(TickMode, 0, streams...)
	c.Run(context.Background())

	assert.Equal(t, []string{"a", "b", "a"}, fired)
}

func TestClockStopsAtTEnd(t *testing.T) {
	var fired []string
	streams := []Stream{
		&fakeStream{kind: TickEvent, times: []uint64{100, 200, 300}, fired: &fired, label: "a"},
	}
	c := New(TickMode, 200, streams...)
	last := c.Run(context.Background())

	assert.Equal(t, uint64(200), last)
	assert.Equal(t, []string{"a", "a"}, fired)
}

func TestClockStopHaltsBeforeFurtherDispatch(t *testing.T) {
	var fired []string
	streams := []Stream{
		&fakeStream{kind: TickEvent, times: []uint64{100, 200}, fired: &fired, label: "a"},
	}
	c := New(TickMode, 0, streams...)
	c.Stop()
	last := c.Run(context.Background())

	assert.Equal(t, uint64(0), last)
	assert.Empty(t, fired)
}

func TestClockRunRespectsContextCancellation(t *testing.T) {
	var fired []string
	streams := []Stream{
		&fakeStream{kind: TickEvent, times: []uint64{100, 200}, fired: &fired, label: "a"},
	}
	c := New(TickMode, 0, streams...)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	last := c.Run(ctx)

	assert.Equal(t, uint64(0), last)
	assert.Empty(t, fired)
}

func TestClockOnProgressFiresEveryNDispatches(t *testing.T) {
	var fired []string
	streams := []Stream{
		&fakeStream{kind: TickEvent, times: []uint64{100, 200, 300, 400}, fired: &fired, label: "a"},
	}
	c := New(TickMode, 0, streams...)

	var progressed []uint64
	c.OnProgress(2, func(p Progress) { progressed = append(progressed, p.TCur) })
	c.Run(context.Background())

	assert.Equal(t, []uint64{200, 400}, progressed)
}

func TestTickStreamWalksInOrder(t *testing.T) {
	block := wtdata.NewBlock([]wtdata.Tick{
		{Code: "X", ActionDate: 20260101, ActionTime: 1},
		{Code: "X", ActionDate: 20260101, ActionTime: 2},
	})
	ticks := wtdata.NewSlice(block)

	var got []wtdata.Tick
	s := NewTickStream("X", ticks, func(code string, tick wtdata.Tick) { got = append(got, tick) })

	c := New(TickMode, 0, s)
	c.Run(context.Background())

	require.Len(t, got, 2)
	assert.Equal(t, uint32(1), got[0].ActionTime)
	assert.Equal(t, uint32(2), got[1].ActionTime)
}

func TestBarStreamAdvancesPeriodPhase(t *testing.T) {
	block := wtdata.NewBlock([]wtdata.Bar{
		{Time: 100, Close: 10},
		{Time: 200, Close: 11},
	})
	bars := wtdata.NewSlice(block)

	phaseClk := New(BarMode, 0)
	var barNos []uint32
	s := NewBarStream("X", "base", bars, phaseClk, func(code, periodKey string, bar wtdata.Bar, barNo uint32) {
		barNos = append(barNos, barNo)
	})

	c := New(BarMode, 0, s)
	c.Run(context.Background())

	assert.Equal(t, []uint32{1, 2}, barNos)
	assert.Equal(t, uint32(2), phaseClk.PeriodPhase("base"))
}

func TestTaskStreamFiresScheduledCallback(t *testing.T) {
	var got []uint64
	s := NewTaskStream(Task(100, func(t uint64) { got = append(got, t) }), Task(200, func(t uint64) { got = append(got, t) }))

	c := New(TaskMode, 0, s)
	c.Run(context.Background())

	assert.Equal(t, []uint64{100, 200}, got)
}

func TestSyntheticTickOnBarCloseFiresClosingTickThenBar(t *testing.T) {
	var order []string
	tickHandler := func(code string, tick wtdata.Tick) {
		order = append(order, "tick")
		assert.Equal(t, 13.0, tick.Price) // bar.Close
	}
	barHandler := func(code, periodKey string, bar wtdata.Bar, barNo uint32) {
		order = append(order, "bar")
	}
	wrapped := SyntheticTickOnBarClose("X", tickHandler, barHandler)

	wrapped("X", "base", wtdata.Bar{Open: 10, High: 15, Low: 9, Close: 13, Volume: 100}, 1)
	assert.Equal(t, []string{"tick", "bar"}, order)
}
