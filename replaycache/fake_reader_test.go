package replaycache

import (
	"quantreplay/wtdata"
)

// fakeReader is a minimal in-memory reader.Reader for exercising Cache
// without any real backing store. Only the methods the cache actually
// calls are given interesting behaviour; the rest are no-ops returning
// empty slices, matching the "absence of data is an empty slice" contract.
type fakeReader struct {
	bars        map[string][]wtdata.Bar
	ticks       map[string][]wtdata.Tick
	adjFactor   map[string]float64
	adjustFlags uint32
	released    bool
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		bars:      make(map[string][]wtdata.Bar),
		ticks:     make(map[string][]wtdata.Tick),
		adjFactor: make(map[string]float64),
	}
}

func (f *fakeReader) setBars(code string, bars []wtdata.Bar) {
	f.bars[code] = bars
}

func (f *fakeReader) setTicks(code string, date uint32, ticks []wtdata.Tick) {
	f.ticks[tickKey(code, date)] = ticks
}

func (f *fakeReader) ReadBarsByRange(code string, period wtdata.BarPeriod, from, to uint64) (wtdata.Slice[wtdata.Bar], error) {
	all := f.bars[code]
	out := make([]wtdata.Bar, 0, len(all))
	for _, b := range all {
		if b.Time < from {
			continue
		}
		if to != 0 /* LatestTime */ && b.Time >= to {
			continue
		}
		out = append(out, b)
	}
	return wtdata.NewSlice(wtdata.NewBlock(out)), nil
}

func (f *fakeReader) ReadBarsByCount(code string, period wtdata.BarPeriod, n int, tEnd uint64) (wtdata.Slice[wtdata.Bar], error) {
	return wtdata.Slice[wtdata.Bar]{}, nil
}

func (f *fakeReader) ReadBarsByDate(code string, period wtdata.BarPeriod, date uint32) (wtdata.Slice[wtdata.Bar], error) {
	return wtdata.Slice[wtdata.Bar]{}, nil
}

func (f *fakeReader) ReadTicksByRange(code string, from, to uint64) (wtdata.Slice[wtdata.Tick], error) {
	return wtdata.Slice[wtdata.Tick]{}, nil
}

func (f *fakeReader) ReadTicksByCount(code string, n int, tEnd uint64) (wtdata.Slice[wtdata.Tick], error) {
	return wtdata.Slice[wtdata.Tick]{}, nil
}

func (f *fakeReader) ReadTicksByDate(code string, date uint32) (wtdata.Slice[wtdata.Tick], error) {
	ticks := f.ticks[tickKey(code, date)]
	return wtdata.NewSlice(wtdata.NewBlock(ticks)), nil
}

func (f *fakeReader) ReadOrdQueByDate(code string, date uint32) (wtdata.Slice[wtdata.OrderQueue], error) {
	return wtdata.Slice[wtdata.OrderQueue]{}, nil
}

func (f *fakeReader) ReadOrdDtlByDate(code string, date uint32) (wtdata.Slice[wtdata.OrderDetail], error) {
	return wtdata.Slice[wtdata.OrderDetail]{}, nil
}

func (f *fakeReader) ReadTransByDate(code string, date uint32) (wtdata.Slice[wtdata.Transaction], error) {
	return wtdata.Slice[wtdata.Transaction]{}, nil
}

func (f *fakeReader) GetAdjFactorByDate(code string, date uint32) (float64, error) {
	return f.adjFactor[code], nil
}

func (f *fakeReader) GetAdjustingFlag() uint32 { return f.adjustFlags }

func (f *fakeReader) Release() { f.released = true }
