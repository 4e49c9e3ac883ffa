// Package reader defines the pluggable Reader contract consumed by the
// replay cache (C3). Implementations load bars/ticks/L2 data from any
// backing store; the core makes no file-format assumptions — see
// FileReader for a local block-file implementation and AlpacaReader for a
// vendor-backed one.
package reader

import (
	"quantreplay/wtdata"
)

// LatestTime means "read up to the newest available record" when passed as
// a t_to bound.
const LatestTime uint64 = 0

// AdjustFlag bits returned by GetAdjustingFlag.
const (
	AdjustVolume   uint32 = 1 << 0
	AdjustTurnover uint32 = 1 << 1
	AdjustOI       uint32 = 1 << 2
)

// Reader is the data-reader contract (spec §4.1). Returned slices are
// valid until the reader is released; records are in strictly ascending
// timestamp order with ties broken by stable arrival order. Absence of
// data is an empty slice, never an error — only an I/O failure returns
// an error, as an *errs.ReaderError wrapping the underlying cause.
type Reader interface {
	// ReadBarsByRange returns bars for code/period with Time in [from, to).
	// to == LatestTime means "latest available".
	ReadBarsByRange(code string, period wtdata.BarPeriod, from, to uint64) (wtdata.Slice[wtdata.Bar], error)
	// ReadBarsByCount returns the n bars for code/period ending at or
	// before tEnd (LatestTime for "up to now").
	ReadBarsByCount(code string, period wtdata.BarPeriod, n int, tEnd uint64) (wtdata.Slice[wtdata.Bar], error)
	// ReadBarsByDate returns all bars for code/period on the given
	// trading date.
	ReadBarsByDate(code string, period wtdata.BarPeriod, date uint32) (wtdata.Slice[wtdata.Bar], error)

	ReadTicksByRange(code string, from, to uint64) (wtdata.Slice[wtdata.Tick], error)
	ReadTicksByCount(code string, n int, tEnd uint64) (wtdata.Slice[wtdata.Tick], error)
	ReadTicksByDate(code string, date uint32) (wtdata.Slice[wtdata.Tick], error)

	ReadOrdQueByDate(code string, date uint32) (wtdata.Slice[wtdata.OrderQueue], error)
	ReadOrdDtlByDate(code string, date uint32) (wtdata.Slice[wtdata.OrderDetail], error)
	ReadTransByDate(code string, date uint32) (wtdata.Slice[wtdata.Transaction], error)

	// GetAdjFactorByDate returns the split/dividend adjustment factor
	// applicable to code as of date.
	GetAdjFactorByDate(code string, date uint32) (float64, error)
	// GetAdjustingFlag returns the AdjustVolume|AdjustTurnover|AdjustOI
	// bitmask describing which fields the adjustment factor applies to.
	GetAdjustingFlag() uint32

	// Release frees any resources the reader holds; slices returned
	// earlier become invalid.
	Release()
}
