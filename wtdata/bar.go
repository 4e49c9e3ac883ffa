// Package wtdata holds the record types replayed through the engine — bars,
// ticks, Level-2 order-queue/order-detail/transaction events, position and
// fund accounting structures, and the matching engine's order record — plus
// the zero-copy Slice views over them. None of these types own the arrays
// backing them except Block; everything else borrows.
package wtdata

// Bar is one OHLCV+ record. Time encodes a minute-aligned timestamp as
// (YYYYMM-199000)*10000 + HHMM for intraday bars, or YYYYMMDD for daily
// bars. The contract multiplier is not stored on the bar; it lives on the
// owning commodity (see metadata.CommodityInfo).
type Bar struct {
	Date         uint32
	Time         uint64
	Open         float64
	High         float64
	Low          float64
	Close        float64
	Volume       float64
	Turnover     float64
	OpenInterest float64
	AddInterest  float64
	Bid          float64
	Ask          float64
}

// BarPeriod names a base sampling period understood by the reader.
type BarPeriod string

const (
	Period1Min BarPeriod = "m1"
	Period1Day BarPeriod = "d1"
)

// IsDaily reports whether t is a YYYYMMDD daily timestamp rather than an
// intraday minute timestamp.
func (b Bar) IsDaily() bool {
	return b.Time < 100000000
}
