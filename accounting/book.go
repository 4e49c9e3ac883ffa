// Package accounting implements position and P&L bookkeeping (C6):
// FIFO lot tracking, realized/unrealized P&L, fee charging, position
// reversal, and mark-to-market, grounded on WtEngine::do_set_position
// from the original engine.
package accounting

import (
	"quantreplay/errs"
	"quantreplay/metadata"
	"quantreplay/wtdata"
)

// TradeSink receives a notification for every fill and every close this
// book processes, used to drive the trades.csv/closes.csv writers.
type TradeSink interface {
	OnTrade(code string, long, isOpen bool, tradeTime uint64, price, qty, fee float64)
	// OnClose reports one FIFO lot's closure: maxProfit/maxLoss are the
	// lot's running watermarks (accounting/mark.go), enterTag/exitTag are
	// the user_tag the lot was opened/closed under, openBarNo/closeBarNo
	// are the bar numbers active at open/close time (0 for non-bar-driven
	// flavors), per spec §4.5 step 2 / §4.8's closes.csv schema.
	OnClose(code string, long bool, openTime uint64, openPrice float64, closeTime uint64, closePrice, qty, profit, maxProfit, maxLoss, totalCloseProfit float64, enterTag, exitTag string, openBarNo, closeBarNo uint32)
}

// Book owns every instrument's position and the account-level fund
// record. Not safe for concurrent mutation; riskmon must only read
// snapshots (see Snapshot).
type Book struct {
	meta *metadata.Manager
	hot  *metadata.HotManager
	sink TradeSink

	positions map[string]*wtdata.PosInfo
	fund      wtdata.FundInfo
}

// New builds an empty Book backed by meta for commodity/fee lookup and
// hot for rollover resolution. sink may be nil.
func New(meta *metadata.Manager, hot *metadata.HotManager, sink TradeSink) *Book {
	return &Book{meta: meta, hot: hot, sink: sink, positions: make(map[string]*wtdata.PosInfo)}
}

// Position returns the position record for code, creating an empty one
// if it does not yet exist.
func (b *Book) Position(code string) *wtdata.PosInfo {
	pos, ok := b.positions[code]
	if !ok {
		pos = &wtdata.PosInfo{Code: code}
		b.positions[code] = pos
	}
	return pos
}

// Fund returns the current fund record.
func (b *Book) Fund() wtdata.FundInfo {
	return b.fund
}

// SignedVolume returns code's current signed position (positive long,
// negative short, 0 if never traded), satisfying strategy.CTAPositionReader.
func (b *Book) SignedVolume(code string) float64 {
	pos, ok := b.positions[code]
	if !ok {
		return 0
	}
	return pos.Volume
}

// Positions returns every tracked position, for snapshotting and
// positions.csv emission.
func (b *Book) Positions() map[string]*wtdata.PosInfo {
	return b.positions
}

// SetPosition moves code's position to qty (positive=long, negative=short)
// at curPx, booking opens/closes/reversal and fees exactly as the
// original do_set_position does:
//
//   - same-direction move: append one FIFO lot for the delta, charge an
//     open fee.
//   - opposite-direction move: consume FIFO lots oldest-first, booking
//     realized P&L per lot, rescaling the position's DynProfit
//     proportionally to the remainder of the lot being partially closed,
//     charging a close (or close-today) fee per lot, removing exhausted
//     lots; if the requested size exceeds the whole position, the excess
//     reverses into a brand-new lot on the other side.
//
// userTag/barNo are stamped onto any lot opened by this call (including a
// reversal's fresh lot) and reported as the exit tag/close bar number for
// any lot this call closes (spec §4.6/§4.8 entertag/exittag/openbarno/
// closebarno). For a T+1 commodity, a close that would have to consume a
// lot opened earlier the same trading date is rejected outright (spec
// §3/§8 invariant 2: same-day lots are not closeable).
func (b *Book) SetPosition(code string, qty, curPx float64, curTime uint64, curTDate uint32, userTag string, barNo uint32) error {
	comm, err := b.commodityFor(code)
	if err != nil {
		return err
	}

	pos := b.Position(code)
	if decEq(pos.Volume, qty) {
		return nil
	}
	diff := qty - pos.Volume

	if pos.Volume*diff > 0 {
		b.openLot(pos, comm, qty, diff, curPx, curTime, curTDate, userTag, barNo)
		return nil
	}
	return b.closeAndMaybeReverse(pos, comm, qty, diff, curPx, curTime, curTDate, userTag, barNo)
}

func (b *Book) commodityFor(code string) (*metadata.CommodityInfo, error) {
	exchange, product := splitCode(code)
	comm, ok := b.meta.Commodity(exchange, product)
	if !ok {
		return nil, &errs.InvariantViolation{Where: "accounting.SetPosition", Msg: "unknown commodity for " + code}
	}
	return comm, nil
}

// splitCode extracts "exchange" and "product" from a standard code of
// the form "EXCHG.PRODUCT.YYMM" (or any dot-separated variant); only the
// first two segments are needed for commodity lookup.
func splitCode(code string) (exchange, product string) {
	a, b := -1, -1
	for i := 0; i < len(code); i++ {
		if code[i] == '.' {
			if a < 0 {
				a = i
			} else if b < 0 {
				b = i
				break
			}
		}
	}
	if a < 0 {
		return code, ""
	}
	if b < 0 {
		b = len(code)
	}
	return code[:a], code[a+1 : b]
}

func (b *Book) openLot(pos *wtdata.PosInfo, comm *metadata.CommodityInfo, qty, diff, curPx float64, curTime uint64, curTDate uint32, userTag string, barNo uint32) {
	pos.Volume = qty
	long := diff > 0
	vol := absf(diff)

	pos.Details = append(pos.Details, wtdata.DetailInfo{
		Long: long, Price: curPx, Volume: vol,
		OpenTime: curTime, OpenTDate: curTDate,
		UserTag: userTag, OpenBarNo: barNo,
	})
	if comm.IsT1 {
		pos.Frozen += vol
	}

	fee := RoundFee(comm.FeeTemplate.Calc(metadata.FeeOpen, curPx, vol, comm.Multiplier))
	b.fund.Fees += fee
	b.fund.Balance -= fee
	if b.sink != nil {
		b.sink.OnTrade(pos.Code, long, true, curTime, curPx, vol, fee)
	}
}

// closeAndMaybeReverse consumes FIFO lots to close left=|diff| lots (plus
// any excess reversing into a new lot on the other side). For a T+1
// commodity it first checks that the closeable (non-same-day) volume
// covers the request; if it does not, the whole call is rejected before
// any state is mutated, per spec §8 invariant 2.
func (b *Book) closeAndMaybeReverse(pos *wtdata.PosInfo, comm *metadata.CommodityInfo, qty, diff, curPx float64, curTime uint64, curTDate uint32, userTag string, barNo uint32) error {
	left := absf(diff)
	closing := minf(left, absf(pos.Volume))

	if comm.IsT1 {
		var frozen float64
		for _, d := range pos.Details {
			if d.OpenTDate == curTDate {
				frozen += d.Volume
			}
		}
		available := absf(pos.Volume) - frozen
		if available < 0 {
			available = 0
		}
		if closing > available+1e-8 {
			return &errs.InvariantViolation{
				Where: "accounting.closeAndMaybeReverse",
				Msg:   "T+1: " + pos.Code + " cannot close same-day (frozen) lots",
			}
		}
		pos.Frozen = frozen
	}

	pos.Volume = qty
	if decEq(pos.Volume, 0) {
		pos.DynProfit = 0
	}

	kept := pos.Details[:0]
	for i := range pos.Details {
		d := &pos.Details[i]
		if decEq(d.Volume, 0) {
			continue
		}
		if decEq(left, 0) {
			kept = append(kept, *d)
			continue
		}

		maxQty := minf(d.Volume, left)
		if decEq(maxQty, 0) {
			kept = append(kept, *d)
			continue
		}

		before := d.Volume
		d.Volume -= maxQty
		left -= maxQty
		if comm.IsT1 && d.OpenTDate == curTDate {
			pos.Frozen -= maxQty
		}

		profit := (curPx - d.Price) * maxQty * comm.Multiplier
		if !d.Long {
			profit = -profit
		}
		pos.CloseProfit += profit
		pos.DynProfit = pos.DynProfit * d.Volume / before
		b.fund.Profit += profit
		b.fund.Balance += profit

		kind := metadata.FeeClose
		if d.OpenTDate == curTDate {
			kind = metadata.FeeCloseToday
		}
		fee := RoundFee(comm.FeeTemplate.Calc(kind, curPx, maxQty, comm.Multiplier))
		b.fund.Fees += fee
		b.fund.Balance -= fee

		if b.sink != nil {
			b.sink.OnTrade(pos.Code, d.Long, false, curTime, curPx, maxQty, fee)
			b.sink.OnClose(pos.Code, d.Long, d.OpenTime, d.Price, curTime, curPx, maxQty, profit,
				d.MaxProfit, d.MaxLoss, pos.CloseProfit, d.UserTag, userTag, d.OpenBarNo, barNo)
		}

		if d.Volume > 0 {
			kept = append(kept, *d)
		}
		if decEq(left, 0) {
			// remaining lots, if any, are appended unchanged below
			kept = append(kept, pos.Details[i+1:]...)
			break
		}
	}
	pos.Details = kept

	if left > 0 {
		signed := left * sign(qty)
		long := qty > 0
		pos.Details = append(pos.Details, wtdata.DetailInfo{
			Long: long, Price: curPx, Volume: absf(signed),
			OpenTime: curTime, OpenTDate: curTDate,
			UserTag: userTag, OpenBarNo: barNo,
		})
		if comm.IsT1 {
			pos.Frozen += absf(signed)
		}
		fee := RoundFee(comm.FeeTemplate.Calc(metadata.FeeOpen, curPx, absf(qty), comm.Multiplier))
		b.fund.Fees += fee
		b.fund.Balance -= fee
		if b.sink != nil {
			b.sink.OnTrade(pos.Code, long, true, curTime, curPx, absf(signed), fee)
		}
	}
	return nil
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

func decEq(a, b float64) bool {
	const eps = 1e-8
	d := a - b
	return d > -eps && d < eps
}
