package matching

import "quantreplay/wtdata"

// priceScale matches the original engine's fixed-point price representation
// (price * 10000, rounded).
const priceScale = 10000.0

func priceToInt(x float64) int64 {
	if x == 0 {
		return 0
	}
	if x > 0 {
		return int64(x*priceScale + 0.5)
	}
	return int64(x*priceScale - 0.5)
}

// bookState is the per-instrument limit order book snapshot the engine
// keeps between ticks: current/best-bid/best-ask prices plus a sparse
// price -> resting-quantity ladder, grounded on MatchEngine::LmtOrdBook.
type bookState struct {
	items  map[int64]float64
	curPx  int64
	askPx  int64
	bidPx  int64
}

func newBookState() *bookState {
	return &bookState{items: make(map[int64]float64)}
}

// update refreshes the book from one tick: current/best prices, the
// 10-level ladder, and the between-touch purge (any price strictly
// between the best bid and best ask is stale and removed).
func (b *bookState) update(t *wtdata.Tick) {
	b.curPx = priceToInt(t.Price)
	b.askPx = priceToInt(t.AskPrice(0))
	b.bidPx = priceToInt(t.BidPrice(0))

	for i := 0; i < wtdata.BookDepth; i++ {
		askPx := priceToInt(t.AskPrice(i))
		bidPx := priceToInt(t.BidPrice(i))
		if askPx == 0 && bidPx == 0 {
			break
		}
		if askPx != 0 {
			b.items[askPx] = t.AskQtyAt(i)
		}
		if bidPx != 0 {
			b.items[bidPx] = t.BidQtyAt(i)
		}
	}

	if len(b.items) == 0 {
		return
	}
	lo, hi := b.bidPx, b.askPx
	if lo > hi {
		return
	}
	for px := range b.items {
		if px > lo && px < hi {
			delete(b.items, px)
		}
	}
}
