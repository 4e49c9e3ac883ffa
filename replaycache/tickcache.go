package replaycache

import (
	"quantreplay/wtdata"
)

// TickCacheEntry is the per-(code, date) tick cache record. Cursor
// advances as replay consumes ticks from this day's extent.
type TickCacheEntry struct {
	Code          string
	Date          uint32
	Block         *wtdata.Block[wtdata.Tick]
	Cursor        int
	UntouchedDays uint32
}

func tickKey(code string, date uint32) string {
	return code + "|" + itoa(date)
}

// GetTicks returns the cached ticks for (code, date), loading from the
// reader on first access. If nosimIfNoTrade is set, volume==0 ticks are
// dropped (spec §4.2).
func (c *Cache) GetTicks(code string, date uint32) (wtdata.Slice[wtdata.Tick], error) {
	key := tickKey(code, date)
	entry, ok := c.ticks[key]
	if !ok {
		ticks, err := c.rdr.ReadTicksByDate(code, date)
		if err != nil {
			return wtdata.Slice[wtdata.Tick]{}, err
		}
		raw := ticks.Extract()
		if c.nosimIfNoTrade {
			raw = filterTraded(raw)
		}
		entry = &TickCacheEntry{Code: code, Date: date, Block: wtdata.NewBlock(raw)}
		c.ticks[key] = entry
	}
	entry.UntouchedDays = 0
	return wtdata.NewSlice(entry.Block), nil
}

func filterTraded(ticks []wtdata.Tick) []wtdata.Tick {
	out := ticks[:0:0]
	for _, t := range ticks {
		if t.Volume != 0 {
			out = append(out, t)
		}
	}
	return out
}

// SyntheticTicksPerBar is the number of synthetic ticks produced per bar
// when the clock runs in tick mode against bar-only data (spec §4.3).
const SyntheticTicksPerBar = 4

// SynthesizeTicks produces SyntheticTicksPerBar ticks from one bar, split
// at {open, high, low, close} in that fixed order regardless of candle
// direction (Design Note / spec Open Question: the source leaves the
// {o,h,l,c} vs {o,l,h,c} ordering choice to the implementer for bullish vs.
// bearish bars; this build always uses {o,h,l,c} so intraday watermark
// tracking — which depends only on the multiset of prices visited, not the
// path — is unaffected by the choice, and replay stays deterministic
// without a conditional on candle direction). Volume is split evenly
// across the four synthetic prints, with any remainder on the last one.
func SynthesizeTicks(bar wtdata.Bar, code string) []wtdata.Tick {
	prices := [SyntheticTicksPerBar]float64{bar.Open, bar.High, bar.Low, bar.Close}
	share := bar.Volume / SyntheticTicksPerBar
	ticks := make([]wtdata.Tick, SyntheticTicksPerBar)
	allotted := 0.0
	for i, px := range prices {
		vol := share
		if i == SyntheticTicksPerBar-1 {
			vol = bar.Volume - allotted
		} else {
			allotted += share
		}
		ticks[i] = wtdata.Tick{
			Code: code, Price: px, Volume: vol, TotalVolume: bar.Volume,
			OpenInterest: bar.OpenInterest, ActionDate: bar.Date, ActionTime: timeOfBar(bar.Time),
			TradingDate: bar.Date,
		}
		ticks[i].BidPrices[0] = px
		ticks[i].AskPrices[0] = px
	}
	return ticks
}

func timeOfBar(t uint64) uint32 {
	if t < 100000000 {
		return 0
	}
	return uint32(t%10000) * 100000 // HHMM -> HHMMSSmmm with zero seconds/millis
}
