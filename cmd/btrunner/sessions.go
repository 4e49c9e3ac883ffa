package main

import (
	"quantreplay/strategy"
	"quantreplay/wtdata"
)

// processTick is the demo runner's per-tick pipeline, shared by every
// mocker: roll the trading-day boundary if this tick starts a new one
// (funds.csv/positions.csv flush, rollover auto-clear, spec §4.5), feed
// the tick to the matching engine, mark the book to market, then let the
// strategy react.
func (e *engine) processTick(ctx strategy.Context, code string, tick wtdata.Tick) {
	e.rollSessionBoundary(ctx, code, tick)
	e.mtch.HandleTick(code, tick)
	e.book.MarkTick(code, tick.Price, tick.ActionTimestamp())
	e.risk.Submit(code, tick.Price)
	guardStrategy(e.logger, string(e.cfg.Env.Mocker), "on_tick", func() {
		ctx.OnTick(code, tick.Price, tick.ActionTimestamp())
	})
}

func (e *engine) rollSessionBoundary(ctx strategy.Context, code string, tick wtdata.Tick) {
	tdate := tick.TradingDate
	if tdate == 0 {
		return
	}
	prev, seen := e.lastTDate[code]
	if seen && prev == tdate {
		return
	}

	// Eviction sweeps the whole cache once per distinct trading date seen
	// across any instrument, not once per code, so UntouchedDays advances
	// at the same cadence as the calendar rather than once per rollover
	// per code (spec §4.2 "Eviction").
	if e.cache != nil && tdate != e.lastEvictTDate {
		e.cache.Evict()
		e.lastEvictTDate = tdate
	}
	if seen {
		row := e.book.OnSessionEnd(prev)
		if err := e.out.WriteFunds(row); err != nil {
			e.logger.Printf("writing funds.csv: %v", err)
		}
		pos := e.book.Position(code)
		if err := e.out.WritePosition(prev, code, pos.Volume, pos.CloseProfit, pos.DynProfit); err != nil {
			e.logger.Printf("writing positions.csv: %v", err)
		}
		e.notify.Publish("session_end", map[string]interface{}{"code": code, "tdate": prev})
		guardStrategy(e.logger, string(e.cfg.Env.Mocker), "on_session_end", func() { ctx.OnSessionEnd(prev) })
	}

	exchange, product := splitExchangeProduct(code)
	e.rollover.Apply(exchange, product, tdate, tick.Price, tick.ActionTimestamp(), func(prevCode string, curPx float64, curTime uint64, curTDate uint32) {
		if err := e.book.SetPosition(prevCode, 0, curPx, curTime, curTDate, "rollover", 0); err != nil {
			e.logger.Printf("rollover auto-clear for %s: %v", prevCode, err)
		}
	})

	e.book.OnSessionBegin(tdate)
	e.notify.Publish("session_begin", map[string]interface{}{"code": code, "tdate": tdate})
	guardStrategy(e.logger, string(e.cfg.Env.Mocker), "on_session_begin", func() { ctx.OnSessionBegin(tdate) })
	e.lastTDate[code] = tdate
}
