package main

import (
	"fmt"
	"time"

	"quantreplay/accounting"
	"quantreplay/clock"
	"quantreplay/config"
	"quantreplay/reader"
	"quantreplay/replaycache"
	"quantreplay/strategy"
	"quantreplay/wtdata"
)

// endTimeOr0 translates a zero replayer.end_time into reader.LatestTime,
// matching the cache/reader convention that 0 means "whatever is newest".
func (e *engine) endTimeOr0() uint64 {
	if e.cfg.Replayer.EndTime == 0 {
		return reader.LatestTime
	}
	return e.cfg.Replayer.EndTime
}

func (e *engine) sessionIDFor(code string) string {
	exchange, product := splitExchangeProduct(code)
	comm, ok := e.meta.Commodity(exchange, product)
	if !ok {
		return ""
	}
	return comm.SessionID
}

// splitExchangeProduct extracts "exchange" and "product" from a code of
// the form "EXCHG.PRODUCT.YYMM".
func splitExchangeProduct(code string) (exchange, product string) {
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

// buildCTA wires the bundled SMA-cross demo strategy (demo_strategy.go)
// to a bar-close stream per configured code, using a synthesized closing
// tick at each bar so the matching engine (which only understands ticks)
// still drives the fill (spec §4.3/§4.4).
func (e *engine) buildCTA(cache *replaycache.Cache) (*clock.Clock, strategy.Context, error) {
	params := parseDemoParams(e.cfg.CTA.Strategy.Params)
	if len(params.codes) == 0 {
		return nil, nil, fmt.Errorf("btrunner: cta.strategy.params.codes is empty")
	}

	ctx := strategy.NewCTAContext(e.meta, e.mtch, e.book, &signalSinkAdapter{w: e.out}, e.logger)
	phaseClk := clock.New(clock.BarMode, e.endTimeOr0())

	var streams []clock.Stream
	period := barPeriodFor(e.cfg.Replayer.Mode)

	for _, code := range params.codes {
		bars, err := cache.GetBars(code, period, 1, e.endTimeOr0(), e.sessionIDFor(code))
		if err != nil {
			return nil, nil, fmt.Errorf("btrunner: loading bars for %s: %w", code, err)
		}

		hist := &closeHistory{}

		barHandler := func(c, periodKey string, bar wtdata.Bar, barNo uint32) {
			hist.push(bar.Close, params.slow)
			dir, ok := crossSignal(hist.closes, params.fast, params.slow)
			if !ok {
				return
			}
			ctx.BeginBar()
			ctx.SetPosition(c, dir*params.qty, 0, 0, "sma-cross", bar.Time)
			ctx.EndBar()
		}
		tickHandler := func(c string, tick wtdata.Tick) {
			e.processTick(ctx, c, tick)
		}
		wrapped := clock.SyntheticTickOnBarClose(code, tickHandler, barHandler)
		streams = append(streams, clock.NewBarStream(code, "base", bars, phaseClk, wrapped))
	}

	clk := clock.New(clock.BarMode, e.endTimeOr0(), streams...)
	return clk, ctx, nil
}

// buildHFT wires a bundled cross-the-spread demo: on every tick, if the
// current position is flat it crosses the spread for a fixed clip,
// exercising the thin HFTContext wrapper end to end.
func (e *engine) buildHFT(cache *replaycache.Cache) (*clock.Clock, strategy.Context, error) {
	params := parseDemoParams(e.cfg.HFT.Strategy.Params)
	if len(params.codes) == 0 {
		return nil, nil, fmt.Errorf("btrunner: hft.strategy.params.codes is empty")
	}

	hctx := strategy.NewHFTContext(e.mtch, e.logger)
	var ctx strategy.Context = hctx

	var streams []clock.Stream
	for _, code := range params.codes {
		for _, date := range dateRange(e.cfg.Replayer.BeginTime, e.cfg.Replayer.EndTime) {
			ticks, err := cache.GetTicks(code, date)
			if err != nil {
				return nil, nil, fmt.Errorf("btrunner: loading ticks for %s on %d: %w", code, date, err)
			}
			if ticks.Len() == 0 {
				continue
			}
			c := code
			handler := func(cc string, tick wtdata.Tick) {
				e.processTick(ctx, cc, tick)
				crossSpreadOnFlat(hctx, e.book, cc, tick, params.qty)
			}
			streams = append(streams, clock.NewTickStream(c, ticks, handler))
		}
	}

	clk := clock.New(clock.TickMode, e.endTimeOr0(), streams...)
	return clk, ctx, nil
}

// crossSpreadOnFlat is the HFT demo's entire decision rule: if flat, buy
// one clip at the ask. It exists to exercise HFTContext.Buy, not
// as a strategy anyone should trade.
func crossSpreadOnFlat(ctx *strategy.HFTContext, book *accounting.Book, code string, tick wtdata.Tick, qty float64) {
	if book.SignedVolume(code) != 0 {
		return
	}
	ask := tick.AskPrice(0)
	if ask <= 0 {
		return
	}
	ctx.Buy(code, ask, qty, tick.ActionTimestamp(), wtdata.TIFFAK, "hft-demo")
}

// buildSEL wires the bundled equal-weight demo: on every scheduled fire,
// every tracked code gets an identical target position. Each fire time
// becomes its own single-task clock.Stream; the clock merges them in
// order same as any other stream kind, so this needs no API beyond what
// clock already exposes for a statically-known task list. SEL still
// routes its orders through the matching engine, so each code also gets
// a daily-bar-driven synthetic tick stream purely to give the engine
// market data to fill against (spec §4.6 "SEL" is schedule-driven, but
// the fill model underneath it is the same tick-based book as CTA/HFT).
func (e *engine) buildSEL(cache *replaycache.Cache) (*clock.Clock, strategy.Context, error) {
	params := parseDemoParams(e.cfg.SEL.Strategy.Params)
	if len(params.codes) == 0 {
		return nil, nil, fmt.Errorf("btrunner: sel.strategy.params.codes is empty")
	}
	task := e.cfg.SEL.Task
	if task == nil {
		return nil, nil, fmt.Errorf("btrunner: sel requires a task schedule")
	}

	ctx := strategy.NewSELContext(e.mtch, e.book, &signalSinkAdapter{w: e.out}, func(positions map[string]float64) map[string]float64 {
		targets := make(map[string]float64, len(params.codes))
		for _, code := range params.codes {
			targets[code] = params.qty
		}
		return targets
	}, e.logger)

	phaseClk := clock.New(clock.TaskMode, e.endTimeOr0())
	var streams []clock.Stream
	for _, code := range params.codes {
		bars, err := cache.GetBars(code, wtdata.Period1Day, 1, e.endTimeOr0(), e.sessionIDFor(code))
		if err != nil {
			return nil, nil, fmt.Errorf("btrunner: loading bars for %s: %w", code, err)
		}
		tickHandler := func(c string, tick wtdata.Tick) { e.processTick(ctx, c, tick) }
		noopBar := func(string, string, wtdata.Bar, uint32) {}
		wrapped := clock.SyntheticTickOnBarClose(code, tickHandler, noopBar)
		streams = append(streams, clock.NewBarStream(code, "base", bars, phaseClk, wrapped))
	}

	for _, t := range scheduleTimestamps(task, e.cfg.Replayer.BeginTime, e.cfg.Replayer.EndTime) {
		at := t
		streams = append(streams, clock.NewTaskStream(clock.Task(at, func(uint64) {
			ctx.Fire(params.codes, at)
		})))
	}

	clk := clock.New(clock.TaskMode, e.endTimeOr0(), streams...)
	return clk, ctx, nil
}

// dateRange expands a [begin, end] YYYYMMDD bound (the demo runner's
// convention for replayer.begin_time/end_time when driving a tick-mode
// engine day by day) into the list of calendar dates it spans.
func dateRange(begin, end uint64) []uint32 {
	b := uint32(begin)
	e := uint32(end)
	if e == 0 || e < b {
		e = b
	}
	var dates []uint32
	const maxDays = 3650 // ten years, a sane backstop against malformed config
	for d := b; d <= e && len(dates) < maxDays; d = nextDate(d) {
		dates = append(dates, d)
	}
	return dates
}

func nextDate(d uint32) uint32 {
	y, m, day := int(d/10000), int(d/100%100), int(d%100)
	t := time.Date(y, time.Month(m), day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return uint32(t.Year())*10000 + uint32(t.Month())*100 + uint32(t.Day())
}

// scheduleTimestamps expands task into one fire timestamp (YYYYMMDDHHMM,
// as a plain decimal join rather than the bar/tick encodings) per
// calendar day in [begin, end]; only daily firing is supported by this
// demo runner, matching the bundled config's task.period="daily" case.
func scheduleTimestamps(task *config.Task, begin, end uint64) []uint64 {
	hh, mm := parseHHMM(task.Time)
	var out []uint64
	for _, d := range dateRange(begin, end) {
		out = append(out, uint64(d)*10000+uint64(hh)*100+uint64(mm))
	}
	return out
}

func parseHHMM(s string) (int, int) {
	if len(s) != 5 || s[2] != ':' {
		return 15, 0
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	return h, m
}
