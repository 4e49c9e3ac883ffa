package main

import (
	"context"
	"fmt"
	"log"
	"path/filepath"

	"quantreplay/accounting"
	"quantreplay/clock"
	"quantreplay/config"
	"quantreplay/errs"
	"quantreplay/matching"
	"quantreplay/metadata"
	"quantreplay/notify"
	"quantreplay/output"
	"quantreplay/reader"
	"quantreplay/replaycache"
	"quantreplay/riskmon"
	"quantreplay/strategy"
	"quantreplay/wtdata"
)

// demoCancelRate models the queue-ahead-of-us cancellation haircut (spec
// §4.4); the config schema (§6) has no such field, so this demo runner
// hardcodes a representative value rather than inventing a new config
// key outside the normative schema.
const demoCancelRate = 0.2

// riskPoolSize/riskPoolWindow size the optional background risk-monitor
// pool (spec §5/§4.10): small enough to be a negligible demo overhead,
// non-zero so the pool is actually exercised end to end rather than
// left permanently opt-out. A production runner would read these from
// its own operational config rather than hardcode them.
const (
	riskPoolSize   = 2
	riskPoolWindow = 20
)

// demoNotifyEndpoint is the PUB socket the demo runner binds its
// best-effort event feed to (spec §3/§9 EventNotifier). Like
// demoCancelRate, this is a runner constant because §6's config schema
// has no notify-endpoint field; a failed bind only disables the feed
// (notify.Publisher's nil-receiver no-op contract), it never aborts the
// run.
const demoNotifyEndpoint = "tcp://127.0.0.1:5556"

// runFromFiles loads cfg/log config from disk and runs one backtest,
// mirroring the CLI's exit-code contract (spec §6): 0 on normal
// completion, non-zero on any unrecoverable init failure propagated as
// an error from here.
func runFromFiles(cfgPath, logCfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger := loadLogger(logCfgPath)
	outDir := filepath.Dir(cfgPath)
	return run(cfg, logger, outDir)
}

// engine bundles every component wired together for one run, so the
// matching-engine sink and the strategy context can reach back into
// accounting/output without a tangle of free functions.
type engine struct {
	cfg    *config.Config
	logger *log.Logger

	meta *metadata.Manager
	hot  *metadata.HotManager
	book *accounting.Book
	mtch *matching.Engine
	out  *output.Writer

	rollover  *accounting.RolloverGuard
	lastTDate map[string]uint32

	cache          *replaycache.Cache
	lastEvictTDate uint32

	risk   *riskmon.Pool
	notify *notify.Publisher
}

func run(cfg *config.Config, logger *log.Logger, outDir string) error {
	meta := metadata.NewManager()
	if err := config.LoadMetadata(meta, cfg.Replayer); err != nil {
		return err
	}
	hot := metadata.NewHotManager()

	writer, err := output.NewWriter(outDir)
	if err != nil {
		return fmt.Errorf("btrunner: opening output writer: %w", err)
	}
	defer writer.Close()

	e := &engine{cfg: cfg, logger: logger, meta: meta, hot: hot, out: writer, lastTDate: make(map[string]uint32)}
	e.rollover = accounting.NewRolloverGuard(hot, nil, nil)
	e.book = accounting.New(meta, hot, &tradeSinkAdapter{w: writer})
	sink := &matchSinkAdapter{e: e}
	e.mtch = matching.New(sink, demoCancelRate)
	e.risk = riskmon.NewPool(riskPoolSize, riskPoolWindow)
	if pub, perr := notify.NewPublisher(demoNotifyEndpoint, logger); perr != nil {
		logger.Printf("notify: disabled, bind %s failed: %v", demoNotifyEndpoint, perr)
	} else {
		e.notify = pub
	}
	defer e.notify.Close()

	dataDir := filepath.Join(outDir, "data")
	rdr := reader.NewFileReader(dataDir, cfg.Replayer.AdjustFlag)
	defer rdr.Release()

	cache := replaycache.NewCache(rdr, meta, replaycache.Config{
		CacheClearDays: cfg.Replayer.CacheClearDays,
		AlignBySection: cfg.Replayer.AlignBySection,
		NosimIfNoTrade: cfg.Replayer.NosimIfNoTrade,
	})
	e.cache = cache

	var clk *clock.Clock
	var ctx strategy.Context

	switch cfg.Env.Mocker {
	case config.MockerCTA:
		clk, ctx, err = e.buildCTA(cache)
	case config.MockerHFT:
		clk, ctx, err = e.buildHFT(cache)
	case config.MockerSEL:
		clk, ctx, err = e.buildSEL(cache)
	default:
		return fmt.Errorf("btrunner: mocker %q is not wired in this runner", cfg.Env.Mocker)
	}
	if err != nil {
		return err
	}
	sink.ctx = ctx

	guardStrategy(logger, string(cfg.Env.Mocker), "on_init", ctx.OnInit)
	clk.Run(context.Background())

	if flusher, ok := ctx.(userDataFlusher); ok {
		if data, dirty := flusher.FlushUserDataIfDirty(); dirty {
			if err := output.SaveUserData(outDir, data); err != nil {
				logger.Printf("flushing user data: %v", err)
			}
		}
	}

	e.risk.Close() // drain every queued sample before reading its summary below

	snap := output.Snapshot{Fund: e.book.Fund()}
	for _, pos := range e.book.Positions() {
		snap.Positions = append(snap.Positions, *pos)
	}
	if summaries := e.risk.Snapshot(); len(summaries) > 0 {
		snap.RiskMon = make(map[string]interface{}, len(summaries))
		for code, s := range summaries {
			snap.RiskMon[code] = s
		}
	}
	if err := output.SaveSnapshot(outDir, snap); err != nil {
		logger.Printf("saving snapshot: %v", err)
	}
	return writer.Flush()
}

// userDataFlusher is satisfied by every strategy.common-embedding
// context; used to flush userdata.json only if something was saved.
type userDataFlusher interface {
	FlushUserDataIfDirty() (map[string]string, bool)
}

// matchSinkAdapter bridges the matching engine's fill/order/entrust
// callbacks into the accounting book (position updates) and the active
// strategy context (invariant bookkeeping), per spec §4.5/§4.6.
type matchSinkAdapter struct {
	e   *engine
	ctx strategy.Context
}

func (a *matchSinkAdapter) HandleTrade(localID uint64, code string, isBuy bool, vol, firePrice, price float64, ordTime uint64) {
	cur := a.e.book.SignedVolume(code)
	signed := vol
	if !isBuy {
		signed = -vol
	}
	tdate := tdateFromTime(ordTime)
	var userTag string
	var barNo uint32
	if lookup, ok := a.ctx.(strategy.OrderTagLookup); ok {
		if tag, bn, found := lookup.OrderTag(localID); found {
			userTag, barNo = tag, bn
		}
	}
	if err := a.e.book.SetPosition(code, cur+signed, price, ordTime, tdate, userTag, barNo); err != nil {
		a.e.logger.Printf("accounting: %v", err)
	}
	a.e.notify.Publish("trade", map[string]interface{}{"code": code, "buy": isBuy, "qty": vol, "price": price, "time": ordTime})
	if a.ctx != nil {
		guardStrategy(a.e.logger, string(a.e.cfg.Env.Mocker), "on_trade", func() {
			a.ctx.OnTrade(localID, code, isBuy, vol, price, ordTime)
		})
	}
}

func (a *matchSinkAdapter) HandleOrder(localID uint64, code string, isBuy bool, leftover, price float64, canceled bool, ordTime uint64) {
	a.e.notify.Publish("order", map[string]interface{}{"code": code, "buy": isBuy, "leftover": leftover, "price": price, "canceled": canceled, "time": ordTime})
	if a.ctx != nil {
		guardStrategy(a.e.logger, string(a.e.cfg.Env.Mocker), "on_order", func() {
			a.ctx.OnOrder(localID, code, isBuy, leftover, price, canceled, ordTime)
		})
	}
}

// HandleEntrust reports the exchange's accept/reject decision for one
// order submission (spec §7 "OrderRejected"): not an exception, just the
// normal failure path a strategy may retry against. A rejection is still
// worth a descriptive log line, so it is formatted through
// errs.OrderRejected rather than just the raw message string.
func (a *matchSinkAdapter) HandleEntrust(localID uint64, code string, success bool, message string, ordTime uint64) {
	if !success {
		a.e.logger.Printf("%v", &errs.OrderRejected{Code: code, Msg: message})
	}
	a.e.notify.Publish("entrust", map[string]interface{}{"code": code, "success": success, "message": message, "time": ordTime})
	if a.ctx != nil {
		guardStrategy(a.e.logger, string(a.e.cfg.Env.Mocker), "on_entrust", func() {
			a.ctx.OnEntrust(localID, code, success, message, ordTime)
		})
	}
}

// tdateFromTime derives a trading date from a combined timestamp. Bar
// timestamps carry the date in their top digits already (spec §3); this
// demo runner's data convention keeps that property for tick timestamps
// too (ActionTimestamp's ActionDate component), so a single modulo/divide
// recovers it without needing the full calendar.
func tdateFromTime(t uint64) uint32 {
	if t > 100000000000 {
		// tick ActionTimestamp: ActionDate*1e9 + ActionTime
		return uint32(t / 1000000000)
	}
	if t > 100000000 {
		// intraday bar Time: (YYYYMM-199000)*10000+HHMM -- not directly a
		// date; callers needing exact dates should track Bar.Date instead.
		return uint32(t / 10000)
	}
	return uint32(t)
}

// tradeSinkAdapter writes every booked fill/close straight to the CSV
// writer, satisfying accounting.TradeSink.
type tradeSinkAdapter struct {
	w *output.Writer
}

func (t *tradeSinkAdapter) OnTrade(code string, long, isOpen bool, tradeTime uint64, price, qty, fee float64) {
	if err := t.w.WriteTrade(code, tradeTime, long, isOpen, price, qty, fee); err != nil {
		log.Printf("writing trades.csv: %v", err)
	}
}

func (t *tradeSinkAdapter) OnClose(code string, long bool, openTime uint64, openPrice float64, closeTime uint64, closePrice, qty, profit, maxProfit, maxLoss, totalCloseProfit float64, enterTag, exitTag string, openBarNo, closeBarNo uint32) {
	if err := t.w.WriteClose(code, long, openTime, openPrice, closeTime, closePrice, qty, profit, maxProfit, maxLoss, totalCloseProfit, enterTag, exitTag, openBarNo, closeBarNo); err != nil {
		log.Printf("writing closes.csv: %v", err)
	}
}

// signalSinkAdapter forwards append_signal calls straight to signals.csv.
type signalSinkAdapter struct {
	w *output.Writer
}

func (s *signalSinkAdapter) AppendSignal(sig strategy.Signal) {
	if err := s.w.WriteSignal(sig.Code, sig.Target, sig.SigPrice, sig.GenTime, sig.UserTag); err != nil {
		log.Printf("writing signals.csv: %v", err)
	}
}

func barPeriodFor(mode string) wtdata.BarPeriod {
	if mode == "daily" {
		return wtdata.Period1Day
	}
	return wtdata.Period1Min
}
