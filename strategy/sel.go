package strategy

import (
	"log"
	"math"

	"quantreplay/wtdata"
)

// marketBuyPrice/marketSellPrice stand in for "cross at whatever the book
// shows" (spec §4.6 "SEL submits at market"): the matching engine only
// has a limit-price concept, so a true market order is a limit priced to
// always be aggressive on its side.
const (
	marketBuyPrice  = math.MaxFloat64 / 4
	marketSellPrice = -math.MaxFloat64 / 4
)

// ScheduleFunc is the user-provided on_strategy_schedule callback: given
// the current signed position for every instrument the strategy tracks,
// it returns the desired target position for each.
type ScheduleFunc func(positions map[string]float64) (targets map[string]float64)

// SELContext is the scheduled-selection strategy flavor (spec §4.6
// "SEL"): fires on a fixed (date, time) schedule, evaluates the
// user-provided schedule function, and emits deltas for every
// instrument whose target differs from its actual position. Any
// instrument previously targeted non-zero but absent from this fire's
// target set is auto-exited to zero.
type SELContext struct {
	common

	router  OrderRouter
	book    CTAPositionReader
	signals SignalSink
	onFire  ScheduleFunc

	tracked map[string]bool
}

// NewSELContext builds a SEL context driven by onFire at each scheduled
// fire.
func NewSELContext(router OrderRouter, book CTAPositionReader, signals SignalSink, onFire ScheduleFunc, logger *log.Logger) *SELContext {
	return &SELContext{
		common: newCommon("sel", logger),
		router: router, book: book, signals: signals, onFire: onFire,
		tracked: make(map[string]bool),
	}
}

// Fire runs one scheduled evaluation at curTime. codes is the universe
// of instruments under management; positions are read from book for
// each.
func (s *SELContext) Fire(codes []string, curTime uint64) {
	positions := make(map[string]float64, len(codes))
	for _, code := range codes {
		positions[code] = s.book.SignedVolume(code)
	}

	targets := s.onFire(positions)

	seen := make(map[string]bool, len(targets))
	for code, target := range targets {
		seen[code] = true
		s.tracked[code] = true
		s.applyTarget(code, target, curTime)
	}

	// auto-exit to zero: anything previously tracked but missing from
	// this fire's target set (spec §4.6 "auto-exit to zero").
	for code := range s.tracked {
		if seen[code] {
			continue
		}
		s.applyTarget(code, 0, curTime)
		delete(s.tracked, code)
	}
}

func (s *SELContext) applyTarget(code string, target float64, curTime uint64) {
	cur := s.book.SignedVolume(code)
	diff := target - cur
	if diff == 0 {
		return
	}
	s.signals.AppendSignal(Signal{Code: code, Target: target, GenTime: curTime, UserTag: "sel"})

	isBuy := diff > 0
	qty := diff
	if !isBuy {
		qty = -qty
	}
	var id uint64
	var ok bool
	if isBuy {
		id, ok = s.router.Buy(code, marketBuyPrice, qty, curTime, wtdata.TIFGFD)
	} else {
		id, ok = s.router.Sell(code, marketSellPrice, qty, curTime, wtdata.TIFGFD)
	}
	if ok {
		s.rememberOrder(id, "sel", 0)
	}
}

func (s *SELContext) OnInit()                      {}
func (s *SELContext) OnSessionBegin(tdate uint32)   {}
func (s *SELContext) OnSessionEnd(tdate uint32)     {}
func (s *SELContext) OnTick(code string, price float64, curTime uint64)                          {}
func (s *SELContext) OnBar(code, periodKey string, close float64, barNo uint32, curTime uint64)   {}
func (s *SELContext) OnOrder(localID uint64, code string, isBuy bool, leftover, price float64, canceled bool, ordTime uint64) {
	s.checkOrderInvariant(localID, canceled || leftover == 0)
}
func (s *SELContext) OnTrade(localID uint64, code string, isBuy bool, qty, price float64, tradeTime uint64) {
}
func (s *SELContext) OnEntrust(localID uint64, code string, success bool, message string, ordTime uint64) {
	s.noteEntrust(localID, success)
}
func (s *SELContext) OnChannelReady()                  {}
func (s *SELContext) OnChannelLost()                   {}
func (s *SELContext) OnPosition(code string, volume float64) {}
