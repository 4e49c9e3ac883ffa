package strategy

import (
	"log"

	"quantreplay/metadata"
	"quantreplay/wtdata"
)

// CTAPositionReader gives CTAContext read access to current positions
// without coupling it to the concrete accounting.Book type.
type CTAPositionReader interface {
	SignedVolume(code string) float64
}

// CTAContext is the target-position strategy flavor (spec §4.6 "CTA"):
// strategies call SetPosition with a desired signed quantity; the
// context computes the delta and submits the corresponding child order,
// deferring until the next tick unless called from an on-bar callback.
// can_short=false is rejected here, before the order is even submitted;
// T+1 (same-day lots are not closeable) is enforced downstream by
// accounting.Book, the component that actually owns FIFO lot state.
type CTAContext struct {
	common

	meta     *metadata.Manager
	router   OrderRouter
	book     CTAPositionReader
	signals  SignalSink

	pending   map[string]pendingDelta
	inBar     bool
	lastBarNo map[string]uint32
}

type pendingDelta struct {
	target  float64
	price   float64
	stopPx  float64
	userTag string
}

// NewCTAContext builds a CTA context.
func NewCTAContext(meta *metadata.Manager, router OrderRouter, book CTAPositionReader, signals SignalSink, logger *log.Logger) *CTAContext {
	return &CTAContext{
		common: newCommon("cta", logger),
		meta:   meta, router: router, book: book, signals: signals,
		pending:   make(map[string]pendingDelta),
		lastBarNo: make(map[string]uint32),
	}
}

// SetPosition requests code's position move to targetQty. limitPx<=0
// means "market": a deferred request takes the next tick's price as its
// limit, and a request fired inside an on-bar callback is submitted at
// marketBuyPrice/marketSellPrice so it fills at the tick's quote. stopPx
// is recorded with the request but not used for pricing. Execution
// is deferred to the next tick unless called from within an on-bar
// callback (BeginBar/EndBar), matching spec §4.6's fill-price-matches-
// the-tick-it-actually-changes-on rule.
func (c *CTAContext) SetPosition(code string, targetQty, limitPx, stopPx float64, userTag string, curTime uint64) {
	c.signals.AppendSignal(Signal{Code: code, Target: targetQty, SigPrice: limitPx, GenTime: curTime, UserTag: userTag})

	delta := pendingDelta{target: targetQty, price: limitPx, stopPx: stopPx, userTag: userTag}
	if c.inBar {
		c.fire(code, delta, curTime)
		return
	}
	c.pending[code] = delta
}

// BeginBar marks that subsequent SetPosition calls, until EndBar, may
// execute immediately instead of deferring to the next tick.
func (c *CTAContext) BeginBar() { c.inBar = true }

// EndBar ends the immediate-execution window opened by BeginBar.
func (c *CTAContext) EndBar() { c.inBar = false }

// OnTick fires any position change queued for code on the prior call,
// so the reported fill price matches this tick.
func (c *CTAContext) OnTick(code string, price float64, curTime uint64) {
	delta, ok := c.pending[code]
	if !ok {
		return
	}
	delete(c.pending, code)
	if delta.price <= 0 {
		delta.price = price
	}
	c.fire(code, delta, curTime)
}

func (c *CTAContext) fire(code string, delta pendingDelta, curTime uint64) {
	cur := c.book.SignedVolume(code)
	diff := delta.target - cur
	if diff == 0 {
		return
	}

	comm, err := c.commodityFor(code)
	if err != nil {
		c.logger.Printf("cta: %v", err)
		return
	}
	if delta.target < 0 && !comm.CanShort {
		c.logger.Printf("cta: rejected short on %s (can_short=false)", code)
		return
	}

	isBuy := diff > 0
	qty := diff
	if !isBuy {
		qty = -qty
	}
	barNo := c.lastBarNo[code]
	price := delta.price
	if price <= 0 {
		if isBuy {
			price = marketBuyPrice
		} else {
			price = marketSellPrice
		}
	}
	var id uint64
	var ok bool
	if isBuy {
		id, ok = c.router.Buy(code, price, qty, curTime, wtdata.TIFGFD)
	} else {
		id, ok = c.router.Sell(code, price, qty, curTime, wtdata.TIFGFD)
	}
	if ok {
		c.rememberOrder(id, delta.userTag, barNo)
	}
}

func (c *CTAContext) commodityFor(code string) (*metadata.CommodityInfo, error) {
	exchange, product := splitExchangeProduct(code)
	comm, ok := c.meta.Commodity(exchange, product)
	if !ok {
		return nil, errUnknownCommodity(code)
	}
	return comm, nil
}

func splitExchangeProduct(code string) (exchange, product string) {
	dot := -1
	for i := 0; i < len(code); i++ {
		if code[i] == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		return code, ""
	}
	end := dot + 1
	for end < len(code) && code[end] != '.' {
		end++
	}
	return code[:dot], code[dot+1 : end]
}

func errUnknownCommodity(code string) error {
	return &unknownCommodityError{code: code}
}

type unknownCommodityError struct{ code string }

func (e *unknownCommodityError) Error() string { return "strategy: unknown commodity for " + e.code }

func (c *CTAContext) OnInit()                                                                {}
func (c *CTAContext) OnSessionBegin(tdate uint32)                                             {}
func (c *CTAContext) OnSessionEnd(tdate uint32)                                               {}
func (c *CTAContext) OnBar(code, periodKey string, close float64, barNo uint32, curTime uint64) {
	c.lastBarNo[code] = barNo
}
func (c *CTAContext) OnOrder(localID uint64, code string, isBuy bool, leftover, price float64, canceled bool, ordTime uint64) {
	c.checkOrderInvariant(localID, canceled || leftover == 0)
}
func (c *CTAContext) OnTrade(localID uint64, code string, isBuy bool, qty, price float64, tradeTime uint64) {
}
func (c *CTAContext) OnEntrust(localID uint64, code string, success bool, message string, ordTime uint64) {
	c.noteEntrust(localID, success)
}
func (c *CTAContext) OnChannelReady()                  {}
func (c *CTAContext) OnChannelLost()                   {}
func (c *CTAContext) OnPosition(code string, volume float64) {}
