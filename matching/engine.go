// Package matching implements the virtual limit-order-book matching
// engine (C5), grounded on MatchEngine.{h,cpp} from the original
// implementation's backtest core: queue-position-aware fills against a
// one-level-per-tick replay of best bid/ask, with FAK/FOK time-in-force
// as a thin layer on top of the base GFD semantics.
package matching

import (
	"sync"
	"sync/atomic"

	"quantreplay/wtdata"
)

// Engine holds one bookState per instrument and a single order map keyed
// by local id across all instruments, driven
// single-threaded from the replay clock's tick dispatch.
type Engine struct {
	mu sync.Mutex

	sink       Sink
	cancelRate float64

	orders   map[uint64]*wtdata.OrderInfo
	books    map[string]*bookState
	lastTick map[string]wtdata.Tick

	nextID uint64
}

// New builds an Engine reporting fills/order-state/entrust acks to sink.
// cancelRate models the fraction of queued volume ahead of a new order
// that the market cancels before it arrives, same as the original
// engine's configured cancelrate.
func New(sink Sink, cancelRate float64) *Engine {
	return &Engine{
		sink:       sink,
		cancelRate: cancelRate,
		orders:     make(map[uint64]*wtdata.OrderInfo),
		books:      make(map[string]*bookState),
		lastTick:   make(map[string]wtdata.Tick),
	}
}

func (e *Engine) nextLocalID() uint64 {
	return atomic.AddUint64(&e.nextID, 1)
}

// Clear removes every resting order (used between backtest runs).
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orders = make(map[uint64]*wtdata.OrderInfo)
}

// Buy submits a buy limit order at price/qty under tif, returning its
// local order id. If no market data has been seen yet for code, the
// order is rejected synchronously via Sink.HandleEntrust and id 0 is
// returned with ok=false.
func (e *Engine) Buy(code string, price, qty float64, curTime uint64, tif wtdata.TimeInForce) (id uint64, ok bool) {
	return e.submit(code, true, price, qty, curTime, tif)
}

// Sell submits a sell limit order, mirroring Buy.
func (e *Engine) Sell(code string, price, qty float64, curTime uint64, tif wtdata.TimeInForce) (id uint64, ok bool) {
	return e.submit(code, false, price, qty, curTime, tif)
}

func (e *Engine) submit(code string, isBuy bool, price, qty float64, curTime uint64, tif wtdata.TimeInForce) (uint64, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	last, haveTick := e.lastTick[code]
	localID := e.nextLocalID()
	if !haveTick {
		e.sink.HandleEntrust(localID, code, false, "no market data for "+code, curTime)
		return 0, false
	}

	if tif == wtdata.TIFFOK && !e.fillableInFull(&last, isBuy, price, qty) {
		e.sink.HandleEntrust(localID, code, false, "fill-or-kill order cannot fill in full", curTime)
		return 0, false
	}

	ord := &wtdata.OrderInfo{
		LocalID: localID, Code: code, Buy: isBuy,
		Qty: qty, Left: qty, Limit: price, Price: last.Price,
		Time: curTime, TIF: tif,
	}
	computeQueue(ord, &last, e.cancelRate)
	e.orders[localID] = ord

	// Order stays Pending until the next HandleTick's fireOrders pass
	// activates it and emits the Entrust/Order acks (mirrors the
	// original engine: buy()/sell() only register the order; the
	// activation happens on the next tick).
	return localID, true
}

// computeQueue implements the original buy()/sell() queue-position
// rule: a crossing ("positive"/aggressive) order queues at zero, since
// it will take liquidity immediately; a passive order at the best quote
// queues behind the resting quantity there; a passive order at the last
// trade price queues at the size-weighted mid of best bid/ask. Either
// way the queue is then thinned by cancelRate, modeling ahead-of-us
// cancellations.
func computeQueue(ord *wtdata.OrderInfo, last *wtdata.Tick, cancelRate float64) {
	bid0, ask0 := last.BidPrice(0), last.AskPrice(0)
	if ord.Buy {
		if decGe(ord.Limit, ask0) {
			ord.Positive = true
		} else if decEq(ord.Limit, bid0) {
			ord.Queue = last.BidQtyAt(0)
		}
	} else {
		if decEq(ord.Limit, ask0) {
			ord.Queue = last.AskQtyAt(0)
		} else if decLe(ord.Limit, bid0) {
			ord.Positive = true
		}
	}
	if decEq(ord.Limit, last.Price) && (ask0+bid0) != 0 {
		ord.Queue = roundQty((last.AskQtyAt(0)*ask0 + last.BidQtyAt(0)*bid0) / (ask0 + bid0))
	}
	ord.Queue -= roundQty(ord.Queue * cancelRate)
}

func roundQty(v float64) float64 {
	if v < 0 {
		return float64(int64(v - 0.5))
	}
	return float64(int64(v + 0.5))
}

// fillableInFull is the FOK pre-check: can this order fill completely
// against the reference tick's available volume at an acceptable price,
// using the submission-tick snapshot as the reference (spec Open
// Question resolution: reference volume, not a post-hoc `left`, is
// authoritative — a FOK order is judged against what was visible when it
// was sent, not against book state that may have moved by the time a
// partial fill would otherwise have been recorded).
func (e *Engine) fillableInFull(last *wtdata.Tick, isBuy bool, price, qty float64) bool {
	if isBuy {
		if decGe(price, last.AskPrice(0)) {
			return last.AskQtyAt(0) >= qty
		}
		return decEq(price, last.Price) && last.Volume >= qty
	}
	if decLe(price, last.BidPrice(0)) {
		return last.BidQtyAt(0) >= qty
	}
	return decEq(price, last.Price) && last.Volume >= qty
}

// Cancel requests cancellation of one resting order by id, returning the
// signed remaining quantity (positive for buy, negative for sell), or 0
// if the order is unknown or already terminal.
func (e *Engine) Cancel(localID uint64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	ord, ok := e.orders[localID]
	if !ok || ord.IsTerminal() {
		return 0
	}
	ord.State = wtdata.OrderCancelRequested
	if ord.Buy {
		return ord.Left
	}
	return -ord.Left
}

// CancelSide requests cancellation of resting orders for code/isBuy up to
// qty total (0 means all), invoking cb with each order's signed
// remaining quantity as it is marked for cancellation.
func (e *Engine) CancelSide(code string, isBuy bool, qty float64, cb func(signedQty float64)) []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	var canceled []uint64
	remaining := qty
	for localID, ord := range e.orders {
		if ord.State != wtdata.OrderActive || ord.Code != code || ord.Buy != isBuy {
			continue
		}
		ord.State = wtdata.OrderCancelRequested
		canceled = append(canceled, localID)
		signed := ord.Left
		if !isBuy {
			signed = -signed
		}
		if cb != nil {
			cb(signed)
		}
		if qty != 0 {
			if remaining <= ord.Left {
				break
			}
			remaining -= ord.Left
		}
	}
	return canceled
}

// HandleTick processes one tick for code: refresh the book, activate any
// pending orders (fireOrders), then match active orders against it
// (matchOrders), mirroring the original two-pass handle_tick exactly.
func (e *Engine) HandleTick(code string, tick wtdata.Tick) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastTick[code] = tick
	book, ok := e.books[code]
	if !ok {
		book = newBookState()
		e.books[code] = book
	}
	book.update(&tick)

	var toErase []uint64
	e.fireOrders(code, &toErase)
	e.matchOrders(code, &tick, &toErase)

	for _, id := range toErase {
		delete(e.orders, id)
	}
}

func (e *Engine) fireOrders(code string, toErase *[]uint64) {
	for localID, ord := range e.orders {
		if ord.Code != code || ord.State != wtdata.OrderPending {
			continue
		}
		e.sink.HandleEntrust(localID, code, true, "", ord.Time)
		e.sink.HandleOrder(localID, code, ord.Buy, ord.Left, ord.Limit, false, ord.Time)
		ord.State = wtdata.OrderActive
	}
}

func (e *Engine) matchOrders(code string, tick *wtdata.Tick, toErase *[]uint64) {
	for localID, ord := range e.orders {
		if ord.Code != code {
			continue
		}

		if ord.State == wtdata.OrderCancelRequested {
			e.sink.HandleOrder(localID, ord.Code, ord.Buy, 0, ord.Limit, true, ord.Time)
			ord.State = wtdata.OrderCancelled
			ord.Left = 0
			*toErase = append(*toErase, localID)
			continue
		}

		if ord.State != wtdata.OrderActive {
			continue
		}
		if tick.Volume == 0 {
			if ord.TIF == wtdata.TIFFAK {
				// FAK on a tick with no traded volume: nothing can
				// fill, so it is cancelled with zero fills.
				e.sink.HandleOrder(localID, ord.Code, ord.Buy, 0, ord.Limit, true, ord.Time)
				ord.State = wtdata.OrderCancelled
				ord.Left = 0
				*toErase = append(*toErase, localID)
			}
			continue
		}

		filled := e.matchOne(localID, ord, tick)
		if filled && ord.TIF == wtdata.TIFFAK && !ord.IsTerminal() {
			// FAK: any leftover after the first tick following
			// submission is cancelled immediately.
			e.sink.HandleOrder(localID, ord.Code, ord.Buy, 0, ord.Limit, true, ord.Time)
			ord.State = wtdata.OrderCancelled
			ord.Left = 0
		}
		if ord.IsTerminal() {
			*toErase = append(*toErase, localID)
		}
	}
}

// matchOne runs the fill logic for one active order against tick,
// mirroring match_orders' buy/sell branches (reference price/volume
// selection by positive, queue consumption, qty = min(volume, left)).
// It reports whether any fill processing occurred this tick (including
// a no-op "still queued" outcome, used to gate FAK's post-tick cancel).
func (e *Engine) matchOne(localID uint64, ord *wtdata.OrderInfo, tick *wtdata.Tick) bool {
	var refPrice, refVolume float64
	if ord.Positive {
		if ord.Buy {
			refPrice, refVolume = tick.AskPrice(0), tick.AskQtyAt(0)
		} else {
			refPrice, refVolume = tick.BidPrice(0), tick.BidQtyAt(0)
		}
	} else {
		refPrice, refVolume = tick.Price, tick.Volume
	}

	acceptable := (ord.Buy && decLe(refPrice, ord.Limit)) || (!ord.Buy && decGe(refPrice, ord.Limit))
	if !acceptable {
		return true
	}

	volume := refVolume
	if !ord.Positive && decEq(refPrice, ord.Limit) {
		if refVolume <= ord.Queue {
			ord.Queue -= refVolume
			return true
		}
		if ord.Queue != 0 {
			volume -= ord.Queue
			ord.Queue = 0
		}
	} else if !ord.Positive {
		volume = ord.Left
	}

	qty := volume
	if qty > ord.Left {
		qty = ord.Left
	}
	if decLe(qty, 0) {
		return true
	}

	e.sink.HandleTrade(localID, ord.Code, ord.Buy, qty, ord.Price, refPrice, ord.Time)
	ord.Traded += qty
	ord.Left -= qty
	e.sink.HandleOrder(localID, ord.Code, ord.Buy, ord.Left, refPrice, false, ord.Time)
	return true
}
