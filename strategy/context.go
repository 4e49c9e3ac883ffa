// Package strategy implements the three strategy-context flavors (C7):
// CTA (target-position), SEL (scheduled selection), and HFT (thin
// order wrapper), sharing the invariant bookkeeping every context must
// enforce regardless of style. Grounded in idiom on the teacher's
// strategies.StrategyRunner (injected *log.Logger, context.Context
// lifecycle), generalized from its Alpaca-only strategy loop to the
// engine's {code, order, trade, entrust, position} callback surface.
package strategy

import (
	"log"

	"quantreplay/wtdata"
)

// Context is the capability set every strategy variant exposes to the
// engine (spec §4.6).
type Context interface {
	OnInit()
	OnSessionBegin(tdate uint32)
	OnSessionEnd(tdate uint32)
	OnTick(code string, price float64, curTime uint64)
	OnBar(code, periodKey string, close float64, barNo uint32, curTime uint64)
	OnOrder(localID uint64, code string, isBuy bool, leftover, price float64, canceled bool, ordTime uint64)
	OnTrade(localID uint64, code string, isBuy bool, qty, price float64, tradeTime uint64)
	OnEntrust(localID uint64, code string, success bool, message string, ordTime uint64)
	OnChannelReady()
	OnChannelLost()
	OnPosition(code string, volume float64)
}

// OrderRouter is the subset of the matching engine every context drives
// orders through.
type OrderRouter interface {
	Buy(code string, price, qty float64, curTime uint64, tif wtdata.TimeInForce) (id uint64, ok bool)
	Sell(code string, price, qty float64, curTime uint64, tif wtdata.TimeInForce) (id uint64, ok bool)
	Cancel(localID uint64) float64
}

// Signal is one append_signal record destined for signals.csv.
type Signal struct {
	Code      string
	Target    float64
	SigPrice  float64
	GenTime   uint64
	UserTag   string
}

// SignalSink receives Signal records as strategies append them.
type SignalSink interface {
	AppendSignal(s Signal)
}

// orderTagBufSize bounds the circular recent-order-tag buffer every
// context shares (spec §4.6 "bounded circular buffer (recent N
// orders)"), originally HFT-only and generalized here so CTA/SEL can
// attribute a fill back to its originating user_tag/bar number too.
const orderTagBufSize = 256

type orderTagEntry struct {
	localID uint64
	tag     string
	barNo   uint32
}

// OrderTagLookup is satisfied by every context embedding common; it lets
// the engine attribute a fill's local order id back to the user_tag (and,
// where meaningful, the bar number) that originated it, for closes.csv's
// entertag/exittag/openbarno/closebarno columns (spec §4.5/§4.8).
type OrderTagLookup interface {
	OrderTag(localID uint64) (tag string, barNo uint32, ok bool)
}

// common holds the shared per-local-id invariant tracking every context
// embeds (spec §4.6 "Common invariants"): entrust-before-order/trade,
// exactly one terminal order event per id, plus the user_tag/bar-number
// attribution buffer.
type common struct {
	logger *log.Logger
	name   string

	entrusted map[uint64]bool
	terminal  map[uint64]bool

	tagBuf  [orderTagBufSize]orderTagEntry
	tagNext int
	tagByID map[uint64]orderTagEntry

	userData      map[string]string
	userDataDirty bool
}

func newCommon(name string, logger *log.Logger) common {
	return common{
		name: name, logger: logger,
		entrusted: make(map[uint64]bool),
		terminal:  make(map[uint64]bool),
		tagByID:   make(map[uint64]orderTagEntry),
		userData:  make(map[string]string),
	}
}

// rememberOrder associates localID with tag/barNo, evicting the oldest
// entry once the circular buffer wraps.
func (c *common) rememberOrder(localID uint64, tag string, barNo uint32) {
	evicted := c.tagBuf[c.tagNext]
	if evicted.localID != 0 {
		delete(c.tagByID, evicted.localID)
	}
	entry := orderTagEntry{localID: localID, tag: tag, barNo: barNo}
	c.tagBuf[c.tagNext] = entry
	c.tagByID[localID] = entry
	c.tagNext = (c.tagNext + 1) % orderTagBufSize
}

// OrderTag returns the tag/barNo recorded for localID, if it is still
// within the circular buffer's retention window.
func (c *common) OrderTag(localID uint64) (tag string, barNo uint32, ok bool) {
	e, ok := c.tagByID[localID]
	if !ok {
		return "", 0, false
	}
	return e.tag, e.barNo, true
}

// noteEntrust records that localID's entrust ack has been seen, so a
// later order/trade for the same id can be checked against it.
func (c *common) noteEntrust(localID uint64, success bool) {
	c.entrusted[localID] = success
}

// checkOrderInvariant logs (never panics — a strategy callback failure
// must not crash the scheduler) if an order/trade event arrives for an
// id that was never entrusted, or after that id already went terminal.
func (c *common) checkOrderInvariant(localID uint64, terminal bool) {
	if !c.entrusted[localID] {
		c.logger.Printf("%s: order event for local id %d with no prior entrust", c.name, localID)
	}
	if c.terminal[localID] {
		c.logger.Printf("%s: order event for local id %d after it already went terminal", c.name, localID)
	}
	if terminal {
		c.terminal[localID] = true
	}
}

// SaveUserData stashes key/val in memory, marking user data dirty so the
// next session-end flush writes it to userdata.json.
func (c *common) SaveUserData(key, val string) {
	c.userData[key] = val
	c.userDataDirty = true
}

// LoadUserData returns the stored value for key, or def if absent.
func (c *common) LoadUserData(key, def string) string {
	if v, ok := c.userData[key]; ok {
		return v
	}
	return def
}

// FlushUserDataIfDirty returns (data, true) if user data changed since
// the last flush, clearing the dirty flag; (nil, false) otherwise. The
// caller is responsible for the actual userdata.json write (package
// output).
func (c *common) FlushUserDataIfDirty() (map[string]string, bool) {
	if !c.userDataDirty {
		return nil, false
	}
	c.userDataDirty = false
	out := make(map[string]string, len(c.userData))
	for k, v := range c.userData {
		out[k] = v
	}
	return out, true
}

// LoadUserDataSnapshot seeds the in-memory user data store from a
// previously-persisted userdata.json (incremental resume).
func (c *common) LoadUserDataSnapshot(data map[string]string) {
	for k, v := range data {
		c.userData[k] = v
	}
	c.userDataDirty = false
}
