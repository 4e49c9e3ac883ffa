package strategy

import (
	"log"

	"quantreplay/wtdata"
)

// HFTContext is the thin-wrapper strategy flavor (spec §4.6 "HFT"): a
// direct pass-through to Buy/Sell/Cancel, tracking per-order user tags
// in common's bounded circular buffer so a later order/trade/entrust
// callback can recover which signal produced it.
type HFTContext struct {
	common

	router OrderRouter
}

// NewHFTContext builds an HFT context driving orders through router.
func NewHFTContext(router OrderRouter, logger *log.Logger) *HFTContext {
	return &HFTContext{
		common: newCommon("hft", logger),
		router: router,
	}
}

// Buy submits a buy order tagged userTag for later attribution.
func (h *HFTContext) Buy(code string, price, qty float64, curTime uint64, tif wtdata.TimeInForce, userTag string) (uint64, bool) {
	id, ok := h.router.Buy(code, price, qty, curTime, tif)
	if ok {
		h.rememberOrder(id, userTag, 0)
	}
	return id, ok
}

// Sell submits a sell order tagged userTag.
func (h *HFTContext) Sell(code string, price, qty float64, curTime uint64, tif wtdata.TimeInForce, userTag string) (uint64, bool) {
	id, ok := h.router.Sell(code, price, qty, curTime, tif)
	if ok {
		h.rememberOrder(id, userTag, 0)
	}
	return id, ok
}

// Cancel requests cancellation of localID, returning the signed
// remaining quantity.
func (h *HFTContext) Cancel(localID uint64) float64 {
	return h.router.Cancel(localID)
}

// UserTag returns the tag recorded for localID, if it is still within
// the circular buffer's retention window.
func (h *HFTContext) UserTag(localID uint64) (string, bool) {
	tag, _, ok := h.OrderTag(localID)
	return tag, ok
}

func (h *HFTContext) OnInit()                    {}
func (h *HFTContext) OnSessionBegin(tdate uint32) {}
func (h *HFTContext) OnSessionEnd(tdate uint32)   {}
func (h *HFTContext) OnTick(code string, price float64, curTime uint64)                        {}
func (h *HFTContext) OnBar(code, periodKey string, close float64, barNo uint32, curTime uint64) {}
func (h *HFTContext) OnOrder(localID uint64, code string, isBuy bool, leftover, price float64, canceled bool, ordTime uint64) {
	h.checkOrderInvariant(localID, canceled || leftover == 0)
}
func (h *HFTContext) OnTrade(localID uint64, code string, isBuy bool, qty, price float64, tradeTime uint64) {
}
func (h *HFTContext) OnEntrust(localID uint64, code string, success bool, message string, ordTime uint64) {
	h.noteEntrust(localID, success)
}
func (h *HFTContext) OnChannelReady()                  {}
func (h *HFTContext) OnChannelLost()                   {}
func (h *HFTContext) OnPosition(code string, volume float64) {}
