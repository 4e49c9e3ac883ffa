package metadata

import "fmt"

// rolloverEvent records one substitution of the "hot" (main/continuous)
// raw contract for a product, effective from Date onward, plus the
// price-continuity chain factor accumulated at that point.
type rolloverEvent struct {
	Date        uint32
	RawCode     string
	ChainFactor float64
}

// HotManager resolves the main-contract rollover chain for continuous
// futures series (spec §4.7 "Main-contract rules"). Entries must be added
// in increasing Date order per (exchange, product); GetRawCode and
// GetRuleFactor then scan forward, keeping the last event dated on or
// before a given trading date as the one in force.
type HotManager struct {
	events map[string][]rolloverEvent // keyed "exchange.product.tag"
}

// NewHotManager builds an empty rollover chain store.
func NewHotManager() *HotManager {
	return &HotManager{events: make(map[string][]rolloverEvent)}
}

func hotKey(tag, exchange, product string) string {
	return tag + "." + exchange + "." + product
}

// AddRolloverEvent appends one rollover substitution to the chain for
// (tag, exchange, product). tag distinguishes independent rollover
// policies (e.g. "HOT" for front-month, "2ND" for second contract).
func (h *HotManager) AddRolloverEvent(tag, exchange, product string, date uint32, rawCode string, chainFactor float64) {
	key := hotKey(tag, exchange, product)
	h.events[key] = append(h.events[key], rolloverEvent{Date: date, RawCode: rawCode, ChainFactor: chainFactor})
}

// GetRawCode resolves the raw contract in force for (exchange, product)
// under the default "HOT" tag as of tdate.
func (h *HotManager) GetRawCode(exchange, product string, tdate uint32) (string, error) {
	return h.GetRawCodeForTag("HOT", exchange, product, tdate)
}

// GetRawCodeForTag resolves the raw contract in force under tag.
func (h *HotManager) GetRawCodeForTag(tag, exchange, product string, tdate uint32) (string, error) {
	ev, ok := h.eventInForce(tag, exchange, product, tdate)
	if !ok {
		return "", fmt.Errorf("metadata: no rollover chain for %s.%s (tag %s)", exchange, product, tag)
	}
	return ev.RawCode, nil
}

// GetPrevRawCode resolves the raw contract that was in force immediately
// before the current one (used by the rollover auto-clear guard to know
// which leg to close, per S5).
func (h *HotManager) GetPrevRawCode(exchange, product string, tdate uint32) (string, bool) {
	key := hotKey("HOT", exchange, product)
	events := h.events[key]
	idx := -1
	for i, e := range events {
		if e.Date <= tdate {
			idx = i
		}
	}
	if idx <= 0 {
		return "", false
	}
	return events[idx-1].RawCode, true
}

// GetRuleFactor returns the cumulative rollover price-continuity factor in
// force under tag as of tdate for the full product id fullPid
// ("exchange.product").
func (h *HotManager) GetRuleFactor(tag, fullPid string, tdate uint32) (float64, error) {
	exchange, product, err := splitPid(fullPid)
	if err != nil {
		return 1.0, err
	}
	ev, ok := h.eventInForce(tag, exchange, product, tdate)
	if !ok {
		return 1.0, nil
	}
	return ev.ChainFactor, nil
}

// HasRolledOver reports whether the hot contract changed exactly on
// tdate, i.e. there is a rollover event dated tdate itself (not merely in
// force as of tdate).
func (h *HotManager) HasRolledOver(exchange, product string, tdate uint32) bool {
	key := hotKey("HOT", exchange, product)
	for _, e := range h.events[key] {
		if e.Date == tdate {
			return true
		}
	}
	return false
}

func (h *HotManager) eventInForce(tag, exchange, product string, tdate uint32) (rolloverEvent, bool) {
	key := hotKey(tag, exchange, product)
	events := h.events[key]
	var best rolloverEvent
	found := false
	for _, e := range events {
		if e.Date <= tdate {
			best = e
			found = true
		}
	}
	return best, found
}

func splitPid(fullPid string) (exchange, product string, err error) {
	for i := 0; i < len(fullPid); i++ {
		if fullPid[i] == '.' {
			return fullPid[:i], fullPid[i+1:], nil
		}
	}
	return "", "", fmt.Errorf("metadata: malformed product id %q", fullPid)
}
