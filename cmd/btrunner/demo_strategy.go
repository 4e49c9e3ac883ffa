package main

// demoParams pulls the handful of knobs the bundled demo strategies use
// out of a StrategySpec.Params map, defaulting sensibly when absent —
// concrete strategy configuration is a collaborator concern (spec §1),
// so this is intentionally the simplest thing that exercises the wiring.
type demoParams struct {
	codes []string
	fast  int
	slow  int
	qty   float64
}

func parseDemoParams(raw map[string]interface{}) demoParams {
	p := demoParams{fast: 5, slow: 20, qty: 1}
	if raw == nil {
		return p
	}
	if v, ok := raw["codes"].([]interface{}); ok {
		for _, c := range v {
			if s, ok := c.(string); ok {
				p.codes = append(p.codes, s)
			}
		}
	}
	if v, ok := numParam(raw, "fast"); ok {
		p.fast = int(v)
	}
	if v, ok := numParam(raw, "slow"); ok {
		p.slow = int(v)
	}
	if v, ok := numParam(raw, "qty"); ok {
		p.qty = v
	}
	return p
}

func numParam(raw map[string]interface{}, key string) (float64, bool) {
	v, ok := raw[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

// closeHistory holds one code's recent closes for the bundled CTA demo
// strategy, which targets long while the fast simple moving average is
// above the slow one and short otherwise. On a commodity with
// can_short=false the CTA context rejects the short target and the
// position is left unchanged. One instance is kept per code.
type closeHistory struct {
	closes []float64
}

func (h *closeHistory) push(px float64, max int) {
	h.closes = append(h.closes, px)
	if len(h.closes) > max {
		h.closes = h.closes[len(h.closes)-max:]
	}
}

func sma(closes []float64, n int) (float64, bool) {
	if len(closes) < n {
		return 0, false
	}
	var sum float64
	for _, c := range closes[len(closes)-n:] {
		sum += c
	}
	return sum / float64(n), true
}

// crossSignal returns the target direction given the fast/slow SMA pair
// (+1 long when the fast average is above the slow one, -1 short
// otherwise), or ok=false while there isn't enough history yet to decide.
func crossSignal(closes []float64, fast, slow int) (dir float64, ok bool) {
	fastAvg, fok := sma(closes, fast)
	slowAvg, sok := sma(closes, slow)
	if !fok || !sok {
		return 0, false
	}
	if fastAvg > slowAvg {
		return 1, true
	}
	return -1, true
}
