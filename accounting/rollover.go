package accounting

import "quantreplay/metadata"

// RolloverGuard auto-clears a continuous-contract position when the
// configured main-contract has rolled, per spec §4.5's last paragraph:
// if the hot contract for (exchange, product) changed on tdate, and the
// instrument is covered by the include/exclude policy, the previous
// leg's position is closed to zero before any new trade on the new leg
// is accepted.
type RolloverGuard struct {
	hot      *metadata.HotManager
	includes map[string]bool // empty includes means "all", per spec "in includes"
	excludes map[string]bool
}

// NewRolloverGuard builds a guard driven by hot, restricted to includes
// (nil/empty = all contracts watched) minus excludes.
func NewRolloverGuard(hot *metadata.HotManager, includes, excludes []string) *RolloverGuard {
	g := &RolloverGuard{hot: hot, includes: toSet(includes), excludes: toSet(excludes)}
	return g
}

func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}

func (g *RolloverGuard) covers(product string) bool {
	if g.excludes != nil && g.excludes[product] {
		return false
	}
	if g.includes == nil {
		return true
	}
	return g.includes[product]
}

// CloseToZero is invoked by RolloverGuard.Apply with the previous leg's
// code when it needs to be flattened.
type CloseToZero func(prevCode string, curPx float64, curTime uint64, curTDate uint32)

// Apply checks whether (exchange, product) rolled exactly on tdate and,
// if covered by policy, invokes closeFn against the previous raw code.
// No-op if the product is not covered, has not rolled today, or has no
// known previous leg.
func (g *RolloverGuard) Apply(exchange, product string, tdate uint32, curPx float64, curTime uint64, closeFn CloseToZero) {
	if !g.covers(product) {
		return
	}
	if !g.hot.HasRolledOver(exchange, product, tdate) {
		return
	}
	prevRaw, ok := g.hot.GetPrevRawCode(exchange, product, tdate)
	if !ok {
		return
	}
	closeFn(exchange+"."+prevRaw, curPx, curTime, tdate)
}
