package matching

// Sink is the callback contract the matching Engine drives (spec §4.4,
// grounded on MatchEngine::IMatchSink). All three calls happen
// synchronously from within Buy/Sell/Cancel/HandleTick — callers must not
// block or re-enter the engine from inside a callback.
type Sink interface {
	// HandleTrade reports one fill. vol is always positive; isBuy
	// disambiguates direction. firePrice is the market price recorded
	// when the order was submitted (OrderInfo.Price), price is the fill
	// price.
	HandleTrade(localID uint64, code string, isBuy bool, vol, firePrice, price float64, ordTime uint64)
	// HandleOrder reports a state change: activation, partial fill
	// (leftover > 0, canceled=false), full fill (leftover==0), or
	// cancellation (canceled=true).
	HandleOrder(localID uint64, code string, isBuy bool, leftover, price float64, canceled bool, ordTime uint64)
	// HandleEntrust reports whether an order was accepted into the book.
	HandleEntrust(localID uint64, code string, success bool, message string, ordTime uint64)
}
