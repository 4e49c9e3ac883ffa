package wtdata

// BookDepth is the number of price levels carried on each side of a Tick.
const BookDepth = 10

// Tick is a best-price/book snapshot at one instant. ActionTime is
// HHMMSSmmm; ActionDate and TradingDate can differ for night sessions that
// roll into the next calendar day but belong to the prior trading day.
type Tick struct {
	Exchg   string
	Code    string
	Price   float64
	Open    float64
	High    float64
	Low     float64
	PreClose    float64
	PreSettle   float64
	PreInterest float64
	UpperLimit  float64
	LowerLimit  float64

	TotalVolume  float64
	Volume       float64
	SettlePrice  float64
	OpenInterest float64
	DiffInterest float64
	TotalTurnover float64
	Turnover      float64

	TradingDate uint32
	ActionDate  uint32
	ActionTime  uint32

	BidPrices [BookDepth]float64
	AskPrices [BookDepth]float64
	BidQty    [BookDepth]float64
	AskQty    [BookDepth]float64
}

// BidPrice returns the bid price at the given depth level (0 = best bid),
// or 0 if level is out of range.
func (t *Tick) BidPrice(level int) float64 {
	if level < 0 || level >= BookDepth {
		return 0
	}
	return t.BidPrices[level]
}

// AskPrice returns the ask price at the given depth level (0 = best ask),
// or 0 if level is out of range.
func (t *Tick) AskPrice(level int) float64 {
	if level < 0 || level >= BookDepth {
		return 0
	}
	return t.AskPrices[level]
}

// BidQtyAt returns the resting quantity at the given bid depth level.
func (t *Tick) BidQtyAt(level int) float64 {
	if level < 0 || level >= BookDepth {
		return 0
	}
	return t.BidQty[level]
}

// AskQtyAt returns the resting quantity at the given ask depth level.
func (t *Tick) AskQtyAt(level int) float64 {
	if level < 0 || level >= BookDepth {
		return 0
	}
	return t.AskQty[level]
}

// ActionTimestamp combines ActionDate and ActionTime into a single
// monotonically comparable uint64, as used for stream merge ordering.
func (t *Tick) ActionTimestamp() uint64 {
	return uint64(t.ActionDate)*1000000000 + uint64(t.ActionTime)
}

// L2Header is the common envelope carried by exchange Level-2 event types.
type L2Header struct {
	Exchg       string
	Code        string
	TradingDate uint32
	ActionDate  uint32
	ActionTime  uint32
}

// OrderQueue is an exchange order-queue (price-level depth detail) event.
type OrderQueue struct {
	L2Header
	Price    float64
	OrderItems []float64 // queued order sizes at Price, exchange order
}

// OrderDetail is an exchange order-detail (individual resting order) event.
type OrderDetail struct {
	L2Header
	Price    float64
	Volume   float64
	OrderType uint32
	Side      uint32
}

// Transaction is an exchange transaction (executed trade tape) event.
type Transaction struct {
	L2Header
	Price  float64
	Volume float64
	BSFlag uint32 // 0=unknown, 1=buy-initiated, 2=sell-initiated
	Index  uint32
}
