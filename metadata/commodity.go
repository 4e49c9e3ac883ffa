package metadata

// FeeTemplate is a commodity's fee schedule (spec §4.5/§4.7).
type FeeTemplate struct {
	Name        string
	Open        float64
	Close       float64
	CloseToday  float64
	ByVolume    bool
	MarginRate  float64
}

// FeeKind selects which rate within a FeeTemplate applies to a fill.
type FeeKind int

const (
	FeeOpen FeeKind = iota
	FeeClose
	FeeCloseToday
)

// Rate returns the rate for kind.
func (t *FeeTemplate) Rate(kind FeeKind) float64 {
	switch kind {
	case FeeOpen:
		return t.Open
	case FeeCloseToday:
		return t.CloseToday
	default:
		return t.Close
	}
}

// Calc computes the fee for a fill of qty at price, per spec §4.5:
// by_volume=true charges rate·qty; otherwise rate·price·qty·multiplier.
// The result is not rounded; callers round it to 0.01 with
// accounting.RoundFee.
func (t *FeeTemplate) Calc(kind FeeKind, price, qty, multiplier float64) float64 {
	rate := t.Rate(kind)
	if t.ByVolume {
		return rate * qty
	}
	return rate * price * qty * multiplier
}

// CommodityInfo is the per-product contract specification (spec §4.7).
type CommodityInfo struct {
	Exchange    string
	Product     string
	Multiplier  float64
	PriceTick   float64
	MarginRate  float64
	FeeTemplate *FeeTemplate
	IsT1        bool
	CanShort    bool
	SessionID   string
	IsStock     bool
}

// ContractInfo is one tradable contract (a specific delivery month) under
// a commodity.
type ContractInfo struct {
	Exchange  string
	Code      string
	Commodity string
}
