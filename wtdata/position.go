package wtdata

// DetailInfo is one FIFO lot within a PosInfo. Lots are consumed strictly
// in the order they were opened.
type DetailInfo struct {
	Long      bool
	Price     float64
	Volume    float64
	OpenTime  uint64
	OpenTDate uint32
	MaxProfit float64
	MaxLoss   float64
	Profit    float64
	UserTag   string
	OpenBarNo uint32
}

// PosInfo is the per-instrument position record. Invariant: Volume equals
// the signed sum of Details' volumes (positive for long lots, negative for
// short); Frozen never exceeds Volume for T+1 instruments and is reset at
// session begin.
type PosInfo struct {
	Code        string
	Volume      float64
	CloseProfit float64
	DynProfit   float64
	Frozen      float64
	Details     []DetailInfo
}

// SignedVolume recomputes Σ sign(d.Long)·d.Volume over Details, used to
// check the FIFO/volume invariant independently of the cached Volume
// field.
func (p *PosInfo) SignedVolume() float64 {
	var total float64
	for _, d := range p.Details {
		if d.Long {
			total += d.Volume
		} else {
			total -= d.Volume
		}
	}
	return total
}

// FundInfo is the account-level fund/equity record. Balance is realised
// equity; Balance+DynProfit is dynamic (mark-to-market) equity.
type FundInfo struct {
	PreDynBalance float64
	Balance       float64
	PreBalance    float64
	Profit        float64
	DynProfit     float64
	Fees          float64

	MaxDynBalance float64
	MinDynBalance float64
	MaxTime       uint64
	MinTime       uint64

	MaxMarkDownBalance float64
	MaxMarkDownDate    uint32
	MinMarkDownBalance float64
	MinMarkDownDate    uint32

	LastDate   uint32
	UpdateTime uint64
}

// DynamicEquity returns Balance + DynProfit.
func (f *FundInfo) DynamicEquity() float64 {
	return f.Balance + f.DynProfit
}
