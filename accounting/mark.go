package accounting

// MarkTick marks code's open lots to market at price/curTime, grounded on
// WtEngine's per-tick dynprofit task plus update_fund_dynprofit: each
// lot's running Profit and high/low watermarks are refreshed, the
// position's DynProfit is rebuilt as their sum, and the fund-level
// DynProfit is the sum across all positions. No-op if code has never
// been traded; a flat position gets DynProfit 0 and the fund-level
// DynProfit and watermarks are still refreshed.
func (b *Book) MarkTick(code string, price float64, curTime uint64) {
	pos, ok := b.positions[code]
	if !ok {
		return
	}
	if decEq(pos.Volume, 0) {
		pos.DynProfit = 0
	} else {
		comm, err := b.commodityFor(code)
		if err != nil {
			return
		}
		var dyn float64
		for i := range pos.Details {
			d := &pos.Details[i]
			sign := 1.0
			if !d.Long {
				sign = -1.0
			}
			profit := d.Volume * (price - d.Price) * comm.Multiplier * sign
			d.Profit = profit
			if profit > d.MaxProfit {
				d.MaxProfit = profit
			}
			if profit < d.MaxLoss {
				d.MaxLoss = profit
			}
			dyn += profit
		}
		pos.DynProfit = dyn
	}
	b.refreshFundDynProfit(curTime)
}

func (b *Book) refreshFundDynProfit(curTime uint64) {
	var total float64
	for _, pos := range b.positions {
		total += pos.DynProfit
	}
	b.fund.DynProfit = total

	dynBal := b.fund.Balance + total
	if b.fund.MaxDynBalance == 0 || dynBal > b.fund.MaxDynBalance {
		b.fund.MaxDynBalance = dynBal
		b.fund.MaxTime = curTime
	}
	if b.fund.MinDynBalance == 0 || dynBal < b.fund.MinDynBalance {
		b.fund.MinDynBalance = dynBal
		b.fund.MinTime = curTime
	}
}

// OnSessionBegin resets per-day accounting state ahead of tdate's
// trading: frozen quantities clear, the previous day's balance becomes
// this day's PreBalance, and the intraday watermarks are cleared to 0 so
// the next MarkTick re-seeds them from the dynamic equity at that time
// (spec §4.5 "on_session_begin").
func (b *Book) OnSessionBegin(tdate uint32) {
	for _, pos := range b.positions {
		pos.Frozen = 0
	}
	b.fund.PreBalance = b.fund.Balance
	b.fund.PreDynBalance = b.fund.DynamicEquity()
	b.fund.MaxDynBalance = 0
	b.fund.MinDynBalance = 0
	b.fund.LastDate = tdate
}

// FundsRow is one row to append to funds.csv at session end (spec §4.8).
type FundsRow struct {
	Date               uint32
	PreDynBalance      float64
	PreBalance         float64
	Balance            float64
	CloseProfit        float64
	PositionProfit     float64
	Fee                float64
	MaxDynBalance      float64
	MaxTime            uint64
	MinDynBalance      float64
	MinTime            uint64
	MdMaxBalance       float64
	MdMaxDate          uint32
	MdMinBalance       float64
	MdMinDate          uint32
}

// OnSessionEnd finalizes tdate's accounting, updating cross-day
// watermarks and returning the funds.csv row for this session.
func (b *Book) OnSessionEnd(tdate uint32) FundsRow {
	var closeProfit float64
	for _, pos := range b.positions {
		closeProfit += pos.CloseProfit
	}

	dynBal := b.fund.DynamicEquity()
	if b.fund.MaxMarkDownDate == 0 || dynBal > b.fund.MaxMarkDownBalance {
		b.fund.MaxMarkDownBalance = dynBal
		b.fund.MaxMarkDownDate = tdate
	}
	if b.fund.MinMarkDownDate == 0 || dynBal < b.fund.MinMarkDownBalance {
		b.fund.MinMarkDownBalance = dynBal
		b.fund.MinMarkDownDate = tdate
	}

	return FundsRow{
		Date: tdate, PreDynBalance: b.fund.PreDynBalance, PreBalance: b.fund.PreBalance,
		Balance: b.fund.Balance, CloseProfit: closeProfit, PositionProfit: b.fund.DynProfit,
		Fee: b.fund.Fees, MaxDynBalance: b.fund.MaxDynBalance, MaxTime: b.fund.MaxTime,
		MinDynBalance: b.fund.MinDynBalance, MinTime: b.fund.MinTime,
		MdMaxBalance: b.fund.MaxMarkDownBalance, MdMaxDate: b.fund.MaxMarkDownDate,
		MdMinBalance: b.fund.MinMarkDownBalance, MdMinDate: b.fund.MinMarkDownDate,
	}
}
