package accounting

import "github.com/shopspring/decimal"

// RoundFee rounds a computed fee to 0.01, per spec §4.5, using
// shopspring/decimal for exact decimal rounding instead of float
// arithmetic that can misround at the cent boundary.
func RoundFee(fee float64) float64 {
	v, _ := decimal.NewFromFloat(fee).Round(2).Float64()
	return v
}
