package matching

import "github.com/shopspring/decimal"

// comparePlaces mirrors the original engine's decimal::eq/le/ge helpers,
// which compare floats after rounding away binary representation noise
// rather than using a raw == . shopspring/decimal gives us exact decimal
// rounding instead of an ad hoc epsilon.
const comparePlaces = 8

func round(x float64) decimal.Decimal {
	return decimal.NewFromFloat(x).Round(comparePlaces)
}

func decEq(a, b float64) bool { return round(a).Equal(round(b)) }
func decLe(a, b float64) bool { return round(a).LessThanOrEqual(round(b)) }
func decGe(a, b float64) bool { return round(a).GreaterThanOrEqual(round(b)) }
