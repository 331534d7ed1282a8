package analytics

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PctChange returns the percent change from previous to current rounded to
// two places. It is nil when both are zero and 100 when only previous is zero.
func PctChange(current, previous decimal.Decimal) *float64 {
	if previous.IsZero() {
		if current.IsZero() {
			return nil
		}
		v := 100.0
		return &v
	}
	v := current.Sub(previous).Div(previous.Abs()).Mul(hundred).Round(2).InexactFloat64()
	return &v
}
