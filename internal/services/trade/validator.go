// Package trade implements buy order validation and execution.
package trade

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jcalder/brokerd/internal/common"
)

// tolerancePct is the allowed deviation of a submitted price from the
// current market price, on both sides.
var tolerancePct = decimal.NewFromFloat(0.02)

// ToleranceBounds is the inclusive acceptable price band around a market
// price.
type ToleranceBounds struct {
	Lower decimal.Decimal
	Upper decimal.Decimal
}

// Bounds computes the inclusive ±2% band around marketPrice.
func Bounds(marketPrice float64) ToleranceBounds {
	market := decimal.NewFromFloat(marketPrice)
	delta := market.Mul(tolerancePct)
	return ToleranceBounds{
		Lower: market.Sub(delta),
		Upper: market.Add(delta),
	}
}

// ValidatePrice checks a submitted price against the market price. Boundary
// values are accepted; the comparison is exact decimal arithmetic, so float
// artifacts in intermediate math cannot flip a boundary decision.
func ValidatePrice(submitted, marketPrice float64) error {
	bounds := Bounds(marketPrice)
	price := decimal.NewFromFloat(submitted)

	if price.LessThan(bounds.Lower) || price.GreaterThan(bounds.Upper) {
		return common.NewPriceOutOfRange(
			fmt.Sprintf("price %s is outside the allowed range [%s, %s]",
				price.StringFixed(2), bounds.Lower.StringFixed(2), bounds.Upper.StringFixed(2)),
		).WithDetails(map[string]interface{}{
			"providedPrice": submitted,
			"currentPrice":  marketPrice,
			"allowedRange": map[string]interface{}{
				"lower": bounds.Lower.InexactFloat64(),
				"upper": bounds.Upper.InexactFloat64(),
			},
		})
	}
	return nil
}
