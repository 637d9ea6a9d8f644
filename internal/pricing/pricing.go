package pricing

import (
	"github.com/shopspring/decimal"
)

// Quote is the priced view of one product position.
type Quote struct {
	Price              decimal.Decimal
	Discount           int
	PriceAfterDiscount decimal.Decimal
	LineTotal          decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// QuoteLine prices a quantity of one product. The discount is a whole
// percentage taken off the unit price before multiplying by quantity.
// No rounding is applied here; presentation layers round for display.
func QuoteLine(price decimal.Decimal, discountPercent int, qty int) Quote {
	d := clampDiscount(discountPercent)
	unit := price
	if d > 0 {
		factor := decimal.NewFromInt(1).Sub(decimal.NewFromInt(int64(d)).Div(hundred))
		unit = price.Mul(factor)
	}
	return Quote{
		Price:              price,
		Discount:           d,
		PriceAfterDiscount: unit,
		LineTotal:          unit.Mul(decimal.NewFromInt(int64(qty))),
	}
}

func clampDiscount(d int) int {
	if d < 0 {
		return 0
	}
	if d > 100 {
		return 100
	}
	return d
}
