package quote

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// LineFinal is the unit price less the line discount.
func LineFinal(l ServiceLine) decimal.Decimal {
	return l.UnitPrice.Sub(l.UnitPrice.Mul(l.DiscountPercent).Div(hundred))
}

// ComputeTotals prices the lines and applies taxRatePercent to the subtotal.
// Nothing is rounded here; callers round with Totals.Rounded at the edges.
func ComputeTotals(lines []ServiceLine, taxRatePercent decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(LineFinal(l))
	}
	tax := subtotal.Mul(taxRatePercent).Div(hundred)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Subtotal is the pre-tax sum used for the estimate preview.
func Subtotal(lines []ServiceLine) decimal.Decimal {
	return ComputeTotals(lines, decimal.Zero).Subtotal
}
