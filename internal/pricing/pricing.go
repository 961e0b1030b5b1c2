// Package pricing computes checkout totals. It is pure arithmetic: no I/O,
// no validation beyond clamping. Callers validate quantities and prices
// before asking for a quote.
package pricing

import "github.com/shopspring/decimal"

// Line is one cart entry priced at sale time.
type Line struct {
	ProductID int64
	UnitPrice float64
	Quantity  int64
}

// Totals carries full-precision amounts. Round only when presenting.
type Totals struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
	Change   decimal.Decimal
}

// Quote computes subtotal, applied discount, tax, total and change for a
// cart. The discount is an absolute amount and is capped at the subtotal;
// the taxable base is floored at zero. Change may be negative when the
// customer underpaid.
func Quote(lines []Line, discount, taxRate, paid float64) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(decimal.NewFromFloat(l.UnitPrice).Mul(decimal.NewFromInt(l.Quantity)))
	}

	applied := decimal.NewFromFloat(discount)
	if applied.GreaterThan(subtotal) {
		applied = subtotal
	}
	base := subtotal.Sub(applied)
	if base.IsNegative() {
		base = decimal.Zero
	}
	tax := base.Mul(decimal.NewFromFloat(taxRate))
	total := subtotal.Sub(applied).Add(tax)
	change := decimal.NewFromFloat(paid).Sub(total)

	return Totals{Subtotal: subtotal, Discount: applied, Tax: tax, Total: total, Change: change}
}

// Round2 returns the amount rounded to two decimal places for display and
// persistence at the API boundary.
func Round2(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
