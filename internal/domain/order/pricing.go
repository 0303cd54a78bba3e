package order

import "github.com/shopspring/decimal"

// TaxRate is the flat sales tax applied uniformly to every order.
var TaxRate = decimal.RequireFromString("0.10")

// Totals holds the computed monetary breakdown of an order.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals is the pricing calculator: subtotal = Σ(price × qty),
// tax = subtotal × TaxRate, total = subtotal + tax. Pure and deterministic;
// decimal arithmetic keeps long carts free of float accumulation error.
// Each figure is rounded to 2 decimal places after the full sum.
func ComputeTotals(lines []Line) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	tax := subtotal.Mul(TaxRate)

	return Totals{
		Subtotal: subtotal.Round(2),
		Tax:      tax.Round(2),
		Total:    subtotal.Add(tax).Round(2),
	}
}
