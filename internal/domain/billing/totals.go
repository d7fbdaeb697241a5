package billing

import "github.com/shopspring/decimal"

// DefaultTaxRatePercent is the fixed tax rate applied to tax-applicable
// invoices unless configured otherwise.
var DefaultTaxRatePercent = decimal.NewFromInt(18)

// Totals are the derived invoice amounts. They are recomputed on demand from
// line items and never persisted redundantly.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals derives subtotal, tax and grand total from line items. All
// arithmetic happens in decimal; rounding (half-up, 2 places) is applied only
// at the subtotal/tax boundaries, never per intermediate multiplication. The
// function is pure and idempotent, and the subtotal is invariant to line
// item order.
func ComputeTotals(items []*LineItem, taxApplicable bool, taxRatePercent decimal.Decimal) Totals {
	sum := decimal.Zero
	for _, item := range items {
		sum = sum.Add(item.Amount())
	}

	subtotal := sum.Round(2)
	tax := decimal.Zero
	if taxApplicable {
		tax = subtotal.Mul(taxRatePercent.Div(oneHundred)).Round(2)
	}

	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}
