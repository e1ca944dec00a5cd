package pms

import "github.com/shopspring/decimal"

// =============================================================================
// TAX - Per-charge tax computation
// =============================================================================

var hundred = decimal.NewFromInt(100)

// ComputeTax applies the property's combined CGST+SGST rate to a pre-tax
// amount. Returns (tax, total) with tax rounded to 2 decimals, half-up.
//
// IGST, service charge and luxury tax are present in TaxConfig but are
// NOT folded in here; room and addon charges only ever carried GST.
func ComputeTax(amount decimal.Decimal, cfg TaxConfig) (tax, total decimal.Decimal) {
	rate := cfg.CGSTPercent.Add(cfg.SGSTPercent)
	tax = RoundMoney(amount.Mul(rate).Div(hundred))
	return tax, amount.Add(tax)
}

// CombinedGSTPercent returns the rate that actually feeds charge tax.
func (c TaxConfig) CombinedGSTPercent() decimal.Decimal {
	return c.CGSTPercent.Add(c.SGSTPercent)
}
