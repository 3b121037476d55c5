/*
settlement.go - Final payable amounts and tax breakdown

PURPOSE:
  Turns a locked (or campaign-close) unit price and the actually realized
  area into the amount the farmer owes, then layers consumption tax on top.

ROUNDING CONTRACT:
  FinalAmount rounds the product half-away-from-zero, same as every price
  in this package. Tax rounds only the tax term; the inclusive amount is
  the exact sum of the input and the rounded tax, so it inherits no rounding
  error beyond that one term.
*/
package pricing

import (
	"github.com/shopspring/decimal"
)

// DefaultTaxRatePercent is the consumption tax rate applied to settlements
// unless the campaign's terms say otherwise.
var DefaultTaxRatePercent = decimal.NewFromInt(10)

var hundred = decimal.NewFromInt(100)

// FinalAmount computes the payable amount for a realized work report:
// round(unitPrice * actualArea), half away from zero.
//
// Fails with an InputError when either argument is negative.
func FinalAmount(unitPrice, actualArea decimal.Decimal) (decimal.Decimal, error) {
	if unitPrice.IsNegative() {
		return decimal.Zero, &InputError{Arg: "unit_price", Reason: "unit price must be non-negative"}
	}
	if actualArea.IsNegative() {
		return decimal.Zero, &InputError{Arg: "actual_area", Reason: "area must be non-negative"}
	}
	return roundPrice(unitPrice.Mul(actualArea)), nil
}

// Tax computes the tax breakdown on top of an ex-tax amount.
// TaxAmount = round(amountExTax * ratePercent / 100); the division by 100
// is an exact exponent shift, so the only rounding is the final one.
func Tax(amountExTax, ratePercent decimal.Decimal) (TaxBreakdown, error) {
	if amountExTax.IsNegative() {
		return TaxBreakdown{}, &InputError{Arg: "amount_ex_tax", Reason: "amount must be non-negative"}
	}
	if ratePercent.IsNegative() || ratePercent.GreaterThan(hundred) {
		return TaxBreakdown{}, &InputError{Arg: "rate_percent", Reason: "tax rate out of range"}
	}

	tax := roundPrice(amountExTax.Mul(ratePercent).Shift(-2))
	return TaxBreakdown{
		AmountExTax:     amountExTax,
		TaxAmount:       tax,
		AmountInclusive: amountExTax.Add(tax),
		RatePercent:     ratePercent,
	}, nil
}
