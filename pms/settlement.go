/*
settlement.go - Check-out settlement calculator

PURPOSE:
  A pure function computing the final billing snapshot at check-out time.
  It works from the reservation's embedded billing charges, independent of
  the ledger's folio mechanics: no I/O, no store access.

BEHAVIOR:
  1. Start from the existing snapshot charges.
  2. Late checkout appends a fee of 25% of the original total amount.
  3. Operator-supplied extra charges are appended as-is.
  4. TotalAmount is the sum of all charges.
  5. BalanceDue is set to 0 unconditionally: check-out assumes the front
     desk collects in full, or that settlement flows through the ledger's
     payment path. The snapshot's balance is NOT authoritative once folios
     and payments exist - callers surface the live ledger balance next to
     it rather than masking a discrepancy.
*/
package pms

import (
	"github.com/shopspring/decimal"
)

// LateCheckoutFeePercent of the original total is charged for a late checkout.
var LateCheckoutFeePercent = decimal.NewFromInt(25)

// ExtraCharge is an ad-hoc charge supplied by the operator at check-out.
type ExtraCharge struct {
	Description string
	Amount      decimal.Decimal
}

// Settlement is the final billing snapshot produced at check-out.
type Settlement struct {
	Charges     []SnapshotCharge
	LateFee     decimal.Decimal
	TotalAmount decimal.Decimal
	BalanceDue  decimal.Decimal // always zero, see package comment
}

// Settle computes the check-out settlement from the reservation's current
// billing snapshot. Pure function: the caller persists the result.
func Settle(billing BillingSnapshot, lateCheckout bool, extras []ExtraCharge) Settlement {
	charges := make([]SnapshotCharge, 0, len(billing.Charges)+len(extras)+1)
	charges = append(charges, billing.Charges...)

	lateFee := decimal.Zero
	if lateCheckout {
		lateFee = RoundMoney(billing.TotalAmount.Mul(LateCheckoutFeePercent).Div(hundred))
		charges = append(charges, SnapshotCharge{
			Description: "Late checkout fee",
			Amount:      lateFee,
		})
	}

	for _, extra := range extras {
		charges = append(charges, SnapshotCharge{
			Description: extra.Description,
			Amount:      extra.Amount,
		})
	}

	total := decimal.Zero
	for _, c := range charges {
		total = total.Add(c.Amount)
	}

	return Settlement{
		Charges:     charges,
		LateFee:     lateFee,
		TotalAmount: RoundMoney(total),
		BalanceDue:  decimal.Zero,
	}
}

// SnapshotFromSettlement converts a settlement into the billing snapshot
// written back onto the reservation at check-out.
func SnapshotFromSettlement(s Settlement, currency string) BillingSnapshot {
	return BillingSnapshot{
		Currency:    currency,
		TotalAmount: s.TotalAmount,
		BalanceDue:  s.BalanceDue,
		Charges:     s.Charges,
	}
}
