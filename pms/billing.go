/*
billing.go - Bill, Folio, Charge, Payment and derived totals

PURPOSE:
  The per-reservation financial records. A Bill is created lazily on the
  first charge and holds an ordered list of named Folios (sub-ledgers)
  plus a flat list of Charges. Payments live in their own append-only
  collection keyed by reservation.

CRITICAL INVARIANTS:
  1. At most one ROOM charge per (bill, night). Re-posting a night is a
     no-op, never a duplicate.
  2. Payments are append-only. No Update, No Delete. Ever.
  3. Totals are always recomputed from the records; balanceDue is
     round(grandTotal - paymentsTotal, 2), half-up.

SEE ALSO:
  - tax.go:           per-charge tax computation
  - ledger package:   the operations that mutate these records
*/
package pms

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultFolioName is the folio used when the caller names none.
const DefaultFolioName = "Primary"

// MetaNightDate is the charge metadata key carrying the calendar night a
// ROOM charge represents.
const MetaNightDate = "nightDate"

// =============================================================================
// CHARGE - A single billable line item
// =============================================================================

type ChargeType string

const (
	ChargeRoom       ChargeType = "ROOM"
	ChargeAddon      ChargeType = "ADDON"
	ChargeAdjustment ChargeType = "ADJUSTMENT"
)

type Charge struct {
	ID          ChargeID
	FolioID     FolioID
	Type        ChargeType
	Description string
	Amount      decimal.Decimal // pre-tax
	TaxAmount   decimal.Decimal
	TotalAmount decimal.Decimal // Amount + TaxAmount
	PostedAt    time.Time
	Metadata    map[string]string
}

// NightDate returns the calendar night a ROOM charge represents.
func (c Charge) NightDate() (Date, bool) {
	s, ok := c.Metadata[MetaNightDate]
	if !ok {
		return Date{}, false
	}
	d, err := ParseDate(s)
	if err != nil {
		return Date{}, false
	}
	return d, true
}

// =============================================================================
// FOLIO / BILL
// =============================================================================

// Folio is a named sub-ledger within a bill, e.g. split billing between a
// company and a guest. Folios are auto-created on first reference.
type Folio struct {
	ID        FolioID
	Name      string
	CreatedAt time.Time
}

type Bill struct {
	ID            BillID
	ReservationID ReservationID
	Currency      string
	Folios        []Folio
	Charges       []Charge
	CreatedAt     time.Time
}

// FolioByName returns the folio with the given name, if present.
func (b *Bill) FolioByName(name string) (*Folio, bool) {
	for i := range b.Folios {
		if b.Folios[i].Name == name {
			return &b.Folios[i], true
		}
	}
	return nil, false
}

// FolioByID returns the folio with the given id, if present.
func (b *Bill) FolioByID(id FolioID) (*Folio, bool) {
	for i := range b.Folios {
		if b.Folios[i].ID == id {
			return &b.Folios[i], true
		}
	}
	return nil, false
}

// HasRoomNight reports whether a ROOM charge for the night already exists.
func (b *Bill) HasRoomNight(night Date) bool {
	for _, c := range b.Charges {
		if c.Type != ChargeRoom {
			continue
		}
		if d, ok := c.NightDate(); ok && d.Equal(night) {
			return true
		}
	}
	return false
}

// =============================================================================
// PAYMENT - Append-only settlement records
// =============================================================================

type PaymentMode string

const (
	PayCash         PaymentMode = "CASH"
	PayCard         PaymentMode = "CARD"
	PayUPI          PaymentMode = "UPI"
	PayBankTransfer PaymentMode = "BANK_TRANSFER"
	PayCredit       PaymentMode = "CREDIT"
	PayOther        PaymentMode = "OTHER"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case PayCash, PayCard, PayUPI, PayBankTransfer, PayCredit, PayOther:
		return true
	}
	return false
}

type Payment struct {
	ID            PaymentID
	ReservationID ReservationID
	FolioID       FolioID
	Amount        decimal.Decimal
	Currency      string
	Mode          PaymentMode
	Reference     string // external reference, e.g. card auth code
	ReceivedAt    time.Time
}

// =============================================================================
// DERIVED TOTALS - Never stored, always recomputed
// =============================================================================

type BillTotals struct {
	SubTotal      decimal.Decimal
	TaxTotal      decimal.Decimal
	GrandTotal    decimal.Decimal
	PaymentsTotal decimal.Decimal
	BalanceDue    decimal.Decimal
}

// ComputeTotals replays the bill's charges and the reservation's payments.
// A nil bill means no charges were ever posted; totals are zero minus any
// payments (overpayment shows as negative balance).
func ComputeTotals(bill *Bill, payments []Payment) BillTotals {
	totals := BillTotals{
		SubTotal:      decimal.Zero,
		TaxTotal:      decimal.Zero,
		GrandTotal:    decimal.Zero,
		PaymentsTotal: decimal.Zero,
	}
	if bill != nil {
		for _, c := range bill.Charges {
			totals.SubTotal = totals.SubTotal.Add(c.Amount)
			totals.TaxTotal = totals.TaxTotal.Add(c.TaxAmount)
			totals.GrandTotal = totals.GrandTotal.Add(c.TotalAmount)
		}
	}
	for _, p := range payments {
		totals.PaymentsTotal = totals.PaymentsTotal.Add(p.Amount)
	}
	totals.BalanceDue = RoundMoney(totals.GrandTotal.Sub(totals.PaymentsTotal))
	return totals
}

// SnapshotFromBill rebuilds the reservation's embedded billing summary
// from the full bill and payment history. This is the single point that
// keeps the denormalized snapshot consistent with the ledger.
func SnapshotFromBill(bill *Bill, payments []Payment, currency string) BillingSnapshot {
	totals := ComputeTotals(bill, payments)
	snapshot := BillingSnapshot{
		Currency:    currency,
		TotalAmount: totals.GrandTotal,
		BalanceDue:  totals.BalanceDue,
	}
	if bill != nil {
		snapshot.Charges = make([]SnapshotCharge, 0, len(bill.Charges))
		for _, c := range bill.Charges {
			snapshot.Charges = append(snapshot.Charges, SnapshotCharge{
				Description: c.Description,
				Amount:      c.TotalAmount,
			})
		}
		if bill.Currency != "" {
			snapshot.Currency = bill.Currency
		}
	}
	return snapshot
}

// RoundMoney rounds to currency precision: 2 decimals, half-up.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
