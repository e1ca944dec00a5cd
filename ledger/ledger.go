/*
Package ledger owns the per-reservation financial records: folios,
itemized charges, tax application and payments.

PURPOSE:
  Every billable event flows through here. Charges and payments are
  recorded against a lazily created bill; the reservation's embedded
  billing snapshot is rebuilt from the full record set after every
  mutation - that rebuild is the single synchronization point between the
  denormalized snapshot and the ledger.

CRITICAL INVARIANTS:
  1. At most one ROOM charge per (bill, night). Re-posting the same night
     is silently skipped, never duplicated.
  2. Payments are append-only.
  3. After every operation: balanceDue == round(grandTotal - paymentsTotal, 2).

SEE ALSO:
  - pms/billing.go: record types and derived totals
  - pms/tax.go:     per-charge tax computation
  - invoice.go:     read-only invoice projection
*/
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harbor/stay-engine/pms"
)

// =============================================================================
// LEDGER SERVICE
// =============================================================================

type Ledger struct {
	store pms.Store
	now   func() time.Time
}

func New(store pms.Store) *Ledger {
	return &Ledger{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the time source. Test hook.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

// FolioRef names a folio by id or by name. Zero value means the default
// folio. Named folios are auto-created on first reference; an id must
// already exist.
type FolioRef struct {
	ID   pms.FolioID
	Name string
}

// BillSummary is the read projection returned after every ledger operation.
type BillSummary struct {
	BillID   pms.BillID
	Currency string
	Folios   []pms.Folio
	Charges  []pms.Charge
	Payments []pms.Payment
	Totals   pms.BillTotals
}

// =============================================================================
// ROOM CHARGES - idempotent per night
// =============================================================================

// PostRoomChargesResult carries the summary plus only the newly added charges.
type PostRoomChargesResult struct {
	Summary BillSummary
	Added   []pms.Charge
}

// PostRoomCharges posts one ROOM charge per calendar night of the stay,
// or per night of the explicit subset. Nights that already carry a ROOM
// charge are skipped, which makes re-running (night audit, retries)
// idempotent.
func (l *Ledger) PostRoomCharges(ctx context.Context, id pms.ReservationID, nights []pms.Date, folio FolioRef) (*PostRoomChargesResult, error) {
	res, err := l.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	stay := pms.StayNights(res.ArrivalDate, res.DepartureDate)
	if len(stay) == 0 {
		return nil, pms.ErrNotOvernightStay
	}

	target := stay
	if len(nights) > 0 {
		for _, night := range nights {
			if !pms.WithinStay(night, res.ArrivalDate, res.DepartureDate) {
				return nil, &pms.NightOutsideStayError{
					Night:     night,
					Arrival:   res.ArrivalDate,
					Departure: res.DepartureDate,
				}
			}
		}
		target = nights
	}

	hotel, err := l.getHotel(ctx, res.HotelID)
	if err != nil {
		return nil, err
	}

	bill, created, err := l.getOrCreateBill(ctx, res, hotel)
	if err != nil {
		return nil, err
	}
	folioID, err := l.resolveFolio(bill, folio)
	if err != nil {
		return nil, err
	}

	var added []pms.Charge
	for _, night := range target {
		if bill.HasRoomNight(night) {
			continue
		}
		tax, total := pms.ComputeTax(res.NightlyRate, hotel.Tax)
		charge := pms.Charge{
			ID:          pms.ChargeID(pms.NewID()),
			FolioID:     folioID,
			Type:        pms.ChargeRoom,
			Description: fmt.Sprintf("Room charge - %s", night),
			Amount:      res.NightlyRate,
			TaxAmount:   tax,
			TotalAmount: total,
			PostedAt:    l.now(),
			Metadata:    map[string]string{pms.MetaNightDate: night.String()},
		}
		bill.Charges = append(bill.Charges, charge)
		added = append(added, charge)
	}

	if err := l.persistBill(ctx, bill, created); err != nil {
		return nil, err
	}
	summary, err := l.syncSnapshot(ctx, res, bill)
	if err != nil {
		return nil, err
	}
	return &PostRoomChargesResult{Summary: *summary, Added: added}, nil
}

// =============================================================================
// ADDON CHARGES
// =============================================================================

type AddonChargeInput struct {
	Description string
	Amount      decimal.Decimal // per unit, pre-tax; must be > 0
	Quantity    int             // defaults to 1
	Folio       FolioRef
	Metadata    map[string]string
}

// AddAddonChargeResult carries the summary plus the added charge.
type AddAddonChargeResult struct {
	Summary BillSummary
	Charge  pms.Charge
}

// AddAddonCharge posts an ADDON line: unit amount x quantity, taxed the
// same way room nights are.
func (l *Ledger) AddAddonCharge(ctx context.Context, id pms.ReservationID, in AddonChargeInput) (*AddAddonChargeResult, error) {
	if !in.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: got %s", pms.ErrInvalidAmount, in.Amount)
	}
	quantity := in.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	res, err := l.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	hotel, err := l.getHotel(ctx, res.HotelID)
	if err != nil {
		return nil, err
	}
	bill, created, err := l.getOrCreateBill(ctx, res, hotel)
	if err != nil {
		return nil, err
	}
	folioID, err := l.resolveFolio(bill, in.Folio)
	if err != nil {
		return nil, err
	}

	amount := pms.RoundMoney(in.Amount.Mul(decimal.NewFromInt(int64(quantity))))
	tax, total := pms.ComputeTax(amount, hotel.Tax)

	metadata := map[string]string{
		"quantity": fmt.Sprintf("%d", quantity),
		"taxRate":  hotel.Tax.CombinedGSTPercent().String(),
	}
	for k, v := range in.Metadata {
		metadata[k] = v
	}

	charge := pms.Charge{
		ID:          pms.ChargeID(pms.NewID()),
		FolioID:     folioID,
		Type:        pms.ChargeAddon,
		Description: in.Description,
		Amount:      amount,
		TaxAmount:   tax,
		TotalAmount: total,
		PostedAt:    l.now(),
		Metadata:    metadata,
	}
	bill.Charges = append(bill.Charges, charge)

	if err := l.persistBill(ctx, bill, created); err != nil {
		return nil, err
	}
	summary, err := l.syncSnapshot(ctx, res, bill)
	if err != nil {
		return nil, err
	}
	return &AddAddonChargeResult{Summary: *summary, Charge: charge}, nil
}

// =============================================================================
// SETTLE - record payments
// =============================================================================

type PaymentInput struct {
	Amount    decimal.Decimal // must be > 0
	Mode      pms.PaymentMode
	Reference string
	Folio     FolioRef
}

// SettleBillResult carries the summary plus the new payment records.
type SettleBillResult struct {
	Summary  BillSummary
	Payments []pms.Payment
}

// SettleBill records one or more payments against the reservation. Each
// payment becomes an immutable record; validation happens before any
// write.
func (l *Ledger) SettleBill(ctx context.Context, id pms.ReservationID, payments []PaymentInput) (*SettleBillResult, error) {
	if len(payments) == 0 {
		return nil, pms.ErrEmptyPaymentList
	}
	for _, p := range payments {
		if !p.Amount.IsPositive() {
			return nil, fmt.Errorf("%w: got %s", pms.ErrInvalidAmount, p.Amount)
		}
		if p.Mode != "" && !p.Mode.Valid() {
			return nil, fmt.Errorf("invalid payment mode %q", p.Mode)
		}
	}

	res, err := l.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	hotel, err := l.getHotel(ctx, res.HotelID)
	if err != nil {
		return nil, err
	}
	bill, created, err := l.getOrCreateBill(ctx, res, hotel)
	if err != nil {
		return nil, err
	}

	var recorded []pms.Payment
	for _, in := range payments {
		folioID, err := l.resolveFolio(bill, in.Folio)
		if err != nil {
			return nil, err
		}
		mode := in.Mode
		if mode == "" {
			mode = pms.PayOther
		}
		payment := pms.Payment{
			ID:            pms.PaymentID(pms.NewID()),
			ReservationID: id,
			FolioID:       folioID,
			Amount:        in.Amount,
			Currency:      bill.Currency,
			Mode:          mode,
			Reference:     in.Reference,
			ReceivedAt:    l.now(),
		}
		if err := l.store.AppendPayment(ctx, payment); err != nil {
			return nil, err
		}
		recorded = append(recorded, payment)
	}

	if err := l.persistBill(ctx, bill, created); err != nil {
		return nil, err
	}
	summary, err := l.syncSnapshot(ctx, res, bill)
	if err != nil {
		return nil, err
	}
	return &SettleBillResult{Summary: *summary, Payments: recorded}, nil
}

// =============================================================================
// READ PROJECTIONS
// =============================================================================

// GetBillSummary is read-only: a reservation with no bill yet yields an
// empty summary with zero totals, not an error.
func (l *Ledger) GetBillSummary(ctx context.Context, id pms.ReservationID) (*BillSummary, error) {
	res, err := l.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	bill, err := l.store.GetBillByReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := l.store.ListPayments(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.buildSummary(res, bill, payments), nil
}

func (l *Ledger) buildSummary(res *pms.Reservation, bill *pms.Bill, payments []pms.Payment) *BillSummary {
	summary := &BillSummary{
		Currency: res.Billing.Currency,
		Payments: payments,
		Totals:   pms.ComputeTotals(bill, payments),
	}
	if bill != nil {
		summary.BillID = bill.ID
		summary.Currency = bill.Currency
		summary.Folios = bill.Folios
		summary.Charges = bill.Charges
	}
	return summary
}

// =============================================================================
// INTERNAL HELPERS
// =============================================================================

func (l *Ledger) getReservation(ctx context.Context, id pms.ReservationID) (*pms.Reservation, error) {
	res, err := l.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &pms.NotFoundError{Kind: "reservation", ID: string(id)}
	}
	return res, nil
}

func (l *Ledger) getHotel(ctx context.Context, id pms.HotelID) (*pms.Hotel, error) {
	hotel, err := l.store.GetHotel(ctx, id)
	if err != nil {
		return nil, err
	}
	if hotel == nil {
		return nil, &pms.NotFoundError{Kind: "hotel", ID: string(id)}
	}
	return hotel, nil
}

// getOrCreateBill returns the reservation's bill, creating it in memory
// (with a default folio) on first charge. The created flag tells
// persistBill whether to insert or overwrite.
func (l *Ledger) getOrCreateBill(ctx context.Context, res *pms.Reservation, hotel *pms.Hotel) (*pms.Bill, bool, error) {
	bill, err := l.store.GetBillByReservation(ctx, res.ID)
	if err != nil {
		return nil, false, err
	}
	if bill != nil {
		return bill, false, nil
	}
	now := l.now()
	bill = &pms.Bill{
		ID:            pms.BillID(pms.NewID()),
		ReservationID: res.ID,
		Currency:      hotel.Currency,
		Folios: []pms.Folio{
			{ID: pms.FolioID(pms.NewID()), Name: pms.DefaultFolioName, CreatedAt: now},
		},
		CreatedAt: now,
	}
	return bill, true, nil
}

func (l *Ledger) persistBill(ctx context.Context, bill *pms.Bill, created bool) error {
	if created {
		return l.store.SaveBill(ctx, *bill)
	}
	return l.store.UpdateBill(ctx, *bill)
}

// resolveFolio finds the referenced folio, auto-creating named folios.
func (l *Ledger) resolveFolio(bill *pms.Bill, ref FolioRef) (pms.FolioID, error) {
	if ref.ID != "" {
		if folio, ok := bill.FolioByID(ref.ID); ok {
			return folio.ID, nil
		}
		return "", &pms.NotFoundError{Kind: "folio", ID: string(ref.ID)}
	}
	name := ref.Name
	if name == "" {
		name = pms.DefaultFolioName
	}
	if folio, ok := bill.FolioByName(name); ok {
		return folio.ID, nil
	}
	folio := pms.Folio{ID: pms.FolioID(pms.NewID()), Name: name, CreatedAt: l.now()}
	bill.Folios = append(bill.Folios, folio)
	return folio.ID, nil
}

// syncSnapshot rebuilds the reservation's embedded billing snapshot from
// the full bill and payment history and writes it back. The single point
// keeping reservation.Billing consistent with the ledger.
func (l *Ledger) syncSnapshot(ctx context.Context, res *pms.Reservation, bill *pms.Bill) (*BillSummary, error) {
	payments, err := l.store.ListPayments(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	res.Billing = pms.SnapshotFromBill(bill, payments, res.Billing.Currency)
	res.UpdatedAt = l.now()
	if err := l.store.UpdateReservation(ctx, *res); err != nil {
		return nil, err
	}
	return l.buildSummary(res, bill, payments), nil
}
