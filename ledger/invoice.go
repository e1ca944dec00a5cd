package ledger

import (
	"context"
	"time"

	"github.com/harbor/stay-engine/pms"
)

// =============================================================================
// INVOICE - Read-only projection, no mutation
// =============================================================================

// Invoice combines the property profile, tax configuration, guest, bill
// and payments into a single printable projection.
type Invoice struct {
	Number      string
	GeneratedAt time.Time

	Hotel pms.Hotel
	Guest *pms.Guest // nil when the guest profile is unknown

	ReservationID pms.ReservationID
	RoomID        pms.RoomID
	RoomType      string
	ArrivalDate   pms.Date
	DepartureDate pms.Date
	Nights        int

	Currency string
	Folios   []pms.Folio
	Charges  []pms.Charge
	Payments []pms.Payment
	Totals   pms.BillTotals
}

// GenerateInvoice builds the invoice projection for a reservation. Pure
// read: nothing is written, and generating twice yields the same lines.
func (l *Ledger) GenerateInvoice(ctx context.Context, id pms.ReservationID) (*Invoice, error) {
	res, err := l.getReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	hotel, err := l.getHotel(ctx, res.HotelID)
	if err != nil {
		return nil, err
	}
	guest, err := l.store.GetGuest(ctx, res.GuestID)
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

	summary := l.buildSummary(res, bill, payments)
	return &Invoice{
		Number:        "INV-" + string(id),
		GeneratedAt:   l.now(),
		Hotel:         *hotel,
		Guest:         guest,
		ReservationID: res.ID,
		RoomID:        res.RoomID,
		RoomType:      res.RoomType,
		ArrivalDate:   res.ArrivalDate,
		DepartureDate: res.DepartureDate,
		Nights:        res.Nights(),
		Currency:      summary.Currency,
		Folios:        summary.Folios,
		Charges:       summary.Charges,
		Payments:      summary.Payments,
		Totals:        summary.Totals,
	}, nil
}
