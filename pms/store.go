/*
store.go - Repository interfaces for the booking and financial core

PURPOSE:
  Defines the interface between the domain logic and the database. Each
  entity collection is a flat set of records keyed by id; every call is
  atomic per record only - there are no cross-record transactions, which
  is why check-in/check-out carry explicit compensating writes.

GET SEMANTICS:
  Get* returns (nil, nil) when the record does not exist. The domain layer
  decides whether that is a NotFoundError; the store does not.

WRITE SEMANTICS:
  Save* inserts a new record; Update* overwrites the whole record
  (last write wins). Payments are append-only: AppendPayment exists,
  no update or delete ever does.

IMPLEMENTATIONS:
  - pms/store/memory.go: in-memory, for tests and dev
  - store/sqlite:        SQLite, for production
*/
package pms

import "context"

// =============================================================================
// PER-ENTITY REPOSITORIES
// =============================================================================

type RoomStore interface {
	GetRoom(ctx context.Context, id RoomID) (*Room, error)
	ListRooms(ctx context.Context, hotelID HotelID) ([]Room, error)
	SaveRoom(ctx context.Context, room Room) error
	UpdateRoom(ctx context.Context, room Room) error
}

type ReservationStore interface {
	GetReservation(ctx context.Context, id ReservationID) (*Reservation, error)
	ListReservations(ctx context.Context) ([]Reservation, error)
	SaveReservation(ctx context.Context, res Reservation) error
	UpdateReservation(ctx context.Context, res Reservation) error
	DeleteReservation(ctx context.Context, id ReservationID) error
}

type BillStore interface {
	// GetBillByReservation returns (nil, nil) until the first charge
	// creates the bill.
	GetBillByReservation(ctx context.Context, id ReservationID) (*Bill, error)
	SaveBill(ctx context.Context, bill Bill) error
	UpdateBill(ctx context.Context, bill Bill) error
}

// PaymentStore is append-only. Corrections are ADJUSTMENT charges on the
// bill, never edits to payment records.
type PaymentStore interface {
	AppendPayment(ctx context.Context, p Payment) error
	ListPayments(ctx context.Context, id ReservationID) ([]Payment, error)
}

type GuestStore interface {
	GetGuest(ctx context.Context, id GuestID) (*Guest, error)
	SaveGuest(ctx context.Context, g Guest) error
	// RecordStay registers a new stay against the guest profile.
	RecordStay(ctx context.Context, id GuestID, reservationID ReservationID) error
}

type HotelStore interface {
	GetHotel(ctx context.Context, id HotelID) (*Hotel, error)
	SaveHotel(ctx context.Context, h Hotel) error
}

// =============================================================================
// COMBINED STORE
// =============================================================================

// Store is what the booking and ledger services are constructed with.
type Store interface {
	RoomStore
	ReservationStore
	BillStore
	PaymentStore
	GuestStore
	HotelStore
}
