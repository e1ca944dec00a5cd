/*
Package pms contains the core domain model of the booking and financial
engine: rooms, reservations, bills, folios, charges and payments.

PURPOSE:
  This package is storage-agnostic and transport-agnostic. It defines the
  entities, the enumerations, and the small pure algorithms (tax,
  settlement, derived totals) that the booking and ledger packages build
  on. Nothing here performs I/O.

KEY CONCEPTS IN THIS FILE (types.go):
  - Room: sellable inventory with a housekeeping status sub-machine
  - Reservation: a stay claim over a half-open [arrival, departure) range
  - BillingSnapshot: denormalized billing summary embedded in a reservation
  - Typed IDs: prevent mixing room/reservation/guest identifiers

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for every monetary amount, never float64
  2. Type safety: enums are typed strings validated at the boundary
  3. Derived values: totals are recomputed from records, never trusted
     from a stored field

SEE ALSO:
  - date.go:       calendar dates and half-open range arithmetic
  - billing.go:    Bill, Folio, Charge, Payment and derived totals
  - settlement.go: check-out settlement calculator
  - store.go:      repository interfaces
*/
package pms

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type HotelID string
type RoomID string
type GuestID string
type ReservationID string
type BillID string
type FolioID string
type ChargeID string
type PaymentID string

// NewID returns a fresh identifier for any record type.
func NewID() string { return uuid.NewString() }

// =============================================================================
// ROOM - Sellable inventory
// =============================================================================

type RoomStatus string

const (
	RoomAvailable  RoomStatus = "AVAILABLE"
	RoomOccupied   RoomStatus = "OCCUPIED"
	RoomDirty      RoomStatus = "DIRTY"
	RoomOutOfOrder RoomStatus = "OUT_OF_ORDER"
)

// roomTransitions is the housekeeping status sub-machine. Check-in and
// check-out drive AVAILABLE→OCCUPIED→DIRTY; housekeeping drives the rest.
var roomTransitions = map[RoomStatus][]RoomStatus{
	RoomAvailable:  {RoomOccupied, RoomDirty, RoomOutOfOrder},
	RoomOccupied:   {RoomDirty},
	RoomDirty:      {RoomAvailable, RoomOutOfOrder},
	RoomOutOfOrder: {RoomAvailable, RoomDirty},
}

// CanTransitionTo reports whether the room status machine allows s → next.
func (s RoomStatus) CanTransitionTo(next RoomStatus) bool {
	for _, allowed := range roomTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s RoomStatus) Valid() bool {
	switch s {
	case RoomAvailable, RoomOccupied, RoomDirty, RoomOutOfOrder:
		return true
	}
	return false
}

type Room struct {
	ID          RoomID
	HotelID     HotelID
	Number      string
	RoomType    string
	Status      RoomStatus
	NightlyRate decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// =============================================================================
// RESERVATION - A stay claim
// =============================================================================

type ReservationStatus string

const (
	StatusDraft      ReservationStatus = "DRAFT"
	StatusConfirmed  ReservationStatus = "CONFIRMED"
	StatusCheckedIn  ReservationStatus = "CHECKED_IN"
	StatusCheckedOut ReservationStatus = "CHECKED_OUT"
	StatusCancelled  ReservationStatus = "CANCELLED"
)

// IsActive reports whether the reservation counts against room inventory.
func (s ReservationStatus) IsActive() bool {
	return s == StatusDraft || s == StatusConfirmed || s == StatusCheckedIn
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusConfirmed, StatusCheckedIn, StatusCheckedOut, StatusCancelled:
		return true
	}
	return false
}

// reservationTransitions is the lifecycle table. CANCELLED and CHECKED_OUT
// are terminal.
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	StatusDraft:     {StatusConfirmed, StatusCheckedIn, StatusCancelled},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn: {StatusCheckedOut},
}

// CanTransitionTo reports whether the lifecycle allows s → next.
// Setting the same status again is a no-op and always allowed.
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

type RatePlan string

const (
	RatePlanBAR       RatePlan = "BAR"
	RatePlanCorporate RatePlan = "CORPORATE"
	RatePlanPackage   RatePlan = "PACKAGE"
)

func (p RatePlan) Valid() bool {
	switch p {
	case RatePlanBAR, RatePlanCorporate, RatePlanPackage:
		return true
	}
	return false
}

type BookingSource string

const (
	SourceDirect    BookingSource = "DIRECT"
	SourceOTA       BookingSource = "OTA"
	SourceCorporate BookingSource = "CORPORATE"
	SourceWalkIn    BookingSource = "WALK_IN"
)

func (s BookingSource) Valid() bool {
	switch s {
	case SourceDirect, SourceOTA, SourceCorporate, SourceWalkIn:
		return true
	}
	return false
}

// Reservation is the central record of the system. RoomID may be empty
// until a room is assigned; RoomType is denormalized and must match the
// assigned room's type whenever a room is set.
type Reservation struct {
	ID            ReservationID
	HotelID       HotelID
	GuestID       GuestID
	RoomID        RoomID
	RoomType      string
	ArrivalDate   Date
	DepartureDate Date
	Adults        int
	Children      int
	NightlyRate   decimal.Decimal
	RatePlan      RatePlan
	Source        BookingSource
	Status        ReservationStatus

	// Billing is a denormalized summary kept in sync with the ledger.
	// The ledger's settle operation is the single synchronization point.
	Billing BillingSnapshot

	CheckInAt  *time.Time
	CheckOutAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Nights returns the number of nights in the stay.
func (r Reservation) Nights() int {
	return NightsBetween(r.ArrivalDate, r.DepartureDate)
}

// =============================================================================
// BILLING SNAPSHOT - Denormalized billing embedded in the reservation
// =============================================================================

type SnapshotCharge struct {
	Description string
	Amount      decimal.Decimal
}

type BillingSnapshot struct {
	Currency    string
	TotalAmount decimal.Decimal
	BalanceDue  decimal.Decimal
	Charges     []SnapshotCharge
}

// =============================================================================
// GUEST / HOTEL - External collaborators, modeled at the boundary only
// =============================================================================

type Guest struct {
	ID        GuestID
	Name      string
	Email     string
	Phone     string
	StayCount int
	CreatedAt time.Time
}

// TaxConfig holds the property's tax percentages. Only CGST and SGST feed
// into per-charge tax today; the remaining fields are configured but not
// folded into the charge calculation.
type TaxConfig struct {
	CGSTPercent          decimal.Decimal
	SGSTPercent          decimal.Decimal
	IGSTPercent          decimal.Decimal
	ServiceChargePercent decimal.Decimal
	LuxuryTaxPercent     decimal.Decimal
}

type Hotel struct {
	ID        HotelID
	Name      string
	Address   string
	Currency  string
	Tax       TaxConfig
	CreatedAt time.Time
}
