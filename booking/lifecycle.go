/*
lifecycle.go - Reservation Lifecycle State Machine

PURPOSE:
  Owns reservation status transitions and the paired room-status writes
  they trigger. Front-desk operations enter here; the Resolver guards the
  pre-conditions and the settlement calculator produces the check-out
  post-condition.

STATES:
  DRAFT, CONFIRMED, CHECKED_IN, CHECKED_OUT, CANCELLED.
  Initial state is CONFIRMED, or CHECKED_IN for walk-ins.
  CANCELLED and CHECKED_OUT are terminal for mutation.

COMPENSATING WRITES:
  Check-in and check-out each perform two record writes (reservation,
  room) with no surrounding transaction. If the room write fails, the
  reservation is restored to its pre-transition snapshot before the error
  propagates. This is the only rollback logic in the core; everything
  else validates before writing and fails fast.

TWO STATUS PATHS (kept deliberately asymmetric):
  - operational transition: CheckIn/CheckOut - pairs the room write and
    the settlement with the status move.
  - status-only transition: UpdateReservation with a status field - stamps
    timestamps but never touches the room. A correction path for the front
    desk; see applyStatusOnly.

SEE ALSO:
  - availability.go: conflict resolution
  - rooms.go:        per-room locks and the room status sub-machine
  - pms/settlement.go: the check-out calculator
*/
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/harbor/stay-engine/pms"
)

// =============================================================================
// SERVICE
// =============================================================================

// Service is the lifecycle state machine over an injected store.
type Service struct {
	store    pms.Store
	resolver *Resolver
	locks    *roomLocks
	now      func() time.Time
}

func NewService(store pms.Store) *Service {
	return &Service{
		store:    store,
		resolver: NewResolver(store, store),
		locks:    newRoomLocks(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Resolver exposes the availability resolver for read-only callers.
func (s *Service) Resolver() *Resolver { return s.resolver }

// WithClock overrides the time source. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// =============================================================================
// CREATE
// =============================================================================

type CreateReservationInput struct {
	HotelID     pms.HotelID
	GuestID     pms.GuestID
	RoomID      pms.RoomID // optional; RoomType used when empty
	RoomType    string
	Arrival     pms.Date
	Departure   pms.Date
	Adults      int
	Children    int
	NightlyRate decimal.Decimal
	RatePlan    pms.RatePlan
	Source      pms.BookingSource
}

// CreateReservation books a stay. Validation happens before any write:
// a failed create leaves no partial state behind.
func (s *Service) CreateReservation(ctx context.Context, in CreateReservationInput) (*pms.Reservation, error) {
	nights := pms.NightsBetween(in.Arrival, in.Departure)
	if nights <= 0 {
		return nil, pms.ErrInvalidDateRange
	}
	if !in.RatePlan.Valid() {
		return nil, fmt.Errorf("%w: %q", pms.ErrInvalidRatePlan, in.RatePlan)
	}
	if !in.Source.Valid() {
		return nil, fmt.Errorf("%w: %q", pms.ErrInvalidSource, in.Source)
	}

	hotel, err := s.store.GetHotel(ctx, in.HotelID)
	if err != nil {
		return nil, err
	}
	if hotel == nil {
		return nil, &pms.NotFoundError{Kind: "hotel", ID: string(in.HotelID)}
	}

	room, err := s.resolveBookingRoom(ctx, in)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(room.ID)
	defer unlock()

	// Re-check under the lock: the resolver ran without it.
	free, err := s.resolver.IsRoomAvailable(ctx, room.ID, in.Arrival, in.Departure, "")
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, &pms.AvailabilityError{RoomID: room.ID, Arrival: in.Arrival, Departure: in.Departure}
	}

	now := s.now()
	res := pms.Reservation{
		ID:            pms.ReservationID(pms.NewID()),
		HotelID:       in.HotelID,
		GuestID:       in.GuestID,
		RoomID:        room.ID,
		RoomType:      room.RoomType,
		ArrivalDate:   in.Arrival,
		DepartureDate: in.Departure,
		Adults:        in.Adults,
		Children:      in.Children,
		NightlyRate:   in.NightlyRate,
		RatePlan:      in.RatePlan,
		Source:        in.Source,
		Status:        pms.StatusConfirmed,
		Billing:       initialSnapshot(in.NightlyRate, nights, hotel.Currency),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if in.Source == pms.SourceWalkIn {
		res.Status = pms.StatusCheckedIn
		checkIn := now
		res.CheckInAt = &checkIn
	}

	if err := s.store.SaveReservation(ctx, res); err != nil {
		return nil, err
	}

	if in.Source == pms.SourceWalkIn {
		if err := s.transitionRoom(ctx, *room, pms.RoomOccupied); err != nil {
			// Compensate: the reservation write already happened.
			if rbErr := s.store.DeleteReservation(ctx, res.ID); rbErr != nil {
				return nil, errors.Join(err, rbErr)
			}
			return nil, err
		}
	}

	if err := s.store.RecordStay(ctx, in.GuestID, res.ID); err != nil {
		return nil, err
	}
	return &res, nil
}

// resolveBookingRoom picks the concrete room for a booking: the requested
// room (validated) or the first free room of the requested type.
func (s *Service) resolveBookingRoom(ctx context.Context, in CreateReservationInput) (*pms.Room, error) {
	if in.RoomID != "" {
		room, err := s.store.GetRoom(ctx, in.RoomID)
		if err != nil {
			return nil, err
		}
		if room == nil {
			return nil, &pms.NotFoundError{Kind: "room", ID: string(in.RoomID)}
		}
		if room.HotelID != in.HotelID {
			return nil, pms.ErrRoomWrongHotel
		}
		if in.RoomType != "" && in.RoomType != room.RoomType {
			return nil, fmt.Errorf("%w: reservation %q, room %q", pms.ErrRoomMismatch, in.RoomType, room.RoomType)
		}
		return room, nil
	}
	if in.RoomType == "" {
		return nil, pms.ErrMissingRoom
	}
	return s.resolver.FindRoomByType(ctx, in.HotelID, in.RoomType, in.Arrival, in.Departure, "")
}

// =============================================================================
// UPDATE (status-only path included)
// =============================================================================

type UpdateReservationInput struct {
	RoomID      *pms.RoomID
	RoomType    *string
	Arrival     *pms.Date
	Departure   *pms.Date
	Adults      *int
	Children    *int
	NightlyRate *decimal.Decimal
	RatePlan    *pms.RatePlan
	Source      *pms.BookingSource
	Status      *pms.ReservationStatus
}

// UpdateReservation applies a partial update. Disallowed once checked out.
// Dates or room changes re-validate availability (excluding self) and
// recompute the billing snapshot from the new rate and nights.
//
// A status field here is a status-only transition: timestamps are stamped
// but the room is NOT touched and no settlement runs. The dedicated
// CheckIn/CheckOut operations are the operational path.
func (s *Service) UpdateReservation(ctx context.Context, id pms.ReservationID, in UpdateReservationInput) (*pms.Reservation, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &pms.NotFoundError{Kind: "reservation", ID: string(id)}
	}
	if res.Status == pms.StatusCheckedOut {
		return nil, pms.ErrAlreadyCheckedOut
	}

	updated := *res
	stayChanged := false

	if in.Arrival != nil {
		updated.ArrivalDate = *in.Arrival
		stayChanged = true
	}
	if in.Departure != nil {
		updated.DepartureDate = *in.Departure
		stayChanged = true
	}
	if in.Adults != nil {
		updated.Adults = *in.Adults
	}
	if in.Children != nil {
		updated.Children = *in.Children
	}
	if in.NightlyRate != nil {
		updated.NightlyRate = *in.NightlyRate
		stayChanged = true
	}
	if in.RatePlan != nil {
		if !in.RatePlan.Valid() {
			return nil, fmt.Errorf("%w: %q", pms.ErrInvalidRatePlan, *in.RatePlan)
		}
		updated.RatePlan = *in.RatePlan
	}
	if in.Source != nil {
		if !in.Source.Valid() {
			return nil, fmt.Errorf("%w: %q", pms.ErrInvalidSource, *in.Source)
		}
		updated.Source = *in.Source
	}

	nights := updated.Nights()
	if nights <= 0 {
		return nil, pms.ErrInvalidDateRange
	}

	roomChanged := false
	if in.RoomID != nil && *in.RoomID != res.RoomID {
		roomChanged = true
		updated.RoomID = *in.RoomID
	}
	if updated.RoomID != "" && (roomChanged || in.RoomType != nil) {
		room, err := s.store.GetRoom(ctx, updated.RoomID)
		if err != nil {
			return nil, err
		}
		if room == nil {
			return nil, &pms.NotFoundError{Kind: "room", ID: string(updated.RoomID)}
		}
		if room.HotelID != updated.HotelID {
			return nil, pms.ErrRoomWrongHotel
		}
		if in.RoomType != nil && *in.RoomType != room.RoomType {
			return nil, fmt.Errorf("%w: reservation %q, room %q", pms.ErrRoomMismatch, *in.RoomType, room.RoomType)
		}
		updated.RoomType = room.RoomType
	} else if in.RoomType != nil {
		updated.RoomType = *in.RoomType
	}

	if (stayChanged || roomChanged) && updated.RoomID != "" {
		free, err := s.resolver.IsRoomAvailable(ctx, updated.RoomID, updated.ArrivalDate, updated.DepartureDate, id)
		if err != nil {
			return nil, err
		}
		if !free {
			return nil, &pms.AvailabilityError{RoomID: updated.RoomID, Arrival: updated.ArrivalDate, Departure: updated.DepartureDate}
		}
	}

	if stayChanged {
		updated.Billing = initialSnapshot(updated.NightlyRate, nights, res.Billing.Currency)
	}

	if in.Status != nil {
		if err := s.applyStatusOnly(&updated, *in.Status); err != nil {
			return nil, err
		}
	}

	updated.UpdatedAt = s.now()
	if err := s.store.UpdateReservation(ctx, updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// applyStatusOnly moves the status without any room or settlement side
// effects. CHECKED_IN/CHECKED_OUT get their timestamp stamped if missing.
// The lifecycle table still applies: an illegal move is a state error.
func (s *Service) applyStatusOnly(res *pms.Reservation, next pms.ReservationStatus) error {
	if !next.Valid() {
		return fmt.Errorf("%w: unknown status %q", pms.ErrInvalidState, next)
	}
	if !res.Status.CanTransitionTo(next) {
		return &pms.StateError{From: res.Status, To: next, Op: "update"}
	}
	now := s.now()
	switch next {
	case pms.StatusCheckedIn:
		if res.CheckInAt == nil {
			res.CheckInAt = &now
		}
	case pms.StatusCheckedOut:
		if res.CheckOutAt == nil {
			res.CheckOutAt = &now
		}
	}
	res.Status = next
	return nil
}

// =============================================================================
// DELETE
// =============================================================================

// DeleteReservation removes a reservation that never reached check-in.
func (s *Service) DeleteReservation(ctx context.Context, id pms.ReservationID) error {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if res == nil {
		return &pms.NotFoundError{Kind: "reservation", ID: string(id)}
	}
	if res.Status != pms.StatusDraft && res.Status != pms.StatusConfirmed {
		return &pms.StateError{From: res.Status, To: res.Status, Op: "delete"}
	}
	return s.store.DeleteReservation(ctx, id)
}

// =============================================================================
// ASSIGN ROOM
// =============================================================================

// AssignRoom sets the reservation's room ahead of check-in. The room must
// belong to the same hotel and be free for the stay, excluding the
// reservation itself.
func (s *Service) AssignRoom(ctx context.Context, id pms.ReservationID, roomID pms.RoomID) (*pms.Reservation, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &pms.NotFoundError{Kind: "reservation", ID: string(id)}
	}
	if res.Status != pms.StatusDraft && res.Status != pms.StatusConfirmed {
		return nil, &pms.StateError{From: res.Status, To: res.Status, Op: "assignRoom"}
	}

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, &pms.NotFoundError{Kind: "room", ID: string(roomID)}
	}
	if room.HotelID != res.HotelID {
		return nil, pms.ErrRoomWrongHotel
	}

	unlock := s.locks.lock(roomID)
	defer unlock()

	free, err := s.resolver.IsRoomAvailable(ctx, roomID, res.ArrivalDate, res.DepartureDate, id)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, &pms.AvailabilityError{RoomID: roomID, Arrival: res.ArrivalDate, Departure: res.DepartureDate}
	}

	res.RoomID = room.ID
	res.RoomType = room.RoomType
	res.UpdatedAt = s.now()
	if err := s.store.UpdateReservation(ctx, *res); err != nil {
		return nil, err
	}
	return res, nil
}

// =============================================================================
// CHECK-IN
// =============================================================================

// CheckIn moves DRAFT|CONFIRMED → CHECKED_IN and the room → OCCUPIED.
// The two writes are not one transaction: if the room write fails, the
// reservation is restored to its pre-transition snapshot.
func (s *Service) CheckIn(ctx context.Context, id pms.ReservationID, roomID pms.RoomID) (*pms.Reservation, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &pms.NotFoundError{Kind: "reservation", ID: string(id)}
	}
	if res.Status != pms.StatusDraft && res.Status != pms.StatusConfirmed {
		return nil, &pms.StateError{From: res.Status, To: pms.StatusCheckedIn, Op: "checkIn"}
	}

	if roomID == "" {
		roomID = res.RoomID
	}
	if roomID == "" {
		return nil, pms.ErrNoRoomAssigned
	}

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, &pms.NotFoundError{Kind: "room", ID: string(roomID)}
	}
	if room.HotelID != res.HotelID {
		return nil, pms.ErrRoomWrongHotel
	}

	unlock := s.locks.lock(roomID)
	defer unlock()

	free, err := s.resolver.IsRoomAvailable(ctx, roomID, res.ArrivalDate, res.DepartureDate, id)
	if err != nil {
		return nil, err
	}
	if !free {
		return nil, &pms.AvailabilityError{RoomID: roomID, Arrival: res.ArrivalDate, Departure: res.DepartureDate}
	}

	snapshot := *res

	now := s.now()
	res.Status = pms.StatusCheckedIn
	if res.CheckInAt == nil {
		res.CheckInAt = &now
	}
	res.RoomID = room.ID
	res.RoomType = room.RoomType
	res.UpdatedAt = now
	if err := s.store.UpdateReservation(ctx, *res); err != nil {
		return nil, err
	}

	if err := s.transitionRoom(ctx, *room, pms.RoomOccupied); err != nil {
		if rbErr := s.store.UpdateReservation(ctx, snapshot); rbErr != nil {
			return nil, errors.Join(err, rbErr)
		}
		return nil, err
	}
	return res, nil
}

// =============================================================================
// CHECK-OUT
// =============================================================================

// CheckOutResult bundles the post-checkout reservation with the settlement
// snapshot and the ledger's own balance. The two balances can diverge
// (settlement forces zero); both are surfaced rather than masked.
type CheckOutResult struct {
	Reservation   pms.Reservation
	Settlement    pms.Settlement
	Nights        int
	LedgerBalance decimal.Decimal
}

// CheckOut moves CHECKED_IN → CHECKED_OUT and the room → DIRTY, writing
// the settlement snapshot onto the reservation. Same compensating-write
// rule as CheckIn.
func (s *Service) CheckOut(ctx context.Context, id pms.ReservationID, lateCheckout bool, extras []pms.ExtraCharge) (*CheckOutResult, error) {
	res, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, &pms.NotFoundError{Kind: "reservation", ID: string(id)}
	}
	if res.Status != pms.StatusCheckedIn {
		return nil, fmt.Errorf("%w: status is %s", pms.ErrNotCheckedIn, res.Status)
	}
	if res.RoomID == "" {
		return nil, pms.ErrNoRoomAssigned
	}

	room, err := s.store.GetRoom(ctx, res.RoomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, &pms.NotFoundError{Kind: "room", ID: string(res.RoomID)}
	}

	settlement := pms.Settle(res.Billing, lateCheckout, extras)

	// The ledger's view, surfaced alongside the settlement's forced zero.
	bill, err := s.store.GetBillByReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.ListPayments(ctx, id)
	if err != nil {
		return nil, err
	}
	ledgerBalance := pms.ComputeTotals(bill, payments).BalanceDue

	unlock := s.locks.lock(res.RoomID)
	defer unlock()

	snapshot := *res

	now := s.now()
	res.Status = pms.StatusCheckedOut
	if res.CheckOutAt == nil {
		res.CheckOutAt = &now
	}
	res.Billing = pms.SnapshotFromSettlement(settlement, res.Billing.Currency)
	res.UpdatedAt = now
	if err := s.store.UpdateReservation(ctx, *res); err != nil {
		return nil, err
	}

	if err := s.transitionRoom(ctx, *room, pms.RoomDirty); err != nil {
		if rbErr := s.store.UpdateReservation(ctx, snapshot); rbErr != nil {
			return nil, errors.Join(err, rbErr)
		}
		return nil, err
	}

	return &CheckOutResult{
		Reservation:   *res,
		Settlement:    settlement,
		Nights:        res.Nights(),
		LedgerBalance: ledgerBalance,
	}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// initialSnapshot is the billing summary a reservation starts with:
// nightlyRate x nights as a single room line, fully unpaid.
func initialSnapshot(rate decimal.Decimal, nights int, currency string) pms.BillingSnapshot {
	total := pms.RoundMoney(rate.Mul(decimal.NewFromInt(int64(nights))))
	return pms.BillingSnapshot{
		Currency:    currency,
		TotalAmount: total,
		BalanceDue:  total,
		Charges: []pms.SnapshotCharge{
			{Description: fmt.Sprintf("Room charges (%d nights)", nights), Amount: total},
		},
	}
}
