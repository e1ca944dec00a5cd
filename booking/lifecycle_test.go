package booking_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbor/stay-engine/booking"
	"github.com/harbor/stay-engine/pms"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestService(t *testing.T, rooms ...pms.Room) (*booking.Service, pms.Store) {
	t.Helper()
	m := newFixtureStore(t, rooms...)
	return booking.NewService(m), m
}

func bookingInput(roomID pms.RoomID) booking.CreateReservationInput {
	return booking.CreateReservationInput{
		HotelID:     testHotel,
		GuestID:     "guest-1",
		RoomID:      roomID,
		Arrival:     date("2026-01-01"),
		Departure:   date("2026-01-04"),
		Adults:      2,
		NightlyRate: money("7500"),
		RatePlan:    pms.RatePlanBAR,
		Source:      pms.SourceDirect,
	}
}

// failingStore wraps a store and fails room updates on demand, to exercise
// the compensating-write paths.
type failingStore struct {
	pms.Store
	failRoomUpdate bool
}

var errInjected = errors.New("injected room write failure")

func (f *failingStore) UpdateRoom(ctx context.Context, room pms.Room) error {
	if f.failRoomUpdate {
		return errInjected
	}
	return f.Store.UpdateRoom(ctx, room)
}

// =============================================================================
// CREATE
// =============================================================================

func TestCreateReservation_SpecificRoom(t *testing.T) {
	// GIVEN: A free DELUXE room at 7500/night
	// WHEN: Booking Jan 1 -> Jan 4
	// THEN: CONFIRMED reservation with a 3-night snapshot of 22500, fully due
	svc, store := newTestService(t, deluxeRoom("room-1", "101"))
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)

	assert.Equal(t, pms.StatusConfirmed, res.Status)
	assert.Equal(t, pms.RoomID("room-1"), res.RoomID)
	assert.Equal(t, "DELUXE", res.RoomType)
	assert.Equal(t, 3, res.Nights())
	assert.True(t, money("22500").Equal(res.Billing.TotalAmount))
	assert.True(t, money("22500").Equal(res.Billing.BalanceDue))
	require.Len(t, res.Billing.Charges, 1)
	assert.Equal(t, "Room charges (3 nights)", res.Billing.Charges[0].Description)

	guest, err := store.GetGuest(ctx, "guest-1")
	require.NoError(t, err)
	assert.Equal(t, 1, guest.StayCount, "booking records a stay on the guest profile")
}

func TestCreateReservation_ByRoomType(t *testing.T) {
	svc, _ := newTestService(t, deluxeRoom("room-2", "102"), deluxeRoom("room-1", "101"))

	in := bookingInput("")
	in.RoomType = "DELUXE"
	res, err := svc.CreateReservation(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, pms.RoomID("room-1"), res.RoomID, "lowest free room number wins")
}

func TestCreateReservation_Validation(t *testing.T) {
	svc, _ := newTestService(t, deluxeRoom("room-1", "101"))
	ctx := context.Background()

	// Zero-night stay
	in := bookingInput("room-1")
	in.Departure = in.Arrival
	_, err := svc.CreateReservation(ctx, in)
	assert.ErrorIs(t, err, pms.ErrInvalidDateRange)

	// Unknown rate plan
	in = bookingInput("room-1")
	in.RatePlan = "WEEKEND"
	_, err = svc.CreateReservation(ctx, in)
	assert.ErrorIs(t, err, pms.ErrInvalidRatePlan)

	// Unknown source
	in = bookingInput("room-1")
	in.Source = "PHONE"
	_, err = svc.CreateReservation(ctx, in)
	assert.ErrorIs(t, err, pms.ErrInvalidSource)

	// Neither room nor type
	in = bookingInput("")
	_, err = svc.CreateReservation(ctx, in)
	assert.ErrorIs(t, err, pms.ErrMissingRoom)

	// Type does not match the requested room
	in = bookingInput("room-1")
	in.RoomType = "SUITE"
	_, err = svc.CreateReservation(ctx, in)
	assert.ErrorIs(t, err, pms.ErrRoomMismatch)

	// Unknown room
	in = bookingInput("room-missing")
	_, err = svc.CreateReservation(ctx, in)
	assert.ErrorIs(t, err, pms.ErrNotFound)
}

func TestCreateReservation_ConflictRejected(t *testing.T) {
	svc, _ := newTestService(t, deluxeRoom("room-1", "101"))
	ctx := context.Background()

	_, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)

	in := bookingInput("room-1")
	in.Arrival = date("2026-01-03")
	in.Departure = date("2026-01-06")
	_, err = svc.CreateReservation(ctx, in)
	assert.ErrorIs(t, err, pms.ErrNotAvailable)
}

func TestCreateReservation_WalkIn(t *testing.T) {
	// GIVEN: A walk-in booking
	// THEN: The reservation starts CHECKED_IN and the room goes OCCUPIED
	svc, store := newTestService(t, deluxeRoom("room-1", "101"))
	ctx := context.Background()

	in := bookingInput("room-1")
	in.Source = pms.SourceWalkIn
	res, err := svc.CreateReservation(ctx, in)
	require.NoError(t, err)

	assert.Equal(t, pms.StatusCheckedIn, res.Status)
	require.NotNil(t, res.CheckInAt)

	room, err := store.GetRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, pms.RoomOccupied, room.Status)
}

func TestCreateReservation_WalkIn_RoomWriteFailureRollsBack(t *testing.T) {
	// GIVEN: A store whose room writes fail
	// WHEN: Creating a walk-in (reservation write then room write)
	// THEN: The reservation is deleted again; no orphan record remains
	m := newFixtureStore(t, deluxeRoom("room-1", "101"))
	failing := &failingStore{Store: m, failRoomUpdate: true}
	svc := booking.NewService(failing)
	ctx := context.Background()

	in := bookingInput("room-1")
	in.Source = pms.SourceWalkIn
	_, err := svc.CreateReservation(ctx, in)
	assert.ErrorIs(t, err, errInjected)

	all, err := m.ListReservations(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "failed walk-in must not leave a reservation behind")
}

// =============================================================================
// UPDATE
// =============================================================================

func TestUpdateReservation_RejectedAfterCheckout(t *testing.T) {
	svc, _ := newTestService(t, deluxeRoom("room-1", "101"))
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, res.ID, "")
	require.NoError(t, err)
	_, err = svc.CheckOut(ctx, res.ID, false, nil)
	require.NoError(t, err)

	adults := 3
	_, err = svc.UpdateReservation(ctx, res.ID, booking.UpdateReservationInput{Adults: &adults})
	assert.ErrorIs(t, err, pms.ErrAlreadyCheckedOut)
}

func TestUpdateReservation_StayChangeRecomputesSnapshot(t *testing.T) {
	// GIVEN: A 3-night booking at 7500
	// WHEN: Extending to 5 nights at 8000
	// THEN: The snapshot is rebuilt: 40000 total, fully due
	svc, _ := newTestService(t, deluxeRoom("room-1", "101"))
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)

	departure := date("2026-01-06")
	rate := money("8000")
	updated, err := svc.UpdateReservation(ctx, res.ID, booking.UpdateReservationInput{
		Departure:   &departure,
		NightlyRate: &rate,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Nights())
	assert.True(t, money("40000").Equal(updated.Billing.TotalAmount))
	assert.True(t, money("40000").Equal(updated.Billing.BalanceDue))
}

func TestUpdateReservation_DateConflictRejected(t *testing.T) {
	svc, _ := newTestService(t, deluxeRoom("room-1", "101"))
	ctx := context.Background()

	first, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)
	_ = first

	in := bookingInput("room-1")
	in.Arrival = date("2026-01-10")
	in.Departure = date("2026-01-12")
	second, err := svc.CreateReservation(ctx, in)
	require.NoError(t, err)

	// Move the second stay onto the first one's dates.
	arrival := date("2026-01-02")
	departure := date("2026-01-05")
	_, err = svc.UpdateReservation(ctx, second.ID, booking.UpdateReservationInput{
		Arrival:   &arrival,
		Departure: &departure,
	})
	assert.ErrorIs(t, err, pms.ErrNotAvailable)
}

func TestUpdateReservation_StatusOnly_DoesNotTouchRoom(t *testing.T) {
	// GIVEN: A CONFIRMED reservation on an AVAILABLE room
	// WHEN: Setting status CHECKED_IN through the update path
	// THEN: The timestamp is stamped but the room stays AVAILABLE; only the
	//       dedicated check-in operation moves the room
	svc, store := newTestService(t, deluxeRoom("room-1", "101"))
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)

	status := pms.StatusCheckedIn
	updated, err := svc.UpdateReservation(ctx, res.ID, booking.UpdateReservationInput{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, pms.StatusCheckedIn, updated.Status)
	require.NotNil(t, updated.CheckInAt)

	room, err := store.GetRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, pms.RoomAvailable, room.Status)
}

func TestUpdateReservation_StatusOnly_IllegalMove(t *testing.T) {
	svc, _ := newTestService(t, deluxeRoom("room-1", "101"))
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)

	status := pms.StatusCheckedOut
	_, err = svc.UpdateReservation(ctx, res.ID, booking.UpdateReservationInput{Status: &status})
	assert.ErrorIs(t, err, pms.ErrInvalidState)

	var stateErr *pms.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, pms.StatusConfirmed, stateErr.From)
	assert.Equal(t, pms.StatusCheckedOut, stateErr.To)
}

// =============================================================================
// DELETE
// =============================================================================

func TestDeleteReservation_OnlyBeforeCheckIn(t *testing.T) {
	svc, _ := newTestService(t, deluxeRoom("room-1", "101"), deluxeRoom("room-2", "102"))
	ctx := context.Background()

	confirmed, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)
	assert.NoError(t, svc.DeleteReservation(ctx, confirmed.ID))

	checkedIn, err := svc.CreateReservation(ctx, bookingInput("room-2"))
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, checkedIn.ID, "")
	require.NoError(t, err)

	err = svc.DeleteReservation(ctx, checkedIn.ID)
	assert.ErrorIs(t, err, pms.ErrInvalidState)
}

// =============================================================================
// ASSIGN ROOM
// =============================================================================

func TestAssignRoom(t *testing.T) {
	svc, _ := newTestService(t, deluxeRoom("room-1", "101"), deluxeRoom("room-2", "102"))
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)

	updated, err := svc.AssignRoom(ctx, res.ID, "room-2")
	require.NoError(t, err)
	assert.Equal(t, pms.RoomID("room-2"), updated.RoomID)
	assert.Equal(t, "DELUXE", updated.RoomType)
}

func TestAssignRoom_RejectedOnceCheckedIn(t *testing.T) {
	svc, _ := newTestService(t, deluxeRoom("room-1", "101"), deluxeRoom("room-2", "102"))
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, res.ID, "")
	require.NoError(t, err)

	_, err = svc.AssignRoom(ctx, res.ID, "room-2")
	assert.ErrorIs(t, err, pms.ErrInvalidState)
}

// =============================================================================
// CHECK-IN
// =============================================================================

func TestCheckIn_Success(t *testing.T) {
	svc, store := newTestService(t, deluxeRoom("room-1", "101"))
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)

	checkedIn, err := svc.CheckIn(ctx, res.ID, "")
	require.NoError(t, err)
	assert.Equal(t, pms.StatusCheckedIn, checkedIn.Status)
	require.NotNil(t, checkedIn.CheckInAt)

	room, err := store.GetRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, pms.RoomOccupied, room.Status)
}

func TestCheckIn_NoRoomAssigned(t *testing.T) {
	// A DRAFT created directly in the store, with no room.
	m := newFixtureStore(t)
	svc := booking.NewService(m)
	ctx := context.Background()

	res := activeReservation("res-draft", "", date("2026-01-01"), date("2026-01-04"), pms.StatusDraft)
	require.NoError(t, m.SaveReservation(ctx, res))

	_, err := svc.CheckIn(ctx, "res-draft", "")
	assert.ErrorIs(t, err, pms.ErrNoRoomAssigned)
}

func TestCheckIn_RejectedTwice(t *testing.T) {
	svc, _ := newTestService(t, deluxeRoom("room-1", "101"))
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, res.ID, "")
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, res.ID, "")
	assert.ErrorIs(t, err, pms.ErrInvalidState)
}

func TestCheckIn_RoomWriteFailureRestoresReservation(t *testing.T) {
	// GIVEN: The reservation write succeeds but the room write fails
	// THEN: The reservation is restored to its pre-check-in state
	m := newFixtureStore(t, deluxeRoom("room-1", "101"))
	failing := &failingStore{Store: m}
	svc := booking.NewService(failing)
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)

	failing.failRoomUpdate = true
	_, err = svc.CheckIn(ctx, res.ID, "")
	assert.ErrorIs(t, err, errInjected)

	restored, err := m.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, pms.StatusConfirmed, restored.Status)
	assert.Nil(t, restored.CheckInAt)

	room, err := m.GetRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, pms.RoomAvailable, room.Status)
}

// =============================================================================
// CHECK-OUT
// =============================================================================

func TestCheckOut_Success(t *testing.T) {
	// GIVEN: A checked-in 3-night stay billed at 22500
	// WHEN: Checking out normally
	// THEN: CHECKED_OUT, room DIRTY, settlement total 22500, balance zero
	svc, store := newTestService(t, deluxeRoom("room-1", "101"))
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, res.ID, "")
	require.NoError(t, err)

	result, err := svc.CheckOut(ctx, res.ID, false, nil)
	require.NoError(t, err)

	assert.Equal(t, pms.StatusCheckedOut, result.Reservation.Status)
	require.NotNil(t, result.Reservation.CheckOutAt)
	assert.Equal(t, 3, result.Nights)
	assert.True(t, money("22500").Equal(result.Settlement.TotalAmount))
	assert.True(t, result.Settlement.BalanceDue.IsZero())
	assert.True(t, result.Reservation.Billing.BalanceDue.IsZero())

	room, err := store.GetRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, pms.RoomDirty, room.Status)
}

func TestCheckOut_LateFeeAndExtras(t *testing.T) {
	svc, _ := newTestService(t, deluxeRoom("room-1", "101"))
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, res.ID, "")
	require.NoError(t, err)

	result, err := svc.CheckOut(ctx, res.ID, true, []pms.ExtraCharge{
		{Description: "Minibar", Amount: money("450")},
	})
	require.NoError(t, err)

	// 22500 + 25% late fee (5625) + 450
	assert.True(t, money("5625").Equal(result.Settlement.LateFee))
	assert.True(t, money("28575").Equal(result.Settlement.TotalAmount), "got %s", result.Settlement.TotalAmount)
}

func TestCheckOut_RequiresCheckedIn(t *testing.T) {
	svc, _ := newTestService(t, deluxeRoom("room-1", "101"))
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)

	_, err = svc.CheckOut(ctx, res.ID, false, nil)
	assert.ErrorIs(t, err, pms.ErrNotCheckedIn)
}

func TestCheckOut_RoomWriteFailureRestoresReservation(t *testing.T) {
	m := newFixtureStore(t, deluxeRoom("room-1", "101"))
	failing := &failingStore{Store: m}
	svc := booking.NewService(failing)
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, res.ID, "")
	require.NoError(t, err)

	failing.failRoomUpdate = true
	_, err = svc.CheckOut(ctx, res.ID, false, nil)
	assert.ErrorIs(t, err, errInjected)

	restored, err := m.GetReservation(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, pms.StatusCheckedIn, restored.Status, "reservation restored after failed room write")
	assert.Nil(t, restored.CheckOutAt)
}

// =============================================================================
// HOUSEKEEPING
// =============================================================================

func TestSetRoomStatus_HousekeepingFlow(t *testing.T) {
	// DIRTY -> AVAILABLE after cleaning; OCCUPIED never enters via housekeeping.
	svc, _ := newTestService(t, deluxeRoom("room-1", "101"))
	ctx := context.Background()

	res, err := svc.CreateReservation(ctx, bookingInput("room-1"))
	require.NoError(t, err)
	_, err = svc.CheckIn(ctx, res.ID, "")
	require.NoError(t, err)
	_, err = svc.CheckOut(ctx, res.ID, false, nil)
	require.NoError(t, err)

	room, err := svc.SetRoomStatus(ctx, "room-1", pms.RoomAvailable)
	require.NoError(t, err)
	assert.Equal(t, pms.RoomAvailable, room.Status)

	_, err = svc.SetRoomStatus(ctx, "room-1", pms.RoomOutOfOrder)
	require.NoError(t, err)

	// OUT_OF_ORDER -> OCCUPIED is not in the table.
	_, err = svc.SetRoomStatus(ctx, "room-1", pms.RoomOccupied)
	assert.ErrorIs(t, err, pms.ErrInvalidRoomStatus)
}
