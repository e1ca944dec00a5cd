/*
errors.go - Centralized error types for the booking and financial core

PURPOSE:
  All sentinel errors in one place for consistency and discoverability.
  Every error carries a kind (validation / conflict / not-found / state)
  that the HTTP boundary translates into a status class. The core itself
  never speaks HTTP; it only classifies.

ERROR CATEGORIES:
  1. Validation errors - rejected before any write (400 class)
  2. Conflict errors   - room unavailable, duplicates (409 class)
  3. Not-found errors  - missing records (404 class)
  4. State errors      - illegal lifecycle transition (400 class)

USAGE:
  if errors.Is(err, pms.ErrNoAvailability) { ... }

  var stateErr *pms.StateError
  if errors.As(err, &stateErr) { ... }

  status := pms.StatusCode(err) // for the HTTP layer
*/
package pms

import (
	"errors"
	"fmt"
	"net/http"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidDateRange is returned when a stay has fewer than one night.
	ErrInvalidDateRange = errors.New("invalid date range: stay must be at least one night")

	// ErrInvalidRatePlan is returned for an unknown rate plan value.
	ErrInvalidRatePlan = errors.New("invalid rate plan")

	// ErrInvalidSource is returned for an unknown booking source value.
	ErrInvalidSource = errors.New("invalid booking source")

	// ErrRoomMismatch is returned when a reservation's room type does not
	// match the assigned room's type.
	ErrRoomMismatch = errors.New("room type does not match assigned room")

	// ErrMissingRoom is returned when a booking names neither a room nor a
	// room type.
	ErrMissingRoom = errors.New("room or room type required")

	// ErrRoomWrongHotel is returned when a room belongs to another property.
	ErrRoomWrongHotel = errors.New("room belongs to a different hotel")

	// ErrNoInventory is returned when the hotel has no rooms of the
	// requested type at all.
	ErrNoInventory = errors.New("no rooms of requested type exist")

	// ErrNoAvailability is returned when rooms of the requested type exist
	// but every one of them conflicts with an active reservation.
	ErrNoAvailability = errors.New("no rooms of requested type available for the dates")

	// ErrNotAvailable is returned when a specific room conflicts with an
	// active reservation for the requested dates.
	ErrNotAvailable = errors.New("room not available for the dates")

	// ErrInvalidState is returned for a lifecycle transition not in the table.
	ErrInvalidState = errors.New("invalid state for requested operation")

	// ErrAlreadyCheckedOut is returned when updating a checked-out reservation.
	ErrAlreadyCheckedOut = errors.New("reservation already checked out")

	// ErrNotCheckedIn is returned when checking out a reservation that
	// isn't checked in.
	ErrNotCheckedIn = errors.New("reservation is not checked in")

	// ErrNoRoomAssigned is returned when check-in/check-out requires a room
	// and none is assigned or supplied.
	ErrNoRoomAssigned = errors.New("no room assigned")

	// ErrNotOvernightStay is returned when posting room charges for a stay
	// with no nights.
	ErrNotOvernightStay = errors.New("stay has no chargeable nights")

	// ErrNightOutsideStay is returned when an explicit night is not part of
	// the reservation's stay range.
	ErrNightOutsideStay = errors.New("night outside stay range")

	// ErrInvalidAmount is returned for non-positive charge or payment amounts.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrEmptyPaymentList is returned when settling with no payments.
	ErrEmptyPaymentList = errors.New("payment list is empty")

	// ErrInvalidRoomStatus is returned for a room status move not in the
	// housekeeping sub-machine table.
	ErrInvalidRoomStatus = errors.New("invalid room status transition")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies which record was missing.
type NotFoundError struct {
	Kind string // "reservation", "room", "guest", "hotel", "folio"
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Kind, e.ID) }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// StateError describes an illegal lifecycle transition.
type StateError struct {
	From ReservationStatus
	To   ReservationStatus
	Op   string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: cannot move reservation from %s to %s", e.Op, e.From, e.To)
}
func (e *StateError) Unwrap() error { return ErrInvalidState }

// RoomStatusError describes an illegal room status transition.
type RoomStatusError struct {
	RoomID RoomID
	From   RoomStatus
	To     RoomStatus
}

func (e *RoomStatusError) Error() string {
	return fmt.Sprintf("room %s: cannot move from %s to %s", e.RoomID, e.From, e.To)
}
func (e *RoomStatusError) Unwrap() error { return ErrInvalidRoomStatus }

// AvailabilityError describes a date conflict on a specific room.
type AvailabilityError struct {
	RoomID    RoomID
	Arrival   Date
	Departure Date
}

func (e *AvailabilityError) Error() string {
	return fmt.Sprintf("room %s not available for %s to %s", e.RoomID, e.Arrival, e.Departure)
}
func (e *AvailabilityError) Unwrap() error { return ErrNotAvailable }

// NightOutsideStayError identifies the offending night.
type NightOutsideStayError struct {
	Night     Date
	Arrival   Date
	Departure Date
}

func (e *NightOutsideStayError) Error() string {
	return fmt.Sprintf("night %s is outside stay [%s, %s)", e.Night, e.Arrival, e.Departure)
}
func (e *NightOutsideStayError) Unwrap() error { return ErrNightOutsideStay }

// =============================================================================
// ERROR KINDS - HTTP status classification for the boundary layer
// =============================================================================

// StatusCode maps an error to the HTTP status class the boundary layer
// should surface. Unknown errors are internal.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotAvailable),
		errors.Is(err, ErrNoAvailability),
		errors.Is(err, ErrNoInventory):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidDateRange),
		errors.Is(err, ErrInvalidRatePlan),
		errors.Is(err, ErrInvalidSource),
		errors.Is(err, ErrRoomMismatch),
		errors.Is(err, ErrMissingRoom),
		errors.Is(err, ErrRoomWrongHotel),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrAlreadyCheckedOut),
		errors.Is(err, ErrNotCheckedIn),
		errors.Is(err, ErrNoRoomAssigned),
		errors.Is(err, ErrNotOvernightStay),
		errors.Is(err, ErrNightOutsideStay),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrEmptyPaymentList),
		errors.Is(err, ErrInvalidRoomStatus):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// IsClientError reports whether the error is the caller's fault.
func IsClientError(err error) bool {
	code := StatusCode(err)
	return code >= 400 && code < 500
}
