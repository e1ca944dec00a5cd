/*
availability.go - Availability & Conflict Resolver

PURPOSE:
  Decides whether a room can be sold for a date range. A candidate
  reservation conflicts iff it claims the same room, is still active
  (DRAFT, CONFIRMED or CHECKED_IN), and its half-open [arrival, departure)
  range overlaps the queried range.

HALF-OPEN SEMANTICS:
  aStart < bEnd && bStart < aEnd. A departure and a same-day arrival on
  the same room are NOT a conflict - that's normal turnover.

FAILURE KINDS (booking by type):
  ErrNoInventory    - the hotel has no rooms of that type at all
  ErrNoAvailability - rooms exist but every one conflicts
*/
package booking

import (
	"context"
	"sort"

	"github.com/harbor/stay-engine/pms"
)

// Resolver answers availability questions. Read-only: it never writes.
type Resolver struct {
	rooms        pms.RoomStore
	reservations pms.ReservationStore
}

func NewResolver(rooms pms.RoomStore, reservations pms.ReservationStore) *Resolver {
	return &Resolver{rooms: rooms, reservations: reservations}
}

// IsRoomAvailable reports whether the room is free for [arrival, departure),
// ignoring the reservation identified by exclude (pass "" for none).
func (r *Resolver) IsRoomAvailable(ctx context.Context, roomID pms.RoomID, arrival, departure pms.Date, exclude pms.ReservationID) (bool, error) {
	all, err := r.reservations.ListReservations(ctx)
	if err != nil {
		return false, err
	}
	for _, res := range all {
		if res.RoomID != roomID {
			continue
		}
		if exclude != "" && res.ID == exclude {
			continue
		}
		if !res.Status.IsActive() {
			continue
		}
		if pms.RangesOverlap(res.ArrivalDate, res.DepartureDate, arrival, departure) {
			return false, nil
		}
	}
	return true, nil
}

// FindRoomByType returns the first free room of the given type, in stable
// room-number order. Distinguishes "no such rooms" from "all taken".
func (r *Resolver) FindRoomByType(ctx context.Context, hotelID pms.HotelID, roomType string, arrival, departure pms.Date, exclude pms.ReservationID) (*pms.Room, error) {
	rooms, err := r.rooms.ListRooms(ctx, hotelID)
	if err != nil {
		return nil, err
	}

	var candidates []pms.Room
	for _, room := range rooms {
		if room.RoomType == roomType {
			candidates = append(candidates, room)
		}
	}
	if len(candidates) == 0 {
		return nil, pms.ErrNoInventory
	}

	sortRoomsByNumber(candidates)
	for _, room := range candidates {
		free, err := r.IsRoomAvailable(ctx, room.ID, arrival, departure, exclude)
		if err != nil {
			return nil, err
		}
		if free {
			found := room
			return &found, nil
		}
	}
	return nil, pms.ErrNoAvailability
}

// FreeRooms lists every room of the hotel (optionally restricted to a
// type) with zero conflicts for the range. An empty result is not an
// error here; only by-type booking distinguishes inventory from
// availability.
func (r *Resolver) FreeRooms(ctx context.Context, hotelID pms.HotelID, roomType string, arrival, departure pms.Date) ([]pms.Room, error) {
	rooms, err := r.rooms.ListRooms(ctx, hotelID)
	if err != nil {
		return nil, err
	}

	free := make([]pms.Room, 0, len(rooms))
	for _, room := range rooms {
		if roomType != "" && room.RoomType != roomType {
			continue
		}
		ok, err := r.IsRoomAvailable(ctx, room.ID, arrival, departure, "")
		if err != nil {
			return nil, err
		}
		if ok {
			free = append(free, room)
		}
	}
	sortRoomsByNumber(free)
	return free, nil
}

func sortRoomsByNumber(rooms []pms.Room) {
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Number < rooms[j].Number })
}
