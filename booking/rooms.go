package booking

import (
	"context"
	"sync"

	"github.com/harbor/stay-engine/pms"
)

// =============================================================================
// PER-ROOM SERIALIZATION
// =============================================================================

// roomLocks serializes mutating operations per room. The record store only
// guarantees per-record overwrite atomicity, so without this two concurrent
// check-ins on the same room could both pass the availability check before
// either writes OCCUPIED.
type roomLocks struct {
	mu    sync.Mutex
	locks map[pms.RoomID]*sync.Mutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[pms.RoomID]*sync.Mutex)}
}

func (rl *roomLocks) lock(id pms.RoomID) func() {
	rl.mu.Lock()
	l, ok := rl.locks[id]
	if !ok {
		l = &sync.Mutex{}
		rl.locks[id] = l
	}
	rl.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// =============================================================================
// ROOM STATUS TRANSITIONS
// =============================================================================

// transitionRoom applies the housekeeping sub-machine and persists the room.
func (s *Service) transitionRoom(ctx context.Context, room pms.Room, next pms.RoomStatus) error {
	if !room.Status.CanTransitionTo(next) {
		return &pms.RoomStatusError{RoomID: room.ID, From: room.Status, To: next}
	}
	room.Status = next
	room.UpdatedAt = s.now()
	return s.store.UpdateRoom(ctx, room)
}

// SetRoomStatus is the housekeeping entry point: it applies the same
// transition table check-in and check-out use, and rejects anything not in
// the table. OCCUPIED is only ever entered through check-in.
func (s *Service) SetRoomStatus(ctx context.Context, roomID pms.RoomID, status pms.RoomStatus) (*pms.Room, error) {
	if !status.Valid() {
		return nil, pms.ErrInvalidRoomStatus
	}

	unlock := s.locks.lock(roomID)
	defer unlock()

	room, err := s.store.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if room == nil {
		return nil, &pms.NotFoundError{Kind: "room", ID: string(roomID)}
	}
	if err := s.transitionRoom(ctx, *room, status); err != nil {
		return nil, err
	}
	return s.store.GetRoom(ctx, roomID)
}
