// Package store provides Store implementations.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/harbor/stay-engine/pms"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu           sync.RWMutex
	hotels       map[pms.HotelID]pms.Hotel
	rooms        map[pms.RoomID]pms.Room
	guests       map[pms.GuestID]pms.Guest
	reservations map[pms.ReservationID]pms.Reservation
	bills        map[pms.ReservationID]pms.Bill
	payments     map[pms.ReservationID][]pms.Payment
}

func NewMemory() *Memory {
	return &Memory{
		hotels:       make(map[pms.HotelID]pms.Hotel),
		rooms:        make(map[pms.RoomID]pms.Room),
		guests:       make(map[pms.GuestID]pms.Guest),
		reservations: make(map[pms.ReservationID]pms.Reservation),
		bills:        make(map[pms.ReservationID]pms.Bill),
		payments:     make(map[pms.ReservationID][]pms.Payment),
	}
}

// =============================================================================
// HOTELS
// =============================================================================

func (m *Memory) GetHotel(_ context.Context, id pms.HotelID) (*pms.Hotel, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.hotels[id]
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (m *Memory) SaveHotel(_ context.Context, h pms.Hotel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotels[h.ID] = h
	return nil
}

// =============================================================================
// ROOMS
// =============================================================================

func (m *Memory) GetRoom(_ context.Context, id pms.RoomID) (*pms.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Memory) ListRooms(_ context.Context, hotelID pms.HotelID) ([]pms.Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []pms.Room
	for _, r := range m.rooms {
		if hotelID == "" || r.HotelID == hotelID {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *Memory) SaveRoom(_ context.Context, room pms.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
	return nil
}

func (m *Memory) UpdateRoom(_ context.Context, room pms.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[room.ID] = room
	return nil
}

// =============================================================================
// GUESTS
// =============================================================================

func (m *Memory) GetGuest(_ context.Context, id pms.GuestID) (*pms.Guest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.guests[id]
	if !ok {
		return nil, nil
	}
	return &g, nil
}

func (m *Memory) SaveGuest(_ context.Context, g pms.Guest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guests[g.ID] = g
	return nil
}

func (m *Memory) RecordStay(_ context.Context, id pms.GuestID, _ pms.ReservationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.guests[id]
	if !ok {
		return nil // collaborator boundary: unknown guests are tolerated
	}
	g.StayCount++
	m.guests[id] = g
	return nil
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (m *Memory) GetReservation(_ context.Context, id pms.ReservationID) (*pms.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, nil
	}
	out := copyReservation(r)
	return &out, nil
}

func (m *Memory) ListReservations(_ context.Context) ([]pms.Reservation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]pms.Reservation, 0, len(m.reservations))
	for _, r := range m.reservations {
		result = append(result, copyReservation(r))
	}
	return result, nil
}

func (m *Memory) SaveReservation(_ context.Context, res pms.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[res.ID] = copyReservation(res)
	return nil
}

func (m *Memory) UpdateReservation(_ context.Context, res pms.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reservations[res.ID] = copyReservation(res)
	return nil
}

func (m *Memory) DeleteReservation(_ context.Context, id pms.ReservationID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reservations, id)
	return nil
}

// =============================================================================
// BILLS
// =============================================================================

func (m *Memory) GetBillByReservation(_ context.Context, id pms.ReservationID) (*pms.Bill, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.bills[id]
	if !ok {
		return nil, nil
	}
	out := copyBill(b)
	return &out, nil
}

func (m *Memory) SaveBill(_ context.Context, bill pms.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bills[bill.ReservationID] = copyBill(bill)
	return nil
}

func (m *Memory) UpdateBill(_ context.Context, bill pms.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bills[bill.ReservationID] = copyBill(bill)
	return nil
}

// =============================================================================
// PAYMENTS (append-only)
// =============================================================================

func (m *Memory) AppendPayment(_ context.Context, p pms.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ReceivedAt.IsZero() {
		p.ReceivedAt = time.Now().UTC()
	}
	m.payments[p.ReservationID] = append(m.payments[p.ReservationID], p)
	return nil
}

func (m *Memory) ListPayments(_ context.Context, id pms.ReservationID) ([]pms.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]pms.Payment, len(m.payments[id]))
	copy(result, m.payments[id])
	return result, nil
}

// =============================================================================
// COPY HELPERS - callers never share slices/maps with the store
// =============================================================================

func copyReservation(r pms.Reservation) pms.Reservation {
	out := r
	out.Billing.Charges = append([]pms.SnapshotCharge(nil), r.Billing.Charges...)
	if r.CheckInAt != nil {
		t := *r.CheckInAt
		out.CheckInAt = &t
	}
	if r.CheckOutAt != nil {
		t := *r.CheckOutAt
		out.CheckOutAt = &t
	}
	return out
}

func copyBill(b pms.Bill) pms.Bill {
	out := b
	out.Folios = append([]pms.Folio(nil), b.Folios...)
	out.Charges = make([]pms.Charge, len(b.Charges))
	for i, c := range b.Charges {
		cc := c
		if c.Metadata != nil {
			cc.Metadata = make(map[string]string, len(c.Metadata))
			for k, v := range c.Metadata {
				cc.Metadata[k] = v
			}
		}
		out.Charges[i] = cc
	}
	return out
}
