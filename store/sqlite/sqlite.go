/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements every repository interface in pms/store.go using SQLite.
  In production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

SEMANTICS PRESERVED:
  - Get* returns (nil, nil) for missing records; the domain layer decides
    whether that is a not-found error.
  - Update* overwrites the whole record (last write wins).
  - payments has INSERT only; no UPDATE or DELETE statement exists for it.

KEY TABLES:
  hotels, rooms, guests, reservations: one row per record
  bills / folios / charges:            the per-reservation ledger
  payments:                            append-only settlement records

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - multiple readers don't block
  - single writer at a time
  - better crash recovery

MONEY AND DATES:
  Monetary amounts are stored as TEXT and parsed with shopspring/decimal;
  calendar dates as YYYY-MM-DD TEXT; timestamps as RFC3339 TEXT.

USAGE:
  st, err := sqlite.New("./data/frontdesk.db")
  if err != nil { log.Fatal(err) }
  defer st.Close()

SEE ALSO:
  - pms/store.go:        interface definitions
  - pms/store/memory.go: in-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/harbor/stay-engine/pms"
)

// Store implements pms.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store. Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS hotels (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT,
		currency TEXT NOT NULL,
		cgst_percent TEXT NOT NULL DEFAULT '0',
		sgst_percent TEXT NOT NULL DEFAULT '0',
		igst_percent TEXT NOT NULL DEFAULT '0',
		service_charge_percent TEXT NOT NULL DEFAULT '0',
		luxury_tax_percent TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS rooms (
		id TEXT PRIMARY KEY,
		hotel_id TEXT NOT NULL,
		number TEXT NOT NULL,
		room_type TEXT NOT NULL,
		status TEXT NOT NULL,
		nightly_rate TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_rooms_hotel ON rooms(hotel_id);
	CREATE INDEX IF NOT EXISTS idx_rooms_hotel_type ON rooms(hotel_id, room_type);

	CREATE TABLE IF NOT EXISTS guests (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		phone TEXT,
		stay_count INTEGER NOT NULL DEFAULT 0,
		last_reservation_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reservations (
		id TEXT PRIMARY KEY,
		hotel_id TEXT NOT NULL,
		guest_id TEXT NOT NULL,
		room_id TEXT,
		room_type TEXT NOT NULL,
		arrival_date TEXT NOT NULL,
		departure_date TEXT NOT NULL,
		adults INTEGER NOT NULL DEFAULT 0,
		children INTEGER NOT NULL DEFAULT 0,
		nightly_rate TEXT NOT NULL,
		rate_plan TEXT NOT NULL,
		source TEXT NOT NULL,
		status TEXT NOT NULL,
		billing_json TEXT NOT NULL,
		check_in_at TEXT,
		check_out_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Availability scans filter on room + status + range.
	CREATE INDEX IF NOT EXISTS idx_reservations_room_status
		ON reservations(room_id, status);
	CREATE INDEX IF NOT EXISTS idx_reservations_hotel
		ON reservations(hotel_id);

	CREATE TABLE IF NOT EXISTS bills (
		id TEXT PRIMARY KEY,
		reservation_id TEXT NOT NULL UNIQUE,
		currency TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS folios (
		id TEXT PRIMARY KEY,
		bill_id TEXT NOT NULL,
		name TEXT NOT NULL,
		position INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		UNIQUE(bill_id, name)
	);

	CREATE TABLE IF NOT EXISTS charges (
		id TEXT PRIMARY KEY,
		bill_id TEXT NOT NULL,
		folio_id TEXT NOT NULL,
		charge_type TEXT NOT NULL,
		description TEXT NOT NULL,
		amount TEXT NOT NULL,
		tax_amount TEXT NOT NULL,
		total_amount TEXT NOT NULL,
		posted_at TEXT NOT NULL,
		metadata_json TEXT,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_charges_bill ON charges(bill_id);

	-- Enforce the one-ROOM-charge-per-night invariant at the database
	-- level too; the ledger checks it first and skips silently.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_charges_room_night
		ON charges(bill_id, json_extract(metadata_json, '$.nightDate'))
		WHERE charge_type = 'ROOM';

	-- Payments are append-only: no UPDATE/DELETE path exists in this package.
	CREATE TABLE IF NOT EXISTS payments (
		id TEXT PRIMARY KEY,
		reservation_id TEXT NOT NULL,
		folio_id TEXT NOT NULL,
		amount TEXT NOT NULL,
		currency TEXT NOT NULL,
		mode TEXT NOT NULL,
		reference TEXT,
		received_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_payments_reservation ON payments(reservation_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HOTELS
// =============================================================================

func (s *Store) GetHotel(ctx context.Context, id pms.HotelID) (*pms.Hotel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, address, currency, cgst_percent, sgst_percent,
		       igst_percent, service_charge_percent, luxury_tax_percent, created_at
		FROM hotels WHERE id = ?`, string(id))

	var h pms.Hotel
	var cgst, sgst, igst, service, luxury, createdAt string
	err := row.Scan(&h.ID, &h.Name, &h.Address, &h.Currency,
		&cgst, &sgst, &igst, &service, &luxury, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	h.Tax = pms.TaxConfig{
		CGSTPercent:          mustDecimal(cgst),
		SGSTPercent:          mustDecimal(sgst),
		IGSTPercent:          mustDecimal(igst),
		ServiceChargePercent: mustDecimal(service),
		LuxuryTaxPercent:     mustDecimal(luxury),
	}
	h.CreatedAt = parseTime(createdAt)
	return &h, nil
}

func (s *Store) SaveHotel(ctx context.Context, h pms.Hotel) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO hotels
		(id, name, address, currency, cgst_percent, sgst_percent, igst_percent,
		 service_charge_percent, luxury_tax_percent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(h.ID), h.Name, h.Address, h.Currency,
		h.Tax.CGSTPercent.String(), h.Tax.SGSTPercent.String(), h.Tax.IGSTPercent.String(),
		h.Tax.ServiceChargePercent.String(), h.Tax.LuxuryTaxPercent.String(),
		formatTime(h.CreatedAt))
	return err
}

// =============================================================================
// ROOMS
// =============================================================================

func (s *Store) GetRoom(ctx context.Context, id pms.RoomID) (*pms.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, hotel_id, number, room_type, status, nightly_rate, created_at, updated_at
		FROM rooms WHERE id = ?`, string(id))
	room, err := scanRoom(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Store) ListRooms(ctx context.Context, hotelID pms.HotelID) ([]pms.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, hotel_id, number, room_type, status, nightly_rate, created_at, updated_at
	          FROM rooms`
	args := []any{}
	if hotelID != "" {
		query += ` WHERE hotel_id = ?`
		args = append(args, string(hotelID))
	}
	query += ` ORDER BY number`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []pms.Room
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *room)
	}
	return result, rows.Err()
}

func (s *Store) SaveRoom(ctx context.Context, room pms.Room) error {
	return s.writeRoom(ctx, room)
}

func (s *Store) UpdateRoom(ctx context.Context, room pms.Room) error {
	return s.writeRoom(ctx, room)
}

func (s *Store) writeRoom(ctx context.Context, room pms.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	if room.UpdatedAt.IsZero() {
		room.UpdatedAt = now
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO rooms
		(id, hotel_id, number, room_type, status, nightly_rate, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(room.ID), string(room.HotelID), room.Number, room.RoomType,
		string(room.Status), room.NightlyRate.String(),
		formatTime(room.CreatedAt), formatTime(room.UpdatedAt))
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanRoom(row rowScanner) (*pms.Room, error) {
	var r pms.Room
	var rate, createdAt, updatedAt string
	err := row.Scan(&r.ID, &r.HotelID, &r.Number, &r.RoomType, &r.Status,
		&rate, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	r.NightlyRate = mustDecimal(rate)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

// =============================================================================
// GUESTS
// =============================================================================

func (s *Store) GetGuest(ctx context.Context, id pms.GuestID) (*pms.Guest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, phone, stay_count, created_at
		FROM guests WHERE id = ?`, string(id))

	var g pms.Guest
	var createdAt string
	err := row.Scan(&g.ID, &g.Name, &g.Email, &g.Phone, &g.StayCount, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	g.CreatedAt = parseTime(createdAt)
	return &g, nil
}

func (s *Store) SaveGuest(ctx context.Context, g pms.Guest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO guests
		(id, name, email, phone, stay_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(g.ID), g.Name, g.Email, g.Phone, g.StayCount, formatTime(g.CreatedAt))
	return err
}

func (s *Store) RecordStay(ctx context.Context, id pms.GuestID, reservationID pms.ReservationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Unknown guests are tolerated: the profile lives with an external
	// collaborator and may not be mirrored here.
	_, err := s.db.ExecContext(ctx, `
		UPDATE guests SET stay_count = stay_count + 1, last_reservation_id = ?
		WHERE id = ?`, string(reservationID), string(id))
	return err
}

// =============================================================================
// RESERVATIONS
// =============================================================================

func (s *Store) GetReservation(ctx context.Context, id pms.ReservationID) (*pms.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, reservationSelect+` WHERE id = ?`, string(id))
	res, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) ListReservations(ctx context.Context) ([]pms.Reservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, reservationSelect+` ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []pms.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *res)
	}
	return result, rows.Err()
}

func (s *Store) SaveReservation(ctx context.Context, res pms.Reservation) error {
	return s.writeReservation(ctx, res)
}

func (s *Store) UpdateReservation(ctx context.Context, res pms.Reservation) error {
	return s.writeReservation(ctx, res)
}

func (s *Store) DeleteReservation(ctx context.Context, id pms.ReservationID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, string(id))
	return err
}

const reservationSelect = `
	SELECT id, hotel_id, guest_id, room_id, room_type, arrival_date, departure_date,
	       adults, children, nightly_rate, rate_plan, source, status, billing_json,
	       check_in_at, check_out_at, created_at, updated_at
	FROM reservations`

// billingJSON is the persisted form of the embedded snapshot.
type billingJSON struct {
	Currency    string              `json:"currency"`
	TotalAmount decimal.Decimal     `json:"totalAmount"`
	BalanceDue  decimal.Decimal     `json:"balanceDue"`
	Charges     []snapshotChargeRow `json:"charges"`
}

type snapshotChargeRow struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

func (s *Store) writeReservation(ctx context.Context, res pms.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	billing := billingJSON{
		Currency:    res.Billing.Currency,
		TotalAmount: res.Billing.TotalAmount,
		BalanceDue:  res.Billing.BalanceDue,
	}
	for _, c := range res.Billing.Charges {
		billing.Charges = append(billing.Charges, snapshotChargeRow{
			Description: c.Description, Amount: c.Amount,
		})
	}
	billingBytes, err := json.Marshal(billing)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reservations
		(id, hotel_id, guest_id, room_id, room_type, arrival_date, departure_date,
		 adults, children, nightly_rate, rate_plan, source, status, billing_json,
		 check_in_at, check_out_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(res.ID), string(res.HotelID), string(res.GuestID), string(res.RoomID),
		res.RoomType, res.ArrivalDate.String(), res.DepartureDate.String(),
		res.Adults, res.Children, res.NightlyRate.String(),
		string(res.RatePlan), string(res.Source), string(res.Status), string(billingBytes),
		nullableTime(res.CheckInAt), nullableTime(res.CheckOutAt),
		formatTime(res.CreatedAt), formatTime(res.UpdatedAt))
	return err
}

func scanReservation(row rowScanner) (*pms.Reservation, error) {
	var r pms.Reservation
	var arrival, departure, rate, billingStr, createdAt, updatedAt string
	var checkIn, checkOut sql.NullString
	err := row.Scan(&r.ID, &r.HotelID, &r.GuestID, &r.RoomID, &r.RoomType,
		&arrival, &departure, &r.Adults, &r.Children, &rate,
		&r.RatePlan, &r.Source, &r.Status, &billingStr,
		&checkIn, &checkOut, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if r.ArrivalDate, err = pms.ParseDate(arrival); err != nil {
		return nil, err
	}
	if r.DepartureDate, err = pms.ParseDate(departure); err != nil {
		return nil, err
	}
	r.NightlyRate = mustDecimal(rate)

	var billing billingJSON
	if err := json.Unmarshal([]byte(billingStr), &billing); err != nil {
		return nil, fmt.Errorf("corrupt billing snapshot for reservation %s: %w", r.ID, err)
	}
	r.Billing = pms.BillingSnapshot{
		Currency:    billing.Currency,
		TotalAmount: billing.TotalAmount,
		BalanceDue:  billing.BalanceDue,
	}
	for _, c := range billing.Charges {
		r.Billing.Charges = append(r.Billing.Charges, pms.SnapshotCharge{
			Description: c.Description, Amount: c.Amount,
		})
	}

	if checkIn.Valid {
		t := parseTime(checkIn.String)
		r.CheckInAt = &t
	}
	if checkOut.Valid {
		t := parseTime(checkOut.String)
		r.CheckOutAt = &t
	}
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return &r, nil
}

// =============================================================================
// BILLS
// =============================================================================

func (s *Store) GetBillByReservation(ctx context.Context, id pms.ReservationID) (*pms.Bill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, reservation_id, currency, created_at
		FROM bills WHERE reservation_id = ?`, string(id))

	var b pms.Bill
	var createdAt string
	err := row.Scan(&b.ID, &b.ReservationID, &b.Currency, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.CreatedAt = parseTime(createdAt)

	folioRows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at FROM folios
		WHERE bill_id = ? ORDER BY position`, string(b.ID))
	if err != nil {
		return nil, err
	}
	defer folioRows.Close()
	for folioRows.Next() {
		var f pms.Folio
		var fCreated string
		if err := folioRows.Scan(&f.ID, &f.Name, &fCreated); err != nil {
			return nil, err
		}
		f.CreatedAt = parseTime(fCreated)
		b.Folios = append(b.Folios, f)
	}
	if err := folioRows.Err(); err != nil {
		return nil, err
	}

	chargeRows, err := s.db.QueryContext(ctx, `
		SELECT id, folio_id, charge_type, description, amount, tax_amount,
		       total_amount, posted_at, metadata_json
		FROM charges WHERE bill_id = ? ORDER BY position`, string(b.ID))
	if err != nil {
		return nil, err
	}
	defer chargeRows.Close()
	for chargeRows.Next() {
		var c pms.Charge
		var amount, tax, total, postedAt string
		var metadata sql.NullString
		if err := chargeRows.Scan(&c.ID, &c.FolioID, &c.Type, &c.Description,
			&amount, &tax, &total, &postedAt, &metadata); err != nil {
			return nil, err
		}
		c.Amount = mustDecimal(amount)
		c.TaxAmount = mustDecimal(tax)
		c.TotalAmount = mustDecimal(total)
		c.PostedAt = parseTime(postedAt)
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &c.Metadata); err != nil {
				return nil, fmt.Errorf("corrupt charge metadata %s: %w", c.ID, err)
			}
		}
		b.Charges = append(b.Charges, c)
	}
	if err := chargeRows.Err(); err != nil {
		return nil, err
	}

	return &b, nil
}

func (s *Store) SaveBill(ctx context.Context, bill pms.Bill) error {
	return s.writeBill(ctx, bill)
}

func (s *Store) UpdateBill(ctx context.Context, bill pms.Bill) error {
	return s.writeBill(ctx, bill)
}

// writeBill replaces the whole bill record (header, folios, charges) in
// one database transaction; whole-record update semantics, like the other
// repositories.
func (s *Store) writeBill(ctx context.Context, bill pms.Bill) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO bills (id, reservation_id, currency, created_at)
		VALUES (?, ?, ?, ?)`,
		string(bill.ID), string(bill.ReservationID), bill.Currency, formatTime(bill.CreatedAt)); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM folios WHERE bill_id = ?`, string(bill.ID)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM charges WHERE bill_id = ?`, string(bill.ID)); err != nil {
		return err
	}

	for i, f := range bill.Folios {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO folios (id, bill_id, name, position, created_at)
			VALUES (?, ?, ?, ?, ?)`,
			string(f.ID), string(bill.ID), f.Name, i, formatTime(f.CreatedAt)); err != nil {
			return err
		}
	}

	for i, c := range bill.Charges {
		var metadata any
		if len(c.Metadata) > 0 {
			bytes, err := json.Marshal(c.Metadata)
			if err != nil {
				return err
			}
			metadata = string(bytes)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO charges
			(id, bill_id, folio_id, charge_type, description, amount, tax_amount,
			 total_amount, posted_at, metadata_json, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			string(c.ID), string(bill.ID), string(c.FolioID), string(c.Type),
			c.Description, c.Amount.String(), c.TaxAmount.String(), c.TotalAmount.String(),
			formatTime(c.PostedAt), metadata, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// =============================================================================
// PAYMENTS (append-only)
// =============================================================================

func (s *Store) AppendPayment(ctx context.Context, p pms.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ReceivedAt.IsZero() {
		p.ReceivedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments
		(id, reservation_id, folio_id, amount, currency, mode, reference, received_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(p.ID), string(p.ReservationID), string(p.FolioID),
		p.Amount.String(), p.Currency, string(p.Mode), p.Reference,
		formatTime(p.ReceivedAt))
	return err
}

func (s *Store) ListPayments(ctx context.Context, id pms.ReservationID) ([]pms.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, reservation_id, folio_id, amount, currency, mode, reference, received_at
		FROM payments WHERE reservation_id = ? ORDER BY received_at, id`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []pms.Payment
	for rows.Next() {
		var p pms.Payment
		var amount, receivedAt string
		if err := rows.Scan(&p.ID, &p.ReservationID, &p.FolioID,
			&amount, &p.Currency, &p.Mode, &p.Reference, &receivedAt); err != nil {
			return nil, err
		}
		p.Amount = mustDecimal(amount)
		p.ReceivedAt = parseTime(receivedAt)
		result = append(result, p)
	}
	return result, rows.Err()
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}
