/*
handlers.go - HTTP API handlers for the booking and financial core

PURPOSE:
  Exposes the booking and ledger services via REST. Handles HTTP
  request/response and JSON serialization; all business rules live in the
  booking and ledger packages.

ERROR HANDLING:
  Domain errors carry a kind; pms.StatusCode maps it to the HTTP status:
  - 400: validation and state errors
  - 404: missing records
  - 409: availability conflicts
  - 500: everything else
  The kind's message is surfaced verbatim in the details field.

SEE ALSO:
  - dto.go:    request/response data structures
  - server.go: router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/harbor/stay-engine/booking"
	"github.com/harbor/stay-engine/ledger"
	"github.com/harbor/stay-engine/pms"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   pms.Store
	Booking *booking.Service
	Ledger  *ledger.Ledger
}

// NewHandler wires the services over the given store.
func NewHandler(store pms.Store) *Handler {
	return &Handler{
		Store:   store,
		Booking: booking.NewService(store),
		Ledger:  ledger.New(store),
	}
}

// =============================================================================
// HOTEL / ROOM / GUEST SETUP
// =============================================================================

func (h *Handler) CreateHotel(w http.ResponseWriter, r *http.Request) {
	var req CreateHotelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Currency == "" {
		writeError(w, http.StatusBadRequest, "id and currency are required", nil)
		return
	}

	hotel := pms.Hotel{
		ID:       pms.HotelID(req.ID),
		Name:     req.Name,
		Address:  req.Address,
		Currency: req.Currency,
		Tax: pms.TaxConfig{
			CGSTPercent:          req.CGSTPercent,
			SGSTPercent:          req.SGSTPercent,
			IGSTPercent:          req.IGSTPercent,
			ServiceChargePercent: req.ServiceChargePercent,
			LuxuryTaxPercent:     req.LuxuryTaxPercent,
		},
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SaveHotel(r.Context(), hotel); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create hotel", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id := req.ID
	if id == "" {
		id = pms.NewID()
	}
	room := pms.Room{
		ID:          pms.RoomID(id),
		HotelID:     pms.HotelID(req.HotelID),
		Number:      req.Number,
		RoomType:    req.RoomType,
		Status:      pms.RoomAvailable,
		NightlyRate: req.NightlyRate,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := h.Store.SaveRoom(r.Context(), room); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create room", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRoomDTO(room))
}

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	hotelID := pms.HotelID(r.URL.Query().Get("hotel_id"))
	rooms, err := h.Store.ListRooms(r.Context(), hotelID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rooms", err)
		return
	}
	dtos := make([]RoomDTO, 0, len(rooms))
	for _, room := range rooms {
		dtos = append(dtos, toRoomDTO(room))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SetRoomStatus is the housekeeping entry point.
func (h *Handler) SetRoomStatus(w http.ResponseWriter, r *http.Request) {
	id := pms.RoomID(chi.URLParam(r, "id"))
	var req RoomStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	room, err := h.Booking.SetRoomStatus(r.Context(), id, pms.RoomStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDTO(*room))
}

func (h *Handler) CreateGuest(w http.ResponseWriter, r *http.Request) {
	var req CreateGuestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	id := req.ID
	if id == "" {
		id = pms.NewID()
	}
	guest := pms.Guest{
		ID:        pms.GuestID(id),
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Store.SaveGuest(r.Context(), guest); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create guest", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// =============================================================================
// AVAILABILITY
// =============================================================================

// GetAvailability lists free rooms for a range, optionally by type.
// GET /api/availability?hotel_id=&arrival_date=&departure_date=&room_type=
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	arrival, err := pms.ParseDate(q.Get("arrival_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid arrival_date", err)
		return
	}
	departure, err := pms.ParseDate(q.Get("departure_date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid departure_date", err)
		return
	}

	rooms, err := h.Booking.Resolver().FreeRooms(r.Context(),
		pms.HotelID(q.Get("hotel_id")), q.Get("room_type"), arrival, departure)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]RoomDTO, 0, len(rooms))
	for _, room := range rooms {
		dtos = append(dtos, toRoomDTO(room))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// RESERVATION LIFECYCLE
// =============================================================================

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req CreateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	arrival, err := pms.ParseDate(req.Arrival)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid arrival_date", err)
		return
	}
	departure, err := pms.ParseDate(req.Departure)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid departure_date", err)
		return
	}

	res, err := h.Booking.CreateReservation(r.Context(), booking.CreateReservationInput{
		HotelID:     pms.HotelID(req.HotelID),
		GuestID:     pms.GuestID(req.GuestID),
		RoomID:      pms.RoomID(req.RoomID),
		RoomType:    req.RoomType,
		Arrival:     arrival,
		Departure:   departure,
		Adults:      req.Adults,
		Children:    req.Children,
		NightlyRate: req.NightlyRate,
		RatePlan:    pms.RatePlan(req.RatePlan),
		Source:      pms.BookingSource(req.Source),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReservationDTO(*res))
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id := pms.ReservationID(chi.URLParam(r, "id"))
	res, err := h.Store.GetReservation(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get reservation", err)
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "Reservation not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*res))
}

func (h *Handler) ListReservations(w http.ResponseWriter, r *http.Request) {
	all, err := h.Store.ListReservations(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list reservations", err)
		return
	}
	dtos := make([]ReservationDTO, 0, len(all))
	for _, res := range all {
		dtos = append(dtos, toReservationDTO(res))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	id := pms.ReservationID(chi.URLParam(r, "id"))
	var req UpdateReservationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := booking.UpdateReservationInput{
		Adults:      req.Adults,
		Children:    req.Children,
		NightlyRate: req.NightlyRate,
	}
	if req.RoomID != nil {
		roomID := pms.RoomID(*req.RoomID)
		in.RoomID = &roomID
	}
	if req.RoomType != nil {
		in.RoomType = req.RoomType
	}
	if req.Arrival != nil {
		arrival, err := pms.ParseDate(*req.Arrival)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid arrival_date", err)
			return
		}
		in.Arrival = &arrival
	}
	if req.Departure != nil {
		departure, err := pms.ParseDate(*req.Departure)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid departure_date", err)
			return
		}
		in.Departure = &departure
	}
	if req.RatePlan != nil {
		plan := pms.RatePlan(*req.RatePlan)
		in.RatePlan = &plan
	}
	if req.Source != nil {
		source := pms.BookingSource(*req.Source)
		in.Source = &source
	}
	if req.Status != nil {
		status := pms.ReservationStatus(*req.Status)
		in.Status = &status
	}

	res, err := h.Booking.UpdateReservation(r.Context(), id, in)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*res))
}

func (h *Handler) DeleteReservation(w http.ResponseWriter, r *http.Request) {
	id := pms.ReservationID(chi.URLParam(r, "id"))
	if err := h.Booking.DeleteReservation(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AssignRoom(w http.ResponseWriter, r *http.Request) {
	id := pms.ReservationID(chi.URLParam(r, "id"))
	var req AssignRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	res, err := h.Booking.AssignRoom(r.Context(), id, pms.RoomID(req.RoomID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*res))
}

func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	id := pms.ReservationID(chi.URLParam(r, "id"))
	var req CheckInRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}
	res, err := h.Booking.CheckIn(r.Context(), id, pms.RoomID(req.RoomID))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReservationDTO(*res))
}

func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	id := pms.ReservationID(chi.URLParam(r, "id"))
	var req CheckOutRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}
	extras := make([]pms.ExtraCharge, 0, len(req.ExtraCharges))
	for _, e := range req.ExtraCharges {
		extras = append(extras, pms.ExtraCharge{Description: e.Description, Amount: e.Amount})
	}

	result, err := h.Booking.CheckOut(r.Context(), id, req.LateCheckout, extras)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, CheckOutResponse{
		Reservation:   toReservationDTO(result.Reservation),
		Settlement:    toSettlementDTO(result.Settlement),
		Nights:        result.Nights,
		LedgerBalance: result.LedgerBalance.String(),
	})
}

// =============================================================================
// LEDGER
// =============================================================================

func (h *Handler) PostRoomCharges(w http.ResponseWriter, r *http.Request) {
	id := pms.ReservationID(chi.URLParam(r, "id"))
	var req PostRoomChargesRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}
	var nights []pms.Date
	for _, s := range req.Nights {
		night, err := pms.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid night date", err)
			return
		}
		nights = append(nights, night)
	}

	result, err := h.Ledger.PostRoomCharges(r.Context(), id, nights,
		ledger.FolioRef{ID: pms.FolioID(req.FolioID), Name: req.FolioName})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	added := make([]ChargeDTO, 0, len(result.Added))
	for _, c := range result.Added {
		added = append(added, toChargeDTO(c))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": toBillSummaryDTO(result.Summary),
		"added":   added,
	})
}

func (h *Handler) AddAddonCharge(w http.ResponseWriter, r *http.Request) {
	id := pms.ReservationID(chi.URLParam(r, "id"))
	var req AddonChargeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.Ledger.AddAddonCharge(r.Context(), id, ledger.AddonChargeInput{
		Description: req.Description,
		Amount:      req.Amount,
		Quantity:    req.Quantity,
		Folio:       ledger.FolioRef{ID: pms.FolioID(req.FolioID), Name: req.FolioName},
		Metadata:    req.Metadata,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary": toBillSummaryDTO(result.Summary),
		"charge":  toChargeDTO(result.Charge),
	})
}

func (h *Handler) SettleBill(w http.ResponseWriter, r *http.Request) {
	id := pms.ReservationID(chi.URLParam(r, "id"))
	var req SettleBillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	payments := make([]ledger.PaymentInput, 0, len(req.Payments))
	for _, p := range req.Payments {
		payments = append(payments, ledger.PaymentInput{
			Amount:    p.Amount,
			Mode:      pms.PaymentMode(p.Mode),
			Reference: p.Reference,
			Folio:     ledger.FolioRef{ID: pms.FolioID(p.FolioID), Name: p.FolioName},
		})
	}

	result, err := h.Ledger.SettleBill(r.Context(), id, payments)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	recorded := make([]PaymentDTO, 0, len(result.Payments))
	for _, p := range result.Payments {
		recorded = append(recorded, toPaymentDTO(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":  toBillSummaryDTO(result.Summary),
		"payments": recorded,
	})
}

func (h *Handler) GetBillSummary(w http.ResponseWriter, r *http.Request) {
	id := pms.ReservationID(chi.URLParam(r, "id"))
	summary, err := h.Ledger.GetBillSummary(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBillSummaryDTO(*summary))
}

func (h *Handler) GenerateInvoice(w http.ResponseWriter, r *http.Request) {
	id := pms.ReservationID(chi.URLParam(r, "id"))
	invoice, err := h.Ledger.GenerateInvoice(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toInvoiceDTO(*invoice))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError surfaces the error kind and message verbatim, with the
// status class the kind maps to.
func writeDomainError(w http.ResponseWriter, err error) {
	status := pms.StatusCode(err)
	message := "Internal error"
	if pms.IsClientError(err) {
		message = "Request rejected"
	}
	writeError(w, status, message, err)
}
