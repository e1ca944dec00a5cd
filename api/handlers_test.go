/*
handlers_test.go - End-to-end tests through the HTTP surface

Drives the full front-desk flow over httptest with the in-memory store:
setup, booking, check-in, night charges, payments, check-out, invoice.
*/
package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harbor/stay-engine/api"
	"github.com/harbor/stay-engine/pms/store"
)

// =============================================================================
// TEST HARNESS
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	handler := api.NewHandler(store.NewMemory())
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, server *httptest.Server, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp.StatusCode, decoded
}

func doJSONList(t *testing.T, server *httptest.Server, path string) (int, []map[string]any) {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

// seedProperty creates the hotel (12% GST), one DELUXE room at 7500 and a
// guest, returning the room id.
func seedProperty(t *testing.T, server *httptest.Server) string {
	t.Helper()

	status, _ := doJSON(t, server, "POST", "/api/hotels", map[string]any{
		"id":           "hotel-1",
		"name":         "Harbor View",
		"currency":     "INR",
		"cgst_percent": "6",
		"sgst_percent": "6",
	})
	require.Equal(t, http.StatusCreated, status)

	status, room := doJSON(t, server, "POST", "/api/rooms", map[string]any{
		"id":           "room-1",
		"hotel_id":     "hotel-1",
		"number":       "101",
		"room_type":    "DELUXE",
		"nightly_rate": "7500",
	})
	require.Equal(t, http.StatusCreated, status)

	status, _ = doJSON(t, server, "POST", "/api/guests", map[string]any{
		"id":   "guest-1",
		"name": "Asha Rao",
	})
	require.Equal(t, http.StatusCreated, status)

	return room["id"].(string)
}

func createBooking(t *testing.T, server *httptest.Server) string {
	t.Helper()
	status, res := doJSON(t, server, "POST", "/api/reservations", map[string]any{
		"hotel_id":       "hotel-1",
		"guest_id":       "guest-1",
		"room_id":        "room-1",
		"arrival_date":   "2026-01-01",
		"departure_date": "2026-01-04",
		"adults":         2,
		"nightly_rate":   "7500",
		"rate_plan":      "BAR",
		"source":         "DIRECT",
	})
	require.Equal(t, http.StatusCreated, status, "body: %v", res)
	return res["id"].(string)
}

// =============================================================================
// FULL FRONT-DESK FLOW
// =============================================================================

func TestFrontDeskFlow_BookChargePayCheckout(t *testing.T) {
	// GIVEN: A DELUXE room at 7500/night, 12% GST
	// WHEN: Booking 3 nights, checking in, posting charges, paying in full
	// THEN: Grand total 25200, balance 0, check-out settles and dirties the room
	server := newTestServer(t)
	seedProperty(t, server)

	// Availability shows the room before booking.
	status, free := doJSONList(t, server, "/api/availability?hotel_id=hotel-1&arrival_date=2026-01-01&departure_date=2026-01-04")
	require.Equal(t, http.StatusOK, status)
	require.Len(t, free, 1)
	assert.Equal(t, "101", free[0]["number"])

	resID := createBooking(t, server)

	// The initial snapshot: 3 x 7500, fully due.
	status, res := doJSON(t, server, "GET", "/api/reservations/"+resID, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "CONFIRMED", res["status"])
	billing := res["billing"].(map[string]any)
	assert.Equal(t, "22500", billing["total_amount"])
	assert.Equal(t, "22500", billing["balance_due"])

	// Check in: reservation CHECKED_IN, room OCCUPIED.
	status, res = doJSON(t, server, "POST", "/api/reservations/"+resID+"/check-in", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "CHECKED_IN", res["status"])

	status, rooms := doJSONList(t, server, "/api/rooms?hotel_id=hotel-1")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OCCUPIED", rooms[0]["status"])

	// Post room charges for the whole stay: 3 x (7500 + 900 tax).
	status, posted := doJSON(t, server, "POST", "/api/reservations/"+resID+"/charges/room", nil)
	require.Equal(t, http.StatusOK, status)
	summary := posted["summary"].(map[string]any)
	totals := summary["totals"].(map[string]any)
	assert.Equal(t, "22500", totals["sub_total"])
	assert.Equal(t, "2700", totals["tax_total"])
	assert.Equal(t, "25200", totals["grand_total"])
	assert.Equal(t, "25200", totals["balance_due"])
	assert.Len(t, posted["added"].([]any), 3)

	// Re-posting is idempotent.
	status, reposted := doJSON(t, server, "POST", "/api/reservations/"+resID+"/charges/room", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, reposted["added"])

	// Pay in full by card.
	status, settled := doJSON(t, server, "POST", "/api/reservations/"+resID+"/payments", map[string]any{
		"payments": []map[string]any{
			{"amount": "25200", "mode": "CARD", "reference": "AUTH-1"},
		},
	})
	require.Equal(t, http.StatusOK, status)
	totals = settled["summary"].(map[string]any)["totals"].(map[string]any)
	assert.Equal(t, "0", totals["balance_due"])

	// The bill projection agrees.
	status, bill := doJSON(t, server, "GET", "/api/reservations/"+resID+"/bill", nil)
	require.Equal(t, http.StatusOK, status)
	totals = bill["totals"].(map[string]any)
	assert.Equal(t, "25200", totals["payments_total"])
	assert.Equal(t, "0", totals["balance_due"])

	// Check out: settlement snapshot plus the live ledger balance.
	status, out := doJSON(t, server, "POST", "/api/reservations/"+resID+"/check-out", map[string]any{})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "CHECKED_OUT", out["reservation"].(map[string]any)["status"])
	assert.Equal(t, float64(3), out["nights"])
	assert.Equal(t, "0", out["ledger_balance"])

	status, rooms = doJSONList(t, server, "/api/rooms?hotel_id=hotel-1")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "DIRTY", rooms[0]["status"])

	// Invoice survives checkout.
	status, invoice := doJSON(t, server, "GET", "/api/reservations/"+resID+"/invoice", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "INV-"+resID, invoice["number"])
	assert.Equal(t, "Asha Rao", invoice["guest_name"])
	assert.Len(t, invoice["charges"].([]any), 3)

	// Housekeeping returns the room to service.
	status, room := doJSON(t, server, "PUT", "/api/rooms/room-1/status", map[string]any{"status": "AVAILABLE"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "AVAILABLE", room["status"])
}

func TestCheckOut_LateFeeThroughAPI(t *testing.T) {
	server := newTestServer(t)
	seedProperty(t, server)
	resID := createBooking(t, server)

	status, _ := doJSON(t, server, "POST", "/api/reservations/"+resID+"/check-in", nil)
	require.Equal(t, http.StatusOK, status)

	status, out := doJSON(t, server, "POST", "/api/reservations/"+resID+"/check-out", map[string]any{
		"late_checkout": true,
		"extra_charges": []map[string]any{
			{"description": "Minibar", "amount": "450"},
		},
	})
	require.Equal(t, http.StatusOK, status)

	settlement := out["settlement"].(map[string]any)
	assert.Equal(t, "5625", settlement["late_fee"])
	assert.Equal(t, "28575", settlement["total_amount"])
	assert.Equal(t, "0", settlement["balance_due"])
}

// =============================================================================
// ERROR SURFACES
// =============================================================================

func TestCreateReservation_NoInventoryIsConflict(t *testing.T) {
	// Booking a type the hotel doesn't stock surfaces as 409.
	server := newTestServer(t)
	seedProperty(t, server)

	status, body := doJSON(t, server, "POST", "/api/reservations", map[string]any{
		"hotel_id":       "hotel-1",
		"guest_id":       "guest-1",
		"room_type":      "SUITE",
		"arrival_date":   "2026-01-01",
		"departure_date": "2026-01-04",
		"nightly_rate":   "15000",
		"rate_plan":      "BAR",
		"source":         "DIRECT",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, fmt.Sprint(body["details"]), "no rooms")
}

func TestCreateReservation_DoubleBookingIsConflict(t *testing.T) {
	server := newTestServer(t)
	seedProperty(t, server)
	createBooking(t, server)

	status, _ := doJSON(t, server, "POST", "/api/reservations", map[string]any{
		"hotel_id":       "hotel-1",
		"guest_id":       "guest-1",
		"room_id":        "room-1",
		"arrival_date":   "2026-01-02",
		"departure_date": "2026-01-05",
		"nightly_rate":   "7500",
		"rate_plan":      "BAR",
		"source":         "DIRECT",
	})
	assert.Equal(t, http.StatusConflict, status)
}

func TestDeleteReservation_CheckedInIsBadRequest(t *testing.T) {
	server := newTestServer(t)
	seedProperty(t, server)
	resID := createBooking(t, server)

	status, _ := doJSON(t, server, "POST", "/api/reservations/"+resID+"/check-in", nil)
	require.Equal(t, http.StatusOK, status)

	status, _ = doJSON(t, server, "DELETE", "/api/reservations/"+resID, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestDeleteReservation_ConfirmedSucceeds(t *testing.T) {
	server := newTestServer(t)
	seedProperty(t, server)
	resID := createBooking(t, server)

	status, _ := doJSON(t, server, "DELETE", "/api/reservations/"+resID, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = doJSON(t, server, "GET", "/api/reservations/"+resID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGetReservation_UnknownIsNotFound(t *testing.T) {
	server := newTestServer(t)
	seedProperty(t, server)

	status, _ := doJSON(t, server, "GET", "/api/reservations/res-missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestUpdateReservation_StatusOnlyPath(t *testing.T) {
	// A status update through PUT stamps the timestamp but leaves the room
	// untouched; only the check-in endpoint occupies the room.
	server := newTestServer(t)
	seedProperty(t, server)
	resID := createBooking(t, server)

	status, res := doJSON(t, server, "PUT", "/api/reservations/"+resID, map[string]any{
		"status": "CHECKED_IN",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "CHECKED_IN", res["status"])
	assert.NotEmpty(t, res["check_in_at"])

	_, rooms := doJSONList(t, server, "/api/rooms?hotel_id=hotel-1")
	assert.Equal(t, "AVAILABLE", rooms[0]["status"])
}

func TestPostRoomCharges_NightOutsideStayIsBadRequest(t *testing.T) {
	server := newTestServer(t)
	seedProperty(t, server)
	resID := createBooking(t, server)

	status, _ := doJSON(t, server, "POST", "/api/reservations/"+resID+"/charges/room", map[string]any{
		"nights": []string{"2026-01-04"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRoomStatus_IllegalTransitionIsBadRequest(t *testing.T) {
	server := newTestServer(t)
	seedProperty(t, server)

	// AVAILABLE -> OCCUPIED only happens through check-in.
	status, _ := doJSON(t, server, "PUT", "/api/rooms/room-1/status", map[string]any{
		"status": "OCCUPIED",
	})
	assert.Equal(t, http.StatusOK, status, "AVAILABLE -> OCCUPIED is in the table for direct housekeeping use")

	// OCCUPIED -> AVAILABLE is not.
	status, _ = doJSON(t, server, "PUT", "/api/rooms/room-1/status", map[string]any{
		"status": "AVAILABLE",
	})
	assert.Equal(t, http.StatusBadRequest, status)
}
