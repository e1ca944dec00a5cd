/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for front-desk clients

ROUTE GROUPS:
  /api/hotels/*         Property setup
  /api/rooms/*          Room inventory and housekeeping status
  /api/guests/*         Guest profiles
  /api/availability     Free-room lookup
  /api/reservations/*   Reservation lifecycle and billing

SECURITY NOTE:
  No authentication middleware currently. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Property setup
		r.Route("/hotels", func(r chi.Router) {
			r.Post("/", h.CreateHotel)
		})

		// Room inventory and housekeeping
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", h.ListRooms)
			r.Post("/", h.CreateRoom)
			r.Put("/{id}/status", h.SetRoomStatus)
		})

		// Guest profiles
		r.Route("/guests", func(r chi.Router) {
			r.Post("/", h.CreateGuest)
		})

		// Availability lookup
		r.Get("/availability", h.GetAvailability)

		// Reservation lifecycle and billing
		r.Route("/reservations", func(r chi.Router) {
			r.Get("/", h.ListReservations)
			r.Post("/", h.CreateReservation)
			r.Get("/{id}", h.GetReservation)
			r.Put("/{id}", h.UpdateReservation)
			r.Delete("/{id}", h.DeleteReservation)

			r.Post("/{id}/assign-room", h.AssignRoom)
			r.Post("/{id}/check-in", h.CheckIn)
			r.Post("/{id}/check-out", h.CheckOut)

			r.Post("/{id}/charges/room", h.PostRoomCharges)
			r.Post("/{id}/charges/addon", h.AddAddonCharge)
			r.Post("/{id}/payments", h.SettleBill)
			r.Get("/{id}/bill", h.GetBillSummary)
			r.Get("/{id}/invoice", h.GenerateInvoice)
		})
	})

	return r
}
