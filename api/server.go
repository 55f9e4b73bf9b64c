/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the front-desk UI

ROUTE GROUPS:
  /api/reservations/*   Reservation lifecycle
  /api/groups/*         Group bookings
  /api/folios/*         Folios and their transactions
  /api/transactions/*   Void, delete, move, mirror
  /api/ledgers/*        City and guest ledgers
  /api/admin/*          Night audit
  /api/scenarios/*      Demo scenarios
  /api/...              Catalog records (rooms, items, guests, ...)

SECURITY NOTE:
  No authentication middleware. The X-User-ID and X-User-Roles headers are
  trusted as given; put the service behind a gateway that sets them.

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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-User-ID", "X-User-Roles"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/reservations", func(r chi.Router) {
			r.Post("/", h.CreateReservation)
			r.Get("/{id}", h.GetReservation)
			r.Put("/{id}", h.UpdateReservation)
			r.Post("/{id}/check-in", h.CheckIn)
			r.Post("/{id}/check-out", h.CheckOut)
			r.Post("/{id}/cancel", h.CancelReservation)
			r.Post("/{id}/move", h.MoveRoom)
			r.Get("/{id}/rate", h.GetRate)
		})
		r.Post("/availability", h.CheckAvailability)
		r.Post("/rate-plans", h.SaveRatePlan)

		r.Route("/groups", func(r chi.Router) {
			r.Post("/", h.CreateGroup)
			r.Post("/{id}/status", h.SetGroupStatus)
			r.Post("/{id}/master-folio", h.CreateGroupMasterFolio)
			r.Post("/{id}/reservations", h.AddGroupReservations)
			r.Post("/{id}/check-in", h.MassCheckIn)
			r.Post("/{id}/check-out", h.MassCheckOut)
		})

		r.Route("/folios", func(r chi.Router) {
			r.Get("/{id}", h.GetFolio)
			r.Delete("/{id}", h.DeleteFolio)
			r.Get("/{id}/transactions", h.ListTransactions)
			r.Post("/{id}/transactions", h.PostTransaction)
			r.Post("/{id}/open", h.OpenFolio())
			r.Post("/{id}/close", h.CloseFolio())
			r.Post("/{id}/cancel", h.CancelFolio())
			r.Post("/{id}/invoice", h.CreateInvoice)
			r.Post("/{id}/recompute", h.Recompute)
		})

		r.Route("/transactions", func(r chi.Router) {
			r.Post("/move", h.MoveTransactions)
			r.Put("/{id}", h.UpdateTransaction)
			r.Post("/{id}/void", h.VoidTransaction)
			r.Post("/{id}/mirror", h.MirrorTransaction)
			r.Delete("/{id}", h.DeleteTransaction)
		})

		r.Post("/pos-sales", h.PostPOSSale)
		r.Post("/payments", h.PostPayment)

		r.Route("/ledgers", func(r chi.Router) {
			r.Get("/city", h.CityLedger)
			r.Get("/guest", h.GuestLedger)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/night-audit", h.RunNightAudit)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Post("/load", h.LoadScenario)
		})

		// Catalog
		r.Put("/rooms/{id}", h.PutRoom())
		r.Put("/room-types/{id}", h.PutRoomType())
		r.Put("/items/{code}", h.PutItem())
		r.Put("/guests/{id}", h.PutGuest())
		r.Put("/companies/{id}", h.PutCompany())
		r.Put("/reasons/{code}", h.PutAllowanceReason())
	})

	return r
}
