/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Structured request logging (logrus)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the frontend

ROUTE GROUPS:
  /api/entries/*        Ledger rows
  /api/settings/*       Carry-forward setting
  /ledger.xlsx          Workbook export
  /healthz              Liveness
  /                     Redirect to /api/entries

SECURITY NOTE:
  No authentication middleware. Deploy behind a trusted proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - commands/serve.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/warp/fund-ledger/logging"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, logger logrus.FieldLogger, origins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	r.Get("/", h.Root)
	r.Get("/healthz", h.Health)
	r.Get("/ledger.xlsx", h.ExportWorkbook)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/entries", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.CreateEntry)
			r.Get("/{id}", h.GetEntry)
			r.Put("/{id}", h.UpdateEntry)
			r.Delete("/{id}", h.DeleteEntry)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/carry", h.GetCarry)
			r.Put("/carry", h.UpdateCarry)
		})
	})

	return r
}
