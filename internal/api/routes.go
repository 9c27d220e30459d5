package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hub-search/internal/db"
)

// NewRouter creates and configures the Chi router
func NewRouter(database *db.DB) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(Logger)
	r.Use(CORS)

	// Create handlers
	h := NewHandlers(database)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/communes", h.ListCommunes)
		r.Get("/parcels", h.ListParcels)
	})

	return r
}
