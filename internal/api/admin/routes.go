package admin

import (
	"database/sql"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the admin endpoints. They sit outside /api/ and
// need no tenant header.
func RegisterRoutes(r chi.Router, db *sql.DB) {
	h := &Handler{db: db}

	r.Get("/livez", h.Live)
	r.Get("/readyz", h.Ready)
	r.Post("/_dashstub/reset", h.Reset)
	r.Post("/_dashstub/seed", h.SeedData)
}

// HealthPath is the liveness route under /api/v1. The tenant middleware
// exempts it.
const HealthPath = "/api/v1/health"

// RegisterHealth registers the liveness route on the /api/v1 subrouter.
func RegisterHealth(v1 chi.Router) {
	v1.Get("/health", (&Handler{}).Live)
}
