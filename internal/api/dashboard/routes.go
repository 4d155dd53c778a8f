package dashboard

import (
	"github.com/go-chi/chi/v5"

	"github.com/johnwards/dashgate/internal/store"
)

// RegisterRoutes adds the dashboard and next-action endpoints to r.
func RegisterRoutes(r chi.Router, s *store.Store) {
	h := &Handler{store: s}

	r.Get("/dashboard/kpi", h.KPI)
	r.Get("/dashboard/pipeline", h.Pipeline)
	r.Get("/opportunities/next-actions", h.NextActions)
	r.Patch("/opportunities/{id}/next-action", h.UpdateNextAction)
}
