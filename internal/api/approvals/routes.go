package approvals

import (
	"github.com/go-chi/chi/v5"

	"github.com/johnwards/dashgate/internal/store"
)

// RegisterRoutes adds the approval endpoints to r.
func RegisterRoutes(r chi.Router, s *store.Store) {
	h := &Handler{store: s}

	r.Route("/approvals", func(a chi.Router) {
		a.Get("/", h.List)
		a.Post("/", h.Create)
		a.Post("/{id}/decision", h.Decide)
	})
}
