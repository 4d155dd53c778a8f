package integrations

import (
	"github.com/go-chi/chi/v5"

	"github.com/johnwards/dashgate/internal/store"
)

// RegisterRoutes adds the integration connection and event endpoints to r.
func RegisterRoutes(r chi.Router, s *store.Store) {
	h := &Handler{store: s}

	r.Route("/integrations", func(i chi.Router) {
		i.Get("/connections", h.ListConnections)
		i.Post("/connections", h.UpsertConnection)
		i.Get("/events", h.ListEvents)
		i.Post("/events", h.CreateEvent)
	})
}
