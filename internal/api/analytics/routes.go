package analytics

import (
	"github.com/go-chi/chi/v5"

	"github.com/johnwards/dashgate/internal/store"
)

// RegisterRoutes adds the analytics endpoints to r.
func RegisterRoutes(r chi.Router, s *store.Store) {
	h := &Handler{store: s}

	r.Route("/analytics", func(a chi.Router) {
		a.Get("/deal-health", h.DealHealth)
		a.Get("/forecast", h.Forecast)
		a.Get("/loss-reasons", h.LossReasons)
		a.Get("/duplicates", h.Duplicates)
	})
}
