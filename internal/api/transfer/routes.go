package transfer

import (
	"github.com/go-chi/chi/v5"

	"github.com/johnwards/dashgate/internal/store"
)

// RegisterRoutes adds the CSV import and export endpoints to r.
func RegisterRoutes(r chi.Router, s *store.Store) {
	h := &Handler{store: s}

	r.Get("/export/accounts.csv", h.ExportAccounts)
	r.Get("/export/opportunities.csv", h.ExportOpportunities)
	r.Post("/import/accounts.csv", h.ImportAccounts)
	r.Post("/import/opportunities.csv", h.ImportOpportunities)
}
