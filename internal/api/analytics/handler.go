package analytics

import (
	"context"
	"net/http"

	"github.com/johnwards/dashgate/internal/api"
	"github.com/johnwards/dashgate/internal/store"
)

// Handler serves the read-only analytics endpoints.
type Handler struct {
	store *store.Store
}

// serve writes the list load returns, or a 500 with code.
func serve[T any](w http.ResponseWriter, r *http.Request, code string, load func(context.Context, string) ([]T, error)) {
	rows, err := load(r.Context(), api.TenantID(r.Context()))
	if err != nil {
		api.Internal(w, code, "failed to load analytics")
		return
	}
	api.WriteData(w, http.StatusOK, rows)
}

// DealHealth handles GET /analytics/deal-health.
func (h *Handler) DealHealth(w http.ResponseWriter, r *http.Request) {
	serve(w, r, "deal_health_failed", h.store.Opportunities.DealHealth)
}

// Forecast handles GET /analytics/forecast.
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	serve(w, r, "forecast_failed", h.store.Opportunities.Forecast)
}

// LossReasons handles GET /analytics/loss-reasons.
func (h *Handler) LossReasons(w http.ResponseWriter, r *http.Request) {
	serve(w, r, "loss_reason_failed", h.store.Opportunities.LossReasons)
}

// Duplicates handles GET /analytics/duplicates.
func (h *Handler) Duplicates(w http.ResponseWriter, r *http.Request) {
	serve(w, r, "duplicates_failed", h.store.Accounts.Duplicates)
}
