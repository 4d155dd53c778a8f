package dashboard

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/johnwards/dashgate/internal/api"
	"github.com/johnwards/dashgate/internal/store"
)

// Handler serves the dashboard endpoints.
type Handler struct {
	store *store.Store
}

type kpiResponse struct {
	SnapshotAt string          `json:"snapshotAt"`
	Data       []store.KPIItem `json:"data"`
}

// KPI handles GET /dashboard/kpi.
func (h *Handler) KPI(w http.ResponseWriter, r *http.Request) {
	at, items, err := h.store.KPIs.Latest(r.Context(), api.TenantID(r.Context()))
	if err != nil {
		api.Internal(w, "kpi_failed", "failed to load kpi snapshot")
		return
	}
	api.WriteJSON(w, http.StatusOK, kpiResponse{SnapshotAt: at, Data: items})
}

// Pipeline handles GET /dashboard/pipeline.
func (h *Handler) Pipeline(w http.ResponseWriter, r *http.Request) {
	stages, err := h.store.Opportunities.Pipeline(r.Context(), api.TenantID(r.Context()))
	if err != nil {
		api.Internal(w, "pipeline_failed", "failed to load pipeline")
		return
	}
	api.WriteData(w, http.StatusOK, stages)
}

// NextActions handles GET /opportunities/next-actions.
func (h *Handler) NextActions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.store.Opportunities.NextActions(r.Context(), api.TenantID(r.Context()))
	if err != nil {
		api.Internal(w, "next_actions_failed", "failed to load next actions")
		return
	}
	api.WriteData(w, http.StatusOK, actions)
}

type nextActionRequest struct {
	NextActionAt   string `json:"nextActionAt"`
	NextActionNote string `json:"nextActionNote"`
}

// UpdateNextAction handles PATCH /opportunities/{id}/next-action.
func (h *Handler) UpdateNextAction(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid_opportunity_id", "id must be UUID")
		return
	}

	var req nextActionRequest
	if err := api.ReadJSON(r, &req); err != nil {
		api.BadRequest(w, api.CodeInvalidJSON, "invalid json body")
		return
	}
	at, err := time.Parse(time.RFC3339, req.NextActionAt)
	if err != nil {
		api.BadRequest(w, "invalid_next_action_at", "nextActionAt must be RFC3339")
		return
	}

	opp, err := h.store.Opportunities.UpdateNextAction(r.Context(), api.TenantID(r.Context()),
		id.String(), at.UTC().Format(store.TimeLayout), req.NextActionNote)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			api.NotFound(w, "opportunity not found")
			return
		}
		api.Internal(w, "update_next_action_failed", "failed to update next action")
		return
	}
	api.WriteData(w, http.StatusOK, opp)
}
