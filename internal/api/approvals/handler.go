package approvals

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/johnwards/dashgate/internal/api"
	"github.com/johnwards/dashgate/internal/store"
)

// Handler serves the approval endpoints.
type Handler struct {
	store *store.Store
}

type createRequest struct {
	EntityType     string `json:"entityType"`
	EntityID       string `json:"entityId"`
	RequestedBy    string `json:"requestedBy"`
	ApproverUserID string `json:"approverUserId"`
	Reason         string `json:"reason"`
}

// Create handles POST /approvals. New requests are always pending.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := api.ReadJSON(r, &req); err != nil {
		api.BadRequest(w, api.CodeInvalidJSON, "invalid json body")
		return
	}

	ids := []struct {
		raw, code, msg string
	}{
		{req.EntityID, "invalid_entity_id", "entityId must be UUID"},
		{req.RequestedBy, "invalid_requested_by", "requestedBy must be UUID"},
		{req.ApproverUserID, "invalid_approver", "approverUserId must be UUID"},
	}
	parsed := make([]string, len(ids))
	for i, id := range ids {
		u, err := uuid.Parse(id.raw)
		if err != nil {
			api.BadRequest(w, id.code, id.msg)
			return
		}
		parsed[i] = u.String()
	}

	a, err := h.store.Approvals.Create(r.Context(), api.TenantID(r.Context()), store.Approval{
		EntityType:     req.EntityType,
		EntityID:       parsed[0],
		RequestedBy:    parsed[1],
		ApproverUserID: parsed[2],
		Reason:         req.Reason,
	})
	if err != nil {
		api.Internal(w, "approval_create_failed", "failed to create approval request")
		return
	}
	api.WriteData(w, http.StatusCreated, a)
}

// List handles GET /approvals. An optional ?status= narrows the result.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	status := strings.ToLower(r.URL.Query().Get("status"))
	switch status {
	case "", store.ApprovalPending, store.ApprovalApproved, store.ApprovalRejected:
	default:
		api.BadRequest(w, "invalid_status", "status must be pending, approved, or rejected")
		return
	}

	all, err := h.store.Approvals.List(r.Context(), api.TenantID(r.Context()))
	if err != nil {
		api.Internal(w, "approval_list_failed", "failed to load approvals")
		return
	}
	if status != "" {
		filtered := all[:0]
		for _, a := range all {
			if a.Status == status {
				filtered = append(filtered, a)
			}
		}
		all = filtered
	}
	api.WriteData(w, http.StatusOK, all)
}

type decisionRequest struct {
	Status       string `json:"status"`
	DecisionNote string `json:"decisionNote"`
}

// Decide handles POST /approvals/{id}/decision. Only approved and rejected
// are accepted, and only a pending request can be decided.
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		api.BadRequest(w, "invalid_approval_id", "id must be UUID")
		return
	}

	var req decisionRequest
	if err := api.ReadJSON(r, &req); err != nil {
		api.BadRequest(w, api.CodeInvalidJSON, "invalid json body")
		return
	}
	status := strings.ToLower(req.Status)
	if status != store.ApprovalApproved && status != store.ApprovalRejected {
		api.BadRequest(w, "invalid_status", "status must be approved or rejected")
		return
	}

	a, err := h.store.Approvals.Decide(r.Context(), api.TenantID(r.Context()), id.String(), status, req.DecisionNote)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			api.NotFound(w, "approval request not found")
		case errors.Is(err, store.ErrConflict):
			api.WriteError(w, http.StatusConflict, api.CodeConflict, "approval request already decided")
		default:
			api.Internal(w, "approval_decision_failed", "failed to decide approval")
		}
		return
	}
	api.WriteData(w, http.StatusOK, a)
}
