package integrations

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/johnwards/dashgate/internal/api"
	"github.com/johnwards/dashgate/internal/store"
)

// Handler serves the integration endpoints.
type Handler struct {
	store *store.Store
}

var (
	providers        = []string{"google", "microsoft"}
	integrationTypes = []string{"email", "calendar"}
	statuses         = []string{"active", "revoked", "error"}
)

// oneOf lower-cases raw and checks it against allowed.
func oneOf(field, raw string, allowed []string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("%s must be one of %s", field, strings.Join(allowed, ", "))
}

// timestamp accepts RFC 3339 or a bare date and returns it in store format.
// Blank input stays blank.
func timestamp(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC().Format(store.TimeLayout), nil
	}
	if d, err := time.Parse(time.DateOnly, raw); err == nil {
		return d.UTC().Format(store.TimeLayout), nil
	}
	return "", fmt.Errorf("invalid timestamp %q", raw)
}

type connectionRequest struct {
	UserID            string   `json:"userId"`
	Provider          string   `json:"provider"`
	IntegrationType   string   `json:"integrationType"`
	ExternalAccountID string   `json:"externalAccountId"`
	Status            string   `json:"status"`
	ExpiresAt         string   `json:"expiresAt"`
	Scopes            []string `json:"scopes"`
}

// UpsertConnection handles POST /integrations/connections.
func (h *Handler) UpsertConnection(w http.ResponseWriter, r *http.Request) {
	var req connectionRequest
	if err := api.ReadJSON(r, &req); err != nil {
		api.BadRequest(w, api.CodeInvalidJSON, "invalid json body")
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		api.BadRequest(w, "invalid_user_id", "userId must be UUID")
		return
	}
	provider, err := oneOf("provider", req.Provider, providers)
	if err != nil {
		api.BadRequest(w, "invalid_provider", err.Error())
		return
	}
	integrationType, err := oneOf("integrationType", req.IntegrationType, integrationTypes)
	if err != nil {
		api.BadRequest(w, "invalid_integration_type", err.Error())
		return
	}
	status := ""
	if req.Status != "" {
		if status, err = oneOf("status", req.Status, statuses); err != nil {
			api.BadRequest(w, "invalid_status", err.Error())
			return
		}
	}
	expiresAt, err := timestamp(req.ExpiresAt)
	if err != nil {
		api.BadRequest(w, "invalid_expires_at", "expiresAt must be RFC3339 or YYYY-MM-DD")
		return
	}

	conn, err := h.store.Integrations.UpsertConnection(r.Context(), api.TenantID(r.Context()), store.Connection{
		UserID:            userID.String(),
		Provider:          provider,
		IntegrationType:   integrationType,
		ExternalAccountID: req.ExternalAccountID,
		Status:            status,
		Scopes:            req.Scopes,
		ExpiresAt:         expiresAt,
	})
	if err != nil {
		api.Internal(w, "integration_upsert_failed", "failed to save integration")
		return
	}
	api.WriteData(w, http.StatusOK, conn)
}

// ListConnections handles GET /integrations/connections.
func (h *Handler) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := h.store.Integrations.ListConnections(r.Context(), api.TenantID(r.Context()))
	if err != nil {
		api.Internal(w, "integration_list_failed", "failed to load integrations")
		return
	}
	api.WriteData(w, http.StatusOK, conns)
}

type eventRequest struct {
	Provider            string         `json:"provider"`
	IntegrationType     string         `json:"integrationType"`
	ExternalEventID     string         `json:"externalEventId"`
	EventType           string         `json:"eventType"`
	Payload             map[string]any `json:"payload"`
	LinkedAccountID     string         `json:"linkedAccountId"`
	LinkedContactID     string         `json:"linkedContactId"`
	LinkedOpportunityID string         `json:"linkedOpportunityId"`
	OccurredAt          string         `json:"occurredAt"`
}

// optionalID canonicalises a blank-or-UUID link field.
func optionalID(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// CreateEvent handles POST /integrations/events.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := api.ReadJSON(r, &req); err != nil {
		api.BadRequest(w, api.CodeInvalidJSON, "invalid json body")
		return
	}

	provider, err := oneOf("provider", req.Provider, providers)
	if err != nil {
		api.BadRequest(w, "invalid_provider", err.Error())
		return
	}
	integrationType, err := oneOf("integrationType", req.IntegrationType, integrationTypes)
	if err != nil {
		api.BadRequest(w, "invalid_integration_type", err.Error())
		return
	}
	if strings.TrimSpace(req.EventType) == "" {
		api.BadRequest(w, "invalid_event_type", "eventType is required")
		return
	}
	occurredAt, err := timestamp(req.OccurredAt)
	if err != nil || occurredAt == "" {
		api.BadRequest(w, "invalid_occurred_at", "occurredAt must be RFC3339")
		return
	}

	e := store.Event{
		Provider:        provider,
		IntegrationType: integrationType,
		ExternalEventID: req.ExternalEventID,
		EventType:       req.EventType,
		Payload:         req.Payload,
		OccurredAt:      occurredAt,
	}
	links := []struct {
		raw  string
		dst  *string
		code string
	}{
		{req.LinkedAccountID, &e.LinkedAccountID, "invalid_linked_account_id"},
		{req.LinkedContactID, &e.LinkedContactID, "invalid_linked_contact_id"},
		{req.LinkedOpportunityID, &e.LinkedOpportunityID, "invalid_linked_opportunity_id"},
	}
	for _, l := range links {
		id, ok := optionalID(l.raw)
		if !ok {
			api.BadRequest(w, l.code, "linked ids must be UUID")
			return
		}
		*l.dst = id
	}

	created, err := h.store.Integrations.CreateEvent(r.Context(), api.TenantID(r.Context()), e)
	if err != nil {
		api.Internal(w, "integration_event_create_failed", "failed to create integration event")
		return
	}
	api.WriteData(w, http.StatusCreated, created)
}

// ListEvents handles GET /integrations/events.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.store.Integrations.ListEvents(r.Context(), api.TenantID(r.Context()))
	if err != nil {
		api.Internal(w, "integration_event_list_failed", "failed to load integration events")
		return
	}
	api.WriteData(w, http.StatusOK, events)
}
