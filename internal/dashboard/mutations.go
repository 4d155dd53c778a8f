package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/johnwards/dashgate/internal/contract"
	"github.com/johnwards/dashgate/internal/gateway"
)

// ErrInvalidDecision is returned before any request when a decision status is
// not approved or rejected.
var ErrInvalidDecision = errors.New("decision status must be approved or rejected")

// NextActionUpdate reschedules an opportunity's follow-up.
type NextActionUpdate struct {
	ID             uuid.UUID `json:"id"`
	NextActionAt   string    `json:"nextActionAt"`
	NextActionNote string    `json:"nextActionNote"`
}

// ConnectionUpsert creates or replaces a provider connection, keyed by user,
// provider and integration type.
type ConnectionUpsert struct {
	UserID            uuid.UUID `json:"userId"`
	Provider          string    `json:"provider"`
	IntegrationType   string    `json:"integrationType"`
	ExternalAccountID string    `json:"externalAccountId"`
	Status            *string   `json:"status,omitempty"`
	Scopes            []string  `json:"scopes,omitempty"`
}

// EventCreate records a provider event.
type EventCreate struct {
	Provider        string         `json:"provider"`
	IntegrationType string         `json:"integrationType"`
	EventType       string         `json:"eventType"`
	Payload         map[string]any `json:"payload,omitempty"`
	OccurredAt      string         `json:"occurredAt"`
}

// ApprovalCreate opens a pending approval request.
type ApprovalCreate struct {
	EntityType     string    `json:"entityType"`
	EntityID       uuid.UUID `json:"entityId"`
	RequestedBy    uuid.UUID `json:"requestedBy"`
	ApproverUserID uuid.UUID `json:"approverUserId"`
	Reason         string    `json:"reason"`
}

// Decision approves or rejects a pending request.
type Decision struct {
	Status       contract.ApprovalStatus `json:"status"`
	DecisionNote *string                 `json:"decisionNote,omitempty"`
}

// UpdateNextAction patches the follow-up of u.ID and returns the refreshed
// next-actions list.
func (c *Client) UpdateNextAction(ctx context.Context, u NextActionUpdate) ([]contract.NextAction, error) {
	w := write{
		op:     "update next action",
		path:   "/opportunities/" + url.PathEscape(u.ID.String()) + "/next-action",
		method: gateway.Update,
		body:   u,
	}
	return writeThenRead(ctx, c, w, PathNextActions, contract.NextActions.DecodeList)
}

// UpsertIntegrationConnection writes in and returns the refreshed
// connections list.
func (c *Client) UpsertIntegrationConnection(ctx context.Context, in ConnectionUpsert) ([]contract.IntegrationConnection, error) {
	w := write{
		op:     "upsert integration connection",
		path:   PathIntegrationConnections,
		method: gateway.Create,
		body:   in,
	}
	return writeThenRead(ctx, c, w, PathIntegrationConnections, contract.IntegrationConnections.DecodeList)
}

// CreateIntegrationEvent records in and returns the refreshed events list.
func (c *Client) CreateIntegrationEvent(ctx context.Context, in EventCreate) ([]contract.IntegrationEvent, error) {
	w := write{
		op:     "create integration event",
		path:   PathIntegrationEvents,
		method: gateway.Create,
		body:   in,
	}
	return writeThenRead(ctx, c, w, PathIntegrationEvents, contract.IntegrationEvents.DecodeList)
}

// CreateApproval opens a request and returns the refreshed approvals list,
// which includes the new entry in pending state.
func (c *Client) CreateApproval(ctx context.Context, in ApprovalCreate) ([]contract.Approval, error) {
	w := write{
		op:     "create approval",
		path:   PathApprovals,
		method: gateway.Create,
		body:   in,
	}
	return writeThenRead(ctx, c, w, PathApprovals, contract.Approvals.DecodeList)
}

// DecideApproval records d against approval id and returns the refreshed
// approvals list.
func (c *Client) DecideApproval(ctx context.Context, id uuid.UUID, d Decision) ([]contract.Approval, error) {
	if d.Status != contract.ApprovalApproved && d.Status != contract.ApprovalRejected {
		return nil, fmt.Errorf("decide approval %s: %w (got %q)", id, ErrInvalidDecision, d.Status)
	}
	w := write{
		op:     "decide approval",
		path:   PathApprovals + "/" + url.PathEscape(id.String()) + "/decision",
		method: gateway.Create,
		body:   d,
	}
	return writeThenRead(ctx, c, w, PathApprovals, contract.Approvals.DecodeList)
}
