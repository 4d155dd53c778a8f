package contract

import "github.com/google/uuid"

// Stage is an opportunity pipeline stage.
type Stage string

// Pipeline stages, in funnel order.
const (
	StageNewLead     Stage = "new_lead"
	StageQualified   Stage = "qualified"
	StageProposal    Stage = "proposal"
	StageNegotiation Stage = "negotiation"
	StageClosedWon   Stage = "closed_won"
	StageClosedLost  Stage = "closed_lost"
)

// Stages returns every pipeline stage in funnel order.
func Stages() []Stage {
	return []Stage{StageNewLead, StageQualified, StageProposal, StageNegotiation, StageClosedWon, StageClosedLost}
}

func stageNames() []string {
	stages := Stages()
	out := make([]string, len(stages))
	for i, s := range stages {
		out[i] = string(s)
	}
	return out
}

// ApprovalStatus is the lifecycle state of an approval request. Pending moves
// to Approved or Rejected exactly once.
type ApprovalStatus string

// Approval states.
const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// Terminal reports whether no further decision may be recorded.
func (s ApprovalStatus) Terminal() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// ConnectionStatus is the state the server reports for an integration.
type ConnectionStatus string

// Known connection states. The contract still accepts any string.
const (
	ConnectionActive  ConnectionStatus = "active"
	ConnectionRevoked ConnectionStatus = "revoked"
	ConnectionError   ConnectionStatus = "error"
)

// Known reports whether s is one of the documented connection states.
func (s ConnectionStatus) Known() bool {
	switch s {
	case ConnectionActive, ConnectionRevoked, ConnectionError:
		return true
	}
	return false
}

// KPIItem is one metric of a KPI snapshot.
type KPIItem struct {
	MetricKey   string         `json:"metricKey"`
	MetricValue float64        `json:"metricValue"`
	Dimensions  map[string]any `json:"dimensions,omitempty"`
}

// KPISnapshot is the latest KPI snapshot for the tenant.
type KPISnapshot struct {
	SnapshotAt string    `json:"snapshotAt"`
	Data       []KPIItem `json:"data"`
}

// PipelineStage aggregates the deals in one stage.
type PipelineStage struct {
	Stage       Stage   `json:"stage"`
	Count       int64   `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}

// NextAction is an opportunity with a scheduled follow-up.
type NextAction struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Stage          string    `json:"stage"`
	AccountName    string    `json:"accountName"`
	NextActionAt   string    `json:"nextActionAt"`
	NextActionNote string    `json:"nextActionNote"`
}

// DealHealth is the server-computed health score of an open deal.
type DealHealth struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Stage          string    `json:"stage"`
	Probability    float64   `json:"probability"`
	Amount         float64   `json:"amount"`
	LastActivityAt string    `json:"lastActivityAt"`
	HealthScore    float64   `json:"healthScore"`
}

// ForecastRow is one owner/month forecast bucket. OwnerUserID is "" for
// deals without an owner.
//
// The contract does not require WeightedAmount <= PipelineAmount; see
// Overweighted.
type ForecastRow struct {
	OwnerUserID    string  `json:"ownerUserId"`
	Month          string  `json:"month"`
	DealCount      int64   `json:"dealCount"`
	PipelineAmount float64 `json:"pipelineAmount"`
	WeightedAmount float64 `json:"weightedAmount"`
}

// Unassigned reports whether the bucket has no owner.
func (r ForecastRow) Unassigned() bool {
	return r.OwnerUserID == ""
}

// Overweighted reports a weighted amount above the pipeline amount, which the
// server should never produce but the contract does not reject.
func (r ForecastRow) Overweighted() bool {
	return r.WeightedAmount > r.PipelineAmount
}

// LossReason aggregates closed-lost deals by reason code.
type LossReason struct {
	Reason     string  `json:"reason"`
	LostCount  int64   `json:"lostCount"`
	LostAmount float64 `json:"lostAmount"`
}

// DuplicateRecord is a candidate duplicate pair found by the server.
type DuplicateRecord struct {
	Type        string    `json:"type"`
	PrimaryID   uuid.UUID `json:"primaryId"`
	DuplicateID uuid.UUID `json:"duplicateId"`
	MatchValue  string    `json:"matchValue"`
}

// SelfMatch reports a pair whose two ids are the same record.
func (d DuplicateRecord) SelfMatch() bool {
	return d.PrimaryID == d.DuplicateID
}

// IntegrationConnection is a user's link to an external mail or calendar
// provider.
type IntegrationConnection struct {
	ID                uuid.UUID        `json:"id"`
	UserID            uuid.UUID        `json:"userId"`
	Provider          string           `json:"provider"`
	IntegrationType   string           `json:"integrationType"`
	ExternalAccountID string           `json:"externalAccountId"`
	Status            ConnectionStatus `json:"status"`
	Scopes            []string         `json:"scopes"`
	ExpiresAt         *string          `json:"expiresAt,omitempty"`
	UpdatedAt         string           `json:"updatedAt"`
}

// IntegrationEvent is an event received from an integration provider.
type IntegrationEvent struct {
	ID                  int64          `json:"id"`
	Provider            string         `json:"provider"`
	IntegrationType     string         `json:"integrationType"`
	ExternalEventID     *string        `json:"externalEventId,omitempty"`
	EventType           string         `json:"eventType"`
	Payload             map[string]any `json:"payload"`
	LinkedAccountID     *string        `json:"linkedAccountId,omitempty"`
	LinkedContactID     *string        `json:"linkedContactId,omitempty"`
	LinkedOpportunityID *string        `json:"linkedOpportunityId,omitempty"`
	OccurredAt          string         `json:"occurredAt"`
}

// Approval is an approval request and, once decided, its decision.
type Approval struct {
	ID             uuid.UUID      `json:"id"`
	EntityType     string         `json:"entityType"`
	EntityID       uuid.UUID      `json:"entityId"`
	RequestedBy    uuid.UUID      `json:"requestedBy"`
	ApproverUserID uuid.UUID      `json:"approverUserId"`
	Status         ApprovalStatus `json:"status"`
	Reason         string         `json:"reason"`
	DecisionNote   *string        `json:"decisionNote,omitempty"`
	DecidedAt      *string        `json:"decidedAt,omitempty"`
	CreatedAt      string         `json:"createdAt"`
}
