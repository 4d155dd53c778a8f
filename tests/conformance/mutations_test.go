package conformance_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/johnwards/dashgate/internal/contract"
	"github.com/johnwards/dashgate/internal/dashboard"
	"github.com/johnwards/dashgate/internal/seed"
)

func TestMutation_NextActionRereadShowsWrite(t *testing.T) {
	resetServer(t)

	actions, err := newClient(t).UpdateNextAction(context.Background(), dashboard.NextActionUpdate{
		ID:             uuid.MustParse(seed.OpportunityExpansion),
		NextActionAt:   "2030-03-04T05:06:07Z",
		NextActionNote: "board review",
	})
	if err != nil {
		t.Fatalf("UpdateNextAction() error: %v", err)
	}
	for _, a := range actions {
		if a.ID.String() != seed.OpportunityExpansion {
			continue
		}
		if a.NextActionNote != "board review" {
			t.Errorf("note: expected %q, got %q", "board review", a.NextActionNote)
		}
		if a.NextActionAt != "2030-03-04T05:06:07Z" {
			t.Errorf("nextActionAt: expected %q, got %q", "2030-03-04T05:06:07Z", a.NextActionAt)
		}
		return
	}
	t.Errorf("opportunity %s missing from refreshed next actions", seed.OpportunityExpansion)
}

func TestMutation_ConnectionUpsertKeepsOneRow(t *testing.T) {
	resetServer(t)
	ctx := context.Background()
	c := newClient(t)

	before, err := c.IntegrationConnections(ctx)
	if err != nil {
		t.Fatalf("IntegrationConnections() error: %v", err)
	}
	if len(before) == 0 {
		t.Fatal("expected a seeded connection")
	}
	seeded := before[0]
	revoked := string(contract.ConnectionRevoked)

	after, err := c.UpsertIntegrationConnection(ctx, dashboard.ConnectionUpsert{
		UserID:            seeded.UserID,
		Provider:          seeded.Provider,
		IntegrationType:   seeded.IntegrationType,
		ExternalAccountID: seeded.ExternalAccountID,
		Status:            &revoked,
	})
	if err != nil {
		t.Fatalf("UpsertIntegrationConnection() error: %v", err)
	}
	if len(after) != len(before) {
		t.Fatalf("expected upsert to keep %d connections, got %d", len(before), len(after))
	}
	for _, conn := range after {
		if conn.ID == seeded.ID && conn.Status != contract.ConnectionRevoked {
			t.Errorf("status: expected %q, got %q", contract.ConnectionRevoked, conn.Status)
		}
	}
}

func TestMutation_EventCreateAppearsFirst(t *testing.T) {
	resetServer(t)

	events, err := newClient(t).CreateIntegrationEvent(context.Background(), dashboard.EventCreate{
		Provider:        "microsoft",
		IntegrationType: "calendar",
		EventType:       "meeting_booked",
		Payload:         map[string]any{"subject": "QBR"},
		OccurredAt:      "2099-06-01T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("CreateIntegrationEvent() error: %v", err)
	}
	if len(events) < 2 {
		t.Fatalf("expected seeded and new events, got %d", len(events))
	}
	if events[0].EventType != "meeting_booked" {
		t.Errorf("first event: expected %q, got %q", "meeting_booked", events[0].EventType)
	}
	if events[0].Payload["subject"] != "QBR" {
		t.Errorf("payload: expected subject QBR, got %v", events[0].Payload)
	}
}

func TestMutation_ApprovalLifecycle(t *testing.T) {
	resetServer(t)
	ctx := context.Background()
	c := newClient(t)

	list, err := c.CreateApproval(ctx, dashboard.ApprovalCreate{
		EntityType:     "opportunity",
		EntityID:       uuid.MustParse(seed.OpportunityExpansion),
		RequestedBy:    uuid.MustParse(seed.OwnerSato),
		ApproverUserID: uuid.MustParse(seed.OwnerKato),
		Reason:         "multi-year discount",
	})
	if err != nil {
		t.Fatalf("CreateApproval() error: %v", err)
	}

	var created *contract.Approval
	for i := range list {
		if list[i].Reason == "multi-year discount" {
			created = &list[i]
		}
	}
	if created == nil {
		t.Fatal("new approval missing from refreshed list")
	}
	if created.Status != contract.ApprovalPending {
		t.Errorf("status: expected %q, got %q", contract.ApprovalPending, created.Status)
	}

	note := "within policy"
	list, err = c.DecideApproval(ctx, created.ID, dashboard.Decision{Status: contract.ApprovalApproved, DecisionNote: &note})
	if err != nil {
		t.Fatalf("DecideApproval() error: %v", err)
	}
	for _, a := range list {
		if a.ID != created.ID {
			continue
		}
		if a.Status != contract.ApprovalApproved {
			t.Errorf("status: expected %q, got %q", contract.ApprovalApproved, a.Status)
		}
		if a.DecidedAt == nil {
			t.Error("expected decidedAt to be set")
		} else {
			assertTimestamp(t, *a.DecidedAt)
		}
		if a.DecisionNote == nil || *a.DecisionNote != note {
			t.Errorf("decisionNote: expected %q, got %v", note, a.DecisionNote)
		}
	}
}
