package conformance_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/johnwards/dashgate/internal/dashboard"
	"github.com/johnwards/dashgate/internal/seed"
)

func TestTenancy_OtherTenantSeesNothing(t *testing.T) {
	resetServer(t)
	ctx := context.Background()
	other := dashboard.New(newGateway(t, otherTenant))

	deals, err := other.NextActions(ctx)
	if err != nil {
		t.Fatalf("NextActions() error: %v", err)
	}
	if len(deals) != 0 {
		t.Errorf("expected no next actions for another tenant, got %d", len(deals))
	}
	approvals, err := other.Approvals(ctx)
	if err != nil {
		t.Fatalf("Approvals() error: %v", err)
	}
	if len(approvals) != 0 {
		t.Errorf("expected no approvals for another tenant, got %d", len(approvals))
	}
}

func TestTenancy_CannotDecideForeignApproval(t *testing.T) {
	resetServer(t)

	other := dashboard.New(newGateway(t, otherTenant))
	_, err := other.DecideApproval(context.Background(), uuid.MustParse(seed.ApprovalDiscount),
		dashboard.Decision{Status: "approved"})
	if err == nil {
		t.Fatal("expected deciding another tenant's approval to fail")
	}

	resp := doRequest(t, http.MethodGet, "/api/v1/approvals?status=pending", seed.Tenant, nil)
	body := readJSON(t, resp)
	if n := len(assertIsArray(t, body, "data")); n != 1 {
		t.Errorf("expected the approval to stay pending, got %d pending", n)
	}
}
