package conformance_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/johnwards/dashgate/internal/dashboard"
	"github.com/johnwards/dashgate/internal/gateway"
	"github.com/johnwards/dashgate/internal/seed"
)

func TestError_MissingTenant(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodGet, "/api/v1/dashboard/kpi", "", nil)
	mustStatus(t, resp, http.StatusBadRequest)
	assertErrorEnvelope(t, readJSON(t, resp), "invalid_tenant_id")
}

func TestError_MalformedTenant(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodGet, "/api/v1/dashboard/kpi", "tenant-1", nil)
	mustStatus(t, resp, http.StatusBadRequest)
	assertErrorEnvelope(t, readJSON(t, resp), "invalid_tenant_id")
}

func TestError_UnknownRoute(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodGet, "/api/v1/nowhere", seed.Tenant, nil)
	mustStatus(t, resp, http.StatusNotFound)
	assertErrorEnvelope(t, readJSON(t, resp), "not_found")
}

func TestError_InvalidJSON(t *testing.T) {
	resetServer(t)

	req, err := http.NewRequest(http.MethodPost, apiURL()+"/approvals", bytes.NewReader([]byte("{invalid json")))
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	req.Header.Set(gateway.TenantHeader, seed.Tenant)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	mustStatus(t, resp, http.StatusBadRequest)
	assertErrorEnvelope(t, readJSON(t, resp), "invalid_json")
}

// The gateway surfaces a rejected write as an HTTPStatusError, and the
// client issues no refresh.
func TestError_RejectedWriteSurfacesStatus(t *testing.T) {
	resetServer(t)

	_, err := newClient(t).UpdateNextAction(context.Background(), dashboard.NextActionUpdate{
		ID:           uuid.MustParse("ffffffff-0000-4000-8000-000000000000"),
		NextActionAt: "2031-01-01T00:00:00Z",
	})
	var se *gateway.HTTPStatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected *gateway.HTTPStatusError, got %T: %v", err, err)
	}
	if se.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", se.StatusCode)
	}
	if errors.Is(err, dashboard.ErrStaleRead) {
		t.Error("a rejected write must not be reported as a stale read")
	}
}

func TestError_ConflictingDecision(t *testing.T) {
	resetServer(t)
	ctx := context.Background()
	client := newClient(t)
	id := uuid.MustParse(seed.ApprovalDiscount)

	if _, err := client.DecideApproval(ctx, id, dashboard.Decision{Status: "approved"}); err != nil {
		t.Fatalf("first decision: %v", err)
	}
	_, err := client.DecideApproval(ctx, id, dashboard.Decision{Status: "rejected"})
	var se *gateway.HTTPStatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 HTTPStatusError, got %v", err)
	}
}
