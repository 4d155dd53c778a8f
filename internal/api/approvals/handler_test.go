package approvals_test

import (
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/johnwards/dashgate/internal/api/approvals"
	"github.com/johnwards/dashgate/internal/contract"
	"github.com/johnwards/dashgate/internal/seed"
	"github.com/johnwards/dashgate/internal/testhelpers"
)

func do(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	var rd io.Reader = http.NoBody
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Tenant-ID", seed.Tenant)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}

func list(t *testing.T, url string) []contract.Approval {
	t.Helper()
	status, body := do(t, http.MethodGet, url, "")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	raw, err := contract.Parse(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	out, err := contract.Approvals.DecodeList(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestCreateApprovalIsPending(t *testing.T) {
	srv, _ := testhelpers.NewAPIServer(t, approvals.RegisterRoutes)
	url := srv.URL + "/api/v1/approvals"

	body := `{"entityType":"opportunity","entityId":"` + seed.OpportunityPilot + `","requestedBy":"` +
		seed.OwnerTanaka + `","approverUserId":"` + seed.OwnerKato + `","reason":"extended trial"}`
	status, _ := do(t, http.MethodPost, url, body)
	if status != http.StatusCreated {
		t.Fatalf("status = %d, want %d", status, http.StatusCreated)
	}

	all := list(t, url)
	if len(all) != 2 {
		t.Fatalf("approvals = %d, want 2", len(all))
	}
	for _, a := range all {
		if a.Reason == "extended trial" && a.Status != contract.ApprovalPending {
			t.Errorf("status = %q, want %q", a.Status, contract.ApprovalPending)
		}
	}
}

func TestCreateApprovalRejectsBadIDs(t *testing.T) {
	srv, _ := testhelpers.NewAPIServer(t, approvals.RegisterRoutes)

	body := `{"entityType":"opportunity","entityId":"nope","requestedBy":"` + seed.OwnerSato +
		`","approverUserId":"` + seed.OwnerKato + `"}`
	if status, _ := do(t, http.MethodPost, srv.URL+"/api/v1/approvals", body); status != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", status, http.StatusBadRequest)
	}
}

func TestDecideApproval(t *testing.T) {
	srv, _ := testhelpers.NewAPIServer(t, approvals.RegisterRoutes)
	url := srv.URL + "/api/v1/approvals/" + seed.ApprovalDiscount + "/decision"

	status, _ := do(t, http.MethodPost, url, `{"status":"approved","decisionNote":"ok for 3y"}`)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}

	all := list(t, srv.URL+"/api/v1/approvals?status=approved")
	if len(all) != 1 {
		t.Fatalf("approved = %d, want 1", len(all))
	}
	if all[0].DecidedAt == nil || *all[0].DecidedAt == "" {
		t.Error("decidedAt not set")
	}
	if all[0].DecisionNote == nil || *all[0].DecisionNote != "ok for 3y" {
		t.Errorf("decisionNote = %v, want %q", all[0].DecisionNote, "ok for 3y")
	}

	status, _ = do(t, http.MethodPost, url, `{"status":"rejected"}`)
	if status != http.StatusConflict {
		t.Errorf("second decision status = %d, want %d", status, http.StatusConflict)
	}
}

func TestDecideApprovalErrors(t *testing.T) {
	srv, _ := testhelpers.NewAPIServer(t, approvals.RegisterRoutes)
	base := srv.URL + "/api/v1/approvals/"

	tests := []struct {
		name   string
		id     string
		body   string
		status int
	}{
		{"pending is not a decision", seed.ApprovalDiscount, `{"status":"pending"}`, http.StatusBadRequest},
		{"bad id", "x", `{"status":"approved"}`, http.StatusBadRequest},
		{"unknown", "ffffffff-0000-4000-8000-000000000000", `{"status":"approved"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, _ := do(t, http.MethodPost, base+tt.id+"/decision", tt.body); status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
		})
	}
}

func TestListApprovalsBadStatusFilter(t *testing.T) {
	srv, _ := testhelpers.NewAPIServer(t, approvals.RegisterRoutes)

	if status, _ := do(t, http.MethodGet, srv.URL+"/api/v1/approvals?status=maybe", ""); status != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", status, http.StatusBadRequest)
	}
}
