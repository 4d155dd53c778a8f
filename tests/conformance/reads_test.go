package conformance_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/johnwards/dashgate/internal/contract"
	"github.com/johnwards/dashgate/internal/seed"
)

// Every resource the stub serves must satisfy its contract.
func TestReads_AllResourcesValidate(t *testing.T) {
	resetServer(t)
	ctx := context.Background()
	c := newClient(t)

	checks := map[string]func() (int, error){
		"kpi": func() (int, error) {
			s, err := c.KPI(ctx)
			return len(s.Data), err
		},
		"pipeline":     func() (int, error) { v, err := c.Pipeline(ctx); return len(v), err },
		"next-actions": func() (int, error) { v, err := c.NextActions(ctx); return len(v), err },
		"deal-health":  func() (int, error) { v, err := c.DealHealth(ctx); return len(v), err },
		"forecast":     func() (int, error) { v, err := c.Forecast(ctx); return len(v), err },
		"loss-reasons": func() (int, error) { v, err := c.LossReasons(ctx); return len(v), err },
		"duplicates":   func() (int, error) { v, err := c.Duplicates(ctx); return len(v), err },
		"connections":  func() (int, error) { v, err := c.IntegrationConnections(ctx); return len(v), err },
		"events":       func() (int, error) { v, err := c.IntegrationEvents(ctx); return len(v), err },
		"approvals":    func() (int, error) { v, err := c.Approvals(ctx); return len(v), err },
	}
	for name, check := range checks {
		t.Run(name, func(t *testing.T) {
			n, err := check()
			if err != nil {
				t.Fatalf("read %s: %v", name, err)
			}
			if n == 0 {
				t.Errorf("expected seeded %s data, got none", name)
			}
		})
	}
}

// The raw body of each list endpoint also validates through the registry,
// the same path dashctl validate takes.
func TestReads_RegistryAcceptsRawBodies(t *testing.T) {
	resetServer(t)

	paths := map[string]string{
		"kpi":                     "/api/v1/dashboard/kpi",
		"pipeline":                "/api/v1/dashboard/pipeline",
		"next-actions":            "/api/v1/opportunities/next-actions",
		"deal-health":             "/api/v1/analytics/deal-health",
		"forecast":                "/api/v1/analytics/forecast",
		"loss-reasons":            "/api/v1/analytics/loss-reasons",
		"duplicates":              "/api/v1/analytics/duplicates",
		"integration-connections": "/api/v1/integrations/connections",
		"integration-events":      "/api/v1/integrations/events",
		"approvals":               "/api/v1/approvals",
	}
	for kind, path := range paths {
		t.Run(kind, func(t *testing.T) {
			v, ok := contract.Lookup(kind)
			if !ok {
				t.Fatalf("no contract registered for %q", kind)
			}
			resp := doRequest(t, http.MethodGet, path, seed.Tenant, nil)
			mustStatus(t, resp, http.StatusOK)
			if _, err := v.Validate(any(readJSON(t, resp))); err != nil {
				t.Errorf("validate %s: %v", kind, err)
			}
		})
	}
}

func TestReads_PipelineInFunnelOrder(t *testing.T) {
	resetServer(t)

	stages, err := newClient(t).Pipeline(context.Background())
	if err != nil {
		t.Fatalf("Pipeline() error: %v", err)
	}
	rank := map[contract.Stage]int{}
	for i, s := range contract.Stages() {
		rank[s] = i
	}
	for i := 1; i < len(stages); i++ {
		if rank[stages[i-1].Stage] >= rank[stages[i].Stage] {
			t.Errorf("stage %q listed before %q", stages[i-1].Stage, stages[i].Stage)
		}
	}
}

func TestReads_DealHealthWithinRange(t *testing.T) {
	resetServer(t)

	deals, err := newClient(t).DealHealth(context.Background())
	if err != nil {
		t.Fatalf("DealHealth() error: %v", err)
	}
	for _, d := range deals {
		if d.HealthScore < 0 || d.HealthScore > 100 {
			t.Errorf("deal %s: health score %v outside 0..100", d.ID, d.HealthScore)
		}
		assertTimestamp(t, d.LastActivityAt)
	}
}

func TestReads_ForecastIncludesUnassigned(t *testing.T) {
	resetServer(t)

	rows, err := newClient(t).Forecast(context.Background())
	if err != nil {
		t.Fatalf("Forecast() error: %v", err)
	}
	unassigned := false
	for _, r := range rows {
		if r.Unassigned() {
			unassigned = true
		}
		if r.Overweighted() {
			t.Errorf("bucket %s/%s: weighted %v above pipeline %v", r.OwnerUserID, r.Month, r.WeightedAmount, r.PipelineAmount)
		}
	}
	if !unassigned {
		t.Error("expected a bucket for the unassigned deal")
	}
}
