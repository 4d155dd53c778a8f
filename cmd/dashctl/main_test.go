package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/johnwards/dashgate/internal/api/analytics"
	"github.com/johnwards/dashgate/internal/api/approvals"
	"github.com/johnwards/dashgate/internal/api/dashboard"
	"github.com/johnwards/dashgate/internal/api/integrations"
	"github.com/johnwards/dashgate/internal/api/transfer"
	"github.com/johnwards/dashgate/internal/contract"
	"github.com/johnwards/dashgate/internal/seed"
	"github.com/johnwards/dashgate/internal/store"
	"github.com/johnwards/dashgate/internal/testhelpers"
)

func registerAll(r chi.Router, s *store.Store) {
	dashboard.RegisterRoutes(r, s)
	analytics.RegisterRoutes(r, s)
	integrations.RegisterRoutes(r, s)
	approvals.RegisterRoutes(r, s)
	transfer.RegisterRoutes(r, s)
}

// useBackend points dashctl at baseURL for the rest of the test.
func useBackend(t *testing.T, baseURL string) {
	t.Helper()
	t.Setenv("DASHGATE_CONFIG", "")
	t.Setenv("DASHGATE_BASE_URL", baseURL)
	t.Setenv("DASHGATE_TENANT_ID", seed.Tenant)
	t.Setenv("DASHGATE_LOG_LEVEL", "error")
}

func newStub(t *testing.T) *store.Store {
	t.Helper()
	srv, s := testhelpers.NewAPIServer(t, registerAll)
	useBackend(t, srv.URL+"/api/v1")
	return s
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestReadCommand(t *testing.T) {
	newStub(t)

	code, out, errOut := runCLI(t, "pipeline")
	if code != exitOK {
		t.Fatalf("exit = %d, want %d; stderr: %s", code, exitOK, errOut)
	}
	var stages []contract.PipelineStage
	if err := json.Unmarshal([]byte(out), &stages); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(stages) == 0 {
		t.Fatal("no pipeline stages printed")
	}
	if stages[0].Stage != contract.StageNewLead {
		t.Errorf("first stage = %q, want %q", stages[0].Stage, contract.StageNewLead)
	}
}

func TestEveryReadCommandSucceeds(t *testing.T) {
	newStub(t)

	for _, name := range []string{
		"kpi", "pipeline", "next-actions", "deal-health", "forecast", "loss-reasons",
		"duplicates", "connections", "events", "approvals",
	} {
		t.Run(name, func(t *testing.T) {
			if code, _, errOut := runCLI(t, name); code != exitOK {
				t.Errorf("exit = %d, want %d; stderr: %s", code, exitOK, errOut)
			}
		})
	}
}

func TestNextActionSetPrintsRefreshedList(t *testing.T) {
	newStub(t)

	code, out, errOut := runCLI(t, "next-action", "set",
		"--id", seed.OpportunityPilot, "--at", "2030-01-02T03:04:05Z", "--note", "demo")
	if code != exitOK {
		t.Fatalf("exit = %d, want %d; stderr: %s", code, exitOK, errOut)
	}
	var actions []contract.NextAction
	if err := json.Unmarshal([]byte(out), &actions); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	found := false
	for _, a := range actions {
		if a.ID.String() == seed.OpportunityPilot {
			found = true
			if a.NextActionNote != "demo" {
				t.Errorf("note = %q, want %q", a.NextActionNote, "demo")
			}
		}
	}
	if !found {
		t.Errorf("opportunity %s missing from refreshed list", seed.OpportunityPilot)
	}
}

func TestApprovalDecide(t *testing.T) {
	newStub(t)

	code, out, errOut := runCLI(t, "approval", "decide", "--id", seed.ApprovalDiscount, "--status", "rejected")
	if code != exitOK {
		t.Fatalf("exit = %d, want %d; stderr: %s", code, exitOK, errOut)
	}
	if !strings.Contains(out, `"rejected"`) {
		t.Errorf("output does not show the decision: %s", out)
	}

	code, _, _ = runCLI(t, "approval", "decide", "--id", seed.ApprovalDiscount, "--status", "approved")
	if code != exitFail {
		t.Errorf("second decision exit = %d, want %d", code, exitFail)
	}
}

func TestUsageErrors(t *testing.T) {
	newStub(t)

	tests := []struct {
		name string
		args []string
	}{
		{"no command", nil},
		{"unknown command", []string{"frobnicate"}},
		{"missing subcommand", []string{"approval"}},
		{"unknown subcommand", []string{"approval", "delete"}},
		{"bad decision", []string{"approval", "decide", "--id", seed.ApprovalDiscount, "--status", "pending"}},
		{"bad id", []string{"next-action", "set", "--id", "nope", "--at", "2030-01-02T03:04:05Z"}},
		{"read with args", []string{"kpi", "extra"}},
		{"bad entity", []string{"export", "--entity", "contacts"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, _ := runCLI(t, tt.args...); code != exitUsage {
				t.Errorf("exit = %d, want %d", code, exitUsage)
			}
		})
	}
}

func TestStaleReadExitCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPatch {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"data":{}}`))
			return
		}
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)
	useBackend(t, srv.URL)

	code, _, errOut := runCLI(t, "next-action", "set",
		"--id", seed.OpportunityPilot, "--at", "2030-01-02T03:04:05Z")
	if code != exitStale {
		t.Errorf("exit = %d, want %d; stderr: %s", code, exitStale, errOut)
	}
}

func TestExportAndImport(t *testing.T) {
	s := newStub(t)
	dir := t.TempDir()
	t.Setenv("DASHGATE_EXPORT_DIR", dir)

	if code, _, errOut := runCLI(t, "export", "--entity", "accounts"); code != exitOK {
		t.Fatalf("export exit = %d; stderr: %s", code, errOut)
	}
	data, err := os.ReadFile(filepath.Join(dir, "accounts.csv"))
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "id,owner_user_id,name") {
		t.Errorf("export header = %q", strings.SplitN(string(data), "\n", 2)[0])
	}

	in := filepath.Join(dir, "new.csv")
	csv := "name,owner_user_id\nNagoya Foods," + seed.OwnerSato + "\n"
	if err := os.WriteFile(in, []byte(csv), 0o600); err != nil {
		t.Fatalf("write import: %v", err)
	}
	if code, _, errOut := runCLI(t, "import", "--entity", "accounts", "--file", in); code != exitOK {
		t.Fatalf("import exit = %d; stderr: %s", code, errOut)
	}
	accounts, err := s.Accounts.List(context.Background(), seed.Tenant)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 4 {
		t.Errorf("accounts = %d, want 4", len(accounts))
	}
}

func TestValidateOffline(t *testing.T) {
	useBackend(t, "")
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(good, []byte(`{"data":[{"reason":"price","lostCount":2,"lostAmount":10}]}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte(`{"data":[{"reason":"price","lostCount":"two","lostAmount":10}]}`), 0o600); err != nil {
		t.Fatal(err)
	}

	if code, out, errOut := runCLI(t, "validate", "--kind", "loss-reasons", "--file", good); code != exitOK {
		t.Errorf("good exit = %d; out: %s stderr: %s", code, out, errOut)
	}
	code, out, _ := runCLI(t, "validate", "--kind", "loss-reasons", "--file", bad)
	if code != exitFail {
		t.Errorf("bad exit = %d, want %d", code, exitFail)
	}
	if !strings.Contains(out, `"valid": false`) {
		t.Errorf("output = %s, want valid false", out)
	}
	if code, _, _ := runCLI(t, "validate", "--kind", "contacts", "--file", good); code != exitUsage {
		t.Errorf("unknown kind exit = %d, want %d", code, exitUsage)
	}
}
