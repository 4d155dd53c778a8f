package transfer_test

import (
	"context"
	"encoding/csv"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"

	"github.com/johnwards/dashgate/internal/api/transfer"
	"github.com/johnwards/dashgate/internal/csvtransfer"
	"github.com/johnwards/dashgate/internal/gateway"
	"github.com/johnwards/dashgate/internal/seed"
	"github.com/johnwards/dashgate/internal/store"
	"github.com/johnwards/dashgate/internal/testhelpers"
)

func setup(t *testing.T) (*csvtransfer.Channel, string, *store.Store, string) {
	t.Helper()
	srv, s := testhelpers.NewAPIServer(t, transfer.RegisterRoutes)

	g, err := gateway.New(gateway.Settings{BaseURL: srv.URL + "/api/v1", TenantID: seed.Tenant})
	if err != nil {
		t.Fatalf("gateway.New() error: %v", err)
	}
	dir := t.TempDir()
	return csvtransfer.New(g, csvtransfer.WithSaver(csvtransfer.DirSaver{Dir: dir})), dir, s, srv.URL
}

func TestExportAccountsDownload(t *testing.T) {
	ch, dir, _, _ := setup(t)

	if err := ch.Download(context.Background(), csvtransfer.ExportAccounts, "accounts.csv"); err != nil {
		t.Fatalf("Download() error: %v", err)
	}
	if live := ch.Blobs().Live(); live != 0 {
		t.Errorf("live blobs = %d, want 0", live)
	}

	f, err := os.Open(filepath.Join(dir, "accounts.csv"))
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer func() { _ = f.Close() }()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want header + 3", len(rows))
	}
	if rows[0][0] != "id" || rows[0][2] != "name" {
		t.Errorf("header = %v", rows[0])
	}
}

func TestExportHeaders(t *testing.T) {
	_, _, _, base := setup(t)

	req, err := http.NewRequest(http.MethodGet, base+"/api/v1/export/opportunities.csv", http.NoBody)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Tenant-ID", seed.Tenant)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if ct := resp.Header.Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("Content-Type = %q, want %q", ct, "text/csv; charset=utf-8")
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "attachment; filename=opportunities.csv" {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestImportAccountsUpload(t *testing.T) {
	ch, _, s, _ := setup(t)

	body := "\ufeffName,Owner_User_ID,status,website\n" +
		"Kobe Steelworks," + seed.OwnerKato + ",active,https://kobe.example\n" +
		"Missing owner,,prospect,\n" +
		"Bad status," + seed.OwnerKato + ",dormant,\n"
	if err := ch.Upload(context.Background(), csvtransfer.ImportAccounts, "accounts.csv", strings.NewReader(body)); err != nil {
		t.Fatalf("Upload() error: %v", err)
	}

	accounts, err := s.Accounts.List(context.Background(), seed.Tenant)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(accounts) != 4 {
		t.Errorf("accounts = %d, want 4", len(accounts))
	}
}

func postCSV(t *testing.T, url, body string) (int, transfer.ImportResult) {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Tenant-ID", seed.Tenant)
	req.Header.Set("Content-Type", "text/csv")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var res transfer.ImportResult
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(raw, &res); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return resp.StatusCode, res
}

func TestImportOpportunitiesReportsRowErrors(t *testing.T) {
	_, _, _, base := setup(t)
	url := base + "/api/v1/import/opportunities.csv"

	body := "account_id,owner_user_id,name,stage,probability,amount,expected_close_date,next_action_at,next_action_note\n" +
		seed.AccountMinato + "," + seed.OwnerTanaka + ",Freezer retrofit,proposal,40,500000,2026-12-20,2026-11-01T09:00:00Z,call\n" +
		seed.AccountMinato + "," + seed.OwnerTanaka + ",Bad stage,won,40,1,,,\n" +
		"ffffffff-0000-4000-8000-000000000000," + seed.OwnerTanaka + ",Foreign account,proposal,40,1,,,\n" +
		seed.AccountMinato + "," + seed.OwnerTanaka + ",Bad date,proposal,40,1,20/12/2026,,\n"

	status, res := postCSV(t, url, body)
	if status != http.StatusOK {
		t.Fatalf("status = %d, want %d", status, http.StatusOK)
	}
	if res.Inserted != 1 {
		t.Errorf("inserted = %d, want 1", res.Inserted)
	}
	want := []string{"row 3: invalid stage", "row 4: unknown account_id", "row 5: invalid expected_close_date"}
	if len(res.Errors) != len(want) {
		t.Fatalf("errors = %v, want %v", res.Errors, want)
	}
	for i := range want {
		if res.Errors[i] != want[i] {
			t.Errorf("errors[%d] = %q, want %q", i, res.Errors[i], want[i])
		}
	}
}

func TestImportRejectsHeaderOnly(t *testing.T) {
	_, _, _, base := setup(t)

	status, _ := postCSV(t, base+"/api/v1/import/accounts.csv", "name,owner_user_id\n")
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", status, http.StatusBadRequest)
	}
}
