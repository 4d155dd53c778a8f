package transfer

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/johnwards/dashgate/internal/api"
	"github.com/johnwards/dashgate/internal/store"
)

// Handler serves CSV import and export.
type Handler struct {
	store *store.Store
}

// FormField is the multipart field an uploaded CSV travels in.
const FormField = "file"

const maxUpload = 32 << 20

var (
	accountHeader = []string{
		"id", "owner_user_id", "name", "industry", "website", "phone", "status", "memo", "created_at", "updated_at",
	}
	opportunityHeader = []string{
		"id", "account_id", "owner_user_id", "name", "stage", "probability", "amount", "expected_close_date",
		"next_action_at", "next_action_note", "created_at", "updated_at",
	}
)

// ImportResult reports how many rows were inserted and why the rest were not.
type ImportResult struct {
	Inserted int      `json:"inserted"`
	Errors   []string `json:"errors"`
}

func startCSV(w http.ResponseWriter, filename string) *csv.Writer {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	return csv.NewWriter(w)
}

// ExportAccounts handles GET /export/accounts.csv.
func (h *Handler) ExportAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.store.Accounts.List(r.Context(), api.TenantID(r.Context()))
	if err != nil {
		api.Internal(w, "accounts_export_failed", "failed to export accounts")
		return
	}

	cw := startCSV(w, "accounts.csv")
	_ = cw.Write(accountHeader)
	for _, a := range accounts {
		_ = cw.Write([]string{
			a.ID, a.OwnerUserID, a.Name, a.Industry, a.Website, a.Phone, a.Status, a.Memo, a.CreatedAt, a.UpdatedAt,
		})
	}
	cw.Flush()
}

// ExportOpportunities handles GET /export/opportunities.csv.
func (h *Handler) ExportOpportunities(w http.ResponseWriter, r *http.Request) {
	opps, err := h.store.Opportunities.List(r.Context(), api.TenantID(r.Context()))
	if err != nil {
		api.Internal(w, "opportunities_export_failed", "failed to export opportunities")
		return
	}

	cw := startCSV(w, "opportunities.csv")
	_ = cw.Write(opportunityHeader)
	for _, o := range opps {
		_ = cw.Write([]string{
			o.ID, o.AccountID, o.OwnerUserID, o.Name, o.Stage,
			strconv.Itoa(o.Probability),
			strconv.FormatFloat(o.Amount, 'f', 2, 64),
			o.ExpectedCloseDate, o.NextActionAt, o.NextActionNote, o.CreatedAt, o.UpdatedAt,
		})
	}
	cw.Flush()
}

// readRecords reads the CSV from the multipart "file" field, or from the raw
// body when the request is not multipart.
func readRecords(r *http.Request) ([][]string, error) {
	var rd io.Reader = r.Body
	if strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUpload); err != nil {
			return nil, fmt.Errorf("parse multipart form: %w", err)
		}
		file, _, err := r.FormFile(FormField)
		if err != nil {
			return nil, fmt.Errorf("read form file: %w", err)
		}
		defer func() { _ = file.Close() }()
		rd = file
	}

	cr := csv.NewReader(rd)
	cr.TrimLeadingSpace = true
	return cr.ReadAll()
}

// headerIndex maps lower-cased column names to positions. A UTF-8 BOM on the
// first column is ignored.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, h := range header {
		cleaned := strings.TrimPrefix(strings.TrimSpace(h), "\ufeff")
		index[strings.ToLower(cleaned)] = i
	}
	return index
}

func cell(row []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

func rowError(rowNo int, msg string) string {
	return "row " + strconv.Itoa(rowNo) + ": " + msg
}

func (h *Handler) records(w http.ResponseWriter, r *http.Request) ([][]string, bool) {
	records, err := readRecords(r)
	if err != nil || len(records) < 2 {
		api.BadRequest(w, "invalid_csv", "csv must contain header and at least one row")
		return nil, false
	}
	return records, true
}

// ImportAccounts handles POST /import/accounts.csv. Invalid rows are
// reported and skipped.
func (h *Handler) ImportAccounts(w http.ResponseWriter, r *http.Request) {
	records, ok := h.records(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	tenant := api.TenantID(ctx)

	idx := headerIndex(records[0])
	res := ImportResult{Errors: []string{}}
	for i, rec := range records[1:] {
		rowNo := i + 2
		owner, name := cell(rec, idx, "owner_user_id"), cell(rec, idx, "name")
		if owner == "" || name == "" {
			res.Errors = append(res.Errors, rowError(rowNo, "owner_user_id and name are required"))
			continue
		}
		ownerID, err := uuid.Parse(owner)
		if err != nil {
			res.Errors = append(res.Errors, rowError(rowNo, "invalid owner_user_id"))
			continue
		}
		status := strings.ToLower(cell(rec, idx, "status"))
		if status != "" && !slices.Contains(store.AccountStatuses, status) {
			res.Errors = append(res.Errors, rowError(rowNo, "invalid status"))
			continue
		}

		if _, err := h.store.Accounts.Create(ctx, tenant, store.Account{
			OwnerUserID: ownerID.String(),
			Name:        name,
			Industry:    cell(rec, idx, "industry"),
			Website:     cell(rec, idx, "website"),
			Phone:       cell(rec, idx, "phone"),
			Status:      status,
			Memo:        cell(rec, idx, "memo"),
		}); err != nil {
			res.Errors = append(res.Errors, rowError(rowNo, err.Error()))
			continue
		}
		res.Inserted++
	}
	api.WriteJSON(w, http.StatusOK, res)
}

// ImportOpportunities handles POST /import/opportunities.csv. Rows must name
// an account of the importing tenant.
func (h *Handler) ImportOpportunities(w http.ResponseWriter, r *http.Request) {
	records, ok := h.records(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	tenant := api.TenantID(ctx)

	accounts, err := h.store.Accounts.List(ctx, tenant)
	if err != nil {
		api.Internal(w, "opportunities_import_failed", "failed to import opportunities")
		return
	}
	known := make(map[string]bool, len(accounts))
	for _, a := range accounts {
		known[a.ID] = true
	}

	idx := headerIndex(records[0])
	res := ImportResult{Errors: []string{}}
	for i, rec := range records[1:] {
		rowNo := i + 2
		o, msg := parseOpportunity(rec, idx)
		if msg != "" {
			res.Errors = append(res.Errors, rowError(rowNo, msg))
			continue
		}
		if !known[o.AccountID] {
			res.Errors = append(res.Errors, rowError(rowNo, "unknown account_id"))
			continue
		}
		if _, err := h.store.Opportunities.Create(ctx, tenant, o); err != nil {
			res.Errors = append(res.Errors, rowError(rowNo, err.Error()))
			continue
		}
		res.Inserted++
	}
	api.WriteJSON(w, http.StatusOK, res)
}

// parseOpportunity builds an opportunity from one CSV row. A non-empty
// message means the row is rejected.
func parseOpportunity(rec []string, idx map[string]int) (store.Opportunity, string) {
	account, owner, name := cell(rec, idx, "account_id"), cell(rec, idx, "owner_user_id"), cell(rec, idx, "name")
	if account == "" || owner == "" || name == "" {
		return store.Opportunity{}, "account_id, owner_user_id, name are required"
	}
	accountID, err1 := uuid.Parse(account)
	ownerID, err2 := uuid.Parse(owner)
	if err1 != nil || err2 != nil {
		return store.Opportunity{}, "invalid account_id or owner_user_id"
	}

	stage := strings.ToLower(cell(rec, idx, "stage"))
	if stage != "" && !slices.Contains(store.Stages, stage) {
		return store.Opportunity{}, "invalid stage"
	}

	o := store.Opportunity{
		AccountID:   accountID.String(),
		OwnerUserID: ownerID.String(),
		Name:        name,
		Stage:       stage,
		Probability: parseProbability(cell(rec, idx, "probability")),
		Amount:      parseAmount(cell(rec, idx, "amount")),
		Memo:        cell(rec, idx, "memo"),
	}
	if raw := cell(rec, idx, "expected_close_date"); raw != "" {
		if _, err := time.Parse(time.DateOnly, raw); err != nil {
			return store.Opportunity{}, "invalid expected_close_date"
		}
		o.ExpectedCloseDate = raw
	}
	if raw := cell(rec, idx, "next_action_at"); raw != "" {
		at, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return store.Opportunity{}, "invalid next_action_at"
		}
		o.NextActionAt = at.UTC().Format(store.TimeLayout)
		o.NextActionNote = cell(rec, idx, "next_action_note")
	}
	return o, ""
}

// parseProbability clamps to 0..100; unparsable input is 0.
func parseProbability(raw string) int {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return max(0, min(100, v))
}

// parseAmount rejects NaN and infinities; unparsable input is 0.
func parseAmount(raw string) float64 {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
