package admin

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/johnwards/dashgate/internal/api"
	"github.com/johnwards/dashgate/internal/seed"
)

// Handler serves the stub's admin API at /_dashstub/.
type Handler struct {
	db *sql.DB
}

// dataTableNames lists all data tables in foreign-key-safe deletion order.
var dataTableNames = []string{
	"approval_requests",
	"integration_events",
	"integration_connections",
	"kpi_snapshots",
	"opportunities",
	"accounts",
}

// Live reports that the process is serving requests.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the database answers a ping.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.db.PingContext(r.Context()); err != nil {
		api.WriteError(w, http.StatusServiceUnavailable, "database_unreachable", err.Error())
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Reset drops all data from all tables and re-runs seeds.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := ResetData(r.Context(), h.db); err != nil {
		api.Internal(w, "reset_failed", err.Error())
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SeedData runs seed data without dropping existing data first. Seeding an
// already seeded tenant is a no-op.
func (h *Handler) SeedData(w http.ResponseWriter, r *http.Request) {
	if err := seed.Seed(r.Context(), h.db); err != nil {
		api.Internal(w, "seed_failed", fmt.Sprintf("failed to seed: %s", err))
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ResetData clears all data tables within a transaction and re-seeds.
func ResetData(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range dataTableNames {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear table %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reset: %w", err)
	}
	return seed.Seed(ctx, db)
}
