package seed

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/johnwards/dashgate/internal/store"
)

// Tenant is the tenant the fixtures belong to.
const Tenant = "00000000-0000-0000-0000-000000000001"

// Seed inserts the standard fixtures for Tenant. It is idempotent: a tenant
// that already has accounts is left untouched. Accounts go first because
// opportunities reference them.
func Seed(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts WHERE tenant_id = ?`, Tenant,
	).Scan(&count); err != nil {
		return fmt.Errorf("count accounts: %w", err)
	}
	if count > 0 {
		return nil
	}

	s := store.New(db)
	ref := time.Now().UTC()

	if err := Accounts(ctx, s); err != nil {
		return fmt.Errorf("seed accounts: %w", err)
	}
	if err := Opportunities(ctx, s, ref); err != nil {
		return fmt.Errorf("seed opportunities: %w", err)
	}
	if err := KPIs(ctx, s, ref); err != nil {
		return fmt.Errorf("seed kpis: %w", err)
	}
	if err := Integrations(ctx, s, ref); err != nil {
		return fmt.Errorf("seed integrations: %w", err)
	}
	if err := Approvals(ctx, s); err != nil {
		return fmt.Errorf("seed approvals: %w", err)
	}
	return nil
}
