package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Account is a customer company.
type Account struct {
	ID          string `json:"id"`
	OwnerUserID string `json:"ownerUserId"`
	Name        string `json:"name"`
	Industry    string `json:"industry"`
	Website     string `json:"website"`
	Phone       string `json:"phone"`
	Status      string `json:"status"`
	Memo        string `json:"memo"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// AccountStatuses lists the accepted account states.
var AccountStatuses = []string{"prospect", "active", "inactive"}

// DuplicateCandidate is a pair of accounts that look like the same company.
type DuplicateCandidate struct {
	Type        string `json:"type"`
	PrimaryID   string `json:"primaryId"`
	DuplicateID string `json:"duplicateId"`
	MatchValue  string `json:"matchValue"`
}

// AccountStore defines the interface for account persistence.
type AccountStore interface {
	Create(ctx context.Context, tenant string, a Account) (*Account, error)
	List(ctx context.Context, tenant string) ([]Account, error)
	Duplicates(ctx context.Context, tenant string) ([]DuplicateCandidate, error)
}

// SQLiteAccountStore implements AccountStore backed by SQLite.
type SQLiteAccountStore struct {
	db *sql.DB
}

// NewSQLiteAccountStore creates a new SQLiteAccountStore.
func NewSQLiteAccountStore(db *sql.DB) *SQLiteAccountStore {
	return &SQLiteAccountStore{db: db}
}

// Create inserts a. ID and timestamps are assigned when empty.
func (s *SQLiteAccountStore) Create(ctx context.Context, tenant string, a Account) (*Account, error) {
	ts := now()
	if a.ID == "" {
		a.ID = newID()
	}
	if a.CreatedAt == "" {
		a.CreatedAt = ts
	}
	if a.UpdatedAt == "" {
		a.UpdatedAt = a.CreatedAt
	}
	if a.Status == "" {
		a.Status = "prospect"
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (id, tenant_id, owner_user_id, name, industry, website, phone, status, memo, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, tenant, a.OwnerUserID, a.Name, a.Industry, a.Website, a.Phone, a.Status, a.Memo, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return &a, nil
}

// List returns every account of the tenant, oldest first.
func (s *SQLiteAccountStore) List(ctx context.Context, tenant string) ([]Account, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_user_id, name, industry, website, phone, status, memo, created_at, updated_at
		 FROM accounts WHERE tenant_id = ? ORDER BY created_at, id`,
		tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	accounts := []Account{}
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.OwnerUserID, &a.Name, &a.Industry, &a.Website, &a.Phone, &a.Status, &a.Memo, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return accounts, nil
}

// Duplicates pairs accounts sharing a normalised name or website. The older
// account of each pair is the primary.
func (s *SQLiteAccountStore) Duplicates(ctx context.Context, tenant string) ([]DuplicateCandidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT 'account_name', a.id, b.id, LOWER(TRIM(a.name))
		 FROM accounts a JOIN accounts b
		   ON a.tenant_id = b.tenant_id
		  AND LOWER(TRIM(a.name)) = LOWER(TRIM(b.name))
		  AND (a.created_at < b.created_at OR (a.created_at = b.created_at AND a.id < b.id))
		 WHERE a.tenant_id = ?
		 UNION ALL
		 SELECT 'account_website', a.id, b.id, LOWER(TRIM(a.website))
		 FROM accounts a JOIN accounts b
		   ON a.tenant_id = b.tenant_id
		  AND TRIM(a.website) != ''
		  AND LOWER(TRIM(a.website)) = LOWER(TRIM(b.website))
		  AND (a.created_at < b.created_at OR (a.created_at = b.created_at AND a.id < b.id))
		 WHERE a.tenant_id = ?
		 ORDER BY 1, 4, 2, 3`,
		tenant, tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("find duplicates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []DuplicateCandidate{}
	for rows.Next() {
		var d DuplicateCandidate
		if err := rows.Scan(&d.Type, &d.PrimaryID, &d.DuplicateID, &d.MatchValue); err != nil {
			return nil, fmt.Errorf("scan duplicate: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}
