package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Approval statuses.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Approval is a request for a user to approve a change to an entity.
type Approval struct {
	ID             string `json:"id"`
	EntityType     string `json:"entityType"`
	EntityID       string `json:"entityId"`
	RequestedBy    string `json:"requestedBy"`
	ApproverUserID string `json:"approverUserId"`
	Status         string `json:"status"`
	Reason         string `json:"reason"`
	DecisionNote   string `json:"decisionNote"`
	DecidedAt      string `json:"decidedAt"`
	CreatedAt      string `json:"createdAt"`
}

// ApprovalStore defines the interface for approval persistence.
type ApprovalStore interface {
	Create(ctx context.Context, tenant string, a Approval) (*Approval, error)
	List(ctx context.Context, tenant string) ([]Approval, error)
	Decide(ctx context.Context, tenant, id, status, note string) (*Approval, error)
}

// SQLiteApprovalStore implements ApprovalStore backed by SQLite.
type SQLiteApprovalStore struct {
	db *sql.DB
}

// NewSQLiteApprovalStore creates a new SQLiteApprovalStore.
func NewSQLiteApprovalStore(db *sql.DB) *SQLiteApprovalStore {
	return &SQLiteApprovalStore{db: db}
}

const approvalColumns = `id, entity_type, entity_id, requested_by, approver_user_id, status, reason,
	decision_note, decided_at, created_at`

func scanApproval(sc interface{ Scan(...any) error }) (Approval, error) {
	var a Approval
	err := sc.Scan(&a.ID, &a.EntityType, &a.EntityID, &a.RequestedBy, &a.ApproverUserID, &a.Status,
		&a.Reason, &a.DecisionNote, &a.DecidedAt, &a.CreatedAt)
	return a, err
}

// Create inserts a as a pending request.
func (s *SQLiteApprovalStore) Create(ctx context.Context, tenant string, a Approval) (*Approval, error) {
	if a.ID == "" {
		a.ID = newID()
	}
	if a.CreatedAt == "" {
		a.CreatedAt = now()
	}
	a.Status = ApprovalPending
	a.DecisionNote = ""
	a.DecidedAt = ""

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO approval_requests (tenant_id, `+approvalColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tenant, a.ID, a.EntityType, a.EntityID, a.RequestedBy, a.ApproverUserID, a.Status, a.Reason,
		a.DecisionNote, a.DecidedAt, a.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert approval: %w", err)
	}
	return &a, nil
}

// List returns the tenant's approvals, newest first.
func (s *SQLiteApprovalStore) List(ctx context.Context, tenant string) ([]Approval, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+approvalColumns+` FROM approval_requests
		 WHERE tenant_id = ? ORDER BY created_at DESC, id`,
		tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Approval{}
	for rows.Next() {
		a, err := scanApproval(rows)
		if err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// Decide moves a pending approval to status. It returns ErrNotFound for an
// unknown id and ErrConflict when the approval was already decided.
func (s *SQLiteApprovalStore) Decide(ctx context.Context, tenant, id, status, note string) (*Approval, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	a, err := scanApproval(tx.QueryRowContext(ctx,
		`SELECT `+approvalColumns+` FROM approval_requests WHERE tenant_id = ? AND id = ?`, tenant, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get approval: %w", err)
	}
	if a.Status != ApprovalPending {
		return nil, ErrConflict
	}

	a.Status = status
	a.DecisionNote = note
	a.DecidedAt = now()
	if _, err := tx.ExecContext(ctx,
		`UPDATE approval_requests SET status = ?, decision_note = ?, decided_at = ?
		 WHERE tenant_id = ? AND id = ?`,
		a.Status, a.DecisionNote, a.DecidedAt, tenant, id,
	); err != nil {
		return nil, fmt.Errorf("update approval: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &a, nil
}
