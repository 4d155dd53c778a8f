package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
)

// Connection is a user's link to an external mail or calendar provider.
type Connection struct {
	ID                string   `json:"id"`
	UserID            string   `json:"userId"`
	Provider          string   `json:"provider"`
	IntegrationType   string   `json:"integrationType"`
	ExternalAccountID string   `json:"externalAccountId"`
	Status            string   `json:"status"`
	Scopes            []string `json:"scopes"`
	ExpiresAt         string   `json:"expiresAt"`
	UpdatedAt         string   `json:"updatedAt"`
}

// Event is an occurrence reported by an integration provider.
type Event struct {
	ID                  int64          `json:"id"`
	Provider            string         `json:"provider"`
	IntegrationType     string         `json:"integrationType"`
	ExternalEventID     string         `json:"externalEventId"`
	EventType           string         `json:"eventType"`
	Payload             map[string]any `json:"payload"`
	LinkedAccountID     string         `json:"linkedAccountId"`
	LinkedContactID     string         `json:"linkedContactId"`
	LinkedOpportunityID string         `json:"linkedOpportunityId"`
	OccurredAt          string         `json:"occurredAt"`
}

// IntegrationStore defines the interface for integration persistence.
type IntegrationStore interface {
	UpsertConnection(ctx context.Context, tenant string, c Connection) (*Connection, error)
	ListConnections(ctx context.Context, tenant string) ([]Connection, error)
	CreateEvent(ctx context.Context, tenant string, e Event) (*Event, error)
	ListEvents(ctx context.Context, tenant string) ([]Event, error)
}

// SQLiteIntegrationStore implements IntegrationStore backed by SQLite.
type SQLiteIntegrationStore struct {
	db *sql.DB
}

// NewSQLiteIntegrationStore creates a new SQLiteIntegrationStore.
func NewSQLiteIntegrationStore(db *sql.DB) *SQLiteIntegrationStore {
	return &SQLiteIntegrationStore{db: db}
}

// UpsertConnection inserts c or replaces the connection with the same user,
// provider and integration type. The existing id is kept on replace.
func (s *SQLiteIntegrationStore) UpsertConnection(ctx context.Context, tenant string, c Connection) (*Connection, error) {
	if c.Status == "" {
		c.Status = "active"
	}
	if c.Scopes == nil {
		c.Scopes = []string{}
	}
	scopes, err := json.Marshal(c.Scopes)
	if err != nil {
		return nil, fmt.Errorf("marshal scopes: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO integration_connections
			(id, tenant_id, user_id, provider, integration_type, external_account_id, status, scopes, expires_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (tenant_id, user_id, provider, integration_type) DO UPDATE SET
			external_account_id = excluded.external_account_id,
			status = excluded.status,
			scopes = excluded.scopes,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		newID(), tenant, c.UserID, c.Provider, c.IntegrationType, c.ExternalAccountID, c.Status,
		string(scopes), c.ExpiresAt, now(),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert connection: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+connectionColumns+` FROM integration_connections
		 WHERE tenant_id = ? AND user_id = ? AND provider = ? AND integration_type = ?`,
		tenant, c.UserID, c.Provider, c.IntegrationType,
	)
	out, err := scanConnection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return &out, nil
}

const connectionColumns = `id, user_id, provider, integration_type, external_account_id, status, scopes, expires_at, updated_at`

func scanConnection(sc interface{ Scan(...any) error }) (Connection, error) {
	var (
		c      Connection
		scopes string
	)
	if err := sc.Scan(&c.ID, &c.UserID, &c.Provider, &c.IntegrationType, &c.ExternalAccountID,
		&c.Status, &scopes, &c.ExpiresAt, &c.UpdatedAt); err != nil {
		return c, err
	}
	if err := json.Unmarshal([]byte(scopes), &c.Scopes); err != nil {
		return c, fmt.Errorf("decode scopes: %w", err)
	}
	if c.Scopes == nil {
		c.Scopes = []string{}
	}
	return c, nil
}

// ListConnections returns the tenant's connections, most recently updated first.
func (s *SQLiteIntegrationStore) ListConnections(ctx context.Context, tenant string) ([]Connection, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+connectionColumns+` FROM integration_connections
		 WHERE tenant_id = ? ORDER BY updated_at DESC, id`,
		tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Connection{}
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// CreateEvent appends e. OccurredAt defaults to now.
func (s *SQLiteIntegrationStore) CreateEvent(ctx context.Context, tenant string, e Event) (*Event, error) {
	if e.OccurredAt == "" {
		e.OccurredAt = now()
	}
	if e.Payload == nil {
		e.Payload = map[string]any{}
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO integration_events
			(tenant_id, provider, integration_type, external_event_id, event_type, payload,
			 linked_account_id, linked_contact_id, linked_opportunity_id, occurred_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tenant, e.Provider, e.IntegrationType, e.ExternalEventID, e.EventType, string(payload),
		e.LinkedAccountID, e.LinkedContactID, e.LinkedOpportunityID, e.OccurredAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	e.ID, err = res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return &e, nil
}

// ListEvents returns the tenant's events, most recent first.
func (s *SQLiteIntegrationStore) ListEvents(ctx context.Context, tenant string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, provider, integration_type, external_event_id, event_type, payload,
		        linked_account_id, linked_contact_id, linked_opportunity_id, occurred_at
		 FROM integration_events WHERE tenant_id = ?
		 ORDER BY occurred_at DESC, id DESC`,
		tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Event{}
	for rows.Next() {
		var (
			e       Event
			payload string
		)
		if err := rows.Scan(&e.ID, &e.Provider, &e.IntegrationType, &e.ExternalEventID, &e.EventType, &payload,
			&e.LinkedAccountID, &e.LinkedContactID, &e.LinkedOpportunityID, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &e.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of event %d: %w", e.ID, err)
		}
		if e.Payload == nil {
			e.Payload = map[string]any{}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}
