package store

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
)

// KPIItem is one metric of a snapshot.
type KPIItem struct {
	MetricKey   string         `json:"metricKey"`
	MetricValue float64        `json:"metricValue"`
	Dimensions  map[string]any `json:"dimensions"`
}

// KPIStore defines the interface for KPI snapshot persistence.
type KPIStore interface {
	Record(ctx context.Context, tenant, snapshotAt string, items []KPIItem) error
	Latest(ctx context.Context, tenant string) (string, []KPIItem, error)
}

// SQLiteKPIStore implements KPIStore backed by SQLite.
type SQLiteKPIStore struct {
	db *sql.DB
}

// NewSQLiteKPIStore creates a new SQLiteKPIStore.
func NewSQLiteKPIStore(db *sql.DB) *SQLiteKPIStore {
	return &SQLiteKPIStore{db: db}
}

// Record stores items as one snapshot taken at snapshotAt.
func (s *SQLiteKPIStore) Record(ctx context.Context, tenant, snapshotAt string, items []KPIItem) error {
	if snapshotAt == "" {
		snapshotAt = now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, item := range items {
		dims := item.Dimensions
		if dims == nil {
			dims = map[string]any{}
		}
		raw, err := json.Marshal(dims)
		if err != nil {
			return fmt.Errorf("marshal dimensions: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kpi_snapshots (tenant_id, snapshot_at, metric_key, metric_value, dimensions)
			 VALUES (?, ?, ?, ?, ?)`,
			tenant, snapshotAt, item.MetricKey, item.MetricValue, string(raw),
		); err != nil {
			return fmt.Errorf("insert kpi %s: %w", item.MetricKey, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Latest returns the most recent snapshot. A tenant without snapshots gets
// the current time and no items.
func (s *SQLiteKPIStore) Latest(ctx context.Context, tenant string) (string, []KPIItem, error) {
	var snapshotAt sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(snapshot_at) FROM kpi_snapshots WHERE tenant_id = ?`, tenant,
	).Scan(&snapshotAt)
	if err != nil {
		return "", nil, fmt.Errorf("latest snapshot: %w", err)
	}
	if !snapshotAt.Valid {
		return now(), []KPIItem{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT metric_key, metric_value, dimensions FROM kpi_snapshots
		 WHERE tenant_id = ? AND snapshot_at = ? ORDER BY id`,
		tenant, snapshotAt.String,
	)
	if err != nil {
		return "", nil, fmt.Errorf("list kpis: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := []KPIItem{}
	for rows.Next() {
		var (
			item KPIItem
			dims string
		)
		if err := rows.Scan(&item.MetricKey, &item.MetricValue, &dims); err != nil {
			return "", nil, fmt.Errorf("scan kpi: %w", err)
		}
		if err := json.Unmarshal([]byte(dims), &item.Dimensions); err != nil {
			return "", nil, fmt.Errorf("decode dimensions of %s: %w", item.MetricKey, err)
		}
		if item.Dimensions == nil {
			item.Dimensions = map[string]any{}
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return "", nil, fmt.Errorf("rows iteration: %w", err)
	}
	return snapshotAt.String, items, nil
}
