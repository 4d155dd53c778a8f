package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"
)

// Opportunity is a deal in the sales pipeline.
type Opportunity struct {
	ID                string  `json:"id"`
	AccountID         string  `json:"accountId"`
	OwnerUserID       string  `json:"ownerUserId"`
	Name              string  `json:"name"`
	Stage             string  `json:"stage"`
	Probability       int     `json:"probability"`
	Amount            float64 `json:"amount"`
	ExpectedCloseDate string  `json:"expectedCloseDate"`
	Memo              string  `json:"memo"`
	NextActionAt      string  `json:"nextActionAt"`
	NextActionNote    string  `json:"nextActionNote"`
	LossReason        string  `json:"lossReason"`
	LastActivityAt    string  `json:"lastActivityAt"`
	CreatedAt         string  `json:"createdAt"`
	UpdatedAt         string  `json:"updatedAt"`
}

// Stages lists pipeline stages in funnel order.
var Stages = []string{"new_lead", "qualified", "proposal", "negotiation", "closed_won", "closed_lost"}

// stageOrder sorts rows by funnel position in SQL.
const stageOrder = `CASE stage
	WHEN 'new_lead' THEN 1 WHEN 'qualified' THEN 2 WHEN 'proposal' THEN 3
	WHEN 'negotiation' THEN 4 WHEN 'closed_won' THEN 5 WHEN 'closed_lost' THEN 6 ELSE 7 END`

// PipelineStage aggregates deals in one stage.
type PipelineStage struct {
	Stage       string  `json:"stage"`
	Count       int     `json:"count"`
	TotalAmount float64 `json:"totalAmount"`
}

// NextAction is an open deal with a scheduled follow-up.
type NextAction struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Stage          string `json:"stage"`
	AccountName    string `json:"accountName"`
	NextActionAt   string `json:"nextActionAt"`
	NextActionNote string `json:"nextActionNote"`
}

// DealHealth scores an open deal.
type DealHealth struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Stage          string  `json:"stage"`
	Probability    int     `json:"probability"`
	Amount         float64 `json:"amount"`
	LastActivityAt string  `json:"lastActivityAt"`
	HealthScore    float64 `json:"healthScore"`
}

// ForecastRow totals open deals per owner and close month.
type ForecastRow struct {
	OwnerUserID    string  `json:"ownerUserId"`
	Month          string  `json:"month"`
	DealCount      int     `json:"dealCount"`
	PipelineAmount float64 `json:"pipelineAmount"`
	WeightedAmount float64 `json:"weightedAmount"`
}

// LossReason totals closed-lost deals per reason.
type LossReason struct {
	Reason     string  `json:"reason"`
	LostCount  int     `json:"lostCount"`
	LostAmount float64 `json:"lostAmount"`
}

// OpportunityStore defines the interface for opportunity persistence and the
// analytics computed over it.
type OpportunityStore interface {
	Create(ctx context.Context, tenant string, o Opportunity) (*Opportunity, error)
	List(ctx context.Context, tenant string) ([]Opportunity, error)
	UpdateNextAction(ctx context.Context, tenant, id, at, note string) (*Opportunity, error)
	Pipeline(ctx context.Context, tenant string) ([]PipelineStage, error)
	NextActions(ctx context.Context, tenant string) ([]NextAction, error)
	DealHealth(ctx context.Context, tenant string) ([]DealHealth, error)
	Forecast(ctx context.Context, tenant string) ([]ForecastRow, error)
	LossReasons(ctx context.Context, tenant string) ([]LossReason, error)
}

// SQLiteOpportunityStore implements OpportunityStore backed by SQLite.
type SQLiteOpportunityStore struct {
	db    *sql.DB
	clock func() time.Time
}

// NewSQLiteOpportunityStore creates a new SQLiteOpportunityStore.
func NewSQLiteOpportunityStore(db *sql.DB) *SQLiteOpportunityStore {
	return &SQLiteOpportunityStore{db: db, clock: time.Now}
}

const opportunityColumns = `id, account_id, owner_user_id, name, stage, probability, amount, expected_close_date,
	memo, next_action_at, next_action_note, loss_reason, last_activity_at, created_at, updated_at`

func scanOpportunity(sc interface{ Scan(...any) error }) (Opportunity, error) {
	var o Opportunity
	err := sc.Scan(&o.ID, &o.AccountID, &o.OwnerUserID, &o.Name, &o.Stage, &o.Probability, &o.Amount,
		&o.ExpectedCloseDate, &o.Memo, &o.NextActionAt, &o.NextActionNote, &o.LossReason,
		&o.LastActivityAt, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// Create inserts o. ID, stage and timestamps are defaulted when empty.
func (s *SQLiteOpportunityStore) Create(ctx context.Context, tenant string, o Opportunity) (*Opportunity, error) {
	ts := now()
	if o.ID == "" {
		o.ID = newID()
	}
	if o.Stage == "" {
		o.Stage = "new_lead"
	}
	if o.CreatedAt == "" {
		o.CreatedAt = ts
	}
	if o.UpdatedAt == "" {
		o.UpdatedAt = o.CreatedAt
	}
	if o.LastActivityAt == "" {
		o.LastActivityAt = o.UpdatedAt
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO opportunities (tenant_id, `+opportunityColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tenant, o.ID, o.AccountID, o.OwnerUserID, o.Name, o.Stage, o.Probability, o.Amount, o.ExpectedCloseDate,
		o.Memo, o.NextActionAt, o.NextActionNote, o.LossReason, o.LastActivityAt, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert opportunity: %w", err)
	}
	return &o, nil
}

// List returns every opportunity of the tenant, oldest first.
func (s *SQLiteOpportunityStore) List(ctx context.Context, tenant string) ([]Opportunity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE tenant_id = ? ORDER BY created_at, id`,
		tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("list opportunities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []Opportunity{}
	for rows.Next() {
		o, err := scanOpportunity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// UpdateNextAction sets the follow-up of opportunity id. Recording a next
// action counts as activity on the deal.
func (s *SQLiteOpportunityStore) UpdateNextAction(ctx context.Context, tenant, id, at, note string) (*Opportunity, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE opportunities SET next_action_at = ?, next_action_note = ?, last_activity_at = ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ?`,
		at, note, ts, ts, tenant, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update next action: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrNotFound
	}

	o, err := scanOpportunity(s.db.QueryRowContext(ctx,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE tenant_id = ? AND id = ?`, tenant, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get opportunity: %w", err)
	}
	return &o, nil
}

// Pipeline aggregates every stage that has deals, in funnel order.
func (s *SQLiteOpportunityStore) Pipeline(ctx context.Context, tenant string) ([]PipelineStage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stage, COUNT(*), COALESCE(SUM(amount), 0)
		 FROM opportunities WHERE tenant_id = ?
		 GROUP BY stage ORDER BY `+stageOrder,
		tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("pipeline summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []PipelineStage{}
	for rows.Next() {
		var p PipelineStage
		if err := rows.Scan(&p.Stage, &p.Count, &p.TotalAmount); err != nil {
			return nil, fmt.Errorf("scan pipeline stage: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// NextActions lists open deals with a scheduled follow-up, soonest first.
func (s *SQLiteOpportunityStore) NextActions(ctx context.Context, tenant string) ([]NextAction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT o.id, o.name, o.stage, a.name, o.next_action_at, o.next_action_note
		 FROM opportunities o JOIN accounts a ON a.id = o.account_id
		 WHERE o.tenant_id = ? AND o.next_action_at != '' AND o.stage NOT IN ('closed_won', 'closed_lost')
		 ORDER BY o.next_action_at, o.id`,
		tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("list next actions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []NextAction{}
	for rows.Next() {
		var n NextAction
		if err := rows.Scan(&n.ID, &n.Name, &n.Stage, &n.AccountName, &n.NextActionAt, &n.NextActionNote); err != nil {
			return nil, fmt.Errorf("scan next action: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// DealHealth scores open deals, least healthy first. The score starts at the
// win probability and loses two points per idle day, clamped to 0..100.
func (s *SQLiteOpportunityStore) DealHealth(ctx context.Context, tenant string) ([]DealHealth, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, stage, probability, amount, last_activity_at
		 FROM opportunities
		 WHERE tenant_id = ? AND stage NOT IN ('closed_won', 'closed_lost')
		 ORDER BY created_at, id`,
		tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("list deal health: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ref := s.clock().UTC()
	out := []DealHealth{}
	for rows.Next() {
		var d DealHealth
		if err := rows.Scan(&d.ID, &d.Name, &d.Stage, &d.Probability, &d.Amount, &d.LastActivityAt); err != nil {
			return nil, fmt.Errorf("scan deal health: %w", err)
		}
		d.HealthScore = healthScore(d.Probability, d.LastActivityAt, ref)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	sortByScore(out)
	return out, nil
}

func healthScore(probability int, lastActivity string, ref time.Time) float64 {
	score := float64(probability)
	if t, err := time.Parse(TimeLayout, lastActivity); err == nil {
		idle := ref.Sub(t).Hours() / 24
		if idle > 0 {
			score -= 2 * math.Floor(idle)
		}
	}
	return math.Max(0, math.Min(100, score))
}

func sortByScore(ds []DealHealth) {
	for i := 1; i < len(ds); i++ {
		for j := i; j > 0 && ds[j].HealthScore < ds[j-1].HealthScore; j-- {
			ds[j], ds[j-1] = ds[j-1], ds[j]
		}
	}
}

// Forecast totals open deals with a close date by owner and close month.
// The weighted amount is amount x probability.
func (s *SQLiteOpportunityStore) Forecast(ctx context.Context, tenant string) ([]ForecastRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT owner_user_id, SUBSTR(expected_close_date, 1, 7) AS month, COUNT(*),
		        COALESCE(SUM(amount), 0), COALESCE(SUM(amount * probability / 100.0), 0)
		 FROM opportunities
		 WHERE tenant_id = ? AND expected_close_date != '' AND stage NOT IN ('closed_won', 'closed_lost')
		 GROUP BY owner_user_id, month
		 ORDER BY month, owner_user_id`,
		tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("forecast summary: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []ForecastRow{}
	for rows.Next() {
		var f ForecastRow
		if err := rows.Scan(&f.OwnerUserID, &f.Month, &f.DealCount, &f.PipelineAmount, &f.WeightedAmount); err != nil {
			return nil, fmt.Errorf("scan forecast row: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

// LossReasons totals closed-lost deals per reason, most frequent first.
// Deals lost without a reason are grouped under "unspecified".
func (s *SQLiteOpportunityStore) LossReasons(ctx context.Context, tenant string) ([]LossReason, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT CASE WHEN loss_reason = '' THEN 'unspecified' ELSE loss_reason END AS reason,
		        COUNT(*), COALESCE(SUM(amount), 0)
		 FROM opportunities
		 WHERE tenant_id = ? AND stage = 'closed_lost'
		 GROUP BY reason
		 ORDER BY COUNT(*) DESC, reason`,
		tenant,
	)
	if err != nil {
		return nil, fmt.Errorf("loss reason analysis: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []LossReason{}
	for rows.Next() {
		var l LossReason
		if err := rows.Scan(&l.Reason, &l.LostCount, &l.LostAmount); err != nil {
			return nil, fmt.Errorf("scan loss reason: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}
