package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/johnwards/dashgate/internal/store"
)

// Fixed ids, so tests and local tooling can address seeded records.
const (
	OwnerSato   = "0b8f4c3e-1d2a-4e5f-9a6b-7c8d9e0f1a01"
	OwnerTanaka = "0b8f4c3e-1d2a-4e5f-9a6b-7c8d9e0f1a02"
	OwnerKato   = "0b8f4c3e-1d2a-4e5f-9a6b-7c8d9e0f1a03"

	AccountHokuto    = "a1000000-0000-4000-8000-000000000001"
	AccountMinato    = "a1000000-0000-4000-8000-000000000002"
	AccountHokutoDup = "a1000000-0000-4000-8000-000000000003"

	OpportunityRenewal   = "b2000000-0000-4000-8000-000000000001"
	OpportunityExpansion = "b2000000-0000-4000-8000-000000000002"
	OpportunityPilot     = "b2000000-0000-4000-8000-000000000003"

	ApprovalDiscount = "c3000000-0000-4000-8000-000000000001"
)

const created = "2026-01-05T09:00:00Z"

type accountDef struct {
	id, owner, name, industry, website, status string
	createdAt                                  string
}

var defaultAccounts = []accountDef{
	{AccountHokuto, OwnerSato, "Hokuto Logistics", "logistics", "https://hokuto.example", "active", "2026-01-05T09:00:00Z"},
	{AccountMinato, OwnerTanaka, "Minato Foods", "food", "https://minato.example", "prospect", "2026-01-06T09:00:00Z"},
	{AccountHokutoDup, OwnerKato, "hokuto logistics", "logistics", "", "prospect", "2026-02-10T09:00:00Z"},
}

// Accounts inserts the default accounts, including one name duplicate.
func Accounts(ctx context.Context, s *store.Store) error {
	for _, d := range defaultAccounts {
		if _, err := s.Accounts.Create(ctx, Tenant, store.Account{
			ID:          d.id,
			OwnerUserID: d.owner,
			Name:        d.name,
			Industry:    d.industry,
			Website:     d.website,
			Status:      d.status,
			CreatedAt:   d.createdAt,
		}); err != nil {
			return fmt.Errorf("insert account %s: %w", d.name, err)
		}
	}
	return nil
}

type opportunityDef struct {
	id, account, owner, name, stage string
	probability                     int
	amount                          float64
	closeMonths                     int // months from ref; 0 leaves the date unset
	nextActionDays                  int // days from ref; 0 leaves no next action
	note, lossReason                string
	idleDays                        int
}

var defaultOpportunities = []opportunityDef{
	{id: OpportunityRenewal, account: AccountHokuto, owner: OwnerSato, name: "Annual renewal", stage: "negotiation",
		probability: 80, amount: 1200000, closeMonths: 1, nextActionDays: 2, note: "send revised quote", idleDays: 1},
	{id: OpportunityExpansion, account: AccountHokuto, owner: OwnerSato, name: "Warehouse expansion", stage: "proposal",
		probability: 50, amount: 3400000, closeMonths: 2, nextActionDays: 5, note: "site visit", idleDays: 12},
	{id: OpportunityPilot, account: AccountMinato, owner: OwnerTanaka, name: "Cold chain pilot", stage: "qualified",
		probability: 30, amount: 800000, closeMonths: 2, nextActionDays: 1, note: "intro call", idleDays: 3},
	{account: AccountMinato, name: "Unassigned inquiry", stage: "new_lead", probability: 10, amount: 150000,
		closeMonths: 3, idleDays: 30},
	{account: AccountHokuto, owner: OwnerSato, name: "Fleet telematics", stage: "closed_won", probability: 100,
		amount: 2000000},
	{account: AccountMinato, owner: OwnerTanaka, name: "Packaging line", stage: "closed_lost", amount: 950000,
		lossReason: "price"},
	{account: AccountMinato, owner: OwnerTanaka, name: "Label printers", stage: "closed_lost", amount: 120000,
		lossReason: "price"},
	{account: AccountHokuto, owner: OwnerSato, name: "Route planning", stage: "closed_lost", amount: 400000,
		lossReason: "timing"},
}

// Opportunities inserts deals across every stage. Close dates, follow-ups
// and last activity are placed relative to ref so the analytics stay live.
func Opportunities(ctx context.Context, s *store.Store, ref time.Time) error {
	for _, d := range defaultOpportunities {
		o := store.Opportunity{
			ID:             d.id,
			AccountID:      d.account,
			OwnerUserID:    d.owner,
			Name:           d.name,
			Stage:          d.stage,
			Probability:    d.probability,
			Amount:         d.amount,
			NextActionNote: d.note,
			LossReason:     d.lossReason,
			CreatedAt:      created,
			LastActivityAt: ref.AddDate(0, 0, -d.idleDays).Format(store.TimeLayout),
		}
		if d.closeMonths > 0 {
			o.ExpectedCloseDate = ref.AddDate(0, d.closeMonths, 0).Format("2006-01-02")
		}
		if d.nextActionDays > 0 {
			o.NextActionAt = ref.AddDate(0, 0, d.nextActionDays).Truncate(time.Hour).Format(store.TimeLayout)
		}
		if _, err := s.Opportunities.Create(ctx, Tenant, o); err != nil {
			return fmt.Errorf("insert opportunity %s: %w", d.name, err)
		}
	}
	return nil
}

// KPIs records one snapshot taken at ref.
func KPIs(ctx context.Context, s *store.Store, ref time.Time) error {
	items := []store.KPIItem{
		{MetricKey: "open_pipeline_amount", MetricValue: 5550000, Dimensions: map[string]any{"currency": "JPY"}},
		{MetricKey: "won_amount_month", MetricValue: 2000000, Dimensions: map[string]any{"currency": "JPY"}},
		{MetricKey: "win_rate", MetricValue: 0.25},
		{MetricKey: "overdue_next_actions", MetricValue: 0},
	}
	return s.KPIs.Record(ctx, Tenant, ref.Truncate(time.Minute).Format(store.TimeLayout), items)
}

// Integrations inserts one calendar connection and one mail event.
func Integrations(ctx context.Context, s *store.Store, ref time.Time) error {
	if _, err := s.Integrations.UpsertConnection(ctx, Tenant, store.Connection{
		UserID:            OwnerSato,
		Provider:          "google",
		IntegrationType:   "calendar",
		ExternalAccountID: "sato@hokuto.example",
		Status:            "active",
		Scopes:            []string{"calendar.readonly"},
		ExpiresAt:         ref.AddDate(0, 1, 0).Truncate(time.Hour).Format(store.TimeLayout),
	}); err != nil {
		return fmt.Errorf("upsert connection: %w", err)
	}

	if _, err := s.Integrations.CreateEvent(ctx, Tenant, store.Event{
		Provider:            "google",
		IntegrationType:     "email",
		ExternalEventID:     "msg-0001",
		EventType:           "email_received",
		Payload:             map[string]any{"subject": "Re: revised quote"},
		LinkedAccountID:     AccountHokuto,
		LinkedOpportunityID: OpportunityRenewal,
		OccurredAt:          ref.AddDate(0, 0, -1).Truncate(time.Hour).Format(store.TimeLayout),
	}); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Approvals inserts one pending discount approval.
func Approvals(ctx context.Context, s *store.Store) error {
	if _, err := s.Approvals.Create(ctx, Tenant, store.Approval{
		ID:             ApprovalDiscount,
		EntityType:     "opportunity",
		EntityID:       OpportunityRenewal,
		RequestedBy:    OwnerSato,
		ApproverUserID: OwnerKato,
		Reason:         "15% discount for a three year term",
		CreatedAt:      created,
	}); err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}
