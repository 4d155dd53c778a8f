package store

import "database/sql"

// Store holds all sub-stores used by the stub server.
type Store struct {
	DB            *sql.DB
	Accounts      AccountStore
	Opportunities OpportunityStore
	KPIs          KPIStore
	Integrations  IntegrationStore
	Approvals     ApprovalStore
}

// New creates a Store with all sub-stores initialized.
func New(db *sql.DB) *Store {
	return &Store{
		DB:            db,
		Accounts:      NewSQLiteAccountStore(db),
		Opportunities: NewSQLiteOpportunityStore(db),
		KPIs:          NewSQLiteKPIStore(db),
		Integrations:  NewSQLiteIntegrationStore(db),
		Approvals:     NewSQLiteApprovalStore(db),
	}
}
