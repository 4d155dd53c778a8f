package database

// migrations is an ordered list of SQL migration groups. Each entry is a slice
// of SQL statements that are executed together in a single transaction. The
// version number is the 1-based index into this slice.
var migrations = [][]string{
	// Migration 1: CRM records
	{
		`CREATE TABLE accounts (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			owner_user_id TEXT NOT NULL,
			name TEXT NOT NULL,
			industry TEXT NOT NULL DEFAULT '',
			website TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'prospect',
			memo TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE opportunities (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			account_id TEXT NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			owner_user_id TEXT NOT NULL DEFAULT '',
			name TEXT NOT NULL,
			stage TEXT NOT NULL DEFAULT 'new_lead',
			probability INTEGER NOT NULL DEFAULT 0,
			amount REAL NOT NULL DEFAULT 0,
			expected_close_date TEXT NOT NULL DEFAULT '',
			memo TEXT NOT NULL DEFAULT '',
			next_action_at TEXT NOT NULL DEFAULT '',
			next_action_note TEXT NOT NULL DEFAULT '',
			loss_reason TEXT NOT NULL DEFAULT '',
			last_activity_at TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		`CREATE TABLE kpi_snapshots (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id TEXT NOT NULL,
			snapshot_at TEXT NOT NULL,
			metric_key TEXT NOT NULL,
			metric_value REAL NOT NULL,
			dimensions TEXT NOT NULL DEFAULT '{}'
		)`,

		`CREATE INDEX idx_accounts_tenant ON accounts(tenant_id)`,
		`CREATE INDEX idx_opportunities_tenant_stage ON opportunities(tenant_id, stage)`,
		`CREATE INDEX idx_kpi_snapshots_tenant_time ON kpi_snapshots(tenant_id, snapshot_at)`,
	},

	// Migration 2: integrations and approvals
	{
		`CREATE TABLE integration_connections (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			integration_type TEXT NOT NULL,
			external_account_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'active',
			scopes TEXT NOT NULL DEFAULT '[]',
			expires_at TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL,
			UNIQUE (tenant_id, user_id, provider, integration_type)
		)`,

		`CREATE TABLE integration_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			tenant_id TEXT NOT NULL,
			provider TEXT NOT NULL,
			integration_type TEXT NOT NULL,
			external_event_id TEXT NOT NULL DEFAULT '',
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			linked_account_id TEXT NOT NULL DEFAULT '',
			linked_contact_id TEXT NOT NULL DEFAULT '',
			linked_opportunity_id TEXT NOT NULL DEFAULT '',
			occurred_at TEXT NOT NULL
		)`,

		`CREATE TABLE approval_requests (
			id TEXT PRIMARY KEY,
			tenant_id TEXT NOT NULL,
			entity_type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			requested_by TEXT NOT NULL,
			approver_user_id TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			reason TEXT NOT NULL DEFAULT '',
			decision_note TEXT NOT NULL DEFAULT '',
			decided_at TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		)`,

		`CREATE INDEX idx_integration_events_tenant_time ON integration_events(tenant_id, occurred_at)`,
		`CREATE INDEX idx_approval_requests_tenant ON approval_requests(tenant_id, created_at)`,
	},
}
