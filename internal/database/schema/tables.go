// Package schema holds the CREATE statements run at startup.
//
// Statements must stay idempotent. Ownership cascades are carried out by the
// repositories inside transactions, so tables carry no REFERENCES clauses.
package schema

// TableDefinitions contains all the SQL statements to create the database tables
// Don't put REFERENCES and don't put CHECK constraints in the CREATE TABLE statements
var TableDefinitions = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(255) PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		picture TEXT,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		refresh_token TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_sessions (
		id UUID PRIMARY KEY,
		user_id VARCHAR(255) NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		id UUID PRIMARY KEY,
		owner_id VARCHAR(255) NOT NULL,
		first_name VARCHAR(255) NOT NULL,
		last_name VARCHAR(255) NOT NULL,
		email VARCHAR(255),
		phone VARCHAR(64),
		company VARCHAR(255),
		job_title VARCHAR(255),
		address VARCHAR(255),
		city VARCHAR(255),
		country VARCHAR(255),
		status VARCHAR(20) NOT NULL DEFAULT 'lead',
		source VARCHAR(255),
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS deals (
		id UUID PRIMARY KEY,
		owner_id VARCHAR(255) NOT NULL,
		contact_id UUID,
		title VARCHAR(255) NOT NULL,
		value DOUBLE PRECISION NOT NULL DEFAULT 0,
		currency VARCHAR(3) NOT NULL DEFAULT 'USD',
		stage VARCHAR(20) NOT NULL DEFAULT 'lead',
		probability INTEGER NOT NULL DEFAULT 10,
		expected_close_date TIMESTAMPTZ,
		actual_close_date TIMESTAMPTZ,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id UUID PRIMARY KEY,
		owner_id VARCHAR(255) NOT NULL,
		contact_id UUID,
		title VARCHAR(255) NOT NULL,
		description TEXT,
		task_type VARCHAR(20) NOT NULL DEFAULT 'task',
		priority VARCHAR(20) NOT NULL DEFAULT 'medium',
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		is_completed BOOLEAN NOT NULL DEFAULT FALSE,
		due_date TIMESTAMPTZ,
		completed_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_user_sessions_user_id ON user_sessions(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_owner_created ON contacts(owner_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_contacts_owner_status ON contacts(owner_id, status)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_owner_created ON deals(owner_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_owner_stage ON deals(owner_id, stage)`,
	`CREATE INDEX IF NOT EXISTS idx_deals_contact_id ON deals(contact_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_owner_due ON tasks(owner_id, due_date ASC NULLS LAST, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_contact_id ON tasks(contact_id)`,
}

// TableNames lists every table in creation order
var TableNames = []string{
	"users",
	"user_sessions",
	"contacts",
	"deals",
	"tasks",
}
