package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// schemaVersionDDL runs before any migration so the version lookup works
// on a fresh database of either dialect.
const schemaVersionDDL = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
)`

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
// Statements stay within the subset SQLite and Postgres share.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS tasks (
	id          BIGINT PRIMARY KEY,
	title       TEXT NOT NULL,
	notes       TEXT,
	assignee    TEXT NOT NULL,
	due_date    DATE,
	is_complete BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_due_date ON tasks(due_date);

CREATE TABLE IF NOT EXISTS notification_tracking (
	id              TEXT PRIMARY KEY,
	notification_id TEXT NOT NULL,
	tag             TEXT NOT NULL,
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notification_tracking_tag
	ON notification_tracking(tag);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
}
