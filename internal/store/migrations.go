package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS appointments (
	id             INTEGER PRIMARY KEY,
	status         TEXT NOT NULL,
	service_name   TEXT NOT NULL DEFAULT '',
	scheduled_date TEXT NOT NULL DEFAULT '',
	scheduled_time TEXT NOT NULL DEFAULT '',
	city           TEXT NOT NULL DEFAULT '',
	data           TEXT NOT NULL,
	fetched_at     DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS jobs (
	id         INTEGER PRIMARY KEY,
	status     TEXT NOT NULL,
	title      TEXT NOT NULL DEFAULT '',
	customer   TEXT NOT NULL DEFAULT '',
	address    TEXT NOT NULL DEFAULT '',
	scheduled  TEXT NOT NULL DEFAULT '',
	data       TEXT NOT NULL,
	fetched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id         INTEGER PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL DEFAULT '',
	type       TEXT NOT NULL DEFAULT '',
	job_id     INTEGER NOT NULL DEFAULT 0,
	read       INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	timestamp  TEXT NOT NULL DEFAULT '',
	fetched_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS invoices (
	id           INTEGER PRIMARY KEY,
	number       TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL DEFAULT '',
	amount       TEXT NOT NULL DEFAULT '',
	service_name TEXT NOT NULL DEFAULT '',
	issued_date  TEXT NOT NULL DEFAULT '',
	fetched_at   DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_appointments_status ON appointments(status);
CREATE INDEX IF NOT EXISTS idx_appointments_scheduled
	ON appointments(scheduled_date, scheduled_time);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_scheduled ON jobs(scheduled);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_notifications_timestamp
	ON notifications(timestamp);

CREATE INDEX IF NOT EXISTS idx_invoices_issued_date
	ON invoices(issued_date);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
