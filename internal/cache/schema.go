package cache

// schemaSQL defines the SQLite schema for the cache database.
// Tables:
//   - entries: exported entry records per raw log, in source order
//   - log_index: content hash and parse time per raw log, for staleness checks
const schemaSQL = `
CREATE TABLE IF NOT EXISTS entries (
    log_path TEXT NOT NULL,
    source_order INTEGER NOT NULL,
    timestamp TEXT NOT NULL,
    stage TEXT NOT NULL,
    overall_percent REAL NOT NULL,
    grade_level INTEGER,
    grade_percent REAL,
    years_remaining REAL,
    hours_remaining INTEGER,
    minutes_remaining INTEGER,
    action_context TEXT NOT NULL DEFAULT '',
    est_note TEXT NOT NULL DEFAULT '',
    breakthrough INTEGER NOT NULL DEFAULT 0,
    raw TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (log_path, source_order)
);

CREATE TABLE IF NOT EXISTS log_index (
    log_path TEXT PRIMARY KEY,
    log_hash TEXT NOT NULL,
    parsed_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_timestamp ON entries(timestamp);
CREATE INDEX IF NOT EXISTS idx_entries_stage ON entries(stage);
`

// initSchema creates the database tables and indexes if they don't exist.
func (c *Cache) initSchema() error {
	_, err := c.db.Exec(schemaSQL)
	return err
}
