// Package cache provides SQLite-backed storage for parsed log entries.
// The cache is stored in .omtrack/cache.db and keyed by a content hash of
// the raw log, so analysis commands can skip re-parsing an unchanged log.
// It holds derived state only: the raw log stays authoritative and the
// cache is always safe to clear.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hargabyte/omtrack/internal/entry"
)

// Cache manages the .omtrack/cache.db SQLite database holding exported
// entry records per raw-log content hash.
type Cache struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the cache database in the given .omtrack directory.
// It initializes the schema if the database is new.
func Open(omtrackDir string) (*Cache, error) {
	dbPath := filepath.Join(omtrackDir, "cache.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	c := &Cache{db: db, dbPath: dbPath}

	if err := c.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return c, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Clear removes all cached entries and log state.
func (c *Cache) Clear() error {
	_, err := c.db.Exec("DELETE FROM entries; DELETE FROM log_index;")
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// HashLog returns the content hash used to key cached parses.
func HashLog(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// Put stores the exported records for one raw-log hash, replacing any
// previously cached parse of the same log path.
func (c *Cache) Put(logPath, logHash string, records []entry.Record) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin cache put: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM entries WHERE log_path = ?", logPath); err != nil {
		return fmt.Errorf("drop stale entries for %s: %w", logPath, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO entries (
			log_path, source_order, timestamp, stage, overall_percent,
			grade_level, grade_percent, years_remaining, hours_remaining,
			minutes_remaining, action_context, est_note, breakthrough, raw
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare cache insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		_, err := stmt.Exec(
			logPath, i, r.Timestamp, r.Stage, r.OverallPercent,
			r.GradeLevel, r.GradePercent, r.YearsRemaining, r.HoursRemaining,
			r.MinutesRemaining, r.ActionContext, r.EstNote, r.Breakthrough, r.Raw,
		)
		if err != nil {
			return fmt.Errorf("insert cached entry %d: %w", i, err)
		}
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO log_index (log_path, log_hash, parsed_at)
		VALUES (?, ?, ?)`,
		logPath, logHash, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("update log index for %s: %w", logPath, err)
	}

	return tx.Commit()
}

// Get returns the cached records for a log path in source order.
// Returns sql.ErrNoRows via Fresh; Get on an unknown path yields an empty
// slice.
func (c *Cache) Get(logPath string) ([]entry.Record, error) {
	rows, err := c.db.Query(`
		SELECT timestamp, stage, overall_percent, grade_level, grade_percent,
		       years_remaining, hours_remaining, minutes_remaining,
		       action_context, est_note, breakthrough, raw
		FROM entries WHERE log_path = ? ORDER BY source_order`, logPath)
	if err != nil {
		return nil, fmt.Errorf("query cached entries for %s: %w", logPath, err)
	}
	defer rows.Close()

	var records []entry.Record
	for rows.Next() {
		var r entry.Record
		err := rows.Scan(
			&r.Timestamp, &r.Stage, &r.OverallPercent, &r.GradeLevel,
			&r.GradePercent, &r.YearsRemaining, &r.HoursRemaining,
			&r.MinutesRemaining, &r.ActionContext, &r.EstNote,
			&r.Breakthrough, &r.Raw,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cached entry: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Fresh reports whether the cache holds a parse of the log path with the
// given content hash.
func (c *Cache) Fresh(logPath, logHash string) (bool, error) {
	var cached string
	err := c.db.QueryRow(
		"SELECT log_hash FROM log_index WHERE log_path = ?", logPath,
	).Scan(&cached)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read log index for %s: %w", logPath, err)
	}
	return cached == logHash, nil
}
