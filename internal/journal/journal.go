// Package journal persists sync history in an embedded SQLite database.
//
// Every push, pull and watch dispatch lands here as one row, so the
// status and history commands can answer "what synced, when, and did it
// work" without touching the instance.
//
// The database runs in embedded mode (ncruces/go-sqlite3, no cgo) with
// WAL enabled so a long watch session can append while a status command
// reads.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/glidekit/glidesync/internal/sync"
)

// Journal wraps the history database connection.
type Journal struct {
	conn *sql.DB
	path string
}

// Entry is one recorded sync outcome.
type Entry struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Type      string    `json:"type" yaml:"type"`
	FilePath  string    `json:"file_path" yaml:"file_path"`
	Direction string    `json:"direction" yaml:"direction"`
	Success   bool      `json:"success" yaml:"success"`
	RemoteID  string    `json:"remote_id,omitempty" yaml:"remote_id,omitempty"`
	Message   string    `json:"message" yaml:"message"`
	Err       string    `json:"error,omitempty" yaml:"error,omitempty"`
	Instance  string    `json:"instance" yaml:"instance"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

// Filter configures the List query.
type Filter struct {
	// Since keeps entries recorded at or after this time (zero = all).
	Since time.Time
	// Type filters by script type table (empty = all types).
	Type string
	// FailedOnly keeps only unsuccessful entries.
	FailedOnly bool
	// Limit restricts the number of results (0 = no limit).
	Limit int
}

// Stats summarizes the whole journal.
type Stats struct {
	Total     int
	Succeeded int
	Failed    int
	ByType    map[string]int
	// LastSync is nil for an empty journal.
	LastSync *time.Time
}

// Open creates a journal connection at the given path.
//
// The parent directory and the database are created on first use. The
// caller MUST call Close() when done.
//
// Example:
//
//	j, err := journal.Open(".glidesync/history.db")
//	if err != nil {
//	    return err
//	}
//	defer j.Close()
func Open(path string) (*Journal, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping journal database: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	j := &Journal{conn: conn, path: path}

	// WAL mode: a watch session appends while status reads.
	if _, err := j.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := j.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := j.conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = j.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return j, nil
}

// Close checkpoints the WAL and closes the connection. Safe to call
// more than once.
func (j *Journal) Close() error {
	if j.conn == nil {
		return nil
	}

	if _, err := j.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := j.conn.Close(); err != nil {
		return fmt.Errorf("failed to close journal database: %w", err)
	}

	j.conn = nil
	return nil
}

// InitSchema creates the history table if it doesn't exist. Idempotent.
func (j *Journal) InitSchema() error {
	return j.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the schema with context support.
func (j *Journal) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sync_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		file_path TEXT NOT NULL,
		direction TEXT NOT NULL,
		success INTEGER NOT NULL,
		remote_id TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		instance TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_created ON sync_history(created_at);
	CREATE INDEX IF NOT EXISTS idx_history_type ON sync_history(type);
	CREATE INDEX IF NOT EXISTS idx_history_success ON sync_history(success);
	`

	if _, err := j.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	return nil
}

// Record appends one sync outcome to the history.
func (j *Journal) Record(res sync.Result, instance string) error {
	return j.RecordContext(context.Background(), res, instance)
}

// RecordContext appends one sync outcome with context support.
func (j *Journal) RecordContext(ctx context.Context, res sync.Result, instance string) error {
	ts := res.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	query := `
	INSERT INTO sync_history (
		name, type, file_path, direction, success,
		remote_id, message, error, instance, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := j.conn.ExecContext(ctx, query,
		res.Name,
		res.Type,
		res.FilePath,
		string(res.Direction),
		boolToInt(res.Success),
		res.RemoteID,
		res.Message,
		res.Err,
		instance,
		ts.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to record sync outcome: %w", err)
	}

	return nil
}

// List retrieves history entries matching the filter, newest first.
func (j *Journal) List(filter Filter) ([]*Entry, error) {
	return j.ListContext(context.Background(), filter)
}

// ListContext retrieves history entries with context support.
func (j *Journal) ListContext(ctx context.Context, filter Filter) ([]*Entry, error) {
	var conditions []string
	var args []interface{}

	if !filter.Since.IsZero() {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.RFC3339))
	}

	if filter.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, filter.Type)
	}

	if filter.FailedOnly {
		conditions = append(conditions, "success = 0")
	}

	query := `
	SELECT id, name, type, file_path, direction, success,
	       remote_id, message, error, instance, created_at
	FROM sync_history
	`

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	query += " ORDER BY created_at DESC, id DESC"

	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := j.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Stats summarizes the journal: totals, per-type counts, last sync time.
func (j *Journal) Stats() (Stats, error) {
	return j.StatsContext(context.Background())
}

// StatsContext summarizes the journal with context support.
func (j *Journal) StatsContext(ctx context.Context) (Stats, error) {
	stats := Stats{ByType: make(map[string]int)}

	var last sql.NullString
	row := j.conn.QueryRowContext(ctx, `
	SELECT COUNT(*),
	       COALESCE(SUM(success), 0),
	       MAX(created_at)
	FROM sync_history
	`)
	if err := row.Scan(&stats.Total, &stats.Succeeded, &last); err != nil {
		return Stats{}, fmt.Errorf("failed to compute journal stats: %w", err)
	}
	stats.Failed = stats.Total - stats.Succeeded

	if last.Valid {
		if t, err := time.Parse(time.RFC3339, last.String); err == nil {
			stats.LastSync = &t
		}
	}

	rows, err := j.conn.QueryContext(ctx, `
	SELECT type, COUNT(*)
	FROM sync_history
	GROUP BY type
	`)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to compute per-type stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var typ string
		var count int
		if err := rows.Scan(&typ, &count); err != nil {
			return Stats{}, fmt.Errorf("failed to scan per-type stats: %w", err)
		}
		stats.ByType[typ] = count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("error iterating per-type stats: %w", err)
	}

	return stats, nil
}

// scanEntries is a helper to scan history rows.
func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry

	for rows.Next() {
		var e Entry
		var success int
		var createdAt string

		err := rows.Scan(
			&e.ID,
			&e.Name,
			&e.Type,
			&e.FilePath,
			&e.Direction,
			&success,
			&e.RemoteID,
			&e.Message,
			&e.Err,
			&e.Instance,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		e.Success = success != 0
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = t
		}

		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history entries: %w", err)
	}

	return entries, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
