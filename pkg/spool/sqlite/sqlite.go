// Package sqlite provides a SQLite-backed spool driver so undelivered store
// requests survive process restarts.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/memgatehq/memgate/pkg/spool"
)

const schema = `
CREATE TABLE IF NOT EXISTS spool_entries (
	id         TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	messages   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_spool_entries_created_at ON spool_entries (created_at);
`

// Driver implements spool.Driver on a SQLite database.
type Driver struct {
	db *sql.DB
}

// NewDriver opens (and migrates) the spool database at dbPath. The path can
// be ":memory:" for an ephemeral database.
func NewDriver(dbPath string) (*Driver, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open spool database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set journal mode: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create spool schema: %w", err)
	}

	return &Driver{db: db}, nil
}

// Append stores an entry. Appending an existing ID is a no-op.
func (d *Driver) Append(ctx context.Context, entry spool.Entry) error {
	messages, err := json.Marshal(entry.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode spool entry: %w", err)
	}

	_, err = d.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO spool_entries (id, created_at, messages) VALUES (?, ?, ?)",
		entry.ID, entry.CreatedAt.UTC().Format(time.RFC3339Nano), string(messages),
	)
	if err != nil {
		return fmt.Errorf("failed to append spool entry: %w", err)
	}

	return nil
}

// List returns all entries oldest first.
func (d *Driver) List(ctx context.Context) ([]spool.Entry, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT id, created_at, messages FROM spool_entries ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list spool entries: %w", err)
	}
	defer rows.Close()

	var entries []spool.Entry
	for rows.Next() {
		var (
			entry     spool.Entry
			createdAt string
			messages  string
		)
		if err := rows.Scan(&entry.ID, &createdAt, &messages); err != nil {
			return nil, fmt.Errorf("failed to scan spool entry: %w", err)
		}

		entry.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse spool entry timestamp: %w", err)
		}

		if err := json.Unmarshal([]byte(messages), &entry.Messages); err != nil {
			return nil, fmt.Errorf("failed to decode spool entry: %w", err)
		}

		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Remove deletes an entry by ID.
func (d *Driver) Remove(ctx context.Context, id string) error {
	result, err := d.db.ExecContext(ctx, "DELETE FROM spool_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to remove spool entry: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check removed rows: %w", err)
	}
	if affected == 0 {
		return spool.ErrNotFound{ID: id}
	}

	return nil
}

// Len reports the number of spooled entries.
func (d *Driver) Len(ctx context.Context) (int, error) {
	var count int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM spool_entries").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count spool entries: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.db.Close()
}
