// Package store provides the SQLite-backed authoritative record store.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/semestra/internal/models"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS semester_records (
	semester_id   INTEGER PRIMARY KEY,
	id            TEXT NOT NULL UNIQUE,
	semester_name TEXT NOT NULL DEFAULT '',
	subjects      TEXT NOT NULL DEFAULT '[]',
	total_credits REAL NOT NULL DEFAULT 0,
	gpa           REAL NOT NULL DEFAULT 0,
	checksum      TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// RecordIndex defines the record persistence operations. Consumers depend
// on this interface rather than *DB so tests can swap in fakes.
type RecordIndex interface {
	UpsertRecord(ctx context.Context, rec models.SemesterRecord) (models.SemesterRecord, error)
	GetRecord(ctx context.Context, id models.SemesterID) (models.SemesterRecord, error)
	GetChecksum(ctx context.Context, id models.SemesterID) (string, error)
	ListRecords(ctx context.Context) ([]models.SemesterRecord, error)
	DeleteRecord(ctx context.Context, id models.SemesterID) error
	Close() error
}

// Verify *DB satisfies RecordIndex at compile time.
var _ RecordIndex = (*DB)(nil)

// DB wraps a sql.DB with record-specific operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// PingContext reports whether the database is reachable.
func (db *DB) PingContext(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
