package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/okian/raidline/internal/domain/model"

	// Pure-Go sqlite driver registered as "sqlite".
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	member_id  TEXT PRIMARY KEY,
	handle     TEXT NOT NULL,
	numeric_id TEXT NOT NULL DEFAULT ''
);`

// SQLiteStore implements Store on a local sqlite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at path.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open registry db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create registry schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ctx context.Context) (map[model.MemberID]model.RegistryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT member_id, handle, numeric_id FROM users`)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	defer rows.Close()

	out := make(map[model.MemberID]model.RegistryEntry)
	for rows.Next() {
		var member, handle, numeric string
		if err := rows.Scan(&member, &handle, &numeric); err != nil {
			return nil, fmt.Errorf("scan registry row: %w", err)
		}
		out[model.MemberID(member)] = model.RegistryEntry{
			Handle:    handle,
			NumericID: model.NumericID(numeric),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	return out, nil
}

// Save implements Store. The snapshot replaces the table contents in one
// transaction so a crash never leaves a half-written registry.
func (s *SQLiteStore) Save(ctx context.Context, entries map[model.MemberID]model.RegistryEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO users (member_id, handle, numeric_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	defer stmt.Close()

	for member, entry := range entries {
		if _, err := stmt.ExecContext(ctx, string(member), entry.Handle, string(entry.NumericID)); err != nil {
			return fmt.Errorf("save registry entry %s: %w", member, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save registry: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
