// Package sqlite provides a SQLite implementation of the storage.SessionStore interface.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jwulff/glucotrack/internal/session"
	"github.com/jwulff/glucotrack/internal/storage"

	_ "modernc.org/sqlite"
)

// MemoryDSN keeps the database in process memory; it is gone when the store closes.
const MemoryDSN = ":memory:"

// Store is a SQLite implementation of storage.SessionStore.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewMemoryStore creates an in-memory SQLite store.
func NewMemoryStore() (*Store, error) {
	return newStore(MemoryDSN)
}

// NewFileStore creates a file-based SQLite store.
func NewFileStore(path string) (*Store, error) {
	return newStore(path)
}

func newStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to ":memory:" is a separate database, and a single
	// connection also serializes transactions per store.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return store, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) Load(ctx context.Context, id string) (*session.Log, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	exists, err := sessionExists(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, storage.SessionNotFound(id)
	}

	entries, err := loadEntries(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := s.touch(ctx, tx, id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return session.RestoreLog(entries), nil
}

func (s *Store) Update(ctx context.Context, id string, fn storage.UpdateFunc) (*session.Log, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	entries, err := loadEntries(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	current := session.RestoreLog(entries)

	updated, err := fn(current)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		updated = current
	}

	snapshot := updated.Snapshot()
	if len(snapshot) < len(entries) {
		return nil, fmt.Errorf("session %s: log shrank from %d to %d entries", id, len(entries), len(snapshot))
	}

	if err := s.touch(ctx, tx, id); err != nil {
		return nil, err
	}
	// Logs are append-only, so only the tail is new.
	if err := insertEntries(ctx, tx, id, len(entries), snapshot[len(entries):]); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return session.RestoreLog(snapshot), nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM entries WHERE session_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Expire(ctx context.Context, before time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	cutoff := before.UnixMilli()
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM entries WHERE session_id IN (SELECT id FROM sessions WHERE last_seen < ?)
	`, cutoff); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE last_seen < ?", cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), tx.Commit()
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions").Scan(&count)
	return count, err
}

// touch creates the session row if needed and bumps last_seen.
func (s *Store) touch(ctx context.Context, q queryer, id string) error {
	now := s.now().UnixMilli()
	_, err := q.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, last_seen) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET last_seen = excluded.last_seen
	`, id, now, now)
	return err
}

func sessionExists(ctx context.Context, q queryer, id string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM sessions WHERE id = ?", id).Scan(&n)
	return n > 0, err
}

func loadEntries(ctx context.Context, q queryer, id string) ([]session.Entry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT fasting, postprandial, hba1c, recorded_at FROM entries
		WHERE session_id = ?
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []session.Entry
	for rows.Next() {
		var e session.Entry
		var recordedAt int64
		if err := rows.Scan(&e.Fasting, &e.Postprandial, &e.HbA1c, &recordedAt); err != nil {
			return nil, err
		}
		e.RecordedAt = time.UnixMilli(recordedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func insertEntries(ctx context.Context, tx *sql.Tx, id string, startSeq int, entries []session.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (session_id, seq, fasting, postprandial, hba1c, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, id, startSeq+i, e.Fasting, e.Postprandial, e.HbA1c, e.RecordedAt.UnixMilli()); err != nil {
			return fmt.Errorf("failed to insert entry %d: %w", startSeq+i, err)
		}
	}
	return nil
}

// Verify interface compliance
var _ storage.SessionStore = (*Store)(nil)
