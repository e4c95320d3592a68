// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/shawncrivello/label-me-labeled/internal/batch"
)

const (
	// UnknownUser is recorded when the user running the command cannot be told.
	UnknownUser = "unknown"

	defaultRecentLimit = 50
	// fixed width so that timestamps sort as text
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

	schema = `
	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp TEXT NOT NULL,
		user TEXT NOT NULL,
		action TEXT NOT NULL,
		target_id TEXT NOT NULL,
		description TEXT
	);
	CREATE INDEX IF NOT EXISTS audit_log_timestamp ON audit_log(timestamp);
	`
)

var (
	_ batch.AuditSink = &Store{}

	// ErrClosed is returned when the store is used after Close.
	ErrClosed = errors.New("audit store is closed")
)

// Entry is one stored audit record.
type Entry struct {
	ID          int64
	Timestamp   time.Time
	User        string
	Action      string
	TargetID    string
	Description string
}

// Store persists audit records in a sqlite database.
type Store struct {
	db   *sql.DB
	user string
	now  func() time.Time
}

// Open opens, creating it when missing, the database at path. Records are attributed
// to user.
func Open(ctx context.Context, path, user string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize audit database: %w", err)
	}

	if user == "" {
		user = UnknownUser
	}
	return &Store{db: db, user: user, now: time.Now}, nil
}

// Record stores one audit record.
func (s *Store) Record(ctx context.Context, actionType, targetID, description string) error {
	if s.db == nil {
		return ErrClosed
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (timestamp, user, action, target_id, description) VALUES (?, ?, ?, ?, ?)`,
		s.now().UTC().Format(timestampLayout), s.user, actionType, targetID, description,
	)
	if err != nil {
		return fmt.Errorf("failed to write audit record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. A limit of zero or less returns the
// last 50 records.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = defaultRecentLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, user, action, target_id, COALESCE(description, '')
		FROM audit_log ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read audit records: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var entry Entry
		var timestamp string
		if err := rows.Scan(&entry.ID, &timestamp, &entry.User, &entry.Action, &entry.TargetID, &entry.Description); err != nil {
			return nil, fmt.Errorf("failed to read audit record: %w", err)
		}

		if entry.Timestamp, err = time.Parse(timestampLayout, timestamp); err != nil {
			return nil, fmt.Errorf("invalid timestamp on audit record %d: %w", entry.ID, err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// Close releases the database. Close is safe to call more than once.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}
