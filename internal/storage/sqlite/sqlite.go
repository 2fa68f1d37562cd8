// Package sqlite provides the local transcript archive on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/pdabridge/internal/archive"
)

// timeLayout keeps timestamps sortable as text and parseable as UTC.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store archives lines in a local SQLite file.
type Store struct {
	db     *sql.DB
	closed atomic.Bool
}

// Open opens the database at path. The schema is expected to be migrated.
//
// Postcondition: Returns an open Store or an error.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive %q: %w", path, err)
	}
	// SQLite has one writer; one connection avoids busy errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA journal_mode = WAL; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting pragmas: %w", err)
	}
	return &Store{db: db}, nil
}

// Append inserts e, ignoring a duplicate ID.
func (s *Store) Append(ctx context.Context, e archive.Entry) error {
	if s.closed.Load() {
		return archive.ErrClosed
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO transcript (id, at, style, author, faction, receiver, text, highlight)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, e.ID.String(), e.At.UTC().Format(timeLayout), e.Style, e.Author, e.Faction, e.Receiver, e.Text, e.Highlight)
	if err != nil {
		return fmt.Errorf("appending transcript line: %w", err)
	}
	return nil
}

// Recent returns the newest limit lines, oldest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]archive.Entry, error) {
	return s.query(ctx, `
		SELECT id, at, style, author, faction, receiver, text, highlight FROM (
			SELECT * FROM transcript ORDER BY at DESC, id DESC LIMIT ?
		) ORDER BY at, id
	`, limit)
}

// ByAuthor returns the newest limit lines by author, oldest first.
func (s *Store) ByAuthor(ctx context.Context, author string, limit int) ([]archive.Entry, error) {
	return s.query(ctx, `
		SELECT id, at, style, author, faction, receiver, text, highlight FROM (
			SELECT * FROM transcript WHERE author = ? ORDER BY at DESC, id DESC LIMIT ?
		) ORDER BY at, id
	`, author, limit)
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]archive.Entry, error) {
	if s.closed.Load() {
		return nil, archive.ErrClosed
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transcript: %w", err)
	}
	defer rows.Close()

	var entries []archive.Entry
	for rows.Next() {
		var e archive.Entry
		var id, at string
		if err := rows.Scan(&id, &at, &e.Style, &e.Author, &e.Faction, &e.Receiver, &e.Text, &e.Highlight); err != nil {
			return nil, fmt.Errorf("scanning transcript: %w", err)
		}
		if e.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parsing id %q: %w", id, err)
		}
		if e.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("parsing timestamp %q: %w", at, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database. Later calls return archive.ErrClosed.
func (s *Store) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}
