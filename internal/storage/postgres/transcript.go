// Package postgres archives transcript lines in a shared PostgreSQL
// database using pgx v5.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/pdabridge/internal/archive"
	"github.com/cory-johannsen/pdabridge/internal/config"
)

const (
	// ApplicationName tags archive sessions in pg_stat_activity.
	ApplicationName = "pdabridge-archive"
	// ConnectTimeout bounds the reachability check in Open.
	ConnectTimeout = 5 * time.Second
	// healthCheckPeriod is how often idle archive connections are checked.
	healthCheckPeriod = 30 * time.Second
)

// ErrUnreachable is returned by Open and Ping when the archive database
// does not answer.
var ErrUnreachable = errors.New("archive database unreachable")

// TranscriptStore archives lines in the transcript table.
type TranscriptStore struct {
	db     *pgxpool.Pool
	closed atomic.Bool
}

// Open connects to the archive database described by cfg.
//
// Precondition: the transcript migrations have been applied.
// Postcondition: Returns a store whose database answered within
// ConnectTimeout, or a non-nil error wrapping ErrUnreachable when it did not.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*TranscriptStore, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	db, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating archive pool: %w", err)
	}
	s := NewTranscriptStore(db)
	if err := s.Ping(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// poolConfig maps archive settings onto pgx. Lines are appended one at a
// time by the router, so the pool stays small and long-lived.
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing archive database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.HealthCheckPeriod = healthCheckPeriod
	poolCfg.ConnConfig.RuntimeParams["application_name"] = ApplicationName
	return poolCfg, nil
}

// NewTranscriptStore wraps an open pool. The store takes ownership of db.
//
// Precondition: db must be open and migrated.
func NewTranscriptStore(db *pgxpool.Pool) *TranscriptStore {
	return &TranscriptStore{db: db}
}

// Ping checks that the archive answers within ConnectTimeout.
func (s *TranscriptStore) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return archive.ErrClosed
	}
	ctx, cancel := context.WithTimeout(ctx, ConnectTimeout)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	return nil
}

// Append inserts e, ignoring a duplicate ID.
func (s *TranscriptStore) Append(ctx context.Context, e archive.Entry) error {
	if s.closed.Load() {
		return archive.ErrClosed
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO transcript (id, at, style, author, faction, receiver, text, highlight)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO NOTHING`,
		e.ID, e.At, e.Style, e.Author, e.Faction, e.Receiver, e.Text, e.Highlight,
	)
	if err != nil {
		return fmt.Errorf("appending transcript line: %w", err)
	}
	return nil
}

// Recent returns the newest limit lines, oldest first.
func (s *TranscriptStore) Recent(ctx context.Context, limit int) ([]archive.Entry, error) {
	return s.query(ctx,
		`SELECT id, at, style, author, faction, receiver, text, highlight FROM (
			SELECT * FROM transcript ORDER BY at DESC, id DESC LIMIT $1
		 ) newest ORDER BY at, id`, limit)
}

// ByAuthor returns the newest limit lines by author, oldest first.
func (s *TranscriptStore) ByAuthor(ctx context.Context, author string, limit int) ([]archive.Entry, error) {
	return s.query(ctx,
		`SELECT id, at, style, author, faction, receiver, text, highlight FROM (
			SELECT * FROM transcript WHERE author = $2 ORDER BY at DESC, id DESC LIMIT $1
		 ) newest ORDER BY at, id`, limit, author)
}

func (s *TranscriptStore) query(ctx context.Context, sql string, args ...any) ([]archive.Entry, error) {
	if s.closed.Load() {
		return nil, archive.ErrClosed
	}
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("querying transcript: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (archive.Entry, error) {
		var e archive.Entry
		err := row.Scan(&e.ID, &e.At, &e.Style, &e.Author, &e.Faction, &e.Receiver, &e.Text, &e.Highlight)
		e.At = e.At.UTC()
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning transcript: %w", err)
	}
	return entries, nil
}

// Close releases the pool. Later calls return archive.ErrClosed.
func (s *TranscriptStore) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.db.Close()
	}
	return nil
}
