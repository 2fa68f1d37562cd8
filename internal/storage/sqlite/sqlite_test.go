package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pdabridge/internal/archive"
	"github.com/cory-johannsen/pdabridge/internal/storage/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "archive.db")
	res, err := archive.Migrate(archive.DriverSQLite, path, archive.Up, 0, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.Equal(t, uint(1), res.Version)
	s, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func entry(author string, at time.Time) archive.Entry {
	return archive.Entry{ID: uuid.New(), At: at, Style: "Text", Author: author, Faction: "actor_dolg", Text: "hello"}
}

func TestAppendAndRecent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	a, b, c := entry("Wolf", base), entry("Fox", base.Add(time.Second)), entry("Wolf", base.Add(2*time.Second))
	for _, e := range []archive.Entry{c, a, b} {
		require.NoError(t, s.Append(ctx, e))
	}
	require.NoError(t, s.Append(ctx, a), "duplicate ids are ignored")

	recent, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, b.ID, recent[0].ID)
	assert.Equal(t, c, recent[1])

	all, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	wolf, err := s.ByAuthor(ctx, "Wolf", 10)
	require.NoError(t, err)
	assert.Equal(t, []archive.Entry{a, c}, wolf)
}

func TestClosedStore(t *testing.T) {
	s := openStore(t)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Append(context.Background(), entry("Wolf", time.Now())), archive.ErrClosed)
	_, err := s.Recent(context.Background(), 1)
	assert.ErrorIs(t, err, archive.ErrClosed)
}

func TestMigrateDownAndUpAgain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.db")
	logger := zaptest.NewLogger(t)
	_, err := archive.Migrate(archive.DriverSQLite, path, archive.Up, 0, logger)
	require.NoError(t, err)

	res, err := archive.Migrate(archive.DriverSQLite, path, archive.Up, 0, logger)
	require.NoError(t, err)
	assert.True(t, res.NoChange)

	_, err = archive.Migrate(archive.DriverSQLite, path, archive.Down, 0, logger)
	require.NoError(t, err)
	_, err = archive.Migrate(archive.DriverSQLite, path, archive.Up, 1, logger)
	require.NoError(t, err)
}

func TestPropertyTextSurvives(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	at := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	rapid.Check(t, func(rt *rapid.T) {
		at = at.Add(time.Millisecond)
		e := entry(rapid.StringMatching(`[A-Za-z_]{1,16}`).Draw(rt, "author"), at)
		e.Text = rapid.StringMatching(`[\p{L}\p{N} ☺☻/.,!?'"-]{0,64}`).Draw(rt, "text")
		if err := s.Append(ctx, e); err != nil {
			rt.Fatalf("append: %v", err)
		}
		got, err := s.Recent(ctx, 1)
		if err != nil || len(got) != 1 {
			rt.Fatalf("recent: %v %d", err, len(got))
		}
		if got[0].Text != e.Text {
			rt.Fatalf("text %q came back as %q", e.Text, got[0].Text)
		}
	})
}
