package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/pdabridge/internal/archive"
	"github.com/cory-johannsen/pdabridge/internal/config"
	"github.com/cory-johannsen/pdabridge/internal/storage/postgres"
	"github.com/cory-johannsen/pdabridge/internal/testutil"
)

func TestTranscriptStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	store := postgres.NewTranscriptStore(pc.DB)
	ctx := context.Background()

	base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i, author := range []string{"Wolf", "Fox", "Wolf"} {
		e := archive.Entry{
			ID:     uuid.New(),
			At:     base.Add(time.Duration(i) * time.Second),
			Style:  "Text",
			Author: author,
			Text:   "line",
		}
		ids = append(ids, e.ID)
		require.NoError(t, store.Append(ctx, e))
		require.NoError(t, store.Append(ctx, e), "duplicate ids are ignored")
	}

	recent, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, ids[1], recent[0].ID)
	assert.Equal(t, ids[2], recent[1].ID)
	assert.True(t, recent[1].At.Equal(base.Add(2*time.Second)))

	wolf, err := store.ByAuthor(ctx, "Wolf", 10)
	require.NoError(t, err)
	assert.Len(t, wolf, 2)

	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Append(ctx, archive.Entry{ID: uuid.New()}), archive.ErrClosed)
}

func TestOpenSetsArchiveSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pc := testutil.NewPostgresContainer(t)
	pc.ApplyMigrations(t)
	ctx := context.Background()

	store, err := postgres.Open(ctx, pc.Config)
	require.NoError(t, err)
	require.NoError(t, store.Ping(ctx))
	require.NoError(t, store.Append(ctx, archive.Entry{ID: uuid.New(), At: time.Now().UTC(), Style: "Text", Text: "hello"}))

	var sessions int
	require.NoError(t, pc.DB.QueryRow(ctx,
		`SELECT count(*) FROM pg_stat_activity WHERE application_name = $1`, postgres.ApplicationName,
	).Scan(&sessions))
	assert.Positive(t, sessions)

	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Ping(ctx), archive.ErrClosed)
}

func TestOpenUnreachable(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "127.0.0.1",
		Port:     1,
		User:     "pdabridge",
		Name:     "archive",
		SSLMode:  "disable",
		MaxConns: 1,
	}
	_, err := postgres.Open(context.Background(), cfg)
	assert.ErrorIs(t, err, postgres.ErrUnreachable)
}
