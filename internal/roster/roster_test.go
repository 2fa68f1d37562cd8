package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/rank"
)

func TestUpsertCreatesOffline(t *testing.T) {
	r := New()
	p := r.Upsert("Strelok", faction.Loner)
	assert.Equal(t, "Strelok", p.Name)
	assert.False(t, p.Online)
	assert.Equal(t, rank.None, p.Rank)
	assert.True(t, r.Dirty())
}

func TestUpsertUpdatesFactionOnly(t *testing.T) {
	r := New()
	r.Upsert("Strelok", faction.Loner)
	require.NoError(t, r.SetOnline("Strelok", true))
	require.NoError(t, r.SetRank("Strelok", rank.Op))

	p := r.Upsert("Strelok", faction.Duty)
	assert.Equal(t, faction.Duty, p.Faction)
	assert.True(t, p.Online)
	assert.Equal(t, rank.Op, p.Rank)
	assert.Equal(t, 1, r.Len())
}

func TestKeysAreNormalized(t *testing.T) {
	r := New()
	r.Upsert("@Sidorovich", faction.Anonymous)
	assert.True(t, r.Has("Sidorovich"))
	assert.True(t, r.Has("%Sidorovich"))
	assert.Equal(t, []string{"Sidorovich"}, r.Names())
}

func TestAddSeedsRankFromGlyph(t *testing.T) {
	r := New()
	assert.True(t, r.Add("@Wolf", faction.Anonymous))
	assert.False(t, r.Add("Wolf", faction.Duty))

	p, ok := r.Get("Wolf")
	require.True(t, ok)
	assert.Equal(t, rank.Op, p.Rank)
	assert.Equal(t, faction.Anonymous, p.Faction)
}

func TestRenamePreservesState(t *testing.T) {
	r := New()
	r.Upsert("Wolf", faction.Freedom)
	require.NoError(t, r.SetOnline("Wolf", true))
	require.NoError(t, r.SetRank("Wolf", rank.HalfOp))
	r.MarkRendered()

	require.NoError(t, r.Rename("Wolf", "Wolf_"))
	assert.True(t, r.Dirty())
	assert.False(t, r.Has("Wolf"))
	p, ok := r.Get("Wolf_")
	require.True(t, ok)
	assert.Equal(t, Participant{Name: "Wolf_", Faction: faction.Freedom, Online: true, Rank: rank.HalfOp}, p)
}

func TestMissingIdentity(t *testing.T) {
	r := New()
	assert.ErrorIs(t, r.Rename("a", "b"), ErrNotFound)
	assert.ErrorIs(t, r.Remove("a"), ErrNotFound)
	assert.ErrorIs(t, r.SetOnline("a", true), ErrNotFound)
	assert.ErrorIs(t, r.SetRank("a", rank.Op), ErrNotFound)
	assert.ErrorIs(t, r.SetFaction("a", faction.Duty), ErrNotFound)
}

func TestClear(t *testing.T) {
	r := New()
	r.Upsert("a", faction.Duty)
	r.MarkRendered()
	r.Clear()
	assert.Zero(t, r.Len())
	assert.True(t, r.Dirty())
}

func TestRosterSatisfiesRankStore(t *testing.T) {
	r := New()
	r.Upsert("Wolf", faction.Loner)
	c, err := rank.ParseModes("+oa")
	require.NoError(t, err)

	got, err := rank.Resolver{}.Apply(r, "Wolf", c)
	require.NoError(t, err)
	assert.Equal(t, rank.Admin, got)
}

func TestPropertyEveryMutationSetsDirty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := New()
		r.Upsert("a", faction.Loner)
		r.Upsert("b", faction.Duty)
		r.MarkRendered()

		switch rapid.IntRange(0, 5).Draw(t, "op") {
		case 0:
			r.Upsert("c", faction.Bandit)
		case 1:
			_ = r.Rename("a", "z")
		case 2:
			_ = r.Remove("b")
		case 3:
			_ = r.SetOnline("a", true)
		case 4:
			_ = r.SetRank("a", rank.Voice)
		case 5:
			_ = r.SetFaction("b", faction.Monolith)
		}
		if !r.Dirty() {
			t.Fatal("mutation left roster clean")
		}
	})
}

func TestPropertyKeysStayUnique(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := New()
		names := rapid.SliceOf(rapid.StringMatching(`[@%+]?[a-c]{1,2}`)).Draw(t, "names")
		for _, n := range names {
			r.Upsert(n, faction.Anonymous)
		}
		seen := make(map[string]bool)
		for _, n := range r.Names() {
			if seen[n] {
				t.Fatalf("duplicate key %q", n)
			}
			seen[n] = true
		}
	})
}
