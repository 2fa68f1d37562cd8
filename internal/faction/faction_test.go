package faction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestParse(t *testing.T) {
	f, err := Parse("actor_dolg")
	require.NoError(t, err)
	assert.Equal(t, Duty, f)
	assert.Equal(t, "Duty", f.Name())

	_, err = Parse("actor_nobody")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestParseName(t *testing.T) {
	f, err := ParseName("Clear_Sky")
	require.NoError(t, err)
	assert.Equal(t, ClearSky, f)

	_, err = ParseName("Clear Sky")
	assert.ErrorIs(t, err, ErrUnknown)
}

func TestUnknownDisplaysAnonymous(t *testing.T) {
	assert.Equal(t, "Anonymous", Faction("actor_x").Name())
	assert.Equal(t, Anonymous, OrAnonymous("actor_x"))
	assert.Equal(t, Bandit, OrAnonymous("actor_bandit"))
}

func TestReportableExcludesZombie(t *testing.T) {
	reportable := Reportable()
	assert.NotContains(t, reportable, Zombie)
	assert.Len(t, reportable, len(All())-1)
}

func TestPropertyNameRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := rapid.SampledFrom(All()).Draw(t, "faction")
		back, err := ParseName(f.Name())
		if err != nil || back != f {
			t.Fatalf("name round trip failed for %s: %v", f, err)
		}
	})
}
