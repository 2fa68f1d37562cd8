package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pdabridge/internal/event"
)

func TestParse(t *testing.T) {
	m, err := Parse(":Wolf!wolf@zone.net PRIVMSG #zone :hello there\r\n")
	require.NoError(t, err)
	require.NotNil(t, m.Prefix)
	assert.Equal(t, "Wolf", m.Prefix.Nick)
	assert.Equal(t, "wolf", m.Prefix.User)
	assert.Equal(t, "zone.net", m.Prefix.Host)
	assert.Equal(t, "PRIVMSG", m.Command)
	assert.Equal(t, []string{"#zone", "hello there"}, m.Params)
}

func TestParseNumericAndServerPrefix(t *testing.T) {
	m, err := Parse(":irc.server 353 Strelok = #zone :@Wolf +Ghost Strelok")
	require.NoError(t, err)
	assert.Equal(t, "irc.server", m.Source())
	assert.Equal(t, "353", m.Command)
	names, ok := m.Param(3)
	require.True(t, ok)
	assert.Equal(t, "@Wolf +Ghost Strelok", names)

	_, ok = m.Param(4)
	assert.False(t, ok)
}

func TestParseNoPrefix(t *testing.T) {
	m, err := Parse("PING :token123")
	require.NoError(t, err)
	assert.Nil(t, m.Prefix)
	assert.Equal(t, "", m.Source())
	assert.Equal(t, []string{"token123"}, m.Params)
}

func TestParseMalformed(t *testing.T) {
	for _, line := range []string{"", ":prefixonly", "   "} {
		_, err := Parse(line)
		assert.ErrorIs(t, err, ErrMalformed, "line %q", line)
	}
}

func TestParseTags(t *testing.T) {
	m, err := Parse("@time=2026-10-18T10:00:00.000Z;account=wolf :Wolf!wolf@zone.net PRIVMSG #zone :tagged")
	require.NoError(t, err)
	assert.Equal(t, "Wolf", m.Source())
	assert.Equal(t, "PRIVMSG", m.Command)
	assert.Equal(t, []string{"#zone", "tagged"}, m.Params)
	assert.Equal(t, "wolf", m.Tags["account"])
	assert.Equal(t, "2026-10-18T10:00:00.000Z", m.Tags["time"])
}

func TestEncodeRejectsLineBreaks(t *testing.T) {
	m, err := Format(event.ChannelMessage{Target: "#zone", Content: "hi\r\nQUIT :bye"})
	require.NoError(t, err)
	_, err = m.Encode()
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFormat(t *testing.T) {
	cases := []struct {
		action event.Action
		want   string
	}{
		{event.ChannelMessage{Target: "#zone", Content: "hi all"}, "PRIVMSG #zone :hi all"},
		{event.DirectMessage{Target: "Wolf", Content: "psst"}, "PRIVMSG Wolf psst"},
		{event.Notice{Target: "#zone", Content: "\x01AMOGUS Strelok/actor_stalker/True\x01"}, "NOTICE #zone :\x01AMOGUS Strelok/actor_stalker/True\x01"},
		{event.NickChange{Nick: "Strelok_"}, "NICK Strelok_"},
		{event.Join{Channel: "#zone"}, "JOIN #zone"},
		{event.Part{Channel: "#zone", Reason: "Surge"}, "PART #zone Surge"},
		{event.Part{Channel: "#zone"}, "PART #zone"},
	}
	for _, tc := range cases {
		m, err := Format(tc.action)
		require.NoError(t, err)
		line, err := m.Encode()
		require.NoError(t, err)
		assert.Equal(t, tc.want, line)
	}
}

func TestPropertyStringParseRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := Message{
			Prefix:  &Prefix{Nick: rapid.StringMatching(`[A-Za-z][A-Za-z0-9_]{0,8}`).Draw(t, "nick")},
			Command: rapid.SampledFrom([]string{"PRIVMSG", "NOTICE", "PART", "KICK"}).Draw(t, "cmd"),
			Params: append(
				rapid.SliceOfN(rapid.StringMatching(`[#A-Za-z0-9_]{1,8}`), 0, 3).Draw(t, "middle"),
				rapid.StringMatching(`[A-Za-z0-9 :!?.]{0,20}`).Draw(t, "trailing"),
			),
		}
		line, err := m.Encode()
		if err != nil {
			t.Fatalf("encode %v: %v", m, err)
		}
		back, err := Parse(line)
		if err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}
		assert.Equal(t, m, back)
	})
}
