package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/pdabridge/internal/event"
	"github.com/cory-johannsen/pdabridge/internal/wire"
)

func mustParse(t *testing.T, line string) wire.Message {
	t.Helper()
	m, err := wire.Parse(line)
	require.NoError(t, err)
	return m
}

func wireEvent(t *testing.T, line string) event.WireEvent {
	t.Helper()
	ev, err := Normalize(mustParse(t, line), "Strelok")
	require.NoError(t, err)
	we, ok := ev.(event.WireEvent)
	require.True(t, ok, "expected a wire event, got %T", ev)
	return we
}

func TestPrivmsg(t *testing.T) {
	ev, err := Normalize(mustParse(t, ":Wolf!w@zone PRIVMSG #zone :hello there"), "Strelok")
	require.NoError(t, err)
	msg, ok := ev.(event.Message)
	require.True(t, ok)
	assert.Equal(t, "Wolf", msg.Author)
	assert.Equal(t, "#zone", msg.Target)
	assert.Equal(t, "hello there", msg.Content)
	assert.False(t, msg.Service)
}

func TestJoinAndQuit(t *testing.T) {
	join := wireEvent(t, ":Wolf!w@zone JOIN #zone")
	assert.Equal(t, event.WireJoin, join.Kind)
	assert.Equal(t, "Wolf", join.Author)
	assert.Equal(t, "#zone", join.Target)

	quit := wireEvent(t, ":Wolf!w@zone QUIT :Ping timeout")
	assert.Equal(t, event.WireQuit, quit.Kind)
	assert.Equal(t, "Ping timeout", quit.Reason)
}

func TestPartReasons(t *testing.T) {
	cases := map[string]string{
		":Wolf PART #zone :Surge":       "caught in emission.",
		":Wolf PART #zone :Underground": "went underground.",
		":Wolf PART #zone :bye":         "has left the channel.",
		":Wolf PART #zone":              "has left the channel.",
	}
	for line, want := range cases {
		ev := wireEvent(t, line)
		assert.Equal(t, event.WirePart, ev.Kind)
		assert.Equal(t, want, ev.Reason, line)
	}
}

func TestNickAndRename(t *testing.T) {
	nick := wireEvent(t, ":Wolf!w@zone NICK :Fox")
	assert.Equal(t, event.WireNick, nick.Kind)
	assert.Equal(t, "Wolf", nick.Author)
	assert.Equal(t, "Fox", nick.Nick)

	renamed := wireEvent(t, ":Strelok USER Guest42")
	assert.Equal(t, event.WireRenamed, renamed.Kind)
	assert.Equal(t, "Guest42", renamed.Nick)
}

func TestModeNeedsThreeParams(t *testing.T) {
	ev := wireEvent(t, ":ChanServ MODE #zone +o-v Wolf")
	assert.Equal(t, event.WireMode, ev.Kind)
	assert.Equal(t, "+o-v", ev.Mode)
	assert.Equal(t, "Wolf", ev.Nick)

	ignored, err := Normalize(mustParse(t, ":Strelok MODE Strelok +i"), "Strelok")
	assert.NoError(t, err)
	assert.Nil(t, ignored)
}

func TestNoticeFromNickServ(t *testing.T) {
	ev, err := Normalize(mustParse(t, ":NickServ!s@services NOTICE Strelok :This nickname is registered and protected."), "Strelok")
	require.NoError(t, err)
	msg := ev.(event.Message)
	assert.True(t, msg.Service)
	assert.Equal(t, "NickServ", msg.Author)

	other, err := Normalize(mustParse(t, ":NickServ NOTICE Someone :hi"), "Strelok")
	assert.NoError(t, err)
	assert.Nil(t, other)
}

func TestNoticeCTCP(t *testing.T) {
	ev, err := Normalize(mustParse(t, ":Wolf NOTICE #zone :\x01AMOGUS Wolf/actor_dolg/True\x01"), "Strelok")
	require.NoError(t, err)
	msg := ev.(event.Message)
	assert.False(t, msg.Service)
	assert.Equal(t, "\x01AMOGUS Wolf/actor_dolg/True\x01", msg.Content)

	plain, err := Normalize(mustParse(t, ":Wolf NOTICE #zone :plain notice"), "Strelok")
	assert.NoError(t, err)
	assert.Nil(t, plain)
}

func TestNames(t *testing.T) {
	ev := wireEvent(t, ":irc.example.org 353 Strelok = #zone :@Wolf +Fox  Strelok")
	assert.Equal(t, event.WireNames, ev.Kind)
	assert.Equal(t, "#zone", ev.Target)
	assert.Equal(t, []string{"@Wolf", "+Fox", "Strelok"}, ev.Nicks)

	end := wireEvent(t, ":irc.example.org 366 Strelok #zone :End of /NAMES list.")
	assert.Equal(t, event.WireEndOfNames, end.Kind)
	assert.Equal(t, "#zone", end.Target)
}

func TestTopic(t *testing.T) {
	reply := wireEvent(t, ":irc.example.org 332 Strelok #zone :Welcome to the Zone")
	assert.Equal(t, event.WireTopic, reply.Kind)
	assert.Equal(t, "#zone", reply.Target)
	assert.Equal(t, "Welcome to the Zone", reply.Text)

	changed := wireEvent(t, ":Wolf TOPIC #zone :Blowout soon")
	assert.Equal(t, "#zone", changed.Target)
	assert.Equal(t, "Blowout soon", changed.Text)
}

func TestKickAndBan(t *testing.T) {
	k := wireEvent(t, ":Wolf KICK #zone Fox :spam")
	assert.Equal(t, event.WireKick, k.Kind)
	assert.Equal(t, "Wolf", k.Author)
	assert.Equal(t, "Fox", k.Nick)
	assert.Equal(t, "spam", k.Reason)

	b := wireEvent(t, ":irc.example.org 474 Strelok #zone :Cannot join channel (+b)")
	assert.Equal(t, event.WireBanned, b.Kind)
	assert.Equal(t, "Strelok", b.Nick)
	assert.Equal(t, "#zone", b.Target)
}

func TestUnknownKind(t *testing.T) {
	_, err := Normalize(mustParse(t, ":irc.example.org 372 Strelok :- MOTD"), "Strelok")
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.False(t, Known("372"))
	assert.True(t, Known("PRIVMSG"))
}

func TestMissingField(t *testing.T) {
	for _, line := range []string{
		":Wolf PRIVMSG #zone",
		":Wolf JOIN",
		":Wolf KICK #zone",
		":irc.example.org 353 Strelok = #zone",
		":irc.example.org 332 Strelok #zone",
	} {
		_, err := Normalize(mustParse(t, line), "Strelok")
		assert.ErrorIs(t, err, ErrMissingField, line)
	}
}

type sink struct{ events []event.Event }

func (s *sink) Push(e event.Event) { s.events = append(s.events, e) }

type gate struct{ sets int }

func (g *gate) Set() { g.sets++ }

func TestHandleDropsAndContinues(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := &sink{}
	g := &gate{}
	n := New(s, g, func() string { return "Strelok" }, zap.New(core))

	for _, line := range []string{
		":irc.example.org 372 Strelok :- MOTD",
		":Wolf PRIVMSG #zone",
		":Wolf JOIN #zone",
		":Wolf PRIVMSG #zone :hi",
		":Wolf QUIT :gone",
	} {
		n.Handle(mustParse(t, line))
	}

	require.Len(t, s.events, 3)
	assert.IsType(t, event.WireEvent{}, s.events[0])
	assert.IsType(t, event.Message{}, s.events[1])
	assert.IsType(t, event.WireEvent{}, s.events[2])
	assert.Equal(t, 2, g.sets)
	assert.Equal(t, 1, logs.FilterMessage("dropping malformed wire event").Len())
	assert.Equal(t, 1, logs.FilterMessage("dropping unhandled wire event").Len())
}
