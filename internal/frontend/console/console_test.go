package console_test

import (
	"context"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/cory-johannsen/pdabridge/internal/config"
	"github.com/cory-johannsen/pdabridge/internal/event"
	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/frontend/console"
	"github.com/cory-johannsen/pdabridge/internal/presentation"
	"github.com/cory-johannsen/pdabridge/internal/roster"
	"github.com/cory-johannsen/pdabridge/internal/testutil"
)

const password = "monolith"

type chanSink chan event.Event

func (s chanSink) Push(e event.Event) { s <- e }

func start(t *testing.T) (*console.Console, chanSink, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	sink := make(chanSink, 8)
	c := console.New(string(hash), sink, zaptest.NewLogger(t))
	acc := console.NewAcceptor(config.ConsoleConfig{
		Host:         "127.0.0.1",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, c, zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- acc.Start(ctx) }()
	require.Eventually(t, func() bool { return acc.IsRunning() && acc.Addr() != "" }, 2*time.Second, 10*time.Millisecond)

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("console did not stop")
		}
	})
	return c, sink, acc.Addr()
}

func line(author, text string) presentation.Line {
	l := presentation.NewLine(presentation.StyleText, text)
	l.Author = author
	l.Faction = faction.Loner
	return l
}

func TestLoginThenMirrorLines(t *testing.T) {
	c, _, addr := start(t)
	client := testutil.NewConsoleClient(t, addr)
	client.Login(password)
	require.Eventually(t, func() bool { return c.Sessions() == 1 }, 2*time.Second, 10*time.Millisecond)

	c.AppendLine(line("Wolf", "Good hunting, stalker"))
	got := client.ReadUntil("Good hunting, stalker", 2*time.Second)
	assert.Contains(t, ansi.Strip(got), "Wolf: Good hunting, stalker")
}

func TestInputReachesSinkOnlyWhenEnabled(t *testing.T) {
	c, sink, addr := start(t)
	client := testutil.NewConsoleClient(t, addr)
	client.Login(password)

	client.Send("too early")
	client.ReadUntil("Input is disabled", 2*time.Second)
	assert.Empty(t, sink)

	c.EnableInput()
	client.Send("/msg Fox hi")
	select {
	case e := <-sink:
		assert.Equal(t, event.NewAppText(event.Command, "msg Fox hi"), e)
	case <-time.After(2 * time.Second):
		t.Fatal("no event pushed")
	}
}

func TestWrongPasswordDisconnects(t *testing.T) {
	c, _, addr := start(t)
	client := testutil.NewConsoleClient(t, addr)
	for range console.MaxAttempts {
		client.ReadUntil("Password: ", 2*time.Second)
		client.Send("duty")
		client.ReadUntil("Access denied.", 2*time.Second)
	}
	assert.Equal(t, 0, c.Sessions())
}

func TestHistoryReplayAndWho(t *testing.T) {
	c, _, addr := start(t)
	for i := range console.HistorySize + 2 {
		c.AppendLine(presentation.Information(string(rune('a'+i%26)) + "-old"))
	}
	c.AppendLine(line("Fox", "latest"))
	p := roster.Participant{Name: "Fox", Faction: faction.Loner, Online: true}
	c.RenderRoster([]roster.Line{{Label: "Loner", Header: true}, {Label: roster.ParticipantLabel(p), Participant: p}})

	client := testutil.NewConsoleClient(t, addr)
	client.Login(password)
	client.ReadUntil("latest", 2*time.Second)

	client.Send("/who")
	got := ansi.Strip(client.ReadUntil("Fox", 2*time.Second))
	assert.Contains(t, got, "Loner")
}

func TestQuit(t *testing.T) {
	c, _, addr := start(t)
	client := testutil.NewConsoleClient(t, addr)
	client.Login(password)
	client.Send("/quit")
	client.ReadUntil("bye", 2*time.Second)
	assert.Eventually(t, func() bool { return c.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)
}
