package console

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/presentation"
)

func pipe(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return NewConn(server, time.Second, time.Second), client
}

func TestReadLineDropsTelnetCommands(t *testing.T) {
	conn, client := pipe(t)
	go func() {
		_, _ = client.Write([]byte{IAC, DO, OptEcho, 'h', IAC, SB, 24, 0, 'x', IAC, SE, 'i', 0x07, '\r', '\n'})
	}()
	got, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "hi", got)
}

func TestReadLineBareCR(t *testing.T) {
	conn, client := pipe(t)
	go func() { _, _ = client.Write([]byte("one\rtwo\n")) }()
	first, err := conn.ReadLine()
	require.NoError(t, err)
	second, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, []string{first, second})
}

func TestPropertyReadLinePlainText(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.StringMatching(`[ -~]{0,60}`).Draw(rt, "text")
		server, client := net.Pipe()
		defer server.Close()
		defer client.Close()
		conn := NewConn(server, time.Second, time.Second)
		go func() { _, _ = client.Write([]byte(text + "\r\n")) }()
		got, err := conn.ReadLine()
		if err != nil {
			rt.Fatal(err)
		}
		if got != text {
			rt.Fatalf("got %q, want %q", got, text)
		}
	})
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("zone")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "zone"))
	assert.False(t, CheckPassword(hash, "Zone"))
	assert.False(t, CheckPassword("not-a-hash", "zone"))
}

func TestFormatLine(t *testing.T) {
	dm := presentation.NewLine(presentation.StyleDirect, "\x1b[2Jhi")
	dm.Author, dm.Faction = "Fox", faction.Freedom
	dm.Receiver, dm.ReceiverFaction = "Wolf", faction.Duty
	got := FormatLine(dm)
	assert.Contains(t, got, factionColors[faction.Freedom]+"Fox"+reset)
	assert.NotContains(t, got, "\x1b[2J")

	info := FormatLine(presentation.Information("Connected"))
	assert.Contains(t, info, cyan+"Connected"+reset)
}
