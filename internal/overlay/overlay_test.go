package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/presentation"
	"github.com/cory-johannsen/pdabridge/internal/rank"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

type fakePublisher struct {
	mu     sync.Mutex
	frames []Frame
	err    error
}

func (p *fakePublisher) Publish(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	p.frames = append(p.frames, f)
	return p.err
}

func (p *fakePublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.frames))
	for _, f := range p.frames {
		out = append(out, f.Kind)
	}
	return out
}

func sampleRoster() []roster.Line {
	return []roster.Line{
		{Label: "Loner", Header: true},
		{Participant: roster.Participant{Name: "Strelok", Faction: faction.Loner, Rank: rank.Op, Online: true}},
	}
}

func serve(t *testing.T, o *Overlay) (string, func()) {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- o.Serve(ctx, lis) }()
	return "ws://" + lis.Addr().String() + "/ws", func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("overlay did not stop")
		}
	}
}

func readFrame(t *testing.T, conn *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f Frame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func TestOverlayPublishesEveryCall(t *testing.T) {
	pub := &fakePublisher{}
	o := New("127.0.0.1:0", pub, zaptest.NewLogger(t))

	o.RenderRoster(sampleRoster())
	o.AppendLine(presentation.Information("hello"))
	o.DisableInput()
	o.EnableInput()

	assert.Equal(t, []string{KindRoster, KindLine, KindInput, KindInput}, pub.kinds())
	require.Len(t, pub.frames[0].Roster, 2)
	assert.Equal(t, "Loner", pub.frames[0].Roster[0].Label)
	assert.Equal(t, RosterRow{Name: "Strelok", Faction: "actor_stalker", Rank: "@", Online: true}, pub.frames[0].Roster[1])
	assert.Equal(t, "hello", pub.frames[1].Line.Text)
	assert.False(t, *pub.frames[2].Input)
	assert.True(t, *pub.frames[3].Input)
}

func TestPublisherErrorDoesNotStopSurface(t *testing.T) {
	pub := &fakePublisher{err: errors.New("down")}
	o := New("127.0.0.1:0", pub, zaptest.NewLogger(t))
	o.AppendLine(presentation.Error("one"))
	o.AppendLine(presentation.Error("two"))
	assert.Len(t, pub.kinds(), 2)
}

func TestWebsocketClientReceivesRosterThenLines(t *testing.T) {
	o := New("127.0.0.1:0", nil, zaptest.NewLogger(t))
	url, stop := serve(t, o)
	defer stop()

	o.RenderRoster(sampleRoster())

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return o.Hub().ClientCount() == 1 }, 3*time.Second, 10*time.Millisecond)

	first := readFrame(t, conn)
	assert.Equal(t, KindRoster, first.Kind)

	line := presentation.NewLine(presentation.StyleText, "Get out of here, stalker")
	line.Author = "Sidorovich"
	line.Faction = faction.Loner
	line.Highlight = true
	o.AppendLine(line)

	got := readFrame(t, conn)
	require.Equal(t, KindLine, got.Kind)
	assert.Equal(t, line.ID.String(), got.Line.ID)
	assert.Equal(t, "Sidorovich", got.Line.Author)
	assert.Equal(t, "actor_stalker", got.Line.Faction)
	assert.True(t, got.Line.Highlight)
}

func TestClientDisconnectUnregisters(t *testing.T) {
	o := New("127.0.0.1:0", nil, zaptest.NewLogger(t))
	url, stop := serve(t, o)
	defer stop()

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return o.Hub().ClientCount() == 1 }, 3*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return o.Hub().ClientCount() == 0 }, 3*time.Second, 10*time.Millisecond)
}
