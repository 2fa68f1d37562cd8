package router

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/pdabridge/internal/bridge"
	"github.com/cory-johannsen/pdabridge/internal/config"
	"github.com/cory-johannsen/pdabridge/internal/event"
	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/narrative"
	"github.com/cory-johannsen/pdabridge/internal/presentation"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

type fakeGame struct {
	mu       sync.Mutex
	location string
	records  []bridge.Record
}

func (g *fakeGame) Write(r bridge.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records = append(g.records, r)
	return nil
}

func (g *fakeGame) SetLocation(location string) {
	g.mu.Lock()
	g.location = location
	g.mu.Unlock()
}

func (g *fakeGame) Records() []bridge.Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]bridge.Record(nil), g.records...)
}

// last returns the most recent record of type T.
func last[T bridge.Record](g *fakeGame) (T, bool) {
	recs := g.Records()
	for i := len(recs) - 1; i >= 0; i-- {
		if v, ok := recs[i].(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

type fakeNarrator struct {
	calls int
	err   error
}

func (n *fakeNarrator) Generate(dc narrative.DeathContext) (string, error) {
	n.calls++
	if n.err != nil {
		return "", n.err
	}
	return "Ivan☻actor_stalker☺" + dc.Name + " died.", nil
}

type fakeSender struct {
	mu   sync.Mutex
	sent []event.Action
}

func (s *fakeSender) Send(_ context.Context, a event.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, a)
	return nil
}

func (s *fakeSender) Sent() []event.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]event.Action(nil), s.sent...)
}

type zeroSource struct{}

func (zeroSource) Intn(int) int { return 0 }

type clock struct{ t time.Time }

func (c *clock) Now() time.Time          { return c.t }
func (c *clock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fixture struct {
	r        *Router
	surface  *presentation.Recorder
	game     *fakeGame
	narrator *fakeNarrator
	clock    *clock
	exits    int
}

func testSettings() Settings {
	ordering, _ := roster.OrderingByName(roster.Alphabetical)
	return Settings{
		Nick:           "Strelok",
		FactionSetting: config.FactionGameSynced,
		Faction:        faction.Loner,
		Channel:        "#zone",
		Channels: []config.Channel{
			{Name: "#zone", Description: "Zone chat"},
			{Name: "#rus", Description: "Russian"},
		},
		Game: config.GameConfig{
			NewsDuration:        3250,
			ChatKey:             "dik_return",
			NickAutoCompleteKey: "DIK_TAB",
		},
		Ordering: ordering,
	}
}

func newFixture(t *testing.T, mutate ...func(*Settings)) *fixture {
	t.Helper()
	s := testSettings()
	for _, m := range mutate {
		m(&s)
	}
	f := &fixture{
		surface:  presentation.NewRecorder(0),
		game:     &fakeGame{},
		narrator: &fakeNarrator{},
		clock:    &clock{t: time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)},
	}
	f.r = New(Deps{
		Settings: s,
		Surface:  f.surface,
		Game:     f.game,
		Narrator: f.narrator,
		Random:   zeroSource{},
		Version:  "1.2.3",
		Exit:     func() { f.exits++ },
		After:    func(_ time.Duration, fn func()) { fn() },
		Now:      f.clock.Now,
		Tick:     5 * time.Millisecond,
		Logger:   zaptest.NewLogger(t),
	})
	return f
}

// run pushes events and drains them synchronously.
func (f *fixture) run(t *testing.T, events ...event.Event) {
	t.Helper()
	for _, e := range events {
		f.r.Push(e)
	}
	require.NoError(t, f.r.drain(context.Background()))
}

// join simulates being in the channel with ourselves on the roster.
func (f *fixture) join(t *testing.T) {
	t.Helper()
	f.run(t, event.NewApp(event.Connected))
	f.r.outbound.Drain()
}

func (f *fixture) outbound() []event.Action {
	return f.r.outbound.Drain()
}
