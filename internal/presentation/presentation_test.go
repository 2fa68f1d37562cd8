package presentation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cory-johannsen/pdabridge/internal/event"
	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

func at(l Line) Line {
	l.At = time.Date(2026, 10, 18, 21, 4, 5, 0, time.UTC)
	return l
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "[21:04:05] Connected to the network.", Format(at(Information("Connected to the network."))))

	msg := at(Line{Style: StyleText, Author: "Wolf", Faction: faction.Duty, Text: "hi Strelok", Highlight: true})
	assert.Equal(t, "[21:04:05] Wolf: hi Strelok *", Format(msg))

	dm := at(Line{Style: StyleDirect, Author: "Wolf", Receiver: "Strelok", Text: "psst"})
	assert.Equal(t, "[21:04:05] Wolf -> Strelok: psst", Format(dm))
}

func TestMultiFansOut(t *testing.T) {
	a, b := NewRecorder(0), NewRecorder(0)
	m := Multi{a, b}

	m.EnableInput()
	m.AppendLine(Information("one"))
	m.RenderRoster([]roster.Line{{Label: " ⦾ Wolf"}})

	for _, r := range []*Recorder{a, b} {
		assert.True(t, r.InputEnabled())
		assert.Equal(t, []string{"one"}, r.Texts())
		assert.Equal(t, 1, r.Renders())
	}
	m.DisableInput()
	assert.False(t, a.InputEnabled())
}

func TestRecorderLimit(t *testing.T) {
	r := NewRecorder(2)
	for _, s := range []string{"a", "b", "c"} {
		r.AppendLine(Information(s))
	}
	assert.Equal(t, []string{"b", "c"}, r.Texts())
}

func TestLogSurface(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewLog(zap.New(core))

	s.AppendLine(Error("Lost connection to the network."))
	s.AppendLine(Line{Style: StyleText, Author: "Wolf", Faction: faction.Duty, Text: "hello"})

	entries := logs.FilterMessage("line").All()
	require.Len(t, entries, 2)
	assert.Equal(t, zap.WarnLevel, entries[0].Level)
	assert.Equal(t, "Duty", entries[1].ContextMap()["faction"])
}

type sink struct{ events []event.Event }

func (s *sink) Push(e event.Event) { s.events = append(s.events, e) }

func TestSubmit(t *testing.T) {
	s := &sink{}
	assert.False(t, Submit(s, "   "))
	assert.True(t, Submit(s, "/msg Wolf hi"))
	assert.True(t, Submit(s, "hello zone\n"))

	require.Len(t, s.events, 2)
	cmd := s.events[0].(event.AppEvent)
	assert.Equal(t, event.Command, cmd.Kind)
	assert.Equal(t, "msg Wolf hi", cmd.Text)
	msg := s.events[1].(event.AppEvent)
	assert.Equal(t, event.OurMessage, msg.Kind)
	assert.Equal(t, "hello zone", msg.Text)
}

func TestFormatAttributedInformation(t *testing.T) {
	l := at(Information("have send you 500 RUB."))
	l.Author = "Wolf"
	assert.Equal(t, "[21:04:05] Wolf: have send you 500 RUB.", Format(l))
}
