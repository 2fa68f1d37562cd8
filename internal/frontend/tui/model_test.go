package tui

import (
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/pdabridge/internal/event"
	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/presentation"
	"github.com/cory-johannsen/pdabridge/internal/rank"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

type sink struct{ events []event.Event }

func (s *sink) Push(e event.Event) { s.events = append(s.events, e) }

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func sized(t *testing.T, s *sink) Model {
	t.Helper()
	return update(t, NewModel("PDA #zone", s), tea.WindowSizeMsg{Width: 120, Height: 30})
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	return update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestViewBeforeSize(t *testing.T) {
	m := NewModel("PDA", &sink{})
	assert.Contains(t, m.View(), "Initializing")
}

func TestEnterIgnoredWhileInputDisabled(t *testing.T) {
	s := &sink{}
	m := sized(t, s)
	m = typeText(t, m, "hello")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, s.events)
}

func TestEnterSubmitsAndClears(t *testing.T) {
	s := &sink{}
	m := sized(t, s)
	m = update(t, m, inputMsg(true))
	m = typeText(t, m, "/nick Fox")
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.Len(t, s.events, 1)
	assert.Equal(t, event.NewAppText(event.Command, "nick Fox"), s.events[0])
	assert.Empty(t, m.input.Value())
}

func TestCtrlCRequestsExit(t *testing.T) {
	s := &sink{}
	m := sized(t, s)
	update(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	require.Len(t, s.events, 1)
	assert.Equal(t, event.NewAppText(event.Command, "exit"), s.events[0])
}

func TestLinesRenderAndScrollbackIsBounded(t *testing.T) {
	m := sized(t, &sink{})
	for i := range MaxLines + 5 {
		l := presentation.NewLine(presentation.StyleText, fmt.Sprintf("line %d", i))
		l.Author = "Wolf"
		l.Faction = faction.Loner
		m = update(t, m, lineMsg(l))
	}
	assert.Len(t, m.lines, MaxLines)
	assert.Equal(t, "line 5", m.lines[0].Text)
	assert.Contains(t, ansi.Strip(m.View()), fmt.Sprintf("line %d", MaxLines+4))
}

func TestRosterPanel(t *testing.T) {
	m := sized(t, &sink{})
	p := roster.Participant{Name: "Strelok", Faction: faction.Loner, Rank: rank.Op, Online: true}
	m = update(t, m, rosterMsg([]roster.Line{
		{Label: "Loner", Header: true},
		{Label: roster.ParticipantLabel(p), Participant: p},
	}))
	view := ansi.Strip(m.View())
	assert.Contains(t, view, "Loner")
	assert.Contains(t, view, "@Strelok")
}

func TestRenderLineStripsEscapes(t *testing.T) {
	l := presentation.NewLine(presentation.StyleText, "\x1b[31mred\x1b[0m\x07")
	l.Author = "Fox"
	got := ansi.Strip(renderLine(l, 0))
	assert.True(t, strings.HasSuffix(got, "Fox: red"), got)
}

func TestRenderDirectLine(t *testing.T) {
	l := presentation.NewLine(presentation.StyleDirect, "psst")
	l.Author = "Fox"
	l.Receiver = "Wolf"
	assert.Contains(t, ansi.Strip(renderLine(l, 0)), "Fox -> Wolf: psst")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab...", truncate("abcdefgh", 5))
	assert.Equal(t, "ab", truncate("abcdefgh", 2))
	assert.Equal(t, "", truncate("abc", 0))
	assert.Equal(t, "ab   ", pad("ab", 5))
}
