// Package tui is the interactive terminal surface: the message list, the
// participant panel and the input line.
package tui

import (
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cory-johannsen/pdabridge/internal/presentation"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

// MaxLines bounds the scrollback kept by the message list.
const MaxLines = 1000

const rosterWidth = 28

type (
	lineMsg   presentation.Line
	rosterMsg []roster.Line
	inputMsg  bool
)

// Model is the bubbletea model behind the terminal surface.
type Model struct {
	title  string
	sink   presentation.Sink
	lines  []presentation.Line
	// rendered[i] is lines[i] wrapped to the current viewport width
	rendered []string
	roster   []roster.Line

	messages viewport.Model
	input    textinput.Model
	enabled  bool

	width, height int
	ready         bool
}

// NewModel creates a model that feeds typed lines into sink.
//
// Precondition: sink must be non-nil.
func NewModel(title string, sink presentation.Sink) Model {
	in := textinput.New()
	in.Placeholder = "Waiting for the channel..."
	in.Prompt = "> "
	in.CharLimit = 400
	return Model{title: title, sink: sink, input: in}
}

func (m Model) Init() tea.Cmd { return textinput.Blink }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.ready = true
		m.rendered = m.rendered[:0]
		for _, l := range m.lines {
			m.rendered = append(m.rendered, renderLine(l, m.messages.Width))
		}
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			presentation.Submit(m.sink, "/exit")
			return m, nil
		case tea.KeyEnter:
			if m.enabled && presentation.Submit(m.sink, m.input.Value()) {
				m.input.Reset()
			}
			return m, nil
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.messages, cmd = m.messages.Update(msg)
			return m, cmd
		}

	case lineMsg:
		l := presentation.Line(msg)
		m.lines = append(m.lines, l)
		if m.ready {
			m.rendered = append(m.rendered, renderLine(l, m.messages.Width))
		}
		if over := len(m.lines) - MaxLines; over > 0 {
			m.lines = slices.Delete(m.lines, 0, over)
			if len(m.rendered) > over {
				m.rendered = slices.Delete(m.rendered, 0, over)
			}
		}
		m.refresh()

	case rosterMsg:
		m.roster = msg

	case inputMsg:
		m.enabled = bool(msg)
		if m.enabled {
			m.input.Placeholder = "Type a message or /help"
			cmds = append(cmds, m.input.Focus())
		} else {
			m.input.Placeholder = "Waiting for the channel..."
			m.input.Blur()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *Model) resize() {
	// header, input line and the panel borders
	h := m.height - 1 - 1 - 2
	if h < 1 {
		h = 1
	}
	w := m.width - rosterWidth - 2 - 2
	if w < 10 {
		w = 10
	}
	if !m.ready {
		m.messages = viewport.New(w, h)
	} else {
		m.messages.Width, m.messages.Height = w, h
	}
	m.input.Width = m.width - 4
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}
	follow := m.messages.AtBottom()
	m.messages.SetContent(strings.Join(m.rendered, "\n"))
	if follow {
		m.messages.GotoBottom()
	}
}

func (m Model) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}
	header := headerStyle.Width(m.width).Render(truncate(m.title, m.width-2))
	left := panelStyle.Render(m.messages.View())
	right := panelStyle.
		Width(rosterWidth).
		Height(m.messages.Height).
		Render(renderRoster(m.roster, rosterWidth))
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.input.View(), helpStyle.Render("PgUp/PgDn: Scroll • Ctrl+C: Quit"))
}
