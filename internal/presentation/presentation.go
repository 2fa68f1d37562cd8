// Package presentation defines the surface the router draws on: styled
// message lines, the participant list and the input toggle.
package presentation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

// Style tags a line for rendering.
type Style string

const (
	StyleText        Style = "Text"
	StyleDirect      Style = "DM"
	StyleInformation Style = "Information"
	StyleError       Style = "Error"
)

// TimeLayout formats the timestamp prefix of every line.
const TimeLayout = "15:04:05"

// Line is one entry in the message list.
type Line struct {
	ID    uuid.UUID
	At    time.Time
	Style Style
	// Author and Faction are empty for information and error lines.
	Author  string
	Faction faction.Faction
	// Receiver is set for direct messages only.
	Receiver        string
	ReceiverFaction faction.Faction
	Text            string
	Highlight       bool
}

// NewLine stamps a line.
func NewLine(style Style, text string) Line {
	return Line{ID: uuid.New(), At: time.Now(), Style: style, Text: text}
}

// Information creates an information line.
func Information(text string) Line { return NewLine(StyleInformation, text) }

// Error creates an error line.
func Error(text string) Line { return NewLine(StyleError, text) }

// Format renders l as plain text, the way the headless and console
// surfaces show it.
func Format(l Line) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] ", l.At.Format(TimeLayout))
	switch l.Style {
	case StyleInformation, StyleError:
		if l.Author != "" {
			fmt.Fprintf(&b, "%s: ", l.Author)
		}
		b.WriteString(l.Text)
		return b.String()
	case StyleDirect:
		fmt.Fprintf(&b, "%s -> %s: %s", l.Author, l.Receiver, l.Text)
	default:
		fmt.Fprintf(&b, "%s: %s", l.Author, l.Text)
	}
	if l.Highlight {
		b.WriteString(" *")
	}
	return b.String()
}

// Surface is driven by the router from its single inbound loop.
// Implementations that render on another goroutine must copy what they keep.
type Surface interface {
	RenderRoster(lines []roster.Line)
	AppendLine(l Line)
	EnableInput()
	DisableInput()
}

// Multi fans every call out to each surface in order.
type Multi []Surface

func (m Multi) RenderRoster(lines []roster.Line) {
	for _, s := range m {
		s.RenderRoster(lines)
	}
}

func (m Multi) AppendLine(l Line) {
	for _, s := range m {
		s.AppendLine(l)
	}
}

func (m Multi) EnableInput() {
	for _, s := range m {
		s.EnableInput()
	}
}

func (m Multi) DisableInput() {
	for _, s := range m {
		s.DisableInput()
	}
}
