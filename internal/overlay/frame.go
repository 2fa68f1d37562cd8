// Package overlay mirrors what the router draws to browser overlays over
// websocket and, optionally, to a NATS subject.
package overlay

import (
	"time"

	"github.com/cory-johannsen/pdabridge/internal/presentation"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

// Frame kinds.
const (
	KindLine   = "line"
	KindRoster = "roster"
	KindInput  = "input"
)

// Frame is one JSON message sent to overlay clients.
type Frame struct {
	Kind   string      `json:"kind"`
	Line   *LineFrame  `json:"line,omitempty"`
	Roster []RosterRow `json:"roster,omitempty"`
	Input  *bool       `json:"input,omitempty"`
}

// LineFrame is the wire form of a presentation line.
type LineFrame struct {
	ID              string    `json:"id"`
	At              time.Time `json:"at"`
	Style           string    `json:"style"`
	Author          string    `json:"author,omitempty"`
	Faction         string    `json:"faction,omitempty"`
	Receiver        string    `json:"receiver,omitempty"`
	ReceiverFaction string    `json:"receiver_faction,omitempty"`
	Text            string    `json:"text"`
	Highlight       bool      `json:"highlight,omitempty"`
}

// RosterRow is either a group header or a participant.
type RosterRow struct {
	Label   string `json:"label,omitempty"`
	Name    string `json:"name,omitempty"`
	Faction string `json:"faction,omitempty"`
	Rank    string `json:"rank,omitempty"`
	Online  bool   `json:"online,omitempty"`
}

func lineFrame(l presentation.Line) Frame {
	return Frame{Kind: KindLine, Line: &LineFrame{
		ID:              l.ID.String(),
		At:              l.At.UTC(),
		Style:           string(l.Style),
		Author:          l.Author,
		Faction:         string(l.Faction),
		Receiver:        l.Receiver,
		ReceiverFaction: string(l.ReceiverFaction),
		Text:            l.Text,
		Highlight:       l.Highlight,
	}}
}

func rosterFrame(lines []roster.Line) Frame {
	rows := make([]RosterRow, 0, len(lines))
	for _, l := range lines {
		if l.Header {
			rows = append(rows, RosterRow{Label: l.Label})
			continue
		}
		p := l.Participant
		rows = append(rows, RosterRow{
			Name:    p.Name,
			Faction: string(p.Faction),
			Rank:    string(p.Rank),
			Online:  p.Online,
		})
	}
	return Frame{Kind: KindRoster, Roster: rows}
}

func inputFrame(enabled bool) Frame {
	return Frame{Kind: KindInput, Input: &enabled}
}
