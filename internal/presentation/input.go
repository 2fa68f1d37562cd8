package presentation

import (
	"strings"

	"github.com/cory-johannsen/pdabridge/internal/event"
)

// Sink receives events produced by user input.
type Sink interface {
	Push(event.Event)
}

// Submit turns one typed line into an inbound event: a leading "/" makes
// it a command, anything else is our channel message. Blank lines are
// ignored.
//
// Postcondition: Returns false when nothing was pushed.
func Submit(sink Sink, text string) bool {
	text = strings.TrimRight(text, "\r\n")
	if strings.TrimSpace(text) == "" {
		return false
	}
	if cmd, ok := strings.CutPrefix(text, "/"); ok {
		sink.Push(event.NewAppText(event.Command, cmd))
		return true
	}
	sink.Push(event.NewAppText(event.OurMessage, text))
	return true
}
