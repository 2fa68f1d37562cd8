package console

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/presentation"
)

const (
	reset  = "\033[0m"
	bold   = "\033[1m"
	dim    = "\033[2m"
	red    = "\033[31m"
	yellow = "\033[33m"
	cyan   = "\033[36m"
	purple = "\033[35m"
)

var factionColors = map[faction.Faction]string{
	faction.ClearSky:  "\033[96m",
	faction.Loner:     "\033[93m",
	faction.Ecologist: "\033[32m",
	faction.Bandit:    "\033[90m",
	faction.Monolith:  "\033[97m",
	faction.Duty:      "\033[91m",
	faction.Freedom:   "\033[92m",
	faction.Mercenary: "\033[94m",
	faction.Military:  "\033[32m",
	faction.Renegade:  "\033[33m",
	faction.Zombie:    "\033[37m",
	faction.UNISG:     "\033[34m",
	faction.SIN:       "\033[31m",
}

func colorize(color, text string) string {
	if color == "" {
		return text
	}
	return color + text + reset
}

// FormatLine renders l for a terminal, stripping any escapes carried in
// the remote text.
func FormatLine(l presentation.Line) string {
	var b strings.Builder
	b.WriteString(colorize(dim, l.At.Format(presentation.TimeLayout)))
	b.WriteByte(' ')
	name := func(n string, f faction.Faction) string {
		return colorize(factionColors[f], ansi.Strip(n))
	}
	text := ansi.Strip(l.Text)
	switch l.Style {
	case presentation.StyleError:
		return b.String() + colorize(red+bold, text)
	case presentation.StyleInformation:
		if l.Author != "" {
			b.WriteString(name(l.Author, l.Faction) + ": ")
		}
		return b.String() + colorize(cyan, text)
	case presentation.StyleDirect:
		b.WriteString(name(l.Author, l.Faction) + " -> " + name(l.Receiver, l.ReceiverFaction) + ": ")
		text = colorize(purple, text)
	default:
		b.WriteString(name(l.Author, l.Faction) + ": ")
	}
	if l.Highlight {
		text = colorize(yellow+bold, text)
	}
	b.WriteString(text)
	return b.String()
}
