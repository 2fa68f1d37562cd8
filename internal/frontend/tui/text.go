package tui

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/cory-johannsen/pdabridge/internal/presentation"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

// clean strips terminal escapes a remote participant could have sent.
func clean(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' {
			return -1
		}
		return r
	}, ansi.Strip(s))
}

// truncate cuts s to width display cells with a trailing ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return runewidth.Truncate(s, width, "")
	}
	return runewidth.Truncate(s, width, "...")
}

// pad right-fills s to width display cells.
func pad(s string, width int) string {
	return runewidth.FillRight(truncate(s, width), width)
}

// renderLine formats one message line with styles, wrapped to width.
func renderLine(l presentation.Line, width int) string {
	var b strings.Builder
	b.WriteString(timeStyle.Render(l.At.Format(presentation.TimeLayout)))
	b.WriteByte(' ')
	body := lineStyle(l)
	switch l.Style {
	case presentation.StyleInformation, presentation.StyleError:
		if l.Author != "" {
			b.WriteString(nameStyle(l.Faction).Render(clean(l.Author)))
			b.WriteString(": ")
		}
	case presentation.StyleDirect:
		b.WriteString(nameStyle(l.Faction).Render(clean(l.Author)))
		b.WriteString(" -> ")
		b.WriteString(nameStyle(l.ReceiverFaction).Render(clean(l.Receiver)))
		b.WriteString(": ")
	default:
		b.WriteString(nameStyle(l.Faction).Render(clean(l.Author)))
		b.WriteString(": ")
	}
	b.WriteString(body.Render(clean(l.Text)))
	if width <= 0 {
		return b.String()
	}
	return ansi.Wrap(b.String(), width, " ")
}

// renderRoster draws the participant panel rows.
func renderRoster(lines []roster.Line, width int) string {
	rows := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.Header {
			rows = append(rows, groupStyle.Render(pad(l.Label, width)))
			continue
		}
		label := pad(l.Label, width)
		if l.Participant.Online {
			rows = append(rows, nameStyle(l.Participant.Faction).Render(label))
		} else {
			rows = append(rows, offlineStyle.Render(label))
		}
	}
	return strings.Join(rows, "\n")
}
