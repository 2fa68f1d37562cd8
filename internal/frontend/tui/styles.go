package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/presentation"
)

var (
	timeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9AA0A6")).Italic(true)
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dmStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A142F4"))
	hiStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FBBC04")).Bold(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5F6368"))

	groupStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8AB4F8"))
	offlineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9AA0A6")).Padding(0, 1)
)

var factionColors = map[faction.Faction]lipgloss.Color{
	faction.ClearSky:  lipgloss.Color("#24C1E0"),
	faction.Loner:     lipgloss.Color("#FBBC04"),
	faction.Ecologist: lipgloss.Color("#34A853"),
	faction.Bandit:    lipgloss.Color("#8D6E63"),
	faction.Monolith:  lipgloss.Color("#E8EAED"),
	faction.Duty:      lipgloss.Color("#EA4335"),
	faction.Freedom:   lipgloss.Color("#0F9D58"),
	faction.Mercenary: lipgloss.Color("#4285F4"),
	faction.Military:  lipgloss.Color("#7CB342"),
	faction.Renegade:  lipgloss.Color("#795548"),
	faction.Zombie:    lipgloss.Color("#9E9E9E"),
	faction.UNISG:     lipgloss.Color("#3F51B5"),
	faction.SIN:       lipgloss.Color("#B71C1C"),
}

func nameStyle(f faction.Faction) lipgloss.Style {
	c, ok := factionColors[f]
	if !ok {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#E8EAED"))
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true)
}

func lineStyle(l presentation.Line) lipgloss.Style {
	switch {
	case l.Style == presentation.StyleError:
		return errStyle
	case l.Style == presentation.StyleInformation:
		return infoStyle
	case l.Highlight:
		return hiStyle
	case l.Style == presentation.StyleDirect:
		return dmStyle
	}
	return lipgloss.NewStyle()
}
