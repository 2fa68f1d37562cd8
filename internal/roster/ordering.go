package roster

import (
	"fmt"
	"sort"
)

const (
	OnlineIcon  = "⦿"
	OfflineIcon = "⦾"
)

// Line is one row of a rendered roster. Header rows carry no participant.
type Line struct {
	Label       string
	Header      bool
	Participant Participant
}

// Ordering renders participants into display rows.
type Ordering interface {
	Name() string
	Render(ps []Participant) []Line
}

const (
	Alphabetical          = "Names in alphabetical order"
	ReverseAlphabetical   = "Names in reverse alphabetical order"
	OnlineFirst           = "Online first in alphabetical order"
	GroupByFaction        = "Group by faction and name"
	GroupByFactionCounter = "Group by faction with counter"
)

// Orderings returns every strategy in menu order.
func Orderings() []Ordering {
	return []Ordering{
		alphabetical{},
		reverseAlphabetical{},
		onlineFirst{},
		groupByFaction{},
		groupByFactionCounter{},
	}
}

// OrderingByName resolves a strategy from its display name.
func OrderingByName(name string) (Ordering, error) {
	for _, o := range Orderings() {
		if o.Name() == name {
			return o, nil
		}
	}
	return nil, fmt.Errorf("unknown roster ordering %q", name)
}

// ParticipantLabel formats a row as " <icon> <rank><name>".
func ParticipantLabel(p Participant) string {
	icon := OfflineIcon
	if p.Online {
		icon = OnlineIcon
	}
	return fmt.Sprintf(" %s %s%s", icon, p.Rank, p.Name)
}

func rows(ps []Participant) []Line {
	out := make([]Line, len(ps))
	for i, p := range ps {
		out[i] = Line{Label: ParticipantLabel(p), Participant: p}
	}
	return out
}

func sorted(ps []Participant, less func(a, b Participant) bool) []Participant {
	out := make([]Participant, len(ps))
	copy(out, ps)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

type alphabetical struct{}

func (alphabetical) Name() string { return Alphabetical }

func (alphabetical) Render(ps []Participant) []Line {
	return rows(sorted(ps, func(a, b Participant) bool { return a.Name < b.Name }))
}

type reverseAlphabetical struct{}

func (reverseAlphabetical) Name() string { return ReverseAlphabetical }

func (reverseAlphabetical) Render(ps []Participant) []Line {
	return rows(sorted(ps, func(a, b Participant) bool { return a.Name > b.Name }))
}

type onlineFirst struct{}

func (onlineFirst) Name() string { return OnlineFirst }

func (onlineFirst) Render(ps []Participant) []Line {
	return rows(sorted(ps, func(a, b Participant) bool {
		if a.Online != b.Online {
			return a.Online
		}
		return a.Name < b.Name
	}))
}

type groupByFaction struct{}

func (groupByFaction) Name() string { return GroupByFaction }

func (groupByFaction) Render(ps []Participant) []Line {
	return rows(sorted(ps, func(a, b Participant) bool {
		if an, bn := a.Faction.Name(), b.Faction.Name(); an != bn {
			return an < bn
		}
		return a.Name < b.Name
	}))
}

// groupByFactionCounter puts the most populated faction first, each group
// under a "Faction (n)" header, online members before offline ones.
type groupByFactionCounter struct{}

func (groupByFactionCounter) Name() string { return GroupByFactionCounter }

func (groupByFactionCounter) Render(ps []Participant) []Line {
	counts := make(map[string]int)
	for _, p := range ps {
		counts[p.Faction.Name()]++
	}
	ordered := sorted(ps, func(a, b Participant) bool {
		an, bn := a.Faction.Name(), b.Faction.Name()
		if counts[an] != counts[bn] {
			return counts[an] > counts[bn]
		}
		if an != bn {
			return an > bn
		}
		if a.Online != b.Online {
			return a.Online
		}
		return a.Name > b.Name
	})

	out := make([]Line, 0, len(ordered)+len(counts))
	last := ""
	for _, p := range ordered {
		if tag := p.Faction.Name(); tag != last {
			out = append(out, Line{Label: fmt.Sprintf("%s (%d)", tag, counts[tag]), Header: true})
			last = tag
		}
		out = append(out, Line{Label: ParticipantLabel(p), Participant: p})
	}
	return out
}
