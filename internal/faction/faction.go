// Package faction defines the closed set of in-game factions a chat
// participant can belong to.
package faction

import (
	"errors"
	"fmt"
)

// Faction is the in-game actor identifier, e.g. "actor_stalker".
type Faction string

const (
	ClearSky  Faction = "actor_csky"
	Loner     Faction = "actor_stalker"
	Ecologist Faction = "actor_ecolog"
	Bandit    Faction = "actor_bandit"
	Monolith  Faction = "actor_monolith"
	Duty      Faction = "actor_dolg"
	Freedom   Faction = "actor_freedom"
	Mercenary Faction = "actor_killer"
	Military  Faction = "actor_army"
	Renegade  Faction = "actor_renegade"
	Zombie    Faction = "actor_zombied"
	// Anonymous is the sentinel for participants whose faction is unknown.
	Anonymous Faction = "actor_anonymous"
	UNISG     Faction = "actor_isg"
	SIN       Faction = "actor_greh"
)

// ErrUnknown is returned when a value or name matches no faction.
var ErrUnknown = errors.New("unknown faction")

var names = map[Faction]string{
	ClearSky:  "Clear_Sky",
	Loner:     "Loner",
	Ecologist: "Ecologist",
	Bandit:    "Bandit",
	Monolith:  "Monolith",
	Duty:      "Duty",
	Freedom:   "Freedom",
	Mercenary: "Mercenary",
	Military:  "Military",
	Renegade:  "Renegade",
	Zombie:    "Zombie",
	Anonymous: "Anonymous",
	UNISG:     "UNISG",
	SIN:       "SIN",
}

var all = []Faction{
	ClearSky, Loner, Ecologist, Bandit, Monolith, Duty, Freedom,
	Mercenary, Military, Renegade, Zombie, Anonymous, UNISG, SIN,
}

// All returns every faction in declaration order.
func All() []Faction {
	out := make([]Faction, len(all))
	copy(out, all)
	return out
}

// Reportable returns the factions a narrated news reporter may belong to.
//
// Postcondition: Zombie is never included.
func Reportable() []Faction {
	out := make([]Faction, 0, len(all)-1)
	for _, f := range all {
		if f != Zombie {
			out = append(out, f)
		}
	}
	return out
}

// Valid reports whether f is a member of the closed faction set.
func (f Faction) Valid() bool {
	_, ok := names[f]
	return ok
}

// Name returns the display name. Unknown factions display as "Anonymous".
func (f Faction) Name() string {
	if n, ok := names[f]; ok {
		return n
	}
	return names[Anonymous]
}

// String implements fmt.Stringer.
func (f Faction) String() string { return string(f) }

// Parse resolves an actor value such as "actor_dolg".
//
// Postcondition: Returns a valid Faction or an error wrapping ErrUnknown.
func Parse(value string) (Faction, error) {
	f := Faction(value)
	if !f.Valid() {
		return "", fmt.Errorf("%w: value %q", ErrUnknown, value)
	}
	return f, nil
}

// ParseName resolves a display name such as "Duty".
//
// Postcondition: Returns a valid Faction or an error wrapping ErrUnknown.
func ParseName(name string) (Faction, error) {
	for f, n := range names {
		if n == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: name %q", ErrUnknown, name)
}

// OrAnonymous returns f when valid, otherwise Anonymous.
func OrAnonymous(value string) Faction {
	f, err := Parse(value)
	if err != nil {
		return Anonymous
	}
	return f
}
