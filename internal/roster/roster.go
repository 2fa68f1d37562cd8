// Package roster tracks who is in the chat channel and what faction, rank,
// and in-game status each participant has.
package roster

import (
	"errors"
	"fmt"
	"sort"

	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/rank"
)

// ErrNotFound is returned when an operation names an absent identity.
var ErrNotFound = errors.New("participant not found")

// Participant is one member of the channel.
type Participant struct {
	// Name is the normalized identity with rank glyphs stripped.
	Name string
	// Faction is the participant's in-game faction, Anonymous when unknown.
	Faction faction.Faction
	// Online reports whether the participant is currently in game.
	Online bool
	// Rank is the channel authority symbol.
	Rank rank.Symbol
}

// Roster maps identity to Participant.
// A Roster is not safe for concurrent use; it is owned by the router's
// inbound loop and every mutation is marshaled through that loop.
type Roster struct {
	participants map[string]*Participant
	dirty        bool
}

// New creates an empty Roster.
func New() *Roster {
	return &Roster{participants: make(map[string]*Participant)}
}

// Upsert creates the participant if absent, otherwise updates its faction
// when it differs.
//
// Precondition: identity must be non-empty.
// Postcondition: The roster is dirty. A created participant is offline.
func (r *Roster) Upsert(identity string, f faction.Faction) Participant {
	key := rank.Normalize(identity)
	r.dirty = true
	if p, ok := r.participants[key]; ok {
		if p.Faction != f {
			p.Faction = f
		}
		return *p
	}
	p := &Participant{Name: key, Faction: f, Rank: rank.None}
	r.participants[key] = p
	return *p
}

// Add inserts a participant seen in a name list, seeding its rank from the
// raw nick's glyphs. Existing participants are left untouched.
//
// Postcondition: Returns true when a participant was created.
func (r *Roster) Add(raw string, f faction.Faction) bool {
	key, seed := rank.SplitNick(raw)
	if _, ok := r.participants[key]; ok {
		return false
	}
	r.participants[key] = &Participant{Name: key, Faction: f, Rank: seed}
	r.dirty = true
	return true
}

// Rename moves a participant to a new identity, keeping faction, online
// state and rank.
//
// Postcondition: Returns ErrNotFound when from is absent.
func (r *Roster) Rename(from, to string) error {
	oldKey, newKey := rank.Normalize(from), rank.Normalize(to)
	p, ok := r.participants[oldKey]
	if !ok {
		return fmt.Errorf("renaming %q: %w", from, ErrNotFound)
	}
	delete(r.participants, oldKey)
	p.Name = newKey
	r.participants[newKey] = p
	r.dirty = true
	return nil
}

// Remove deletes a participant.
//
// Postcondition: Returns ErrNotFound when identity is absent.
func (r *Roster) Remove(identity string) error {
	key := rank.Normalize(identity)
	if _, ok := r.participants[key]; !ok {
		return fmt.Errorf("removing %q: %w", identity, ErrNotFound)
	}
	delete(r.participants, key)
	r.dirty = true
	return nil
}

func (r *Roster) mutate(op, identity string, fn func(p *Participant)) error {
	p, ok := r.participants[rank.Normalize(identity)]
	if !ok {
		return fmt.Errorf("%s %q: %w", op, identity, ErrNotFound)
	}
	fn(p)
	r.dirty = true
	return nil
}

// SetOnline records whether the participant is in game.
func (r *Roster) SetOnline(identity string, online bool) error {
	return r.mutate("set online", identity, func(p *Participant) { p.Online = online })
}

// SetRank records the participant's channel authority.
func (r *Roster) SetRank(identity string, s rank.Symbol) error {
	return r.mutate("set rank", identity, func(p *Participant) { p.Rank = s })
}

// SetFaction records the participant's faction.
func (r *Roster) SetFaction(identity string, f faction.Faction) error {
	return r.mutate("set faction", identity, func(p *Participant) { p.Faction = f })
}

// Rank implements rank.Store.
func (r *Roster) Rank(identity string) (rank.Symbol, bool) {
	p, ok := r.participants[rank.Normalize(identity)]
	if !ok {
		return rank.None, false
	}
	return p.Rank, true
}

// Get returns a copy of the participant.
func (r *Roster) Get(identity string) (Participant, bool) {
	p, ok := r.participants[rank.Normalize(identity)]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// Has reports whether identity is present.
func (r *Roster) Has(identity string) bool {
	_, ok := r.participants[rank.Normalize(identity)]
	return ok
}

// Len returns the number of participants.
func (r *Roster) Len() int { return len(r.participants) }

// Participants returns copies of all participants sorted by name.
func (r *Roster) Participants() []Participant {
	out := make([]Participant, 0, len(r.participants))
	for _, p := range r.participants {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns all identities sorted.
func (r *Roster) Names() []string {
	ps := r.Participants()
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Name
	}
	return out
}

// Clear removes every participant.
//
// Postcondition: The roster is empty and dirty.
func (r *Roster) Clear() {
	r.participants = make(map[string]*Participant)
	r.dirty = true
}

// Dirty reports whether the roster changed since the last render.
func (r *Roster) Dirty() bool { return r.dirty }

// MarkRendered clears the dirty flag.
func (r *Roster) MarkRendered() { r.dirty = false }
