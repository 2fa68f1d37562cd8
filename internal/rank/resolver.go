package rank

import "fmt"

// Store is the roster surface the resolver reads and writes.
type Store interface {
	Rank(identity string) (Symbol, bool)
	SetRank(identity string, s Symbol) error
}

// inputs are the batch levels a rule is evaluated against.
type inputs struct {
	cur, add, rem int
}

// rule is one row of the transition table. next returns the new level.
type rule struct {
	name  string
	match func(in inputs) bool
	next  func(in inputs) int
}

// transitions is evaluated top to bottom; the first matching row wins.
var transitions = []rule{
	{
		name:  "removing held rank",
		match: func(in inputs) bool { return in.cur == in.rem },
		next:  func(in inputs) int { return in.add },
	},
	{
		name:  "held rank outranks removal",
		match: func(in inputs) bool { return in.cur > in.rem },
		next:  func(in inputs) int { return in.cur },
	},
	{
		name:  "grant outranks removal",
		match: func(in inputs) bool { return in.add > in.rem },
		next:  func(in inputs) int { return in.add },
	},
	{
		name:  "no-op",
		match: func(inputs) bool { return true },
		next:  func(in inputs) int { return in.cur },
	},
}

// Resolve computes the rank that results from applying c to current.
// It is a pure function; only the highest symbol of each batch matters.
func Resolve(current Symbol, c Change) Symbol {
	in := inputs{cur: current.Level(), add: BatchLevel(c.Added), rem: BatchLevel(c.Removed)}
	for _, r := range transitions {
		if r.match(in) {
			return FromLevel(r.next(in))
		}
	}
	return current
}

// Resolver applies mode changes to a Store.
type Resolver struct{}

// Apply resolves c for identity and writes the result back to store.
//
// Precondition: identity must be a normalized roster key.
// Postcondition: Returns the written symbol, or an error when the identity
// is absent from store.
func (Resolver) Apply(store Store, identity string, c Change) (Symbol, error) {
	current, ok := store.Rank(identity)
	if !ok {
		return None, fmt.Errorf("resolving rank for %q: identity not in roster", identity)
	}
	next := Resolve(current, c)
	if err := store.SetRank(identity, next); err != nil {
		return None, fmt.Errorf("resolving rank for %q: %w", identity, err)
	}
	return next, nil
}
