// Package rank models channel authority: the symbols a participant can hold,
// the mode letters that grant them, and the resolver that computes a new
// rank from a mode change.
package rank

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Symbol is the prefix glyph the chat network shows before a ranked nick.
type Symbol string

const (
	None   Symbol = ""
	Voice  Symbol = "+"
	HalfOp Symbol = "%"
	Op     Symbol = "@"
	Admin  Symbol = "&"
	Owner  Symbol = "*"
)

// ErrUnknownMode is returned when a mode string contains a letter with no
// rank mapping.
var ErrUnknownMode = errors.New("unknown mode")

var levels = map[Symbol]int{
	None:   0,
	Voice:  1,
	HalfOp: 2,
	Op:     3,
	Admin:  4,
	Owner:  5,
}

var byLevel = map[int]Symbol{0: None, 1: Voice, 2: HalfOp, 3: Op, 4: Admin, 5: Owner}

var modeLetters = map[rune]Symbol{
	'o': Op,
	'h': HalfOp,
	'v': Voice,
	'a': Admin,
	'q': Owner,
	'r': None,
}

// Level returns the numeric authority of s. Unknown symbols are level 0.
func (s Symbol) Level() int {
	return levels[s]
}

// FromLevel returns the symbol for a numeric level.
func FromLevel(level int) Symbol {
	return byLevel[level]
}

// BatchLevel returns the highest level in symbols, or 0 when empty.
func BatchLevel(symbols []Symbol) int {
	highest := 0
	for _, s := range symbols {
		if l := s.Level(); l > highest {
			highest = l
		}
	}
	return highest
}

// Change is one mode-change event for a single identity.
type Change struct {
	Added   []Symbol
	Removed []Symbol
}

var modeGroup = regexp.MustCompile(`([+-]\w+)`)

// ParseModes splits a mode string such as "+oa-v" into added and removed
// symbol batches.
//
// Postcondition: Returns an error wrapping ErrUnknownMode if any letter is
// unmapped; no partial change is returned in that case.
func ParseModes(mode string) (Change, error) {
	var c Change
	for _, group := range modeGroup.FindAllString(mode, -1) {
		sign, letters := group[0], group[1:]
		for _, letter := range letters {
			sym, ok := modeLetters[letter]
			if !ok {
				return Change{}, fmt.Errorf("%w: %q in %q", ErrUnknownMode, letter, mode)
			}
			if sign == '+' {
				c.Added = append(c.Added, sym)
			} else {
				c.Removed = append(c.Removed, sym)
			}
		}
	}
	return c, nil
}

const prefixGlyphs = "@%+&*"

// SplitNick strips leading rank glyphs from a raw nick as it appears in a
// name list, returning the normalized identity and the rank the glyphs seed.
func SplitNick(raw string) (string, Symbol) {
	name := strings.TrimLeft(raw, prefixGlyphs)
	glyphs := raw[:len(raw)-len(name)]
	seed := None
	for _, g := range glyphs {
		if s := Symbol(string(g)); s.Level() > seed.Level() {
			seed = s
		}
	}
	return name, seed
}

// Normalize returns the roster key for a raw nick.
func Normalize(raw string) string {
	name, _ := SplitNick(raw)
	return name
}
