// Package narrative synthesizes the news line broadcast when the local
// player dies, from template corpora.
package narrative

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cory-johannsen/pdabridge/internal/content"
	"github.com/cory-johannsen/pdabridge/internal/faction"
)

// ErrGeneration is returned when no sentence could be produced.
var ErrGeneration = errors.New("narrative generation failed")

// DeathContext is the input to Generate.
type DeathContext struct {
	// Name is the display name of the participant who died.
	Name string
	// Causer is the faction actor reported by the game.
	Causer   string
	Location string
	// Cause is the cause-of-death classifier used to pick a death phrase.
	Cause string
	Meta  string
}

var slotPattern = regexp.MustCompile(`(\w+)`)

// Generator builds death narration from a Corpus.
type Generator struct {
	corpus *Corpus
	src    Source
}

// NewGenerator creates a Generator.
//
// Precondition: corpus and src must be non-nil.
func NewGenerator(corpus *Corpus, src Source) *Generator {
	return &Generator{corpus: corpus, src: src}
}

type resolver func(g *Generator, dc DeathContext) (string, error)

var resolvers = map[string]resolver{
	"name":  func(_ *Generator, dc DeathContext) (string, error) { return dc.Name, nil },
	"level": (*Generator).level,
	"saw":   func(g *Generator, _ DeathContext) (string, error) { return g.pick(g.corpus.Flat(FileObservances)) },
	"when":  func(g *Generator, _ DeathContext) (string, error) { return g.pick(g.corpus.Flat(FileTimes)) },
	"death": (*Generator).death,
}

// Generate produces one framed line "reporter☻faction☺Sentence." for dc.
//
// Postcondition: Returns a non-empty line, or an error wrapping
// ErrGeneration when any slot resolves empty.
func (g *Generator) Generate(dc DeathContext) (string, error) {
	formats := g.corpus.Entries(FileFormats)
	if len(formats) == 0 {
		return "", fmt.Errorf("%w: no formats", ErrGeneration)
	}
	format := formats[g.src.Intn(len(formats))]

	slots := slotPattern.FindAllString(format.Text, -1)
	if len(slots) == 0 {
		return "", fmt.Errorf("%w: format %q has no slots", ErrGeneration, format.Key)
	}
	parts := make([]string, 0, len(slots))
	for _, slot := range slots {
		resolve, ok := resolvers[slot]
		if !ok {
			return "", fmt.Errorf("%w: unknown slot %q in format %q", ErrGeneration, slot, format.Key)
		}
		v, err := resolve(g, dc)
		if err != nil {
			return "", fmt.Errorf("%w: slot %q: %v", ErrGeneration, slot, err)
		}
		if v == "" {
			return "", fmt.Errorf("%w: slot %q resolved empty", ErrGeneration, slot)
		}
		parts = append(parts, v)
	}

	sentence := capitalize(strings.Join(parts, " ")) + "."
	if g.src.Intn(10) == 0 {
		remark, err := g.pick(g.corpus.Flat(FileRemarks))
		if err == nil {
			sentence += " " + remark + "."
		}
	}

	reporter, err := g.reporter()
	if err != nil {
		return "", fmt.Errorf("%w: reporter: %v", ErrGeneration, err)
	}
	factions := faction.Reportable()
	reporterFaction := factions[g.src.Intn(len(factions))]
	return content.JoinActorLine(reporter, string(reporterFaction), sentence), nil
}

func (g *Generator) level(dc DeathContext) (string, error) {
	levels, err := g.corpus.Keyed(FileLevels, dc.Location)
	if err != nil {
		return fmt.Sprintf("somewhere in the Zone (%s)", dc.Location), nil
	}
	return g.pick(levels)
}

// death picks a generic phrase one time in eleven, otherwise a phrase keyed
// by the cause, falling back to generic when the cause is unknown.
func (g *Generator) death(dc DeathContext) (string, error) {
	generic := g.corpus.Flat(FileGeneric)
	if g.src.Intn(11) == 0 {
		return g.pick(generic)
	}
	specific, err := g.corpus.Keyed(FileClasses, dc.Cause)
	if err != nil {
		return g.pick(generic)
	}
	return g.pick(specific)
}

// reporter picks a name group, then a name from it, for both first name
// and surname.
func (g *Generator) reporter() (string, error) {
	first, err := g.pickGrouped(FileFirstNames)
	if err != nil {
		return "", err
	}
	last, err := g.pickGrouped(FileSurnames)
	if err != nil {
		return "", err
	}
	return first + " " + last, nil
}

func (g *Generator) pickGrouped(file string) (string, error) {
	groups := g.corpus.Entries(file)
	if len(groups) == 0 {
		return "", fmt.Errorf("%s is empty", file)
	}
	return g.pick(groups[g.src.Intn(len(groups))].Values())
}

func (g *Generator) pick(values []string) (string, error) {
	if len(values) == 0 {
		return "", errors.New("nothing to choose from")
	}
	return values[g.src.Intn(len(values))], nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
