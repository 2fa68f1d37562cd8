// Package content holds the text framing shared by the chat side and the
// game side: ASCII normalization, actor-line framing, and CTCP wrapping.
package content

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// ActorStart separates an author from the faction in a framed actor line.
	ActorStart = "☻"
	// ActorEnd separates the faction from the message body.
	ActorEnd = "☺"
	// CTCPDelim wraps out-of-band chat requests.
	CTCPDelim = "\x01"
)

// ErrNotActorLine is returned by SplitActorLine for text without framing.
var ErrNotActorLine = errors.New("not an actor line")

var colorCode = regexp.MustCompile(`(%c\[[\w,]+\])`)

// Normalize prepares text for the game, which only renders ASCII: the text
// is decomposed (NFKD), every remaining non-ASCII rune becomes '?', and
// in-game color codes such as "%c[255,0,0]" are removed.
func Normalize(s string) string {
	t := transform.Chain(norm.NFKD, runes.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return '?'
		}
		return r
	}))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return colorCode.ReplaceAllString(out, "")
}

// IsActorLine reports whether s carries actor framing.
func IsActorLine(s string) bool {
	return strings.Contains(s, ActorStart)
}

// JoinActorLine frames a message as "author☻faction☺body".
func JoinActorLine(author, faction, body string) string {
	return author + ActorStart + faction + ActorEnd + body
}

// SplitActorLine undoes JoinActorLine. The body is normalized.
//
// Postcondition: Returns ErrNotActorLine when either delimiter is missing.
func SplitActorLine(s string) (author, faction, body string, err error) {
	author, rest, ok := strings.Cut(s, ActorStart)
	if !ok {
		return "", "", "", ErrNotActorLine
	}
	faction, body, ok = strings.Cut(rest, ActorEnd)
	if !ok {
		return "", "", "", ErrNotActorLine
	}
	return author, faction, Normalize(body), nil
}

// CTCP wraps body in CTCP delimiters.
func CTCP(body string) string {
	return CTCPDelim + body + CTCPDelim
}

// ParseCTCP unwraps a CTCP request into its command word and argument.
//
// Postcondition: ok is false when s is not delimited on both ends.
func ParseCTCP(s string) (command, arg string, ok bool) {
	if len(s) < 2 || !strings.HasPrefix(s, CTCPDelim) || !strings.HasSuffix(s, CTCPDelim) {
		return "", "", false
	}
	inner := strings.Trim(s, CTCPDelim)
	command, arg, _ = strings.Cut(inner, " ")
	return command, arg, true
}
