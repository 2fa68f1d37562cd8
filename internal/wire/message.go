// Package wire is a small line client for the chat network. It frames
// messages, keeps the connection alive and recovers the configured nick;
// everything else is passed up as parsed messages.
package wire

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ergochat/irc-go/ircmsg"
)

// ErrMalformed is returned for a line that cannot be parsed or encoded.
var ErrMalformed = errors.New("malformed wire line")

// Prefix identifies the origin of a message.
type Prefix struct {
	Nick string
	User string
	Host string
}

// Message is one parsed protocol line. Tags holds message tags when the
// server sent any.
type Message struct {
	Tags    map[string]string
	Prefix  *Prefix
	Command string
	Params  []string
}

// Param returns the i-th parameter, or "" and false when absent.
func (m Message) Param(i int) (string, bool) {
	if i < 0 || i >= len(m.Params) {
		return "", false
	}
	return m.Params[i], true
}

// Source returns the prefix nick, or "" for server-originated lines.
func (m Message) Source() string {
	if m.Prefix == nil {
		return ""
	}
	return m.Prefix.Nick
}

// Parse decodes one line with or without its trailing CRLF.
//
// Postcondition: Returns ErrMalformed for an empty line or missing command.
func Parse(line string) (Message, error) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return Message{}, fmt.Errorf("%w: empty line", ErrMalformed)
	}
	raw, err := ircmsg.ParseLine(line)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %q: %v", ErrMalformed, line, err)
	}
	if raw.Command == "" {
		return Message{}, fmt.Errorf("%w: missing command in %q", ErrMalformed, line)
	}
	m := Message{
		Command: strings.ToUpper(raw.Command),
		Params:  raw.Params,
	}
	if raw.Source != "" {
		m.Prefix = parsePrefix(raw.Source)
	}
	if tags := raw.AllTags(); len(tags) > 0 {
		m.Tags = tags
	}
	return m, nil
}

func parsePrefix(source string) *Prefix {
	nuh, err := ircmsg.ParseNUH(source)
	if err != nil {
		return &Prefix{Nick: source}
	}
	return &Prefix{Nick: nuh.Name, User: nuh.User, Host: nuh.Host}
}

// Encode renders m as a line without CRLF. The last parameter becomes a
// trailing parameter when it needs one.
//
// Postcondition: Returns ErrMalformed when a parameter cannot be framed,
// e.g. it carries CR, LF or NUL, or a middle parameter holds a space.
func (m Message) Encode() (string, error) {
	source := ""
	if m.Prefix != nil {
		source = m.Prefix.Nick
		if m.Prefix.User != "" {
			source += "!" + m.Prefix.User
		}
		if m.Prefix.Host != "" {
			source += "@" + m.Prefix.Host
		}
	}
	raw := ircmsg.MakeMessage(m.Tags, source, m.Command, m.Params...)
	line, err := raw.Line()
	if err != nil {
		return "", fmt.Errorf("%w: encoding %s: %v", ErrMalformed, m.Command, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// String is Encode for logging; an unencodable message renders as its
// command alone.
func (m Message) String() string {
	line, err := m.Encode()
	if err != nil {
		return m.Command
	}
	return line
}
