// Package normalizer turns parsed chat-network lines into router events.
package normalizer

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/content"
	"github.com/cory-johannsen/pdabridge/internal/event"
	"github.com/cory-johannsen/pdabridge/internal/wire"
)

var (
	// ErrUnknownKind is returned for a command with no table entry.
	ErrUnknownKind = errors.New("unknown wire event kind")
	// ErrMissingField is returned when a known command lacks a positional parameter.
	ErrMissingField = errors.New("missing wire event field")
)

// Protocol commands and numerics handled by the table.
const (
	cmdPrivmsg    = "PRIVMSG"
	cmdJoin       = "JOIN"
	cmdPart       = "PART"
	cmdQuit       = "QUIT"
	cmdNick       = "NICK"
	cmdUser       = "USER"
	cmdMode       = "MODE"
	cmdNotice     = "NOTICE"
	cmdNames      = "353"
	cmdEndOfNames = "366"
	cmdTopicReply = "332"
	cmdTopic      = "TOPIC"
	cmdKick       = "KICK"
	cmdBanned     = "474"
)

const nickServ = "NickServ"

// Part reasons sent by the game mod, mapped to the text shown to the user.
var partReasons = map[string]string{
	"Surge":       "caught in emission.",
	"Underground": "went underground.",
}

const defaultPartReason = "has left the channel."

// builder converts one message. A nil event with a nil error means the
// message is intentionally ignored.
type builder func(m wire.Message, nick string) (event.Event, error)

var table = map[string]builder{
	cmdPrivmsg:    privmsg,
	cmdJoin:       simple(event.WireJoin),
	cmdPart:       part,
	cmdQuit:       quit,
	cmdNick:       nickChange(event.WireNick),
	cmdUser:       nickChange(event.WireRenamed),
	cmdMode:       mode,
	cmdNotice:     notice,
	cmdNames:      names,
	cmdEndOfNames: endOfNames,
	cmdTopicReply: topic(2),
	cmdTopic:      topic(1),
	cmdKick:       kick,
	cmdBanned:     banned,
}

// Known reports whether command has a table entry.
func Known(command string) bool {
	_, ok := table[command]
	return ok
}

// Normalize maps m to at most one event.
//
// Precondition: nick is the nick currently in use.
// Postcondition: Returns ErrUnknownKind for commands outside the table,
// ErrMissingField for a known command lacking a required parameter, and
// (nil, nil) for messages that are deliberately ignored.
func Normalize(m wire.Message, nick string) (event.Event, error) {
	build, ok := table[m.Command]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, m.Command)
	}
	return build(m, nick)
}

func param(m wire.Message, i int, name string) (string, error) {
	v, ok := m.Param(i)
	if !ok {
		return "", fmt.Errorf("%w: %s needs %s at position %d", ErrMissingField, m.Command, name, i)
	}
	return v, nil
}

func privmsg(m wire.Message, _ string) (event.Event, error) {
	target, err := param(m, 0, "target")
	if err != nil {
		return nil, err
	}
	text, err := param(m, 1, "content")
	if err != nil {
		return nil, err
	}
	return event.NewMessage(m.Source(), target, text), nil
}

func simple(kind event.WireKind) builder {
	return func(m wire.Message, _ string) (event.Event, error) {
		target, err := param(m, 0, "channel")
		if err != nil {
			return nil, err
		}
		return event.NewWire(event.WireEvent{Kind: kind, Author: m.Source(), Target: target}), nil
	}
}

func part(m wire.Message, _ string) (event.Event, error) {
	target, err := param(m, 0, "channel")
	if err != nil {
		return nil, err
	}
	reason := defaultPartReason
	if raw, ok := m.Param(1); ok {
		if mapped, known := partReasons[raw]; known {
			reason = mapped
		}
	}
	return event.NewWire(event.WireEvent{Kind: event.WirePart, Author: m.Source(), Target: target, Reason: reason}), nil
}

func quit(m wire.Message, _ string) (event.Event, error) {
	reason, _ := m.Param(0)
	return event.NewWire(event.WireEvent{Kind: event.WireQuit, Author: m.Source(), Reason: reason}), nil
}

func nickChange(kind event.WireKind) builder {
	return func(m wire.Message, _ string) (event.Event, error) {
		to, err := param(m, 0, "nick")
		if err != nil {
			return nil, err
		}
		return event.NewWire(event.WireEvent{Kind: kind, Author: m.Source(), Target: to, Nick: to}), nil
	}
}

// mode ignores user-mode changes, which carry no nick parameter.
func mode(m wire.Message, _ string) (event.Event, error) {
	if len(m.Params) < 3 {
		return nil, nil
	}
	return event.NewWire(event.WireEvent{
		Kind:   event.WireMode,
		Author: m.Source(),
		Target: m.Params[0],
		Mode:   m.Params[1],
		Nick:   m.Params[2],
	}), nil
}

func notice(m wire.Message, nick string) (event.Event, error) {
	target, err := param(m, 0, "target")
	if err != nil {
		return nil, err
	}
	text, err := param(m, 1, "content")
	if err != nil {
		return nil, err
	}
	switch {
	case m.Source() == nickServ && target == nick:
		return event.NewServiceMessage(nickServ, target, text), nil
	case isCTCP(text):
		return event.NewMessage(m.Source(), target, text), nil
	}
	return nil, nil
}

func isCTCP(s string) bool {
	return len(s) >= 2 && strings.HasPrefix(s, content.CTCPDelim) && strings.HasSuffix(s, content.CTCPDelim)
}

func names(m wire.Message, _ string) (event.Event, error) {
	channel, err := param(m, 2, "channel")
	if err != nil {
		return nil, err
	}
	list, err := param(m, 3, "names")
	if err != nil {
		return nil, err
	}
	return event.NewWire(event.WireEvent{
		Kind:   event.WireNames,
		Author: m.Source(),
		Target: channel,
		Nicks:  strings.Fields(list),
	}), nil
}

func endOfNames(m wire.Message, _ string) (event.Event, error) {
	channel, _ := m.Param(1)
	return event.NewWire(event.WireEvent{Kind: event.WireEndOfNames, Author: m.Source(), Target: channel}), nil
}

// topic reads the topic text from position i: the 332 reply carries our
// nick first, the TOPIC command does not.
func topic(i int) builder {
	return func(m wire.Message, _ string) (event.Event, error) {
		text, err := param(m, i, "topic")
		if err != nil {
			return nil, err
		}
		return event.NewWire(event.WireEvent{Kind: event.WireTopic, Author: m.Source(), Target: m.Params[i-1], Text: text}), nil
	}
}

func kick(m wire.Message, _ string) (event.Event, error) {
	channel, err := param(m, 0, "channel")
	if err != nil {
		return nil, err
	}
	kicked, err := param(m, 1, "nick")
	if err != nil {
		return nil, err
	}
	reason, _ := m.Param(2)
	return event.NewWire(event.WireEvent{
		Kind:   event.WireKick,
		Author: m.Source(),
		Target: channel,
		Nick:   kicked,
		Reason: reason,
	}), nil
}

func banned(m wire.Message, _ string) (event.Event, error) {
	who, err := param(m, 0, "nick")
	if err != nil {
		return nil, err
	}
	channel, err := param(m, 1, "channel")
	if err != nil {
		return nil, err
	}
	return event.NewWire(event.WireEvent{Kind: event.WireBanned, Author: m.Source(), Target: channel, Nick: who}), nil
}

// Sink receives normalized events.
type Sink interface {
	Push(event.Event)
}

// Gate is the joined-channel condition.
type Gate interface {
	Set()
}

// Normalizer forwards normalized events to a sink. Its Handle method is
// meant to be installed as the wire client's message hook.
type Normalizer struct {
	sink   Sink
	gate   Gate
	nick   func() string
	logger *zap.Logger
}

// New creates a Normalizer.
//
// Precondition: sink, gate, nick and logger must be non-nil.
func New(sink Sink, gate Gate, nick func() string, logger *zap.Logger) *Normalizer {
	return &Normalizer{sink: sink, gate: gate, nick: nick, logger: logger}
}

// Handle normalizes m and pushes the result. Unknown kinds and malformed
// messages are logged and dropped.
func (n *Normalizer) Handle(m wire.Message) {
	n.logger.Debug("wire message",
		zap.String("source", m.Source()),
		zap.String("command", m.Command),
		zap.Strings("params", escape(m.Params)),
	)
	ev, err := Normalize(m, n.nick())
	switch {
	case errors.Is(err, ErrUnknownKind):
		n.logger.Debug("dropping unhandled wire event", zap.String("command", m.Command))
		return
	case err != nil:
		n.logger.Error("dropping malformed wire event", zap.String("command", m.Command), zap.Error(err))
		return
	case ev == nil:
		return
	}
	if m.Command == cmdJoin || m.Command == cmdQuit {
		n.gate.Set()
	}
	n.sink.Push(ev)
}

func escape(params []string) []string {
	out := make([]string, len(params))
	for i, p := range params {
		out[i] = content.Normalize(p)
	}
	return out
}
