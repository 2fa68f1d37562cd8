// Package event defines the items that flow through the router's queues:
// inbound events from the chat network, the game and the user, and
// outbound actions for the chat network.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/pdabridge/internal/bridge"
	"github.com/cory-johannsen/pdabridge/internal/faction"
)

// Header identifies one event.
type Header struct {
	ID uuid.UUID
	At time.Time
}

func stamp() Header {
	return Header{ID: uuid.New(), At: time.Now()}
}

// Event is an inbound queue item. The set of implementations is closed.
type Event interface {
	Meta() Header
	event()
}

// WireKind enumerates the chat-network events the router reacts to.
type WireKind int

const (
	WireJoin WireKind = iota + 1
	WirePart
	WireQuit
	WireNick
	WireRenamed
	WireMode
	WireNames
	WireEndOfNames
	WireTopic
	WireKick
	WireBanned
)

var wireKindNames = map[WireKind]string{
	WireJoin:       "join",
	WirePart:       "part",
	WireQuit:       "quit",
	WireNick:       "nick",
	WireRenamed:    "renamed",
	WireMode:       "mode",
	WireNames:      "names",
	WireEndOfNames: "end_of_names",
	WireTopic:      "topic",
	WireKick:       "kick",
	WireBanned:     "banned",
}

func (k WireKind) String() string {
	if n, ok := wireKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// WireEvent is a normalized chat-network event.
type WireEvent struct {
	Header
	Kind   WireKind
	Author string
	Target string
	// Reason is the part, quit or kick message.
	Reason string
	// Nick is the subject of nick, mode, kick and ban events.
	Nick string
	// Mode is the raw mode string, e.g. "+o-v".
	Mode  string
	Nicks []string
	Text  string
}

// Message is a chat line from another participant or a service.
type Message struct {
	Header
	Author  string
	Target  string
	Content string
	// Service marks lines from network services such as NickServ.
	Service bool
}

// AppKind enumerates application lifecycle events.
type AppKind int

const (
	Connected AppKind = iota + 1
	Disconnected
	Reconnecting
	InGame
	ActorUpdate
	OptionsUpdated
	NicknameChanged
	NewVersion
	OurMessage
	Command
	UpdateUsers
	ChangeChannel
)

var appKindNames = map[AppKind]string{
	Connected:       "connected",
	Disconnected:    "disconnected",
	Reconnecting:    "reconnecting",
	InGame:          "in_game",
	ActorUpdate:     "actor_update",
	OptionsUpdated:  "options_updated",
	NicknameChanged: "nickname_changed",
	NewVersion:      "new_version",
	OurMessage:      "our_message",
	Command:         "command",
	UpdateUsers:     "update_users",
	ChangeChannel:   "change_channel",
}

func (k AppKind) String() string {
	if n, ok := appKindNames[k]; ok {
		return n
	}
	return "unknown"
}

// AppEvent is raised by the application itself or by the user.
type AppEvent struct {
	Header
	Kind AppKind
	// Text carries the message, command line, nick, url or channel.
	Text     string
	Faction  faction.Faction
	Running  bool
	Location string
}

// GameEvent wraps a record read from the game bridge.
type GameEvent struct {
	Header
	Record bridge.Record
}

// Information is a line to show in the informational style.
type Information struct {
	Header
	Text string
}

// Error is a line to show in the error style.
type Error struct {
	Header
	Text string
}

func (e WireEvent) Meta() Header   { return e.Header }
func (e Message) Meta() Header     { return e.Header }
func (e AppEvent) Meta() Header    { return e.Header }
func (e GameEvent) Meta() Header   { return e.Header }
func (e Information) Meta() Header { return e.Header }
func (e Error) Meta() Header       { return e.Header }

func (WireEvent) event()   {}
func (Message) event()     {}
func (AppEvent) event()    {}
func (GameEvent) event()   {}
func (Information) event() {}
func (Error) event()       {}

// NewWire stamps a wire event.
func NewWire(e WireEvent) WireEvent {
	e.Header = stamp()
	return e
}

// NewMessage stamps a chat message.
func NewMessage(author, target, content string) Message {
	return Message{Header: stamp(), Author: author, Target: target, Content: content}
}

// NewServiceMessage stamps a message from a network service.
func NewServiceMessage(author, target, content string) Message {
	m := NewMessage(author, target, content)
	m.Service = true
	return m
}

// NewApp stamps an application event.
func NewApp(kind AppKind) AppEvent {
	return AppEvent{Header: stamp(), Kind: kind}
}

// NewAppText stamps an application event carrying text.
func NewAppText(kind AppKind, text string) AppEvent {
	e := NewApp(kind)
	e.Text = text
	return e
}

// NewActorUpdate stamps an ActorUpdate for f.
func NewActorUpdate(f faction.Faction) AppEvent {
	e := NewApp(ActorUpdate)
	e.Faction = f
	return e
}

// NewInGame stamps an InGame event.
func NewInGame(running bool, location string) AppEvent {
	e := NewApp(InGame)
	e.Running = running
	e.Location = location
	return e
}

// NewGame stamps a bridge record.
func NewGame(r bridge.Record) GameEvent {
	return GameEvent{Header: stamp(), Record: r}
}

// NewInformation stamps an informational line.
func NewInformation(text string) Information {
	return Information{Header: stamp(), Text: text}
}

// NewError stamps an error line.
func NewError(text string) Error {
	return Error{Header: stamp(), Text: text}
}
