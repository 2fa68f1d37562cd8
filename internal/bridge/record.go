// Package bridge implements the line-oriented file protocol spoken with the
// game process: one append-only file the bridge writes and one file the game
// writes that the bridge drains and truncates.
package bridge

import "github.com/cory-johannsen/pdabridge/internal/faction"

// Record is one decoded bridge line. The set of implementations is closed.
type Record interface {
	// Tag is the leading record type of the encoded line.
	Tag() string
	record()
}

// Records the game writes to the bridge.

// Handshake announces the game-side script version.
type Handshake struct{ Version int }

// Death reports the local player's death.
type Death struct {
	// Causer is the faction actor of the player who died.
	Causer   string
	Location string
	// Cause is the cause-of-death classifier, e.g. "ARMY".
	Cause string
	Meta  string
}

// MoneyChange reports the player's current money.
type MoneyChange struct{ Amount int }

// ConnectionLost asks the bridge to drop or restore the chat connection,
// e.g. during an emission or underground. An empty Reason travels as
// NoReason.
type ConnectionLost struct {
	Lost   bool
	Reason string
}

// ActorStatus reports the player's faction actor.
type ActorStatus struct{ Value string }

// ChannelChange asks the bridge to switch to the channel with this description.
type ChannelChange struct{ Description string }

// GameMessage is a line the player typed in the in-game chat.
type GameMessage struct {
	Faction faction.Faction
	Content string
}

// GameQuery is a direct message the player typed in game.
type GameQuery struct {
	Faction  faction.Faction
	Author   string
	Receiver string
	Content  string
}

// Records the bridge writes to the game.

// ChannelMessage shows a channel line in game.
type ChannelMessage struct {
	Faction   faction.Faction
	Author    string
	Highlight bool
	Content   string
}

// QueryMessage shows a direct message in game.
type QueryMessage struct {
	Faction  faction.Faction
	Author   string
	Receiver string
	Content  string
}

// UserEntry is one participant in a Users snapshot.
type UserEntry struct {
	Name    string
	Faction faction.Faction
	Online  bool
}

// Users is the full roster snapshot.
type Users struct{ Entries []UserEntry }

// Setting pushes one option to the game. An empty Value encodes a request
// such as "Setting/ActorStatus".
type Setting struct {
	Name  string
	Value string
}

// Setting names understood by the game script.
const (
	SettingNewsDuration        = "NewsDuration"
	SettingChatKey             = "ChatKey"
	SettingNickAutoCompleteKey = "NickAutoCompleteKey"
	SettingNewsSound           = "NewsSound"
	SettingCloseChat           = "CloseChat"
	SettingDisconnect          = "DisconnectWhenBlowoutOrUnderground"
	SettingCurrentChannel      = "CurrentChannel"
	SettingChannels            = "Channels"
	SettingActorStatus         = "ActorStatus"
)

// Information shows an informational line in game.
type Information struct{ Content string }

// ErrorLine shows an error line in game.
type ErrorLine struct{ Content string }

// MoneyReceived credits money sent by another participant.
type MoneyReceived struct {
	Author string
	Amount int
}

// MoneySent debits money the player sent.
type MoneySent struct {
	Author   string
	Receiver string
	Amount   int
}

func (Handshake) Tag() string      { return "Handshake" }
func (Death) Tag() string          { return "Death" }
func (MoneyChange) Tag() string    { return "Money" }
func (ConnectionLost) Tag() string { return "ConnLost" }
func (ActorStatus) Tag() string    { return "ActorStatus" }
func (ChannelChange) Tag() string  { return "ChannelChange" }
func (GameMessage) Tag() string    { return "Message" }
func (GameQuery) Tag() string      { return "Query" }
func (ChannelMessage) Tag() string { return "Message" }
func (QueryMessage) Tag() string   { return "Query" }
func (Users) Tag() string          { return "Users" }
func (Setting) Tag() string        { return "Setting" }
func (Information) Tag() string    { return "Information" }
func (ErrorLine) Tag() string      { return "Error" }
func (MoneyReceived) Tag() string  { return "MoneyRecv" }
func (MoneySent) Tag() string      { return "Money" }

func (Handshake) record()      {}
func (Death) record()          {}
func (MoneyChange) record()    {}
func (ConnectionLost) record() {}
func (ActorStatus) record()    {}
func (ChannelChange) record()  {}
func (GameMessage) record()    {}
func (GameQuery) record()      {}
func (ChannelMessage) record() {}
func (QueryMessage) record()   {}
func (Users) record()          {}
func (Setting) record()        {}
func (Information) record()    {}
func (ErrorLine) record()      {}
func (MoneyReceived) record()  {}
func (MoneySent) record()      {}
