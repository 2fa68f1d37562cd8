package event

// Action is an outbound queue item for the chat network. The set of
// implementations is closed. A nil Action stops the outbound loop.
type Action interface {
	action()
}

// ChannelMessage sends content to a channel.
type ChannelMessage struct {
	Target  string
	Content string
}

// DirectMessage sends content to one participant.
type DirectMessage struct {
	Target  string
	Content string
}

// Notice sends a notice, used for CTCP replies and presence.
type Notice struct {
	Target  string
	Content string
}

// NickChange requests a new nick.
type NickChange struct {
	Nick string
}

// Join enters a channel.
type Join struct {
	Channel string
}

// Part leaves a channel.
type Part struct {
	Channel string
	Reason  string
}

func (ChannelMessage) action() {}
func (DirectMessage) action()  {}
func (Notice) action()         {}
func (NickChange) action()     {}
func (Join) action()           {}
func (Part) action()           {}
