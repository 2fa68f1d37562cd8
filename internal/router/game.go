package router

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/bridge"
	"github.com/cory-johannsen/pdabridge/internal/event"
	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/narrative"
)

// Narration is delayed by a random amount in [minNarrationDelay, maxNarrationDelay].
const (
	minNarrationDelay = 3 * time.Second
	maxNarrationDelay = narrative.DeathCooldown
)

func (r *Router) handleGame(_ context.Context, e event.GameEvent) error {
	switch rec := e.Record.(type) {
	case bridge.Handshake:
		r.handshake(rec)
	case bridge.GameMessage:
		r.gameMessage(rec)
	case bridge.GameQuery:
		r.gameQuery(rec)
	case bridge.Death:
		r.death(rec)
	case bridge.ConnectionLost:
		r.connectionLost(rec)
	case bridge.MoneyChange:
		r.state.Money = rec.Amount
	case bridge.ActorStatus:
		f, err := faction.Parse(rec.Value)
		if err != nil {
			return fmt.Errorf("actor status: %w", err)
		}
		return r.actorUpdate(f)
	case bridge.ChannelChange:
		c, ok := r.settings.ChannelByDescription(rec.Description)
		if !ok {
			r.logger.Warn("game selected an unknown channel", zap.String("description", rec.Description))
			return nil
		}
		r.changeChannel(c)
	default:
		r.logger.Warn("unexpected game record", zap.String("tag", e.Record.Tag()))
	}
	return nil
}

// handshake pushes our options to a freshly started game script.
func (r *Router) handshake(h bridge.Handshake) {
	if h.Version != bridge.SupportedScriptVersion {
		r.logger.Error("unsupported script version", zap.Int("version", h.Version))
		r.errorLine("Please update your chat mod.")
	}
	g := r.settings.Game
	channels := make([]string, 0, len(r.settings.Channels))
	for _, c := range r.settings.Channels {
		channels = append(channels, c.Name+" = "+c.Description)
	}
	for _, s := range []bridge.Setting{
		{Name: bridge.SettingNewsDuration, Value: strconv.Itoa(g.NewsDuration)},
		{Name: bridge.SettingChatKey, Value: strings.ToUpper(g.ChatKey)},
		{Name: bridge.SettingNickAutoCompleteKey, Value: strings.ToUpper(g.NickAutoCompleteKey)},
		{Name: bridge.SettingNewsSound, Value: bridge.FormatBool(g.NewsSound)},
		{Name: bridge.SettingCloseChat, Value: bridge.FormatBool(g.CloseChat)},
		{Name: bridge.SettingDisconnect, Value: bridge.FormatBool(g.DisconnectWhenBlowoutOrUnderground)},
		{Name: bridge.SettingCurrentChannel, Value: r.settings.Channel},
		{Name: bridge.SettingChannels, Value: strings.Join(channels, ",")},
	} {
		r.writeGame(s)
	}
	r.askActorStatus()
	r.inbound.Push(event.NewApp(event.UpdateUsers))
}

// gameMessage relays a line typed in the game chat. The faction update is
// queued first so the line is sent under the current faction.
func (r *Router) gameMessage(m bridge.GameMessage) {
	if !r.gate.IsSet() {
		r.logger.Debug("not in channel, dropping game message")
		r.inbound.Push(event.NewError("Not connected to network yet."))
		return
	}
	r.inbound.Push(event.NewActorUpdate(m.Faction))
	r.inbound.Push(event.NewMessage(r.settings.Nick, r.settings.Channel, m.Content))
	if !strings.HasPrefix(m.Content, "/") {
		r.outbound.Push(event.ChannelMessage{Target: r.settings.Channel, Content: m.Content})
	}
}

// gameQuery relays a direct message typed in the game chat.
func (r *Router) gameQuery(q bridge.GameQuery) {
	if !r.gate.IsSet() {
		r.inbound.Push(event.NewError("Not connected to network yet."))
		return
	}
	r.inbound.Push(event.NewActorUpdate(q.Faction))
	r.inbound.Push(event.NewAppText(event.Command, fmt.Sprintf("msg %s %s", q.Receiver, q.Content)))
}

// deathCooldownKey names the local player in the cooldown. Death records
// only describe us, and the key survives nick changes.
const deathCooldownKey = "local-player"

// death narrates our death to the channel after a random delay, unless a
// narration went out less than the cooldown ago.
func (r *Router) death(d bridge.Death) {
	key := deathCooldownKey
	if !r.cooldown.Allow(key) {
		r.logger.Debug("death narration on cooldown", zap.String("nick", r.settings.Nick))
		return
	}
	if r.narrator == nil {
		return
	}
	line, err := r.narrator.Generate(narrative.DeathContext{
		Name:     r.settings.Nick,
		Causer:   d.Causer,
		Location: d.Location,
		Cause:    d.Cause,
		Meta:     d.Meta,
	})
	if err != nil {
		r.logger.Error("could not generate death message", zap.Error(err))
		return
	}
	r.cooldown.Record(key)

	span := int((maxNarrationDelay - minNarrationDelay) / time.Second)
	delay := minNarrationDelay + time.Duration(r.random.Intn(span+1))*time.Second
	nick, channel := r.settings.Nick, r.settings.Channel
	r.logger.Debug("death narration scheduled", zap.Duration("delay", delay))
	r.after(delay, func() {
		r.inbound.Push(event.NewMessage(nick, channel, line))
		r.outbound.Push(event.ChannelMessage{Target: channel, Content: line})
	})
}

// connectionLost leaves the channel during an emission or underground and
// rejoins afterwards, when the player opted in.
func (r *Router) connectionLost(c bridge.ConnectionLost) {
	switch {
	case c.Lost && r.settings.Game.DisconnectWhenBlowoutOrUnderground:
		if r.state.FakeDisconnect {
			return
		}
		r.state.FakeDisconnect = true
		r.outbound.Push(event.Part{Channel: r.settings.Channel, Reason: c.Reason})
	case !c.Lost:
		if !r.state.FakeDisconnect {
			return
		}
		r.state.FakeDisconnect = false
		r.JoinChannel()
	}
}
