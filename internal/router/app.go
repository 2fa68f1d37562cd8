package router

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/bridge"
	"github.com/cory-johannsen/pdabridge/internal/config"
	"github.com/cory-johannsen/pdabridge/internal/event"
	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/presentation"
)

func (r *Router) handleApp(e event.AppEvent) error {
	r.logger.Debug("app event", zap.Stringer("kind", e.Kind))
	switch e.Kind {
	case event.Connected:
		r.info("Connected to the network.")
		r.surface.EnableInput()
		r.setInChannel()
		r.sendPresence()
	case event.Disconnected:
		r.errorLine("Lost connection to the network.")
		r.surface.DisableInput()
		r.setNotInChannel()
	case event.Reconnecting:
		r.info("Connection lost with the server, trying to reconnect.")
		r.surface.DisableInput()
		r.setNotInChannel()
		r.syncUsers()
	case event.InGame:
		r.inGame(e.Running, e.Location)
	case event.ActorUpdate:
		return r.actorUpdate(e.Faction)
	case event.OptionsUpdated:
		r.optionsUpdated(e.Text)
	case event.NicknameChanged:
		r.nicknameChanged(e.Text)
	case event.NewVersion:
		r.info("New version available: " + e.Text)
	case event.OurMessage:
		r.ourMessage(e.Text)
	case event.Command:
		r.runCommand(e.Text)
	case event.UpdateUsers:
		r.syncUsers()
	case event.ChangeChannel:
		c, ok := r.settings.ChannelByName(e.Text)
		if !ok {
			r.errorLine(fmt.Sprintf("Unknown channel %s", quote(e.Text)))
			return nil
		}
		r.changeChannel(c)
	default:
		r.logger.Warn("unknown app event", zap.Stringer("kind", e.Kind))
	}
	return nil
}

func (r *Router) setInChannel() {
	r.logger.Info("in channel")
	r.roster.Upsert(r.settings.Nick, r.settings.Faction)
	r.gate.Set()
}

func (r *Router) setNotInChannel() {
	r.logger.Info("not in channel")
	r.gate.Clear()
	r.roster.Clear()
}

func (r *Router) inGame(running bool, location string) {
	r.logger.Info("game status", zap.Bool("running", running), zap.String("location", location))
	r.state.InGame = running
	if location != "" {
		r.state.Location = location
		if r.game != nil {
			r.game.SetLocation(location)
		}
	}
	if r.roster.Has(r.settings.Nick) {
		_ = r.roster.SetOnline(r.settings.Nick, running)
	} else {
		r.roster.Upsert(r.settings.Nick, r.settings.Faction)
		_ = r.roster.SetOnline(r.settings.Nick, running)
	}
	if running {
		r.askActorStatus()
	}
	r.syncUsers()
	r.sendPresence()
}

// actorUpdate adopts the faction the game reports for our player.
func (r *Router) actorUpdate(f faction.Faction) error {
	if r.settings.FactionSetting != config.FactionGameSynced {
		r.logger.Info("faction is static, ignoring actor update", zap.String("faction", string(f)))
		return nil
	}
	if !f.Valid() {
		return fmt.Errorf("actor update: %w: %q", faction.ErrUnknown, string(f))
	}
	me := r.self()
	if me.Online && f == r.settings.Faction {
		return nil
	}
	r.logger.Info("changing actor", zap.String("faction", string(f)))
	if err := r.roster.SetFaction(r.settings.Nick, f); err != nil {
		return err
	}
	if err := r.roster.SetOnline(r.settings.Nick, true); err != nil {
		return err
	}
	r.settings.Faction = f
	r.syncUsers()
	r.sendPresence()
	return nil
}

// optionsUpdated re-applies settings after they changed. A non-empty nick
// different from ours is requested from the network.
func (r *Router) optionsUpdated(nick string) {
	r.info("Options have been updated.")
	r.syncUsers()

	me := r.self()
	if me.Faction != r.settings.Faction {
		_ = r.roster.SetFaction(r.settings.Nick, r.settings.Faction)
		r.sendPresence()
	}
	if nick != "" && nick != r.settings.Nick {
		r.logger.Info("updating nick", zap.String("from", r.settings.Nick), zap.String("to", nick))
		r.outbound.Push(event.NickChange{Nick: nick})
		r.rename(r.settings.Nick, nick)
		r.settings.Nick = nick
		r.sendPresence()
		r.info("Nick changed to " + quote(nick))
	}
}

// nicknameChanged records a nick the connection adopted on its own.
func (r *Router) nicknameChanged(nick string) {
	if nick == "" || nick == r.settings.Nick {
		return
	}
	old := r.settings.Nick
	if r.roster.Has(old) {
		r.rename(old, nick)
	} else {
		r.roster.Upsert(nick, r.settings.Faction)
		_ = r.roster.SetOnline(nick, r.state.InGame)
	}
	r.settings.Nick = nick
	r.info("Nick changed to " + quote(nick))
}

// ourMessage sends a line typed by the user to the channel.
func (r *Router) ourMessage(text string) {
	r.logger.Debug("outgoing message")
	r.outbound.Push(event.ChannelMessage{Target: r.settings.Channel, Content: text})
	me := r.self()

	line := presentation.NewLine(presentation.StyleText, text)
	line.Author, line.Faction = me.Name, me.Faction
	r.surface.AppendLine(line)

	r.writeGame(bridge.ChannelMessage{Faction: me.Faction, Author: me.Name, Content: text})
}

// changeChannel leaves the current channel and joins c.
func (r *Router) changeChannel(c config.Channel) {
	r.outbound.Push(event.Part{Channel: r.settings.Channel})
	r.setChannel(c.Name)
	r.outbound.Push(event.Join{Channel: c.Name})
	r.info("Channel changed to " + c.Description)
}
