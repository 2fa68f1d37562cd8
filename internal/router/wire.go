package router

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/content"
	"github.com/cory-johannsen/pdabridge/internal/event"
	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/rank"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

const nickServ = "NickServ"

// handleWire applies one chat-network event. Every wire event ends with a
// participant snapshot for the game.
func (r *Router) handleWire(e event.WireEvent) error {
	switch e.Kind {
	case event.WireJoin:
		r.addNames([]string{e.Author})
		r.info(e.Author + " has logged in")
	case event.WirePart:
		r.removeParticipant(e.Author)
		r.info(e.Author + " " + e.Reason)
	case event.WireQuit:
		r.removeParticipant(e.Author)
		r.info(e.Author + " has quit.")
	case event.WireNick:
		r.rename(e.Author, e.Nick)
		if e.Author == r.settings.Nick {
			r.settings.Nick = e.Nick
		}
		r.info(fmt.Sprintf("%s is known now as %s.", quote(e.Author), quote(e.Nick)))
	case event.WireRenamed:
		r.rename(e.Author, e.Nick)
		r.settings.Nick = e.Nick
		r.info(fmt.Sprintf("Network server renamed you to %s.", quote(e.Nick)))
	case event.WireNames:
		r.addNames(e.Nicks)
	case event.WireEndOfNames:
		r.logger.Info("asking channel for user data")
		r.outbound.Push(event.ChannelMessage{Target: r.settings.Channel, Content: content.CTCP("USERDATA")})
		r.sendPresence()
	case event.WireTopic:
		r.info("Channel's topic: " + e.Text)
	case event.WireKick:
		r.info(fmt.Sprintf("%s was kicked by %s: %s", e.Nick, e.Author, e.Reason))
		r.removeParticipant(e.Nick)
		if e.Nick == r.settings.Nick {
			r.JoinChannel()
		}
	case event.WireBanned:
		r.logger.Error("banned from channel", zap.String("nick", e.Nick), zap.String("channel", e.Target))
		r.errorLine(e.Nick + " has been banned from the channel.")
	case event.WireMode:
		if err := r.changeMode(e); err != nil {
			return err
		}
	default:
		r.logger.Warn("unknown wire event", zap.Stringer("kind", e.Kind))
	}
	r.syncUsers()
	return nil
}

// addNames inserts participants from a name list. Our own entry gets the
// configured faction and the in-game flag.
func (r *Router) addNames(nicks []string) {
	for _, raw := range nicks {
		if rank.Normalize(raw) == r.settings.Nick {
			if r.roster.Add(raw, r.settings.Faction) {
				_ = r.roster.SetOnline(r.settings.Nick, r.state.InGame)
			}
			continue
		}
		r.roster.Add(raw, faction.Anonymous)
	}
}

func (r *Router) removeParticipant(identity string) {
	if err := r.roster.Remove(identity); err != nil {
		r.logger.Debug("removing absent participant", zap.String("nick", identity))
	}
}

// rename moves a participant, creating it when neither name was seen. A
// target already present is kept as is; the server echoes our own nick
// change after the roster has applied it.
func (r *Router) rename(from, to string) {
	err := r.roster.Rename(from, to)
	if errors.Is(err, roster.ErrNotFound) {
		if r.roster.Has(to) {
			return
		}
		f := faction.Anonymous
		if from == r.settings.Nick {
			f = r.settings.Faction
		}
		r.roster.Upsert(to, f)
		return
	}
	if err != nil {
		r.logger.Warn("rename failed", zap.String("from", from), zap.String("to", to), zap.Error(err))
	}
}

// changeMode runs the rank resolver. Unknown mode letters and absent
// participants are logged and ignored.
func (r *Router) changeMode(e event.WireEvent) error {
	change, err := rank.ParseModes(e.Mode)
	if err != nil {
		r.logger.Error("ignoring mode change", zap.String("mode", e.Mode), zap.Error(err))
		return nil
	}
	identity := rank.Normalize(e.Nick)
	if !r.roster.Has(identity) {
		r.logger.Warn("mode change for absent participant", zap.String("nick", identity))
		return nil
	}
	next, err := r.ranks.Apply(r.roster, identity, change)
	if err != nil {
		return fmt.Errorf("applying mode %q to %s: %w", e.Mode, identity, err)
	}
	r.logger.Debug("rank resolved", zap.String("nick", identity), zap.String("rank", string(next)))
	return nil
}
