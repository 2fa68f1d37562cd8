package router

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/bridge"
	"github.com/cory-johannsen/pdabridge/internal/content"
	"github.com/cory-johannsen/pdabridge/internal/event"
	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/presentation"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

// info shows an information line and mirrors it to the game.
func (r *Router) info(text string) {
	text = content.Normalize(text)
	r.surface.AppendLine(presentation.Information(text))
	r.writeGame(bridge.Information{Content: text})
}

// errorLine shows an error line and mirrors it to the game.
func (r *Router) errorLine(text string) {
	text = content.Normalize(text)
	r.surface.AppendLine(presentation.Error(text))
	r.writeGame(bridge.ErrorLine{Content: text})
}

// writeGame appends r to the game input. Failures are logged; the game
// may simply not be installed where we looked.
func (r *Router) writeGame(rec bridge.Record) {
	if r.game == nil {
		return
	}
	if err := r.game.Write(rec); err != nil {
		r.logger.Error("writing to game failed", zap.String("record", rec.Tag()), zap.Error(err))
	}
}

// syncUsers sends the participant snapshot to the game.
func (r *Router) syncUsers() {
	ps := r.roster.Participants()
	entries := make([]bridge.UserEntry, 0, len(ps))
	for _, p := range ps {
		entries = append(entries, bridge.UserEntry{Name: p.Name, Faction: p.Faction, Online: p.Online})
	}
	r.writeGame(bridge.Users{Entries: entries})
}

func (r *Router) renderIfDirty() {
	if !r.roster.Dirty() {
		return
	}
	r.surface.RenderRoster(r.settings.Ordering.Render(r.roster.Participants()))
	r.roster.MarkRendered()
}

// factionOf returns the roster faction of identity, Anonymous if unknown.
func (r *Router) factionOf(identity string) faction.Faction {
	if p, ok := r.roster.Get(identity); ok {
		return p.Faction
	}
	return faction.Anonymous
}

// self returns our own participant, recreating it when it went missing
// and asking the game for the authoritative faction.
func (r *Router) self() roster.Participant {
	if p, ok := r.roster.Get(r.settings.Nick); ok {
		return p
	}
	r.logger.Warn("own participant missing, recreating", zap.String("nick", r.settings.Nick))
	r.askActorStatus()
	r.roster.Upsert(r.settings.Nick, r.settings.Faction)
	_ = r.roster.SetOnline(r.settings.Nick, r.state.InGame)
	if !r.gate.IsSet() {
		r.JoinChannel()
	}
	p, _ := r.roster.Get(r.settings.Nick)
	return p
}

func (r *Router) askActorStatus() {
	r.writeGame(bridge.Setting{Name: bridge.SettingActorStatus})
}

// sendPresence announces our faction and in-game status to the channel.
func (r *Router) sendPresence() {
	p := r.self()
	r.logger.Info("sending presence", zap.String("faction", string(p.Faction)), zap.Bool("in_game", p.Online))
	r.outbound.Push(event.Notice{
		Target:  r.settings.Channel,
		Content: content.CTCP(fmt.Sprintf("AMOGUS %s/%s/%s", r.settings.Nick, p.Faction, bridge.FormatBool(p.Online))),
	})
}

func (r *Router) highlighted(author, target, text string) bool {
	if r.highlighter != nil {
		if h, ok := r.highlighter.Highlight(author, target, text); ok {
			return h
		}
	}
	return (author != r.settings.Nick && strings.Contains(text, r.settings.Nick)) || author == nickServ
}

func quote(s string) string { return "'" + s + "'" }
