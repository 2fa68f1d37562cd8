package router

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/bridge"
	"github.com/cory-johannsen/pdabridge/internal/content"
	"github.com/cory-johannsen/pdabridge/internal/event"
	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/presentation"
)

// moneyPattern matches an incoming transfer sent by another bridge.
var moneyPattern = regexp.MustCompile(`^actor_\w+ pay ` + content.ActorEnd + ` (\d+)`)

// handleMessage dispatches one chat line: our own slash commands, CTCP
// requests, channel lines and direct messages.
func (r *Router) handleMessage(m event.Message) error {
	if strings.HasPrefix(m.Content, "/") && m.Author == r.settings.Nick {
		r.runCommand(m.Content[1:])
		return nil
	}
	if command, arg, ok := content.ParseCTCP(m.Content); ok {
		return r.handleCTCP(m, command, arg)
	}
	if strings.HasPrefix(m.Target, "#") {
		r.channelMessage(m)
		return nil
	}
	if strings.HasPrefix(m.Content, "actor_") {
		r.incomingMoney(m)
		return nil
	}
	r.directMessage(m)
	return nil
}

func (r *Router) handleCTCP(m event.Message, command, arg string) error {
	r.logger.Debug("ctcp", zap.String("author", m.Author), zap.String("command", command))
	switch command {
	case "VERSION", "CLIENTINFO":
		r.outbound.Push(event.Notice{Target: m.Author, Content: content.CTCP("VERSION PDABridge " + r.version)})
	case "PING":
		r.outbound.Push(event.Notice{Target: m.Author, Content: content.CTCP(fmt.Sprintf("PING %d", m.At.Unix()))})
	case "USERDATA":
		r.sendPresence()
	case "AMOGUS":
		r.presence(arg)
	default:
		r.logger.Warn("unknown ctcp", zap.String("command", command))
	}
	return nil
}

// presence applies another bridge's "nick/faction/in_game" announcement.
func (r *Router) presence(data string) {
	parts := strings.Split(data, "/")
	if len(parts) != 3 {
		r.logger.Warn("malformed presence", zap.String("data", content.Normalize(data)))
		return
	}
	nick, rawFaction, rawOnline := parts[0], parts[1], parts[2]
	f, err := faction.Parse(rawFaction)
	if err != nil {
		r.logger.Error("presence with unknown faction", zap.String("nick", nick), zap.Error(err))
		return
	}
	online := strings.EqualFold(rawOnline, "true")

	p, known := r.roster.Get(nick)
	if known && p.Faction == f && p.Online == online {
		return
	}
	r.roster.Upsert(nick, f)
	_ = r.roster.SetOnline(nick, online)
	r.syncUsers()
}

func (r *Router) channelMessage(m event.Message) {
	line := presentation.NewLine(presentation.StyleText, "")
	line.At = m.At
	line.Highlight = r.highlighted(m.Author, m.Target, m.Content)

	if content.IsActorLine(m.Content) {
		author, actor, body, err := content.SplitActorLine(m.Content)
		if err != nil {
			r.logger.Warn("malformed actor line", zap.String("content", content.Normalize(m.Content)), zap.Error(err))
			return
		}
		line.Author, line.Faction, line.Text = author, faction.OrAnonymous(actor), body
		r.surface.AppendLine(line)
		r.writeGame(bridge.ChannelMessage{
			Faction:   line.Faction,
			Author:    author,
			Highlight: line.Highlight,
			Content:   body,
		})
		return
	}

	line.Author, line.Faction, line.Text = m.Author, r.factionOf(m.Author), content.Normalize(m.Content)
	r.surface.AppendLine(line)
	r.writeGame(bridge.ChannelMessage{
		Faction:   line.Faction,
		Author:    m.Author,
		Highlight: line.Highlight,
		Content:   line.Text,
	})
}

// directMessage shows a private line and mirrors it to the game as a query.
func (r *Router) directMessage(m event.Message) {
	body := m.Content
	if _, after, ok := strings.Cut(body, content.ActorEnd); ok {
		body = after
	}
	body = content.Normalize(body)

	authorFaction := r.factionOf(m.Author)
	if !r.roster.Has(m.Author) {
		authorFaction = r.self().Faction
	}
	line := presentation.NewLine(presentation.StyleDirect, body)
	line.At = m.At
	line.Author, line.Faction = m.Author, r.factionOf(m.Author)
	line.Receiver, line.ReceiverFaction = m.Target, r.factionOf(m.Target)
	line.Highlight = m.Service
	r.surface.AppendLine(line)

	r.writeGame(bridge.QueryMessage{
		Faction:  authorFaction,
		Author:   m.Author,
		Receiver: m.Target,
		Content:  body,
	})
}

// incomingMoney credits a transfer sent by another bridge.
func (r *Router) incomingMoney(m event.Message) {
	if !r.state.InGame {
		r.logger.Warn("money received while not in game", zap.String("author", m.Author))
		return
	}
	if r.settings.BlockMoneyTransfer {
		r.logger.Warn("money transfer is blocked", zap.String("author", m.Author))
		return
	}
	match := moneyPattern.FindStringSubmatch(m.Content)
	if match == nil {
		r.logger.Warn("malformed money transfer", zap.String("content", content.Normalize(m.Content)))
		return
	}
	amount, err := strconv.Atoi(match[1])
	if err != nil {
		r.logger.Warn("money amount out of range", zap.String("amount", match[1]))
		return
	}

	line := presentation.NewLine(presentation.StyleInformation, fmt.Sprintf("have send you %d RUB.", amount))
	line.At = m.At
	line.Author, line.Faction = m.Author, r.factionOf(m.Author)
	r.surface.AppendLine(line)
	r.writeGame(bridge.MoneyReceived{Author: m.Author, Amount: amount})
}
