package router

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/cory-johannsen/pdabridge/internal/bridge"
	"github.com/cory-johannsen/pdabridge/internal/command"
	"github.com/cory-johannsen/pdabridge/internal/content"
	"github.com/cory-johannsen/pdabridge/internal/event"
	"github.com/cory-johannsen/pdabridge/internal/presentation"
)

type commandHandler func(r *Router, p command.ParseResult)

var commandHandlers = map[string]commandHandler{
	command.HandlerExit:     (*Router).cmdExit,
	command.HandlerMsg:      (*Router).cmdMsg,
	command.HandlerHelp:     (*Router).cmdHelp,
	command.HandlerCommands: (*Router).cmdCommands,
	command.HandlerNick:     (*Router).cmdNick,
	command.HandlerPay:      (*Router).cmdPay,
}

// runCommand executes a command line without its leading slash.
func (r *Router) runCommand(line string) {
	p := command.Parse(line)
	r.logger.Debug("command", zap.String("command", p.Command))
	cmd, ok := r.commands.Resolve(p.Command)
	if !ok {
		r.logger.Warn("unknown command", zap.String("command", p.Command))
		r.info(fmt.Sprintf("Unknown command %s", quote(p.Command)))
		return
	}
	handler, ok := commandHandlers[cmd.Handler]
	if !ok {
		r.logger.Error("command without handler", zap.String("handler", cmd.Handler))
		return
	}
	handler(r, p)
}

func (r *Router) help(name string) {
	cmd, ok := r.commands.Resolve(name)
	if !ok || cmd.Handler == command.HandlerHelp {
		cmd, _ = r.commands.Resolve("help")
	}
	r.info(cmd.Help)
}

func (r *Router) cmdExit(command.ParseResult) {
	r.logger.Info("exit requested")
	r.Stop()
	r.exit()
}

func (r *Router) cmdMsg(p command.ParseResult) {
	target, text, ok := p.SplitFirst()
	if !ok {
		r.help("msg")
		return
	}
	r.logger.Info("sending private message", zap.String("target", target))
	me := r.self()

	line := presentation.NewLine(presentation.StyleDirect, text)
	line.Author, line.Faction = me.Name, me.Faction
	line.Receiver, line.ReceiverFaction = target, r.factionOf(target)
	r.surface.AppendLine(line)

	r.writeGame(bridge.QueryMessage{Faction: me.Faction, Author: me.Name, Receiver: target, Content: text})
	r.outbound.Push(event.DirectMessage{Target: target, Content: text})
}

func (r *Router) cmdHelp(p command.ParseResult) {
	r.help(p.RawArgs)
}

func (r *Router) cmdCommands(command.ParseResult) {
	r.info(fmt.Sprintf("Available commands: %s.", strings.Join(r.commands.Names(), ", ")))
}

func (r *Router) cmdNick(p command.ParseResult) {
	if len(p.Args) == 0 {
		r.help("nick")
		return
	}
	r.optionsUpdated(p.Args[0])
}

func (r *Router) cmdPay(p command.ParseResult) {
	if r.settings.BlockMoneyTransfer {
		r.errorLine("Money transfer is blocked. Check settings.")
		return
	}
	target, rawAmount, ok := p.SplitFirst()
	if !ok {
		r.help("pay")
		return
	}
	amount, err := strconv.Atoi(rawAmount)
	if err != nil || amount < 0 || strings.ContainsAny(rawAmount, "+-") {
		r.help("pay")
		return
	}
	if !r.state.InGame {
		r.info("You need to be in game to send money.")
		return
	}
	if r.state.Money < amount {
		r.info("You don't have enough money to send.")
		return
	}

	r.outbound.Push(event.DirectMessage{
		Target:  target,
		Content: fmt.Sprintf("%s pay %s %d", r.settings.Faction, content.ActorEnd, amount),
	})
	r.writeGame(bridge.MoneySent{Author: r.settings.Nick, Receiver: target, Amount: amount})
	r.info(fmt.Sprintf("Payed %d to %s.", amount, target))
}
