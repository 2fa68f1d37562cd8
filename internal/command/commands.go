// Package command provides the slash-command registry, parser and the
// built-in command definitions.
package command

// Handler identifiers mapping commands to router handlers.
const (
	HandlerExit     = "exit"
	HandlerMsg      = "msg"
	HandlerHelp     = "help"
	HandlerCommands = "commands"
	HandlerNick     = "nick"
	HandlerPay      = "pay"
)

// Command defines a user-invocable slash command.
type Command struct {
	// Name is the canonical command name.
	Name string
	// Aliases are alternate names for this command.
	Aliases []string
	// Help is the usage text shown by /help.
	Help string
	// Handler selects the router handler.
	Handler string
}

// BuiltinCommands returns all built-in commands in listing order.
func BuiltinCommands() []Command {
	return []Command{
		{Name: "exit", Help: "Exits the application. Usage: /exit", Handler: HandlerExit},
		{Name: "msg", Aliases: []string{"m", "w", "priv", "dm"}, Help: "Sends private message to a user. Usage: /msg <user> <message>", Handler: HandlerMsg},
		{Name: "help", Help: "Usage /help <command>, list of available commands: /commands", Handler: HandlerHelp},
		{Name: "commands", Help: "Shows list of available commands. Usage: /commands", Handler: HandlerCommands},
		{Name: "nick", Help: "Change nick. Usage /nick <nick>", Handler: HandlerNick},
		{Name: "pay", Help: "Pay to user. Usage: /pay <user> <amount>", Handler: HandlerPay},
	}
}
