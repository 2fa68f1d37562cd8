package router

import (
	"fmt"

	"github.com/cory-johannsen/pdabridge/internal/config"
	"github.com/cory-johannsen/pdabridge/internal/faction"
	"github.com/cory-johannsen/pdabridge/internal/roster"
)

// Settings are the runtime options the router reads and mutates. They
// start from the loaded configuration and are never written back to disk.
type Settings struct {
	Nick               string
	FactionSetting     string
	Faction            faction.Faction
	BlockMoneyTransfer bool
	Channel            string
	Channels           []config.Channel
	Game               config.GameConfig
	Ordering           roster.Ordering
}

// SettingsFromConfig builds Settings from a validated configuration.
//
// Postcondition: Returns an error for an unknown faction or ordering name.
func SettingsFromConfig(cfg config.Config) (Settings, error) {
	f, err := faction.ParseName(cfg.Identity.CurrentFaction)
	if err != nil {
		return Settings{}, fmt.Errorf("identity.current_faction: %w", err)
	}
	ordering, err := roster.OrderingByName(cfg.UI.UserListDisplay)
	if err != nil {
		return Settings{}, fmt.Errorf("ui.user_list_display: %w", err)
	}
	return Settings{
		Nick:               cfg.Identity.Nick,
		FactionSetting:     cfg.Identity.FactionSetting,
		Faction:            f,
		BlockMoneyTransfer: cfg.Identity.BlockMoneyTransfer,
		Channel:            cfg.Server.PreviousChannel,
		Channels:           append([]config.Channel(nil), cfg.Server.Channels...),
		Game:               cfg.Game,
		Ordering:           ordering,
	}, nil
}

// ChannelByDescription finds the configured channel with description d.
func (s Settings) ChannelByDescription(d string) (config.Channel, bool) {
	for _, c := range s.Channels {
		if c.Description == d {
			return c, true
		}
	}
	return config.Channel{}, false
}

// ChannelByName finds the configured channel called name.
func (s Settings) ChannelByName(name string) (config.Channel, bool) {
	for _, c := range s.Channels {
		if c.Name == name {
			return c, true
		}
	}
	return config.Channel{}, false
}

// State is what the router knows about the game and the connection.
type State struct {
	InGame   bool
	Location string
	Money    int
	// FakeDisconnect is set while the channel was left because the player
	// is in an emission or underground.
	FakeDisconnect bool
}
