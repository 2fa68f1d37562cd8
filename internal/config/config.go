// Package config provides Viper-based configuration loading for the bridge.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Faction settings control whether our faction follows the game or stays fixed.
const (
	FactionGameSynced = "GameSynced"
	FactionStatic     = "Static"
)

// UI modes.
const (
	UIModeTUI      = "tui"
	UIModeHeadless = "headless"
)

// IdentityConfig holds the chat identity of the local player.
type IdentityConfig struct {
	// Nick is the chat network nickname.
	Nick string `mapstructure:"nick"`
	// Password is the NickServ password. Empty disables identification.
	Password string `mapstructure:"password"`
	// FactionSetting is "GameSynced" or "Static".
	FactionSetting string `mapstructure:"faction_setting"`
	// CurrentFaction is the faction display name, e.g. "Loner".
	CurrentFaction string `mapstructure:"current_faction"`
	// BlockMoneyTransfer disables sending and receiving money.
	BlockMoneyTransfer bool `mapstructure:"block_money_transfer"`
}

// Channel is a chat channel the game can switch to.
type Channel struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// ServerConfig holds chat network connection settings.
type ServerConfig struct {
	Host            string    `mapstructure:"host"`
	Port            int       `mapstructure:"port"`
	Channels        []Channel `mapstructure:"channels"`
	PreviousChannel string    `mapstructure:"previous_channel"`
	// ReconnectMax caps the reconnect backoff interval.
	ReconnectMax time.Duration `mapstructure:"reconnect_max"`
}

// Addr returns the "host:port" address of the chat network.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GameConfig holds settings pushed to the game on handshake and the
// process discovery parameters.
type GameConfig struct {
	NewsDuration                       int           `mapstructure:"news_duration"`
	ChatKey                            string        `mapstructure:"chat_key"`
	NickAutoCompleteKey                string        `mapstructure:"nick_auto_complete_key"`
	NewsSound                          bool          `mapstructure:"news_sound"`
	CloseChat                          bool          `mapstructure:"close_chat"`
	DisconnectWhenBlowoutOrUnderground bool          `mapstructure:"disconnect_when_blowout_or_underground"`
	ProcessName                        string        `mapstructure:"process_name"`
	ScanInterval                       time.Duration `mapstructure:"scan_interval"`
	// CorpusDir optionally overrides the embedded narrative corpus.
	CorpusDir string `mapstructure:"corpus_dir"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	// Mode is "tui" or "headless".
	Mode string `mapstructure:"mode"`
	// UserListDisplay names the roster ordering strategy.
	UserListDisplay string `mapstructure:"user_list_display"`
}

// ConsoleConfig holds remote Telnet console settings.
type ConsoleConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	// PasswordHash is a bcrypt hash produced by "pdabridge hash-password".
	PasswordHash string        `mapstructure:"password_hash"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (c ConsoleConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// OverlayConfig holds the websocket and NATS mirror settings.
type OverlayConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Addr        string `mapstructure:"addr"`
	NATSURL     string `mapstructure:"nats_url"`
	NATSSubject string `mapstructure:"nats_subject"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// ArchiveConfig selects the transcript archive backend.
type ArchiveConfig struct {
	// Driver is "none", "sqlite" or "postgres".
	Driver   string         `mapstructure:"driver"`
	Path     string         `mapstructure:"path"`
	Database DatabaseConfig `mapstructure:"database"`
}

// ScriptingConfig holds Lua highlight hook settings.
type ScriptingConfig struct {
	// Dir holds *.lua files. Empty disables scripting.
	Dir              string `mapstructure:"dir"`
	InstructionLimit int    `mapstructure:"instruction_limit"`
}

// StatusConfig holds the gRPC health endpoint settings.
type StatusConfig struct {
	// Addr is the listen address. Empty disables the endpoint.
	Addr string `mapstructure:"addr"`
}

// UpdateConfig holds release polling settings.
type UpdateConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	URL      string        `mapstructure:"url"`
	Interval time.Duration `mapstructure:"interval"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// File optionally tees log output to a file.
	File string `mapstructure:"file"`
}

// Config is the top-level application configuration.
type Config struct {
	Identity  IdentityConfig  `mapstructure:"identity"`
	Server    ServerConfig    `mapstructure:"server"`
	Game      GameConfig      `mapstructure:"game"`
	UI        UIConfig        `mapstructure:"ui"`
	Console   ConsoleConfig   `mapstructure:"console"`
	Overlay   OverlayConfig   `mapstructure:"overlay"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Scripting ScriptingConfig `mapstructure:"scripting"`
	Status    StatusConfig    `mapstructure:"status"`
	Update    UpdateConfig    `mapstructure:"update"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, check := range []error{
		validateIdentity(c.Identity),
		validateServer(c.Server),
		validateGame(c.Game),
		validateUI(c.UI),
		validateConsole(c.Console),
		validateOverlay(c.Overlay),
		validateArchive(c.Archive),
		validateLogging(c.Logging),
	} {
		if check != nil {
			errs = append(errs, check.Error())
		}
	}
	if c.Update.Enabled && c.Update.Interval <= 0 {
		errs = append(errs, "update.interval must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateIdentity(i IdentityConfig) error {
	var errs []string
	if i.Nick == "" {
		errs = append(errs, "identity.nick must not be empty")
	}
	if strings.ContainsAny(i.Nick, " /") {
		errs = append(errs, fmt.Sprintf("identity.nick must not contain spaces or slashes, got %q", i.Nick))
	}
	if i.FactionSetting != FactionGameSynced && i.FactionSetting != FactionStatic {
		errs = append(errs, fmt.Sprintf("identity.faction_setting must be one of [GameSynced, Static], got %q", i.FactionSetting))
	}
	if i.CurrentFaction == "" {
		errs = append(errs, "identity.current_faction must not be empty")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Host == "" {
		errs = append(errs, "server.host must not be empty")
	}
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if len(s.Channels) == 0 {
		errs = append(errs, "server.channels must not be empty")
	}
	for _, ch := range s.Channels {
		if !strings.HasPrefix(ch.Name, "#") {
			errs = append(errs, fmt.Sprintf("server.channels name must start with '#', got %q", ch.Name))
		}
	}
	if !strings.HasPrefix(s.PreviousChannel, "#") {
		errs = append(errs, fmt.Sprintf("server.previous_channel must start with '#', got %q", s.PreviousChannel))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.NewsDuration < 0 {
		errs = append(errs, fmt.Sprintf("game.news_duration must be >= 0, got %d", g.NewsDuration))
	}
	if g.ProcessName == "" {
		errs = append(errs, "game.process_name must not be empty")
	}
	if g.ScanInterval <= 0 {
		errs = append(errs, "game.scan_interval must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateUI(u UIConfig) error {
	validModes := map[string]bool{UIModeTUI: true, UIModeHeadless: true}
	if !validModes[u.Mode] {
		return fmt.Errorf("ui.mode must be one of [tui, headless], got %q", u.Mode)
	}
	if u.UserListDisplay == "" {
		return errors.New("ui.user_list_display must not be empty")
	}
	return nil
}

func validateConsole(c ConsoleConfig) error {
	if !c.Enabled {
		return nil
	}
	var errs []string
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("console.port must be 1-65535, got %d", c.Port))
	}
	if c.PasswordHash == "" {
		errs = append(errs, "console.password_hash must be set when the console is enabled")
	}
	if c.ReadTimeout < 0 {
		errs = append(errs, "console.read_timeout must not be negative")
	}
	if c.WriteTimeout < 0 {
		errs = append(errs, "console.write_timeout must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateOverlay(o OverlayConfig) error {
	if !o.Enabled {
		return nil
	}
	if o.Addr == "" {
		return errors.New("overlay.addr must not be empty when the overlay is enabled")
	}
	if o.NATSURL != "" && o.NATSSubject == "" {
		return errors.New("overlay.nats_subject must be set when overlay.nats_url is set")
	}
	return nil
}

func validateArchive(a ArchiveConfig) error {
	switch a.Driver {
	case "none":
		return nil
	case "sqlite":
		if a.Path == "" {
			return errors.New("archive.path must not be empty for the sqlite driver")
		}
		return nil
	case "postgres":
		return validateDatabase(a.Database)
	default:
		return fmt.Errorf("archive.driver must be one of [none, sqlite, postgres], got %q", a.Driver)
	}
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "archive.database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("archive.database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "archive.database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "archive.database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("archive.database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("archive.database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "archive.database.min_conns must not exceed archive.database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with PDABRIDGE_ prefix
	v.SetEnvPrefix("PDABRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Defaults returns a Viper instance carrying only the default values.
// Used when no configuration file exists yet.
func Defaults() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("identity.nick", "Stalker")
	v.SetDefault("identity.password", "")
	v.SetDefault("identity.faction_setting", FactionGameSynced)
	v.SetDefault("identity.current_faction", "Loner")
	v.SetDefault("identity.block_money_transfer", true)

	v.SetDefault("server.host", "irc.slashnet.org")
	v.SetDefault("server.port", 6667)
	v.SetDefault("server.channels", []map[string]any{
		{"name": "#crcr_english", "description": "CRCR English Moderated"},
	})
	v.SetDefault("server.previous_channel", "#crcr_english")
	v.SetDefault("server.reconnect_max", "2m")

	v.SetDefault("game.news_duration", 3250)
	v.SetDefault("game.chat_key", "DIK_RETURN")
	v.SetDefault("game.nick_auto_complete_key", "DIK_TAB")
	v.SetDefault("game.news_sound", true)
	v.SetDefault("game.close_chat", false)
	v.SetDefault("game.disconnect_when_blowout_or_underground", true)
	v.SetDefault("game.process_name", "AnomalyDX")
	v.SetDefault("game.scan_interval", "5s")

	v.SetDefault("ui.mode", UIModeTUI)
	v.SetDefault("ui.user_list_display", "Names in alphabetical order")

	v.SetDefault("console.enabled", false)
	v.SetDefault("console.host", "127.0.0.1")
	v.SetDefault("console.port", 4040)
	v.SetDefault("console.read_timeout", "30m")
	v.SetDefault("console.write_timeout", "10s")

	v.SetDefault("overlay.enabled", false)
	v.SetDefault("overlay.addr", "127.0.0.1:8090")
	v.SetDefault("overlay.nats_subject", "pdabridge.lines")

	v.SetDefault("archive.driver", "none")
	v.SetDefault("archive.path", "pdabridge.db")
	v.SetDefault("archive.database.host", "localhost")
	v.SetDefault("archive.database.port", 5432)
	v.SetDefault("archive.database.user", "pdabridge")
	v.SetDefault("archive.database.password", "pdabridge")
	v.SetDefault("archive.database.name", "pdabridge")
	v.SetDefault("archive.database.sslmode", "disable")
	v.SetDefault("archive.database.max_conns", 4)
	v.SetDefault("archive.database.min_conns", 1)
	v.SetDefault("archive.database.max_conn_lifetime", "1h")

	v.SetDefault("scripting.instruction_limit", 100_000)

	v.SetDefault("update.enabled", true)
	v.SetDefault("update.url", "https://github.com/cory-johannsen/pdabridge/releases/latest")
	v.SetDefault("update.interval", "10m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
