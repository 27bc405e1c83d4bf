// Package config provides Viper-based configuration loading for the combat server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// Enabled turns combat-state persistence on. When false the server runs
	// purely in memory and the persistence worker is a no-op.
	Enabled         bool          `mapstructure:"enabled"`
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

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameServerConfig holds game server process settings.
type GameServerConfig struct {
	// GRPCHost is the bind address for the gRPC health service.
	GRPCHost string `mapstructure:"grpc_host"`
	// GRPCPort is the TCP port for the gRPC health service.
	GRPCPort int `mapstructure:"grpc_port"`
	// TickInterval is the world tick cadence; one combat round resolves per tick.
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// Addr returns the "host:port" gRPC address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g GameServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.GRPCHost, g.GRPCPort)
}

// CombatConfig holds tuning values for the combat engine.
type CombatConfig struct {
	// GraceWindow is how long a player may stay unreachable before their
	// combat session is forcibly ended.
	GraceWindow time.Duration `mapstructure:"grace_window"`
	// TransferWindow is how long a session transfer may stay pending.
	TransferWindow time.Duration `mapstructure:"transfer_window"`
	// CombatLevelMultiplier scales base energy per round.
	CombatLevelMultiplier float64 `mapstructure:"combat_level_multiplier"`
	// MaxComboPoints bounds accumulated finisher points.
	MaxComboPoints int `mapstructure:"max_combo_points"`
	// MaxAttacksPerRound caps the attacks the energy system may grant.
	MaxAttacksPerRound int `mapstructure:"max_attacks_per_round"`
	// DefaultWeaponCost is the energy cost of an unarmed swing.
	DefaultWeaponCost int `mapstructure:"default_weapon_cost"`
	// CommandRate is the sustained combat commands per second allowed per player.
	CommandRate float64 `mapstructure:"command_rate"`
	// CommandBurst is the burst size for the per-player command limiter.
	CommandBurst int `mapstructure:"command_burst"`
}

// AdminConfig holds the admin HTTP listener settings.
type AdminConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the "host:port" admin HTTP address.
func (a AdminConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// TelnetConfig holds the player-facing Telnet listener settings.
type TelnetConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	// Port 0 picks a free port.
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// Color enables ANSI styling of combat output.
	Color bool `mapstructure:"color"`
}

// Addr returns the "host:port" Telnet address.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// NewcomerConfig describes the character a first-time Telnet player is given.
type NewcomerConfig struct {
	Race  string `mapstructure:"race"`
	Class string `mapstructure:"class"`
	Level int    `mapstructure:"level"`
	MaxHP int    `mapstructure:"max_hp"`
	Str   int    `mapstructure:"str"`
	Dex   int    `mapstructure:"dex"`
	Agi   int    `mapstructure:"agi"`
	Int   int    `mapstructure:"int"`
	Wis   int    `mapstructure:"wis"`
	// Pools maps resource name to its maximum, e.g. {mana: 10}.
	Pools map[string]int `mapstructure:"pools"`
	// Equipment lists item IDs wielded or worn on first login.
	Equipment []string `mapstructure:"equipment"`
}

// ContentConfig points at the YAML and Lua content directories.
type ContentConfig struct {
	ZonesDir     string `mapstructure:"zones_dir"`
	NPCsDir      string `mapstructure:"npcs_dir"`
	ItemsDir     string `mapstructure:"items_dir"`
	AbilitiesDir string `mapstructure:"abilities_dir"`
	RacesDir     string `mapstructure:"races_dir"`
	ClassesDir   string `mapstructure:"classes_dir"`
	// ScriptsDir holds Lua proc scripts; empty disables scripting.
	ScriptsDir string `mapstructure:"scripts_dir"`
}

// Config is the top-level application configuration.
type Config struct {
	Database   DatabaseConfig   `mapstructure:"database"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	GameServer GameServerConfig `mapstructure:"gameserver"`
	Combat     CombatConfig     `mapstructure:"combat"`
	Admin      AdminConfig      `mapstructure:"admin"`
	Content    ContentConfig    `mapstructure:"content"`
	Telnet     TelnetConfig     `mapstructure:"telnet"`
	Newcomer   NewcomerConfig   `mapstructure:"newcomer"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if c.Database.Enabled {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGameServer(c.GameServer); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateCombat(c.Combat); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Admin.Port < 1 || c.Admin.Port > 65535 {
		errs = append(errs, fmt.Sprintf("admin.port must be 1-65535, got %d", c.Admin.Port))
	}
	if c.Telnet.Enabled {
		if err := validateTelnet(c.Telnet); err != nil {
			errs = append(errs, err.Error())
		}
		if err := validateNewcomer(c.Newcomer); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateGameServer(g GameServerConfig) error {
	var errs []string
	if g.GRPCHost == "" {
		errs = append(errs, "gameserver.grpc_host must not be empty")
	}
	if g.GRPCPort < 1 || g.GRPCPort > 65535 {
		errs = append(errs, fmt.Sprintf("gameserver.grpc_port must be 1-65535, got %d", g.GRPCPort))
	}
	if g.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("gameserver.tick_interval must be > 0 (got %s)", g.TickInterval))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateCombat(c CombatConfig) error {
	var errs []string
	if c.GraceWindow < 0 {
		errs = append(errs, "combat.grace_window must not be negative")
	}
	if c.TransferWindow < 0 {
		errs = append(errs, "combat.transfer_window must not be negative")
	}
	if c.CombatLevelMultiplier <= 0 {
		errs = append(errs, fmt.Sprintf("combat.combat_level_multiplier must be > 0, got %g", c.CombatLevelMultiplier))
	}
	if c.MaxComboPoints < 1 {
		errs = append(errs, fmt.Sprintf("combat.max_combo_points must be >= 1, got %d", c.MaxComboPoints))
	}
	if c.MaxAttacksPerRound < 1 {
		errs = append(errs, fmt.Sprintf("combat.max_attacks_per_round must be >= 1, got %d", c.MaxAttacksPerRound))
	}
	if c.DefaultWeaponCost < 1 {
		errs = append(errs, fmt.Sprintf("combat.default_weapon_cost must be >= 1, got %d", c.DefaultWeaponCost))
	}
	if c.CommandRate <= 0 {
		errs = append(errs, fmt.Sprintf("combat.command_rate must be > 0, got %g", c.CommandRate))
	}
	if c.CommandBurst < 1 {
		errs = append(errs, fmt.Sprintf("combat.command_burst must be >= 1, got %d", c.CommandBurst))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if t.Host == "" {
		errs = append(errs, "telnet.host must not be empty")
	}
	if t.Port < 0 || t.Port > 65535 {
		errs = append(errs, fmt.Sprintf("telnet.port must be 0-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 || t.WriteTimeout < 0 {
		errs = append(errs, "telnet timeouts must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateNewcomer(n NewcomerConfig) error {
	var errs []string
	if n.Level < 1 {
		errs = append(errs, fmt.Sprintf("newcomer.level must be >= 1, got %d", n.Level))
	}
	if n.MaxHP < 1 {
		errs = append(errs, fmt.Sprintf("newcomer.max_hp must be >= 1, got %d", n.MaxHP))
	}
	for name, v := range n.Pools {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("newcomer.pools.%s must be >= 0, got %d", name, v))
		}
	}
	for i, id := range n.Equipment {
		if strings.TrimSpace(id) == "" {
			errs = append(errs, fmt.Sprintf("newcomer.equipment[%d] must not be empty", i))
		}
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

	// Environment variable overrides with FRAY_ prefix
	v.SetEnvPrefix("FRAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

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

// SetDefaults registers every default value on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "fray")
	v.SetDefault("database.password", "fray")
	v.SetDefault("database.name", "fray")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("gameserver.grpc_host", "127.0.0.1")
	v.SetDefault("gameserver.grpc_port", 50051)
	v.SetDefault("gameserver.tick_interval", "2s")

	v.SetDefault("combat.grace_window", "5s")
	v.SetDefault("combat.transfer_window", "3s")
	v.SetDefault("combat.combat_level_multiplier", 1.0)
	v.SetDefault("combat.max_combo_points", 5)
	v.SetDefault("combat.max_attacks_per_round", 10)
	v.SetDefault("combat.default_weapon_cost", 250)
	v.SetDefault("combat.command_rate", 2.0)
	v.SetDefault("combat.command_burst", 3)

	v.SetDefault("admin.host", "127.0.0.1")
	v.SetDefault("admin.port", 9090)

	v.SetDefault("content.zones_dir", "content/zones")
	v.SetDefault("content.npcs_dir", "content/npcs")
	v.SetDefault("content.items_dir", "content/items")
	v.SetDefault("content.abilities_dir", "content/abilities")
	v.SetDefault("content.races_dir", "content/races")
	v.SetDefault("content.classes_dir", "content/classes")
	v.SetDefault("content.scripts_dir", "content/scripts")

	v.SetDefault("telnet.enabled", true)
	v.SetDefault("telnet.host", "127.0.0.1")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "15m")
	v.SetDefault("telnet.write_timeout", "10s")
	v.SetDefault("telnet.color", true)

	v.SetDefault("newcomer.race", "human")
	v.SetDefault("newcomer.class", "warrior")
	v.SetDefault("newcomer.level", 1)
	v.SetDefault("newcomer.max_hp", 30)
	for _, stat := range []string{"str", "dex", "agi", "int", "wis"} {
		v.SetDefault("newcomer."+stat, 10)
	}
	v.SetDefault("newcomer.pools", map[string]int{"mana": 10, "stamina": 10})
	v.SetDefault("newcomer.equipment", []string{"filleting_knife", "leather_jerkin"})
}
