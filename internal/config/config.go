// Package config provides Viper-based configuration loading for the quest engine.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings for the cloud save store.
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

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameConfig holds the combat and progression tuning values.
//
// These are the numeric knobs the balance simulator sweeps; the invariants the
// engine guarantees (damage floor, clamping, monotonic curves) hold for any
// valid configuration.
type GameConfig struct {
	// StarterGold is the gold a fresh character begins with.
	StarterGold int `mapstructure:"starter_gold"`
	// MagicCost is the fixed mana cost of the Magic combat action.
	MagicCost int `mapstructure:"magic_cost"`
	// MagicMultiplier scales effective attack for Magic damage. Must be > 1.
	MagicMultiplier float64 `mapstructure:"magic_multiplier"`
	// BaseManaRegen is the mana restored at the start of each player turn,
	// before equipment bonuses.
	BaseManaRegen int `mapstructure:"base_mana_regen"`
	// FleeBaseChance is the flee success probability at luck 0.
	FleeBaseChance float64 `mapstructure:"flee_base_chance"`
	// FleeLuckStep is the additional success probability per point of luck.
	FleeLuckStep float64 `mapstructure:"flee_luck_step"`
	// FleeMaxChance caps flee success probability below certainty.
	FleeMaxChance float64 `mapstructure:"flee_max_chance"`
	// DefeatGoldPenalty is the fraction of gold lost on defeat, in [0, 1).
	DefeatGoldPenalty float64 `mapstructure:"defeat_gold_penalty"`
	// DefeatRecoverFraction is the fraction of max HP restored after defeat.
	DefeatRecoverFraction float64 `mapstructure:"defeat_recover_fraction"`
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
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

func validateGame(g GameConfig) error {
	var errs []string
	if g.StarterGold < 0 {
		errs = append(errs, fmt.Sprintf("game.starter_gold must be >= 0, got %d", g.StarterGold))
	}
	if g.MagicCost < 1 {
		errs = append(errs, fmt.Sprintf("game.magic_cost must be >= 1, got %d", g.MagicCost))
	}
	if g.MagicMultiplier <= 1 {
		errs = append(errs, fmt.Sprintf("game.magic_multiplier must be > 1, got %g", g.MagicMultiplier))
	}
	if g.BaseManaRegen < 0 {
		errs = append(errs, fmt.Sprintf("game.base_mana_regen must be >= 0, got %d", g.BaseManaRegen))
	}
	if g.FleeBaseChance < 0 || g.FleeBaseChance >= 1 {
		errs = append(errs, fmt.Sprintf("game.flee_base_chance must be in [0, 1), got %g", g.FleeBaseChance))
	}
	if g.FleeLuckStep < 0 {
		errs = append(errs, fmt.Sprintf("game.flee_luck_step must be >= 0, got %g", g.FleeLuckStep))
	}
	if g.FleeMaxChance <= g.FleeBaseChance || g.FleeMaxChance >= 1 {
		errs = append(errs, fmt.Sprintf("game.flee_max_chance must be in (flee_base_chance, 1), got %g", g.FleeMaxChance))
	}
	if g.DefeatGoldPenalty < 0 || g.DefeatGoldPenalty >= 1 {
		errs = append(errs, fmt.Sprintf("game.defeat_gold_penalty must be in [0, 1), got %g", g.DefeatGoldPenalty))
	}
	if g.DefeatRecoverFraction <= 0 || g.DefeatRecoverFraction > 1 {
		errs = append(errs, fmt.Sprintf("game.defeat_recover_fraction must be in (0, 1], got %g", g.DefeatRecoverFraction))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
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

	// Environment variable overrides with QUEST_ prefix
	v.SetEnvPrefix("QUEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
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

// DefaultGame returns the GameConfig produced by the built-in defaults.
// Useful for tests and for callers embedding the engine without a config file.
//
// Postcondition: The returned config passes Validate.
func DefaultGame() GameConfig {
	return GameConfig{
		StarterGold:           50,
		MagicCost:             10,
		MagicMultiplier:       1.8,
		BaseManaRegen:         2,
		FleeBaseChance:        0.35,
		FleeLuckStep:          0.04,
		FleeMaxChance:         0.95,
		DefeatGoldPenalty:     0.2,
		DefeatRecoverFraction: 0.25,
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "quest")
	v.SetDefault("database.password", "quest")
	v.SetDefault("database.name", "quest")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	g := DefaultGame()
	v.SetDefault("game.starter_gold", g.StarterGold)
	v.SetDefault("game.magic_cost", g.MagicCost)
	v.SetDefault("game.magic_multiplier", g.MagicMultiplier)
	v.SetDefault("game.base_mana_regen", g.BaseManaRegen)
	v.SetDefault("game.flee_base_chance", g.FleeBaseChance)
	v.SetDefault("game.flee_luck_step", g.FleeLuckStep)
	v.SetDefault("game.flee_max_chance", g.FleeMaxChance)
	v.SetDefault("game.defeat_gold_penalty", g.DefeatGoldPenalty)
	v.SetDefault("game.defeat_recover_fraction", g.DefeatRecoverFraction)
}
