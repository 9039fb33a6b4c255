// Package config provides Viper-based configuration loading for the relay server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ServerConfig holds HTTP/socket listener settings.
type ServerConfig struct {
	// Port is the TCP port the HTTP and Socket.IO listener binds to.
	Port int `mapstructure:"port"`
	// PublicDir is the directory the game client is served from at "/".
	PublicDir string `mapstructure:"public_dir"`
	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the ":port" listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameConfig holds defaults applied when a client omits optional fields.
type GameConfig struct {
	// DefaultMaxPlayers is the room capacity used when createRoom omits one.
	DefaultMaxPlayers int `mapstructure:"default_max_players"`
	// StartingLevel is the level assigned to new players that omit one.
	StartingLevel int `mapstructure:"starting_level"`
	// StartingBerries is the currency assigned to new players that omit one.
	StartingBerries int `mapstructure:"starting_berries"`
	// StatsInterval is how often the monitor logs player/room counts.
	// Zero disables the monitor.
	StatsInterval time.Duration `mapstructure:"stats_interval"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Game    GameConfig    `mapstructure:"game"`
}

// Validate checks all configuration invariants.
func (c Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", c.Server.Port))
	}
	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, "server.shutdown_timeout must not be negative")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, console], got %q", c.Logging.Format))
	}

	if c.Game.DefaultMaxPlayers < 1 {
		errs = append(errs, fmt.Sprintf("game.default_max_players must be >= 1, got %d", c.Game.DefaultMaxPlayers))
	}
	if c.Game.StartingLevel < 1 {
		errs = append(errs, fmt.Sprintf("game.starting_level must be >= 1, got %d", c.Game.StartingLevel))
	}
	if c.Game.StatsInterval < 0 {
		errs = append(errs, "game.stats_interval must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variable overrides, then validates the result.
//
// path may be empty, in which case no file is read. The listen port honours
// a bare PORT environment variable in addition to RELAY_SERVER_PORT.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetEnvPrefix("RELAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("server.port", "RELAY_SERVER_PORT", "PORT"); err != nil {
		return Config{}, fmt.Errorf("binding port env: %w", err)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_dir", "public")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game.default_max_players", 4)
	v.SetDefault("game.starting_level", 1)
	v.SetDefault("game.starting_berries", 50000)
	v.SetDefault("game.stats_interval", "1m")
}
