// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Play   PlayConfig   `toml:"play"`
	Store  StoreConfig  `toml:"store"`
	Server ServerConfig `toml:"server"`
}

// PlayConfig maps typing-session settings.
type PlayConfig struct {
	Mode      *string   `toml:"mode"`
	WordsFile *string   `toml:"words-file"`
	Debounce  *Duration `toml:"debounce"`
	Toast     *Duration `toml:"toast"`
}

// StoreConfig selects the database.
type StoreConfig struct {
	Driver *string `toml:"driver"`
	DSN    *string `toml:"dsn"`
}

// ServerConfig maps `typequest serve` settings.
type ServerConfig struct {
	Addr      *string  `toml:"addr"`
	RateRPS   *float64 `toml:"rate-rps"`
	RateBurst *int     `toml:"rate-burst"`
	PruneDays *int     `toml:"prune-days"`

	// AllowedOrigins extends the browser origins accepted on /ws/play.
	AllowedOrigins []string `toml:"allowed-origins"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
