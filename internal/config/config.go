// Package config loads runtime settings from a TOML file, writing the default
// file on first run. A handful of LIFEOS_* environment variables override the
// file for deploy-time secrets.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "lifeos.toml"
	DefaultDBName         = "lifeos.db"
)

// Search variants. Remote queries the record store per domain; local scans the
// in-memory caches.
const (
	SearchVariantRemote = "remote"
	SearchVariantLocal  = "local"
)

type Server struct {
	Addr string `toml:"addr"`
}

type Database struct {
	Path string `toml:"path"`
}

type Search struct {
	Variant    string `toml:"variant"`
	DebounceMS int    `toml:"debounce_ms"`
}

type Calendar struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
}

type Telegram struct {
	Token string `toml:"token"`
}

type Digest struct {
	Time string `toml:"time"` // HH:MM, local time; empty disables the digest
}

type Config struct {
	Server   Server   `toml:"server"`
	Database Database `toml:"database"`
	Search   Search   `toml:"search"`
	Calendar Calendar `toml:"calendar"`
	Telegram Telegram `toml:"telegram"`
	Digest   Digest   `toml:"digest"`
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		applyEnv(&cfg)
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = DefaultDBName
	}
	if cfg.Search.Variant == "" {
		cfg.Search.Variant = SearchVariantRemote
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("LIFEOS_ADDR")); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("LIFEOS_DB_PATH")); v != "" {
		cfg.Database.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("LIFEOS_SEARCH_VARIANT")); v != "" {
		cfg.Search.Variant = v
	}
	if v := strings.TrimSpace(os.Getenv("LIFEOS_SEARCH_DEBOUNCE_MS")); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Search.DebounceMS = ms
		}
	}
	if v := strings.TrimSpace(os.Getenv("LIFEOS_GOOGLE_CLIENT_ID")); v != "" {
		cfg.Calendar.ClientID = v
	}
	if v := strings.TrimSpace(os.Getenv("LIFEOS_GOOGLE_CLIENT_SECRET")); v != "" {
		cfg.Calendar.ClientSecret = v
	}
	if v := strings.TrimSpace(os.Getenv("LIFEOS_GOOGLE_REDIRECT_URL")); v != "" {
		cfg.Calendar.RedirectURL = v
	}
	if v := strings.TrimSpace(os.Getenv("LIFEOS_TELEGRAM_TOKEN")); v != "" {
		cfg.Telegram.Token = v
	}
	if v := strings.TrimSpace(os.Getenv("LIFEOS_DIGEST_TIME")); v != "" {
		cfg.Digest.Time = v
	}
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		Server:   Server{Addr: ":8080"},
		Database: Database{Path: DefaultDBName},
		Search:   Search{Variant: SearchVariantRemote, DebounceMS: 300},
		Digest:   Digest{Time: "08:00"},
	}
}
