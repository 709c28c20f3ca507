// Package config loads glucotrack settings from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// EnvConfigPath names the environment variable holding the config file path.
const EnvConfigPath = "GLUCOTRACK_CONFIG"

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Store   StoreConfig   `yaml:"store"`
	Session SessionConfig `yaml:"session"`
	Pixoo   PixooConfig   `yaml:"pixoo"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type StoreConfig struct {
	Backend string `yaml:"backend"`
	DSN     string `yaml:"dsn"`
}

type SessionConfig struct {
	TTL    time.Duration `yaml:"ttl"`
	Cookie string        `yaml:"cookie"`
}

// PixooConfig enables the display mirror when IP is set.
type PixooConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Dev   bool   `yaml:"dev"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Store:   StoreConfig{Backend: BackendMemory, DSN: ":memory:"},
		Session: SessionConfig{TTL: 30 * time.Minute, Cookie: "glucotrack_session"},
		Pixoo:   PixooConfig{Port: 80},
		Log:     LogConfig{Level: "info"},
	}
}

// Load builds the configuration. path may be empty, in which case
// GLUCOTRACK_CONFIG is consulted; a missing file is only an error when a
// path was given explicitly.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("GLUCOTRACK_ADDR"); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup("GLUCOTRACK_STORE"); ok && v != "" {
		c.Store.Backend = strings.ToLower(v)
	}
	if v, ok := lookup("GLUCOTRACK_SQLITE_DSN"); ok && v != "" {
		c.Store.DSN = v
	}
	if v, ok := lookup("GLUCOTRACK_SESSION_TTL"); ok && v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid GLUCOTRACK_SESSION_TTL %q: %w", v, err)
		}
		c.Session.TTL = ttl
	}
	if v, ok := lookup("PIXOO_IP"); ok {
		c.Pixoo.IP = v
	}
	if v, ok := lookup("GLUCOTRACK_DEV"); ok && v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid GLUCOTRACK_DEV %q: %w", v, err)
		}
		c.Log.Dev = dev
	}
	if v, ok := lookup("DEBUG"); ok {
		switch strings.ToLower(v) {
		case "true", "1":
			c.Log.Level = "debug"
		}
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.Backend == BackendSQLite && c.Store.DSN == "" {
		return errors.New("store.dsn is required for the sqlite backend")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Session.Cookie == "" {
		return errors.New("session.cookie must not be empty")
	}
	if c.Pixoo.Port < 0 || c.Pixoo.Port > 65535 {
		return fmt.Errorf("pixoo.port out of range: %d", c.Pixoo.Port)
	}
	return nil
}

// PixooEnabled reports whether a display is configured.
func (c Config) PixooEnabled() bool {
	return c.Pixoo.IP != ""
}
