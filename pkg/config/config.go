// Package config loads flowdesk settings.
//
// Settings are resolved in three layers, later layers winning:
//
//  1. Built-in defaults ([Default])
//  2. A TOML file, by default $XDG_CONFIG_HOME/flowdesk/config.toml
//  3. FLOWDESK_* environment variables, one prefix per section
//     (FLOWDESK_SERVER_ADDR, FLOWDESK_STORAGE_BACKEND,
//     FLOWDESK_LAYOUT_NODE_WIDTH, FLOWDESK_EDITOR_DEBOUNCE, ...)
//
// Command-line flags are applied by the CLI on top of the loaded value.
//
// A missing config file is not an error; a malformed one is.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"

	"github.com/matzehuels/flowdesk/pkg/layout"
	"github.com/matzehuels/flowdesk/pkg/storage"
)

const (
	appName    = "flowdesk"
	fileName   = "config.toml"
	envPrefix  = "FLOWDESK"
	envOptPath = "FLOWDESK_CONFIG"
)

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// Config is the full flowdesk configuration.
type Config struct {
	Server  ServerConfig   `toml:"server"`
	Storage storage.Config `toml:"storage"`
	Layout  layout.Options `toml:"layout"`
	Editor  EditorConfig   `toml:"editor"`
	Cache   CacheConfig    `toml:"cache"`
}

// ServerConfig configures `flowdesk serve`.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `toml:"write_timeout" split_words:"true"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" split_words:"true"`
	AllowedOrigins  []string      `toml:"allowed_origins" split_words:"true"`
}

// EditorConfig configures editing sessions.
type EditorConfig struct {
	// Debounce is how long structural edits wait before a layout pass.
	Debounce time.Duration `toml:"debounce"`
}

// CacheConfig configures the layout and artifact cache.
type CacheConfig struct {
	Backend string              `toml:"backend"`
	Dir     string              `toml:"dir"`
	Redis   storage.RedisConfig `toml:"redis"`

	// Scope prefixes every key, for workspaces sharing one Redis.
	Scope string `toml:"scope"`
}

// Default returns the built-in configuration.
func Default() Config {
	c := Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:8420",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
		Editor: EditorConfig{Debounce: 100 * time.Millisecond},
		Cache: CacheConfig{
			Backend: CacheFile,
			Redis:   storage.RedisConfig{Addr: "localhost:6379", Prefix: "flowdesk:cache:"},
		},
	}
	c.Storage.SetDefaults()
	c.Layout.SetDefaults()
	return c
}

// Path returns the config file location: $FLOWDESK_CONFIG if set, else
// $XDG_CONFIG_HOME/flowdesk/config.toml, else ~/.config/flowdesk/config.toml.
func Path() (string, error) {
	if p := os.Getenv(envOptPath); p != "" {
		return p, nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, fileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, fileName), nil
}

// Load reads the config file at path (or [Path] when path is empty),
// applies environment overrides and validates the result. An explicit
// path that does not exist is an error; the default path may be absent.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		p, err := Path()
		if err == nil {
			path = p
		}
	}
	if path != "" {
		if err := cfg.decodeFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return cfg, err
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	cfg.Layout = cfg.Layout.Normalized()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) decodeFile(path string) error {
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return fmt.Errorf("config %s: unknown key %q", path, keys[0].String())
	}
	return nil
}

func (c *Config) applyEnv() error {
	sections := []struct {
		prefix string
		spec   any
	}{
		{envPrefix + "_SERVER", &c.Server},
		{envPrefix + "_STORAGE", &c.Storage},
		{envPrefix + "_LAYOUT", &c.Layout},
		{envPrefix + "_EDITOR", &c.Editor},
		{envPrefix + "_CACHE", &c.Cache},
	}
	for _, s := range sections {
		if err := envconfig.Process(s.prefix, s.spec); err != nil {
			return fmt.Errorf("config env %s_*: %w", s.prefix, err)
		}
	}
	return nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	if err := c.Layout.Validate(); err != nil {
		return fmt.Errorf("config layout: %w", err)
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("config cache: unknown backend %q (must be file, redis or none)", c.Cache.Backend)
	}
	if c.Editor.Debounce < 0 {
		return fmt.Errorf("config editor: debounce must not be negative")
	}
	return nil
}

// Encode writes c as TOML.
func (c Config) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}
