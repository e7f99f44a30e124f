package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/bidmarket/internal/logging"
)

const (
	NotifierFile  = "file"
	NotifierRedis = "redis"
	NotifierNone  = "none"
)

// Config holds runtime settings for the marketplace CLI.
//
// Fields:
//   - APIBaseURL: scheme://host[:port] of the marketplace REST API.
//   - StoragePath: SQLite file holding the session; processes sharing it share the login.
//   - Notifier: how session changes reach other processes (file, redis, none).
//   - RedisAddr, RedisChannel: Pub/Sub endpoint when Notifier is redis.
//   - RequestTimeout: upper bound for a single API request.
//   - LogLevel, LogFormat: logger settings (console, text, json).
type Config struct {
	APIBaseURL     string
	StoragePath    string
	Notifier       string
	RedisAddr      string
	RedisChannel   string
	RequestTimeout time.Duration
	LogLevel       string
	LogFormat      string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.StoragePath = defaultStoragePath()
	c.Notifier = NotifierFile
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisChannel = "bidmarket:session"
	c.RequestTimeout = 15 * time.Second
	c.LogLevel = "warn"
	c.LogFormat = logging.FormatConsole
}

func defaultStoragePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "bidmarket", "session.db")
}

// SignalPath is the file the file notifier replaces on every session change.
func (c *Config) SignalPath() string {
	return c.StoragePath + ".signal"
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.APIBaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api url %q", c.APIBaseURL)
	}
	if c.StoragePath == "" {
		return fmt.Errorf("storage path is required")
	}
	switch c.Notifier {
	case NotifierFile, NotifierNone:
	case NotifierRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the redis notifier")
		}
	default:
		return fmt.Errorf("unknown notifier %q", c.Notifier)
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	switch c.LogFormat {
	case logging.FormatConsole, logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, os.Args[1:]); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
