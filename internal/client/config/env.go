package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrijs2005/bidmarket/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvAPIBaseURL     = "BIDMARKET_API_URL"
	EnvStoragePath    = "BIDMARKET_STORAGE"
	EnvNotifier       = "BIDMARKET_NOTIFIER"
	EnvRedisAddr      = "BIDMARKET_REDIS_ADDR"
	EnvRedisChannel   = "BIDMARKET_REDIS_CHANNEL"
	EnvRequestTimeout = "BIDMARKET_TIMEOUT"
	EnvLogLevel       = "BIDMARKET_LOG_LEVEL"
	EnvLogFormat      = "BIDMARKET_LOG_FORMAT"

	// envLegacyAPIBaseURL is the variable the web client was built with.
	envLegacyAPIBaseURL = "NEXT_PUBLIC_API_BASE_URL"
)

// parseEnv loads a dotenv file into the process environment and overlays
// cfg with BIDMARKET_* variables. The file is the one given with -e/-env,
// or ./.env when present. Variables already set in the environment win over
// the file.
func parseEnv(cfg *Config) error {
	if err := loadDotenv(flagx.EnvFileFlag()); err != nil {
		return err
	}
	return applyEnv(cfg, os.LookupEnv)
}

func loadDotenv(path string) error {
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) string {
		v, _ := lookup(key)
		return v
	}

	setString(&cfg.APIBaseURL, get(envLegacyAPIBaseURL))
	setString(&cfg.APIBaseURL, get(EnvAPIBaseURL))
	setString(&cfg.StoragePath, get(EnvStoragePath))
	setString(&cfg.Notifier, get(EnvNotifier))
	setString(&cfg.RedisAddr, get(EnvRedisAddr))
	setString(&cfg.RedisChannel, get(EnvRedisChannel))
	setString(&cfg.LogLevel, get(EnvLogLevel))
	setString(&cfg.LogFormat, get(EnvLogFormat))

	if v := get(EnvRequestTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}
