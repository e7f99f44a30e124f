// Package config handles configuration for the development API server,
// including defaults, JSON overlay, environment and command-line flags.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/bidmarket/internal/logging"
)

// Config holds runtime settings for the marketplace API server.
//
// Fields:
//   - EndpointAddr: bind address of the HTTP listener.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty keeps all data in memory.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use the default in prod.
//   - AccessTokenValidityDuration: lifetime of issued tokens.
//   - OTPValidityDuration: how long a signup code stays usable.
//   - S3RootUser / S3RootPassword: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: document storage. An empty
//     endpoint keeps uploaded documents in memory.
//   - MaxDocumentSize: upper bound for an uploaded completion document.
//   - LogLevel, LogFormat: logger settings.
type Config struct {
	EndpointAddr                string
	DatabaseDSN                 string
	SecretKey                   string
	AccessTokenValidityDuration time.Duration
	OTPValidityDuration         time.Duration
	S3RootUser                  string
	S3RootPassword              string
	S3Bucket                    string
	S3Region                    string
	S3BaseEndpoint              string
	MaxDocumentSize             int64
	LogLevel                    string
	LogFormat                   string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":8080"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.AccessTokenValidityDuration = 24 * time.Hour
	c.OTPValidityDuration = 10 * time.Minute
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = "bidmarket"
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = ""
	c.MaxDocumentSize = 10 << 20
	c.LogLevel = "info"
	c.LogFormat = logging.FormatText
}

func (c *Config) Validate() error {
	if c.EndpointAddr == "" {
		return fmt.Errorf("endpoint address is required")
	}
	if c.SecretKey == "" {
		return fmt.Errorf("secret key is required")
	}
	if c.AccessTokenValidityDuration <= 0 || c.OTPValidityDuration <= 0 {
		return fmt.Errorf("token and otp validity must be positive")
	}
	if c.S3BaseEndpoint != "" && c.S3Bucket == "" {
		return fmt.Errorf("s3 bucket is required when an s3 endpoint is set")
	}
	if c.MaxDocumentSize <= 0 {
		return fmt.Errorf("max document size must be positive")
	}
	switch c.LogFormat {
	case logging.FormatConsole, logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
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

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
