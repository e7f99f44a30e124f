package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dmitrijs2005/bidmarket/internal/flagx"
	"github.com/joho/godotenv"
)

const (
	EnvEndpointAddr   = "BIDMARKET_SERVER_ADDR"
	EnvDatabaseDSN    = "DATABASE_DSN"
	EnvSecretKey      = "BIDMARKET_SECRET_KEY"
	EnvS3RootUser     = "S3_ROOT_USER"
	EnvS3RootPassword = "S3_ROOT_PASSWORD"
	EnvS3Bucket       = "S3_BUCKET"
	EnvS3Region       = "S3_REGION"
	EnvS3BaseEndpoint = "S3_BASE_ENDPOINT"
	EnvLogLevel       = "BIDMARKET_LOG_LEVEL"
)

// parseEnv loads the dotenv file given with -e/-env (or ./.env when present)
// and overlays config with the variables above.
func parseEnv(config *Config) error {
	path := flagx.EnvFileFlag()
	if path == "" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}
	} else if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	applyEnv(config, os.Getenv)
	return nil
}

func applyEnv(config *Config, getenv func(string) string) {
	setString(&config.EndpointAddr, getenv(EnvEndpointAddr))
	setString(&config.DatabaseDSN, getenv(EnvDatabaseDSN))
	setString(&config.SecretKey, getenv(EnvSecretKey))
	setString(&config.S3RootUser, getenv(EnvS3RootUser))
	setString(&config.S3RootPassword, getenv(EnvS3RootPassword))
	setString(&config.S3Bucket, getenv(EnvS3Bucket))
	setString(&config.S3Region, getenv(EnvS3Region))
	setString(&config.S3BaseEndpoint, getenv(EnvS3BaseEndpoint))
	setString(&config.LogLevel, getenv(EnvLogLevel))
}
