package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/bidmarket/internal/logging"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = append([]string{"testbin"}, args...)
}

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddr)
	assert.Empty(t, c.DatabaseDSN, "memory storage by default")
	assert.Empty(t, c.S3BaseEndpoint, "memory documents by default")
	assert.Equal(t, 24*time.Hour, c.AccessTokenValidityDuration)
	assert.Equal(t, 10*time.Minute, c.OTPValidityDuration)
	assert.Equal(t, logging.FormatText, c.LogFormat)
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no addr", func(c *Config) { c.EndpointAddr = "" }},
		{"no secret", func(c *Config) { c.SecretKey = "" }},
		{"zero token ttl", func(c *Config) { c.AccessTokenValidityDuration = 0 }},
		{"s3 without bucket", func(c *Config) { c.S3BaseEndpoint = "http://minio:9000"; c.S3Bucket = "" }},
		{"no document size", func(c *Config) { c.MaxDocumentSize = 0 }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Config
			c.LoadDefaults()
			tt.mutate(&c)
			require.Error(t, c.Validate())
		})
	}
}

func Test_parseJson(t *testing.T) {
	t.Run("overlays present keys", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"endpoint_addr":         ":9090",
			"database_dsn":          "postgres://u:p@h/db",
			"otp_validity_duration": "5m",
			"max_document_size":     1024,
		})
		withArgs(t, "-c", path)

		var cfg Config
		cfg.LoadDefaults()
		require.NoError(t, parseJson(&cfg))

		assert.Equal(t, ":9090", cfg.EndpointAddr)
		assert.Equal(t, "postgres://u:p@h/db", cfg.DatabaseDSN)
		assert.Equal(t, 5*time.Minute, cfg.OTPValidityDuration)
		assert.Equal(t, int64(1024), cfg.MaxDocumentSize)
		assert.Equal(t, "secretKey", cfg.SecretKey)
	})

	t.Run("no flag", func(t *testing.T) {
		withArgs(t)
		cfg := Config{EndpointAddr: ":1"}
		require.NoError(t, parseJson(&cfg))
		assert.Equal(t, ":1", cfg.EndpointAddr)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))
		withArgs(t, "-config", bad)
		require.Error(t, parseJson(&Config{}))
	})
}

func Test_applyEnv(t *testing.T) {
	env := map[string]string{
		EnvDatabaseDSN:    "postgres://env/db",
		EnvS3BaseEndpoint: "http://minio:9000",
		EnvSecretKey:      "from-env",
	}
	var cfg Config
	cfg.LoadDefaults()
	applyEnv(&cfg, func(k string) string { return env[k] })

	assert.Equal(t, "postgres://env/db", cfg.DatabaseDSN)
	assert.Equal(t, "http://minio:9000", cfg.S3BaseEndpoint)
	assert.Equal(t, "from-env", cfg.SecretKey)
	assert.Equal(t, ":8080", cfg.EndpointAddr)
}

func Test_parseFlags(t *testing.T) {
	var cfg Config
	err := parseFlags(&cfg, []string{
		"-c", "ignored.json",
		"-a", ":7000", "-d", "dsn", "-s", "k", "-t", "30", "-o", "2",
		"-u", "user", "-p", "pass", "-b", "bucket", "-g", "eu-west-1", "-x", "http://s3:9000",
		"-l", "debug", "-f", "json",
	})
	require.NoError(t, err)

	want := Config{
		EndpointAddr:                ":7000",
		DatabaseDSN:                 "dsn",
		SecretKey:                   "k",
		AccessTokenValidityDuration: 30 * time.Minute,
		OTPValidityDuration:         2 * time.Minute,
		S3RootUser:                  "user",
		S3RootPassword:              "pass",
		S3Bucket:                    "bucket",
		S3Region:                    "eu-west-1",
		S3BaseEndpoint:              "http://s3:9000",
		LogLevel:                    "debug",
		LogFormat:                   "json",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}

	require.Error(t, parseFlags(&Config{}, []string{"-t", "soon"}))
}

func TestLoadConfig(t *testing.T) {
	path := writeTempJSON(t, map[string]any{"endpoint_addr": ":9000", "log_level": "warn"})
	withArgs(t, "-c", path, "-e", filepath.Join(t.TempDir(), "absent.env"))
	_, err := LoadConfig()
	require.Error(t, err, "explicit env file must exist")

	envFile := filepath.Join(t.TempDir(), "server.env")
	require.NoError(t, os.WriteFile(envFile, []byte("BIDMARKET_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv(EnvLogLevel) })
	withArgs(t, "-c", path, "-e", envFile, "-a", ":9100")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9100", cfg.EndpointAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
}
