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

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func withArgs(t *testing.T, args ...string) {
	t.Helper()
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })
	os.Args = append([]string{"testbin"}, args...)
}

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, "http://127.0.0.1:8080", c.APIBaseURL)
	assert.Equal(t, NotifierFile, c.Notifier)
	assert.Equal(t, 15*time.Second, c.RequestTimeout)
	assert.Equal(t, logging.FormatConsole, c.LogFormat)
	assert.Equal(t, "session.db", filepath.Base(c.StoragePath))
	assert.Equal(t, c.StoragePath+".signal", c.SignalPath())
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad url", func(c *Config) { c.APIBaseURL = "localhost" }},
		{"no storage", func(c *Config) { c.StoragePath = "" }},
		{"unknown notifier", func(c *Config) { c.Notifier = "carrier-pigeon" }},
		{"redis without addr", func(c *Config) { c.Notifier = NotifierRedis; c.RedisAddr = "" }},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }},
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }},
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
	t.Run("loads from flag", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"api_url":         "https://api.example.com",
			"notifier":        "redis",
			"request_timeout": "3s",
		})
		withArgs(t, "-config", path)

		var cfg Config
		cfg.LoadDefaults()
		require.NoError(t, parseJson(&cfg))

		assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
		assert.Equal(t, NotifierRedis, cfg.Notifier)
		assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
		assert.Equal(t, logging.FormatConsole, cfg.LogFormat, "absent keys keep their value")
	})

	t.Run("no flag, no change", func(t *testing.T) {
		withArgs(t)
		cfg := Config{APIBaseURL: "http://defaults:1234"}
		require.NoError(t, parseJson(&cfg))
		assert.Equal(t, "http://defaults:1234", cfg.APIBaseURL)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ nope`), 0o600))
		withArgs(t, "-c", bad)
		require.Error(t, parseJson(&Config{}))
	})

	t.Run("missing file", func(t *testing.T) {
		withArgs(t, "-c", filepath.Join(t.TempDir(), "absent.json"))
		require.Error(t, parseJson(&Config{}))
	})
}

func Test_applyEnv(t *testing.T) {
	env := map[string]string{
		"NEXT_PUBLIC_API_BASE_URL": "http://legacy:3000",
		EnvAPIBaseURL:              "http://env:8080",
		EnvStoragePath:             "/tmp/s.db",
		EnvRequestTimeout:          "2s",
		EnvLogLevel:                "debug",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	var cfg Config
	cfg.LoadDefaults()
	require.NoError(t, applyEnv(&cfg, lookup))

	assert.Equal(t, "http://env:8080", cfg.APIBaseURL)
	assert.Equal(t, "/tmp/s.db", cfg.StoragePath)
	assert.Equal(t, 2*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)

	env[EnvRequestTimeout] = "soon"
	require.Error(t, applyEnv(&cfg, lookup))
}

func Test_applyEnv_LegacyURL(t *testing.T) {
	var cfg Config
	cfg.LoadDefaults()
	require.NoError(t, applyEnv(&cfg, func(k string) (string, bool) {
		if k == "NEXT_PUBLIC_API_BASE_URL" {
			return "http://legacy:3000", true
		}
		return "", false
	}))
	assert.Equal(t, "http://legacy:3000", cfg.APIBaseURL)
}

func Test_loadDotenv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("BIDMARKET_TEST_ONLY_KEY=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("BIDMARKET_TEST_ONLY_KEY") })

	require.NoError(t, loadDotenv(path))
	assert.Equal(t, "from-file", os.Getenv("BIDMARKET_TEST_ONLY_KEY"))

	require.Error(t, loadDotenv(filepath.Join(t.TempDir(), "absent.env")))
}

func Test_parseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Config
		wantErr bool
	}{
		{
			name: "all flags",
			args: []string{"-a", "http://x:1", "-s", "/tmp/a.db", "-n", "none", "-r", "r:6379", "-t", "5s", "-l", "info", "-f", "json"},
			want: Config{APIBaseURL: "http://x:1", StoragePath: "/tmp/a.db", Notifier: "none", RedisAddr: "r:6379", RequestTimeout: 5 * time.Second, LogLevel: "info", LogFormat: "json"},
		},
		{
			name: "foreign flags are ignored",
			args: []string{"-c", "cfg.json", "-a", "http://y:2", "-e", ".env"},
			want: Config{APIBaseURL: "http://y:2"},
		},
		{
			name:    "bad duration",
			args:    []string{"-t", "abc"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			err := parseFlags(&cfg, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, cfg); diff != "" {
				t.Fatalf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeTempJSON(t, map[string]any{
		"api_url":      "http://json:1",
		"storage_path": filepath.Join(t.TempDir(), "json.db"),
		"log_level":    "info",
	})
	envFile := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("BIDMARKET_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv(EnvLogLevel) })

	withArgs(t, "-c", path, "-e", envFile, "-a", "http://flag:2")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "http://flag:2", cfg.APIBaseURL)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json.db", filepath.Base(cfg.StoragePath))
}
