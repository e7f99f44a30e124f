package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/bidmarket/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string     API base URL
//	-s string     session database path
//	-n string     notifier: file, redis or none
//	-r string     redis address
//	-t duration   request timeout, e.g. 10s
//	-l string     log level
//	-f string     log format: console, text or json
//
// The arguments are filtered with flagx.FilterArgs first, so flags owned by
// other loaders (-c, -e) do not interfere.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-n", "-r", "-t", "-l", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.APIBaseURL, "a", cfg.APIBaseURL, "API base URL")
	fs.StringVar(&cfg.StoragePath, "s", cfg.StoragePath, "session database path")
	fs.StringVar(&cfg.Notifier, "n", cfg.Notifier, "session change notifier (file, redis, none)")
	fs.StringVar(&cfg.RedisAddr, "r", cfg.RedisAddr, "redis address")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format (console, text, json)")

	return fs.Parse(args)
}
