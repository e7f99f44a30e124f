// Package config loads runtime configuration for the marketplace CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment: BIDMARKET_* variables, optionally seeded from a dotenv
//     file given with -e or -env (./.env otherwise).
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string     API base URL
//	-s string     session database path
//	-n string     notifier: file, redis or none
//	-r string     redis address
//	-t duration   request timeout
//	-l string     log level
//	-f string     log format
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "15s" or
// integer nanoseconds:
//
//	{
//	  "api_url": "https://api.example.com",
//	  "storage_path": "/home/me/.config/bidmarket/session.db",
//	  "notifier": "redis",
//	  "redis_addr": "127.0.0.1:6379",
//	  "request_timeout": "15s",
//	  "log_level": "info",
//	  "log_format": "console"
//	}
package config
