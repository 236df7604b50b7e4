// Package config loads runtime configuration for the ragdesk client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file selected with -c or -config. JSON, TOML and YAML
//     are accepted, picked by file extension.
//  3. RAGDESK_API_BASE_URL from the environment.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   API base URL
//	-t int      request timeout (seconds)
//	-d string   credential database path
//	-l string   log level
//
// # File schema
//
// Durations may be strings like "30s" or integer nanoseconds (JSON only):
//
//	base_url = "http://127.0.0.1:8000"
//	request_timeout = "30s"
//	database_path = "ragdesk.db"
//	log_level = "debug"
package config
