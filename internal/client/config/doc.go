// Package config loads runtime configuration for the cloud drive CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config, or the
//     CLOUDDRIVE_CLIENT_CONFIG environment variable.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the API server
//	-i int      session check interval (seconds)
//	-db string  path of the local session database
//	-o string   default download directory
//
// # JSON schema
//
// Intervals use timex.Duration, so values can be strings like "30s" or
// integer nanoseconds:
//
//	{
//	  "server_base_url": "http://localhost:8080",
//	  "session_check_interval": "30s",
//	  "session_db_path": "clouddrive_session.db",
//	  "download_dir": "."
//	}
package config
