// Package config loads runtime configuration for the upload CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Environment: ROLLBAR_TOKEN, MARSHA_API_URL.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the LMS API
//	-g string   address:port of the backend gRPC health endpoint
//	-l string   locale sent as Accept-Language
//	-i int      polling interval while an upload runs (seconds)
//	-t int      HTTP client timeout (seconds)
//	-m int      local file size limit (bytes, 0 disables)
//	-d string   local data directory
//
// # JSON schema
//
// Durations use timex.Duration, so values can be either strings like "5s" or
// integer nanoseconds:
//
//	{
//	  "api_base_url": "http://127.0.0.1:8080",
//	  "poll_interval": "5s",
//	  "max_file_size": 1073741824,
//	  "log_backend": "zap"
//	}
package config
