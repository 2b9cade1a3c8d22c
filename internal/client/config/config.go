package config

import (
	"time"

	"github.com/dmitrijs2005/marsha-uploader/internal/flagx"
)

// Config holds runtime settings for the upload CLI.
//
// Units: PollInterval, HTTPTimeout and RefreshLeeway are time.Duration;
// MaxFileSize is in bytes, 0 meaning the backend limit alone applies.
type Config struct {
	APIBaseURL    string
	GRPCAddr      string
	Locale        string
	PollInterval  time.Duration
	HTTPTimeout   time.Duration
	RefreshLeeway time.Duration
	MaxFileSize   int64
	DataDir       string
	LogBackend    string
	LogLevel      string
	RollbarToken  string
	Environment   string
}

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://127.0.0.1:8080"
	c.GRPCAddr = "127.0.0.1:50051"
	c.Locale = "en"
	c.PollInterval = 5 * time.Second
	c.HTTPTimeout = 10 * time.Minute
	c.RefreshLeeway = 30 * time.Second
	c.MaxFileSize = 0
	c.DataDir = "data"
	c.LogBackend = "slog"
	c.LogLevel = "warn"
	c.Environment = "development"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

// parseEnv reads secrets that should not live in a config file.
func parseEnv(cfg *Config) {
	flagx.StringFromEnv(&cfg.RollbarToken, "ROLLBAR_TOKEN")
	flagx.StringFromEnv(&cfg.APIBaseURL, "MARSHA_API_URL")
}
