package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/marsha-uploader/internal/flagx"
	"github.com/dmitrijs2005/marsha-uploader/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	APIBaseURL    string         `json:"api_base_url"`
	GRPCAddr      string         `json:"grpc_addr"`
	Locale        string         `json:"locale"`
	PollInterval  timex.Duration `json:"poll_interval"`
	HTTPTimeout   timex.Duration `json:"http_timeout"`
	RefreshLeeway timex.Duration `json:"refresh_leeway"`
	MaxFileSize   int64          `json:"max_file_size"`
	DataDir       string         `json:"data_dir"`
	LogBackend    string         `json:"log_backend"`
	LogLevel      string         `json:"log_level"`
	RollbarToken  string         `json:"rollbar_token"`
	Environment   string         `json:"environment"`
}

// parseJson overlays Config with the fields set in the JSON file named by -c
// or -config. Absent fields keep their current value. Panics on read or
// unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.GRPCAddr, jc.GRPCAddr)
	setString(&cfg.Locale, jc.Locale)
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.LogBackend, jc.LogBackend)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.RollbarToken, jc.RollbarToken)
	setString(&cfg.Environment, jc.Environment)
	if jc.PollInterval.Duration > 0 {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.HTTPTimeout.Duration > 0 {
		cfg.HTTPTimeout = jc.HTTPTimeout.Duration
	}
	if jc.RefreshLeeway.Duration > 0 {
		cfg.RefreshLeeway = jc.RefreshLeeway.Duration
	}
	if jc.MaxFileSize > 0 {
		cfg.MaxFileSize = jc.MaxFileSize
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
