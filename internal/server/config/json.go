package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/marsha-uploader/internal/flagx"
	"github.com/dmitrijs2005/marsha-uploader/internal/timex"
)

// JsonConfig is the on-disk shape of Config. Durations accept either strings
// such as "15m" or integer nanoseconds.
type JsonConfig struct {
	HTTPAddr                     string         `json:"http_addr"`
	GRPCAddr                     string         `json:"grpc_addr"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	MaxUploadSize                int64          `json:"max_upload_size"`
	Signer                       string         `json:"signer"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	PresignTTL                   timex.Duration `json:"presign_ttl"`
	ProcessingDelay              timex.Duration `json:"processing_delay"`
	DevUsername                  string         `json:"dev_username"`
	DevPassword                  string         `json:"dev_password"`
	LogBackend                   string         `json:"log_backend"`
	LogLevel                     string         `json:"log_level"`
	Environment                  string         `json:"environment"`
}

// parseJson loads the file named by -c or -config, if any, into config.
// Fields absent from the file keep their current value. Read or unmarshal
// errors panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	for dst, v := range map[*string]string{
		&config.HTTPAddr:       c.HTTPAddr,
		&config.GRPCAddr:       c.GRPCAddr,
		&config.DatabaseDSN:    c.DatabaseDSN,
		&config.SecretKey:      c.SecretKey,
		&config.Signer:         c.Signer,
		&config.S3RootUser:     c.S3RootUser,
		&config.S3RootPassword: c.S3RootPassword,
		&config.S3Bucket:       c.S3Bucket,
		&config.S3Region:       c.S3Region,
		&config.S3BaseEndpoint: c.S3BaseEndpoint,
		&config.DevUsername:    c.DevUsername,
		&config.DevPassword:    c.DevPassword,
		&config.LogBackend:     c.LogBackend,
		&config.LogLevel:       c.LogLevel,
		&config.Environment:    c.Environment,
	} {
		if v != "" {
			*dst = v
		}
	}

	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = c.RefreshTokenValidityDuration.Duration
	}
	if c.PresignTTL.Duration > 0 {
		config.PresignTTL = c.PresignTTL.Duration
	}
	if c.ProcessingDelay.Duration > 0 {
		config.ProcessingDelay = c.ProcessingDelay.Duration
	}
	if c.MaxUploadSize > 0 {
		config.MaxUploadSize = c.MaxUploadSize
	}
}
