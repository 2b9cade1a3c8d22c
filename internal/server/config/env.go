package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dmitrijs2005/marsha-uploader/internal/flagx"
)

// parseEnv reads secrets and deployment-specific values that should not live
// in a config file.
func parseEnv(cfg *Config) error {
	flagx.StringFromEnv(&cfg.DatabaseDSN, "DATABASE_DSN")
	flagx.StringFromEnv(&cfg.SecretKey, "SECRET_KEY")
	flagx.StringFromEnv(&cfg.S3RootUser, "S3_ROOT_USER")
	flagx.StringFromEnv(&cfg.S3RootPassword, "S3_ROOT_PASSWORD")
	flagx.StringFromEnv(&cfg.DevUsername, "DEV_USERNAME")
	flagx.StringFromEnv(&cfg.DevPassword, "DEV_PASSWORD")
	flagx.StringFromEnv(&cfg.RollbarToken, "ROLLBAR_TOKEN")

	if err := flagx.DurationFromEnv(&cfg.PresignTTL, "PRESIGN_TTL"); err != nil {
		return fmt.Errorf("PRESIGN_TTL: %w", err)
	}
	if err := flagx.DurationFromEnv(&cfg.ProcessingDelay, "PROCESSING_DELAY"); err != nil {
		return fmt.Errorf("PROCESSING_DELAY: %w", err)
	}
	if v, ok := os.LookupEnv("MAX_UPLOAD_SIZE"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_SIZE: %w", err)
		}
		cfg.MaxUploadSize = n
	}
	return nil
}
