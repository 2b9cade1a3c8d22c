package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

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

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("overlays present fields", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"http_addr":                      ":9000",
			"signer":                         "minio",
			"access_token_validity_duration": "2m",
			"presign_ttl":                    "1h",
			"max_upload_size":                4096,
			"dev_username":                   "instructor",
			"dev_password":                   "pw",
		})
		os.Args = []string{"server", "-config", path}

		var cfg Config
		cfg.LoadDefaults()
		parseJson(&cfg)

		assert.Equal(t, ":9000", cfg.HTTPAddr)
		assert.Equal(t, SignerMinio, cfg.Signer)
		assert.Equal(t, 2*time.Minute, cfg.AccessTokenValidityDuration)
		assert.Equal(t, time.Hour, cfg.PresignTTL)
		assert.Equal(t, int64(4096), cfg.MaxUploadSize)
		assert.Equal(t, "instructor", cfg.DevUsername)
		// untouched
		assert.Equal(t, ":50051", cfg.GRPCAddr)
		assert.Equal(t, 24*time.Hour, cfg.RefreshTokenValidityDuration)
	})

	t.Run("no config flag leaves config alone", func(t *testing.T) {
		os.Args = []string{"server"}
		cfg := Config{HTTPAddr: "keep"}
		parseJson(&cfg)
		assert.Equal(t, "keep", cfg.HTTPAddr)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ nope`), 0o600))
		os.Args = []string{"server", "-c", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
