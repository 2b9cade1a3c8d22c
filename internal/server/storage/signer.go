// Package storage signs upload destinations on S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/marsha-uploader/internal/server/config"
)

// Destination is a signed, time-limited upload target. An empty Method
// means a multipart POST carrying Fields before the file part.
type Destination struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
	Method string            `json:"method,omitempty"`
}

// Signer issues a Destination that accepts one object under key.
type Signer interface {
	SignUpload(ctx context.Context, key, mimetype string, maxSize int64) (*Destination, error)
}

// New builds the signer selected by cfg.Signer.
func New(ctx context.Context, cfg *config.Config) (Signer, error) {
	switch cfg.Signer {
	case config.SignerS3:
		return NewS3Signer(ctx, cfg)
	case config.SignerMinio:
		return NewMinioSigner(cfg)
	default:
		return nil, fmt.Errorf("unknown signer %q", cfg.Signer)
	}
}

// endpointHost splits an endpoint URL such as "http://127.0.0.1:9000/" into
// its host and whether it uses TLS. Bare hosts are taken as TLS.
func endpointHost(endpoint string) (string, bool, error) {
	endpoint = strings.TrimSpace(endpoint)
	if !strings.Contains(endpoint, "://") {
		return strings.TrimSuffix(endpoint, "/"), true, nil
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("parse endpoint: %w", err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("endpoint %q has no host", endpoint)
	}
	return u.Host, u.Scheme == "https", nil
}
