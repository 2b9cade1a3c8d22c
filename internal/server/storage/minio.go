package storage

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/dmitrijs2005/marsha-uploader/internal/server/config"
)

type postPolicyClient interface {
	PresignedPostPolicy(ctx context.Context, p *minio.PostPolicy) (*url.URL, map[string]string, error)
}

var newMinioClient = func(endpoint string, opts *minio.Options) (postPolicyClient, error) {
	return minio.New(endpoint, opts)
}

// MinioSigner issues S3 POST policies. The policy pins the key and the
// content type and caps the body at the declared maximum size.
type MinioSigner struct {
	client postPolicyClient
	bucket string
	ttl    time.Duration
}

func NewMinioSigner(cfg *config.Config) (*MinioSigner, error) {
	host, secure, err := endpointHost(cfg.S3BaseEndpoint)
	if err != nil {
		return nil, err
	}

	client, err := newMinioClient(host, &minio.Options{
		Creds:        credentials.NewStaticV4(cfg.S3RootUser, cfg.S3RootPassword, ""),
		Secure:       secure,
		Region:       cfg.S3Region,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	return &MinioSigner{client: client, bucket: cfg.S3Bucket, ttl: cfg.PresignTTL}, nil
}

func (s *MinioSigner) SignUpload(ctx context.Context, key, mimetype string, maxSize int64) (*Destination, error) {
	policy := minio.NewPostPolicy()
	if err := policy.SetBucket(s.bucket); err != nil {
		return nil, err
	}
	if err := policy.SetKey(key); err != nil {
		return nil, err
	}
	if err := policy.SetExpires(time.Now().UTC().Add(s.ttl)); err != nil {
		return nil, err
	}
	if err := policy.SetContentType(mimetype); err != nil {
		return nil, err
	}
	if err := policy.SetContentLengthRange(0, maxSize); err != nil {
		return nil, err
	}

	u, fields, err := s.client.PresignedPostPolicy(ctx, policy)
	if err != nil {
		return nil, fmt.Errorf("presign post policy: %w", err)
	}

	return &Destination{URL: u.String(), Fields: fields}, nil
}
