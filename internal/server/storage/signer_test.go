package storage

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/marsha-uploader/internal/server/config"
)

func testConfig(signer string) *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Signer = signer
	cfg.S3RootUser = "minioadmin"
	cfg.S3RootPassword = "minioadmin"
	cfg.S3BaseEndpoint = "http://127.0.0.1:9000"
	cfg.S3Bucket = "marsha"
	cfg.PresignTTL = 10 * time.Minute
	return cfg
}

func TestEndpointHost(t *testing.T) {
	tests := []struct {
		in     string
		host   string
		secure bool
		err    bool
	}{
		{"http://127.0.0.1:9000/", "127.0.0.1:9000", false, false},
		{"https://s3.eu-west-3.amazonaws.com", "s3.eu-west-3.amazonaws.com", true, false},
		{"minio.local:9000", "minio.local:9000", true, false},
		{"http://", "", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			host, secure, err := endpointHost(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.host, host)
			assert.Equal(t, tt.secure, secure)
		})
	}
}

func TestNew_SelectsSigner(t *testing.T) {
	s, err := New(context.Background(), testConfig(config.SignerS3))
	require.NoError(t, err)
	assert.IsType(t, &S3Signer{}, s)

	s, err = New(context.Background(), testConfig(config.SignerMinio))
	require.NoError(t, err)
	assert.IsType(t, &MinioSigner{}, s)

	_, err = New(context.Background(), testConfig("gcs"))
	assert.Error(t, err)
}

func TestS3Signer_SignUpload(t *testing.T) {
	s, err := NewS3Signer(context.Background(), testConfig(config.SignerS3))
	require.NoError(t, err)

	dst, err := s.SignUpload(context.Background(), "videos/v1/1700000000_course.mp4", "video/mp4", 1024)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPut, dst.Method)
	assert.Equal(t, "videos/v1/1700000000_course.mp4", dst.Fields["key"])

	u, err := url.Parse(dst.URL)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", u.Host)
	assert.Equal(t, "/marsha/videos/v1/1700000000_course.mp4", u.Path)
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
	assert.Equal(t, "600", u.Query().Get("X-Amz-Expires"))
}

func TestNewS3Signer_ConfigError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("load-fail")
	}

	_, err := NewS3Signer(context.Background(), testConfig(config.SignerS3))
	assert.EqualError(t, err, "load-fail")
}

func TestMinioSigner_SignUpload(t *testing.T) {
	s, err := NewMinioSigner(testConfig(config.SignerMinio))
	require.NoError(t, err)

	dst, err := s.SignUpload(context.Background(), "documents/d1/1700000000_syllabus.pdf", "application/pdf", 2048)
	require.NoError(t, err)

	assert.Empty(t, dst.Method)
	assert.True(t, strings.HasPrefix(dst.URL, "http://127.0.0.1:9000/marsha"), dst.URL)
	assert.Equal(t, "documents/d1/1700000000_syllabus.pdf", dst.Fields["key"])
	assert.Equal(t, "application/pdf", dst.Fields["Content-Type"])
	assert.NotEmpty(t, dst.Fields["policy"])
	assert.NotEmpty(t, dst.Fields["x-amz-signature"])
}

type fakePolicyClient struct {
	policy *minio.PostPolicy
	err    error
}

func (f *fakePolicyClient) PresignedPostPolicy(ctx context.Context, p *minio.PostPolicy) (*url.URL, map[string]string, error) {
	f.policy = p
	if f.err != nil {
		return nil, nil, f.err
	}
	u, _ := url.Parse("http://bucket.example/")
	return u, map[string]string{"key": "k"}, nil
}

func TestMinioSigner_Seams(t *testing.T) {
	orig := newMinioClient
	t.Cleanup(func() { newMinioClient = orig })

	fake := &fakePolicyClient{}
	var gotEndpoint string
	var gotOpts *minio.Options
	newMinioClient = func(endpoint string, opts *minio.Options) (postPolicyClient, error) {
		gotEndpoint, gotOpts = endpoint, opts
		return fake, nil
	}

	s, err := NewMinioSigner(testConfig(config.SignerMinio))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", gotEndpoint)
	assert.False(t, gotOpts.Secure)
	assert.Equal(t, minio.BucketLookupPath, gotOpts.BucketLookup)

	dst, err := s.SignUpload(context.Background(), "k", "video/mp4", 10)
	require.NoError(t, err)
	assert.Equal(t, "http://bucket.example/", dst.URL)
	require.NotNil(t, fake.policy)
	assert.Contains(t, fake.policy.String(), "content-length-range")

	fake.err = errors.New("denied")
	_, err = s.SignUpload(context.Background(), "k", "video/mp4", 10)
	assert.ErrorContains(t, err, "denied")

	newMinioClient = func(string, *minio.Options) (postPolicyClient, error) {
		return nil, errors.New("bad endpoint")
	}
	_, err = NewMinioSigner(testConfig(config.SignerMinio))
	assert.ErrorContains(t, err, "bad endpoint")
}
