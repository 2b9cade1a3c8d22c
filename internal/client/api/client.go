// Package api is the HTTP client of the LMS upload endpoints.
//
// Authenticated calls carry the session's bearer token and locale. An access
// token about to expire is refreshed before the call; a 401 answer triggers one
// refresh and one retry.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/marsha-uploader/internal/client/auth"
	"github.com/dmitrijs2005/marsha-uploader/internal/client/models"
	"github.com/dmitrijs2005/marsha-uploader/internal/common"
	"github.com/dmitrijs2005/marsha-uploader/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenPath = "/account/api/token/"

	DefaultRefreshLeeway = 30 * time.Second
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL       string
	Locale        string
	HTTPClient    *http.Client
	RefreshLeeway time.Duration
}

type Client struct {
	baseURL   string
	locale    string
	http      *http.Client
	leeway    time.Duration
	tokens    *auth.TokenStore
	refresher *auth.Refresher
	logger    logging.Logger
	now       func() time.Time
}

// New builds a Client. refresher may be nil, in which case tokens are never
// refreshed.
func New(opts Options, tokens *auth.TokenStore, refresher *auth.Refresher, logger logging.Logger) *Client {
	c := &Client{
		baseURL:   strings.TrimSuffix(opts.BaseURL, "/"),
		locale:    opts.Locale,
		http:      opts.HTTPClient,
		leeway:    opts.RefreshLeeway,
		tokens:    tokens,
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.locale == "" {
		c.locale = common.DefaultLocale
	}
	if c.leeway <= 0 {
		c.leeway = DefaultRefreshLeeway
	}
	return c
}

// ObtainToken logs in and stores the issued pair.
func (c *Client) ObtainToken(ctx context.Context, username, password string) (models.TokenPair, error) {
	var pair models.TokenPair
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, TokenPath, body, &pair, false); err != nil {
		return models.TokenPair{}, err
	}
	if pair.Access == "" {
		return models.TokenPair{}, auth.ErrMissingAccessToken
	}
	c.tokens.Set(pair)
	return pair, nil
}

// InitiateUpload asks for a signed destination for the file described by req.
func (c *Client) InitiateUpload(ctx context.Context, ref models.ObjectRef, req models.InitiateUploadRequest) (*models.Destination, error) {
	var dst models.Destination
	if err := c.do(ctx, http.MethodPost, resourcePath(ref, "initiate-upload/"), req, &dst, true); err != nil {
		return nil, err
	}
	return &dst, nil
}

// UploadEnded reports the stored key and returns the updated resource.
func (c *Client) UploadEnded(ctx context.Context, ref models.ObjectRef, fileKey string) (models.Resource, error) {
	var res models.Resource
	err := c.do(ctx, http.MethodPost, resourcePath(ref, "upload-ended/"), models.UploadEndedRequest{FileKey: fileKey}, &res, true)
	return res, err
}

func (c *Client) GetResource(ctx context.Context, ref models.ObjectRef) (models.Resource, error) {
	var res models.Resource
	err := c.do(ctx, http.MethodGet, resourcePath(ref, ""), nil, &res, true)
	return res, err
}

// PatchResource sends a partial update and returns the updated resource.
func (c *Client) PatchResource(ctx context.Context, ref models.ObjectRef, fields map[string]any) (models.Resource, error) {
	var res models.Resource
	err := c.do(ctx, http.MethodPatch, resourcePath(ref, ""), fields, &res, true)
	return res, err
}

func resourcePath(ref models.ObjectRef, action string) string {
	return "/api/" + ref.Path() + action
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, authenticated bool) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	var token string
	if authenticated {
		var err error
		if token, err = c.freshAccessToken(ctx); err != nil {
			return err
		}
	}

	resp, err := c.send(ctx, method, path, payload, token)
	if err != nil {
		return err
	}

	if authenticated && resp.StatusCode == http.StatusUnauthorized && c.refresher != nil {
		drain(resp)
		c.logger.Debug(ctx, "access token rejected, refreshing", "path", path)

		if token, err = c.refresher.Refresh(ctx, token); err != nil {
			return err
		}
		if resp, err = c.send(ctx, method, path, payload, token); err != nil {
			return err
		}
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var data map[string]any
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		_ = json.Unmarshal(b, &data)
		return newResponseError(resp.StatusCode, data)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, token string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.AcceptLanguageHeaderName, c.locale)
	if token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}

// freshAccessToken returns the stored access token, refreshing it first when
// it expires within the leeway. Tokens whose expiry cannot be read are used
// as they are.
func (c *Client) freshAccessToken(ctx context.Context) (string, error) {
	token := c.tokens.Get().Access
	if token == "" || c.refresher == nil {
		return token, nil
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil || claims.ExpiresAt == nil {
		return token, nil
	}
	if claims.ExpiresAt.Time.After(c.now().Add(c.leeway)) {
		return token, nil
	}

	c.logger.Debug(ctx, "access token about to expire, refreshing", "exp", claims.ExpiresAt.Time)
	return c.refresher.Refresh(ctx, token)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
